package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/samcharles93/fxmif/internal/params"
	"github.com/samcharles93/fxmif/pkg/lut"
	"github.com/samcharles93/fxmif/pkg/qformat"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg)
}

func writeError(c *echo.Context, status int, errType, msg string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
		},
	})
}

// writeDomainError maps package sentinels to status codes.
func writeDomainError(c *echo.Context, err error) error {
	switch {
	case errors.Is(err, qformat.ErrRangeViolation):
		return writeError(c, http.StatusUnprocessableEntity, "range_violation", err.Error())
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, qformat.ErrInvalidFormat),
		errors.Is(err, lut.ErrInvalidConfig),
		errors.Is(err, lut.ErrUnknownActivation),
		errors.Is(err, params.ErrMalformedDocument):
		return writeBadRequest(c, err.Error())
	default:
		return writeError(c, http.StatusInternalServerError, "server_error", err.Error())
	}
}

func decodeJSON[T any](r io.Reader) (T, error) {
	var out T
	dec := json.NewDecoder(r)
	if err := dec.Decode(&out); err != nil {
		return out, newInvalidRequest(err.Error())
	}
	return out, nil
}

// queryUint reads an unsigned query parameter, returning def when absent.
func queryUint(c *echo.Context, name string, def uint) (uint, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, newInvalidRequest(fmt.Sprintf("%s: %v", name, err))
	}
	return uint(v), nil
}
