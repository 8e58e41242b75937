// Package api serves quantization previews over HTTP: single values, lookup
// tables and parameter documents, all rendered in memory.
package api

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/fxmif/internal/logger"
	"github.com/samcharles93/fxmif/internal/params"
	"github.com/samcharles93/fxmif/internal/sink"
	"github.com/samcharles93/fxmif/internal/version"
	"github.com/samcharles93/fxmif/pkg/lut"
	"github.com/samcharles93/fxmif/pkg/qformat"
)

const (
	// MaxPreviewAddressBits bounds /v1/lut responses to 64K lines.
	MaxPreviewAddressBits = 16
	DefaultMaxBodyBytes   = 32 << 20
)

type Options struct {
	Params       params.Options
	LUT          lut.Config
	MaxBodyBytes int64
	Logger       logger.Logger
}

type Server struct {
	opts  Options
	log   logger.Logger
	clock func() time.Time
}

func NewServer(opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Server{opts: opts, log: log, clock: time.Now}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/encode", s.handleEncode)
	e.GET("/v1/lut", s.handleLUT)
	e.POST("/v1/params", s.handleParams)
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Version: version.String()})
}

func (s *Server) handleEncode(c *echo.Context) error {
	req, err := decodeJSON[EncodeRequest](s.body(c))
	if err != nil {
		return writeBadRequest(c, err.Error())
	}
	if req.Value == nil {
		return writeBadRequest(c, "value is required")
	}
	format := s.opts.LUT.Format
	if req.Format != "" {
		if format, err = qformat.Parse(req.Format); err != nil {
			return writeDomainError(c, err)
		}
	}
	if err := format.Validate(); err != nil {
		return writeDomainError(c, err)
	}
	rounding, err := qformat.ParseRounding(req.Rounding)
	if err != nil {
		return writeBadRequest(c, err.Error())
	}

	encode := qformat.Encode
	if req.Saturate {
		encode = qformat.EncodeSaturated
	}
	v, err := encode(*req.Value, format, rounding)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, EncodeResponse{
		Format:  format.String(),
		Code:    v.Code,
		Bits:    v.Bits,
		Signed:  v.Int(format),
		Decoded: v.Float(format),
	})
}

func (s *Server) handleLUT(c *echo.Context) error {
	cfg := s.opts.LUT
	var err error
	if cfg.AddressBits, err = queryUint(c, "address_bits", cfg.AddressBits); err != nil {
		return writeDomainError(c, err)
	}
	if cfg.DomainIntBits, err = queryUint(c, "domain_int_bits", cfg.DomainIntBits); err != nil {
		return writeDomainError(c, err)
	}
	if raw := c.QueryParam("format"); raw != "" {
		if cfg.Format, err = qformat.Parse(raw); err != nil {
			return writeDomainError(c, err)
		}
	}
	if cfg.AddressBits > MaxPreviewAddressBits {
		return writeBadRequest(c, "address_bits above preview limit")
	}
	name := c.QueryParam("activation")
	if name == "" {
		name = "sigmoid"
	}
	fn, err := lut.Lookup(name)
	if err != nil {
		return writeDomainError(c, err)
	}
	table, err := lut.Generate(cfg, fn)
	if err != nil {
		return writeDomainError(c, err)
	}

	var buf bytes.Buffer
	if err := table.WriteMIF(&buf); err != nil {
		return writeDomainError(c, err)
	}
	report := table.Report(fn)
	s.log.Debug("lut preview", "activation", name, "entries", report.Entries, "max_abs_error", report.MaxAbsError)
	return c.String(http.StatusOK, buf.String())
}

func (s *Server) handleParams(c *echo.Context) error {
	doc, err := params.Decode(s.body(c))
	if err != nil {
		return writeDomainError(c, err)
	}
	mem := sink.NewMemory()
	emitter, err := params.New(mem, s.opts.Params, s.log)
	if err != nil {
		return writeDomainError(c, err)
	}
	start := s.clock()
	summary, err := emitter.Emit(c.Request().Context(), doc)
	if err != nil {
		return writeDomainError(c, err)
	}
	s.log.Debug("params preview", "neurons", summary.Neurons, "elapsed", s.clock().Sub(start))

	files := mem.Files()
	artifacts := make(map[string]string, len(files))
	for name, data := range files {
		artifacts[name] = string(data)
	}
	return c.JSON(http.StatusOK, ParamsResponse{Artifacts: artifacts, Summary: summary})
}

func (s *Server) body(c *echo.Context) io.Reader {
	return io.LimitReader(c.Request().Body, s.opts.MaxBodyBytes)
}
