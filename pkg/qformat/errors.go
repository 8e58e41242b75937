package qformat

import "errors"

var (
	// ErrRangeViolation is returned when a scaled magnitude does not fit in the
	// format's data width after any requested clamping.
	ErrRangeViolation = errors.New("qformat: range violation")
	ErrInvalidFormat  = errors.New("qformat: invalid format")
)
