// Package qformat converts real values to and from fixed-width two's-complement
// codes under a Q-format (integer bits + fractional bits within a fixed width).
package qformat

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// MaxDataWidth bounds the code width so every code fits a uint64 and every
// step is exactly representable as a float64.
const MaxDataWidth = 32

// Format is a fixed-point layout. IntBits (DataWidth - FracBits) includes the sign bit.
type Format struct {
	DataWidth uint
	FracBits  uint
}

// New returns a validated format.
func New(dataWidth, fracBits uint) (Format, error) {
	f := Format{DataWidth: dataWidth, FracBits: fracBits}
	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

// MustNew is New for package-level constants and tests.
func MustNew(dataWidth, fracBits uint) Format {
	f, err := New(dataWidth, fracBits)
	if err != nil {
		panic(err)
	}
	return f
}

func (f Format) Validate() error {
	if f.DataWidth == 0 || f.DataWidth > MaxDataWidth {
		return fmt.Errorf("%w: data width %d not in [1,%d]", ErrInvalidFormat, f.DataWidth, MaxDataWidth)
	}
	if f.FracBits > f.DataWidth {
		return fmt.Errorf("%w: frac bits %d exceed data width %d", ErrInvalidFormat, f.FracBits, f.DataWidth)
	}
	return nil
}

func (f Format) IntBits() uint { return f.DataWidth - f.FracBits }

// Step is the value of one least significant bit.
func (f Format) Step() float64 { return math.Ldexp(1, -int(f.FracBits)) }

// Min is the most negative representable value, -2^(IntBits-1).
func (f Format) Min() float64 { return -math.Ldexp(1, int(f.IntBits())-1) }

// Max is the largest representable value, 2^(IntBits-1) - 2^-FracBits.
func (f Format) Max() float64 { return math.Ldexp(1, int(f.IntBits())-1) - f.Step() }

// Saturate clamps v into [Min, Max]. NaN is returned unchanged.
func (f Format) Saturate(v float64) float64 {
	switch {
	case v > f.Max():
		return f.Max()
	case v < f.Min():
		return f.Min()
	default:
		return v
	}
}

// Modulus is 2^DataWidth.
func (f Format) Modulus() uint64 { return uint64(1) << f.DataWidth }

// String renders the format as Q<int>.<frac>.
func (f Format) String() string {
	return "Q" + strconv.FormatUint(uint64(f.IntBits()), 10) + "." + strconv.FormatUint(uint64(f.FracBits), 10)
}

// Parse reads a "Q<int>.<frac>" string, e.g. "Q1.15" or "q4.12".
func Parse(s string) (Format, error) {
	s = strings.TrimSpace(s)
	if len(s) < 4 || (s[0] != 'Q' && s[0] != 'q') {
		return Format{}, fmt.Errorf("%w: %q is not Q<int>.<frac>", ErrInvalidFormat, s)
	}
	intPart, fracPart, ok := strings.Cut(s[1:], ".")
	if !ok {
		return Format{}, fmt.Errorf("%w: %q is not Q<int>.<frac>", ErrInvalidFormat, s)
	}
	i, err := strconv.ParseUint(intPart, 10, 8)
	if err != nil {
		return Format{}, fmt.Errorf("%w: integer bits in %q: %v", ErrInvalidFormat, s, err)
	}
	fr, err := strconv.ParseUint(fracPart, 10, 8)
	if err != nil {
		return Format{}, fmt.Errorf("%w: fractional bits in %q: %v", ErrInvalidFormat, s, err)
	}
	return New(uint(i+fr), uint(fr))
}

// MarshalText and UnmarshalText let formats appear in YAML and JSON as "Q1.15".
func (f Format) MarshalText() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
