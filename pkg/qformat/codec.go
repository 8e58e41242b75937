package qformat

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Rounding selects how a scaled magnitude becomes an integer.
// The lookup-table path rounds; parameter and pixel paths truncate.
type Rounding uint8

const (
	// Round rounds to nearest with ties to even.
	Round Rounding = iota
	TruncateTowardZero
)

func (r Rounding) String() string {
	switch r {
	case Round:
		return "round"
	case TruncateTowardZero:
		return "truncate"
	default:
		return "rounding(" + strconv.Itoa(int(r)) + ")"
	}
}

// ParseRounding accepts "round" / "nearest" and "truncate" / "trunc".
func ParseRounding(s string) (Rounding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "round", "nearest", "":
		return Round, nil
	case "truncate", "trunc":
		return TruncateTowardZero, nil
	default:
		return 0, fmt.Errorf("qformat: unknown rounding %q", s)
	}
}

func (r Rounding) apply(x float64) float64 {
	if r == TruncateTowardZero {
		return math.Trunc(x)
	}
	return math.RoundToEven(x)
}

// Value is a quantized scalar. Code is the two's-complement bit pattern read as
// unsigned; Bits is Code rendered in binary, zero-padded to the data width.
type Value struct {
	Code uint64
	Bits string
}

// Int returns the signed reading of Code under f.
func (v Value) Int(f Format) int64 {
	return signed(v.Code, f)
}

// Float decodes v back to a real under f.
func (v Value) Float(f Format) float64 {
	return Decode(v.Code, f)
}

// Encode quantizes v under f. The scaled magnitude must be below 2^DataWidth,
// otherwise ErrRangeViolation is returned instead of wrapping.
func Encode(v float64, f Format, r Rounding) (Value, error) {
	if err := f.Validate(); err != nil {
		return Value{}, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Value{}, fmt.Errorf("%w: %v is not finite", ErrRangeViolation, v)
	}

	neg := v < 0
	m := r.apply(math.Ldexp(math.Abs(v), int(f.FracBits)))
	if m >= float64(f.Modulus()) {
		return Value{}, fmt.Errorf("%w: %v scales to %v, %s holds below %d", ErrRangeViolation, v, m, f, f.Modulus())
	}

	code := uint64(m)
	if neg && code != 0 {
		code = (f.Modulus() - code) % f.Modulus()
	}
	return Value{Code: code, Bits: Bits(code, f.DataWidth)}, nil
}

// EncodeSaturated clamps v into f's range before encoding.
func EncodeSaturated(v float64, f Format, r Rounding) (Value, error) {
	return Encode(f.Saturate(v), f, r)
}

// Zero is the all-zero code for f.
func Zero(f Format) Value {
	return Value{Code: 0, Bits: strings.Repeat("0", int(f.DataWidth))}
}

// Decode interprets code as a two's-complement integer and divides by 2^FracBits.
func Decode(code uint64, f Format) float64 {
	return math.Ldexp(float64(signed(code, f)), -int(f.FracBits))
}

// Bits renders code in binary, zero-padded to width characters.
func Bits(code uint64, width uint) string {
	s := strconv.FormatUint(code, 2)
	if pad := int(width) - len(s); pad > 0 {
		return strings.Repeat("0", pad) + s
	}
	return s
}

func signed(code uint64, f Format) int64 {
	code &= f.Modulus() - 1
	if f.DataWidth > 0 && code&(uint64(1)<<(f.DataWidth-1)) != 0 {
		return int64(code) - int64(f.Modulus())
	}
	return int64(code)
}
