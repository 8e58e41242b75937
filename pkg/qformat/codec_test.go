package qformat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var q115 = MustNew(16, 15)

func TestEncodeKnownValues(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		v    float64
		f    Format
		r    Rounding
		code uint64
		bits string
	}{
		{"half", 0.5, q115, Round, 16384, "0100000000000000"},
		{"minus half", -0.5, q115, Round, 49152, "1100000000000000"},
		{"minus one", -1, q115, TruncateTowardZero, 32768, "1000000000000000"},
		{"one lsb", 1.0 / 32768, q115, TruncateTowardZero, 1, "0000000000000001"},
		{"minus one lsb", -1.0 / 32768, q115, TruncateTowardZero, 65535, "1111111111111111"},
		{"tiny negative truncates to zero", -1e-9, q115, TruncateTowardZero, 0, "0000000000000000"},
		{"q4.12 weight", 1.25, MustNew(16, 12), TruncateTowardZero, 5120, "0001010000000000"},
		{"q4.12 negative weight", -1.25, MustNew(16, 12), TruncateTowardZero, 60416, "1110110000000000"},
		{"label with no frac bits", 7, MustNew(16, 0), TruncateTowardZero, 7, "0000000000000111"},
		{"narrow width", -1, MustNew(4, 2), Round, 12, "1100"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(tc.v, tc.f, tc.r)
			require.NoError(t, err)
			assert.Equal(t, tc.code, got.Code)
			assert.Equal(t, tc.bits, got.Bits)
		})
	}
}

func TestEncodeRoundingPolicies(t *testing.T) {
	t.Parallel()

	// 0.7 LSB: truncation drops it, rounding keeps one LSB.
	v := 0.7 / 32768
	r, err := Encode(v, q115, Round)
	require.NoError(t, err)
	tr, err := Encode(v, q115, TruncateTowardZero)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.Code)
	assert.Equal(t, uint64(0), tr.Code)

	// Ties go to even in both signs.
	even, err := Encode(2.5/32768, q115, Round)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), even.Code)
	negEven, err := Encode(-2.5/32768, q115, Round)
	require.NoError(t, err)
	assert.Equal(t, uint64(65536-2), negEven.Code)
}

func TestEncodeZeroIsZeroForEveryFormat(t *testing.T) {
	t.Parallel()
	for w := uint(1); w <= MaxDataWidth; w++ {
		for fr := uint(0); fr <= w; fr++ {
			f := MustNew(w, fr)
			for _, r := range []Rounding{Round, TruncateTowardZero} {
				got, err := Encode(0, f, r)
				require.NoError(t, err)
				require.Equal(t, uint64(0), got.Code, "format %s", f)
				require.Len(t, got.Bits, int(w))
			}
		}
	}
}

func TestEncodeSaturatedClampsInsteadOfWrapping(t *testing.T) {
	t.Parallel()

	got, err := EncodeSaturated(10.0, q115, Round)
	require.NoError(t, err)
	assert.Equal(t, "0111111111111111", got.Bits)
	assert.Equal(t, uint64(32767), got.Code)

	got, err = EncodeSaturated(-10.0, q115, Round)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000", got.Bits)
}

func TestEncodeRangeViolation(t *testing.T) {
	t.Parallel()

	for _, v := range []float64{2.0, -2.0, 100, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := Encode(v, q115, TruncateTowardZero)
		require.ErrorIs(t, err, ErrRangeViolation, "value %v", v)
	}

	// Just under 2^DataWidth is still accepted; the codec only rejects true overflow.
	_, err := Encode(1.99996, q115, TruncateTowardZero)
	require.NoError(t, err)
}

func TestEncodeInvalidFormat(t *testing.T) {
	t.Parallel()
	_, err := Encode(0.5, Format{DataWidth: 8, FracBits: 9}, Round)
	require.ErrorIs(t, err, ErrInvalidFormat)
	_, err = Encode(0.5, Format{}, Round)
	require.ErrorIs(t, err, ErrInvalidFormat)
}

func TestTwosComplementIdentity(t *testing.T) {
	t.Parallel()

	for _, v := range []float64{0.5, 0.25, 0.123, 0.999, 1.0 / 32768, 0.75} {
		pos, err := Encode(v, q115, TruncateTowardZero)
		require.NoError(t, err)
		neg, err := Encode(-v, q115, TruncateTowardZero)
		require.NoError(t, err)
		assert.Equal(t, q115.Modulus(), pos.Code+neg.Code, "value %v", v)
	}
}

func TestDecodeRoundTripWithinHalfStep(t *testing.T) {
	t.Parallel()

	formats := []Format{q115, MustNew(16, 12), MustNew(16, 11), MustNew(8, 4), MustNew(24, 20)}
	for _, f := range formats {
		half := f.Step() / 2
		n := 997
		for i := 0; i <= n; i++ {
			v := f.Min() + (f.Max()-f.Min())*float64(i)/float64(n)
			q, err := Encode(v, f, Round)
			require.NoError(t, err)
			back := Decode(q.Code, f)
			require.LessOrEqual(t, math.Abs(back-v), half, "format %s value %v", f, v)
			require.Equal(t, back, q.Float(f))
		}
	}
}

func TestValueInt(t *testing.T) {
	t.Parallel()
	v, err := Encode(-0.5, q115, Round)
	require.NoError(t, err)
	assert.Equal(t, int64(-16384), v.Int(q115))
	assert.Equal(t, -0.5, v.Float(q115))
}

func TestZeroAndBits(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "0000", Zero(MustNew(4, 2)).Bits)
	assert.Equal(t, "00101", Bits(5, 5))
	assert.Equal(t, "101", Bits(5, 2))
}

func TestParseRounding(t *testing.T) {
	t.Parallel()
	r, err := ParseRounding("Truncate")
	require.NoError(t, err)
	assert.Equal(t, TruncateTowardZero, r)
	r, err = ParseRounding("nearest")
	require.NoError(t, err)
	assert.Equal(t, Round, r)
	_, err = ParseRounding("ceil")
	require.Error(t, err)
	assert.Equal(t, "truncate", TruncateTowardZero.String())
}
