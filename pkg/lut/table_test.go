package lut

import (
	"bytes"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/fxmif/pkg/qformat"
)

func TestDefaultSigmoidTable(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	tbl, err := Generate(cfg, Sigmoid)
	require.NoError(t, err)
	require.Len(t, tbl.Entries, 1024)

	for i := 1; i < len(tbl.Entries); i++ {
		require.GreaterOrEqual(t, tbl.Entries[i].Code, tbl.Entries[i-1].Code, "entry %d", i)
	}

	// Centred sampling: the middle entry sits at half a step, not at zero.
	assert.Equal(t, 0.015625, cfg.Input(512))
	assert.Equal(t, 0.03125, cfg.Step())
	mid, err := qformat.Encode(Sigmoid(0.015625), cfg.Format, qformat.Round)
	require.NoError(t, err)
	assert.Equal(t, mid, tbl.Entries[512])
	assert.NotEqual(t, uint64(16384), tbl.Entries[512].Code)
}

func TestTableSaturatesAtTheTop(t *testing.T) {
	t.Parallel()

	tbl, err := Generate(DefaultConfig(), Sigmoid)
	require.NoError(t, err)
	last := tbl.Entries[len(tbl.Entries)-1]
	assert.Equal(t, "0111111111111111", last.Bits)
	first := tbl.Entries[0]
	assert.Equal(t, "0000000000000000", first.Bits)
}

func TestWriteMIF(t *testing.T) {
	t.Parallel()

	cfg := Config{Format: qformat.MustNew(8, 7), AddressBits: 2, DomainIntBits: 1}
	tbl, err := Generate(cfg, func(x float64) float64 { return x / 2 })
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteMIF(&buf))
	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "", lines[4])
	// x = -0.75, -0.25, 0.25, 0.75 -> -0.375, -0.125, 0.125, 0.375 in Q1.7
	assert.Equal(t, []string{"11010000", "11110000", "00010000", "00110000"}, lines[:4])
}

func TestGenerateValidation(t *testing.T) {
	t.Parallel()

	_, err := Generate(Config{Format: qformat.MustNew(16, 15), AddressBits: 30}, Sigmoid)
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = Generate(DefaultConfig(), nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
	_, err = Generate(Config{Format: qformat.Format{DataWidth: 4, FracBits: 8}}, Sigmoid)
	require.ErrorIs(t, err, qformat.ErrInvalidFormat)
}

func TestSigmoidSaturatesOnOverflow(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Sigmoid(-1000))
	assert.Equal(t, 1.0, Sigmoid(1000))
	assert.Equal(t, 0.0, Sigmoid(math.Inf(-1)))
	assert.Equal(t, 1.0, Sigmoid(math.Inf(1)))
	assert.Equal(t, 0.5, Sigmoid(0))
	assert.Equal(t, -1.0, Tanh(math.Inf(-1)))
}

func TestLookup(t *testing.T) {
	t.Parallel()

	fn, err := Lookup(" Logistic ")
	require.NoError(t, err)
	assert.Equal(t, 0.5, fn(0))
	_, err = Lookup("swish")
	require.ErrorIs(t, err, ErrUnknownActivation)
	assert.Equal(t, []string{"logistic", "sigmoid", "tanh"}, Names())
}

func TestReport(t *testing.T) {
	t.Parallel()

	tbl, err := Generate(DefaultConfig(), Sigmoid)
	require.NoError(t, err)
	r := tbl.Report(Sigmoid)
	assert.Equal(t, 1024, r.Entries)
	// Rounding keeps every unsaturated entry within half an LSB.
	assert.LessOrEqual(t, r.MaxAbsError, tbl.Config.Format.Step())
	assert.Greater(t, r.MeanAbsError, 0.0)
	assert.LessOrEqual(t, r.MeanAbsError, r.MaxAbsError)
}

func TestTanhTableIsSymmetric(t *testing.T) {
	t.Parallel()

	cfg := Config{Format: qformat.MustNew(16, 14), AddressBits: 6, DomainIntBits: 3}
	tbl, err := Generate(cfg, Tanh)
	require.NoError(t, err)
	f := cfg.Format
	n := len(tbl.Entries)
	for i := range n / 2 {
		assert.Equal(t, -tbl.Entries[i].Int(f), tbl.Entries[n-1-i].Int(f), "address %d", i)
	}
}

func TestPlot(t *testing.T) {
	t.Parallel()

	tbl, err := Generate(Config{Format: qformat.MustNew(16, 15), AddressBits: 6, DomainIntBits: 5}, Sigmoid)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "lut.png")
	require.NoError(t, tbl.Plot(Sigmoid, "sigmoid", path))
	assert.FileExists(t, path)
}
