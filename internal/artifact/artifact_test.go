package artifact

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samcharles93/fxmif/pkg/qformat"
)

func values(t *testing.T, f qformat.Format, vs ...float64) []qformat.Value {
	t.Helper()
	out := make([]qformat.Value, len(vs))
	for i, v := range vs {
		q, err := qformat.Encode(v, f, qformat.TruncateTowardZero)
		require.NoError(t, err)
		out[i] = q
	}
	return out
}

func TestWriteMIF(t *testing.T) {
	t.Parallel()

	f := qformat.MustNew(4, 2)
	vs := values(t, f, 0.5, -0.5)

	var buf bytes.Buffer
	require.NoError(t, WriteMIF(&buf, vs, EveryLine))
	assert.Equal(t, "0010\n1110\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteMIF(&buf, vs, NoFinalNewline))
	assert.Equal(t, "0010\n1110", buf.String())

	buf.Reset()
	require.NoError(t, WriteMIF(&buf, nil, NoFinalNewline))
	assert.Empty(t, buf.String())
}

func TestWriteArray(t *testing.T) {
	t.Parallel()

	f := qformat.MustNew(16, 15)
	var buf bytes.Buffer
	require.NoError(t, WriteArray(&buf, "weightValues", values(t, f, 0.5, -0.5, 0)))
	assert.Equal(t, "int weightValues[]={16384,49152,0,0};\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteArray(&buf, "biasValues", nil))
	assert.Equal(t, "int biasValues[]={0};\n", buf.String())
}

func TestWriteInt(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteInt(&buf, "result", 7))
	assert.Equal(t, "int result=7;\n", buf.String())
}

func TestWriteThreshold(t *testing.T) {
	t.Parallel()

	pixels := make([]float64, 784)
	for i := range pixels {
		if i%3 == 0 {
			pixels[i] = 0.5
		}
	}
	pixels[1] = -0.25

	var buf bytes.Buffer
	require.NoError(t, WriteThreshold(&buf, pixels, 28))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 28)
	for _, line := range lines {
		require.Len(t, strings.Fields(line), 28)
		require.True(t, strings.HasSuffix(line, " "))
	}
	assert.True(t, strings.HasPrefix(lines[0], "1 0 0 1 "))
}

func TestFormatDecimal(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "0.0", FormatDecimal(0))
	assert.Equal(t, "1.0", FormatDecimal(1))
	assert.Equal(t, "0.01171875", FormatDecimal(3.0/256))

	var buf bytes.Buffer
	require.NoError(t, WriteDecimals(&buf, []float64{0, 0.5}))
	assert.Equal(t, "0.0,0.5,", buf.String())
}
