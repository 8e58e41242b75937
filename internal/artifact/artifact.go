// Package artifact writes the text layouts consumed by the hardware toolchain:
// memory-init files, C header arrays and thresholded image renderings.
package artifact

import (
	"bufio"
	"io"
	"strconv"

	"github.com/samcharles93/fxmif/pkg/qformat"
)

// Line termination for memory-init files.
type Termination uint8

const (
	// EveryLine ends every entry, including the last, with '\n'.
	EveryLine Termination = iota
	// NoFinalNewline separates entries with '\n' but leaves the last one bare.
	NoFinalNewline
)

// WriteMIF writes one zero-padded bit string per line.
func WriteMIF(w io.Writer, values []qformat.Value, term Termination) error {
	bw := bufio.NewWriter(w)
	for i, v := range values {
		if _, err := bw.WriteString(v.Bits); err != nil {
			return err
		}
		if term == EveryLine || i < len(values)-1 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// WriteArray writes `int <name>[]={c0,c1,...,cN,0};` and a newline. The values
// are the unsigned two's-complement codes in decimal; the trailing 0 is a sentinel.
func WriteArray(w io.Writer, name string, values []qformat.Value) error {
	bw := bufio.NewWriter(w)
	_, _ = bw.WriteString("int ")
	_, _ = bw.WriteString(name)
	_, _ = bw.WriteString("[]={")
	var num [20]byte
	for _, v := range values {
		_, _ = bw.Write(strconv.AppendUint(num[:0], v.Code, 10))
		_ = bw.WriteByte(',')
	}
	_, _ = bw.WriteString("0};\n")
	return bw.Flush()
}

// WriteInt writes `int <name>=<v>;` and a newline.
func WriteInt(w io.Writer, name string, v int) error {
	_, err := io.WriteString(w, "int "+name+"="+strconv.Itoa(v)+";\n")
	return err
}

// WriteThreshold renders pixels as "1 " (strictly positive) or "0 " tokens with
// a line break after every width tokens.
func WriteThreshold(w io.Writer, pixels []float64, width int) error {
	bw := bufio.NewWriter(w)
	for i, p := range pixels {
		tok := "0 "
		if p > 0 {
			tok = "1 "
		}
		_, _ = bw.WriteString(tok)
		if width > 0 && (i+1)%width == 0 {
			_ = bw.WriteByte('\n')
		}
	}
	return bw.Flush()
}

// WriteDecimals writes each value in shortest decimal form followed by a comma.
func WriteDecimals(w io.Writer, values []float64) error {
	bw := bufio.NewWriter(w)
	for _, v := range values {
		_, _ = bw.WriteString(FormatDecimal(v))
		_ = bw.WriteByte(',')
	}
	return bw.Flush()
}

// FormatDecimal prints v in shortest round-trip form, always with a decimal
// point ("0.0", "0.5", "1.0").
func FormatDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}
