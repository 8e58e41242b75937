// Package lut samples activation functions into fixed-point lookup tables and
// writes them as memory-initialization files.
package lut

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/samcharles93/fxmif/pkg/qformat"
)

// MaxAddressBits caps the table at 16M entries.
const MaxAddressBits = 24

// DefaultFileName is the memory-init file name the hardware project expects.
const DefaultFileName = "sigContent.mif"

var (
	ErrInvalidConfig     = errors.New("lut: invalid config")
	ErrUnknownActivation = errors.New("lut: unknown activation")
)

// Config describes a table. DomainIntBits is the sum of the integer widths of the
// two operands whose product indexes the table (weight and input).
type Config struct {
	Format        qformat.Format
	AddressBits   uint
	DomainIntBits uint
}

// DefaultConfig is a 1024-entry Q1.15 table over [-16, 16] (4 weight + 1 input int bits).
func DefaultConfig() Config {
	return Config{
		Format:        qformat.MustNew(16, 15),
		AddressBits:   10,
		DomainIntBits: 5,
	}
}

func (c Config) Validate() error {
	if err := c.Format.Validate(); err != nil {
		return err
	}
	if c.AddressBits > MaxAddressBits {
		return fmt.Errorf("%w: address bits %d exceed %d", ErrInvalidConfig, c.AddressBits, MaxAddressBits)
	}
	if c.DomainIntBits > 62 {
		return fmt.Errorf("%w: domain int bits %d too large", ErrInvalidConfig, c.DomainIntBits)
	}
	return nil
}

// Entries is 2^AddressBits.
func (c Config) Entries() int { return 1 << c.AddressBits }

// Domain returns the symmetric input range [-2^(DomainIntBits-1), 2^(DomainIntBits-1)].
func (c Config) Domain() (lo, hi float64) {
	half := math.Ldexp(1, int(c.DomainIntBits)-1)
	return -half, half
}

// Step is the width of one address bucket.
func (c Config) Step() float64 {
	lo, hi := c.Domain()
	return (hi - lo) / float64(c.Entries())
}

// Input is the sample point of address i: the centre of bucket i. The centre of
// the middle bucket sits half a step above zero.
func (c Config) Input(i int) float64 {
	lo, _ := c.Domain()
	return lo + (float64(i)+0.5)*c.Step()
}

// Table is a quantized activation indexed by address.
type Table struct {
	Config  Config
	Entries []qformat.Value
}

// Generate samples fn at every bucket centre and quantizes each sample with
// round-to-nearest and a saturating clamp.
func Generate(cfg Config, fn Func) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if fn == nil {
		return nil, fmt.Errorf("%w: nil activation", ErrInvalidConfig)
	}

	n := cfg.Entries()
	entries := make([]qformat.Value, n)
	for i := range n {
		x := cfg.Input(i)
		v, err := qformat.EncodeSaturated(fn(x), cfg.Format, qformat.Round)
		if err != nil {
			return nil, fmt.Errorf("lut: entry %d (x=%g): %w", i, x, err)
		}
		entries[i] = v
	}
	return &Table{Config: cfg, Entries: entries}, nil
}

// WriteMIF writes one bit string per line in address order.
func (t *Table) WriteMIF(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, e := range t.Entries {
		if _, err := bw.WriteString(e.Bits); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Values decodes every entry back to a real.
func (t *Table) Values() []float64 {
	out := make([]float64, len(t.Entries))
	for i, e := range t.Entries {
		out[i] = e.Float(t.Config.Format)
	}
	return out
}
