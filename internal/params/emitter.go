package params

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/fxmif/internal/artifact"
	"github.com/samcharles93/fxmif/internal/logger"
	"github.com/samcharles93/fxmif/internal/sink"
	"github.com/samcharles93/fxmif/pkg/qformat"
)

const (
	WeightHeader = "weightValues.h"
	BiasHeader   = "biasValues.h"

	// DefaultUnderflowThreshold is the magnitude below which a float prints in
	// exponent notation; such values are emitted as exact zero.
	DefaultUnderflowThreshold = 1e-4
)

type Options struct {
	DataWidth      uint
	DataIntWidth   uint
	WeightIntWidth uint
	// UnderflowThreshold flushes non-zero values with a smaller magnitude to
	// zero. Zero or negative disables flushing.
	UnderflowThreshold float64
	Workers            int
	// WeightDir holds the per-neuron files; HeaderDir holds the headers.
	WeightDir string
	HeaderDir string
}

func DefaultOptions() Options {
	return Options{
		DataWidth:          16,
		DataIntWidth:       1,
		WeightIntWidth:     4,
		UnderflowThreshold: DefaultUnderflowThreshold,
		Workers:            1,
		WeightDir:          "w_b",
	}
}

// WeightFormat keeps WeightIntWidth integer bits.
func (o Options) WeightFormat() (qformat.Format, error) {
	if o.WeightIntWidth > o.DataWidth {
		return qformat.Format{}, fmt.Errorf("%w: weight int width %d exceeds data width %d", qformat.ErrInvalidFormat, o.WeightIntWidth, o.DataWidth)
	}
	return qformat.New(o.DataWidth, o.DataWidth-o.WeightIntWidth)
}

// BiasFormat keeps DataIntWidth + WeightIntWidth integer bits, the width of a
// weight-times-input product.
func (o Options) BiasFormat() (qformat.Format, error) {
	intBits := o.DataIntWidth + o.WeightIntWidth
	if intBits > o.DataWidth {
		return qformat.Format{}, fmt.Errorf("%w: bias int width %d exceeds data width %d", qformat.ErrInvalidFormat, intBits, o.DataWidth)
	}
	return qformat.New(o.DataWidth, o.DataWidth-intBits)
}

// Summary counts what one Emit produced.
type Summary struct {
	Layers    int `json:"layers"`
	Neurons   int `json:"neurons"`
	Weights   int `json:"weights"`
	Biases    int `json:"biases"`
	Saturated int `json:"saturated"`
	Flushed   int `json:"flushed"`
}

type Emitter struct {
	opts   Options
	weight qformat.Format
	bias   qformat.Format
	sink   sink.Sink
	log    logger.Logger
}

func New(s sink.Sink, opts Options, log logger.Logger) (*Emitter, error) {
	wf, err := opts.WeightFormat()
	if err != nil {
		return nil, err
	}
	bf, err := opts.BiasFormat()
	if err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Emitter{opts: opts, weight: wf, bias: bf, sink: s, log: log}, nil
}

// unit is one per-neuron memory-init file.
type unit struct {
	name   string
	values []qformat.Value
	term   artifact.Termination
}

// Emit validates and quantizes the whole document, then writes the per-neuron
// files and both headers. Nothing is written if any value fails to quantize.
func (e *Emitter) Emit(ctx context.Context, doc *Document) (Summary, error) {
	start := time.Now()
	if err := doc.Validate(); err != nil {
		return Summary{}, err
	}

	sum := Summary{Layers: len(doc.Weights)}
	units := make([]unit, 0, 2*doc.Neurons())
	weights := make([]qformat.Value, 0, doc.NumWeights())
	biases := make([]qformat.Value, 0, doc.Neurons())

	for l, layer := range doc.Weights {
		for n, neuron := range layer {
			vals := make([]qformat.Value, len(neuron))
			for i, w := range neuron {
				v, err := e.quantize(w, e.weight, &sum)
				if err != nil {
					return Summary{}, fmt.Errorf("layer %d neuron %d weight %d: %w", l+1, n, i, err)
				}
				vals[i] = v
			}
			weights = append(weights, vals...)
			units = append(units, unit{
				name:   sink.Join(e.opts.WeightDir, fmt.Sprintf("w_%d_%d.mif", l+1, n)),
				values: vals,
				term:   artifact.EveryLine,
			})
		}
		sum.Neurons += len(layer)
	}
	for l, layer := range doc.Biases {
		for n, b := range layer {
			v, err := e.quantize(b[0], e.bias, &sum)
			if err != nil {
				return Summary{}, fmt.Errorf("layer %d neuron %d bias: %w", l+1, n, err)
			}
			biases = append(biases, v)
			units = append(units, unit{
				name:   sink.Join(e.opts.WeightDir, fmt.Sprintf("b_%d_%d.mif", l+1, n)),
				values: []qformat.Value{v},
				term:   artifact.NoFinalNewline,
			})
		}
	}
	sum.Weights = len(weights)
	sum.Biases = len(biases)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for _, u := range units {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			e.log.Debug("writing unit", "name", u.name, "values", len(u.values))
			return sink.WriteFile(e.sink, u.name, func(w io.Writer) error {
				return artifact.WriteMIF(w, u.values, u.term)
			})
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	if err := sink.WriteFile(e.sink, sink.Join(e.opts.HeaderDir, WeightHeader), func(w io.Writer) error {
		return artifact.WriteArray(w, "weightValues", weights)
	}); err != nil {
		return Summary{}, err
	}
	if err := sink.WriteFile(e.sink, sink.Join(e.opts.HeaderDir, BiasHeader), func(w io.Writer) error {
		return artifact.WriteArray(w, "biasValues", biases)
	}); err != nil {
		return Summary{}, err
	}

	e.log.Info("parameters written",
		"layers", sum.Layers,
		"neurons", humanize.Comma(int64(sum.Neurons)),
		"weights", humanize.Comma(int64(sum.Weights)),
		"weight_format", e.weight.String(),
		"bias_format", e.bias.String(),
		"saturated", sum.Saturated,
		"flushed", sum.Flushed,
		"elapsed", time.Since(start),
	)
	return sum, nil
}

// quantize flushes exponent-notation magnitudes to zero, otherwise clamps into
// f and truncates.
func (e *Emitter) quantize(v float64, f qformat.Format, sum *Summary) (qformat.Value, error) {
	if v != 0 && math.Abs(v) < e.opts.UnderflowThreshold {
		sum.Flushed++
		return qformat.Zero(f), nil
	}
	if v > f.Max() || v < f.Min() {
		sum.Saturated++
	}
	return qformat.EncodeSaturated(v, f, qformat.TruncateTowardZero)
}
