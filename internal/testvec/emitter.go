package testvec

import (
	"context"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/samcharles93/fxmif/internal/artifact"
	"github.com/samcharles93/fxmif/internal/logger"
	"github.com/samcharles93/fxmif/internal/sink"
	"github.com/samcharles93/fxmif/pkg/qformat"
)

const (
	DataName   = "test_data.txt"
	HeaderName = "dataValues.h"
	// RawName is the decimal pixel dump; it is written at the sink root.
	RawName = "testData.txt"

	previewScale = 10
)

// VisualName is the thresholded rendering of an image with the given label.
func VisualName(label int) string { return fmt.Sprintf("visual_data%d.txt", label) }

// PreviewName is the PNG rendering of an image with the given label.
func PreviewName(label int) string { return fmt.Sprintf("visual_data%d.png", label) }

// BulkName is the per-image file written by EmitAll.
func BulkName(i int) string { return fmt.Sprintf("test_data_%04d.txt", i) }

type Options struct {
	DataWidth uint
	// IntBits counts the integer bits of a pixel, sign included.
	IntBits uint
	Workers int
	OutDir  string
	// Progress receives a progress bar during EmitAll when non-nil.
	Progress io.Writer
	// Preview adds a PNG next to the visual rendering.
	Preview bool
}

func DefaultOptions() Options {
	return Options{
		DataWidth: 16,
		IntBits:   1,
		Workers:   1,
		OutDir:    "testData",
	}
}

type Emitter struct {
	opts  Options
	pixel qformat.Format
	label qformat.Format
	sink  sink.Sink
	log   logger.Logger
}

func New(s sink.Sink, opts Options, log logger.Logger) (*Emitter, error) {
	if opts.IntBits > opts.DataWidth {
		return nil, fmt.Errorf("%w: int bits %d exceed data width %d", qformat.ErrInvalidFormat, opts.IntBits, opts.DataWidth)
	}
	pf, err := qformat.New(opts.DataWidth, opts.DataWidth-opts.IntBits)
	if err != nil {
		return nil, err
	}
	lf, err := qformat.New(opts.DataWidth, 0)
	if err != nil {
		return nil, err
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Emitter{opts: opts, pixel: pf, label: lf, sink: s, log: log}, nil
}

// PixelFormat is the Q-format pixels are encoded with.
func (e *Emitter) PixelFormat() qformat.Format { return e.pixel }

// Emit writes the single-image artifacts for ds[index] and, when emitAll is
// set, one bulk file per image in ds.
func (e *Emitter) Emit(ctx context.Context, ds Dataset, index int, emitAll bool) error {
	img, err := ds.Image(index)
	if err != nil {
		return err
	}
	if err := e.EmitSingle(ctx, img); err != nil {
		return fmt.Errorf("image %d: %w", index, err)
	}
	if !emitAll {
		return nil
	}
	_, err = e.EmitAll(ctx, ds)
	return err
}

// EmitSingle writes the bit file, the C header, the thresholded rendering and
// the decimal dump for one image.
func (e *Emitter) EmitSingle(ctx context.Context, img LabeledImage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := img.Validate(); err != nil {
		return err
	}
	values, err := e.encodePixels(img.Pixels)
	if err != nil {
		return err
	}

	dir := e.opts.OutDir
	if err := sink.WriteFile(e.sink, sink.Join(dir, DataName), func(w io.Writer) error {
		return artifact.WriteMIF(w, values, artifact.EveryLine)
	}); err != nil {
		return err
	}
	if err := sink.WriteFile(e.sink, sink.Join(dir, HeaderName), func(w io.Writer) error {
		if err := artifact.WriteArray(w, "dataValues", values); err != nil {
			return err
		}
		return artifact.WriteInt(w, "result", img.Label)
	}); err != nil {
		return err
	}
	if err := sink.WriteFile(e.sink, sink.Join(dir, VisualName(img.Label)), func(w io.Writer) error {
		return artifact.WriteThreshold(w, img.Pixels, ImageWidth)
	}); err != nil {
		return err
	}
	if err := sink.WriteFile(e.sink, RawName, func(w io.Writer) error {
		return artifact.WriteDecimals(w, img.Pixels)
	}); err != nil {
		return err
	}
	if e.opts.Preview {
		if err := sink.WriteFile(e.sink, sink.Join(dir, PreviewName(img.Label)), func(w io.Writer) error {
			return writePreview(w, img.Pixels)
		}); err != nil {
			return err
		}
	}

	e.log.Info("test vector written", "label", img.Label, "format", e.pixel.String(), "dir", dir)
	return nil
}

// EmitAll writes one file per image: the pixel bit strings followed by the
// label encoded as an integer, without a trailing newline.
func (e *Emitter) EmitAll(ctx context.Context, ds Dataset) (int, error) {
	start := time.Now()
	n := ds.Len()

	var bar *progressbar.ProgressBar
	if e.opts.Progress != nil {
		bar = progressbar.NewOptions(n,
			progressbar.OptionSetWriter(e.opts.Progress),
			progressbar.OptionSetDescription("test vectors"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(e.opts.Progress) }),
		)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := e.writeBulk(ds, i); err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			if bar != nil {
				_ = bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	if bar != nil {
		_ = bar.Finish()
	}

	e.log.Info("bulk test vectors written",
		"images", humanize.Comma(int64(n)),
		"dir", e.opts.OutDir,
		"elapsed", time.Since(start),
	)
	return n, nil
}

func (e *Emitter) writeBulk(ds Dataset, i int) error {
	img, err := ds.Image(i)
	if err != nil {
		return err
	}
	if err := img.Validate(); err != nil {
		return err
	}
	values, err := e.encodePixels(img.Pixels)
	if err != nil {
		return err
	}
	label, err := qformat.Encode(float64(img.Label), e.label, qformat.TruncateTowardZero)
	if err != nil {
		return fmt.Errorf("label: %w", err)
	}
	values = append(values, label)

	name := sink.Join(e.opts.OutDir, BulkName(i))
	e.log.Debug("writing test vector", "name", name, "label", img.Label)
	return sink.WriteFile(e.sink, name, func(w io.Writer) error {
		return artifact.WriteMIF(w, values, artifact.NoFinalNewline)
	})
}

// encodePixels truncates without clamping; a pixel outside the format is an error.
func (e *Emitter) encodePixels(pixels []float64) ([]qformat.Value, error) {
	values := make([]qformat.Value, len(pixels), len(pixels)+1)
	for i, p := range pixels {
		v, err := qformat.Encode(p, e.pixel, qformat.TruncateTowardZero)
		if err != nil {
			return nil, fmt.Errorf("pixel %d: %w", i, err)
		}
		values[i] = v
	}
	return values, nil
}

func writePreview(w io.Writer, pixels []float64) error {
	img := image.NewGray(image.Rect(0, 0, ImageWidth, ImageHeight))
	for i, p := range pixels {
		v := p * DefaultPixelScale
		switch {
		case v < 0:
			v = 0
		case v > 255:
			v = 255
		}
		img.Pix[i] = uint8(v)
	}
	scaled := imaging.Resize(img, ImageWidth*previewScale, ImageHeight*previewScale, imaging.NearestNeighbor)
	return imaging.Encode(w, scaled, imaging.PNG)
}
