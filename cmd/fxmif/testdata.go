package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fxmif/internal/logger"
	"github.com/samcharles93/fxmif/internal/sink"
	"github.com/samcharles93/fxmif/internal/testvec"
	"github.com/samcharles93/fxmif/pkg/qformat"
)

type testdataArgs struct {
	idxImages string
	idxLabels string
	jsonPath  string
	index     int
	all       bool
	preview   bool
	quiet     bool
}

func testdataFlags(a *testdataArgs) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "idx-images", Usage: "IDX image file (gzip or raw), e.g. t10k-images-idx3-ubyte.gz", Destination: &a.idxImages},
		&cli.StringFlag{Name: "idx-labels", Usage: "IDX label file matching --idx-images", Destination: &a.idxLabels},
		&cli.StringFlag{Name: "json", Usage: `JSON array of {"pixels": [...784], "label": n}`, Destination: &a.jsonPath},
		&cli.IntFlag{Name: "index", Usage: "image used for the single-image artifacts", Value: 1, Destination: &a.index},
		&cli.BoolFlag{Name: "all", Usage: "also write one test_data_NNNN.txt per image", Destination: &a.all},
		&cli.BoolFlag{Name: "preview", Usage: "also write a PNG of the single image", Destination: &a.preview},
		&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "hide the progress bar", Destination: &a.quiet},
	}
}

func testdataCmd() *cli.Command {
	var args testdataArgs

	return &cli.Command{
		Name:   "testdata",
		Usage:  "Quantize evaluation images into test-bench files",
		Before: prepare,
		Flags:  concat(outputFlags(), formatFlags(), datasetFlags(), testdataFlags(&args)),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ds, err := openDataset(args)
			if err != nil {
				return err
			}
			opts := testvecOptions(args)
			return runWithSink(ctx, testvecFormats(opts), func(s sink.Sink) error {
				return emitTestdata(ctx, s, ds, args, opts)
			})
		},
	}
}

func openDataset(a testdataArgs) (testvec.Dataset, error) {
	switch {
	case a.jsonPath != "" && (a.idxImages != "" || a.idxLabels != ""):
		return nil, errors.New("--json and --idx-images/--idx-labels are mutually exclusive")
	case a.jsonPath != "":
		return testvec.OpenJSON(a.jsonPath)
	case a.idxImages != "" && a.idxLabels != "":
		return testvec.OpenIDX(a.idxImages, a.idxLabels, pixelScale)
	default:
		return nil, errors.New("--json or both --idx-images and --idx-labels are required")
	}
}

func testvecOptions(a testdataArgs) testvec.Options {
	opts := testvec.DefaultOptions()
	opts.DataWidth = dataWidth
	opts.IntBits = dataIntWidth
	opts.Workers = workers
	opts.Preview = a.preview
	if a.all && !a.quiet {
		opts.Progress = progressWriter()
	}
	return opts
}

func testvecFormats(opts testvec.Options) map[string]string {
	formats := make(map[string]string)
	if opts.IntBits <= opts.DataWidth {
		if f, err := qformat.New(opts.DataWidth, opts.DataWidth-opts.IntBits); err == nil {
			formats["pixels"] = f.String()
		}
	}
	if f, err := qformat.New(opts.DataWidth, 0); err == nil {
		formats["labels"] = f.String()
	}
	return formats
}

func emitTestdata(ctx context.Context, s sink.Sink, ds testvec.Dataset, a testdataArgs, opts testvec.Options) error {
	e, err := testvec.New(s, opts, logger.FromContext(ctx))
	if err != nil {
		return err
	}
	return e.Emit(ctx, ds, a.index, a.all)
}

// progressWriter is stderr when it is a terminal.
func progressWriter() io.Writer {
	st, err := os.Stderr.Stat()
	if err != nil || st.Mode()&os.ModeCharDevice == 0 {
		return nil
	}
	return os.Stderr
}
