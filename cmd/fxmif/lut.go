package main

import (
	"context"
	"fmt"
	"io"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fxmif/internal/logger"
	"github.com/samcharles93/fxmif/internal/sink"
	"github.com/samcharles93/fxmif/pkg/lut"
	"github.com/samcharles93/fxmif/pkg/qformat"
)

func lutCmd() *cli.Command {
	var plotPath string

	return &cli.Command{
		Name:   "lut",
		Usage:  "Sample an activation into a fixed-point lookup table (" + lut.DefaultFileName + ")",
		Before: prepare,
		Flags: concat(outputFlags(), formatFlags(), lutFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:        "plot",
				Usage:       "also save a plot of the table against the activation (e.g. lut.png)",
				Destination: &plotPath,
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := lutConfig()
			if err != nil {
				return err
			}
			var table *lut.Table
			err = runWithSink(ctx, map[string]string{"lut": cfg.Format.String()}, func(s sink.Sink) error {
				t, err := emitLUT(ctx, s, cfg)
				table = t
				return err
			})
			if err != nil {
				return err
			}
			if plotPath != "" {
				fn, _ := lut.Lookup(lutActivation)
				if err := table.Plot(fn, lutActivation+" "+cfg.Format.String(), plotPath); err != nil {
					return err
				}
				logger.FromContext(ctx).Info("plot saved", "path", plotPath)
			}
			return nil
		},
	}
}

// lutConfig builds the table config from the flag variables. Without --format
// the table uses the data layout: --data-int-width integer bits of --data-width.
func lutConfig() (lut.Config, error) {
	cfg := lut.Config{
		AddressBits:   lutAddressBits,
		DomainIntBits: weightIntWidth + inputIntWidth,
	}
	var err error
	if lutFormat != "" {
		cfg.Format, err = qformat.Parse(lutFormat)
	} else if dataIntWidth > dataWidth {
		err = fmt.Errorf("%w: data int width %d exceeds data width %d", qformat.ErrInvalidFormat, dataIntWidth, dataWidth)
	} else {
		cfg.Format, err = qformat.New(dataWidth, dataWidth-dataIntWidth)
	}
	if err != nil {
		return lut.Config{}, err
	}
	return cfg, cfg.Validate()
}

func emitLUT(ctx context.Context, s sink.Sink, cfg lut.Config) (*lut.Table, error) {
	log := logger.FromContext(ctx)
	fn, err := lut.Lookup(lutActivation)
	if err != nil {
		return nil, err
	}
	table, err := lut.Generate(cfg, fn)
	if err != nil {
		return nil, err
	}
	if err := sink.WriteFile(s, lut.DefaultFileName, func(w io.Writer) error {
		return table.WriteMIF(w)
	}); err != nil {
		return nil, err
	}

	lo, hi := cfg.Domain()
	report := table.Report(fn)
	log.Info("lookup table written",
		"activation", lutActivation,
		"format", cfg.Format.String(),
		"entries", report.Entries,
		"domain", fmt.Sprintf("[%g, %g]", lo, hi),
		"max_abs_error", report.MaxAbsError,
		"mean_abs_error", report.MeanAbsError,
		"saturated", report.Saturated,
	)
	log.Debug("worst entry", "address", report.WorstAddress, "x", cfg.Input(report.WorstAddress))
	return table, nil
}
