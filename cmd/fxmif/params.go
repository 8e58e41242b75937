package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fxmif/internal/logger"
	"github.com/samcharles93/fxmif/internal/params"
	"github.com/samcharles93/fxmif/internal/sink"
)

func paramsCmd() *cli.Command {
	var input string

	return &cli.Command{
		Name:   "params",
		Usage:  "Quantize trained weights and biases into per-neuron .mif files and C headers",
		Before: prepare,
		Flags: concat(outputFlags(), formatFlags(), paramsFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       `parameter JSON ({"weights": ..., "biases": ...})`,
				Required:    true,
				Destination: &input,
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := paramsOptions()
			formats, err := paramsFormats(opts)
			if err != nil {
				return err
			}
			return runWithSink(ctx, formats, func(s sink.Sink) error {
				_, err := emitParams(ctx, s, params.FileSource{Path: input}, opts)
				return err
			})
		},
	}
}

func paramsOptions() params.Options {
	opts := params.DefaultOptions()
	opts.DataWidth = dataWidth
	opts.DataIntWidth = dataIntWidth
	opts.WeightIntWidth = weightIntWidth
	opts.UnderflowThreshold = underflowThreshold
	opts.Workers = workers
	return opts
}

func paramsFormats(opts params.Options) (map[string]string, error) {
	wf, err := opts.WeightFormat()
	if err != nil {
		return nil, err
	}
	bf, err := opts.BiasFormat()
	if err != nil {
		return nil, err
	}
	return map[string]string{"weights": wf.String(), "biases": bf.String()}, nil
}

func emitParams(ctx context.Context, s sink.Sink, src params.Source, opts params.Options) (params.Summary, error) {
	log := logger.FromContext(ctx)
	doc, err := src.Load(ctx)
	if err != nil {
		return params.Summary{}, err
	}
	e, err := params.New(s, opts, log)
	if err != nil {
		return params.Summary{}, err
	}
	return e.Emit(ctx, doc)
}
