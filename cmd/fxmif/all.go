package main

import (
	"context"
	"maps"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fxmif/internal/params"
	"github.com/samcharles93/fxmif/internal/sink"
)

func allCmd() *cli.Command {
	var (
		input string
		args  testdataArgs
	)

	return &cli.Command{
		Name:   "all",
		Usage:  "Write the lookup table, parameters and test vectors into one output",
		Before: prepare,
		Flags: concat(outputFlags(), formatFlags(), lutFlags(), paramsFlags(), datasetFlags(), testdataFlags(&args), []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "parameter JSON",
				Required:    true,
				Destination: &input,
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			lcfg, err := lutConfig()
			if err != nil {
				return err
			}
			popts := paramsOptions()
			formats, err := paramsFormats(popts)
			if err != nil {
				return err
			}
			ds, err := openDataset(args)
			if err != nil {
				return err
			}
			topts := testvecOptions(args)
			formats["lut"] = lcfg.Format.String()
			maps.Copy(formats, testvecFormats(topts))

			return runWithSink(ctx, formats, func(s sink.Sink) error {
				if _, err := emitLUT(ctx, s, lcfg); err != nil {
					return err
				}
				if _, err := emitParams(ctx, s, params.FileSource{Path: input}, popts); err != nil {
					return err
				}
				return emitTestdata(ctx, s, ds, args, topts)
			})
		},
	}
}
