package main

import (
	"context"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fxmif/internal/logger"
	"github.com/samcharles93/fxmif/internal/sink"
	"github.com/samcharles93/fxmif/pkg/bundle"
)

func unpackCmd() *cli.Command {
	var path string

	return &cli.Command{
		Name:   "unpack",
		Usage:  "Write every section of a bundle back out as files",
		Before: prepare,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "bundle",
				Aliases:     []string{"b"},
				Usage:       "path to bundle file",
				Required:    true,
				Destination: &path,
			},
			&cli.StringFlag{
				Name:        "out",
				Aliases:     []string{"o"},
				Usage:       "output directory (default ./out)",
				Sources:     env("out-dir"),
				Destination: &outDir,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			f, err := bundle.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			dir := resolveOutDir(outDir)
			dst, err := sink.NewDir(dir)
			if err != nil {
				return err
			}
			n, err := sink.Extract(f, dst)
			if cerr := dst.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			logger.FromContext(ctx).Info("bundle unpacked",
				"files", humanize.Comma(int64(n)),
				"size", humanize.Bytes(f.Header.FileSize),
				"dest", dir,
			)
			return nil
		},
	}
}
