package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fxmif/internal/logger"
)

func main() {
	// .env never overrides variables already present in the environment.
	_ = godotenv.Load()

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "fxmif",
		Usage: "Fixed-point artifact generator for hardware neural-network inference",
		Flags: globalFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			lutCmd(),
			paramsCmd(),
			testdataCmd(),
			allCmd(),
			inspectCmd(),
			unpackCmd(),
			serveCmd(),
			versionCmd(),
		},
	}
}

// prepare runs before every command: it layers the config file under the
// parsed flags and installs the logger in the context.
func prepare(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	cfg, err := LoadConfig(configFile)
	if err != nil {
		return ctx, err
	}
	applyConfig(cmd, cfg)

	log, err := logger.Setup(os.Stderr, logFormat, logLevel, debug)
	if err != nil {
		return ctx, err
	}
	return logger.WithContext(ctx, log), nil
}
