package main

import (
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fxmif/internal/params"
	"github.com/samcharles93/fxmif/internal/testvec"
	"github.com/samcharles93/fxmif/pkg/lut"
)

const envPrefix = "FXMIF_"

var (
	configFile string
	logLevel   string
	logFormat  string
	debug      bool

	outDir     string
	bundlePath string
	workers    int

	dataWidth          uint
	dataIntWidth       uint
	weightIntWidth     uint
	underflowThreshold float64

	lutActivation  string
	lutAddressBits uint
	inputIntWidth  uint
	lutFormat      string

	pixelScale float64

	serverAddress string
)

func env(name string) cli.ValueSourceChain {
	return cli.EnvVars(envPrefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_")))
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default ~/.config/fxmif/config.yaml)",
			Sources:     env("config"),
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     env("log-level"),
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Sources:     env("log-format"),
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "out",
			Aliases:     []string{"o"},
			Usage:       "output directory (default ./out)",
			Sources:     env("out-dir"),
			Destination: &outDir,
		},
		&cli.StringFlag{
			Name:        "bundle",
			Usage:       "write a single bundle file instead of a directory",
			Sources:     env("bundle"),
			Destination: &bundlePath,
		},
		&cli.IntFlag{
			Name:        "workers",
			Aliases:     []string{"j"},
			Usage:       "files written in parallel",
			Value:       1,
			Sources:     env("workers"),
			Destination: &workers,
		},
	}
}

func formatFlags() []cli.Flag {
	return []cli.Flag{
		&cli.UintFlag{
			Name:        "data-width",
			Usage:       "bits per fixed-point word",
			Value:       16,
			Sources:     env("data-width"),
			Destination: &dataWidth,
		},
		&cli.UintFlag{
			Name:        "data-int-width",
			Usage:       "integer bits of activations and pixels, sign included",
			Value:       1,
			Sources:     env("data-int-width"),
			Destination: &dataIntWidth,
		},
		&cli.UintFlag{
			Name:        "weight-int-width",
			Usage:       "integer bits of weights, sign included",
			Value:       4,
			Sources:     env("weight-int-width"),
			Destination: &weightIntWidth,
		},
	}
}

func lutFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "activation",
			Usage:       "activation to sample (" + strings.Join(lut.Names(), ", ") + ")",
			Value:       "sigmoid",
			Sources:     env("lut-activation"),
			Destination: &lutActivation,
		},
		&cli.UintFlag{
			Name:        "address-bits",
			Usage:       "table address width; the table holds 2^n entries",
			Value:       10,
			Sources:     env("lut-address-bits"),
			Destination: &lutAddressBits,
		},
		&cli.UintFlag{
			Name:        "input-int-width",
			Usage:       "integer bits of the layer input; with --weight-int-width sets the table domain",
			Value:       1,
			Sources:     env("input-int-width"),
			Destination: &inputIntWidth,
		},
		&cli.StringFlag{
			Name:        "format",
			Usage:       "table output format, e.g. Q1.15 (default from --data-width/--data-int-width)",
			Destination: &lutFormat,
		},
	}
}

func paramsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:        "underflow-threshold",
			Usage:       "non-zero magnitudes below this are written as zero (0 disables)",
			Value:       params.DefaultUnderflowThreshold,
			Sources:     env("underflow-threshold"),
			Destination: &underflowThreshold,
		},
	}
}

func datasetFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:        "pixel-scale",
			Usage:       "IDX bytes are divided by this",
			Value:       testvec.DefaultPixelScale,
			Sources:     env("pixel-scale"),
			Destination: &pixelScale,
		},
	}
}

func concat(groups ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
