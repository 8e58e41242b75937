package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/fxmif/internal/api"
	"github.com/samcharles93/fxmif/internal/logger"
)

func serveCmd() *cli.Command {
	var readTimeout time.Duration

	return &cli.Command{
		Name:   "serve",
		Usage:  "Serve the quantization preview API",
		Before: prepare,
		Flags: concat(formatFlags(), lutFlags(), paramsFlags(), []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Sources:     env("server-address"),
				Destination: &serverAddress,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		}),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)

			lcfg, err := lutConfig()
			if err != nil {
				return err
			}
			server := api.NewServer(api.Options{
				Params: paramsOptions(),
				LUT:    lcfg,
				Logger: log,
			})
			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)
			log.Info("starting server", "address", serverAddress)
			sc := echo.StartConfig{
				Address: serverAddress,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
