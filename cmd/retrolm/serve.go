package main

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/retrolm/retrolm/internal/api"
	"github.com/retrolm/retrolm/internal/weights"
)

func serveCmd() *cli.Command {
	var (
		g           genFlags
		addr        string
		readTimeout time.Duration
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve completions over HTTP",
		Flags: append(g.flags(),
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "request read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg := LoadConfig()
			applyGenConfig(c, cfg, &g.weightsDir, &g.temp, &g.maxTokens, &g.seed, &g.stopCtl)
			if cfg.ServerAddress != "" && !c.IsSet("addr") {
				addr = cfg.ServerAddress
			}
			log := newLogger()

			params, err := weights.Load(g.weightsDir, log)
			if err != nil {
				return err
			}

			server := api.NewServer(params, api.Defaults{
				Temperature:        float32(g.temp),
				MaxTokens:          int(g.maxTokens),
				StopOnNonPrintable: g.stopCtl,
			}, log)

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			server.Register(e)

			log.Info("starting server", "address", addr)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}
