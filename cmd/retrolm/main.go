package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/retrolm/retrolm/internal/fault"
	"github.com/retrolm/retrolm/internal/logger"
)

var (
	logLevel  string
	logFormat string
)

func main() {
	app := &cli.Command{
		Name:  "retrolm",
		Usage: "Character-level transformer inference for small machines",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Value:       "info",
				Destination: &logLevel,
			},
			&cli.StringFlag{
				Name:        "log-format",
				Usage:       "log format (pretty, text, json)",
				Value:       "pretty",
				Destination: &logFormat,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			chatCmd(),
			runCmd(),
			serveCmd(),
			inspectCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		exitOn(err)
	}
}

func newLogger() logger.Logger {
	cfg := LoadConfig()
	level := logLevel
	if cfg.LogLevel != "" && level == "info" {
		level = cfg.LogLevel
	}
	format := logFormat
	if cfg.LogFormat != "" && format == "pretty" {
		format = cfg.LogFormat
	}
	return logger.Setup(os.Stderr, level, format)
}

// exitOn logs the failure and terminates with the exit code of its error
// kind. Errors with no kind exit with the generic code 1.
func exitOn(err error) {
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCoder.ExitCode())
	}
	kind := fault.KindOf(err)
	newLogger().Error(err.Error(), "kind", kind.String())
	os.Exit(kind.ExitCode())
}
