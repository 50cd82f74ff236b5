package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/retrolm/retrolm/internal/fault"
	"github.com/retrolm/retrolm/internal/inference"
	"github.com/retrolm/retrolm/internal/logits"
	"github.com/retrolm/retrolm/internal/weights"
)

func runCmd() *cli.Command {
	var (
		g          genFlags
		prompt     string
		echoPrompt bool
		quiet      bool
	)

	return &cli.Command{
		Name:  "run",
		Usage: "Generate one completion and exit",
		Flags: append(g.flags(),
			&cli.StringFlag{
				Name:        "prompt",
				Aliases:     []string{"p"},
				Usage:       "prompt text",
				Destination: &prompt,
			},
			&cli.BoolFlag{
				Name:        "echo-prompt",
				Usage:       "print the prompt before the completion",
				Destination: &echoPrompt,
			},
			&cli.BoolFlag{
				Name:        "quiet",
				Aliases:     []string{"q"},
				Usage:       "print the completion only once generation finishes",
				Destination: &quiet,
			},
		),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyGenConfig(c, LoadConfig(), &g.weightsDir, &g.temp, &g.maxTokens, &g.seed, &g.stopCtl)
			if prompt == "" {
				return fault.Errorf(fault.ValueError, "run needs a --prompt")
			}
			log := newLogger()

			params, err := weights.Load(g.weightsDir, log)
			if err != nil {
				return err
			}

			seed := g.seed
			if seed == -1 {
				seed = time.Now().UnixNano()
			}
			gen := &inference.Generator{
				Model: params,
				Sampler: logits.NewSampler(logits.SamplerConfig{
					Seed:        seed,
					Temperature: float32(g.temp),
					Greedy:      g.temp == 0,
				}),
				StopOnNonPrintable: g.stopCtl,
			}

			if echoPrompt {
				fmt.Print(prompt)
			}
			sw := NewStreamWriter(os.Stdout, quiet)
			_, stats, err := gen.Run([]byte(prompt), int(g.maxTokens), sw.Write)
			if err != nil {
				return err
			}
			sw.Flush()
			fmt.Println()
			log.Info("generation complete",
				"tokens", stats.TokensGenerated,
				"duration", stats.Duration,
				"tps", fmt.Sprintf("%.1f", stats.TPS))
			return nil
		},
	}
}
