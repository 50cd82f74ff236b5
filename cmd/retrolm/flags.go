package main

import "github.com/urfave/cli/v3"

// genFlags holds the flag destinations shared by chat and run.
type genFlags struct {
	weightsDir string
	temp       float64
	maxTokens  int64
	seed       int64
	stopCtl    bool
}

func (g *genFlags) flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "weights",
			Aliases:     []string{"w"},
			Usage:       "path to the weights directory",
			Value:       "./weights",
			Destination: &g.weightsDir,
		},
		&cli.Float64Flag{
			Name:        "temp",
			Aliases:     []string{"temperature", "t"},
			Usage:       "sampling temperature (0 = greedy)",
			Value:       0.8,
			Destination: &g.temp,
		},
		&cli.Int64Flag{
			Name:        "max-tokens",
			Aliases:     []string{"n"},
			Usage:       "token budget per response",
			Value:       100,
			Destination: &g.maxTokens,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "sampling RNG seed (default -1 = wall clock)",
			Value:       -1,
			Destination: &g.seed,
		},
		&cli.BoolFlag{
			Name:        "stop-on-nonprintable",
			Usage:       "terminate generation on control tokens instead of suppressing them",
			Destination: &g.stopCtl,
		},
	}
}
