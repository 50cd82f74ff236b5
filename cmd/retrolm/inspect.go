package main

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/retrolm/retrolm/internal/weights"
)

func inspectCmd() *cli.Command {
	var (
		weightsDir string
		asJSON     bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Print the shapes of a weights directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "weights",
				Aliases:     []string{"w"},
				Usage:       "path to the weights directory",
				Value:       "./weights",
				Destination: &weightsDir,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "machine-readable output",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			infos, err := weights.Inspect(weightsDir)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			var total int64
			fmt.Printf("%-20s %8s %8s %12s\n", "FILE", "ROWS", "COLS", "BYTES")
			for _, fi := range infos {
				fmt.Printf("%-20s %8d %8d %12d\n", fi.Name, fi.Rows, fi.Cols, fi.Bytes)
				total += fi.Bytes
			}
			fmt.Printf("%-20s %8s %8s %12d\n", "total", "", "", total)
			return nil
		},
	}
}
