package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/retrolm/retrolm/internal/inference"
	"github.com/retrolm/retrolm/internal/logits"
	"github.com/retrolm/retrolm/internal/weights"
)

// maxInputBytes caps one console line.
const maxInputBytes = 256

func chatCmd() *cli.Command {
	var g genFlags

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive console chat",
		Flags: g.flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			applyGenConfig(c, LoadConfig(), &g.weightsDir, &g.temp, &g.maxTokens, &g.seed, &g.stopCtl)
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

			// The rolling history is capped at half the position budget so
			// every turn keeps room to decode.
			window := params.MaxSeqLen() / 2
			if window < 1 {
				window = 1
			}

			line := strings.Repeat("=", 60)
			fmt.Println(line)
			fmt.Printf("RetroLM Interactive Chat (context window: %d chars)\n", window)
			fmt.Println(line)
			fmt.Println("Type 'quit' or 'exit' to end the conversation")
			fmt.Println(line)
			fmt.Println()

			history := ""
			for {
				input, err := readInteractiveLine("You: ")
				if err != nil {
					if err == io.EOF {
						break
					}
					return err
				}
				input = strings.TrimSpace(input)
				if input == "quit" || input == "exit" {
					fmt.Println("\nGoodbye!")
					break
				}
				if input == "" {
					continue
				}
				if len(input) > maxInputBytes {
					input = input[:maxInputBytes]
				}

				history = appendHistory(history, input, window)

				fmt.Print("Bot: ")
				sw := NewStreamWriter(os.Stdout, false)
				reply, stats, err := gen.Run([]byte(history), int(g.maxTokens), sw.Write)
				if err != nil {
					return err
				}
				sw.Flush()
				fmt.Println()
				log.Debug("turn complete",
					"tokens", stats.TokensGenerated,
					"tps", fmt.Sprintf("%.1f", stats.TPS))

				history = appendHistory(history, reply, window)
			}
			return nil
		},
	}
}

// appendHistory joins text onto the rolling window with a single space
// and keeps only the trailing limit bytes.
func appendHistory(history, text string, limit int) string {
	if text == "" {
		return history
	}
	joined := text
	if history != "" {
		joined = history + " " + text
	}
	if len(joined) > limit {
		joined = joined[len(joined)-limit:]
	}
	return joined
}
