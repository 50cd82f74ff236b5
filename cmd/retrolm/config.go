package main

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config is the optional configuration file at
// ~/.config/retrolm/config.yaml. Pointer fields distinguish "not set"
// from explicit zero values.
type Config struct {
	WeightsDir string `yaml:"weights_dir"`

	Temperature *float64 `yaml:"temperature"`
	MaxTokens   *int64   `yaml:"max_tokens"`
	Seed        *int64   `yaml:"seed"`

	// StopOnNonPrintable terminates generation on control tokens below 32
	// instead of suppressing them.
	StopOnNonPrintable *bool `yaml:"stop_on_nonprintable"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "retrolm", "config.yaml")
}

// LoadConfig reads the config file, returning a zero Config when the file
// is absent or unreadable.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}
	}
	return cfg
}

// applyGenConfig fills generation flag variables from the config file
// when the corresponding flag was not given on the command line.
func applyGenConfig(c *cli.Command, cfg Config,
	weightsDir *string, temp *float64, maxTokens *int64, seed *int64, stopCtl *bool,
) {
	if cfg.WeightsDir != "" && !c.IsSet("weights") {
		*weightsDir = cfg.WeightsDir
	}
	if cfg.Temperature != nil && !c.IsSet("temp") && !c.IsSet("temperature") {
		*temp = *cfg.Temperature
	}
	if cfg.MaxTokens != nil && !c.IsSet("max-tokens") {
		*maxTokens = *cfg.MaxTokens
	}
	if cfg.Seed != nil && !c.IsSet("seed") {
		*seed = *cfg.Seed
	}
	if cfg.StopOnNonPrintable != nil && !c.IsSet("stop-on-nonprintable") {
		*stopCtl = *cfg.StopOnNonPrintable
	}
}
