// Package config loads interpreter settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config holds the interpreter's runtime settings
type Config struct {
	Prompt      string `yaml:"prompt"`
	HistoryFile string `yaml:"history_file"`
	HistorySize int    `yaml:"history_size"`
	Verbose     bool   `yaml:"verbose"`
}

// Defaults returns the built-in configuration
func Defaults() *Config {
	return &Config{
		Prompt:      ">> ",
		HistoryFile: ".rill_history",
		HistorySize: 1000,
	}
}

// Load reads a YAML config file, applying defaults for anything unset.
// ${VAR} references in the file body are replaced from the process
// environment before parsing. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	data = []byte(interpolateEnv(string(data)))

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.Prompt == "" {
		cfg.Prompt = Defaults().Prompt
	}
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = Defaults().HistorySize
	}

	return cfg, nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnv replaces ${VAR} references with environment values.
// Unset variables become empty strings.
func interpolateEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(match string) string {
		name := match[2 : len(match)-1]
		return os.Getenv(name)
	})
}
