package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dpotapov/go-htmltree"
	"gopkg.in/yaml.v3"
)

// config holds the settings shared by all commands. Values come from the defaults, then the
// -config file, then command line flags.
type config struct {
	Mode           string `yaml:"mode"`            // fragment or document
	MaxDiagnostics int    `yaml:"max_diagnostics"` // 0 means no limit
	Listen         string `yaml:"listen"`          // serve address
	LogLevel       string `yaml:"log_level"`       // debug, info, warn or error
	ContextLines   int    `yaml:"context_lines"`   // source lines shown around diagnostics, -1 for none
}

func defaultConfig() config {
	return config{
		Mode:         "fragment",
		Listen:       ":8080",
		LogLevel:     "info",
		ContextLines: -1,
	}
}

// loadConfig reads a YAML file over cfg. Keys missing from the file keep their value.
func loadConfig(path string, cfg *config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c config) mode() (htmltree.Mode, error) {
	switch strings.ToLower(c.Mode) {
	case "", "fragment":
		return htmltree.ModeFragment, nil
	case "document":
		return htmltree.ModeDocument, nil
	}
	return 0, fmt.Errorf("unknown mode %q", c.Mode)
}

func (c config) level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return l, nil
}
