package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the xmat configuration file (~/.config/xmat/config.yaml).
// Numeric fields are pointers so we can distinguish "not set" from zero values.
type Config struct {
	// Network
	Address       string `yaml:"address"`
	StatusAddress string `yaml:"status_address"`
	Backlog       *int64 `yaml:"backlog"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Benchmark defaults
	Repeat *int64 `yaml:"repeat"`
	MinPow *int64 `yaml:"min_pow"`
	MaxPow *int64 `yaml:"max_pow"`
	DType  string `yaml:"dtype"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "xmat", "config.yaml")
}

// loadConfigFile reads path. A missing file yields a zero Config; a file that
// exists but does not parse is an error.
func loadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyNetConfig applies config file defaults to socket options when the
// corresponding flag was not explicitly set.
func applyNetConfig(c *cli.Command, cfg Config, o *netOptions) {
	if cfg.Address != "" && !c.IsSet("addr") {
		o.addr = cfg.Address
	}
	if cfg.Backlog != nil && !c.IsSet("backlog") {
		o.backlog = *cfg.Backlog
	}
}

func applyBenchConfig(c *cli.Command, cfg Config, o *benchOptions) {
	applyNetConfig(c, cfg, &o.netOptions)
	if cfg.Repeat != nil && !c.IsSet("repeat") {
		o.repeat = *cfg.Repeat
	}
	if cfg.MinPow != nil && !c.IsSet("min-pow") {
		o.minPow = *cfg.MinPow
	}
	if cfg.MaxPow != nil && !c.IsSet("max-pow") {
		o.maxPow = *cfg.MaxPow
	}
	if cfg.DType != "" && !c.IsSet("dtype") {
		o.dtype = cfg.DType
	}
}

func applyServeConfig(c *cli.Command, cfg Config, o *netOptions, statusAddr *string) {
	applyNetConfig(c, cfg, o)
	if cfg.StatusAddress != "" && !c.IsSet("status-addr") {
		*statusAddr = cfg.StatusAddress
	}
}
