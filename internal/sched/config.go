package sched

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	yaml "github.com/goccy/go-yaml"
)

// Idle strategies used when a full scan finds no ready task.
const (
	IdleSpin = "spin"
	IdlePark = "park"
)

// Config mirrors config.yml
type Config struct {
	Capacity    int    `yaml:"capacity"`     // 128 (by default)
	StackSize   int    `yaml:"stack_size"`   // 65536 bytes per context
	StackBudget int64  `yaml:"stack_budget"` // 0 = unlimited
	Idle        string `yaml:"idle"`         // spin | park
	ParkMaxMS   int64  `yaml:"park_max_ms"`  // 10
	LogLevel    string `yaml:"log_level"`    // info
	LogFormat   string `yaml:"log_format"`   // text | json
	TraceCSV    string `yaml:"trace_csv"`    // empty = no trace
}

// DefaultConfig is used when no config file is given.
func DefaultConfig() Config {
	return Config{
		Capacity:  128,
		StackSize: 64 * 1024,
		Idle:      IdleSpin,
		ParkMaxMS: 10,
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads YAML and overrides defaults; empty path or a missing file =
// defaults only.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg.sanitize(), nil
}

// sanity clamps
func (cfg Config) sanitize() Config {
	def := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.StackSize <= 0 {
		cfg.StackSize = def.StackSize
	}
	if cfg.StackBudget < 0 {
		cfg.StackBudget = 0
	}
	if cfg.Idle != IdleSpin && cfg.Idle != IdlePark {
		cfg.Idle = def.Idle
	}
	if cfg.ParkMaxMS <= 0 {
		cfg.ParkMaxMS = def.ParkMaxMS
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = def.LogLevel
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = def.LogFormat
	}
	return cfg
}
