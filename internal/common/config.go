// Package common provides shared utilities for the look-through pipeline.
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for a pipeline run
type Config struct {
	Environment string           `toml:"environment"`
	Paths       PathsConfig      `toml:"paths"`
	Pipeline    PipelineConfig   `toml:"pipeline"`
	Metrics     MetricsConfig    `toml:"metrics"`
	Allocation  AllocationConfig `toml:"allocation"`
	Reconcile   ReconcileConfig  `toml:"reconcile"`
	Logging     LoggingConfig    `toml:"logging"`
}

// PathsConfig holds the input/output locations for a run.
type PathsConfig struct {
	InputDir  string `toml:"input_dir"`  // validated table files (JSON)
	OutputDir string `toml:"output_dir"` // per-run snapshot folders
	ReturnsDB string `toml:"returns_db"` // persisted instrument return series
}

// PipelineConfig holds execution settings.
type PipelineConfig struct {
	Workers           int  `toml:"workers"`            // table decode workers; 0 = min(8, cores)
	WriteIntermediate bool `toml:"write_intermediate"` // per-stage debug snapshots
	RenderCharts      bool `toml:"render_charts"`      // composition chart PNGs
}

// MetricsConfig holds composition settings.
type MetricsConfig struct {
	// Holding types excluded from composition totals (fees, payables).
	ExcludeTypes []string `toml:"exclude_types"`
}

// AllocationConfig holds sub-portfolio proration settings.
type AllocationConfig struct {
	// Portfolio codes shared across sub-groups, subject to proration.
	SharedPortfolios []string `toml:"shared_portfolios"`
}

// ReconcileConfig holds plan-return reconciliation settings.
type ReconcileConfig struct {
	// Organization label stamped on synthetic adjustment rows.
	Organization string `toml:"organization"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Paths: PathsConfig{
			InputDir:  "data/input",
			OutputDir: "data/runs",
			ReturnsDB: "data/returnsdb",
		},
		Pipeline: PipelineConfig{
			Workers:           0,
			WriteIntermediate: false,
			RenderCharts:      false,
		},
		Metrics: MetricsConfig{
			ExcludeTypes: []string{"expense"},
		},
		Reconcile: ReconcileConfig{
			Organization: "SPONSOR",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Apply environment overrides
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("LOOKTHROUGH_ENV"); env != "" {
		config.Environment = env
	}

	if level := os.Getenv("LOOKTHROUGH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("LOOKTHROUGH_DATA_PATH"); path != "" {
		config.Paths.InputDir = filepath.Join(path, "input")
		config.Paths.OutputDir = filepath.Join(path, "runs")
		config.Paths.ReturnsDB = filepath.Join(path, "returnsdb")
	}

	if dir := os.Getenv("LOOKTHROUGH_INPUT_DIR"); dir != "" {
		config.Paths.InputDir = dir
	}

	if dir := os.Getenv("LOOKTHROUGH_OUTPUT_DIR"); dir != "" {
		config.Paths.OutputDir = dir
	}

	if w := os.Getenv("LOOKTHROUGH_WORKERS"); w != "" {
		if n, err := strconv.Atoi(w); err == nil {
			config.Pipeline.Workers = n
		}
	}

	if org := os.Getenv("LOOKTHROUGH_ORGANIZATION"); org != "" {
		config.Reconcile.Organization = org
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
