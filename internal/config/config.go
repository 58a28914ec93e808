package config

/*
Configuration is layered: built-in defaults, then an optional YAML file,
then environment variables. Environment always wins so a deployment can
override a checked-in config file without editing it.
*/

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Datatape formats. Complex tapes ship guarantees in a separate table
// instead of an embedded column.
const (
	FormatSimple  = "simple"
	FormatComplex = "complex"
)

// WorkerConfig holds the concurrency settings for the pipeline.
type WorkerConfig struct {
	EnrichWorkers     int `yaml:"enrich_workers" validate:"min=1"`
	RiskWorkers       int `yaml:"risk_workers" validate:"min=1"`
	ParallelThreshold int `yaml:"parallel_threshold" validate:"min=0"`
	MinChunkSize      int `yaml:"min_chunk_size" validate:"min=1"`
}

type Config struct {
	Env string `yaml:"env" validate:"oneof=development production"`

	// Inputs
	DatatapePath    string `yaml:"datatape_path" validate:"required"`
	AssumptionsPath string `yaml:"assumptions_path" validate:"required"`
	GuaranteesPath  string `yaml:"guarantees_path"`

	// Optional wide-form risk tables. When both are set they replace the
	// workbook's cost-of-risk and prepayment curves.
	CostRiskTablePath   string `yaml:"cost_risk_table_path"`
	PrepaymentTablePath string `yaml:"prepayment_table_path"`

	// DatatapeFormat is "simple" or "complex". Empty means derive it from
	// the datatape file name.
	DatatapeFormat string `yaml:"datatape_format" validate:"omitempty,oneof=simple complex"`

	// Output
	OutputDir              string `yaml:"output_dir" validate:"required"`
	WriteProblematicReport bool   `yaml:"write_problematic_report"`

	// Workers
	Workers WorkerConfig `yaml:"workers"`

	// RunTimeout bounds a whole pipeline run. Env only (RUN_TIMEOUT).
	RunTimeout time.Duration `yaml:"-"`

	// Logging
	LogLevel  string `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat string `yaml:"log_format" validate:"oneof=text json"`
}

// Load builds the configuration from defaults, the YAML file at path (if
// any), and environment variables, then validates the result.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Env:                    "development",
		OutputDir:              "out",
		WriteProblematicReport: true,
		Workers: WorkerConfig{
			EnrichWorkers:     4,
			RiskWorkers:       runtime.NumCPU(),
			ParallelThreshold: 1000,
			MinChunkSize:      100,
		},
		RunTimeout: 10 * time.Minute,
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

func applyEnv(cfg *Config) {
	cfg.Env = getEnv("ENV", cfg.Env)

	cfg.DatatapePath = getEnv("DATATAPE_PATH", cfg.DatatapePath)
	cfg.AssumptionsPath = getEnv("ASSUMPTIONS_PATH", cfg.AssumptionsPath)
	cfg.GuaranteesPath = getEnv("GUARANTEES_PATH", cfg.GuaranteesPath)
	cfg.CostRiskTablePath = getEnv("COST_RISK_TABLE_PATH", cfg.CostRiskTablePath)
	cfg.PrepaymentTablePath = getEnv("PREPAYMENT_TABLE_PATH", cfg.PrepaymentTablePath)
	cfg.DatatapeFormat = getEnv("DATATAPE_FORMAT", cfg.DatatapeFormat)

	cfg.OutputDir = getEnv("OUTPUT_DIR", cfg.OutputDir)
	cfg.WriteProblematicReport = getBoolEnv("WRITE_PROBLEMATIC_REPORT", cfg.WriteProblematicReport)

	cfg.Workers.EnrichWorkers = getIntEnv("ENRICH_WORKERS", cfg.Workers.EnrichWorkers)
	cfg.Workers.RiskWorkers = getIntEnv("RISK_WORKERS", cfg.Workers.RiskWorkers)
	cfg.Workers.ParallelThreshold = getIntEnv("PARALLEL_THRESHOLD", cfg.Workers.ParallelThreshold)
	cfg.Workers.MinChunkSize = getIntEnv("MIN_CHUNK_SIZE", cfg.Workers.MinChunkSize)

	cfg.RunTimeout = getDurationEnv("RUN_TIMEOUT", cfg.RunTimeout)

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolveFormat returns the effective datatape format, deriving it from the
// datatape file name when not configured explicitly.
func (c *Config) ResolveFormat() string {
	if c.DatatapeFormat != "" {
		return c.DatatapeFormat
	}
	if strings.Contains(strings.ToLower(filepath.Base(c.DatatapePath)), FormatComplex) {
		return FormatComplex
	}
	return FormatSimple
}

// SlogLevel maps the configured log level to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
