// Package config loads process settings from the environment and engine
// tuning from an optional YAML file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/seo-optimizer/content-engine/abtest"
	"github.com/seo-optimizer/content-engine/alerts"
	"github.com/seo-optimizer/content-engine/cluster"
	"github.com/seo-optimizer/content-engine/engineerr"
)

// Store drivers.
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
)

// Config is the process configuration.
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	DataDir        string
	StoreDriver    string
	DatabasePath   string
	DevMode        bool
	RateLimitRPS   float64
	RateLimitBurst float64
	EngineConfig   string

	Engine Engine
}

// Engine holds the tunable analysis parameters.
type Engine struct {
	AlertThresholds alerts.Thresholds         `yaml:"alert_thresholds"`
	Opportunities   alerts.OpportunityOptions `yaml:"opportunities"`
	ABTest          ABTest                    `yaml:"ab_test"`
	Cluster         cluster.Config            `yaml:"cluster"`
	Analyzer        Analyzer                  `yaml:"analyzer"`
	// ReportConcurrency bounds how many keywords a ranking report analyzes at once.
	ReportConcurrency int `yaml:"report_concurrency"`
}

// ABTest holds the significance settings.
type ABTest struct {
	ConfidenceLevel float64 `yaml:"confidence_level"`
	MinSampleSize   int     `yaml:"min_sample_size"`
}

// Analyzer holds the feature extractor cache settings.
type Analyzer struct {
	CacheTTL     time.Duration `yaml:"cache_ttl"`
	MaxCacheSize int           `yaml:"max_cache_size"`
}

// DefaultEngine returns the built-in tuning.
func DefaultEngine() Engine {
	return Engine{
		AlertThresholds:   alerts.DefaultThresholds(),
		ABTest:            ABTest{ConfidenceLevel: abtest.DefaultConfidenceLevel, MinSampleSize: abtest.DefaultMinSampleSize},
		Cluster:           cluster.DefaultConfig(),
		Analyzer:          Analyzer{CacheTTL: 30 * time.Minute, MaxCacheSize: 1000},
		ReportConcurrency: 8,
	}
}

// LoadEnv loads .env.development, falling back to .env. Missing files are
// not an error; the process environment is used as is.
func LoadEnv(logger *logrus.Logger) {
	if err := godotenv.Load(".env.development"); err != nil {
		if err := godotenv.Load(); err != nil {
			logger.Debug("No .env file found, using environment variables")
		}
	}
}

// Load reads the environment and, when ENGINE_CONFIG is set, the YAML file it
// names. The result is validated.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           GetEnv("PORT", "8082"),
		GinMode:        GetEnv("GIN_MODE", "release"),
		LogLevel:       GetEnv("LOG_LEVEL", "info"),
		DataDir:        GetEnv("DATA_DIR", "data"),
		StoreDriver:    strings.ToLower(GetEnv("STORE_DRIVER", DriverFile)),
		DatabasePath:   os.Getenv("DATABASE_PATH"),
		DevMode:        GetEnvBool("DEV_MODE", false),
		RateLimitRPS:   GetEnvFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst: GetEnvFloat("RATE_LIMIT_BURST", 5),
		EngineConfig:   os.Getenv("ENGINE_CONFIG"),
		Engine:         DefaultEngine(),
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = cfg.DataDir + "/engine.db"
	}
	if cfg.EngineConfig != "" {
		engine, err := LoadEngine(cfg.EngineConfig)
		if err != nil {
			return nil, err
		}
		cfg.Engine = engine
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadEngine reads engine tuning from a YAML file. Keys left out keep their
// defaults.
func LoadEngine(path string) (Engine, error) {
	engine := DefaultEngine()
	data, err := os.ReadFile(path)
	if err != nil {
		return engine, fmt.Errorf("read engine config: %w", err)
	}
	if err := yaml.Unmarshal(data, &engine); err != nil {
		return engine, fmt.Errorf("parse engine config %s: %w", path, err)
	}
	return engine, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverFile, DriverSQLite:
	default:
		return fmt.Errorf("unknown store driver %q: %w", c.StoreDriver, engineerr.ErrInvalidInput)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit %v/s burst %v: %w", c.RateLimitRPS, c.RateLimitBurst, engineerr.ErrInvalidInput)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log level %q: %w", c.LogLevel, engineerr.ErrInvalidInput)
	}
	return c.Engine.Validate()
}

// Validate checks every engine section.
func (e Engine) Validate() error {
	if err := e.AlertThresholds.Validate(); err != nil {
		return fmt.Errorf("alert_thresholds: %w", err)
	}
	if err := e.Opportunities.Validate(); err != nil {
		return fmt.Errorf("opportunities: %w", err)
	}
	if e.ABTest.ConfidenceLevel <= 0 || e.ABTest.ConfidenceLevel >= 1 || e.ABTest.MinSampleSize < 0 {
		return fmt.Errorf("ab_test %+v: %w", e.ABTest, engineerr.ErrInvalidInput)
	}
	if err := e.Cluster.Validate(); err != nil {
		return fmt.Errorf("cluster: %w", err)
	}
	if e.ReportConcurrency < 1 {
		return fmt.Errorf("report_concurrency %d: %w", e.ReportConcurrency, engineerr.ErrInvalidInput)
	}
	return nil
}

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvBool gets a boolean environment variable with a default value
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// GetEnvFloat gets a float environment variable with a default value
func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
