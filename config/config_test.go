package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/seo-optimizer/content-engine/alerts"
	"github.com/seo-optimizer/content-engine/engineerr"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "GIN_MODE", "LOG_LEVEL", "DATA_DIR", "STORE_DRIVER", "DATABASE_PATH", "DEV_MODE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "ENGINE_CONFIG"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "8082" || cfg.StoreDriver != DriverFile || cfg.DataDir != "data" {
		t.Errorf("Unexpected defaults %+v", cfg)
	}
	if cfg.DatabasePath != "data/engine.db" {
		t.Errorf("Expected database under the data dir, got %s", cfg.DatabasePath)
	}
	if cfg.RateLimitRPS != 2 || cfg.RateLimitBurst != 5 {
		t.Errorf("Expected 2 rps burst 5, got %v/%v", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.Engine.AlertThresholds.Critical != 10 || cfg.Engine.Cluster.MaxClusterSize != 7 {
		t.Errorf("Expected default engine tuning, got %+v", cfg.Engine)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "engine.yaml")
	yamlDoc := `
alert_thresholds:
  critical: 12
opportunities:
  min_search_volume: 500
ab_test:
  confidence_level: 0.99
cluster:
  max_supporting_articles: 12
analyzer:
  cache_ttl: 5m
report_concurrency: 2
`
	if err := os.WriteFile(path, []byte(yamlDoc), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("DEV_MODE", "true")
	t.Setenv("RATE_LIMIT_RPS", "10.5")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("DATA_DIR", dir)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ENGINE_CONFIG", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9000" || cfg.StoreDriver != DriverSQLite || !cfg.DevMode || cfg.RateLimitRPS != 10.5 {
		t.Errorf("Unexpected config %+v", cfg)
	}

	e := cfg.Engine
	if e.AlertThresholds.Critical != 12 || e.AlertThresholds.High != 5 {
		t.Errorf("Expected critical 12 with default high, got %+v", e.AlertThresholds)
	}
	if e.Opportunities.MinSearchVolume != 500 || e.ABTest.ConfidenceLevel != 0.99 || e.ABTest.MinSampleSize != 100 {
		t.Errorf("Unexpected engine tuning %+v", e)
	}
	if e.Cluster.MaxSupportingArticles != 12 || e.Cluster.MinSupportingArticles != 10 {
		t.Errorf("Unexpected cluster config %+v", e.Cluster)
	}
	if e.Analyzer.CacheTTL != 5*time.Minute || e.ReportConcurrency != 2 {
		t.Errorf("Unexpected analyzer or concurrency %+v / %d", e.Analyzer, e.ReportConcurrency)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{StoreDriver: DriverFile, LogLevel: "info", RateLimitRPS: 2, RateLimitBurst: 5, Engine: DefaultEngine()}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.StoreDriver = "postgres" }},
		{"zero rate", func(c *Config) { c.RateLimitRPS = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"inverted thresholds", func(c *Config) { c.Engine.AlertThresholds.High = 20 }},
		{"confidence of one", func(c *Config) { c.Engine.ABTest.ConfidenceLevel = 1 }},
		{"cluster range", func(c *Config) { c.Engine.Cluster.MinClusterSize = 9 }},
		{"opportunity range", func(c *Config) { c.Engine.Opportunities = alerts.OpportunityOptions{MinPosition: 30, MaxPosition: 12} }},
		{"no concurrency", func(c *Config) { c.Engine.ReportConcurrency = 0 }},
	}

	if err := base().Validate(); err != nil {
		t.Fatalf("Expected base config to validate, got %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, engineerr.ErrInvalidInput) {
				t.Errorf("Expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestLoadEngineErrors(t *testing.T) {
	if _, err := LoadEngine(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("alert_thresholds: [1, 2"), 0644)
	if _, err := LoadEngine(path); err == nil {
		t.Error("Expected error for malformed YAML")
	}
}
