// Package config loads ideaforge-engine configuration from config.yaml with
// environment variable overrides. Secrets (database password, API keys) come
// from the environment only.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ideaforge-inc/ideaforge-engine/pkg/llm"
	"github.com/ideaforge-inc/ideaforge-engine/pkg/search"
)

// Config holds all configuration for ideaforge-engine.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time from build info

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Redis cache for search results (optional; empty host disables it)
	Redis RedisConfig `yaml:"redis"`

	// LLM analysis capability (Profiler, MonetizationAnalyzer)
	LLM llm.Config `yaml:"llm"`

	// Search/market-data capability (MarketValidator)
	Search SearchConfig `yaml:"search"`

	// Pipeline orchestration settings
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Input is the candidate records file processed by the CLI run.
	Input string `yaml:"input" env:"INPUT_FILE" env-default:"candidates.json"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ideaforge"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret, env only
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ideaforge_engine"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// DSN builds a connection string from the parts.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// RedisConfig holds Redis settings for the search-result cache.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret, env only
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// SearchConfig wraps the search client settings plus cache policy.
type SearchConfig struct {
	search.ClientConfig `yaml:",inline"`
	CacheTTL            time.Duration `yaml:"cache_ttl" env:"SEARCH_CACHE_TTL" env-default:"24h"`
}

// PipelineConfig holds orchestration timeouts and batch sizing.
type PipelineConfig struct {
	// RecordTimeout bounds one candidate's whole pipeline.
	RecordTimeout time.Duration `yaml:"record_timeout" env:"PIPELINE_RECORD_TIMEOUT" env-default:"2m"`
	// StageTimeout bounds a single enrichment stage's network call.
	StageTimeout time.Duration `yaml:"stage_timeout" env:"PIPELINE_STAGE_TIMEOUT" env-default:"30s"`
	// BatchWorkers is the bounded worker count for ProcessBatch.
	BatchWorkers int `yaml:"batch_workers" env:"PIPELINE_BATCH_WORKERS" env-default:"4"`
	// MinDescriptionLen gates LLM stages; shorter texts are SKIPPED.
	MinDescriptionLen int `yaml:"min_description_len" env:"PIPELINE_MIN_DESCRIPTION_LEN" env-default:"20"`
	// MinEngagement gates MonetizationAnalyzer; quieter posts are SKIPPED.
	MinEngagement int `yaml:"min_engagement" env:"PIPELINE_MIN_ENGAGEMENT" env-default:"5"`
}

// Load reads configuration from path (default config.yaml) with environment
// overrides. A missing config file is not an error; the environment alone is
// enough to run.
func Load(path, version string) (*Config, error) {
	cfg := &Config{Version: version}

	if path == "" {
		path = "config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Pipeline.BatchWorkers < 1 {
		return fmt.Errorf("pipeline.batch_workers must be at least 1")
	}
	if c.Pipeline.RecordTimeout <= 0 {
		return fmt.Errorf("pipeline.record_timeout must be positive")
	}
	if c.Pipeline.StageTimeout <= 0 {
		return fmt.Errorf("pipeline.stage_timeout must be positive")
	}
	return nil
}
