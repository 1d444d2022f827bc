// Package config loads service configuration from YAML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/finance-insights/internal/insights"
	"github.com/dvloznov/finance-insights/internal/logger"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendBigQuery = "bigquery"
)

// Config is the full service configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Log          logger.Config      `yaml:"log"`
	Store        StoreConfig        `yaml:"store"`
	BigQuery     BigQueryConfig     `yaml:"bigquery"`
	Export       ExportConfig       `yaml:"export"`
	Notion       NotionConfig       `yaml:"notion"`
	Sentry       SentryConfig       `yaml:"sentry"`
	CreditBureau CreditBureauConfig `yaml:"credit_bureau"`
	Gemini       GeminiConfig       `yaml:"gemini"`
	Insights     insights.Options   `yaml:"insights"`
	Worker       WorkerConfig       `yaml:"worker"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type StoreConfig struct {
	// Backend is "memory" or "bigquery".
	Backend string `yaml:"backend"`

	// SeedFile optionally preloads the memory backend.
	SeedFile string `yaml:"seed_file"`
}

type BigQueryConfig struct {
	ProjectID string `yaml:"project_id"`
	DatasetID string `yaml:"dataset_id"`
}

type ExportConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

type NotionConfig struct {
	Token      string `yaml:"token"`
	DatabaseID string `yaml:"database_id"`
}

type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
}

// CreditBureauConfig enables the external credit score source when BaseURL is set.
type CreditBureauConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	RetryMax     int           `yaml:"retry_max"`
	RetryWaitMin time.Duration `yaml:"retry_wait_min"`
	RetryWaitMax time.Duration `yaml:"retry_wait_max"`
}

type GeminiConfig struct {
	Enabled bool   `yaml:"enabled"`
	Model   string `yaml:"model"`
}

// WorkerConfig drives scheduled generation and pruning.
type WorkerConfig struct {
	Users         []string      `yaml:"users"`
	Interval      time.Duration `yaml:"interval"`
	PruneInterval time.Duration `yaml:"prune_interval"`
	Concurrency   int           `yaml:"concurrency"`
	QueueSize     int           `yaml:"queue_size"`
	MaxRetries    int           `yaml:"max_retries"`
}

// Default returns a configuration that runs locally against the memory backend.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: "8080"},
		Log:    logger.Config{Level: "info", Format: "console"},
		Store:  StoreConfig{Backend: BackendMemory},
		BigQuery: BigQueryConfig{
			ProjectID: "studious-union-470122-v7",
			DatasetID: "finance",
		},
		Export: ExportConfig{Prefix: "insights"},
		Sentry: SentryConfig{Environment: "development"},
		CreditBureau: CreditBureauConfig{
			Timeout:      10 * time.Second,
			RetryMax:     3,
			RetryWaitMin: 500 * time.Millisecond,
			RetryWaitMax: 5 * time.Second,
		},
		Gemini:   GeminiConfig{Model: "gemini-2.5-flash"},
		Insights: insights.DefaultOptions(),
		Worker: WorkerConfig{
			Interval:      24 * time.Hour,
			PruneInterval: time.Hour,
			Concurrency:   5,
			QueueSize:     100,
			MaxRetries:    3,
		},
	}
}

// Load reads path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	setString := func(key string, dst *string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	setString("FINSIGHT_PORT", &c.Server.Port)
	setString("FINSIGHT_LOG_LEVEL", &c.Log.Level)
	setString("FINSIGHT_LOG_FORMAT", &c.Log.Format)
	setString("FINSIGHT_STORE", &c.Store.Backend)
	setString("FINSIGHT_SEED_FILE", &c.Store.SeedFile)
	setString("FINSIGHT_BQ_PROJECT", &c.BigQuery.ProjectID)
	setString("FINSIGHT_BQ_DATASET", &c.BigQuery.DatasetID)
	setString("GCS_BUCKET", &c.Export.Bucket)
	setString("NOTION_TOKEN", &c.Notion.Token)
	setString("NOTION_DATABASE_ID", &c.Notion.DatabaseID)
	setString("SENTRY_DSN", &c.Sentry.DSN)
	setString("SENTRY_ENVIRONMENT", &c.Sentry.Environment)
	setString("CREDIT_BUREAU_URL", &c.CreditBureau.BaseURL)
	setString("CREDIT_BUREAU_API_KEY", &c.CreditBureau.APIKey)
	setString("FINSIGHT_GEMINI_MODEL", &c.Gemini.Model)

	if v := getenv("FINSIGHT_GEMINI_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FINSIGHT_GEMINI_ENABLED: %w", err)
		}
		c.Gemini.Enabled = enabled
	}
	if v := getenv("FINSIGHT_WORKER_USERS"); v != "" {
		c.Worker.Users = splitList(v)
	}
	if v := getenv("FINSIGHT_WORKER_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("FINSIGHT_WORKER_INTERVAL: %w", err)
		}
		c.Worker.Interval = d
	}
	return nil
}

// Validate checks that the selected backend is fully configured.
func (c Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}

	switch c.Store.Backend {
	case BackendMemory:
	case BackendBigQuery:
		if c.BigQuery.ProjectID == "" || c.BigQuery.DatasetID == "" {
			return fmt.Errorf("bigquery.project_id and bigquery.dataset_id are required for the bigquery backend")
		}
	default:
		return fmt.Errorf("store.backend must be %q or %q, got %q", BackendMemory, BackendBigQuery, c.Store.Backend)
	}

	if c.Worker.Interval <= 0 || c.Worker.PruneInterval <= 0 {
		return fmt.Errorf("worker.interval and worker.prune_interval must be positive")
	}
	if c.Worker.Concurrency <= 0 {
		return fmt.Errorf("worker.concurrency must be positive")
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
