// Package config loads runtime settings from the environment, optionally
// seeded from a .env file in the working directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates application configuration values.
type Config struct {
	Services ServicesConfig
	HTTP     HTTPConfig
	Logging  LoggingConfig
	Export   ExportConfig
	Stub     StubConfig
}

// ServicesConfig points at the client, account and transaction services.
type ServicesConfig struct {
	ClientURL      string
	AccountURL     string
	TransactionURL string
	Timeout        time.Duration
}

// HTTPConfig governs the back-office API server.
type HTTPConfig struct {
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	AllowedOriginsCSV string
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level  string
	Format string // console|json
}

// ExportConfig configures the report export sinks and the job queue that runs them.
type ExportConfig struct {
	GCSBucket          string
	BigQueryProject    string
	BigQueryDataset    string
	BigQueryTable      string
	NotionToken        string
	NotionDatabaseID   string
	QueueSize          int
	Workers            int
	MaxRetries         int
	StorageEndpoint    string // emulator override
	BigQueryEndpoint   string // emulator override
	WithoutCredentials bool
}

// StubConfig holds listen addresses for the in-memory bank services.
type StubConfig struct {
	ClientAddr      string
	AccountAddr     string
	TransactionAddr string
}

const (
	defaultClientURL        = "http://localhost:8001/api/v1/client"
	defaultAccountURL       = "http://localhost:8002/account"
	defaultTransactionURL   = "http://localhost:8003/transaction"
	defaultServiceTimeout   = 10 * time.Second
	defaultPort             = 8080
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 30 * time.Second
	defaultIdleTimeout      = 60 * time.Second
	defaultShutdownTimeout  = 30 * time.Second
	defaultLoggingLevel     = "info"
	defaultLoggingFormat    = "console"
	defaultBigQueryDataset  = "banking"
	defaultBigQueryTable    = "report_rows"
	defaultQueueSize        = 100
	defaultWorkers          = 2
	defaultMaxRetries       = 3
	defaultStubClient       = ":8001"
	defaultStubAccount      = ":8002"
	defaultStubTransactions = ":8003"
)

// Load reads an optional .env file and then environment variables, applying
// defaults. Variables already present in the environment win over .env values.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("Load: reading .env: %w", err)
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment only.
func FromEnv() (Config, error) {
	cfg := Config{
		Services: ServicesConfig{
			ClientURL:      trimSlash(valueOrDefault("CLIENT_SERVICE_URL", defaultClientURL)),
			AccountURL:     trimSlash(valueOrDefault("ACCOUNT_SERVICE_URL", defaultAccountURL)),
			TransactionURL: trimSlash(valueOrDefault("TRANSACTION_SERVICE_URL", defaultTransactionURL)),
		},
		HTTP: HTTPConfig{
			AllowedOriginsCSV: os.Getenv("API_ALLOWED_ORIGINS"),
		},
		Logging: LoggingConfig{
			Level:  valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format: valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
		},
		Export: ExportConfig{
			GCSBucket:          os.Getenv("EXPORT_GCS_BUCKET"),
			BigQueryProject:    os.Getenv("EXPORT_BQ_PROJECT"),
			BigQueryDataset:    valueOrDefault("EXPORT_BQ_DATASET", defaultBigQueryDataset),
			BigQueryTable:      valueOrDefault("EXPORT_BQ_TABLE", defaultBigQueryTable),
			NotionToken:        os.Getenv("NOTION_TOKEN"),
			NotionDatabaseID:   os.Getenv("NOTION_REPORTS_DATABASE_ID"),
			StorageEndpoint:    os.Getenv("STORAGE_EMULATOR_ENDPOINT"),
			BigQueryEndpoint:   os.Getenv("BIGQUERY_EMULATOR_ENDPOINT"),
			WithoutCredentials: parseBoolWithDefault("EXPORT_WITHOUT_CREDENTIALS", false),
		},
		Stub: StubConfig{
			ClientAddr:      valueOrDefault("STUB_CLIENT_ADDR", defaultStubClient),
			AccountAddr:     valueOrDefault("STUB_ACCOUNT_ADDR", defaultStubAccount),
			TransactionAddr: valueOrDefault("STUB_TRANSACTION_ADDR", defaultStubTransactions),
		},
	}

	var err error
	if cfg.Services.Timeout, err = parseDurationWithDefault("GATEWAY_TIMEOUT", defaultServiceTimeout); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.Port, err = parsePort("API_PORT", defaultPort); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.ReadTimeout, err = parseDurationWithDefault("API_READ_TIMEOUT", defaultReadTimeout); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.WriteTimeout, err = parseDurationWithDefault("API_WRITE_TIMEOUT", defaultWriteTimeout); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.IdleTimeout, err = parseDurationWithDefault("API_IDLE_TIMEOUT", defaultIdleTimeout); err != nil {
		return Config{}, err
	}
	if cfg.HTTP.ShutdownTimeout, err = parseDurationWithDefault("API_SHUTDOWN_TIMEOUT", defaultShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Export.QueueSize, err = parsePositiveInt("EXPORT_QUEUE_SIZE", defaultQueueSize); err != nil {
		return Config{}, err
	}
	if cfg.Export.Workers, err = parsePositiveInt("EXPORT_WORKERS", defaultWorkers); err != nil {
		return Config{}, err
	}
	if cfg.Export.MaxRetries, err = parsePositiveInt("EXPORT_MAX_RETRIES", defaultMaxRetries); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// AllowedOrigins splits AllowedOriginsCSV, returning nil when unset.
func (c HTTPConfig) AllowedOrigins() []string {
	if strings.TrimSpace(c.AllowedOriginsCSV) == "" {
		return nil
	}
	var origins []string
	for _, o := range strings.Split(c.AllowedOriginsCSV, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func trimSlash(u string) string {
	return strings.TrimRight(u, "/")
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parsePositiveInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, v)
	}
	return n, nil
}

func parseDurationWithDefault(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
