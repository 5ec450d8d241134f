// Package config loads the run configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/storefront-export/pkg/client"
	"github.com/Sternrassler/storefront-export/pkg/export"
	"github.com/Sternrassler/storefront-export/pkg/exporter"
	"github.com/Sternrassler/storefront-export/pkg/logging"
	"github.com/Sternrassler/storefront-export/pkg/metadata"
	"github.com/Sternrassler/storefront-export/pkg/pagination"
	"github.com/joho/godotenv"
)

// Environment variable names.
const (
	EnvStoreHash         = "BIGCOMMERCE_STORE_HASH"
	EnvAPIToken          = "BIGCOMMERCE_API_TOKEN"
	EnvAPIURL            = "BIGCOMMERCE_API_URL"
	EnvPageSize          = "PAGE_SIZE"
	EnvBatchSize         = "BATCH_SIZE"
	EnvMaxRetryAttempts  = "MAX_RETRY_ATTEMPTS"
	EnvMaxRetryWait      = "MAX_RETRY_WAIT"
	EnvRequestsPerSecond = "REQUESTS_PER_SECOND"
	EnvRedisURL          = "REDIS_URL"
	EnvExportDir         = "EXPORT_DIR"
	EnvLogLevel          = "LOG_LEVEL"
	EnvLogPretty         = "LOG_PRETTY"
	EnvMetricsFile       = "METRICS_FILE"
)

// DefaultAPIURL is the store API base URL; %s is the store hash.
const DefaultAPIURL = "https://api.bigcommerce.com/stores/%s"

// Config holds everything a run needs.
type Config struct {
	StoreHash string
	APIToken  string

	// APIURL overrides the base URL derived from StoreHash.
	APIURL string

	PageSize          int
	BatchSize         int
	MaxRetryAttempts  int
	MaxRetryWait      time.Duration
	RequestsPerSecond float64

	// RedisURL enables the shared quota store when set.
	RedisURL string

	// ExportDir overrides the downloads directory.
	ExportDir string

	LogLevel  logging.LogLevel
	LogPretty bool

	// MetricsFile receives a Prometheus text dump at exit when set.
	MetricsFile string
}

// DefaultConfig returns the configuration used for unset variables.
func DefaultConfig() Config {
	retry := client.DefaultRetryConfig()
	return Config{
		PageSize:         pagination.DefaultPageSize,
		BatchSize:        metadata.DefaultConfig().BatchSize,
		MaxRetryAttempts: retry.MaxAttempts,
		MaxRetryWait:     retry.MaxWait,
		LogLevel:         logging.LevelInfo,
		LogPretty:        true,
	}
}

// Load reads envFiles (".env" when none are given) into the process
// environment without overriding variables that are already set, then builds
// and validates a Config. A missing default .env is not an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	} else if err := godotenv.Load(envFiles...); err != nil {
		return Config{}, fmt.Errorf("load env files: %w", err)
	}

	cfg, err := FromEnv(os.Getenv)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// FromEnv builds a Config from getenv, starting at DefaultConfig.
// It reports every malformed variable, not just the first.
func FromEnv(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	p := parser{getenv: getenv}

	cfg.StoreHash = strings.TrimSpace(getenv(EnvStoreHash))
	cfg.APIToken = strings.TrimSpace(getenv(EnvAPIToken))
	cfg.APIURL = strings.TrimSpace(getenv(EnvAPIURL))
	cfg.RedisURL = getenv(EnvRedisURL)
	cfg.ExportDir = getenv(EnvExportDir)
	cfg.MetricsFile = getenv(EnvMetricsFile)
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = logging.LogLevel(v)
	}

	p.intVar(EnvPageSize, &cfg.PageSize)
	p.intVar(EnvBatchSize, &cfg.BatchSize)
	p.intVar(EnvMaxRetryAttempts, &cfg.MaxRetryAttempts)
	p.durationVar(EnvMaxRetryWait, &cfg.MaxRetryWait)
	p.floatVar(EnvRequestsPerSecond, &cfg.RequestsPerSecond)
	p.boolVar(EnvLogPretty, &cfg.LogPretty)

	return cfg, errors.Join(p.errs...)
}

// Validate checks required values and ranges.
func (c Config) Validate() error {
	var errs []error
	if c.StoreHash == "" && c.APIURL == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvStoreHash))
	}
	if c.APIToken == "" {
		errs = append(errs, fmt.Errorf("%s is required", EnvAPIToken))
	}
	if c.PageSize < 1 {
		errs = append(errs, fmt.Errorf("%s must be >= 1 (got %d)", EnvPageSize, c.PageSize))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("%s must be >= 1 (got %d)", EnvBatchSize, c.BatchSize))
	}
	if c.MaxRetryAttempts < 1 {
		errs = append(errs, fmt.Errorf("%s must be >= 1 (got %d)", EnvMaxRetryAttempts, c.MaxRetryAttempts))
	}
	if c.MaxRetryWait < 0 {
		errs = append(errs, fmt.Errorf("%s must be >= 0 (got %s)", EnvMaxRetryWait, c.MaxRetryWait))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("%s must be >= 0 (got %v)", EnvRequestsPerSecond, c.RequestsPerSecond))
	}
	return errors.Join(errs...)
}

// BaseURL returns APIURL, or the default URL for StoreHash.
func (c Config) BaseURL() string {
	if c.APIURL != "" {
		return c.APIURL
	}
	return fmt.Sprintf(DefaultAPIURL, c.StoreHash)
}

// Client returns the store client configuration. QuotaStore is left for
// the caller.
func (c Config) Client() client.Config {
	cfg := client.DefaultConfig(c.BaseURL(), c.APIToken)
	cfg.RequestsPerSecond = c.RequestsPerSecond
	cfg.Retry.MaxAttempts = c.MaxRetryAttempts
	cfg.Retry.MaxWait = c.MaxRetryWait
	return cfg
}

// OutputDir returns ExportDir, or the user's downloads directory.
func (c Config) OutputDir() (string, error) {
	if c.ExportDir != "" {
		return c.ExportDir, nil
	}
	return export.DownloadsDir()
}

// Exporter returns the exporter configuration writing to outputDir.
func (c Config) Exporter(outputDir string) exporter.Config {
	cfg := exporter.DefaultConfig(outputDir)
	cfg.PageSize = c.PageSize
	cfg.Metadata.BatchSize = c.BatchSize
	return cfg
}

// Logging returns the logger configuration.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.LogLevel
	cfg.Pretty = c.LogPretty
	return cfg
}

type parser struct {
	getenv func(string) string
	errs   []error
}

func (p *parser) lookup(key string) (string, bool) {
	v := strings.TrimSpace(p.getenv(key))
	return v, v != ""
}

func (p *parser) fail(key, v string, err error) {
	p.errs = append(p.errs, fmt.Errorf("%s=%q: %w", key, v, err))
}

func (p *parser) intVar(key string, dst *int) {
	if v, ok := p.lookup(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = n
	}
}

func (p *parser) floatVar(key string, dst *float64) {
	if v, ok := p.lookup(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = f
	}
}

func (p *parser) boolVar(key string, dst *bool) {
	if v, ok := p.lookup(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = b
	}
}

// durationVar accepts Go durations ("90s") or plain seconds ("90").
func (p *parser) durationVar(key string, dst *time.Duration) {
	if v, ok := p.lookup(key); ok {
		if secs, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(secs) * time.Second
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			p.fail(key, v, err)
			return
		}
		*dst = d
	}
}
