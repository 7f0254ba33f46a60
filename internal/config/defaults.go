// Package config provides configuration loading, defaults, and validation for
// the dataset creation pipeline.
package config

import (
	"time"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/wikidata"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultDatasetDir         = "dataset"
	DefaultThreshold          = 0.0
	DefaultConcurrency        = 10
	DefaultPartSize           = 100
	DefaultFractionToValidate = 0.1

	DefaultLabelsBackend = BackendJSONFile
	DefaultMigrationsDir = "migrations"

	DefaultPostgresHost     = "localhost"
	DefaultPostgresPort     = 5432
	DefaultPostgresDatabase = "dutchkbqa"

	DefaultRedisAddr   = "localhost:6379"
	DefaultCacheTTL    = 24 * time.Hour
	DefaultCachePrefix = "dutchkbqa:"

	DefaultKafkaBroker = "localhost:9092"

	DefaultMinIOEndpoint = "localhost:9000"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "console"
)

// ApplyDefaults fills every zero-value field in cfg with the pipeline
// default.  Fields that have already been set by the caller (non-zero
// values) are left unchanged so that explicit configuration always wins.
// The Wikidata section is defaulted by its own package, which owns the
// query service's usage policy.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	if cfg.Pipeline.DatasetDir == "" {
		cfg.Pipeline.DatasetDir = DefaultDatasetDir
	}
	// Threshold 0 is a valid explicit value and also the default, so it is
	// left as-is.
	if cfg.Pipeline.Concurrency == 0 {
		cfg.Pipeline.Concurrency = DefaultConcurrency
	}
	if cfg.Pipeline.PartSize == 0 {
		cfg.Pipeline.PartSize = DefaultPartSize
	}
	if cfg.Pipeline.FractionToValidate == 0 {
		cfg.Pipeline.FractionToValidate = DefaultFractionToValidate
	}

	// ── Labels ────────────────────────────────────────────────────────────────
	if cfg.Labels.Backend == "" {
		cfg.Labels.Backend = DefaultLabelsBackend
	}
	if cfg.Labels.MigrationsDir == "" {
		cfg.Labels.MigrationsDir = DefaultMigrationsDir
	}

	// ── Wikidata ──────────────────────────────────────────────────────────────
	cfg.Wikidata.ApplyDefaults()
	// An omitted query_interval gets the polite default.  A negative value
	// disables rate limiting; there is no way to tell "unset" from an
	// explicit 0, so 0 cannot mean "unlimited" here.
	if cfg.Wikidata.QueryInterval == 0 {
		cfg.Wikidata.QueryInterval = wikidata.DefaultConfig().QueryInterval
	}

	// ── Postgres ──────────────────────────────────────────────────────────────
	if cfg.Postgres.Host == "" {
		cfg.Postgres.Host = DefaultPostgresHost
	}
	if cfg.Postgres.Port == 0 {
		cfg.Postgres.Port = DefaultPostgresPort
	}
	if cfg.Postgres.Database == "" {
		cfg.Postgres.Database = DefaultPostgresDatabase
	}

	// ── Cache ─────────────────────────────────────────────────────────────────
	if cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = DefaultCachePrefix
	}

	// ── Events ────────────────────────────────────────────────────────────────
	if len(cfg.Events.Producer.Brokers) == 0 {
		cfg.Events.Producer.Brokers = []string{DefaultKafkaBroker}
	}

	// ── Upload ────────────────────────────────────────────────────────────────
	if cfg.Upload.MinIO.Endpoint == "" {
		cfg.Upload.MinIO.Endpoint = DefaultMinIOEndpoint
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	// Logs go to stderr so that command output stays parseable on stdout.
	if len(cfg.Log.OutputPaths) == 0 {
		cfg.Log.OutputPaths = []string{"stderr"}
	}
}
