// Package config defines all configuration structures for the dataset
// creation pipeline.  No I/O or parsing logic lives here — only plain data
// types and validation.  Infrastructure settings reuse the config types of
// the packages that consume them, so viper unmarshals directly into what
// the constructors take.
package config

import (
	"time"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/database/postgres"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/database/redis"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/messaging/kafka"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/storage/minio"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/wikidata"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// Accepted LabelStoreConfig.Backend values.
const (
	BackendJSONFile = "jsonfile"
	BackendPostgres = "postgres"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// PipelineConfig holds the cross-task dataset settings.
type PipelineConfig struct {
	// DatasetDir is the directory holding the split JSON files and every
	// derived artifact.
	DatasetDir string `mapstructure:"dataset_dir"`
	// Threshold is the minimum fraction of a label's code points that the
	// longest common substring must cover before the label is masked,
	// in [0, 1].  Zero accepts any non-empty overlap.
	Threshold float64 `mapstructure:"threshold"`
	// Concurrency caps the number of questions masked in parallel.
	Concurrency int `mapstructure:"concurrency"`
	// PartSize is the number of symbols per batched label query.
	PartSize int `mapstructure:"part_size"`
	// FractionToValidate is the fraction of the train split, taken from the
	// head of the file, that becomes the validate partition.
	FractionToValidate float64 `mapstructure:"fraction_to_validate"`
}

// LabelStoreConfig selects where retrieved labels are persisted.
type LabelStoreConfig struct {
	Backend string `mapstructure:"backend"` // "jsonfile" | "postgres"
	// MigrationsDir holds the golang-migrate SQL files; postgres backend only.
	MigrationsDir string `mapstructure:"migrations_dir"`
}

// CacheConfig wires the optional Redis read-through cache in front of the
// SPARQL label source.
type CacheConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	TTL     time.Duration     `mapstructure:"ttl"`
	Prefix  string            `mapstructure:"prefix"`
	Redis   redis.RedisConfig `mapstructure:"redis"`
}

// EventsConfig wires the optional per-question masking outcome stream.
type EventsConfig struct {
	Enabled  bool                 `mapstructure:"enabled"`
	Producer kafka.ProducerConfig `mapstructure:"producer"`
}

// UploadConfig wires the optional upload of finalised files to object
// storage.
type UploadConfig struct {
	Enabled bool              `mapstructure:"enabled"`
	MinIO   minio.MinIOConfig `mapstructure:"minio"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration for the pipeline.  Every task and
// infrastructure component reads its settings from the relevant sub-struct.
type Config struct {
	Pipeline PipelineConfig          `mapstructure:"pipeline"`
	Labels   LabelStoreConfig        `mapstructure:"labels"`
	Wikidata wikidata.Config         `mapstructure:"wikidata"`
	Postgres postgres.PostgresConfig `mapstructure:"postgres"`
	Cache    CacheConfig             `mapstructure:"cache"`
	Events   EventsConfig            `mapstructure:"events"`
	Upload   UploadConfig            `mapstructure:"upload"`
	Log      LogConfig               `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start a task.
func (c *Config) Validate() error {
	// Pipeline
	if c.Pipeline.DatasetDir == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "pipeline.dataset_dir is required")
	}
	if c.Pipeline.Threshold < 0 || c.Pipeline.Threshold > 1 {
		return errors.New(errors.ErrCodeConfigInvalid, "pipeline.threshold is out of range [0, 1]").
			WithDetailf("threshold=%g", c.Pipeline.Threshold)
	}
	if c.Pipeline.Concurrency < 1 {
		return errors.New(errors.ErrCodeConfigInvalid, "pipeline.concurrency must be at least one").
			WithDetailf("concurrency=%d", c.Pipeline.Concurrency)
	}
	if c.Pipeline.PartSize < 1 {
		return errors.New(errors.ErrCodeConfigInvalid, "pipeline.part_size must be at least one").
			WithDetailf("part_size=%d", c.Pipeline.PartSize)
	}
	if c.Pipeline.FractionToValidate < 0 || c.Pipeline.FractionToValidate >= 1 {
		return errors.New(errors.ErrCodeConfigInvalid, "pipeline.fraction_to_validate is out of range [0, 1)").
			WithDetailf("fraction_to_validate=%g", c.Pipeline.FractionToValidate)
	}

	// Labels
	switch c.Labels.Backend {
	case BackendJSONFile:
	case BackendPostgres:
		if c.Postgres.Host == "" {
			return errors.New(errors.ErrCodeConfigInvalid, "postgres.host is required for the postgres labels backend")
		}
		if c.Postgres.Database == "" {
			return errors.New(errors.ErrCodeConfigInvalid, "postgres.database is required for the postgres labels backend")
		}
		if c.Postgres.Username == "" {
			return errors.New(errors.ErrCodeConfigInvalid, "postgres.username is required for the postgres labels backend")
		}
	default:
		return errors.New(errors.ErrCodeConfigInvalid, "labels.backend must be jsonfile or postgres").
			WithDetailf("backend=%q", c.Labels.Backend)
	}

	// Wikidata
	if c.Wikidata.Endpoint == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "wikidata.endpoint is required")
	}

	// Optional components
	if c.Cache.Enabled && c.Cache.Redis.Addr == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "cache.redis.addr is required when the label cache is enabled")
	}
	if c.Events.Enabled && len(c.Events.Producer.Brokers) == 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "events.producer.brokers must contain at least one broker when events are enabled")
	}
	if c.Upload.Enabled && c.Upload.MinIO.Endpoint == "" {
		return errors.New(errors.ErrCodeConfigInvalid, "upload.minio.endpoint is required when upload is enabled")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.New(errors.ErrCodeConfigInvalid, "log.level must be one of debug|info|warn|error").
			WithDetailf("level=%q", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.New(errors.ErrCodeConfigInvalid, "log.format must be json or console").
			WithDetailf("format=%q", c.Log.Format)
	}

	return nil
}
