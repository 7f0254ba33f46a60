package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/config"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// validConfig returns a Config that passes Validate().  The jsonfile backend
// needs nothing beyond the defaults.
func validConfig() *config.Config {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	return cfg
}

func TestConfig_Validate_ValidConfig(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validConfig().Validate())
}

func TestConfig_Validate_MissingDatasetDir(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Pipeline.DatasetDir = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfigInvalid))
	assert.Contains(t, err.Error(), "pipeline.dataset_dir")
}

func TestConfig_Validate_ThresholdOutOfRange(t *testing.T) {
	t.Parallel()
	cases := []float64{-0.01, 1.01, 2}
	for _, threshold := range cases {
		threshold := threshold
		t.Run("", func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			cfg.Pipeline.Threshold = threshold
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "pipeline.threshold")
		})
	}
}

func TestConfig_Validate_ConcurrencyLessThanOne(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Pipeline.Concurrency = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.concurrency")
}

func TestConfig_Validate_PartSizeLessThanOne(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Pipeline.PartSize = -5
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.part_size")
}

func TestConfig_Validate_FractionToValidateOutOfRange(t *testing.T) {
	t.Parallel()
	cases := []float64{-0.1, 1.0, 1.5}
	for _, fraction := range cases {
		fraction := fraction
		t.Run("", func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			cfg.Pipeline.FractionToValidate = fraction
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "pipeline.fraction_to_validate")
		})
	}
}

func TestConfig_Validate_UnknownLabelsBackend(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Labels.Backend = "sqlite"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "labels.backend")
}

func TestConfig_Validate_PostgresBackendRequiresCredentials(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Labels.Backend = config.BackendPostgres
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres.username")

	cfg.Postgres.Username = "kbqa"
	assert.NoError(t, cfg.Validate())

	cfg.Postgres.Host = ""
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres.host")
}

func TestConfig_Validate_MissingWikidataEndpoint(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Wikidata.Endpoint = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wikidata.endpoint")
}

func TestConfig_Validate_CacheEnabledRequiresRedisAddr(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Cache.Enabled = true
	cfg.Cache.Redis.Addr = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache.redis.addr")
}

func TestConfig_Validate_EventsEnabledRequiresBrokers(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Events.Enabled = true
	cfg.Events.Producer.Brokers = nil
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events.producer.brokers")
}

func TestConfig_Validate_UploadEnabledRequiresEndpoint(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Upload.Enabled = true
	cfg.Upload.MinIO.Endpoint = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upload.minio.endpoint")
}

func TestConfig_Validate_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Log.Level = "verbose"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.level")
}

func TestConfig_Validate_InvalidLogFormat(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Log.Format = "xml"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log.format")
}

func TestConfig_SubStructs_ZeroValues(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	assert.Equal(t, "", cfg.Pipeline.DatasetDir)
	assert.Equal(t, 0.0, cfg.Pipeline.Threshold)
	assert.Equal(t, "", cfg.Labels.Backend)
	assert.Equal(t, "", cfg.Wikidata.Endpoint)
	assert.Equal(t, "", cfg.Postgres.Host)
	assert.False(t, cfg.Cache.Enabled)
	assert.Nil(t, cfg.Events.Producer.Brokers)
	assert.Equal(t, "", cfg.Log.Level)
}
