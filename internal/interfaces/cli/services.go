package cli

import (
	"context"
	"path/filepath"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/application/collect"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/application/finalise"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/application/label"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/application/mask"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/application/replace"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/application/validate"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/config"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/labels"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/database/postgres"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/database/redis"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/messaging/kafka"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/prometheus"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/storage/jsonfile"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/storage/minio"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/wikidata"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/intelligence/masking"
)

// This file assembles the task services from configuration. Each command
// invocation builds exactly the collaborators its task needs; optional
// components (the label cache, the event producer, the artifact uploader)
// are wired only when enabled.

// metricsNamespace prefixes every metric the pipeline records.
const metricsNamespace = "dutchkbqa"

// newFileStore creates the JSON file store all tasks read and write through.
func newFileStore(cliCtx *CLIContext) (*jsonfile.Store, error) {
	return jsonfile.NewStore(&jsonfile.Config{
		DatasetDir: cliCtx.Config.Pipeline.DatasetDir,
	}, cliCtx.Logger)
}

// newPipelineMetrics builds the process-wide metrics sink shared by the
// masking consumer, the SPARQL client and the label cache.
func newPipelineMetrics(cliCtx *CLIContext) (*prometheus.PipelineMetrics, error) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: metricsNamespace,
	}, cliCtx.Logger)
	if err != nil {
		return nil, err
	}
	return prometheus.NewPipelineMetrics(collector), nil
}

// newLabelRepository picks the configured label store backend. The returned
// closer releases backend connections; it is never nil.
func newLabelRepository(ctx context.Context, cliCtx *CLIContext, store *jsonfile.Store, split dataset.Split, lang dataset.Language) (labels.LabelRepository, func(), error) {
	switch cliCtx.Config.Labels.Backend {
	case config.BackendPostgres:
		conn, err := postgres.NewConnection(ctx, &cliCtx.Config.Postgres, cliCtx.Logger)
		if err != nil {
			return nil, nil, err
		}
		if err := conn.Migrate(cliCtx.Config.Labels.MigrationsDir); err != nil {
			conn.Close()
			return nil, nil, err
		}
		repo, err := postgres.NewLabelRepo(conn, split, lang, cliCtx.Logger)
		if err != nil {
			conn.Close()
			return nil, nil, err
		}
		return repo, conn.Close, nil
	default:
		repo, err := jsonfile.NewLabelStore(store, split, lang)
		if err != nil {
			return nil, nil, err
		}
		return repo, func() {}, nil
	}
}

// labelStack bundles the label service with the collaborators the command
// manages over the run.
type labelStack struct {
	service label.Service
	// client is the SPARQL client, exposed so that configuration reloads
	// can adjust its politeness settings mid-run.
	client *wikidata.Client
	close  func()
}

// newLabelStack wires the label task: the symbol map comes from the file
// store, the repository from the configured backend, and labels from the
// WikiData query service, read through the Redis cache when one is enabled.
func newLabelStack(ctx context.Context, cliCtx *CLIContext, split dataset.Split, lang dataset.Language) (*labelStack, error) {
	store, err := newFileStore(cliCtx)
	if err != nil {
		return nil, err
	}
	metrics, err := newPipelineMetrics(cliCtx)
	if err != nil {
		return nil, err
	}
	repo, closeRepo, err := newLabelRepository(ctx, cliCtx, store, split, lang)
	if err != nil {
		return nil, err
	}
	closers := []func(){closeRepo}
	closeAll := func() {
		for _, f := range closers {
			f()
		}
	}

	client, err := wikidata.NewClient(&cliCtx.Config.Wikidata, nil, cliCtx.Logger, metrics)
	if err != nil {
		closeAll()
		return nil, err
	}

	source := labels.LabelSource(client)
	if cliCtx.Config.Cache.Enabled {
		redisClient, err := redis.NewClient(&cliCtx.Config.Cache.Redis, cliCtx.Logger)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, func() {
			if err := redisClient.Close(); err != nil {
				cliCtx.Logger.Warn("failed to close redis client", logging.Err(err))
			}
		})
		cache, err := redis.NewLabelCache(redisClient, client, cliCtx.Logger, metrics,
			redis.WithPrefix(cliCtx.Config.Cache.Prefix),
			redis.WithTTL(cliCtx.Config.Cache.TTL))
		if err != nil {
			closeAll()
			return nil, err
		}
		source = cache
	}

	service, err := label.NewService(store, repo, source, cliCtx.Logger)
	if err != nil {
		closeAll()
		return nil, err
	}

	return &labelStack{service: service, client: client, close: closeAll}, nil
}

// maskStack bundles the mask service with its closer.
type maskStack struct {
	service mask.Service
	close   func()
}

// newMaskStack wires the mask task. Records, questions, symbol maps and the
// masked output all go through the file store; labels come from the
// configured repository. A nil producer publishes nothing.
func newMaskStack(ctx context.Context, cliCtx *CLIContext, split dataset.Split, lang dataset.Language, threshold float64) (*maskStack, error) {
	store, err := newFileStore(cliCtx)
	if err != nil {
		return nil, err
	}
	metrics, err := newPipelineMetrics(cliCtx)
	if err != nil {
		return nil, err
	}
	repo, closeRepo, err := newLabelRepository(ctx, cliCtx, store, split, lang)
	if err != nil {
		return nil, err
	}
	closers := []func(){closeRepo}
	closeAll := func() {
		for _, f := range closers {
			f()
		}
	}

	masker, err := masking.New(masking.Config{Threshold: threshold}, cliCtx.Logger, metrics)
	if err != nil {
		closeAll()
		return nil, err
	}

	var producer *kafka.Producer
	if cliCtx.Config.Events.Enabled {
		producer, err = kafka.NewProducer(cliCtx.Config.Events.Producer, cliCtx.Logger)
		if err != nil {
			closeAll()
			return nil, err
		}
		closers = append(closers, func() {
			if err := producer.Close(); err != nil {
				cliCtx.Logger.Warn("failed to close event producer", logging.Err(err))
			}
		})
	}

	service, err := mask.NewService(store, store, store, repo, store, masker, producer, cliCtx.Logger)
	if err != nil {
		closeAll()
		return nil, err
	}

	return &maskStack{service: service, close: closeAll}, nil
}

func newCollectService(cliCtx *CLIContext) (collect.Service, error) {
	store, err := newFileStore(cliCtx)
	if err != nil {
		return nil, err
	}
	return collect.NewService(store, store, cliCtx.Logger)
}

func newReplaceService(cliCtx *CLIContext) (replace.Service, error) {
	store, err := newFileStore(cliCtx)
	if err != nil {
		return nil, err
	}
	return replace.NewService(store, store, cliCtx.Logger)
}

// newFinaliseService wires the finalise task, with the MinIO uploader when
// uploads are enabled.
func newFinaliseService(cliCtx *CLIContext) (finalise.Service, error) {
	store, err := newFileStore(cliCtx)
	if err != nil {
		return nil, err
	}

	var uploader finalise.ArtifactUploader
	if cliCtx.Config.Upload.Enabled {
		client, err := minio.NewClient(&cliCtx.Config.Upload.MinIO, cliCtx.Logger)
		if err != nil {
			return nil, err
		}
		finalisedDir := filepath.Join(cliCtx.Config.Pipeline.DatasetDir, jsonfile.FinalisedDir)
		uploader, err = minio.NewArtifactStore(client, finalisedDir, cliCtx.Logger)
		if err != nil {
			return nil, err
		}
	}

	return finalise.NewService(store, store, uploader, cliCtx.Logger)
}

func newValidateService(cliCtx *CLIContext) (validate.Service, error) {
	store, err := newFileStore(cliCtx)
	if err != nil {
		return nil, err
	}
	return validate.NewService(store, cliCtx.Logger)
}
