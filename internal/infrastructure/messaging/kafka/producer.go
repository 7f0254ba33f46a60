// Package kafka publishes pipeline events to a Kafka cluster. Event
// publication is optional: a nil Producer is a valid no-op publisher, so
// callers need no branching when eventing is disabled.
package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// ProducerConfig holds the Kafka producer settings.
type ProducerConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	Acks         string        `mapstructure:"acks"`
	MaxRetries   int           `mapstructure:"max_retries"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

func applyProducerDefaults(cfg *ProducerConfig) {
	if cfg.Topic == "" {
		cfg.Topic = TopicMaskingOutcome
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.BatchTimeout == 0 {
		cfg.BatchTimeout = time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
}

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ProducerMetrics counts what the producer has published.
type ProducerMetrics struct {
	EventsPublished atomic.Int64
	EventsFailed    atomic.Int64
}

// Producer publishes masking outcome events. A nil *Producer publishes
// nothing and never fails.
type Producer struct {
	writer  WriterInterface
	config  ProducerConfig
	logger  logging.Logger
	closed  atomic.Bool
	metrics *ProducerMetrics
}

// NewProducer creates a Kafka producer for outcome events.
func NewProducer(cfg ProducerConfig, logger logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.InvalidParam("at least one Kafka broker is required")
	}
	applyProducerDefaults(&cfg)
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	var requiredAcks kafka.RequiredAcks
	switch cfg.Acks {
	case "none":
		requiredAcks = kafka.RequireNone
	case "all":
		requiredAcks = kafka.RequireAll
	default:
		requiredAcks = kafka.RequireOne
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		MaxAttempts:  cfg.MaxRetries + 1,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: requiredAcks,
	}

	return &Producer{
		writer:  writer,
		config:  cfg,
		logger:  logger,
		metrics: &ProducerMetrics{},
	}, nil
}

// newProducerWithWriter wires a custom writer, used by tests.
func newProducerWithWriter(cfg ProducerConfig, writer WriterInterface, logger logging.Logger) *Producer {
	applyProducerDefaults(&cfg)
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Producer{
		writer:  writer,
		config:  cfg,
		logger:  logger,
		metrics: &ProducerMetrics{},
	}
}

// PublishMaskingOutcome publishes one outcome event, keyed by question UID.
func (p *Producer) PublishMaskingOutcome(ctx context.Context, event *MaskingOutcomeEvent) error {
	if p == nil {
		return nil
	}
	if p.closed.Load() {
		return errors.New(errors.ErrCodeInternal, "producer is closed")
	}
	if event == nil {
		return errors.InvalidParam("event must not be nil")
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to encode outcome event")
	}
	msg := kafka.Message{
		Key:   []byte(event.UID),
		Value: value,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.metrics.EventsFailed.Add(1)
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to publish outcome event").
			WithDetailf("topic=%s uid=%s", p.config.Topic, event.UID)
	}
	p.metrics.EventsPublished.Add(1)
	p.logger.Debug("published masking outcome",
		logging.String("uid", event.UID),
		logging.String("status", event.Status))
	return nil
}

// Metrics returns the producer's counters. Nil-safe.
func (p *Producer) Metrics() (published, failed int64) {
	if p == nil {
		return 0, 0
	}
	return p.metrics.EventsPublished.Load(), p.metrics.EventsFailed.Load()
}

// Close flushes and closes the underlying writer. Nil-safe.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	if p.closed.Swap(true) {
		return nil
	}
	if err := p.writer.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to close producer")
	}
	return nil
}
