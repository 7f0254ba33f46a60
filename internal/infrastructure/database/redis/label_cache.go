package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/labels"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// redisCommands is the command subset the label cache issues. *Client
// implements it.
type redisCommands interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CacheMetrics observes label cache effectiveness.
type CacheMetrics interface {
	RecordLabelCache(hits, misses int)
}

type noopCacheMetrics struct{}

func (noopCacheMetrics) RecordLabelCache(int, int) {}

// LabelCache is a read-through labels.LabelSource: label lookups are served
// from Redis where possible and fetched from the wrapped source otherwise.
// Identical concurrent fetches collapse into one upstream query. A label
// known to be empty is cached as an empty list, so repeat queries for
// unlabelled symbols also stay local.
//
// The cache degrades rather than fails: when Redis is unreachable every
// lookup is treated as a miss and the wrapped source carries the load.
type LabelCache struct {
	commands redisCommands
	source   labels.LabelSource
	logger   logging.Logger
	metrics  CacheMetrics
	prefix   string
	ttl      time.Duration
	group    singleflight.Group
}

// CacheOption adjusts a LabelCache.
type CacheOption func(*LabelCache)

// WithPrefix replaces the default "dutchkbqa:" key prefix.
func WithPrefix(prefix string) CacheOption {
	return func(c *LabelCache) { c.prefix = prefix }
}

// WithTTL replaces the default 24h entry lifetime.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *LabelCache) { c.ttl = ttl }
}

// NewLabelCache wraps source with a Redis read-through cache.
func NewLabelCache(client *Client, source labels.LabelSource, log logging.Logger, metrics CacheMetrics, opts ...CacheOption) (*LabelCache, error) {
	if client == nil {
		return nil, errors.InvalidParam("redis client must not be nil")
	}
	return newLabelCacheWithCommands(client, source, log, metrics, opts...)
}

func newLabelCacheWithCommands(commands redisCommands, source labels.LabelSource, log logging.Logger, metrics CacheMetrics, opts ...CacheOption) (*LabelCache, error) {
	if source == nil {
		return nil, errors.InvalidParam("label source must not be nil")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = noopCacheMetrics{}
	}
	c := &LabelCache{
		commands: commands,
		source:   source,
		logger:   log,
		metrics:  metrics,
		prefix:   "dutchkbqa:",
		ttl:      24 * time.Hour,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchLabels implements labels.LabelSource.
func (c *LabelCache) FetchLabels(ctx context.Context, symbols []string, lang dataset.Language) (labels.SymbolLabels, error) {
	if len(symbols) == 0 {
		return labels.SymbolLabels{}, nil
	}

	out := make(labels.SymbolLabels, len(symbols))
	var missing []string
	var cacheErrs int
	for _, symbol := range symbols {
		data, err := c.commands.Get(ctx, c.key(lang, symbol)).Bytes()
		if err != nil {
			if err != redis.Nil {
				cacheErrs++
			}
			missing = append(missing, symbol)
			continue
		}
		var ls []string
		if err := json.Unmarshal(data, &ls); err != nil {
			missing = append(missing, symbol)
			continue
		}
		out[symbol] = ls
	}
	if cacheErrs > 0 {
		c.logger.Warn("label cache unreachable, falling back to source",
			logging.Int("lookups_failed", cacheErrs))
	}
	c.metrics.RecordLabelCache(len(symbols)-len(missing), len(missing))
	if len(missing) == 0 {
		return out, nil
	}

	flightKey := lang.String() + "|" + strings.Join(missing, ",")
	v, err, _ := c.group.Do(flightKey, func() (interface{}, error) {
		return c.source.FetchLabels(ctx, missing, lang)
	})
	if err != nil {
		return nil, err
	}
	fetched := v.(labels.SymbolLabels)

	for symbol, ls := range fetched {
		data, err := json.Marshal(ls)
		if err != nil {
			continue
		}
		if err := c.commands.Set(ctx, c.key(lang, symbol), data, c.jitterTTL()).Err(); err != nil {
			c.logger.Warn("failed to cache label",
				logging.String("symbol", symbol),
				logging.Err(err))
		}
	}
	out.Merge(fetched)
	return out, nil
}

func (c *LabelCache) key(lang dataset.Language, symbol string) string {
	return c.prefix + "label:" + lang.String() + ":" + symbol
}

// jitterTTL spreads entry expiry by +/- 10% so that a full cache does not
// expire at once.
func (c *LabelCache) jitterTTL() time.Duration {
	if c.ttl == 0 {
		return 0
	}
	jitter := float64(c.ttl) * 0.1 * (rand.Float64()*2 - 1)
	return c.ttl + time.Duration(jitter)
}
