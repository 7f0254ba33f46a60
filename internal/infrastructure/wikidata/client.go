// Package wikidata retrieves entity and property labels from the Wikidata
// Query Service. Queries are batched, rate limited and retried on throttling
// so long-running label runs stay within the service's usage policy.
package wikidata

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/dataset"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/domain/labels"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/infrastructure/monitoring/logging"
	"github.com/dutch-kbqa/dutch-kbqa-ds-create/pkg/errors"
)

// HTTPDoer is the slice of http.Client the SPARQL client depends on.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the Wikidata Query Service settings.
type Config struct {
	Endpoint      string        `mapstructure:"endpoint"`
	UserAgent     string        `mapstructure:"user_agent"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout"`
	QueryInterval time.Duration `mapstructure:"query_interval"`
	RetryWait     time.Duration `mapstructure:"retry_wait"`
}

// DefaultConfig returns settings matching the query service's usage policy:
// one query per three seconds, five seconds of backoff when throttled.
func DefaultConfig() *Config {
	return &Config{
		Endpoint:      "https://query.wikidata.org/sparql",
		UserAgent:     "dutch-kbqa-ds-create/1.0 (label retrieval)",
		HTTPTimeout:   60 * time.Second,
		QueryInterval: 3 * time.Second,
		RetryWait:     5 * time.Second,
	}
}

// ApplyDefaults fills unset fields with the DefaultConfig values.  A zero
// QueryInterval is kept as-is: NewClient reads it as "no rate limiting".
func (c *Config) ApplyDefaults() {
	def := DefaultConfig()
	if c.Endpoint == "" {
		c.Endpoint = def.Endpoint
	}
	if c.UserAgent == "" {
		c.UserAgent = def.UserAgent
	}
	if c.HTTPTimeout <= 0 {
		c.HTTPTimeout = def.HTTPTimeout
	}
	if c.RetryWait <= 0 {
		c.RetryWait = def.RetryWait
	}
}

// Metrics receives query outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	RecordSPARQLQuery(duration time.Duration, symbols int, err error)
}

type noopMetrics struct{}

func (noopMetrics) RecordSPARQLQuery(time.Duration, int, error) {}

// Client issues batched label queries against the Wikidata Query Service.
// It implements labels.LabelSource.
type Client struct {
	cfg     *Config
	http    HTTPDoer
	limiter *rate.Limiter
	retry   atomic.Int64 // 429 backoff in nanoseconds, hot-reloadable
	logger  logging.Logger
	metrics Metrics
}

// NewClient creates a Wikidata SPARQL client. A nil httpDoer falls back to a
// plain http.Client with the configured timeout.
func NewClient(cfg *Config, httpDoer HTTPDoer, logger logging.Logger, metrics Metrics) (*Client, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.ApplyDefaults()
	if _, err := url.Parse(cfg.Endpoint); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInvalidParam, "invalid Wikidata endpoint").
			WithDetailf("endpoint=%q", cfg.Endpoint)
	}
	if httpDoer == nil {
		httpDoer = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	var limiter *rate.Limiter
	if cfg.QueryInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(cfg.QueryInterval), 1)
	} else {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	c := &Client{
		cfg:     cfg,
		http:    httpDoer,
		limiter: limiter,
		logger:  logger,
		metrics: metrics,
	}
	c.retry.Store(int64(cfg.RetryWait))
	return c, nil
}

// SetPoliteness adjusts the query rate and throttle backoff of a running
// client.  The label task calls it when the configuration file changes
// mid-run, so long retrievals pick up new politeness settings without a
// restart.  Safe for concurrent use.
func (c *Client) SetPoliteness(queryInterval, retryWait time.Duration) {
	if queryInterval > 0 {
		c.limiter.SetLimit(rate.Every(queryInterval))
	} else {
		c.limiter.SetLimit(rate.Inf)
	}
	if retryWait > 0 {
		c.retry.Store(int64(retryWait))
	}
	c.logger.Info("updated query politeness",
		logging.Duration("query_interval", queryInterval),
		logging.Duration("retry_wait", retryWait))
}

// sparqlResponse mirrors the SPARQL 1.1 JSON results format, reduced to the
// two variables the labelling query binds.
type sparqlResponse struct {
	Results struct {
		Bindings []struct {
			ID struct {
				Value string `json:"value"`
			} `json:"id"`
			Label struct {
				Value string `json:"value"`
			} `json:"label"`
		} `json:"bindings"`
	} `json:"results"`
}

// FetchLabels retrieves the labels of the given symbols in one batched query.
// Every requested symbol appears in the result; symbols Wikidata knows no
// label for map to an empty, non-nil slice so that callers can record them
// as queried.
func (c *Client) FetchLabels(ctx context.Context, symbols []string, lang dataset.Language) (labels.SymbolLabels, error) {
	if len(symbols) == 0 {
		return labels.SymbolLabels{}, nil
	}
	if !lang.Valid() {
		return nil, errors.New(errors.ErrCodeDatasetUnknownLanguage, "unknown natural language").
			WithDetailf("language=%q", lang.String())
	}
	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)
	for _, symbol := range sorted {
		if err := dataset.ValidateIdentifier(symbol); err != nil {
			return nil, err
		}
	}

	query := LabellingQuery(sorted, lang)
	start := time.Now()
	body, err := c.perform(ctx, query)
	c.metrics.RecordSPARQLQuery(time.Since(start), len(sorted), err)
	if err != nil {
		return nil, err
	}

	var resp sparqlResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeLabelResponseMalformed, "Wikidata response is not SPARQL JSON")
	}

	out := make(labels.SymbolLabels, len(sorted))
	for _, symbol := range sorted {
		out[symbol] = []string{}
	}
	for _, binding := range resp.Results.Bindings {
		symbol := binding.ID.Value
		if _, ok := out[symbol]; !ok {
			return nil, errors.New(errors.ErrCodeLabelResponseMalformed, "Wikidata bound an identifier that was not queried").
				WithDetailf("identifier=%q", symbol)
		}
		out[symbol] = append(out[symbol], binding.Label.Value)
	}
	c.logger.Debug("fetched symbol labels",
		logging.String("language", lang.String()),
		logging.Int("symbols", len(sorted)),
		logging.Int("bindings", len(resp.Results.Bindings)))
	return out, nil
}

// perform issues the GET request, waiting out the rate limiter first and
// backing off whenever the service answers 429.
func (c *Client) perform(ctx context.Context, query string) ([]byte, error) {
	endpoint := c.cfg.Endpoint + "?" + url.Values{"query": {query}}.Encode()
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeLabelQueryFailed, "rate limiter wait interrupted")
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeLabelQueryFailed, "failed to build Wikidata request")
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", c.cfg.UserAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeLabelQueryFailed, "Wikidata request failed")
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := time.Duration(c.retry.Load())
			c.logger.Warn("Wikidata throttled the query, backing off",
				logging.Duration("wait", wait))
			select {
			case <-ctx.Done():
				return nil, errors.Wrap(ctx.Err(), errors.ErrCodeLabelRateLimited, "cancelled while throttled")
			case <-time.After(wait):
			}
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, errors.New(errors.ErrCodeLabelQueryFailed, "Wikidata returned a non-200 response").
				WithDetailf("status=%d", resp.StatusCode)
		}
		if readErr != nil {
			return nil, errors.Wrap(readErr, errors.ErrCodeLabelQueryFailed, "failed to read Wikidata response")
		}
		return body, nil
	}
}

// LabellingQuery builds the batched SPARQL query retrieving preferred and
// alternative labels for the given symbols, restricted to one language.
func LabellingQuery(symbols []string, lang dataset.Language) string {
	var b strings.Builder
	b.WriteString("SELECT ?id ?label WHERE {\n")
	for i, symbol := range symbols {
		b.WriteString("\t{\n")
		b.WriteString(symbolLabellingQuery(symbol, lang, 2))
		b.WriteString("\t}\n")
		if i != len(symbols)-1 {
			b.WriteString("\tUNION\n")
		}
	}
	b.WriteString("}")
	return b.String()
}

// symbolLabellingQuery builds the per-symbol subquery, indented with the
// given number of tabs.
func symbolLabellingQuery(symbol string, lang dataset.Language, indentLevel int) string {
	indent := strings.Repeat("\t", indentLevel)
	var b strings.Builder
	b.WriteString(indent + "SELECT DISTINCT ?id ?label WHERE {\n")
	b.WriteString(indent + "\tBIND(\"" + symbol + "\" AS ?id) .\n")
	b.WriteString(indent + "\t{\n")
	b.WriteString(indent + "\t\twd:" + symbol + " rdfs:label ?label .\n")
	b.WriteString(indent + "\t} UNION {\n")
	b.WriteString(indent + "\t\twd:" + symbol + " skos:altLabel ?label .\n")
	b.WriteString(indent + "\t}\n")
	b.WriteString(indent + "\tFILTER(LANG(?label) = \"" + lang.String() + "\") .\n")
	b.WriteString(indent + "}\n")
	return b.String()
}
