package prometheus

import (
	"time"

	"github.com/dutch-kbqa/dutch-kbqa-ds-create/internal/intelligence/masking"
)

// Histogram buckets tuned for the two latency profiles of the pipeline:
// in-process masking work and remote SPARQL queries.
var (
	DefaultSPARQLDurationBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60}
	DefaultBatchSizeBuckets      = []float64{1, 5, 10, 25, 50, 100, 250}
)

// PipelineMetrics aggregates the pipeline instrumentation. It satisfies the
// metrics interfaces of the masking core, the Wikidata client and the label
// cache, so one value can be handed to all three.
type PipelineMetrics struct {
	QuestionsProcessed CounterVec
	LCSInvocations     CounterVec
	SPARQLQueries      CounterVec
	SPARQLDuration     HistogramVec
	SPARQLBatchSize    HistogramVec
	LabelCacheHits     CounterVec
	LabelCacheMisses   CounterVec
}

// NewPipelineMetrics registers the pipeline metrics on the collector.
func NewPipelineMetrics(collector MetricsCollector) *PipelineMetrics {
	m := &PipelineMetrics{}

	m.QuestionsProcessed = collector.RegisterCounter("questions_processed_total",
		"Masked questions by terminal state and failure reason", "state", "reason")
	m.LCSInvocations = collector.RegisterCounter("lcs_invocations_total",
		"Longest-common-substring extractions")
	m.SPARQLQueries = collector.RegisterCounter("sparql_queries_total",
		"Label queries against the Wikidata endpoint", "status")
	m.SPARQLDuration = collector.RegisterHistogram("sparql_query_duration_seconds",
		"Label query duration", DefaultSPARQLDurationBuckets, "status")
	m.SPARQLBatchSize = collector.RegisterHistogram("sparql_query_symbols",
		"Symbols per label query", DefaultBatchSizeBuckets)
	m.LabelCacheHits = collector.RegisterCounter("label_cache_hits_total",
		"Label lookups served from cache")
	m.LabelCacheMisses = collector.RegisterCounter("label_cache_misses_total",
		"Label lookups sent to the source")

	return m
}

// RecordLCSInvocation counts one longest-common-substring extraction.
func (m *PipelineMetrics) RecordLCSInvocation() {
	m.LCSInvocations.WithLabelValues().Inc()
}

// RecordOutcome counts one terminal masking outcome.
func (m *PipelineMetrics) RecordOutcome(state masking.State, reason masking.FailureReason) {
	r := string(reason)
	if r == "" {
		r = "none"
	}
	m.QuestionsProcessed.WithLabelValues(string(state), r).Inc()
}

// RecordSPARQLQuery records the duration and batch size of one label query.
func (m *PipelineMetrics) RecordSPARQLQuery(duration time.Duration, symbols int, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.SPARQLQueries.WithLabelValues(status).Inc()
	m.SPARQLDuration.WithLabelValues(status).Observe(duration.Seconds())
	m.SPARQLBatchSize.WithLabelValues().Observe(float64(symbols))
}

// RecordLabelCache adds one batch of cache lookup results.
func (m *PipelineMetrics) RecordLabelCache(hits, misses int) {
	if hits > 0 {
		m.LabelCacheHits.WithLabelValues().Add(float64(hits))
	}
	if misses > 0 {
		m.LabelCacheMisses.WithLabelValues().Add(float64(misses))
	}
}
