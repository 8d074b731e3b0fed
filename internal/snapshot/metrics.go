package snapshot

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/HerbHall/hostpulse/internal/samplecache"
)

// Source labels for hostpulse_source_errors_total.
const (
	SourceCPU     = "cpu"
	SourcePerCPU  = "cpu_list"
	SourceLoad    = "load"
	SourceNetwork = "network"
	SourceDiskIO  = "io"
	SourceBoot    = "boot"
)

// StatsSource is implemented by caches that expose hit/miss counters.
type StatsSource interface {
	Stats() samplecache.Stats
}

// Metrics is the agent's self-instrumentation. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	collections     prometheus.Counter
	collectDuration prometheus.Histogram
	sourceErrors    *prometheus.CounterVec
}

// NewMetrics registers the collector metrics on reg. When cache is non-nil
// its hit, miss and eviction counts are exported as well.
func NewMetrics(reg prometheus.Registerer, cache StatsSource) *Metrics {
	f := promauto.With(reg)

	m := &Metrics{
		collections: f.NewCounter(prometheus.CounterOpts{
			Namespace: "hostpulse",
			Name:      "collections_total",
			Help:      "Snapshots collected.",
		}),
		collectDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hostpulse",
			Name:      "collect_duration_seconds",
			Help:      "Time spent collecting one snapshot, including the CPU sampling interval.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		}),
		sourceErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostpulse",
			Name:      "source_errors_total",
			Help:      "Provider reads that failed and fell back to a zero value.",
		}, []string{"source"}),
	}

	if cache != nil {
		stat := func(pick func(samplecache.Stats) uint64) func() float64 {
			return func() float64 { return float64(pick(cache.Stats())) }
		}
		f.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "hostpulse", Subsystem: "cache", Name: "hits_total",
			Help: "Sample cache lookups that found a live entry.",
		}, stat(func(s samplecache.Stats) uint64 { return s.Hits }))
		f.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "hostpulse", Subsystem: "cache", Name: "misses_total",
			Help: "Sample cache lookups that found nothing.",
		}, stat(func(s samplecache.Stats) uint64 { return s.Misses }))
		f.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "hostpulse", Subsystem: "cache", Name: "evictions_total",
			Help: "Sample cache entries dropped by expiry or capacity.",
		}, stat(func(s samplecache.Stats) uint64 { return s.Evictions }))
	}

	return m
}

func (m *Metrics) observeCollect(d time.Duration) {
	if m == nil {
		return
	}
	m.collections.Inc()
	m.collectDuration.Observe(d.Seconds())
}

func (m *Metrics) sourceError(source string) {
	if m == nil {
		return
	}
	m.sourceErrors.WithLabelValues(source).Inc()
}
