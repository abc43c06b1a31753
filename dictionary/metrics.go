package dictionary

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reload triggers.
const (
	TriggerManual = "manual"
	TriggerRemote = "remote"
	TriggerLocal  = "local"
	TriggerWatch  = "watch"
	TriggerConfig = "config"
)

// Metrics exposes Prometheus collectors for dictionary activity.
type Metrics struct {
	reloads        *prometheus.CounterVec
	reloadDuration prometheus.Histogram
	fetchFailures  prometheus.Counter
	words          *prometheus.GaugeVec
}

var (
	defaultMetricsOnce sync.Once
	sharedMetrics      *Metrics
)

// DefaultMetrics returns the metrics registered with the global registry.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		sharedMetrics = MustNewMetrics(prometheus.DefaultRegisterer)
	})
	return sharedMetrics
}

// MustNewMetrics registers the dictionary collectors with reg. Collectors that
// are already registered are reused; any other registration error panics.
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reloads := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ikseg",
			Subsystem: "dictionary",
			Name:      "reloads_total",
			Help:      "Dictionary reloads by trigger and result.",
		},
		[]string{"trigger", "result"},
	)
	reloadDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ikseg",
			Subsystem: "dictionary",
			Name:      "reload_duration_seconds",
			Help:      "Time spent building a dictionary snapshot.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	fetchFailures := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ikseg",
			Subsystem: "dictionary",
			Name:      "remote_fetch_failures_total",
			Help:      "Remote word list fetches that failed.",
		},
	)
	words := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "ikseg",
			Subsystem: "dictionary",
			Name:      "words",
			Help:      "Words in the live snapshot per dictionary.",
		},
		[]string{"dict"},
	)

	collectors := []prometheus.Collector{reloads, reloadDuration, fetchFailures, words}
	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
				switch collector.(type) {
				case *prometheus.CounterVec:
					reloads = already.ExistingCollector.(*prometheus.CounterVec)
				case *prometheus.GaugeVec:
					words = already.ExistingCollector.(*prometheus.GaugeVec)
				case prometheus.Histogram:
					reloadDuration = already.ExistingCollector.(prometheus.Histogram)
				case prometheus.Counter:
					fetchFailures = already.ExistingCollector.(prometheus.Counter)
				}
				continue
			}
			panic(err)
		}
	}

	return &Metrics{
		reloads:        reloads,
		reloadDuration: reloadDuration,
		fetchFailures:  fetchFailures,
		words:          words,
	}
}

// ObserveReload records one reload attempt.
func (m *Metrics) ObserveReload(trigger string, err error, duration time.Duration) {
	if m == nil || m.reloads == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.reloads.WithLabelValues(trigger, result).Inc()
	if m.reloadDuration != nil {
		m.reloadDuration.Observe(duration.Seconds())
	}
}

// AddFetchFailures counts failed remote fetches.
func (m *Metrics) AddFetchFailures(n int) {
	if m == nil || m.fetchFailures == nil || n <= 0 {
		return
	}
	m.fetchFailures.Add(float64(n))
}

// SetWords publishes the word counts of the live snapshot.
func (m *Metrics) SetWords(stats Stats) {
	if m == nil || m.words == nil {
		return
	}
	m.words.WithLabelValues(KindMain).Set(float64(stats.Main))
	m.words.WithLabelValues(KindQuantifier).Set(float64(stats.Quantifier))
	m.words.WithLabelValues(KindStopword).Set(float64(stats.Stop))
}
