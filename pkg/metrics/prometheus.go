// Package metrics provides Prometheus metrics for the Wikiline game service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the Wikiline service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Gameplay
	placements     *prometheus.CounterVec
	pointsAwarded  prometheus.Counter
	roundsStarted  *prometheus.CounterVec
	roundsComplete *prometheus.CounterVec
	demoSteps      prometheus.Counter

	// Event provider
	fetchAttempts *prometheus.CounterVec
	fetchFailures *prometheus.CounterVec
	fetchLatency  prometheus.Histogram
	fetchStale    prometheus.Counter

	// Score store
	storeErrors *prometheus.CounterVec

	// Event loop
	loopQueueDepth prometheus.Gauge
	loopTaskErrors prometheus.Counter

	// Realtime
	streamSubscribers prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "wikiline",
		subsystem:        "game",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one block per metric
	auto := promauto.With(m.registry)

	m.placements = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "placements_total",
		Help:      "Total number of committed placements by outcome",
	}, []string{"outcome", "mode"})

	m.pointsAwarded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "points_awarded_total",
		Help:      "Total points awarded across all placements",
	})

	m.roundsStarted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rounds_started_total",
		Help:      "Total number of rounds started",
	}, []string{"mode"})

	m.roundsComplete = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rounds_completed_total",
		Help:      "Total number of rounds played to the end of the deck",
	}, []string{"mode"})

	m.demoSteps = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "demo_steps_total",
		Help:      "Total number of scripted demo drops",
	})

	m.fetchAttempts = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "provider",
		Name:      "fetch_attempts_total",
		Help:      "Total number of event feed requests by result",
	}, []string{"result"})

	m.fetchFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "provider",
		Name:      "fetch_failures_total",
		Help:      "Total number of event loads that failed after all attempts",
	}, []string{"reason"})

	m.fetchLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "provider",
		Name:      "fetch_latency_milliseconds",
		Help:      "Latency of a single event feed request in milliseconds",
		Buckets:   []float64{25, 50, 100, 250, 500, 1000, 2500, 5000},
	})

	m.fetchStale = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "stale_fetches_total",
		Help:      "Total number of fetch completions discarded because a newer fetch superseded them",
	})

	m.storeErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "store",
		Name:      "errors_total",
		Help:      "Total number of score store errors by operation",
	}, []string{"op"})

	m.loopQueueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "loop",
		Name:      "queue_depth",
		Help:      "Number of tasks waiting on the event loop",
	})

	m.loopTaskErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "loop",
		Name:      "task_panics_total",
		Help:      "Total number of loop tasks that panicked",
	})

	m.streamSubscribers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "stream",
		Name:      "subscribers",
		Help:      "Current number of connected event stream subscribers",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: "http",
			Name:      "request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// RecordPlacement counts a committed placement. outcome is "correct" or "incorrect".
func RecordPlacement(outcome string, demo bool, points int) {
	globalManager.placements.WithLabelValues(outcome, modeLabel(demo)).Inc()
	if points > 0 {
		globalManager.pointsAwarded.Add(float64(points))
	}
}

// RecordRoundStarted increments the rounds started counter.
func RecordRoundStarted(demo bool) {
	globalManager.roundsStarted.WithLabelValues(modeLabel(demo)).Inc()
}

// RecordRoundCompleted increments the rounds completed counter.
func RecordRoundCompleted(demo bool) {
	globalManager.roundsComplete.WithLabelValues(modeLabel(demo)).Inc()
}

// RecordDemoStep increments the demo steps counter.
func RecordDemoStep() {
	globalManager.demoSteps.Inc()
}

// RecordFetchAttempt records one feed request and its latency.
func RecordFetchAttempt(result string, latencyMs float64) {
	globalManager.fetchAttempts.WithLabelValues(result).Inc()
	globalManager.fetchLatency.Observe(latencyMs)
}

// RecordFetchFailure counts an event load that gave up.
func RecordFetchFailure(reason string) {
	globalManager.fetchFailures.WithLabelValues(reason).Inc()
}

// RecordStaleFetch counts a discarded fetch completion.
func RecordStaleFetch() {
	globalManager.fetchStale.Inc()
}

// RecordStoreError counts a failed score store operation.
func RecordStoreError(op string) {
	globalManager.storeErrors.WithLabelValues(op).Inc()
}

// UpdateLoopQueueDepth sets the number of pending loop tasks.
func UpdateLoopQueueDepth(depth int) {
	globalManager.loopQueueDepth.Set(float64(depth))
}

// RecordLoopTaskPanic counts a recovered panic inside a loop task.
func RecordLoopTaskPanic() {
	globalManager.loopTaskErrors.Inc()
}

// UpdateStreamSubscribers sets the number of connected stream subscribers.
func UpdateStreamSubscribers(count int) {
	globalManager.streamSubscribers.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

func modeLabel(demo bool) string {
	if demo {
		return "demo"
	}
	return "play"
}
