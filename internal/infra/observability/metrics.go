package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the console.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	httpDuration   *prometheus.HistogramVec
	externalErrors *prometheus.CounterVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	leadsCreated   *prometheus.CounterVec
	notifications  *prometheus.CounterVec
	degradedReads  *prometheus.CounterVec
	reconciled     prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. A private registry lets tests call NewMetrics
// repeatedly without duplicate-collector panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		httpDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "status"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		leadsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_leads_created_total",
				Help: "Leads created through the public form.",
			},
			[]string{"source"},
		),
		notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_notifications_total",
				Help: "Lead notifications by channel and result.",
			},
			[]string{"channel", "result"},
		),
		degradedReads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_degraded_reads_total",
				Help: "Reads that fell back to empty results after a backend failure.",
			},
			[]string{"resource"},
		),
		reconciled: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "console_admin_totals_reconciled_total",
				Help: "Admin rows whose denormalized totals were rewritten.",
			},
		),
	}
}

// ObserveHTTP records one HTTP request.
func (m *Metrics) ObserveHTTP(method string, status int, d time.Duration) {
	m.httpDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrLeadCreated counts a new lead by source.
func (m *Metrics) IncrLeadCreated(source string) {
	m.leadsCreated.WithLabelValues(source).Inc()
}

// IncrNotification counts a notification attempt. result is "sent",
// "failed" or "skipped".
func (m *Metrics) IncrNotification(channel, result string) {
	m.notifications.WithLabelValues(channel, result).Inc()
}

// IncrDegradedRead counts a read that degraded to an empty result.
func (m *Metrics) IncrDegradedRead(resource string) {
	m.degradedReads.WithLabelValues(resource).Inc()
}

// AddReconciled counts admin rows rewritten by reconciliation.
func (m *Metrics) AddReconciled(n int) {
	m.reconciled.Add(float64(n))
}

// LeadsCreated returns the current counter value for a source.
func (m *Metrics) LeadsCreated(source string) float64 {
	return getCounterValue(m.leadsCreated, source)
}

// Notifications returns the current counter value for channel and result.
func (m *Metrics) Notifications(channel, result string) float64 {
	return getCounterValue(m.notifications, channel, result)
}

// DegradedReads returns the current counter value for a resource.
func (m *Metrics) DegradedReads(resource string) float64 {
	return getCounterValue(m.degradedReads, resource)
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
