// internal/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the HTTP layer and the domain services.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RequestCounter   *prometheus.CounterVec
	LatencyHistogram *prometheus.HistogramVec
	RateLimitHits    *prometheus.CounterVec
	Audits           *prometheus.CounterVec
	ComplianceScore  *prometheus.GaugeVec
	LedgerEntries    *prometheus.CounterVec
	AlertsRaised     *prometheus.CounterVec
	registry         *prometheus.Registry
}

// New creates and registers all collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dctip_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		LatencyHistogram: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "dctip_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		RateLimitHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dctip_rate_limit_hits_total",
				Help: "Total number of rate limited requests",
			},
			[]string{"organization"},
		),
		Audits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dctip_compliance_audits_total",
				Help: "Compliance audits run",
			},
			[]string{"industry"},
		),
		ComplianceScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "dctip_compliance_score",
				Help: "Last computed overall compliance score",
			},
			[]string{"organization"},
		),
		LedgerEntries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dctip_ledger_entries_total",
				Help: "Ledger transactions appended",
			},
			[]string{"type"},
		),
		AlertsRaised: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dctip_alerts_raised_total",
				Help: "Dashboard alerts raised by alert configurations",
			},
			[]string{"severity"},
		),
		registry: registry,
	}

	registry.MustRegister(
		m.RequestCounter,
		m.LatencyHistogram,
		m.RateLimitHits,
		m.Audits,
		m.ComplianceScore,
		m.LedgerEntries,
		m.AlertsRaised,
	)

	return m
}

// ObserveRequest records one completed HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.RequestCounter.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.LatencyHistogram.WithLabelValues(method, route).Observe(seconds)
}

// IncrementRateLimitHit increments rate limit hit counter
func (m *Metrics) IncrementRateLimitHit(organization string) {
	if m == nil {
		return
	}
	m.RateLimitHits.WithLabelValues(organization).Inc()
}

func (m *Metrics) RecordAudit(industry string) {
	if m == nil {
		return
	}
	m.Audits.WithLabelValues(industry).Inc()
}

func (m *Metrics) SetComplianceScore(organization string, score float64) {
	if m == nil {
		return
	}
	m.ComplianceScore.WithLabelValues(organization).Set(score)
}

func (m *Metrics) RecordLedgerEntry(txType string) {
	if m == nil {
		return
	}
	m.LedgerEntries.WithLabelValues(txType).Inc()
}

func (m *Metrics) RecordAlert(severity string) {
	if m == nil {
		return
	}
	m.AlertsRaised.WithLabelValues(severity).Inc()
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus metrics handler
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
