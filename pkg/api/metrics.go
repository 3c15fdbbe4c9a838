package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors exported on /metrics.
type Metrics struct {
	gatherer prometheus.Gatherer

	codesTotal      *prometheus.CounterVec
	verifyTotal     *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the collectors on reg. A nil reg uses a fresh
// private registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		gatherer: reg,
		codesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "totp_codes_total",
			Help: "Batch lines processed by result",
		}, []string{"result"}), // result: ok|invalid_secret
		verifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "totp_verify_total",
			Help: "Verification attempts by result",
		}, []string{"result"}), // result: valid|invalid
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	reg.MustRegister(m.codesTotal, m.verifyTotal, m.requestsTotal, m.requestDuration)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) observeCodes(ok, invalid int) {
	m.codesTotal.WithLabelValues("ok").Add(float64(ok))
	m.codesTotal.WithLabelValues("invalid_secret").Add(float64(invalid))
}

func (m *Metrics) observeVerify(valid bool) {
	if valid {
		m.verifyTotal.WithLabelValues("valid").Inc()
		return
	}
	m.verifyTotal.WithLabelValues("invalid").Inc()
}
