package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Delegation outcomes recorded by the gateway.
const (
	OutcomeSuccess     = "success"
	OutcomeTimeout     = "timeout"
	OutcomeUnreachable = "unreachable"
	OutcomeBadStatus   = "bad_status"
	OutcomeInvalidBody = "invalid_body"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry        *prometheus.Registry
	requestDuration *prometheus.HistogramVec
	delegations     *prometheus.CounterVec
	extractions     *prometheus.CounterVec
}

// New registers all collectors on a fresh registry.
func New(namespace string) *Metrics {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = "invoice_ai"
	}

	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint", "status_code"}),
		delegations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_delegations_total",
			Help:      "Gateway calls to the extraction backend by outcome.",
		}, []string{"outcome"}),
		extractions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Invoices run through the extraction pipeline.",
		}, []string{"valid", "requires_review"}),
	}
	m.registry.MustRegister(m.requestDuration, m.delegations, m.extractions)
	return m
}

// GinMiddleware records request duration per route.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		m.requestDuration.WithLabelValues(
			c.Request.Method,
			normalizeEndpoint(c.FullPath()),
			strconv.Itoa(c.Writer.Status()),
		).Observe(time.Since(start).Seconds())
	}
}

// ObserveDelegation counts one gateway-to-backend call.
func (m *Metrics) ObserveDelegation(outcome string) {
	if m == nil {
		return
	}
	m.delegations.WithLabelValues(outcome).Inc()
}

// DelegationCounter returns the counter for one delegation outcome.
func (m *Metrics) DelegationCounter(outcome string) prometheus.Counter {
	return m.delegations.WithLabelValues(outcome)
}

// ObserveExtraction counts one pipeline run.
func (m *Metrics) ObserveExtraction(valid, requiresReview bool) {
	if m == nil {
		return
	}
	m.extractions.WithLabelValues(strconv.FormatBool(valid), strconv.FormatBool(requiresReview)).Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "unknown"
	}
	return endpoint
}
