package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics exposes counters/histograms for API calls and exports.
type ClientMetrics struct {
	requestsTotal  *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	exportsTotal   *prometheus.CounterVec
	exportedLeads  *prometheus.CounterVec
	discardedTotal *prometheus.CounterVec
}

func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadhunter",
			Subsystem: "gateway",
			Name:      "requests_total",
			Help:      "Total backend API calls by outcome",
		}, []string{"endpoint", "method", "outcome", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leadhunter",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Latency of backend API calls",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"endpoint", "method"}),
		exportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadhunter",
			Subsystem: "export",
			Name:      "files_total",
			Help:      "Total export attempts by format",
		}, []string{"kind", "status"}),
		exportedLeads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadhunter",
			Subsystem: "export",
			Name:      "leads_total",
			Help:      "Total leads written to export files",
		}, []string{"kind"}),
		discardedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leadhunter",
			Subsystem: "view",
			Name:      "stale_responses_total",
			Help:      "Responses discarded because their request was superseded or torn down",
		}, []string{"component"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.exportsTotal, m.exportedLeads, m.discardedTotal)
	return m
}

// ObserveRequest records one gateway call. status is 0 when no HTTP
// response was received.
func (m *ClientMetrics) ObserveRequest(endpoint, method, outcome string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(endpoint, method, outcome, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(endpoint, method).Observe(seconds)
}

func (m *ClientMetrics) ObserveExport(kind, status string, leads int) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(kind, status).Inc()
	if leads > 0 {
		m.exportedLeads.WithLabelValues(kind).Add(float64(leads))
	}
}

func (m *ClientMetrics) ObserveDiscarded(component string) {
	if m == nil {
		return
	}
	m.discardedTotal.WithLabelValues(component).Inc()
}
