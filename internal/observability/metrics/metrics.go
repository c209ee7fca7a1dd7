package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// APIMetrics exposes counters/histograms for the query and predict flows.
type APIMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestLatency  *prometheus.HistogramVec
	upstreamLatency *prometheus.HistogramVec
	leadsParsed     prometheus.Histogram
}

func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	m := &APIMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sfai",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests by route and status code",
		}, []string{"route", "method", "status"}),
		requestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sfai",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Latency of HTTP request handling",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sfai",
			Subsystem: "upstream",
			Name:      "call_duration_seconds",
			Help:      "Latency of embedding, vector search and generation calls",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"operation", "outcome"}),
		leadsParsed: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "sfai",
			Subsystem: "leads",
			Name:      "parsed_records",
			Help:      "Number of lead records extracted per predict call",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.requestsTotal, m.requestLatency, m.upstreamLatency, m.leadsParsed)
	return m
}

func (m *APIMetrics) ObserveRequest(route, method string, status int, seconds float64) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.requestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(route).Observe(seconds)
}

// ObserveUpstream records one call to an external collaborator.
func (m *APIMetrics) ObserveUpstream(operation string, err error, seconds float64) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.upstreamLatency.WithLabelValues(operation, outcome).Observe(seconds)
}

func (m *APIMetrics) ObserveLeadsParsed(count int) {
	if m == nil {
		return
	}
	m.leadsParsed.Observe(float64(count))
}
