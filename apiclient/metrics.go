package apiclient

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts outbound API calls. A nil *Metrics is valid and records nothing.
type Metrics struct {
	requests *prometheus.CounterVec
	limited  prometheus.Counter
}

// NewMetrics registers the client counters on reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "Outbound studio API requests by method and status.",
		}, []string{"method", "status"}),
		limited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "studio",
			Subsystem: "api",
			Name:      "rate_limited_total",
			Help:      "Responses rejected with HTTP 429.",
		}),
	}
	reg.MustRegister(m.requests, m.limited)
	return m
}

func (m *Metrics) observe(method, status string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, status).Inc()
}

func (m *Metrics) rateLimited() {
	if m == nil {
		return
	}
	m.limited.Inc()
}
