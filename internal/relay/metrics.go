package relay

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the relay's Prometheus collectors.
type Metrics struct {
	TokenHandoffs   *prometheus.CounterVec
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the relay metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		TokenHandoffs: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quill",
				Subsystem: "relay",
				Name:      "token_handoffs_total",
				Help:      "Token cookie handoffs by result",
			},
			[]string{"result"}, // result=set/cleared/rejected
		),
		RequestsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quill",
				Subsystem: "relay",
				Name:      "requests_total",
				Help:      "HTTP requests served by route pattern and status code",
			},
			[]string{"route", "code"},
		),
		RequestDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "quill",
				Subsystem: "relay",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}
