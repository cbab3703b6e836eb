// Package telemetry exposes Prometheus instrumentation for the
// streaming server.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	ActiveSessions  prometheus.Gauge
	FramesPublished prometheus.Counter
	SessionErrors   prometheus.Counter
	SessionsExpired prometheus.Counter
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gridstream_active_sessions",
			Help: "Number of currently registered simulation sessions.",
		}),
		FramesPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridstream_frames_published_total",
			Help: "Total grid_update frames published across all sessions.",
		}),
		SessionErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridstream_session_errors_total",
			Help: "Sessions terminated by an adapter or serialization error.",
		}),
		SessionsExpired: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridstream_sessions_expired_total",
			Help: "Sessions stopped by the idle-expiry janitor.",
		}),
	}
}

// Handler serves the metrics endpoint for this collector set.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
