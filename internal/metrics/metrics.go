// Package metrics exposes Prometheus collectors for the signaling hub
// and the transcription pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the server updates. All collectors are
// registered against a private registry so tests can create as many
// instances as they like.
type Metrics struct {
	registry *prometheus.Registry

	// ActiveConnections is the number of websocket connections
	// currently registered with the hub.
	ActiveConnections prometheus.Gauge

	// OpenRooms is the number of rooms with at least one member.
	OpenRooms prometheus.Gauge

	// SignalsRelayed counts relayed peer-negotiation messages.
	SignalsRelayed prometheus.Counter

	// TranscriptionAttempts counts submit+poll cycles started.
	TranscriptionAttempts prometheus.Counter

	// TranscriptionFailures counts submit+poll cycles that ended in an
	// error, including ones later recovered by a retry.
	TranscriptionFailures prometheus.Counter
}

// New creates a Metrics with all collectors registered.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "meetpulse_active_connections",
			Help: "Number of websocket connections currently registered.",
		}),
		OpenRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "meetpulse_open_rooms",
			Help: "Number of rooms with at least one member.",
		}),
		SignalsRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meetpulse_signals_relayed_total",
			Help: "Total peer negotiation messages relayed between connections.",
		}),
		TranscriptionAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meetpulse_transcription_attempts_total",
			Help: "Total transcription submit+poll cycles started.",
		}),
		TranscriptionFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meetpulse_transcription_failures_total",
			Help: "Total transcription submit+poll cycles that failed.",
		}),
	}

	m.registry.MustRegister(
		m.ActiveConnections,
		m.OpenRooms,
		m.SignalsRelayed,
		m.TranscriptionAttempts,
		m.TranscriptionFailures,
	)
	return m
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
