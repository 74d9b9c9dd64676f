// Package metrics exposes Prometheus counters and gauges for the sync server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's collectors on a private registry.
// All methods are safe to call on a nil *Metrics, which records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	connections     prometheus.Gauge
	intentsTotal    *prometheus.CounterVec
	malformedTotal  *prometheus.CounterVec
	broadcastsTotal *prometheus.CounterVec
	droppedSends    prometheus.Counter
	statusPublishes prometheus.Counter
	uploadsTotal    prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "videosync_connections",
		Help: "Number of open WebSocket connections",
	})
	intentsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "videosync_intents_total",
		Help: "Inbound intents processed, by type",
	}, []string{"intent"})
	malformedTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "videosync_malformed_intents_total",
		Help: "Inbound intents rejected for a bad payload, by type",
	}, []string{"intent"})
	broadcastsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "videosync_broadcasts_total",
		Help: "Outbound broadcasts, by event",
	}, []string{"event"})
	droppedSends := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "videosync_dropped_sends_total",
		Help: "Per-recipient sends dropped because the recipient was full or closed",
	})
	statusPublishes := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "videosync_status_publishes_total",
		Help: "Player status snapshots published",
	})
	uploadsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "videosync_uploads_total",
		Help: "Videos stored through the upload endpoint",
	})

	registry.MustRegister(
		connections,
		intentsTotal,
		malformedTotal,
		broadcastsTotal,
		droppedSends,
		statusPublishes,
		uploadsTotal,
	)

	return &Metrics{
		registry:        registry,
		connections:     connections,
		intentsTotal:    intentsTotal,
		malformedTotal:  malformedTotal,
		broadcastsTotal: broadcastsTotal,
		droppedSends:    droppedSends,
		statusPublishes: statusPublishes,
		uploadsTotal:    uploadsTotal,
	}
}

func (m *Metrics) SetConnections(n int) {
	if m == nil {
		return
	}
	m.connections.Set(float64(n))
}

func (m *Metrics) IncIntent(intent string) {
	if m == nil {
		return
	}
	m.intentsTotal.WithLabelValues(intent).Inc()
}

func (m *Metrics) IncMalformed(intent string) {
	if m == nil {
		return
	}
	m.malformedTotal.WithLabelValues(intent).Inc()
}

func (m *Metrics) IncBroadcast(event string) {
	if m == nil {
		return
	}
	m.broadcastsTotal.WithLabelValues(event).Inc()
}

func (m *Metrics) AddDropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.droppedSends.Add(float64(n))
}

func (m *Metrics) IncStatusPublishes() {
	if m == nil {
		return
	}
	m.statusPublishes.Inc()
}

func (m *Metrics) IncUploads() {
	if m == nil {
		return
	}
	m.uploadsTotal.Inc()
}

// Handler returns an http.Handler that serves the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
