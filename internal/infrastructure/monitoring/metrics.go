package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the dashboard host.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Frame metrics
	FramesActive  prometheus.Gauge
	FramesCreated prometheus.Counter
	FramesFailed  prometheus.Counter

	// Protocol metrics
	Envelopes    *prometheus.CounterVec
	HeartbeatRTT prometheus.Histogram

	// WebSocket metrics
	WSConnections prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector on a private registry, so tests can
// build as many as they need without duplicate-registration panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devwatch_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "devwatch_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		FramesActive: factory.NewGauge(prometheus.GaugeOpts{
			Name: "devwatch_frames_active",
			Help: "Number of registered guest frames",
		}),
		FramesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "devwatch_frames_created_total",
			Help: "Total number of guest frames created",
		}),
		FramesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "devwatch_frames_failed_total",
			Help: "Total number of guest frame creation failures",
		}),
		Envelopes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devwatch_envelopes_total",
				Help: "Envelopes crossing the host/guest boundary",
			},
			[]string{"direction", "kind"},
		),
		HeartbeatRTT: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "devwatch_heartbeat_rtt_seconds",
			Help:    "Ping to pong round trip per frame",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5},
		}),
		WSConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "devwatch_ws_connections",
			Help: "Active guest websocket connections",
		}),
	}
}

// Registry exposes the underlying registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordEnvelope counts one envelope. Direction is "inbound" or "outbound"
// from the host's perspective; kind is "reserved" or "open".
func (m *Metrics) RecordEnvelope(direction, kind string) {
	if m == nil {
		return
	}
	m.Envelopes.WithLabelValues(direction, kind).Inc()
}

// RecordHeartbeat records one successful ping round trip.
func (m *Metrics) RecordHeartbeat(rtt time.Duration) {
	if m == nil {
		return
	}
	m.HeartbeatRTT.Observe(rtt.Seconds())
}
