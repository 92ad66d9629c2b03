package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MonitorMetrics holds all Prometheus metrics for the log stream monitor.
type MonitorMetrics struct {
	FramesTotal        *prometheus.CounterVec
	ConnectionAttempts prometheus.Counter
	Reconnects         prometheus.Counter
	Connected          prometheus.Gauge
	BufferSize         prometheus.Gauge
	EvictionsTotal     prometheus.Counter
	Sessions           *prometheus.GaugeVec
	ExportsTotal       *prometheus.CounterVec
	MirrorErrors       prometheus.Counter
}

// NewMonitorMetrics initializes the metrics and registers them with reg.
// A nil reg leaves the collectors unregistered, which is what tests want.
func NewMonitorMetrics(reg prometheus.Registerer) *MonitorMetrics {
	factory := promauto.With(reg)
	return &MonitorMetrics{
		FramesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logmon",
			Subsystem: "stream",
			Name:      "frames_total",
			Help:      "Total number of feed frames by type.",
		}, []string{"type"}), // type: connected, log, malformed
		ConnectionAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "logmon",
			Subsystem: "stream",
			Name:      "connection_attempts_total",
			Help:      "Total number of attempts to open the feed connection.",
		}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "logmon",
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Total number of connection attempts made after a failure.",
		}),
		Connected: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "logmon",
			Subsystem: "stream",
			Name:      "connected",
			Help:      "Indicates if the feed is currently streaming (1 for connected, 0 otherwise).",
		}),
		BufferSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "logmon",
			Subsystem: "buffer",
			Name:      "events",
			Help:      "Number of events currently held in the buffer.",
		}),
		EvictionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "logmon",
			Subsystem: "buffer",
			Name:      "evictions_total",
			Help:      "Total number of events evicted from the buffer on overflow.",
		}),
		Sessions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "logmon",
			Subsystem: "sessions",
			Name:      "current",
			Help:      "Number of known sessions by status.",
		}, []string{"status"}), // status: active, completed, failed
		ExportsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "logmon",
			Subsystem: "export",
			Name:      "exports_total",
			Help:      "Total number of exports by format and result.",
		}, []string{"format", "result"}),
		MirrorErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "logmon",
			Subsystem: "sessions",
			Name:      "mirror_errors_total",
			Help:      "Total number of failed writes to the session mirror.",
		}),
	}
}
