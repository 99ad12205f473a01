package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	commandsTotal *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastSigma     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		commandsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volcast_commands_total",
				Help: "Total number of completed analysis commands",
			},
			[]string{"command"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "volcast_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastSigma: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "volcast_last_volatility",
				Help: "Last estimated volatility for a token",
			},
			[]string{"token"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "volcast_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCommand records a completed analysis command.
func (r *Recorder) RecordCommand(command string) {
	r.commandsTotal.WithLabelValues(command).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordVolatility records the latest volatility estimate for a token.
func (r *Recorder) RecordVolatility(token string, sigma float64) {
	r.lastSigma.WithLabelValues(token).Set(sigma)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
