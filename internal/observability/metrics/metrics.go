// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dictation_turn"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Activation metrics
	ActivationsTotal prometheus.Counter
	SessionsStarted  prometheus.Counter
	SessionRestarts  *prometheus.CounterVec

	// Turn metrics
	TurnsFinalized  *prometheus.CounterVec
	TurnsAbandoned  prometheus.Counter
	TurnDuration    prometheus.Histogram
	TranscriptChars prometheus.Histogram

	// Hypothesis metrics
	HypothesesTotal *prometheus.CounterVec

	// Timer metrics
	TimerFires *prometheus.CounterVec

	// Source metrics
	SourceErrors *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Live feed metrics
	WebsocketClients prometheus.Gauge
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ActivationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Total number of recording activations started",
		}),
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Total number of engine sessions started, including restarts",
		}),
		SessionRestarts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_restarts_total",
			Help:      "Total number of transparent session restarts",
		}, []string{"cause"}),

		TurnsFinalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_finalized_total",
			Help:      "Total number of turns finalized with a flushed result",
		}, []string{"reason"}),
		TurnsAbandoned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_abandoned_total",
			Help:      "Total number of turns abandoned on fatal errors",
		}),
		TurnDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_duration_seconds",
			Help:      "Duration of recording activations in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		}),
		TranscriptChars: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transcript_chars",
			Help:      "Length of finalized transcripts in characters",
			Buckets:   []float64{10, 25, 50, 100, 250, 500, 1000, 2500},
		}),

		HypothesesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hypotheses_total",
			Help:      "Total number of hypotheses received from the source",
		}, []string{"kind"}),

		TimerFires: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "timer_fires_total",
			Help:      "Total number of stop-requesting timer fires",
		}, []string{"timer"}),

		SourceErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "source_errors_total",
			Help:      "Total number of source errors by taxonomy code",
		}, []string{"code"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		WebsocketClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Number of connected live-feed websocket clients",
		}),
	}
}

// RecordActivation records a new recording activation.
func (m *Metrics) RecordActivation() {
	m.ActivationsTotal.Inc()
}

// RecordSessionStarted records an engine session starting.
func (m *Metrics) RecordSessionStarted() {
	m.SessionsStarted.Inc()
}

// RecordSessionRestart records a transparent restart and its cause.
func (m *Metrics) RecordSessionRestart(cause string) {
	m.SessionRestarts.WithLabelValues(cause).Inc()
}

// RecordTurnFinalized records a flushed turn result.
func (m *Metrics) RecordTurnFinalized(reason string) {
	m.TurnsFinalized.WithLabelValues(reason).Inc()
}

// RecordTurnAbandoned records a turn abandoned without a result.
func (m *Metrics) RecordTurnAbandoned() {
	m.TurnsAbandoned.Inc()
}

// RecordTurnDuration records how long an activation lasted.
func (m *Metrics) RecordTurnDuration(d time.Duration) {
	m.TurnDuration.Observe(d.Seconds())
}

// RecordTranscriptChars records the length of a finalized transcript.
func (m *Metrics) RecordTranscriptChars(chars int) {
	m.TranscriptChars.Observe(float64(chars))
}

// RecordHypothesis records a received hypothesis by kind (final, interim).
func (m *Metrics) RecordHypothesis(kind string) {
	m.HypothesesTotal.WithLabelValues(kind).Inc()
}

// RecordTimerFire records a timer requesting a stop.
func (m *Metrics) RecordTimerFire(timer string) {
	m.TimerFires.WithLabelValues(timer).Inc()
}

// RecordSourceError records a source error by taxonomy code.
func (m *Metrics) RecordSourceError(code string) {
	m.SourceErrors.WithLabelValues(code).Inc()
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordWebsocketConnected records a live-feed client connecting.
func (m *Metrics) RecordWebsocketConnected() {
	m.WebsocketClients.Inc()
}

// RecordWebsocketDisconnected records a live-feed client disconnecting.
func (m *Metrics) RecordWebsocketDisconnected() {
	m.WebsocketClients.Dec()
}
