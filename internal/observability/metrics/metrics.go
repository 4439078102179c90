// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "nirmana"

// Metrics holds all Prometheus metrics for the assistant.
type Metrics struct {
	// Voice session metrics
	SessionsTotal    prometheus.Counter
	SessionsActive   prometheus.Gauge
	SessionsEnded    *prometheus.CounterVec
	SessionDuration  prometheus.Histogram
	SessionStartFail *prometheus.CounterVec

	// Outbound audio metrics
	FramesSent     prometheus.Counter
	FramesDropped  prometheus.Counter
	AudioBytesSent prometheus.Counter

	// Inbound audio / playback metrics
	AudioChunksReceived prometheus.Counter
	PlaybackScheduled   prometheus.Counter
	PlaybackInFlight    prometheus.Gauge
	Interruptions       prometheus.Counter

	// Conversation metrics
	TurnsCompleted   prometheus.Counter
	MessagesAppended *prometheus.CounterVec

	// Error metrics
	VoiceErrors *prometheus.CounterVec

	// Assistant service metrics
	AssistantRequests *prometheus.CounterVec
	AssistantLatency  *prometheus.HistogramVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// HTTP status endpoint metrics
	HTTPRequests *prometheus.CounterVec
	HTTPLatency  *prometheus.HistogramVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		SessionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_sessions_total",
			Help:      "Total number of voice sessions started",
		}),
		SessionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "voice_sessions_active",
			Help:      "Number of voice sessions currently holding resources",
		}),
		SessionsEnded: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_sessions_ended_total",
			Help:      "Total number of voice sessions ended, by final state",
		}, []string{"state"}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "voice_session_duration_seconds",
			Help:      "Duration of voice sessions in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		}),
		SessionStartFail: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_session_start_failures_total",
			Help:      "Total number of voice sessions that failed to start",
		}, []string{"reason"}),

		FramesSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_frames_sent_total",
			Help:      "Total microphone frames handed to the live transport",
		}),
		FramesDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_frames_dropped_total",
			Help:      "Total microphone frames dropped by the outbound queue",
		}),
		AudioBytesSent: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_audio_bytes_sent_total",
			Help:      "Total PCM bytes sent to the live model",
		}),

		AudioChunksReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_audio_chunks_received_total",
			Help:      "Total audio chunks received from the live model",
		}),
		PlaybackScheduled: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_playback_scheduled_seconds_total",
			Help:      "Total seconds of audio scheduled for playback",
		}),
		PlaybackInFlight: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "voice_playback_in_flight",
			Help:      "Number of scheduled or playing audio sources",
		}),
		Interruptions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_interruptions_total",
			Help:      "Total interruption signals that flushed playback",
		}),

		TurnsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_turns_completed_total",
			Help:      "Total completed voice turns",
		}),
		MessagesAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conversation_messages_total",
			Help:      "Total conversation messages appended",
		}, []string{"sender", "source"}),

		VoiceErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "voice_errors_total",
			Help:      "Total voice pipeline errors by kind",
		}, []string{"kind"}),

		AssistantRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_requests_total",
			Help:      "Total text and image requests by kind and outcome",
		}, []string{"kind", "outcome"}),
		AssistantLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assistant_request_latency_seconds",
			Help:      "Latency of text and image requests in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"kind"}),

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

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by route and status code",
		}, []string{"route", "code"}),
		HTTPLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_latency_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// RecordSessionStart records a voice session acquiring its resources.
func (m *Metrics) RecordSessionStart() {
	m.SessionsTotal.Inc()
	m.SessionsActive.Inc()
}

// RecordSessionEnd records a voice session releasing its resources.
func (m *Metrics) RecordSessionEnd(state string, durationSeconds float64) {
	m.SessionsActive.Dec()
	m.SessionsEnded.WithLabelValues(state).Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordStartFailure records a session that never became active.
func (m *Metrics) RecordStartFailure(reason string) {
	m.SessionStartFail.WithLabelValues(reason).Inc()
}

// RecordFrameSent records one outbound microphone frame.
func (m *Metrics) RecordFrameSent(bytes int) {
	m.FramesSent.Inc()
	m.AudioBytesSent.Add(float64(bytes))
}

// RecordFramesDropped records frames discarded by the outbound queue.
func (m *Metrics) RecordFramesDropped(n int) {
	if n > 0 {
		m.FramesDropped.Add(float64(n))
	}
}

// RecordAudioScheduled records one inbound chunk queued for playback.
func (m *Metrics) RecordAudioScheduled(durationSeconds float64) {
	m.AudioChunksReceived.Inc()
	m.PlaybackScheduled.Add(durationSeconds)
}

// SetPlaybackInFlight updates the in-flight source gauge.
func (m *Metrics) SetPlaybackInFlight(n int) {
	m.PlaybackInFlight.Set(float64(n))
}

// RecordInterruption records a playback flush.
func (m *Metrics) RecordInterruption() {
	m.Interruptions.Inc()
}

// RecordTurnCompleted records a finalized voice turn.
func (m *Metrics) RecordTurnCompleted() {
	m.TurnsCompleted.Inc()
}

// RecordMessage records a conversation message being appended.
func (m *Metrics) RecordMessage(sender, source string) {
	m.MessagesAppended.WithLabelValues(sender, source).Inc()
}

// RecordVoiceError records a voice pipeline error.
func (m *Metrics) RecordVoiceError(kind string) {
	m.VoiceErrors.WithLabelValues(kind).Inc()
}

// RecordAssistantRequest records a text or image request outcome.
func (m *Metrics) RecordAssistantRequest(kind string, ok bool, latencySeconds float64) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	m.AssistantRequests.WithLabelValues(kind, outcome).Inc()
	m.AssistantLatency.WithLabelValues(kind).Observe(latencySeconds)
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(route string, code int, latencySeconds float64) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.HTTPLatency.WithLabelValues(route).Observe(latencySeconds)
}
