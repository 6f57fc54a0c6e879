package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the relay.
type Metrics struct {
	// Session metrics
	ActiveSessions  prometheus.Gauge
	SessionsStarted prometheus.Counter

	// Inbound forwarding metrics
	FramesReceived  prometheus.Counter
	FramesForwarded prometheus.Counter
	DecodeErrors    prometheus.Counter

	// Reply pipeline metrics
	TranscriptsDispatched prometheus.Counter
	RepliesCompleted      prometheus.Counter
	RepliesFailed         prometheus.Counter
	ReplyDuration         prometheus.Histogram
}

// New creates and registers all relay metrics on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "relay_active_sessions",
			Help: "Current number of active relay sessions",
		}),
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_sessions_started_total",
			Help: "Total number of relay sessions started",
		}),
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_frames_received_total",
			Help: "Total number of inbound frames received",
		}),
		FramesForwarded: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_frames_forwarded_total",
			Help: "Total number of media frames forwarded to the transcription provider",
		}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_decode_errors_total",
			Help: "Total number of inbound frame decode errors",
		}),
		TranscriptsDispatched: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_transcripts_dispatched_total",
			Help: "Total number of transcripts dispatched to reply tasks",
		}),
		RepliesCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_replies_completed_total",
			Help: "Total number of reply tasks completed successfully",
		}),
		RepliesFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "relay_replies_failed_total",
			Help: "Total number of reply tasks that ended in error",
		}),
		ReplyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "relay_reply_duration_seconds",
			Help:    "End-to-end duration of reply tasks",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
	}
}

// NewNop returns metrics registered on a throwaway registry, for tests.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
