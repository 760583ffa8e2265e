package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		framesProcessedTotal,
		frameFailuresTotal,
		unexpectedObjectsTotal,
		alertsSentTotal,
		detectionLatency,
		activeMonitors,
	)
}

var (
	framesProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_frames_processed_total",
			Help: "Frames read from a stream and passed to the detector.",
		},
		[]string{"animal"},
	)

	frameFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_frame_failures_total",
			Help: "Frames skipped because reading or detection failed.",
		},
		[]string{"animal", "stage"}, // 'read', 'detect', 'highlight'
	)

	unexpectedObjectsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_unexpected_objects_total",
			Help: "Newly seen unexpected labels per animal stream.",
		},
		[]string{"animal", "label"},
	)

	alertsSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_alerts_sent_total",
			Help: "Alert messages delivered to chats.",
		},
		[]string{"animal", "status"}, // 'sent', 'failed'
	)

	detectionLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "detector_latency_seconds",
			Help:    "Object detector call latency.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		[]string{"success"},
	)

	activeMonitors = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitor_active",
			Help: "Number of running monitor tasks.",
		},
	)
)

func IncFrameProcessed(animal string) {
	framesProcessedTotal.WithLabelValues(norm(animal)).Inc()
}

func IncFrameFailure(animal, stage string) {
	frameFailuresTotal.WithLabelValues(norm(animal), norm(stage)).Inc()
}

func IncUnexpected(animal string, labels []string) {
	for _, l := range labels {
		unexpectedObjectsTotal.WithLabelValues(norm(animal), norm(l)).Inc()
	}
}

func IncAlert(animal string, ok bool) {
	status := "sent"
	if !ok {
		status = "failed"
	}
	alertsSentTotal.WithLabelValues(norm(animal), status).Inc()
}

func ObserveDetection(d time.Duration, ok bool) {
	success := "true"
	if !ok {
		success = "false"
	}
	detectionLatency.WithLabelValues(success).Observe(d.Seconds())
}

func MonitorStarted() { activeMonitors.Inc() }
func MonitorStopped() { activeMonitors.Dec() }
