package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	IncFrameProcessed(" Bear ")
	require.Equal(t, float64(1), testutil.ToFloat64(framesProcessedTotal.WithLabelValues("bear")))

	IncUnexpected("bear", []string{"person", "Dog"})
	require.Equal(t, float64(1), testutil.ToFloat64(unexpectedObjectsTotal.WithLabelValues("bear", "dog")))

	IncAlert("bear", false)
	require.Equal(t, float64(1), testutil.ToFloat64(alertsSentTotal.WithLabelValues("bear", "failed")))

	MonitorStarted()
	MonitorStarted()
	MonitorStopped()
	require.Equal(t, float64(1), testutil.ToFloat64(activeMonitors))

	ObserveDetection(150*time.Millisecond, true)
	require.Equal(t, 1, testutil.CollectAndCount(detectionLatency))
}

func TestMustRegister_Idempotent(t *testing.T) {
	require.NotPanics(t, func() {
		MustRegister()
		MustRegister()
	})
}
