package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/telemetry"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := telemetry.NewNoopLogger()
	require.NotPanics(t, func() {
		logger.Debug(context.Background(), "hello", "state_id", "s1")
		logger.Info(context.Background(), "hello")
		logger.Warn(context.Background(), "hello")
		logger.Error(context.Background(), "hello")
	})
}

func TestNoopMetricsDoesNotPanic(t *testing.T) {
	metrics := telemetry.NewNoopMetrics()
	require.NotPanics(t, func() {
		metrics.IncCounter("ops", 1, "kind", "bash")
		metrics.RecordTimer("latency", time.Second)
		metrics.RecordGauge("queue_depth", 3)
	})
}

func TestWithPhasePrependsAttributes(t *testing.T) {
	kv := telemetry.WithPhase("s1", "generate", "extra", 1)
	require.Equal(t, []any{"state_id", "s1", "phase", "generate", "extra", 1}, kv)
}
