// Package telemetry defines the logging, metrics, and tracing abstractions
// used throughout the engine, so the concrete backend (clue/OTEL in
// production, a no-op in tests) can be swapped without touching call sites.
// The HTTP API and the dispatcher open spans and record timers for every
// request and batch; log lines are written for failures, event-publish
// warnings and each subprocess exit, not for every request, batch or handler
// invocation.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type (
	// Logger emits structured, leveled log messages. Implementations accept
	// variadic key-value pairs (k1, v1, k2, v2, ...) the way the engine's
	// standard attributes (state_id, phase, level, message) are passed.
	Logger interface {
		Debug(ctx context.Context, msg string, keyvals ...any)
		Info(ctx context.Context, msg string, keyvals ...any)
		Warn(ctx context.Context, msg string, keyvals ...any)
		Error(ctx context.Context, msg string, keyvals ...any)
	}

	// Metrics records counters, timers, and gauges tagged with string pairs.
	Metrics interface {
		IncCounter(name string, value float64, tags ...string)
		RecordTimer(name string, duration time.Duration, tags ...string)
		RecordGauge(name string, value float64, tags ...string)
	}

	// Tracer starts and retrieves spans.
	Tracer interface {
		Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, Span)
		Span(ctx context.Context) Span
	}

	// Span is a single unit of tracing work.
	Span interface {
		End(opts ...trace.SpanEndOption)
		AddEvent(name string, attrs ...any)
		SetStatus(code codes.Code, description string)
		RecordError(err error, opts ...trace.EventOption)
	}
)

// WithPhase returns keyvals prefixed with the standard state_id/phase pair
// (spec §4.J item 1).
func WithPhase(stateID, phase string, keyvals ...any) []any {
	base := []any{"state_id", stateID, "phase", phase}
	return append(base, keyvals...)
}
