// Package runlog is the agent-facing Logging/Event Sink (spec §4.J item 2):
// an append-only store for `log` and `log_with_attributes` operations, kept
// separate from the structured engine log in package telemetry. The LIVE and
// SIMULATED log handlers both append to the one Store the process was
// configured with at startup; the backend is not chosen per mode, and no
// handler forwards events to an external service itself.
package runlog

import (
	"context"
	"time"
)

// Event is one immutable log line emitted by a `log` or `log_with_attributes`
// operation.
type Event struct {
	// ID is the store-assigned opaque identifier for this event.
	ID string
	// StateID is the workflow state the event belongs to.
	StateID string
	// Phase is the phase that emitted the event, if known.
	Phase string
	// Message is the log line text.
	Message string
	// Attributes carries log_with_attributes' opaque styling hints
	// (background_color, title, ...) — nil for plain `log` events.
	Attributes map[string]any
	// Timestamp is the event time.
	Timestamp time.Time
}

// Page is a forward page of log events.
type Page struct {
	// Events are ordered oldest-first.
	Events []*Event
	// NextCursor is the cursor to use to fetch the next page. Empty when
	// there are no further events.
	NextCursor string
}

// Store is an append-only event sink for the agent-facing log stream.
// Implementations must provide stable per-state ordering; cursor values are
// store-owned and opaque to callers.
type Store interface {
	// Append records e, assigning its ID.
	Append(ctx context.Context, e *Event) error

	// List returns the next forward page of events for stateID.
	List(ctx context.Context, stateID string, cursor string, limit int) (Page, error)
}
