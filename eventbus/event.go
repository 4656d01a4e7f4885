// Package eventbus provides the dispatcher's optional UI fan-out: a
// synchronous, in-process publish/subscribe mechanism that carries the
// operation-completion records described in spec §4.D ("Observability side
// effects") to anything that wants to watch a workflow live (the operations
// UI is external and not implemented here; this is the plumbing it would
// attach to).
package eventbus

import "time"

// Event is the record the dispatcher emits for each completed operation when
// mode != LIVE and a sink is configured.
type Event struct {
	StateID   string    `json:"state_id"`
	Phase     string    `json:"phase"`
	Operation string    `json:"operation"`
	Result    any       `json:"result"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// Status values carried on Event.Status.
const (
	StatusOK    = "ok"
	StatusError = "error"
)
