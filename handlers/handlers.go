// Package handlers implements the Handler Registry (spec §4.C): a two-level
// `kind → (mode → handler)` table the Dispatcher consults to execute one
// operation. LIVE handlers talk to real external systems (task environment,
// LLM gateway, agent-facing log stream); SIMULATED handlers are
// deterministic or locally-faked stand-ins so a workflow can run with no
// external side effects (spec §4.B).
package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/poking-agents/flock-public/eventbus"
	"github.com/poking-agents/flock-public/gateway"
	"github.com/poking-agents/flock-public/operations"
	"github.com/poking-agents/flock-public/runlog"
	"github.com/poking-agents/flock-public/telemetry"
	"github.com/poking-agents/flock-public/tokenizer"
)

// Mode is the processing mode named in spec §4.B.
type Mode string

const (
	// Live handlers perform real side effects.
	Live Mode = "LIVE"
	// Simulated handlers produce deterministic or faked responses.
	Simulated Mode = "SIMULATED"
)

// ErrUnknownKind is returned by Lookup when no handler table exists for kind.
var ErrUnknownKind = errors.New("handlers: unknown kind")

// ErrUnsupportedMode is returned by Lookup when kind has no handler for mode.
var ErrUnsupportedMode = errors.New("handlers: unsupported mode")

// Handler executes one operation's params against req, returning its typed
// result. Handlers never return a transport error for an operation-level
// failure — they populate the result's Error field instead (spec §4.D
// "not fatal"); a non-nil error return is reserved for handler bugs the
// Dispatcher treats as fatal (spec §4.D "fail loud").
type Handler func(ctx context.Context, req operations.Request, deps *Deps) (operations.Result, error)

// TaskProvider is the external task environment a LIVE deployment talks to
// for get_task/get_usage/score — the three operations this engine cannot
// itself compute, since they describe state owned by the task harness, not
// the workflow engine.
type TaskProvider interface {
	GetTask(ctx context.Context) (operations.GetTaskOutput, error)
	GetUsage(ctx context.Context) (operations.GetUsageOutput, error)
	Score(ctx context.Context) (operations.ScoreOutput, error)
}

// Deps is the per-request dependency bundle a Handler receives (spec §4.C
// "deps is a per-request map carrying cached clients").
type Deps struct {
	StateID      string
	Phase        string
	Gateway      gateway.Client
	RunLog       runlog.Store
	TaskProvider TaskProvider
	Tokenizer    tokenizer.Tokenizer
	Logger       telemetry.Logger
	EventBus     eventbus.Bus
	Sim          *SimCounters

	// Snapshotter, if set, is called by the save_state handler to persist a
	// diagnostic copy of the current document (spec §4.A "captured whenever
	// a save_state operation is dispatched"). Wired by the HTTP layer as a
	// closure over its Store and in-flight AgentState, so this package never
	// needs to import package store or package state directly.
	Snapshotter func(ctx context.Context) (snapshotPath string, err error)
}

// Registry is the two-level handler table.
type Registry struct {
	table map[operations.Kind]map[Mode]Handler
}

// NewRegistry assembles the default registry: every kind in
// operations.Kinds gets both a LIVE and a SIMULATED handler (spec §4.C
// "at startup the registry assembles per-kind tables from the variant
// modules").
func NewRegistry() *Registry {
	r := &Registry{table: make(map[operations.Kind]map[Mode]Handler)}
	registerDefaults(r)
	return r
}

// Register installs handler for (kind, mode), overwriting any existing
// entry — used both by registerDefaults and by callers wiring a custom
// handler for testing or an alternate backend.
func (r *Registry) Register(kind operations.Kind, mode Mode, h Handler) {
	if r.table[kind] == nil {
		r.table[kind] = make(map[Mode]Handler)
	}
	r.table[kind][mode] = h
}

// Lookup returns the handler for (kind, mode).
func (r *Registry) Lookup(kind operations.Kind, mode Mode) (Handler, error) {
	modes, ok := r.table[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	h, ok := modes[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrUnsupportedMode, kind, mode)
	}
	return h, nil
}

func registerDefaults(r *Registry) {
	r.Register(operations.KindBash, Live, liveBash)
	r.Register(operations.KindBash, Simulated, simulatedBash)
	r.Register(operations.KindPython, Live, livePython)
	r.Register(operations.KindPython, Simulated, simulatedPython)
	r.Register(operations.KindGenerate, Live, liveGenerate)
	r.Register(operations.KindGenerate, Simulated, simulatedGenerate)
	r.Register(operations.KindSubmit, Live, ackSubmit)
	r.Register(operations.KindSubmit, Simulated, ackSubmit)
	r.Register(operations.KindLog, Live, liveLog)
	r.Register(operations.KindLog, Simulated, simulatedLog)
	r.Register(operations.KindLogWithAttributes, Live, liveLogWithAttributes)
	r.Register(operations.KindLogWithAttributes, Simulated, simulatedLogWithAttributes)
	r.Register(operations.KindAction, Live, ackAction)
	r.Register(operations.KindAction, Simulated, ackAction)
	r.Register(operations.KindObservation, Live, ackObservation)
	r.Register(operations.KindObservation, Simulated, ackObservation)
	r.Register(operations.KindGetUsage, Live, liveGetUsage)
	r.Register(operations.KindGetUsage, Simulated, simulatedGetUsage)
	r.Register(operations.KindGetTask, Live, liveGetTask)
	r.Register(operations.KindGetTask, Simulated, simulatedGetTask)
	r.Register(operations.KindSaveState, Live, ackSaveState)
	r.Register(operations.KindSaveState, Simulated, ackSaveState)
	r.Register(operations.KindScore, Live, liveScore)
	r.Register(operations.KindScore, Simulated, simulatedScore)
	r.Register(operations.KindScoreLog, Live, liveScoreLog)
	r.Register(operations.KindScoreLog, Simulated, simulatedScoreLog)
	r.Register(operations.KindInitWorkflow, Live, ackInitWorkflow)
	r.Register(operations.KindInitWorkflow, Simulated, ackInitWorkflow)
}

func errString(err error) *string {
	s := err.Error()
	return &s
}
