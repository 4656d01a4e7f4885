// Package dispatch implements the Dispatcher (spec §4.D): given a mode and
// a batch of operations, it runs each against the Handler Registry and
// returns results in the original input order, with get_usage dispatched
// after the rest of the batch so its counters reflect the work that batch
// just did, and save_state dispatched after get_usage.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/poking-agents/flock-public/eventbus"
	"github.com/poking-agents/flock-public/handlers"
	"github.com/poking-agents/flock-public/operations"
	"github.com/poking-agents/flock-public/telemetry"
)

// Pair is one (request, result) outcome, in the position its request held
// in the input batch.
type Pair struct {
	Request operations.Request
	Result  operations.Result
}

// Input is one dispatch call's parameters (spec §4.D "Inputs").
type Input struct {
	Mode         handlers.Mode
	Operations   []operations.Request
	StateID      string
	CurrentPhase string
}

// Dispatcher runs operation batches against a Handler Registry.
type Dispatcher struct {
	registry *handlers.Registry
	bus      eventbus.Bus
	logger   telemetry.Logger
	tracer   telemetry.Tracer
	metrics  telemetry.Metrics
}

// New constructs a Dispatcher. bus and logger may be nil, in which case
// observability side effects and logging are silently skipped. Metrics
// defaults to a no-op recorder; set it via SetMetrics to wire a real OTEL
// backend (spec §4.J "every dispatcher entry and exit").
func New(registry *handlers.Registry, bus eventbus.Bus, logger telemetry.Logger, tracer telemetry.Tracer) *Dispatcher {
	if logger == nil {
		logger = telemetry.NewNoopLogger()
	}
	if tracer == nil {
		tracer = telemetry.NewNoopTracer()
	}
	return &Dispatcher{registry: registry, bus: bus, logger: logger, tracer: tracer, metrics: telemetry.NewNoopMetrics()}
}

// SetMetrics swaps in a Metrics recorder (e.g. telemetry.NewClueMetrics())
// after construction.
func (d *Dispatcher) SetMetrics(m telemetry.Metrics) {
	if m != nil {
		d.metrics = m
	}
}

// Dispatch runs in.Operations per the algorithm in spec §4.D: the single
// get_usage and save_state operations (if present) are set aside, the rest
// run concurrently as the primary batch, then get_usage runs once the
// primary batch completes, and save_state runs last. Results are reassembled
// in the original input order.
//
// A handler returning a non-nil error is fatal: Dispatch abandons the whole
// batch and returns that error, matching the source's "terminate on any
// exception" contract (spec §4.D "Failure semantics"). A result with a
// populated Error field is not fatal and is passed through normally.
func (d *Dispatcher) Dispatch(ctx context.Context, deps *handlers.Deps, in Input) ([]Pair, error) {
	ctx, span := d.tracer.Start(ctx, "dispatch.Dispatch")
	defer span.End()

	start := time.Now()
	d.metrics.IncCounter("dispatch_batch_total", 1, "phase", in.CurrentPhase)
	defer func() {
		d.metrics.RecordTimer("dispatch_batch_duration", time.Since(start), "phase", in.CurrentPhase)
	}()

	primary, usageIdx, saveStateIdx := partition(in.Operations)

	results := make([]operations.Result, len(in.Operations))

	group, gctx := errgroup.WithContext(ctx)
	for _, idx := range primary {
		idx := idx
		req := in.Operations[idx]
		group.Go(func() error {
			res, err := d.run(gctx, req, deps, in)
			if err != nil {
				return err
			}
			results[idx] = res
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		d.logger.Error(ctx, "dispatch: primary batch failed", "state_id", in.StateID, "phase", in.CurrentPhase, "error", err.Error())
		return nil, err
	}

	if usageIdx >= 0 {
		req := in.Operations[usageIdx]
		res, err := d.run(ctx, req, deps, in)
		if err != nil {
			d.logger.Error(ctx, "dispatch: get_usage failed", "state_id", in.StateID, "phase", in.CurrentPhase, "error", err.Error())
			return nil, err
		}
		results[usageIdx] = res
	}

	if saveStateIdx >= 0 {
		req := in.Operations[saveStateIdx]
		res, err := d.run(ctx, req, deps, in)
		if err != nil {
			d.logger.Error(ctx, "dispatch: save_state failed", "state_id", in.StateID, "phase", in.CurrentPhase, "error", err.Error())
			return nil, err
		}
		results[saveStateIdx] = res
	}

	pairs := make([]Pair, len(in.Operations))
	for i, req := range in.Operations {
		pairs[i] = Pair{Request: req, Result: results[i]}
	}
	return pairs, nil
}

// partition separates the single get_usage and save_state operations (if
// present) from the primary batch: get_usage runs after the primary batch
// so its counters reflect the work just done, and save_state runs last of
// all so its snapshot captures the post-operation state (spec §5 "Ordering
// guarantees").
func partition(reqs []operations.Request) (primary []int, usageIdx, saveStateIdx int) {
	usageIdx, saveStateIdx = -1, -1
	for i, r := range reqs {
		switch r.OperationKind() {
		case operations.KindGetUsage:
			usageIdx = i
		case operations.KindSaveState:
			saveStateIdx = i
		default:
			primary = append(primary, i)
		}
	}
	return primary, usageIdx, saveStateIdx
}

func (d *Dispatcher) run(ctx context.Context, req operations.Request, deps *handlers.Deps, in Input) (operations.Result, error) {
	opStart := time.Now()
	h, err := d.registry.Lookup(req.OperationKind(), in.Mode)
	if err != nil {
		return nil, fmt.Errorf("dispatch: %w", err)
	}

	res, err := h(ctx, req, deps)
	d.metrics.RecordTimer("dispatch_operation_duration", time.Since(opStart), "kind", string(req.OperationKind()))
	if err != nil {
		d.metrics.IncCounter("dispatch_operation_errors_total", 1, "kind", string(req.OperationKind()))
		return nil, fmt.Errorf("dispatch: handler for %s: %w", req.OperationKind(), err)
	}

	status := eventbus.StatusOK
	if res.OperationError() != nil {
		status = eventbus.StatusError
	}
	if d.bus != nil && in.Mode != handlers.Live {
		event := eventbus.Event{
			StateID:   in.StateID,
			Phase:     in.CurrentPhase,
			Operation: string(req.OperationKind()),
			Result:    res,
			Status:    status,
			Timestamp: time.Now().UTC(),
		}
		if err := d.bus.Publish(ctx, event); err != nil {
			d.logger.Warn(ctx, "dispatch: event publish failed", "state_id", in.StateID, "error", err.Error())
		}
	}
	return res, nil
}
