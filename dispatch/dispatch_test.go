package dispatch_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/dispatch"
	"github.com/poking-agents/flock-public/handlers"
	"github.com/poking-agents/flock-public/operations"
)

func TestDispatchReturnsResultsInInputOrder(t *testing.T) {
	d := dispatch.New(handlers.NewRegistry(), nil, nil, nil)

	ops := []operations.Request{
		operations.LogRequest{Params: operations.LogParams{Message: "a"}},
		operations.SubmitRequest{Params: operations.SubmitParams{Answer: "b"}},
		operations.ObservationRequest{Params: operations.ObservationParams{Content: "c"}},
	}
	pairs, err := d.Dispatch(context.Background(), &handlers.Deps{Sim: handlers.NewSimCounters()}, dispatch.Input{
		Mode:       handlers.Simulated,
		Operations: ops,
		StateID:    "s1",
	})
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	require.Equal(t, operations.KindLog, pairs[0].Result.OperationKind())
	require.Equal(t, operations.KindSubmit, pairs[1].Result.OperationKind())
	require.Equal(t, operations.KindObservation, pairs[2].Result.OperationKind())
}

func TestDispatchOrdersGetUsageAfterPrimaryBatch(t *testing.T) {
	d := dispatch.New(handlers.NewRegistry(), nil, nil, nil)

	ops := []operations.Request{
		operations.GetUsageRequest{},
		operations.BashRequest{Params: operations.BashParams{Command: "echo a"}},
		operations.BashRequest{Params: operations.BashParams{Command: "echo b"}},
	}
	sim := handlers.NewSimCounters()
	pairs, err := d.Dispatch(context.Background(), &handlers.Deps{Sim: sim}, dispatch.Input{
		Mode:       handlers.Simulated,
		Operations: ops,
		StateID:    "s1",
	})
	require.NoError(t, err)
	require.Len(t, pairs, 3)

	usage := pairs[0].Result.(operations.GetUsageResult)
	require.Equal(t, 2, usage.Output.Usage.Actions, "get_usage must reflect both bash ops dispatched ahead of it")
}

func TestDispatchOrdersSaveStateLast(t *testing.T) {
	d := dispatch.New(handlers.NewRegistry(), nil, nil, nil)

	var order []string
	ops := []operations.Request{
		operations.SaveStateRequest{},
		operations.GetUsageRequest{},
		operations.LogRequest{Params: operations.LogParams{Message: "m"}},
	}
	deps := &handlers.Deps{
		Sim: handlers.NewSimCounters(),
		Snapshotter: func(context.Context) (string, error) {
			order = append(order, "save_state")
			return "/tmp/snapshot.json", nil
		},
	}
	pairs, err := d.Dispatch(context.Background(), deps, dispatch.Input{
		Mode:       handlers.Simulated,
		Operations: ops,
		StateID:    "s1",
	})
	require.NoError(t, err)

	saveResult := pairs[0].Result.(operations.SaveStateResult)
	require.Equal(t, "/tmp/snapshot.json", saveResult.Output.SnapshotPath)
	require.Equal(t, []string{"save_state"}, order)
}

func TestDispatchFailsFatallyOnUnknownKind(t *testing.T) {
	d := dispatch.New(handlers.NewRegistry(), nil, nil, nil)

	_, err := d.Dispatch(context.Background(), &handlers.Deps{}, dispatch.Input{
		Mode:       handlers.Mode("BOGUS"),
		Operations: []operations.Request{operations.SubmitRequest{Params: operations.SubmitParams{Answer: "x"}}},
		StateID:    "s1",
	})
	require.Error(t, err)
}
