package handlers_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/handlers"
	"github.com/poking-agents/flock-public/operations"
	"github.com/poking-agents/flock-public/runlog/inmem"
)

func TestRegistryLookupUnknownKind(t *testing.T) {
	r := handlers.NewRegistry()
	_, err := r.Lookup("no_such_kind", handlers.Live)
	require.ErrorIs(t, err, handlers.ErrUnknownKind)
}

func TestRegistryLookupUnsupportedMode(t *testing.T) {
	r := handlers.NewRegistry()
	_, err := r.Lookup(operations.KindBash, handlers.Mode("BOGUS"))
	require.ErrorIs(t, err, handlers.ErrUnsupportedMode)
}

func TestRegistryHasEveryKindInBothModes(t *testing.T) {
	r := handlers.NewRegistry()
	for _, kind := range operations.Kinds {
		for _, mode := range []handlers.Mode{handlers.Live, handlers.Simulated} {
			_, err := r.Lookup(kind, mode)
			require.NoErrorf(t, err, "expected handler for %s/%s", kind, mode)
		}
	}
}

func TestSimulatedBashIsDeterministic(t *testing.T) {
	r := handlers.NewRegistry()
	h, err := r.Lookup(operations.KindBash, handlers.Simulated)
	require.NoError(t, err)

	req := operations.BashRequest{Params: operations.BashParams{Command: "echo hi"}}
	deps := &handlers.Deps{Sim: handlers.NewSimCounters()}

	res1, err := h(context.Background(), req, deps)
	require.NoError(t, err)
	res2, err := h(context.Background(), req, deps)
	require.NoError(t, err)
	require.Equal(t, res1.(operations.BashResult).Output.Stdout, res2.(operations.BashResult).Output.Stdout)
}

func TestSimulatedGenerateProducesRequestedCount(t *testing.T) {
	r := handlers.NewRegistry()
	h, err := r.Lookup(operations.KindGenerate, handlers.Simulated)
	require.NoError(t, err)

	req := operations.GenerateRequest{Params: operations.GenerateParams{
		Model:    "test-model",
		Messages: []operations.ChatMessage{{Role: "user", Content: "hi"}},
		N:        3,
	}}
	res, err := h(context.Background(), req, &handlers.Deps{Sim: handlers.NewSimCounters()})
	require.NoError(t, err)
	require.Len(t, res.(operations.GenerateResult).Output.Outputs, 3)
}

func TestSimulatedGetUsageReflectsSimCounters(t *testing.T) {
	sim := handlers.NewSimCounters()
	sim.AddTokens(42)
	sim.AddAction()

	r := handlers.NewRegistry()
	h, err := r.Lookup(operations.KindGetUsage, handlers.Simulated)
	require.NoError(t, err)

	res, err := h(context.Background(), operations.GetUsageRequest{}, &handlers.Deps{Sim: sim})
	require.NoError(t, err)
	out := res.(operations.GetUsageResult).Output
	require.Equal(t, 42, out.Usage.Tokens)
	require.Equal(t, 1, out.Usage.Actions)
}

func TestLiveLogAppendsToRunLog(t *testing.T) {
	store := inmem.New()
	r := handlers.NewRegistry()
	h, err := r.Lookup(operations.KindLog, handlers.Live)
	require.NoError(t, err)

	req := operations.LogRequest{Params: operations.LogParams{Message: "hello"}}
	deps := &handlers.Deps{StateID: "s1", RunLog: store}
	_, err = h(context.Background(), req, deps)
	require.NoError(t, err)

	page, err := store.List(context.Background(), "s1", "", 10)
	require.NoError(t, err)
	require.Len(t, page.Events, 1)
	require.Equal(t, "hello", page.Events[0].Message)
}

func TestLiveGenerateWithoutGatewayReturnsErrorResult(t *testing.T) {
	r := handlers.NewRegistry()
	h, err := r.Lookup(operations.KindGenerate, handlers.Live)
	require.NoError(t, err)

	req := operations.GenerateRequest{Params: operations.GenerateParams{
		Model: "m", Messages: []operations.ChatMessage{{Role: "user", Content: "hi"}}, N: 1,
	}}
	res, err := h(context.Background(), req, &handlers.Deps{})
	require.NoError(t, err)
	require.NotNil(t, res.(operations.GenerateResult).Error)
}

func TestAckSubmitAccepts(t *testing.T) {
	r := handlers.NewRegistry()
	h, err := r.Lookup(operations.KindSubmit, handlers.Live)
	require.NoError(t, err)

	res, err := h(context.Background(), operations.SubmitRequest{Params: operations.SubmitParams{Answer: "42"}}, &handlers.Deps{})
	require.NoError(t, err)
	require.True(t, res.(operations.SubmitResult).Output.Accepted)
}
