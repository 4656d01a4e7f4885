package operations_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/poking-agents/flock-public/operations"
)

func TestMarshalUnmarshalRequestRoundTrip(t *testing.T) {
	req := operations.BashRequest{
		Params:   operations.BashParams{Command: "echo hi", Timeout: 30},
		Metadata: operations.Metadata{"phase": "actor"},
	}

	data, err := operations.MarshalRequest(req)
	require.NoError(t, err)
	require.Contains(t, string(data), `"type":"bash"`)

	decoded, err := operations.UnmarshalRequest(data)
	require.NoError(t, err)
	bashReq, ok := decoded.(operations.BashRequest)
	require.True(t, ok)
	require.Equal(t, req.Params, bashReq.Params)
	require.Equal(t, "actor", bashReq.Metadata.Phase())
}

func TestMarshalUnmarshalResultRoundTrip(t *testing.T) {
	res := operations.GenerateResult{
		Output: operations.GenerateOutput{
			Outputs: []operations.GenerateOutputItem{{Completion: "hi", StopReason: "stop"}},
		},
		Metadata: operations.Metadata{"state_id": "s1"},
	}

	data, err := operations.MarshalResult(res)
	require.NoError(t, err)

	decoded, err := operations.UnmarshalResult(data)
	require.NoError(t, err)
	genRes, ok := decoded.(operations.GenerateResult)
	require.True(t, ok)
	require.Equal(t, res.Output, genRes.Output)
	require.Equal(t, "s1", genRes.Metadata.StateID())
}

func TestUnmarshalRequestUnknownKind(t *testing.T) {
	_, err := operations.UnmarshalRequest([]byte(`{"type":"nonsense","params":{}}`))
	require.ErrorIs(t, err, operations.ErrUnknownKind)
}

func TestValidateRequestRejectsEmptyBashCommand(t *testing.T) {
	err := operations.ValidateRequest(operations.BashRequest{})
	require.Error(t, err)
	var verr *operations.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, operations.KindBash, verr.Kind)
}

func TestValidateRequestAcceptsWellFormedGenerate(t *testing.T) {
	req := operations.GenerateRequest{Params: operations.GenerateParams{
		Messages: []operations.ChatMessage{{Role: "user", Content: "hi"}},
		Model:    "claude-3",
		N:        1,
	}}
	require.NoError(t, operations.ValidateRequest(req))
}

func TestValidateResultSkipsShapeCheckWhenErrorSet(t *testing.T) {
	errMsg := "timed out"
	res := operations.GenerateResult{Error: &errMsg}
	require.NoError(t, operations.ValidateResult(res))
}

func TestValidateResultRejectsEmptyGenerateOutputs(t *testing.T) {
	err := operations.ValidateResult(operations.GenerateResult{})
	require.Error(t, err)
}

func TestKindValid(t *testing.T) {
	require.True(t, operations.KindBash.Valid())
	require.False(t, operations.Kind("nonsense").Valid())
}
