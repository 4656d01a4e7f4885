package operations

import (
	"errors"
	"fmt"
)

// ErrUnknownKind is returned when a discriminator does not name a member of
// the closed operation taxonomy (spec §4.B/§4.C "UnknownKind").
var ErrUnknownKind = errors.New("operations: unknown kind")

// ValidationError reports that a request or result failed its variant's
// schema check (spec §7 "ValidationError": reported to the phase via HTTP
// 500, never retried — a bug, not a transient failure).
type ValidationError struct {
	Kind  Kind
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("operations: %s: invalid %s: %s", e.Kind, e.Field, e.Msg)
}

// ValidateRequest checks a request's params against its variant's minimal
// shape constraints (spec §4.B "validated on ingress").
func ValidateRequest(r Request) error {
	switch v := r.(type) {
	case BashRequest:
		if v.Params.Command == "" {
			return &ValidationError{Kind: KindBash, Field: "command", Msg: "must not be empty"}
		}
	case PythonRequest:
		if v.Params.Code == "" {
			return &ValidationError{Kind: KindPython, Field: "code", Msg: "must not be empty"}
		}
	case GenerateRequest:
		if v.Params.Model == "" {
			return &ValidationError{Kind: KindGenerate, Field: "model", Msg: "must not be empty"}
		}
		if len(v.Params.Messages) == 0 {
			return &ValidationError{Kind: KindGenerate, Field: "messages", Msg: "must not be empty"}
		}
		if v.Params.N <= 0 {
			return &ValidationError{Kind: KindGenerate, Field: "n", Msg: "must be positive"}
		}
	case SubmitRequest:
		if v.Params.Answer == "" {
			return &ValidationError{Kind: KindSubmit, Field: "answer", Msg: "must not be empty"}
		}
	case LogRequest:
		if v.Params.Message == "" {
			return &ValidationError{Kind: KindLog, Field: "message", Msg: "must not be empty"}
		}
	case LogWithAttributesRequest:
		if v.Params.Message == "" {
			return &ValidationError{Kind: KindLogWithAttributes, Field: "message", Msg: "must not be empty"}
		}
	case ActionRequest:
		if v.Params.FunctionCall.Name == "" {
			return &ValidationError{Kind: KindAction, Field: "function_call.name", Msg: "must not be empty"}
		}
	case ObservationRequest:
		if v.Params.Content == "" {
			return &ValidationError{Kind: KindObservation, Field: "content", Msg: "must not be empty"}
		}
	case ScoreLogRequest:
		if v.Params.Message == "" {
			return &ValidationError{Kind: KindScoreLog, Field: "message", Msg: "must not be empty"}
		}
	case GetUsageRequest, GetTaskRequest, SaveStateRequest, ScoreRequest, InitWorkflowRequest:
		// No required fields.
	default:
		return fmt.Errorf("%w: %T", ErrUnknownKind, r)
	}
	return nil
}

// ValidateResult checks a result's output against its variant's minimal
// shape constraints (spec §4.B "validated on egress").
func ValidateResult(r Result) error {
	if r.OperationError() != nil {
		// An error-bearing result is valid regardless of output shape — the
		// handler reported an OperationErrorResult (spec §7), not a crash.
		return nil
	}
	switch v := r.(type) {
	case GenerateResult:
		if len(v.Output.Outputs) == 0 {
			return &ValidationError{Kind: KindGenerate, Field: "outputs", Msg: "must not be empty when error is unset"}
		}
	case GetTaskResult:
		if v.Output.TaskString == "" {
			return &ValidationError{Kind: KindGetTask, Field: "task_string", Msg: "must not be empty"}
		}
	}
	return nil
}
