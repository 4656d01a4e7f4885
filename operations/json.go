package operations

import (
	"encoding/json"
	"fmt"
)

// wireRequest is the JSON shape of BaseOperationRequest (spec §3):
// `{type, params, metadata?}`.
type wireRequest struct {
	Type     Kind            `json:"type"`
	Params   json.RawMessage `json:"params"`
	Metadata Metadata        `json:"metadata,omitempty"`
}

// wireResult is the JSON shape of BaseOperationResult: `{type, result, error?, metadata?}`.
type wireResult struct {
	Type     Kind            `json:"type"`
	Result   json.RawMessage `json:"result"`
	Error    *string         `json:"error,omitempty"`
	Metadata Metadata        `json:"metadata,omitempty"`
}

// MarshalRequest encodes any Request variant as a BaseOperationRequest,
// discriminated by its Kind.
func MarshalRequest(r Request) ([]byte, error) {
	params, err := json.Marshal(r.requestParams())
	if err != nil {
		return nil, fmt.Errorf("marshal %s params: %w", r.OperationKind(), err)
	}
	return json.Marshal(wireRequest{
		Type:     r.OperationKind(),
		Params:   params,
		Metadata: r.OperationMetadata(),
	})
}

// MarshalResult encodes any Result variant as a BaseOperationResult,
// discriminated by its Kind.
func MarshalResult(r Result) ([]byte, error) {
	out, err := json.Marshal(r.resultOutput())
	if err != nil {
		return nil, fmt.Errorf("marshal %s result: %w", r.OperationKind(), err)
	}
	return json.Marshal(wireResult{
		Type:     r.OperationKind(),
		Result:   out,
		Error:    r.OperationError(),
		Metadata: r.OperationMetadata(),
	})
}

// UnmarshalRequest decodes a BaseOperationRequest into its concrete typed
// Request variant, selected by the "type" discriminator. Returns
// ErrUnknownKind if the type is not a member of the closed taxonomy.
func UnmarshalRequest(data []byte) (Request, error) {
	var w wireRequest
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode operation request envelope: %w", err)
	}
	switch w.Type {
	case KindBash:
		return decodeReq(w, func(p BashParams) Request { return BashRequest{Params: p, Metadata: w.Metadata} })
	case KindPython:
		return decodeReq(w, func(p PythonParams) Request { return PythonRequest{Params: p, Metadata: w.Metadata} })
	case KindGenerate:
		return decodeReq(w, func(p GenerateParams) Request { return GenerateRequest{Params: p, Metadata: w.Metadata} })
	case KindSubmit:
		return decodeReq(w, func(p SubmitParams) Request { return SubmitRequest{Params: p, Metadata: w.Metadata} })
	case KindLog:
		return decodeReq(w, func(p LogParams) Request { return LogRequest{Params: p, Metadata: w.Metadata} })
	case KindLogWithAttributes:
		return decodeReq(w, func(p LogWithAttributesParams) Request {
			return LogWithAttributesRequest{Params: p, Metadata: w.Metadata}
		})
	case KindAction:
		return decodeReq(w, func(p ActionParams) Request { return ActionRequest{Params: p, Metadata: w.Metadata} })
	case KindObservation:
		return decodeReq(w, func(p ObservationParams) Request {
			return ObservationRequest{Params: p, Metadata: w.Metadata}
		})
	case KindGetUsage:
		return decodeReq(w, func(p GetUsageParams) Request { return GetUsageRequest{Params: p, Metadata: w.Metadata} })
	case KindGetTask:
		return decodeReq(w, func(p GetTaskParams) Request { return GetTaskRequest{Params: p, Metadata: w.Metadata} })
	case KindSaveState:
		return decodeReq(w, func(p SaveStateParams) Request {
			return SaveStateRequest{Params: p, Metadata: w.Metadata}
		})
	case KindScore:
		return decodeReq(w, func(p ScoreParams) Request { return ScoreRequest{Params: p, Metadata: w.Metadata} })
	case KindScoreLog:
		return decodeReq(w, func(p ScoreLogParams) Request { return ScoreLogRequest{Params: p, Metadata: w.Metadata} })
	case KindInitWorkflow:
		return decodeReq(w, func(p InitWorkflowParams) Request {
			return InitWorkflowRequest{Params: p, Metadata: w.Metadata}
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, w.Type)
	}
}

// UnmarshalResult decodes a BaseOperationResult into its concrete typed
// Result variant, selected by the "type" discriminator.
func UnmarshalResult(data []byte) (Result, error) {
	var w wireResult
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode operation result envelope: %w", err)
	}
	switch w.Type {
	case KindBash:
		return decodeRes(w, func(o BashOutput) Result { return BashResult{Output: o, Error: w.Error, Metadata: w.Metadata} })
	case KindPython:
		return decodeRes(w, func(o PythonOutput) Result { return PythonResult{Output: o, Error: w.Error, Metadata: w.Metadata} })
	case KindGenerate:
		return decodeRes(w, func(o GenerateOutput) Result {
			return GenerateResult{Output: o, Error: w.Error, Metadata: w.Metadata}
		})
	case KindSubmit:
		return decodeRes(w, func(o SubmitOutput) Result {
			return SubmitResult{Output: o, Error: w.Error, Metadata: w.Metadata}
		})
	case KindLog:
		return decodeRes(w, func(o LogOutput) Result { return LogResult{Output: o, Error: w.Error, Metadata: w.Metadata} })
	case KindLogWithAttributes:
		return decodeRes(w, func(o LogWithAttributesOutput) Result {
			return LogWithAttributesResult{Output: o, Error: w.Error, Metadata: w.Metadata}
		})
	case KindAction:
		return decodeRes(w, func(o ActionOutput) Result {
			return ActionResult{Output: o, Error: w.Error, Metadata: w.Metadata}
		})
	case KindObservation:
		return decodeRes(w, func(o ObservationOutput) Result {
			return ObservationResult{Output: o, Error: w.Error, Metadata: w.Metadata}
		})
	case KindGetUsage:
		return decodeRes(w, func(o GetUsageOutput) Result {
			return GetUsageResult{Output: o, Error: w.Error, Metadata: w.Metadata}
		})
	case KindGetTask:
		return decodeRes(w, func(o GetTaskOutput) Result {
			return GetTaskResult{Output: o, Error: w.Error, Metadata: w.Metadata}
		})
	case KindSaveState:
		return decodeRes(w, func(o SaveStateOutput) Result {
			return SaveStateResult{Output: o, Error: w.Error, Metadata: w.Metadata}
		})
	case KindScore:
		return decodeRes(w, func(o ScoreOutput) Result { return ScoreResult{Output: o, Error: w.Error, Metadata: w.Metadata} })
	case KindScoreLog:
		return decodeRes(w, func(o ScoreLogOutput) Result {
			return ScoreLogResult{Output: o, Error: w.Error, Metadata: w.Metadata}
		})
	case KindInitWorkflow:
		return decodeRes(w, func(o InitWorkflowOutput) Result {
			return InitWorkflowResult{Output: o, Error: w.Error, Metadata: w.Metadata}
		})
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, w.Type)
	}
}

func decodeReq[P any](w wireRequest, build func(P) Request) (Request, error) {
	var p P
	if len(w.Params) > 0 {
		if err := json.Unmarshal(w.Params, &p); err != nil {
			return nil, fmt.Errorf("decode %s params: %w", w.Type, err)
		}
	}
	return build(p), nil
}

func decodeRes[O any](w wireResult, build func(O) Result) (Result, error) {
	var o O
	if len(w.Result) > 0 {
		if err := json.Unmarshal(w.Result, &o); err != nil {
			return nil, fmt.Errorf("decode %s result: %w", w.Type, err)
		}
	}
	return build(o), nil
}
