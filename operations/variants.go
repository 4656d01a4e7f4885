package operations

// Request is implemented by every typed *Request variant. It is the Go
// rendering of spec §3's BaseOperationRequest `{type, params, metadata?}`.
type Request interface {
	OperationKind() Kind
	OperationMetadata() Metadata
	requestParams() any
}

// Result is implemented by every typed *Result variant — spec §3's
// BaseOperationResult `{type, result, error?, metadata?}`.
type Result interface {
	OperationKind() Kind
	OperationMetadata() Metadata
	OperationError() *string
	resultOutput() any
}

// --- bash ---------------------------------------------------------------

// BashParams is the request shape for a bash operation.
type BashParams struct {
	Command string `json:"command"`
	Timeout int    `json:"timeout,omitempty"`
}

// BashOutput is the result shape for a bash operation.
type BashOutput struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Status int    `json:"status"`
}

// BashRequest is the typed bash operation request.
type BashRequest struct {
	Params   BashParams `json:"params"`
	Metadata Metadata   `json:"metadata,omitempty"`
}

// BashResult is the typed bash operation result.
type BashResult struct {
	Output   BashOutput `json:"result"`
	Error    *string    `json:"error,omitempty"`
	Metadata Metadata   `json:"metadata,omitempty"`
}

func (BashRequest) OperationKind() Kind                 { return KindBash }
func (r BashRequest) OperationMetadata() Metadata       { return r.Metadata }
func (r BashRequest) requestParams() any                { return r.Params }
func (BashResult) OperationKind() Kind                  { return KindBash }
func (r BashResult) OperationMetadata() Metadata        { return r.Metadata }
func (r BashResult) OperationError() *string            { return r.Error }
func (r BashResult) resultOutput() any                  { return r.Output }

// --- python ---------------------------------------------------------------

// PythonParams is the request shape for a python operation.
type PythonParams struct {
	Code    string `json:"code"`
	Timeout int    `json:"timeout,omitempty"`
}

// PythonOutput is the result shape for a python operation.
type PythonOutput struct {
	Output string `json:"output"`
	Status int    `json:"status"`
}

// PythonRequest is the typed python operation request.
type PythonRequest struct {
	Params   PythonParams `json:"params"`
	Metadata Metadata     `json:"metadata,omitempty"`
}

// PythonResult is the typed python operation result.
type PythonResult struct {
	Output   PythonOutput `json:"result"`
	Error    *string      `json:"error,omitempty"`
	Metadata Metadata     `json:"metadata,omitempty"`
}

func (PythonRequest) OperationKind() Kind           { return KindPython }
func (r PythonRequest) OperationMetadata() Metadata { return r.Metadata }
func (r PythonRequest) requestParams() any          { return r.Params }
func (PythonResult) OperationKind() Kind            { return KindPython }
func (r PythonResult) OperationMetadata() Metadata  { return r.Metadata }
func (r PythonResult) OperationError() *string      { return r.Error }
func (r PythonResult) resultOutput() any            { return r.Output }

// --- generate ---------------------------------------------------------------

// GenerateParams is the request shape for a generate operation — mirrors the
// LLM gateway's request body (spec §6) minus the transport-level api_key and
// stream fields, which the gateway client injects.
type GenerateParams struct {
	Messages        []ChatMessage  `json:"messages"`
	Model           string         `json:"model"`
	Temperature     float64        `json:"temperature"`
	N               int            `json:"n"`
	Functions       []any          `json:"functions,omitempty"`
	FunctionCall    any            `json:"function_call,omitempty"`
	MaxTokens       int            `json:"max_tokens,omitempty"`
	ExtraParameters map[string]any `json:"extra_parameters,omitempty"`
}

// GenerateOutputItem is one normalized completion candidate (spec §6: the
// gateway normalizes a singleton completion into this same shape).
type GenerateOutputItem struct {
	Completion   string        `json:"completion"`
	FunctionCall *FunctionCall `json:"function_call,omitempty"`
	StopReason   string        `json:"stop_reason"`
}

// GenerateOutput is the result shape for a generate operation.
type GenerateOutput struct {
	Outputs []GenerateOutputItem `json:"outputs"`
}

// GenerateRequest is the typed generate operation request.
type GenerateRequest struct {
	Params   GenerateParams `json:"params"`
	Metadata Metadata       `json:"metadata,omitempty"`
}

// GenerateResult is the typed generate operation result.
type GenerateResult struct {
	Output   GenerateOutput `json:"result"`
	Error    *string        `json:"error,omitempty"`
	Metadata Metadata       `json:"metadata,omitempty"`
}

func (GenerateRequest) OperationKind() Kind           { return KindGenerate }
func (r GenerateRequest) OperationMetadata() Metadata { return r.Metadata }
func (r GenerateRequest) requestParams() any          { return r.Params }
func (GenerateResult) OperationKind() Kind            { return KindGenerate }
func (r GenerateResult) OperationMetadata() Metadata  { return r.Metadata }
func (r GenerateResult) OperationError() *string      { return r.Error }
func (r GenerateResult) resultOutput() any            { return r.Output }

// --- submit ---------------------------------------------------------------

// SubmitParams is the request shape for a submit operation: the agent's
// final answer.
type SubmitParams struct {
	Answer string `json:"answer"`
}

// SubmitOutput acknowledges a submission was recorded.
type SubmitOutput struct {
	Accepted bool `json:"accepted"`
}

// SubmitRequest is the typed submit operation request.
type SubmitRequest struct {
	Params   SubmitParams `json:"params"`
	Metadata Metadata     `json:"metadata,omitempty"`
}

// SubmitResult is the typed submit operation result.
type SubmitResult struct {
	Output   SubmitOutput `json:"result"`
	Error    *string      `json:"error,omitempty"`
	Metadata Metadata     `json:"metadata,omitempty"`
}

func (SubmitRequest) OperationKind() Kind           { return KindSubmit }
func (r SubmitRequest) OperationMetadata() Metadata { return r.Metadata }
func (r SubmitRequest) requestParams() any          { return r.Params }
func (SubmitResult) OperationKind() Kind            { return KindSubmit }
func (r SubmitResult) OperationMetadata() Metadata  { return r.Metadata }
func (r SubmitResult) OperationError() *string      { return r.Error }
func (r SubmitResult) resultOutput() any            { return r.Output }

// --- log ---------------------------------------------------------------

// LogParams is the request shape for a plain log operation.
type LogParams struct {
	Message string `json:"message"`
}

// LogOutput acknowledges the log line was recorded.
type LogOutput struct {
	Recorded bool `json:"recorded"`
}

// LogRequest is the typed log operation request.
type LogRequest struct {
	Params   LogParams `json:"params"`
	Metadata Metadata  `json:"metadata,omitempty"`
}

// LogResult is the typed log operation result.
type LogResult struct {
	Output   LogOutput `json:"result"`
	Error    *string   `json:"error,omitempty"`
	Metadata Metadata  `json:"metadata,omitempty"`
}

func (LogRequest) OperationKind() Kind           { return KindLog }
func (r LogRequest) OperationMetadata() Metadata { return r.Metadata }
func (r LogRequest) requestParams() any          { return r.Params }
func (LogResult) OperationKind() Kind            { return KindLog }
func (r LogResult) OperationMetadata() Metadata  { return r.Metadata }
func (r LogResult) OperationError() *string      { return r.Error }
func (r LogResult) resultOutput() any            { return r.Output }

// --- log_with_attributes ----------------------------------------------

// LogWithAttributesParams is the request shape for a styled log line.
// Attributes carries viewer styling hints (e.g. background_color, title)
// that are opaque to the engine (spec §4.J item 2).
type LogWithAttributesParams struct {
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// LogWithAttributesOutput acknowledges the styled log line was recorded.
type LogWithAttributesOutput struct {
	Recorded bool `json:"recorded"`
}

// LogWithAttributesRequest is the typed log_with_attributes request.
type LogWithAttributesRequest struct {
	Params   LogWithAttributesParams `json:"params"`
	Metadata Metadata                `json:"metadata,omitempty"`
}

// LogWithAttributesResult is the typed log_with_attributes result.
type LogWithAttributesResult struct {
	Output   LogWithAttributesOutput `json:"result"`
	Error    *string                 `json:"error,omitempty"`
	Metadata Metadata                `json:"metadata,omitempty"`
}

func (LogWithAttributesRequest) OperationKind() Kind           { return KindLogWithAttributes }
func (r LogWithAttributesRequest) OperationMetadata() Metadata { return r.Metadata }
func (r LogWithAttributesRequest) requestParams() any          { return r.Params }
func (LogWithAttributesResult) OperationKind() Kind            { return KindLogWithAttributes }
func (r LogWithAttributesResult) OperationMetadata() Metadata  { return r.Metadata }
func (r LogWithAttributesResult) OperationError() *string      { return r.Error }
func (r LogWithAttributesResult) resultOutput() any            { return r.Output }

// --- action ---------------------------------------------------------------

// ActionParams is the request shape for an action operation: the function
// call an actor chose to execute, carried forward for subagent/tournament
// bookkeeping (spec GLOSSARY).
type ActionParams struct {
	FunctionCall FunctionCall `json:"function_call"`
}

// ActionOutput acknowledges the action was recorded.
type ActionOutput struct {
	Recorded bool `json:"recorded"`
}

// ActionRequest is the typed action operation request.
type ActionRequest struct {
	Params   ActionParams `json:"params"`
	Metadata Metadata     `json:"metadata,omitempty"`
}

// ActionResult is the typed action operation result.
type ActionResult struct {
	Output   ActionOutput `json:"result"`
	Error    *string      `json:"error,omitempty"`
	Metadata Metadata     `json:"metadata,omitempty"`
}

func (ActionRequest) OperationKind() Kind           { return KindAction }
func (r ActionRequest) OperationMetadata() Metadata { return r.Metadata }
func (r ActionRequest) requestParams() any          { return r.Params }
func (ActionResult) OperationKind() Kind            { return KindAction }
func (r ActionResult) OperationMetadata() Metadata  { return r.Metadata }
func (r ActionResult) OperationError() *string      { return r.Error }
func (r ActionResult) resultOutput() any            { return r.Output }

// --- observation ---------------------------------------------------------

// ObservationParams is the request shape for an observation operation: a
// tool's output being folded back into the transcript.
type ObservationParams struct {
	Content string `json:"content"`
}

// ObservationOutput acknowledges the observation was recorded.
type ObservationOutput struct {
	Recorded bool `json:"recorded"`
}

// ObservationRequest is the typed observation operation request.
type ObservationRequest struct {
	Params   ObservationParams `json:"params"`
	Metadata Metadata          `json:"metadata,omitempty"`
}

// ObservationResult is the typed observation operation result.
type ObservationResult struct {
	Output   ObservationOutput `json:"result"`
	Error    *string           `json:"error,omitempty"`
	Metadata Metadata          `json:"metadata,omitempty"`
}

func (ObservationRequest) OperationKind() Kind           { return KindObservation }
func (r ObservationRequest) OperationMetadata() Metadata { return r.Metadata }
func (r ObservationRequest) requestParams() any          { return r.Params }
func (ObservationResult) OperationKind() Kind            { return KindObservation }
func (r ObservationResult) OperationMetadata() Metadata  { return r.Metadata }
func (r ObservationResult) OperationError() *string      { return r.Error }
func (r ObservationResult) resultOutput() any            { return r.Output }

// --- get_usage ---------------------------------------------------------

// GetUsageParams carries no fields; get_usage reads engine-side state.
type GetUsageParams struct{}

// UsageCounters is the {tokens, actions, time} shape shared by the
// checkpoint, usage, and usageLimits fields of GetUsageOutput.
type UsageCounters struct {
	Tokens  int     `json:"tokens"`
	Actions int     `json:"actions"`
	Time    float64 `json:"time"`
}

// GetUsageOutput is the result shape for a get_usage operation, adopted
// verbatim from original_source/type_defs/operations.py.
type GetUsageOutput struct {
	Checkpoint  UsageCounters `json:"checkpoint"`
	Usage       UsageCounters `json:"usage"`
	UsageLimits UsageCounters `json:"usageLimits"` //nolint:tagliatelle // matches the source field name.
}

// GetUsageRequest is the typed get_usage operation request.
type GetUsageRequest struct {
	Params   GetUsageParams `json:"params"`
	Metadata Metadata       `json:"metadata,omitempty"`
}

// GetUsageResult is the typed get_usage operation result.
type GetUsageResult struct {
	Output   GetUsageOutput `json:"result"`
	Error    *string        `json:"error,omitempty"`
	Metadata Metadata       `json:"metadata,omitempty"`
}

func (GetUsageRequest) OperationKind() Kind           { return KindGetUsage }
func (r GetUsageRequest) OperationMetadata() Metadata { return r.Metadata }
func (r GetUsageRequest) requestParams() any          { return r.Params }
func (GetUsageResult) OperationKind() Kind            { return KindGetUsage }
func (r GetUsageResult) OperationMetadata() Metadata  { return r.Metadata }
func (r GetUsageResult) OperationError() *string      { return r.Error }
func (r GetUsageResult) resultOutput() any            { return r.Output }

// --- get_task ---------------------------------------------------------

// GetTaskParams carries no fields; get_task reads the task provider.
type GetTaskParams struct{}

// GetTaskOutput is the result shape for a get_task operation, consumed by
// state.SetFromTaskAndUsage (spec §4.H).
type GetTaskOutput struct {
	TaskString string      `json:"task_string"`
	Scoring    ScoringInfo `json:"scoring"`
}

// GetTaskRequest is the typed get_task operation request.
type GetTaskRequest struct {
	Params   GetTaskParams `json:"params"`
	Metadata Metadata      `json:"metadata,omitempty"`
}

// GetTaskResult is the typed get_task operation result.
type GetTaskResult struct {
	Output   GetTaskOutput `json:"result"`
	Error    *string       `json:"error,omitempty"`
	Metadata Metadata      `json:"metadata,omitempty"`
}

func (GetTaskRequest) OperationKind() Kind           { return KindGetTask }
func (r GetTaskRequest) OperationMetadata() Metadata { return r.Metadata }
func (r GetTaskRequest) requestParams() any          { return r.Params }
func (GetTaskResult) OperationKind() Kind            { return KindGetTask }
func (r GetTaskResult) OperationMetadata() Metadata  { return r.Metadata }
func (r GetTaskResult) OperationError() *string      { return r.Error }
func (r GetTaskResult) resultOutput() any            { return r.Output }

// --- save_state ---------------------------------------------------------

// SaveStateParams carries no fields; the engine injects this operation at
// the end of every batch (spec §4.F item 3).
type SaveStateParams struct{}

// SaveStateOutput records where the diagnostic snapshot was written.
type SaveStateOutput struct {
	SnapshotPath string `json:"snapshot_path"`
	Timestamp    string `json:"timestamp"`
}

// SaveStateRequest is the typed save_state operation request.
type SaveStateRequest struct {
	Params   SaveStateParams `json:"params"`
	Metadata Metadata        `json:"metadata,omitempty"`
}

// SaveStateResult is the typed save_state operation result.
type SaveStateResult struct {
	Output   SaveStateOutput `json:"result"`
	Error    *string         `json:"error,omitempty"`
	Metadata Metadata        `json:"metadata,omitempty"`
}

func (SaveStateRequest) OperationKind() Kind           { return KindSaveState }
func (r SaveStateRequest) OperationMetadata() Metadata { return r.Metadata }
func (r SaveStateRequest) requestParams() any          { return r.Params }
func (SaveStateResult) OperationKind() Kind            { return KindSaveState }
func (r SaveStateResult) OperationMetadata() Metadata  { return r.Metadata }
func (r SaveStateResult) OperationError() *string      { return r.Error }
func (r SaveStateResult) resultOutput() any            { return r.Output }

// --- score ---------------------------------------------------------------

// ScoreParams carries no fields; score reads current state to compute a
// task-provided score.
type ScoreParams struct{}

// ScoreOutput is the result shape for a score operation.
type ScoreOutput struct {
	Score   float64 `json:"score"`
	Message string  `json:"message,omitempty"`
}

// ScoreRequest is the typed score operation request.
type ScoreRequest struct {
	Params   ScoreParams `json:"params"`
	Metadata Metadata    `json:"metadata,omitempty"`
}

// ScoreResult is the typed score operation result.
type ScoreResult struct {
	Output   ScoreOutput `json:"result"`
	Error    *string     `json:"error,omitempty"`
	Metadata Metadata    `json:"metadata,omitempty"`
}

func (ScoreRequest) OperationKind() Kind           { return KindScore }
func (r ScoreRequest) OperationMetadata() Metadata { return r.Metadata }
func (r ScoreRequest) requestParams() any          { return r.Params }
func (ScoreResult) OperationKind() Kind            { return KindScore }
func (r ScoreResult) OperationMetadata() Metadata  { return r.Metadata }
func (r ScoreResult) OperationError() *string      { return r.Error }
func (r ScoreResult) resultOutput() any            { return r.Output }

// --- score_log ---------------------------------------------------------

// ScoreLogParams is the request shape for a scoring-related log line.
type ScoreLogParams struct {
	Message string `json:"message"`
}

// ScoreLogOutput acknowledges the scoring log line was recorded.
type ScoreLogOutput struct {
	Recorded bool `json:"recorded"`
}

// ScoreLogRequest is the typed score_log operation request.
type ScoreLogRequest struct {
	Params   ScoreLogParams `json:"params"`
	Metadata Metadata       `json:"metadata,omitempty"`
}

// ScoreLogResult is the typed score_log operation result.
type ScoreLogResult struct {
	Output   ScoreLogOutput `json:"result"`
	Error    *string        `json:"error,omitempty"`
	Metadata Metadata       `json:"metadata,omitempty"`
}

func (ScoreLogRequest) OperationKind() Kind           { return KindScoreLog }
func (r ScoreLogRequest) OperationMetadata() Metadata { return r.Metadata }
func (r ScoreLogRequest) requestParams() any          { return r.Params }
func (ScoreLogResult) OperationKind() Kind            { return KindScoreLog }
func (r ScoreLogResult) OperationMetadata() Metadata  { return r.Metadata }
func (r ScoreLogResult) OperationError() *string      { return r.Error }
func (r ScoreLogResult) resultOutput() any            { return r.Output }

// --- init_workflow ---------------------------------------------------------

// InitWorkflowParams carries no fields; init_workflow is synthesized by
// /start_workflow, never emitted by a phase (spec §4.F).
type InitWorkflowParams struct{}

// InitWorkflowOutput is the synthetic "previous result" /start_workflow
// constructs so the first phase sees a uniform shape (spec §4.F).
type InitWorkflowOutput struct {
	SettingsPath string `json:"settings_path"`
	WorkflowType string `json:"workflow_type"`
}

// InitWorkflowRequest is the typed init_workflow operation request.
type InitWorkflowRequest struct {
	Params   InitWorkflowParams `json:"params"`
	Metadata Metadata           `json:"metadata,omitempty"`
}

// InitWorkflowResult is the typed init_workflow operation result.
type InitWorkflowResult struct {
	Output   InitWorkflowOutput `json:"result"`
	Error    *string            `json:"error,omitempty"`
	Metadata Metadata           `json:"metadata,omitempty"`
}

func (InitWorkflowRequest) OperationKind() Kind           { return KindInitWorkflow }
func (r InitWorkflowRequest) OperationMetadata() Metadata { return r.Metadata }
func (r InitWorkflowRequest) requestParams() any          { return r.Params }
func (InitWorkflowResult) OperationKind() Kind            { return KindInitWorkflow }
func (r InitWorkflowResult) OperationMetadata() Metadata  { return r.Metadata }
func (r InitWorkflowResult) OperationError() *string      { return r.Error }
func (r InitWorkflowResult) resultOutput() any            { return r.Output }
