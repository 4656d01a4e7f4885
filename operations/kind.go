// Package operations defines the closed taxonomy of operation request/result
// variants (spec §3, §4.B): bash, python, generate, submit, log,
// log_with_attributes, action, observation, get_usage, get_task, save_state,
// score, score_log, and init_workflow. Each variant pairs a typed params
// record (validated on ingress) with a typed output record (validated on
// egress); BaseOperationRequest/BaseOperationResult are represented by the
// Request/Result interfaces plus the Marshal/Unmarshal helpers in json.go.
package operations

// Kind is the closed set of operation variants named in spec §3.
type Kind string

// The closed operation taxonomy. No other Kind values are valid.
const (
	KindBash               Kind = "bash"
	KindPython             Kind = "python"
	KindGenerate           Kind = "generate"
	KindSubmit             Kind = "submit"
	KindLog                Kind = "log"
	KindLogWithAttributes  Kind = "log_with_attributes"
	KindAction             Kind = "action"
	KindObservation        Kind = "observation"
	KindGetUsage           Kind = "get_usage"
	KindGetTask            Kind = "get_task"
	KindSaveState          Kind = "save_state"
	KindScore              Kind = "score"
	KindScoreLog           Kind = "score_log"
	KindInitWorkflow       Kind = "init_workflow"
)

// Kinds lists every variant in the closed taxonomy, in the order spec §3
// enumerates them.
var Kinds = []Kind{
	KindBash, KindPython, KindGenerate, KindSubmit, KindLog,
	KindLogWithAttributes, KindAction, KindObservation, KindGetUsage,
	KindGetTask, KindSaveState, KindScore, KindScoreLog, KindInitWorkflow,
}

// Valid reports whether k is a member of the closed taxonomy.
func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}
