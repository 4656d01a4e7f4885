package state

import "github.com/poking-agents/flock-public/operations"

// AppendNode appends node to Nodes, stamping it with the state's current
// usage counters as the point-in-time snapshot spec §3 describes ("usage
// counters on a node are the snapshot at the moment the node was added").
// Callers should not set TokenUsage/ActionsUsage/TimeUsage on node — they
// are overwritten here.
func (s *AgentState) AppendNode(node Node) {
	node.TokenUsage = s.TokenUsage
	node.ActionsUsage = s.ActionsUsage
	node.TimeUsage = s.TimeUsage
	s.Nodes = append(s.Nodes, node)
}

// UpdateUsageFromResults scans pairs for the most recent get_usage result
// and rewrites TokenUsage/ActionsUsage/TimeUsage from its Usage field, then
// restamps the trailing node's snapshot to match (spec §4.H). It is a no-op
// if pairs carries no get_usage result.
func (s *AgentState) UpdateUsageFromResults(pairs []ResultPair) {
	for i := len(pairs) - 1; i >= 0; i-- {
		usage, ok := pairs[i].Result.(operations.GetUsageResult)
		if !ok {
			continue
		}
		s.TokenUsage = usage.Output.Usage.Tokens
		s.ActionsUsage = usage.Output.Usage.Actions
		s.TimeUsage = usage.Output.Usage.Time
		if n := len(s.Nodes); n > 0 {
			s.Nodes[n-1].TokenUsage = s.TokenUsage
			s.Nodes[n-1].ActionsUsage = s.ActionsUsage
			s.Nodes[n-1].TimeUsage = s.TimeUsage
		}
		return
	}
}

// SetFromTaskAndUsage initializes TaskString, Scoring, and the three limits
// from a get_task and a get_usage result (spec §4.H).
func (s *AgentState) SetFromTaskAndUsage(task operations.GetTaskOutput, usage operations.GetUsageOutput) {
	s.TaskString = task.TaskString
	s.Scoring = task.Scoring
	s.TokenLimit = usage.UsageLimits.Tokens
	s.ActionsLimit = usage.UsageLimits.Actions
	s.TimeLimit = usage.UsageLimits.Time
}

// AppendResultBatch appends one phase's (request, result) pairs as the next
// entry of PreviousResults, tagged with the phase name that produced it
// (spec §9's produced_by_phase resolution of the previous_results[-1]/[-2]
// open question).
func (s *AgentState) AppendResultBatch(phase string, pairs []ResultPair) {
	s.PreviousResults = append(s.PreviousResults, ResultBatch{
		ProducedByPhase: phase,
		Pairs:           pairs,
	})
}

// LatestResultBatch returns the most recently appended batch ("what just
// happened" per spec §3), or the zero value and false if none exists yet.
func (s *AgentState) LatestResultBatch() (ResultBatch, bool) {
	if len(s.PreviousResults) == 0 {
		return ResultBatch{}, false
	}
	return s.PreviousResults[len(s.PreviousResults)-1], true
}

// ResultBatchByPhase returns the most recent batch produced by the named
// phase, scanning from the end. Application phases should prefer this over
// a fixed negative index into PreviousResults (spec §9).
func (s *AgentState) ResultBatchByPhase(phase string) (ResultBatch, bool) {
	for i := len(s.PreviousResults) - 1; i >= 0; i-- {
		if s.PreviousResults[i].ProducedByPhase == phase {
			return s.PreviousResults[i], true
		}
	}
	return ResultBatch{}, false
}
