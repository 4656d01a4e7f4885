package handlers

import (
	"sync"

	"github.com/poking-agents/flock-public/operations"
)

// SimCounters accumulates SIMULATED-mode usage per state (spec §9 "Global
// counters" design note): rather than one process-wide mutable global — the
// source's approach — each AgentState gets its own SimCounters instance
// threaded through Deps, so concurrent workflows never share or race on
// counters that belong to different states.
type SimCounters struct {
	mu      sync.Mutex
	tokens  int
	actions int
	time    float64
}

// NewSimCounters returns a zeroed SimCounters.
func NewSimCounters() *SimCounters {
	return &SimCounters{}
}

// AddTokens adds n to the running token count.
func (c *SimCounters) AddTokens(n int) {
	c.mu.Lock()
	c.tokens += n
	c.mu.Unlock()
}

// AddAction increments the action count by one.
func (c *SimCounters) AddAction() {
	c.mu.Lock()
	c.actions++
	c.mu.Unlock()
}

// AddTime adds seconds to the running time count.
func (c *SimCounters) AddTime(seconds float64) {
	c.mu.Lock()
	c.time += seconds
	c.mu.Unlock()
}

// Snapshot returns the current counters as a GetUsageOutput, with
// UsageLimits left zero — a SIMULATED run has no externally imposed limit.
func (c *SimCounters) Snapshot() operations.GetUsageOutput {
	c.mu.Lock()
	defer c.mu.Unlock()
	counters := operations.UsageCounters{Tokens: c.tokens, Actions: c.actions, Time: c.time}
	return operations.GetUsageOutput{Checkpoint: counters, Usage: counters}
}
