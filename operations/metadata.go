package operations

import "encoding/json"

// Metadata is the free-form bag carried on every request/result, with a
// handful of reserved keys rating/tournament phases give fixed meaning to
// (spec §3): purpose, phase, state_id, tournament_id, round_number,
// match_index, agent_ids. The engine itself never interprets these — it only
// needs Phase and StateID for logging and event-sink tagging.
type Metadata map[string]any

// Purpose returns the reserved "purpose" key, or "" if absent or not a string.
func (m Metadata) Purpose() string { return m.str("purpose") }

// Phase returns the reserved "phase" key.
func (m Metadata) Phase() string { return m.str("phase") }

// StateID returns the reserved "state_id" key.
func (m Metadata) StateID() string { return m.str("state_id") }

// TournamentID returns the reserved "tournament_id" key.
func (m Metadata) TournamentID() string { return m.str("tournament_id") }

// RoundNumber returns the reserved "round_number" key, or 0 if absent.
func (m Metadata) RoundNumber() int { return m.int("round_number") }

// MatchIndex returns the reserved "match_index" key, or 0 if absent.
func (m Metadata) MatchIndex() int { return m.int("match_index") }

// AgentIDs returns the reserved "agent_ids" key as a string slice.
func (m Metadata) AgentIDs() []string {
	v, ok := m["agent_ids"]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(raw))
	for _, e := range raw {
		if s, ok := e.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids
}

// WithPhase returns a copy of m with the reserved "phase" key set.
func (m Metadata) WithPhase(phase string) Metadata {
	cp := m.clone()
	cp["phase"] = phase
	return cp
}

// WithStateID returns a copy of m with the reserved "state_id" key set.
func (m Metadata) WithStateID(stateID string) Metadata {
	cp := m.clone()
	cp["state_id"] = stateID
	return cp
}

func (m Metadata) clone() Metadata {
	cp := make(Metadata, len(m)+1)
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func (m Metadata) str(key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

func (m Metadata) int(key string) int {
	v, ok := m[key]
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case json.Number:
		i, _ := n.Int64()
		return int(i)
	default:
		return 0
	}
}
