package state

import (
	"encoding/json"
	"fmt"
)

// Kind names the state document's settings variant (spec §9 "State
// variants"). The source carries a free-text `state_model` field; here it is
// a closed tag on a sum type instead.
type Kind string

// The two workflow settings variants (spec §6).
const (
	KindModular  Kind = "modular"
	KindTriframe Kind = "triframe"
)

// ModelSpec names one model configuration entry used across generator/
// advisor/actor/rater lists (spec §6, original_source/flock/type_defs/states.py).
type ModelSpec struct {
	Model              string  `json:"model"`
	Temp               float64 `json:"temp"`
	N                  int     `json:"n,omitempty"`
	MaxTokens          int     `json:"max_tokens,omitempty"`
	MaxReasoningTokens int     `json:"max_reasoning_tokens,omitempty"`
}

// ModularSettings is the "modular" workflow's settings document (spec §6):
// a single generator plus scoring/limit configuration.
type ModularSettings struct {
	Generator           ModelSpec `json:"generator"`
	LimitType           string    `json:"limit_type"`
	IntermediateScoring bool      `json:"intermediate_scoring"`
}

// TriframeSettings is the "triframe" workflow's settings document (spec §6):
// advisor/actor/rater model pools plus feature toggles.
type TriframeSettings struct {
	Advisors            []ModelSpec `json:"advisors"`
	Actors              []ModelSpec `json:"actors"`
	Raters              []ModelSpec `json:"raters"`
	LimitType           string      `json:"limit_type"`
	IntermediateScoring bool        `json:"intermediate_scoring"`
	RequireFunctionCall bool        `json:"require_function_call"`
	EnableAdvising      bool        `json:"enable_advising"`
	EnableToolUse       bool        `json:"enable_tool_use"`
	EnableXML           bool        `json:"enable_xml"`
}

// Settings is the AgentState.Settings sum type: Kind selects which of
// Modular/Triframe is populated. The engine itself never interprets the
// nested document beyond the Kind tag (spec §6 "the engine does not parse
// these") — phases read the concrete variant.
type Settings struct {
	Kind     Kind              `json:"kind"`
	Modular  *ModularSettings  `json:"modular,omitempty"`
	Triframe *TriframeSettings `json:"triframe,omitempty"`
}

// MarshalJSON encodes Settings flatly: `{"kind": ..., <variant fields>}`
// rather than nesting under "modular"/"triframe", matching how a settings
// file on disk looks (spec §6 gives the modular/triframe shapes directly).
func (s Settings) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case KindModular:
		if s.Modular == nil {
			return nil, fmt.Errorf("state: Settings kind %q requires Modular", s.Kind)
		}
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			ModularSettings
		}{Kind: s.Kind, ModularSettings: *s.Modular})
	case KindTriframe:
		if s.Triframe == nil {
			return nil, fmt.Errorf("state: Settings kind %q requires Triframe", s.Kind)
		}
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
			TriframeSettings
		}{Kind: s.Kind, TriframeSettings: *s.Triframe})
	case "":
		return json.Marshal(struct {
			Kind Kind `json:"kind"`
		}{Kind: s.Kind})
	default:
		return nil, fmt.Errorf("state: unknown Settings kind %q", s.Kind)
	}
}

// UnmarshalJSON decodes Settings, materializing the concrete variant named
// by "kind".
func (s *Settings) UnmarshalJSON(data []byte) error {
	var tag struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return fmt.Errorf("state: decode settings kind: %w", err)
	}
	s.Kind = tag.Kind
	switch tag.Kind {
	case KindModular:
		var m ModularSettings
		if err := json.Unmarshal(data, &m); err != nil {
			return fmt.Errorf("state: decode modular settings: %w", err)
		}
		s.Modular = &m
	case KindTriframe:
		var t TriframeSettings
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("state: decode triframe settings: %w", err)
		}
		s.Triframe = &t
	case "":
		// Settings omitted entirely (e.g. before the first phase populates
		// it from the settings file) — leave both variants nil.
	default:
		return fmt.Errorf("state: unknown settings kind %q", tag.Kind)
	}
	return nil
}
