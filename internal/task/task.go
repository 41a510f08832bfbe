// Package task defines the work-unit records consumed by the scoring and
// assembly pipeline. Units are owned by an external task-definition
// collaborator and arrive as small structured JSON records; this package
// only decodes and validates them.
package task

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Complexity levels recognized on a work unit.
const (
	ComplexityLow    = "low"
	ComplexityMedium = "medium"
	ComplexityHigh   = "high"
)

// Unit types with confidence-policy significance. Any other type string
// is accepted and treated neutrally.
const (
	TypeFeature  = "feature"
	TypeResearch = "research"
)

// WorkUnit is one atomic, independently schedulable piece of
// implementation work.
type WorkUnit struct {
	ID                 string   `json:"id"`
	Title              string   `json:"title"`
	Requirements       []string `json:"requirements"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	TestStrategy       string   `json:"test_strategy"`
	Dependencies       []string `json:"dependencies"`

	// ShardID names the unit's matched shard; resolution strictness is
	// an assembler policy decision.
	ShardID string `json:"shard_id,omitempty"`

	// Complexity is one of low/medium/high; empty reads as medium.
	Complexity string `json:"complexity,omitempty"`
	// Type is a free-form unit kind; "feature" and "research" carry
	// confidence-policy weight.
	Type string `json:"type,omitempty"`
}

// AllText concatenates every textual field of the unit, for word-level
// analysis such as ambiguity density.
func (u WorkUnit) AllText() string {
	parts := make([]string, 0, 2+len(u.Requirements)+len(u.AcceptanceCriteria))
	parts = append(parts, u.Title)
	parts = append(parts, u.Requirements...)
	parts = append(parts, u.AcceptanceCriteria...)
	if u.TestStrategy != "" {
		parts = append(parts, u.TestStrategy)
	}
	return strings.Join(parts, " ")
}

// DecodeUnits parses a JSON array of work units and validates the
// fields the pipeline cannot work without.
func DecodeUnits(data []byte) ([]WorkUnit, error) {
	var units []WorkUnit
	if err := json.Unmarshal(data, &units); err != nil {
		return nil, fmt.Errorf("task: parsing units: %w", err)
	}
	for i, u := range units {
		if strings.TrimSpace(u.ID) == "" {
			return nil, fmt.Errorf("task: unit %d has no id", i)
		}
		if strings.TrimSpace(u.Title) == "" {
			return nil, fmt.Errorf("task: unit %q has no title", u.ID)
		}
	}
	return units, nil
}
