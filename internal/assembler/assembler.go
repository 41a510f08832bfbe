// Package assembler produces one embedded-context packet per work unit,
// processed strictly left-to-right. Packet depth shrinks as a cheap
// pre-confidence rises, and each packet may draw a single, explicitly
// scoped link from its immediate predecessor's packet.
package assembler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/shardy/internal/sharder"
	"github.com/HendryAvila/shardy/internal/task"
)

// ErrNoShardMatch is returned in strict mode when a unit's declared
// shard id matches nothing.
var ErrNoShardMatch = errors.New("assembler: no shard matches unit")

// Config holds the assembler's tunable policy parameters.
type Config struct {
	// BaseConfidence is the pre-confidence starting point.
	BaseConfidence int
	// ComplexityLowDelta / ComplexityHighDelta adjust for the unit's
	// three-level complexity tag (medium is neutral).
	ComplexityLowDelta  int
	ComplexityHighDelta int
	// NoDepsDelta applies when a unit declares zero dependencies;
	// ManyDepsDelta when it declares more than three.
	NoDepsDelta   int
	ManyDepsDelta int
	// FeatureDelta / ResearchDelta adjust for the unit type.
	FeatureDelta  int
	ResearchDelta int
	// ExtendedThreshold: the extended block is embedded only when
	// pre-confidence falls below it.
	ExtendedThreshold int
	// MinSize / MaxSize bound the packet's line count. Extended
	// content is trimmed to respect MaxSize; a packet under MinSize
	// is topped up with shard material when any is available.
	MinSize int
	MaxSize int
	// StrictMatch fails on an unmatched shard id instead of silently
	// falling back to the first shard.
	StrictMatch bool
}

// DefaultConfig returns the standard assembly configuration.
func DefaultConfig() Config {
	return Config{
		BaseConfidence:      70,
		ComplexityLowDelta:  10,
		ComplexityHighDelta: -20,
		NoDepsDelta:         10,
		ManyDepsDelta:       -15,
		FeatureDelta:        5,
		ResearchDelta:       -20,
		ExtendedThreshold:   70,
		MinSize:             10,
		MaxSize:             400,
		StrictMatch:         false,
	}
}

// Core is the block every packet carries: the unit's direct
// requirements, acceptance criteria, and dependency status.
type Core struct {
	Requirements       []string `json:"requirements"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
	DependencyStatus   string   `json:"dependency_status"`
	DependencyNotes    []string `json:"dependency_notes,omitempty"`
}

// Extended is the optional deep-context block, present only below the
// confidence threshold so well-understood units get leaner packets.
type Extended struct {
	Patterns            []string `json:"patterns,omitempty"`
	HistoricalDecisions []string `json:"historical_decisions,omitempty"`
	EdgeCases           []string `json:"edge_cases,omitempty"`
}

// InheritanceLink is a weak, single-hop back-reference to the
// immediately preceding unit's packet: advisory input, never an
// ownership or copy relation.
type InheritanceLink struct {
	UnitID  string `json:"unit_id"`
	ShardID string `json:"shard_id"`
}

// EmbeddedContext is the self-contained information packet attached to
// one work unit.
type EmbeddedContext struct {
	UnitID        string           `json:"unit_id"`
	Core          Core             `json:"core"`
	Extended      *Extended        `json:"extended,omitempty"`
	Inherited     *InheritanceLink `json:"inherited,omitempty"`
	Size          int              `json:"size"` // measured line count of the assembled text
	Source        string           `json:"source"`
	SourceShardID string           `json:"source_shard_id"`
	// PreConfidence decided embedding depth only; it is not the unit's
	// persisted final confidence.
	PreConfidence int    `json:"pre_confidence"`
	Text          string `json:"text"`
}

// Assembler builds embedded-context packets against a fixed, validated
// configuration.
type Assembler struct {
	cfg Config
}

// New creates an Assembler, failing fast on invalid configuration.
func New(cfg Config) (*Assembler, error) {
	if cfg.MinSize < 0 || cfg.MaxSize <= 0 || cfg.MinSize > cfg.MaxSize {
		return nil, fmt.Errorf("assembler: invalid size bounds [%d, %d]", cfg.MinSize, cfg.MaxSize)
	}
	if cfg.ExtendedThreshold < 0 || cfg.ExtendedThreshold > 100 {
		return nil, fmt.Errorf("assembler: extended threshold must be 0-100, got %d", cfg.ExtendedThreshold)
	}
	return &Assembler{cfg: cfg}, nil
}

// ProcessChain assembles one packet per unit, strictly left-to-right:
// unit i's packet may consult unit i-1's but never a later one.
func (a *Assembler) ProcessChain(units []task.WorkUnit, shards []sharder.Shard) ([]EmbeddedContext, error) {
	out := make([]EmbeddedContext, 0, len(units))

	var prev *EmbeddedContext
	for _, u := range units {
		shard, err := a.matchShard(u, shards)
		if err != nil {
			return nil, err
		}
		ec := a.assemble(u, shard, prev)
		out = append(out, ec)
		prev = &out[len(out)-1]
	}
	return out, nil
}

// matchShard resolves a unit's declared shard id. In lenient mode an
// unmatched or empty id degrades to the first shard, trading strict
// correctness for pipeline availability.
func (a *Assembler) matchShard(u task.WorkUnit, shards []sharder.Shard) (*sharder.Shard, error) {
	for i := range shards {
		if shards[i].ID == u.ShardID {
			return &shards[i], nil
		}
	}
	if a.cfg.StrictMatch {
		return nil, fmt.Errorf("%w: unit %q declares shard %q", ErrNoShardMatch, u.ID, u.ShardID)
	}
	if len(shards) == 0 {
		return nil, nil
	}
	return &shards[0], nil
}

// PreConfidence computes the cheap proxy confidence that decides
// embedding depth, independently of the full scorer.
func (a *Assembler) PreConfidence(u task.WorkUnit) int {
	c := a.cfg.BaseConfidence

	switch u.Complexity {
	case task.ComplexityLow:
		c += a.cfg.ComplexityLowDelta
	case task.ComplexityHigh:
		c += a.cfg.ComplexityHighDelta
	}

	if len(u.Dependencies) == 0 {
		c += a.cfg.NoDepsDelta
	} else if len(u.Dependencies) > 3 {
		c += a.cfg.ManyDepsDelta
	}

	switch u.Type {
	case task.TypeFeature:
		c += a.cfg.FeatureDelta
	case task.TypeResearch:
		c += a.cfg.ResearchDelta
	}

	if c < 0 {
		c = 0
	}
	if c > 100 {
		c = 100
	}
	return c
}

// assemble builds one packet. The predecessor's identity feeds the
// embedding decision as context; no field is copied unconditionally.
func (a *Assembler) assemble(u task.WorkUnit, shard *sharder.Shard, prev *EmbeddedContext) EmbeddedContext {
	pre := a.PreConfidence(u)

	ec := EmbeddedContext{
		UnitID:        u.ID,
		PreConfidence: pre,
		Core: Core{
			Requirements:       append([]string(nil), u.Requirements...),
			AcceptanceCriteria: append([]string(nil), u.AcceptanceCriteria...),
			DependencyStatus:   dependencyStatus(u),
			DependencyNotes:    append([]string(nil), u.Dependencies...),
		},
	}
	if shard != nil {
		ec.Source = shard.Filename
		ec.SourceShardID = shard.ID
	}

	// A same-shard predecessor carries no extra scope; the link is
	// recorded only when the predecessor drew on a different shard.
	if prev != nil && prev.SourceShardID != ec.SourceShardID {
		ec.Inherited = &InheritanceLink{UnitID: prev.UnitID, ShardID: prev.SourceShardID}
	}

	if pre < a.cfg.ExtendedThreshold && shard != nil {
		ec.Extended = extractExtended(shard)
	}

	ec.Text = a.render(u, &ec, shard)
	ec.Size = countLines(ec.Text)
	return ec
}

// dependencyStatus summarizes the unit's dependency situation for the
// core block.
func dependencyStatus(u task.WorkUnit) string {
	if len(u.Dependencies) == 0 {
		return "none"
	}
	return fmt.Sprintf("%d declared", len(u.Dependencies))
}

// extractExtended mines the matched shard for deep context: its
// backward dependencies become patterns to follow, its lineage pointer
// becomes a historical decision trail, and its content contributes
// edge-case material.
func extractExtended(shard *sharder.Shard) *Extended {
	ext := &Extended{}

	for _, d := range shard.Boundary.Dependencies {
		ext.Patterns = append(ext.Patterns, "Builds on: "+d)
	}
	for _, inc := range shard.Boundary.Includes {
		ext.HistoricalDecisions = append(ext.HistoricalDecisions, "Preceded by: "+inc)
	}
	for _, r := range shard.Boundary.References {
		ext.EdgeCases = append(ext.EdgeCases, "Interacts with: "+r)
	}
	return ext
}

// render serializes the packet as markdown. Extended shard content is
// trimmed so the total line count respects MaxSize; the core block is
// never trimmed.
func (a *Assembler) render(u task.WorkUnit, ec *EmbeddedContext, shard *sharder.Shard) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Context: %s\n\n", u.Title)

	sb.WriteString("## Requirements\n\n")
	if len(ec.Core.Requirements) == 0 {
		sb.WriteString("_None declared._\n")
	}
	for _, r := range ec.Core.Requirements {
		fmt.Fprintf(&sb, "- %s\n", r)
	}

	sb.WriteString("\n## Acceptance Criteria\n\n")
	if len(ec.Core.AcceptanceCriteria) == 0 {
		sb.WriteString("_None declared._\n")
	}
	for _, c := range ec.Core.AcceptanceCriteria {
		fmt.Fprintf(&sb, "- %s\n", c)
	}

	fmt.Fprintf(&sb, "\n## Dependencies: %s\n\n", ec.Core.DependencyStatus)
	for _, d := range ec.Core.DependencyNotes {
		fmt.Fprintf(&sb, "- %s\n", d)
	}

	if ec.Inherited != nil {
		fmt.Fprintf(&sb, "\n> Carries context from unit %s (shard %s).\n",
			ec.Inherited.UnitID, ec.Inherited.ShardID)
	}

	if ec.Extended != nil {
		sb.WriteString("\n## Extended Context\n\n")
		writeList(&sb, "Patterns", ec.Extended.Patterns)
		writeList(&sb, "Historical Decisions", ec.Extended.HistoricalDecisions)
		writeList(&sb, "Edge Cases", ec.Extended.EdgeCases)

		if shard != nil {
			remaining := a.cfg.MaxSize - countLines(sb.String()) - 3
			if remaining > 0 {
				sb.WriteString("\n### Source Material\n\n")
				sb.WriteString(headLines(shard.Content, remaining))
				sb.WriteString("\n")
			}
		}
	}

	// A lean core-only packet can undershoot the size floor; top it up
	// with shard material so the bounds hold in both directions. Best
	// effort: a shard shorter than the deficit leaves the packet under
	// the floor, since there is nothing left to add.
	if ec.Extended == nil && shard != nil {
		if countLines(sb.String()) < a.cfg.MinSize {
			sb.WriteString("\n### Reference\n\n")
			sb.WriteString(headLines(shard.Content, a.cfg.MinSize-countLines(sb.String())))
			sb.WriteString("\n")
		}
	}

	if ec.Source != "" {
		fmt.Fprintf(&sb, "\n---\nSource: %s\n", ec.Source)
	}

	// The trailer above can overshoot by a few lines; enforce the
	// bound on the final text. Core always renders first, so only
	// extended material is ever cut.
	text := sb.String()
	if countLines(text) > a.cfg.MaxSize {
		text = headLines(text, a.cfg.MaxSize)
	}
	return text
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(sb, "**%s**\n\n", title)
	for _, it := range items {
		fmt.Fprintf(sb, "- %s\n", it)
	}
	sb.WriteString("\n")
}

// headLines returns at most n leading lines of text.
func headLines(text string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= n {
		return text
	}
	return strings.Join(lines[:n], "\n")
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}
