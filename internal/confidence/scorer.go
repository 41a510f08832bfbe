// Package confidence scores how well-specified a work unit is, on a
// [0,100] scale built from six weighted factors, and classifies the
// result into a questioning phase.
//
// Scoring never fails: missing or empty inputs floor the affected
// factor at 0. The scorer itself is a pure function of its explicit
// inputs; the only mutable state is the passed-in pattern History.
package confidence

import (
	"fmt"
	"math"
	"strings"

	"github.com/HendryAvila/shardy/internal/task"
)

// Phase is the discrete questioning stage derived from a confidence
// score, indicating how much clarification is still warranted.
type Phase string

// Questioning phases, from least to most confident.
const (
	PhaseTriage      Phase = "triage"
	PhaseExploration Phase = "exploration"
	PhaseEdgeCases   Phase = "edge_cases"
	PhaseValidation  Phase = "validation"
	PhaseComplete    Phase = "complete"
)

// Classify maps an overall score to its questioning phase. Boundaries
// are half-open low: exactly 30 is already exploration.
func Classify(overall float64) Phase {
	switch {
	case overall < 30:
		return PhaseTriage
	case overall < 60:
		return PhaseExploration
	case overall < 80:
		return PhaseEdgeCases
	case overall < 95:
		return PhaseValidation
	default:
		return PhaseComplete
	}
}

// Factors holds the six named scores, each in [0,100].
type Factors struct {
	RequirementsClarity  float64 `json:"requirements_clarity"`
	TestCoverageDefined  float64 `json:"test_coverage_defined"`
	AmbiguityClarity     float64 `json:"ambiguity_clarity"`
	ContextCompleteness  float64 `json:"context_completeness"`
	DependenciesResolved float64 `json:"dependencies_resolved"`
	PatternSimilarity    float64 `json:"pattern_similarity"`
}

// Weights is the convex combination applied to the factors. The six
// values must sum to exactly 1.0.
type Weights struct {
	RequirementsClarity  float64 `json:"requirements_clarity"`
	TestCoverageDefined  float64 `json:"test_coverage_defined"`
	AmbiguityClarity     float64 `json:"ambiguity_clarity"`
	ContextCompleteness  float64 `json:"context_completeness"`
	DependenciesResolved float64 `json:"dependencies_resolved"`
	PatternSimilarity    float64 `json:"pattern_similarity"`
}

// DefaultWeights returns the fixed policy weights.
func DefaultWeights() Weights {
	return Weights{
		RequirementsClarity:  0.25,
		TestCoverageDefined:  0.20,
		AmbiguityClarity:     0.15,
		ContextCompleteness:  0.20,
		DependenciesResolved: 0.10,
		PatternSimilarity:    0.10,
	}
}

// Sum returns the total of all six weights.
func (w Weights) Sum() float64 {
	return w.RequirementsClarity + w.TestCoverageDefined + w.AmbiguityClarity +
		w.ContextCompleteness + w.DependenciesResolved + w.PatternSimilarity
}

// Context describes the context available to a unit when it is scored.
// It mirrors the shape of an assembled context packet without depending
// on the assembler.
type Context struct {
	// Embedded reports whether the context is fully materialized.
	Embedded bool `json:"embedded"`
	// Size is the context's line count.
	Size int `json:"size"`
	// Optional extended sub-lists.
	Patterns            []string `json:"patterns,omitempty"`
	HistoricalDecisions []string `json:"historical_decisions,omitempty"`
	EdgeCases           []string `json:"edge_cases,omitempty"`
	// Source is the provenance of the context (shard identity).
	Source string `json:"source,omitempty"`
	// DependenciesResolved reports whether the unit's declared
	// dependencies have been resolved.
	DependenciesResolved bool `json:"dependencies_resolved"`
}

// Result is the full output of one confidence computation.
type Result struct {
	Overall          float64  `json:"overall"`
	Factors          Factors  `json:"factors"`
	Weights          Weights  `json:"weights"`
	Recommendations  []string `json:"recommendations"`
	QuestioningPhase Phase    `json:"questioning_phase"`
}

// Config holds the scorer's tunable policy parameters.
type Config struct {
	// AmbiguityScale converts vague-word density into an ambiguity
	// score. 2000 encodes the policy that a density above ~5% already
	// reads as maximally ambiguous.
	AmbiguityScale float64
	Weights        Weights
}

// DefaultConfig returns the standard scoring configuration.
func DefaultConfig() Config {
	return Config{
		AmbiguityScale: 2000,
		Weights:        DefaultWeights(),
	}
}

// Scorer computes confidence results against a fixed configuration and
// an explicitly owned pattern history.
type Scorer struct {
	cfg     Config
	history *History
}

// New creates a Scorer, failing fast on invalid configuration. A nil
// history is replaced with an empty one.
func New(cfg Config, history *History) (*Scorer, error) {
	if cfg.AmbiguityScale <= 0 {
		return nil, fmt.Errorf("confidence: ambiguity scale must be positive, got %v", cfg.AmbiguityScale)
	}
	if sum := cfg.Weights.Sum(); math.Abs(sum-1.0) > 1e-9 {
		return nil, fmt.Errorf("confidence: weights must sum to 1.0, got %v", sum)
	}
	if history == nil {
		history = NewHistory()
	}
	return &Scorer{cfg: cfg, history: history}, nil
}

// AddToHistory records a task/solution pattern for later similarity
// matching. Single-writer semantics apply; see History.
func (s *Scorer) AddToHistory(p Pattern) {
	s.history.Add(p)
}

// Compute scores a work unit against its available context.
func (s *Scorer) Compute(unit task.WorkUnit, ctx Context) Result {
	f := Factors{
		RequirementsClarity:  scoreRequirements(unit),
		TestCoverageDefined:  scoreTestCoverage(unit),
		AmbiguityClarity:     s.scoreAmbiguityClarity(unit),
		ContextCompleteness:  scoreContextCompleteness(ctx),
		DependenciesResolved: scoreDependencies(unit, ctx),
		PatternSimilarity:    s.scorePatternSimilarity(unit),
	}

	w := s.cfg.Weights
	overall := f.RequirementsClarity*w.RequirementsClarity +
		f.TestCoverageDefined*w.TestCoverageDefined +
		f.AmbiguityClarity*w.AmbiguityClarity +
		f.ContextCompleteness*w.ContextCompleteness +
		f.DependenciesResolved*w.DependenciesResolved +
		f.PatternSimilarity*w.PatternSimilarity
	overall = clamp(overall)

	return Result{
		Overall:          overall,
		Factors:          f,
		Weights:          w,
		Recommendations:  recommend(f),
		QuestioningPhase: Classify(overall),
	}
}

// ─── Factor computation ──────────────────────────────────────────────────────

// Scoring policy constants. The per-requirement technical-token bonus
// exceeds the acceptance-ratio bonus so that adding a technical
// requirement can never lower the factor.
const (
	reqBase           = 40.0
	reqLengthBonus    = 3.0 // requirement longer than 50 chars
	reqTechBonus      = 12.0
	reqNumericBonus   = 3.0
	reqAcceptanceFlat = 10.0 // acceptance criteria cover >= half the requirements

	testBase          = 40.0
	testTermBonus     = 8.0
	testTermBonusCap  = 40.0
	testPerCriterion  = 4.0
	testCriterionCap  = 20.0

	ctxEmbeddedBase   = 60.0
	ctxSizeStep       = 10.0 // at >=200 and >=500 lines
	ctxSizeLargeStep  = 5.0  // at >=1000 lines
	ctxPerSublist     = 4.0
	ctxSourceBonus    = 3.0
	ctxResolvedBonus  = 5.0

	similarityNovel = 10.0
	maxKeywords     = 10
)

func scoreRequirements(u task.WorkUnit) float64 {
	if len(u.Requirements) == 0 {
		return 0
	}

	score := reqBase
	for _, r := range u.Requirements {
		if len(r) > 50 {
			score += reqLengthBonus
		}
		if containsTerm(r, technicalTerms) {
			score += reqTechBonus
		}
		if strings.ContainsAny(r, "0123456789") {
			score += reqNumericBonus
		}
	}
	if len(u.AcceptanceCriteria)*2 >= len(u.Requirements) && len(u.AcceptanceCriteria) > 0 {
		score += reqAcceptanceFlat
	}
	return clamp(score)
}

func scoreTestCoverage(u task.WorkUnit) float64 {
	if strings.TrimSpace(u.TestStrategy) == "" {
		return 0
	}

	score := testBase

	termBonus := 0.0
	seen := make(map[string]bool)
	for _, w := range words(u.TestStrategy) {
		if testingTerms[w] && !seen[w] {
			seen[w] = true
			termBonus += testTermBonus
		}
	}
	score += math.Min(termBonus, testTermBonusCap)
	score += math.Min(float64(len(u.AcceptanceCriteria))*testPerCriterion, testCriterionCap)

	return clamp(score)
}

// scoreAmbiguityClarity computes vague-word density across all unit
// text, scales it, and reports the inverse.
func (s *Scorer) scoreAmbiguityClarity(u task.WorkUnit) float64 {
	all := words(u.AllText())
	if len(all) == 0 {
		return 0
	}

	vague := 0
	for _, w := range all {
		if vagueTerms[w] {
			vague++
		}
	}

	ambiguity := clamp(float64(vague) / float64(len(all)) * s.cfg.AmbiguityScale)
	return 100 - ambiguity
}

func scoreContextCompleteness(ctx Context) float64 {
	score := 0.0
	if ctx.Embedded {
		score += ctxEmbeddedBase
	}
	if ctx.Size >= 200 {
		score += ctxSizeStep
	}
	if ctx.Size >= 500 {
		score += ctxSizeStep
	}
	if ctx.Size >= 1000 {
		score += ctxSizeLargeStep
	}
	for _, list := range [][]string{ctx.Patterns, ctx.HistoricalDecisions, ctx.EdgeCases} {
		if len(list) > 0 {
			score += ctxPerSublist
		}
	}
	if ctx.Source != "" {
		score += ctxSourceBonus
	}
	if ctx.DependenciesResolved {
		score += ctxResolvedBonus
	}
	return clamp(score)
}

// scoreDependencies is binary, not graded: a unit with no declared
// dependencies, or with its resolution flag set, scores 100.
func scoreDependencies(u task.WorkUnit, ctx Context) float64 {
	if len(u.Dependencies) == 0 || ctx.DependenciesResolved {
		return 100
	}
	return 0
}

func (s *Scorer) scorePatternSimilarity(u task.WorkUnit) float64 {
	if s.history.Len() == 0 {
		return similarityNovel
	}

	keywords := extractKeywords(u)
	if len(keywords) == 0 {
		return similarityNovel
	}

	best := 0.0
	for _, p := range s.history.patterns {
		tokens := make(map[string]bool)
		for _, t := range words(p.TaskType) {
			tokens[t] = true
		}
		overlap := 0
		for _, k := range keywords {
			if tokens[k] {
				overlap++
			}
		}
		score := float64(overlap) / float64(len(keywords)) * 100 * p.SuccessRate
		if score > best {
			best = score
		}
	}
	return clamp(best)
}

// extractKeywords pulls up to maxKeywords significant tokens (length
// over 3, stop words removed) from a unit's title and requirements.
func extractKeywords(u task.WorkUnit) []string {
	text := u.Title + " " + strings.Join(u.Requirements, " ")

	var keywords []string
	seen := make(map[string]bool)
	for _, w := range words(text) {
		if len(w) <= 3 || stopWords[w] || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

// ─── Recommendations ─────────────────────────────────────────────────────────

// factorAdvice pairs a factor threshold with its fixed advisory string.
// Emitted in fixed factor order.
var factorAdvice = []struct {
	threshold float64
	value     func(Factors) float64
	advice    string
}{
	{60, func(f Factors) float64 { return f.RequirementsClarity },
		"Requirements are thin — add measurable, technical detail to each requirement."},
	{60, func(f Factors) float64 { return f.TestCoverageDefined },
		"Define a test strategy: name the test types and tie them to acceptance criteria."},
	{70, func(f Factors) float64 { return f.AmbiguityClarity },
		"Reword vague language (improve, some, better) into concrete, verifiable statements."},
	{60, func(f Factors) float64 { return f.ContextCompleteness },
		"Embed more context for this unit: patterns, historical decisions, and edge cases."},
	{100, func(f Factors) float64 { return f.DependenciesResolved },
		"Resolve declared dependencies before implementation begins."},
	{30, func(f Factors) float64 { return f.PatternSimilarity },
		"No similar prior work found — budget extra exploration time."},
}

func recommend(f Factors) []string {
	var out []string
	for _, a := range factorAdvice {
		if a.value(f) < a.threshold {
			out = append(out, a.advice)
		}
	}
	return out
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// words lowercases text and splits it into punctuation-stripped tokens.
func words(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,;:!?\"'()[]{}")
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func containsTerm(text string, terms map[string]bool) bool {
	for _, w := range words(text) {
		if terms[w] {
			return true
		}
	}
	return false
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
