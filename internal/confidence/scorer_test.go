package confidence

import (
	"math"
	"strings"
	"testing"

	"github.com/HendryAvila/shardy/internal/task"
)

func mustScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := New(DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New(DefaultConfig()) failed: %v", err)
	}
	return s
}

// vagueUnit is a deliberately underspecified work unit.
func vagueUnit() task.WorkUnit {
	return task.WorkUnit{
		ID:    "u1",
		Title: "Make the app better",
		Requirements: []string{
			"Improve stuff",
			"Make it fast",
			"Add some features maybe",
		},
	}
}

// --- New ---

func TestNew_RejectsNonPositiveAmbiguityScale(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AmbiguityScale = 0
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("New with zero ambiguity scale should fail")
	}
}

func TestNew_RejectsWeightsNotSummingToOne(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Weights.RequirementsClarity = 0.5
	if _, err := New(cfg, nil); err == nil {
		t.Fatal("New with weights summing past 1.0 should fail")
	}
}

func TestDefaultWeights_SumToOne(t *testing.T) {
	if sum := DefaultWeights().Sum(); math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("default weights sum = %v, want 1.0", sum)
	}
}

// --- Classify ---

func TestClassify_PhaseBoundaries(t *testing.T) {
	cases := []struct {
		overall float64
		want    Phase
	}{
		{0, PhaseTriage},
		{29, PhaseTriage},
		{30, PhaseExploration},
		{59, PhaseExploration},
		{60, PhaseEdgeCases},
		{79, PhaseEdgeCases},
		{80, PhaseValidation},
		{94, PhaseValidation},
		{95, PhaseComplete},
		{100, PhaseComplete},
	}
	for _, c := range cases {
		if got := Classify(c.overall); got != c.want {
			t.Errorf("Classify(%v) = %v, want %v", c.overall, got, c.want)
		}
	}
}

// --- Compute: vague units ---

func TestCompute_VagueUnitScoresLow(t *testing.T) {
	res := mustScorer(t).Compute(vagueUnit(), Context{})

	if res.Overall >= 50 {
		t.Errorf("overall = %v, want < 50 for a vague unit", res.Overall)
	}
	if res.Factors.AmbiguityClarity >= 30 {
		t.Errorf("ambiguity clarity = %v, want < 30", res.Factors.AmbiguityClarity)
	}
	if res.QuestioningPhase != PhaseTriage && res.QuestioningPhase != PhaseExploration {
		t.Errorf("phase = %v, want triage or exploration", res.QuestioningPhase)
	}
}

func TestCompute_EmptyUnitNeverErrors(t *testing.T) {
	res := mustScorer(t).Compute(task.WorkUnit{}, Context{})

	if res.Factors.RequirementsClarity != 0 {
		t.Errorf("requirements clarity = %v, want 0 with no requirements", res.Factors.RequirementsClarity)
	}
	if res.Factors.TestCoverageDefined != 0 {
		t.Errorf("test coverage = %v, want 0 with no strategy", res.Factors.TestCoverageDefined)
	}
	if res.Factors.AmbiguityClarity != 0 {
		t.Errorf("ambiguity clarity = %v, want 0 with no text", res.Factors.AmbiguityClarity)
	}
}

// --- Compute: context completeness ---

func richContext() Context {
	return Context{
		Embedded:             true,
		Size:                 800,
		Patterns:             []string{"repository pattern"},
		HistoricalDecisions:  []string{"chose sqlite"},
		EdgeCases:            []string{"empty input"},
		DependenciesResolved: true,
	}
}

func TestCompute_RichContextCompleteness(t *testing.T) {
	res := mustScorer(t).Compute(vagueUnit(), richContext())

	if res.Factors.ContextCompleteness <= 80 {
		t.Errorf("context completeness = %v, want > 80 for a rich context", res.Factors.ContextCompleteness)
	}
}

func TestCompute_DegradedContextDropsOverall(t *testing.T) {
	s := mustScorer(t)
	unit := vagueUnit()

	rich := s.Compute(unit, richContext())

	degraded := richContext()
	degraded.Embedded = false
	degraded.Size = 50
	poor := s.Compute(unit, degraded)

	if drop := rich.Overall - poor.Overall; drop <= 15 {
		t.Errorf("overall drop = %v, want > 15 when context is degraded", drop)
	}
}

// --- Compute: boundedness ---

func TestCompute_FactorsAndOverallBounded(t *testing.T) {
	units := []task.WorkUnit{
		{},
		vagueUnit(),
		{
			ID:    "u2",
			Title: "Build the ingest API",
			Requirements: []string{
				"Expose an http endpoint accepting json payloads of up to 1048576 bytes and persisting them to the sqlite database",
				"Return a uuid per accepted record over the rest api",
			},
			AcceptanceCriteria: []string{"posting a record returns 201", "malformed json returns 400"},
			TestStrategy:       "unit tests with table fixtures, integration tests against sqlite, e2e smoke coverage with mock clients and benchmark runs",
			Dependencies:       []string{"schema"},
		},
	}
	contexts := []Context{{}, richContext(), {Size: 5000, Embedded: true, Source: "x", DependenciesResolved: true}}

	s := mustScorer(t)
	for _, u := range units {
		for _, c := range contexts {
			res := s.Compute(u, c)
			for name, v := range map[string]float64{
				"overall":               res.Overall,
				"requirements_clarity":  res.Factors.RequirementsClarity,
				"test_coverage":         res.Factors.TestCoverageDefined,
				"ambiguity_clarity":     res.Factors.AmbiguityClarity,
				"context_completeness":  res.Factors.ContextCompleteness,
				"dependencies_resolved": res.Factors.DependenciesResolved,
				"pattern_similarity":    res.Factors.PatternSimilarity,
			} {
				if v < 0 || v > 100 {
					t.Errorf("unit %q: %s = %v, out of [0,100]", u.ID, name, v)
				}
			}
		}
	}
}

// --- Compute: monotonicity ---

func TestCompute_AddingTechnicalRequirementNeverLowersClarity(t *testing.T) {
	s := mustScorer(t)

	unit := task.WorkUnit{
		ID:                 "u1",
		Title:              "Ingest records",
		Requirements:       []string{"Persist each record to the sqlite database"},
		AcceptanceCriteria: []string{"records survive restart"},
	}
	prev := s.Compute(unit, Context{}).Factors.RequirementsClarity

	for i := 0; i < 5; i++ {
		unit.Requirements = append(unit.Requirements, "Expose the records over a json api endpoint")
		cur := s.Compute(unit, Context{}).Factors.RequirementsClarity
		if cur < prev {
			t.Fatalf("clarity dropped from %v to %v after adding technical requirement %d", prev, cur, i+1)
		}
		prev = cur
	}
}

func TestCompute_AddingVagueWordNeverRaisesAmbiguityClarity(t *testing.T) {
	s := mustScorer(t)

	unit := task.WorkUnit{
		ID:           "u1",
		Title:        "Parse documents",
		Requirements: []string{"Split the document at heading boundaries"},
	}
	prev := s.Compute(unit, Context{}).Factors.AmbiguityClarity

	for i := 0; i < 3; i++ {
		unit.Requirements[0] += " somehow"
		cur := s.Compute(unit, Context{}).Factors.AmbiguityClarity
		if cur > prev {
			t.Fatalf("ambiguity clarity rose from %v to %v after adding vague word %d", prev, cur, i+1)
		}
		prev = cur
	}
}

// --- Compute: dependencies ---

func TestCompute_DependenciesFactorIsBinary(t *testing.T) {
	s := mustScorer(t)

	noDeps := task.WorkUnit{ID: "u1", Title: "t"}
	if got := s.Compute(noDeps, Context{}).Factors.DependenciesResolved; got != 100 {
		t.Errorf("no declared dependencies: factor = %v, want 100", got)
	}

	withDeps := task.WorkUnit{ID: "u1", Title: "t", Dependencies: []string{"other"}}
	if got := s.Compute(withDeps, Context{}).Factors.DependenciesResolved; got != 0 {
		t.Errorf("unresolved dependencies: factor = %v, want 0", got)
	}
	if got := s.Compute(withDeps, Context{DependenciesResolved: true}).Factors.DependenciesResolved; got != 100 {
		t.Errorf("resolved dependencies: factor = %v, want 100", got)
	}
}

// --- Compute: pattern similarity ---

func TestCompute_EmptyHistoryScoresNovel(t *testing.T) {
	res := mustScorer(t).Compute(vagueUnit(), Context{})
	if res.Factors.PatternSimilarity != similarityNovel {
		t.Errorf("pattern similarity = %v, want %v with empty history", res.Factors.PatternSimilarity, similarityNovel)
	}
}

func TestCompute_SimilarPatternRaisesSimilarity(t *testing.T) {
	s := mustScorer(t)
	s.AddToHistory(Pattern{TaskType: "parse markdown documents", SuccessRate: 1.0})

	unit := task.WorkUnit{
		ID:    "u1",
		Title: "Parse markdown documents into shards",
	}
	got := s.Compute(unit, Context{}).Factors.PatternSimilarity

	// Keywords: parse, markdown, documents, shards; three overlap.
	if math.Abs(got-75) > 1e-9 {
		t.Errorf("pattern similarity = %v, want 75", got)
	}
}

func TestCompute_SuccessRateScalesSimilarity(t *testing.T) {
	s := mustScorer(t)
	s.AddToHistory(Pattern{TaskType: "parse markdown documents shards", SuccessRate: 0.5})

	unit := task.WorkUnit{ID: "u1", Title: "Parse markdown documents into shards"}
	got := s.Compute(unit, Context{}).Factors.PatternSimilarity

	if math.Abs(got-50) > 1e-9 {
		t.Errorf("pattern similarity = %v, want 50 at half success rate", got)
	}
}

// --- Recommendations ---

func TestCompute_LowFactorsYieldRecommendations(t *testing.T) {
	res := mustScorer(t).Compute(vagueUnit(), Context{})

	// Every factor except dependencies is below its threshold.
	if len(res.Recommendations) != 5 {
		t.Fatalf("got %d recommendations, want 5:\n%s", len(res.Recommendations),
			strings.Join(res.Recommendations, "\n"))
	}
	for _, r := range res.Recommendations {
		if strings.Contains(r, "Resolve declared dependencies") {
			t.Error("dependency advice emitted though the factor is 100")
		}
	}
}

func TestCompute_ConfidentUnitGetsFewRecommendations(t *testing.T) {
	unit := task.WorkUnit{
		ID:    "u2",
		Title: "Build the ingest API",
		Requirements: []string{
			"Expose an http endpoint accepting json payloads of up to 1048576 bytes per request",
			"Persist accepted records to the sqlite database keyed by uuid",
		},
		AcceptanceCriteria: []string{"posting a record returns 201", "malformed json returns 400"},
		TestStrategy:       "unit tests with table fixtures, integration tests against sqlite, e2e smoke runs",
	}
	res := mustScorer(t).Compute(unit, richContext())

	for _, r := range res.Recommendations {
		if strings.Contains(r, "Requirements are thin") {
			t.Errorf("requirements advice emitted for clarity %v", res.Factors.RequirementsClarity)
		}
		if strings.Contains(r, "Define a test strategy") {
			t.Errorf("test advice emitted for coverage %v", res.Factors.TestCoverageDefined)
		}
	}
}

// --- History ---

func TestHistory_SnapshotRestore(t *testing.T) {
	h := NewHistory()
	h.Add(Pattern{TaskType: "a", SuccessRate: 1})

	snap := h.Snapshot()
	h.Add(Pattern{TaskType: "b", SuccessRate: 1})
	if h.Len() != 2 {
		t.Fatalf("len = %d, want 2", h.Len())
	}

	h.Restore(snap)
	if h.Len() != 1 {
		t.Errorf("len after restore = %d, want 1", h.Len())
	}
	if h.patterns[0].TaskType != "a" {
		t.Errorf("restored pattern = %q, want a", h.patterns[0].TaskType)
	}
}

func TestHistory_SnapshotIsACopy(t *testing.T) {
	h := NewHistory()
	h.Add(Pattern{TaskType: "a", SuccessRate: 1})

	snap := h.Snapshot()
	snap[0].TaskType = "mutated"

	if h.patterns[0].TaskType != "a" {
		t.Error("mutating a snapshot changed the history")
	}
}
