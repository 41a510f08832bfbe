package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HendryAvila/shardy/internal/config"
	"github.com/HendryAvila/shardy/internal/confidence"
	"github.com/HendryAvila/shardy/internal/memory"
	"github.com/HendryAvila/shardy/internal/task"
	"github.com/mark3labs/mcp-go/mcp"
)

// ScoreTool handles the score_confidence MCP tool. It computes the
// six-factor confidence score for one work unit against its available
// context, seeding the similarity history from the pattern store.
type ScoreTool struct {
	store    config.Store
	memStore *memory.Store // nullable — works without persistence
}

// NewScoreTool creates a ScoreTool with its dependencies. memStore may
// be nil — pattern history then starts empty and nothing is recorded.
func NewScoreTool(store config.Store, memStore *memory.Store) *ScoreTool {
	return &ScoreTool{store: store, memStore: memStore}
}

// Definition returns the MCP tool definition for registration.
func (t *ScoreTool) Definition() mcp.Tool {
	return mcp.NewTool("score_confidence",
		mcp.WithDescription(
			"Score how well-specified a work unit is: six weighted factors "+
				"(requirements clarity, test coverage, ambiguity, context completeness, "+
				"dependency resolution, pattern similarity) combined into a 0-100 score, "+
				"a questioning phase, and per-factor recommendations. Pass the unit as a "+
				"JSON object and optionally its available context.",
		),
		mcp.WithString("unit",
			mcp.Required(),
			mcp.Description("The work unit as JSON: {id, title, requirements[], "+
				"acceptance_criteria[], test_strategy, dependencies[]}."),
		),
		mcp.WithString("unit_context",
			mcp.Description("The unit's available context as JSON: {embedded, size, "+
				"patterns[], historical_decisions[], edge_cases[], source, "+
				"dependencies_resolved}. Omit if no context exists yet."),
		),
		mcp.WithString("record_pattern",
			mcp.Description("Optional task-shape pattern to record for future similarity "+
				"matching, as 'task type description:success_rate', e.g. "+
				"'rest api crud endpoint:0.9'."),
		),
	)
}

// Handle processes the score_confidence tool call.
func (t *ScoreTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var unit task.WorkUnit
	if err := json.Unmarshal([]byte(req.GetString("unit", "")), &unit); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("'unit' is not valid JSON: %v", err)), nil
	}
	if unit.Title == "" {
		return mcp.NewToolResultError("'unit' needs at least a title"), nil
	}

	var unitCtx confidence.Context
	if raw := req.GetString("unit_context", ""); raw != "" {
		if err := json.Unmarshal([]byte(raw), &unitCtx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("'unit_context' is not valid JSON: %v", err)), nil
		}
	}

	root, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	history, err := t.loadHistory()
	if err != nil {
		return nil, fmt.Errorf("loading pattern history: %w", err)
	}

	scorer, err := confidence.New(loadPolicy(t.store, root).ScoringConfig(), history)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := scorer.Compute(unit, unitCtx)

	var recorded string
	if raw := strings.TrimSpace(req.GetString("record_pattern", "")); raw != "" {
		recorded, err = t.recordPattern(scorer, raw)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	return mcp.NewToolResultText(scoreReport(unit, result, recorded)), nil
}

// loadHistory seeds a similarity history from the pattern store.
func (t *ScoreTool) loadHistory() (*confidence.History, error) {
	history := confidence.NewHistory()
	if t.memStore == nil {
		return history, nil
	}

	records, err := t.memStore.Patterns()
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		history.Add(confidence.Pattern{TaskType: r.TaskType, SuccessRate: r.SuccessRate})
	}
	return history, nil
}

// recordPattern parses 'description:rate', appends it to the in-memory
// history, and persists it when a store is available.
func (t *ScoreTool) recordPattern(scorer *confidence.Scorer, raw string) (string, error) {
	idx := strings.LastIndex(raw, ":")
	if idx <= 0 {
		return "", fmt.Errorf("'record_pattern' must be 'task type:success_rate', got %q", raw)
	}
	taskType := strings.TrimSpace(raw[:idx])

	var rate float64
	if _, err := fmt.Sscanf(raw[idx+1:], "%g", &rate); err != nil || rate < 0 || rate > 1 {
		return "", fmt.Errorf("'record_pattern' success rate must be a number in [0,1], got %q", raw[idx+1:])
	}

	scorer.AddToHistory(confidence.Pattern{TaskType: taskType, SuccessRate: rate})
	if t.memStore != nil {
		if _, err := t.memStore.AddPattern(taskType, rate); err != nil {
			return "", err
		}
	}
	return taskType, nil
}

// scoreReport builds the tool's markdown response.
func scoreReport(unit task.WorkUnit, r confidence.Result, recorded string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# Confidence: %s\n\n", unit.Title)
	fmt.Fprintf(&sb, "**Overall:** %.1f/100 | **Phase:** %s\n\n", r.Overall, r.QuestioningPhase)

	sb.WriteString("| Factor | Score | Weight |\n|---|---|---|\n")
	rows := []struct {
		name          string
		score, weight float64
	}{
		{"Requirements clarity", r.Factors.RequirementsClarity, r.Weights.RequirementsClarity},
		{"Test coverage defined", r.Factors.TestCoverageDefined, r.Weights.TestCoverageDefined},
		{"Ambiguity clarity", r.Factors.AmbiguityClarity, r.Weights.AmbiguityClarity},
		{"Context completeness", r.Factors.ContextCompleteness, r.Weights.ContextCompleteness},
		{"Dependencies resolved", r.Factors.DependenciesResolved, r.Weights.DependenciesResolved},
		{"Pattern similarity", r.Factors.PatternSimilarity, r.Weights.PatternSimilarity},
	}
	for _, row := range rows {
		fmt.Fprintf(&sb, "| %s | %.1f | %.2f |\n", row.name, row.score, row.weight)
	}

	if len(r.Recommendations) > 0 {
		sb.WriteString("\n## Recommendations\n\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&sb, "- %s\n", rec)
		}
	}

	if recorded != "" {
		fmt.Fprintf(&sb, "\n_Pattern recorded: %s_\n", recorded)
	}

	return sb.String()
}
