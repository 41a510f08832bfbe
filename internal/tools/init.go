package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/shardy/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
)

// InitTool handles the shardy_init MCP tool. It writes the default
// pipeline policy to .shardy/shardy.json so the magic constants the
// pipeline runs on are visible and editable per project.
type InitTool struct {
	store config.Store
}

// NewInitTool creates an InitTool with its dependencies.
func NewInitTool(store config.Store) *InitTool {
	return &InitTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *InitTool) Definition() mcp.Tool {
	return mcp.NewTool("shardy_init",
		mcp.WithDescription(
			"Initialize a Shardy project: write the default sharding, scoring, and "+
				"assembly policy to .shardy/shardy.json. All pipeline tuning constants "+
				"(shard size limit, ambiguity scale, confidence deltas, strict shard "+
				"matching) live in that file. Other tools fall back to defaults when "+
				"no project file exists, so this step is optional but recommended.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Project name."),
		),
		mcp.WithString("description",
			mcp.Description("One-line project description."),
		),
	)
}

// Handle processes the shardy_init tool call.
func (t *InitTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	root, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	if config.Exists(root) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"project already initialized at %s — edit the file directly to change policy",
			config.ConfigPath(root))), nil
	}

	cfg := config.NewProjectConfig(name, req.GetString("description", ""))
	if err := t.store.Save(root, cfg); err != nil {
		return nil, fmt.Errorf("saving project config: %w", err)
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"# Project Initialized\n\n**%s** — policy written to %s\n\n"+
			"- max_shard_size: %d lines\n- boundary_depth: %d\n- ambiguity_scale: %.0f\n"+
			"- extended_threshold: %d\n- strict_shard_match: %t\n",
		cfg.Name, config.ConfigPath(root),
		cfg.Sharding.MaxShardSize, cfg.Sharding.BoundaryDepth,
		cfg.Scoring.AmbiguityScale, cfg.Assembly.ExtendedThreshold,
		cfg.Assembly.StrictShardMatch,
	)), nil
}
