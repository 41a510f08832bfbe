package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/shardy/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatsTool handles the context_stats MCP tool: aggregate counts for
// the context store, with optional purging of expired packets.
type StatsTool struct {
	memStore *memory.Store
}

// NewStatsTool creates a StatsTool with its dependencies.
func NewStatsTool(memStore *memory.Store) *StatsTool {
	return &StatsTool{memStore: memStore}
}

// Definition returns the MCP tool definition for registration.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("context_stats",
		mcp.WithDescription(
			"Show context store statistics: sessions, live and expired context "+
				"packets, and recorded patterns. Set purge=true to delete expired "+
				"packets while reporting.",
		),
		mcp.WithBoolean("purge",
			mcp.Description("Delete expired context packets (default false)."),
		),
	)
}

// Handle processes the context_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if t.memStore == nil {
		return mcp.NewToolResultError("context store is not available"), nil
	}

	var purged int64
	if boolArg(req, "purge", false) {
		n, err := t.memStore.PurgeExpired()
		if err != nil {
			return nil, fmt.Errorf("purging expired contexts: %w", err)
		}
		purged = n
	}

	stats, err := t.memStore.Stats()
	if err != nil {
		return nil, fmt.Errorf("reading store stats: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# Context Store\n\n")
	fmt.Fprintf(&sb, "- Sessions: %d\n", stats.TotalSessions)
	fmt.Fprintf(&sb, "- Live contexts: %d\n", stats.LiveContexts)
	fmt.Fprintf(&sb, "- Expired contexts: %d\n", stats.ExpiredContexts)
	fmt.Fprintf(&sb, "- Patterns: %d\n", stats.Patterns)
	if purged > 0 {
		fmt.Fprintf(&sb, "\n_Purged %d expired packets._\n", purged)
	}

	return mcp.NewToolResultText(sb.String()), nil
}
