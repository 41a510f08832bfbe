package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/shardy/internal/assembler"
	"github.com/HendryAvila/shardy/internal/config"
	"github.com/HendryAvila/shardy/internal/memory"
	"github.com/HendryAvila/shardy/internal/sharder"
	"github.com/HendryAvila/shardy/internal/task"
	"github.com/mark3labs/mcp-go/mcp"
)

// AssembleTool handles the assemble_context MCP tool: shard the spec,
// match units to shards, run the chain left-to-right, and persist each
// packet to the session-scoped context store.
type AssembleTool struct {
	store    config.Store
	memStore *memory.Store // nullable — packets are then returned but not persisted
}

// NewAssembleTool creates an AssembleTool with its dependencies.
func NewAssembleTool(store config.Store, memStore *memory.Store) *AssembleTool {
	return &AssembleTool{store: store, memStore: memStore}
}

// Definition returns the MCP tool definition for registration.
func (t *AssembleTool) Definition() mcp.Tool {
	return mcp.NewTool("assemble_context",
		mcp.WithDescription(
			"Assemble one embedded-context packet per work unit, in order. Each unit "+
				"is matched to its shard, given a cheap pre-confidence that decides "+
				"packet depth (low confidence gets the extended block, high confidence "+
				"gets a lean core-only packet), and chained to its predecessor. Packets "+
				"are persisted to the session context store with TTL expiry.",
		),
		mcp.WithString("units",
			mcp.Required(),
			mcp.Description("JSON array of work units: [{id, title, requirements[], "+
				"acceptance_criteria[], dependencies[], shard_id, complexity, type}]."),
		),
		mcp.WithString("document",
			mcp.Description("The spec document content. Takes precedence over document_path."),
		),
		mcp.WithString("document_path",
			mcp.Description("Path to the spec document, relative to the project root."),
		),
		mcp.WithString("session_id",
			mcp.Description("Context store session to persist into. Omit to start a new session."),
		),
		mcp.WithString("project_name",
			mcp.Description("Project name for a newly created session."),
		),
		mcp.WithBoolean("persist",
			mcp.Description("Persist packets to the context store (default true)."),
		),
	)
}

// Handle processes the assemble_context tool call.
func (t *AssembleTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	units, err := task.DecodeUnits([]byte(req.GetString("units", "")))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(units) == 0 {
		return mcp.NewToolResultError("'units' is empty — nothing to assemble"), nil
	}

	root, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	text, err := readDocumentArg(req, root)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	policy := loadPolicy(t.store, root)

	s, err := sharder.New(policy.ShardingConfig())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	shardResult, err := s.Shard(text)
	if err != nil {
		if errors.Is(err, sharder.ErrParse) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, fmt.Errorf("sharding document: %w", err)
	}

	asm, err := assembler.New(policy.AssemblyConfig())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	packets, err := asm.ProcessChain(units, shardResult.Shards)
	if err != nil {
		if errors.Is(err, assembler.ErrNoShardMatch) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, fmt.Errorf("assembling contexts: %w", err)
	}

	sessionID, persisted, err := t.persist(req, packets)
	if err != nil {
		return nil, fmt.Errorf("persisting contexts: %w", err)
	}

	return mcp.NewToolResultText(assembleReport(packets, sessionID, persisted)), nil
}

// persist saves packets to the context store, creating a session when
// none was supplied. Returns the session id and how many were saved.
func (t *AssembleTool) persist(req mcp.CallToolRequest, packets []assembler.EmbeddedContext) (string, int, error) {
	if t.memStore == nil || !boolArg(req, "persist", true) {
		return "", 0, nil
	}

	sessionID := strings.TrimSpace(req.GetString("session_id", ""))
	if sessionID == "" {
		sess, err := t.memStore.CreateSession(req.GetString("project_name", "default"))
		if err != nil {
			return "", 0, err
		}
		sessionID = sess.ID
	}

	for _, p := range packets {
		phase := "core"
		if p.Extended != nil {
			phase = "extended"
		}
		_, err := t.memStore.SaveContext(memory.SaveContextParams{
			SessionID:     sessionID,
			UnitID:        p.UnitID,
			Phase:         phase,
			Content:       p.Text,
			Size:          p.Size,
			Source:        p.Source,
			PreConfidence: p.PreConfidence,
		})
		if err != nil {
			return sessionID, 0, err
		}
	}
	return sessionID, len(packets), nil
}

// assembleReport builds the tool's markdown response.
func assembleReport(packets []assembler.EmbeddedContext, sessionID string, persisted int) string {
	var sb strings.Builder

	sb.WriteString("# Context Assembly Report\n\n")
	if sessionID != "" {
		fmt.Fprintf(&sb, "**Session:** %s | **Persisted:** %d packets\n\n", sessionID, persisted)
	} else {
		sb.WriteString("_Packets were not persisted._\n\n")
	}

	for _, p := range packets {
		depth := "core"
		if p.Extended != nil {
			depth = "core+extended"
		}
		fmt.Fprintf(&sb, "- **%s** — pre-confidence %d, %s, %d lines, source %s",
			p.UnitID, p.PreConfidence, depth, p.Size, orUntitled(p.Source))
		if p.Inherited != nil {
			fmt.Fprintf(&sb, ", inherits from %s", p.Inherited.UnitID)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
