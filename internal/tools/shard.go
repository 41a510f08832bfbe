package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/shardy/internal/config"
	"github.com/HendryAvila/shardy/internal/sharder"
	"github.com/mark3labs/mcp-go/mcp"
)

// ShardTool handles the shard_spec MCP tool: it splits a spec document
// into bounded section shards plus a navigation index, and can write
// the shard files under .shardy/shards/.
type ShardTool struct {
	store config.Store
}

// NewShardTool creates a ShardTool with its dependencies.
func NewShardTool(store config.Store) *ShardTool {
	return &ShardTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ShardTool) Definition() mcp.Tool {
	return mcp.NewTool("shard_spec",
		mcp.WithDescription(
			"Split a large spec document into bounded, cross-referenced section shards. "+
				"Boundaries are headings at the configured depth; fenced code blocks can "+
				"never open a false boundary. Oversized shards are recursively partitioned "+
				"at the next heading depth down. Returns the shard list and navigation "+
				"index; set write_files=true to also write NN-slug.md files plus index.md "+
				"under .shardy/shards/.",
		),
		mcp.WithString("document",
			mcp.Description("The document content to shard. Takes precedence over document_path."),
		),
		mcp.WithString("document_path",
			mcp.Description("Path to the document, relative to the project root."),
		),
		mcp.WithNumber("max_shard_size",
			mcp.Description("Maximum shard content lines. Overrides project policy."),
		),
		mcp.WithNumber("boundary_depth",
			mcp.Description("Heading depth that opens a new shard (1-6). Overrides project policy."),
		),
		mcp.WithBoolean("write_files",
			mcp.Description("Write shard files and index.md to .shardy/shards/ (default false)."),
		),
	)
}

// Handle processes the shard_spec tool call.
func (t *ShardTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	root, err := findProjectRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	text, err := readDocumentArg(req, root)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	cfg := loadPolicy(t.store, root).ShardingConfig()
	if v := int(req.GetFloat("max_shard_size", 0)); v != 0 {
		cfg.MaxShardSize = v
	}
	if v := int(req.GetFloat("boundary_depth", 0)); v != 0 {
		cfg.BoundaryDepth = v
	}

	s, err := sharder.New(cfg)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.Shard(text)
	if err != nil {
		if errors.Is(err, sharder.ErrParse) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, fmt.Errorf("sharding document: %w", err)
	}

	if boolArg(req, "write_files", false) {
		if err := writeShardFiles(root, result); err != nil {
			return nil, fmt.Errorf("writing shard files: %w", err)
		}
	}

	return mcp.NewToolResultText(shardReport(result, cfg)), nil
}

// writeShardFiles writes each shard plus the index under .shardy/shards/.
func writeShardFiles(root string, result *sharder.Result) error {
	dir := config.ShardsDir(root)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	for _, sh := range result.Shards {
		path := filepath.Join(dir, sh.Filename)
		if err := os.WriteFile(path, []byte(sh.Content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", sh.Filename, err)
		}
	}

	return os.WriteFile(filepath.Join(dir, "index.md"), []byte(renderIndex(result.Index)), 0o644)
}

// renderIndex serializes the navigation index as markdown.
func renderIndex(idx sharder.Index) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", idx.Title)
	if strings.TrimSpace(idx.Introduction) != "" {
		sb.WriteString(strings.TrimSpace(idx.Introduction))
		sb.WriteString("\n\n")
	}
	sb.WriteString("## Sections\n\n")
	for _, s := range idx.Sections {
		fmt.Fprintf(&sb, "- [%s](%s) (line %d)\n", s.Title, s.Filename, s.Line)
	}
	return sb.String()
}

// shardReport builds the tool's markdown response.
func shardReport(result *sharder.Result, cfg sharder.Config) string {
	var sb strings.Builder

	sb.WriteString("# Shard Report\n\n")
	fmt.Fprintf(&sb, "**Document:** %s | **Boundary depth:** %d | **Max size:** %d lines\n\n",
		orUntitled(result.Index.Title), cfg.BoundaryDepth, cfg.MaxShardSize)

	if len(result.Shards) == 0 {
		sb.WriteString("_No boundaries at the configured depth — the whole document is the introduction._\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "%d shards:\n\n", len(result.Shards))
	for _, sh := range result.Shards {
		fmt.Fprintf(&sb, "- **%s** `%s` — %d lines", sh.ID, sh.Filename, sh.Meta.ContentLines)
		var notes []string
		if len(sh.Boundary.Dependencies) > 0 {
			notes = append(notes, fmt.Sprintf("depends on %s", strings.Join(sh.Boundary.Dependencies, ", ")))
		}
		if len(sh.Boundary.References) > 0 {
			notes = append(notes, fmt.Sprintf("references %s", strings.Join(sh.Boundary.References, ", ")))
		}
		if sh.Meta.HasCodeBlocks {
			notes = append(notes, "code")
		}
		if sh.Meta.HasDiagrams {
			notes = append(notes, "diagrams")
		}
		if len(notes) > 0 {
			fmt.Fprintf(&sb, " (%s)", strings.Join(notes, "; "))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func orUntitled(title string) string {
	if title == "" {
		return "(untitled)"
	}
	return title
}
