// Package resources implements MCP resource handlers for the sharding
// pipeline.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (shardy://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/HendryAvila/shardy/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
)

// Handler manages shardy resource endpoints.
type Handler struct {
	store config.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store config.Store) *Handler {
	return &Handler{store: store}
}

// StatusResource returns the MCP resource definition for project status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		"shardy://project/status",
		"Shardy Project Status",
		mcp.WithResourceDescription("Current project configuration: sharding, scoring, and assembly policy"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStatus returns the current project configuration as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projectRoot, err := findResourceRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	cfg, err := h.store.Load(projectRoot)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// IndexResource returns the MCP resource definition for the shard index.
func (h *Handler) IndexResource() mcp.Resource {
	return mcp.NewResource(
		"shardy://shards/index",
		"Shard Index",
		mcp.WithResourceDescription("Table of contents for the shards written by the last shard_spec run"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleIndex returns the written shard index, if any.
func (h *Handler) HandleIndex(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projectRoot, err := findResourceRoot()
	if err != nil {
		return nil, fmt.Errorf("finding project root: %w", err)
	}

	path := filepath.Join(config.ShardsDir(projectRoot), "index.md")
	data, err := os.ReadFile(path)
	if err != nil {
		return errorResource(req.Params.URI, "no shard index found; run shard_spec with write_files first"), nil
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
