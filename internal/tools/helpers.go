// Package tools implements the MCP tool handlers for the sharding,
// scoring, and assembly pipeline.
//
// Each tool receives its dependencies via its struct and returns a
// handler compatible with mcp-go's CallToolRequest signature. User-input
// problems come back as tool-result errors; only internal failures
// surface as Go errors.
package tools

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/HendryAvila/shardy/internal/config"
	"github.com/mark3labs/mcp-go/mcp"
)

// findProjectRoot walks up from the current working directory looking
// for an existing .shardy/shardy.json. If none is found, returns cwd —
// the caller decides what to do.
func findProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}

	current := dir
	for {
		if config.Exists(current) {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return dir, nil
		}
		current = parent
	}
}

// loadPolicy loads the project policy, falling back to defaults when
// the project is not initialized. Tools work out of the box; init only
// pins the policy to a file.
func loadPolicy(store config.Store, root string) *config.ProjectConfig {
	cfg, err := store.Load(root)
	if err != nil {
		return config.NewProjectConfig(filepath.Base(root), "")
	}
	return cfg
}

// boolArg reads an optional boolean argument.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// readDocumentArg resolves the document input: inline content wins,
// otherwise the path is read relative to the project root.
func readDocumentArg(req mcp.CallToolRequest, root string) (string, error) {
	if doc := req.GetString("document", ""); doc != "" {
		return doc, nil
	}

	path := strings.TrimSpace(req.GetString("document_path", ""))
	if path == "" {
		return "", fmt.Errorf("either 'document' or 'document_path' is required")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}
