// Package prompts implements MCP prompt handlers for the sharding pipeline.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the shardy-start MCP prompt.
// It guides the AI to initialize a project and run the full pipeline
// on a specification document.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("shardy-start",
		mcp.WithPromptDescription(
			"Break a specification document into shards and prepare "+
				"focused context packets for implementation. Walks through "+
				"sharding, confidence scoring, and context assembly.",
		),
		mcp.WithArgument("project_name",
			mcp.ArgumentDescription("Name of your project"),
		),
		mcp.WithArgument("document_path",
			mcp.ArgumentDescription("Path to the specification document to shard"),
		),
	)
}

// Handle processes the shardy-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	projectName := "my-project"
	if args := req.Params.Arguments; args != nil {
		if name, ok := args["project_name"]; ok && name != "" {
			projectName = name
		}
	}

	documentPath := "spec.md"
	if args := req.Params.Arguments; args != nil {
		if p, ok := args["document_path"]; ok && p != "" {
			documentPath = p
		}
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Shard specification for: %s", projectName),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to break the specification at '%s' into implementable pieces for project '%s'.\n\n"+
						"Please:\n"+
						"1. Run `shardy_init` with project_name='%s' if the project is not initialized yet\n"+
						"2. Run `shard_spec` with document_path='%s' and write_files=true, then show me the shard index\n"+
						"3. Help me define work units (id, title, requirements, acceptance criteria) for the shards I want to implement first\n"+
						"4. Run `assemble_context` with those units so each one gets a focused context packet\n"+
						"5. For any unit whose pre-confidence looks low, run `score_confidence` and walk me through its recommendations before I start implementing",
					documentPath, projectName, projectName, documentPath,
				)),
			},
		},
	}, nil
}
