package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the shardy-status MCP prompt.
// It instructs the AI to read and present the current project state.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("shardy-status",
		mcp.WithPromptDescription(
			"Check the current state of your shardy project. "+
				"Shows the configured policy, written shards, and "+
				"stored context sessions.",
		),
	)
}

// Handle processes the shardy-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Shardy Project Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `context_stats` to check my shardy project status.\n\n" +
						"Then:\n" +
						"1. Show me the stored sessions and context packets in a clear format\n" +
						"2. Read the `shardy://shards/index` resource and summarize the shard layout\n" +
						"3. Flag any expired contexts worth purging\n" +
						"4. Tell me which work units still need context assembled",
				),
			},
		},
	}, nil
}
