package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// WrapUpPrompt handles the handoff-wrapup MCP prompt.
// It instructs the AI to record the session before the conversation ends.
type WrapUpPrompt struct{}

// NewWrapUpPrompt creates a WrapUpPrompt.
func NewWrapUpPrompt() *WrapUpPrompt {
	return &WrapUpPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *WrapUpPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("handoff-wrapup",
		mcp.WithPromptDescription(
			"Wrap up the current session. Records a summary and next steps "+
				"so the next conversation can pick up without losing context.",
		),
	)
}

// Handle processes the handoff-wrapup prompt request.
func (p *WrapUpPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Wrap up this session",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"We're wrapping up. Please:\n\n" +
						"1. Update the status of any tasks we touched with `update_task` " +
						"(done, in_progress, blocked)\n" +
						"2. Record any decisions we made but didn't log with `log_decision`\n" +
						"3. Call `end_session` with a summary written for someone who " +
						"remembers nothing, concrete next steps, and the tasks we worked on\n" +
						"4. Show me the summary you recorded",
				),
			},
		},
	}, nil
}
