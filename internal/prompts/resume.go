// Package prompts implements MCP prompt handlers.
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

// ResumePrompt handles the handoff-resume MCP prompt.
// It guides the AI to load the catch-up snapshot and pick up where the
// last session left off.
type ResumePrompt struct{}

// NewResumePrompt creates a ResumePrompt.
func NewResumePrompt() *ResumePrompt {
	return &ResumePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ResumePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("handoff-resume",
		mcp.WithPromptDescription(
			"Resume work on a project. Loads where the last session left "+
				"off, what changed since, and the open tasks, then proposes "+
				"what to work on next.",
		),
		mcp.WithArgument("project",
			mcp.ArgumentDescription("Project name, slug, or id. Omit to use the most recently active project."),
		),
	)
}

// Handle processes the handoff-resume prompt request.
func (p *ResumePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	project := ""
	if args := req.Params.Arguments; args != nil {
		project = args["project"]
	}

	callHint := "run `start_session`"
	described := "the most recently active project"
	if project != "" {
		callHint = fmt.Sprintf("run `start_session` with project='%s'", project)
		described = fmt.Sprintf("'%s'", project)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Resume work on %s", described),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I'm picking up work on %s.\n\n"+
						"Please:\n"+
						"1. %s\n"+
						"2. Summarize the last session and anything marked [auto] (work that "+
						"happened without a recorded wrap-up)\n"+
						"3. List active and blocked tasks by their short ids\n"+
						"4. Call out recent decisions I should keep in mind\n"+
						"5. Suggest what to work on next, using `next_tasks` if the picture is unclear",
					described, callHint,
				)),
			},
		},
	}, nil
}
