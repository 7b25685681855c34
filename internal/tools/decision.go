package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mwhitford/handoff/internal/continuity"
	"github.com/mwhitford/handoff/internal/store"
)

// LogDecisionTool handles the log_decision MCP tool.
type LogDecisionTool struct {
	store  *store.Store
	engine *continuity.Engine
}

// NewLogDecisionTool creates a LogDecisionTool.
func NewLogDecisionTool(s *store.Store, e *continuity.Engine) *LogDecisionTool {
	return &LogDecisionTool{store: s, engine: e}
}

// Definition returns the MCP tool definition for log_decision.
func (t *LogDecisionTool) Definition() mcp.Tool {
	return mcp.NewTool("log_decision",
		mcp.WithDescription(
			"Record a technical decision with its reasoning and the "+
				"alternatives that were considered. Decisions are immutable; "+
				"log a superseding decision rather than editing one.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short decision title"),
		),
		mcp.WithString("decision",
			mcp.Required(),
			mcp.Description("What was decided"),
		),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
		mcp.WithString("task",
			mcp.Description("Task id or short id this decision belongs to"),
		),
		mcp.WithString("reasoning",
			mcp.Description("Why this option won"),
		),
		mcp.WithArray("alternatives",
			mcp.Description("Options that were considered and rejected"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("tags",
			mcp.Description("Free-form tags"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the log_decision tool call.
func (t *LogDecisionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	decision := req.GetString("decision", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}
	if decision == "" {
		return mcp.NewToolResultError("'decision' is required"), nil
	}

	projectID, err := t.store.ResolveProjectOrDefault(req.GetString("project", ""))
	if err != nil {
		return errResult("resolve project", err), nil
	}

	snap, _, err := t.engine.BeginWork(projectID)
	if err != nil {
		return errResult("catch up project", err), nil
	}

	taskID := ""
	if ref := req.GetString("task", ""); ref != "" {
		if taskID, err = t.store.ResolveTask(ref); err != nil {
			return errResult(fmt.Sprintf("resolve task %q", ref), err), nil
		}
	}

	d, err := t.store.CreateDecision(store.CreateDecisionParams{
		ProjectID:    projectID,
		TaskID:       taskID,
		Title:        title,
		Decision:     decision,
		Reasoning:    req.GetString("reasoning", ""),
		Alternatives: stringListArg(req, "alternatives"),
		Tags:         stringListArg(req, "tags"),
	})
	if err != nil {
		return errResult("log decision", err), nil
	}

	return jsonResult(withCatchUp(snap, d))
}

// ─── ListDecisionsTool ──────────────────────────────────────────────────────

// ListDecisionsTool handles the list_decisions MCP tool.
type ListDecisionsTool struct {
	store *store.Store
}

// NewListDecisionsTool creates a ListDecisionsTool.
func NewListDecisionsTool(s *store.Store) *ListDecisionsTool {
	return &ListDecisionsTool{store: s}
}

// Definition returns the MCP tool definition for list_decisions.
func (t *ListDecisionsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_decisions",
		mcp.WithDescription("List a project's recorded decisions, newest first."),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum decisions to return (default: 20)"),
		),
	)
}

// Handle processes the list_decisions tool call.
func (t *ListDecisionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := t.store.ResolveProjectOrDefault(req.GetString("project", ""))
	if err != nil {
		return errResult("resolve project", err), nil
	}

	decisions, err := t.store.ListDecisions(projectID, intArg(req, "limit", 20))
	if err != nil {
		return errResult("list decisions", err), nil
	}
	if len(decisions) == 0 {
		return mcp.NewToolResultText("No decisions recorded for this project yet."), nil
	}

	return jsonResult(decisions)
}
