package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mwhitford/handoff/internal/continuity"
	"github.com/mwhitford/handoff/internal/store"
)

// StartSessionTool handles the start_session MCP tool.
type StartSessionTool struct {
	store  *store.Store
	engine *continuity.Engine
}

// NewStartSessionTool creates a StartSessionTool.
func NewStartSessionTool(s *store.Store, e *continuity.Engine) *StartSessionTool {
	return &StartSessionTool{store: s, engine: e}
}

// Definition returns the MCP tool definition for start_session.
func (t *StartSessionTool) Definition() mcp.Tool {
	return mcp.NewTool("start_session",
		mcp.WithDescription(
			"Catch up on a project at the start of a conversation. Returns the "+
				"last session summary, activity since then, active and blocked tasks, "+
				"recent decisions, and project context. If work happened since the last "+
				"recorded session, a catch-up session entry is synthesized to cover it.",
		),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
	)
}

// Handle processes the start_session tool call.
func (t *StartSessionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := t.store.ResolveProjectOrDefault(req.GetString("project", ""))
	if err != nil {
		return errResult("resolve project", err), nil
	}

	snap, err := t.engine.StartSession(projectID)
	if err != nil {
		return errResult("start session", err), nil
	}

	return jsonResult(snap)
}

// ─── EndSessionTool ─────────────────────────────────────────────────────────

// EndSessionTool handles the end_session MCP tool.
type EndSessionTool struct {
	store  *store.Store
	engine *continuity.Engine
}

// NewEndSessionTool creates an EndSessionTool.
func NewEndSessionTool(s *store.Store, e *continuity.Engine) *EndSessionTool {
	return &EndSessionTool{store: s, engine: e}
}

// Definition returns the MCP tool definition for end_session.
func (t *EndSessionTool) Definition() mcp.Tool {
	return mcp.NewTool("end_session",
		mcp.WithDescription(
			"Record a session summary at the end of a conversation. The summary and "+
				"next steps are what the next session's catch-up will lead with, so write "+
				"them for a reader with no memory of this conversation.",
		),
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("What was accomplished this session"),
		),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
		mcp.WithString("next_steps",
			mcp.Description("Where to pick up next time"),
		),
		mcp.WithArray("tasks_worked_on",
			mcp.Description("Task ids or short ids (e.g. \"hnd-3\") touched this session"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("decisions_made",
			mcp.Description("Decision ids recorded this session"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the end_session tool call.
func (t *EndSessionTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary := req.GetString("summary", "")
	if summary == "" {
		return mcp.NewToolResultError("'summary' is required"), nil
	}

	projectID, err := t.store.ResolveProjectOrDefault(req.GetString("project", ""))
	if err != nil {
		return errResult("resolve project", err), nil
	}

	taskIDs, err := resolveTaskRefs(t.store, stringListArg(req, "tasks_worked_on"))
	if err != nil {
		return errResult("resolve tasks", err), nil
	}

	sess, err := t.store.CreateSession(store.CreateSessionParams{
		ProjectID:     projectID,
		Summary:       summary,
		TasksWorkedOn: taskIDs,
		DecisionsMade: stringListArg(req, "decisions_made"),
		NextSteps:     req.GetString("next_steps", ""),
	})
	if err != nil {
		return errResult("record session", err), nil
	}

	// An explicit session record supersedes any pending catch-up.
	t.engine.Gate().Mark(projectID)

	if err := t.store.TouchProject(projectID); err != nil {
		return errResult("record session", err), nil
	}

	return jsonResult(sess)
}

// ─── ListSessionsTool ───────────────────────────────────────────────────────

// ListSessionsTool handles the list_sessions MCP tool.
type ListSessionsTool struct {
	store *store.Store
}

// NewListSessionsTool creates a ListSessionsTool.
func NewListSessionsTool(s *store.Store) *ListSessionsTool {
	return &ListSessionsTool{store: s}
}

// Definition returns the MCP tool definition for list_sessions.
func (t *ListSessionsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_sessions",
		mcp.WithDescription("List a project's session history, newest first."),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum sessions to return (default: 10)"),
		),
	)
}

// Handle processes the list_sessions tool call.
func (t *ListSessionsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := t.store.ResolveProjectOrDefault(req.GetString("project", ""))
	if err != nil {
		return errResult("resolve project", err), nil
	}

	sessions, err := t.store.ListSessions(projectID, intArg(req, "limit", 10))
	if err != nil {
		return errResult("list sessions", err), nil
	}
	if len(sessions) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No sessions recorded for project %q yet.", projectID)), nil
	}

	return jsonResult(sessions)
}
