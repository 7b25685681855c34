package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mwhitford/handoff/internal/continuity"
	"github.com/mwhitford/handoff/internal/store"
)

// SetContextTool handles the set_context MCP tool.
type SetContextTool struct {
	store  *store.Store
	engine *continuity.Engine
}

// NewSetContextTool creates a SetContextTool.
func NewSetContextTool(s *store.Store, e *continuity.Engine) *SetContextTool {
	return &SetContextTool{store: s, engine: e}
}

// Definition returns the MCP tool definition for set_context.
func (t *SetContextTool) Definition() mcp.Tool {
	return mcp.NewTool("set_context",
		mcp.WithDescription(
			"Store a keyed fact about a project, e.g. key=\"deploy\" "+
				"value=\"fly.io via make deploy\". Writing the same key again "+
				"overwrites the previous value. Facts come back with every "+
				"catch-up snapshot.",
		),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Fact key"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Fact value"),
		),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
		mcp.WithString("category",
			mcp.Description("Optional grouping, e.g. \"infra\" or \"conventions\""),
		),
	)
}

// Handle processes the set_context tool call.
func (t *SetContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	value := req.GetString("value", "")
	if key == "" {
		return mcp.NewToolResultError("'key' is required"), nil
	}
	if value == "" {
		return mcp.NewToolResultError("'value' is required"), nil
	}

	projectID, err := t.store.ResolveProjectOrDefault(req.GetString("project", ""))
	if err != nil {
		return errResult("resolve project", err), nil
	}

	snap, _, err := t.engine.BeginWork(projectID)
	if err != nil {
		return errResult("catch up project", err), nil
	}

	entry, err := t.store.SetContext(projectID, key, value, req.GetString("category", ""))
	if err != nil {
		return errResult("set context", err), nil
	}

	return jsonResult(withCatchUp(snap, entry))
}

// ─── GetContextTool ─────────────────────────────────────────────────────────

// GetContextTool handles the get_context MCP tool.
type GetContextTool struct {
	store *store.Store
}

// NewGetContextTool creates a GetContextTool.
func NewGetContextTool(s *store.Store) *GetContextTool {
	return &GetContextTool{store: s}
}

// Definition returns the MCP tool definition for get_context.
func (t *GetContextTool) Definition() mcp.Tool {
	return mcp.NewTool("get_context",
		mcp.WithDescription("List a project's stored facts, grouped by category."),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
	)
}

// Handle processes the get_context tool call.
func (t *GetContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := t.store.ResolveProjectOrDefault(req.GetString("project", ""))
	if err != nil {
		return errResult("resolve project", err), nil
	}

	entries, err := t.store.GetContext(projectID)
	if err != nil {
		return errResult("get context", err), nil
	}
	if len(entries) == 0 {
		return mcp.NewToolResultText("No context stored for this project yet. Use set_context to add facts."), nil
	}

	return jsonResult(entries)
}

// ─── DeleteContextTool ──────────────────────────────────────────────────────

// DeleteContextTool handles the delete_context MCP tool.
type DeleteContextTool struct {
	store *store.Store
}

// NewDeleteContextTool creates a DeleteContextTool.
func NewDeleteContextTool(s *store.Store) *DeleteContextTool {
	return &DeleteContextTool{store: s}
}

// Definition returns the MCP tool definition for delete_context.
func (t *DeleteContextTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_context",
		mcp.WithDescription("Remove a stored fact that no longer holds."),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("Fact key to remove"),
		),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
	)
}

// Handle processes the delete_context tool call.
func (t *DeleteContextTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	if key == "" {
		return mcp.NewToolResultError("'key' is required"), nil
	}

	projectID, err := t.store.ResolveProjectOrDefault(req.GetString("project", ""))
	if err != nil {
		return errResult("resolve project", err), nil
	}

	if err := t.store.DeleteContext(projectID, key); err != nil {
		return errResult(fmt.Sprintf("delete context %q", key), err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Context %q removed.", key)), nil
}
