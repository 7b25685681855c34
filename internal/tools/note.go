package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mwhitford/handoff/internal/continuity"
	"github.com/mwhitford/handoff/internal/store"
)

// AddNoteTool handles the add_note MCP tool.
type AddNoteTool struct {
	store  *store.Store
	engine *continuity.Engine
}

// NewAddNoteTool creates an AddNoteTool.
func NewAddNoteTool(s *store.Store, e *continuity.Engine) *AddNoteTool {
	return &AddNoteTool{store: s, engine: e}
}

// Definition returns the MCP tool definition for add_note.
func (t *AddNoteTool) Definition() mcp.Tool {
	return mcp.NewTool("add_note",
		mcp.WithDescription(
			"Attach a free-form note to a project or a specific task. Notes "+
				"are immutable and surface in the catch-up snapshot's activity.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Note content"),
		),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
		mcp.WithString("task",
			mcp.Description("Task id or short id this note belongs to"),
		),
		mcp.WithString("category",
			mcp.Description("Note category (default: general)"),
			mcp.Enum(store.NoteGeneral, store.NoteArchitecture, store.NoteBug,
				store.NoteIdea, store.NoteResearch, store.NoteMeeting, store.NoteReview),
		),
		mcp.WithArray("tags",
			mcp.Description("Free-form tags"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the add_note tool call.
func (t *AddNoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
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

	note, err := t.store.CreateNote(store.CreateNoteParams{
		ProjectID: projectID,
		TaskID:    taskID,
		Content:   content,
		Category:  req.GetString("category", ""),
		Tags:      stringListArg(req, "tags"),
	})
	if err != nil {
		return errResult("add note", err), nil
	}

	return jsonResult(withCatchUp(snap, note))
}

// ─── ListNotesTool ──────────────────────────────────────────────────────────

// ListNotesTool handles the list_notes MCP tool.
type ListNotesTool struct {
	store *store.Store
}

// NewListNotesTool creates a ListNotesTool.
func NewListNotesTool(s *store.Store) *ListNotesTool {
	return &ListNotesTool{store: s}
}

// Definition returns the MCP tool definition for list_notes.
func (t *ListNotesTool) Definition() mcp.Tool {
	return mcp.NewTool("list_notes",
		mcp.WithDescription("List a project's notes newest first, optionally filtered by category or task."),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
		mcp.WithString("category",
			mcp.Description("Filter by category"),
			mcp.Enum(store.NoteGeneral, store.NoteArchitecture, store.NoteBug,
				store.NoteIdea, store.NoteResearch, store.NoteMeeting, store.NoteReview),
		),
		mcp.WithString("task",
			mcp.Description("Only notes on this task (id or short id)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum notes to return (default: 20)"),
		),
	)
}

// Handle processes the list_notes tool call.
func (t *ListNotesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := t.store.ResolveProjectOrDefault(req.GetString("project", ""))
	if err != nil {
		return errResult("resolve project", err), nil
	}

	taskID := ""
	if ref := req.GetString("task", ""); ref != "" {
		if taskID, err = t.store.ResolveTask(ref); err != nil {
			return errResult(fmt.Sprintf("resolve task %q", ref), err), nil
		}
	}

	notes, err := t.store.ListNotes(projectID, req.GetString("category", ""), taskID, intArg(req, "limit", 20))
	if err != nil {
		return errResult("list notes", err), nil
	}
	if len(notes) == 0 {
		return mcp.NewToolResultText("No notes match."), nil
	}

	return jsonResult(notes)
}
