package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mwhitford/handoff/internal/continuity"
	"github.com/mwhitford/handoff/internal/store"
)

// CreateTaskTool handles the create_task MCP tool.
type CreateTaskTool struct {
	store  *store.Store
	engine *continuity.Engine
}

// NewCreateTaskTool creates a CreateTaskTool.
func NewCreateTaskTool(s *store.Store, e *continuity.Engine) *CreateTaskTool {
	return &CreateTaskTool{store: s, engine: e}
}

// Definition returns the MCP tool definition for create_task.
func (t *CreateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("create_task",
		mcp.WithDescription(
			"Create a task. Tasks get a short display id like \"hnd-3\" that "+
				"stays usable in every later tool call. Listing a blocked_by "+
				"dependency without an explicit status marks the task blocked.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Task title"),
		),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
		mcp.WithString("description",
			mcp.Description("Task details"),
		),
		mcp.WithString("status",
			mcp.Description("Initial status (default: todo)"),
			mcp.Enum(store.TaskTodo, store.TaskInProgress, store.TaskBlocked, store.TaskDone, store.TaskCancelled),
		),
		mcp.WithString("priority",
			mcp.Description("Priority (default: medium)"),
			mcp.Enum(store.PriorityCritical, store.PriorityHigh, store.PriorityMedium, store.PriorityLow),
		),
		mcp.WithArray("tags",
			mcp.Description("Free-form tags"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithString("parent_task",
			mcp.Description("Parent task id or short id, for subtasks"),
		),
		mcp.WithArray("blocked_by",
			mcp.Description("Ids or short ids of tasks this one waits on"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the create_task tool call.
func (t *CreateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	if title == "" {
		return mcp.NewToolResultError("'title' is required"), nil
	}

	projectID, err := t.store.ResolveProjectOrDefault(req.GetString("project", ""))
	if err != nil {
		return errResult("resolve project", err), nil
	}

	snap, _, err := t.engine.BeginWork(projectID)
	if err != nil {
		return errResult("catch up project", err), nil
	}

	parentID := ""
	if ref := req.GetString("parent_task", ""); ref != "" {
		if parentID, err = t.store.ResolveTask(ref); err != nil {
			return errResult(fmt.Sprintf("resolve parent task %q", ref), err), nil
		}
	}
	blockedBy, err := resolveTaskRefs(t.store, stringListArg(req, "blocked_by"))
	if err != nil {
		return errResult("resolve blocked_by", err), nil
	}

	task, err := t.store.CreateTask(store.CreateTaskParams{
		ProjectID:    projectID,
		Title:        title,
		Description:  req.GetString("description", ""),
		Status:       req.GetString("status", ""),
		Priority:     req.GetString("priority", ""),
		Tags:         stringListArg(req, "tags"),
		ParentTaskID: parentID,
		BlockedBy:    blockedBy,
	})
	if err != nil {
		return errResult("create task", err), nil
	}

	return jsonResult(withCatchUp(snap, task))
}

// ─── UpdateTaskTool ─────────────────────────────────────────────────────────

// UpdateTaskTool handles the update_task MCP tool.
type UpdateTaskTool struct {
	store  *store.Store
	engine *continuity.Engine
}

// NewUpdateTaskTool creates an UpdateTaskTool.
func NewUpdateTaskTool(s *store.Store, e *continuity.Engine) *UpdateTaskTool {
	return &UpdateTaskTool{store: s, engine: e}
}

// Definition returns the MCP tool definition for update_task.
func (t *UpdateTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("update_task",
		mcp.WithDescription(
			"Update a task. Only the supplied fields change. Status, priority, "+
				"and title changes are recorded in the task's history. Setting "+
				"blocked_by to a non-empty list without an explicit status marks "+
				"the task blocked; an empty list unblocks nothing on its own.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Task id or short id like \"hnd-3\""),
		),
		mcp.WithString("title",
			mcp.Description("New title"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum(store.TaskTodo, store.TaskInProgress, store.TaskBlocked, store.TaskDone, store.TaskCancelled),
		),
		mcp.WithString("priority",
			mcp.Description("New priority"),
			mcp.Enum(store.PriorityCritical, store.PriorityHigh, store.PriorityMedium, store.PriorityLow),
		),
		mcp.WithArray("tags",
			mcp.Description("Replacement tag list"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("blocked_by",
			mcp.Description("Replacement dependency list (ids or short ids)"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the update_task tool call.
func (t *UpdateTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := req.GetString("task", "")
	if ref == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}
	taskID, err := t.store.ResolveTask(ref)
	if err != nil {
		return errResult(fmt.Sprintf("resolve task %q", ref), err), nil
	}

	current, err := t.store.GetTask(taskID)
	if err != nil {
		return errResult("get task", err), nil
	}
	snap, _, err := t.engine.BeginWork(current.ProjectID)
	if err != nil {
		return errResult("catch up project", err), nil
	}

	params := store.UpdateTaskParams{
		Title:       optString(req, "title"),
		Description: optString(req, "description"),
		Status:      optString(req, "status"),
		Priority:    optString(req, "priority"),
	}
	if argPresent(req, "tags") {
		tags := stringListArg(req, "tags")
		params.Tags = &tags
	}
	if argPresent(req, "blocked_by") {
		blockedBy, err := resolveTaskRefs(t.store, stringListArg(req, "blocked_by"))
		if err != nil {
			return errResult("resolve blocked_by", err), nil
		}
		params.BlockedBy = &blockedBy
	}

	task, err := t.store.UpdateTask(taskID, params)
	if err != nil {
		return errResult("update task", err), nil
	}

	return jsonResult(withCatchUp(snap, task))
}

// ─── ListTasksTool ──────────────────────────────────────────────────────────

// ListTasksTool handles the list_tasks MCP tool.
type ListTasksTool struct {
	store *store.Store
}

// NewListTasksTool creates a ListTasksTool.
func NewListTasksTool(s *store.Store) *ListTasksTool {
	return &ListTasksTool{store: s}
}

// Definition returns the MCP tool definition for list_tasks.
func (t *ListTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("list_tasks",
		mcp.WithDescription(
			"List a project's tasks ordered by priority (critical first). "+
				"Done and cancelled tasks are hidden unless include_closed is set "+
				"or status names them explicitly.",
		),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
		mcp.WithString("status",
			mcp.Description("Filter by status"),
			mcp.Enum(store.TaskTodo, store.TaskInProgress, store.TaskBlocked, store.TaskDone, store.TaskCancelled),
		),
		mcp.WithString("priority",
			mcp.Description("Filter by priority"),
			mcp.Enum(store.PriorityCritical, store.PriorityHigh, store.PriorityMedium, store.PriorityLow),
		),
		mcp.WithString("tag",
			mcp.Description("Only tasks carrying this tag"),
		),
		mcp.WithBoolean("include_closed",
			mcp.Description("Include done and cancelled tasks"),
		),
	)
}

// Handle processes the list_tasks tool call.
func (t *ListTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := t.store.ResolveProjectOrDefault(req.GetString("project", ""))
	if err != nil {
		return errResult("resolve project", err), nil
	}

	tasks, err := t.store.ListTasks(projectID, store.TaskFilter{
		Status:        req.GetString("status", ""),
		Priority:      req.GetString("priority", ""),
		Tag:           req.GetString("tag", ""),
		IncludeClosed: boolArg(req, "include_closed", false),
	})
	if err != nil {
		return errResult("list tasks", err), nil
	}
	if len(tasks) == 0 {
		return mcp.NewToolResultText("No tasks match."), nil
	}

	return jsonResult(tasks)
}

// ─── NextTasksTool ──────────────────────────────────────────────────────────

// NextTasksTool handles the next_tasks MCP tool.
type NextTasksTool struct {
	store *store.Store
}

// NewNextTasksTool creates a NextTasksTool.
func NewNextTasksTool(s *store.Store) *NextTasksTool {
	return &NextTasksTool{store: s}
}

// Definition returns the MCP tool definition for next_tasks.
func (t *NextTasksTool) Definition() mcp.Tool {
	return mcp.NewTool("next_tasks",
		mcp.WithDescription(
			"Suggest what to work on next: the oldest outstanding tasks in "+
				"priority order. Blocked tasks are excluded because they are not "+
				"actionable until their dependencies finish.",
		),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum suggestions (default: 5)"),
		),
	)
}

// Handle processes the next_tasks tool call.
func (t *NextTasksTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := t.store.ResolveProjectOrDefault(req.GetString("project", ""))
	if err != nil {
		return errResult("resolve project", err), nil
	}

	tasks, err := t.store.NextTasks(projectID, intArg(req, "limit", 0))
	if err != nil {
		return errResult("suggest tasks", err), nil
	}
	if len(tasks) == 0 {
		return mcp.NewToolResultText("Nothing actionable. Everything is blocked, done, or cancelled."), nil
	}

	return jsonResult(tasks)
}

// ─── DeleteTaskTool ─────────────────────────────────────────────────────────

// DeleteTaskTool handles the delete_task MCP tool.
type DeleteTaskTool struct {
	store *store.Store
}

// NewDeleteTaskTool creates a DeleteTaskTool.
func NewDeleteTaskTool(s *store.Store) *DeleteTaskTool {
	return &DeleteTaskTool{store: s}
}

// Definition returns the MCP tool definition for delete_task.
func (t *DeleteTaskTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_task",
		mcp.WithDescription(
			"Permanently delete a task, its subtasks, and their history and "+
				"notes. Prefer update_task with status=cancelled when the record "+
				"should survive.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Task id or short id"),
		),
	)
}

// Handle processes the delete_task tool call.
func (t *DeleteTaskTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := req.GetString("task", "")
	if ref == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}
	taskID, err := t.store.ResolveTask(ref)
	if err != nil {
		return errResult(fmt.Sprintf("resolve task %q", ref), err), nil
	}

	if err := t.store.DeleteTask(taskID); err != nil {
		return errResult("delete task", err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Task %q deleted along with its subtasks, history, and notes.", ref)), nil
}

// ─── TaskHistoryTool ────────────────────────────────────────────────────────

// TaskHistoryTool handles the task_history MCP tool.
type TaskHistoryTool struct {
	store *store.Store
}

// NewTaskHistoryTool creates a TaskHistoryTool.
func NewTaskHistoryTool(s *store.Store) *TaskHistoryTool {
	return &TaskHistoryTool{store: s}
}

// Definition returns the MCP tool definition for task_history.
func (t *TaskHistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("task_history",
		mcp.WithDescription(
			"Show a task's audit trail: creation plus every status, priority, "+
				"and title change, oldest first.",
		),
		mcp.WithString("task",
			mcp.Required(),
			mcp.Description("Task id or short id"),
		),
	)
}

// Handle processes the task_history tool call.
func (t *TaskHistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := req.GetString("task", "")
	if ref == "" {
		return mcp.NewToolResultError("'task' is required"), nil
	}
	taskID, err := t.store.ResolveTask(ref)
	if err != nil {
		return errResult(fmt.Sprintf("resolve task %q", ref), err), nil
	}

	events, err := t.store.TaskHistory(taskID)
	if err != nil {
		return errResult("load history", err), nil
	}

	return jsonResult(events)
}
