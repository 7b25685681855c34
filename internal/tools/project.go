package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mwhitford/handoff/internal/continuity"
	"github.com/mwhitford/handoff/internal/store"
)

// CreateProjectTool handles the create_project MCP tool.
type CreateProjectTool struct {
	store  *store.Store
	engine *continuity.Engine
}

// NewCreateProjectTool creates a CreateProjectTool.
func NewCreateProjectTool(s *store.Store, e *continuity.Engine) *CreateProjectTool {
	return &CreateProjectTool{store: s, engine: e}
}

// Definition returns the MCP tool definition for create_project.
func (t *CreateProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("create_project",
		mcp.WithDescription(
			"Register a new project to track. Project names are unique "+
				"(case-insensitive); the returned project carries the short slug "+
				"used in task display ids like \"hnd-3\".",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Project name"),
		),
		mcp.WithString("description",
			mcp.Description("What this project is"),
		),
		mcp.WithString("repo_path",
			mcp.Description("Local repository path"),
		),
		mcp.WithArray("tech_stack",
			mcp.Description("Languages and frameworks in use"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the create_project tool call.
func (t *CreateProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	project, err := t.store.CreateProject(store.CreateProjectParams{
		Name:        name,
		Description: req.GetString("description", ""),
		RepoPath:    req.GetString("repo_path", ""),
		TechStack:   stringListArg(req, "tech_stack"),
	})
	if err != nil {
		return errResult("create project", err), nil
	}

	// A brand-new project has nothing to catch up on.
	t.engine.Gate().Mark(project.ID)

	return jsonResult(project)
}

// ─── ListProjectsTool ───────────────────────────────────────────────────────

// ListProjectsTool handles the list_projects MCP tool.
type ListProjectsTool struct {
	store *store.Store
}

// NewListProjectsTool creates a ListProjectsTool.
func NewListProjectsTool(s *store.Store) *ListProjectsTool {
	return &ListProjectsTool{store: s}
}

// Definition returns the MCP tool definition for list_projects.
func (t *ListProjectsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_projects",
		mcp.WithDescription("List tracked projects, most recently active first."),
		mcp.WithString("status",
			mcp.Description("Filter by status: active, paused, completed, archived"),
			mcp.Enum(store.ProjectActive, store.ProjectPaused, store.ProjectCompleted, store.ProjectArchived),
		),
	)
}

// Handle processes the list_projects tool call.
func (t *ListProjectsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := t.store.ListProjects(req.GetString("status", ""))
	if err != nil {
		return errResult("list projects", err), nil
	}
	if len(projects) == 0 {
		return mcp.NewToolResultText("No projects tracked yet. Use create_project to register one."), nil
	}

	return jsonResult(projects)
}

// ─── GetProjectTool ─────────────────────────────────────────────────────────

// GetProjectTool handles the get_project MCP tool.
type GetProjectTool struct {
	store *store.Store
}

// NewGetProjectTool creates a GetProjectTool.
func NewGetProjectTool(s *store.Store) *GetProjectTool {
	return &GetProjectTool{store: s}
}

// Definition returns the MCP tool definition for get_project.
func (t *GetProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("get_project",
		mcp.WithDescription(
			"Get one project's details along with its task counts by status "+
				"and its most recent session.",
		),
		mcp.WithString("project",
			mcp.Description("Project name or id. Defaults to the most recently active project."),
		),
	)
}

// Handle processes the get_project tool call.
func (t *GetProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projectID, err := t.store.ResolveProjectOrDefault(req.GetString("project", ""))
	if err != nil {
		return errResult("resolve project", err), nil
	}

	project, err := t.store.GetProject(projectID)
	if err != nil {
		return errResult("get project", err), nil
	}
	counts, err := t.store.CountTasksByStatus(projectID)
	if err != nil {
		return errResult("get project", err), nil
	}
	last, err := t.store.LatestSession(projectID)
	if err != nil {
		return errResult("get project", err), nil
	}

	return jsonResult(map[string]any{
		"project":      project,
		"task_counts":  counts,
		"last_session": last,
	})
}

// ─── UpdateProjectTool ──────────────────────────────────────────────────────

// UpdateProjectTool handles the update_project MCP tool.
type UpdateProjectTool struct {
	store *store.Store
}

// NewUpdateProjectTool creates an UpdateProjectTool.
func NewUpdateProjectTool(s *store.Store) *UpdateProjectTool {
	return &UpdateProjectTool{store: s}
}

// Definition returns the MCP tool definition for update_project.
func (t *UpdateProjectTool) Definition() mcp.Tool {
	return mcp.NewTool("update_project",
		mcp.WithDescription(
			"Update a project's fields. Only the supplied fields change. "+
				"Use status to pause, complete, or archive a project; projects "+
				"are never deleted through tool calls.",
		),
		mcp.WithString("project",
			mcp.Required(),
			mcp.Description("Project name or id"),
		),
		mcp.WithString("name",
			mcp.Description("New project name"),
		),
		mcp.WithString("description",
			mcp.Description("New description"),
		),
		mcp.WithString("status",
			mcp.Description("New status"),
			mcp.Enum(store.ProjectActive, store.ProjectPaused, store.ProjectCompleted, store.ProjectArchived),
		),
		mcp.WithString("repo_path",
			mcp.Description("New repository path"),
		),
		mcp.WithArray("tech_stack",
			mcp.Description("Replacement tech stack list"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	)
}

// Handle processes the update_project tool call.
func (t *UpdateProjectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref := req.GetString("project", "")
	if ref == "" {
		return mcp.NewToolResultError("'project' is required"), nil
	}
	projectID, err := t.store.ResolveProject(ref)
	if err != nil {
		return errResult("resolve project", err), nil
	}

	params := store.UpdateProjectParams{
		Name:        optString(req, "name"),
		Description: optString(req, "description"),
		Status:      optString(req, "status"),
		RepoPath:    optString(req, "repo_path"),
	}
	if argPresent(req, "tech_stack") {
		stack := stringListArg(req, "tech_stack")
		params.TechStack = &stack
	}

	project, err := t.store.UpdateProject(projectID, params)
	if err != nil {
		return errResult("update project", err), nil
	}

	return jsonResult(project)
}
