// Package resources implements MCP resource handlers.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (handoff://...) following MCP conventions.
// Reads never mutate: unlike start_session, fetching a resource does not
// synthesize catch-up sessions or touch project recency.
package resources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mwhitford/handoff/internal/store"
)

// Handler manages handoff resource endpoints.
type Handler struct {
	store *store.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(st *store.Store) *Handler {
	return &Handler{store: st}
}

// ProjectsResource returns the MCP resource definition for the project list.
func (h *Handler) ProjectsResource() mcp.Resource {
	return mcp.NewResource(
		"handoff://projects",
		"Tracked Projects",
		mcp.WithResourceDescription("All tracked projects with their task counts"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleProjects returns every project with its task counts as JSON.
func (h *Handler) HandleProjects(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projects, err := h.store.ListProjects("")
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	type projectView struct {
		store.Project
		TaskCounts map[string]int `json:"task_counts,omitempty"`
	}
	views := make([]projectView, 0, len(projects))
	for _, p := range projects {
		counts, err := h.store.CountTasksByStatus(p.ID)
		if err != nil {
			return nil, fmt.Errorf("counting tasks for %s: %w", p.ID, err)
		}
		views = append(views, projectView{Project: p, TaskCounts: counts})
	}

	return jsonResource(req.Params.URI, views)
}

// BriefResource returns the MCP resource definition for the current-project
// brief.
func (h *Handler) BriefResource() mcp.Resource {
	return mcp.NewResource(
		"handoff://brief",
		"Current Project Brief",
		mcp.WithResourceDescription(
			"Read-only state of the most recently active project: last session, open and blocked tasks, and stored context",
		),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleBrief assembles the default project's current state. This is the
// passive sibling of start_session: same shape of information, but it never
// writes a synthetic session.
func (h *Handler) HandleBrief(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	projectID, err := h.store.ResolveProjectOrDefault("")
	if err != nil {
		if errors.Is(err, store.ErrNoDefaultProject) {
			return errorResource(req.Params.URI, "no active projects; create one with create_project"), nil
		}
		return nil, fmt.Errorf("resolving default project: %w", err)
	}

	project, err := h.store.GetProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	lastSession, err := h.store.LatestSession(projectID)
	if err != nil {
		return nil, fmt.Errorf("loading last session: %w", err)
	}
	openTasks, err := h.store.ListTasks(projectID, store.TaskFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	blockedTasks, err := h.store.ListTasks(projectID, store.TaskFilter{Status: store.TaskBlocked})
	if err != nil {
		return nil, fmt.Errorf("listing blocked tasks: %w", err)
	}
	counts, err := h.store.CountTasksByStatus(projectID)
	if err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}
	entries, err := h.store.GetContext(projectID)
	if err != nil {
		return nil, fmt.Errorf("loading context: %w", err)
	}

	brief := map[string]any{
		"project":       project,
		"last_session":  lastSession,
		"open_tasks":    openTasks,
		"blocked_tasks": blockedTasks,
		"task_counts":   counts,
		"context":       entries,
	}
	return jsonResource(req.Params.URI, brief)
}

// jsonResource marshals v as an application/json resource.
func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
