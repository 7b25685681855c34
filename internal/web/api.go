package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/mwhitford/handoff/internal/store"
)

// resolveProjectRef maps the {ref} path segment (id or name) to a project
// id, writing the error response itself on failure.
func (s *Server) resolveProjectRef(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := s.store.ResolveProject(r.PathValue("ref"))
	if err != nil {
		s.storeError(w, err)
		return "", false
	}
	return id, true
}

// resolveTaskRef maps the {ref} path segment (id or short id) to a task id.
func (s *Server) resolveTaskRef(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := s.store.ResolveTask(r.PathValue("ref"))
	if err != nil {
		s.storeError(w, err)
		return "", false
	}
	return id, true
}

func limitParam(r *http.Request, defaultVal int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return defaultVal
	}
	return n
}

// ─── Projects ───────────────────────────────────────────────────────────────

// apiListProjects returns all projects, optionally filtered by status.
func (s *Server) apiListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.URL.Query().Get("status"))
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, projects)
}

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	RepoPath    string   `json:"repo_path"`
	TechStack   []string `json:"tech_stack"`
}

// apiCreateProject creates a new project.
func (s *Server) apiCreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		s.jsonError(w, "name is required", http.StatusBadRequest)
		return
	}

	project, err := s.store.CreateProject(store.CreateProjectParams{
		Name:        req.Name,
		Description: req.Description,
		RepoPath:    req.RepoPath,
		TechStack:   req.TechStack,
	})
	if err != nil {
		s.storeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	s.jsonResponse(w, project)
}

// apiGetProject returns one project with its task counts and last session.
func (s *Server) apiGetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveProjectRef(w, r)
	if !ok {
		return
	}

	project, err := s.store.GetProject(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	counts, err := s.store.CountTasksByStatus(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	last, err := s.store.LatestSession(id)
	if err != nil {
		s.storeError(w, err)
		return
	}

	s.jsonResponse(w, map[string]any{
		"project":      project,
		"task_counts":  counts,
		"last_session": last,
	})
}

// UpdateProjectRequest is the request body for a partial project update.
type UpdateProjectRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	RepoPath    *string   `json:"repo_path"`
	TechStack   *[]string `json:"tech_stack"`
}

// apiUpdateProject applies a partial update.
func (s *Server) apiUpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveProjectRef(w, r)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	project, err := s.store.UpdateProject(id, store.UpdateProjectParams{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		RepoPath:    req.RepoPath,
		TechStack:   req.TechStack,
	})
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, project)
}

// apiDeleteProject removes a project and everything hanging off it. The
// dashboard is the only surface that exposes deletion; tool calls archive
// via status instead.
func (s *Server) apiDeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveProjectRef(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteProject(id); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Per-project collections ────────────────────────────────────────────────

// apiListTasks returns a project's tasks with the usual filters.
func (s *Server) apiListTasks(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveProjectRef(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	tasks, err := s.store.ListTasks(id, store.TaskFilter{
		Status:        q.Get("status"),
		Priority:      q.Get("priority"),
		Tag:           q.Get("tag"),
		IncludeClosed: q.Get("include_closed") == "true",
	})
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, tasks)
}

// apiListDecisions returns a project's decisions newest first.
func (s *Server) apiListDecisions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveProjectRef(w, r)
	if !ok {
		return
	}
	decisions, err := s.store.ListDecisions(id, limitParam(r, 50))
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, decisions)
}

// apiListNotes returns a project's notes newest first.
func (s *Server) apiListNotes(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveProjectRef(w, r)
	if !ok {
		return
	}
	notes, err := s.store.ListNotes(id, r.URL.Query().Get("category"), "", limitParam(r, 50))
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, notes)
}

// apiListSessions returns a project's session history.
func (s *Server) apiListSessions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveProjectRef(w, r)
	if !ok {
		return
	}
	sessions, err := s.store.ListSessions(id, limitParam(r, 50))
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, sessions)
}

// CreateSessionRequest is the request body for recording a session.
type CreateSessionRequest struct {
	Summary       string   `json:"summary"`
	TasksWorkedOn []string `json:"tasks_worked_on"`
	DecisionsMade []string `json:"decisions_made"`
	NextSteps     string   `json:"next_steps"`
}

// apiCreateSession records a session entry from the dashboard.
func (s *Server) apiCreateSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveProjectRef(w, r)
	if !ok {
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Summary == "" {
		s.jsonError(w, "summary is required", http.StatusBadRequest)
		return
	}

	sess, err := s.store.CreateSession(store.CreateSessionParams{
		ProjectID:     id,
		Summary:       req.Summary,
		TasksWorkedOn: req.TasksWorkedOn,
		DecisionsMade: req.DecisionsMade,
		NextSteps:     req.NextSteps,
	})
	if err != nil {
		s.storeError(w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	s.jsonResponse(w, sess)
}

// apiGetContext returns a project's stored facts.
func (s *Server) apiGetContext(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveProjectRef(w, r)
	if !ok {
		return
	}
	entries, err := s.store.GetContext(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, entries)
}

// apiDeleteContext removes one stored fact.
func (s *Server) apiDeleteContext(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveProjectRef(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteContext(id, r.PathValue("key")); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Tasks ──────────────────────────────────────────────────────────────────

// apiGetTask returns a single task.
func (s *Server) apiGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveTaskRef(w, r)
	if !ok {
		return
	}
	task, err := s.store.GetTask(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, task)
}

// UpdateTaskRequest is the request body for a partial task update.
type UpdateTaskRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Status      *string   `json:"status"`
	Priority    *string   `json:"priority"`
	Tags        *[]string `json:"tags"`
	BlockedBy   *[]string `json:"blocked_by"`
}

// apiUpdateTask applies a partial update.
func (s *Server) apiUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveTaskRef(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	task, err := s.store.UpdateTask(id, store.UpdateTaskParams{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		Tags:        req.Tags,
		BlockedBy:   req.BlockedBy,
	})
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, task)
}

// apiDeleteTask removes a task and its subtasks.
func (s *Server) apiDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveTaskRef(w, r)
	if !ok {
		return
	}
	if err := s.store.DeleteTask(id); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// apiTaskHistory returns a task's audit trail.
func (s *Server) apiTaskHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.resolveTaskRef(w, r)
	if !ok {
		return
	}
	events, err := s.store.TaskHistory(id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	s.jsonResponse(w, events)
}
