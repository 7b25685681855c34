package web

import (
	"net/http"

	"github.com/mwhitford/handoff/internal/store"
)

// overviewProject is one row on the overview page.
type overviewProject struct {
	Project    store.Project
	TaskCounts map[string]int
	Open       int
}

// handleOverview renders the project overview page.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.URL.Query().Get("status"))
	if err != nil {
		s.logger.Error().Err(err).Msg("overview: list projects")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	rows := make([]overviewProject, 0, len(projects))
	for _, p := range projects {
		counts, err := s.store.CountTasksByStatus(p.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("project", p.ID).Msg("overview: task counts")
			continue
		}
		open := counts[store.TaskTodo] + counts[store.TaskInProgress] + counts[store.TaskBlocked]
		rows = append(rows, overviewProject{Project: p, TaskCounts: counts, Open: open})
	}

	s.render(w, "index.html", map[string]any{
		"Projects": rows,
	})
}

// handleProjectDetail renders one project's page: tasks, sessions,
// decisions, notes, and stored facts.
func (s *Server) handleProjectDetail(w http.ResponseWriter, r *http.Request) {
	id, err := s.store.ResolveProject(r.PathValue("ref"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	project, err := s.store.GetProject(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	tasks, err := s.store.ListTasks(id, store.TaskFilter{IncludeClosed: true})
	if err != nil {
		s.logger.Error().Err(err).Msg("project page: tasks")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	sessions, err := s.store.ListSessions(id, 10)
	if err != nil {
		s.logger.Error().Err(err).Msg("project page: sessions")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	decisions, err := s.store.ListDecisions(id, 10)
	if err != nil {
		s.logger.Error().Err(err).Msg("project page: decisions")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	notes, err := s.store.ListNotes(id, "", "", 10)
	if err != nil {
		s.logger.Error().Err(err).Msg("project page: notes")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	contextEntries, err := s.store.GetContext(id)
	if err != nil {
		s.logger.Error().Err(err).Msg("project page: context")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	s.render(w, "project.html", map[string]any{
		"Project":   project,
		"Tasks":     tasks,
		"Sessions":  sessions,
		"Decisions": decisions,
		"Notes":     notes,
		"Context":   contextEntries,
	})
}
