// Package web provides the HTTP server for the Handoff dashboard.
//
// The dashboard is a read-mostly window onto the store for humans: an HTML
// overview plus a JSON API. It knows nothing the store does not expose and
// never touches the reconciliation gate, which belongs to the MCP process.
package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"

	"github.com/mwhitford/handoff/internal/continuity"
	"github.com/mwhitford/handoff/internal/store"
)

//go:embed templates/*
var templatesFS embed.FS

// Server is the dashboard web server.
type Server struct {
	store     *store.Store
	templates *template.Template
	logger    zerolog.Logger
	server    *http.Server
}

// NewServer creates a dashboard server over an already-open store.
func NewServer(st *store.Store, logger zerolog.Logger) (*Server, error) {
	tmpl, err := template.New("").Funcs(templateFuncs()).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}

	return &Server{
		store:     st,
		templates: tmpl,
		logger:    logger.With().Str("component", "web").Logger(),
	}, nil
}

// templateFuncs returns custom template functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"statusColor": func(status string) string {
			colors := map[string]string{
				store.TaskTodo:       "gray",
				store.TaskInProgress: "blue",
				store.TaskBlocked:    "red",
				store.TaskDone:       "green",
				store.TaskCancelled:  "gray",
				store.ProjectActive:  "green",
				store.ProjectPaused:  "yellow",
			}
			if c, ok := colors[status]; ok {
				return c
			}
			return "gray"
		},
		"priorityColor": func(priority string) string {
			colors := map[string]string{
				store.PriorityCritical: "red",
				store.PriorityHigh:     "orange",
				store.PriorityMedium:   "blue",
				store.PriorityLow:      "gray",
			}
			if c, ok := colors[priority]; ok {
				return c
			}
			return "gray"
		},
		"timeAgo": func(ts string) string {
			t, err := time.Parse(store.TimeLayout, ts)
			if err != nil {
				return ts
			}
			d := time.Since(t)
			switch {
			case d < time.Minute:
				return "just now"
			case d < time.Hour:
				return fmt.Sprintf("%dm ago", int(d.Minutes()))
			case d < 24*time.Hour:
				return fmt.Sprintf("%dh ago", int(d.Hours()))
			default:
				return fmt.Sprintf("%dd ago", int(d.Hours()/24))
			}
		},
		"truncate": func(n int, s string) string {
			if len(s) <= n {
				return s
			}
			return s[:n] + "..."
		},
		"join": func(items []string) string {
			return strings.Join(items, ", ")
		},
		"synthetic": continuity.IsSynthetic,
		// Markdown rendering for descriptions and session summaries.
		"markdown": func(s string) template.HTML {
			var buf bytes.Buffer
			if err := goldmark.Convert([]byte(s), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(s)) //nolint:gosec // Explicitly escaped
			}
			return template.HTML(buf.String()) //nolint:gosec // goldmark produces safe HTML
		},
	}
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	// Page routes
	mux.HandleFunc("GET /{$}", s.handleOverview)
	mux.HandleFunc("GET /projects/{ref}", s.handleProjectDetail)

	// Project API routes
	mux.HandleFunc("GET /api/projects", s.apiListProjects)
	mux.HandleFunc("POST /api/projects", s.apiCreateProject)
	mux.HandleFunc("GET /api/projects/{ref}", s.apiGetProject)
	mux.HandleFunc("PATCH /api/projects/{ref}", s.apiUpdateProject)
	mux.HandleFunc("DELETE /api/projects/{ref}", s.apiDeleteProject)

	// Per-project collections
	mux.HandleFunc("GET /api/projects/{ref}/tasks", s.apiListTasks)
	mux.HandleFunc("GET /api/projects/{ref}/decisions", s.apiListDecisions)
	mux.HandleFunc("GET /api/projects/{ref}/notes", s.apiListNotes)
	mux.HandleFunc("GET /api/projects/{ref}/sessions", s.apiListSessions)
	mux.HandleFunc("POST /api/projects/{ref}/sessions", s.apiCreateSession)
	mux.HandleFunc("GET /api/projects/{ref}/context", s.apiGetContext)
	mux.HandleFunc("DELETE /api/projects/{ref}/context/{key}", s.apiDeleteContext)

	// Task API routes
	mux.HandleFunc("GET /api/tasks/{ref}", s.apiGetTask)
	mux.HandleFunc("PATCH /api/tasks/{ref}", s.apiUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{ref}", s.apiDeleteTask)
	mux.HandleFunc("GET /api/tasks/{ref}/history", s.apiTaskHistory)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.withLogging(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("addr", addr).Msg("starting dashboard server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// withLogging wraps a handler with request logging.
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// render executes a template.
func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error().Str("template", name).Err(err).Msg("template error")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// jsonResponse writes a JSON response.
func (s *Server) jsonResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// jsonError writes a JSON error response.
func (s *Server) jsonError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// storeError maps storage sentinels to HTTP status codes.
func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrDuplicateName):
		s.jsonError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, store.ErrNoFields), errors.Is(err, store.ErrNoDefaultProject):
		s.jsonError(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error().Err(err).Msg("storage error")
		s.jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
