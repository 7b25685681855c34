package store

import (
	"fmt"

	"github.com/mwhitford/handoff/internal/ident"
)

type sessionRow struct {
	ID            string `db:"id"`
	ProjectID     string `db:"project_id"`
	Summary       string `db:"summary"`
	TasksWorkedOn string `db:"tasks_worked_on"`
	DecisionsMade string `db:"decisions_made"`
	NextSteps     string `db:"next_steps"`
	CreatedAt     string `db:"created_at"`
}

func (r sessionRow) toSession() Session {
	return Session{
		ID:            r.ID,
		ProjectID:     r.ProjectID,
		Summary:       r.Summary,
		TasksWorkedOn: decodeList(r.TasksWorkedOn),
		DecisionsMade: decodeList(r.DecisionsMade),
		NextSteps:     r.NextSteps,
		CreatedAt:     r.CreatedAt,
	}
}

// CreateSessionParams holds the input for recording a session. Both
// user-authored and synthetic sessions go through here; the schema does
// not distinguish them.
type CreateSessionParams struct {
	ProjectID     string
	Summary       string
	TasksWorkedOn []string
	DecisionsMade []string
	NextSteps     string
}

// CreateSession appends a session row. Sessions are strictly append-only:
// there is no update or delete path.
func (s *Store) CreateSession(p CreateSessionParams) (*Session, error) {
	if p.Summary == "" {
		return nil, fmt.Errorf("store: create session: summary is required")
	}

	id := ident.GenerateID()
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, project_id, summary, tasks_worked_on, decisions_made, next_steps, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, p.ProjectID, p.Summary, encodeList(p.TasksWorkedOn), encodeList(p.DecisionsMade),
		p.NextSteps, Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("store: create session: %w", err)
	}

	var r sessionRow
	if err := s.db.Get(&r, `SELECT * FROM sessions WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	sess := r.toSession()
	return &sess, nil
}

// LatestSession returns the most recent session for a project, or nil
// when none exists yet.
func (s *Store) LatestSession(projectID string) (*Session, error) {
	var r sessionRow
	err := s.db.Get(&r,
		`SELECT * FROM sessions WHERE project_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		projectID,
	)
	if err != nil {
		if notFound(err) == ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("store: latest session: %w", err)
	}
	sess := r.toSession()
	return &sess, nil
}

// ListSessions returns a project's sessions newest first.
func (s *Store) ListSessions(projectID string, limit int) ([]Session, error) {
	query := `SELECT * FROM sessions WHERE project_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{projectID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []sessionRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("store: list sessions: %w", err)
	}
	sessions := make([]Session, 0, len(rows))
	for _, r := range rows {
		sessions = append(sessions, r.toSession())
	}
	return sessions, nil
}
