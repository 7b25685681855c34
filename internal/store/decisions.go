package store

import (
	"fmt"

	"github.com/mwhitford/handoff/internal/ident"
)

type decisionRow struct {
	ID           string  `db:"id"`
	ProjectID    string  `db:"project_id"`
	TaskID       *string `db:"task_id"`
	Title        string  `db:"title"`
	Decision     string  `db:"decision"`
	Reasoning    string  `db:"reasoning"`
	Alternatives string  `db:"alternatives"`
	Tags         string  `db:"tags"`
	CreatedAt    string  `db:"created_at"`
}

func (r decisionRow) toDecision() Decision {
	return Decision{
		ID:           r.ID,
		ProjectID:    r.ProjectID,
		TaskID:       r.TaskID,
		Title:        r.Title,
		Decision:     r.Decision,
		Reasoning:    r.Reasoning,
		Alternatives: decodeList(r.Alternatives),
		Tags:         decodeList(r.Tags),
		CreatedAt:    r.CreatedAt,
	}
}

// CreateDecisionParams holds the input for recording a decision.
type CreateDecisionParams struct {
	ProjectID    string
	TaskID       string
	Title        string
	Decision     string
	Reasoning    string
	Alternatives []string
	Tags         []string
}

// CreateDecision appends an immutable decision record.
func (s *Store) CreateDecision(p CreateDecisionParams) (*Decision, error) {
	if p.Title == "" || p.Decision == "" {
		return nil, fmt.Errorf("store: create decision: title and decision are required")
	}

	id := ident.GenerateID()
	_, err := s.db.Exec(
		`INSERT INTO decisions (id, project_id, task_id, title, decision, reasoning, alternatives, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.ProjectID, nullableString(p.TaskID), p.Title, p.Decision, p.Reasoning,
		encodeList(p.Alternatives), encodeList(p.Tags), Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("store: create decision: %w", err)
	}

	var r decisionRow
	if err := s.db.Get(&r, `SELECT * FROM decisions WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	d := r.toDecision()
	return &d, nil
}

// ListDecisions returns a project's decisions newest first.
func (s *Store) ListDecisions(projectID string, limit int) ([]Decision, error) {
	query := `SELECT * FROM decisions WHERE project_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{projectID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []decisionRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("store: list decisions: %w", err)
	}
	decisions := make([]Decision, 0, len(rows))
	for _, r := range rows {
		decisions = append(decisions, r.toDecision())
	}
	return decisions, nil
}
