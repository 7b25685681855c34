package store

import "fmt"

// Activity window queries backing the session reconciliation engine.
// The cutoff is a TimeLayout string; fixed-width formatting makes the
// string comparisons below equivalent to time comparisons.

// TasksCreatedSince returns tasks created strictly after cutoff.
func (s *Store) TasksCreatedSince(projectID, cutoff string) ([]Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks t JOIN projects p ON p.id = t.project_id
		WHERE t.project_id = ? AND t.created_at > ?
		ORDER BY t.created_at DESC`
	tasks, err := s.selectTasks(query, projectID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("store: tasks created since: %w", err)
	}
	return tasks, nil
}

// TasksUpdatedSince returns tasks updated strictly after cutoff where the
// update was a true mutation, not just the creation itself.
func (s *Store) TasksUpdatedSince(projectID, cutoff string) ([]Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks t JOIN projects p ON p.id = t.project_id
		WHERE t.project_id = ? AND t.updated_at > ? AND t.updated_at != t.created_at
		ORDER BY t.updated_at DESC`
	tasks, err := s.selectTasks(query, projectID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("store: tasks updated since: %w", err)
	}
	return tasks, nil
}

// DecisionsSince returns decisions created strictly after cutoff.
func (s *Store) DecisionsSince(projectID, cutoff string) ([]Decision, error) {
	var rows []decisionRow
	err := s.db.Select(&rows,
		`SELECT * FROM decisions WHERE project_id = ? AND created_at > ? ORDER BY created_at DESC`,
		projectID, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("store: decisions since: %w", err)
	}
	decisions := make([]Decision, 0, len(rows))
	for _, r := range rows {
		decisions = append(decisions, r.toDecision())
	}
	return decisions, nil
}

// NotesSince returns notes created strictly after cutoff.
func (s *Store) NotesSince(projectID, cutoff string) ([]Note, error) {
	var rows []noteRow
	err := s.db.Select(&rows,
		`SELECT * FROM notes WHERE project_id = ? AND created_at > ? ORDER BY created_at DESC`,
		projectID, cutoff,
	)
	if err != nil {
		return nil, fmt.Errorf("store: notes since: %w", err)
	}
	notes := make([]Note, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.toNote())
	}
	return notes, nil
}
