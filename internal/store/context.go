package store

import (
	"fmt"

	"github.com/mwhitford/handoff/internal/ident"
)

// SetContext upserts a keyed project fact. (project_id, key) is unique;
// a second write for the same key overwrites value and category and
// refreshes updated_at.
func (s *Store) SetContext(projectID, key, value, category string) (*ContextEntry, error) {
	if key == "" || value == "" {
		return nil, fmt.Errorf("store: set context: key and value are required")
	}

	now := Now()
	_, err := s.db.Exec(
		`INSERT INTO context_entries (id, project_id, key, value, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (project_id, key)
		 DO UPDATE SET value = excluded.value, category = excluded.category, updated_at = excluded.updated_at`,
		ident.GenerateID(), projectID, key, value, category, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("store: set context: %w", err)
	}

	var entry ContextEntry
	err = s.db.Get(&entry,
		`SELECT * FROM context_entries WHERE project_id = ? AND key = ?`, projectID, key,
	)
	if err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

// GetContext returns all of a project's context entries ordered by
// (category, key).
func (s *Store) GetContext(projectID string) ([]ContextEntry, error) {
	var entries []ContextEntry
	err := s.db.Select(&entries,
		`SELECT * FROM context_entries WHERE project_id = ? ORDER BY category, key`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get context: %w", err)
	}
	return entries, nil
}

// DeleteContext removes one keyed entry.
func (s *Store) DeleteContext(projectID, key string) error {
	res, err := s.db.Exec(
		`DELETE FROM context_entries WHERE project_id = ? AND key = ?`, projectID, key,
	)
	if err != nil {
		return fmt.Errorf("store: delete context: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
