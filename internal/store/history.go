package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mwhitford/handoff/internal/ident"
)

// recordEvent appends one immutable history row inside the caller's
// transaction. Callers only invoke it for fields that actually changed.
func recordEvent(tx *sqlx.Tx, taskID, event string, oldValue, newValue *string, at string) error {
	_, err := tx.Exec(
		`INSERT INTO task_history (id, task_id, event, old_value, new_value, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ident.GenerateID(), taskID, event, oldValue, newValue, at,
	)
	if err != nil {
		return fmt.Errorf("store: record history: %w", err)
	}
	return nil
}

// TaskHistory returns a task's audit trail ordered oldest to newest.
func (s *Store) TaskHistory(taskID string) ([]TaskHistoryEvent, error) {
	var events []TaskHistoryEvent
	err := s.db.Select(&events,
		`SELECT * FROM task_history WHERE task_id = ? ORDER BY created_at, id`, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: task history: %w", err)
	}
	return events, nil
}
