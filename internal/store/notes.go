package store

import (
	"fmt"

	"github.com/mwhitford/handoff/internal/ident"
)

type noteRow struct {
	ID        string  `db:"id"`
	ProjectID string  `db:"project_id"`
	TaskID    *string `db:"task_id"`
	Content   string  `db:"content"`
	Category  string  `db:"category"`
	Tags      string  `db:"tags"`
	CreatedAt string  `db:"created_at"`
}

func (r noteRow) toNote() Note {
	return Note{
		ID:        r.ID,
		ProjectID: r.ProjectID,
		TaskID:    r.TaskID,
		Content:   r.Content,
		Category:  r.Category,
		Tags:      decodeList(r.Tags),
		CreatedAt: r.CreatedAt,
	}
}

// CreateNoteParams holds the input for adding a note.
type CreateNoteParams struct {
	ProjectID string
	TaskID    string
	Content   string
	Category  string
	Tags      []string
}

// CreateNote appends an immutable note.
func (s *Store) CreateNote(p CreateNoteParams) (*Note, error) {
	if p.Content == "" {
		return nil, fmt.Errorf("store: create note: content is required")
	}
	if p.Category == "" {
		p.Category = NoteGeneral
	}

	id := ident.GenerateID()
	_, err := s.db.Exec(
		`INSERT INTO notes (id, project_id, task_id, content, category, tags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, p.ProjectID, nullableString(p.TaskID), p.Content, p.Category, encodeList(p.Tags), Now(),
	)
	if err != nil {
		return nil, fmt.Errorf("store: create note: %w", err)
	}

	var r noteRow
	if err := s.db.Get(&r, `SELECT * FROM notes WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	n := r.toNote()
	return &n, nil
}

// ListNotes returns a project's notes newest first, optionally filtered
// by category or owning task.
func (s *Store) ListNotes(projectID, category, taskID string, limit int) ([]Note, error) {
	query := `SELECT * FROM notes WHERE project_id = ?`
	args := []any{projectID}
	if category != "" {
		query += ` AND category = ?`
		args = append(args, category)
	}
	if taskID != "" {
		query += ` AND task_id = ?`
		args = append(args, taskID)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	var rows []noteRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("store: list notes: %w", err)
	}
	notes := make([]Note, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.toNote())
	}
	return notes, nil
}
