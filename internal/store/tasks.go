package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mwhitford/handoff/internal/ident"
)

// taskRow mirrors the tasks table (plus the owning project's slug) for
// sqlx scanning.
type taskRow struct {
	ID           string  `db:"id"`
	ProjectID    string  `db:"project_id"`
	Seq          int     `db:"seq"`
	Title        string  `db:"title"`
	Description  string  `db:"description"`
	Status       string  `db:"status"`
	Priority     string  `db:"priority"`
	Tags         string  `db:"tags"`
	ParentTaskID *string `db:"parent_task_id"`
	BlockedBy    string  `db:"blocked_by"`
	CreatedAt    string  `db:"created_at"`
	UpdatedAt    string  `db:"updated_at"`
	CompletedAt  *string `db:"completed_at"`
	ProjectSlug  string  `db:"project_slug"`
}

func (r taskRow) toTask() Task {
	t := Task{
		ID:           r.ID,
		ProjectID:    r.ProjectID,
		Seq:          r.Seq,
		Title:        r.Title,
		Description:  r.Description,
		Status:       r.Status,
		Priority:     r.Priority,
		Tags:         decodeList(r.Tags),
		ParentTaskID: r.ParentTaskID,
		BlockedBy:    decodeList(r.BlockedBy),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		CompletedAt:  r.CompletedAt,
	}
	if r.ProjectSlug != "" {
		t.DisplayID = r.ProjectSlug + "-" + strconv.Itoa(r.Seq)
	}
	return t
}

const taskColumns = `t.id, t.project_id, t.seq, t.title, t.description, t.status, t.priority,
	t.tags, t.parent_task_id, t.blocked_by, t.created_at, t.updated_at, t.completed_at,
	p.slug AS project_slug`

// CreateTaskParams holds the input for creating a task.
type CreateTaskParams struct {
	ProjectID    string
	Title        string
	Description  string
	Status       string
	Priority     string
	Tags         []string
	ParentTaskID string
	BlockedBy    []string
}

// CreateTask inserts a task with the next per-project sequence number and
// records a "created" history event, all in one transaction. A non-empty
// blocked_by without an explicit status forces status=blocked.
func (s *Store) CreateTask(p CreateTaskParams) (*Task, error) {
	if p.Title == "" {
		return nil, fmt.Errorf("store: create task: title is required")
	}
	if p.Status == "" {
		if len(p.BlockedBy) > 0 {
			p.Status = TaskBlocked
		} else {
			p.Status = TaskTodo
		}
	}
	if p.Priority == "" {
		p.Priority = PriorityMedium
	}

	id := ident.GenerateID()
	now := Now()
	var completedAt *string
	if p.Status == TaskDone {
		completedAt = &now
	}

	err := s.inTx(func(tx *sqlx.Tx) error {
		var seq int
		if err := tx.Get(&seq,
			`SELECT COALESCE(MAX(seq), 0) + 1 FROM tasks WHERE project_id = ?`, p.ProjectID,
		); err != nil {
			return fmt.Errorf("store: allocate seq: %w", err)
		}

		_, err := tx.Exec(
			`INSERT INTO tasks (id, project_id, seq, title, description, status, priority, tags,
			                    parent_task_id, blocked_by, created_at, updated_at, completed_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, p.ProjectID, seq, p.Title, p.Description, p.Status, p.Priority, encodeList(p.Tags),
			nullableString(p.ParentTaskID), encodeList(p.BlockedBy), now, now, completedAt,
		)
		if err != nil {
			return fmt.Errorf("store: create task: %w", err)
		}

		return recordEvent(tx, id, EventCreated, nil, statusPrioritySnapshot(p.Status, p.Priority), now)
	})
	if err != nil {
		return nil, err
	}

	return s.GetTask(id)
}

// GetTask retrieves a task by id, including its short display id.
func (s *Store) GetTask(id string) (*Task, error) {
	var r taskRow
	err := s.db.Get(&r,
		`SELECT `+taskColumns+` FROM tasks t JOIN projects p ON p.id = t.project_id WHERE t.id = ?`, id,
	)
	if err != nil {
		return nil, notFound(err)
	}
	t := r.toTask()
	return &t, nil
}

// ResolveTask maps a task reference — canonical id or short display id
// like "hnd-3" — to a task id.
func (s *Store) ResolveTask(ref string) (string, error) {
	var id string
	if err := s.db.Get(&id, `SELECT id FROM tasks WHERE id = ?`, ref); err == nil {
		return id, nil
	}

	idx := strings.LastIndex(ref, "-")
	if idx <= 0 {
		return "", ErrNotFound
	}
	seq, err := strconv.Atoi(ref[idx+1:])
	if err != nil {
		return "", ErrNotFound
	}
	slug := ref[:idx]

	err = s.db.Get(&id,
		`SELECT t.id FROM tasks t JOIN projects p ON p.id = t.project_id
		 WHERE p.slug = ? AND t.seq = ?`, slug, seq,
	)
	if err != nil {
		return "", notFound(err)
	}
	return id, nil
}

// TaskFilter narrows ListTasks. The zero value lists open work: statuses
// done and cancelled are excluded unless IncludeClosed is set.
type TaskFilter struct {
	Status        string
	Priority      string
	Tag           string
	IncludeClosed bool
}

// ListTasks returns a project's tasks ordered by priority rank (critical
// first), newest first within a rank band.
func (s *Store) ListTasks(projectID string, f TaskFilter) ([]Task, error) {
	query := `SELECT ` + taskColumns + `
		FROM tasks t JOIN projects p ON p.id = t.project_id
		WHERE t.project_id = ?`
	args := []any{projectID}

	if f.Status != "" {
		query += ` AND t.status = ?`
		args = append(args, f.Status)
	} else if !f.IncludeClosed {
		query += ` AND t.status NOT IN ('done', 'cancelled')`
	}
	if f.Priority != "" {
		query += ` AND t.priority = ?`
		args = append(args, f.Priority)
	}
	if f.Tag != "" {
		query += ` AND json_valid(t.tags) AND EXISTS (SELECT 1 FROM json_each(t.tags) WHERE json_each.value = ?)`
		args = append(args, f.Tag)
	}

	query += ` ORDER BY ` + taskRankExpr + ` ASC, t.created_at DESC`

	return s.selectTasks(query, args...)
}

// NextTasks returns actionable work in FIFO order within each priority
// band: the oldest outstanding critical item surfaces first. Blocked,
// done, and cancelled tasks are not actionable.
func (s *Store) NextTasks(projectID string, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = 5
	}
	query := `SELECT ` + taskColumns + `
		FROM tasks t JOIN projects p ON p.id = t.project_id
		WHERE t.project_id = ? AND t.status IN ('todo', 'in_progress')
		ORDER BY ` + taskRankExpr + ` ASC, t.created_at ASC
		LIMIT ?`
	return s.selectTasks(query, projectID, limit)
}

// taskRankExpr is priorityRankExpr qualified for the tasks alias.
const taskRankExpr = `CASE t.priority
	WHEN 'critical' THEN 0
	WHEN 'high'     THEN 1
	WHEN 'medium'   THEN 2
	ELSE 3
END`

func (s *Store) selectTasks(query string, args ...any) ([]Task, error) {
	var rows []taskRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("store: list tasks: %w", err)
	}
	tasks := make([]Task, 0, len(rows))
	for _, r := range rows {
		tasks = append(tasks, r.toTask())
	}
	return tasks, nil
}

// UpdateTaskParams holds partial update fields. Nil means "leave as is".
type UpdateTaskParams struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	Tags        *[]string
	BlockedBy   *[]string
}

func (p UpdateTaskParams) empty() bool {
	return p.Title == nil && p.Description == nil && p.Status == nil &&
		p.Priority == nil && p.Tags == nil && p.BlockedBy == nil
}

// UpdateTask applies a partial update, derives blocking state and
// completed_at, and appends history events for tracked fields that
// actually changed — all in one transaction.
//
// Status derivation: setting blocked_by to a non-empty list without an
// explicit status forces blocked; an explicit status always wins.
// completed_at is stamped when status lands on done and cleared when it
// lands anywhere else.
func (s *Store) UpdateTask(id string, p UpdateTaskParams) (*Task, error) {
	if p.empty() {
		return nil, ErrNoFields
	}

	current, err := s.GetTask(id)
	if err != nil {
		return nil, err
	}

	title := current.Title
	if p.Title != nil {
		title = *p.Title
	}
	description := current.Description
	if p.Description != nil {
		description = *p.Description
	}
	priority := current.Priority
	if p.Priority != nil {
		priority = *p.Priority
	}
	tags := current.Tags
	if p.Tags != nil {
		tags = *p.Tags
	}
	blockedBy := current.BlockedBy
	if p.BlockedBy != nil {
		blockedBy = *p.BlockedBy
	}

	status := current.Status
	switch {
	case p.Status != nil:
		status = *p.Status
	case p.BlockedBy != nil && len(blockedBy) > 0:
		status = TaskBlocked
	}

	now := Now()
	var completedAt *string
	if status == TaskDone {
		if current.CompletedAt != nil {
			completedAt = current.CompletedAt
		} else {
			completedAt = &now
		}
	}

	err = s.inTx(func(tx *sqlx.Tx) error {
		_, err := tx.Exec(
			`UPDATE tasks SET title = ?, description = ?, status = ?, priority = ?, tags = ?,
			                  blocked_by = ?, completed_at = ?, updated_at = ?
			 WHERE id = ?`,
			title, description, status, priority, encodeList(tags),
			encodeList(blockedBy), completedAt, now, id,
		)
		if err != nil {
			return fmt.Errorf("store: update task: %w", err)
		}

		if status != current.Status {
			if err := recordEvent(tx, id, EventStatusChanged, &current.Status, &status, now); err != nil {
				return err
			}
		}
		if priority != current.Priority {
			if err := recordEvent(tx, id, EventPriorityChanged, &current.Priority, &priority, now); err != nil {
				return err
			}
		}
		if title != current.Title {
			if err := recordEvent(tx, id, EventTitleChanged, &current.Title, &title, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetTask(id)
}

// DeleteTask removes a task, its direct subtasks, and all history and
// notes belonging to any of them as a single atomic unit. Partial
// deletion is never observable.
func (s *Store) DeleteTask(id string) error {
	if _, err := s.GetTask(id); err != nil {
		return err
	}

	return s.inTx(func(tx *sqlx.Tx) error {
		var subtaskIDs []string
		if err := tx.Select(&subtaskIDs, `SELECT id FROM tasks WHERE parent_task_id = ?`, id); err != nil {
			return fmt.Errorf("store: delete task: %w", err)
		}

		ids := append([]string{id}, subtaskIDs...)
		query, args, err := sqlx.In(`DELETE FROM task_history WHERE task_id IN (?)`, ids)
		if err != nil {
			return fmt.Errorf("store: delete task: %w", err)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("store: delete task history: %w", err)
		}

		query, args, err = sqlx.In(`DELETE FROM notes WHERE task_id IN (?)`, ids)
		if err != nil {
			return fmt.Errorf("store: delete task: %w", err)
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("store: delete task notes: %w", err)
		}

		if _, err := tx.Exec(`DELETE FROM tasks WHERE parent_task_id = ?`, id); err != nil {
			return fmt.Errorf("store: delete subtasks: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM tasks WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete task: %w", err)
		}
		return nil
	})
}

// CountTasksByStatus returns the number of tasks per status for a project.
func (s *Store) CountTasksByStatus(projectID string) (map[string]int, error) {
	type row struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	var rows []row
	err := s.db.Select(&rows,
		`SELECT status, COUNT(*) AS n FROM tasks WHERE project_id = ? GROUP BY status`, projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: count tasks: %w", err)
	}
	counts := make(map[string]int, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.N
	}
	return counts, nil
}

// statusPrioritySnapshot serializes the status/priority pair recorded on
// task creation and migration backfill.
func statusPrioritySnapshot(status, priority string) *string {
	v := `{"status":"` + status + `","priority":"` + priority + `"}`
	return &v
}
