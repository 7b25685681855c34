package store

import (
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mwhitford/handoff/internal/ident"
)

// migrationStep is one idempotent schema migration. Each step checks its
// own precondition so reapplying on an already-migrated file is a no-op.
type migrationStep struct {
	name   string
	needed func(s *Store) (bool, error)
	apply  func(s *Store) error
}

// migrationSteps run in fixed order on every startup. Ordering matters:
// the (project_id, seq) index is only created after the seq column is
// guaranteed populated.
var migrationSteps = []migrationStep{
	{
		name:   "projects.slug column + backfill",
		needed: columnMissing("projects", "slug"),
		apply:  addProjectSlugs,
	},
	{
		name:   "tasks.seq column + backfill",
		needed: columnMissing("tasks", "seq"),
		apply:  addTaskSeqs,
	},
	{
		name:   "column-dependent unique indexes",
		needed: always,
		apply: func(s *Store) error {
			_, err := s.db.Exec(`
				CREATE UNIQUE INDEX IF NOT EXISTS idx_projects_slug ON projects(slug);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_project_seq ON tasks(project_id, seq);
			`)
			return err
		},
	},
	{
		name:   "decisions.task_id column",
		needed: columnMissing("decisions", "task_id"),
		apply: func(s *Store) error {
			_, err := s.db.Exec(`ALTER TABLE decisions ADD COLUMN task_id TEXT REFERENCES tasks(id)`)
			return err
		},
	},
	{
		name:   "task_history backfill for pre-existing tasks",
		needed: historyEmpty,
		apply:  backfillHistory,
	},
}

// applyMigrations runs each pending migration step in order. Called exactly
// once per process, from Open.
func (s *Store) applyMigrations() error {
	for _, step := range migrationSteps {
		pending, err := step.needed(s)
		if err != nil {
			return fmt.Errorf("checking %s: %w", step.name, err)
		}
		if !pending {
			continue
		}
		if err := step.apply(s); err != nil {
			return fmt.Errorf("applying %s: %w", step.name, err)
		}
	}
	return nil
}

func always(*Store) (bool, error) { return true, nil }

// columnMissing reports whether table lacks the named column. Table names
// are internal constants, never caller input.
func columnMissing(table, column string) func(*Store) (bool, error) {
	return func(s *Store) (bool, error) {
		var n int
		err := s.db.Get(&n,
			fmt.Sprintf(`SELECT COUNT(*) FROM pragma_table_info('%s') WHERE name = ?`, table),
			column,
		)
		if err != nil {
			return false, err
		}
		return n == 0, nil
	}
}

func historyEmpty(s *Store) (bool, error) {
	var n int
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM task_history`); err != nil {
		return false, err
	}
	return n == 0, nil
}

// addProjectSlugs adds the slug column and backfills it by deriving a slug
// from each project's name, disambiguating collisions with a numeric suffix
// in stable project-id order so reruns assign identical slugs.
func addProjectSlugs(s *Store) error {
	if _, err := s.db.Exec(`ALTER TABLE projects ADD COLUMN slug TEXT NOT NULL DEFAULT ''`); err != nil {
		return err
	}

	type row struct {
		ID   string `db:"id"`
		Name string `db:"name"`
	}
	var rows []row
	if err := s.db.Select(&rows, `SELECT id, name FROM projects ORDER BY id`); err != nil {
		return err
	}

	assigned := map[string]bool{}
	return s.inTx(func(tx *sqlx.Tx) error {
		for _, r := range rows {
			slug := ident.Disambiguate(ident.GenerateSlug(r.Name), func(c string) bool {
				return assigned[c]
			})
			assigned[slug] = true
			if _, err := tx.Exec(`UPDATE projects SET slug = ? WHERE id = ?`, slug, r.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// addTaskSeqs adds the seq column and numbers each project's existing
// tasks in ascending (created_at, id) order starting at 1.
func addTaskSeqs(s *Store) error {
	if _, err := s.db.Exec(`ALTER TABLE tasks ADD COLUMN seq INTEGER NOT NULL DEFAULT 0`); err != nil {
		return err
	}

	var projectIDs []string
	if err := s.db.Select(&projectIDs, `SELECT DISTINCT project_id FROM tasks ORDER BY project_id`); err != nil {
		return err
	}

	return s.inTx(func(tx *sqlx.Tx) error {
		for _, pid := range projectIDs {
			var taskIDs []string
			if err := tx.Select(&taskIDs,
				`SELECT id FROM tasks WHERE project_id = ? ORDER BY created_at, id`, pid,
			); err != nil {
				return err
			}
			for i, tid := range taskIDs {
				if _, err := tx.Exec(`UPDATE tasks SET seq = ? WHERE id = ?`, i+1, tid); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// backfillHistory seeds one synthetic "created" event per existing task,
// timestamped at the task's original created_at and carrying its current
// status/priority snapshot, so the audit trail is never silently
// incomplete for pre-existing data.
func backfillHistory(s *Store) error {
	type row struct {
		ID        string `db:"id"`
		Status    string `db:"status"`
		Priority  string `db:"priority"`
		CreatedAt string `db:"created_at"`
	}
	var rows []row
	if err := s.db.Select(&rows, `SELECT id, status, priority, created_at FROM tasks ORDER BY id`); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	return s.inTx(func(tx *sqlx.Tx) error {
		for _, r := range rows {
			snapshot, _ := json.Marshal(map[string]string{
				"status":   r.Status,
				"priority": r.Priority,
			})
			_, err := tx.Exec(
				`INSERT INTO task_history (id, task_id, event, old_value, new_value, created_at)
				 VALUES (?, ?, ?, NULL, ?, ?)`,
				ident.GenerateID(), r.ID, EventCreated, string(snapshot), r.CreatedAt,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}
