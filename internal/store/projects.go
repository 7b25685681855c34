package store

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mwhitford/handoff/internal/ident"
)

// projectRow mirrors the projects table for sqlx scanning.
type projectRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Slug        string `db:"slug"`
	Description string `db:"description"`
	Status      string `db:"status"`
	RepoPath    string `db:"repo_path"`
	TechStack   string `db:"tech_stack"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (r projectRow) toProject() Project {
	return Project{
		ID:          r.ID,
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Status:      r.Status,
		RepoPath:    r.RepoPath,
		TechStack:   decodeList(r.TechStack),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// CreateProjectParams holds the input for creating a project.
type CreateProjectParams struct {
	Name        string
	Description string
	Status      string
	RepoPath    string
	TechStack   []string
}

// CreateProject registers a new project. Names are unique
// case-insensitively from the resolver's perspective, so a name differing
// only by case from an existing project is rejected with ErrDuplicateName.
func (s *Store) CreateProject(p CreateProjectParams) (*Project, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("store: create project: %w", ErrNoFields)
	}
	if p.Status == "" {
		p.Status = ProjectActive
	}

	var n int
	if err := s.db.Get(&n, `SELECT COUNT(*) FROM projects WHERE LOWER(name) = LOWER(?)`, p.Name); err != nil {
		return nil, fmt.Errorf("store: create project: %w", err)
	}
	if n > 0 {
		return nil, ErrDuplicateName
	}

	var existing []string
	if err := s.db.Select(&existing, `SELECT slug FROM projects`); err != nil {
		return nil, fmt.Errorf("store: create project: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, sl := range existing {
		taken[sl] = true
	}
	slug := ident.Disambiguate(ident.GenerateSlug(p.Name), func(candidate string) bool {
		return taken[candidate]
	})

	id := ident.GenerateID()
	now := Now()
	_, err := s.db.Exec(
		`INSERT INTO projects (id, name, slug, description, status, repo_path, tech_stack, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Name, slug, p.Description, p.Status, p.RepoPath, encodeList(p.TechStack), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("store: create project: %w", err)
	}

	return s.GetProject(id)
}

// GetProject retrieves a project by its canonical id.
func (s *Store) GetProject(id string) (*Project, error) {
	var r projectRow
	if err := s.db.Get(&r, `SELECT * FROM projects WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	p := r.toProject()
	return &p, nil
}

// ListProjects returns projects ordered by recency, optionally filtered
// by status.
func (s *Store) ListProjects(status string) ([]Project, error) {
	query := `SELECT * FROM projects`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY updated_at DESC`

	var rows []projectRow
	if err := s.db.Select(&rows, query, args...); err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	projects := make([]Project, 0, len(rows))
	for _, r := range rows {
		projects = append(projects, r.toProject())
	}
	return projects, nil
}

// UpdateProjectParams holds partial update fields. Nil means "leave as is".
type UpdateProjectParams struct {
	Name        *string
	Description *string
	Status      *string
	RepoPath    *string
	TechStack   *[]string
}

// UpdateProject applies a partial update and refreshes updated_at.
func (s *Store) UpdateProject(id string, p UpdateProjectParams) (*Project, error) {
	if p.Name == nil && p.Description == nil && p.Status == nil && p.RepoPath == nil && p.TechStack == nil {
		return nil, ErrNoFields
	}

	current, err := s.GetProject(id)
	if err != nil {
		return nil, err
	}

	if p.Name != nil && *p.Name != current.Name {
		var n int
		if err := s.db.Get(&n,
			`SELECT COUNT(*) FROM projects WHERE LOWER(name) = LOWER(?) AND id != ?`, *p.Name, id,
		); err != nil {
			return nil, fmt.Errorf("store: update project: %w", err)
		}
		if n > 0 {
			return nil, ErrDuplicateName
		}
	} else {
		p.Name = &current.Name
	}
	if p.Description == nil {
		p.Description = &current.Description
	}
	if p.Status == nil {
		p.Status = &current.Status
	}
	if p.RepoPath == nil {
		p.RepoPath = &current.RepoPath
	}
	techStack := current.TechStack
	if p.TechStack != nil {
		techStack = *p.TechStack
	}

	_, err = s.db.Exec(
		`UPDATE projects SET name = ?, description = ?, status = ?, repo_path = ?, tech_stack = ?, updated_at = ?
		 WHERE id = ?`,
		*p.Name, *p.Description, *p.Status, *p.RepoPath, encodeList(techStack), Now(), id,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateName
		}
		return nil, fmt.Errorf("store: update project: %w", err)
	}

	return s.GetProject(id)
}

// DeleteProject removes a project and everything hanging off it in one
// atomic unit. Only the dashboard exposes this; tool-call flows archive
// via status instead.
func (s *Store) DeleteProject(id string) error {
	if _, err := s.GetProject(id); err != nil {
		return err
	}
	return s.inTx(func(tx *sqlx.Tx) error {
		for _, stmt := range []string{
			`DELETE FROM task_history WHERE task_id IN (SELECT id FROM tasks WHERE project_id = ?)`,
			`DELETE FROM notes WHERE project_id = ?`,
			`DELETE FROM decisions WHERE project_id = ?`,
			`DELETE FROM sessions WHERE project_id = ?`,
			`DELETE FROM context_entries WHERE project_id = ?`,
			`DELETE FROM tasks WHERE project_id = ?`,
			`DELETE FROM projects WHERE id = ?`,
		} {
			if _, err := tx.Exec(stmt, id); err != nil {
				return fmt.Errorf("store: delete project: %w", err)
			}
		}
		return nil
	})
}

// ResolveProject maps a human-friendly reference (canonical id or name,
// any case) to a project id. No fuzzy matching beyond case folding.
func (s *Store) ResolveProject(ref string) (string, error) {
	var id string
	err := s.db.Get(&id, `SELECT id FROM projects WHERE id = ?`, ref)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("store: resolve project: %w", err)
	}
	err = s.db.Get(&id, `SELECT id FROM projects WHERE LOWER(name) = LOWER(?)`, ref)
	if err != nil {
		return "", notFound(err)
	}
	return id, nil
}

// ResolveProjectOrDefault resolves ref when given; with no ref it falls
// back to the most-recently-updated active project.
func (s *Store) ResolveProjectOrDefault(ref string) (string, error) {
	if ref != "" {
		return s.ResolveProject(ref)
	}
	var id string
	err := s.db.Get(&id,
		`SELECT id FROM projects WHERE status = ? ORDER BY updated_at DESC LIMIT 1`, ProjectActive,
	)
	if err != nil {
		if notFound(err) == ErrNotFound {
			return "", ErrNoDefaultProject
		}
		return "", fmt.Errorf("store: default project: %w", err)
	}
	return id, nil
}

// TouchProject bumps updated_at so default-resolution treats the project
// as most recently active.
func (s *Store) TouchProject(id string) error {
	res, err := s.db.Exec(`UPDATE projects SET updated_at = ? WHERE id = ?`, Now(), id)
	if err != nil {
		return fmt.Errorf("store: touch project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
