package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwhitford/handoff/internal/store"
)

// newTestStore creates a Store backed by a temp directory for isolation.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "handoff.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustCreateProject creates a project or fails the test.
func mustCreateProject(t *testing.T, s *store.Store, name string) *store.Project {
	t.Helper()
	p, err := s.CreateProject(store.CreateProjectParams{Name: name})
	if err != nil {
		t.Fatalf("failed to create project %q: %v", name, err)
	}
	return p
}

// mustCreateTask creates a task or fails the test.
func mustCreateTask(t *testing.T, s *store.Store, projectID, title string) *store.Task {
	t.Helper()
	task, err := s.CreateTask(store.CreateTaskParams{ProjectID: projectID, Title: title})
	if err != nil {
		t.Fatalf("failed to create task %q: %v", title, err)
	}
	return task
}

// ─── Open ───────────────────────────────────────────────────────────────────

func TestOpen_CreatesDBFile(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "nested", "handoff.db")

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); err != nil {
		t.Errorf("database file not created: %v", err)
	}
}

func TestOpen_IdempotentReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "handoff.db")

	s1, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("first Open() error: %v", err)
	}
	p := mustCreateProject(t, s1, "Reopen")
	s1.Close()

	s2, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	defer s2.Close()

	got, err := s2.GetProject(p.ID)
	if err != nil {
		t.Fatalf("GetProject after reopen: %v", err)
	}
	if got.Name != "Reopen" {
		t.Errorf("Name = %q, want Reopen", got.Name)
	}
}

// ─── Projects ───────────────────────────────────────────────────────────────

func TestCreateProject_Defaults(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	if p.Status != store.ProjectActive {
		t.Errorf("Status = %q, want active", p.Status)
	}
	if p.Slug == "" {
		t.Error("Slug should be assigned")
	}
	if p.CreatedAt == "" || p.UpdatedAt == "" {
		t.Error("timestamps should be set")
	}
	if p.CreatedAt != p.UpdatedAt {
		t.Errorf("fresh project should have CreatedAt == UpdatedAt (%q vs %q)", p.CreatedAt, p.UpdatedAt)
	}
}

func TestCreateProject_DuplicateNameCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	mustCreateProject(t, s, "Handoff")

	_, err := s.CreateProject(store.CreateProjectParams{Name: "HANDOFF"})
	if !errors.Is(err, store.ErrDuplicateName) {
		t.Errorf("error = %v, want ErrDuplicateName", err)
	}
}

func TestCreateProject_SlugCollisionGetsSuffix(t *testing.T) {
	s := newTestStore(t)
	p1 := mustCreateProject(t, s, "Data Sync Service")
	p2 := mustCreateProject(t, s, "Deep Space Signal")

	if p1.Slug != "dss" {
		t.Fatalf("first slug = %q, want dss", p1.Slug)
	}
	if p2.Slug != "dss2" {
		t.Errorf("second slug = %q, want dss2", p2.Slug)
	}
}

func TestCreateProject_SlugCollisionChain(t *testing.T) {
	s := newTestStore(t)
	mustCreateProject(t, s, "Data Sync Service")
	mustCreateProject(t, s, "Deep Space Signal")
	p3 := mustCreateProject(t, s, "Dual Stack Setup")

	// The taken-slug set is loaded in one query up front, so a third
	// colliding name walks past both existing suffixes.
	if p3.Slug != "dss3" {
		t.Errorf("third slug = %q, want dss3", p3.Slug)
	}
}

func TestCreateProject_ClosedStoreSurfacesError(t *testing.T) {
	s := newTestStore(t)
	mustCreateProject(t, s, "Handoff")
	s.Close()

	// A storage fault must propagate, never spin through slug candidates.
	_, err := s.CreateProject(store.CreateProjectParams{Name: "Another"})
	if err == nil {
		t.Fatal("expected an error from a closed store")
	}
}

func TestResolveProject_ByIDAndName(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	for _, ref := range []string{p.ID, "Handoff", "handoff", "HANDOFF"} {
		id, err := s.ResolveProject(ref)
		if err != nil {
			t.Errorf("ResolveProject(%q) error: %v", ref, err)
			continue
		}
		if id != p.ID {
			t.Errorf("ResolveProject(%q) = %q, want %q", ref, id, p.ID)
		}
	}
}

func TestResolveProject_Unknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ResolveProject("nope")
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestResolveProject_ClosedStoreSurfacesFault(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	s.Close()

	_, err := s.ResolveProject(p.ID)
	if err == nil {
		t.Fatal("expected an error from a closed store")
	}
	// A storage fault is not "no such project".
	if errors.Is(err, store.ErrNotFound) {
		t.Errorf("storage fault misreported as ErrNotFound: %v", err)
	}
}

func TestResolveProjectOrDefault_MostRecentActive(t *testing.T) {
	s := newTestStore(t)
	mustCreateProject(t, s, "Older")
	newer := mustCreateProject(t, s, "Newer")

	id, err := s.ResolveProjectOrDefault("")
	if err != nil {
		t.Fatalf("ResolveProjectOrDefault error: %v", err)
	}
	if id != newer.ID {
		t.Errorf("default = %q, want newest project %q", id, newer.ID)
	}
}

func TestResolveProjectOrDefault_SkipsInactive(t *testing.T) {
	s := newTestStore(t)
	older := mustCreateProject(t, s, "Older")
	newer := mustCreateProject(t, s, "Newer")

	paused := store.ProjectPaused
	if _, err := s.UpdateProject(newer.ID, store.UpdateProjectParams{Status: &paused}); err != nil {
		t.Fatalf("pause project: %v", err)
	}

	id, err := s.ResolveProjectOrDefault("")
	if err != nil {
		t.Fatalf("ResolveProjectOrDefault error: %v", err)
	}
	if id != older.ID {
		t.Errorf("default = %q, want remaining active project %q", id, older.ID)
	}
}

func TestResolveProjectOrDefault_NoActive(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ResolveProjectOrDefault("")
	if !errors.Is(err, store.ErrNoDefaultProject) {
		t.Errorf("error = %v, want ErrNoDefaultProject", err)
	}
}

func TestUpdateProject_NoFields(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	_, err := s.UpdateProject(p.ID, store.UpdateProjectParams{})
	if !errors.Is(err, store.ErrNoFields) {
		t.Errorf("error = %v, want ErrNoFields", err)
	}
}

func TestUpdateProject_RenameToTakenName(t *testing.T) {
	s := newTestStore(t)
	mustCreateProject(t, s, "First")
	p := mustCreateProject(t, s, "Second")

	name := "first"
	_, err := s.UpdateProject(p.ID, store.UpdateProjectParams{Name: &name})
	if !errors.Is(err, store.ErrDuplicateName) {
		t.Errorf("error = %v, want ErrDuplicateName", err)
	}
}

func TestUpdateProject_TouchesUpdatedAt(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	desc := "persistent memory"
	got, err := s.UpdateProject(p.ID, store.UpdateProjectParams{Description: &desc})
	if err != nil {
		t.Fatalf("UpdateProject error: %v", err)
	}
	if got.UpdatedAt <= p.UpdatedAt {
		t.Errorf("UpdatedAt not bumped: %q -> %q", p.UpdatedAt, got.UpdatedAt)
	}
	if got.CreatedAt != p.CreatedAt {
		t.Errorf("CreatedAt changed: %q -> %q", p.CreatedAt, got.CreatedAt)
	}
}

func TestDeleteProject_CascadesEverything(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Doomed")
	task := mustCreateTask(t, s, p.ID, "will vanish")

	if _, err := s.CreateDecision(store.CreateDecisionParams{
		ProjectID: p.ID, Title: "d", Decision: "x",
	}); err != nil {
		t.Fatalf("create decision: %v", err)
	}
	if _, err := s.CreateNote(store.CreateNoteParams{ProjectID: p.ID, Content: "n"}); err != nil {
		t.Fatalf("create note: %v", err)
	}
	if _, err := s.CreateSession(store.CreateSessionParams{ProjectID: p.ID, Summary: "s"}); err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := s.SetContext(p.ID, "k", "v", ""); err != nil {
		t.Fatalf("set context: %v", err)
	}

	if err := s.DeleteProject(p.ID); err != nil {
		t.Fatalf("DeleteProject error: %v", err)
	}

	if _, err := s.GetProject(p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("project still resolvable after delete: %v", err)
	}
	if _, err := s.GetTask(task.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("task survived project delete: %v", err)
	}
	for _, table := range []string{"tasks", "task_history", "decisions", "notes", "sessions", "context_entries"} {
		var n int
		if err := s.DB().Get(&n, "SELECT COUNT(*) FROM "+table); err != nil {
			t.Fatalf("count %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s has %d leftover rows", table, n)
		}
	}
}

// ─── Sessions ───────────────────────────────────────────────────────────────

func TestCreateSession_RequiresSummary(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	_, err := s.CreateSession(store.CreateSessionParams{ProjectID: p.ID})
	if err == nil {
		t.Fatal("expected error for empty summary")
	}
}

func TestLatestSession_NilWhenNone(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	sess, err := s.LatestSession(p.ID)
	if err != nil {
		t.Fatalf("LatestSession error: %v", err)
	}
	if sess != nil {
		t.Errorf("expected nil session, got %+v", sess)
	}
}

func TestLatestSession_ReturnsNewest(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	if _, err := s.CreateSession(store.CreateSessionParams{ProjectID: p.ID, Summary: "first"}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateSession(store.CreateSessionParams{ProjectID: p.ID, Summary: "second"}); err != nil {
		t.Fatal(err)
	}

	sess, err := s.LatestSession(p.ID)
	if err != nil {
		t.Fatalf("LatestSession error: %v", err)
	}
	if sess == nil || sess.Summary != "second" {
		t.Errorf("latest = %+v, want summary \"second\"", sess)
	}
}

func TestCreateSession_ListRoundTrip(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	task := mustCreateTask(t, s, p.ID, "t")

	created, err := s.CreateSession(store.CreateSessionParams{
		ProjectID:     p.ID,
		Summary:       "did things",
		TasksWorkedOn: []string{task.ID},
		NextSteps:     "more things",
	})
	if err != nil {
		t.Fatalf("CreateSession error: %v", err)
	}
	if len(created.TasksWorkedOn) != 1 || created.TasksWorkedOn[0] != task.ID {
		t.Errorf("TasksWorkedOn = %v", created.TasksWorkedOn)
	}

	sessions, err := s.ListSessions(p.ID, 0)
	if err != nil {
		t.Fatalf("ListSessions error: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("got %d sessions, want 1", len(sessions))
	}
}

// ─── Context ────────────────────────────────────────────────────────────────

func TestSetContext_UpsertOverwrites(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	first, err := s.SetContext(p.ID, "deploy", "make deploy", "infra")
	if err != nil {
		t.Fatalf("SetContext error: %v", err)
	}
	second, err := s.SetContext(p.ID, "deploy", "fly deploy", "infra")
	if err != nil {
		t.Fatalf("SetContext overwrite error: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("upsert created a new row: %q vs %q", second.ID, first.ID)
	}
	if second.Value != "fly deploy" {
		t.Errorf("Value = %q, want overwritten value", second.Value)
	}
	if second.CreatedAt != first.CreatedAt {
		t.Errorf("CreatedAt changed on upsert")
	}
	if second.UpdatedAt <= first.UpdatedAt {
		t.Errorf("UpdatedAt not refreshed on upsert")
	}

	entries, err := s.GetContext(p.ID)
	if err != nil {
		t.Fatalf("GetContext error: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("got %d entries, want 1", len(entries))
	}
}

func TestGetContext_OrderedByCategoryThenKey(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	for _, e := range [][3]string{
		{"zeta", "1", "b"},
		{"alpha", "2", "b"},
		{"omega", "3", "a"},
	} {
		if _, err := s.SetContext(p.ID, e[0], e[1], e[2]); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := s.GetContext(p.ID)
	if err != nil {
		t.Fatalf("GetContext error: %v", err)
	}
	var keys []string
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	want := []string{"omega", "alpha", "zeta"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("order = %v, want %v", keys, want)
		}
	}
}

func TestDeleteContext(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	if _, err := s.SetContext(p.ID, "k", "v", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteContext(p.ID, "k"); err != nil {
		t.Fatalf("DeleteContext error: %v", err)
	}
	if err := s.DeleteContext(p.ID, "k"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

// ─── Decisions and notes ────────────────────────────────────────────────────

func TestCreateDecision_RequiresTitleAndDecision(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	if _, err := s.CreateDecision(store.CreateDecisionParams{ProjectID: p.ID, Title: "t"}); err == nil {
		t.Error("expected error for missing decision text")
	}
	if _, err := s.CreateDecision(store.CreateDecisionParams{ProjectID: p.ID, Decision: "d"}); err == nil {
		t.Error("expected error for missing title")
	}
}

func TestListDecisions_NewestFirstWithLimit(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	for _, title := range []string{"one", "two", "three"} {
		if _, err := s.CreateDecision(store.CreateDecisionParams{
			ProjectID: p.ID, Title: title, Decision: "x",
		}); err != nil {
			t.Fatal(err)
		}
	}

	decisions, err := s.ListDecisions(p.ID, 2)
	if err != nil {
		t.Fatalf("ListDecisions error: %v", err)
	}
	if len(decisions) != 2 {
		t.Fatalf("got %d decisions, want 2", len(decisions))
	}
	if decisions[0].Title != "three" || decisions[1].Title != "two" {
		t.Errorf("order = %q, %q; want three, two", decisions[0].Title, decisions[1].Title)
	}
}

func TestCreateNote_DefaultCategory(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	n, err := s.CreateNote(store.CreateNoteParams{ProjectID: p.ID, Content: "remember this"})
	if err != nil {
		t.Fatalf("CreateNote error: %v", err)
	}
	if n.Category != store.NoteGeneral {
		t.Errorf("Category = %q, want general", n.Category)
	}
}

func TestListNotes_FilterByCategoryAndTask(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	task := mustCreateTask(t, s, p.ID, "t")

	if _, err := s.CreateNote(store.CreateNoteParams{ProjectID: p.ID, Content: "a", Category: store.NoteBug}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateNote(store.CreateNoteParams{ProjectID: p.ID, Content: "b", TaskID: task.ID}); err != nil {
		t.Fatal(err)
	}

	bugs, err := s.ListNotes(p.ID, store.NoteBug, "", 0)
	if err != nil {
		t.Fatalf("ListNotes error: %v", err)
	}
	if len(bugs) != 1 || bugs[0].Content != "a" {
		t.Errorf("bug notes = %+v", bugs)
	}

	taskNotes, err := s.ListNotes(p.ID, "", task.ID, 0)
	if err != nil {
		t.Fatalf("ListNotes by task error: %v", err)
	}
	if len(taskNotes) != 1 || taskNotes[0].Content != "b" {
		t.Errorf("task notes = %+v", taskNotes)
	}
}
