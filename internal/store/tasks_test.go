package store_test

import (
	"errors"
	"testing"

	"github.com/mwhitford/handoff/internal/store"
)

// ─── Creation and identity ──────────────────────────────────────────────────

func TestCreateTask_Defaults(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	task := mustCreateTask(t, s, p.ID, "first")

	if task.Status != store.TaskTodo {
		t.Errorf("Status = %q, want todo", task.Status)
	}
	if task.Priority != store.PriorityMedium {
		t.Errorf("Priority = %q, want medium", task.Priority)
	}
	if task.CompletedAt != nil {
		t.Errorf("CompletedAt should be nil")
	}
}

func TestCreateTask_SeqMonotonicPerProject(t *testing.T) {
	s := newTestStore(t)
	p1 := mustCreateProject(t, s, "First")
	p2 := mustCreateProject(t, s, "Second")

	a := mustCreateTask(t, s, p1.ID, "a")
	b := mustCreateTask(t, s, p1.ID, "b")
	c := mustCreateTask(t, s, p2.ID, "c")

	if a.Seq != 1 || b.Seq != 2 {
		t.Errorf("seqs = %d, %d; want 1, 2", a.Seq, b.Seq)
	}
	if c.Seq != 1 {
		t.Errorf("other project's first seq = %d, want 1", c.Seq)
	}
}

func TestCreateTask_SeqNotReusedAfterDelete(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	mustCreateTask(t, s, p.ID, "a")
	b := mustCreateTask(t, s, p.ID, "b")
	if err := s.DeleteTask(b.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	c := mustCreateTask(t, s, p.ID, "c")
	// MAX(seq)+1 over remaining rows: seq 2 is reissued only because the
	// highest row was removed; the display id stays unambiguous because
	// the old task is gone entirely.
	if c.Seq != 2 {
		t.Errorf("seq after delete = %d, want 2", c.Seq)
	}
}

func TestTaskDisplayID(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "My Cool Project")
	task := mustCreateTask(t, s, p.ID, "first")

	want := p.Slug + "-1"
	if task.DisplayID != want {
		t.Errorf("DisplayID = %q, want %q", task.DisplayID, want)
	}
}

func TestResolveTask_ByIDAndDisplayID(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	task := mustCreateTask(t, s, p.ID, "first")

	for _, ref := range []string{task.ID, task.DisplayID} {
		id, err := s.ResolveTask(ref)
		if err != nil {
			t.Errorf("ResolveTask(%q) error: %v", ref, err)
			continue
		}
		if id != task.ID {
			t.Errorf("ResolveTask(%q) = %q, want %q", ref, id, task.ID)
		}
	}
}

func TestResolveTask_Unknown(t *testing.T) {
	s := newTestStore(t)
	for _, ref := range []string{"nope", "slug-", "slug-x", "slug-99"} {
		if _, err := s.ResolveTask(ref); !errors.Is(err, store.ErrNotFound) {
			t.Errorf("ResolveTask(%q) error = %v, want ErrNotFound", ref, err)
		}
	}
}

// ─── Blocking rules ─────────────────────────────────────────────────────────

func TestCreateTask_BlockedByForcesBlockedStatus(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	dep := mustCreateTask(t, s, p.ID, "dependency")

	task, err := s.CreateTask(store.CreateTaskParams{
		ProjectID: p.ID,
		Title:     "waiter",
		BlockedBy: []string{dep.ID},
	})
	if err != nil {
		t.Fatalf("CreateTask error: %v", err)
	}
	if task.Status != store.TaskBlocked {
		t.Errorf("Status = %q, want blocked", task.Status)
	}
}

func TestCreateTask_ExplicitStatusWinsOverBlockedBy(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	dep := mustCreateTask(t, s, p.ID, "dependency")

	task, err := s.CreateTask(store.CreateTaskParams{
		ProjectID: p.ID,
		Title:     "already moving",
		Status:    store.TaskInProgress,
		BlockedBy: []string{dep.ID},
	})
	if err != nil {
		t.Fatalf("CreateTask error: %v", err)
	}
	if task.Status != store.TaskInProgress {
		t.Errorf("Status = %q, want in_progress", task.Status)
	}
}

func TestUpdateTask_BlockedByDerivesStatus(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	dep := mustCreateTask(t, s, p.ID, "dependency")
	task := mustCreateTask(t, s, p.ID, "waiter")

	blockedBy := []string{dep.ID}
	got, err := s.UpdateTask(task.ID, store.UpdateTaskParams{BlockedBy: &blockedBy})
	if err != nil {
		t.Fatalf("UpdateTask error: %v", err)
	}
	if got.Status != store.TaskBlocked {
		t.Errorf("Status = %q, want blocked", got.Status)
	}

	// Clearing the list does not unblock on its own.
	empty := []string{}
	got, err = s.UpdateTask(task.ID, store.UpdateTaskParams{BlockedBy: &empty})
	if err != nil {
		t.Fatalf("UpdateTask error: %v", err)
	}
	if got.Status != store.TaskBlocked {
		t.Errorf("Status after clearing = %q, want still blocked", got.Status)
	}
	if len(got.BlockedBy) != 0 {
		t.Errorf("BlockedBy = %v, want empty", got.BlockedBy)
	}
}

// ─── completed_at lifecycle ─────────────────────────────────────────────────

func TestUpdateTask_CompletedAtStampedOnDone(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	task := mustCreateTask(t, s, p.ID, "t")

	done := store.TaskDone
	got, err := s.UpdateTask(task.ID, store.UpdateTaskParams{Status: &done})
	if err != nil {
		t.Fatalf("UpdateTask error: %v", err)
	}
	if got.CompletedAt == nil {
		t.Fatal("CompletedAt not stamped")
	}

	stamp := *got.CompletedAt

	// A second done update preserves the original stamp.
	title := "renamed"
	got, err = s.UpdateTask(task.ID, store.UpdateTaskParams{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTask error: %v", err)
	}
	if got.CompletedAt == nil || *got.CompletedAt != stamp {
		t.Errorf("CompletedAt changed on unrelated update: %v", got.CompletedAt)
	}

	// Reopening clears it.
	todo := store.TaskTodo
	got, err = s.UpdateTask(task.ID, store.UpdateTaskParams{Status: &todo})
	if err != nil {
		t.Fatalf("UpdateTask error: %v", err)
	}
	if got.CompletedAt != nil {
		t.Errorf("CompletedAt = %v after reopen, want nil", got.CompletedAt)
	}
}

func TestCreateTask_DoneAtBirthGetsStamp(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	task, err := s.CreateTask(store.CreateTaskParams{
		ProjectID: p.ID, Title: "retro entry", Status: store.TaskDone,
	})
	if err != nil {
		t.Fatalf("CreateTask error: %v", err)
	}
	if task.CompletedAt == nil {
		t.Error("CompletedAt should be stamped for tasks created done")
	}
}

// ─── Ordering ───────────────────────────────────────────────────────────────

func TestListTasks_PriorityOrderNewestWithinBand(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	mk := func(title, priority string) {
		t.Helper()
		if _, err := s.CreateTask(store.CreateTaskParams{
			ProjectID: p.ID, Title: title, Priority: priority,
		}); err != nil {
			t.Fatal(err)
		}
	}
	mk("low", store.PriorityLow)
	mk("med-old", store.PriorityMedium)
	mk("med-new", store.PriorityMedium)
	mk("crit", store.PriorityCritical)

	tasks, err := s.ListTasks(p.ID, store.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks error: %v", err)
	}
	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	want := []string{"crit", "med-new", "med-old", "low"}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("order = %v, want %v", titles, want)
		}
	}
}

func TestListTasks_HidesClosedByDefault(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	mustCreateTask(t, s, p.ID, "open")
	task := mustCreateTask(t, s, p.ID, "closing")

	done := store.TaskDone
	if _, err := s.UpdateTask(task.ID, store.UpdateTaskParams{Status: &done}); err != nil {
		t.Fatal(err)
	}

	tasks, err := s.ListTasks(p.ID, store.TaskFilter{})
	if err != nil {
		t.Fatalf("ListTasks error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "open" {
		t.Errorf("default list = %+v, want only the open task", tasks)
	}

	all, err := s.ListTasks(p.ID, store.TaskFilter{IncludeClosed: true})
	if err != nil {
		t.Fatalf("ListTasks include closed error: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("include_closed list has %d tasks, want 2", len(all))
	}

	// An explicit status filter can name a closed status directly.
	doneOnly, err := s.ListTasks(p.ID, store.TaskFilter{Status: store.TaskDone})
	if err != nil {
		t.Fatalf("ListTasks by status error: %v", err)
	}
	if len(doneOnly) != 1 || doneOnly[0].Title != "closing" {
		t.Errorf("done filter = %+v", doneOnly)
	}
}

func TestNextTasks_FIFOWithinPriorityExcludesBlocked(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	mustCreateTask(t, s, p.ID, "old-medium")
	mustCreateTask(t, s, p.ID, "new-medium")
	if _, err := s.CreateTask(store.CreateTaskParams{
		ProjectID: p.ID, Title: "blocked-critical",
		Priority: store.PriorityCritical, Status: store.TaskBlocked,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateTask(store.CreateTaskParams{
		ProjectID: p.ID, Title: "high", Priority: store.PriorityHigh,
	}); err != nil {
		t.Fatal(err)
	}

	tasks, err := s.NextTasks(p.ID, 0)
	if err != nil {
		t.Fatalf("NextTasks error: %v", err)
	}
	var titles []string
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	want := []string{"high", "old-medium", "new-medium"}
	if len(titles) != len(want) {
		t.Fatalf("got %v, want %v", titles, want)
	}
	for i := range want {
		if titles[i] != want[i] {
			t.Fatalf("order = %v, want %v", titles, want)
		}
	}
}

// ─── Tags ───────────────────────────────────────────────────────────────────

func TestListTasks_TagFilter(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	if _, err := s.CreateTask(store.CreateTaskParams{
		ProjectID: p.ID, Title: "tagged", Tags: []string{"backend", "urgent"},
	}); err != nil {
		t.Fatal(err)
	}
	mustCreateTask(t, s, p.ID, "untagged")

	tasks, err := s.ListTasks(p.ID, store.TaskFilter{Tag: "backend"})
	if err != nil {
		t.Fatalf("ListTasks error: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "tagged" {
		t.Errorf("tag filter = %+v, want only the tagged task", tasks)
	}
}

func TestListTasks_MalformedTagsColumnRecovered(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	task := mustCreateTask(t, s, p.ID, "corrupted")

	if _, err := s.DB().Exec(`UPDATE tasks SET tags = 'not json' WHERE id = ?`, task.ID); err != nil {
		t.Fatalf("corrupt tags: %v", err)
	}

	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask error: %v", err)
	}
	if len(got.Tags) != 0 {
		t.Errorf("Tags = %v, want empty for malformed column", got.Tags)
	}

	// The tag filter must not error out on the malformed row either.
	tasks, err := s.ListTasks(p.ID, store.TaskFilter{Tag: "backend"})
	if err != nil {
		t.Fatalf("ListTasks with malformed row error: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("malformed row matched tag filter: %+v", tasks)
	}
}

// ─── History ────────────────────────────────────────────────────────────────

func TestTaskHistory_CreatedEventOnBirth(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	task := mustCreateTask(t, s, p.ID, "t")

	events, err := s.TaskHistory(task.ID)
	if err != nil {
		t.Fatalf("TaskHistory error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Event != store.EventCreated {
		t.Errorf("event = %q, want created", events[0].Event)
	}
	if events[0].OldValue != nil {
		t.Errorf("created event should have nil old value")
	}
}

func TestUpdateTask_RecordsOnlyRealChanges(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	task := mustCreateTask(t, s, p.ID, "t")

	// Same-value writes must not append events.
	same := task.Status
	if _, err := s.UpdateTask(task.ID, store.UpdateTaskParams{Status: &same}); err != nil {
		t.Fatal(err)
	}

	inProgress := store.TaskInProgress
	high := store.PriorityHigh
	title := "renamed"
	if _, err := s.UpdateTask(task.ID, store.UpdateTaskParams{
		Status: &inProgress, Priority: &high, Title: &title,
	}); err != nil {
		t.Fatal(err)
	}

	events, err := s.TaskHistory(task.ID)
	if err != nil {
		t.Fatalf("TaskHistory error: %v", err)
	}
	// created + status + priority + title
	if len(events) != 4 {
		t.Fatalf("got %d events, want 4: %+v", len(events), events)
	}

	kinds := map[string]bool{}
	for _, e := range events[1:] {
		kinds[e.Event] = true
	}
	for _, want := range []string{store.EventStatusChanged, store.EventPriorityChanged, store.EventTitleChanged} {
		if !kinds[want] {
			t.Errorf("missing %s event", want)
		}
	}
}

func TestTaskHistory_OldAndNewValues(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	task := mustCreateTask(t, s, p.ID, "t")

	done := store.TaskDone
	if _, err := s.UpdateTask(task.ID, store.UpdateTaskParams{Status: &done}); err != nil {
		t.Fatal(err)
	}

	events, err := s.TaskHistory(task.ID)
	if err != nil {
		t.Fatal(err)
	}
	last := events[len(events)-1]
	if last.OldValue == nil || *last.OldValue != store.TaskTodo {
		t.Errorf("OldValue = %v, want todo", last.OldValue)
	}
	if last.NewValue == nil || *last.NewValue != store.TaskDone {
		t.Errorf("NewValue = %v, want done", last.NewValue)
	}
}

// ─── Deletion ───────────────────────────────────────────────────────────────

func TestDeleteTask_CascadesSubtasksHistoryNotes(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")
	parent := mustCreateTask(t, s, p.ID, "parent")

	sub, err := s.CreateTask(store.CreateTaskParams{
		ProjectID: p.ID, Title: "sub", ParentTaskID: parent.ID,
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateNote(store.CreateNoteParams{
		ProjectID: p.ID, TaskID: sub.ID, Content: "on the subtask",
	}); err != nil {
		t.Fatal(err)
	}
	survivor := mustCreateTask(t, s, p.ID, "survivor")

	if err := s.DeleteTask(parent.ID); err != nil {
		t.Fatalf("DeleteTask error: %v", err)
	}

	if _, err := s.GetTask(parent.ID); !errors.Is(err, store.ErrNotFound) {
		t.Error("parent still present")
	}
	if _, err := s.GetTask(sub.ID); !errors.Is(err, store.ErrNotFound) {
		t.Error("subtask still present")
	}
	if _, err := s.GetTask(survivor.ID); err != nil {
		t.Errorf("unrelated task removed: %v", err)
	}

	var n int
	if err := s.DB().Get(&n, `SELECT COUNT(*) FROM task_history WHERE task_id IN (?, ?)`, parent.ID, sub.ID); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("%d orphaned history rows", n)
	}
	if err := s.DB().Get(&n, `SELECT COUNT(*) FROM notes WHERE task_id IN (?, ?)`, parent.ID, sub.ID); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("%d orphaned notes", n)
	}
}

// ─── Counts ─────────────────────────────────────────────────────────────────

func TestCountTasksByStatus(t *testing.T) {
	s := newTestStore(t)
	p := mustCreateProject(t, s, "Handoff")

	mustCreateTask(t, s, p.ID, "a")
	mustCreateTask(t, s, p.ID, "b")
	if _, err := s.CreateTask(store.CreateTaskParams{
		ProjectID: p.ID, Title: "c", Status: store.TaskDone,
	}); err != nil {
		t.Fatal(err)
	}

	counts, err := s.CountTasksByStatus(p.ID)
	if err != nil {
		t.Fatalf("CountTasksByStatus error: %v", err)
	}
	if counts[store.TaskTodo] != 2 || counts[store.TaskDone] != 1 {
		t.Errorf("counts = %v", counts)
	}
}
