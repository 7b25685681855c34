// Package continuity implements the session reconciliation engine: the
// procedure that detects unrecorded work since a project's last session,
// synthesizes a session row to cover the gap, and assembles the catch-up
// snapshot handed to a conversational turn that has no memory of its own.
package continuity

import (
	"fmt"
	"sort"
	"unicode/utf8"

	"github.com/mwhitford/handoff/internal/store"
)

// Activity types in the merged window.
const (
	ActivityTaskCreated = "task_created"
	ActivityTaskUpdated = "task_updated"
	ActivityDecision    = "decision"
	ActivityNote        = "note"
)

// syntheticMarker prefixes auto-generated session summaries. It is the
// only thing distinguishing a synthetic session from a user-authored one.
const syntheticMarker = "[auto]"

// maxActivityItems caps the snapshot's recent-activity list.
const maxActivityItems = 20

// recentDecisionCount is how many decisions the snapshot carries.
const recentDecisionCount = 5

// noteTitleLength is how much note content becomes the activity title.
const noteTitleLength = 80

// Activity is one item of work observed since the cutoff.
type Activity struct {
	Type      string `json:"type"`
	EntityID  string `json:"entity_id"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
}

// SessionBrief is the compact last-session view inside a snapshot.
type SessionBrief struct {
	Summary   string `json:"summary"`
	NextSteps string `json:"next_steps,omitempty"`
	When      string `json:"when"`
}

// Snapshot is the catch-up payload assembled by reconciliation.
type Snapshot struct {
	Project         store.Project        `json:"project"`
	LastSession     *SessionBrief        `json:"last_session,omitempty"`
	RecentActivity  []Activity           `json:"recent_activity,omitempty"`
	ActiveTasks     []store.Task         `json:"active_tasks,omitempty"`
	BlockedTasks    []store.Task         `json:"blocked_tasks,omitempty"`
	RecentDecisions []store.Decision     `json:"recent_decisions,omitempty"`
	TaskCounts      map[string]int       `json:"task_counts,omitempty"`
	Context         []store.ContextEntry `json:"context,omitempty"`
}

// Engine runs reconcile-and-snapshot over the store, gated per project
// per process.
type Engine struct {
	store *store.Store
	gate  *Gate
}

// NewEngine creates an Engine with a fresh gate.
func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s, gate: NewGate()}
}

// Gate exposes the reconciliation gate, mainly so tests can reset it to
// simulate a process restart.
func (e *Engine) Gate() *Gate {
	return e.gate
}

// BeginWork runs the full reconcile-and-snapshot the first time it is
// called for a project in this process, returning (snapshot, true). Every
// later call for the same project is a pure no-op returning (nil, false):
// work-scoped tools check that flag and only prepend the snapshot when it
// was the first call.
func (e *Engine) BeginWork(projectID string) (*Snapshot, bool, error) {
	if !e.gate.TryAcquire(projectID) {
		return nil, false, nil
	}
	snap, err := e.reconcile(projectID)
	if err != nil {
		e.gate.Release(projectID)
		return nil, false, err
	}
	return snap, true, nil
}

// StartSession always runs the full reconcile regardless of the gate, and
// sets the gate so later tool calls in the same process stay silent. It
// is safe to call at the top of every new interaction: with no new
// activity it synthesizes nothing and just returns the current snapshot.
// The gate is only marked on success; a failed reconcile leaves the next
// first touch free to retry the catch-up.
func (e *Engine) StartSession(projectID string) (*Snapshot, error) {
	snap, err := e.reconcile(projectID)
	if err != nil {
		return nil, err
	}
	e.gate.Mark(projectID)
	return snap, nil
}

// reconcile collects activity since the project's last session,
// synthesizes a session row when there is any, then assembles the
// snapshot and touches the project so default-resolution favors it.
func (e *Engine) reconcile(projectID string) (*Snapshot, error) {
	project, err := e.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}

	last, err := e.store.LatestSession(projectID)
	if err != nil {
		return nil, err
	}
	cutoff := store.EpochSentinel
	if last != nil {
		cutoff = last.CreatedAt
	}

	activity, taskIDs, decisionIDs, err := e.collectActivity(projectID, cutoff)
	if err != nil {
		return nil, err
	}

	if len(activity) > 0 {
		summary := fmt.Sprintf("%s %d changes since the last recorded session", syntheticMarker, len(activity))
		last, err = e.store.CreateSession(store.CreateSessionParams{
			ProjectID:     projectID,
			Summary:       summary,
			TasksWorkedOn: taskIDs,
			DecisionsMade: decisionIDs,
		})
		if err != nil {
			return nil, err
		}
	}

	snap, err := e.assembleSnapshot(*project, last, activity)
	if err != nil {
		return nil, err
	}

	if err := e.store.TouchProject(projectID); err != nil {
		return nil, err
	}
	return snap, nil
}

// collectActivity merges the four activity streams since cutoff, sorted
// newest first, and returns the de-duplicated task and decision id sets
// for the synthetic session. A task created and then updated in the same
// window appears once in the id set.
func (e *Engine) collectActivity(projectID, cutoff string) ([]Activity, []string, []string, error) {
	var activity []Activity

	created, err := e.store.TasksCreatedSince(projectID, cutoff)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, t := range created {
		activity = append(activity, Activity{
			Type: ActivityTaskCreated, EntityID: t.ID, Title: t.Title, Timestamp: t.CreatedAt,
		})
	}

	updated, err := e.store.TasksUpdatedSince(projectID, cutoff)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, t := range updated {
		activity = append(activity, Activity{
			Type: ActivityTaskUpdated, EntityID: t.ID, Title: t.Title, Timestamp: t.UpdatedAt,
		})
	}

	decisions, err := e.store.DecisionsSince(projectID, cutoff)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, d := range decisions {
		activity = append(activity, Activity{
			Type: ActivityDecision, EntityID: d.ID, Title: d.Title, Timestamp: d.CreatedAt,
		})
	}

	notes, err := e.store.NotesSince(projectID, cutoff)
	if err != nil {
		return nil, nil, nil, err
	}
	for _, n := range notes {
		activity = append(activity, Activity{
			Type: ActivityNote, EntityID: n.ID, Title: noteTitle(n.Content), Timestamp: n.CreatedAt,
		})
	}

	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].Timestamp > activity[j].Timestamp
	})

	var taskIDs, decisionIDs []string
	seen := map[string]bool{}
	for _, a := range activity {
		switch a.Type {
		case ActivityTaskCreated, ActivityTaskUpdated:
			if !seen[a.EntityID] {
				seen[a.EntityID] = true
				taskIDs = append(taskIDs, a.EntityID)
			}
		case ActivityDecision:
			if !seen[a.EntityID] {
				seen[a.EntityID] = true
				decisionIDs = append(decisionIDs, a.EntityID)
			}
		}
	}

	return activity, taskIDs, decisionIDs, nil
}

func (e *Engine) assembleSnapshot(project store.Project, last *store.Session, activity []Activity) (*Snapshot, error) {
	if len(activity) > maxActivityItems {
		activity = activity[:maxActivityItems]
	}

	snap := &Snapshot{
		Project:        project,
		RecentActivity: activity,
	}
	if last != nil {
		snap.LastSession = &SessionBrief{
			Summary:   last.Summary,
			NextSteps: last.NextSteps,
			When:      last.CreatedAt,
		}
	}

	var err error
	if snap.ActiveTasks, err = e.store.ListTasks(project.ID, store.TaskFilter{}); err != nil {
		return nil, err
	}
	if snap.BlockedTasks, err = e.store.ListTasks(project.ID, store.TaskFilter{Status: store.TaskBlocked}); err != nil {
		return nil, err
	}
	if snap.RecentDecisions, err = e.store.ListDecisions(project.ID, recentDecisionCount); err != nil {
		return nil, err
	}
	if snap.TaskCounts, err = e.store.CountTasksByStatus(project.ID); err != nil {
		return nil, err
	}
	if snap.Context, err = e.store.GetContext(project.ID); err != nil {
		return nil, err
	}
	return snap, nil
}

// noteTitle shortens note content into a display title, cutting on a
// rune boundary so multibyte content never yields invalid UTF-8.
func noteTitle(content string) string {
	if len(content) <= noteTitleLength {
		return content
	}
	cut := noteTitleLength
	for cut > 0 && !utf8.RuneStart(content[cut]) {
		cut--
	}
	return content[:cut] + "..."
}

// IsSynthetic reports whether a session summary carries the
// auto-generated marker. Display-only: the schema does not distinguish.
func IsSynthetic(summary string) bool {
	return len(summary) >= len(syntheticMarker) && summary[:len(syntheticMarker)] == syntheticMarker
}
