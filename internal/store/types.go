package store

// Project statuses.
const (
	ProjectActive    = "active"
	ProjectPaused    = "paused"
	ProjectCompleted = "completed"
	ProjectArchived  = "archived"
)

// Task statuses.
const (
	TaskTodo       = "todo"
	TaskInProgress = "in_progress"
	TaskBlocked    = "blocked"
	TaskDone       = "done"
	TaskCancelled  = "cancelled"
)

// Task priorities, ordered critical < high < medium < low.
const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

// Project is a tracked codebase or initiative.
type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description,omitempty"`
	Status      string   `json:"status"`
	RepoPath    string   `json:"repo_path,omitempty"`
	TechStack   []string `json:"tech_stack,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

// Task is a unit of work within a project. Seq is a monotonic per-project
// integer; DisplayID combines the project slug with Seq ("hnd-3").
type Task struct {
	ID           string   `json:"id"`
	ProjectID    string   `json:"project_id"`
	Seq          int      `json:"seq"`
	DisplayID    string   `json:"display_id,omitempty"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Status       string   `json:"status"`
	Priority     string   `json:"priority"`
	Tags         []string `json:"tags,omitempty"`
	ParentTaskID *string  `json:"parent_task_id,omitempty"`
	BlockedBy    []string `json:"blocked_by,omitempty"`
	CreatedAt    string   `json:"created_at"`
	UpdatedAt    string   `json:"updated_at"`
	CompletedAt  *string  `json:"completed_at,omitempty"`
}

// TaskHistoryEvent is one append-only audit record of a task field change.
// It maps 1:1 onto its table, so db tags live on the entity itself.
type TaskHistoryEvent struct {
	ID        string  `json:"id" db:"id"`
	TaskID    string  `json:"task_id" db:"task_id"`
	Event     string  `json:"event" db:"event"`
	OldValue  *string `json:"old_value,omitempty" db:"old_value"`
	NewValue  *string `json:"new_value,omitempty" db:"new_value"`
	CreatedAt string  `json:"created_at" db:"created_at"`
}

// History event names.
const (
	EventCreated         = "created"
	EventStatusChanged   = "status_changed"
	EventPriorityChanged = "priority_changed"
	EventTitleChanged    = "title_changed"
)

// Decision is an immutable record of a choice made during work.
type Decision struct {
	ID           string   `json:"id"`
	ProjectID    string   `json:"project_id"`
	TaskID       *string  `json:"task_id,omitempty"`
	Title        string   `json:"title"`
	Decision     string   `json:"decision"`
	Reasoning    string   `json:"reasoning,omitempty"`
	Alternatives []string `json:"alternatives,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	CreatedAt    string   `json:"created_at"`
}

// Note categories.
const (
	NoteGeneral      = "general"
	NoteArchitecture = "architecture"
	NoteBug          = "bug"
	NoteIdea         = "idea"
	NoteResearch     = "research"
	NoteMeeting      = "meeting"
	NoteReview       = "review"
)

// Note is an immutable free-form annotation on a project or task.
type Note struct {
	ID        string   `json:"id"`
	ProjectID string   `json:"project_id"`
	TaskID    *string  `json:"task_id,omitempty"`
	Content   string   `json:"content"`
	Category  string   `json:"category"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// Session is an append-only record of a unit of work. Synthetic sessions
// (auto-generated to cover unrecorded activity) carry a marker summary but
// are otherwise indistinguishable by schema.
type Session struct {
	ID            string   `json:"id"`
	ProjectID     string   `json:"project_id"`
	Summary       string   `json:"summary"`
	TasksWorkedOn []string `json:"tasks_worked_on,omitempty"`
	DecisionsMade []string `json:"decisions_made,omitempty"`
	NextSteps     string   `json:"next_steps,omitempty"`
	CreatedAt     string   `json:"created_at"`
}

// ContextEntry is a keyed fact about a project with upsert semantics on
// (project_id, key). Like TaskHistoryEvent it maps 1:1 onto its table.
type ContextEntry struct {
	ID        string `json:"id" db:"id"`
	ProjectID string `json:"project_id" db:"project_id"`
	Key       string `json:"key" db:"key"`
	Value     string `json:"value" db:"value"`
	Category  string `json:"category,omitempty" db:"category"`
	CreatedAt string `json:"created_at" db:"created_at"`
	UpdatedAt string `json:"updated_at" db:"updated_at"`
}
