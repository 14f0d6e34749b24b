package model

import "time"

// Status is the lifecycle state of a task.
type Status string

// Task status constants. These are the client-side spellings; the backend
// spells in-progress as "in_progress" (see the remote package).
const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusBlocker    Status = "blocker"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusBlocker, StatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusCompleted, StatusBlocker:
		return true
	}
	return false
}

// Label returns a short human-readable label for the status.
func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To do"
	case StatusInProgress:
		return "In progress"
	case StatusCompleted:
		return "Completed"
	case StatusBlocker:
		return "Blocked"
	default:
		return string(s)
	}
}

// Priority is the urgency level assigned to a task by its creator.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists every priority from highest to lowest.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Task is a unit of work owned by a user and a department. Top-level tasks
// carry their subtasks inline; a subtask's own Subtasks is always empty.
type Task struct {
	// ID is the string form of the backend's numeric key.
	ID string `json:"id"`

	Title       string `json:"title"`
	Description string `json:"description"`

	// Deadline is when the task is due.
	Deadline time.Time `json:"deadline"`

	Priority Priority `json:"priority"`
	Status   Status   `json:"status"`

	// BlockerReason explains the blockage. Only meaningful when Status is
	// StatusBlocker.
	BlockerReason string `json:"blocker_reason,omitempty"`

	// CreatedBy is the id of the owning user.
	CreatedBy string `json:"created_by"`

	// Department is the display name of the owning department.
	Department string `json:"department"`

	CreatedAt time.Time `json:"created_at"`

	// ParentID references the parent task, nil for top-level tasks.
	ParentID *string `json:"parent_id,omitempty"`

	Subtasks []Task `json:"subtasks,omitempty"`

	// Carry-over bookkeeping, set when the deadline was pushed past its
	// original due date.
	IsCarriedOver           bool       `json:"is_carried_over"`
	CarryOverReason         string     `json:"carry_over_reason,omitempty"`
	CarriedOverFromDeadline *time.Time `json:"carried_over_from_deadline,omitempty"`
	CarriedOverAt           *time.Time `json:"carried_over_at,omitempty"`
}

// IsSubtask reports whether the task has a parent.
func (t Task) IsSubtask() bool {
	return t.ParentID != nil && *t.ParentID != ""
}

// HasSubtasks reports whether the task's status is derived from children.
func (t Task) HasSubtasks() bool {
	return len(t.Subtasks) > 0
}

// IsCompleted reports whether the task is in the completed state.
func (t Task) IsCompleted() bool {
	return t.Status == StatusCompleted
}

// Clone returns a deep copy of the task, including subtasks and pointers.
func (t Task) Clone() Task {
	c := t
	if t.ParentID != nil {
		p := *t.ParentID
		c.ParentID = &p
	}
	if t.CarriedOverFromDeadline != nil {
		d := *t.CarriedOverFromDeadline
		c.CarriedOverFromDeadline = &d
	}
	if t.CarriedOverAt != nil {
		d := *t.CarriedOverAt
		c.CarriedOverAt = &d
	}
	if t.Subtasks != nil {
		c.Subtasks = make([]Task, len(t.Subtasks))
		for i, st := range t.Subtasks {
			c.Subtasks[i] = st.Clone()
		}
	}
	return c
}

// Flatten returns top-level tasks followed immediately by their subtasks,
// preserving order. Subtasks in the result have no Subtasks of their own.
func Flatten(tasks []Task) []Task {
	var out []Task
	for _, t := range tasks {
		out = append(out, t)
		out = append(out, t.Subtasks...)
	}
	return out
}

// TaskInput holds the caller-settable fields of a new task.
type TaskInput struct {
	Title       string
	Description string
	Deadline    time.Time
	Priority    Priority
	Status      Status
	CreatedBy   string
	Department  string
	ParentID    *string
}
