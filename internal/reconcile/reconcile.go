// Package reconcile computes the remote writes needed to bring the task
// tree in line with its derived rules. Functions here do no I/O; the
// engine applies their results and reloads.
package reconcile

import (
	"fmt"
	"strings"
	"time"

	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/model"
)

// StatusUpdate is a required change to a parent task's stored status.
type StatusUpdate struct {
	TaskID string
	Title  string
	From   model.Status
	To     model.Status
}

// RollupStatus derives a parent's status from its subtasks. ok is false
// when the task has no subtasks and its status is freely settable.
func RollupStatus(subtasks []model.Task) (status model.Status, ok bool) {
	n := len(subtasks)
	if n == 0 {
		return "", false
	}

	completed := 0
	for _, st := range subtasks {
		if st.Status == model.StatusCompleted {
			completed++
		}
	}

	switch {
	case completed == n:
		return model.StatusCompleted, true
	case completed > 0:
		return model.StatusInProgress, true
	default:
		return model.StatusTodo, true
	}
}

// Rollup returns one update for every top-level task whose stored status
// differs from the status derived from its subtasks. A converged tree
// yields nil.
func Rollup(tasks []model.Task) []StatusUpdate {
	var updates []StatusUpdate
	for _, t := range tasks {
		if t.IsSubtask() {
			continue
		}
		target, ok := RollupStatus(t.Subtasks)
		if !ok || t.Status == target {
			continue
		}
		updates = append(updates, StatusUpdate{
			TaskID: t.ID,
			Title:  t.Title,
			From:   t.Status,
			To:     target,
		})
	}
	return updates
}

// ReminderKind names the family of a deadline reminder.
type ReminderKind string

// KindDueTomorrow is the reminder raised the day before a deadline.
const KindDueTomorrow ReminderKind = "due_tomorrow"

// dateLayout formats deadline dates in keys and messages.
const dateLayout = "2006-01-02"

// ReminderKey identifies one reminder: a task, a kind, and the deadline
// date it was raised for. Moving the deadline produces a new key.
type ReminderKey struct {
	TaskID       string
	Kind         ReminderKind
	DeadlineDate string
}

func (k ReminderKey) String() string {
	return fmt.Sprintf("%s/%s/%s", k.TaskID, k.Kind, k.DeadlineDate)
}

// Reminder is a notification the engine must create.
type Reminder struct {
	Key     ReminderKey
	TaskID  string
	Message string
}

// KeyFor builds the due-tomorrow key for a task, using the deadline's date
// in loc.
func KeyFor(t model.Task, loc *time.Location) ReminderKey {
	return ReminderKey{
		TaskID:       t.ID,
		Kind:         KindDueTomorrow,
		DeadlineDate: t.Deadline.In(loc).Format(dateLayout),
	}
}

// DueTomorrowMessage renders the reminder text. The embedded date lets a
// notification fetched from the backend be matched back to its key.
func DueTomorrowMessage(t model.Task, loc *time.Location) string {
	return fmt.Sprintf("Task %q is due tomorrow (%s)", t.Title, t.Deadline.In(loc).Format(dateLayout))
}

// CoveredBy reports whether an existing notification already represents
// the reminder identified by key.
func CoveredBy(n model.Notification, key ReminderKey) bool {
	return n.Type == model.NotificationTaskDeadline &&
		n.RelatedTaskID == key.TaskID &&
		strings.Contains(n.Message, key.DeadlineDate)
}

// Reminders returns the due-tomorrow reminders still owed for tasks, given
// the notifications already on the backend and a lookup of keys recorded
// locally. Completed tasks are never reminded. Each key appears at most once.
func Reminders(
	tasks []model.Task,
	notifications []model.Notification,
	sent func(ReminderKey) bool,
	now time.Time,
) []Reminder {
	loc := now.Location()
	seen := make(map[ReminderKey]bool)

	var out []Reminder
	for _, t := range model.Flatten(tasks) {
		if t.IsCompleted() || !derive.IsDueTomorrow(t, now) {
			continue
		}

		key := KeyFor(t, loc)
		if seen[key] {
			continue
		}
		seen[key] = true

		if sent != nil && sent(key) {
			continue
		}
		if covered(notifications, key) {
			continue
		}

		out = append(out, Reminder{
			Key:     key,
			TaskID:  t.ID,
			Message: DueTomorrowMessage(t, loc),
		})
	}
	return out
}

func covered(notifications []model.Notification, key ReminderKey) bool {
	for _, n := range notifications {
		if CoveredBy(n, key) {
			return true
		}
	}
	return false
}
