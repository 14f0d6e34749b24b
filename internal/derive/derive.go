// Package derive classifies tasks by deadline and status. Every function is
// pure: "now" is passed in and its location defines the local day.
package derive

import (
	"math"
	"sort"
	"time"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/model"
)

// IsOverdue reports whether the deadline has passed on an unfinished task.
func IsOverdue(t model.Task, now time.Time) bool {
	return !t.IsCompleted() && t.Deadline.Before(now)
}

// DaysUntilDeadline returns the number of started 24h periods between now
// and the deadline. It is 0 or negative once the deadline has passed.
func DaysUntilDeadline(deadline, now time.Time) int {
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

// IsUrgent reports whether an unfinished, not yet overdue task is due
// within the next day.
func IsUrgent(t model.Task, now time.Time) bool {
	if t.IsCompleted() || IsOverdue(t, now) {
		return false
	}
	days := DaysUntilDeadline(t.Deadline, now)
	return days >= 0 && days <= 1
}

// IsDueTomorrow reports whether the deadline falls on the calendar day
// after now, comparing dates in now's location and ignoring time of day.
func IsDueTomorrow(t model.Task, now time.Time) bool {
	loc := now.Location()
	tomorrow := clock.DateOf(now).AddDate(0, 0, 1)
	return clock.SameDate(t.Deadline, tomorrow, loc)
}

// AgeBucket groups blocked tasks by how long they have been open.
type AgeBucket string

const (
	AgeFresh    AgeBucket = "fresh"
	AgeAging    AgeBucket = "aging"
	AgeStale    AgeBucket = "stale"
	AgeCritical AgeBucket = "critical"
)

// BlockerAge returns the time elapsed since the task was created. The
// backend records no timestamp for entering the blocker state, so task age
// stands in for time blocked.
func BlockerAge(t model.Task, now time.Time) time.Duration {
	if t.CreatedAt.IsZero() || now.Before(t.CreatedAt) {
		return 0
	}
	return now.Sub(t.CreatedAt)
}

// BucketFor maps an age to its bucket.
func BucketFor(age time.Duration) AgeBucket {
	const day = 24 * time.Hour
	switch {
	case age < day:
		return AgeFresh
	case age < 3*day:
		return AgeAging
	case age < 7*day:
		return AgeStale
	default:
		return AgeCritical
	}
}

// Blocked pairs a blocked task with its age classification.
type Blocked struct {
	Task   model.Task
	Age    time.Duration
	Bucket AgeBucket
}

// BlockedTasks returns every task (top-level or subtask) in the blocker
// state, oldest first.
func BlockedTasks(tasks []model.Task, now time.Time) []Blocked {
	var out []Blocked
	for _, t := range model.Flatten(tasks) {
		if t.Status != model.StatusBlocker {
			continue
		}
		age := BlockerAge(t, now)
		out = append(out, Blocked{Task: t, Age: age, Bucket: BucketFor(age)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Age > out[j].Age
	})
	return out
}
