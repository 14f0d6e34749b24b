package derive

import (
	"testing"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// berlin is pinned to summer time so tests do not depend on tzdata.
var berlin = time.FixedZone("CEST", 2*60*60)

func TestOverdueAndUrgentBoundaries(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 10, 14, 15, 30, 0, 0, berlin)

	tests := []struct {
		name        string
		deadline    time.Time
		status      model.Status
		wantOverdue bool
		wantUrgent  bool
	}{
		{"one millisecond late", now.Add(-time.Millisecond), model.StatusTodo, true, false},
		{"due in 23 hours", now.Add(23 * time.Hour), model.StatusInProgress, false, true},
		{"due in 25 hours", now.Add(25 * time.Hour), model.StatusTodo, false, false},
		{"due right now", now, model.StatusBlocker, false, true},
		{"completed and late", now.Add(-48 * time.Hour), model.StatusCompleted, false, false},
		{"completed and due soon", now.Add(2 * time.Hour), model.StatusCompleted, false, false},
	}

	for _, tt := range tests {
		task := model.Task{ID: "1", Deadline: tt.deadline, Status: tt.status}
		if got := IsOverdue(task, now); got != tt.wantOverdue {
			t.Errorf("%s: IsOverdue = %v, want %v", tt.name, got, tt.wantOverdue)
		}
		if got := IsUrgent(task, now); got != tt.wantUrgent {
			t.Errorf("%s: IsUrgent = %v, want %v", tt.name, got, tt.wantUrgent)
		}
	}
}

func TestDaysUntilDeadline(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

	cases := map[time.Duration]int{
		-36 * time.Hour: -1,
		-time.Hour:      0,
		0:               0,
		time.Minute:     1,
		24 * time.Hour:  1,
		49 * time.Hour:  3,
	}
	for offset, want := range cases {
		if got := DaysUntilDeadline(now.Add(offset), now); got != want {
			t.Errorf("DaysUntilDeadline(now%+v) = %d, want %d", offset, got, want)
		}
	}
}

func TestIsDueTomorrowUsesLocalDates(t *testing.T) {
	t.Parallel()
	// 23:30 local on the 14th.
	now := time.Date(2026, 10, 14, 23, 30, 0, 0, berlin)

	tests := []struct {
		name     string
		deadline time.Time
		want     bool
	}{
		{"early tomorrow", time.Date(2026, 10, 15, 0, 5, 0, 0, berlin), true},
		{"late tomorrow", time.Date(2026, 10, 15, 23, 59, 0, 0, berlin), true},
		{"later today", time.Date(2026, 10, 14, 23, 59, 0, 0, berlin), false},
		{"day after", time.Date(2026, 10, 16, 0, 0, 0, 0, berlin), false},
		// 22:30 UTC on the 14th is 00:30 on the 15th in Berlin.
		{"utc deadline that is tomorrow locally", time.Date(2026, 10, 14, 22, 30, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		task := model.Task{Deadline: tt.deadline, Status: model.StatusTodo}
		if got := IsDueTomorrow(task, now); got != tt.want {
			t.Errorf("%s: IsDueTomorrow = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestBlockedTasksSortedByAge(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	parent := "10"

	tasks := []model.Task{
		{ID: "1", Status: model.StatusBlocker, CreatedAt: now.Add(-2 * time.Hour)},
		{ID: "2", Status: model.StatusTodo, CreatedAt: now.Add(-200 * time.Hour)},
		{
			ID: "10", Status: model.StatusInProgress, CreatedAt: now.Add(-240 * time.Hour),
			Subtasks: []model.Task{
				{ID: "11", ParentID: &parent, Status: model.StatusBlocker, CreatedAt: now.Add(-9 * 24 * time.Hour)},
				{ID: "12", ParentID: &parent, Status: model.StatusBlocker, CreatedAt: now.Add(-50 * time.Hour)},
			},
		},
	}

	got := BlockedTasks(tasks, now)
	if len(got) != 3 {
		t.Fatalf("expected 3 blocked tasks, got %d", len(got))
	}

	wantOrder := []string{"11", "12", "1"}
	wantBuckets := []AgeBucket{AgeCritical, AgeAging, AgeFresh}
	for i, b := range got {
		if b.Task.ID != wantOrder[i] {
			t.Errorf("position %d: got task %s, want %s", i, b.Task.ID, wantOrder[i])
		}
		if b.Bucket != wantBuckets[i] {
			t.Errorf("task %s: bucket %s, want %s", b.Task.ID, b.Bucket, wantBuckets[i])
		}
	}
}

func TestComputeStats(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	parent := "1"

	tasks := []model.Task{
		{
			ID: "1", Department: "Ops", Status: model.StatusInProgress, Priority: model.PriorityHigh,
			Deadline: now.Add(72 * time.Hour),
			Subtasks: []model.Task{
				{ID: "2", ParentID: &parent, Department: "Ops", Status: model.StatusCompleted, Priority: model.PriorityLow, Deadline: now.Add(-time.Hour)},
				{ID: "3", ParentID: &parent, Department: "Ops", Status: model.StatusTodo, Priority: model.PriorityLow, Deadline: now.Add(-time.Hour)},
			},
		},
		{ID: "4", Department: "Finance", Status: model.StatusTodo, Priority: model.PriorityMedium, Deadline: now.Add(5 * time.Hour), IsCarriedOver: true},
	}

	s := Compute(tasks, now)
	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.Overdue != 1 {
		t.Errorf("Overdue = %d, want 1", s.Overdue)
	}
	if s.Urgent != 1 {
		t.Errorf("Urgent = %d, want 1", s.Urgent)
	}
	if s.CarriedOver != 1 {
		t.Errorf("CarriedOver = %d, want 1", s.CarriedOver)
	}
	if s.CompletionRate() != 0.25 {
		t.Errorf("CompletionRate = %v, want 0.25", s.CompletionRate())
	}

	depts := ByDepartment(tasks, now)
	if len(depts) != 2 || depts[0].Department != "Finance" || depts[1].Department != "Ops" {
		t.Fatalf("unexpected departments: %+v", depts)
	}
	if depts[1].Total != 3 {
		t.Errorf("Ops total = %d, want 3", depts[1].Total)
	}
}
