package derive

import (
	"sort"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// Stats aggregates a set of tasks for dashboards and summaries.
type Stats struct {
	Total       int
	ByStatus    map[model.Status]int
	ByPriority  map[model.Priority]int
	Overdue     int
	Urgent      int
	CarriedOver int
}

// CompletionRate returns the share of completed tasks in [0, 1].
func (s Stats) CompletionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.ByStatus[model.StatusCompleted]) / float64(s.Total)
}

// Compute aggregates every task and subtask in tasks.
func Compute(tasks []model.Task, now time.Time) Stats {
	s := Stats{
		ByStatus:   make(map[model.Status]int),
		ByPriority: make(map[model.Priority]int),
	}
	for _, t := range model.Flatten(tasks) {
		s.Total++
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++
		if IsOverdue(t, now) {
			s.Overdue++
		}
		if IsUrgent(t, now) {
			s.Urgent++
		}
		if t.IsCarriedOver {
			s.CarriedOver++
		}
	}
	return s
}

// DepartmentStats is Stats scoped to one department.
type DepartmentStats struct {
	Department string
	Stats
}

// ByDepartment computes Stats per department, sorted by department name.
// Subtasks count toward their own Department field.
func ByDepartment(tasks []model.Task, now time.Time) []DepartmentStats {
	groups := make(map[string][]model.Task)
	for _, t := range model.Flatten(tasks) {
		flat := t
		flat.Subtasks = nil
		groups[t.Department] = append(groups[t.Department], flat)
	}

	out := make([]DepartmentStats, 0, len(groups))
	for dept, ts := range groups {
		out = append(out, DepartmentStats{Department: dept, Stats: Compute(ts, now)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Department < out[j].Department
	})
	return out
}
