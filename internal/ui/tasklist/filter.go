package tasklist

import (
	"strings"

	"github.com/nhle/taskboard/internal/model"
)

// Filter narrows the task tree. Zero value shows everything.
type Filter struct {
	// Mine keeps tasks created by UserID.
	Mine   bool
	UserID string

	// Department keeps tasks owned by the named department.
	Department string

	// Blocked keeps tasks in the blocker state.
	Blocked bool

	// Query is a case-insensitive substring of the title.
	Query string
}

// Active reports whether any criterion is set.
func (f Filter) Active() bool {
	return f.Mine || f.Department != "" || f.Blocked || f.Query != ""
}

// Label describes the active criteria for the list title.
func (f Filter) Label() string {
	var parts []string
	if f.Mine {
		parts = append(parts, "mine")
	}
	if f.Department != "" {
		parts = append(parts, "dept:"+f.Department)
	}
	if f.Blocked {
		parts = append(parts, "blocked")
	}
	if f.Query != "" {
		parts = append(parts, "/"+f.Query)
	}
	return strings.Join(parts, " ")
}

func (f Filter) match(t model.Task) bool {
	if f.Mine && t.CreatedBy != f.UserID {
		return false
	}
	if f.Department != "" && !strings.EqualFold(t.Department, f.Department) {
		return false
	}
	if f.Blocked && t.Status != model.StatusBlocker {
		return false
	}
	if f.Query != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Query)) {
		return false
	}
	return true
}

// Rows flattens the tree into display rows. A parent is kept when it or
// any subtask matches; a matching parent brings all of its subtasks, an
// unmatched one only the matching subtasks.
func (f Filter) Rows(tasks []model.Task) []Row {
	var rows []Row
	for _, t := range tasks {
		parentMatch := f.match(t)

		var children []Row
		for _, st := range t.Subtasks {
			if parentMatch || f.match(st) {
				children = append(children, Row{Task: st, Depth: 1})
			}
		}

		if !parentMatch && len(children) == 0 {
			continue
		}
		rows = append(rows, Row{Task: t, Depth: 0})
		rows = append(rows, children...)
	}
	return rows
}
