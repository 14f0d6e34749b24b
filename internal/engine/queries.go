package engine

import (
	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/model"
)

// Tasks returns a copy of the top-level tasks with their subtasks.
func (e *Engine) Tasks() []model.Task {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return cloneTasks(e.tasks)
}

// Notifications returns a copy of the notification list.
func (e *Engine) Notifications() []model.Notification {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]model.Notification, len(e.notifications))
	copy(out, e.notifications)
	return out
}

// TaskByID finds a top-level task or subtask.
func (e *Engine) TaskByID(id string) (model.Task, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	for _, t := range e.tasks {
		if t.ID == id {
			return t.Clone(), true
		}
		for _, st := range t.Subtasks {
			if st.ID == id {
				return st.Clone(), true
			}
		}
	}
	return model.Task{}, false
}

// TasksByDepartment returns the top-level tasks owned by dept.
func (e *Engine) TasksByDepartment(dept string) []model.Task {
	return e.filterTopLevel(func(t model.Task) bool { return t.Department == dept })
}

// TasksByUser returns the top-level tasks created by userID.
func (e *Engine) TasksByUser(userID string) []model.Task {
	return e.filterTopLevel(func(t model.Task) bool { return t.CreatedBy == userID })
}

// OverdueTasks returns every overdue task or subtask.
func (e *Engine) OverdueTasks() []model.Task {
	now := e.clock.Now()
	return e.filterAll(func(t model.Task) bool { return derive.IsOverdue(t, now) })
}

// UrgentTasks returns every task or subtask due within a day.
func (e *Engine) UrgentTasks() []model.Task {
	now := e.clock.Now()
	return e.filterAll(func(t model.Task) bool { return derive.IsUrgent(t, now) })
}

// BlockedTasks returns blocked tasks and subtasks, oldest first.
func (e *Engine) BlockedTasks() []derive.Blocked {
	return derive.BlockedTasks(e.Tasks(), e.clock.Now())
}

// CarriedOverTasks returns every task or subtask whose deadline was moved.
func (e *Engine) CarriedOverTasks() []model.Task {
	return e.filterAll(func(t model.Task) bool { return t.IsCarriedOver })
}

// UnreadCount returns the number of unread notifications.
func (e *Engine) UnreadCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := 0
	for _, notif := range e.notifications {
		if !notif.Read {
			n++
		}
	}
	return n
}

// Stats aggregates the whole tree.
func (e *Engine) Stats() derive.Stats {
	return derive.Compute(e.Tasks(), e.clock.Now())
}

// DepartmentStats aggregates the tree per department.
func (e *Engine) DepartmentStats() []derive.DepartmentStats {
	return derive.ByDepartment(e.Tasks(), e.clock.Now())
}

func (e *Engine) filterTopLevel(keep func(model.Task) bool) []model.Task {
	var out []model.Task
	for _, t := range e.Tasks() {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func (e *Engine) filterAll(keep func(model.Task) bool) []model.Task {
	var out []model.Task
	for _, t := range model.Flatten(e.Tasks()) {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func cloneTasks(tasks []model.Task) []model.Task {
	if tasks == nil {
		return nil
	}
	out := make([]model.Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}
