package devserver

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/nhle/taskboard/internal/remote"
)

var (
	errNotFound      = errors.New("not found")
	errNestedSubtask = errors.New("subtasks cannot have subtasks")
)

// data is the server's in-memory state. Tasks are kept flat; nesting is
// rebuilt on every listing.
type data struct {
	mu sync.Mutex

	nextTaskID  int64
	nextNotifID int64
	nextDeptID  int64

	tasks         map[int64]*remote.TaskDTO
	notifications map[int64]*remote.NotificationDTO
	departments   []remote.DepartmentDTO
}

func newData() *data {
	return &data{
		tasks:         make(map[int64]*remote.TaskDTO),
		notifications: make(map[int64]*remote.NotificationDTO),
	}
}

func (d *data) addDepartment(name string) {
	if name == "" {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, dep := range d.departments {
		if dep.Name == name {
			return
		}
	}
	d.nextDeptID++
	d.departments = append(d.departments, remote.DepartmentDTO{ID: d.nextDeptID, Name: name})
}

func (d *data) listDepartments() []remote.DepartmentDTO {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]remote.DepartmentDTO, len(d.departments))
	copy(out, d.departments)
	return out
}

// topLevelTasks returns parent tasks with their subtasks nested, both
// ordered by id.
func (d *data) topLevelTasks() []remote.TaskDTO {
	d.mu.Lock()
	defer d.mu.Unlock()

	children := make(map[int64][]remote.TaskDTO)
	var parents []remote.TaskDTO
	for _, t := range d.tasks {
		if t.ParentID == nil {
			parents = append(parents, *t)
			continue
		}
		children[*t.ParentID] = append(children[*t.ParentID], *t)
	}

	sort.Slice(parents, func(i, j int) bool { return parents[i].ID < parents[j].ID })
	for i := range parents {
		subs := children[parents[i].ID]
		sort.Slice(subs, func(a, b int) bool { return subs[a].ID < subs[b].ID })
		parents[i].Subtasks = subs
	}
	return parents
}

// subtasksOf returns the children of parentID ordered by id.
func (d *data) subtasksOf(parentID int64) []remote.TaskDTO {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := []remote.TaskDTO{}
	for _, t := range d.tasks {
		if t.ParentID != nil && *t.ParentID == parentID {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (d *data) createTask(t remote.TaskDTO) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if t.ParentID != nil {
		parent, ok := d.tasks[*t.ParentID]
		if !ok {
			return 0, errNotFound
		}
		if parent.ParentID != nil {
			return 0, errNestedSubtask
		}
	}

	d.nextTaskID++
	t.ID = d.nextTaskID
	t.Subtasks = nil
	d.tasks[t.ID] = &t
	return t.ID, nil
}

func (d *data) updateStatus(id int64, status string, reason *string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.tasks[id]
	if !ok {
		return errNotFound
	}
	t.Status = status
	if reason != nil && *reason != "" {
		r := *reason
		t.BlockerReason = &r
	} else {
		t.BlockerReason = nil
	}
	return nil
}

func (d *data) carryOver(id int64, deadline time.Time, reason string, at time.Time) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	t, ok := d.tasks[id]
	if !ok {
		return errNotFound
	}
	// The first carry-over records the original due date; later ones keep it.
	if !t.IsCarriedOver {
		from := t.Deadline
		t.CarriedOverFromDeadline = &from
	}
	t.Deadline = deadline
	t.IsCarriedOver = true
	t.CarryOverReason = &reason
	t.CarriedOverAt = &at
	return nil
}

func (d *data) notificationsFor(userID string) []remote.NotificationDTO {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := []remote.NotificationDTO{}
	for _, n := range d.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func (d *data) createNotification(n remote.NotificationDTO) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextNotifID++
	n.ID = d.nextNotifID
	d.notifications[n.ID] = &n
	return n.ID
}

func (d *data) markRead(id int64, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.notifications[id]
	if !ok || n.UserID != userID {
		return errNotFound
	}
	n.Read = true
	return nil
}

func (d *data) deleteNotification(id int64, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.notifications[id]
	if !ok || n.UserID != userID {
		return errNotFound
	}
	delete(d.notifications, id)
	return nil
}
