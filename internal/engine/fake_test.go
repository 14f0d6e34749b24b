package engine

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// fakeRemote is an in-memory backend that counts writes and can be told
// to fail.
type fakeRemote struct {
	mu sync.Mutex

	token  string
	nextID int
	tasks  map[string]*model.Task
	notifs []model.Notification

	statusWrites int
	// ignoreStatusWrites accepts status updates without applying them.
	ignoreStatusWrites bool
	// failures maps a method name to the error it returns.
	failures map[string]error
	// failTitles makes CreateTask fail for these titles.
	failTitles map[string]bool
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		tasks:      make(map[string]*model.Task),
		failures:   make(map[string]error),
		failTitles: make(map[string]bool),
	}
}

func (f *fakeRemote) id() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

// seed stores a task directly and returns its id.
func (f *fakeRemote) seed(t model.Task) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t.ID == "" {
		t.ID = f.id()
	}
	t.Subtasks = nil
	f.tasks[t.ID] = &t
	return t.ID
}

func (f *fakeRemote) fail(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = err
}

func (f *fakeRemote) notifications() []model.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Notification, len(f.notifs))
	copy(out, f.notifs)
	return out
}

func (f *fakeRemote) writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusWrites
}

func (f *fakeRemote) SetToken(token string) {
	f.mu.Lock()
	f.token = token
	f.mu.Unlock()
}

func (f *fakeRemote) ListTasks(context.Context) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["ListTasks"]; err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(f.tasks))
	for id := range f.tasks {
		n, _ := strconv.Atoi(id)
		ids = append(ids, n)
	}
	sort.Ints(ids)

	var out []model.Task
	index := make(map[string]int)
	for _, n := range ids {
		t := f.tasks[strconv.Itoa(n)].Clone()
		if t.ParentID == nil {
			index[t.ID] = len(out)
			out = append(out, t)
		}
	}
	for _, n := range ids {
		t := f.tasks[strconv.Itoa(n)].Clone()
		if t.ParentID != nil {
			if i, ok := index[*t.ParentID]; ok {
				out[i].Subtasks = append(out[i].Subtasks, t)
			}
		}
	}
	return out, nil
}

func (f *fakeRemote) CreateTask(_ context.Context, in model.TaskInput) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["CreateTask"]; err != nil {
		return "", err
	}
	if f.failTitles[in.Title] {
		return "", errBackend
	}
	t := model.Task{
		ID: f.id(), Title: in.Title, Description: in.Description, Deadline: in.Deadline,
		Priority: in.Priority, Status: in.Status, CreatedBy: in.CreatedBy,
		Department: in.Department, ParentID: in.ParentID, CreatedAt: time.Now(),
	}
	f.tasks[t.ID] = &t
	return t.ID, nil
}

func (f *fakeRemote) UpdateTaskStatus(_ context.Context, id string, status model.Status, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["UpdateTaskStatus"]; err != nil {
		return err
	}
	f.statusWrites++
	t, ok := f.tasks[id]
	if !ok {
		return errBackend
	}
	if f.ignoreStatusWrites {
		return nil
	}
	t.Status = status
	t.BlockerReason = reason
	return nil
}

func (f *fakeRemote) CarryOverTask(_ context.Context, id string, deadline time.Time, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["CarryOverTask"]; err != nil {
		return err
	}
	t, ok := f.tasks[id]
	if !ok {
		return errBackend
	}
	if !t.IsCarriedOver {
		from := t.Deadline
		t.CarriedOverFromDeadline = &from
	}
	t.Deadline = deadline
	t.IsCarriedOver = true
	t.CarryOverReason = reason
	return nil
}

func (f *fakeRemote) ListNotifications(context.Context) ([]model.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["ListNotifications"]; err != nil {
		return nil, err
	}
	out := make([]model.Notification, len(f.notifs))
	copy(out, f.notifs)
	return out, nil
}

func (f *fakeRemote) CreateNotification(_ context.Context, in model.NotificationInput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["CreateNotification"]; err != nil {
		return err
	}
	f.notifs = append(f.notifs, model.Notification{
		ID: f.id(), Message: in.Message, RelatedTaskID: in.RelatedTaskID,
		UserID: in.UserID, Type: in.Type,
	})
	return nil
}

func (f *fakeRemote) MarkNotificationRead(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["MarkNotificationRead"]; err != nil {
		return err
	}
	for i := range f.notifs {
		if f.notifs[i].ID == id {
			f.notifs[i].Read = true
		}
	}
	return nil
}

func (f *fakeRemote) DeleteNotification(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failures["DeleteNotification"]; err != nil {
		return err
	}
	for i := range f.notifs {
		if f.notifs[i].ID == id {
			f.notifs = append(f.notifs[:i], f.notifs[i+1:]...)
			return nil
		}
	}
	return errBackend
}

// toastRecorder collects toasts.
type toastRecorder struct {
	mu     sync.Mutex
	toasts []model.Toast
}

func (r *toastRecorder) Toast(t model.Toast) {
	r.mu.Lock()
	r.toasts = append(r.toasts, t)
	r.mu.Unlock()
}

func (r *toastRecorder) all() []model.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

func (r *toastRecorder) last() (model.Toast, bool) {
	all := r.all()
	if len(all) == 0 {
		return model.Toast{}, false
	}
	return all[len(all)-1], true
}
