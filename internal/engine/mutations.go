package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// fail reports a failed mutation to the user and returns it wrapped in
// ErrOperationFailed.
func (e *Engine) fail(toast string, err error) error {
	e.log.Logf("[ERROR] %s: %v", toast, err)
	e.toaster.Toast(model.Toast{Kind: model.ToastError, Message: toast})
	return fmt.Errorf("%w: %w", ErrOperationFailed, err)
}

func (e *Engine) succeed(msg string) {
	e.toaster.Toast(model.Toast{Kind: model.ToastSuccess, Message: msg})
}

// requireSession returns the active session or ErrNoSession.
func (e *Engine) requireSession() (string, error) {
	sess, ok := e.Session()
	if !ok {
		return "", ErrNoSession
	}
	return sess.User.ID, nil
}

// AddTask creates a top-level task and returns its id.
func (e *Engine) AddTask(ctx context.Context, in model.TaskInput) (string, error) {
	userID, err := e.requireSession()
	if err != nil {
		return "", e.fail("Failed to create task", err)
	}
	in.ParentID = nil

	id, err := e.createTask(ctx, userID, in)
	if err != nil {
		return "", e.fail("Failed to create task", err)
	}

	e.reloadAfterMutation(ctx)
	e.succeed(fmt.Sprintf("Task %q created", in.Title))
	return id, nil
}

// AddSubtask creates a subtask under parentID and returns its id.
func (e *Engine) AddSubtask(ctx context.Context, parentID string, in model.TaskInput) (string, error) {
	userID, err := e.requireSession()
	if err != nil {
		return "", e.fail("Failed to create subtask", err)
	}

	parent, ok := e.TaskByID(parentID)
	if !ok || parent.IsSubtask() {
		return "", e.fail("Failed to create subtask", fmt.Errorf("parent %s: %w", parentID, ErrTaskNotFound))
	}
	if in.Department == "" {
		in.Department = parent.Department
	}
	in.ParentID = &parentID

	id, err := e.createTask(ctx, userID, in)
	if err != nil {
		return "", e.fail("Failed to create subtask", err)
	}

	e.reloadAfterMutation(ctx)
	e.succeed(fmt.Sprintf("Subtask %q added to %q", in.Title, parent.Title))
	return id, nil
}

// AddTaskWithSubtasks creates a parent and then each child in order. A
// failing child does not undo what was already created; the mirror is
// reloaded either way.
func (e *Engine) AddTaskWithSubtasks(ctx context.Context, parent model.TaskInput, children []model.TaskInput) (string, error) {
	userID, err := e.requireSession()
	if err != nil {
		return "", e.fail("Failed to create task", err)
	}
	parent.ParentID = nil

	parentID, err := e.createTask(ctx, userID, parent)
	if err != nil {
		return "", e.fail("Failed to create task", err)
	}

	var failed []string
	var firstErr error
	for _, child := range children {
		pid := parentID
		child.ParentID = &pid
		if child.Department == "" {
			child.Department = parent.Department
		}
		if _, err := e.createTask(ctx, userID, child); err != nil {
			failed = append(failed, child.Title)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	e.reloadAfterMutation(ctx)

	if firstErr != nil {
		return parentID, e.fail(
			fmt.Sprintf("Task created but %d of %d subtasks failed", len(failed), len(children)),
			fmt.Errorf("creating subtasks %q: %w", failed, firstErr),
		)
	}
	e.succeed(fmt.Sprintf("Task %q created with %d subtasks", parent.Title, len(children)))
	return parentID, nil
}

func (e *Engine) createTask(ctx context.Context, userID string, in model.TaskInput) (string, error) {
	if in.CreatedBy == "" {
		in.CreatedBy = userID
	}
	if in.Status == "" {
		in.Status = model.StatusTodo
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}

	id, err := e.remote.CreateTask(ctx, in)
	if err != nil {
		return "", fmt.Errorf("creating task %q: %w", in.Title, err)
	}
	return id, nil
}

// UpdateTaskStatus persists a status and, for blockers, its reason.
// Completing a task also raises one task_completed notification.
func (e *Engine) UpdateTaskStatus(ctx context.Context, id string, status model.Status, blockerReason string) error {
	if _, err := e.requireSession(); err != nil {
		return e.fail("Failed to update task status", err)
	}
	if !status.Valid() {
		return e.fail("Failed to update task status", fmt.Errorf("unknown status %q", status))
	}
	if status != model.StatusBlocker {
		blockerReason = ""
	}

	if err := e.applyStatus(ctx, id, status, blockerReason); err != nil {
		return e.fail("Failed to update task status", err)
	}

	e.reloadAfterMutation(ctx)
	e.succeed(statusToast(status))
	return nil
}

// applyStatus writes a status and emits the completion notification. It
// shows no toast; rollup uses it directly.
func (e *Engine) applyStatus(ctx context.Context, id string, status model.Status, blockerReason string) error {
	if err := e.remote.UpdateTaskStatus(ctx, id, status, blockerReason); err != nil {
		return fmt.Errorf("updating status of task %s: %w", id, err)
	}
	if status == model.StatusCompleted {
		e.notifyCompleted(ctx, id)
	}
	return nil
}

func (e *Engine) notifyCompleted(ctx context.Context, id string) {
	sess, ok := e.Session()
	if !ok {
		return
	}

	title := id
	recipient := sess.User.ID
	if t, ok := e.TaskByID(id); ok {
		title = t.Title
		if t.CreatedBy != "" {
			recipient = t.CreatedBy
		}
	}

	err := e.remote.CreateNotification(ctx, model.NotificationInput{
		Message:       fmt.Sprintf("Task %q has been completed", title),
		RelatedTaskID: id,
		UserID:        recipient,
		Type:          model.NotificationTaskCompleted,
	})
	if err != nil {
		e.log.Logf("[WARN] creating completion notification for task %s: %v", id, err)
	}
}

func statusToast(s model.Status) string {
	switch s {
	case model.StatusCompleted:
		return "Task marked as completed"
	case model.StatusBlocker:
		return "Task marked as blocked"
	case model.StatusInProgress:
		return "Task marked as in progress"
	default:
		return "Task moved back to to-do"
	}
}

// CarryOverTask moves a task's deadline and records the reason.
func (e *Engine) CarryOverTask(ctx context.Context, id string, newDeadline time.Time, reason string) error {
	if _, err := e.requireSession(); err != nil {
		return e.fail("Failed to carry over task", err)
	}

	if err := e.remote.CarryOverTask(ctx, id, newDeadline, reason); err != nil {
		return e.fail("Failed to carry over task", fmt.Errorf("carrying over task %s: %w", id, err))
	}

	e.reloadAfterMutation(ctx)
	e.succeed(fmt.Sprintf("Task carried over to %s", newDeadline.In(e.clock.Now().Location()).Format("Mon Jan 2")))
	return nil
}

// MarkNotificationAsRead flags a notification as read, updating the local
// list without a reload. Failures are logged, not toasted.
func (e *Engine) MarkNotificationAsRead(ctx context.Context, id string) error {
	if err := e.remote.MarkNotificationRead(ctx, id); err != nil {
		e.log.Logf("[ERROR] marking notification %s as read: %v", id, err)
		return fmt.Errorf("%w: marking notification %s as read: %w", ErrOperationFailed, id, err)
	}

	e.mu.Lock()
	for i := range e.notifications {
		if e.notifications[i].ID == id {
			e.notifications[i].Read = true
		}
	}
	e.mu.Unlock()
	return nil
}

// DeleteNotification removes a notification, updating the local list
// without a reload. Failures are logged, not toasted.
func (e *Engine) DeleteNotification(ctx context.Context, id string) error {
	if err := e.remote.DeleteNotification(ctx, id); err != nil {
		e.log.Logf("[ERROR] deleting notification %s: %v", id, err)
		return fmt.Errorf("%w: deleting notification %s: %w", ErrOperationFailed, id, err)
	}

	e.mu.Lock()
	kept := make([]model.Notification, 0, len(e.notifications))
	for _, n := range e.notifications {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	e.notifications = kept
	e.mu.Unlock()
	return nil
}
