package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/model"
)

// mutationTimeout bounds one mutation including its reload.
const mutationTimeout = 30 * time.Second

// mutationDoneMsg is sent after an engine mutation returns. The engine
// has already toasted the outcome.
type mutationDoneMsg struct{ err error }

// notificationDoneMsg is sent after a notification is marked read or
// deleted.
type notificationDoneMsg struct{ err error }

// remindersDoneMsg is sent after a manual reminder pass.
type remindersDoneMsg struct{}

// createTask adds a top-level task, or a subtask when parentID is set.
func (m *Model) createTask(parentID *string, in model.TaskInput) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()

		var err error
		if parentID != nil {
			_, err = e.AddSubtask(ctx, *parentID, in)
		} else {
			_, err = e.AddTask(ctx, in)
		}
		return mutationDoneMsg{err: err}
	}
}

// updateStatus writes a new status.
func (m *Model) updateStatus(id string, status model.Status, reason string) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		return mutationDoneMsg{err: e.UpdateTaskStatus(ctx, id, status, reason)}
	}
}

// carryOver moves a deadline.
func (m *Model) carryOver(id string, deadline time.Time, reason string) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		return mutationDoneMsg{err: e.CarryOverTask(ctx, id, deadline, reason)}
	}
}

// markRead flags a notification as read.
func (m *Model) markRead(id string) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		return notificationDoneMsg{err: e.MarkNotificationAsRead(ctx, id)}
	}
}

// deleteNotification removes a notification.
func (m *Model) deleteNotification(id string) tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		return notificationDoneMsg{err: e.DeleteNotification(ctx, id)}
	}
}

// checkReminders runs the deadline reminder pass on demand.
func (m *Model) checkReminders() tea.Cmd {
	e := m.engine
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		e.CheckReminders(ctx)
		return remindersDoneMsg{}
	}
}
