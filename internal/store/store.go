package store

import (
	"context"
	"time"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/reconcile"
)

// Snapshot is the task tree and notification list of the last successful
// reload, as seen by one user.
type Snapshot struct {
	UserID        string
	SavedAt       time.Time
	Tasks         []model.Task
	Notifications []model.Notification
}

// Store defines the local persistence used alongside the remote backend:
// an offline copy of the last reload and a ledger of reminders already
// sent.
type Store interface {
	// === Snapshot cache ===

	ReplaceSnapshot(ctx context.Context, userID string, tasks []model.Task, notifications []model.Notification) error
	LoadSnapshot(ctx context.Context, userID string) (*Snapshot, error)
	ClearSnapshot(ctx context.Context) error

	// === Reminder ledger ===

	HasReminder(ctx context.Context, key reconcile.ReminderKey) (bool, error)
	RecordReminder(ctx context.Context, key reconcile.ReminderKey, at time.Time) error
}
