package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/taskboard/internal/reconcile"
)

// HasReminder reports whether the reminder identified by key was already
// recorded.
func (s *SQLiteStore) HasReminder(ctx context.Context, key reconcile.ReminderKey) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM reminders
		WHERE task_id = ? AND kind = ? AND deadline_date = ?`,
		key.TaskID, string(key.Kind), key.DeadlineDate,
	)
	if err != nil {
		return false, fmt.Errorf("checking reminder %s: %w", key, err)
	}
	return count > 0, nil
}

// RecordReminder marks key as sent. Recording the same key twice is a
// no-op.
func (s *SQLiteStore) RecordReminder(ctx context.Context, key reconcile.ReminderKey, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO reminders (id, task_id, kind, deadline_date, sent_at)
		VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), key.TaskID, string(key.Kind), key.DeadlineDate, formatTime(at.UTC()),
	)
	if err != nil {
		return fmt.Errorf("recording reminder %s: %w", key, err)
	}
	return nil
}
