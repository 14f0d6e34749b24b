package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// ReplaceSnapshot overwrites the cached tree and notifications for userID
// in one transaction.
func (s *SQLiteStore) ReplaceSnapshot(
	ctx context.Context,
	userID string,
	tasks []model.Task,
	notifications []model.Notification,
) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"cached_tasks", "cached_notifications", "snapshots"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("clearing %s for %s: %w", table, userID, err)
		}
	}

	taskStmt, err := tx.PreparexContext(ctx, `
		INSERT INTO cached_tasks (
			user_id, id, parent_id, position, status, department, deadline, payload
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing task insert: %w", err)
	}
	defer taskStmt.Close()

	for i, t := range model.Flatten(tasks) {
		row := t
		row.Subtasks = nil
		payload, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("marshaling task %s: %w", t.ID, err)
		}
		_, err = taskStmt.ExecContext(ctx,
			userID, t.ID, t.ParentID, i, string(t.Status), t.Department,
			formatTime(t.Deadline), string(payload),
		)
		if err != nil {
			return fmt.Errorf("caching task %s: %w", t.ID, err)
		}
	}

	notifStmt, err := tx.PreparexContext(ctx, `
		INSERT INTO cached_notifications (
			user_id, id, type, read, position, payload
		) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing notification insert: %w", err)
	}
	defer notifStmt.Close()

	for i, n := range notifications {
		payload, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshaling notification %s: %w", n.ID, err)
		}
		_, err = notifStmt.ExecContext(ctx,
			userID, n.ID, string(n.Type), boolToInt(n.Read), i, string(payload),
		)
		if err != nil {
			return fmt.Errorf("caching notification %s: %w", n.ID, err)
		}
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO snapshots (user_id, saved_at) VALUES (?, ?)",
		userID, formatTime(time.Now().UTC()),
	)
	if err != nil {
		return fmt.Errorf("recording snapshot for %s: %w", userID, err)
	}

	return tx.Commit()
}

// LoadSnapshot returns the cached snapshot for userID, or nil if none was
// saved.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context, userID string) (*Snapshot, error) {
	var savedAt string
	err := s.db.GetContext(ctx, &savedAt, "SELECT saved_at FROM snapshots WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot for %s: %w", userID, err)
	}

	snap := &Snapshot{UserID: userID}
	if snap.SavedAt, err = parseTime(savedAt); err != nil {
		return nil, err
	}

	var taskPayloads []string
	err = s.db.SelectContext(ctx, &taskPayloads,
		"SELECT payload FROM cached_tasks WHERE user_id = ? ORDER BY position", userID)
	if err != nil {
		return nil, fmt.Errorf("querying cached tasks: %w", err)
	}

	flat := make([]model.Task, 0, len(taskPayloads))
	for _, p := range taskPayloads {
		var t model.Task
		if err := json.Unmarshal([]byte(p), &t); err != nil {
			return nil, fmt.Errorf("unmarshaling cached task: %w", err)
		}
		flat = append(flat, t)
	}
	snap.Tasks = nest(flat)

	var notifPayloads []string
	err = s.db.SelectContext(ctx, &notifPayloads,
		"SELECT payload FROM cached_notifications WHERE user_id = ? ORDER BY position", userID)
	if err != nil {
		return nil, fmt.Errorf("querying cached notifications: %w", err)
	}

	for _, p := range notifPayloads {
		var n model.Notification
		if err := json.Unmarshal([]byte(p), &n); err != nil {
			return nil, fmt.Errorf("unmarshaling cached notification: %w", err)
		}
		snap.Notifications = append(snap.Notifications, n)
	}

	return snap, nil
}

// ClearSnapshot removes every cached snapshot. The reminder ledger is kept.
func (s *SQLiteStore) ClearSnapshot(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"cached_tasks", "cached_notifications", "snapshots"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// nest rebuilds the parent/subtask tree from a flattened list in which
// every subtask follows its parent.
func nest(flat []model.Task) []model.Task {
	var out []model.Task
	index := make(map[string]int)
	for _, t := range flat {
		if !t.IsSubtask() {
			index[t.ID] = len(out)
			out = append(out, t)
			continue
		}
		if i, ok := index[*t.ParentID]; ok {
			out[i].Subtasks = append(out[i].Subtasks, t)
		}
	}
	return out
}
