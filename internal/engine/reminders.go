package engine

import (
	"context"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/reconcile"
)

// CheckReminders raises the due-tomorrow notifications still owed. Errors
// are logged, never returned.
func (e *Engine) CheckReminders(ctx context.Context) {
	e.reconcileMu.Lock()
	defer e.reconcileMu.Unlock()

	e.remind(ctx)
}

func (e *Engine) remind(ctx context.Context) {
	sess, ok := e.Session()
	if !ok {
		return
	}

	now := e.clock.Now()
	owed := reconcile.Reminders(e.Tasks(), e.Notifications(), e.ledgerLookup(ctx), now)
	if len(owed) == 0 {
		return
	}

	created := 0
	for _, r := range owed {
		err := e.remote.CreateNotification(ctx, model.NotificationInput{
			Message:       r.Message,
			RelatedTaskID: r.TaskID,
			UserID:        sess.User.ID,
			Type:          model.NotificationTaskDeadline,
		})
		if err != nil {
			e.log.Logf("[WARN] creating reminder %s: %v", r.Key, err)
			continue
		}
		created++
		e.log.Logf("[INFO] reminder sent: %s", r.Message)

		if e.store != nil {
			if err := e.store.RecordReminder(ctx, r.Key, now); err != nil {
				e.log.Logf("[WARN] recording reminder %s: %v", r.Key, err)
			}
		}
	}

	if created > 0 {
		if err := e.refresh(ctx); err != nil {
			e.log.Logf("[ERROR] reload after reminders failed: %v", err)
		}
	}
}

// ledgerLookup reports keys recorded in the local ledger. Without a store
// only the backend's notifications are consulted.
func (e *Engine) ledgerLookup(ctx context.Context) func(reconcile.ReminderKey) bool {
	if e.store == nil {
		return nil
	}
	return func(k reconcile.ReminderKey) bool {
		ok, err := e.store.HasReminder(ctx, k)
		if err != nil {
			e.log.Logf("[WARN] reading reminder ledger: %v", err)
			return false
		}
		return ok
	}
}
