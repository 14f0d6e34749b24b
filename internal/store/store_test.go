package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/reconcile"
	"github.com/nhle/taskboard/tests/testutil"
)

func sampleTree() []model.Task {
	deadline := time.Date(2026, 10, 16, 17, 0, 0, 0, time.UTC)
	parent := "1"
	return []model.Task{
		{
			ID: "1", Title: "Launch", Status: model.StatusInProgress, Priority: model.PriorityHigh,
			Department: "Ops", Deadline: deadline,
			Subtasks: []model.Task{
				{ID: "2", ParentID: &parent, Title: "Write notes", Status: model.StatusCompleted, Deadline: deadline},
				{ID: "3", ParentID: &parent, Title: "Ship", Status: model.StatusTodo, Deadline: deadline},
			},
		},
		{ID: "4", Title: "Standalone", Status: model.StatusBlocker, BlockerReason: "waiting", Deadline: deadline},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	notes := []model.Notification{
		{ID: "10", Message: "done", Type: model.NotificationTaskCompleted, RelatedTaskID: "2", UserID: "u1"},
		{ID: "9", Message: "hi", Type: model.NotificationGeneral, UserID: "u1", Read: true},
	}
	if err := s.ReplaceSnapshot(ctx, "u1", sampleTree(), notes); err != nil {
		t.Fatalf("ReplaceSnapshot: %v", err)
	}

	snap, err := s.LoadSnapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	if len(snap.Tasks) != 2 {
		t.Fatalf("expected 2 top-level tasks, got %d", len(snap.Tasks))
	}
	if len(snap.Tasks[0].Subtasks) != 2 || snap.Tasks[0].Subtasks[1].ID != "3" {
		t.Errorf("subtasks not restored in order: %+v", snap.Tasks[0].Subtasks)
	}
	if snap.Tasks[1].BlockerReason != "waiting" {
		t.Errorf("blocker reason lost: %+v", snap.Tasks[1])
	}
	if len(snap.Notifications) != 2 || snap.Notifications[0].ID != "10" || !snap.Notifications[1].Read {
		t.Errorf("notifications not restored: %+v", snap.Notifications)
	}

	// Replacing drops rows that are no longer present.
	if err := s.ReplaceSnapshot(ctx, "u1", sampleTree()[1:], nil); err != nil {
		t.Fatalf("ReplaceSnapshot: %v", err)
	}
	snap, err = s.LoadSnapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(snap.Tasks) != 1 || len(snap.Notifications) != 0 {
		t.Errorf("stale rows survived replace: %+v", snap)
	}
}

func TestLoadSnapshotMissing(t *testing.T) {
	s := testutil.NewTestStore(t)

	snap, err := s.LoadSnapshot(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap != nil {
		t.Errorf("expected nil snapshot, got %+v", snap)
	}
}

func TestClearSnapshotKeepsLedger(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	key := reconcile.ReminderKey{TaskID: "1", Kind: reconcile.KindDueTomorrow, DeadlineDate: "2026-10-16"}

	if err := s.ReplaceSnapshot(ctx, "u1", sampleTree(), nil); err != nil {
		t.Fatalf("ReplaceSnapshot: %v", err)
	}
	if err := s.RecordReminder(ctx, key, time.Now()); err != nil {
		t.Fatalf("RecordReminder: %v", err)
	}
	if err := s.ClearSnapshot(ctx); err != nil {
		t.Fatalf("ClearSnapshot: %v", err)
	}

	snap, err := s.LoadSnapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap != nil {
		t.Errorf("snapshot survived clear: %+v", snap)
	}

	ok, err := s.HasReminder(ctx, key)
	if err != nil {
		t.Fatalf("HasReminder: %v", err)
	}
	if !ok {
		t.Error("ledger entry was cleared with the snapshot")
	}
}

func TestReminderLedger(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()
	key := reconcile.ReminderKey{TaskID: "5", Kind: reconcile.KindDueTomorrow, DeadlineDate: "2026-10-15"}

	ok, err := s.HasReminder(ctx, key)
	if err != nil {
		t.Fatalf("HasReminder: %v", err)
	}
	if ok {
		t.Fatal("empty ledger reported a reminder")
	}

	at := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if err := s.RecordReminder(ctx, key, at); err != nil {
			t.Fatalf("RecordReminder #%d: %v", i+1, err)
		}
	}

	if ok, _ := s.HasReminder(ctx, key); !ok {
		t.Error("recorded reminder not found")
	}

	moved := key
	moved.DeadlineDate = "2026-10-17"
	if ok, _ := s.HasReminder(ctx, moved); ok {
		t.Error("a new deadline date must not match the old key")
	}
}
