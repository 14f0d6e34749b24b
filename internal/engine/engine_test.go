package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/session"
	"github.com/nhle/taskboard/tests/testutil"
)

var (
	errBackend = errors.New("backend unavailable")
	local      = time.FixedZone("CEST", 2*60*60)
	// Wednesday 09:00 local.
	testNow = time.Date(2026, 10, 14, 9, 0, 0, 0, local)
)

func testSession() session.Session {
	return session.Session{
		Token: "token-1",
		User:  model.User{ID: "u1", Username: "alice", Department: "Ops", Role: model.RoleEmployee},
	}
}

type harness struct {
	engine *Engine
	remote *fakeRemote
	clock  *clock.Fixed
	toasts *toastRecorder
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		remote: newFakeRemote(),
		clock:  clock.NewFixed(testNow),
		toasts: &toastRecorder{},
	}
	opts = append([]Option{WithClock(h.clock), WithToaster(h.toasts)}, opts...)
	h.engine = New(h.remote, opts...)
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	if err := h.engine.StartSession(context.Background(), testSession()); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
}

func ptr(s string) *string { return &s }

func countType(ns []model.Notification, typ model.NotificationType, taskID string) int {
	n := 0
	for _, notif := range ns {
		if notif.Type == typ && notif.RelatedTaskID == taskID {
			n++
		}
	}
	return n
}

func TestRollupConvergesOnReload(t *testing.T) {
	tests := []struct {
		name     string
		stored   model.Status
		children []model.Status
		want     model.Status
	}{
		{"all completed", model.StatusInProgress, []model.Status{model.StatusCompleted, model.StatusCompleted}, model.StatusCompleted},
		{"some completed", model.StatusTodo, []model.Status{model.StatusCompleted, model.StatusBlocker}, model.StatusInProgress},
		{"none completed", model.StatusCompleted, []model.Status{model.StatusTodo, model.StatusInProgress}, model.StatusTodo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			far := testNow.AddDate(0, 0, 10)
			parent := h.remote.seed(model.Task{Title: "Parent", Status: tt.stored, Deadline: far})
			for _, s := range tt.children {
				h.remote.seed(model.Task{Title: "Child", Status: s, Deadline: far, ParentID: ptr(parent)})
			}

			h.start(t)

			got, ok := h.engine.TaskByID(parent)
			if !ok {
				t.Fatalf("parent %s missing after reload", parent)
			}
			if got.Status != tt.want {
				t.Errorf("parent status = %q, want %q", got.Status, tt.want)
			}
			if h.remote.writes() != 1 {
				t.Errorf("status writes = %d, want 1", h.remote.writes())
			}
		})
	}
}

func TestRollupIsIdempotent(t *testing.T) {
	h := newHarness(t)
	far := testNow.AddDate(0, 0, 10)
	parent := h.remote.seed(model.Task{Title: "Parent", Status: model.StatusInProgress, Deadline: far})
	h.remote.seed(model.Task{Title: "A", Status: model.StatusCompleted, Deadline: far, ParentID: ptr(parent)})
	h.remote.seed(model.Task{Title: "B", Status: model.StatusTodo, Deadline: far, ParentID: ptr(parent)})
	h.remote.seed(model.Task{Title: "Standalone", Status: model.StatusBlocker, Deadline: far})

	h.start(t)
	for i := 0; i < 3; i++ {
		if err := h.engine.Reload(context.Background()); err != nil {
			t.Fatalf("Reload: %v", err)
		}
	}

	if h.remote.writes() != 0 {
		t.Errorf("converged tree issued %d status writes", h.remote.writes())
	}
}

func TestRollupIsBounded(t *testing.T) {
	h := newHarness(t)
	h.remote.ignoreStatusWrites = true
	far := testNow.AddDate(0, 0, 10)
	parent := h.remote.seed(model.Task{Title: "Stuck", Status: model.StatusTodo, Deadline: far})
	h.remote.seed(model.Task{Title: "Done", Status: model.StatusCompleted, Deadline: far, ParentID: ptr(parent)})

	h.start(t)

	if got := h.remote.writes(); got != maxReconcilePasses {
		t.Errorf("status writes = %d, want %d", got, maxReconcilePasses)
	}
}

func TestCompletingLastSubtaskCompletesParent(t *testing.T) {
	h := newHarness(t)
	far := testNow.AddDate(0, 0, 10)
	parent := h.remote.seed(model.Task{Title: "Parent", Status: model.StatusInProgress, Deadline: far, CreatedBy: "u1"})
	h.remote.seed(model.Task{Title: "A", Status: model.StatusCompleted, Deadline: far, ParentID: ptr(parent)})
	last := h.remote.seed(model.Task{Title: "B", Status: model.StatusInProgress, Deadline: far, ParentID: ptr(parent)})
	h.start(t)

	if err := h.engine.UpdateTaskStatus(context.Background(), last, model.StatusCompleted, ""); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}

	got, _ := h.engine.TaskByID(parent)
	if got.Status != model.StatusCompleted {
		t.Errorf("parent status = %q, want completed", got.Status)
	}

	notes := h.remote.notifications()
	if n := countType(notes, model.NotificationTaskCompleted, last); n != 1 {
		t.Errorf("completion notifications for subtask = %d, want 1", n)
	}
	if n := countType(notes, model.NotificationTaskCompleted, parent); n != 1 {
		t.Errorf("completion notifications for parent = %d, want 1", n)
	}

	// Only the explicit update toasts; the rollup is quiet.
	toasts := h.toasts.all()
	if len(toasts) != 1 || toasts[0].Kind != model.ToastSuccess {
		t.Errorf("unexpected toasts: %+v", toasts)
	}
}

func TestCompletingTaskCreatesOneNotification(t *testing.T) {
	h := newHarness(t)
	id := h.remote.seed(model.Task{Title: "Report", Status: model.StatusInProgress, Deadline: testNow.AddDate(0, 0, 5)})
	h.start(t)

	if err := h.engine.UpdateTaskStatus(context.Background(), id, model.StatusCompleted, ""); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}

	notes := h.engine.Notifications()
	if n := countType(notes, model.NotificationTaskCompleted, id); n != 1 {
		t.Fatalf("task_completed notifications = %d, want 1", n)
	}
	if toast, _ := h.toasts.last(); toast.Message != "Task marked as completed" {
		t.Errorf("toast = %q", toast.Message)
	}
}

func TestBlockerReasonOnlyKeptForBlocker(t *testing.T) {
	h := newHarness(t)
	id := h.remote.seed(model.Task{Title: "Deploy", Status: model.StatusTodo, Deadline: testNow.AddDate(0, 0, 5)})
	h.start(t)
	ctx := context.Background()

	if err := h.engine.UpdateTaskStatus(ctx, id, model.StatusBlocker, "waiting on infra"); err != nil {
		t.Fatalf("UpdateTaskStatus(blocker): %v", err)
	}
	got, _ := h.engine.TaskByID(id)
	if got.Status != model.StatusBlocker || got.BlockerReason != "waiting on infra" {
		t.Errorf("unexpected task after block: %+v", got)
	}

	if err := h.engine.UpdateTaskStatus(ctx, id, model.StatusInProgress, "ignored"); err != nil {
		t.Fatalf("UpdateTaskStatus(in-progress): %v", err)
	}
	got, _ = h.engine.TaskByID(id)
	if got.BlockerReason != "" {
		t.Errorf("blocker reason kept after unblocking: %q", got.BlockerReason)
	}
}

func TestReminderSentOncePerDeadline(t *testing.T) {
	h := newHarness(t)
	tomorrow := time.Date(2026, 10, 15, 17, 0, 0, 0, local)
	id := h.remote.seed(model.Task{Title: "Quarterly report", Status: model.StatusTodo, Deadline: tomorrow})
	h.start(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := h.engine.Reload(ctx); err != nil {
			t.Fatalf("Reload: %v", err)
		}
		h.engine.CheckReminders(ctx)
	}

	notes := h.remote.notifications()
	if n := countType(notes, model.NotificationTaskDeadline, id); n != 1 {
		t.Fatalf("deadline reminders = %d, want 1", n)
	}
	want := `Task "Quarterly report" is due tomorrow (2026-10-15)`
	if notes[0].Message != want {
		t.Errorf("message = %q, want %q", notes[0].Message, want)
	}
	if notes[0].UserID != "u1" {
		t.Errorf("reminder addressed to %q, want u1", notes[0].UserID)
	}
}

func TestReminderLedgerSurvivesDeletedNotification(t *testing.T) {
	h := newHarness(t, WithStore(testutil.NewTestStore(t)))
	tomorrow := time.Date(2026, 10, 15, 8, 0, 0, 0, local)
	id := h.remote.seed(model.Task{Title: "Renew cert", Status: model.StatusInProgress, Deadline: tomorrow})
	h.start(t)
	ctx := context.Background()

	notes := h.engine.Notifications()
	if len(notes) != 1 {
		t.Fatalf("expected one reminder, got %+v", notes)
	}
	if err := h.engine.DeleteNotification(ctx, notes[0].ID); err != nil {
		t.Fatalf("DeleteNotification: %v", err)
	}

	h.engine.CheckReminders(ctx)
	if n := countType(h.remote.notifications(), model.NotificationTaskDeadline, id); n != 0 {
		t.Errorf("reminder re-sent after the user deleted it: %d", n)
	}
}

func TestCarryOverYieldsFreshReminder(t *testing.T) {
	h := newHarness(t)
	tomorrow := time.Date(2026, 10, 15, 12, 0, 0, 0, local)
	id := h.remote.seed(model.Task{Title: "Migrate", Status: model.StatusTodo, Deadline: tomorrow})
	h.start(t)
	ctx := context.Background()

	next := time.Date(2026, 10, 16, 12, 0, 0, 0, local)
	if err := h.engine.CarryOverTask(ctx, id, next, "vendor delay"); err != nil {
		t.Fatalf("CarryOverTask: %v", err)
	}

	h.clock.Advance(24 * time.Hour)
	h.engine.CheckReminders(ctx)

	if n := countType(h.remote.notifications(), model.NotificationTaskDeadline, id); n != 2 {
		t.Errorf("deadline reminders = %d, want 2 (one per deadline date)", n)
	}
	got, _ := h.engine.TaskByID(id)
	if !got.IsCarriedOver || got.CarryOverReason != "vendor delay" {
		t.Errorf("carry-over not reflected: %+v", got)
	}
}

func TestCompletedTasksAreImmune(t *testing.T) {
	h := newHarness(t)
	h.remote.seed(model.Task{Title: "Done late", Status: model.StatusCompleted, Deadline: testNow.Add(-48 * time.Hour)})
	h.remote.seed(model.Task{Title: "Done early", Status: model.StatusCompleted, Deadline: testNow.Add(20 * time.Hour)})
	h.start(t)

	if got := h.engine.OverdueTasks(); len(got) != 0 {
		t.Errorf("completed tasks reported overdue: %+v", got)
	}
	if got := h.engine.UrgentTasks(); len(got) != 0 {
		t.Errorf("completed tasks reported urgent: %+v", got)
	}
	if got := h.remote.notifications(); len(got) != 0 {
		t.Errorf("completed tasks were reminded: %+v", got)
	}
}

func TestOverdueAndUrgentQueries(t *testing.T) {
	h := newHarness(t)
	late := h.remote.seed(model.Task{Title: "Late", Status: model.StatusTodo, Deadline: testNow.Add(-time.Millisecond)})
	soon := h.remote.seed(model.Task{Title: "Soon", Status: model.StatusTodo, Deadline: testNow.Add(23 * time.Hour)})
	h.remote.seed(model.Task{Title: "Later", Status: model.StatusTodo, Deadline: testNow.Add(25 * time.Hour)})
	h.start(t)

	overdue := h.engine.OverdueTasks()
	if len(overdue) != 1 || overdue[0].ID != late {
		t.Errorf("overdue = %+v, want only %s", overdue, late)
	}
	urgent := h.engine.UrgentTasks()
	if len(urgent) != 1 || urgent[0].ID != soon {
		t.Errorf("urgent = %+v, want only %s", urgent, soon)
	}
}

func TestEndSessionClearsStateSynchronously(t *testing.T) {
	h := newHarness(t)
	h.remote.seed(model.Task{Title: "Anything", Status: model.StatusTodo, Deadline: testNow.Add(24 * time.Hour)})
	h.start(t)
	if len(h.engine.Tasks()) == 0 || len(h.engine.Notifications()) == 0 {
		t.Fatal("expected tasks and a reminder before logout")
	}

	h.engine.EndSession()

	if got := h.engine.Tasks(); len(got) != 0 {
		t.Errorf("tasks after EndSession: %+v", got)
	}
	if got := h.engine.Notifications(); len(got) != 0 {
		t.Errorf("notifications after EndSession: %+v", got)
	}
	if _, ok := h.engine.Session(); ok {
		t.Error("session still active after EndSession")
	}
	if h.remote.token != "" {
		t.Errorf("token not cleared: %q", h.remote.token)
	}

	if err := h.engine.Reload(context.Background()); err != nil {
		t.Fatalf("Reload without session: %v", err)
	}
	if len(h.engine.Tasks()) != 0 {
		t.Error("reload without session produced tasks")
	}
}

func TestMutationsRequireSession(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.AddTask(context.Background(), model.TaskInput{Title: "x"})
	if !errors.Is(err, ErrNoSession) || !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("expected ErrNoSession wrapped in ErrOperationFailed, got %v", err)
	}
}

func TestFailedMutationToastsAndKeepsState(t *testing.T) {
	h := newHarness(t)
	h.remote.seed(model.Task{Title: "Existing", Status: model.StatusTodo, Deadline: testNow.AddDate(0, 0, 4)})
	h.start(t)
	before := h.engine.Tasks()

	h.remote.fail("CreateTask", errBackend)
	_, err := h.engine.AddTask(context.Background(), model.TaskInput{Title: "New", Deadline: testNow.AddDate(0, 0, 2)})
	if !errors.Is(err, ErrOperationFailed) || !errors.Is(err, errBackend) {
		t.Fatalf("unexpected error: %v", err)
	}

	toast, ok := h.toasts.last()
	if !ok || toast.Kind != model.ToastError {
		t.Errorf("expected an error toast, got %+v", toast)
	}
	if got := h.engine.Tasks(); len(got) != len(before) {
		t.Errorf("state changed after failure: %d tasks, want %d", len(got), len(before))
	}
}

func TestFailedReloadKeepsLastGoodState(t *testing.T) {
	h := newHarness(t)
	h.remote.seed(model.Task{Title: "Existing", Status: model.StatusTodo, Deadline: testNow.AddDate(0, 0, 4)})
	h.start(t)
	reloadedAt := h.engine.LastReload()

	h.remote.fail("ListTasks", errBackend)
	h.clock.Advance(time.Minute)
	if err := h.engine.Reload(context.Background()); !errors.Is(err, errBackend) {
		t.Fatalf("expected reload error, got %v", err)
	}
	if len(h.engine.Tasks()) != 1 {
		t.Error("tasks dropped after failed reload")
	}
	if !h.engine.LastReload().Equal(reloadedAt) {
		t.Error("LastReload moved on a failed reload")
	}
}

func TestMutationSucceedsWhenReloadFails(t *testing.T) {
	h := newHarness(t)
	id := h.remote.seed(model.Task{Title: "Deploy", Status: model.StatusTodo, Deadline: testNow.AddDate(0, 0, 4)})
	h.start(t)

	h.remote.fail("ListTasks", errBackend)
	if err := h.engine.UpdateTaskStatus(context.Background(), id, model.StatusInProgress, ""); err != nil {
		t.Fatalf("UpdateTaskStatus returned the reload error: %v", err)
	}

	toast, ok := h.toasts.last()
	if !ok || toast.Kind != model.ToastSuccess {
		t.Errorf("expected a success toast, got %+v", toast)
	}
	got, ok := h.engine.TaskByID(id)
	if !ok || got.Status != model.StatusTodo {
		t.Errorf("mirror should keep the last good state, got %+v", got)
	}
}

func TestNotificationFailuresAreQuiet(t *testing.T) {
	h := newHarness(t)
	h.remote.seed(model.Task{Title: "Due", Status: model.StatusTodo, Deadline: time.Date(2026, 10, 15, 9, 0, 0, 0, local)})
	h.start(t)
	ctx := context.Background()
	id := h.engine.Notifications()[0].ID
	toastsBefore := len(h.toasts.all())

	h.remote.fail("MarkNotificationRead", errBackend)
	if err := h.engine.MarkNotificationAsRead(ctx, id); !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("expected ErrOperationFailed, got %v", err)
	}
	if h.engine.UnreadCount() != 1 {
		t.Error("local state changed after failed mark-read")
	}
	if len(h.toasts.all()) != toastsBefore {
		t.Error("notification failure produced a toast")
	}

	h.remote.fail("MarkNotificationRead", nil)
	if err := h.engine.MarkNotificationAsRead(ctx, id); err != nil {
		t.Fatalf("MarkNotificationAsRead: %v", err)
	}
	if h.engine.UnreadCount() != 0 {
		t.Error("notification still unread")
	}
}

func TestAddSubtaskRequiresTopLevelParent(t *testing.T) {
	h := newHarness(t)
	far := testNow.AddDate(0, 0, 3)
	parent := h.remote.seed(model.Task{Title: "Parent", Status: model.StatusTodo, Department: "Ops", Deadline: far})
	child := h.remote.seed(model.Task{Title: "Child", Status: model.StatusTodo, Deadline: far, ParentID: ptr(parent)})
	h.start(t)
	ctx := context.Background()

	if _, err := h.engine.AddSubtask(ctx, child, model.TaskInput{Title: "Grandchild", Deadline: far}); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	id, err := h.engine.AddSubtask(ctx, parent, model.TaskInput{Title: "Second", Deadline: far})
	if err != nil {
		t.Fatalf("AddSubtask: %v", err)
	}
	got, ok := h.engine.TaskByID(id)
	if !ok || got.ParentID == nil || *got.ParentID != parent {
		t.Fatalf("subtask not attached: %+v", got)
	}
	if got.Department != "Ops" || got.CreatedBy != "u1" {
		t.Errorf("subtask defaults not applied: %+v", got)
	}
}

func TestAddTaskWithSubtasksPartialFailure(t *testing.T) {
	h := newHarness(t)
	h.start(t)
	far := testNow.AddDate(0, 0, 3)
	h.remote.failTitles["Broken"] = true

	parentID, err := h.engine.AddTaskWithSubtasks(context.Background(),
		model.TaskInput{Title: "Release", Deadline: far, Department: "Ops"},
		[]model.TaskInput{
			{Title: "Changelog", Deadline: far},
			{Title: "Broken", Deadline: far},
			{Title: "Tag", Deadline: far},
		},
	)
	if !errors.Is(err, ErrOperationFailed) {
		t.Fatalf("expected ErrOperationFailed, got %v", err)
	}
	if parentID == "" {
		t.Fatal("parent id not returned on partial failure")
	}

	parent, ok := h.engine.TaskByID(parentID)
	if !ok {
		t.Fatal("parent missing after reload")
	}
	if len(parent.Subtasks) != 2 {
		t.Errorf("subtasks = %d, want the 2 that succeeded", len(parent.Subtasks))
	}
}

func TestStatsAndDepartmentQueries(t *testing.T) {
	h := newHarness(t)
	far := testNow.AddDate(0, 0, 3)
	h.remote.seed(model.Task{Title: "A", Status: model.StatusTodo, Department: "Ops", CreatedBy: "u1", Deadline: far})
	h.remote.seed(model.Task{Title: "B", Status: model.StatusCompleted, Department: "Finance", CreatedBy: "u2", Deadline: far})
	h.remote.seed(model.Task{Title: "C", Status: model.StatusBlocker, Department: "Ops", CreatedBy: "u2", Deadline: far, CreatedAt: testNow.AddDate(0, 0, -8)})
	h.start(t)

	if got := h.engine.TasksByDepartment("Ops"); len(got) != 2 {
		t.Errorf("TasksByDepartment(Ops) = %d, want 2", len(got))
	}
	if got := h.engine.TasksByUser("u2"); len(got) != 2 {
		t.Errorf("TasksByUser(u2) = %d, want 2", len(got))
	}
	blocked := h.engine.BlockedTasks()
	if len(blocked) != 1 || blocked[0].Task.Title != "C" {
		t.Errorf("unexpected blocked tasks: %+v", blocked)
	}
	if s := h.engine.Stats(); s.Total != 3 || s.ByStatus[model.StatusCompleted] != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}
	if d := h.engine.DepartmentStats(); len(d) != 2 {
		t.Errorf("department stats = %d groups, want 2", len(d))
	}
}

func TestQueriesReturnCopies(t *testing.T) {
	h := newHarness(t)
	far := testNow.AddDate(0, 0, 3)
	parent := h.remote.seed(model.Task{Title: "P", Status: model.StatusTodo, Deadline: far})
	h.remote.seed(model.Task{Title: "C", Status: model.StatusTodo, Deadline: far, ParentID: ptr(parent)})
	h.start(t)

	tasks := h.engine.Tasks()
	tasks[0].Title = "mutated"
	tasks[0].Subtasks[0].Title = "mutated"

	got, _ := h.engine.TaskByID(parent)
	if got.Title != "P" || got.Subtasks[0].Title != "C" {
		t.Error("caller mutation leaked into the engine")
	}
}
