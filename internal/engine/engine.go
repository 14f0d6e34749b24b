// Package engine owns the session's mirror of the remote task tree and
// notification list. Every mutation is a remote round trip followed by a
// full reload and one reconciliation pass (status rollup, then deadline
// reminders). Views read copies through the query methods.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-pkgz/lgr"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/reconcile"
	"github.com/nhle/taskboard/internal/session"
	"github.com/nhle/taskboard/internal/store"
)

// maxReconcilePasses bounds the update → reload → rollup loop.
const maxReconcilePasses = 5

var (
	// ErrOperationFailed wraps every failed public mutation.
	ErrOperationFailed = errors.New("operation failed")
	// ErrNoSession is returned by mutations while logged out.
	ErrNoSession = errors.New("no active session")
	// ErrTaskNotFound is returned when an id is not in the current tree.
	ErrTaskNotFound = errors.New("task not found")
)

// Remote is the backend the engine mirrors.
type Remote interface {
	SetToken(token string)

	ListTasks(ctx context.Context) ([]model.Task, error)
	CreateTask(ctx context.Context, in model.TaskInput) (string, error)
	UpdateTaskStatus(ctx context.Context, id string, status model.Status, blockerReason string) error
	CarryOverTask(ctx context.Context, id string, newDeadline time.Time, reason string) error

	ListNotifications(ctx context.Context) ([]model.Notification, error)
	CreateNotification(ctx context.Context, in model.NotificationInput) error
	MarkNotificationRead(ctx context.Context, id string) error
	DeleteNotification(ctx context.Context, id string) error
}

// Toaster shows transient messages to the user.
type Toaster interface {
	Toast(t model.Toast)
}

// NopToaster discards toasts.
type NopToaster struct{}

// Toast implements Toaster.
func (NopToaster) Toast(model.Toast) {}

// ToasterFunc adapts a function to Toaster.
type ToasterFunc func(model.Toast)

// Toast implements Toaster.
func (f ToasterFunc) Toast(t model.Toast) { f(t) }

// Engine is safe for concurrent use.
type Engine struct {
	remote  Remote
	store   store.Store
	clock   clock.Clock
	toaster Toaster
	log     lgr.L

	mu            sync.RWMutex
	sess          *session.Session
	tasks         []model.Task
	notifications []model.Notification
	lastReload    time.Time

	// reconcileMu keeps rollup and reminder passes from interleaving.
	reconcileMu sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore enables the snapshot cache and the reminder ledger.
func WithStore(s store.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithClock sets the time source. Its location defines the local day.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithToaster sets where user-facing messages go.
func WithToaster(t Toaster) Option {
	return func(e *Engine) { e.toaster = t }
}

// WithLogger sets the logger.
func WithLogger(l lgr.L) Option {
	return func(e *Engine) { e.log = l }
}

// New returns an engine over r with no session.
func New(r Remote, opts ...Option) *Engine {
	e := &Engine{
		remote:  r,
		clock:   clock.Real{},
		toaster: NopToaster{},
		log:     lgr.NoOp,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

// StartSession installs the session's token and performs a full reload.
// The session stays active even when the reload fails.
func (e *Engine) StartSession(ctx context.Context, s session.Session) error {
	e.mu.Lock()
	e.sess = &s
	e.mu.Unlock()

	e.remote.SetToken(s.Token)
	e.log.Logf("[INFO] session started for %s", s.User.Username)

	return e.Reload(ctx)
}

// EndSession clears the token, the tasks, and the notifications before
// returning, then drops the offline snapshot.
func (e *Engine) EndSession() {
	e.mu.Lock()
	e.sess = nil
	e.tasks = nil
	e.notifications = nil
	e.lastReload = time.Time{}
	e.mu.Unlock()

	e.remote.SetToken("")

	if e.store != nil {
		if err := e.store.ClearSnapshot(context.Background()); err != nil {
			e.log.Logf("[WARN] clearing snapshot cache: %v", err)
		}
	}
	e.log.Logf("[INFO] session ended")
}

// Session returns the active session.
func (e *Engine) Session() (session.Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.sess == nil {
		return session.Session{}, false
	}
	return *e.sess, true
}

// LastReload returns when the mirror was last refreshed successfully.
func (e *Engine) LastReload() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastReload
}

// Reload fetches the full task tree and notification list, then
// reconciles. On failure the previous state is kept.
func (e *Engine) Reload(ctx context.Context) error {
	if err := e.refresh(ctx); err != nil {
		e.log.Logf("[ERROR] reload failed: %v", err)
		return err
	}
	e.reconcile(ctx)
	return nil
}

// refresh replaces the mirror with the backend's current state. With no
// session it empties the mirror.
func (e *Engine) refresh(ctx context.Context) error {
	sess, ok := e.Session()
	if !ok {
		e.mu.Lock()
		e.tasks = nil
		e.notifications = nil
		e.mu.Unlock()
		return nil
	}

	tasks, err := e.remote.ListTasks(ctx)
	if err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}
	notifications, err := e.remote.ListNotifications(ctx)
	if err != nil {
		return fmt.Errorf("loading notifications: %w", err)
	}

	e.mu.Lock()
	// A logout during the fetch wins over the fetched data.
	if e.sess == nil || e.sess.Token != sess.Token {
		e.mu.Unlock()
		return nil
	}
	e.tasks = tasks
	e.notifications = notifications
	e.lastReload = e.clock.Now()
	e.mu.Unlock()

	if e.store != nil {
		if err := e.store.ReplaceSnapshot(ctx, sess.User.ID, tasks, notifications); err != nil {
			e.log.Logf("[WARN] caching snapshot: %v", err)
		}
	}
	return nil
}

// reloadAfterMutation refreshes and reconciles after a successful remote
// write. A failed reload is logged; the write itself already succeeded.
func (e *Engine) reloadAfterMutation(ctx context.Context) {
	if err := e.Reload(ctx); err != nil {
		// Reload logged it; the mirror keeps the last good state.
		return
	}
}

// reconcile brings derived parent statuses in line with their subtasks,
// then raises any deadline reminders still owed.
func (e *Engine) reconcile(ctx context.Context) {
	e.reconcileMu.Lock()
	defer e.reconcileMu.Unlock()

	e.rollup(ctx)
	e.remind(ctx)
}

func (e *Engine) rollup(ctx context.Context) {
	for pass := 1; pass <= maxReconcilePasses; pass++ {
		updates := reconcile.Rollup(e.Tasks())
		if len(updates) == 0 {
			return
		}

		applied := 0
		for _, u := range updates {
			e.log.Logf("[DEBUG] rollup %s %q: %s -> %s", u.TaskID, u.Title, u.From, u.To)
			if err := e.applyStatus(ctx, u.TaskID, u.To, ""); err != nil {
				e.log.Logf("[WARN] rollup of task %s failed: %v", u.TaskID, err)
				continue
			}
			applied++
		}
		if applied == 0 {
			return
		}

		if err := e.refresh(ctx); err != nil {
			e.log.Logf("[ERROR] reload after rollup failed: %v", err)
			return
		}
	}
	e.log.Logf("[WARN] rollup did not converge after %d passes", maxReconcilePasses)
}
