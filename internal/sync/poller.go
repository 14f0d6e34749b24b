package sync

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-pkgz/lgr"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/remote"
)

// SyncState represents the current state of the background sync.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncKind says which job produced a result.
type SyncKind int

const (
	KindReload SyncKind = iota
	KindReminders
)

// SyncStatus holds the state of the reload job.
type SyncStatus struct {
	State    SyncState
	LastSync time.Time
	Error    error
}

// SyncResultMsg is a tea.Msg sent when a reload or reminder pass
// completes.
type SyncResultMsg struct {
	Kind      SyncKind
	At        time.Time
	Error     error
	AuthError *AuthErrorMsg
}

// AuthErrorMsg is a tea.Msg sent when the backend rejects the session.
type AuthErrorMsg struct {
	Message string
}

// Target is what the poller drives. The engine implements it.
type Target interface {
	Reload(ctx context.Context) error
	CheckReminders(ctx context.Context)
}

// Config controls the poller's schedule.
type Config struct {
	// PollInterval is the time between full reloads.
	PollInterval time.Duration
	// ReminderHour and ReminderMinute pick the wall-clock time of the
	// daily reminder pass, in the clock's location.
	ReminderHour   int
	ReminderMinute int
	// ReminderTick is how often the wall clock is checked.
	ReminderTick time.Duration
}

// fetchTimeout is the maximum time allowed for a single reload.
const fetchTimeout = 30 * time.Second

// Poller runs periodic reloads and the daily reminder pass in the
// background and reports results to the Bubble Tea runtime.
type Poller struct {
	target Target
	cfg    Config
	clock  clock.Clock
	log    lgr.L

	status    SyncStatus
	resultCh  chan SyncResultMsg
	triggerCh chan struct{}
	stopCh    chan struct{}
	wg        gosync.WaitGroup
	mu        gosync.Mutex
	running   bool

	// lastReminderDate is the local date (YYYY-MM-DD) of the last
	// reminder pass.
	lastReminderDate string
}

// New creates a new Poller driving target.
func New(target Target, cfg Config, c clock.Clock, log lgr.L) *Poller {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 60 * time.Second
	}
	if cfg.ReminderTick <= 0 {
		cfg.ReminderTick = time.Minute
	}
	if c == nil {
		c = clock.Real{}
	}
	if log == nil {
		log = lgr.NoOp
	}
	return &Poller{
		target:    target,
		cfg:       cfg,
		clock:     c,
		log:       log,
		resultCh:  make(chan SyncResultMsg, 16),
		triggerCh: make(chan struct{}, 1),
		stopCh:    make(chan struct{}),
	}
}

// Start returns a tea.Cmd that starts the polling goroutines and
// subscribes to results. The returned command waits on the result
// channel and returns SyncResultMsg messages to the Bubble Tea runtime.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.mu.Unlock()

	p.wg.Add(2)
	go p.reloadLoop()
	go p.reminderLoop()

	return p.waitForResult()
}

// Stop halts the polling goroutines and waits for them to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stopCh)
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
}

// RefreshNow triggers an immediate reload.
func (p *Poller) RefreshNow() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
		// A reload is already pending.
	}
	return nil
}

// GetStatus returns the current state of the reload job.
func (p *Poller) GetStatus() SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

func (p *Poller) reloadLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.reload()
		case <-p.triggerCh:
			p.reload()
		}
	}
}

func (p *Poller) reminderLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.ReminderTick)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			now := p.clock.Now()
			if p.reminderDue(now) {
				p.remind(now)
			}
		}
	}
}

// reminderDue reports whether now is the configured reminder minute and
// no pass has run yet on now's date. It records the date when it returns
// true.
func (p *Poller) reminderDue(now time.Time) bool {
	if now.Hour() != p.cfg.ReminderHour || now.Minute() != p.cfg.ReminderMinute {
		return false
	}

	today := now.Format("2006-01-02")
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastReminderDate == today {
		return false
	}
	p.lastReminderDate = today
	return true
}

// reload performs a single reload and sends a SyncResultMsg on the result
// channel.
func (p *Poller) reload() {
	p.setStatus(SyncRunning, nil)

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	err := p.target.Reload(ctx)
	now := p.clock.Now()
	if err != nil {
		p.setStatus(SyncError, err)
		p.log.Logf("[WARN] background reload failed: %v", err)

		// Detect auth errors and emit a specific message.
		if remote.IsAuthError(err) {
			p.sendResult(SyncResultMsg{
				Kind:  KindReload,
				At:    now,
				Error: err,
				AuthError: &AuthErrorMsg{
					Message: "Session expired. Run `taskboard login` again.",
				},
			})
			return
		}

		p.sendResult(SyncResultMsg{Kind: KindReload, At: now, Error: err})
		return
	}

	p.setStatus(SyncIdle, nil)
	p.sendResult(SyncResultMsg{Kind: KindReload, At: now})
}

func (p *Poller) remind(now time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	p.log.Logf("[INFO] running daily reminder pass")
	p.target.CheckReminders(ctx)
	p.sendResult(SyncResultMsg{Kind: KindReminders, At: now})
}

// setStatus updates the reload status.
func (p *Poller) setStatus(state SyncState, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.status.State = state
	p.status.Error = err
	if state == SyncIdle && err == nil {
		p.status.LastSync = p.clock.Now()
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next sync result.
// This should be called after processing a SyncResultMsg to continue
// listening for future results.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}
