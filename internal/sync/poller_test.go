package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"
	"time"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/remote"
)

type fakeTarget struct {
	mu        gosync.Mutex
	reloads   int
	reminders int
	err       error
}

func (f *fakeTarget) Reload(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reloads++
	return f.err
}

func (f *fakeTarget) CheckReminders(context.Context) {
	f.mu.Lock()
	f.reminders++
	f.mu.Unlock()
}

func (f *fakeTarget) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reloads, f.reminders
}

func waitResult(t *testing.T, p *Poller) SyncResultMsg {
	t.Helper()
	ch := make(chan SyncResultMsg, 1)
	go func() {
		if msg, ok := p.WaitForNextResult()().(SyncResultMsg); ok {
			ch <- msg
		}
	}()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a sync result")
		return SyncResultMsg{}
	}
}

func TestReminderDueOncePerDay(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	p := New(&fakeTarget{}, Config{ReminderHour: 9, ReminderMinute: 0}, clock.NewFixed(time.Time{}), nil)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"one minute early", time.Date(2026, 10, 14, 8, 59, 0, 0, loc), false},
		{"on time", time.Date(2026, 10, 14, 9, 0, 0, 0, loc), true},
		{"same minute again", time.Date(2026, 10, 14, 9, 0, 30, 0, loc), false},
		{"one minute late", time.Date(2026, 10, 14, 9, 1, 0, 0, loc), false},
		{"next day", time.Date(2026, 10, 15, 9, 0, 0, 0, loc), true},
	}
	for _, tt := range tests {
		if got := p.reminderDue(tt.now); got != tt.want {
			t.Errorf("%s: reminderDue = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRefreshNowReloads(t *testing.T) {
	target := &fakeTarget{}
	p := New(target, Config{PollInterval: time.Hour}, clock.Real{}, nil)
	p.Start()
	defer p.Stop()

	p.RefreshNow()
	msg := waitResult(t, p)
	if msg.Kind != KindReload || msg.Error != nil {
		t.Fatalf("unexpected result: %+v", msg)
	}
	if reloads, _ := target.counts(); reloads != 1 {
		t.Errorf("reloads = %d, want 1", reloads)
	}
	if p.GetStatus().State != SyncIdle {
		t.Errorf("state = %v, want idle", p.GetStatus().State)
	}
}

func TestAuthErrorSurfaces(t *testing.T) {
	target := &fakeTarget{err: &remote.AuthError{Message: "expired"}}
	p := New(target, Config{PollInterval: time.Hour}, clock.Real{}, nil)
	p.Start()
	defer p.Stop()

	p.RefreshNow()
	msg := waitResult(t, p)
	if msg.AuthError == nil {
		t.Fatalf("expected an auth error message, got %+v", msg)
	}
	var authErr *remote.AuthError
	if !errors.As(msg.Error, &authErr) {
		t.Errorf("error = %v, want AuthError", msg.Error)
	}
	if p.GetStatus().State != SyncError {
		t.Errorf("state = %v, want error", p.GetStatus().State)
	}
}

func TestReminderLoopRunsAtConfiguredTime(t *testing.T) {
	target := &fakeTarget{}
	clk := clock.NewFixed(time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC))
	p := New(target, Config{
		PollInterval: time.Hour,
		ReminderHour: 9,
		ReminderTick: 5 * time.Millisecond,
	}, clk, nil)
	p.Start()

	msg := waitResult(t, p)
	if msg.Kind != KindReminders {
		t.Fatalf("unexpected result: %+v", msg)
	}

	// Several more ticks in the same minute must not run it again.
	time.Sleep(30 * time.Millisecond)
	p.Stop()
	if _, reminders := target.counts(); reminders != 1 {
		t.Errorf("reminder passes = %d, want 1", reminders)
	}
}
