package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name  string
		fn    func(string) error
		input string
		ok    bool
	}{
		{"url", validateURL, "https://tasks.example.com", true},
		{"url without scheme", validateURL, "tasks.example.com", false},
		{"url ftp", validateURL, "ftp://tasks.example.com", false},
		{"url empty", validateURL, "  ", false},
		{"seconds", validateSeconds, "30", true},
		{"seconds zero", validateSeconds, "0", false},
		{"seconds text", validateSeconds, "soon", false},
		{"clock", validateClock, "09:30", true},
		{"clock single digit hour", validateClock, "9:30", true},
		{"clock out of range", validateClock, "25:00", false},
		{"timezone local", validateTimezone, "Local", true},
		{"timezone iana", validateTimezone, "Europe/Berlin", true},
		{"timezone bogus", validateTimezone, "Mars/Olympus", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fn(tt.input)
			if tt.ok && err != nil {
				t.Errorf("%q: unexpected error %v", tt.input, err)
			}
			if !tt.ok && err == nil {
				t.Errorf("%q: expected an error", tt.input)
			}
		})
	}
}

func TestApplyKeepsUneditedFields(t *testing.T) {
	m := New(filepath.Join(t.TempDir(), "config.yaml"), nil, 80, 24)
	base := *model.DefaultAppConfig()
	base.Cache.Path = "/tmp/cache.db"
	m.Start(base)

	m.fb.baseURL = "https://tasks.example.com/"
	m.fb.reminderAt = "08:15"

	cfg, err := m.apply()
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if cfg.Server.BaseURL != "https://tasks.example.com" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Reminders.Hour != 8 || cfg.Reminders.Minute != 15 {
		t.Errorf("reminder = %02d:%02d", cfg.Reminders.Hour, cfg.Reminders.Minute)
	}
	if cfg.Cache.Path != "/tmp/cache.db" {
		t.Errorf("Cache.Path changed to %q", cfg.Cache.Path)
	}
}

func TestValidateAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := *model.DefaultAppConfig()
	cfg.Server.BaseURL = "https://tasks.example.com"

	t.Run("health failure does not write", func(t *testing.T) {
		m := New(path, func(context.Context, string, time.Duration) error {
			return errors.New("refused")
		}, 80, 24)

		msg := m.validateAndSave(cfg)()
		res, ok := msg.(ValidateResultMsg)
		if !ok || res.Err == nil {
			t.Fatalf("expected a failed result, got %#v", msg)
		}
		if got, err := model.LoadConfig(path); err != nil || got.Server.BaseURL == cfg.Server.BaseURL {
			t.Errorf("config written despite failed check: %+v, %v", got, err)
		}
	})

	t.Run("health success writes", func(t *testing.T) {
		var probed string
		m := New(path, func(_ context.Context, baseURL string, _ time.Duration) error {
			probed = baseURL
			return nil
		}, 80, 24)

		res, ok := m.validateAndSave(cfg)().(ValidateResultMsg)
		if !ok || res.Err != nil {
			t.Fatalf("unexpected result %+v", res)
		}
		if probed != cfg.Server.BaseURL {
			t.Errorf("probed %q", probed)
		}
		got, err := model.LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig: %v", err)
		}
		if got.Server.BaseURL != cfg.Server.BaseURL {
			t.Errorf("saved BaseURL = %q", got.Server.BaseURL)
		}
	})
}

func TestResultOnlyAcceptedWhileValidating(t *testing.T) {
	m := New("unused.yaml", nil, 80, 24)
	m.Start(*model.DefaultAppConfig())

	next, cmd := m.Update(ValidateResultMsg{Err: errors.New("late")})
	if next.Mode() != ModeForm || cmd != nil {
		t.Errorf("stale result changed mode to %v", next.Mode())
	}
}
