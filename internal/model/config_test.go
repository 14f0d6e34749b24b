package model

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	d := DefaultAppConfig()
	if cfg.Server.BaseURL != d.Server.BaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.Server.BaseURL, d.Server.BaseURL)
	}
	if cfg.Reminders.Hour != 9 || cfg.Reminders.Minute != 0 {
		t.Errorf("reminder at %02d:%02d, want 09:00", cfg.Reminders.Hour, cfg.Reminders.Minute)
	}
	if cfg.PollInterval() != time.Minute {
		t.Errorf("PollInterval = %v", cfg.PollInterval())
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultAppConfig()
	cfg.Server.BaseURL = "https://tasks.example.com"
	cfg.Server.TimeoutSec = 5
	cfg.Reminders.Hour = 7
	cfg.Reminders.Minute = 45
	cfg.Reminders.Timezone = "Asia/Ho_Chi_Minh"

	if err := SaveConfig(path, cfg); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if got.Server.BaseURL != cfg.Server.BaseURL || got.Timeout() != 5*time.Second {
		t.Errorf("server = %+v", got.Server)
	}
	if got.Reminders != cfg.Reminders {
		t.Errorf("reminders = %+v, want %+v", got.Reminders, cfg.Reminders)
	}

	loc, err := got.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc.String() != "Asia/Ho_Chi_Minh" {
		t.Errorf("Location = %v", loc)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("TASKBOARD_SERVER_BASE_URL", "http://override:9000")
	t.Setenv("TASKBOARD_REMINDERS_HOUR", "18")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Server.BaseURL != "http://override:9000" {
		t.Errorf("BaseURL = %q", cfg.Server.BaseURL)
	}
	if cfg.Reminders.Hour != 18 {
		t.Errorf("Hour = %d", cfg.Reminders.Hour)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"hour", "reminders:\n  hour: 24\n"},
		{"minute", "reminders:\n  minute: -1\n"},
		{"timezone", "reminders:\n  timezone: Nowhere/Town\n"},
		{"malformed", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0o600); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}
