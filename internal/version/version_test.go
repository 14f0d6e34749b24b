package version

import (
	"testing"
	"time"
)

func TestInfoString(t *testing.T) {
	built := time.Date(2026, 10, 1, 12, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		info Info
		want string
	}{
		{"go run", Info{}, "dev"},
		{"tag only", Info{Tag: "v0.3.0"}, "v0.3.0"},
		{"revision", Info{Revision: "0123456789abcdef", BuildAt: built}, "0123456 at 2026-10-01 12:30:00"},
		{"tagged dirty", Info{Tag: "v0.3.0", Revision: "0123456789", BuildAt: built, Dirty: true}, "v0.3.0 0123456 at 2026-10-01 12:30:00 dirty"},
		{"short revision", Info{Revision: "abc"}, "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
