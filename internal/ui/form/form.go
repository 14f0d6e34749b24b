// Package form holds sizing and validation shared by the huh-based forms.
package form

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/theme"
)

// DefaultDueHour is the time of day given to a date-only deadline.
const DefaultDueHour = 17

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// ErrOutsideWeek is returned for deadlines outside the current calendar
// week.
var ErrOutsideWeek = errors.New("deadline must fall within the current week")

// Width clamps a terminal width to a comfortable form width.
func Width(w int) int {
	w -= 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// Height clamps a terminal height to a usable form height.
func Height(h int) int {
	h -= 4
	if h < 10 {
		h = 10
	}
	return h
}

// Required returns a validator rejecting blank input.
func Required(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

// ParseDeadline reads "YYYY-MM-DD" or "YYYY-MM-DD HH:MM" in now's
// location. A date without a time is due at DefaultDueHour.
func ParseDeadline(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	loc := now.Location()

	if t, err := time.ParseInLocation(dateTimeLayout, s, loc); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date, use YYYY-MM-DD or YYYY-MM-DD HH:MM")
	}
	return d.Add(DefaultDueHour * time.Hour), nil
}

// ValidateWeekDeadline returns a validator accepting deadlines inside the
// calendar week (Monday to Sunday) that contains now().
func ValidateWeekDeadline(now func() time.Time) func(string) error {
	return func(s string) error {
		n := now()
		t, err := ParseDeadline(s, n)
		if err != nil {
			return err
		}
		start, end := clock.WeekBounds(n)
		if t.Before(start) || !t.Before(end) {
			return fmt.Errorf("%w (%s to %s)", ErrOutsideWeek,
				start.Format("Mon Jan 2"), end.AddDate(0, 0, -1).Format("Mon Jan 2"))
		}
		return nil
	}
}

// ValidateLaterThan returns a validator accepting deadlines strictly after
// current.
func ValidateLaterThan(current time.Time, now func() time.Time) func(string) error {
	return func(s string) error {
		t, err := ParseDeadline(s, now())
		if err != nil {
			return err
		}
		if !t.After(current) {
			return fmt.Errorf("new deadline must be after %s", current.In(now().Location()).Format(dateTimeLayout))
		}
		return nil
	}
}

// Frame wraps a form view with a title.
func Frame(title, body string) string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render(title) + "\n" + body)
}
