package tasklist

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// Row is one line of the task list: a top-level task (Depth 0) or one of
// its subtasks (Depth 1).
type Row struct {
	Task  model.Task
	Depth int
}

// FilterValue returns the string used for fuzzy filtering.
func (r Row) FilterValue() string { return r.Task.Title }

// Title returns the task title for the list.
func (r Row) Title() string { return r.Task.Title }

// Description returns a short summary line for the list.
func (r Row) Description() string {
	return strings.Join([]string{
		r.Task.Status.Label(),
		string(r.Task.Priority),
		r.Task.Department,
	}, " | ")
}

// RowDelegate implements list.ItemDelegate for task rows.
type RowDelegate struct {
	clock clock.Clock
}

// Height returns the number of lines each item takes.
func (d RowDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d RowDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d RowDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single row.
func (d RowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	row, ok := item.(Row)
	if !ok {
		return
	}
	fmt.Fprint(w, renderRow(row, d.clock.Now(), index == m.Index()))
}

func renderRow(row Row, now time.Time, selected bool) string {
	t := row.Task

	prefix := "●"
	switch {
	case row.Depth > 0 && t.IsCompleted():
		prefix = "  └ ✓"
	case row.Depth > 0:
		prefix = "  └ ○"
	case t.IsCompleted():
		prefix = "✓"
	}

	statusBadge := theme.StatusStyle(t.Status).Render(t.Status.Label())
	priBadge := theme.PriorityStyle(t.Priority).Render(priorityLabel(t.Priority))

	progress := ""
	if t.HasSubtasks() {
		done := 0
		for _, st := range t.Subtasks {
			if st.IsCompleted() {
				done++
			}
		}
		progress = theme.DimmedStyle.Render(fmt.Sprintf(" [%d/%d]", done, len(t.Subtasks)))
	}

	due := theme.DimmedStyle.Render("  " + dueLabel(t.Deadline, now))

	markers := ""
	switch {
	case derive.IsOverdue(t, now):
		markers += theme.OverdueStyle.Render(" OVERDUE")
	case derive.IsUrgent(t, now):
		markers += theme.UrgentStyle.Render(" URGENT")
	}
	if t.IsCarriedOver {
		markers += theme.CarriedOverStyle.Render(" ↻")
	}
	if t.Status == model.StatusBlocker {
		bucket := derive.BucketFor(derive.BlockerAge(t, now))
		markers += theme.AgeStyle(bucket).Render(" ●")
	}

	line := fmt.Sprintf("%s %s %s %s%s%s%s",
		prefix, statusBadge, priBadge, t.Title, progress, due, markers)

	if t.IsCompleted() {
		line = theme.DimmedStyle.Render(line)
	}
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

// dueLabel renders a deadline relative to now, e.g. "due 2 days from now".
func dueLabel(deadline, now time.Time) string {
	if deadline.IsZero() {
		return ""
	}
	return "due " + humanize.RelTime(deadline, now, "ago", "from now")
}

// priorityLabel returns a short label for the given priority level.
func priorityLabel(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "P1"
	case model.PriorityMedium:
		return "P2"
	case model.PriorityLow:
		return "P3"
	default:
		return "P?"
	}
}
