package detail

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// Action names an operation the user requested on the displayed task.
type Action int

const (
	ActionStatus Action = iota
	ActionCarryOver
	ActionNewSubtask
)

// ActionMsg signals the parent to open the form for an action.
type ActionMsg struct {
	Action Action
	Task   model.Task
}

// Model is the task detail view component.
type Model struct {
	task     *model.Task
	now      time.Time
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.task != nil {
		task := *m.task
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.Status):
			// Status of a task with subtasks is derived.
			if task.HasSubtasks() {
				return m, nil
			}
			return m, func() tea.Msg { return ActionMsg{Action: ActionStatus, Task: task} }

		case key.Matches(msg, m.keys.CarryOver):
			return m, func() tea.Msg { return ActionMsg{Action: ActionCarryOver, Task: task} }

		case key.Matches(msg, m.keys.NewSubtask):
			if task.IsSubtask() {
				return m, nil
			}
			return m, func() tea.Msg { return ActionMsg{Action: ActionNewSubtask, Task: task} }
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.task == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No task selected")
	}

	return m.viewport.View()
}

// Task returns the displayed task.
func (m Model) Task() (model.Task, bool) {
	if m.task == nil {
		return model.Task{}, false
	}
	return *m.task, true
}

// SetTask updates the task being displayed and re-renders the content.
// The scroll position is kept when the same task is refreshed.
func (m *Model) SetTask(t model.Task, now time.Time) {
	same := m.task != nil && m.task.ID == t.ID
	m.task = &t
	m.now = now
	m.viewport.SetContent(m.renderContent())
	if !same {
		m.viewport.GotoTop()
	}
}

// Clear drops the displayed task.
func (m *Model) Clear() {
	m.task = nil
	m.viewport.SetContent("")
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	if m.task != nil {
		m.viewport.SetContent(m.renderContent())
	}
}

func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	task := *m.task
	now := m.now
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(task.Title))

	badges := []string{
		theme.StatusStyle(task.Status).Render(task.Status.Label()),
		theme.PriorityStyle(task.Priority).Render(strings.ToUpper(string(task.Priority))),
	}
	switch {
	case derive.IsOverdue(task, now):
		badges = append(badges, theme.OverdueStyle.Render("OVERDUE"))
	case derive.IsUrgent(task, now):
		badges = append(badges, theme.UrgentStyle.Render("URGENT"))
	}
	if task.IsCarriedOver {
		badges = append(badges, theme.CarriedOverStyle.Render("CARRIED OVER"))
	}
	sections = append(sections, strings.Join(badges, "  "), "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(12)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	field := func(label, value string) string {
		return metaStyle.Render(label+":") + valStyle.Render(value)
	}

	sections = append(sections, field("Department", task.Department))
	if task.CreatedBy != "" {
		sections = append(sections, field("Owner", task.CreatedBy))
	}
	if !task.CreatedAt.IsZero() {
		sections = append(sections, field("Created", fmt.Sprintf("%s (%s)",
			task.CreatedAt.In(now.Location()).Format("2006-01-02 15:04"),
			humanize.RelTime(task.CreatedAt, now, "ago", "from now"))))
	}
	if !task.Deadline.IsZero() {
		sections = append(sections, field("Deadline", fmt.Sprintf("%s (%s)",
			task.Deadline.In(now.Location()).Format("Mon 2006-01-02 15:04"),
			humanize.RelTime(task.Deadline, now, "ago", "from now"))))
	}
	if task.IsSubtask() {
		sections = append(sections, field("Parent", *task.ParentID))
	}

	separator := lipgloss.NewStyle().
		Foreground(theme.ColorSubtle).
		Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	if task.Status == model.StatusBlocker {
		age := derive.BlockerAge(task, now)
		bucket := derive.BucketFor(age)
		reason := task.BlockerReason
		if reason == "" {
			reason = "(no reason given)"
		}
		sections = append(sections, "", separator, "",
			headerStyle.Render("Blocked"),
			reason,
			theme.AgeStyle(bucket).Render(fmt.Sprintf("open %s (%s)",
				strings.TrimSpace(humanize.RelTime(now.Add(-age), now, "", "")), bucket)),
		)
	}

	if task.IsCarriedOver {
		sections = append(sections, "", separator, "", headerStyle.Render("Carry-over"))
		if task.CarriedOverFromDeadline != nil {
			sections = append(sections, field("From", task.CarriedOverFromDeadline.In(now.Location()).Format("Mon 2006-01-02")))
		}
		if task.CarriedOverAt != nil {
			sections = append(sections, field("Moved", humanize.RelTime(*task.CarriedOverAt, now, "ago", "from now")))
		}
		if task.CarryOverReason != "" {
			sections = append(sections, field("Reason", task.CarryOverReason))
		}
	}

	sections = append(sections, "", separator, "", headerStyle.Render("Description"))
	if task.Description == "" {
		sections = append(sections, lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description"))
	} else {
		sections = append(sections, task.Description)
	}

	if task.HasSubtasks() {
		done := 0
		for _, st := range task.Subtasks {
			if st.IsCompleted() {
				done++
			}
		}
		sections = append(sections, "", separator, "",
			headerStyle.Render(fmt.Sprintf("Subtasks (%d/%d done)", done, len(task.Subtasks))))
		for _, st := range task.Subtasks {
			line := fmt.Sprintf("  %s %s", theme.StatusStyle(st.Status).Render(st.Status.Label()), st.Title)
			if derive.IsOverdue(st, now) {
				line += theme.OverdueStyle.Render(" OVERDUE")
			}
			sections = append(sections, line)
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
