package carryoverform

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/ui/form"
)

// SubmittedMsg carries the new deadline and reason.
type SubmittedMsg struct {
	TaskID      string
	NewDeadline time.Time
	Reason      string
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

type formBindings struct {
	deadline string
	reason   string
}

// Model is the carry-over form: a later deadline and a required reason.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	clock  clock.Clock
	task   model.Task
	width  int
	height int
}

// New creates a new carry-over form model.
func New(c clock.Clock, width, height int) Model {
	return Model{
		fb:     &formBindings{},
		clock:  c,
		width:  width,
		height: height,
	}
}

// Start initializes the form for task, proposing the next day.
func (m *Model) Start(task model.Task) tea.Cmd {
	m.task = task
	m.fb.deadline = task.Deadline.In(m.clock.Now().Location()).AddDate(0, 0, 1).Format("2006-01-02 15:04")
	m.fb.reason = ""
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("New deadline").
				Description("Currently " + task.Deadline.In(m.clock.Now().Location()).Format("Mon 2006-01-02 15:04")).
				Placeholder("YYYY-MM-DD or YYYY-MM-DD HH:MM").
				Value(&m.fb.deadline).
				Validate(form.ValidateLaterThan(task.Deadline, m.clock.Now)),
			huh.NewText().
				Title("Reason").
				Value(&m.fb.reason).
				Validate(form.Required("Reason")),
		),
	).WithWidth(form.Width(m.width)).WithHeight(form.Height(m.height))
	return m.form.Init()
}

// Update handles messages for the carry-over form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		deadline, err := form.ParseDeadline(m.fb.deadline, m.clock.Now())
		if err != nil {
			return m, func() tea.Msg { return CancelMsg{} }
		}
		out := SubmittedMsg{
			TaskID:      m.task.ID,
			NewDeadline: deadline,
			Reason:      strings.TrimSpace(m.fb.reason),
		}
		return m, func() tea.Msg { return out }
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the carry-over form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return form.Frame("Carry over: "+m.task.Title, m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
