package statusform

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/ui/form"
)

// SubmittedMsg carries the chosen status. BlockerReason is empty unless
// Status is model.StatusBlocker.
type SubmittedMsg struct {
	TaskID        string
	Status        model.Status
	BlockerReason string
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

type formBindings struct {
	status model.Status
	reason string
}

// Model is the status change form. Choosing blocker asks for a reason on
// a second page.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	task   model.Task
	width  int
	height int
}

// New creates a new status form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form for task.
func (m *Model) Start(task model.Task) tea.Cmd {
	m.task = task
	m.fb.status = task.Status
	m.fb.reason = task.BlockerReason
	m.form = m.buildForm()
	return m.form.Init()
}

func (m *Model) buildForm() *huh.Form {
	opts := make([]huh.Option[model.Status], len(model.Statuses))
	for i, s := range model.Statuses {
		opts[i] = huh.NewOption(s.Label(), s)
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[model.Status]().
				Title("Status").
				Options(opts...).
				Value(&m.fb.status),
		),
		huh.NewGroup(
			huh.NewText().
				Title("What is blocking this task?").
				Value(&m.fb.reason).
				Validate(form.Required("Blocker reason")),
		).WithHideFunc(func() bool {
			return m.fb.status != model.StatusBlocker
		}),
	).WithWidth(form.Width(m.width)).WithHeight(form.Height(m.height))
}

// Update handles messages for the status form.
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
		out := SubmittedMsg{TaskID: m.task.ID, Status: m.fb.status}
		if out.Status == model.StatusBlocker {
			out.BlockerReason = strings.TrimSpace(m.fb.reason)
		}
		return m, func() tea.Msg { return out }
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the status form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	return form.Frame("Set status: "+m.task.Title, m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
