package taskform

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/ui/form"
)

// SubmittedMsg is dispatched when the form is completed. ParentID is set
// for subtasks.
type SubmittedMsg struct {
	ParentID *string
	Input    model.TaskInput
}

// CancelMsg is dispatched when the user cancels the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	priority    model.Priority
	deadline    string
	department  string
}

// Model is the Bubble Tea model for the new task and new subtask form.
type Model struct {
	form        *huh.Form
	fb          *formBindings
	clock       clock.Clock
	parent      *model.Task
	departments []string
	width       int
	height      int
}

// New creates a new task form model.
func New(c clock.Clock, width, height int) Model {
	return Model{
		fb:     &formBindings{priority: model.PriorityMedium},
		clock:  c,
		width:  width,
		height: height,
	}
}

// SetDepartments sets the department names offered by the form.
func (m *Model) SetDepartments(names []string) {
	m.departments = names
}

// StartCreate initializes the form for a new top-level task owned by
// department.
func (m *Model) StartCreate(department string) tea.Cmd {
	m.parent = nil
	m.reset(department)
	m.form = m.buildForm()
	return m.form.Init()
}

// StartSubtask initializes the form for a new subtask of parent. The
// department defaults to the parent's.
func (m *Model) StartSubtask(parent model.Task) tea.Cmd {
	m.parent = &parent
	m.reset(parent.Department)
	m.form = m.buildForm()
	return m.form.Init()
}

func (m *Model) reset(department string) {
	m.fb.title = ""
	m.fb.description = ""
	m.fb.priority = model.PriorityMedium
	m.fb.deadline = m.clock.Now().Format("2006-01-02")
	m.fb.department = department
}

// Update handles messages for the task form.
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
		return m, m.handleSubmit()
	case huh.StateAborted:
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	title := "New Task"
	if m.parent != nil {
		title = "New Subtask of " + m.parent.Title
	}
	return form.Frame(title, m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	priorities := make([]huh.Option[model.Priority], len(model.Priorities))
	for i, p := range model.Priorities {
		priorities[i] = huh.NewOption(strings.ToUpper(string(p)[:1])+string(p)[1:], p)
	}

	start, end := clock.WeekBounds(m.clock.Now())
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&m.fb.title).
			Validate(form.Required("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		huh.NewSelect[model.Priority]().
			Title("Priority").
			Options(priorities...).
			Value(&m.fb.priority),
		huh.NewInput().
			Title("Deadline").
			Description("This week: " + start.Format("Mon Jan 2") + " to " +
				end.AddDate(0, 0, -1).Format("Mon Jan 2")).
			Placeholder("YYYY-MM-DD or YYYY-MM-DD HH:MM").
			Value(&m.fb.deadline).
			Validate(form.ValidateWeekDeadline(m.clock.Now)),
	}
	if dept := m.departmentField(); dept != nil {
		fields = append(fields, dept)
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(form.Width(m.width)).WithHeight(form.Height(m.height))
}

func (m *Model) departmentField() huh.Field {
	if len(m.departments) == 0 {
		return nil
	}
	opts := make([]huh.Option[string], len(m.departments))
	for i, d := range m.departments {
		opts[i] = huh.NewOption(d, d)
	}
	return huh.NewSelect[string]().
		Title("Department").
		Options(opts...).
		Value(&m.fb.department)
}

func (m Model) handleSubmit() tea.Cmd {
	deadline, err := form.ParseDeadline(m.fb.deadline, m.clock.Now())
	if err != nil {
		deadline = time.Time{}
	}

	in := model.TaskInput{
		Title:       strings.TrimSpace(m.fb.title),
		Description: strings.TrimSpace(m.fb.description),
		Deadline:    deadline,
		Priority:    m.fb.priority,
		Status:      model.StatusTodo,
		Department:  m.fb.department,
	}

	msg := SubmittedMsg{Input: in}
	if m.parent != nil {
		id := m.parent.ID
		msg.ParentID = &id
		msg.Input.ParentID = &id
	}
	return func() tea.Msg { return msg }
}
