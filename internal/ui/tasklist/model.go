package tasklist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	TaskID string
}

// Model is the main task list view component.
type Model struct {
	list        list.Model
	keys        *keys.KeyMap
	tasks       []model.Task
	user        model.User
	filter      Filter
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new task list model. Deadline markers are computed
// against c.
func New(k *keys.KeyMap, c clock.Clock, width, height int) Model {
	l := list.New([]list.Item{}, RowDelegate{clock: c}, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search tasks..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		keys:        k,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetUser sets the user the mine and department filters refer to.
func (m *Model) SetUser(u model.User) {
	m.user = u
	m.filter.UserID = u.ID
}

// SetTasks replaces the task tree and re-applies the current filter,
// keeping the selection on the same task when it is still visible.
func (m *Model) SetTasks(tasks []model.Task) tea.Cmd {
	m.tasks = tasks
	return m.rebuild()
}

// Filter returns the active filter.
func (m Model) Filter() Filter {
	return m.filter
}

// SetFilter replaces the active filter.
func (m *Model) SetFilter(f Filter) tea.Cmd {
	f.UserID = m.user.ID
	m.filter = f
	return m.rebuild()
}

// SelectedTask returns the task under the cursor.
func (m Model) SelectedTask() (model.Task, bool) {
	row, ok := m.list.SelectedItem().(Row)
	if !ok {
		return model.Task{}, false
	}
	return row.Task, true
}

func (m *Model) rebuild() tea.Cmd {
	selectedID := ""
	if t, ok := m.SelectedTask(); ok {
		selectedID = t.ID
	}

	rows := m.filter.Rows(m.tasks)
	items := make([]list.Item, len(rows))
	cursor := 0
	for i, r := range rows {
		items[i] = r
		if r.Task.ID == selectedID {
			cursor = i
		}
	}

	m.list.Title = "Tasks"
	if label := m.filter.Label(); label != "" {
		m.list.Title = "Tasks · " + label
	}

	cmd := m.list.SetItems(items)
	m.list.Select(cursor)
	return cmd
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Searching reports whether the search input has focus.
func (m Model) Searching() bool {
	return m.searchMode
}

func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.filter.Query = m.searchInput.Value()
		return m, m.rebuild()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.filter.Query = ""
		return m, m.rebuild()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		t, ok := m.SelectedTask()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedTaskMsg{TaskID: t.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.FilterMine):
		m.filter.Mine = !m.filter.Mine
		return m, m.rebuild()

	case key.Matches(msg, m.keys.FilterDepartment):
		if m.filter.Department == "" {
			m.filter.Department = m.user.Department
		} else {
			m.filter.Department = ""
		}
		return m, m.rebuild()

	case key.Matches(msg, m.keys.FilterBlocked):
		m.filter.Blocked = !m.filter.Blocked
		return m, m.rebuild()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.filter.Active() {
		return style.Render("No matching tasks.\nTry adjusting your filters.")
	}

	return style.Render("No tasks yet.\n\nPress n to create one.")
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
