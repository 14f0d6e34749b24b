package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg struct {
	Name string
	Args []string
}

// Command describes one palette entry.
type Command struct {
	Name    string
	Summary string
}

// Commands lists every command the palette accepts, in display order.
var Commands = []Command{
	{Name: "refresh", Summary: "reload tasks and notifications"},
	{Name: "reminders", Summary: "run the deadline reminder check now"},
	{Name: "notifications", Summary: "open the notification list"},
	{Name: "new", Summary: "create a top-level task"},
	{Name: "subtask", Summary: "add a subtask to the selected task"},
	{Name: "mine", Summary: "toggle the my-tasks filter"},
	{Name: "department", Summary: "filter by department: department [name]"},
	{Name: "blocked", Summary: "toggle the blocked filter"},
	{Name: "clear", Summary: "clear all filters"},
	{Name: "settings", Summary: "edit server and reminder settings"},
	{Name: "logout", Summary: "end the session and quit"},
	{Name: "quit", Summary: "exit"},
}

// Parse splits a palette line into a command name and arguments. It
// returns false for blank input.
func Parse(line string) (CommandMsg, bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return CommandMsg{}, false
	}
	return CommandMsg{Name: strings.ToLower(fields[0]), Args: fields[1:]}, true
}

// Known reports whether name is a palette command.
func Known(name string) bool {
	for _, c := range Commands {
		if c.Name == name {
			return true
		}
	}
	return false
}

// Model is the command palette view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command palette model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "type a command..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6
	ti.ShowSuggestions = true

	names := make([]string, len(Commands))
	for i, c := range Commands {
		names[i] = c.Name
	}
	ti.SetSuggestions(names)

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command palette.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			parsed, ok := Parse(m.input.Value())
			m.input.Reset()
			if ok {
				return m, func() tea.Msg {
					return parsed
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the command palette.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	nameStyle := lipgloss.NewStyle().Foreground(theme.ColorBlue).Width(15)

	lines := []string{titleStyle.Render("Command Palette"), m.input.View(), ""}
	for _, c := range Commands {
		lines = append(lines, nameStyle.Render(c.Name)+theme.DimmedStyle.Render(c.Summary))
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// SetSize updates the command palette dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}

// Reset clears the input.
func (m *Model) Reset() {
	m.input.Reset()
}
