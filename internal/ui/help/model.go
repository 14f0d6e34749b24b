package help

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// Model is the help overlay: key bindings plus a legend for the task list
// markers.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	user   model.User
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.Width = width
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// SetUser records the signed-in user shown at the bottom of the overlay.
func (m *Model) SetUser(u model.User) {
	m.user = u
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay.
func (m Model) View() string {
	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginTop(1)

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		Render("Keyboard Shortcuts")

	m.help.Width = m.width - 4
	m.help.ShowAll = true
	helpText := m.help.View(m.keys)

	legend := lipgloss.JoinVertical(lipgloss.Left,
		theme.OverdueStyle.Render("OVERDUE")+"  deadline has passed",
		theme.UrgentStyle.Render("URGENT")+"   due within a day",
		theme.CarriedOverStyle.Render("↻")+"        deadline was carried over",
		theme.AgeStyle(derive.AgeFresh).Render("●")+theme.AgeStyle(derive.AgeAging).Render("●")+
			theme.AgeStyle(derive.AgeStale).Render("●")+theme.AgeStyle(derive.AgeCritical).Render("●")+
			"     blocker age: <1d, <3d, <7d, older",
	)

	sections := []string{
		title,
		helpText,
		sectionStyle.Render("Markers"),
		legend,
	}

	if m.user.ID != "" {
		sections = append(sections,
			sectionStyle.Render("Session"),
			theme.DimmedStyle.Render(m.user.DisplayName+" ("+m.user.Username+") · "+
				m.user.Department+" · "+string(m.user.Role)),
		)
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 4
}
