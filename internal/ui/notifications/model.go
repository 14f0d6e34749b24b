package notifications

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// MarkReadMsg asks the parent to mark a notification as read.
type MarkReadMsg struct{ ID string }

// DeleteMsg asks the parent to delete a notification.
type DeleteMsg struct{ ID string }

// OpenTaskMsg asks the parent to show the task a notification refers to.
type OpenTaskMsg struct{ TaskID string }

// Item wraps a notification for the list.
type Item struct {
	Notification model.Notification
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Notification.Message }

type delegate struct {
	clock clock.Clock
}

func (d delegate) Height() int { return 1 }

func (d delegate) Spacing() int { return 0 }

func (d delegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d delegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	fmt.Fprint(w, renderItem(it.Notification, d.clock.Now(), index == m.Index()))
}

func renderItem(n model.Notification, now time.Time, selected bool) string {
	marker := " "
	if !n.Read {
		marker = "•"
	}

	kind := lipgloss.NewStyle().Foreground(typeColor(n.Type)).Render(typeLabel(n.Type))
	when := theme.DimmedStyle.Render(humanize.RelTime(n.CreatedAt, now, "ago", "from now"))

	msg := n.Message
	if n.Read {
		msg = theme.DimmedStyle.Render(msg)
	} else {
		msg = theme.UnreadStyle.Render(msg)
	}

	line := fmt.Sprintf("%s %s %s  %s", marker, kind, msg, when)
	if selected {
		return theme.SelectedItemStyle.Render(line)
	}
	return theme.ListItemStyle.Render(line)
}

func typeLabel(t model.NotificationType) string {
	switch t {
	case model.NotificationTaskCompleted:
		return "done    "
	case model.NotificationTaskAssigned:
		return "assigned"
	case model.NotificationTaskOverdue:
		return "overdue "
	case model.NotificationTaskDeadline:
		return "deadline"
	default:
		return "info    "
	}
}

func typeColor(t model.NotificationType) lipgloss.TerminalColor {
	switch t {
	case model.NotificationTaskCompleted:
		return theme.ColorGreen
	case model.NotificationTaskOverdue:
		return theme.ColorRed
	case model.NotificationTaskDeadline:
		return theme.ColorOrange
	case model.NotificationTaskAssigned:
		return theme.ColorBlue
	default:
		return theme.ColorGray
	}
}

// Model lists the session user's notifications.
type Model struct {
	list   list.Model
	keys   *keys.KeyMap
	width  int
	height int
}

// New creates a new notifications view.
func New(k *keys.KeyMap, c clock.Clock, width, height int) Model {
	l := list.New([]list.Item{}, delegate{clock: c}, width, height-2)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	return Model{list: l, keys: k, width: width, height: height}
}

// SetNotifications replaces the list contents, keeping the cursor index.
func (m *Model) SetNotifications(ns []model.Notification) tea.Cmd {
	items := make([]list.Item, len(ns))
	unread := 0
	for i, n := range ns {
		items[i] = Item{Notification: n}
		if !n.Read {
			unread++
		}
	}
	m.list.Title = fmt.Sprintf("Notifications (%d unread)", unread)

	idx := m.list.Index()
	cmd := m.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
	return cmd
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the notifications view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return BackMsg{} }
		}

		if it, ok := m.list.SelectedItem().(Item); ok {
			n := it.Notification
			switch {
			case key.Matches(msg, m.keys.MarkRead):
				if n.Read {
					return m, nil
				}
				return m, func() tea.Msg { return MarkReadMsg{ID: n.ID} }

			case key.Matches(msg, m.keys.Delete):
				return m, func() tea.Msg { return DeleteMsg{ID: n.ID} }

			case key.Matches(msg, m.keys.Select):
				if n.RelatedTaskID == "" {
					return m, nil
				}
				return m, func() tea.Msg { return OpenTaskMsg{TaskID: n.RelatedTaskID} }
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the notifications view.
func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No notifications.")
	}
	return m.list.View()
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
}
