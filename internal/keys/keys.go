package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Selection
	Select key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Search
	Search key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Manual refresh
	Refresh key.Binding

	// Filters
	FilterMine       key.Binding
	FilterDepartment key.Binding
	FilterBlocked    key.Binding

	// Views
	Notifications key.Binding

	// Actions
	NewTask    key.Binding
	NewSubtask key.Binding
	Status     key.Binding
	CarryOver  key.Binding
	MarkRead   key.Binding
	Delete     key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open detail"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		FilterMine: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "toggle mine"),
		),
		FilterDepartment: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "toggle my department"),
		),
		FilterBlocked: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "toggle blocked"),
		),
		Notifications: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "notifications"),
		),
		NewTask: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "new task"),
		),
		NewSubtask: key.NewBinding(
			key.WithKeys("N"),
			key.WithHelp("N", "new subtask"),
		),
		Status: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "set status"),
		),
		CarryOver: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "carry over"),
		),
		MarkRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "mark read"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up, k.Down, k.Select, k.Back,
		k.Quit, k.Help, k.Search,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select, k.Back, k.Quit},
		{k.Search, k.Command, k.Help, k.Refresh},
		{k.FilterMine, k.FilterDepartment, k.FilterBlocked, k.Notifications},
		{k.NewTask, k.NewSubtask, k.Status, k.CarryOver},
		{k.MarkRead, k.Delete},
	}
}
