package config

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/remote"
	"github.com/nhle/taskboard/internal/theme"
	"github.com/nhle/taskboard/internal/ui/form"
)

// Mode represents the current state of the settings view.
type Mode int

const (
	ModeForm           Mode = iota // Editing settings
	ModeValidating                 // Testing the server connection
	ModeValidateResult             // Showing the outcome
)

// checkTimeout bounds the connection test.
const checkTimeout = 10 * time.Second

// DoneMsg signals the settings view should close.
type DoneMsg struct{}

// SavedMsg is sent after the settings were written to disk. Connection
// changes take effect on the next start.
type SavedMsg struct {
	Config model.AppConfig
}

// ValidateResultMsg carries the result of the connection test and save.
type ValidateResultMsg struct {
	Config model.AppConfig
	Err    error
}

// HealthFunc checks that a backend answers at baseURL.
type HealthFunc func(ctx context.Context, baseURL string, timeout time.Duration) error

// RemoteHealth probes the backend with a remote.Client.
func RemoteHealth(ctx context.Context, baseURL string, timeout time.Duration) error {
	return remote.NewClient(baseURL, timeout).Health(ctx)
}

type formBindings struct {
	baseURL      string
	timeout      string
	pollInterval string
	reminderAt   string
	timezone     string
}

// Model edits the connection, sync and reminder settings.
type Model struct {
	mode    Mode
	form    *huh.Form
	fb      *formBindings
	cfg     model.AppConfig
	path    string
	health  HealthFunc
	spinner spinner.Model

	validError error

	width  int
	height int
}

// New creates a settings view that saves to path.
func New(path string, health HealthFunc, width, height int) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	if health == nil {
		health = RemoteHealth
	}

	return Model{
		fb:      &formBindings{},
		path:    path,
		health:  health,
		spinner: sp,
		width:   width,
		height:  height,
	}
}

// Start opens the form prefilled from cfg.
func (m *Model) Start(cfg model.AppConfig) tea.Cmd {
	m.cfg = cfg
	m.mode = ModeForm
	m.validError = nil
	m.fb.baseURL = cfg.Server.BaseURL
	m.fb.timeout = strconv.Itoa(cfg.Server.TimeoutSec)
	m.fb.pollInterval = strconv.Itoa(cfg.Sync.PollIntervalSec)
	m.fb.reminderAt = fmt.Sprintf("%02d:%02d", cfg.Reminders.Hour, cfg.Reminders.Minute)
	m.fb.timezone = cfg.Reminders.Timezone
	m.form = m.buildForm()
	return m.form.Init()
}

// Mode reports the current mode.
func (m Model) Mode() Mode {
	return m.mode
}

func (m *Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server URL").
				Value(&m.fb.baseURL).
				Validate(validateURL),
			huh.NewInput().
				Title("Request timeout (seconds)").
				Value(&m.fb.timeout).
				Validate(validateSeconds),
			huh.NewInput().
				Title("Reload every (seconds)").
				Value(&m.fb.pollInterval).
				Validate(validateSeconds),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Daily reminder at").
				Description("24h clock, HH:MM").
				Value(&m.fb.reminderAt).
				Validate(validateClock),
			huh.NewInput().
				Title("Reminder timezone").
				Description("IANA name, or Local").
				Value(&m.fb.timezone).
				Validate(validateTimezone),
		),
	).WithWidth(form.Width(m.width)).WithHeight(form.Height(m.height))
}

// Update handles messages and dispatches based on current mode.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ValidateResultMsg:
		if m.mode != ModeValidating {
			return m, nil
		}
		m.validError = msg.Err
		m.mode = ModeValidateResult
		if msg.Err != nil {
			return m, nil
		}
		m.cfg = msg.Config
		saved := msg.Config
		return m, func() tea.Msg { return SavedMsg{Config: saved} }

	case spinner.TickMsg:
		if m.mode == ModeValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case ModeValidating:
			if msg.String() == "esc" {
				m.mode = ModeForm
				return m, m.resumeForm()
			}
			return m, nil
		case ModeValidateResult:
			return m.handleResultKeys(msg)
		}
	}

	if m.mode != ModeForm || m.form == nil {
		return m, nil
	}
	return m.updateForm(msg)
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		cfg, err := m.apply()
		if err != nil {
			m.validError = err
			m.mode = ModeValidateResult
			return m, nil
		}
		m.mode = ModeValidating
		return m, tea.Batch(m.spinner.Tick, m.validateAndSave(cfg))
	case huh.StateAborted:
		return m, func() tea.Msg { return DoneMsg{} }
	}

	return m, cmd
}

func (m Model) handleResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc":
		if m.validError != nil {
			m.mode = ModeForm
			return m, m.resumeForm()
		}
		return m, func() tea.Msg { return DoneMsg{} }
	case "r":
		if m.validError != nil {
			cfg, err := m.apply()
			if err != nil {
				return m, nil
			}
			m.mode = ModeValidating
			return m, tea.Batch(m.spinner.Tick, m.validateAndSave(cfg))
		}
	}
	return m, nil
}

// resumeForm rebuilds the form from the current bindings so the user can
// correct a rejected value.
func (m *Model) resumeForm() tea.Cmd {
	m.form = m.buildForm()
	return m.form.Init()
}

// apply copies the form values onto the loaded configuration.
func (m Model) apply() (model.AppConfig, error) {
	cfg := m.cfg
	cfg.Server.BaseURL = strings.TrimRight(strings.TrimSpace(m.fb.baseURL), "/")

	timeout, err := strconv.Atoi(strings.TrimSpace(m.fb.timeout))
	if err != nil {
		return cfg, fmt.Errorf("timeout: %w", err)
	}
	cfg.Server.TimeoutSec = timeout

	poll, err := strconv.Atoi(strings.TrimSpace(m.fb.pollInterval))
	if err != nil {
		return cfg, fmt.Errorf("reload interval: %w", err)
	}
	cfg.Sync.PollIntervalSec = poll

	hour, minute, err := parseClock(m.fb.reminderAt)
	if err != nil {
		return cfg, err
	}
	cfg.Reminders.Hour = hour
	cfg.Reminders.Minute = minute
	cfg.Reminders.Timezone = strings.TrimSpace(m.fb.timezone)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// validateAndSave tests the connection then writes the file if it passed.
func (m Model) validateAndSave(cfg model.AppConfig) tea.Cmd {
	health := m.health
	path := m.path
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
		defer cancel()

		if err := health(ctx, cfg.Server.BaseURL, cfg.Timeout()); err != nil {
			return ValidateResultMsg{Config: cfg, Err: fmt.Errorf("connecting to %s: %w", cfg.Server.BaseURL, err)}
		}

		if err := model.SaveConfig(path, &cfg); err != nil {
			return ValidateResultMsg{
				Config: cfg,
				Err:    fmt.Errorf("connection OK but save failed: %w", err),
			}
		}
		return ValidateResultMsg{Config: cfg}
	}
}

// View renders the settings view.
func (m Model) View() string {
	switch m.mode {
	case ModeValidating:
		return m.viewValidating()
	case ModeValidateResult:
		return m.viewValidateResult()
	}
	if m.form == nil {
		return ""
	}
	return form.Frame("Settings", m.form.View())
}

func (m Model) viewValidating() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	content := fmt.Sprintf(
		"%s Testing connection...\n\nPress esc to cancel.",
		m.spinner.View(),
	)

	return style.Render(content)
}

func (m Model) viewValidateResult() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)
	hint := lipgloss.NewStyle().Foreground(theme.ColorGray)

	var content string
	if m.validError != nil {
		errStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorRed)
		content = errStyle.Render("Settings not saved") + "\n\n" +
			m.validError.Error() + "\n\n" +
			hint.Render("r retry | enter/esc edit")
	} else {
		okStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorGreen)
		content = okStyle.Render("Settings saved") + "\n\n" +
			fmt.Sprintf("Written to %s", m.path) + "\n" +
			"Server changes apply after a restart." + "\n\n" +
			hint.Render("enter/esc back")
	}

	return style.Render(content)
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// --- Validators ---

func validateURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("URL is required")
	}
	parsed, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host (e.g., https://tasks.example.com)")
	}
	return nil
}

func validateSeconds(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a whole number of seconds")
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1 second")
	}
	return nil
}

func validateClock(s string) error {
	_, _, err := parseClock(s)
	return err
}

func validateTimezone(s string) error {
	cfg := model.AppConfig{Reminders: model.RemindersConfig{Timezone: strings.TrimSpace(s)}}
	if _, err := cfg.Location(); err != nil {
		return fmt.Errorf("unknown timezone %q", strings.TrimSpace(s))
	}
	return nil
}

// parseClock reads "HH:MM" in 24h form.
func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return 0, 0, fmt.Errorf("time must be HH:MM, e.g. 09:00")
	}
	return t.Hour(), t.Minute(), nil
}
