package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/go-pkgz/lgr"

	"github.com/nhle/taskboard/internal/clock"
	"github.com/nhle/taskboard/internal/engine"
	"github.com/nhle/taskboard/internal/keys"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/session"
	appsync "github.com/nhle/taskboard/internal/sync"
	"github.com/nhle/taskboard/internal/ui"
	"github.com/nhle/taskboard/internal/ui/carryoverform"
	"github.com/nhle/taskboard/internal/ui/command"
	settingsview "github.com/nhle/taskboard/internal/ui/config"
	"github.com/nhle/taskboard/internal/ui/detail"
	helpview "github.com/nhle/taskboard/internal/ui/help"
	"github.com/nhle/taskboard/internal/ui/notifications"
	"github.com/nhle/taskboard/internal/ui/statusform"
	"github.com/nhle/taskboard/internal/ui/taskform"
	"github.com/nhle/taskboard/internal/ui/tasklist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewDetail
	ViewNotifications
	ViewHelp
	ViewCommand
	ViewTaskForm
	ViewStatusForm
	ViewCarryOverForm
	ViewSettings
)

// Config wires the root model to its collaborators.
type Config struct {
	Engine      *engine.Engine
	Poller      *appsync.Poller
	Toasts      *ToastChannel
	Session     session.Session
	Clock       clock.Clock
	Departments []string
	Log         lgr.L

	// AppConfig and ConfigPath back the settings view.
	AppConfig  *model.AppConfig
	ConfigPath string
}

// Model is the root Bubble Tea model that manages view routing, layout,
// and the engine session.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout

	engine  *engine.Engine
	poller  *appsync.Poller
	toasts  *ToastChannel
	session session.Session
	clock   clock.Clock
	log     lgr.L
	keys    *keys.KeyMap

	taskList          tasklist.Model
	detail            detail.Model
	notificationsView notifications.Model
	helpView          helpview.Model
	commandView       command.Model
	taskForm          taskform.Model
	statusForm        statusform.Model
	carryOverForm     carryoverform.Model
	settingsView      settingsview.Model

	appConfig model.AppConfig

	ready            bool
	loading          bool
	toast            *model.Toast
	toastSeq         int
	authErrorMessage string
}

// New creates the root application model.
func New(cfg Config) Model {
	k := keys.DefaultKeyMap()
	c := cfg.Clock
	if c == nil {
		c = clock.Real{}
	}
	log := cfg.Log
	if log == nil {
		log = lgr.NoOp
	}
	toasts := cfg.Toasts
	if toasts == nil {
		toasts = NewToastChannel()
	}
	appCfg := cfg.AppConfig
	if appCfg == nil {
		appCfg = model.DefaultAppConfig()
	}
	cfgPath := cfg.ConfigPath
	if cfgPath == "" {
		cfgPath = model.DefaultConfigPath()
	}

	m := Model{
		currentView:       ViewList,
		engine:            cfg.Engine,
		poller:            cfg.Poller,
		toasts:            toasts,
		session:           cfg.Session,
		clock:             c,
		log:               log,
		keys:              k,
		taskList:          tasklist.New(k, c, 80, 24),
		detail:            detail.New(k, 80, 24),
		notificationsView: notifications.New(k, c, 80, 24),
		helpView:          helpview.New(k, 80, 24),
		commandView:       command.New(80, 24),
		taskForm:          taskform.New(c, 80, 24),
		statusForm:        statusform.New(80, 24),
		carryOverForm:     carryoverform.New(c, 80, 24),
		settingsView:      settingsview.New(cfgPath, nil, 80, 24),
		appConfig:         *appCfg,
		loading:           true,
	}
	m.taskList.SetUser(cfg.Session.User)
	m.helpView.SetUser(cfg.Session.User)
	m.taskForm.SetDepartments(cfg.Departments)
	return m
}

// Init starts the session and subscribes to toasts.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.startSession(),
		m.toasts.wait(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.taskList.SetSize(w, h)
		m.detail.SetSize(w, h)
		m.notificationsView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.commandView.SetSize(w, h)
		m.taskForm.SetSize(w, h)
		m.statusForm.SetSize(w, h)
		m.carryOverForm.SetSize(w, h)
		m.settingsView.SetSize(w, h)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case sessionStartedMsg:
		m.loading = false
		if msg.err != nil {
			m.log.Logf("[WARN] initial load failed: %v", msg.err)
			m.showToast(model.Toast{Kind: model.ToastError, Message: "Could not load tasks: " + msg.err.Error()})
		}
		cmds := []tea.Cmd{m.refreshViews(), expireToast(m.toastSeq)}
		if m.poller != nil {
			cmds = append(cmds, m.poller.Start())
		}
		return m, tea.Batch(cmds...)

	case appsync.SyncResultMsg:
		if msg.AuthError != nil {
			m.authErrorMessage = msg.AuthError.Message
		} else if msg.Error == nil {
			m.authErrorMessage = ""
		}
		return m, tea.Batch(m.refreshViews(), m.poller.WaitForNextResult())

	case mutationDoneMsg:
		return m, m.refreshViews()

	case notificationDoneMsg:
		if msg.err != nil {
			m.log.Logf("[DEBUG] notification update failed: %v", msg.err)
		}
		return m, m.refreshViews()

	case remindersDoneMsg:
		return m, m.refreshViews()

	case toastMsg:
		m.showToast(msg.toast)
		return m, tea.Batch(m.toasts.wait(), expireToast(m.toastSeq))

	case toastExpiredMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
		return m, nil

	case loggedOutMsg:
		return m, tea.Quit

	case tasklist.SelectedTaskMsg:
		return m, m.openTask(msg.TaskID)

	case notifications.OpenTaskMsg:
		return m, m.openTask(msg.TaskID)

	case notifications.MarkReadMsg:
		return m, m.markRead(msg.ID)

	case notifications.DeleteMsg:
		return m, m.deleteNotification(msg.ID)

	case notifications.BackMsg, detail.BackMsg:
		m.currentView = ViewList
		m.detail.Clear()
		return m, nil

	case detail.ActionMsg:
		return m, m.startAction(msg.Action, msg.Task)

	case taskform.SubmittedMsg:
		m.currentView = m.previousView
		return m, m.createTask(msg.ParentID, msg.Input)

	case statusform.SubmittedMsg:
		m.currentView = m.previousView
		return m, m.updateStatus(msg.TaskID, msg.Status, msg.BlockerReason)

	case carryoverform.SubmittedMsg:
		m.currentView = m.previousView
		return m, m.carryOver(msg.TaskID, msg.NewDeadline, msg.Reason)

	case taskform.CancelMsg, statusform.CancelMsg, carryoverform.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case settingsview.SavedMsg:
		m.appConfig = msg.Config
		m.log.Logf("[INFO] settings saved, server %s", msg.Config.Server.BaseURL)
		m.showToast(model.Toast{Kind: model.ToastSuccess, Message: "Settings saved"})
		return m, expireToast(m.toastSeq)

	case settingsview.DoneMsg:
		m.currentView = m.previousView
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m, m.executeCommand(msg)

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that apply outside text inputs. It
// reports false when the key should go to the active view.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		m.stopPoller()
		return tea.Quit, true
	}

	if key.Matches(msg, m.keys.Back) {
		switch m.currentView {
		case ViewCommand, ViewTaskForm, ViewStatusForm, ViewCarryOverForm:
			m.currentView = m.previousView
			return nil, true
		case ViewSettings:
			if m.settingsView.Mode() == settingsview.ModeForm {
				m.currentView = m.previousView
				return nil, true
			}
		}
	}

	// Forms, the palette, and search own the keyboard.
	if m.inputFocused() {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return nil, true

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		m.commandView.Reset()
		return m.commandView.Focus(), true

	case m.currentView == ViewHelp && key.Matches(msg, m.keys.Back):
		m.currentView = m.previousView
		return nil, true
	}

	if m.currentView != ViewList {
		return nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.stopPoller()
		return tea.Quit, true

	case key.Matches(msg, m.keys.Refresh):
		m.refreshNow()
		return nil, true

	case key.Matches(msg, m.keys.Notifications):
		m.currentView = ViewNotifications
		return m.notificationsView.SetNotifications(m.engine.Notifications()), true

	case key.Matches(msg, m.keys.NewTask):
		return m.openTaskForm(nil), true
	}

	t, ok := m.taskList.SelectedTask()
	if !ok {
		return nil, false
	}
	switch {
	case key.Matches(msg, m.keys.NewSubtask):
		return m.startAction(detail.ActionNewSubtask, t), true
	case key.Matches(msg, m.keys.Status):
		return m.startAction(detail.ActionStatus, t), true
	case key.Matches(msg, m.keys.CarryOver):
		return m.startAction(detail.ActionCarryOver, t), true
	}
	return nil, false
}

func (m Model) inputFocused() bool {
	switch m.currentView {
	case ViewTaskForm, ViewStatusForm, ViewCarryOverForm, ViewCommand, ViewSettings:
		return true
	case ViewList:
		return m.taskList.Searching()
	}
	return false
}

// startAction opens the form for an action on task.
func (m *Model) startAction(action detail.Action, t model.Task) tea.Cmd {
	switch action {
	case detail.ActionStatus:
		if t.HasSubtasks() {
			m.showToast(model.Toast{Kind: model.ToastInfo, Message: "Status follows the subtasks"})
			return expireToast(m.toastSeq)
		}
		m.previousView = m.currentView
		m.currentView = ViewStatusForm
		return m.statusForm.Start(t)

	case detail.ActionCarryOver:
		if t.IsCompleted() {
			m.showToast(model.Toast{Kind: model.ToastInfo, Message: "Completed tasks cannot be carried over"})
			return expireToast(m.toastSeq)
		}
		m.previousView = m.currentView
		m.currentView = ViewCarryOverForm
		return m.carryOverForm.Start(t)

	case detail.ActionNewSubtask:
		if t.IsSubtask() {
			m.showToast(model.Toast{Kind: model.ToastInfo, Message: "Subtasks cannot have subtasks"})
			return expireToast(m.toastSeq)
		}
		return m.openTaskForm(&t)
	}
	return nil
}

func (m *Model) openTaskForm(parent *model.Task) tea.Cmd {
	m.previousView = m.currentView
	m.currentView = ViewTaskForm
	if parent != nil {
		return m.taskForm.StartSubtask(*parent)
	}
	return m.taskForm.StartCreate(m.session.User.Department)
}

func (m *Model) openTask(id string) tea.Cmd {
	t, ok := m.engine.TaskByID(id)
	if !ok {
		m.showToast(model.Toast{Kind: model.ToastInfo, Message: "Task is no longer available"})
		return expireToast(m.toastSeq)
	}
	m.detail.SetTask(t, m.clock.Now())
	m.previousView = ViewList
	m.currentView = ViewDetail
	return nil
}

// refreshViews copies the engine state into the views.
func (m *Model) refreshViews() tea.Cmd {
	cmds := []tea.Cmd{
		m.taskList.SetTasks(m.engine.Tasks()),
		m.notificationsView.SetNotifications(m.engine.Notifications()),
	}

	if current, ok := m.detail.Task(); ok {
		if t, found := m.engine.TaskByID(current.ID); found {
			m.detail.SetTask(t, m.clock.Now())
		} else if m.currentView == ViewDetail {
			m.detail.Clear()
			m.currentView = ViewList
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) showToast(t model.Toast) {
	m.toastSeq++
	m.toast = &t
}

func (m *Model) refreshNow() {
	if m.poller != nil {
		m.poller.RefreshNow()
	}
}

func (m *Model) stopPoller() {
	if m.poller != nil {
		m.poller.Stop()
	}
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detail, cmd = m.detail.Update(msg)
	case ViewNotifications:
		m.notificationsView, cmd = m.notificationsView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewTaskForm:
		m.taskForm, cmd = m.taskForm.Update(msg)
	case ViewStatusForm:
		m.statusForm, cmd = m.statusForm.Update(msg)
	case ViewCarryOverForm:
		m.carryOverForm, cmd = m.carryOverForm.Update(msg)
	case ViewSettings:
		m.settingsView, cmd = m.settingsView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "Taskboard"
	if n := m.engine.UnreadCount(); n > 0 {
		title = fmt.Sprintf("Taskboard [%d new]", n)
	}
	header := m.layout.RenderHeader(title, m.syncStatus())
	statusBar := m.layout.RenderStatusBar(m.keyHints(), m.toast)

	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewList:
		if m.loading {
			return "Loading tasks..."
		}
		return m.taskList.View()
	case ViewDetail:
		return m.detail.View()
	case ViewNotifications:
		return m.notificationsView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewTaskForm:
		return m.taskForm.View()
	case ViewStatusForm:
		return m.statusForm.View()
	case ViewCarryOverForm:
		return m.carryOverForm.View()
	case ViewSettings:
		return m.settingsView.View()
	default:
		return ""
	}
}

// syncStatus returns a short string describing the session and the
// background reload.
func (m Model) syncStatus() string {
	who := m.session.User.Username
	if who == "" {
		who = "signed out"
	}
	if m.poller == nil {
		return who
	}

	st := m.poller.GetStatus()
	switch st.State {
	case appsync.SyncRunning:
		return who + " · syncing"
	case appsync.SyncError:
		return who + " · ⚠ offline"
	}
	if st.LastSync.IsZero() {
		return who
	}
	return who + " · synced " + humanize.RelTime(st.LastSync, m.clock.Now(), "ago", "from now")
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.authErrorMessage != "" && m.currentView == ViewList {
		return m.authErrorMessage
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close | tab complete | enter execute"
	case ViewDetail:
		return "esc back | s status | c carry over | N subtask | j/k scroll"
	case ViewNotifications:
		return "esc back | m mark read | d delete | enter open task"
	case ViewTaskForm, ViewStatusForm, ViewCarryOverForm, ViewSettings:
		return "enter submit | esc cancel"
	default:
		if label := m.taskList.Filter().Label(); label != "" {
			return label + " | : clear"
		}
		return strings.Join([]string{"q quit", "? help", "n new", "s status", "i inbox", "1/2/3 filter"}, " | ")
	}
}

// executeCommand handles a command from the command palette.
func (m *Model) executeCommand(c command.CommandMsg) tea.Cmd {
	switch c.Name {
	case "refresh", "sync":
		m.refreshNow()
		return nil
	case "reminders":
		return m.checkReminders()
	case "notifications", "inbox":
		m.currentView = ViewNotifications
		return m.notificationsView.SetNotifications(m.engine.Notifications())
	case "new":
		m.currentView = ViewList
		return m.openTaskForm(nil)
	case "subtask":
		t, ok := m.taskList.SelectedTask()
		if !ok {
			return nil
		}
		return m.startAction(detail.ActionNewSubtask, t)
	case "mine":
		f := m.taskList.Filter()
		f.Mine = !f.Mine
		return m.taskList.SetFilter(f)
	case "department", "dept":
		f := m.taskList.Filter()
		switch {
		case len(c.Args) > 0:
			f.Department = strings.Join(c.Args, " ")
		case f.Department == "":
			f.Department = m.session.User.Department
		default:
			f.Department = ""
		}
		return m.taskList.SetFilter(f)
	case "blocked":
		f := m.taskList.Filter()
		f.Blocked = !f.Blocked
		return m.taskList.SetFilter(f)
	case "clear":
		return m.taskList.SetFilter(tasklist.Filter{})
	case "settings":
		m.currentView = ViewSettings
		return m.settingsView.Start(m.appConfig)
	case "logout":
		return m.logout()
	case "quit", "q":
		m.stopPoller()
		return tea.Quit
	default:
		m.showToast(model.Toast{Kind: model.ToastError, Message: "Unknown command: " + c.Name})
		return expireToast(m.toastSeq)
	}
}
