package app

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/credential"
)

// sessionStartedMsg is sent once the session's first reload finished.
type sessionStartedMsg struct {
	err error
}

// loggedOutMsg is sent after the session was torn down.
type loggedOutMsg struct{}

// startSession installs the session on the engine and performs the first
// reload. The poller is started only after this returns.
func (m *Model) startSession() tea.Cmd {
	e := m.engine
	sess := m.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), mutationTimeout)
		defer cancel()
		return sessionStartedMsg{err: e.StartSession(ctx, sess)}
	}
}

// logout ends the session, forgets the stored token, and stops polling.
func (m *Model) logout() tea.Cmd {
	e := m.engine
	p := m.poller
	log := m.log
	return func() tea.Msg {
		if p != nil {
			p.Stop()
		}
		e.EndSession()
		if err := credential.DeleteToken(); err != nil {
			log.Logf("[WARN] removing stored token: %v", err)
		}
		return loggedOutMsg{}
	}
}
