package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/app"
	"github.com/nhle/taskboard/internal/engine"
	"github.com/nhle/taskboard/internal/store"
	appsync "github.com/nhle/taskboard/internal/sync"
)

func uiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the terminal UI (default command)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd.Context(), opts)
		},
	}
}

// runUI launches the terminal UI. Logs go to log.file since the UI owns
// the terminal.
func runUI(ctx context.Context, opts *options) error {
	e, err := loadEnv(opts)
	if err != nil {
		return err
	}

	logFile, err := openLogFile(e.cfg.Log.File)
	if err != nil {
		return err
	}
	defer logFile.Close()
	e.logTo(logFile)

	sess, err := e.loadSession()
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(e.cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	client := e.newClient()
	client.SetToken(sess.Token)

	toasts := app.NewToastChannel()
	eng := engine.New(client,
		engine.WithStore(st),
		engine.WithClock(e.clock),
		engine.WithToaster(toasts),
		engine.WithLogger(e.log),
	)

	poller := appsync.New(eng, appsync.Config{
		PollInterval:   e.cfg.PollInterval(),
		ReminderHour:   e.cfg.Reminders.Hour,
		ReminderMinute: e.cfg.Reminders.Minute,
	}, e.clock, e.log)
	defer poller.Stop()

	e.log.Logf("[INFO] starting ui for %s against %s", sess.User.Username, e.cfg.Server.BaseURL)

	m := app.New(app.Config{
		Engine:      eng,
		Poller:      poller,
		Toasts:      toasts,
		Session:     sess,
		Clock:       e.clock,
		Departments: e.departmentNames(ctx, client, sess.User),
		Log:         e.log,
		AppConfig:   e.cfg,
		ConfigPath:  opts.configPath,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}
	return nil
}
