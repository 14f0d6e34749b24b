package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nhle/taskboard/internal/derive"
	"github.com/nhle/taskboard/internal/engine"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

var (
	bold    = color.New(color.Bold).SprintFunc()
	faint   = color.New(color.Faint).SprintFunc()
	red     = color.New(color.FgRed).SprintFunc()
	yellow  = color.New(color.FgYellow).SprintFunc()
	green   = color.New(color.FgGreen).SprintFunc()
	cyan    = color.New(color.FgCyan).SprintFunc()
	magenta = color.New(color.FgMagenta).SprintFunc()
)

// statusColors maps statuses to their summary color.
var statusColors = map[model.Status]func(a ...interface{}) string{
	model.StatusTodo:       fmt.Sprint,
	model.StatusInProgress: cyan,
	model.StatusBlocker:    red,
	model.StatusCompleted:  green,
}

func syncCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Reload from the backend, reconcile, and print a summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			eng, closeFn, err := e.startEngine(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeFn()

			fmt.Fprintf(out, "Synced %d tasks and %d notifications\n\n",
				len(model.Flatten(eng.Tasks())), len(eng.Notifications()))
			printSummary(out, eng.Tasks(), eng.Notifications(), e.clock.Now(), "")
			return nil
		},
	}
}

func summaryCmd(opts *options) *cobra.Command {
	var (
		offline    bool
		department string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print task statistics, overdue work, and blockers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(opts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if offline {
				return e.printOfflineSummary(cmd.Context(), out, department)
			}

			eng, closeFn, err := e.startEngine(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeFn()

			printSummary(out, eng.Tasks(), eng.Notifications(), e.clock.Now(), department)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Read the cached snapshot instead of the backend")
	cmd.Flags().StringVarP(&department, "department", "d", "", "Only tasks of this department")
	return cmd
}

// startEngine opens the cache and runs a session's first reload. Engine
// toasts are printed to w.
func (e *env) startEngine(ctx context.Context, w io.Writer) (*engine.Engine, func(), error) {
	sess, err := e.loadSession()
	if err != nil {
		return nil, nil, err
	}

	st, err := store.NewSQLiteStore(e.cfg.Cache.Path)
	if err != nil {
		return nil, nil, err
	}

	eng := engine.New(e.newClient(),
		engine.WithStore(st),
		engine.WithClock(e.clock),
		engine.WithLogger(e.log),
		engine.WithToaster(engine.ToasterFunc(func(t model.Toast) {
			fmt.Fprintf(w, "%s %s\n", toastPrefix(t.Kind), t.Message)
		})),
	)

	ctx, cancel := context.WithTimeout(ctx, 2*e.cfg.Timeout())
	defer cancel()
	if err := eng.StartSession(ctx, sess); err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("loading tasks from %s: %w", e.cfg.Server.BaseURL, err)
	}

	return eng, func() { st.Close() }, nil
}

func (e *env) printOfflineSummary(ctx context.Context, w io.Writer, department string) error {
	sess, err := e.loadSession()
	if err != nil {
		return err
	}

	st, err := store.NewSQLiteStore(e.cfg.Cache.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	snap, err := st.LoadSnapshot(ctx, sess.User.ID)
	if err != nil {
		return err
	}
	if snap == nil {
		return fmt.Errorf("no cached tasks for %s, run `taskboard sync` first", sess.User.Username)
	}

	now := e.clock.Now()
	fmt.Fprintln(w, faint(fmt.Sprintf("Cached %s", humanize.RelTime(snap.SavedAt, now, "ago", "from now"))))
	printSummary(w, snap.Tasks, snap.Notifications, now, department)
	return nil
}

// printSummary writes counts by status, deadline pressure, blockers, and
// per-department totals for tasks.
func printSummary(w io.Writer, tasks []model.Task, notifications []model.Notification, now time.Time, department string) {
	if department != "" {
		tasks = inDepartment(tasks, department)
	}

	stats := derive.Compute(tasks, now)
	title := "Tasks"
	if department != "" {
		title += " in " + department
	}
	fmt.Fprintf(w, "%s %s\n", bold(title), faint(fmt.Sprintf("(%d, %.0f%% done)", stats.Total, stats.CompletionRate()*100)))
	for _, s := range model.Statuses {
		paint := statusColors[s]
		fmt.Fprintf(w, "  %-12s %s\n", s.Label()+":", paint(stats.ByStatus[s]))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-12s %s\n", "Overdue:", countColor(stats.Overdue, red))
	fmt.Fprintf(w, "  %-12s %s\n", "Urgent:", countColor(stats.Urgent, yellow))
	fmt.Fprintf(w, "  %-12s %s\n", "Carried:", countColor(stats.CarriedOver, magenta))

	var overdue []model.Task
	for _, t := range model.Flatten(tasks) {
		if derive.IsOverdue(t, now) {
			overdue = append(overdue, t)
		}
	}
	if len(overdue) > 0 {
		fmt.Fprintf(w, "\n%s\n", bold("Overdue"))
		for _, t := range overdue {
			fmt.Fprintf(w, "  %s %s %s\n", red("!"), t.Title,
				faint("due "+humanize.RelTime(t.Deadline, now, "ago", "from now")))
		}
	}

	if blocked := derive.BlockedTasks(tasks, now); len(blocked) > 0 {
		fmt.Fprintf(w, "\n%s\n", bold("Blocked"))
		for _, b := range blocked {
			line := fmt.Sprintf("  %s %s %s", red("■"), b.Task.Title, faint(fmt.Sprintf("(%s)", b.Bucket)))
			if b.Task.BlockerReason != "" {
				line += " " + b.Task.BlockerReason
			}
			fmt.Fprintln(w, line)
		}
	}

	if department == "" {
		if depts := derive.ByDepartment(tasks, now); len(depts) > 1 {
			fmt.Fprintf(w, "\n%s\n", bold("Departments"))
			for _, d := range depts {
				fmt.Fprintf(w, "  %-20s %3d tasks  %3.0f%% done  %s overdue\n",
					d.Department, d.Total, d.CompletionRate()*100, countColor(d.Overdue, red))
			}
		}
	}

	unread := 0
	for _, n := range notifications {
		if !n.Read {
			unread++
		}
	}
	if unread > 0 {
		fmt.Fprintf(w, "\n%s unread notifications\n", yellow(unread))
	}
}

// inDepartment keeps the top-level tasks owned by department.
func inDepartment(tasks []model.Task, department string) []model.Task {
	var out []model.Task
	for _, t := range tasks {
		if strings.EqualFold(t.Department, department) {
			out = append(out, t)
		}
	}
	return out
}

func countColor(n int, paint func(a ...interface{}) string) string {
	if n == 0 {
		return fmt.Sprint(n)
	}
	return paint(n)
}

func toastPrefix(kind model.ToastKind) string {
	switch kind {
	case model.ToastError:
		return red("error:")
	case model.ToastSuccess:
		return green("ok:")
	default:
		return cyan("info:")
	}
}
