package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"

	"github.com/nhle/taskboard/internal/model"
)

func summaryFixture(now time.Time) []model.Task {
	parent := "1"
	return []model.Task{
		{
			ID: "1", Title: "Quarterly report", Department: "Finance",
			Status: model.StatusInProgress, Deadline: now.Add(-2 * time.Hour),
			Subtasks: []model.Task{
				{ID: "2", ParentID: &parent, Title: "Collect invoices", Department: "Finance", Status: model.StatusCompleted, Deadline: now.Add(-time.Hour)},
				{ID: "3", ParentID: &parent, Title: "Draft summary", Department: "Finance", Status: model.StatusTodo, Deadline: now.Add(30 * time.Hour)},
			},
		},
		{
			ID: "4", Title: "Fix login page", Department: "Engineering",
			Status: model.StatusBlocker, BlockerReason: "waiting on design",
			CreatedAt: now.Add(-4 * 24 * time.Hour), Deadline: now.Add(5 * time.Hour),
		},
	}
}

func TestPrintSummary(t *testing.T) {
	color.NoColor = true
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	printSummary(&buf, summaryFixture(now), []model.Notification{{ID: "9"}, {ID: "10", Read: true}}, now, "")
	out := buf.String()

	for _, want := range []string{
		"Tasks (4, 25% done)",
		"Overdue:     1",
		"Urgent:      1",
		"Quarterly report",
		"Fix login page (stale) waiting on design",
		"Departments",
		"1 unread notifications",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Collect invoices") {
		t.Errorf("completed subtask listed as overdue:\n%s", out)
	}
}

func TestPrintSummaryDepartment(t *testing.T) {
	color.NoColor = true
	now := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	printSummary(&buf, summaryFixture(now), nil, now, "engineering")
	out := buf.String()

	if !strings.Contains(out, "Tasks in engineering (1, 0% done)") {
		t.Errorf("unexpected header:\n%s", out)
	}
	if strings.Contains(out, "Quarterly report") || strings.Contains(out, "Departments") {
		t.Errorf("department filter leaked other tasks:\n%s", out)
	}
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if strings.TrimSpace(buf.String()) == "" {
		t.Error("version printed nothing")
	}
}
