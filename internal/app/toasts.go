package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/taskboard/internal/model"
)

// toastTTL is how long a toast stays in the status bar.
const toastTTL = 4 * time.Second

// toastMsg delivers a toast from the engine to the UI.
type toastMsg struct {
	toast model.Toast
}

// toastExpiredMsg clears the toast with the given sequence number.
type toastExpiredMsg struct {
	seq int
}

// ToastChannel is an engine.Toaster that hands toasts to the Bubble Tea
// runtime. Toasts are dropped when the buffer is full.
type ToastChannel struct {
	ch chan model.Toast
}

// NewToastChannel creates a ToastChannel.
func NewToastChannel() *ToastChannel {
	return &ToastChannel{ch: make(chan model.Toast, 16)}
}

// Toast implements engine.Toaster.
func (t *ToastChannel) Toast(toast model.Toast) {
	select {
	case t.ch <- toast:
	default:
	}
}

// wait returns a tea.Cmd that blocks until the next toast.
func (t *ToastChannel) wait() tea.Cmd {
	return func() tea.Msg {
		return toastMsg{toast: <-t.ch}
	}
}

func expireToast(seq int) tea.Cmd {
	return tea.Tick(toastTTL, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}
