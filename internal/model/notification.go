package model

import "time"

// NotificationType classifies why a notification was raised.
type NotificationType string

const (
	NotificationTaskCompleted NotificationType = "task_completed"
	NotificationTaskAssigned  NotificationType = "task_assigned"
	NotificationTaskOverdue   NotificationType = "task_overdue"
	NotificationTaskDeadline  NotificationType = "task_deadline"
	NotificationGeneral       NotificationType = "general"
)

// Notification represents an alert surfaced to a user about activity on
// a task.
type Notification struct {
	// ID is the string form of the backend's numeric key.
	ID string `json:"id"`

	// Message is the human-readable notification text.
	Message string `json:"message"`

	// Read indicates whether the user has seen this notification.
	Read bool `json:"read"`

	// CreatedAt is when the backend recorded this notification.
	CreatedAt time.Time `json:"created_at"`

	// RelatedTaskID links this notification to a task, if any.
	RelatedTaskID string `json:"related_task_id,omitempty"`

	// UserID is the owner of this notification.
	UserID string `json:"user_id"`

	Type NotificationType `json:"type"`
}

// NotificationInput holds the fields needed to create a notification.
type NotificationInput struct {
	Message       string
	RelatedTaskID string
	UserID        string
	Type          NotificationType
}

// ToastKind is the severity of a transient user-facing message.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
	ToastInfo    ToastKind = "info"
)

// Toast is a short, non-blocking message shown to the user after an
// operation completes or fails.
type Toast struct {
	Kind    ToastKind
	Message string
}
