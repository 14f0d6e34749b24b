package remote

import (
	"strconv"
	"strings"
	"time"

	"github.com/nhle/taskboard/internal/model"
)

// wireInProgress is the backend's spelling of model.StatusInProgress.
const wireInProgress = "in_progress"

// TaskDTO is a task as the backend serializes it. Subtasks are nested
// under their parent when listing with parentId=null.
type TaskDTO struct {
	ID                      int64      `json:"id"`
	Title                   string     `json:"title"`
	Description             string     `json:"description"`
	Deadline                time.Time  `json:"deadline"`
	Priority                string     `json:"priority"`
	Status                  string     `json:"status"`
	BlockerReason           *string    `json:"blockerReason,omitempty"`
	CreatedBy               string     `json:"createdBy"`
	Department              string     `json:"department"`
	CreatedAt               time.Time  `json:"createdAt"`
	ParentID                *int64     `json:"parentId"`
	Subtasks                []TaskDTO  `json:"subtasks,omitempty"`
	IsCarriedOver           bool       `json:"isCarriedOver"`
	CarryOverReason         *string    `json:"carryOverReason,omitempty"`
	CarriedOverFromDeadline *time.Time `json:"carriedOverFromDeadline,omitempty"`
	CarriedOverAt           *time.Time `json:"carriedOverAt,omitempty"`
}

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Deadline    time.Time `json:"deadline"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	CreatedBy   string    `json:"createdBy"`
	Department  string    `json:"department"`
	ParentID    *int64    `json:"parentId"`
}

// CreatedResponse carries the id of a newly created entity.
type CreatedResponse struct {
	ID int64 `json:"id"`
}

// StatusRequest is the body of PATCH /api/tasks/:id/status.
type StatusRequest struct {
	Status        string  `json:"status"`
	BlockerReason *string `json:"blockerReason"`
}

// CarryOverRequest is the body of POST /api/tasks/:id/carryover.
type CarryOverRequest struct {
	NewDeadline time.Time `json:"newDeadline"`
	Reason      string    `json:"reason"`
}

// NotificationDTO is a notification as the backend serializes it.
type NotificationDTO struct {
	ID            int64     `json:"id"`
	Message       string    `json:"message"`
	Read          bool      `json:"read"`
	CreatedAt     time.Time `json:"createdAt"`
	RelatedTaskID *int64    `json:"relatedTaskId,omitempty"`
	UserID        string    `json:"userId"`
	Type          string    `json:"type"`
}

// CreateNotificationRequest is the body of POST /api/notifications.
type CreateNotificationRequest struct {
	Message       string `json:"message"`
	RelatedTaskID *int64 `json:"relatedTaskId,omitempty"`
	UserID        string `json:"userId"`
	Type          string `json:"type"`
}

// DepartmentDTO is a department as the backend serializes it.
type DepartmentDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserDTO is the authenticated user returned on login.
type UserDTO struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Department  string `json:"department"`
	Role        string `json:"role"`
}

// LoginResponse is the reply to a successful login.
type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// ErrorResponse is the backend's error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// StatusFromWire maps a backend status to the client model. in_progress is
// the only spelling that differs.
func StatusFromWire(s string) model.Status {
	return model.Status(strings.ReplaceAll(s, "_", "-"))
}

// StatusToWire maps a client status to the backend spelling.
func StatusToWire(s model.Status) string {
	if s == model.StatusInProgress {
		return wireInProgress
	}
	return string(s)
}

// ParseID converts a local string id to the backend's numeric key.
func ParseID(id string) (int64, error) {
	return strconv.ParseInt(id, 10, 64)
}

// FormatID converts a backend key to its local string form.
func FormatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// ToModel converts a task and its nested subtasks.
func (d TaskDTO) ToModel() model.Task {
	t := model.Task{
		ID:                      FormatID(d.ID),
		Title:                   d.Title,
		Description:             d.Description,
		Deadline:                d.Deadline,
		Priority:                model.Priority(d.Priority),
		Status:                  StatusFromWire(d.Status),
		CreatedBy:               d.CreatedBy,
		Department:              d.Department,
		CreatedAt:               d.CreatedAt,
		IsCarriedOver:           d.IsCarriedOver,
		CarriedOverFromDeadline: d.CarriedOverFromDeadline,
		CarriedOverAt:           d.CarriedOverAt,
	}
	if d.BlockerReason != nil {
		t.BlockerReason = *d.BlockerReason
	}
	if d.CarryOverReason != nil {
		t.CarryOverReason = *d.CarryOverReason
	}
	if d.ParentID != nil {
		pid := FormatID(*d.ParentID)
		t.ParentID = &pid
	}
	if len(d.Subtasks) > 0 {
		t.Subtasks = make([]model.Task, len(d.Subtasks))
		for i, st := range d.Subtasks {
			t.Subtasks[i] = st.ToModel()
		}
	}
	return t
}

// ToModel converts a notification.
func (d NotificationDTO) ToModel() model.Notification {
	n := model.Notification{
		ID:        FormatID(d.ID),
		Message:   d.Message,
		Read:      d.Read,
		CreatedAt: d.CreatedAt,
		UserID:    d.UserID,
		Type:      model.NotificationType(d.Type),
	}
	if d.RelatedTaskID != nil {
		n.RelatedTaskID = FormatID(*d.RelatedTaskID)
	}
	return n
}

// ToModel converts the login user.
func (d UserDTO) ToModel() model.User {
	return model.User{
		ID:          d.ID,
		Username:    d.Username,
		DisplayName: d.DisplayName,
		Department:  d.Department,
		Role:        model.Role(d.Role),
	}
}
