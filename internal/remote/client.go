package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nhle/taskboard/internal/model"
)

// Client is a thin HTTP client for the task tracker REST API. It handles
// Bearer token authentication and JSON marshaling. Requests are never
// retried; callers decide what a failure means.
type Client struct {
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	token string
}

// NewClient creates a new API client. The baseURL is the root of the
// backend (e.g., https://tracker.corp.example.com); paths are joined
// beneath it.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetToken replaces the bearer token sent with every request. An empty
// token ends the session.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Health checks that the backend is reachable. It needs no token.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/healthz", nil, nil)
}

// Login exchanges credentials for a token. It does not install the token;
// the caller starts a session with it.
func (c *Client) Login(ctx context.Context, username, password string) (string, model.User, error) {
	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/api/auth/login", LoginRequest{
		Username: username,
		Password: password,
	}, &resp)
	if err != nil {
		return "", model.User{}, err
	}
	return resp.Token, resp.User.ToModel(), nil
}

// ListTasks returns top-level tasks with their subtasks nested.
func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	var dtos []TaskDTO
	q := url.Values{"parentId": {"null"}}
	if err := c.do(ctx, http.MethodGet, "/api/tasks?"+q.Encode(), nil, &dtos); err != nil {
		return nil, err
	}

	tasks := make([]model.Task, len(dtos))
	for i, d := range dtos {
		tasks[i] = d.ToModel()
	}
	return tasks, nil
}

// CreateTask creates a task (a subtask when in.ParentID is set) and
// returns its id.
func (c *Client) CreateTask(ctx context.Context, in model.TaskInput) (string, error) {
	req := CreateTaskRequest{
		Title:       in.Title,
		Description: in.Description,
		Deadline:    in.Deadline,
		Priority:    string(in.Priority),
		Status:      StatusToWire(in.Status),
		CreatedBy:   in.CreatedBy,
		Department:  in.Department,
	}
	if req.Status == "" {
		req.Status = StatusToWire(model.StatusTodo)
	}
	if in.ParentID != nil {
		pid, err := ParseID(*in.ParentID)
		if err != nil {
			return "", fmt.Errorf("parsing parent id %q: %w", *in.ParentID, err)
		}
		req.ParentID = &pid
	}

	var resp CreatedResponse
	if err := c.do(ctx, http.MethodPost, "/api/tasks", req, &resp); err != nil {
		return "", err
	}
	return FormatID(resp.ID), nil
}

// UpdateTaskStatus persists a status and, for blockers, the reason.
func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status model.Status, blockerReason string) error {
	req := StatusRequest{Status: StatusToWire(status)}
	if status == model.StatusBlocker || blockerReason != "" {
		req.BlockerReason = &blockerReason
	}
	return c.do(ctx, http.MethodPatch, "/api/tasks/"+url.PathEscape(id)+"/status", req, nil)
}

// CarryOverTask moves a task's deadline and records why.
func (c *Client) CarryOverTask(ctx context.Context, id string, newDeadline time.Time, reason string) error {
	return c.do(ctx, http.MethodPost, "/api/tasks/"+url.PathEscape(id)+"/carryover", CarryOverRequest{
		NewDeadline: newDeadline,
		Reason:      reason,
	}, nil)
}

// ListNotifications returns the current user's notifications.
func (c *Client) ListNotifications(ctx context.Context) ([]model.Notification, error) {
	var dtos []NotificationDTO
	if err := c.do(ctx, http.MethodGet, "/api/notifications", nil, &dtos); err != nil {
		return nil, err
	}

	out := make([]model.Notification, len(dtos))
	for i, d := range dtos {
		out[i] = d.ToModel()
	}
	return out, nil
}

// CreateNotification asks the backend to record a notification.
func (c *Client) CreateNotification(ctx context.Context, in model.NotificationInput) error {
	req := CreateNotificationRequest{
		Message: in.Message,
		UserID:  in.UserID,
		Type:    string(in.Type),
	}
	if in.RelatedTaskID != "" {
		tid, err := ParseID(in.RelatedTaskID)
		if err != nil {
			return fmt.Errorf("parsing related task id %q: %w", in.RelatedTaskID, err)
		}
		req.RelatedTaskID = &tid
	}
	return c.do(ctx, http.MethodPost, "/api/notifications", req, nil)
}

// MarkNotificationRead flags one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/api/notifications/"+url.PathEscape(id)+"/read", nil, nil)
}

// DeleteNotification removes one notification.
func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/notifications/"+url.PathEscape(id), nil, nil)
}

// ListDepartments returns every department.
func (c *Client) ListDepartments(ctx context.Context) ([]model.Department, error) {
	var dtos []DepartmentDTO
	if err := c.do(ctx, http.MethodGet, "/api/departments", nil, &dtos); err != nil {
		return nil, err
	}

	out := make([]model.Department, len(dtos))
	for i, d := range dtos {
		out[i] = model.Department{ID: FormatID(d.ID), Name: d.Name}
	}
	return out, nil
}

// do builds the request, attaches auth, and handles JSON
// (de)serialization and error mapping.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return &AuthError{Message: fmt.Sprintf("%s %s rejected the session token", method, path)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{Method: method, Path: path, Code: resp.StatusCode}
		var apiErr ErrorResponse
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error != "" {
			se.Message = apiErr.Error
		} else {
			se.Message = strings.TrimSpace(string(respBody))
		}
		return se
	}

	// No content to parse (e.g. 204).
	if result == nil || resp.StatusCode == http.StatusNoContent || len(respBody) == 0 {
		return nil
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("unmarshaling response from %s %s: %w", method, path, err)
	}

	return nil
}
