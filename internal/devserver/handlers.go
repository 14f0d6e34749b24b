package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/remote"
)

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

func validWireStatus(s string) bool {
	return remote.StatusFromWire(s).Valid() && !strings.Contains(s, "-")
}

func validPriority(p string) bool {
	for _, known := range model.Priorities {
		if string(known) == p {
			return true
		}
	}
	return false
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	parent := r.URL.Query().Get("parentId")
	switch parent {
	case "null":
		respondJSON(w, http.StatusOK, s.data.topLevelTasks())
	case "":
		respondError(w, http.StatusBadRequest, "parentId is required")
	default:
		id, err := strconv.ParseInt(parent, 10, 64)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid parentId")
			return
		}
		respondJSON(w, http.StatusOK, s.data.subtasksOf(id))
	}
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var req remote.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respondError(w, http.StatusBadRequest, "title is required")
		return
	}
	if !validPriority(req.Priority) {
		respondError(w, http.StatusBadRequest, "invalid priority")
		return
	}
	if req.Status == "" {
		req.Status = remote.StatusToWire(model.StatusTodo)
	}
	if !validWireStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "invalid status")
		return
	}
	if req.CreatedBy == "" {
		req.CreatedBy = claimsFrom(r.Context()).Subject
	}

	id, err := s.data.createTask(remote.TaskDTO{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Priority:    req.Priority,
		Status:      req.Status,
		CreatedBy:   req.CreatedBy,
		Department:  req.Department,
		CreatedAt:   s.clock.Now(),
		ParentID:    req.ParentID,
	})
	switch {
	case errors.Is(err, errNotFound):
		respondError(w, http.StatusBadRequest, "parent task not found")
		return
	case errors.Is(err, errNestedSubtask):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, remote.CreatedResponse{ID: id})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req remote.StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if !validWireStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "invalid status")
		return
	}

	if err := s.data.updateStatus(id, req.Status, req.BlockerReason); err != nil {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCarryOver(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req remote.CarryOverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if req.NewDeadline.IsZero() {
		respondError(w, http.StatusBadRequest, "newDeadline is required")
		return
	}

	if err := s.data.carryOver(id, req.NewDeadline, req.Reason, s.clock.Now()); err != nil {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.data.notificationsFor(claimsFrom(r.Context()).Subject))
}

func (s *Server) handleCreateNotification(w http.ResponseWriter, r *http.Request) {
	var req remote.CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request format")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.UserID == "" {
		req.UserID = claimsFrom(r.Context()).Subject
	}
	if req.Type == "" {
		req.Type = string(model.NotificationGeneral)
	}

	id := s.data.createNotification(remote.NotificationDTO{
		Message:       req.Message,
		CreatedAt:     s.clock.Now(),
		RelatedTaskID: req.RelatedTaskID,
		UserID:        req.UserID,
		Type:          req.Type,
	})
	respondJSON(w, http.StatusCreated, remote.CreatedResponse{ID: id})
}

func (s *Server) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.data.markRead(id, claimsFrom(r.Context()).Subject); err != nil {
		respondError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.data.deleteNotification(id, claimsFrom(r.Context()).Subject); err != nil {
		respondError(w, http.StatusNotFound, "notification not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDepartments(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.data.listDepartments())
}
