package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/pomopals/pomopals/go/internal/models"
	"github.com/rs/zerolog/log"
)

// TasksApp defines what the service layer needs from the tasks
// application.
type TasksApp interface {
	CreateTask(ctx context.Context, userID int64, req CreateTaskRequest) (*models.Task, error)
	ListTasksByUser(ctx context.Context, userID int64) ([]*models.Task, error)
	UpdateTask(ctx context.Context, taskID int64, req UpdateTaskRequest) (*models.Task, error)
	DeleteTask(ctx context.Context, taskID int64) error
}

// Service exposes the tasks HTTP API.
type Service struct {
	app TasksApp
}

// NewService creates a tasks HTTP service.
func NewService(app TasksApp) *Service {
	return &Service{app: app}
}

// RegisterRoutes registers the tasks routes with an HTTP mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /users/{id}/tasks", s.handleCreateTask)
	mux.HandleFunc("GET /users/{id}/tasks", s.handleListTasks)
	mux.HandleFunc("PATCH /tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /tasks/{id}", s.handleDeleteTask)
}

func (s *Service) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	task, err := s.app.CreateTask(r.Context(), userID, req)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("create task failed")
		writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Service) handleListTasks(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	tasks, err := s.app.ListTasksByUser(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Int64("user_id", userID).Msg("list tasks failed")
		writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []*models.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Service) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	task, err := s.app.UpdateTask(r.Context(), taskID, req)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		log.Error().Err(err).Int64("task_id", taskID).Msg("update task failed")
		writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Service) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	if err := s.app.DeleteTask(r.Context(), taskID); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		log.Error().Err(err).Int64("task_id", taskID).Msg("delete task failed")
		writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
