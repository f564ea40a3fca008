package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pomopals/pomopals/go/internal/models"
	"github.com/rs/zerolog/log"
)

// RoomsApp defines what the service layer needs from the rooms
// application.
type RoomsApp interface {
	GetRoomByName(ctx context.Context, name string) (*models.Room, error)
	CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.Room, error)
	ListRoomMembers(ctx context.Context, name string) ([]*models.User, error)
}

// PhaseCoordinator is the settings path into the gateway's timer phase
// coordinator, so HTTP updates share its per-room serialization.
type PhaseCoordinator interface {
	UpdateSettings(ctx context.Context, roomName string, req UpdateRoomSettingsRequest) (*models.Room, error)
}

// Service exposes the rooms HTTP API.
type Service struct {
	app   RoomsApp
	phase PhaseCoordinator
}

// NewService creates a rooms HTTP service.
func NewService(app RoomsApp, phase PhaseCoordinator) *Service {
	return &Service{
		app:   app,
		phase: phase,
	}
}

// RegisterRoutes registers the rooms routes with an HTTP mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /rooms/{name}", s.handleGetRoom)
	mux.HandleFunc("PATCH /rooms/{name}/settings", s.handleUpdateSettings)
	mux.HandleFunc("GET /rooms/{name}/users", s.handleListMembers)
}

func (s *Service) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	room, err := s.app.CreateRoom(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("room", req.Name).Msg("create room failed")
		writeError(w, http.StatusInternalServerError, "failed to create room")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Service) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	room, err := s.app.GetRoomByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		log.Error().Err(err).Str("room", name).Msg("get room failed")
		writeError(w, http.StatusInternalServerError, "failed to get room")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Service) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req UpdateRoomSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := s.phase.UpdateSettings(r.Context(), name, req)
	if err != nil {
		if errors.Is(err, ErrRoomNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		log.Error().Err(err).Str("room", name).Msg("update settings failed")
		writeError(w, http.StatusInternalServerError, "failed to update settings")
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (s *Service) handleListMembers(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	members, err := s.app.ListRoomMembers(r.Context(), name)
	if err != nil {
		log.Error().Err(err).Str("room", name).Msg("list members failed")
		writeError(w, http.StatusInternalServerError, "failed to list room members")
		return
	}
	if members == nil {
		members = []*models.User{}
	}
	writeJSON(w, http.StatusOK, members)
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
