package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/pomopals/pomopals/go/internal/models"
	"github.com/rs/zerolog/log"
)

// UsersApp defines what the service layer needs from the users
// application.
type UsersApp interface {
	UpsertUser(ctx context.Context, req LoginRequest) (*models.User, error)
	GetUser(ctx context.Context, userID int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateReaction(ctx context.Context, userID int64, reaction models.Reaction) (*models.User, error)
}

// Service exposes the users HTTP API.
type Service struct {
	app UsersApp
}

// NewService creates a users HTTP service.
func NewService(app UsersApp) *Service {
	return &Service{app: app}
}

// RegisterRoutes registers the users routes with an HTTP mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("GET /users", s.handleListUsers)
	mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	mux.HandleFunc("PUT /users/{id}/reaction", s.handleUpdateReaction)
}

// handleLogin records an identity the upstream provider has already
// verified and returns the user's id, creating the record on first
// login.
func (s *Service) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.GoogleID == "" {
		writeError(w, http.StatusBadRequest, "google_id is required")
		return
	}

	user, err := s.app.UpsertUser(r.Context(), req)
	if err != nil {
		log.Error().Err(err).Str("google_id", req.GoogleID).Msg("login upsert failed")
		writeError(w, http.StatusInternalServerError, "failed to record login")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"user_id": user.ID})
}

func (s *Service) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.app.ListUsers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list users failed")
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Service) handleGetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := s.app.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Error().Err(err).Int64("user_id", userID).Msg("get user failed")
		writeError(w, http.StatusInternalServerError, "failed to get user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Service) handleUpdateReaction(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Reaction == "" {
		writeError(w, http.StatusBadRequest, "reaction is required")
		return
	}

	user, err := s.app.UpdateReaction(r.Context(), userID, models.Reaction(req.Reaction))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		log.Error().Err(err).Int64("user_id", userID).Msg("update reaction failed")
		writeError(w, http.StatusInternalServerError, "failed to update reaction")
		return
	}
	writeJSON(w, http.StatusOK, user)
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
