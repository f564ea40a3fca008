package gateway

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles WebSocket upgrade requests for room sessions
type WebSocketHandler struct {
	lifecycle *Lifecycle
	registry  *Registry
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(lifecycle *Lifecycle, registry *Registry) *WebSocketHandler {
	return &WebSocketHandler{
		lifecycle: lifecycle,
		registry:  registry,
	}
}

// HandleConnection upgrades the request and hands the connection to the
// lifecycle manager. Room association happens later via a join-room
// event, not at connect time.
func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	// Identity is verified upstream; here we only read it.
	username := r.URL.Query().Get("username")
	if username == "" {
		username = "anonymous"
	}

	var userID int64
	if idStr := r.URL.Query().Get("user_id"); idStr != "" {
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			http.Error(w, "invalid user_id format", http.StatusBadRequest)
			return
		}
		userID = id
	}

	if err := h.lifecycle.UpgradeConnection(w, r, userID, username); err != nil {
		log.Error().Err(err).
			Str("username", username).
			Msg("failed to upgrade WebSocket connection")
		http.Error(w, "failed to upgrade connection", http.StatusInternalServerError)
		return
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.registry.Stats()); err != nil {
		log.Error().Err(err).Msg("failed to write connection stats")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleConnection)
	mux.HandleFunc("/ws/stats", CORSHandler(h.HandleConnectionStats))
}
