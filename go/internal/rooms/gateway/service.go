package gateway

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Store combines the slices of the session store the gateway consumes.
// The rooms repository satisfies it.
type Store interface {
	SessionStore
	PhaseStore
}

// Service is the room gateway: it owns the registry, router, phase
// coordinator, scheduler, and connection lifecycle, and exposes the
// WebSocket surface.
type Service struct {
	registry  *Registry
	router    *Router
	phase     *Coordinator
	scheduler *PhaseScheduler
	lifecycle *Lifecycle
	wsHandler *WebSocketHandler
}

// Config holds configuration for the room gateway service.
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the room gateway.
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates a room gateway service over the given store.
func NewService(config Config, store Store, clock clockwork.Clock) *Service {
	registry := NewRegistry()
	router := NewRouter(registry)
	phase := NewCoordinator(store)
	scheduler := NewPhaseScheduler(phase, router, store, clock)
	lifecycle := NewLifecycle(registry, router, phase, store, config.ConnectionConfig)
	wsHandler := NewWebSocketHandler(lifecycle, registry)

	return &Service{
		registry:  registry,
		router:    router,
		phase:     phase,
		scheduler: scheduler,
		lifecycle: lifecycle,
		wsHandler: wsHandler,
	}
}

// Start runs the router's fan-out loop until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	log.Info().Msg("starting room gateway service")
	s.router.Start(ctx)
	log.Info().Msg("room gateway service stopped")
}

// RegisterRoutes registers the WebSocket HTTP routes.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("room gateway routes registered")
}

// Phase exposes the timer phase coordinator so the HTTP settings
// endpoints share the same per-room serialization as the socket path.
func (s *Service) Phase() *Coordinator {
	return s.phase
}

// Stats returns statistics about the gateway's live connections.
func (s *Service) Stats() map[string]interface{} {
	return s.registry.Stats()
}
