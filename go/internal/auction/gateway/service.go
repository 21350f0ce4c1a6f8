package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// Service bundles the WebSocket and state HTTP surfaces
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
}

// NewService creates the gateway over an existing connection manager
func NewService(cm *ConnectionManager, provider StateProvider) *Service {
	return &Service{
		connectionManager: cm,
		wsHandler:         NewWebSocketHandler(cm),
		stateHandler:      NewStateHandler(provider),
	}
}

// Routes builds the router for every gateway endpoint.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ws", s.wsHandler.HandleConnection)
	r.Get("/ws/stats", s.wsHandler.HandleConnectionStats)

	r.Route("/api/rooms", func(r chi.Router) {
		r.Get("/", s.stateHandler.HandleListRooms)
		r.Get("/{roomID}/state", s.stateHandler.HandleGetRoomState)
	})

	log.Info().Msg("gateway routes registered")
	return r
}

// Stats returns statistics about active connections
func (s *Service) Stats() ConnectionStats {
	return s.connectionManager.GetConnectionStats()
}
