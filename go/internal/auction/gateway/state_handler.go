package gateway

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction/events"
	"github.com/mcdev12/auctionroom/go/internal/auction/orchestrator"
	"github.com/mcdev12/auctionroom/go/internal/auction/room"
)

// StateProvider interface defines methods for reading room state
type StateProvider interface {
	RoomState(ctx context.Context, roomID string) (*orchestrator.RoomState, error)
	Rooms(ctx context.Context) ([]events.RoomSnapshot, error)
}

// RoomSummary is one entry of GET /api/rooms
type RoomSummary struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Participants int    `json:"participants"`
	Connected    int    `json:"connected"`
}

// StateHandler handles HTTP requests for room state
type StateHandler struct {
	stateProvider StateProvider
}

// NewStateHandler creates a new state handler
func NewStateHandler(provider StateProvider) *StateHandler {
	return &StateHandler{
		stateProvider: provider,
	}
}

// HandleGetRoomState handles GET /api/rooms/{roomID}/state
func (h *StateHandler) HandleGetRoomState(w http.ResponseWriter, r *http.Request) {
	roomID, ok := room.NormalizeID(chi.URLParam(r, "roomID"))
	if !ok {
		http.Error(w, "Invalid room code", http.StatusBadRequest)
		return
	}

	state, err := h.stateProvider.RoomState(r.Context(), roomID)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to get room state")
		http.Error(w, "Failed to get room state", http.StatusInternalServerError)
		return
	}
	if state == nil {
		http.Error(w, "Room not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// HandleListRooms handles GET /api/rooms
func (h *StateHandler) HandleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.stateProvider.Rooms(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list rooms")
		http.Error(w, "Failed to list rooms", http.StatusInternalServerError)
		return
	}

	summaries := make([]RoomSummary, 0, len(rooms))
	for _, snap := range rooms {
		s := RoomSummary{ID: snap.ID, Status: snap.Status, Participants: len(snap.Participants)}
		for _, p := range snap.Participants {
			if p.Connected {
				s.Connected++
			}
		}
		summaries = append(summaries, s)
	}
	writeJSON(w, http.StatusOK, summaries)
}
