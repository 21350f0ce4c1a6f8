package events

import (
	"encoding/json"
	"time"
)

// EventType names a server to client event.
type EventType string

const (
	RoomJoined       EventType = "roomJoined"
	RoomUpdated      EventType = "roomUpdated"
	GameStarted      EventType = "gameStarted"
	TierAnnouncement EventType = "tierAnnouncement"
	ItemLive         EventType = "itemLive"
	ItemResolved     EventType = "itemResolved"
	RoleProgress     EventType = "roleProgress"
	AuctionEnded     EventType = "auctionEnded"
	ErrorMessage     EventType = "errorMessage"
)

// Event is the envelope delivered to clients and mirrored to the outbox.
// RoomID is empty for events addressed to a single connection outside a room.
type Event struct {
	ID        string          `json:"id"`
	RoomID    string          `json:"roomId,omitempty"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Emitter is how the registry and engine publish state changes. Implementations
// must not call back into the emitter's caller.
type Emitter interface {
	// ToRoom broadcasts to every connection subscribed to roomID.
	ToRoom(roomID string, t EventType, payload any)
	// ToConnection delivers to a single connection. roomID tags the
	// envelope and may be empty when the event belongs to no room.
	ToConnection(connectionID, roomID string, t EventType, payload any)
	// Subscribe adds a connection to a room's broadcast group.
	Subscribe(connectionID, roomID string)
}

// Recorded is one captured emission.
type Recorded struct {
	RoomID       string
	ConnectionID string
	Type         EventType
	Payload      any
}

// Recorder is an in-memory Emitter used by tests.
type Recorder struct {
	Events        []Recorded
	Subscriptions map[string]string
}

func NewRecorder() *Recorder {
	return &Recorder{Subscriptions: make(map[string]string)}
}

func (r *Recorder) ToRoom(roomID string, t EventType, payload any) {
	r.Events = append(r.Events, Recorded{RoomID: roomID, Type: t, Payload: payload})
}

func (r *Recorder) ToConnection(connectionID, roomID string, t EventType, payload any) {
	r.Events = append(r.Events, Recorded{RoomID: roomID, ConnectionID: connectionID, Type: t, Payload: payload})
}

func (r *Recorder) Subscribe(connectionID, roomID string) {
	r.Subscriptions[connectionID] = roomID
}

// OfType returns captured events of type t, oldest first.
func (r *Recorder) OfType(t EventType) []Recorded {
	var out []Recorded
	for _, e := range r.Events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Last returns the most recent event of type t.
func (r *Recorder) Last(t EventType) (Recorded, bool) {
	for i := len(r.Events) - 1; i >= 0; i-- {
		if r.Events[i].Type == t {
			return r.Events[i], true
		}
	}
	return Recorded{}, false
}

// Reset drops captured events.
func (r *Recorder) Reset() {
	r.Events = nil
}
