package orchestrator

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction/events"
)

// Broadcaster delivers envelopes to connected clients.
type Broadcaster interface {
	BroadcastToRoom(roomID string, evt events.Event)
	SendToConnection(connectionID string, evt events.Event)
	Subscribe(connectionID, roomID string)
}

// Sink receives a copy of every room event. Enqueue must not block.
type Sink interface {
	Enqueue(evt events.Event)
}

// dispatcher is the events.Emitter handed to the registry and engine. It
// turns payloads into envelopes and fans them out.
type dispatcher struct {
	clock clockwork.Clock
	out   Broadcaster
	sinks []Sink
}

func (d *dispatcher) ToRoom(roomID string, t events.EventType, payload any) {
	evt, ok := d.envelope(roomID, t, payload)
	if !ok {
		return
	}
	d.out.BroadcastToRoom(roomID, evt)
	for _, s := range d.sinks {
		s.Enqueue(evt)
	}
}

func (d *dispatcher) ToConnection(connectionID, roomID string, t events.EventType, payload any) {
	evt, ok := d.envelope(roomID, t, payload)
	if !ok {
		return
	}
	d.out.SendToConnection(connectionID, evt)
}

func (d *dispatcher) Subscribe(connectionID, roomID string) {
	d.out.Subscribe(connectionID, roomID)
}

func (d *dispatcher) envelope(roomID string, t events.EventType, payload any) (events.Event, bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Str("event_type", string(t)).Msg("failed to marshal event payload")
		return events.Event{}, false
	}
	return events.Event{
		ID:        uuid.New().String(),
		RoomID:    roomID,
		Type:      t,
		Timestamp: d.clock.Now().UTC(),
		Data:      data,
	}, true
}
