package room

import (
	"github.com/mcdev12/auctionroom/go/internal/auction/events"
	"github.com/mcdev12/auctionroom/go/internal/catalog"
)

// Status is the lifecycle stage of a room.
type Status string

const (
	StatusWaiting Status = "WAITING"
	StatusStarted Status = "STARTED"
)

// Participant is one seat in a room, keyed by display name.
type Participant struct {
	ConnectionID string
	DisplayName  string
	IsHost       bool
	Affiliation  string
	Budget       float64
	ItemsWon     int
	Score        float64
	WonItems     []catalog.Item
	Connected    bool
}

// Room is one independent auction game. Participants are kept in join order.
type Room struct {
	ID           string
	Status       Status
	Participants []*Participant
}

// Participant looks up a seat by display name.
func (r *Room) Participant(displayName string) *Participant {
	for _, p := range r.Participants {
		if p.DisplayName == displayName {
			return p
		}
	}
	return nil
}

// ParticipantByConnection looks up the seat currently bound to connectionID.
func (r *Room) ParticipantByConnection(connectionID string) *Participant {
	if connectionID == "" {
		return nil
	}
	for _, p := range r.Participants {
		if p.ConnectionID == connectionID {
			return p
		}
	}
	return nil
}

func (r *Room) Host() *Participant {
	for _, p := range r.Participants {
		if p.IsHost {
			return p
		}
	}
	return nil
}

func (r *Room) remove(displayName string) (*Participant, bool) {
	for i, p := range r.Participants {
		if p.DisplayName == displayName {
			r.Participants = append(r.Participants[:i], r.Participants[i+1:]...)
			return p, true
		}
	}
	return nil, false
}

// Snapshot copies the room into its wire shape.
func (r *Room) Snapshot() events.RoomSnapshot {
	snap := events.RoomSnapshot{
		ID:           r.ID,
		Status:       string(r.Status),
		Participants: make([]events.ParticipantSnapshot, 0, len(r.Participants)),
	}
	for _, p := range r.Participants {
		won := make([]catalog.Item, len(p.WonItems))
		copy(won, p.WonItems)
		snap.Participants = append(snap.Participants, events.ParticipantSnapshot{
			ConnectionID: p.ConnectionID,
			DisplayName:  p.DisplayName,
			IsHost:       p.IsHost,
			Affiliation:  p.Affiliation,
			Budget:       p.Budget,
			ItemsWon:     p.ItemsWon,
			Score:        p.Score,
			WonItems:     won,
			Connected:    p.Connected,
		})
	}
	return snap
}
