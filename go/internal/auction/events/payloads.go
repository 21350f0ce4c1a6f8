package events

import (
	"github.com/mcdev12/auctionroom/go/internal/catalog"
)

// Payload types shared between the room, engine and gateway packages

// ParticipantSnapshot is the client view of one seat in a room
type ParticipantSnapshot struct {
	ConnectionID string         `json:"connectionId"`
	DisplayName  string         `json:"displayName"`
	IsHost       bool           `json:"isHost"`
	Affiliation  string         `json:"affiliation,omitempty"`
	Budget       float64        `json:"budget"`
	ItemsWon     int            `json:"itemsWon"`
	Score        float64        `json:"score"`
	WonItems     []catalog.Item `json:"wonItems"`
	Connected    bool           `json:"connected"`
}

// RoomSnapshot is the payload for roomJoined, roomUpdated and gameStarted
type RoomSnapshot struct {
	ID           string                `json:"id"`
	Status       string                `json:"status"`
	Participants []ParticipantSnapshot `json:"participants"`
}

// TierAnnouncementPayload is the payload for a tierAnnouncement event
type TierAnnouncementPayload struct {
	Tier    catalog.Tier `json:"tier"`
	Message string       `json:"message"`
}

// ItemLivePayload is the payload for an itemLive event. It is sent when an
// item goes live and again after every accepted bid.
type ItemLivePayload struct {
	Item              catalog.Item `json:"item"`
	CurrentBid        float64      `json:"currentBid"`
	LeaderName        string       `json:"leaderName"`
	LeaderAffiliation string       `json:"leaderAffiliation"`
	RemainingSeconds  int          `json:"remainingSeconds"`
}

// ItemResolvedPayload is the payload for an itemResolved event.
// Winner fields are empty when Sold is false.
type ItemResolvedPayload struct {
	Item              catalog.Item `json:"item"`
	WinnerAffiliation string       `json:"winnerAffiliation"`
	WinnerName        string       `json:"winnerName"`
	Price             float64      `json:"price"`
	Sold              bool         `json:"sold"`
	UpdatedRoom       RoomSnapshot `json:"updatedRoom"`
}

// RoleProgressEntry counts one participant's won items by role
type RoleProgressEntry struct {
	Participant string               `json:"participant"`
	Affiliation string               `json:"affiliation"`
	Total       int                  `json:"total"`
	Roles       map[catalog.Role]int `json:"roles"`
}

// AuctionEndedPayload is the payload for an auctionEnded event
type AuctionEndedPayload struct {
	Room RoomSnapshot `json:"room"`
}

// ErrorMessagePayload is the payload for an errorMessage event
type ErrorMessagePayload struct {
	Text string `json:"text"`
}
