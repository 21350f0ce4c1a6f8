package orchestrator

import (
	"github.com/mcdev12/auctionroom/go/internal/auction/engine"
	"github.com/mcdev12/auctionroom/go/internal/auction/events"
)

// Msg is anything the orchestrator loop accepts.
type Msg interface{ isOrchestratorMsg() }

type CreateRoom struct {
	ConnectionID string
	DisplayName  string
}

func (CreateRoom) isOrchestratorMsg() {}

type JoinRoom struct {
	RoomID       string
	ConnectionID string
	DisplayName  string
}

func (JoinRoom) isOrchestratorMsg() {}

type SelectAffiliation struct {
	RoomID       string
	ConnectionID string
	Name         string
}

func (SelectAffiliation) isOrchestratorMsg() {}

type StartGame struct {
	RoomID       string
	ConnectionID string
}

func (StartGame) isOrchestratorMsg() {}

type PlaceBid struct {
	RoomID       string
	ConnectionID string
	Amount       float64
}

func (PlaceBid) isOrchestratorMsg() {}

// Disconnect is sent by the gateway when a connection closes.
type Disconnect struct {
	ConnectionID string
}

func (Disconnect) isOrchestratorMsg() {}

// RoomState is a consistent read of one room and its live round.
type RoomState struct {
	Room  events.RoomSnapshot `json:"room"`
	Round *engine.RoundView   `json:"round,omitempty"`
}

// GetRoomState asks for a RoomState. Reply receives nil for unknown rooms
// and must be buffered.
type GetRoomState struct {
	RoomID string
	Reply  chan *RoomState
}

func (GetRoomState) isOrchestratorMsg() {}

// ListRooms asks for snapshots of every room. Reply must be buffered.
type ListRooms struct {
	Reply chan []events.RoomSnapshot
}

func (ListRooms) isOrchestratorMsg() {}

// task carries an expired scheduler timer back onto the loop.
type task struct {
	run func()
}

func (task) isOrchestratorMsg() {}
