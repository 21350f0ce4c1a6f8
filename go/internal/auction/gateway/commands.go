package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdev12/auctionroom/go/internal/auction/orchestrator"
)

// Command types accepted from clients
const (
	CommandCreateRoom        = "createRoom"
	CommandJoinRoom          = "joinRoom"
	CommandSelectAffiliation = "selectAffiliation"
	CommandStartGame         = "startGame"
	CommandPlaceBid          = "placeBid"
)

var (
	ErrMalformedCommand = errors.New("malformed command")
	ErrUnknownCommand   = errors.New("unknown command")
)

// Command is the client to server envelope
type Command struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type createRoomData struct {
	DisplayName string `json:"displayName"`
}

type joinRoomData struct {
	RoomID      string `json:"roomId"`
	DisplayName string `json:"displayName"`
}

type selectAffiliationData struct {
	RoomID string `json:"roomId"`
	Name   string `json:"name"`
}

type startGameData struct {
	RoomID string `json:"roomId"`
}

type placeBidData struct {
	RoomID string  `json:"roomId"`
	Amount float64 `json:"amount"`
}

// decodeCommand turns a raw client frame into an orchestrator message bound
// to connectionID.
func decodeCommand(connectionID string, raw []byte) (orchestrator.Msg, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}

	switch cmd.Type {
	case CommandCreateRoom:
		var d createRoomData
		if err := decodeData(cmd, &d); err != nil {
			return nil, err
		}
		return orchestrator.CreateRoom{ConnectionID: connectionID, DisplayName: d.DisplayName}, nil

	case CommandJoinRoom:
		var d joinRoomData
		if err := decodeData(cmd, &d); err != nil {
			return nil, err
		}
		return orchestrator.JoinRoom{RoomID: d.RoomID, ConnectionID: connectionID, DisplayName: d.DisplayName}, nil

	case CommandSelectAffiliation:
		var d selectAffiliationData
		if err := decodeData(cmd, &d); err != nil {
			return nil, err
		}
		return orchestrator.SelectAffiliation{RoomID: d.RoomID, ConnectionID: connectionID, Name: d.Name}, nil

	case CommandStartGame:
		var d startGameData
		if err := decodeData(cmd, &d); err != nil {
			return nil, err
		}
		return orchestrator.StartGame{RoomID: d.RoomID, ConnectionID: connectionID}, nil

	case CommandPlaceBid:
		var d placeBidData
		if err := decodeData(cmd, &d); err != nil {
			return nil, err
		}
		return orchestrator.PlaceBid{RoomID: d.RoomID, ConnectionID: connectionID, Amount: d.Amount}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Type)
	}
}

func decodeData(cmd Command, v any) error {
	if len(cmd.Data) == 0 {
		return fmt.Errorf("%w: %s has no data", ErrMalformedCommand, cmd.Type)
	}
	if err := json.Unmarshal(cmd.Data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedCommand, cmd.Type, err)
	}
	return nil
}

func commandErrorText(err error) string {
	if errors.Is(err, ErrUnknownCommand) {
		return "Unknown command"
	}
	return "Malformed command"
}
