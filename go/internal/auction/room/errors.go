package room

import (
	"errors"
	"fmt"
)

// Error kinds. Callers check the kind with errors.Is to decide whether a
// failure is reported back to the client.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrNotFound           = errors.New("not found")
	ErrPreconditionFailed = errors.New("precondition failed")
)

var (
	ErrInvalidName        = fmt.Errorf("%w: display name is blank or too long", ErrInvalidInput)
	ErrInvalidRoomID      = fmt.Errorf("%w: malformed room id", ErrInvalidInput)
	ErrRoomNotFound       = fmt.Errorf("%w: room not found", ErrNotFound)
	ErrRoomFull           = fmt.Errorf("%w: room is full", ErrPreconditionFailed)
	ErrGameAlreadyStarted = fmt.Errorf("%w: game already started", ErrPreconditionFailed)
)

// Retryable reports whether err is a failure the client can act on and
// should therefore be told about.
func Retryable(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPreconditionFailed)
}

// Message returns the client-facing text for a registry error.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrInvalidName):
		return "Username is required"
	case errors.Is(err, ErrInvalidRoomID):
		return "Invalid room code"
	case errors.Is(err, ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, ErrRoomFull):
		return "Room is full"
	case errors.Is(err, ErrGameAlreadyStarted):
		return "Game already started"
	default:
		return "Something went wrong"
	}
}
