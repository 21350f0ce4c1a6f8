package outbox

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction/events"
)

// EventPublisher delivers a room event to an external system
type EventPublisher interface {
	Publish(ctx context.Context, evt events.Event) error
	Close() error
}

// LogPublisher writes events to the log instead of a broker. It is used
// when no NATS server is configured.
type LogPublisher struct{}

func NewLogPublisher() *LogPublisher {
	return &LogPublisher{}
}

func (p *LogPublisher) Publish(ctx context.Context, evt events.Event) error {
	log.Debug().
		Str("event_id", evt.ID).
		Str("event_type", string(evt.Type)).
		Str("room_id", evt.RoomID).
		Int("size", len(evt.Data)).
		Msg("room event")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
