package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction/engine"
	"github.com/mcdev12/auctionroom/go/internal/auction/events"
	"github.com/mcdev12/auctionroom/go/internal/auction/room"
	"github.com/mcdev12/auctionroom/go/internal/auction/scheduler"
	"github.com/mcdev12/auctionroom/go/internal/catalog"
)

// ErrStopped is returned by Submit once the loop has exited.
var ErrStopped = errors.New("orchestrator stopped")

// Config wires the room and auction policies together.
type Config struct {
	Room      room.Config
	Engine    engine.Config
	InboxSize int
}

func DefaultConfig() Config {
	return Config{
		Room:      room.DefaultConfig(),
		Engine:    engine.DefaultConfig(),
		InboxSize: 256,
	}
}

// Orchestrator owns the registry and engine and serializes every mutation,
// client commands and expired timers alike, through one goroutine.
type Orchestrator struct {
	inbox chan Msg
	done  chan struct{}

	clock    clockwork.Clock
	sched    *scheduler.ClockScheduler
	registry *room.Registry
	engine   *engine.Engine
	emit     *dispatcher
}

// New builds an orchestrator. Call Run to start processing.
func New(cfg Config, cat *catalog.Catalog, clock clockwork.Clock, out Broadcaster, sinks ...Sink) *Orchestrator {
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 256
	}
	o := &Orchestrator{
		inbox: make(chan Msg, cfg.InboxSize),
		done:  make(chan struct{}),
		clock: clock,
		emit:  &dispatcher{clock: clock, out: out, sinks: sinks},
	}
	o.sched = scheduler.NewClockScheduler(clock, o.post)
	o.registry = room.NewRegistry(cfg.Room, o.sched, o.emit)
	o.engine = engine.New(cfg.Engine, cat, o.registry, o.sched, o.emit)
	o.registry.OnRoomDeleted(o.engine.Teardown)
	return o
}

// Run processes messages until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context) error {
	defer close(o.done)
	log.Info().Int("inbox_size", cap(o.inbox)).Msg("auction orchestrator started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Int("rooms", o.registry.Len()).Msg("auction orchestrator stopped")
			return nil
		case m := <-o.inbox:
			o.handle(m)
		}
	}
}

// Submit queues a message for the loop.
func (o *Orchestrator) Submit(ctx context.Context, m Msg) error {
	select {
	case o.inbox <- m:
		return nil
	case <-o.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RoomState returns the current state of a room, or nil when it does not exist.
func (o *Orchestrator) RoomState(ctx context.Context, roomID string) (*RoomState, error) {
	reply := make(chan *RoomState, 1)
	if err := o.Submit(ctx, GetRoomState{RoomID: roomID, Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case st := <-reply:
		return st, nil
	case <-o.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Rooms returns snapshots of every room.
func (o *Orchestrator) Rooms(ctx context.Context) ([]events.RoomSnapshot, error) {
	reply := make(chan []events.RoomSnapshot, 1)
	if err := o.Submit(ctx, ListRooms{Reply: reply}); err != nil {
		return nil, err
	}
	select {
	case rooms := <-reply:
		return rooms, nil
	case <-o.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// post runs on clock goroutines and hands expired timers to the loop.
func (o *Orchestrator) post(f func()) {
	select {
	case o.inbox <- task{run: f}:
	case <-o.done:
	}
}

func (o *Orchestrator) handle(m Msg) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("panic", fmt.Sprint(r)).
				Str("msg_type", fmt.Sprintf("%T", m)).
				Msg("recovered from panic while handling message")
		}
	}()

	switch msg := m.(type) {
	case CreateRoom:
		if _, err := o.registry.CreateRoom(msg.ConnectionID, msg.DisplayName); err != nil {
			o.reject(msg.ConnectionID, "createRoom", err)
		}

	case JoinRoom:
		if _, err := o.registry.JoinRoom(msg.RoomID, msg.ConnectionID, msg.DisplayName); err != nil {
			o.reject(msg.ConnectionID, "joinRoom", err)
			return
		}
		o.engine.SyncConnection(msg.RoomID, msg.ConnectionID)

	case SelectAffiliation:
		o.registry.SelectAffiliation(msg.RoomID, msg.ConnectionID, msg.Name)

	case StartGame:
		if o.registry.StartGame(msg.RoomID, msg.ConnectionID) {
			o.engine.BeginAuction(msg.RoomID)
		}

	case PlaceBid:
		o.engine.PlaceBid(msg.RoomID, msg.ConnectionID, msg.Amount)

	case Disconnect:
		o.registry.HandleDisconnect(msg.ConnectionID)

	case GetRoomState:
		msg.Reply <- o.roomState(msg.RoomID)

	case ListRooms:
		msg.Reply <- o.registry.Rooms()

	case task:
		msg.run()

	default:
		log.Warn().Str("msg_type", fmt.Sprintf("%T", m)).Msg("unknown message - ignoring")
	}
}

func (o *Orchestrator) roomState(roomID string) *RoomState {
	r := o.registry.Room(roomID)
	if r == nil {
		return nil
	}
	st := &RoomState{Room: r.Snapshot()}
	if v, ok := o.engine.Round(r.ID); ok {
		st.Round = &v
	}
	return st
}

// reject reports a failed command to the caller. Failures the client cannot
// act on are logged and reported generically.
func (o *Orchestrator) reject(connectionID, command string, err error) {
	if !room.Retryable(err) {
		log.Error().Err(err).Str("connection_id", connectionID).Str("command", command).Msg("command failed")
	} else {
		log.Debug().Err(err).Str("connection_id", connectionID).Str("command", command).Msg("command rejected")
	}
	o.emit.ToConnection(connectionID, "", events.ErrorMessage, events.ErrorMessagePayload{Text: room.Message(err)})
}
