package room

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction/events"
	"github.com/mcdev12/auctionroom/go/internal/auction/scheduler"
)

// MaxNameLength caps display names, in runes.
const MaxNameLength = 32

const maxIDAttempts = 16

// Config holds the registry's room policy.
type Config struct {
	MaxParticipants int
	StartingBudget  float64
	ReconnectGrace  time.Duration
	// Affiliations restricts selectable team names when non-empty.
	Affiliations []string
}

func DefaultConfig() Config {
	return Config{
		MaxParticipants: 10,
		StartingBudget:  100,
		ReconnectGrace:  20 * time.Second,
	}
}

type graceKey struct {
	roomID      string
	displayName string
}

// Registry owns every room and participant. It is not safe for concurrent
// use; all calls, including scheduled grace expiries, must happen on the
// owning event loop.
type Registry struct {
	cfg   Config
	sched scheduler.Scheduler
	emit  events.Emitter
	newID func() (string, error)

	rooms     map[string]*Room
	grace     map[graceKey]scheduler.TimerID
	onDeleted func(roomID string)
}

// Option customizes a Registry.
type Option func(*Registry)

// WithIDGenerator replaces the random room code generator.
func WithIDGenerator(gen func() (string, error)) Option {
	return func(r *Registry) { r.newID = gen }
}

func NewRegistry(cfg Config, sched scheduler.Scheduler, emit events.Emitter, opts ...Option) *Registry {
	r := &Registry{
		cfg:   cfg,
		sched: sched,
		emit:  emit,
		newID: GenerateID,
		rooms: make(map[string]*Room),
		grace: make(map[graceKey]scheduler.TimerID),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnRoomDeleted registers a hook run after an empty room is removed.
func (r *Registry) OnRoomDeleted(fn func(roomID string)) {
	r.onDeleted = fn
}

// Room returns the live room for id, or nil.
func (r *Registry) Room(id string) *Room {
	id, ok := NormalizeID(id)
	if !ok {
		return nil
	}
	return r.rooms[id]
}

// Rooms returns snapshots of every room ordered by id.
func (r *Registry) Rooms() []events.RoomSnapshot {
	out := make([]events.RoomSnapshot, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Len() int {
	return len(r.rooms)
}

// CreateRoom opens a WAITING room with the caller as host.
func (r *Registry) CreateRoom(connectionID, displayName string) (events.RoomSnapshot, error) {
	name, err := validName(displayName)
	if err != nil {
		return events.RoomSnapshot{}, err
	}

	id, err := r.allocateID()
	if err != nil {
		return events.RoomSnapshot{}, err
	}

	room := &Room{
		ID:     id,
		Status: StatusWaiting,
		Participants: []*Participant{
			r.newParticipant(connectionID, name, true),
		},
	}
	r.releaseElsewhere(connectionID, id)
	r.rooms[id] = room

	log.Info().
		Str("room_id", id).
		Str("connection_id", connectionID).
		Str("display_name", name).
		Msg("room created")

	snap := room.Snapshot()
	r.emit.Subscribe(connectionID, id)
	r.emit.ToConnection(connectionID, id, events.RoomJoined, snap)
	return snap, nil
}

// JoinRoom seats a new participant or, when the display name is already
// present, rebinds that seat to the new connection. Rebinding succeeds even
// when the room is full or started.
func (r *Registry) JoinRoom(roomID, connectionID, displayName string) (events.RoomSnapshot, error) {
	name, err := validName(displayName)
	if err != nil {
		return events.RoomSnapshot{}, err
	}
	id, ok := NormalizeID(roomID)
	if !ok {
		return events.RoomSnapshot{}, ErrInvalidRoomID
	}
	room, ok := r.rooms[id]
	if !ok {
		return events.RoomSnapshot{}, ErrRoomNotFound
	}

	if p := room.Participant(name); p != nil {
		p.ConnectionID = connectionID
		p.Connected = true
		r.cancelGrace(id, name)
		log.Info().
			Str("room_id", id).
			Str("connection_id", connectionID).
			Str("display_name", name).
			Msg("participant reconnected")
	} else {
		if room.Status == StatusStarted {
			return events.RoomSnapshot{}, ErrGameAlreadyStarted
		}
		if len(room.Participants) >= r.cfg.MaxParticipants {
			return events.RoomSnapshot{}, ErrRoomFull
		}
		room.Participants = append(room.Participants, r.newParticipant(connectionID, name, false))
		log.Info().
			Str("room_id", id).
			Str("connection_id", connectionID).
			Str("display_name", name).
			Int("participants", len(room.Participants)).
			Msg("participant joined")
	}

	r.releaseElsewhere(connectionID, id)

	snap := room.Snapshot()
	r.emit.Subscribe(connectionID, id)
	r.emit.ToConnection(connectionID, id, events.RoomJoined, snap)
	r.emit.ToRoom(id, events.RoomUpdated, snap)
	return snap, nil
}

// SelectAffiliation sets the caller's team. Any failed precondition is a
// silent no-op.
func (r *Registry) SelectAffiliation(roomID, connectionID, name string) {
	room := r.Room(roomID)
	if room == nil || room.Status != StatusWaiting {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	if len(r.cfg.Affiliations) > 0 {
		canonical, ok := r.allowedAffiliation(name)
		if !ok {
			return
		}
		name = canonical
	}

	p := room.ParticipantByConnection(connectionID)
	if p == nil {
		return
	}
	for _, other := range room.Participants {
		if other != p && strings.EqualFold(other.Affiliation, name) {
			return
		}
	}

	p.Affiliation = name
	log.Info().
		Str("room_id", room.ID).
		Str("display_name", p.DisplayName).
		Str("affiliation", name).
		Msg("affiliation selected")
	r.emit.ToRoom(room.ID, events.RoomUpdated, room.Snapshot())
}

// HandleDisconnect marks every seat bound to connectionID as disconnected
// and arms its grace timer.
func (r *Registry) HandleDisconnect(connectionID string) {
	for _, room := range r.rooms {
		r.releaseSeats(room, connectionID, false)
	}
}

// releaseElsewhere disconnects the seats connectionID holds outside keepRoomID.
// A connection receives broadcasts for one room at a time, so a seat it left
// behind would otherwise look connected while hearing nothing.
func (r *Registry) releaseElsewhere(connectionID, keepRoomID string) {
	for id, room := range r.rooms {
		if id == keepRoomID {
			continue
		}
		r.releaseSeats(room, connectionID, true)
	}
}

// releaseSeats marks the room's seats bound to connectionID disconnected. With
// unbind the seat also forgets the connection, so commands from it no longer
// act on this room.
func (r *Registry) releaseSeats(room *Room, connectionID string, unbind bool) {
	if connectionID == "" {
		return
	}
	changed := false
	for _, p := range room.Participants {
		if p.ConnectionID != connectionID || !p.Connected {
			continue
		}
		p.Connected = false
		if unbind {
			p.ConnectionID = ""
		}
		changed = true
		r.armGrace(room.ID, p.DisplayName)

		log.Info().
			Str("room_id", room.ID).
			Str("connection_id", connectionID).
			Str("display_name", p.DisplayName).
			Bool("moved", unbind).
			Dur("grace", r.cfg.ReconnectGrace).
			Msg("participant disconnected")
	}
	if changed {
		r.emit.ToRoom(room.ID, events.RoomUpdated, room.Snapshot())
	}
}

// StartGame moves a WAITING room to STARTED. It reports false, changing
// nothing, unless the caller is the host and every participant has picked
// an affiliation.
func (r *Registry) StartGame(roomID, connectionID string) bool {
	room := r.Room(roomID)
	if room == nil || room.Status != StatusWaiting {
		return false
	}
	caller := room.ParticipantByConnection(connectionID)
	if caller == nil || !caller.IsHost {
		return false
	}
	for _, p := range room.Participants {
		if p.Affiliation == "" {
			return false
		}
	}

	for _, p := range room.Participants {
		p.Budget = r.cfg.StartingBudget
		p.ItemsWon = 0
		p.Score = 0
		p.WonItems = nil
	}
	room.Status = StatusStarted

	log.Info().
		Str("room_id", room.ID).
		Int("participants", len(room.Participants)).
		Msg("game started")
	r.emit.ToRoom(room.ID, events.GameStarted, room.Snapshot())
	return true
}

func (r *Registry) newParticipant(connectionID, name string, host bool) *Participant {
	return &Participant{
		ConnectionID: connectionID,
		DisplayName:  name,
		IsHost:       host,
		Budget:       r.cfg.StartingBudget,
		Connected:    true,
	}
}

func (r *Registry) allocateID() (string, error) {
	for i := 0; i < maxIDAttempts; i++ {
		id, err := r.newID()
		if err != nil {
			return "", fmt.Errorf("failed to generate room id: %w", err)
		}
		if _, taken := r.rooms[id]; !taken {
			return id, nil
		}
		log.Debug().Str("room_id", id).Msg("room id collision, regenerating")
	}
	return "", fmt.Errorf("failed to allocate room id after %d attempts", maxIDAttempts)
}

func (r *Registry) allowedAffiliation(name string) (string, bool) {
	for _, a := range r.cfg.Affiliations {
		if strings.EqualFold(a, name) {
			return a, true
		}
	}
	return "", false
}

func (r *Registry) armGrace(roomID, name string) {
	key := graceKey{roomID: roomID, displayName: name}
	if prev, ok := r.grace[key]; ok {
		r.sched.Cancel(prev)
	}
	r.grace[key] = r.sched.Schedule(r.cfg.ReconnectGrace, func() {
		r.expireGrace(roomID, name)
	})
}

func (r *Registry) cancelGrace(roomID, name string) {
	key := graceKey{roomID: roomID, displayName: name}
	if id, ok := r.grace[key]; ok {
		r.sched.Cancel(id)
		delete(r.grace, key)
	}
}

// expireGrace re-reads the seat: a participant that reconnected in the
// meantime is left alone.
func (r *Registry) expireGrace(roomID, name string) {
	delete(r.grace, graceKey{roomID: roomID, displayName: name})

	room, ok := r.rooms[roomID]
	if !ok {
		return
	}
	p := room.Participant(name)
	if p == nil || p.Connected {
		return
	}

	room.remove(name)
	log.Info().
		Str("room_id", roomID).
		Str("display_name", name).
		Msg("participant removed after grace period")

	if len(room.Participants) == 0 {
		r.deleteRoom(roomID)
		return
	}
	if p.IsHost {
		room.Participants[0].IsHost = true
		log.Info().
			Str("room_id", roomID).
			Str("display_name", room.Participants[0].DisplayName).
			Msg("host promoted")
	}
	r.emit.ToRoom(roomID, events.RoomUpdated, room.Snapshot())
}

func (r *Registry) deleteRoom(roomID string) {
	delete(r.rooms, roomID)
	for key, id := range r.grace {
		if key.roomID == roomID {
			r.sched.Cancel(id)
			delete(r.grace, key)
		}
	}
	log.Info().Str("room_id", roomID).Msg("room deleted")
	if r.onDeleted != nil {
		r.onDeleted(roomID)
	}
}

func validName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" || utf8.RuneCountInString(name) > MaxNameLength {
		return "", ErrInvalidName
	}
	return name, nil
}
