package room

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/auctionroom/go/internal/auction/events"
	"github.com/mcdev12/auctionroom/go/internal/auction/scheduler"
)

func sequentialIDs(ids ...string) func() (string, error) {
	i := 0
	return func() (string, error) {
		if i >= len(ids) {
			return "", fmt.Errorf("no more ids")
		}
		id := ids[i]
		i++
		return id, nil
	}
}

func newTestRegistry(t *testing.T, cfg Config, ids ...string) (*Registry, *scheduler.Manual, *events.Recorder) {
	t.Helper()
	if len(ids) == 0 {
		ids = []string{"ROOM01", "ROOM02", "ROOM03"}
	}
	sched := scheduler.NewManual()
	rec := events.NewRecorder()
	return NewRegistry(cfg, sched, rec, WithIDGenerator(sequentialIDs(ids...))), sched, rec
}

func hostCount(r *Room) int {
	n := 0
	for _, p := range r.Participants {
		if p.IsHost {
			n++
		}
	}
	return n
}

func TestCreateRoom(t *testing.T) {
	reg, _, rec := newTestRegistry(t, DefaultConfig())

	snap, err := reg.CreateRoom("c1", "  alice  ")
	require.NoError(t, err)
	assert.Equal(t, "ROOM01", snap.ID)
	assert.Equal(t, string(StatusWaiting), snap.Status)
	require.Len(t, snap.Participants, 1)
	assert.Equal(t, "alice", snap.Participants[0].DisplayName)
	assert.True(t, snap.Participants[0].IsHost)
	assert.Equal(t, 100.0, snap.Participants[0].Budget)

	assert.Equal(t, "ROOM01", rec.Subscriptions["c1"])
	joined, ok := rec.Last(events.RoomJoined)
	require.True(t, ok)
	assert.Equal(t, "c1", joined.ConnectionID)
}

func TestCreateRoom_RejectsInvalidNames(t *testing.T) {
	reg, _, rec := newTestRegistry(t, DefaultConfig())

	for _, name := range []string{"", "   ", strings.Repeat("x", MaxNameLength+1)} {
		_, err := reg.CreateRoom("c1", name)
		require.ErrorIs(t, err, ErrInvalidName)
		assert.ErrorIs(t, err, ErrInvalidInput)
	}
	assert.Equal(t, 0, reg.Len())
	assert.Empty(t, rec.Events)
}

func TestCreateRoom_RegeneratesOnCollision(t *testing.T) {
	reg, _, _ := newTestRegistry(t, DefaultConfig(), "AAAAAA", "AAAAAA", "BBBBBB")

	first, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)
	second, err := reg.CreateRoom("c2", "bob")
	require.NoError(t, err)

	assert.Equal(t, "AAAAAA", first.ID)
	assert.Equal(t, "BBBBBB", second.ID)
}

func TestJoinRoom_Errors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxParticipants = 2
	reg, _, _ := newTestRegistry(t, cfg)
	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)

	_, err = reg.JoinRoom("ROOM01", "c2", " ")
	assert.ErrorIs(t, err, ErrInvalidName)

	_, err = reg.JoinRoom("ROOM", "c2", "bob")
	assert.ErrorIs(t, err, ErrInvalidRoomID)

	_, err = reg.JoinRoom("ZZZZZZ", "c2", "bob")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = reg.JoinRoom("room01", "c2", "bob")
	require.NoError(t, err, "room ids match case-insensitively")

	_, err = reg.JoinRoom("ROOM01", "c3", "carol")
	assert.ErrorIs(t, err, ErrRoomFull)
	assert.ErrorIs(t, err, ErrPreconditionFailed)
}

func TestJoinRoom_RejectsNewParticipantAfterStart(t *testing.T) {
	reg, _, _ := newTestRegistry(t, DefaultConfig())
	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)
	reg.SelectAffiliation("ROOM01", "c1", "Mumbai Indians")
	require.True(t, reg.StartGame("ROOM01", "c1"))

	_, err = reg.JoinRoom("ROOM01", "c2", "bob")
	assert.ErrorIs(t, err, ErrGameAlreadyStarted)
}

func TestJoinRoom_ExistingNameRebindsSeat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxParticipants = 2
	reg, _, rec := newTestRegistry(t, cfg)
	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)
	_, err = reg.JoinRoom("ROOM01", "c2", "bob")
	require.NoError(t, err)
	reg.SelectAffiliation("ROOM01", "c1", "Mumbai Indians")
	reg.SelectAffiliation("ROOM01", "c2", "Chennai Super Kings")
	require.True(t, reg.StartGame("ROOM01", "c1"))

	// Full and started, but the seat already exists.
	rec.Reset()
	snap, err := reg.JoinRoom("ROOM01", "c9", "bob")
	require.NoError(t, err)
	require.Len(t, snap.Participants, 2)
	assert.Equal(t, "c9", snap.Participants[1].ConnectionID)
	assert.True(t, snap.Participants[1].Connected)
	assert.Equal(t, "Chennai Super Kings", snap.Participants[1].Affiliation)

	assert.Len(t, rec.OfType(events.RoomJoined), 1)
	assert.Len(t, rec.OfType(events.RoomUpdated), 1)
	assert.Equal(t, "ROOM01", rec.Subscriptions["c9"])
}

func TestParticipantCapAndSingleHost(t *testing.T) {
	reg, _, _ := newTestRegistry(t, DefaultConfig())
	_, err := reg.CreateRoom("host", "p0")
	require.NoError(t, err)

	for i := 1; i < 15; i++ {
		_, _ = reg.JoinRoom("ROOM01", fmt.Sprintf("c%d", i), fmt.Sprintf("p%d", i))
		room := reg.Room("ROOM01")
		assert.LessOrEqual(t, len(room.Participants), 10)
		assert.Equal(t, 1, hostCount(room))
	}
	assert.Len(t, reg.Room("ROOM01").Participants, 10)
}

func TestSelectAffiliation(t *testing.T) {
	reg, _, rec := newTestRegistry(t, DefaultConfig())
	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)
	_, err = reg.JoinRoom("ROOM01", "c2", "bob")
	require.NoError(t, err)

	rec.Reset()
	reg.SelectAffiliation("ROOM01", "c1", "Mumbai Indians")
	assert.Equal(t, "Mumbai Indians", reg.Room("ROOM01").Participant("alice").Affiliation)
	assert.Len(t, rec.OfType(events.RoomUpdated), 1)

	rec.Reset()
	reg.SelectAffiliation("ROOM01", "c2", "mumbai indians")
	reg.SelectAffiliation("ROOM01", "ghost", "Delhi Capitals")
	reg.SelectAffiliation("NOROOM", "c2", "Delhi Capitals")
	reg.SelectAffiliation("ROOM01", "c2", "  ")
	assert.Empty(t, reg.Room("ROOM01").Participant("bob").Affiliation)
	assert.Empty(t, rec.Events, "failed selections are silent")
}

func TestSelectAffiliation_RestrictedList(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Affiliations = []string{"Mumbai Indians", "Chennai Super Kings"}
	reg, _, _ := newTestRegistry(t, cfg)
	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)

	reg.SelectAffiliation("ROOM01", "c1", "Springfield Isotopes")
	assert.Empty(t, reg.Room("ROOM01").Participant("alice").Affiliation)

	reg.SelectAffiliation("ROOM01", "c1", "chennai super kings")
	assert.Equal(t, "Chennai Super Kings", reg.Room("ROOM01").Participant("alice").Affiliation)
}

func TestSelectAffiliation_LockedAfterStart(t *testing.T) {
	reg, _, _ := newTestRegistry(t, DefaultConfig())
	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)
	reg.SelectAffiliation("ROOM01", "c1", "Mumbai Indians")
	require.True(t, reg.StartGame("ROOM01", "c1"))

	reg.SelectAffiliation("ROOM01", "c1", "Delhi Capitals")
	assert.Equal(t, "Mumbai Indians", reg.Room("ROOM01").Participant("alice").Affiliation)
}

func TestStartGame(t *testing.T) {
	reg, _, rec := newTestRegistry(t, DefaultConfig())
	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)
	_, err = reg.JoinRoom("ROOM01", "c2", "bob")
	require.NoError(t, err)
	reg.SelectAffiliation("ROOM01", "c1", "Mumbai Indians")

	assert.False(t, reg.StartGame("ROOM01", "c1"), "bob has no affiliation")
	reg.SelectAffiliation("ROOM01", "c2", "Delhi Capitals")
	assert.False(t, reg.StartGame("ROOM01", "c2"), "only the host may start")
	assert.False(t, reg.StartGame("NOROOM", "c1"))

	room := reg.Room("ROOM01")
	room.Participants[1].Budget = 3
	room.Participants[1].ItemsWon = 4

	rec.Reset()
	require.True(t, reg.StartGame("ROOM01", "c1"))
	assert.Equal(t, StatusStarted, room.Status)
	for _, p := range room.Participants {
		assert.Equal(t, 100.0, p.Budget)
		assert.Zero(t, p.ItemsWon)
		assert.Zero(t, p.Score)
		assert.Empty(t, p.WonItems)
	}
	assert.Len(t, rec.OfType(events.GameStarted), 1)

	assert.False(t, reg.StartGame("ROOM01", "c1"), "already started")
}

func TestDisconnect_RemovesAfterGraceAndPromotesHost(t *testing.T) {
	reg, sched, rec := newTestRegistry(t, DefaultConfig())
	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)
	_, err = reg.JoinRoom("ROOM01", "c2", "bob")
	require.NoError(t, err)

	rec.Reset()
	reg.HandleDisconnect("c1")
	room := reg.Room("ROOM01")
	assert.False(t, room.Participant("alice").Connected)
	assert.Len(t, rec.OfType(events.RoomUpdated), 1, "disconnect is broadcast immediately")

	sched.Advance(19 * time.Second)
	require.NotNil(t, room.Participant("alice"))

	sched.Advance(time.Second)
	assert.Nil(t, room.Participant("alice"))
	require.Len(t, room.Participants, 1)
	assert.True(t, room.Participants[0].IsHost)
	assert.Equal(t, 1, hostCount(room))
}

func TestDisconnect_ReconnectCancelsRemoval(t *testing.T) {
	reg, sched, _ := newTestRegistry(t, DefaultConfig())
	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)
	_, err = reg.JoinRoom("ROOM01", "c2", "bob")
	require.NoError(t, err)

	reg.HandleDisconnect("c2")
	sched.Advance(10 * time.Second)
	_, err = reg.JoinRoom("ROOM01", "c3", "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, sched.Pending())

	sched.Advance(time.Minute)
	bob := reg.Room("ROOM01").Participant("bob")
	require.NotNil(t, bob)
	assert.True(t, bob.Connected)
	assert.Equal(t, "c3", bob.ConnectionID)
}

func TestDisconnect_SecondDisconnectRestartsGrace(t *testing.T) {
	reg, sched, _ := newTestRegistry(t, DefaultConfig())
	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)
	_, err = reg.JoinRoom("ROOM01", "c2", "bob")
	require.NoError(t, err)

	reg.HandleDisconnect("c2")
	sched.Advance(15 * time.Second)
	_, err = reg.JoinRoom("ROOM01", "c3", "bob")
	require.NoError(t, err)
	reg.HandleDisconnect("c3")
	require.Equal(t, 1, sched.Pending())

	sched.Advance(15 * time.Second)
	assert.NotNil(t, reg.Room("ROOM01").Participant("bob"))
	sched.Advance(5 * time.Second)
	assert.Nil(t, reg.Room("ROOM01").Participant("bob"))
}

func TestDisconnect_EmptyRoomIsDeleted(t *testing.T) {
	reg, sched, _ := newTestRegistry(t, DefaultConfig())
	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)

	var deleted []string
	reg.OnRoomDeleted(func(id string) { deleted = append(deleted, id) })

	reg.HandleDisconnect("c1")
	reg.HandleDisconnect("c1")
	require.Equal(t, 1, sched.Pending())

	sched.Advance(20 * time.Second)
	assert.Nil(t, reg.Room("ROOM01"))
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, []string{"ROOM01"}, deleted)
	assert.Empty(t, reg.Rooms())
}

func TestRoomsOrderedByID(t *testing.T) {
	reg, _, _ := newTestRegistry(t, DefaultConfig(), "ZZZZZZ", "AAAAAA")
	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)
	_, err = reg.CreateRoom("c2", "bob")
	require.NoError(t, err)

	rooms := reg.Rooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "AAAAAA", rooms[0].ID)
	assert.Equal(t, "ZZZZZZ", rooms[1].ID)
}

func TestGenerateID(t *testing.T) {
	for i := 0; i < 50; i++ {
		id, err := GenerateID()
		require.NoError(t, err)
		require.Len(t, id, IDLength)
		norm, ok := NormalizeID(strings.ToLower(id))
		require.True(t, ok)
		assert.Equal(t, id, norm)
		assert.NotContainsf(t, id, "O", "ambiguous character in %s", id)
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Room not found", Message(ErrRoomNotFound))
	assert.Equal(t, "Room is full", Message(fmt.Errorf("join: %w", ErrRoomFull)))
	assert.True(t, Retryable(ErrGameAlreadyStarted))
	assert.False(t, Retryable(fmt.Errorf("boom")))
}

func TestCreateRoom_ReleasesSeatInPreviousRoom(t *testing.T) {
	reg, sched, rec := newTestRegistry(t, DefaultConfig())

	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)
	_, err = reg.JoinRoom("ROOM01", "c2", "bob")
	require.NoError(t, err)
	rec.Reset()

	_, err = reg.CreateRoom("c1", "alice")
	require.NoError(t, err)

	a := reg.Room("ROOM01")
	alice := a.Participant("alice")
	require.NotNil(t, alice)
	assert.False(t, alice.Connected)
	assert.Empty(t, alice.ConnectionID)
	assert.Nil(t, a.ParticipantByConnection("c1"), "commands from c1 no longer act on the old room")

	updated, ok := rec.Last(events.RoomUpdated)
	require.True(t, ok)
	assert.Equal(t, "ROOM01", updated.RoomID)

	reg.SelectAffiliation("ROOM01", "c1", "Red")
	assert.Empty(t, alice.Affiliation)

	sched.Advance(DefaultConfig().ReconnectGrace)
	assert.Nil(t, a.Participant("alice"))
	assert.True(t, a.Participant("bob").IsHost)
	assert.Equal(t, 1, hostCount(a))

	b := reg.Room("ROOM02")
	require.NotNil(t, b)
	assert.True(t, b.Participant("alice").Connected)
}

func TestJoinRoom_ReleasesSeatInPreviousRoom(t *testing.T) {
	reg, sched, _ := newTestRegistry(t, DefaultConfig())

	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)
	_, err = reg.CreateRoom("c2", "bob")
	require.NoError(t, err)

	_, err = reg.JoinRoom("ROOM02", "c1", "alice")
	require.NoError(t, err)

	assert.False(t, reg.Room("ROOM01").Participant("alice").Connected)
	assert.True(t, reg.Room("ROOM02").Participant("alice").Connected)

	sched.Advance(DefaultConfig().ReconnectGrace)
	assert.Nil(t, reg.Room("ROOM01"), "the abandoned room is deleted once its only seat expires")
	assert.Equal(t, 1, reg.Len())
}

func TestJoinRoom_FailedJoinKeepsPreviousSeat(t *testing.T) {
	reg, _, _ := newTestRegistry(t, DefaultConfig())

	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)

	_, err = reg.JoinRoom("NOPE22", "c1", "alice")
	require.ErrorIs(t, err, ErrRoomNotFound)
	assert.True(t, reg.Room("ROOM01").Participant("alice").Connected)
}

func TestRoomJoinedCarriesRoomID(t *testing.T) {
	reg, _, rec := newTestRegistry(t, DefaultConfig())

	_, err := reg.CreateRoom("c1", "alice")
	require.NoError(t, err)
	_, err = reg.JoinRoom("room01", "c2", "bob")
	require.NoError(t, err)

	joined := rec.OfType(events.RoomJoined)
	require.Len(t, joined, 2)
	for _, e := range joined {
		assert.Equal(t, "ROOM01", e.RoomID)
	}
	assert.Equal(t, "c2", joined[1].ConnectionID)
}
