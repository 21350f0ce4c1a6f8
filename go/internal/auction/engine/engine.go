package engine

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction/events"
	"github.com/mcdev12/auctionroom/go/internal/auction/room"
	"github.com/mcdev12/auctionroom/go/internal/auction/scheduler"
	"github.com/mcdev12/auctionroom/go/internal/catalog"
)

// Config holds auction timings and the squad cap.
type Config struct {
	SquadCap          int
	Countdown         time.Duration
	TierAnnounceDelay time.Duration
	PostFinalizeDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		SquadCap:          15,
		Countdown:         30 * time.Second,
		TierAnnounceDelay: 3 * time.Second,
		PostFinalizeDelay: 2 * time.Second,
	}
}

// Rooms resolves a room id to the registry-owned room.
type Rooms interface {
	Room(id string) *room.Room
}

// Engine drives the per-room auction state machine. Like the registry it is
// confined to a single event loop; scheduled tasks re-enter through the
// same loop.
type Engine struct {
	cfg     Config
	catalog *catalog.Catalog
	rooms   Rooms
	sched   scheduler.Scheduler
	emit    events.Emitter

	rounds map[string]*RoundState
}

func New(cfg Config, cat *catalog.Catalog, rooms Rooms, sched scheduler.Scheduler, emit events.Emitter) *Engine {
	return &Engine{
		cfg:     cfg,
		catalog: cat,
		rooms:   rooms,
		sched:   sched,
		emit:    emit,
		rounds:  make(map[string]*RoundState),
	}
}

// BeginAuction opens the first tier of a STARTED room. Calling it again for
// a room that already has a round does nothing.
func (e *Engine) BeginAuction(roomID string) {
	r := e.rooms.Room(roomID)
	if r == nil || r.Status != room.StatusStarted {
		return
	}
	if _, running := e.rounds[r.ID]; running {
		return
	}

	seq := e.catalog.Sequence()
	if len(seq) == 0 {
		log.Warn().Str("room_id", r.ID).Msg("catalog is empty, ending auction immediately")
		e.emit.ToRoom(r.ID, events.AuctionEnded, events.AuctionEndedPayload{Room: r.Snapshot()})
		return
	}

	rs := &RoundState{
		Sequence: seq,
		Tier:     seq[0].Tier,
		Phase:    PhaseAnnouncingTier,
	}
	e.rounds[r.ID] = rs

	log.Info().
		Str("room_id", r.ID).
		Int("items", len(seq)).
		Str("tier", string(rs.Tier)).
		Msg("auction started")

	e.emit.ToRoom(r.ID, events.TierAnnouncement, events.TierAnnouncementPayload{
		Tier:    rs.Tier,
		Message: fmt.Sprintf("%s auction is about to begin!", tierTitle(rs.Tier)),
	})
	e.arm(r.ID, rs, e.cfg.TierAnnounceDelay, func() { e.AdvanceToNextItem(r.ID) })
}

// AdvanceToNextItem puts the next item live, announces a tier change, or
// ends the auction once the sequence is exhausted.
func (e *Engine) AdvanceToNextItem(roomID string) {
	rs, r := e.lookup(roomID)
	if rs == nil {
		return
	}

	if rs.Index >= len(rs.Sequence) {
		e.end(r, rs)
		return
	}

	next := rs.Sequence[rs.Index]
	if next.Tier != rs.Tier {
		prev := rs.Tier
		rs.Tier = next.Tier
		rs.Phase = PhaseAnnouncingTier
		log.Info().
			Str("room_id", r.ID).
			Str("tier", string(next.Tier)).
			Msg("tier changed")
		e.emit.ToRoom(r.ID, events.TierAnnouncement, events.TierAnnouncementPayload{
			Tier:    next.Tier,
			Message: fmt.Sprintf("%s completed. %s is starting now!", tierTitle(prev), tierTitle(next.Tier)),
		})
		e.arm(r.ID, rs, e.cfg.TierAnnounceDelay, func() { e.AdvanceToNextItem(r.ID) })
		return
	}

	rs.CurrentItem = &next
	rs.CurrentBid = next.BasePrice
	rs.LeaderName = ""
	rs.LeaderAffiliation = ""
	rs.LastBidAffiliation = ""
	rs.Deadline = e.sched.Now().Add(e.cfg.Countdown)
	rs.Phase = PhaseAwaitingBid
	e.arm(r.ID, rs, e.cfg.Countdown, func() { e.FinalizeItem(r.ID) })

	log.Debug().
		Str("room_id", r.ID).
		Str("item_id", next.ID).
		Float64("base_price", next.BasePrice).
		Msg("item live")
	e.emit.ToRoom(r.ID, events.ItemLive, e.itemLive(rs))
}

// PlaceBid records a bid on the live item and restarts the countdown. It
// reports whether the bid was accepted; rejected bids change nothing and
// emit nothing.
func (e *Engine) PlaceBid(roomID, connectionID string, amount float64) bool {
	rs, r := e.lookup(roomID)
	if rs == nil || rs.CurrentItem == nil || rs.Phase != PhaseAwaitingBid {
		return false
	}
	p := r.ParticipantByConnection(connectionID)
	if p == nil {
		return false
	}

	switch {
	case math.IsNaN(amount) || math.IsInf(amount, 0):
		return false
	case amount <= rs.CurrentBid:
		return false
	case amount > p.Budget:
		return false
	case p.ItemsWon >= e.cfg.SquadCap:
		return false
	case rs.LastBidAffiliation != "" && p.Affiliation == rs.LastBidAffiliation:
		return false
	}

	rs.CurrentBid = amount
	rs.LeaderName = p.DisplayName
	rs.LeaderAffiliation = p.Affiliation
	rs.LastBidAffiliation = p.Affiliation
	rs.Deadline = e.sched.Now().Add(e.cfg.Countdown)
	e.arm(r.ID, rs, e.cfg.Countdown, func() { e.FinalizeItem(r.ID) })

	log.Debug().
		Str("room_id", r.ID).
		Str("item_id", rs.CurrentItem.ID).
		Str("display_name", p.DisplayName).
		Float64("amount", amount).
		Msg("bid accepted")
	e.emit.ToRoom(r.ID, events.ItemLive, e.itemLive(rs))
	return true
}

// FinalizeItem closes the live item. The leader wins it only while below the
// squad cap with enough budget; otherwise the item goes unsold.
func (e *Engine) FinalizeItem(roomID string) {
	rs, r := e.lookup(roomID)
	if rs == nil || rs.CurrentItem == nil {
		return
	}
	rs.Phase = PhaseFinalizing
	item := *rs.CurrentItem
	price := rs.CurrentBid

	var winner *room.Participant
	if rs.LeaderName != "" {
		if p := r.Participant(rs.LeaderName); p != nil && p.ItemsWon < e.cfg.SquadCap && p.Budget >= price {
			winner = p
		}
	}

	resolved := events.ItemResolvedPayload{Item: item, Price: price}
	if winner != nil {
		winner.Budget -= price
		winner.ItemsWon++
		winner.Score += item.Rating
		winner.WonItems = append(winner.WonItems, item)

		resolved.Sold = true
		resolved.WinnerName = winner.DisplayName
		resolved.WinnerAffiliation = winner.Affiliation

		log.Info().
			Str("room_id", r.ID).
			Str("item_id", item.ID).
			Str("display_name", winner.DisplayName).
			Float64("price", price).
			Msg("item sold")
	} else {
		log.Info().
			Str("room_id", r.ID).
			Str("item_id", item.ID).
			Str("leader", rs.LeaderName).
			Msg("item unsold")
	}
	resolved.UpdatedRoom = r.Snapshot()

	e.emit.ToRoom(r.ID, events.ItemResolved, resolved)
	e.emit.ToRoom(r.ID, events.RoleProgress, roleProgress(r))

	rs.CurrentItem = nil
	rs.LeaderName = ""
	rs.LeaderAffiliation = ""
	rs.LastBidAffiliation = ""
	rs.Index++
	e.arm(r.ID, rs, e.cfg.PostFinalizeDelay, func() { e.AdvanceToNextItem(r.ID) })
}

// SyncConnection sends the live item to one connection, so a seat that
// reconnects mid-countdown sees the current bid and time left.
func (e *Engine) SyncConnection(roomID, connectionID string) {
	rs, r := e.lookup(roomID)
	if rs == nil || rs.CurrentItem == nil || rs.Phase != PhaseAwaitingBid {
		return
	}
	e.emit.ToConnection(connectionID, r.ID, events.ItemLive, e.itemLive(rs))
}

// Teardown cancels the room's pending timer and forgets its round.
func (e *Engine) Teardown(roomID string) {
	if id, ok := room.NormalizeID(roomID); ok {
		roomID = id
	}
	rs, ok := e.rounds[roomID]
	if !ok {
		return
	}
	if rs.timer != 0 {
		e.sched.Cancel(rs.timer)
	}
	delete(e.rounds, roomID)
	log.Info().Str("room_id", roomID).Msg("auction torn down")
}

// Round returns a view of the room's live round.
func (e *Engine) Round(roomID string) (RoundView, bool) {
	r := e.rooms.Room(roomID)
	if r == nil {
		return RoundView{}, false
	}
	rs, ok := e.rounds[r.ID]
	if !ok {
		return RoundView{}, false
	}
	return rs.view(e.sched.Now()), true
}

// lookup returns the round and room, tearing the round down if its room
// has gone away.
func (e *Engine) lookup(roomID string) (*RoundState, *room.Room) {
	r := e.rooms.Room(roomID)
	if r == nil {
		e.Teardown(roomID)
		return nil, nil
	}
	rs, ok := e.rounds[r.ID]
	if !ok {
		return nil, nil
	}
	return rs, r
}

func (e *Engine) end(r *room.Room, rs *RoundState) {
	rs.Phase = PhaseEnded
	delete(e.rounds, r.ID)
	log.Info().Str("room_id", r.ID).Msg("auction ended")
	e.emit.ToRoom(r.ID, events.AuctionEnded, events.AuctionEndedPayload{Room: r.Snapshot()})
}

// arm replaces the room's pending timer.
func (e *Engine) arm(roomID string, rs *RoundState, d time.Duration, task func()) {
	if rs.timer != 0 {
		e.sched.Cancel(rs.timer)
	}
	rs.timer = e.sched.Schedule(d, task)
	log.Debug().Str("room_id", roomID).Str("phase", string(rs.Phase)).Dur("after", d).Msg("round timer armed")
}

func (e *Engine) itemLive(rs *RoundState) events.ItemLivePayload {
	return events.ItemLivePayload{
		Item:              *rs.CurrentItem,
		CurrentBid:        rs.CurrentBid,
		LeaderName:        rs.LeaderName,
		LeaderAffiliation: rs.LeaderAffiliation,
		RemainingSeconds:  remainingSeconds(rs.Deadline, e.sched.Now()),
	}
}

func roleProgress(r *room.Room) []events.RoleProgressEntry {
	out := make([]events.RoleProgressEntry, 0, len(r.Participants))
	for _, p := range r.Participants {
		roles := make(map[catalog.Role]int, len(catalog.Roles))
		for _, role := range catalog.Roles {
			roles[role] = 0
		}
		for _, it := range p.WonItems {
			roles[it.Role]++
		}
		out = append(out, events.RoleProgressEntry{
			Participant: p.DisplayName,
			Affiliation: p.Affiliation,
			Total:       p.ItemsWon,
			Roles:       roles,
		})
	}
	return out
}

func tierTitle(t catalog.Tier) string {
	s := strings.ToLower(string(t))
	if s == "" {
		return "Auction"
	}
	return strings.ToUpper(s[:1]) + s[1:] + " tier"
}
