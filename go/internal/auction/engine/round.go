package engine

import (
	"math"
	"time"

	"github.com/mcdev12/auctionroom/go/internal/auction/scheduler"
	"github.com/mcdev12/auctionroom/go/internal/catalog"
)

// Phase is the auction state of a room.
type Phase string

const (
	PhaseIdle           Phase = "IDLE"
	PhaseAnnouncingTier Phase = "ANNOUNCING_TIER"
	PhaseAwaitingBid    Phase = "AWAITING_BID"
	PhaseFinalizing     Phase = "FINALIZING"
	PhaseEnded          Phase = "ENDED"
)

// RoundState is the live auction progress of one started room.
type RoundState struct {
	Sequence           []catalog.Item
	Index              int
	CurrentItem        *catalog.Item
	CurrentBid         float64
	LeaderName         string
	LeaderAffiliation  string
	LastBidAffiliation string
	Deadline           time.Time
	Tier               catalog.Tier
	Phase              Phase

	// timer is the single pending task for this room: an announcement
	// delay, a countdown, or the post-finalize pause.
	timer scheduler.TimerID
}

// RoundView is a read-only copy of a round for status endpoints.
type RoundView struct {
	Phase             Phase         `json:"phase"`
	Tier              catalog.Tier  `json:"tier"`
	Item              *catalog.Item `json:"item,omitempty"`
	CurrentBid        float64       `json:"currentBid"`
	LeaderName        string        `json:"leaderName"`
	LeaderAffiliation string        `json:"leaderAffiliation"`
	RemainingSeconds  int           `json:"remainingSeconds"`
	ItemNumber        int           `json:"itemNumber"`
	TotalItems        int           `json:"totalItems"`
}

func (rs *RoundState) view(now time.Time) RoundView {
	v := RoundView{
		Phase:             rs.Phase,
		Tier:              rs.Tier,
		CurrentBid:        rs.CurrentBid,
		LeaderName:        rs.LeaderName,
		LeaderAffiliation: rs.LeaderAffiliation,
		ItemNumber:        rs.Index + 1,
		TotalItems:        len(rs.Sequence),
	}
	if rs.CurrentItem != nil {
		item := *rs.CurrentItem
		v.Item = &item
		v.RemainingSeconds = remainingSeconds(rs.Deadline, now)
	}
	return v
}

func remainingSeconds(deadline, now time.Time) int {
	left := deadline.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}
