package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mcdev12/auctionroom/go/internal/config"
)

func TestOrchestratorConfig_MapsAuctionSettings(t *testing.T) {
	cfg := config.Default()
	cfg.Auction.SquadCap = 11
	cfg.Auction.Countdown = 12 * time.Second
	cfg.Auction.MaxParticipants = 4
	cfg.Affiliations = []string{"Red"}

	oc := orchestratorConfig(cfg)
	assert.Equal(t, 11, oc.Engine.SquadCap)
	assert.Equal(t, 12*time.Second, oc.Engine.Countdown)
	assert.Equal(t, 4, oc.Room.MaxParticipants)
	assert.Equal(t, 100.0, oc.Room.StartingBudget)
	assert.Equal(t, []string{"Red"}, oc.Room.Affiliations)
	assert.Positive(t, oc.InboxSize)
}

func TestJetStreamConfig_KeepsDefaultsForBlankFields(t *testing.T) {
	cfg := config.Default()
	cfg.NATS.URL = "nats://example:4222"
	cfg.NATS.Stream = ""

	js := jetStreamConfig(cfg)
	assert.Equal(t, "nats://example:4222", js.URL)
	assert.Equal(t, "AUCTION_EVENTS", js.StreamName)
	assert.Equal(t, "auction.events", js.SubjectPrefix)
}

func TestCatalogOptions(t *testing.T) {
	cfg := config.Default()
	opts := catalogOptions(cfg)
	assert.Equal(t, 100.0, opts.CurrencyDivisor)
	assert.Equal(t, 9.0, opts.PremiumThreshold)
}
