package main

import (
	"github.com/mcdev12/auctionroom/go/internal/auction/engine"
	"github.com/mcdev12/auctionroom/go/internal/auction/orchestrator"
	"github.com/mcdev12/auctionroom/go/internal/auction/outbox"
	"github.com/mcdev12/auctionroom/go/internal/auction/room"
	"github.com/mcdev12/auctionroom/go/internal/catalog"
	"github.com/mcdev12/auctionroom/go/internal/config"
)

func catalogOptions(cfg *config.Config) catalog.LoadOptions {
	return catalog.LoadOptions{
		CurrencyDivisor:  cfg.Catalog.CurrencyDivisor,
		PremiumThreshold: cfg.Auction.PremiumRatingThreshold,
	}
}

func orchestratorConfig(cfg *config.Config) orchestrator.Config {
	oc := orchestrator.DefaultConfig()
	oc.Room = room.Config{
		MaxParticipants: cfg.Auction.MaxParticipants,
		StartingBudget:  cfg.Auction.StartingBudget,
		ReconnectGrace:  cfg.Auction.ReconnectGrace,
		Affiliations:    cfg.Affiliations,
	}
	oc.Engine = engine.Config{
		SquadCap:          cfg.Auction.SquadCap,
		Countdown:         cfg.Auction.Countdown,
		TierAnnounceDelay: cfg.Auction.TierAnnounceDelay,
		PostFinalizeDelay: cfg.Auction.PostFinalizeDelay,
	}
	return oc
}

func jetStreamConfig(cfg *config.Config) outbox.JetStreamConfig {
	js := outbox.DefaultJetStreamConfig()
	js.URL = cfg.NATS.URL
	if cfg.NATS.Stream != "" {
		js.StreamName = cfg.NATS.Stream
	}
	if cfg.NATS.SubjectPrefix != "" {
		js.SubjectPrefix = cfg.NATS.SubjectPrefix
	}
	return js
}
