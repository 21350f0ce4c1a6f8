package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/auctionroom/go/internal/auction/gateway"
	"github.com/mcdev12/auctionroom/go/internal/auction/orchestrator"
	"github.com/mcdev12/auctionroom/go/internal/auction/outbox"
	"github.com/mcdev12/auctionroom/go/internal/catalog"
	"github.com/mcdev12/auctionroom/go/internal/config"
)

type Services struct {
	Connections  *gateway.ConnectionManager
	Orchestrator *orchestrator.Orchestrator
	Relay        *outbox.Relay
	OutboxHealth *outbox.HealthChecker
	Gateway      *gateway.Service
}

func setupServices(ctx context.Context, cfg *config.Config, cat *catalog.Catalog) (*Services, error) {
	// Gateway → Outbox → Orchestrator, then hand commands back to the gateway
	cm := gateway.NewConnectionManager(gateway.DefaultConnectionConfig())

	publisher, err := setupPublisher(ctx, cfg)
	if err != nil {
		return nil, err
	}
	relay := outbox.NewRelay(publisher, outbox.DefaultRelayConfig())

	orch := orchestrator.New(orchestratorConfig(cfg), cat, clockwork.NewRealClock(), cm, relay)
	cm.SetCommandHandler(orch)

	return &Services{
		Connections:  cm,
		Orchestrator: orch,
		Relay:        relay,
		OutboxHealth: outbox.NewHealthChecker(relay),
		Gateway:      gateway.NewService(cm, orch),
	}, nil
}

// setupPublisher mirrors room events to JetStream when a NATS URL is set and
// otherwise logs them.
func setupPublisher(ctx context.Context, cfg *config.Config) (outbox.EventPublisher, error) {
	if cfg.NATS.URL == "" {
		log.Info().Msg("NATS_URL not set, room events will only be logged")
		return outbox.NewLogPublisher(), nil
	}

	publisher, err := outbox.NewJetStreamPublisher(ctx, jetStreamConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect event publisher: %w", err)
	}
	return publisher, nil
}
