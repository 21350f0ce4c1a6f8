package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mcdev12/auctionroom/go/internal/catalog"
	"github.com/mcdev12/auctionroom/go/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("Could not load .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg.Log)

	cat, err := catalog.Load(cfg.Catalog.Path, catalogOptions(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load catalog")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	services, err := setupServices(ctx, cfg, cat)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up services")
	}
	server := setupServer(cfg, services)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return services.Orchestrator.Run(gctx)
	})
	g.Go(func() error {
		services.Relay.Run(gctx)
		return nil
	})
	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Int("items", cat.Len()).Msg("auction server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down auction server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("auction server stopped with error")
	}
	if err := services.Relay.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close event publisher")
	}
	log.Info().Msg("auction server stopped")
}

func setupLogging(cfg config.LogConfig) {
	if cfg.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		log.Warn().Str("level", cfg.Level).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
