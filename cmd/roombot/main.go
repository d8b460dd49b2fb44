package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/genudine/ps2-discord-room-bot/internal/adapters/discord"
	router "github.com/genudine/ps2-discord-room-bot/internal/adapters/http"
	"github.com/genudine/ps2-discord-room-bot/internal/app"
	"github.com/genudine/ps2-discord-room-bot/internal/app/orch"
	"github.com/genudine/ps2-discord-room-bot/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("roombot exited")
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	setupLogging(cfg)

	reg, err := app.NewWatchRegistry(cfg.WatchEntries(os.Environ()))
	if err != nil {
		return err
	}
	if reg.Len() == 0 {
		log.Warn().Str("module", "main").Str("prefix", cfg.WatchPrefix).Msg("no watch channels configured")
	}

	session, err := discord.NewSession(cfg.DiscordToken)
	if err != nil {
		return err
	}
	gw := discord.NewGateway(session)
	pruner := app.NewRoomPruner(gw, cfg.PruneDelay)
	sweeper := app.NewSweeper(reg, pruner, cfg.SweepInterval, cfg.SweepParallelism)
	events := orch.New(reg, app.NewRoomCreator(gw), pruner, cfg.EventBuffer)

	bot := &discord.Bot{Session: session, Events: events, OnReady: sweeper}
	if err := bot.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := bot.Close(); err != nil {
			log.Error().Err(err).Str("module", "main").Msg("discord close")
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		events.Run(gctx)
		return nil
	})

	if cfg.HTTPPort > 0 {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		srv := &http.Server{
			Addr:              addr,
			Handler:           router.SetupRouter(cfg.Mode, router.Deps{Registry: reg, Pruner: pruner, Sweeper: sweeper}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			log.Info().Str("module", "main").Str("addr", addr).Msg("admin server started")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("admin server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	log.Info().Str("module", "main").Int("guilds", reg.Len()).Msg("roombot running")
	err = g.Wait()
	log.Info().Str("module", "main").Msg("shutting down")
	return err
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Err(err).Str("module", "main").Str("log_level", cfg.LogLevel).Msg("unknown log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Mode == "release" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}
