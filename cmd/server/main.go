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
	"github.com/spf13/pflag"

	router "github.com/dkeye/VideoSync/internal/adapters/http"
	"github.com/dkeye/VideoSync/internal/adapters/storage"
	"github.com/dkeye/VideoSync/internal/app"
	"github.com/dkeye/VideoSync/internal/app/orch"
	"github.com/dkeye/VideoSync/internal/config"
	"github.com/dkeye/VideoSync/internal/core"
	"github.com/dkeye/VideoSync/internal/metrics"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	policy, err := app.PolicyByName(cfg.Backpressure)
	if err != nil {
		log.Fatal().Err(err).Msg("backpressure policy")
	}
	profiles, err := storage.NewProfileStore(cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open profile store")
	}
	current, err := storage.NewConfigStore(cfg.DataPath)
	if err != nil {
		log.Fatal().Err(err).Msg("open config store")
	}

	orch := &orch.Orchestrator{
		Registry: app.NewRegistry(app.WithStrictRoles(cfg.StrictRoles)),
		Hub:      core.NewConnectionHub(),
		Policy:   policy,
		Metrics:  metrics.New(),
	}

	r := router.SetupRouter(ctx, cfg, orch, router.Stores{Profiles: profiles, Current: current})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("VideoSync server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

func setupLogging(cfg *config.Config) {
	if cfg.LogFormat == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}
