// main is the entry point of the Warden application.
// It initializes the configuration, logger, database, GeoIP provider,
// starts the monitor loop and the ops HTTP server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wardenhq/warden/internal/bus"
	"github.com/wardenhq/warden/internal/chat"
	"github.com/wardenhq/warden/internal/config"
	"github.com/wardenhq/warden/internal/console"
	"github.com/wardenhq/warden/internal/feed"
	"github.com/wardenhq/warden/internal/game"
	"github.com/wardenhq/warden/internal/geoip"
	"github.com/wardenhq/warden/internal/logger"
	"github.com/wardenhq/warden/internal/models"
	"github.com/wardenhq/warden/internal/monitor"
	"github.com/wardenhq/warden/internal/server"
	"github.com/wardenhq/warden/internal/storage"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)
	log.Info().Msg("Starting warden service...")

	// GeoIP Update
	var geoProvider *geoip.Provider
	if cfg.GeoIP.Enabled {
		log.Info().Msg("Checking GeoIP database...")
		if err := geoip.EnsureDB(cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
			log.Error().Err(err).Msg("Failed to download GeoIP database")
		}

		var err error
		geoProvider, err = geoip.Open(cfg.GeoIP.Path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
			geoProvider = nil
		} else {
			defer func() {
				if err := geoProvider.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing GeoIP provider")
				}
			}()
		}
	}

	// Database
	store, err := storage.New(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()

	// Event bus (optional)
	var mirror *bus.Publisher
	if cfg.Bus.URL != "" {
		mirror, err = bus.Connect(cfg.Bus.URL, cfg.Bus.Subject)
		if err != nil {
			log.Error().Err(err).Msg("Failed to connect event bus, mirroring disabled")
			mirror = nil
		} else {
			defer mirror.Close()
		}
	}

	// Collaborators
	sink := chat.NewClient(cfg.Chat.APIBase, cfg.Chat.Token, cfg.Chat.Timeout)
	capturer := console.New(cfg.Console.Session, cfg.Console.Lines)

	opts := monitor.Options{
		Console:       capturer,
		Sink:          sink,
		Store:         store,
		StatusChannel: cfg.Chat.StatusChannel,
		BansChannel:   cfg.Chat.BansChannel,
		Interval:      cfg.Monitor.Interval,
	}

	if cfg.Feed.Enabled() {
		opts.Feed = feed.NewClient(cfg.Feed.APIBase, cfg.Feed.Token, cfg.Feed.ServerID, cfg.Feed.Timeout)
	} else {
		log.Warn().Msg("Ban feed not configured, ban notifications disabled")
	}

	if mirror != nil {
		opts.Mirror = mirror
	}
	if geoProvider != nil {
		opts.Geo = geoProvider
	}
	if cfg.Game.Enabled() {
		gameCfg := cfg.Game
		opts.Probe = func() (*models.ServerInfo, error) {
			return game.Probe(gameCfg)
		}
	}

	mon, err := monitor.New(opts)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize monitor")
	}

	// Monitor loop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		mon.Run(ctx)
		close(done)
	}()

	// Ops HTTP API (optional)
	var httpServer *http.Server
	if cfg.Server.Address != "" {
		srvHandler := server.New(store, mon, cfg)

		httpServer = &http.Server{
			Addr:         cfg.Server.Address,
			Handler:      srvHandler.Run(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			log.Info().Str("address", cfg.Server.Address).Msg("Ops server listening")
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("Ops server failed")
			}
		}()
	}

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	// Stop the monitor loop (takes effect at the top of the next iteration)
	cancel()
	<-done

	// Shut down HTTP
	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Ops server forced to shutdown")
		}
	}

	log.Info().Msg("Warden exited")
}
