// main is the entry point of a PlayerHub region server.
// It initializes the configuration, logger, audit trail, account registry,
// status responder and the HTTP control surface.
package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/woozymasta/playerhub/internal/audit"
	"github.com/woozymasta/playerhub/internal/config"
	"github.com/woozymasta/playerhub/internal/fake"
	"github.com/woozymasta/playerhub/internal/geoip"
	"github.com/woozymasta/playerhub/internal/hub"
	"github.com/woozymasta/playerhub/internal/logger"
	"github.com/woozymasta/playerhub/internal/maintenance"
	"github.com/woozymasta/playerhub/internal/registry"
	"github.com/woozymasta/playerhub/internal/server"
	"github.com/woozymasta/playerhub/internal/status"
	"github.com/woozymasta/playerhub/internal/storage"
)

func main() {
	cfg := config.Parse()

	logger.Setup(cfg.Logger)

	table, local, err := cfg.Regions()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid region configuration")
	}

	rlog := logger.ForRegion(local.Code)
	rlog.Info().Int("port", local.Port).Msg("Starting playerhub region server...")

	// GeoIP
	var geoProvider *geoip.Provider
	if cfg.GeoIP.Path != "" {
		if err := geoip.EnsureDB(cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
			log.Error().Err(err).Msg("Failed to download GeoIP database")
		}

		geoProvider, err = geoip.Open(cfg.GeoIP.Path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open GeoIP database, country detection disabled")
			geoProvider = nil
		}
	}
	defer func() {
		if err := geoProvider.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing GeoIP provider")
		}
	}()

	// Audit trail
	var (
		sinks      audit.Multi
		store      *storage.Repository
		pruner     maintenance.Pruner
		auditIndex server.AuditReader
	)

	if cfg.Audit.DBPath != "" {
		store, err = storage.New(cfg.Audit.DBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing database")
			}
		}()

		pruner = store
		auditIndex = store
		sinks = append(sinks, audit.NewStoreSink(store, geoProvider, local.Code))
	}

	if cfg.Audit.Dir != "" {
		fileSink, err := audit.OpenFile(cfg.Audit.Dir, local.Code)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open audit log")
		}
		defer func() {
			if err := fileSink.Close(); err != nil {
				log.Error().Err(err).Msg("Error closing audit log")
			}
		}()

		sinks = append(sinks, fileSink)
	}

	sink := audit.NewAsync(sinks, cfg.Audit.QueueSize, cfg.Audit.Workers)
	sink.Start()
	defer sink.Stop()

	// Region state
	reg := registry.New()
	targets := status.Targets(table, local.Code, cfg.Region.PeerHost)
	aggregator := status.NewAggregator(targets, reg, sink, cfg.Status.Timeout, cfg.Status.BufferSize, rlog)

	svc := hub.New(local, reg, aggregator, sink, rlog)

	// One-shot maintenance
	if maintenance.Run(cfg, pruner, aggregator, os.Stdout) {
		return
	}

	svc.Seed()
	if cfg.Maintenance.GenerateCount > 0 {
		fake.GenerateAccounts(svc, cfg.Maintenance.GenerateCount)
	}

	// Status responder. A bind failure leaves the control surface up in a
	// degraded state: peers see this region time out.
	responder := status.NewResponder(local.Label, reg, sink, cfg.Status.BufferSize, rlog)
	go func() {
		addr := net.JoinHostPort(cfg.Region.Bind, strconv.Itoa(local.Port))
		if err := responder.ListenAndServe(addr); err != nil {
			rlog.Error().Err(err).Str("address", addr).Msg("Status responder stopped, region is degraded")
		}
	}()

	// Control surface
	srvHandler := server.New(svc, auditIndex, cfg)

	httpServer := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      srvHandler.Run(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 2*cfg.Status.Timeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("address", cfg.Server.Address).Msg("Server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	srvHandler.Close()

	if err := responder.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing status responder")
	}

	log.Info().Msg("Server exited")
}
