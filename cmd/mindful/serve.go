package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/groblegark/mindful/internal/backup"
	"github.com/groblegark/mindful/internal/bot"
	"github.com/groblegark/mindful/internal/commands"
	"github.com/groblegark/mindful/internal/config"
	"github.com/groblegark/mindful/internal/events"
	"github.com/groblegark/mindful/internal/platform/natsgw"
	"github.com/groblegark/mindful/internal/reset"
	"github.com/groblegark/mindful/internal/ritual"
	"github.com/groblegark/mindful/internal/server"
	"github.com/groblegark/mindful/internal/store/postgres"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the affirmation bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

		// Load configuration.
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		loc := cfg.Location()

		// Connect to Postgres.
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			return err
		}

		// Connect the gateway bridge. The bus is required; without it
		// there are no platform events to process.
		gateway, err := natsgw.Dial(cfg.NATSURL, cfg.BotToken, logger)
		if err != nil {
			store.Close()
			return err
		}
		logger.Info("gateway bridge connected", "nats_url", cfg.NATSURL)

		// Create event publisher on the same bus. Publishing is
		// best-effort; a failed connection degrades to noop.
		var publisher events.Publisher
		if pub, err := events.NewNATSPublisher(cfg.NATSURL); err != nil {
			logger.Warn("events disabled, publisher connection failed", "err", err)
			publisher = &events.NoopPublisher{}
		} else {
			publisher = pub
			logger.Info("events enabled", "nats_url", cfg.NATSURL)
		}

		// Load affirmation phrases.
		affirmations, err := loadAffirmations(cfg)
		if err != nil {
			publisher.Close()
			gateway.Close()
			store.Close()
			return err
		}
		logger.Info("affirmations loaded", "count", affirmations.Len())

		// Assemble the ritual pipeline.
		locks := ritual.NewLockController(gateway, logger)
		dispatcher := ritual.NewDispatcher(store, gateway, locks, affirmations, publisher, cfg.RoleName, loc, logger)
		verifier := ritual.NewVerifier(store, gateway, locks, publisher, loc, logger)
		router := commands.NewRouter(store, gateway, locks, publisher, cfg.CommandPrefix, cfg.RoleName, logger)
		b := bot.New(gateway, dispatcher, verifier, router, logger)

		// Start HTTP health server.
		httpServer := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: server.New(b).NewHTTPHandler(),
		}
		go func() {
			logger.Info("HTTP server listening", "addr", cfg.HTTPAddr)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("HTTP server error", "err", err)
			}
		}()

		// Start the daily reset scheduler.
		resetSched := reset.NewScheduler(store, publisher, loc, cfg.ResetHour, cfg.ResetMinute, cfg.ResetPollInterval, logger)
		resetSched.Start()
		logger.Info("reset scheduler started",
			"hour", cfg.ResetHour, "minute", cfg.ResetMinute,
			"timezone", cfg.Timezone, "poll_interval", cfg.ResetPollInterval)

		// Start backup scheduler if configured.
		var backupSched *backup.Scheduler
		if cfg.BackupInterval > 0 && cfg.BackupS3Bucket != "" {
			s3Dest, err := backup.NewS3Destination(
				context.Background(),
				cfg.BackupS3Bucket,
				cfg.BackupS3Key,
				cfg.BackupS3Region,
				cfg.BackupS3Endpoint,
			)
			if err != nil {
				logger.Error("failed to create S3 backup destination", "err", err)
			} else {
				backupSched = backup.NewScheduler(store, []backup.Destination{s3Dest}, cfg.BackupInterval, logger)
				backupSched.Start()
				logger.Info("backup scheduler started", "bucket", cfg.BackupS3Bucket, "interval", cfg.BackupInterval)
			}
		}

		// Run the event loop until a signal arrives or the gateway drops.
		ctx, cancel := context.WithCancel(context.Background())
		runErr := make(chan error, 1)
		go func() { runErr <- b.Run(ctx) }()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
		case err := <-runErr:
			logger.Error("event loop stopped", "err", err)
		}

		// Graceful shutdown.
		cancel()
		if backupSched != nil {
			backupSched.Stop()
			logger.Info("backup scheduler stopped")
		}
		resetSched.Stop()
		logger.Info("reset scheduler stopped")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "err", err)
		}
		logger.Info("HTTP server stopped")

		if err := publisher.Close(); err != nil {
			logger.Error("error closing publisher", "err", err)
		}
		if err := gateway.Close(); err != nil {
			logger.Error("error closing gateway", "err", err)
		}
		if err := store.Close(); err != nil {
			logger.Error("error closing store", "err", err)
		}

		logger.Info("shutdown complete")
		return nil
	},
}

func loadAffirmations(cfg *config.Config) (*ritual.Affirmations, error) {
	if cfg.AffirmationsFile != "" {
		return ritual.LoadAffirmations(cfg.AffirmationsFile)
	}
	return ritual.NewAffirmations(ritual.DefaultAffirmations)
}
