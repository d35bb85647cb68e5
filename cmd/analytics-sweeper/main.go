// The sweeper deactivates credentials whose expiry has passed, so the hot
// ingestion path never serves a key the database still marks active.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ita004/analytics-engine/pkg/config"
	"github.com/ita004/analytics-engine/pkg/observability"
	"github.com/ita004/analytics-engine/pkg/storage"
)

var (
	schedule = flag.String("schedule", "*/15 * * * *", "Cron schedule for the expiry sweep (default: every 15 minutes)")
	runOnce  = flag.Bool("run-once", false, "Run one sweep and exit")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		logger.WithError(err).Error("failed to connect to postgres")
		os.Exit(1)
	}
	defer store.Close()

	if *runOnce {
		if err := sweep(store, logger); err != nil {
			os.Exit(1)
		}
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, func() {
		sweep(store, logger)
	}); err != nil {
		logger.WithError(err).Error("failed to schedule expiry sweep")
		os.Exit(1)
	}

	c.Start()
	logger.Infof("credential sweeper started, schedule: %s", *schedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	<-c.Stop().Done()
	logger.Info("sweeper stopped")
}

func sweep(store *storage.Store, logger *observability.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	swept, err := store.DeactivateExpiredCredentials(ctx)
	if err != nil {
		logger.WithError(err).Error("expiry sweep failed")
		return err
	}

	logger.WithField("credentials", swept).Info("expiry sweep completed")
	return nil
}
