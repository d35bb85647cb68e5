package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/ita004/analytics-engine/pkg/analytics"
	"github.com/ita004/analytics-engine/pkg/api"
	"github.com/ita004/analytics-engine/pkg/cache"
	"github.com/ita004/analytics-engine/pkg/config"
	"github.com/ita004/analytics-engine/pkg/credentials"
	"github.com/ita004/analytics-engine/pkg/events"
	"github.com/ita004/analytics-engine/pkg/middleware"
	"github.com/ita004/analytics-engine/pkg/observability"
	"github.com/ita004/analytics-engine/pkg/storage"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("starting analytics engine")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTelConfig(), logger)
	if err != nil {
		logger.WithError(err).Error("failed to initialize tracing")
		os.Exit(1)
	}
	defer shutdownTracing(context.Background())

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		logger.WithError(err).Error("failed to connect to postgres")
		os.Exit(1)
	}
	defer store.Close()

	if err := store.InitSchema(ctx); err != nil {
		logger.WithError(err).Error("failed to initialize schema")
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		// The cache and throttle both degrade gracefully without Redis, so
		// an unreachable instance at boot is worth a warning, not an exit.
		logger.WithError(err).Warn("redis unreachable at startup")
	}

	registry := prometheus.NewRegistry()
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(registry)
	}

	cacheStore := cache.NewRedisStore(redisClient, logger)
	validator := credentials.NewValidator(store, logger)
	lifecycle := credentials.NewService(store)
	writer := events.NewWriter(store, cacheStore, logger, metrics)
	queries := analytics.NewService(store, cacheStore, logger, metrics)
	throttle := middleware.NewThrottle(redisClient, logger, metrics)

	server := api.NewServer(api.Deps{
		Store:     store,
		Validator: validator,
		Lifecycle: lifecycle,
		Writer:    writer,
		Analytics: queries,
		Throttle:  throttle,
		Session:   middleware.HeaderSessionResolver{Header: cfg.Session.Header},
		Logger:    logger,
		Metrics:   metrics,
		Debug:     cfg.Debug,
		Tracing:   cfg.Observability.OTelEnabled,
	})

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthChecker := observability.NewHealthChecker(store.DB(), redisClient)
	healthRouter := mux.NewRouter()
	healthRouter.HandleFunc("/healthz", healthChecker.Liveness).Methods("GET")
	healthRouter.HandleFunc("/readyz", healthChecker.Readiness).Methods("GET")
	if metrics != nil {
		healthRouter.Handle("/metrics", metrics.Handler()).Methods("GET")
	}
	healthServer := &http.Server{
		Addr:    cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler: healthRouter,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Infof("API server listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		logger.Infof("health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("API server shutdown failed")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("health server shutdown failed")
		}
		return nil
	})

	if err := group.Wait(); err != nil {
		logger.WithError(err).Error("server error")
		os.Exit(1)
	}
	logger.Info("stopped")
}
