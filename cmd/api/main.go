package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/dmarcana/marketplace-analytics-backend/api/routes"
	"github.com/dmarcana/marketplace-analytics-backend/internal/generator"
	"github.com/dmarcana/marketplace-analytics-backend/internal/live"
	"github.com/dmarcana/marketplace-analytics-backend/internal/pinger"
	"github.com/dmarcana/marketplace-analytics-backend/internal/records"
	"github.com/dmarcana/marketplace-analytics-backend/internal/scheduler"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/config"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/db"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/instance"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/logger"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/metrics"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/migrate"
	"github.com/dmarcana/marketplace-analytics-backend/pkg/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	repo := records.NewRepository(dbClient.DB())
	legacyRepo := records.NewGenericRepository(dbClient.DB())

	hub := live.NewHub(repo, logg)
	relay := live.NewRelay(redisClient, redisClient.LiveChannel(cfg.App.Env), instance.GetID(), hub, logg)
	hub.SetPublisher(relay)

	schedulerMetrics := metrics.NewSchedulerMetrics(prometheus.DefaultRegisterer)
	lock, err := scheduler.NewRedisLock(redisClient, redisClient.LockKey("ping-"+cfg.App.Env), cfg.Scheduler.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler lock", err)
		os.Exit(1)
	}

	ping := pinger.New(cfg.Ping, generator.New(), repo, logg, pinger.WithLegacyMirror(legacyRepo))
	registry := scheduler.NewRegistry(scheduler.NewPingJob(ping, repo, hub))
	schedulerSvc, err := scheduler.NewService(scheduler.ServiceParams{
		Logger:       logg,
		Registry:     registry,
		Lock:         lock,
		Metrics:      schedulerMetrics,
		Interval:     cfg.Scheduler.Interval,
		RunOnStartup: cfg.Scheduler.PingOnStartup,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create scheduler", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:     cfg,
			Logger:     logg,
			DBPinger:   dbClient,
			RedisP:     redisClient,
			Repository: repo,
			Legacy:     legacyRepo,
			Hub:        hub,
			Metrics:    prometheus.DefaultGatherer,
		}),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting marketplace analytics backend")

	errCh := make(chan error, 3)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := schedulerSvc.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := relay.Run(ctx); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logg.Info(ctx, "shutdown signal received")
	case err := <-errCh:
		logg.Error(ctx, "component stopped unexpectedly", err)
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var closeErr error
	closeErr = multierr.Append(closeErr, server.Shutdown(shutdownCtx))
	closeErr = multierr.Append(closeErr, redisClient.Close())
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "shutdown finished with errors", closeErr)
		os.Exit(1)
	}

	logg.Info(ctx, "shutdown complete")
}
