package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/costpulse/costpulse/internal/api/handlers"
	"github.com/costpulse/costpulse/internal/api/router"
	"github.com/costpulse/costpulse/internal/cache"
	"github.com/costpulse/costpulse/internal/config"
	"github.com/costpulse/costpulse/internal/pkg/logger"
	"github.com/costpulse/costpulse/internal/pkg/validator"
	"github.com/costpulse/costpulse/internal/providers"
	"github.com/costpulse/costpulse/internal/repository/postgres"
	"github.com/costpulse/costpulse/internal/services"
	"github.com/costpulse/costpulse/internal/worker"
	"github.com/costpulse/costpulse/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	db, err := postgres.New(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db, migrations.GetFS()); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Repositories
	accountRepo := postgres.NewAccountRepository(db)
	snapshotRepo := postgres.NewSnapshotRepository(db)
	baselineRepo := postgres.NewBaselineRepository(db)
	anomalyRepo := postgres.NewAnomalyRepository(db)

	credStore, err := providers.NewSecretboxStore(db, cfg.Secrets.MasterKey)
	if err != nil {
		log.Fatalf("failed to open credentials store: %v", err)
	}

	// Snapshot cache: redis when configured, in-process otherwise
	var snapCache cache.SnapshotCache
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		snapCache = cache.NewRedisCache(rdb, log)
	} else {
		snapCache = cache.NewMemoryCache()
	}

	policy, err := services.LoadPolicy(cfg.Detector, cfg.Baseline)
	if err != nil {
		log.Fatalf("failed to load detector policy: %v", err)
	}

	// Core services
	fetchers := providers.NewRegistry(providers.Options{MaxRetries: cfg.Sync.MaxRetries})
	sink := services.NewSink(cfg.Notify, log)
	baselineEngine := services.NewBaselineEngine(baselineRepo, cfg.Baseline.HalfLifeDays, cfg.Baseline.MinSamples, log)
	detector := services.NewAnomalyDetector(anomalyRepo, policy, sink, log)
	syncService := services.NewSyncService(accountRepo, snapshotRepo, credStore, fetchers,
		snapCache, baselineEngine, detector, cfg.Sync, log)
	accountService := services.NewAccountService(accountRepo, snapshotRepo, baselineRepo,
		anomalyRepo, credStore, snapCache, log)
	snapshotService := services.NewSnapshotService(snapshotRepo)
	anomalyService := services.NewAnomalyService(anomalyRepo, log)

	val := validator.New()
	h := &router.Handlers{
		Health:   handlers.NewHealthHandler(db, log),
		Account:  handlers.NewAccountHandler(accountService, log, val),
		Sync:     handlers.NewSyncHandler(syncService, log),
		Snapshot: handlers.NewSnapshotHandler(snapshotService, log),
		Anomaly:  handlers.NewAnomalyHandler(anomalyService, log, val),
		Provider: handlers.NewProviderHandler(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := worker.NewSyncScheduler(syncService, cfg.Sync.Schedule, log)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("failed to start sync scheduler: %v", err)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.New(cfg, log, h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.WithFields(map[string]interface{}{"addr": srv.Addr}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.ErrorWithErr(err, "graceful shutdown failed")
	}
	log.Info("server stopped")
}
