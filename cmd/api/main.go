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

	"salespipe_backend/internal/assist"
	"salespipe_backend/internal/audit"
	"salespipe_backend/internal/campaigns"
	"salespipe_backend/internal/events"
	"salespipe_backend/internal/exports"
	apphttp "salespipe_backend/internal/http"
	"salespipe_backend/internal/http/router"
	"salespipe_backend/internal/identity"
	"salespipe_backend/internal/pipeline"
	"salespipe_backend/internal/scheduler"
	"salespipe_backend/platform/config"
	"salespipe_backend/platform/db"
	"salespipe_backend/platform/logger"
	"salespipe_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}
	if reminderScheduler != nil {
		scheduler.RegisterFollowUpScheduler(eventBus, reminderScheduler, log)
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	// Export storage (MinIO). Optional; exports stream CSV directly without it.
	var storage *exports.Storage
	if cfg.IsMinIOEnabled() {
		storage, err = exports.NewStorage(ctx, cfg)
		if err != nil {
			log.Error("failed to initialize export storage", "error", err)
			panic("failed to initialize export storage: " + err.Error())
		}
		log.Info("export storage initialized", "bucket", cfg.GetMinioBucketExports())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; exports stream inline")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	identityModule, err := identity.NewModule(ctx, pool, val, cfg, log)
	if err != nil {
		log.Error("failed to initialize identity module", "error", err)
		panic("failed to initialize identity module: " + err.Error())
	}

	pipelineModule := pipeline.NewModule(pool, eventBus, val, log)
	campaignsModule := campaigns.NewModule(pool, pipelineModule.Repository(), eventBus, val)
	auditModule := audit.NewModule(audit.NewRepository(pool), pipelineModule.Repository())
	exportsModule := exports.NewModule(pipelineModule.Repository(), storage, log)

	modules := []apphttp.Module{
		identityModule,
		pipelineModule,
		campaignsModule,
		auditModule,
		exportsModule,
	}

	assistModule, err := assist.NewModule(ctx, cfg, pipelineModule.Repository(), log)
	if err != nil {
		log.Error("failed to initialize assist module", "error", err)
		panic("failed to initialize assist module: " + err.Error())
	}
	if assistModule != nil {
		modules = append(modules, assistModule)
	} else {
		log.Warn("GEMINI_API_KEY not configured; lead advisor disabled")
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules:  modules,
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
}

func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (scheduler.ReminderScheduler, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; follow-up reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
