package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/skillswap-api/internal/api"
	"github.com/phrazzld/skillswap-api/internal/api/middleware"
	"github.com/phrazzld/skillswap-api/internal/config"
	"github.com/phrazzld/skillswap-api/internal/domain/matching"
	"github.com/phrazzld/skillswap-api/internal/events"
	"github.com/phrazzld/skillswap-api/internal/platform/memory"
	"github.com/phrazzld/skillswap-api/internal/platform/metrics"
	"github.com/phrazzld/skillswap-api/internal/platform/postgres"
	"github.com/phrazzld/skillswap-api/internal/service"
	"github.com/phrazzld/skillswap-api/internal/service/auth"
	"github.com/phrazzld/skillswap-api/internal/store"
	"github.com/phrazzld/skillswap-api/internal/task"
	"github.com/prometheus/client_golang/prometheus"
)

const taskQueueSize = 256

// application owns every long-lived component of the server.
type application struct {
	config  *config.Config
	logger  *slog.Logger
	handler http.Handler

	db          *sql.DB
	rateLimiter *middleware.RateLimiter
	taskQueue   *task.TaskQueue
	workerPool  *task.WorkerPool
	sweeper     *task.CompletionSweeper
}

// newApplication wires storage, services, the HTTP router and the
// completion sweep. The returned application must be cleaned up.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *application, err error) {
	app := &application{config: cfg, logger: logger}
	defer func() {
		if err != nil {
			app.cleanup()
		}
	}()

	repos, tx, err := app.openStore(ctx)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	emitter := events.NewInMemoryEventEmitter(logger)
	emitter.RegisterHandler(events.NewNotificationLogHandler(logger))
	emitter.RegisterHandler(collector)

	index := matching.NewIndex()
	opts := []service.Option{service.WithEmitter(emitter)}

	userService, err := service.NewUserService(repos, tx, index, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create user service: %w", err)
	}
	matchService, err := service.NewMatchService(index, cfg.Matching.MaxLimit, collector, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create match service: %w", err)
	}
	requestService, err := service.NewRequestService(
		repos, tx, index, service.SessionDefaultsFromConfig(cfg.Sessions), logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create request service: %w", err)
	}
	sessionService, err := service.NewSessionService(repos, tx, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session service: %w", err)
	}

	indexed, err := userService.WarmIndex(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to warm skill index: %w", err)
	}
	logger.Info("skill index loaded", slog.Int("users", indexed))

	jwtService, err := auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create JWT service: %w", err)
	}

	app.rateLimiter = middleware.NewRateLimiter(
		middleware.RateLimitConfigFromPerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst))

	app.handler = api.NewRouter(api.RouterConfig{
		Users:          userService,
		Matches:        matchService,
		Requests:       requestService,
		Sessions:       sessionService,
		JWTService:     jwtService,
		RateLimiter:    app.rateLimiter,
		Metrics:        collector,
		MetricsHandler: metrics.Handler(registry),
		Logger:         logger,
	})

	if cfg.Sweep.Enabled {
		app.taskQueue = task.NewTaskQueue(taskQueueSize, logger)
		app.workerPool = task.NewWorkerPool(app.taskQueue, task.DefaultWorkerPoolConfig(), logger)
		app.sweeper = task.NewCompletionSweeper(sessionService, app.taskQueue, task.SweeperConfig{
			Interval:  cfg.Sweep.Interval(),
			BatchSize: cfg.Sweep.BatchSize,
		}, logger)
	}

	return app, nil
}

// openStore selects the storage backend named by the configuration.
func (app *application) openStore(ctx context.Context) (store.Repositories, store.Transactor, error) {
	switch app.config.Database.Driver {
	case config.DriverPostgres:
		db, err := openPostgres(ctx, app.config.Database, app.logger)
		if err != nil {
			return store.Repositories{}, nil, err
		}
		app.db = db
		return postgres.NewRepositories(db, app.logger), postgres.NewTransactor(db, app.logger), nil
	case config.DriverMemory:
		app.logger.Warn("using in-memory storage; data is lost on shutdown")
		db := memory.New()
		return db.Repositories(), db, nil
	default:
		return store.Repositories{}, nil, fmt.Errorf("unsupported database driver %q", app.config.Database.Driver)
	}
}

// startBackground starts the worker pool and the completion sweep.
func (app *application) startBackground(ctx context.Context) {
	if app.sweeper == nil {
		return
	}
	app.workerPool.Start()
	app.sweeper.Start(ctx)
	app.logger.Info("completion sweep started",
		slog.Duration("interval", app.config.Sweep.Interval()),
		slog.Int("batch_size", app.config.Sweep.BatchSize))
}

// cleanup stops background work and releases resources. It is safe to call
// on a partially built application.
func (app *application) cleanup() {
	if app.sweeper != nil {
		app.sweeper.Stop()
	}
	if app.workerPool != nil {
		app.workerPool.Stop()
	}
	if app.taskQueue != nil {
		app.taskQueue.Close()
	}
	if app.rateLimiter != nil {
		app.rateLimiter.Stop()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
}

// run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (app *application) run(ctx context.Context) error {
	defer app.cleanup()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	app.startBackground(ctx)

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("server listening", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	app.logger.Info("shutting down server", slog.Duration("timeout", app.config.Server.ShutdownTimeout()))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	app.logger.Info("server stopped")
	return nil
}
