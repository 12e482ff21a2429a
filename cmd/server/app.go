package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/bankledger/internal/adapter/http"
	"github.com/iho/bankledger/internal/adapter/http/handler"
	"github.com/iho/bankledger/internal/adapter/http/middleware"
	"github.com/iho/bankledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/bankledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/bankledger/internal/adapter/repository/redis"
	"github.com/iho/bankledger/internal/infrastructure/auth"
	"github.com/iho/bankledger/internal/infrastructure/config"
	"github.com/iho/bankledger/internal/infrastructure/eventpublisher"
	"github.com/iho/bankledger/internal/infrastructure/metrics"
	"github.com/iho/bankledger/internal/infrastructure/postgres"
	"github.com/iho/bankledger/internal/infrastructure/redis"
	"github.com/iho/bankledger/internal/infrastructure/retry"
	"github.com/iho/bankledger/internal/usecase"
)

const (
	poolStatsInterval   = 15 * time.Second
	limiterCleanupEvery = time.Minute
	limiterMaxIdle      = 10 * time.Minute
)

// storage is the set of repositories behind one STORAGE_DRIVER.
type storage struct {
	txManager usecase.TransactionManager
	accounts  usecase.AccountRepository
	entries   usecase.EntryRepository
	ledger    usecase.LedgerRepository
	outbox    usecase.OutboxRepository
	retryable retry.Classifier
	checks    []handler.Check
}

// app is the fully wired server. Background workers start in Run.
type app struct {
	cfg     *config.Config
	logger  zerolog.Logger
	metrics *metrics.Metrics

	handler     http.Handler
	publisher   *eventpublisher.EventPublisher
	rateLimiter *middleware.RateLimiter
	pool        *pgxpool.Pool
	redisClient *goredis.Client
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger, reg *prometheus.Registry) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.NewWithRegisterer(reg),
	}

	idGen := postgresRepo.NewULIDGenerator()

	store, err := a.openStorage(ctx, idGen)
	if err != nil {
		a.Close()
		return nil, err
	}

	var (
		cache       usecase.Cache
		idempotency usecase.IdempotencyStore
		publisher   eventpublisher.Publisher = eventpublisher.NewLogPublisher(logger)
	)

	if cfg.RedisEnabled {
		client, err := redis.NewClient(ctx, cfg.RedisURL, logger)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.redisClient = client

		cache = redisRepo.NewCache(client)
		idempotency = redisRepo.NewIdempotencyStore(client)
		publisher = eventpublisher.NewStreamPublisher(client, cfg.OutboxStream, cfg.OutboxStreamMaxLen)
		store.checks = append(store.checks, handler.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		})
	}

	if cfg.OutboxEnabled {
		a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: store.outbox,
			Publisher:  publisher,
			Logger:     logger,
			Metrics:    a.metrics,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxPollInterval,
			Retention:  cfg.OutboxRetention,
		})
	} else {
		store.outbox = postgresRepo.NewNullOutboxRepository()
	}

	retrier := retry.New(retry.Config{
		MaxRetries:      cfg.RetryMax,
		InitialInterval: cfg.RetryInitial,
		MaxInterval:     cfg.RetryMaxBackoff,
		MaxElapsedTime:  retry.DefaultConfig().MaxElapsedTime,
	}, store.retryable, logger, a.metrics)

	accountUC := usecase.NewAccountUseCase(store.accounts, idGen, a.metrics)
	movementUC := usecase.NewMovementUseCase(
		store.txManager,
		store.accounts,
		store.entries,
		store.outbox,
		retrier,
		idGen,
		a.metrics,
		cfg.TxTimeout,
	)
	historyUC := usecase.NewHistoryUseCase(store.entries, store.accounts, cache, a.metrics)
	ledgerUC := usecase.NewLedgerUseCase(store.ledger, a.metrics)

	if cfg.RateLimitEnabled {
		a.rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, a.metrics)
	}

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AccountHandler:   handler.NewAccountHandler(accountUC),
		MovementHandler:  handler.NewMovementHandler(movementUC),
		HistoryHandler:   handler.NewHistoryHandler(historyUC),
		LedgerHandler:    handler.NewLedgerHandler(ledgerUC),
		HealthHandler:    handler.NewHealthHandler(store.checks...),
		Verifier:         auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration),
		Resolver:         usecase.NewAccountIdentityResolver(store.accounts),
		IdempotencyStore: idempotency,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      a.rateLimiter,
		Logger:           logger,
		Metrics:          a.metrics,
		Gatherer:         reg,
	})

	return a, nil
}

func (a *app) openStorage(ctx context.Context, idGen usecase.IDGenerator) (*storage, error) {
	switch a.cfg.StorageDriver {
	case config.StorageMemory:
		a.logger.Warn().Msg("using in-memory storage; data is lost on restart")

		store := memory.NewStore(idGen)
		return &storage{
			txManager: memory.NewTxManager(store),
			accounts:  memory.NewAccountRepository(store),
			entries:   memory.NewEntryRepository(store),
			ledger:    memory.NewLedgerRepository(store),
			outbox:    memory.NewOutboxRepository(store),
			retryable: memory.IsRetryableError,
		}, nil

	case config.StoragePostgres:
		if err := postgres.NewMigrator(a.cfg.MigrationsPath, a.cfg.DatabaseURL, a.logger).Up(); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    a.cfg.DatabaseURL,
			MaxConns:       a.cfg.DatabaseMaxConns,
			MinConns:       a.cfg.DatabaseMinConns,
			ConnectTimeout: a.cfg.DatabaseTimeout,
			Logger:         a.logger,
		})
		if err != nil {
			return nil, err
		}
		a.pool = pool

		return &storage{
			txManager: postgresRepo.NewTxManager(pool),
			accounts:  postgresRepo.NewAccountRepository(pool),
			entries:   postgresRepo.NewEntryRepository(pool, idGen),
			ledger:    postgresRepo.NewLedgerRepository(pool),
			outbox:    postgresRepo.NewOutboxRepository(pool),
			retryable: postgresRepo.IsRetryableError,
			checks:    []handler.Check{{Name: "postgres", Ping: pool.Ping}},
		}, nil
	}

	return nil, fmt.Errorf("unknown storage driver %q", a.cfg.StorageDriver)
}

// Run serves HTTP and runs background workers until ctx is cancelled, then
// shuts down gracefully.
func (a *app) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:         ":" + a.cfg.HTTPPort,
		Handler:      a.handler,
		ReadTimeout:  a.cfg.HTTPReadTimeout,
		WriteTimeout: a.cfg.HTTPWriteTimeout,
		IdleTimeout:  a.cfg.HTTPIdleTimeout,
	}

	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()

	if a.publisher != nil {
		go func() {
			if err := a.publisher.Start(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}
	if a.rateLimiter != nil {
		go a.rateLimiter.RunCleanup(workerCtx, limiterCleanupEvery, limiterMaxIdle)
	}
	if a.pool != nil {
		go a.reportPoolStats(workerCtx)
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info().Str("port", a.cfg.HTTPPort).Str("storage", a.cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	a.logger.Info().Msg("server stopped")
	return nil
}

func (a *app) reportPoolStats(ctx context.Context) {
	ticker := time.NewTicker(poolStatsInterval)
	defer ticker.Stop()

	for {
		a.metrics.DBConnections.Set(float64(a.pool.Stat().TotalConns()))

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Close releases connections opened by newApp.
func (a *app) Close() {
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close redis client")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
