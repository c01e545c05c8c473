package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/accountledger/internal/adapter/http"
	"github.com/iho/accountledger/internal/adapter/http/handler"
	"github.com/iho/accountledger/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/accountledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/accountledger/internal/adapter/repository/redis"
	"github.com/iho/accountledger/internal/infrastructure/auth"
	"github.com/iho/accountledger/internal/infrastructure/config"
	"github.com/iho/accountledger/internal/infrastructure/eventpublisher"
	"github.com/iho/accountledger/internal/infrastructure/logger"
	"github.com/iho/accountledger/internal/infrastructure/metrics"
	"github.com/iho/accountledger/internal/infrastructure/postgres"
	"github.com/iho/accountledger/internal/infrastructure/redis"
	"github.com/iho/accountledger/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	zerolog.DefaultContextLogger = &log.Logger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	m := metrics.New()

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL, m)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	app := wire(pool, redisRepo.NewCache(redisClient), cfg, m)

	// Outbox publisher
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: app.outboxRepo,
		Publisher:  eventpublisher.NewLogPublisher(log.Logger),
		Logger:     &log.Logger,
		Metrics:    m,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})
	go func() {
		if err := publisher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("outbox publisher stopped")
		}
	}()

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go rateLimiter.RunCleanup(ctx, time.Hour, time.Hour)

	routerCfg := httpAdapter.RouterConfig{
		AccountHandler: handler.NewAccountHandler(app.accountUC),
		LedgerHandler:  handler.NewLedgerHandler(app.ledgerUC, app.reconcileUC),
		PaymentHandler: handler.NewPaymentHandler(app.paymentUC),
		HealthHandler: handler.NewHealthHandler(
			pool,
			handler.PingFunc(func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }),
		),
		Logger:           log.Logger,
		Metrics:          m,
		MetricsHandler:   promhttp.Handler(),
		IdempotencyStore: redisRepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
	}
	if cfg.AuthEnabled {
		routerCfg.JWTManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	server := newHTTPServer(cfg, httpAdapter.NewRouter(routerCfg))

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Bool("auth", cfg.AuthEnabled).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	return server.Shutdown(shutdownCtx)
}

type application struct {
	accountUC   *usecase.AccountUseCase
	ledgerUC    *usecase.LedgerUseCase
	paymentUC   *usecase.PaymentUseCase
	reconcileUC *usecase.ReconciliationUseCase
	outboxRepo  *postgresRepo.OutboxRepository
}

// wire builds the repositories and use cases on top of pool.
func wire(pool *pgxpool.Pool, cache usecase.Cache, cfg *config.Config, m *metrics.Metrics) *application {
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	payPlanRepo := postgresRepo.NewPayPlanRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	historyRepo := postgresRepo.NewHistoryRepository(pool)
	currencyRepo := usecase.NewCachedCurrencyRepository(
		postgresRepo.NewCurrencyRepository(pool), cache, cfg.CurrencyCacheTTL,
	)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(m)

	history := usecase.NewHistoryStore(historyRepo, idGen)
	linker := usecase.NewTransactionReconciler(transactionRepo, history)

	return &application{
		accountUC: usecase.NewAccountUseCase(accountRepo, idGen),
		ledgerUC:  usecase.NewLedgerUseCase(txManager, ledgerRepo, accountRepo, outboxRepo, historyRepo, idGen, m),
		paymentUC: usecase.NewPaymentUseCase(
			txManager, transactionRepo, payPlanRepo, ledgerRepo, accountRepo,
			currencyRepo, outboxRepo, history, retrier, idGen, m,
		),
		reconcileUC: usecase.NewReconciliationUseCase(
			txManager, ledgerRepo, accountRepo, outboxRepo, linker, history, retrier, idGen, m,
		),
		outboxRepo: outboxRepo,
	}
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      h,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}
}
