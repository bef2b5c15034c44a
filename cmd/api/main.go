package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"wallet-service/config"
	httpHandler "wallet-service/internal/adapter/http/handler"
	"wallet-service/internal/adapter/http/middleware"
	memStorage "wallet-service/internal/adapter/storage/memory"
	pgStorage "wallet-service/internal/adapter/storage/postgres"
	redisStorage "wallet-service/internal/adapter/storage/redis"
	"wallet-service/internal/core/ports"
	"wallet-service/internal/service"
	"wallet-service/migrations"
	"wallet-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const openAPISpecPath = "docs/api/openapi.yaml"

// ledger bundles the store-side ports of the selected storage driver.
type ledger struct {
	wallets      ports.WalletRepository
	transactions ports.TransactionRepository
	audits       ports.AuditRepository
	transactor   ports.DBTransactor
	health       ports.HealthChecker
	close        func()
}

func main() {
	// Optional .env; real environment variables win.
	_ = godotenv.Load()

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	gin.SetMode(cfg.Server.Mode)

	log.Info().
		Str("mode", cfg.Server.Mode).
		Str("storage", cfg.Storage.Driver).
		Int("port", cfg.Server.Port).
		Msg("Starting wallet service")

	ctx := context.Background()

	store, err := openLedger(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger store")
	}
	defer store.close()

	healthCheckers := []ports.HealthChecker{store.health}

	// Redis backs the read cache and rate limiting; both degrade when it is absent.
	var (
		walletCache    ports.WalletCache
		rateLimitStore middleware.Limiter
	)
	rdb, err := redisStorage.Connect(ctx, cfg.Redis, log)
	if err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, running without read cache and rate limiting")
	} else {
		defer func(c *goredis.Client) { _ = c.Close() }(rdb)
		walletCache = redisStorage.NewWalletCache(rdb, cfg.Cache.KeyPrefix)
		if cfg.RateLimit.Enabled {
			rateLimitStore = redisStorage.NewRateLimitStore(rdb)
		}
		healthCheckers = append(healthCheckers, redisStorage.NewHealthCheck(rdb))
	}

	dailyLimit, err := cfg.Wallet.DailyLimit()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid wallet configuration")
	}

	walletSvc := service.NewWalletService(
		store.wallets,
		store.transactions,
		store.transactor,
		walletCache,
		service.WalletPolicy{
			DailyLimit:        dailyLimit,
			DepositWindow:     cfg.Wallet.DepositWindow,
			MaxUpdateAttempts: cfg.Wallet.MaxUpdateAttempts,
			RetryBackoff:      cfg.Wallet.RetryBackoff,
			CacheTTL:          cfg.Cache.TTL,
			CacheTimeout:      cfg.Cache.Timeout,
		},
		logger.Component(log, "wallet"),
	)
	auditSvc := service.NewAuditService(store.audits, logger.Component(log, "audit"))

	var tokenSvc ports.TokenService
	if cfg.JWT.Enabled() {
		tokenSvc = service.NewJWTTokenService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)
	} else {
		log.Warn().Msg("JWT secret not set, bearer authentication disabled; all writes are anonymous")
	}

	specBytes, err := os.ReadFile(openAPISpecPath)
	if err == nil {
		log.Info().Msg("OpenAPI spec loaded for Swagger UI at /swagger")
	} else {
		log.Warn().Err(err).Msg("OpenAPI spec not found, Swagger UI will be unavailable")
	}

	router := httpHandler.SetupRouter(httpHandler.RouterDeps{
		WalletSvc:      walletSvc,
		TokenSvc:       tokenSvc,
		RateLimitStore: rateLimitStore,
		RateLimitRules: middleware.RateLimitRules(cfg.RateLimit.MutationsPerMinute, cfg.RateLimit.ReadsPerMinute),
		HealthCheckers: healthCheckers,
		AuditSvc:       auditSvc,
		OpenAPISpec:    specBytes,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Logger:         logger.Component(log, "http"),
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func openLedger(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*ledger, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		log.Warn().Msg("Using in-memory ledger store; data is lost on restart")
		store := memStorage.NewStore()
		return &ledger{
			wallets:      memStorage.NewWalletRepo(store),
			transactions: memStorage.NewTransactionRepo(store),
			audits:       memStorage.NewAuditRepo(store),
			transactor:   memStorage.NewTransactor(store),
			health:       store,
			close:        func() {},
		}, nil
	}

	pool, err := pgStorage.Connect(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := pgStorage.Migrate(ctx, pool, migrations.FS, log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &ledger{
		wallets:      pgStorage.NewWalletRepo(pool),
		transactions: pgStorage.NewTransactionRepo(pool),
		audits:       pgStorage.NewAuditRepository(pool),
		transactor:   pgStorage.NewTransactor(pool),
		health:       pgStorage.NewHealthCheck(pool),
		close:        pool.Close,
	}, nil
}
