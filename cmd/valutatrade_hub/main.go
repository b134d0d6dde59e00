package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
	"github.com/valutatrade/valutatrade_hub/internal/adapters/database/pgsql"
	"github.com/valutatrade/valutatrade_hub/internal/adapters/kvstore"
	"github.com/valutatrade/valutatrade_hub/internal/adapters/memory"
	"github.com/valutatrade/valutatrade_hub/internal/adapters/providers"
	"github.com/valutatrade/valutatrade_hub/internal/core/ports"
	"github.com/valutatrade/valutatrade_hub/internal/core/services"
	"github.com/valutatrade/valutatrade_hub/internal/dto"
	"github.com/valutatrade/valutatrade_hub/internal/handlers"
	"github.com/valutatrade/valutatrade_hub/internal/middleware"
	"github.com/valutatrade/valutatrade_hub/internal/platform/config"
	"github.com/valutatrade/valutatrade_hub/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	rateRepo, portfolioRepo, cleanup, err := buildRepositories(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanup()

	container, aggregator := services.NewServiceContainer(services.ContainerDeps{
		RateRepo:        rateRepo,
		PortfolioRepo:   portfolioRepo,
		Providers:       buildProviders(cfg, logger),
		ProviderTimeout: cfg.ProviderTimeout,
		Logger:          logger,
	})

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	dto.RegisterValidations()

	r := gin.New()
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, container, buildRateLimiter(cfg, logger))

	if cfg.RefreshInterval > 0 {
		go aggregator.Run(context.Background(), cfg.RefreshInterval)
	}

	logger.Info("Server starting", slog.String("port", cfg.Port), slog.String("storage_backend", cfg.StorageBackend))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// buildRepositories picks the storage adapters for the configured backend.
// The returned cleanup closes whatever connections were opened.
func buildRepositories(cfg *config.Config, logger *slog.Logger) (ports.RateRepository, ports.PortfolioRepository, func(), error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("Database connection pool established.")

		if err := runMigrations(cfg.DatabaseURL, logger); err != nil {
			dbPool.Close()
			return nil, nil, nil, err
		}

		return pgsql.NewRateRepository(dbPool), pgsql.NewPortfolioRepository(dbPool), dbPool.Close, nil

	case config.BackendRedis:
		client, err := database.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		logger.Info("Redis connection established.")

		// Wallet mutation needs a transactional serialization point, which
		// the key-value store does not provide. Portfolios stay in memory.
		cleanup := func() {
			if cerr := client.Close(); cerr != nil {
				logger.Error("Error closing redis client", slog.String("error", cerr.Error()))
			}
		}
		return kvstore.NewRateRepository(client), memory.NewPortfolioRepository(), cleanup, nil

	default:
		logger.Info("Using in-memory storage; state is lost on restart.")
		return memory.NewRateRepository(), memory.NewPortfolioRepository(), func() {}, nil
	}
}

// runMigrations applies all pending "up" migrations before the server starts
// serving traffic.
func runMigrations(databaseURL string, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

func buildProviders(cfg *config.Config, logger *slog.Logger) []ports.RateProvider {
	client := &http.Client{Timeout: cfg.ProviderTimeout}
	return []ports.RateProvider{
		providers.NewCoinGeckoProvider(cfg.CoinGeckoURL, client, logger),
		providers.NewExchangeRateAPIProvider(cfg.ExchangeRateAPIURL, cfg.ExchangeRateAPIKey, client, logger),
	}
}

func buildRateLimiter(cfg *config.Config, logger *slog.Logger) *limiter.Limiter {
	rate, err := limiter.NewRateFromFormatted(cfg.RateLimitFormatted)
	if err != nil {
		logger.Warn("Invalid RATE_LIMIT value; rate limiting disabled",
			slog.String("value", cfg.RateLimitFormatted), slog.String("error", err.Error()))
		return nil
	}
	return limiter.New(limitermemory.NewStore(), rate)
}
