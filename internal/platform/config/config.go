package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends selectable via STORAGE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	RedisURL       string
	Port           string
	IsProduction   bool
	StorageBackend string

	// Rate store behaviour
	RatesTTL        time.Duration
	RefreshInterval time.Duration

	// Provider settings
	ProviderTimeout    time.Duration
	CoinGeckoURL       string
	ExchangeRateAPIURL string
	ExchangeRateAPIKey string

	// Request rate limiting, e.g. "100-M" below means 100 per minute.
	RateLimitFormatted string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("STORAGE_BACKEND", BackendPostgres)
	viper.SetDefault("RATES_TTL", "5m")
	viper.SetDefault("RATES_REFRESH_INTERVAL", "10m")
	viper.SetDefault("PROVIDER_TIMEOUT", "10s")
	viper.SetDefault("COINGECKO_URL", "https://api.coingecko.com/api/v3/simple/price")
	viper.SetDefault("EXCHANGERATE_API_URL", "https://v6.exchangerate-api.com/v6")
	viper.SetDefault("EXCHANGERATE_API_KEY", "")
	viper.SetDefault("RATE_LIMIT", "100-M")

	viper.AutomaticEnv()

	cfg := &Config{}
	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	cfg.RedisURL = viper.GetString("REDIS_URL")
	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.StorageBackend = viper.GetString("STORAGE_BACKEND")
	cfg.CoinGeckoURL = viper.GetString("COINGECKO_URL")
	cfg.ExchangeRateAPIURL = viper.GetString("EXCHANGERATE_API_URL")
	cfg.ExchangeRateAPIKey = viper.GetString("EXCHANGERATE_API_KEY")
	cfg.RateLimitFormatted = viper.GetString("RATE_LIMIT")

	cfg.RatesTTL = parseDurationOr("RATES_TTL", 5*time.Minute)
	cfg.RefreshInterval = parseDurationOr("RATES_REFRESH_INTERVAL", 10*time.Minute)
	cfg.ProviderTimeout = parseDurationOr("PROVIDER_TIMEOUT", 10*time.Second)

	switch cfg.StorageBackend {
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			log.Println("Warning: PGSQL_URL environment variable not set.")
		}
	case BackendRedis:
		if cfg.RedisURL == "" {
			log.Println("Warning: REDIS_URL environment variable not set.")
		}
	case BackendMemory:
		// Nothing to configure; state is lost on restart.
	default:
		log.Printf("Warning: Unknown STORAGE_BACKEND ('%s'). Defaulting to %s.\n", cfg.StorageBackend, BackendPostgres)
		cfg.StorageBackend = BackendPostgres
	}

	if cfg.ExchangeRateAPIKey == "" {
		log.Println("Warning: EXCHANGERATE_API_KEY not set. Fiat rates will not be fetched.")
	}

	return cfg, nil
}

func parseDurationOr(key string, fallback time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, fallback)
		}
		return fallback
	}
	return d
}
