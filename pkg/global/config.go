package global

import (
	"fmt"
	"strings"
	"time"
)

const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Env            string
	Port           string
	AllowedOrigins []string

	RedisURL     string
	RedisToken   string
	CacheTimeout time.Duration

	StoreDriver   string
	DatabaseURL   string
	MongoURI      string
	MongoDatabase string

	CronSecret string
	JWTSecret  string
	// ExposeCacheDebug keeps the cart cache inspection route on in production.
	ExposeCacheDebug bool

	VATRate            float64
	DefaultLocale      string
	CartStaleAfter     time.Duration
	DeliveryCutoffHour int

	LogLevel  string
	LogFormat string
	LogFile   string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Env:                GetEnvOrDefault("ENV", "development"),
		Port:               GetEnvOrDefault("PORT", "8000"),
		AllowedOrigins:     GetEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		RedisURL:           GetEnvOrDefault("REDIS_URL", ""),
		RedisToken:         GetEnvOrDefault("REDIS_TOKEN", ""),
		CacheTimeout:       GetEnvDuration("CACHE_TIMEOUT", 2*time.Second),
		StoreDriver:        strings.ToLower(GetEnvOrDefault("STORE_DRIVER", "")),
		DatabaseURL:        GetEnvOrDefault("DATABASE_URL", ""),
		MongoURI:           GetEnvOrDefault("MONGODB_URI", ""),
		MongoDatabase:      GetEnvOrDefault("MONGODB_DATABASE", "wreaths"),
		CronSecret:         GetEnvOrDefault("CRON_SECRET", ""),
		JWTSecret:          GetEnvOrDefault("SUPABASE_JWT_SECRET", ""),
		ExposeCacheDebug:   GetEnvBool("EXPOSE_CACHE_DEBUG", false),
		VATRate:            GetEnvFloat("VAT_RATE", 0.21),
		DefaultLocale:      GetEnvOrDefault("DEFAULT_LOCALE", "cs"),
		CartStaleAfter:     GetEnvDuration("CART_STALE_AFTER", 30*24*time.Hour),
		DeliveryCutoffHour: GetEnvInt("DELIVERY_CUTOFF_HOUR", 12),
		LogLevel:           GetEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          GetEnvOrDefault("LOG_FORMAT", "json"),
		LogFile:            GetEnvOrDefault("LOG_FILE", ""),
	}

	if cfg.StoreDriver == "" {
		switch {
		case cfg.DatabaseURL != "":
			cfg.StoreDriver = StorePostgres
		case cfg.MongoURI != "":
			cfg.StoreDriver = StoreMongo
		default:
			cfg.StoreDriver = StoreMemory
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("STORE_DRIVER=postgres requires DATABASE_URL")
		}
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("STORE_DRIVER=mongo requires MONGODB_URI")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.VATRate < 0 || c.VATRate > 1 {
		return fmt.Errorf("VAT_RATE must be between 0 and 1, got %v", c.VATRate)
	}
	if c.DeliveryCutoffHour < 0 || c.DeliveryCutoffHour > 23 {
		return fmt.Errorf("DELIVERY_CUTOFF_HOUR must be between 0 and 23, got %d", c.DeliveryCutoffHour)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
