package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port          string `envconfig:"PORT" default:"8080"`
	AllowedOrigin string `envconfig:"ALLOWED_ORIGIN" default:"http://127.0.0.1:3000"`

	DatabaseURL   string `envconfig:"DATABASE_URL"`
	DBAutoMigrate bool   `envconfig:"DB_AUTO_MIGRATE" default:"true"`

	RedisAddr              string `envconfig:"REDIS_ADDR"`
	RedisPassword          string `envconfig:"REDIS_PASSWORD"`
	RedisDB                int    `envconfig:"REDIS_DB" default:"0"`
	SummaryCacheTTLSeconds int    `envconfig:"SUMMARY_CACHE_TTL_SECONDS" default:"30"`

	AuthSecret            string `envconfig:"AUTH_SECRET"`
	AccessTokenTTLMinutes int    `envconfig:"ACCESS_TOKEN_TTL_MINUTES" default:"480"`

	DefaultTenantID      string `envconfig:"DEFAULT_TENANT_ID" default:"main"`
	FiscalYearStartMonth int    `envconfig:"FISCAL_YEAR_START_MONTH" default:"1"`

	SeedAdminPassword  string `envconfig:"SEED_ADMIN_PASSWORD"`
	SeedSellerPassword string `envconfig:"SEED_SELLER_PASSWORD"`
	SeedClearSalePIN   string `envconfig:"SEED_CLEAR_SALE_PIN"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`
}

// Load reads an optional .env file and then the process environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	cfg.AuthSecret = strings.TrimSpace(cfg.AuthSecret)
	cfg.DefaultTenantID = strings.TrimSpace(cfg.DefaultTenantID)

	if cfg.AccessTokenTTLMinutes < 1 {
		cfg.AccessTokenTTLMinutes = 480
	}
	if cfg.SummaryCacheTTLSeconds < 1 {
		cfg.SummaryCacheTTLSeconds = 30
	}
	if cfg.FiscalYearStartMonth < 1 || cfg.FiscalYearStartMonth > 12 {
		return Config{}, fmt.Errorf("FISCAL_YEAR_START_MONTH must be between 1 and 12, got %d", cfg.FiscalYearStartMonth)
	}
	if cfg.DefaultTenantID == "" {
		return Config{}, fmt.Errorf("DEFAULT_TENANT_ID must not be empty")
	}
	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func (c Config) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c Config) SummaryCacheTTL() time.Duration {
	return time.Duration(c.SummaryCacheTTLSeconds) * time.Second
}

func (c Config) FiscalYearStart() time.Month {
	return time.Month(c.FiscalYearStartMonth)
}
