package shared

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string        `env:"APP_ENV" envDefault:"prod"`
	HTTPAddr       string        `env:"HTTP_ADDR" envDefault:":8080"`
	MetricsAddr    string        `env:"METRICS_ADDR"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	TrustProxy     bool          `env:"TRUST_PROXY" envDefault:"false"`

	Storage     string `env:"STORAGE" envDefault:"mysql"` // mysql|memory
	MySQLDSN    string `env:"MYSQL_DSN" envDefault:"root:root@tcp(localhost:3306)/spots?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	RedisAddr string        `env:"REDIS_ADDR"`
	RedisPass string        `env:"REDIS_PASSWORD"`
	RedisDB   int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL  time.Duration `env:"CACHE_TTL" envDefault:"15m"`

	JWTSecret    string        `env:"JWT_SECRET"`
	JWTExpiresIn time.Duration `env:"JWT_EXPIRES_IN" envDefault:"168h"`

	AuthRateLimit float64 `env:"AUTH_RATE_LIMIT" envDefault:"1"`
	AuthRateBurst int     `env:"AUTH_RATE_BURST" envDefault:"5"`

	SeedWorkers int `env:"SEED_WORKERS" envDefault:"4"`
}

// IsDev reports whether stack traces and console logging are enabled.
func (c Config) IsDev() bool {
	return c.AppEnv == "dev" || c.AppEnv == "development"
}

// devJWTSecret is only accepted when APP_ENV is dev.
const devJWTSecret = "dev-only-insecure-secret"

func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if c.Storage != "mysql" && c.Storage != "memory" {
		return Config{}, fmt.Errorf("STORAGE must be mysql or memory, got %q", c.Storage)
	}
	if c.JWTSecret == "" {
		if !c.IsDev() {
			return Config{}, errors.New("JWT_SECRET is required")
		}
		log.Warn().Msg("JWT_SECRET is empty; using the development secret")
		c.JWTSecret = devJWTSecret
	}
	if c.RedisAddr == "" {
		log.Warn().Msg("REDIS_ADDR is empty; caching and token revocation disabled")
	}
	return c, nil
}
