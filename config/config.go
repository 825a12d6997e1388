// Package config loads server settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	BackendMongo  = "mongo"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

type Config struct {
	Port     string `env:"PORT" env-default:"8080"`
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`

	StoreBackend  string `env:"STORE_BACKEND" env-default:"mongo"`
	MongoURI      string `env:"MONGODB_URI" env-default:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGODB_DATABASE" env-default:"parent_planner"`
	BoltPath      string `env:"BOLT_PATH" env-default:"parentplanner.db"`

	RedisAddr     string        `env:"REDIS_ADDR"`
	RedisDB       int           `env:"REDIS_DB" env-default:"0"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	UserCacheTTL  time.Duration `env:"USER_CACHE_TTL" env-default:"24h"`

	JWTSecret      string        `env:"JWT_SECRET" env-required:"true"`
	TokenTTL       time.Duration `env:"TOKEN_TTL" env-default:"24h"`
	AllowedOrigins []string      `env:"ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://localhost:5173"`

	SmtpServer   string `env:"SMTP_HOST"`
	SmtpPort     int    `env:"SMTP_PORT" env-default:"587"`
	SmtpUser     string `env:"SMTP_USER"`
	SmtpPassword string `env:"SMTP_PASSWORD"`
	AppBaseURL   string `env:"APP_BASE_URL" env-default:"http://localhost:5173"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" env-default:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" env-default:"20"`
	TrustProxy     bool    `env:"TRUST_PROXY" env-default:"false"`
}

// Load reads envFile when it exists, then the process environment. Variables
// already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case BackendMongo, BackendBolt, BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return errors.New("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	return nil
}

// Addr is the listen address for Port.
func (c Config) Addr() string {
	return ":" + c.Port
}

// MailEnabled reports whether an SMTP server is configured.
func (c Config) MailEnabled() bool {
	return c.SmtpServer != ""
}
