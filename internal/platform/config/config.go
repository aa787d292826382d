package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	AppEnv        string        `env:"APP_ENV" default:"development"`
	Port          string        `env:"PORT" default:"8080"`
	StoreDriver   string        `env:"STORE_DRIVER" default:"postgres"`
	DatabaseURL   string        `env:"DATABASE_URL"`
	RedisURL      string        `env:"REDIS_URL"`
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE" default:"168h"`
	CORSOrigins   string        `env:"CORS_ORIGINS" default:"http://localhost:3000"`
	LogLevel      string        `env:"LOG_LEVEL" default:"info"`
	LogFormat     string        `env:"LOG_FORMAT" default:"text"`

	UploadDir      string `env:"UPLOAD_DIR" default:"uploads"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" default:"10485760"` // 10 MiB
	DefaultRooms   string `env:"DEFAULT_ROOMS" default:"General Chat"`

	LiveSendBuffer   int           `env:"LIVE_SEND_BUFFER" default:"64"`
	LivePingInterval time.Duration `env:"LIVE_PING_INTERVAL" default:"30s"`
	LiveWriteTimeout time.Duration `env:"LIVE_WRITE_TIMEOUT" default:"5s"`
	LiveReadLimit    int64         `env:"LIVE_READ_LIMIT" default:"4096"`

	LoginRate  float64 `env:"LOGIN_RATE" default:"1"`
	LoginBurst int     `env:"LOGIN_BURST" default:"5"`

	UserCacheTTL time.Duration `env:"USER_CACHE_TTL" default:"10m"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Production reports whether cookies should be marked Secure.
func (c *Config) Production() bool {
	return c.AppEnv == "production"
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	return splitList(c.CORSOrigins)
}

// DefaultRoomTitles splits DEFAULT_ROOMS on commas.
func (c *Config) DefaultRoomTitles() []string {
	return splitList(c.DefaultRooms)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func validate(cfg *Config) error {
	if cfg.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	if len(cfg.SessionSecret) < 32 {
		return errors.New("SESSION_SECRET must be at least 32 characters")
	}

	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", StoreDriverPostgres, StoreDriverMemory, cfg.StoreDriver)
	}

	if cfg.LiveSendBuffer < 1 {
		return errors.New("LIVE_SEND_BUFFER must be at least 1")
	}
	if cfg.LivePingInterval <= 0 || cfg.LiveWriteTimeout <= 0 {
		return errors.New("LIVE_PING_INTERVAL and LIVE_WRITE_TIMEOUT must be positive")
	}
	if cfg.LiveReadLimit < 128 {
		return errors.New("LIVE_READ_LIMIT must be at least 128 bytes")
	}
	if cfg.MaxUploadBytes < 1 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.LoginRate <= 0 || cfg.LoginBurst < 1 {
		return errors.New("LOGIN_RATE and LOGIN_BURST must be positive")
	}
	if cfg.UserCacheTTL <= 0 {
		return errors.New("USER_CACHE_TTL must be positive")
	}

	return nil
}
