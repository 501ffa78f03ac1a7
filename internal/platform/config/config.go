package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

const (
	minPort = 1
	maxPort = 65535
)

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	RootDir   string `env:"ROOT_DIR" default:"./data"`
	Port      int    `env:"PORT" default:"15000"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	// MaxPortAttempts is how many ports above PORT are tried on bind conflicts.
	MaxPortAttempts int `env:"MAX_PORT_ATTEMPTS" default:"100"`
	Workers         int `env:"WORKERS" default:"8"`

	// RedisURL switches the config store from files to Redis when set.
	RedisURL string `env:"REDIS_URL"`

	// ProtocolVersion is the host's network protocol version. Server entries
	// reporting another version are flagged as incompatible.
	ProtocolVersion int `env:"PROTOCOL_VERSION" default:"767"`

	PingRate        float64       `env:"PING_RATE" default:"20"`
	PingTimeout     time.Duration `env:"PING_TIMEOUT" default:"5s"`
	TickInterval    time.Duration `env:"TICK_INTERVAL" default:"50ms"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" default:"10s"`
}

// ThemesDir is where theme packages live.
func (c *Config) ThemesDir() string {
	return filepath.Join(c.RootDir, "themes")
}

// ConfigDir is where the file config store keeps its documents.
func (c *Config) ConfigDir() string {
	return filepath.Join(c.RootDir, "config")
}

// ServerListPath is the SQLite database holding the server list.
func (c *Config) ServerListPath() string {
	return filepath.Join(c.RootDir, "servers.db")
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

func validate(cfg *Config) error {
	if cfg.RootDir == "" {
		return errors.New("ROOT_DIR is required")
	}
	if cfg.Port < minPort || cfg.Port > maxPort {
		return fmt.Errorf("PORT must be between %d and %d, got %d", minPort, maxPort, cfg.Port)
	}
	if cfg.MaxPortAttempts < 0 {
		return errors.New("MAX_PORT_ATTEMPTS must not be negative")
	}
	if cfg.Port+cfg.MaxPortAttempts > maxPort {
		return fmt.Errorf("PORT + MAX_PORT_ATTEMPTS exceeds %d", maxPort)
	}
	if cfg.Workers < 1 {
		return errors.New("WORKERS must be at least 1")
	}
	if cfg.ProtocolVersion < 0 {
		return errors.New("PROTOCOL_VERSION must not be negative")
	}
	if cfg.PingRate <= 0 {
		return errors.New("PING_RATE must be positive")
	}
	if cfg.TickInterval <= 0 {
		return errors.New("TICK_INTERVAL must be positive")
	}
	return nil
}
