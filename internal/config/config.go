package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig   `envPrefix:"SERVER_"`
	Database DatabaseConfig `envPrefix:"DATABASE_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	Storage  StorageConfig  `envPrefix:"STORAGE_"`
	Logging  LoggingConfig  `envPrefix:"LOG_"`
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr string `env:"ADDR" envDefault:":8080"`
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string        `env:"URL"`
	MaxIdleConns    int           `env:"MAX_IDLE_CONNS"`
	MaxOpenConns    int           `env:"MAX_OPEN_CONNS"`
	ConnMaxLifetime time.Duration `env:"CONN_MAX_LIFETIME"`
	ConnMaxIdleTime time.Duration `env:"CONN_MAX_IDLE_TIME"`
}

// AuthConfig controls bearer-token issuance.
type AuthConfig struct {
	Secret   string        `env:"SECRET" envDefault:"devsecret"`
	TokenTTL time.Duration `env:"TOKEN_TTL" envDefault:"24h"`
}

// StorageConfig selects and configures the recipe image store.
type StorageConfig struct {
	Backend  string      `env:"BACKEND" envDefault:"disk"`
	DiskRoot string      `env:"DISK_ROOT" envDefault:"media"`
	Minio    MinioConfig `envPrefix:"MINIO_"`
}

// MinioConfig contains S3-compatible object storage parameters.
type MinioConfig struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"recipedia-media"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// LoggingConfig controls the global logger.
type LoggingConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

// Load parses the environment and builds a Config value.
func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if strings.TrimSpace(cfg.Server.Addr) == "" {
		return Config{}, fmt.Errorf("server address must not be empty")
	}

	switch cfg.Storage.Backend {
	case "disk", "minio":
	default:
		return Config{}, fmt.Errorf("unknown storage backend: %s", cfg.Storage.Backend)
	}

	return cfg, nil
}
