// Package config loads and validates application configuration from a YAML
// file and environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

// Config is the root configuration shared by the API server and travelctl.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	DocStore DocStoreConfig `yaml:"docstore"`
	Blob     BlobConfig     `yaml:"blob"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
	// MaxBodyBytes caps request bodies, photo uploads included.
	MaxBodyBytes int64 `yaml:"max_body_bytes" env:"SERVER_MAX_BODY_BYTES" env-default:"33554432"`
}

// DatabaseConfig holds PostgreSQL connection settings. Only used by the
// postgres document store.
type DatabaseConfig struct {
	URL      string `yaml:"url"       env:"DATABASE_URL"`
	MaxConns int32  `yaml:"max_conns" env:"DATABASE_MAX_CONNS" env-default:"10"`
	// Migrate applies pending goose migrations on startup.
	Migrate bool `yaml:"migrate" env:"DATABASE_MIGRATE" env-default:"true"`
}

// DocStoreConfig selects the document store backend.
type DocStoreConfig struct {
	Driver string `yaml:"driver" env:"DOCSTORE_DRIVER" env-default:"postgres"`
}

// BlobConfig selects and configures the photo store.
type BlobConfig struct {
	Driver          string `yaml:"driver"            env:"BLOB_DRIVER"            env-default:"s3"`
	Bucket          string `yaml:"bucket"            env:"BLOB_BUCKET"`
	Region          string `yaml:"region"            env:"BLOB_REGION"            env-default:"us-east-1"`
	Endpoint        string `yaml:"endpoint"          env:"BLOB_ENDPOINT"`
	PublicBaseURL   string `yaml:"public_base_url"   env:"BLOB_PUBLIC_BASE_URL"`
	AccessKeyID     string `yaml:"access_key_id"     env:"BLOB_ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"BLOB_SECRET_ACCESS_KEY"`
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret" env:"AUTH_JWT_SECRET"`
	JWTIssuer string        `yaml:"jwt_issuer" env:"AUTH_JWT_ISSUER" env-default:"travel-go"`
	TokenTTL  time.Duration `yaml:"token_ttl"  env:"AUTH_TOKEN_TTL"  env-default:"24h"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:"info"`
	// Format is json or text.
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	// AllowedOrigins is a comma-separated list. Defaults to the Vite dev server.
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ORIGINS" env-default:"http://localhost:5173"`
	MaxAge         int    `yaml:"max_age"         env:"CORS_MAX_AGE" env-default:"300"`
}

// Origins returns AllowedOrigins split and trimmed, ignoring empty entries.
func (c CORSConfig) Origins() []string {
	return splitCSV(c.AllowedOrigins)
}

// Addr is the listen address for the HTTP server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Load reads configuration from a YAML file and environment variables.
// Priority: ENV > YAML > env-default tags. The file path comes from
// CONFIG_PATH (fallback "./config.yaml"); a missing fallback file means
// ENV + defaults only, a missing explicit file is an error.
func Load() (Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicitPath := path != ""
	if !explicitPath {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicitPath {
		return Config{}, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings each selected driver depends on and reports
// every problem at once.
func (c *Config) Validate() error {
	var problems []string

	switch c.DocStore.Driver {
	case DriverMemory:
	case DriverPostgres:
		if c.Database.URL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres document store")
		}
	default:
		problems = append(problems, fmt.Sprintf("docstore.driver %q must be memory or postgres", c.DocStore.Driver))
	}

	switch c.Blob.Driver {
	case DriverMemory:
	case DriverS3:
		if c.Blob.Bucket == "" {
			problems = append(problems, "BLOB_BUCKET is required for the s3 blob store")
		}
	default:
		problems = append(problems, fmt.Sprintf("blob.driver %q must be memory or s3", c.Blob.Driver))
	}

	if len(c.Auth.JWTSecret) < 32 {
		problems = append(problems, fmt.Sprintf("AUTH_JWT_SECRET must be at least 32 characters (got %d)", len(c.Auth.JWTSecret)))
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("log.format %q must be json or text", c.Log.Format))
	}

	if c.Server.MaxBodyBytes <= 0 {
		problems = append(problems, "server.max_body_bytes must be > 0")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
