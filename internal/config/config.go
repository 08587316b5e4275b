// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/klimov-rv/user-dashboard-backend/internal/security"
)

// Storage backends for users and the revocation ledger.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the REST and JSON-RPC server listens on (e.g. :3000).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// GRPCAddr is the address the gRPC server listens on (e.g. :8080). Empty disables gRPC.
	GRPCAddr string `mapstructure:"GRPC_ADDR"`

	// JWTSecret is the HS256 signing secret, inline or "file:<path>". Resolved by Load.
	JWTSecret string `mapstructure:"JWT_SECRET"`
	// JWTTTL is the access token lifetime (default 1h).
	JWTTTL time.Duration `mapstructure:"JWT_TTL"`
	// BcryptCost is the bcrypt cost factor (4–31); default 10.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// StoreBackend selects where users and revoked tokens live: "file" or "postgres".
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	// DataDir holds users.json and the ledger file when StoreBackend is "file".
	DataDir string `mapstructure:"DATA_DIR"`
	// LedgerFormat is the on-disk ledger encoding: "json" or "cbor".
	LedgerFormat string `mapstructure:"LEDGER_FORMAT"`
	// LedgerSweepInterval is how often expired ledger entries are swept; 0 disables the sweeper.
	LedgerSweepInterval time.Duration `mapstructure:"LEDGER_SWEEP_INTERVAL"`
	// DatabaseURL is the Postgres DSN; required when StoreBackend is "postgres".
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. localhost:4317). Empty disables export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure disables TLS to the collector.
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// ServiceName is the OTel service.name resource attribute.
	ServiceName string `mapstructure:"OTEL_SERVICE_NAME"`

	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := newViper()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DatabaseURL returns DATABASE_URL from .env or the environment without
// validating the rest of the config. Used by tools that only touch the database.
func DatabaseURL() string {
	return newViper().GetString("DATABASE_URL")
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("GRPC_ADDR", ":8080")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", "1h")
	v.SetDefault("BCRYPT_COST", security.DefaultBcryptCost)
	v.SetDefault("STORE_BACKEND", BackendFile)
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("LEDGER_FORMAT", "json")
	v.SetDefault("LEDGER_SWEEP_INTERVAL", "1m")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("OTEL_SERVICE_NAME", "user-dashboard")
	v.SetDefault("APP_ENV", "")
	return v
}

func (c *Config) validate() error {
	if c.HTTPAddr == "" {
		return errors.New("config: HTTP_ADDR must be set")
	}

	secret, err := security.LoadSecret(c.JWTSecret)
	if err != nil {
		return fmt.Errorf("config: JWT_SECRET: %w", err)
	}
	c.JWTSecret = secret

	if c.JWTTTL < 0 {
		return errors.New("config: JWT_TTL must not be negative")
	}
	if c.JWTTTL == 0 {
		c.JWTTTL = security.DefaultTokenTTL
	}

	if c.BcryptCost == 0 {
		c.BcryptCost = security.DefaultBcryptCost
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	switch c.StoreBackend {
	case BackendFile:
		if c.DataDir == "" {
			return errors.New("config: DATA_DIR must be set when STORE_BACKEND=file")
		}
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DATABASE_URL must be set when STORE_BACKEND=postgres")
		}
	default:
		return fmt.Errorf("config: STORE_BACKEND must be %q or %q, got %q", BackendFile, BackendPostgres, c.StoreBackend)
	}

	switch c.LedgerFormat {
	case "json", "cbor":
	default:
		return fmt.Errorf("config: LEDGER_FORMAT must be json or cbor, got %q", c.LedgerFormat)
	}

	if c.LedgerSweepInterval < 0 {
		return errors.New("config: LEDGER_SWEEP_INTERVAL must not be negative")
	}
	return nil
}

// UsersPath is the users file for the file backend.
func (c *Config) UsersPath() string {
	return filepath.Join(c.DataDir, "users.json")
}

// LedgerPath is the revocation ledger file for the file backend. The JSON ledger
// is data/tokens_bl.json so ledgers written by earlier deployments keep applying.
func (c *Config) LedgerPath() string {
	if c.LedgerFormat == "cbor" {
		return filepath.Join(c.DataDir, "tokens_bl.cbor")
	}
	return filepath.Join(c.DataDir, "tokens_bl.json")
}

// TelemetryEnabled reports whether an OTLP endpoint is configured.
func (c *Config) TelemetryEnabled() bool {
	return c != nil && c.OTLPEndpoint != ""
}
