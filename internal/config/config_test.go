package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klimov-rv/user-dashboard-backend/internal/security"
)

var configKeys = []string{
	"HTTP_ADDR", "GRPC_ADDR", "JWT_SECRET", "JWT_TTL", "BCRYPT_COST", "STORE_BACKEND",
	"DATA_DIR", "LEDGER_FORMAT", "LEDGER_SWEEP_INTERVAL", "DATABASE_URL", "LOG_LEVEL",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SERVICE_NAME", "APP_ENV",
}

// resetEnv unsets every config key for the duration of the test.
func resetEnv(t *testing.T) {
	t.Helper()
	for _, k := range configKeys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoad_Defaults(t *testing.T) {
	resetEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":3000" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":3000")
	}
	if cfg.GRPCAddr != ":8080" {
		t.Errorf("GRPCAddr = %q, want %q", cfg.GRPCAddr, ":8080")
	}
	if cfg.JWTSecret != "s3cret" {
		t.Errorf("JWTSecret = %q, want %q", cfg.JWTSecret, "s3cret")
	}
	if cfg.JWTTTL != time.Hour {
		t.Errorf("JWTTTL = %v, want 1h", cfg.JWTTTL)
	}
	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}
	if cfg.StoreBackend != BackendFile {
		t.Errorf("StoreBackend = %q, want file", cfg.StoreBackend)
	}
	if cfg.LedgerFormat != "json" {
		t.Errorf("LedgerFormat = %q, want json", cfg.LedgerFormat)
	}
	if cfg.LedgerSweepInterval != time.Minute {
		t.Errorf("LedgerSweepInterval = %v, want 1m", cfg.LedgerSweepInterval)
	}
	if cfg.ServiceName != "user-dashboard" {
		t.Errorf("ServiceName = %q, want user-dashboard", cfg.ServiceName)
	}
	if cfg.TelemetryEnabled() {
		t.Error("TelemetryEnabled should be false without an endpoint")
	}
	if got, want := cfg.UsersPath(), filepath.Join("data", "users.json"); got != want {
		t.Errorf("UsersPath = %q, want %q", got, want)
	}
	if got, want := cfg.LedgerPath(), filepath.Join("data", "tokens_bl.json"); got != want {
		t.Errorf("LedgerPath = %q, want %q", got, want)
	}
}

func TestLoad_EnvVarOverride(t *testing.T) {
	resetEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("HTTP_ADDR", ":4000")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("LEDGER_FORMAT", "cbor")
	t.Setenv("LEDGER_SWEEP_INTERVAL", "0s")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":4000" {
		t.Errorf("HTTPAddr = %q, want :4000", cfg.HTTPAddr)
	}
	if cfg.JWTTTL != 30*time.Minute {
		t.Errorf("JWTTTL = %v, want 30m", cfg.JWTTTL)
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.LedgerSweepInterval != 0 {
		t.Errorf("LedgerSweepInterval = %v, want 0", cfg.LedgerSweepInterval)
	}
	if !strings.HasSuffix(cfg.LedgerPath(), "tokens_bl.cbor") {
		t.Errorf("LedgerPath = %q, want tokens_bl.cbor", cfg.LedgerPath())
	}
	if !cfg.TelemetryEnabled() || !cfg.OTLPInsecure {
		t.Error("telemetry settings not picked up")
	}
}

func TestLoad_MissingSecret(t *testing.T) {
	resetEnv(t)

	_, err := Load()
	if !errors.Is(err, security.ErrMissingSecret) {
		t.Fatalf("Load without JWT_SECRET: want ErrMissingSecret, got %v", err)
	}
}

func TestLoad_SecretFromFile(t *testing.T) {
	resetEnv(t)
	path := filepath.Join(t.TempDir(), "jwt.secret")
	if err := os.WriteFile(path, []byte("from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("JWT_SECRET", "file:"+path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.JWTSecret != "from-file" {
		t.Errorf("JWTSecret = %q, want from-file", cfg.JWTSecret)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bcrypt too low", map[string]string{"BCRYPT_COST": "3"}},
		{"bcrypt too high", map[string]string{"BCRYPT_COST": "32"}},
		{"unknown backend", map[string]string{"STORE_BACKEND": "redis"}},
		{"postgres without url", map[string]string{"STORE_BACKEND": "postgres"}},
		{"unknown ledger format", map[string]string{"LEDGER_FORMAT": "xml"}},
		{"negative ttl", map[string]string{"JWT_TTL": "-1h"}},
		{"negative sweep", map[string]string{"LEDGER_SWEEP_INTERVAL": "-1s"}},
		{"bad duration", map[string]string{"JWT_TTL": "soon"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetEnv(t)
			t.Setenv("JWT_SECRET", "s3cret")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("Load should fail")
			}
		})
	}
}

func TestLoad_PostgresBackend(t *testing.T) {
	resetEnv(t)
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/dashboard")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreBackend != BackendPostgres {
		t.Errorf("StoreBackend = %q, want postgres", cfg.StoreBackend)
	}
}

func TestDatabaseURL_WithoutSecret(t *testing.T) {
	resetEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/dashboard")
	if got := DatabaseURL(); got != "postgres://localhost/dashboard" {
		t.Errorf("DatabaseURL = %q", got)
	}
}
