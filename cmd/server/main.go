// server runs the user dashboard API: REST and JSON-RPC over HTTP, and the
// AuthService over gRPC.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klimov-rv/user-dashboard-backend/internal/config"
	healthhandler "github.com/klimov-rv/user-dashboard-backend/internal/health/handler"
	identityhandler "github.com/klimov-rv/user-dashboard-backend/internal/identity/handler"
	"github.com/klimov-rv/user-dashboard-backend/internal/identity/service"
	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
	"github.com/klimov-rv/user-dashboard-backend/internal/revocation"
	"github.com/klimov-rv/user-dashboard-backend/internal/security"
	"github.com/klimov-rv/user-dashboard-backend/internal/server"
	"github.com/klimov-rv/user-dashboard-backend/internal/session"
	"github.com/klimov-rv/user-dashboard-backend/internal/store"
	"github.com/klimov-rv/user-dashboard-backend/internal/telemetry"
	telemetryotel "github.com/klimov-rv/user-dashboard-backend/internal/telemetry/otel"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := logging.New(os.Stdout, cfg.LogLevel).With("service", cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	providers, err := telemetryotel.NewProviders(ctx, telemetryotel.Config{
		Endpoint:    cfg.OTLPEndpoint,
		ServiceName: cfg.ServiceName,
		Insecure:    cfg.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	providers.SetGlobal()

	stores, err := store.Open(cfg)
	if err != nil {
		return err
	}
	defer stores.Close()

	tokens, err := security.NewTokenProvider(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		return err
	}
	ledger := revocation.NewLedger(stores.Revoked, revocation.WithLogger(logger.With("component", "revocation")))
	guard := session.NewGuard(tokens, ledger, logger.With("component", "guard"))
	auth := service.NewAuthService(stores.Users, security.NewHasher(cfg.BcryptCost), tokens, guard, logger.With("component", "auth"))
	if cfg.TelemetryEnabled() {
		auth.SetEventEmitter(telemetryotel.NewEventEmitter(providers.LoggerProvider))
	}

	var pinger healthhandler.Pinger
	if stores.DB != nil {
		pinger = stores.DB
	}
	deps := server.Deps{
		Auth:   auth,
		Guard:  guard,
		Health: healthhandler.NewServer(pinger, ledger, logger, identityhandler.ServiceName),
		Logger: logger,
	}

	go revocation.NewSweeper(ledger, cfg.LedgerSweepInterval, logger).Run(ctx)

	httpSrv := server.NewHTTPServer(cfg.HTTPAddr, server.NewRouter(deps))
	errCh := make(chan error, 2)
	go func() {
		logger.Info(ctx, "http server listening", "addr", cfg.HTTPAddr, "backend", cfg.StoreBackend)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	grpcSrv := server.NewGRPCServer(deps)
	if cfg.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		go func() {
			logger.Info(ctx, "grpc server listening", "addr", cfg.GRPCAddr)
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info(context.Background(), "shutting down")
	case err = <-errCh:
		logger.Error(context.Background(), "server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := httpSrv.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn(shutdownCtx, "http shutdown", "error", shutdownErr)
	}
	grpcSrv.GracefulStop()

	if cfg.TelemetryEnabled() {
		time.Sleep(telemetry.ShutdownDrainDuration)
	}
	if shutdownErr := providers.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn(shutdownCtx, "telemetry shutdown", "error", shutdownErr)
	}
	return err
}
