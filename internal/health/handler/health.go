// Package handler reports readiness over grpc.health.v1 and GET /healthz.
package handler

import (
	"context"
	"net/http"
	"time"

	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/klimov-rv/user-dashboard-backend/internal/httpx"
	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
	"github.com/klimov-rv/user-dashboard-backend/internal/revocation/domain"
)

// checkTimeout bounds each dependency check.
const checkTimeout = 2 * time.Second

// Pinger is used to check database connectivity (e.g. *sql.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

// LedgerReader reads the revocation ledger without changing it.
type LedgerReader interface {
	Entries(ctx context.Context) ([]domain.Entry, error)
}

// Server implements grpc.health.v1.Health and the HTTP health endpoint.
type Server struct {
	healthpb.UnimplementedHealthServer
	pinger   Pinger
	ledger   LedgerReader
	services map[string]bool
	logger   logging.Logger
}

// NewServer returns a health Server. pinger and ledger may be nil; then that
// check is skipped. services are the gRPC service names Check answers for in
// addition to "".
func NewServer(pinger Pinger, ledger LedgerReader, logger logging.Logger, services ...string) *Server {
	if logger == nil {
		logger = logging.Nop()
	}
	known := map[string]bool{"": true}
	for _, s := range services {
		known[s] = true
	}
	return &Server{pinger: pinger, ledger: ledger, services: known, logger: logger}
}

// Ready runs every configured check and returns the first failure.
func (s *Server) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()
	if s.pinger != nil {
		if err := s.pinger.PingContext(ctx); err != nil {
			return err
		}
	}
	if s.ledger != nil {
		if _, err := s.ledger.Entries(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Check implements grpc.health.v1.Health. A failed dependency reports
// NOT_SERVING rather than an RPC error.
func (s *Server) Check(ctx context.Context, req *healthpb.HealthCheckRequest) (*healthpb.HealthCheckResponse, error) {
	if !s.services[req.GetService()] {
		return nil, status.Errorf(codes.NotFound, "unknown service %q", req.GetService())
	}
	if err := s.Ready(ctx); err != nil {
		s.logger.Warn(ctx, "health check failed", "error", err)
		return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_NOT_SERVING}, nil
	}
	return &healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING}, nil
}

type statusResponse struct {
	Status string `json:"status"`
}

// ServeHTTP answers 200 {"status":"ok"} or 503 {"status":"unavailable"}.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := s.Ready(r.Context()); err != nil {
		s.logger.Warn(r.Context(), "health check failed", "error", err)
		httpx.JSON(w, r, http.StatusServiceUnavailable, statusResponse{Status: "unavailable"})
		return
	}
	httpx.JSON(w, r, http.StatusOK, statusResponse{Status: "ok"})
}
