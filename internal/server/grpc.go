package server

import (
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	healthhandler "github.com/klimov-rv/user-dashboard-backend/internal/health/handler"
	identityhandler "github.com/klimov-rv/user-dashboard-backend/internal/identity/handler"
	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
	"github.com/klimov-rv/user-dashboard-backend/internal/rpc"
	"github.com/klimov-rv/user-dashboard-backend/internal/server/interceptors"
)

const healthCheckMethod = "/grpc.health.v1.Health/Check"

// Deps holds the dependencies shared by the HTTP and gRPC transports.
type Deps struct {
	// Auth is the auth service behind every transport.
	Auth rpc.AuthService
	// Guard authorizes bearer tokens for protected routes and RPCs.
	Guard interceptors.Authorizer
	// Health answers grpc.health.v1 and GET /healthz. If nil, health is not served.
	Health *healthhandler.Server
	// Logger may be nil.
	Logger logging.Logger
}

func (d Deps) logger() logging.Logger {
	if d.Logger == nil {
		return logging.Nop()
	}
	return d.Logger
}

// RegisterServices registers the gRPC services with s.
//
//   - dashboard.auth.v1.AuthService → internal/identity/handler
//   - grpc.health.v1.Health         → internal/health/handler
func RegisterServices(s grpc.ServiceRegistrar, deps Deps) {
	identityhandler.RegisterAuthServiceServer(s, identityhandler.NewGRPCServer(deps.Auth, deps.logger()))
	if deps.Health != nil {
		healthpb.RegisterHealthServer(s, deps.Health)
	}
}

// publicMethods are the RPCs AuthUnary lets through without a token.
func publicMethods() map[string]bool {
	m := map[string]bool{healthCheckMethod: true}
	for name := range identityhandler.PublicMethods {
		m[name] = true
	}
	return m
}

// NewGRPCServer returns a gRPC server with logging and auth interceptors, OTel
// instrumentation and every service registered.
func NewGRPCServer(deps Deps, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			interceptors.LoggingUnary(deps.logger(), map[string]bool{healthCheckMethod: true}),
			interceptors.AuthUnary(deps.Guard, publicMethods()),
		),
	}, opts...)
	s := grpc.NewServer(opts...)
	RegisterServices(s, deps)
	return s
}
