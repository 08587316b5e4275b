package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/klimov-rv/user-dashboard-backend/internal/security"
	"github.com/klimov-rv/user-dashboard-backend/internal/session"
)

// Authorizer resolves an Authorization header value to token claims.
type Authorizer interface {
	Authorize(ctx context.Context, header string) (*security.Claims, error)
}

// AuthUnary returns a unary server interceptor that runs the authorization header
// from gRPC metadata through guard and sets the identity in context for protected RPCs.
// publicMethods is the set of full method names that do not require a token
// (e.g. AuthService Register, Login; grpc.health.v1.Health Check). A public method
// called with a valid token still gets the identity in context.
func AuthUnary(guard Authorizer, publicMethods map[string]bool) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		header := Authorization(ctx)
		public := publicMethods[info.FullMethod]

		if header == "" && public {
			return handler(ctx, req)
		}

		claims, err := guard.Authorize(ctx, header)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			if _, ok := session.AsAuthError(err); ok {
				return nil, err
			}
			return nil, status.Error(codes.Internal, "authorization failed")
		}

		ctx = WithIdentity(ctx, claims, session.BearerToken(header))
		return handler(ctx, req)
	}
}

// Authorization returns the authorization metadata value, or "" if missing.
// Public methods that authorize on their own read the raw header here.
func Authorization(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}
