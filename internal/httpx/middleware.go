package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
	"github.com/klimov-rv/user-dashboard-backend/internal/security"
	"github.com/klimov-rv/user-dashboard-backend/internal/server/interceptors"
	"github.com/klimov-rv/user-dashboard-backend/internal/session"
)

// Authorizer resolves an Authorization header value to token claims.
type Authorizer interface {
	Authorize(ctx context.Context, header string) (*security.Claims, error)
}

// RequireAuth rejects requests the guard does not authorize with a 401 and puts
// the caller's identity in the request context otherwise.
func RequireAuth(guard Authorizer, logger logging.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			claims, err := guard.Authorize(r.Context(), header)
			if err != nil {
				if AuthError(w, r, err) {
					return
				}
				logger.Error(r.Context(), "authorize request", "error", err)
				InternalError(w, r)
				return
			}
			ctx := interceptors.WithIdentity(r.Context(), claims, session.BearerToken(header))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger writes one log line per HTTP request.
func RequestLogger(logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			}
			if ww.Status() >= http.StatusInternalServerError {
				logger.Warn(r.Context(), "http request failed", args...)
				return
			}
			logger.Info(r.Context(), "http request", args...)
		})
	}
}
