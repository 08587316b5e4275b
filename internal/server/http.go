package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/klimov-rv/user-dashboard-backend/internal/httpx"
	identityhandler "github.com/klimov-rv/user-dashboard-backend/internal/identity/handler"
	"github.com/klimov-rv/user-dashboard-backend/internal/rpc"
	userhandler "github.com/klimov-rv/user-dashboard-backend/internal/user/handler"
)

// RootMessage is the body of GET /.
const RootMessage = "user dashboard API is running"

// NewRouter returns the HTTP API:
//
//	GET   /               liveness text
//	GET   /healthz        readiness
//	POST  /api/register   POST /api/login
//	GET   /api/profile    PATCH /api/profile   (guarded)
//	POST  /api/password   POST /api/logout     (guarded)
//	POST  /rpc            JSON-RPC 2.0
func NewRouter(deps Deps) http.Handler {
	logger := deps.logger()
	auth := identityhandler.NewHTTPHandler(deps.Auth, logger)
	profiles := userhandler.NewHTTPHandler(deps.Auth, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpx.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(RootMessage))
	})
	if deps.Health != nil {
		r.Method(http.MethodGet, "/healthz", deps.Health)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", auth.Register)
		r.Post("/login", auth.Login)
		r.Group(func(r chi.Router) {
			r.Use(httpx.RequireAuth(deps.Guard, logger))
			r.Get("/profile", profiles.GetProfile)
			r.Patch("/profile", profiles.UpdateProfile)
			r.Post("/password", profiles.ChangePassword)
			r.Post("/logout", auth.Logout)
		})
	})

	r.Method(http.MethodPost, "/rpc", rpc.NewAuthServer(deps.Guard, deps.Auth, rpc.WithLogger(logger)))
	return r
}

// NewHTTPServer wraps handler in an http.Server with conservative timeouts.
func NewHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
