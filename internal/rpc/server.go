package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/klimov-rv/user-dashboard-backend/internal/httpx"
	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
	"github.com/klimov-rv/user-dashboard-backend/internal/security"
	"github.com/klimov-rv/user-dashboard-backend/internal/session"
)

// maxBodyBytes caps a request body.
const maxBodyBytes = 1 << 20

// Authorizer resolves an Authorization header value to token claims.
type Authorizer interface {
	Authorize(ctx context.Context, header string) (*security.Claims, error)
}

// Call is one method invocation.
type Call struct {
	Method string
	Params json.RawMessage
	// Header is the request's Authorization header.
	Header string
	// Claims and Token are set for guarded methods only.
	Claims *security.Claims
	Token  string
}

// Bind decodes the call's params into v and validates it. Missing params decode
// as an empty object.
func (c *Call) Bind(v any) error {
	raw := bytes.TrimSpace(c.Params)
	if len(raw) == 0 || bytes.Equal(raw, nullID) {
		raw = []byte("{}")
	}
	if raw[0] != '{' {
		return fmt.Errorf("%w: params must be an object", ErrInvalidParams)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidParams, err.Error())
	}
	if err := httpx.Validate(v); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidParams, err.Error())
	}
	return nil
}

// Handler runs one method and returns its result.
type Handler func(ctx context.Context, call *Call) (any, error)

type method struct {
	handler Handler
	guarded bool
}

// Server dispatches JSON-RPC requests to registered methods.
type Server struct {
	guard   Authorizer
	methods map[string]method
	// mapErr turns domain errors into RPC errors; nil results fall through to
	// the generic internal error.
	mapErr func(error) *Error
	logger logging.Logger
	now    func() time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for failed calls.
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock replaces the time source for timestamps in results.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		if now != nil {
			s.now = now
		}
	}
}

// NewServer returns a Server that authorizes guarded methods with guard.
func NewServer(guard Authorizer, opts ...Option) *Server {
	s := &Server{
		guard:   guard,
		methods: make(map[string]method),
		logger:  logging.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle registers h under name. Guarded methods run only for authorized callers.
func (s *Server) Handle(name string, guarded bool, h Handler) {
	s.methods[name] = method{handler: h, guarded: guarded}
}

// ServeHTTP answers every request with HTTP 200 and a JSON-RPC response body.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || !json.Valid(body) {
		s.write(w, r, Response{Error: &Error{Code: CodeParseError, Message: "Parse error"}})
		return
	}
	var req request
	if err := json.Unmarshal(body, &req); err != nil {
		s.write(w, r, Response{Error: &Error{Code: CodeInvalidRequest, Message: "Invalid Request"}})
		return
	}
	result, rpcErr := s.dispatch(r.Context(), &req, r.Header.Get("Authorization"))
	s.write(w, r, Response{Result: result, Error: rpcErr, ID: req.ID})
}

func (s *Server) dispatch(ctx context.Context, req *request, header string) (any, *Error) {
	var name string
	if err := json.Unmarshal(req.Method, &name); err != nil || name == "" {
		return nil, &Error{Code: CodeInvalidRequest, Message: "Invalid Request"}
	}
	namespace, action, _ := strings.Cut(name, ".")
	m, ok := s.methods[name]
	if !ok || namespace == "" || action == "" {
		return nil, &Error{Code: CodeMethodNotFound, Message: "Method not found", Data: map[string]string{"method": name}}
	}

	call := &Call{Method: name, Params: req.Params, Header: header}
	if m.guarded {
		claims, err := s.guard.Authorize(ctx, header)
		if err != nil {
			return nil, s.toError(ctx, name, err)
		}
		call.Claims = claims
		call.Token = session.BearerToken(header)
	}

	result, err := m.handler(ctx, call)
	if err != nil {
		return nil, s.toError(ctx, name, err)
	}
	return result, nil
}

func (s *Server) toError(ctx context.Context, name string, err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	if ae, ok := session.AsAuthError(err); ok {
		return &Error{Code: CodeUnauthorized, Message: ae.Message, Data: AuthErrorData{Code: ae.Code}}
	}
	if errors.Is(err, ErrInvalidParams) {
		return &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	if s.mapErr != nil {
		if mapped := s.mapErr(err); mapped != nil {
			return mapped
		}
	}
	s.logger.Error(ctx, "rpc method failed", "method", name, "error", err)
	return &Error{Code: CodeInternalError, Message: "internal error"}
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, resp Response) {
	resp.JSONRPC = version
	if len(resp.ID) == 0 {
		resp.ID = nullID
	}
	httpx.JSON(w, r, http.StatusOK, resp)
}
