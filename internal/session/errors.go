package session

import (
	"errors"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind classifies why a request was not authorized.
type Kind int

const (
	KindUnauthenticated Kind = iota + 1
	KindInvalid
	KindExpired
	KindSessionRevoked
)

// String returns the stable code for k.
func (k Kind) String() string {
	switch k {
	case KindUnauthenticated:
		return "auth_required"
	case KindInvalid:
		return "token_invalid"
	case KindExpired:
		return "token_expired"
	case KindSessionRevoked:
		return "session_revoked"
	default:
		return "unknown"
	}
}

// AuthError is a request-time authorization failure. Transports turn it into a
// 401 response or a gRPC Unauthenticated status.
type AuthError struct {
	Kind    Kind
	Code    string
	Message string
}

func newAuthError(kind Kind, message string) *AuthError {
	return &AuthError{Kind: kind, Code: kind.String(), Message: message}
}

var (
	ErrUnauthenticated = newAuthError(KindUnauthenticated, "Authorization required")
	ErrInvalid         = newAuthError(KindInvalid, "Invalid token")
	ErrExpired         = newAuthError(KindExpired, "Token expired")
	ErrSessionRevoked  = newAuthError(KindSessionRevoked, "Session has ended. Sign in again.")
)

func (e *AuthError) Error() string {
	return e.Message
}

// Is matches any AuthError of the same Kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

// HTTPStatus is the status code every authorization failure maps to.
func (e *AuthError) HTTPStatus() int {
	return http.StatusUnauthorized
}

// errorDomain identifies the service in gRPC ErrorInfo details.
const errorDomain = "dashboard.auth"

// GRPCStatus lets status.FromError map the error to codes.Unauthenticated. The
// stable code travels as the ErrorInfo reason.
func (e *AuthError) GRPCStatus() *status.Status {
	st := status.New(codes.Unauthenticated, e.Message)
	if withInfo, err := st.WithDetails(&errdetails.ErrorInfo{Reason: e.Code, Domain: errorDomain}); err == nil {
		return withInfo
	}
	return st
}

// AsAuthError returns the AuthError in err's chain, if any.
func AsAuthError(err error) (*AuthError, bool) {
	var ae *AuthError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
