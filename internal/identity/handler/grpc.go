package handler

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/klimov-rv/user-dashboard-backend/internal/identity/service"
	"github.com/klimov-rv/user-dashboard-backend/internal/logging"
	"github.com/klimov-rv/user-dashboard-backend/internal/revocation"
	"github.com/klimov-rv/user-dashboard-backend/internal/server/interceptors"
	"github.com/klimov-rv/user-dashboard-backend/internal/session"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "dashboard.auth.v1.AuthService"

const (
	AuthService_Register_FullMethodName   = "/" + ServiceName + "/Register"
	AuthService_Login_FullMethodName      = "/" + ServiceName + "/Login"
	AuthService_Logout_FullMethodName     = "/" + ServiceName + "/Logout"
	AuthService_Validate_FullMethodName   = "/" + ServiceName + "/Validate"
	AuthService_GetProfile_FullMethodName = "/" + ServiceName + "/GetProfile"
)

// PublicMethods are the RPCs callable without a bearer token. Validate carries
// the token to check in its request.
var PublicMethods = map[string]bool{
	AuthService_Register_FullMethodName: true,
	AuthService_Login_FullMethodName:    true,
	AuthService_Validate_FullMethodName: true,
}

// AuthServiceServer is the server API for dashboard.auth.v1.AuthService.
// Requests and responses are google.protobuf.Struct messages.
type AuthServiceServer interface {
	Register(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Logout(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Validate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(AuthServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// AuthService_ServiceDesc is the grpc.ServiceDesc for AuthService.
var AuthService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: methodHandler(AuthService_Register_FullMethodName, AuthServiceServer.Register)},
		{MethodName: "Login", Handler: methodHandler(AuthService_Login_FullMethodName, AuthServiceServer.Login)},
		{MethodName: "Logout", Handler: methodHandler(AuthService_Logout_FullMethodName, AuthServiceServer.Logout)},
		{MethodName: "Validate", Handler: methodHandler(AuthService_Validate_FullMethodName, AuthServiceServer.Validate)},
		{MethodName: "GetProfile", Handler: methodHandler(AuthService_GetProfile_FullMethodName, AuthServiceServer.GetProfile)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dashboard/auth/v1/auth.proto",
}

// RegisterAuthServiceServer registers srv on s.
func RegisterAuthServiceServer(s grpc.ServiceRegistrar, srv AuthServiceServer) {
	s.RegisterService(&AuthService_ServiceDesc, srv)
}

func methodHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AuthServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AuthServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AuthServiceClient calls dashboard.auth.v1.AuthService.
type AuthServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewAuthServiceClient returns a client over cc.
func NewAuthServiceClient(cc grpc.ClientConnInterface) *AuthServiceClient {
	return &AuthServiceClient{cc: cc}
}

// Call invokes fullMethod with in and returns the response struct.
func (c *AuthServiceClient) Call(ctx context.Context, fullMethod string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GRPCServer implements AuthServiceServer over the auth service.
type GRPCServer struct {
	auth   AuthService
	logger logging.Logger
	now    func() time.Time
}

// NewGRPCServer returns a GRPCServer over auth. logger may be nil.
func NewGRPCServer(auth AuthService, logger logging.Logger) *GRPCServer {
	if logger == nil {
		logger = logging.Nop()
	}
	return &GRPCServer{auth: auth, logger: logger, now: time.Now}
}

// Register creates an account from email, password and name.
func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := s.auth.Register(ctx, stringField(req, "email"), stringField(req, "password"), stringField(req, "name"))
	if err != nil {
		return nil, s.toStatus(ctx, "register", err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"message": MsgRegistered,
		"userId":  id,
	})
}

// Login exchanges email and password for an access token.
func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.auth.Login(ctx, stringField(req, "email"), stringField(req, "password"))
	if err != nil {
		return nil, s.toStatus(ctx, "login", err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"token":     res.Token,
		"expiresIn": res.ExpiresIn,
		"user": map[string]interface{}{
			"id":    res.User.ID,
			"email": res.User.Email,
			"name":  res.User.Name,
		},
	})
}

// Logout revokes the token the call was authorized with.
func (s *GRPCServer) Logout(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	token, ok := interceptors.GetToken(ctx)
	if !ok {
		return nil, session.ErrUnauthenticated
	}
	if err := s.auth.Logout(ctx, token); err != nil {
		s.logger.Error(ctx, "logout", "error", err)
		return nil, status.Error(codes.Internal, MsgLogoutFailed)
	}
	return structpb.NewStruct(map[string]interface{}{
		"message":    MsgLoggedOut,
		"logoutTime": s.now().UTC().Format(time.RFC3339Nano),
	})
}

// Validate reports whether the token in the request (or, when absent, the
// authorization metadata of the call) is usable. Validate is public, so a
// rejected header reaches here and the Guard's own error is returned.
func (s *GRPCServer) Validate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	header := interceptors.Authorization(ctx)
	if token := stringField(req, "token"); token != "" {
		header = "Bearer " + token
	}
	claims, err := s.auth.Validate(ctx, header)
	if err != nil {
		return nil, s.toStatus(ctx, "validate", err)
	}
	out := map[string]interface{}{
		"valid":  true,
		"userId": claims.UserID,
		"email":  claims.Email,
	}
	if claims.ExpiresAt != nil {
		out["expiresAt"] = claims.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return structpb.NewStruct(out)
}

// GetProfile returns the caller's profile.
func (s *GRPCServer) GetProfile(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	userID, ok := interceptors.GetUserID(ctx)
	if !ok {
		return nil, session.ErrUnauthenticated
	}
	p, err := s.auth.Profile(ctx, userID)
	if err != nil {
		return nil, s.toStatus(ctx, "get profile", err)
	}
	out := map[string]interface{}{
		"id":        p.ID,
		"email":     p.Email,
		"name":      p.Name,
		"createdAt": p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if !p.UpdatedAt.IsZero() {
		out["updatedAt"] = p.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return structpb.NewStruct(out)
}

// toStatus maps service errors to gRPC statuses. Authorization failures keep
// their own status.
func (s *GRPCServer) toStatus(ctx context.Context, op string, err error) error {
	if _, ok := session.AsAuthError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, revocation.ErrUndecodableToken):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		return status.Error(codes.AlreadyExists, MsgUserExists)
	case errors.Is(err, service.ErrInvalidCredentials):
		return status.Error(codes.Unauthenticated, MsgInvalidCredentials)
	case errors.Is(err, service.ErrUserNotFound):
		return status.Error(codes.NotFound, err.Error())
	}
	s.logger.Error(ctx, op, "error", err)
	return status.Error(codes.Internal, "internal error")
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}
