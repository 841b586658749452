package auth

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// SessionTokenHeader is the response header that carries a newly issued client token.
const SessionTokenHeader = "x-session-token"

// NewUnaryAuthInterceptor returns a gRPC unary interceptor that opens the caller's
// session from the Bearer token in incoming metadata, applies the access level that
// policy declares for the method and injects the session and identity into the context.
// Methods absent from policy require authentication. Methods listed in skip bypass
// session handling entirely (e.g., health checks).
func NewUnaryAuthInterceptor(sessions *SessionManager, policy map[string]Access, skip ...string) grpc.UnaryServerInterceptor {
	bypass := make(map[string]struct{}, len(skip))
	for _, m := range skip {
		bypass[m] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := bypass[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		sess, err := sessions.Open(ctx, tokenFromMD(ctx))
		if err != nil {
			return nil, ToStatus(err)
		}
		if sess.Fresh() {
			if err := grpc.SetHeader(ctx, metadata.Pairs(SessionTokenHeader, sess.Token())); err != nil {
				return nil, status.Errorf(codes.Internal, "set session header: %v", err)
			}
		}

		access, ok := policy[info.FullMethod]
		if !ok {
			access = AccessAuthenticated
		}
		id, err := Authorize(ctx, sess, access)
		if err != nil {
			return nil, ToStatus(err)
		}
		ctx = WithSession(WithIdentity(ctx, id), sess)
		return handler(ctx, req)
	}
}

// tokenFromMD returns the Bearer token from incoming metadata, or "" when absent.
func tokenFromMD(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	vals := md.Get("authorization")
	if len(vals) == 0 {
		return ""
	}
	tok, _ := BearerToken(vals[0])
	return tok
}

// ToStatus maps an error kind to a gRPC status error.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		return err
	}
	code := codes.Internal
	switch {
	case errors.Is(err, ErrValidation):
		code = codes.InvalidArgument
	case errors.Is(err, ErrUsernameTaken):
		code = codes.AlreadyExists
	case errors.Is(err, ErrUnknownUsername), errors.Is(err, ErrNotFound):
		code = codes.NotFound
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrSessionNotFound):
		code = codes.Unauthenticated
	case errors.Is(err, ErrForbidden):
		code = codes.PermissionDenied
	case errors.Is(err, ErrStoreUnavailable):
		code = codes.Unavailable
	case errors.Is(err, context.Canceled):
		code = codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		code = codes.DeadlineExceeded
	}
	return status.Error(code, publicMessage(code, err))
}

// publicMessage hides infrastructure details from clients.
func publicMessage(code codes.Code, err error) string {
	switch code {
	case codes.Internal:
		return "internal error"
	case codes.Unavailable:
		return "service temporarily unavailable"
	default:
		return err.Error()
	}
}
