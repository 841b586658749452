package grpcserver

import (
	"context"
	"log/slog"
	"math"

	"github.com/samber/oops"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"userSessionService/internal/auth"
)

// AccountServer implements AccountServiceServer on top of the account lifecycle service.
// Session and identity are placed in the context by the auth interceptor.
type AccountServer struct {
	Service *auth.Service
	Logger  *slog.Logger
}

var _ AccountServiceServer = (*AccountServer)(nil)

// Policy declares the access level of every AccountService method.
func Policy() map[string]auth.Access {
	return map[string]auth.Access{
		AccountService_Register_FullMethodName:      auth.AccessPublic,
		AccountService_Login_FullMethodName:         auth.AccessPublic,
		AccountService_Logout_FullMethodName:        auth.AccessPublic,
		AccountService_Whoami_FullMethodName:        auth.AccessAuthenticated,
		AccountService_DeleteAccount_FullMethodName: auth.AccessAuthenticated,
		AccountService_ListUsers_FullMethodName:     auth.AccessAdmin,
	}
}

func (s *AccountServer) Register(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	if err := s.Service.Register(ctx, stringField(in, "username"), stringField(in, "password")); err != nil {
		return nil, s.status(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *AccountServer) Login(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	sess, _ := auth.SessionFromContext(ctx)
	desc, err := s.Service.Login(ctx, sess, stringField(in, "username"), stringField(in, "password"))
	if err != nil {
		return nil, s.status(ctx, err)
	}
	return s.newStruct(ctx, map[string]any{
		"session_token": desc.SessionToken,
		"username":      desc.Username,
		"is_admin":      desc.IsAdmin,
	})
}

func (s *AccountServer) Logout(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	sess, _ := auth.SessionFromContext(ctx)
	if err := s.Service.Logout(ctx, sess); err != nil {
		return nil, s.status(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *AccountServer) Whoami(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	id, _ := auth.IdentityFromContext(ctx)
	out := map[string]any{
		"id":       id.ID,
		"username": id.Username,
		"is_admin": id.IsAdmin(),
	}
	if sess, ok := auth.SessionFromContext(ctx); ok {
		last, found, err := sess.GetData(ctx, auth.LastLoginKey)
		if err != nil {
			return nil, s.status(ctx, err)
		}
		if found {
			out["last_login_at"] = last
		}
	}
	return s.newStruct(ctx, out)
}

func (s *AccountServer) DeleteAccount(ctx context.Context, in *structpb.Struct) (*emptypb.Empty, error) {
	sess, _ := auth.SessionFromContext(ctx)
	id, _ := auth.IdentityFromContext(ctx)
	target := stringField(in, "username")
	if target == "" {
		target = id.Username
	}
	if err := s.Service.DeleteAccount(ctx, sess, id, target); err != nil {
		return nil, s.status(ctx, err)
	}
	return &emptypb.Empty{}, nil
}

func (s *AccountServer) ListUsers(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	users, err := s.Service.ListUsers(ctx, intField(in, "limit"), intField(in, "offset"))
	if err != nil {
		return nil, s.status(ctx, err)
	}
	list := make([]any, 0, len(users))
	for _, u := range users {
		list = append(list, map[string]any{
			"id":       u.ID,
			"username": u.Username,
			"is_admin": u.IsAdmin,
		})
	}
	return s.newStruct(ctx, map[string]any{"users": list})
}

func (s *AccountServer) status(ctx context.Context, err error) error {
	st := auth.ToStatus(err)
	if s.Logger != nil && isInternal(st) {
		s.Logger.ErrorContext(ctx, "account rpc failed", slog.Any("error", err))
	}
	return st
}

func (s *AccountServer) newStruct(ctx context.Context, fields map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, s.status(ctx, oops.Code("ENCODE_FAILED").Wrap(err))
	}
	return out, nil
}

func stringField(in *structpb.Struct, key string) string {
	if in == nil {
		return ""
	}
	v, ok := in.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

// intField reads a non-negative integer field; missing or invalid values read as 0.
func intField(in *structpb.Struct, key string) int {
	if in == nil {
		return 0
	}
	v, ok := in.GetFields()[key]
	if !ok {
		return 0
	}
	n := v.GetNumberValue()
	if math.IsNaN(n) || n <= 0 {
		return 0
	}
	return int(min(n, math.MaxInt32))
}
