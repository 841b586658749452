package grpcserver

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"userSessionService/internal/auth"
)

// Health methods bypass session handling.
const (
	healthCheckMethod = "/grpc.health.v1.Health/Check"
	healthListMethod  = "/grpc.health.v1.Health/List"
)

// Deps are the collaborators the gRPC transport needs.
type Deps struct {
	Service  *auth.Service
	Sessions *auth.SessionManager
	Logger   *slog.Logger
}

// NewServer builds a gRPC server exposing AccountService and the standard health service.
func NewServer(deps Deps) *grpc.Server {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		logUnary(logger),
		auth.NewUnaryAuthInterceptor(deps.Sessions, Policy(), healthCheckMethod, healthListMethod),
	))

	RegisterAccountServiceServer(srv, &AccountServer{Service: deps.Service, Logger: logger})

	hs := health.NewServer()
	hs.SetServingStatus(AccountServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(srv, hs)
	return srv
}

// StartGRPC listens on addr, serves srv in the background and returns a shutdown function.
func StartGRPC(addr string, srv *grpc.Server) (func(context.Context) error, error) {
	if addr == "" {
		addr = ":50051"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	go func() { _ = srv.Serve(lis) }()

	return func(ctx context.Context) error {
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, nil
}

func logUnary(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		level := slog.LevelInfo
		if isInternal(err) {
			level = slog.LevelError
		}
		logger.Log(ctx, level, "grpc request",
			slog.String("method", info.FullMethod),
			slog.String("code", code.String()),
			slog.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}

func isInternal(err error) bool {
	switch status.Code(err) {
	case codes.Internal, codes.Unavailable, codes.Unknown, codes.DataLoss:
		return true
	}
	return false
}
