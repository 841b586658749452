package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"userSessionService/internal/auth"
	"userSessionService/internal/config"
	grpcserver "userSessionService/internal/grpc"
	"userSessionService/internal/httpapi"
	"userSessionService/internal/logging"
)

const shutdownTimeout = 5 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and gRPC servers",
		Long: `Start the HTTP API and the gRPC AccountService. Pending migrations are
applied on startup and expired sessions are swept in the background.`,
		RunE: runServe,
	}
}

// app holds the wired service graph shared by serve and create-admin.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	stores   *stores
	service  *auth.Service
	sessions *auth.SessionManager
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	hasher, err := auth.NewPasswordHasher(cfg.Auth.Hasher)
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenCodec(cfg.Session.Secret)
	if err != nil {
		return nil, err
	}
	st, err := openStores(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &app{
		cfg:      cfg,
		logger:   logger,
		stores:   st,
		service:  auth.NewService(st.users, auth.NewHashPool(hasher, cfg.Auth.HashWorkers), logger),
		sessions: auth.NewSessionManager(st.sessions, auth.NewResolver(st.users), tokens, logger),
	}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := logging.Setup("usersessiond", version, cfg.Log.Format, cfg.Log.Level, cmd.ErrOrStderr())
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "config", cfg.String())

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.stores.Close(); err != nil {
			logger.Error("close database", "error", err)
		}
	}()

	if cfg.Auth.AdminUsername != "" {
		created, err := a.service.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword)
		if err != nil {
			return oops.Code("ADMIN_BOOTSTRAP_FAILED").With("username", cfg.Auth.AdminUsername).Wrap(err)
		}
		logger.Info("admin account checked", "username", cfg.Auth.AdminUsername, "created", created)
	}

	sweeper := auth.NewSweeper(a.stores.sessions, cfg.Session.SweepInterval, logger)
	sweeper.Start(ctx)
	defer sweeper.Stop()

	web := httpapi.NewServer(httpapi.Options{
		Service:    a.service,
		Sessions:   a.sessions,
		Logger:     logger,
		CookieName: cfg.Session.CookieName,
	})
	stopHTTP, err := httpapi.Start(cfg.HTTP.Address, web.Handler(), logger)
	if err != nil {
		return oops.Code("HTTP_LISTEN_FAILED").With("address", cfg.HTTP.Address).Wrap(err)
	}
	logger.Info("http server listening", "address", cfg.HTTP.Address)

	stopGRPC, err := grpcserver.StartGRPC(cfg.GRPC.Address, grpcserver.NewServer(grpcserver.Deps{
		Service:  a.service,
		Sessions: a.sessions,
		Logger:   logger,
	}))
	if err != nil {
		_ = stopHTTP(context.Background())
		return oops.Code("GRPC_LISTEN_FAILED").With("address", cfg.GRPC.Address).Wrap(err)
	}
	logger.Info("grpc server listening", "address", cfg.GRPC.Address)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stopHTTP(shutdownCtx); err != nil {
		logger.Error("http shutdown", "error", err)
	}
	if err := stopGRPC(shutdownCtx); err != nil {
		logger.Error("grpc shutdown", "error", err)
	}
	return nil
}

// stderrLogger is used by the short-lived subcommands.
func stderrLogger(cfg *config.Config) *slog.Logger {
	return logging.Setup("usersessiond", version, cfg.Log.Format, cfg.Log.Level, os.Stderr)
}
