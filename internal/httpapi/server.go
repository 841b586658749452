// Package httpapi exposes the account lifecycle over HTTP with cookie-carried sessions.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"userSessionService/internal/auth"
)

// DefaultCookieName is used when Options.CookieName is empty.
const DefaultCookieName = "session"

// Options configures a Server.
type Options struct {
	Service    *auth.Service
	Sessions   *auth.SessionManager
	Logger     *slog.Logger
	CookieName string
}

// Server bundles dependencies and implements the HTTP handlers.
type Server struct {
	service    *auth.Service
	sessions   *auth.SessionManager
	logger     *slog.Logger
	cookieName string
}

func NewServer(opts Options) *Server {
	if opts.Service == nil || opts.Sessions == nil {
		panic("httpapi: service and session manager are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	name := opts.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	return &Server{
		service:    opts.Service,
		sessions:   opts.Sessions,
		logger:     logger.With("component", "http"),
		cookieName: name,
	}
}

// Handler returns the routed handler. Every route below the session loader sees a
// session in its context; gated routes additionally see the authorized identity.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(accessLog(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.healthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.sessionLoader)

		r.Get("/", s.index)
		r.Post("/register", s.register)
		r.Post("/login", s.login)
		r.Post("/logout", s.logout)

		r.With(s.RequireAuthenticated).Get("/profile", s.profile)
		r.With(s.RequireAuthenticated).Post("/delete", s.deleteAccount)
		r.With(s.RequireAuthenticated, s.RequireAdmin).Get("/admin", s.admin)
	})
	return r
}

// Start serves h on addr and returns a shutdown function.
func Start(addr string, h http.Handler, logger *slog.Logger) (func(context.Context) error, error) {
	if addr == "" {
		addr = ":8000"
	}
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server stopped", "error", err)
		}
	}()
	return srv.Shutdown, nil
}
