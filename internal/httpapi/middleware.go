package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"

	"userSessionService/internal/auth"
)

// RequestIDHeader carries the request id on requests and responses.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned by the requestID middleware.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID assigns a ULID to every request unless the client sent one.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = ulid.Make().String()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// accessLog logs one line per request.
func accessLog(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.InfoContext(r.Context(), "http request",
				"request_id", RequestIDFromContext(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}

// sessionLoader opens the per-request session from the session cookie, or from a
// Bearer token when no cookie is present, and hands a new cookie to clients whose
// session had to be created.
func (s *Server) sessionLoader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.sessions.Open(r.Context(), s.clientToken(r))
		if err != nil {
			writeError(r.Context(), w, s.logger, err)
			return
		}
		if sess.Fresh() {
			http.SetCookie(w, &http.Cookie{
				Name:     s.cookieName,
				Value:    sess.Token(),
				Path:     "/",
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(auth.SessionTokenHeader, sess.Token())
		}
		next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), sess)))
	})
}

func (s *Server) clientToken(r *http.Request) string {
	if c, err := r.Cookie(s.cookieName); err == nil && c.Value != "" {
		return c.Value
	}
	tok, _ := auth.BearerToken(r.Header.Get("Authorization"))
	return tok
}

// gate applies an access level before the handler runs and attaches the
// authorized identity to the request context.
func (s *Server) gate(access auth.Access) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := auth.SessionFromContext(r.Context())
			id, err := auth.Authorize(r.Context(), sess, access)
			if err != nil {
				writeError(r.Context(), w, s.logger, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuthenticated rejects anonymous callers with 401.
func (s *Server) RequireAuthenticated(next http.Handler) http.Handler {
	return s.gate(auth.AccessAuthenticated)(next)
}

// RequireAdmin rejects anonymous callers with 401 and non-admins with 403.
func (s *Server) RequireAdmin(next http.Handler) http.Handler {
	return s.gate(auth.AccessAdmin)(next)
}
