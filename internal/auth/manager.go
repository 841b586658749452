package auth

import (
	"context"
	"log/slog"

	"userSessionService/repository"
)

// SessionManager opens the per-request Session for a client token.
type SessionManager struct {
	store    repository.SessionStore
	resolver *Resolver
	tokens   *TokenCodec
	logger   *slog.Logger
}

func NewSessionManager(store repository.SessionStore, resolver *Resolver, tokens *TokenCodec, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{store: store, resolver: resolver, tokens: tokens, logger: logger}
}

// Open returns the session named by clientToken. A missing, tampered or expired token,
// or one naming an entry that no longer exists, yields a new unbound session whose
// token the transport must return to the client.
func (m *SessionManager) Open(ctx context.Context, clientToken string) (*Session, error) {
	var sid string
	if clientToken != "" {
		id, err := m.tokens.Parse(clientToken)
		if err != nil {
			m.logger.DebugContext(ctx, "discarding invalid session token", "error", err)
		} else {
			sid = id
		}
	}

	entry, err := m.store.CreateOrGet(ctx, sid)
	if err != nil {
		return nil, err
	}

	s := &Session{
		store:    m.store,
		resolver: m.resolver,
		logger:   m.logger,
		entry:    entry,
		token:    clientToken,
	}
	if entry.ID == sid {
		sessionsOpened.WithLabelValues("existing").Inc()
		return s, nil
	}

	s.fresh = true
	s.token, err = m.tokens.Issue(entry.ID, entry.ExpiresAt)
	if err != nil {
		return nil, err
	}
	sessionsOpened.WithLabelValues("new").Inc()
	return s, nil
}
