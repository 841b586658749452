package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/samber/oops"

	"userSessionService/models"
	"userSessionService/repository"
)

// SessionRepository implements repository.SessionStore using PostgreSQL.
type SessionRepository struct {
	pool Pool
	ttl  time.Duration
	now  func() time.Time
}

var _ repository.SessionStore = (*SessionRepository)(nil)

// NewSessionRepository creates a SessionRepository whose entries live for ttl.
// A non-positive ttl selects repository.DefaultSessionTTL.
func NewSessionRepository(pool Pool, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = repository.DefaultSessionTTL
	}
	return &SessionRepository{pool: pool, ttl: ttl, now: time.Now}
}

// CreateOrGet returns the live session named by id or allocates a new unbound one.
func (r *SessionRepository) CreateOrGet(ctx context.Context, id string) (*models.Session, error) {
	if id != "" {
		s, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if s != nil {
			return s, nil
		}
	}

	newID, err := repository.NewSessionID()
	if err != nil {
		return nil, err
	}
	now := r.now().UTC()
	s := &models.Session{
		ID:        newID,
		Data:      map[string]string{},
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at)
		VALUES ($1, NULL, $2, $3)
	`, s.ID, s.CreatedAt, s.ExpiresAt)
	if err != nil {
		return nil, repository.Unavailable("insert session", err)
	}
	return s, nil
}

// Get returns the live session or (nil, nil) if absent or expired.
func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	if !repository.ValidSessionID(id) {
		return nil, nil
	}

	var (
		s      models.Session
		userID pgtype.Int8
	)
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, created_at, expires_at
		FROM sessions
		WHERE id = $1 AND expires_at > $2
	`, id, r.now().UTC()).Scan(&s.ID, &userID, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, repository.Unavailable("get session", err)
	}
	if userID.Valid {
		uid := userID.Int64
		s.UserID = &uid
	}

	rows, err := r.pool.Query(ctx, `SELECT key, value FROM session_data WHERE session_id = $1`, id)
	if err != nil {
		return nil, repository.Unavailable("get session data", err)
	}
	defer rows.Close()

	s.Data = map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, repository.Unavailable("scan session data", err)
		}
		s.Data[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, repository.Unavailable("iterate session data", err)
	}
	return &s, nil
}

// Bind sets the bound user of a live session.
func (r *SessionRepository) Bind(ctx context.Context, id string, userID int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions SET user_id = $1
		WHERE id = $2 AND expires_at > $3
	`, userID, id, r.now().UTC())
	if err != nil {
		return repository.Unavailable("bind session", err)
	}
	return requireRow(tag, "bind session")
}

// Unbind clears the bound user of a live session.
func (r *SessionRepository) Unbind(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE sessions SET user_id = NULL
		WHERE id = $1 AND expires_at > $2
	`, id, r.now().UTC())
	if err != nil {
		return repository.Unavailable("unbind session", err)
	}
	return requireRow(tag, "unbind session")
}

// PutData upserts one scratch value.
func (r *SessionRepository) PutData(ctx context.Context, id, key, value string) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO session_data (session_id, key, value)
		SELECT id, $2, $3 FROM sessions WHERE id = $1 AND expires_at > $4
		ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value
	`, id, key, value, r.now().UTC())
	if err != nil {
		return repository.Unavailable("put session data", err)
	}
	return requireRow(tag, "put session data")
}

// GetData reads one scratch value.
func (r *SessionRepository) GetData(ctx context.Context, id, key string) (string, bool, error) {
	var v string
	err := r.pool.QueryRow(ctx, `
		SELECT d.value
		FROM session_data d
		JOIN sessions s ON s.id = d.session_id
		WHERE d.session_id = $1 AND d.key = $2 AND s.expires_at > $3
	`, id, key, r.now().UTC()).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, repository.Unavailable("get session data", err)
	}
	return v, true, nil
}

// Delete removes a session and, by cascade, its data.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id); err != nil {
		return repository.Unavailable("delete session", err)
	}
	return nil
}

// DeleteExpired removes all expired sessions and returns the count.
func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, r.now().UTC())
	if err != nil {
		return 0, repository.Unavailable("delete expired sessions", err)
	}
	return tag.RowsAffected(), nil
}

func requireRow(tag pgconn.CommandTag, op string) error {
	if tag.RowsAffected() == 0 {
		return oops.Code("SESSION_NOT_FOUND").With("operation", op).Wrap(repository.ErrSessionNotFound)
	}
	return nil
}
