package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samber/oops"

	"userSessionService/models"
)

// SessionRepository is the SQLite SessionStore. Timestamps are stored as unix milliseconds.
type SessionRepository struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var _ SessionStore = (*SessionRepository)(nil)

// NewSessionRepository creates a SessionRepository whose entries live for ttl.
// A non-positive ttl selects DefaultSessionTTL.
func NewSessionRepository(db *sql.DB, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRepository{db: db, ttl: ttl, now: time.Now}
}

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
	return r.create(ctx)
}

func (r *SessionRepository) create(ctx context.Context) (*models.Session, error) {
	id, err := NewSessionID()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	now := r.now()
	s := &models.Session{
		ID:        id,
		Data:      map[string]string{},
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, NULL, ?, ?)`,
		s.ID, s.CreatedAt.UnixMilli(), s.ExpiresAt.UnixMilli())
	if err != nil {
		return nil, Unavailable("insert session", err)
	}
	return s, nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*models.Session, error) {
	if !ValidSessionID(id) {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		s         models.Session
		userID    sql.NullInt64
		createdAt int64
		expiresAt int64
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ? AND expires_at > ?`,
		id, r.now().UnixMilli()).Scan(&s.ID, &userID, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, Unavailable("get session", err)
	}
	if userID.Valid {
		uid := userID.Int64
		s.UserID = &uid
	}
	s.CreatedAt = time.UnixMilli(createdAt)
	s.ExpiresAt = time.UnixMilli(expiresAt)

	rows, err := r.db.QueryContext(ctx, `SELECT key, value FROM session_data WHERE session_id = ?`, id)
	if err != nil {
		return nil, Unavailable("get session data", err)
	}
	defer rows.Close()
	s.Data = map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, Unavailable("scan session data", err)
		}
		s.Data[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, Unavailable("iterate session data", err)
	}
	return &s, nil
}

func (r *SessionRepository) Bind(ctx context.Context, id string, userID int64) error {
	return r.setUser(ctx, "bind session", id, sql.NullInt64{Int64: userID, Valid: true})
}

func (r *SessionRepository) Unbind(ctx context.Context, id string) error {
	return r.setUser(ctx, "unbind session", id, sql.NullInt64{})
}

func (r *SessionRepository) setUser(ctx context.Context, op, id string, userID sql.NullInt64) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `UPDATE sessions SET user_id = ? WHERE id = ? AND expires_at > ?`,
		userID, id, r.now().UnixMilli())
	if err != nil {
		return Unavailable(op, err)
	}
	return requireRow(res, op)
}

func (r *SessionRepository) PutData(ctx context.Context, id, key, value string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO session_data (session_id, key, value)
		SELECT id, ?, ? FROM sessions WHERE id = ? AND expires_at > ?
		ON CONFLICT (session_id, key) DO UPDATE SET value = excluded.value`,
		key, value, id, r.now().UnixMilli())
	if err != nil {
		return Unavailable("put session data", err)
	}
	return requireRow(res, "put session data")
}

func (r *SessionRepository) GetData(ctx context.Context, id, key string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var v string
	err := r.db.QueryRowContext(ctx, `SELECT d.value FROM session_data d
		JOIN sessions s ON s.id = d.session_id
		WHERE d.session_id = ? AND d.key = ? AND s.expires_at > ?`,
		id, key, r.now().UnixMilli()).Scan(&v)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, Unavailable("get session data", err)
	}
	return v, true, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return Unavailable("delete session", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, r.now().UnixMilli())
	if err != nil {
		return 0, Unavailable("delete expired sessions", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, Unavailable("delete expired sessions rows affected", err)
	}
	return n, nil
}

func requireRow(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return Unavailable(op+" rows affected", err)
	}
	if n == 0 {
		return oops.Code("SESSION_NOT_FOUND").With("operation", op).Wrap(ErrSessionNotFound)
	}
	return nil
}
