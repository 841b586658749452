package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/samber/oops"

	"userSessionService/models"
)

// UserRepository is the SQLite CredentialStore.
type UserRepository struct {
	db *sql.DB
}

var _ CredentialStore = (*UserRepository)(nil)

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Insert creates an account. Uniqueness is enforced by the UNIQUE constraint on
// username, so concurrent inserts of the same name cannot both succeed.
func (r *UserRepository) Insert(ctx context.Context, username, passwordHash string, isAdmin bool) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `INSERT INTO users (username, password_hash, is_admin) VALUES (?, ?, ?)`,
		username, passwordHash, isAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, oops.Code("USERNAME_TAKEN").With("username", username).Wrap(ErrUsernameTaken)
		}
		return 0, Unavailable("insert user", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, Unavailable("insert user id", err)
	}
	return id, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u models.User
	err := r.db.QueryRowContext(ctx, `SELECT id, username, password_hash, is_admin FROM users WHERE id = ?`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, Unavailable("find user by id", err)
	}
	return &u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var u models.User
	err := r.db.QueryRowContext(ctx, `SELECT id, username, password_hash, is_admin FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, Unavailable("find user by username", err)
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT id, username, is_admin FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, Unavailable("list users", err)
	}
	defer rows.Close()
	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.IsAdmin); err != nil {
			return nil, Unavailable("scan user row", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, Unavailable("iterate user rows", err)
	}
	return out, nil
}

func (r *UserRepository) DeleteByUsername(ctx context.Context, username string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return 0, Unavailable("delete user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, Unavailable("delete user rows affected", err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}
