package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"userSessionService/models"
	"userSessionService/repository"
)

// UserRepository implements repository.CredentialStore using PostgreSQL.
type UserRepository struct {
	pool Pool
}

var _ repository.CredentialStore = (*UserRepository)(nil)

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Insert creates an account; the UNIQUE constraint on username arbitrates races.
func (r *UserRepository) Insert(ctx context.Context, username, passwordHash string, isAdmin bool) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, is_admin)
		VALUES ($1, $2, $3)
		RETURNING id
	`, username, passwordHash, isAdmin).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, oops.Code("USERNAME_TAKEN").With("username", username).Wrap(repository.ErrUsernameTaken)
		}
		return 0, repository.Unavailable("insert user", err)
	}
	return id, nil
}

// FindByID returns the account or (nil, nil) if absent.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, is_admin
		FROM users
		WHERE id = $1
	`, id)
	u, err := scanUser(row)
	if err != nil {
		return nil, repository.Unavailable("find user by id", err)
	}
	return u, nil
}

// FindByUsername returns the account or (nil, nil) if absent.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash, is_admin
		FROM users
		WHERE username = $1
	`, username)
	u, err := scanUser(row)
	if err != nil {
		return nil, repository.Unavailable("find user by username", err)
	}
	return u, nil
}

// DeleteByUsername hard-deletes the account and reports the number of rows removed.
func (r *UserRepository) DeleteByUsername(ctx context.Context, username string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE username = $1`, username)
	if err != nil {
		return 0, repository.Unavailable("delete user", err)
	}
	return tag.RowsAffected(), nil
}

// List returns accounts ordered by id.
func (r *UserRepository) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, username, is_admin
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, repository.Unavailable("list users", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.IsAdmin); err != nil {
			return nil, repository.Unavailable("scan user row", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, repository.Unavailable("iterate user rows", err)
	}
	return out, nil
}

// scanUser returns (nil, nil) for pgx.ErrNoRows.
func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.IsAdmin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
