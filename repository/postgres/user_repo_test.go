package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userSessionService/models"
	"userSessionService/repository"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		mock.Close()
	})
	return mock
}

func TestUserRepository_Insert(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantID    int64
		wantErr   error
	}{
		{
			name: "inserted",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "hash", false).
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(2)))
			},
			wantID: 2,
		},
		{
			name: "unique violation",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "hash", false).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: repository.ErrUsernameTaken,
		},
		{
			name: "connection failure",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("alice", "hash", false).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: repository.ErrStoreUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := newMock(t)
			tt.setupMock(mock)

			id, err := NewUserRepository(mock).Insert(context.Background(), "alice", "hash", false)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestUserRepository_Find(t *testing.T) {
	cols := []string{"id", "username", "password_hash", "is_admin"}

	t.Run("by id", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`SELECT id, username, password_hash, is_admin\s+FROM users\s+WHERE id = \$1`).
			WithArgs(int64(2)).
			WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(2), "root", "hash", true))

		u, err := NewUserRepository(mock).FindByID(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, &models.User{ID: 2, Username: "root", PasswordHash: "hash", IsAdmin: true}, u)
	})

	t.Run("by username", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`WHERE username = \$1`).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows(cols).AddRow(int64(3), "alice", "hash", false))

		u, err := NewUserRepository(mock).FindByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(3), u.ID)
		assert.False(t, u.IsAdmin)
	})

	t.Run("absent", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`WHERE username = \$1`).
			WithArgs("nobody").
			WillReturnRows(pgxmock.NewRows(cols))

		u, err := NewUserRepository(mock).FindByUsername(context.Background(), "nobody")
		require.NoError(t, err)
		assert.Nil(t, u)
	})

	t.Run("failure", func(t *testing.T) {
		mock := newMock(t)
		mock.ExpectQuery(`WHERE id = \$1`).
			WithArgs(int64(2)).
			WillReturnError(errors.New("connection refused"))

		_, err := NewUserRepository(mock).FindByID(context.Background(), 2)
		assert.ErrorIs(t, err, repository.ErrStoreUnavailable)
	})
}

func TestUserRepository_DeleteByUsername(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM users WHERE username = \$1`).
		WithArgs("alice").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM users WHERE username = \$1`).
		WithArgs("alice").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	repo := NewUserRepository(mock)
	n, err := repo.DeleteByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = repo.DeleteByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestUserRepository_List(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id, username, is_admin\s+FROM users\s+ORDER BY id`).
		WithArgs(100, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "is_admin"}).
			AddRow(int64(1), "guest", false).
			AddRow(int64(2), "root", true))

	users, err := NewUserRepository(mock).List(context.Background(), 0, -5)
	require.NoError(t, err)
	assert.Equal(t, []models.User{
		{ID: 1, Username: "guest"},
		{ID: 2, Username: "root", IsAdmin: true},
	}, users)
}
