package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"userSessionService/repository"
)

var sessionCols = []string{"id", "user_id", "created_at", "expires_at"}

func fixedSessions(mock pgxmock.PgxPoolIface, now time.Time) *SessionRepository {
	r := NewSessionRepository(mock, time.Hour)
	r.now = func() time.Time { return now }
	return r
}

func TestSessionRepository_CreateOrGet_New(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(pgxmock.AnyArg(), now, now.Add(time.Hour)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s, err := fixedSessions(mock, now).CreateOrGet(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, repository.ValidSessionID(s.ID))
	assert.Nil(t, s.UserID)
	assert.Equal(t, now.Add(time.Hour), s.ExpiresAt)
}

func TestSessionRepository_CreateOrGet_Existing(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	id := strings.Repeat("ab", repository.SessionIDBytes)
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id, user_id, created_at, expires_at\s+FROM sessions`).
		WithArgs(id, now).
		WillReturnRows(pgxmock.NewRows(sessionCols).AddRow(id, int64(7), now, now.Add(time.Hour)))
	mock.ExpectQuery(`SELECT key, value FROM session_data`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"key", "value"}).AddRow("last_login_at", "2026-01-02T03:00:00Z"))

	s, err := fixedSessions(mock, now).CreateOrGet(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, s.ID)
	require.NotNil(t, s.UserID)
	assert.Equal(t, int64(7), *s.UserID)
	assert.Equal(t, map[string]string{"last_login_at": "2026-01-02T03:00:00Z"}, s.Data)
}

func TestSessionRepository_Get_UnboundAndMissing(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	id := strings.Repeat("cd", repository.SessionIDBytes)
	mock := newMock(t)
	mock.ExpectQuery(`FROM sessions`).
		WithArgs(id, now).
		WillReturnRows(pgxmock.NewRows(sessionCols).AddRow(id, nil, now, now.Add(time.Hour)))
	mock.ExpectQuery(`SELECT key, value FROM session_data`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"key", "value"}))
	mock.ExpectQuery(`FROM sessions`).
		WithArgs(id, now).
		WillReturnRows(pgxmock.NewRows(sessionCols))

	repo := fixedSessions(mock, now)
	s, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Nil(t, s.UserID)

	s, err = repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = repo.Get(context.Background(), "short")
	require.NoError(t, err)
	assert.Nil(t, s, "malformed ids never reach the database")
}

func TestSessionRepository_BindUnbind(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock := newMock(t)
	mock.ExpectExec(`UPDATE sessions SET user_id = \$1`).
		WithArgs(int64(7), "sid", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE sessions SET user_id = NULL`).
		WithArgs("sid", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE sessions SET user_id = NULL`).
		WithArgs("gone", now).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(`UPDATE sessions SET user_id = \$1`).
		WithArgs(int64(7), "sid", now).
		WillReturnError(errors.New("connection reset"))

	repo := fixedSessions(mock, now)
	require.NoError(t, repo.Bind(context.Background(), "sid", 7))
	require.NoError(t, repo.Unbind(context.Background(), "sid"))
	assert.ErrorIs(t, repo.Unbind(context.Background(), "gone"), repository.ErrSessionNotFound)
	assert.ErrorIs(t, repo.Bind(context.Background(), "sid", 7), repository.ErrStoreUnavailable)
}

func TestSessionRepository_Data(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock := newMock(t)
	mock.ExpectExec(`INSERT INTO session_data`).
		WithArgs("sid", "k", "v", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO session_data`).
		WithArgs("gone", "k", "v", now).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectQuery(`SELECT d.value`).
		WithArgs("sid", "k", now).
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow("v"))
	mock.ExpectQuery(`SELECT d.value`).
		WithArgs("sid", "missing", now).
		WillReturnRows(pgxmock.NewRows([]string{"value"}))

	repo := fixedSessions(mock, now)
	require.NoError(t, repo.PutData(context.Background(), "sid", "k", "v"))
	assert.ErrorIs(t, repo.PutData(context.Background(), "gone", "k", "v"), repository.ErrSessionNotFound)

	v, ok, err := repo.GetData(context.Background(), "sid", "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok, err = repo.GetData(context.Background(), "sid", "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSessionRepository_Delete(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock := newMock(t)
	mock.ExpectExec(`DELETE FROM sessions WHERE id = \$1`).
		WithArgs("sid").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM sessions WHERE expires_at <= \$1`).
		WithArgs(now).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	repo := fixedSessions(mock, now)
	require.NoError(t, repo.Delete(context.Background(), "sid"))
	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}
