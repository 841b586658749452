package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	st := newTestStack(t)
	anon := st.open(t, "")
	user := st.loggedIn(t, "alice", "pw", false)
	admin := st.loggedIn(t, "root", "pw", true)

	tests := []struct {
		name    string
		sess    *Session
		access  Access
		wantErr error
	}{
		{"public admits anonymous", anon, AccessPublic, nil},
		{"authenticated rejects anonymous", anon, AccessAuthenticated, ErrUnauthenticated},
		{"authenticated admits user", user, AccessAuthenticated, nil},
		{"admin rejects anonymous as unauthenticated", anon, AccessAdmin, ErrUnauthenticated},
		{"admin rejects user", user, AccessAdmin, ErrForbidden},
		{"admin admits admin", admin, AccessAdmin, nil},
		{"nil session", nil, AccessAuthenticated, ErrUnauthenticated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Authorize(context.Background(), tt.sess, tt.access)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAuthorize_ReturnsEvaluatedIdentity(t *testing.T) {
	st := newTestStack(t)
	user := st.loggedIn(t, "alice", "pw", false)

	id, err := Authorize(context.Background(), user, AccessAdmin)
	require.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, "alice", id.Username)
}

func TestAuthorize_StoreFailureDenies(t *testing.T) {
	ctx := context.Background()
	st := newTestStack(t)
	user := st.loggedIn(t, "alice", "pw", false)

	broken := NewSessionManager(st.sessions, NewResolver(brokenUsers{}), st.tokens, discardLogger())
	sess, err := broken.Open(ctx, user.Token())
	require.NoError(t, err)

	id, err := Authorize(ctx, sess, AccessAuthenticated)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.False(t, id.IsAuthenticated())
}

func TestAccess_String(t *testing.T) {
	assert.Equal(t, "public", AccessPublic.String())
	assert.Equal(t, "authenticated", AccessAuthenticated.String())
	assert.Equal(t, "admin", AccessAdmin.String())
}
