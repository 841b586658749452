package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCodec_RoundTrip(t *testing.T) {
	c, err := NewTokenCodec(testSecret)
	require.NoError(t, err)

	tok, err := c.Issue("abc123", time.Now().Add(time.Hour))
	require.NoError(t, err)

	sid, err := c.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc123", sid)
}

func TestTokenCodec_Rejects(t *testing.T) {
	c, err := NewTokenCodec(testSecret)
	require.NoError(t, err)
	other, err := NewTokenCodec("another-secret")
	require.NoError(t, err)

	foreign, err := other.Issue("abc123", time.Now().Add(time.Hour))
	require.NoError(t, err)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, sessionClaims{
		SessionID:        "abc123",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSID, err := c.Issue("", time.Now().Add(time.Hour))
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{SessionID: "abc123"}).
		SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"garbage", "not.a.token"},
		{"wrong secret", foreign},
		{"alg none", unsigned},
		{"missing sid", noSID},
		{"missing expiry", noExpiry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenCodec_Expired(t *testing.T) {
	c, err := NewTokenCodec(testSecret)
	require.NoError(t, err)

	now := time.Now()
	tok, err := c.Issue("abc123", now.Add(time.Minute))
	require.NoError(t, err)

	c.now = func() time.Time { return now.Add(time.Hour) }
	_, err = c.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewTokenCodec_EmptySecret(t *testing.T) {
	_, err := NewTokenCodec("  ")
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer  abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer", "", false},
		{"Bearer   ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got, ok := BearerToken(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
