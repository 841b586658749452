package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"
)

// ErrInvalidToken is returned by TokenCodec.Parse for any token that does not carry a
// valid signature, a live expiry and a session id.
var ErrInvalidToken = errors.New("invalid session token")

// TokenCodec signs session ids into the opaque client token handed to the transport
// (cookie value or bearer token). The server-side SessionEntry stays authoritative;
// the signature only keeps clients from probing the id space.
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewTokenCodec creates a codec for HS256 tokens signed with secret.
func NewTokenCodec(secret string) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, oops.Code("CONFIG_INVALID").Errorf("session secret is empty")
	}
	return &TokenCodec{secret: []byte(secret), now: time.Now}, nil
}

// Issue returns a token naming sessionID that stops validating at expiresAt.
func (c *TokenCodec) Issue(sessionID string, expiresAt time.Time) (string, error) {
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(c.now()),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").Wrap(err)
	}
	return tok, nil
}

// Parse validates a token and returns the session id it names.
func (c *TokenCodec) Parse(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}
	tok, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(*jwt.Token) (any, error) {
		return c.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil {
		return "", oops.Code("TOKEN_INVALID").Wrap(errors.Join(ErrInvalidToken, err))
	}
	claims, ok := tok.Claims.(*sessionClaims)
	if !ok || !tok.Valid || claims.SessionID == "" {
		return "", oops.Code("TOKEN_INVALID").Wrap(ErrInvalidToken)
	}
	return claims.SessionID, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
