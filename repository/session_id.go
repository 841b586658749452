package repository

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/samber/oops"
)

// SessionIDBytes is the entropy of a session id: 32 bytes = 64 hex chars.
const SessionIDBytes = 32

// DefaultSessionTTL is the lifetime of a session entry from its creation.
const DefaultSessionTTL = 24 * time.Hour

// NewSessionID returns a cryptographically random, hex-encoded session id.
func NewSessionID() (string, error) {
	b := make([]byte, SessionIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("SESSION_ID_GENERATE_FAILED").
			With("operation", "crypto/rand.Read").
			With("requested_bytes", SessionIDBytes).
			Wrap(err)
	}
	return hex.EncodeToString(b), nil
}

// ValidSessionID reports whether id has the shape produced by NewSessionID.
// Lookups skip the store entirely for malformed ids.
func ValidSessionID(id string) bool {
	if len(id) != SessionIDBytes*2 {
		return false
	}
	_, err := hex.DecodeString(id)
	return err == nil
}
