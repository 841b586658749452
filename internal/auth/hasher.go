package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the cost accounts were historically hashed with.
const DefaultBcryptCost = 10

// Hasher names accepted by NewPasswordHasher.
const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher is a one-way hash with constant-time verification.
type PasswordHasher interface {
	// Hash produces an encoded digest of the password.
	Hash(password string) (string, error)

	// Verify checks if the password matches the digest.
	// Returns (true, nil) on match, (false, nil) on mismatch, or error on a malformed digest.
	Verify(password, hash string) (bool, error)
}

// NewPasswordHasher returns the hasher registered under name.
func NewPasswordHasher(name string) (PasswordHasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", HasherBcrypt:
		return NewBcryptHasher(DefaultBcryptCost), nil
	case HasherArgon2id:
		return NewArgon2idHasher(), nil
	default:
		return nil, oops.Code("CONFIG_INVALID").With("hasher", name).Errorf("unknown password hasher %q", name)
	}
}

// BcryptHasher implements PasswordHasher using bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. Costs outside bcrypt's range fall back to DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(b), nil
}

func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case err == bcrypt.ErrMismatchedHashAndPassword:
		return false, nil
	default:
		return false, malformedDigest(err)
	}
}

// argon2Params are the cost settings encoded into every argon2id digest.
type argon2Params struct {
	memory  uint32 // KiB
	time    uint32
	threads uint8
}

var defaultArgon2Params = argon2Params{memory: 64 * 1024, time: 1, threads: 4}

const (
	argon2SaltBytes = 16
	argon2KeyBytes  = 32
)

// Argon2idHasher implements PasswordHasher using argon2id with PHC-encoded digests.
type Argon2idHasher struct {
	params argon2Params
}

func NewArgon2idHasher() *Argon2idHasher {
	return &Argon2idHasher{params: defaultArgon2Params}
}

func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	salt := make([]byte, argon2SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").With("operation", "generate salt").Wrap(err)
	}
	key := h.params.derive(password, salt, argon2KeyBytes)
	return h.params.encode(salt, key), nil
}

func (h *Argon2idHasher) Verify(password, digest string) (bool, error) {
	params, salt, key, err := decodeArgon2id(digest)
	if err != nil {
		return false, err
	}
	got := params.derive(password, salt, uint32(len(key)))
	return subtle.ConstantTimeCompare(got, key) == 1, nil
}

func (p argon2Params) derive(password string, salt []byte, keyLen uint32) []byte {
	return argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, keyLen)
}

// encode renders $argon2id$v=<version>$m=<memory>,t=<time>,p=<threads>$<salt>$<key>.
func (p argon2Params) encode(salt, key []byte) string {
	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads, b64.EncodeToString(salt), b64.EncodeToString(key))
}

func decodeArgon2id(digest string) (argon2Params, []byte, []byte, error) {
	var p argon2Params
	fields := strings.Split(digest, "$")
	if len(fields) != 6 || fields[0] != "" {
		return p, nil, nil, malformedDigest(fmt.Errorf("expected 6 fields, got %d", len(fields)))
	}
	if fields[1] != HasherArgon2id {
		return p, nil, nil, malformedDigest(fmt.Errorf("algorithm %q", fields[1]))
	}

	var version int
	if _, err := fmt.Sscanf(fields[2], "v=%d", &version); err != nil {
		return p, nil, nil, malformedDigest(err)
	}
	if version != argon2.Version {
		return p, nil, nil, malformedDigest(fmt.Errorf("argon2 version %d", version))
	}

	var threads uint32
	if _, err := fmt.Sscanf(fields[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &threads); err != nil {
		return p, nil, nil, malformedDigest(err)
	}
	if threads == 0 || threads > 255 || p.time == 0 {
		return p, nil, nil, malformedDigest(fmt.Errorf("cost parameters %q", fields[3]))
	}
	p.threads = uint8(threads)

	salt, err := base64.RawStdEncoding.DecodeString(fields[4])
	if err != nil {
		return p, nil, nil, malformedDigest(err)
	}
	key, err := base64.RawStdEncoding.DecodeString(fields[5])
	if err != nil {
		return p, nil, nil, malformedDigest(err)
	}
	if len(key) == 0 || len(key) > 1<<10 {
		return p, nil, nil, malformedDigest(fmt.Errorf("key length %d", len(key)))
	}
	return p, salt, key, nil
}

// malformedDigest marks a stored digest that cannot be verified.
func malformedDigest(err error) error {
	return oops.Code("AUTH_INVALID_HASH").Wrap(err)
}
