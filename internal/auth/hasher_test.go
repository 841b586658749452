package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"userSessionService/pkg/errutil"
)

func TestPasswordHashers(t *testing.T) {
	hashers := map[string]PasswordHasher{
		HasherBcrypt:   NewBcryptHasher(bcrypt.MinCost),
		HasherArgon2id: NewArgon2idHasher(),
	}
	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			hash, err := h.Hash("correct-password")
			require.NoError(t, err)
			assert.NotEqual(t, "correct-password", hash)

			ok, err := h.Verify("correct-password", hash)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = h.Verify("wrong-password", hash)
			require.NoError(t, err)
			assert.False(t, ok)

			_, err = h.Hash("")
			assert.ErrorIs(t, err, ErrEmptyPassword)

			_, err = h.Verify("anything", "not-a-hash")
			assert.Error(t, err)
		})
	}
}

func TestArgon2idHasher_UniqueSalts(t *testing.T) {
	h := NewArgon2idHasher()
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "$argon2id$v=19$m=65536,t=1,p=4$"))
}

func TestArgon2idHasher_RejectsOtherAlgorithms(t *testing.T) {
	_, err := NewArgon2idHasher().Verify("pw", "$argon2i$v=19$m=65536,t=1,p=4$AAAA$AAAA")
	assert.Error(t, err)
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(0).cost)
	assert.Equal(t, DefaultBcryptCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}

func TestNewPasswordHasher(t *testing.T) {
	h, err := NewPasswordHasher("")
	require.NoError(t, err)
	assert.IsType(t, &BcryptHasher{}, h)

	h, err = NewPasswordHasher("Argon2id")
	require.NoError(t, err)
	assert.IsType(t, &Argon2idHasher{}, h)

	_, err = NewPasswordHasher("md5")
	assert.Error(t, err)
}

func TestArgon2idHasher_MalformedDigests(t *testing.T) {
	h := NewArgon2idHasher()
	good, err := h.Hash("pw")
	require.NoError(t, err)
	fields := strings.Split(good, "$")

	tests := map[string]string{
		"too few fields":   "$argon2id$v=19$m=65536,t=1,p=4$AAAA",
		"wrong version":    strings.Join([]string{"", "argon2id", "v=16", fields[3], fields[4], fields[5]}, "$"),
		"zero threads":     strings.Join([]string{"", "argon2id", fields[2], "m=65536,t=1,p=0", fields[4], fields[5]}, "$"),
		"threads overflow": strings.Join([]string{"", "argon2id", fields[2], "m=65536,t=1,p=256", fields[4], fields[5]}, "$"),
		"bad salt":         strings.Join([]string{"", "argon2id", fields[2], fields[3], "!!", fields[5]}, "$"),
		"empty key":        strings.Join([]string{"", "argon2id", fields[2], fields[3], fields[4], ""}, "$"),
	}
	for name, digest := range tests {
		t.Run(name, func(t *testing.T) {
			ok, err := h.Verify("pw", digest)
			require.Error(t, err)
			assert.False(t, ok)
			errutil.AssertErrorCode(t, err, "AUTH_INVALID_HASH")
		})
	}

	ok, err := h.Verify("pw", good)
	require.NoError(t, err)
	assert.True(t, ok)
}
