package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var lightHasher = PasswordHasher{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32}

func TestPasswordHasher_RoundTrip(t *testing.T) {
	hash, err := lightHasher.Hash("p1-secret")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.NotContains(t, hash, "p1-secret")

	ok, err := ComparePassword(hash, "p1-secret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePassword(hash, "p1-Secret")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPasswordHasher_SaltsDiffer(t *testing.T) {
	a, err := lightHasher.Hash("same")
	require.NoError(t, err)
	b, err := lightHasher.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestComparePassword_Bcrypt(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("legacy-pass"), bcrypt.MinCost)
	require.NoError(t, err)

	ok, err := ComparePassword(string(hash), "legacy-pass")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = ComparePassword(string(hash), "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestComparePassword_InvalidHash(t *testing.T) {
	tests := []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=1$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
	}

	for _, h := range tests {
		ok, err := ComparePassword(h, "anything")
		assert.False(t, ok, h)
		assert.ErrorIs(t, err, ErrInvalidHash, h)
	}
}
