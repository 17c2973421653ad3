package auth

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/go-auth-flow/internal/user"
)

var (
	testPasetoKey = bytes.Repeat([]byte{0x42}, 32)
	testJWTSecret = []byte("jwt-secret-jwt-secret-jwt-secret!")
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newClock() *clock {
	return &clock{now: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)}
}

func testClaims() Claims {
	return Claims{UserID: uuid.NewString(), Name: "Alice", Role: user.RoleAdmin}
}

func codecs(t *testing.T, c *clock) map[string]TokenCodec {
	t.Helper()

	pasetoCodec, err := NewPasetoCodec(testPasetoKey, WithCodecClock(c.Now))
	require.NoError(t, err)
	jwtCodec, err := NewJWTCodec(testJWTSecret, WithCodecClock(c.Now))
	require.NoError(t, err)

	return map[string]TokenCodec{
		"paseto": pasetoCodec,
		"jwt":    jwtCodec,
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	for name, codec := range codecs(t, newClock()) {
		t.Run(name, func(t *testing.T) {
			claims := testClaims()

			token, err := codec.Mint(claims, time.Hour)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			got, err := codec.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, claims, *got)
		})
	}
}

func TestCodec_Expiry(t *testing.T) {
	c := newClock()
	start := c.now

	for name, codec := range codecs(t, c) {
		t.Run(name, func(t *testing.T) {
			c.now = start
			token, err := codec.Mint(testClaims(), time.Hour)
			require.NoError(t, err)

			c.now = start.Add(59 * time.Minute)
			_, err = codec.Verify(token)
			require.NoError(t, err)

			c.now = start.Add(time.Hour)
			_, err = codec.Verify(token)
			assert.ErrorIs(t, err, ErrExpiredToken)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCodec_RejectsAnyByteMutation(t *testing.T) {
	for name, codec := range codecs(t, newClock()) {
		t.Run(name, func(t *testing.T) {
			token, err := codec.Mint(testClaims(), time.Hour)
			require.NoError(t, err)

			for i := range len(token) {
				mutated := []byte(token)
				if mutated[i] == 'A' {
					mutated[i] = 'B'
				} else {
					mutated[i] = 'A'
				}

				_, err := codec.Verify(string(mutated))
				assert.ErrorIs(t, err, ErrInvalidToken, "mutation at byte %d accepted", i)
			}
		})
	}
}

func TestCodec_RejectsForeignKey(t *testing.T) {
	c := newClock()

	otherPaseto, err := NewPasetoCodec(bytes.Repeat([]byte{0x24}, 32), WithCodecClock(c.Now))
	require.NoError(t, err)
	otherJWT, err := NewJWTCodec([]byte("another-secret-another-secret-!!"), WithCodecClock(c.Now))
	require.NoError(t, err)
	others := map[string]TokenCodec{"paseto": otherPaseto, "jwt": otherJWT}

	for name, codec := range codecs(t, c) {
		t.Run(name, func(t *testing.T) {
			token, err := others[name].Mint(testClaims(), time.Hour)
			require.NoError(t, err)

			_, err = codec.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestCodec_MintValidation(t *testing.T) {
	for name, codec := range codecs(t, newClock()) {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Mint(testClaims(), 0)
			assert.ErrorIs(t, err, ErrInvalidTTL)

			_, err = codec.Mint(Claims{Name: "Alice", Role: user.RoleUser}, time.Hour)
			assert.ErrorIs(t, err, ErrInvalidClaim)

			_, err = codec.Mint(Claims{UserID: "1", Name: "Alice", Role: "root"}, time.Hour)
			assert.ErrorIs(t, err, ErrInvalidClaim)
		})
	}
}

func TestCodec_RejectsGarbage(t *testing.T) {
	for name, codec := range codecs(t, newClock()) {
		t.Run(name, func(t *testing.T) {
			for _, token := range []string{"", "abc", "v4.local.", "a.b.c", "v4.public.AAAA"} {
				_, err := codec.Verify(token)
				assert.ErrorIs(t, err, ErrInvalidToken, "token %q accepted", token)
			}
		})
	}
}

func TestNewCodec_KeyLength(t *testing.T) {
	_, err := NewPasetoCodec([]byte("short"))
	assert.Error(t, err)

	_, err = NewJWTCodec([]byte("short"))
	assert.Error(t, err)
}

func TestJWTCodec_RejectsOtherAlgorithms(t *testing.T) {
	codec, err := NewJWTCodec(testJWTSecret)
	require.NoError(t, err)

	// alg "none" header with the payload of a valid token
	token, err := codec.Mint(testClaims(), time.Hour)
	require.NoError(t, err)
	parts := bytes.Split([]byte(token), []byte("."))
	require.Len(t, parts, 3)
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0." + string(parts[1]) + "."

	_, err = codec.Verify(unsigned)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
