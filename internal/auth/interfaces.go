package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/redmonkez12/go-auth-flow/internal/user"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = fmt.Errorf("%w: token has expired", ErrInvalidToken)
	ErrInvalidTTL   = errors.New("token ttl must be positive")
	ErrInvalidClaim = errors.New("invalid token claims")
)

// Claims is the identity carried by a session token. Nothing else may be
// embedded in a token besides these fields and its validity window.
type Claims struct {
	UserID string    `json:"id"`
	Name   string    `json:"name"`
	Role   user.Role `json:"role"`
}

// NewClaims builds the claim set for u.
func NewClaims(u *user.User) Claims {
	return Claims{
		UserID: u.ID.String(),
		Name:   u.Name,
		Role:   u.Role,
	}
}

func (c Claims) validate() error {
	if c.UserID == "" {
		return fmt.Errorf("%w: missing user id", ErrInvalidClaim)
	}
	if !c.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidClaim, c.Role)
	}
	return nil
}

// TokenCodec mints and verifies tamper-evident session tokens.
// Implementations include PasetoCodec (PASETO v4.local) and JWTCodec (HS256).
type TokenCodec interface {
	Mint(claims Claims, ttl time.Duration) (string, error)
	// Verify returns an error matching ErrInvalidToken for any token that is
	// forged, malformed or expired.
	Verify(token string) (*Claims, error)
}

// CodecOption configures a TokenCodec.
type CodecOption func(*codecOptions)

type codecOptions struct {
	now func() time.Time
}

// WithCodecClock injects the time source used for issuing and expiry checks.
func WithCodecClock(now func() time.Time) CodecOption {
	return func(o *codecOptions) {
		if now != nil {
			o.now = now
		}
	}
}

func applyCodecOptions(opts []CodecOption) codecOptions {
	o := codecOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
