package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/redmonkez12/go-auth-flow/internal/user"
)

type jwtClaims struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTCodec mints HS256 signed JWTs.
type JWTCodec struct {
	secret []byte
	now    func() time.Time
	parser *jwt.Parser
}

func NewJWTCodec(secret []byte, opts ...CodecOption) (*JWTCodec, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 bytes, got %d", len(secret))
	}

	o := applyCodecOptions(opts)
	return &JWTCodec{
		secret: secret,
		now:    o.now,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithIssuedAt(),
			jwt.WithStrictDecoding(),
			jwt.WithTimeFunc(o.now),
		),
	}, nil
}

func (c *JWTCodec) Mint(claims Claims, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", ErrInvalidTTL
	}
	if err := claims.validate(); err != nil {
		return "", err
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		UserID: claims.UserID,
		Name:   claims.Name,
		Role:   string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	return token.SignedString(c.secret)
}

func (c *JWTCodec) Verify(tokenStr string) (*Claims, error) {
	var parsed jwtClaims
	_, err := c.parser.ParseWithClaims(tokenStr, &parsed, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims := &Claims{UserID: parsed.UserID, Name: parsed.Name, Role: user.Role(parsed.Role)}
	if err := claims.validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return claims, nil
}
