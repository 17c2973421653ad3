package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
)

// ErrNoSession is returned by Read when the request carries no session cookie.
var ErrNoSession = errors.New("no session cookie")

// SessionTransport moves session tokens between the server and the browser
// in a signed, http-only cookie.
type SessionTransport struct {
	codec  TokenCodec
	cookie *securecookie.SecureCookie
	name   string
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

// NewSessionTransport signs cookies with hashKey only. The token inside is
// already tamper-evident, so no block key is configured.
func NewSessionTransport(codec TokenCodec, hashKey []byte, cookieName string, ttl time.Duration, isProduction bool) *SessionTransport {
	sc := securecookie.New(hashKey, nil)
	sc.MaxAge(int(ttl.Seconds()))
	sc.SetSerializer(securecookie.NopEncoder{})

	return &SessionTransport{
		codec:  codec,
		cookie: sc,
		name:   cookieName,
		ttl:    ttl,
		secure: isProduction,
		now:    time.Now,
	}
}

// Attach mints a token for claims and sets it as the session cookie.
func (s *SessionTransport) Attach(w http.ResponseWriter, claims Claims) error {
	token, err := s.codec.Mint(claims, s.ttl)
	if err != nil {
		return fmt.Errorf("failed to mint session token: %w", err)
	}

	encoded, err := s.cookie.Encode(s.name, []byte(token))
	if err != nil {
		return fmt.Errorf("failed to sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
		Expires:  s.now().Add(s.ttl),
	})

	return nil
}

// Clear expires the session cookie. It is safe to call without a session.
func (s *SessionTransport) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}

// Read returns the raw token from the session cookie after checking its signature.
func (s *SessionTransport) Read(r *http.Request) (string, error) {
	c, err := r.Cookie(s.name)
	if err != nil || c.Value == "" {
		return "", ErrNoSession
	}

	var raw []byte
	if err := s.cookie.Decode(s.name, c.Value, &raw); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return string(raw), nil
}

// Codec returns the codec used to mint session tokens.
func (s *SessionTransport) Codec() TokenCodec {
	return s.codec
}
