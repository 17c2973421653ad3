package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/redmonkez12/go-auth-flow/internal/apperror"
	"github.com/redmonkez12/go-auth-flow/internal/httputil"
	"github.com/redmonkez12/go-auth-flow/internal/logging"
)

// ContextKey is a type for context keys to avoid collisions
type ContextKey string

const ClaimsContextKey ContextKey = "claims"

// Middleware handles authentication for protected routes
type Middleware struct {
	sessions *SessionTransport
}

func NewMiddleware(sessions *SessionTransport) *Middleware {
	return &Middleware{sessions: sessions}
}

// RequireAuth validates the session token and stores its claims in the
// request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logging.GetLoggerFromContext(r.Context())

		// Priority 1: signed session cookie
		token, err := m.sessions.Read(r)
		if err != nil && !errors.Is(err, ErrNoSession) {
			logger.Warn("rejected session cookie", "error", err.Error())
			httputil.RespondAppError(w, r, apperror.Wrap(apperror.KindInvalidToken, "Authentication invalid", err))
			return
		}

		// Priority 2: Authorization header (fallback)
		if token == "" {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				httputil.RespondErrorWithCode(w, "Authentication invalid", httputil.CodeMissingAuth, http.StatusUnauthorized)
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				httputil.RespondErrorWithCode(w, "invalid authorization header format", httputil.CodeInvalidAuthHeader, http.StatusUnauthorized)
				return
			}
			token = parts[1]
		}

		claims, err := m.sessions.Codec().Verify(token)
		if err != nil {
			if errors.Is(err, ErrExpiredToken) {
				httputil.RespondAppError(w, r, apperror.Wrap(apperror.KindInvalidToken, "token has expired", err))
				return
			}
			logger.Warn("rejected session token", "error", err.Error())
			httputil.RespondAppError(w, r, apperror.Wrap(apperror.KindInvalidToken, "Authentication invalid", err))
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// WithClaims stores claims in ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, ClaimsContextKey, claims)
}

// ClaimsFromContext extracts the authenticated claims from the request context
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}
