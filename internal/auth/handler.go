package auth

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/redmonkez12/go-auth-flow/internal/apperror"
	"github.com/redmonkez12/go-auth-flow/internal/httputil"
	"github.com/redmonkez12/go-auth-flow/internal/logging"
	"github.com/redmonkez12/go-auth-flow/internal/user"
)

const (
	purposeRegister = "register"
	purposeLogin    = "login"
)

// RateLimiter counts requests per client IP and purpose. One call both
// records the request and reports whether it is within the limit.
type RateLimiter interface {
	AllowIPRequestWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service                 *Service
	sessions                *SessionTransport
	rateLimiter             RateLimiter
	exposeVerificationToken bool
}

// NewHandler builds the auth handlers. rateLimiter may be nil.
func NewHandler(service *Service, sessions *SessionTransport, rateLimiter RateLimiter, exposeVerificationToken bool) *Handler {
	return &Handler{
		service:                 service,
		sessions:                sessions,
		rateLimiter:             rateLimiter,
		exposeVerificationToken: exposeVerificationToken,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// RegisterResponse represents the registration response
type RegisterResponse struct {
	Msg               string `json:"msg"`
	VerificationToken string `json:"verificationToken,omitempty"`
}

// VerifyEmailRequest represents the email verification request
type VerifyEmailRequest struct {
	VerificationToken string `json:"verificationToken"`
	Email             string `json:"email"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionUserResponse wraps the identity of the logged in user.
type SessionUserResponse struct {
	User Claims `json:"user"`
}

// UserResponse wraps the public view of an account.
type UserResponse struct {
	User user.Public `json:"user"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create an unverified account. The first account becomes admin. A verification email is sent.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration details"
// @Success      201 {object} RegisterResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/v1/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allowRequest(w, r, purposeRegister) {
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	result, err := h.service.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		logger.Warn("registration failed", "email", req.Email, "error", err.Error())
		httputil.RespondAppError(w, r, err)
		return
	}

	resp := RegisterResponse{Msg: "User created successfully! Check email"}
	if h.exposeVerificationToken {
		resp.VerificationToken = result.VerificationToken
	}
	httputil.RespondJSON(w, resp, http.StatusCreated)
}

// VerifyEmail handles email verification
// @Summary      Verify email address
// @Description  Confirm an account with the secret from the verification email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body VerifyEmailRequest true "Verification token and email"
// @Success      200 {object} httputil.MessageResponse
// @Failure      401 {object} httputil.ErrorResponse "Verification failed"
// @Router       /api/v1/auth/verify-email [post]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.VerifyEmail(r.Context(), req.Email, req.VerificationToken); err != nil {
		httputil.RespondAppError(w, r, err)
		return
	}

	httputil.RespondJSON(w, httputil.MessageResponse{Msg: "email verified"}, http.StatusOK)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate a verified user and set the signed session cookie
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} SessionUserResponse
// @Failure      400 {object} httputil.ErrorResponse "Missing email or password"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials or unverified email"
// @Failure      404 {object} httputil.ErrorResponse "Unknown email"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Router       /api/v1/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if !h.allowRequest(w, r, purposeLogin) {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	claims, u, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		logger.Warn("login failed", "email", req.Email, "error", err.Error())
		httputil.RespondAppError(w, r, err)
		return
	}

	if err := h.sessions.Attach(w, *claims); err != nil {
		httputil.RespondAppError(w, r, err)
		return
	}

	logger.Info("user logged in", "user_id", u.ID)
	httputil.RespondJSON(w, SessionUserResponse{User: *claims}, http.StatusOK)
}

// Logout handles user logout
// @Summary      User logout
// @Description  Clear the session cookie
// @Tags         auth
// @Produce      json
// @Success      200 {object} httputil.MessageResponse
// @Router       /api/v1/auth/logout [get]
// @Router       /api/v1/auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	httputil.RespondJSON(w, httputil.MessageResponse{Msg: "User logged out"}, http.StatusOK)
}

// ShowCurrentUser returns the identity of the session.
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200 {object} SessionUserResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Router       /api/v1/users/showMe [get]
func (h *Handler) ShowCurrentUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondAppError(w, r, apperror.Unauthenticated("Authentication invalid"))
		return
	}
	httputil.RespondJSON(w, SessionUserResponse{User: *claims}, http.StatusOK)
}

// GetUser returns an account to its owner or to an admin.
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Param        id path string true "User ID"
// @Success      200 {object} UserResponse
// @Failure      401 {object} httputil.ErrorResponse
// @Failure      403 {object} httputil.ErrorResponse
// @Failure      404 {object} httputil.ErrorResponse
// @Router       /api/v1/users/{id} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		httputil.RespondAppError(w, r, apperror.Unauthenticated("Authentication invalid"))
		return
	}

	id := chi.URLParam(r, "id")
	if err := CheckPermissions(claims.Role, claims.UserID, id); err != nil {
		httputil.RespondAppError(w, r, err)
		return
	}

	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		httputil.RespondAppError(w, r, err)
		return
	}

	httputil.RespondJSON(w, UserResponse{User: u.Public()}, http.StatusOK)
}

// allowRequest enforces the per IP limit for purpose. Limiter failures are
// logged and the request is let through.
func (h *Handler) allowRequest(w http.ResponseWriter, r *http.Request, purpose string) bool {
	if h.rateLimiter == nil {
		return true
	}

	logger := logging.GetLoggerFromContext(r.Context())
	ip := getClientIP(r)

	allowed, err := h.rateLimiter.AllowIPRequestWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return true
	}
	if !allowed {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		httputil.RespondAppError(w, r, apperror.New(apperror.KindTooManyRequests, "too many requests, please try again later"))
		return false
	}

	return true
}

// getClientIP returns the host part of RemoteAddr. Forwarding headers are
// only honored when the router runs RealIP for a trusted proxy, which
// rewrites RemoteAddr before this point.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.Trim(r.RemoteAddr, "[]")
	}
	return host
}
