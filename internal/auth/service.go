package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"

	"github.com/redmonkez12/go-auth-flow/internal/apperror"
	"github.com/redmonkez12/go-auth-flow/internal/logging"
	"github.com/redmonkez12/go-auth-flow/internal/user"
)

const (
	verificationTokenBytes = 40
	defaultDispatchTimeout = 5 * time.Second

	msgDuplicateEmail     = "Duplicate value entered for email field, please choose another value"
	msgVerificationFailed = "Verification failed"
	msgMissingCredentials = "Please provide both email and password"
	msgInvalidCredentials = "Invalid Credentials"
	msgUnverified         = "Please verify your email"
)

// Notifier delivers the verification link to a newly registered user.
type Notifier interface {
	SendVerificationEmail(ctx context.Context, to, name, link string) error
}

// ServiceConfig holds the knobs of the auth state machine.
type ServiceConfig struct {
	// FrontendURL is the origin used in verification links.
	FrontendURL     string
	DispatchTimeout time.Duration
	// ConcealUnknownAccounts answers an unknown email like a wrong password.
	ConcealUnknownAccounts bool
}

// Service handles authentication business logic
type Service struct {
	store    user.Store
	notifier Notifier
	logger   *logging.Logger
	cfg      ServiceConfig
	now      func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceClock injects the time source used for verification timestamps.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(store user.Store, notifier Notifier, logger *logging.Logger, cfg ServiceConfig, opts ...ServiceOption) *Service {
	if cfg.DispatchTimeout <= 0 {
		cfg.DispatchTimeout = defaultDispatchTimeout
	}
	s := &Service{
		store:    store,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterResult is returned by a successful registration.
type RegisterResult struct {
	User              user.Public
	VerificationToken string
}

// Register creates an unverified account and sends the verification link.
// The first account ever created becomes admin; every later one is a user.
func (s *Service) Register(ctx context.Context, email, name, password string) (*RegisterResult, error) {
	params := user.CreateParams{
		Email:    email,
		Name:     name,
		Password: password,
		Role:     user.RoleUser,
	}
	// Checked here so a bad request never opens the admin claim transaction.
	// The store validates again for its other callers.
	if err := params.Validate(); err != nil {
		return nil, mapStoreError(err)
	}

	verificationToken, err := GenerateVerificationToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate verification token: %w", err)
	}
	params.VerificationToken = verificationToken

	var created *user.User
	err = s.store.WithTransaction(ctx, func(ctx context.Context, tx user.Store) error {
		count, err := tx.Count(ctx)
		if err != nil {
			return err
		}
		if count == 0 {
			claimed, err := tx.ClaimFirstAdmin(ctx)
			if err != nil {
				return err
			}
			if claimed {
				params.Role = user.RoleAdmin
			}
		}

		created, err = tx.Create(ctx, params)
		return err
	})
	if err != nil {
		return nil, mapStoreError(err)
	}

	s.logger.Info("user registered", "user_id", created.ID, "role", created.Role)

	s.dispatchVerification(ctx, created, verificationToken)

	return &RegisterResult{
		User:              created.Public(),
		VerificationToken: verificationToken,
	}, nil
}

// dispatchVerification sends the verification email without letting a slow
// or failing provider affect the registration outcome.
func (s *Service) dispatchVerification(ctx context.Context, u *user.User, token string) {
	link := VerificationLink(s.cfg.FrontendURL, token, u.Email)

	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.DispatchTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.notifier.SendVerificationEmail(sendCtx, u.Email, u.Name, link)
	}()

	select {
	case err := <-done:
		if err != nil {
			s.logger.Warn("failed to send verification email", "email", u.Email, "error", err)
		}
	case <-sendCtx.Done():
		s.logger.Warn("verification email dispatch timed out", "email", u.Email, "timeout", s.cfg.DispatchTimeout)
	}
}

// VerifyEmail marks the account as verified when token matches the stored
// secret. Unknown accounts and mismatches fail the same way.
func (s *Service) VerifyEmail(ctx context.Context, email, token string) error {
	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return apperror.Unauthenticated(msgVerificationFailed)
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if !verificationTokensMatch(u.VerificationToken, token) {
		s.logger.Warn("verification token mismatch", "user_id", u.ID)
		return apperror.Unauthenticated(msgVerificationFailed)
	}

	u.MarkVerified(s.now().UTC())
	if err := s.store.Save(ctx, u); err != nil {
		return fmt.Errorf("failed to save verified user: %w", err)
	}

	s.logger.Info("email verified", "user_id", u.ID)
	return nil
}

// Login checks credentials and returns the claims for a new session.
// The password is checked before the verification state.
func (s *Service) Login(ctx context.Context, email, password string) (*Claims, *user.User, error) {
	if email == "" || password == "" {
		return nil, nil, apperror.BadRequest(msgMissingCredentials)
	}

	u, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			if s.cfg.ConcealUnknownAccounts {
				return nil, nil, apperror.Unauthenticated(msgInvalidCredentials)
			}
			return nil, nil, apperror.NotFound(fmt.Sprintf("No user with email %s found", email))
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := user.ComparePassword(u.PasswordHash, password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to compare password: %w", err)
	}
	if !ok {
		return nil, nil, apperror.Unauthenticated(msgInvalidCredentials)
	}

	if !u.IsVerified {
		return nil, nil, apperror.Unauthenticated(msgUnverified)
	}

	claims := NewClaims(u)
	return &claims, u, nil
}

// GetUser returns the account identified by id.
func (s *Service) GetUser(ctx context.Context, id string) (*user.User, error) {
	notFound := apperror.NotFound(fmt.Sprintf("No user with id %s", id))

	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, notFound
	}

	u, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, notFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GenerateVerificationToken returns 40 random bytes as 80 hex characters.
func GenerateVerificationToken() (string, error) {
	b := make([]byte, verificationTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// VerificationLink builds the link sent in the verification email.
func VerificationLink(origin, token, email string) string {
	return fmt.Sprintf("%s/user/verify-email?token=%s&email=%s", origin, url.QueryEscape(token), url.QueryEscape(email))
}

func verificationTokensMatch(stored, provided string) bool {
	if stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(provided)) == 1
}

func mapStoreError(err error) error {
	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs):
		return apperror.Wrap(apperror.KindValidation, verrs.Error(), err)
	case errors.Is(err, user.ErrDuplicateEmail):
		return apperror.Wrap(apperror.KindValidation, msgDuplicateEmail, err)
	default:
		return fmt.Errorf("failed to register user: %w", err)
	}
}
