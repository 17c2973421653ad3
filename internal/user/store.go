package user

import (
	"context"
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Store persists user records. Implementations own email uniqueness and
// password hashing.
type Store interface {
	Create(ctx context.Context, params CreateParams) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	Save(ctx context.Context, u *User) error
	Count(ctx context.Context) (int, error)
	// ClaimFirstAdmin atomically claims the first administrator slot. Only
	// one caller over the lifetime of the store ever receives true.
	ClaimFirstAdmin(ctx context.Context) (bool, error)
	// WithTransaction runs fn against a Store bound to a single transaction.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

// CreateParams holds the fields accepted when creating an account.
type CreateParams struct {
	Email             string `json:"email"`
	Name              string `json:"name"`
	Password          string `json:"password"`
	Role              Role   `json:"role"`
	VerificationToken string `json:"verificationToken"`
}

// Validate checks the params before they reach storage.
func (p CreateParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required.Error("please provide email"), is.Email.Error("please provide valid email")),
		validation.Field(&p.Name, validation.Required.Error("please provide name"), validation.RuneLength(3, 50)),
		validation.Field(&p.Password, validation.Required.Error("please provide password"), validation.RuneLength(6, 0)),
		validation.Field(&p.Role, validation.Required, validation.In(RoleAdmin, RoleUser)),
	)
}
