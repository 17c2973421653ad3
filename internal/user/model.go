package user

import (
	"time"

	"github.com/google/uuid"
)

// Role is the authorization level of an account.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// IsValid reports whether r is one of the known roles.
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID                uuid.UUID  `json:"id"`
	Email             string     `json:"email"`
	Name              string     `json:"name"`
	PasswordHash      string     `json:"-"` // Never expose password hash in JSON
	Role              Role       `json:"role"`
	IsVerified        bool       `json:"isVerified"`
	VerifiedAt        *time.Time `json:"verifiedAt,omitempty"`
	VerificationToken string     `json:"-"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// Public is the projection of a user that may leave the service.
type Public struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       Role   `json:"role"`
	IsVerified bool   `json:"isVerified"`
}

func (u *User) Public() Public {
	return Public{
		ID:         u.ID.String(),
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		IsVerified: u.IsVerified,
	}
}

// MarkVerified records a successful email verification at now.
func (u *User) MarkVerified(now time.Time) {
	u.IsVerified = true
	u.VerifiedAt = &now
	u.VerificationToken = ""
}
