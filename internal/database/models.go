package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the persisted form of an account.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID                uuid.UUID  `bun:"id,pk,type:varchar(36)"`
	Email             string     `bun:"email,notnull,unique"`
	Name              string     `bun:"name,notnull"`
	PasswordHash      string     `bun:"password_hash,notnull"`
	Role              string     `bun:"role,notnull"`
	IsVerified        bool       `bun:"is_verified,notnull"`
	VerifiedAt        *time.Time `bun:"verified_at"`
	VerificationToken string     `bun:"verification_token,notnull"`
	CreatedAt         time.Time  `bun:"created_at,notnull"`
	UpdatedAt         time.Time  `bun:"updated_at,notnull"`
}

// BootstrapMarker records one-off facts about the store, such as which
// account claimed the first administrator slot.
type BootstrapMarker struct {
	bun.BaseModel `bun:"table:bootstrap_markers,alias:bm"`

	Name      string    `bun:"name,pk"`
	ClaimedAt time.Time `bun:"claimed_at,notnull"`
}

// FirstAdminMarker is the marker name claimed by the first registered account.
const FirstAdminMarker = "first_admin"
