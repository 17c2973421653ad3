package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/go-auth-flow/internal/database"
)

// Repository is the bun backed Store.
type Repository struct {
	db     bun.IDB
	hasher PasswordHasher
	now    func() time.Time
}

// RepositoryOption configures a Repository.
type RepositoryOption func(*Repository)

// WithPasswordHasher overrides the argon2id parameters used for new hashes.
func WithPasswordHasher(h PasswordHasher) RepositoryOption {
	return func(r *Repository) {
		r.hasher = h
	}
}

// WithClock injects the time source used for timestamps.
func WithClock(now func() time.Time) RepositoryOption {
	return func(r *Repository) {
		if now != nil {
			r.now = now
		}
	}
}

func NewRepository(db bun.IDB, opts ...RepositoryOption) *Repository {
	r := &Repository{
		db:     db,
		hasher: DefaultPasswordHasher,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ Store = (*Repository)(nil)

// Create validates params, hashes the password and inserts a new user.
func (r *Repository) Create(ctx context.Context, params CreateParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	passwordHash, err := r.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := r.now().UTC()
	dbUser := &database.User{
		ID:                uuid.New(),
		Email:             params.Email,
		Name:              params.Name,
		PasswordHash:      passwordHash,
		Role:              string(params.Role),
		IsVerified:        false,
		VerificationToken: params.VerificationToken,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err = r.db.NewInsert().
		Model(dbUser).
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// FindByEmail retrieves a user by email. The match is exact.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("email = ?", email).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// FindByID retrieves a user by ID
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where("id = ?", id.String()).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	return mapDBUserToModel(dbUser), nil
}

// Save writes the mutable fields of u back to storage.
func (r *Repository) Save(ctx context.Context, u *User) error {
	u.UpdatedAt = r.now().UTC()

	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("name = ?", u.Name).
		Set("is_verified = ?", u.IsVerified).
		Set("verified_at = ?", u.VerifiedAt).
		Set("verification_token = ?", u.VerificationToken).
		Set("updated_at = ?", u.UpdatedAt).
		Where("id = ?", u.ID.String()).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Count returns the number of stored users.
func (r *Repository) Count(ctx context.Context) (int, error) {
	count, err := r.db.NewSelect().
		Model((*database.User)(nil)).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// ClaimFirstAdmin inserts the first-admin marker if nobody holds it yet.
func (r *Repository) ClaimFirstAdmin(ctx context.Context) (bool, error) {
	marker := &database.BootstrapMarker{
		Name:      database.FirstAdminMarker,
		ClaimedAt: r.now().UTC(),
	}

	result, err := r.db.NewInsert().
		Model(marker).
		On("CONFLICT (name) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to claim first admin: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// WithTransaction runs fn inside a transaction. Nested calls reuse the
// transaction already in progress.
func (r *Repository) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	db, ok := r.db.(*bun.DB)
	if !ok {
		return fn(ctx, r)
	}

	return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &Repository{db: tx, hasher: r.hasher, now: r.now})
	})
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value violates unique constraint") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                dbu.ID,
		Email:             dbu.Email,
		Name:              dbu.Name,
		PasswordHash:      dbu.PasswordHash,
		Role:              Role(dbu.Role),
		IsVerified:        dbu.IsVerified,
		VerifiedAt:        dbu.VerifiedAt,
		VerificationToken: dbu.VerificationToken,
		CreatedAt:         dbu.CreatedAt,
		UpdatedAt:         dbu.UpdatedAt,
	}
}
