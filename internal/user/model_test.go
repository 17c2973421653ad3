package user

import (
	"testing"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_MarkVerified(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	u := &User{ID: uuid.New(), VerificationToken: "abc"}

	u.MarkVerified(now)

	assert.True(t, u.IsVerified)
	require.NotNil(t, u.VerifiedAt)
	assert.Equal(t, now, *u.VerifiedAt)
	assert.Empty(t, u.VerificationToken)
}

func TestUser_Public(t *testing.T) {
	id := uuid.New()
	u := &User{ID: id, Name: "A", Email: "a@x.com", Role: RoleAdmin, PasswordHash: "secret", VerificationToken: "tok"}

	assert.Equal(t, Public{ID: id.String(), Name: "A", Email: "a@x.com", Role: RoleAdmin}, u.Public())
}

func TestCreateParams_Validate(t *testing.T) {
	valid := CreateParams{Email: "a@x.com", Name: "Alice", Password: "secret1", Role: RoleUser}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name  string
		edit  func(p *CreateParams)
		field string
	}{
		{"missing email", func(p *CreateParams) { p.Email = "" }, "email"},
		{"bad email", func(p *CreateParams) { p.Email = "not-an-email" }, "email"},
		{"missing password", func(p *CreateParams) { p.Password = "" }, "password"},
		{"short password", func(p *CreateParams) { p.Password = "abc" }, "password"},
		{"short name", func(p *CreateParams) { p.Name = "Al" }, "name"},
		{"unknown role", func(p *CreateParams) { p.Role = "root" }, "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.edit(&p)

			err := p.Validate()
			require.Error(t, err)

			var errs validation.Errors
			require.ErrorAs(t, err, &errs)
			assert.Contains(t, errs, tt.field)
		})
	}
}

func TestRole_IsValid(t *testing.T) {
	assert.True(t, RoleAdmin.IsValid())
	assert.True(t, RoleUser.IsValid())
	assert.False(t, Role("owner").IsValid())
}
