package auth

import (
	"github.com/redmonkez12/go-auth-flow/internal/apperror"
	"github.com/redmonkez12/go-auth-flow/internal/user"
)

// CheckPermissions allows admins and the owner of a resource.
func CheckPermissions(role user.Role, requesterID, ownerID string) error {
	if role == user.RoleAdmin {
		return nil
	}
	if requesterID == ownerID {
		return nil
	}
	return apperror.Unauthorized("Not authorized to access this route")
}
