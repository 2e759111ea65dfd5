package acl

import "errors"

// Common errors.
var (
	ErrPermissionNotFound = errors.New("permission not found")
	ErrAccessDenied       = errors.New("access denied")
)

// Store persists design permissions.
type Store interface {
	// Grant gives a user a role on a design, replacing any previous role.
	Grant(designID, userID string, role Role) error

	// Revoke removes a user's permission on a design.
	// Returns ErrPermissionNotFound if no permission exists.
	Revoke(designID, userID string) error

	// RevokeAll drops every permission on a design. Used when it is deleted.
	RevokeAll(designID string) error

	// GetRole returns the user's role on a design.
	// Returns ErrPermissionNotFound if no permission exists.
	GetRole(designID, userID string) (Role, error)

	// ListPermissions returns all permissions on a design ordered by user ID.
	ListPermissions(designID string) ([]Permission, error)
}
