package acl

import (
	"errors"
	"fmt"
)

// Action is something a user wants to do to a design.
type Action int

const (
	ActionRead Action = iota
	ActionWrite
	ActionShare
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionWrite:
		return "write"
	case ActionShare:
		return "share"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Checker answers permission questions against a Store.
type Checker struct {
	store Store
}

// NewChecker creates a new permission checker.
func NewChecker(store Store) *Checker {
	return &Checker{store: store}
}

// Store returns the underlying permission store.
func (c *Checker) Store() Store {
	return c.store
}

// RoleOf returns the user's role, reporting false when none was granted.
func (c *Checker) RoleOf(designID, userID string) (Role, bool, error) {
	role, err := c.store.GetRole(designID, userID)
	if errors.Is(err, ErrPermissionNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	return role, true, nil
}

// CanPerform reports whether the user may perform action on the design.
func (c *Checker) CanPerform(designID, userID string, action Action) (bool, error) {
	role, ok, err := c.RoleOf(designID, userID)
	if err != nil || !ok {
		return false, err
	}

	switch action {
	case ActionRead:
		return role.CanRead(), nil
	case ActionWrite:
		return role.CanWrite(), nil
	case ActionShare:
		return role.CanShare(), nil
	case ActionDelete:
		return role.CanDelete(), nil
	default:
		return false, nil
	}
}

// RequirePermission returns ErrAccessDenied, wrapped with the action name,
// when the user may not perform action.
func (c *Checker) RequirePermission(designID, userID string, action Action) error {
	allowed, err := c.CanPerform(designID, userID, action)
	if err != nil {
		return err
	}

	if !allowed {
		return fmt.Errorf("%w: %s", ErrAccessDenied, action)
	}

	return nil
}
