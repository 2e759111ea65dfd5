// Package acl decides which users may read, edit, share or delete a design.
package acl

import (
	"errors"
	"fmt"
)

// ErrUnknownRole is returned when a role name cannot be parsed.
var ErrUnknownRole = errors.New("unknown role")

// Role is a user's access level on a design.
type Role int

const (
	// Viewer can open a design and watch it change.
	Viewer Role = iota
	// Editor can also manipulate elements and save.
	Editor
	// Owner can additionally share and delete the design.
	Owner
)

func (r Role) String() string {
	switch r {
	case Viewer:
		return "viewer"
	case Editor:
		return "editor"
	case Owner:
		return "owner"
	default:
		return "unknown"
	}
}

// ParseRole converts a role name back into a Role.
func ParseRole(name string) (Role, error) {
	switch name {
	case "viewer":
		return Viewer, nil
	case "editor":
		return Editor, nil
	case "owner":
		return Owner, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRole, name)
	}
}

// MarshalText encodes the role by name.
func (r Role) MarshalText() ([]byte, error) {
	if r < Viewer || r > Owner {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRole, int(r))
	}

	return []byte(r.String()), nil
}

// UnmarshalText decodes a role name.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := ParseRole(string(text))
	if err != nil {
		return err
	}

	*r = parsed

	return nil
}

func (r Role) CanRead() bool   { return r >= Viewer }
func (r Role) CanWrite() bool  { return r >= Editor }
func (r Role) CanShare() bool  { return r >= Owner }
func (r Role) CanDelete() bool { return r >= Owner }

// Permission is one user's role on one design.
type Permission struct {
	DesignID string `json:"designId"`
	UserID   string `json:"userId"`
	Role     Role   `json:"role"`
}
