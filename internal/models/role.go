package models

import (
	"encoding/json"
	"fmt"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
	RoleEditor Role = "editor"
	RoleUser   Role = "user"
)

// Roles lists every role in the order the API documents them.
var Roles = []Role{RoleAdmin, RoleViewer, RoleEditor, RoleUser}

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleViewer, RoleEditor, RoleUser:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) String() string {
	return string(r)
}

// CanManageUsers reports whether the role may open the user management surface.
func (r Role) CanManageUsers() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleViewer, RoleEditor, RoleUser:
		return false
	default:
		return false
	}
}

// CanDeleteBatches reports whether the role may delete whole batches.
func (r Role) CanDeleteBatches() bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleViewer, RoleEditor, RoleUser:
		return false
	default:
		return false
	}
}

func (r *Role) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("role: %w", err)
	}
	parsed, err := ParseRole(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
