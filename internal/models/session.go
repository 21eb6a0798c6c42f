package models

import (
	"encoding/json"
	"fmt"
)

// Session is the locally persisted credential set. It carries no expiry;
// it lives until logout clears it.
type Session struct {
	Token    string `json:"token"`
	IsAdmin  bool   `json:"is_admin"`
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
}

func (s Session) Authenticated() bool {
	return s.Token != "" && s.UserID != 0
}

// Role is the closest role the login response allows: it only says whether
// the user is an admin.
func (s Session) Role() Role {
	if s.IsAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// LoginResponse is the body of POST /auth/login/.
type LoginResponse struct {
	Token    string `json:"token"`
	IsAdmin  bool   `json:"is_admin"`
	Username string `json:"username"`
	UserID   int64  `json:"user_id"`
}

func (r *LoginResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		Token    *string `json:"token"`
		IsAdmin  *bool   `json:"is_admin"`
		Username string  `json:"username"`
		UserID   *int64  `json:"user_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode login: %w", err)
	}
	switch {
	case raw.Token == nil || *raw.Token == "":
		return fmt.Errorf("decode login: %w: token", ErrMissingField)
	case raw.UserID == nil:
		return fmt.Errorf("decode login: %w: user_id", ErrMissingField)
	case raw.IsAdmin == nil:
		return fmt.Errorf("decode login: %w: is_admin", ErrMissingField)
	}

	*r = LoginResponse{
		Token:    *raw.Token,
		IsAdmin:  *raw.IsAdmin,
		Username: raw.Username,
		UserID:   *raw.UserID,
	}
	return nil
}

func (r LoginResponse) Session() Session {
	return Session{
		Token:    r.Token,
		IsAdmin:  r.IsAdmin,
		Username: r.Username,
		UserID:   r.UserID,
	}
}
