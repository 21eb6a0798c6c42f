package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrMissingField = errors.New("missing required field")

type User struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	FullName     *string `json:"full_name"`
	Email        string  `json:"email"`
	PhoneNumber  *string `json:"phone_number"`
	EmployeeID   *string `json:"employee_id"`
	Role         Role    `json:"role"`
	ProfilePhoto *string `json:"profile_photo"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	var raw struct {
		alias
		ID   *int64 `json:"id"`
		Role *Role  `json:"role"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode user: %w", err)
	}
	if raw.ID == nil {
		return fmt.Errorf("decode user: %w: id", ErrMissingField)
	}
	if raw.Username == "" {
		return fmt.Errorf("decode user: %w: username", ErrMissingField)
	}
	if raw.Role == nil {
		return fmt.Errorf("decode user: %w: role", ErrMissingField)
	}

	*u = User(raw.alias)
	u.ID = *raw.ID
	u.Role = *raw.Role
	return nil
}

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	if u.FullName != nil && *u.FullName != "" {
		return *u.FullName
	}
	return u.Username
}
