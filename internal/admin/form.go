// Package admin implements the user-management surface available to
// administrators: a create/edit form and the user list actions.
package admin

import (
	"fmt"
	"strings"

	"github.com/cyberwithaman/digicon/internal/api"
	"github.com/cyberwithaman/digicon/internal/models"
)

type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// MissingFieldsError lists required form fields left blank.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "Please fill in all required fields: " + strings.Join(e.Fields, ", ")
}

// Form is bound to at most one selected user. With no selection it creates
// a user; otherwise it updates the selected one and never sends a password.
type Form struct {
	selected *int64

	Username string
	FullName string
	Email    string
	Password string
	Phone    string
	Role     models.Role
	Photo    *api.File
}

func NewForm() *Form {
	return &Form{Role: models.RoleUser}
}

// Select binds the form to u and loads its fields. A nil user resets the
// form to create mode.
func (f *Form) Select(u *models.User) {
	if u == nil {
		*f = Form{Role: models.RoleUser}
		return
	}

	id := u.ID
	*f = Form{
		selected: &id,
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}
	if u.FullName != nil {
		f.FullName = *u.FullName
	}
	if u.PhoneNumber != nil {
		f.Phone = *u.PhoneNumber
	}
}

func (f *Form) Mode() Mode {
	if f.selected == nil {
		return ModeCreate
	}
	return ModeEdit
}

func (f *Form) Selected() *int64 {
	if f.selected == nil {
		return nil
	}
	id := *f.selected
	return &id
}

func (f *Form) Validate() error {
	var missing []string
	if strings.TrimSpace(f.Username) == "" {
		missing = append(missing, "Username")
	}
	if strings.TrimSpace(f.FullName) == "" {
		missing = append(missing, "Full Name")
	}
	if strings.TrimSpace(f.Email) == "" {
		missing = append(missing, "Email")
	}
	if f.Mode() == ModeCreate && f.Password == "" {
		missing = append(missing, "Password")
	}
	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	if _, err := models.ParseRole(string(f.Role)); err != nil {
		return fmt.Errorf("role: %w", err)
	}
	return nil
}

// Route is where Submit will send the form.
func (f *Form) Route() api.Route {
	return api.UserWriteRoute(f.selected)
}

func (f *Form) Payload() api.UserPayload {
	p := api.UserPayload{
		Username: strings.TrimSpace(f.Username),
		FullName: strings.TrimSpace(f.FullName),
		Email:    strings.TrimSpace(f.Email),
		Role:     f.Role,
		Phone:    strings.TrimSpace(f.Phone),
		Photo:    f.Photo,
	}
	if f.Mode() == ModeCreate {
		p.Password = f.Password
	}
	return p
}
