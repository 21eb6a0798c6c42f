package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/cyberwithaman/digicon/internal/models"
)

func (c *Client) ListUsers(ctx context.Context, sess models.Session) ([]models.User, error) {
	var raw json.RawMessage
	if err := c.do(ctx, request{method: http.MethodGet, path: "/users/", session: &sess}, &raw); err != nil {
		return nil, err
	}
	users, err := decodeList[models.User](raw)
	if err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

func (c *Client) GetUser(ctx context.Context, sess models.Session, id int64) (models.User, error) {
	var user models.User
	err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    fmt.Sprintf("/users/%d/", id),
		session: &sess,
	}, &user)
	return user, err
}

// Route is the method and path a write is sent to.
type Route struct {
	Method string
	Path   string
}

// UserWriteRoute creates when id is nil and updates otherwise.
func UserWriteRoute(id *int64) Route {
	if id == nil {
		return Route{Method: http.MethodPost, Path: "/users/"}
	}
	return Route{Method: http.MethodPut, Path: fmt.Sprintf("/users/%d/", *id)}
}

// UserPayload is the multipart body of an admin create or update. Empty
// optional fields are omitted.
type UserPayload struct {
	Username string
	FullName string
	Email    string
	Role     models.Role
	Password string
	Phone    string
	Photo    *File
}

func (p UserPayload) fields() []formField {
	fields := []formField{
		{name: "username", value: p.Username},
		{name: "full_name", value: p.FullName},
		{name: "email", value: p.Email},
		{name: "role", value: p.Role.String()},
	}
	if p.Password != "" {
		fields = append(fields, formField{name: "password", value: p.Password})
	}
	if p.Phone != "" {
		fields = append(fields, formField{name: "phone_number", value: p.Phone})
	}
	return fields
}

func (c *Client) SaveUser(ctx context.Context, sess models.Session, id *int64, payload UserPayload) (models.User, error) {
	var files []File
	if payload.Photo != nil {
		files = append(files, *payload.Photo)
	}
	body, contentType, err := multipartBody(payload.fields(), "profile_photo", files)
	if err != nil {
		return models.User{}, err
	}

	route := UserWriteRoute(id)
	var user models.User
	err = c.do(ctx, request{
		method:      route.Method,
		path:        route.Path,
		session:     &sess,
		body:        body,
		contentType: contentType,
	}, &user)
	return user, err
}

func (c *Client) DeleteUser(ctx context.Context, sess models.Session, id int64) error {
	return c.do(ctx, request{
		method:  http.MethodDelete,
		path:    fmt.Sprintf("/users/%d/", id),
		session: &sess,
	}, nil)
}

type resetPasswordRequest struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (c *Client) ResetPassword(ctx context.Context, sess models.Session, id int64, password string) error {
	body, err := jsonBody(resetPasswordRequest{NewPassword: password, ConfirmPassword: password})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        fmt.Sprintf("/users/%d/reset-password/", id),
		session:     &sess,
		body:        body,
		contentType: "application/json",
	}, nil)
}

// ProfileUpdate is the JSON body of a self-service profile edit.
type ProfileUpdate struct {
	FullName    *string `json:"full_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	PhoneNumber *string `json:"phone_number,omitempty"`
}

func (c *Client) UpdateProfile(ctx context.Context, sess models.Session, update ProfileUpdate) (models.User, error) {
	body, err := jsonBody(update)
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	err = c.do(ctx, request{
		method:      http.MethodPut,
		path:        fmt.Sprintf("/users/%d/", sess.UserID),
		session:     &sess,
		body:        body,
		contentType: "application/json",
	}, &user)
	return user, err
}

func (c *Client) UpdateProfilePhoto(ctx context.Context, sess models.Session, photo File) error {
	if !sess.Authenticated() {
		return ErrNotAuthenticated
	}
	body, contentType, err := multipartBody(nil, "profile_photo", []File{photo})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPut,
		path:        fmt.Sprintf("/users/%d/", sess.UserID),
		session:     &sess,
		body:        body,
		contentType: contentType,
	}, nil)
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password"`
}

func (c *Client) ChangePassword(ctx context.Context, sess models.Session, password string) error {
	body, err := jsonBody(changePasswordRequest{NewPassword: password})
	if err != nil {
		return err
	}
	return c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/users/password/change/",
		session:     &sess,
		body:        body,
		contentType: "application/json",
	}, nil)
}
