package api

import (
	"context"
	"net/http"

	"github.com/cyberwithaman/digicon/internal/models"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, username, password string) (models.LoginResponse, error) {
	body, err := jsonBody(loginRequest{Username: username, Password: password})
	if err != nil {
		return models.LoginResponse{}, err
	}

	var resp models.LoginResponse
	err = c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/auth/login/",
		body:        body,
		contentType: "application/json",
	}, &resp)
	return resp, err
}

func (c *Client) Logout(ctx context.Context, sess models.Session) error {
	return c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/auth/logout/",
		session: &sess,
	}, nil)
}
