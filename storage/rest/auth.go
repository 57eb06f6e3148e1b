package restapi

import (
	"context"

	"github.com/trezcool/fypdesk/core/session"
	"github.com/trezcool/fypdesk/core/user"
)

var _ session.AuthRepository = (*Client)(nil)

type messageResponse struct {
	Message string `json:"message"`
}

func (c *Client) Login(ctx context.Context, form user.LoginForm) (user.LoginResponse, error) {
	var resp user.LoginResponse
	err := c.post(ctx, "/auth/login", form, &resp)
	return resp, err
}

func (c *Client) Register(ctx context.Context, form user.RegisterForm) (string, error) {
	var resp messageResponse
	if err := c.post(ctx, "/auth/register", form, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func (c *Client) Me(ctx context.Context) (user.Profile, error) {
	var prof user.Profile
	err := c.get(ctx, "/auth/me", &prof)
	return prof, err
}

func (c *Client) Supervisors(ctx context.Context) ([]user.Profile, error) {
	var users []user.Profile
	err := c.get(ctx, "/users/supervisors", &users)
	return users, err
}

func (c *Client) AvailableStudents(ctx context.Context) ([]user.Profile, error) {
	var users []user.Profile
	err := c.get(ctx, "/users/students/available", &users)
	return users, err
}
