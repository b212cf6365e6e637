package apiclient

import (
	"context"
	"errors"
	"net/http"

	"github.com/alfalah/schooladmin/internal/domain/identity"
)

type authResponse struct {
	Message string         `json:"message"`
	User    *identity.User `json:"user"`
	NewUser *identity.User `json:"newUser"`
}

// Login exchanges credentials for the signed-in user
func (c *Client) Login(ctx context.Context, creds identity.Credentials) (identity.User, error) {
	var res authResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/api/auth/login", "/api/auth/login", creds, &res); err != nil {
		return identity.User{}, err
	}
	if res.User == nil {
		return identity.User{}, errors.New("login response has no user")
	}
	return *res.User, nil
}

// Register creates an account and signs it in
func (c *Client) Register(ctx context.Context, reg identity.Registration) (identity.User, error) {
	var res authResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/api/auth/register", "/api/auth/register", reg, &res); err != nil {
		return identity.User{}, err
	}
	switch {
	case res.NewUser != nil:
		return *res.NewUser, nil
	case res.User != nil:
		return *res.User, nil
	}
	return identity.User{}, errors.New("register response has no user")
}

// UpdatePassword changes the password of the signed-in user
func (c *Client) UpdatePassword(ctx context.Context, pc identity.PasswordChange) error {
	return c.sendJSON(ctx, http.MethodPost, "/api/auth/update-password", "/api/auth/update-password", pc, nil)
}
