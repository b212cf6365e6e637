package apiclient

import (
	"context"
	"net/http"

	"github.com/alfalah/schooladmin/internal/domain/identity"
)

// ListUsers returns the operator accounts
func (c *Client) ListUsers(ctx context.Context) ([]identity.User, error) {
	var users []identity.User
	if err := c.getJSON(ctx, "/api/users", "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser registers an operator account on behalf of an admin
func (c *Client) CreateUser(ctx context.Context, reg identity.Registration) (identity.User, error) {
	var res authResponse
	if err := c.sendJSON(ctx, http.MethodPost, "/api/users/register", "/api/users/register", reg, &res); err != nil {
		return identity.User{}, err
	}
	if res.NewUser != nil {
		return *res.NewUser, nil
	}
	if res.User != nil {
		return *res.User, nil
	}
	return identity.User{Email: reg.Email, FirstName: reg.FirstName, LastName: reg.LastName}, nil
}

// DeleteUser removes an operator account
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.sendJSON(ctx, http.MethodDelete, "/api/users/:id", "/api/users/"+escape(id), nil, nil)
}
