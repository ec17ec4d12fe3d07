package api

import (
	"context"

	"github.com/SahilWadhwani/threathunt-console/internal/session"
)

// TokenPair is the response of POST /auth/login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	var pair TokenPair
	err := c.Post(ctx, "/auth/login", loginRequest{Email: email, Password: password}, "", &pair)
	if err != nil {
		return nil, err
	}
	return &pair, nil
}

// Me fetches the identity behind the given access token.
func (c *Client) Me(ctx context.Context, token string) (*session.Identity, error) {
	var id session.Identity
	if err := c.Get(ctx, "/auth/me", token, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// Register creates a new account. New accounts start as viewers; role
// upgrades happen server-side.
func (c *Client) Register(ctx context.Context, email, password string) (*session.Identity, error) {
	var id session.Identity
	err := c.Post(ctx, "/auth/register", registerRequest{Email: email, Password: password}, "", &id)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
