package zeempo

import (
	"context"
	"net/http"

	"github.com/zeempo/zeempo-go/pkg/core/types"
)

// AuthService wraps the backend auth endpoints.
type AuthService struct {
	client *Client
}

// RegisterRequest is the account-creation payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the created/authenticated user and its credential.
type AuthResponse struct {
	User        *types.User `json:"user"`
	AccessToken string      `json:"access_token"`
}

// Register creates an account. A duplicate email surfaces as a conflict
// error (409).
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := s.client.doJSON(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login authenticates an existing account. Bad credentials surface as an
// auth error (401).
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	if err := s.client.doJSON(ctx, http.MethodPost, "/auth/login", loginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me validates the current credential and returns its user.
func (s *AuthService) Me(ctx context.Context) (*types.User, error) {
	var out types.User
	if err := s.client.doGET(ctx, "/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
