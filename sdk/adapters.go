package zeempo

import (
	"context"

	"github.com/zeempo/zeempo-go/pkg/core/types"
)

// AuthAPI adapts the client to the auth controller's remote surface
// (pkg/core/auth.API).
type AuthAPI struct {
	client *Client
}

// AuthAPI returns the auth-controller adapter.
func (c *Client) AuthAPI() *AuthAPI {
	return &AuthAPI{client: c}
}

// Register creates an account.
func (a *AuthAPI) Register(ctx context.Context, email, password, name, avatar string) (*types.User, string, error) {
	resp, err := a.client.Auth.Register(ctx, RegisterRequest{
		Email:    email,
		Password: password,
		Name:     name,
		Avatar:   avatar,
	})
	if err != nil {
		return nil, "", err
	}
	return resp.User, resp.AccessToken, nil
}

// Login authenticates an existing account.
func (a *AuthAPI) Login(ctx context.Context, email, password string) (*types.User, string, error) {
	resp, err := a.client.Auth.Login(ctx, email, password)
	if err != nil {
		return nil, "", err
	}
	return resp.User, resp.AccessToken, nil
}

// Me validates the held credential.
func (a *AuthAPI) Me(ctx context.Context) (*types.User, error) {
	return a.client.Auth.Me(ctx)
}

// SessionStore adapts the client to the session orchestrator's remote
// surface (pkg/core/session.RemoteStore).
type SessionStore struct {
	client *Client
}

// SessionStore returns the orchestrator adapter.
func (c *Client) SessionStore() *SessionStore {
	return &SessionStore{client: c}
}

// Translate sends one user turn.
func (s *SessionStore) Translate(ctx context.Context, message, language, sessionID string) (string, string, error) {
	resp, err := s.client.Translate.TextToPidgin(ctx, TranslateRequest{
		Message:   message,
		Language:  language,
		SessionID: sessionID,
	})
	if err != nil {
		return "", "", err
	}
	return resp.Response, resp.SessionID, nil
}

// ListSessions fetches the session summaries.
func (s *SessionStore) ListSessions(ctx context.Context) ([]types.SessionSummary, error) {
	return s.client.Chats.List(ctx)
}

// History fetches a session's full message history.
func (s *SessionStore) History(ctx context.Context, id string) ([]types.Message, error) {
	return s.client.Chats.History(ctx, id)
}

// DeleteSession removes a session from the remote store.
func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	return s.client.Chats.Delete(ctx, id)
}
