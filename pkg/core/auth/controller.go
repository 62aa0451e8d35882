// Package auth owns login, registration, session restore, and the
// credential lifecycle.
package auth

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"unicode"

	"github.com/zeempo/zeempo-go/pkg/core"
	"github.com/zeempo/zeempo-go/pkg/core/types"
)

const minPasswordLen = 6

// API is the remote auth surface the controller drives.
type API interface {
	Register(ctx context.Context, email, password, name, avatar string) (*types.User, string, error)
	Login(ctx context.Context, email, password string) (*types.User, string, error)
	Me(ctx context.Context) (*types.User, error)
}

// CredentialStore persists the token across restarts.
type CredentialStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, token string) error
	ClearToken(ctx context.Context) error
}

// Controller owns the current user and credential.
type Controller struct {
	api    API
	vault  *TokenVault
	store  CredentialStore
	logger *slog.Logger

	mu          sync.Mutex
	user        *types.User
	lastErr     error
	logoutHooks []func()
}

// Option configures a Controller.
type Option func(*Controller)

// WithCredentialStore persists the credential in the given store.
func WithCredentialStore(store CredentialStore) Option {
	return func(c *Controller) { c.store = store }
}

// WithLogger sets the controller logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// NewController creates an auth controller sharing the given vault with
// the request layer.
func NewController(api API, vault *TokenVault, opts ...Option) *Controller {
	c := &Controller{
		api:    api,
		vault:  vault,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Vault returns the shared credential vault.
func (c *Controller) Vault() *TokenVault { return c.vault }

// OnLogout registers a hook invoked whenever the credential is cleared,
// by Logout or by a 401 anywhere.
func (c *Controller) OnLogout(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logoutHooks = append(c.logoutHooks, fn)
}

// Register creates an account and signs the user in.
func (c *Controller) Register(ctx context.Context, email, password, name string) (*types.User, error) {
	email = strings.TrimSpace(email)
	if !strings.Contains(email, "@") {
		return nil, c.fail(core.NewValidationErrorWithParam("email address no correct", "email"))
	}
	if len(password) < minPasswordLen {
		return nil, c.fail(core.NewValidationErrorWithParam("password too short", "password"))
	}

	user, token, err := c.api.Register(ctx, email, password, name, deriveAvatar(name, email))
	if err != nil {
		return nil, c.fail(err)
	}
	c.adopt(ctx, user, token)
	return user, nil
}

// Login authenticates an existing account.
func (c *Controller) Login(ctx context.Context, email, password string) (*types.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, c.fail(core.NewValidationError("email and password are required"))
	}

	user, token, err := c.api.Login(ctx, email, password)
	if err != nil {
		return nil, c.fail(err)
	}
	c.adopt(ctx, user, token)
	return user, nil
}

// RestoreSession validates a cached credential against the remote store.
// An expired or rejected token is an expected outcome: it clears the
// credential and reports unauthenticated without error. Transport
// failures are reported as errors, leaving the cached token in place.
func (c *Controller) RestoreSession(ctx context.Context) (*types.User, bool, error) {
	if c.store == nil {
		return nil, false, nil
	}
	token, err := c.store.Token(ctx)
	if err != nil {
		return nil, false, err
	}
	if token == "" {
		return nil, false, nil
	}

	c.vault.Set(token)
	user, err := c.api.Me(ctx)
	if err != nil {
		if core.IsAuth(err) || core.IsAuthRequired(err) {
			c.logger.Info("cached credential rejected, signing out")
			c.invalidate(ctx)
			return nil, false, nil
		}
		c.vault.Clear()
		return nil, false, c.fail(err)
	}

	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
	return user, true, nil
}

// Logout clears the credential and the current user. No server calls.
func (c *Controller) Logout(ctx context.Context) {
	c.invalidate(ctx)
}

// HandleUnauthorized is wired as the SDK's 401 hook: any rejected
// authenticated call invalidates the credential globally, one-shot.
func (c *Controller) HandleUnauthorized() {
	if !c.vault.Clear() {
		return
	}
	c.logger.Warn("credential rejected by server, signing out")
	if c.store != nil {
		if err := c.store.ClearToken(context.Background()); err != nil {
			c.logger.Error("clear cached token", "err", err)
		}
	}
	c.mu.Lock()
	c.user = nil
	hooks := append([]func(){}, c.logoutHooks...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// User returns the current user, or nil when unauthenticated.
func (c *Controller) User() *types.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// Authenticated reports whether a credential is held.
func (c *Controller) Authenticated() bool {
	return c.vault.Authenticated()
}

// LastError returns the current error slot.
func (c *Controller) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// ClearError dismisses the current error.
func (c *Controller) ClearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = nil
}

func (c *Controller) adopt(ctx context.Context, user *types.User, token string) {
	c.vault.Set(token)
	if c.store != nil {
		if err := c.store.SetToken(ctx, token); err != nil {
			c.logger.Error("persist token", "err", err)
		}
	}
	c.mu.Lock()
	c.user = user
	c.lastErr = nil
	c.mu.Unlock()
}

func (c *Controller) invalidate(ctx context.Context) {
	c.vault.Clear()
	if c.store != nil {
		if err := c.store.ClearToken(ctx); err != nil {
			c.logger.Error("clear cached token", "err", err)
		}
	}
	c.mu.Lock()
	c.user = nil
	hooks := append([]func(){}, c.logoutHooks...)
	c.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

func (c *Controller) fail(err error) error {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
	return err
}

func deriveAvatar(name, email string) string {
	source := strings.TrimSpace(name)
	if source == "" {
		source = email
	}
	for _, r := range source {
		return string(unicode.ToUpper(r))
	}
	return ""
}
