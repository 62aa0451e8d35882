package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/zeempo/zeempo-go/pkg/core"
	"github.com/zeempo/zeempo-go/pkg/core/types"
)

type fakeAPI struct {
	registerUser  *types.User
	registerToken string
	registerErr   error
	registerCalls int
	lastAvatar    string

	loginUser  *types.User
	loginToken string
	loginErr   error

	meUser *types.User
	meErr  error
}

func (f *fakeAPI) Register(_ context.Context, email, password, name, avatar string) (*types.User, string, error) {
	f.registerCalls++
	f.lastAvatar = avatar
	if f.registerErr != nil {
		return nil, "", f.registerErr
	}
	return f.registerUser, f.registerToken, nil
}

func (f *fakeAPI) Login(_ context.Context, email, password string) (*types.User, string, error) {
	if f.loginErr != nil {
		return nil, "", f.loginErr
	}
	return f.loginUser, f.loginToken, nil
}

func (f *fakeAPI) Me(_ context.Context) (*types.User, error) {
	if f.meErr != nil {
		return nil, f.meErr
	}
	return f.meUser, nil
}

type memoryStore struct {
	token     string
	setCalls  int
	clearCall int
}

func (m *memoryStore) Token(context.Context) (string, error) { return m.token, nil }

func (m *memoryStore) SetToken(_ context.Context, token string) error {
	m.token = token
	m.setCalls++
	return nil
}

func (m *memoryStore) ClearToken(context.Context) error {
	m.token = ""
	m.clearCall++
	return nil
}

func TestRegister_ValidatesLocallyBeforeNetwork(t *testing.T) {
	api := &fakeAPI{}
	ctl := NewController(api, NewTokenVault())

	_, err := ctl.Register(context.Background(), "no-at-sign", "longenough", "Ada")
	var ce *core.Error
	if !errors.As(err, &ce) || ce.Type != core.ErrValidation || ce.Param != "email" {
		t.Fatalf("Register() bad email error = %v, want validation on email", err)
	}

	_, err = ctl.Register(context.Background(), "ada@example.com", "short", "Ada")
	if !errors.As(err, &ce) || ce.Param != "password" {
		t.Fatalf("Register() short password error = %v, want validation on password", err)
	}

	if api.registerCalls != 0 {
		t.Fatalf("api.Register called %d times for invalid input, want 0", api.registerCalls)
	}
	if ctl.LastError() == nil {
		t.Fatal("LastError() = nil after validation failure")
	}
}

func TestRegister_AdoptsUserTokenAndAvatar(t *testing.T) {
	api := &fakeAPI{
		registerUser:  &types.User{ID: "u1", Email: "ada@example.com", Name: "ada"},
		registerToken: "tok-1",
	}
	store := &memoryStore{}
	vault := NewTokenVault()
	ctl := NewController(api, vault, WithCredentialStore(store))

	user, err := ctl.Register(context.Background(), "ada@example.com", "hunter22", "ada")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if user.ID != "u1" {
		t.Fatalf("Register() user = %+v", user)
	}
	if api.lastAvatar != "A" {
		t.Fatalf("derived avatar = %q, want first letter uppercased", api.lastAvatar)
	}
	if vault.Token() != "tok-1" {
		t.Fatalf("vault token = %q, want tok-1", vault.Token())
	}
	if store.token != "tok-1" {
		t.Fatalf("persisted token = %q, want tok-1", store.token)
	}
	if !ctl.Authenticated() {
		t.Fatal("Authenticated() = false after register")
	}
}

func TestLogin_FailureRecordsErrorAndStaysSignedOut(t *testing.T) {
	api := &fakeAPI{loginErr: core.NewAuthError("invalid credentials")}
	ctl := NewController(api, NewTokenVault())

	_, err := ctl.Login(context.Background(), "ada@example.com", "wrong")
	if !core.IsAuth(err) {
		t.Fatalf("Login() error = %v, want auth_error", err)
	}
	if ctl.Authenticated() {
		t.Fatal("Authenticated() = true after failed login")
	}
	if ctl.LastError() == nil {
		t.Fatal("LastError() = nil after failed login")
	}
	ctl.ClearError()
	if ctl.LastError() != nil {
		t.Fatal("LastError() != nil after ClearError()")
	}
}

func TestRestoreSession_NoCachedToken(t *testing.T) {
	ctl := NewController(&fakeAPI{}, NewTokenVault(), WithCredentialStore(&memoryStore{}))

	user, ok, err := ctl.RestoreSession(context.Background())
	if user != nil || ok || err != nil {
		t.Fatalf("RestoreSession() = (%v, %v, %v), want (nil, false, nil)", user, ok, err)
	}
}

func TestRestoreSession_ValidTokenSignsIn(t *testing.T) {
	api := &fakeAPI{meUser: &types.User{ID: "u1", Name: "Ada"}}
	store := &memoryStore{token: "tok-cached"}
	vault := NewTokenVault()
	ctl := NewController(api, vault, WithCredentialStore(store))

	user, ok, err := ctl.RestoreSession(context.Background())
	if err != nil || !ok {
		t.Fatalf("RestoreSession() = (_, %v, %v), want (true, nil)", ok, err)
	}
	if user.ID != "u1" || ctl.User() == nil {
		t.Fatalf("RestoreSession() user = %+v", user)
	}
	if vault.Token() != "tok-cached" {
		t.Fatalf("vault token = %q after restore", vault.Token())
	}
}

func TestRestoreSession_RejectedTokenClearsCredentialSilently(t *testing.T) {
	api := &fakeAPI{meErr: core.NewAuthError("token expired")}
	store := &memoryStore{token: "tok-stale"}
	vault := NewTokenVault()
	ctl := NewController(api, vault, WithCredentialStore(store))

	user, ok, err := ctl.RestoreSession(context.Background())
	if user != nil || ok || err != nil {
		t.Fatalf("RestoreSession() rejected token = (%v, %v, %v), want (nil, false, nil)", user, ok, err)
	}
	if vault.Authenticated() {
		t.Fatal("vault still holds the rejected token")
	}
	if store.token != "" {
		t.Fatalf("store token = %q after rejection, want cleared", store.token)
	}
}

func TestRestoreSession_TransportFailureKeepsCachedToken(t *testing.T) {
	api := &fakeAPI{meErr: core.NewNetworkError("server unreachable")}
	store := &memoryStore{token: "tok-cached"}
	ctl := NewController(api, NewTokenVault(), WithCredentialStore(store))

	_, ok, err := ctl.RestoreSession(context.Background())
	if ok || err == nil {
		t.Fatalf("RestoreSession() transport failure = (%v, %v), want (false, error)", ok, err)
	}
	if store.token != "tok-cached" {
		t.Fatalf("store token = %q, want preserved for next launch", store.token)
	}
}

func TestLogout_ClearsStateAndRunsHooks(t *testing.T) {
	api := &fakeAPI{loginUser: &types.User{ID: "u1"}, loginToken: "tok-1"}
	store := &memoryStore{}
	ctl := NewController(api, NewTokenVault(), WithCredentialStore(store))

	hookRuns := 0
	ctl.OnLogout(func() { hookRuns++ })

	if _, err := ctl.Login(context.Background(), "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	ctl.Logout(context.Background())
	if ctl.Authenticated() || ctl.User() != nil {
		t.Fatal("still authenticated after Logout()")
	}
	if store.token != "" {
		t.Fatalf("store token = %q after Logout(), want cleared", store.token)
	}
	if hookRuns != 1 {
		t.Fatalf("logout hooks ran %d times, want 1", hookRuns)
	}
}

func TestHandleUnauthorized_OneShotInvalidation(t *testing.T) {
	api := &fakeAPI{loginUser: &types.User{ID: "u1"}, loginToken: "tok-1"}
	store := &memoryStore{}
	ctl := NewController(api, NewTokenVault(), WithCredentialStore(store))

	hookRuns := 0
	ctl.OnLogout(func() { hookRuns++ })

	if _, err := ctl.Login(context.Background(), "ada@example.com", "hunter22"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	// Concurrent 401s race to invalidate; only the first takes effect.
	ctl.HandleUnauthorized()
	ctl.HandleUnauthorized()
	ctl.HandleUnauthorized()

	if ctl.Authenticated() || ctl.User() != nil {
		t.Fatal("still authenticated after HandleUnauthorized()")
	}
	if hookRuns != 1 {
		t.Fatalf("logout hooks ran %d times, want 1", hookRuns)
	}
	if store.clearCall != 1 {
		t.Fatalf("store.ClearToken called %d times, want 1", store.clearCall)
	}
}

func TestHandleUnauthorized_NoopWhenSignedOut(t *testing.T) {
	ctl := NewController(&fakeAPI{}, NewTokenVault())
	hookRuns := 0
	ctl.OnLogout(func() { hookRuns++ })

	ctl.HandleUnauthorized()
	if hookRuns != 0 {
		t.Fatalf("logout hooks ran %d times while signed out, want 0", hookRuns)
	}
}

func TestDeriveAvatar(t *testing.T) {
	cases := []struct {
		name, email, want string
	}{
		{"ada", "ada@example.com", "A"},
		{"", "bob@example.com", "B"},
		{"  chidi  ", "x@example.com", "C"},
		{"", "", ""},
	}
	for _, tc := range cases {
		if got := deriveAvatar(tc.name, tc.email); got != tc.want {
			t.Fatalf("deriveAvatar(%q, %q) = %q, want %q", tc.name, tc.email, got, tc.want)
		}
	}
}
