package auth

import "sync"

// TokenVault owns the process-wide bearer credential. It is the single
// mutation point for the token: the SDK reads it through Token() when each
// request is built, so Set/Clear are immediately visible to all in-flight
// and subsequent request builders.
type TokenVault struct {
	mu    sync.RWMutex
	token string
}

// NewTokenVault creates an empty vault.
func NewTokenVault() *TokenVault {
	return &TokenVault{}
}

// Token returns the current credential, or "" when unauthenticated.
func (v *TokenVault) Token() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.token
}

// Set replaces the credential.
func (v *TokenVault) Set(token string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.token = token
}

// Clear removes the credential. Returns true when a credential was
// actually held, so callers can make invalidation side effects one-shot.
func (v *TokenVault) Clear() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	had := v.token != ""
	v.token = ""
	return had
}

// Authenticated reports whether a credential is held.
func (v *TokenVault) Authenticated() bool {
	return v.Token() != ""
}
