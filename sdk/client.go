// Package zeempo provides the Go client for the Zeempo translation
// service.
//
// The client is a thin typed layer over the backend's auth, chat,
// translation, voice, and payment endpoints. Conversation and modality
// state live above it, in pkg/core/session and pkg/core/modality.
package zeempo

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenSource supplies the current bearer credential. It is consulted at
// request-build time, never earlier, so a credential change is visible to
// every subsequent request immediately.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed TokenSource, mostly useful in tests.
type StaticToken string

// Token returns the fixed token.
func (s StaticToken) Token() string { return string(s) }

// Client is the main entry point for the SDK.
type Client struct {
	Auth      *AuthService
	Chats     *ChatsService
	Translate *TranslateService
	Voice     *VoiceService
	Payments  *PaymentsService
	Live      *LiveService

	// Internal
	baseURL        string
	httpClient     *http.Client
	logger         *slog.Logger
	tokens         TokenSource
	onUnauthorized func()
}

// NewClient creates a new client for the given base URL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = newDefaultHTTPClient()
	}

	c.Auth = &AuthService{client: c}
	c.Chats = &ChatsService{client: c}
	c.Translate = &TranslateService{client: c}
	c.Voice = &VoiceService{client: c}
	c.Payments = &PaymentsService{client: c}
	c.Live = &LiveService{client: c}
	return c
}

// BaseURL returns the configured server base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// healthResponse is the backend liveness report.
type healthResponse struct {
	Status string `json:"status"`
}

// Health checks backend liveness.
func (c *Client) Health(ctx context.Context) error {
	var out healthResponse
	return c.doGET(ctx, "/health", &out)
}
