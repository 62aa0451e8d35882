package zeempo

import (
	"context"
	"net/http"
	"net/url"
)

// TranslateService wraps the translation endpoint.
type TranslateService struct {
	client *Client
}

// TranslateRequest carries one user turn to the translator.
type TranslateRequest struct {
	// Message is the user's text.
	Message string `json:"message"`
	// Language selects the target language ("pidgin" or "swahili").
	Language string `json:"language"`
	// SessionID is the server-assigned session, empty for the first turn
	// of a new conversation.
	SessionID string `json:"-"`
}

// TranslateResponse is the assistant's reply plus the session identity
// the server filed it under.
type TranslateResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

type translatePayload struct {
	Message  string `json:"message"`
	Language string `json:"language"`
}

// TextToPidgin sends one message and returns the assistant reply. On the
// first turn the server assigns and returns a new session id.
func (s *TranslateService) TextToPidgin(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	path := "/text-to-pidgin"
	if req.SessionID != "" {
		path += "?session_id=" + url.QueryEscape(req.SessionID)
	}
	var out TranslateResponse
	payload := translatePayload{Message: req.Message, Language: req.Language}
	if err := s.client.doJSON(ctx, http.MethodPost, path, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
