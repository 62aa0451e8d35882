package types

import (
	"time"
	"unicode/utf8"
)

// maxTitleRunes is the display length a session title is derived at.
const maxTitleRunes = 40

// Session is one persisted conversation thread. Identity is assigned by
// the server on the first message; until then ID is empty and the session
// is pending. Messages is append-only during a live conversation.
type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
	Messages  []Message `json:"messages"`
}

// SessionSummary is the lightweight projection used for the session list.
type SessionSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary derives the list projection from the full session.
func (s *Session) Summary() SessionSummary {
	return SessionSummary{ID: s.ID, Title: s.Title, UpdatedAt: s.UpdatedAt}
}

// LastMessage returns the final message, or nil when the session is empty.
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// Clone returns a deep copy safe to hand to observers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	out.Messages = make([]Message, len(s.Messages))
	copy(out.Messages, s.Messages)
	return &out
}

// DeriveTitle builds a session title from the first user message,
// truncated to 40 runes with an ellipsis.
func DeriveTitle(first string) string {
	if first == "" {
		return "New Chat"
	}
	if utf8.RuneCountInString(first) <= maxTitleRunes {
		return first
	}
	runes := []rune(first)
	return string(runes[:maxTitleRunes]) + "..."
}
