package types

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn. Messages are immutable once
// created except for the Pending/Failed delivery flags, which only ever
// move forward (pending -> acked, or pending -> failed).
type Message struct {
	// LocalID is a client-assigned id for optimistic messages. It never
	// goes on the wire.
	LocalID string `json:"-"`

	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Language  string    `json:"language,omitempty"`

	// Pending is true between the optimistic local append and the server
	// acknowledging the send that carried it.
	Pending bool `json:"-"`
	// Failed is true when the send carrying this message failed. The
	// message is kept visible; manual retry may duplicate it.
	Failed bool `json:"-"`
}
