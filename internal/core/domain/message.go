package domain

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one entry in a conversation's append-only log.
type Message struct {
	// ID is the unique identifier for the message.
	ID string

	// ConversationID links to the owning conversation.
	ConversationID string

	// Role is "user" or "assistant".
	Role string

	// Content is the message text. For a cancelled stream this holds
	// the partial text accumulated before cancellation.
	Content string

	// Sources are the citations for an assistant message, if any.
	Sources []Source

	// Intent is the audit annotation recorded for an assistant message.
	Intent *Intent

	// CreatedAt is when the message was persisted.
	CreatedAt time.Time
}
