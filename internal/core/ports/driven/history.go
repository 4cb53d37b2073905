package driven

import (
	"context"

	"github.com/agrichat/agrichat/internal/core/domain"
)

// HistoryEntry is one (role, content) pair of conversation history,
// in chronological order.
type HistoryEntry struct {
	Role    string
	Content string
}

// ChatRepository persists the append-only conversation message log.
//
// Saving messages after a query is best-effort bookkeeping: callers log
// failures and still return the answer.
type ChatRepository interface {
	// GetRecentHistory returns up to limit most recent (role, content)
	// pairs for a conversation, oldest first.
	GetRecentHistory(ctx context.Context, conversationID string, limit int) ([]HistoryEntry, error)

	// SaveMessage appends a message to a conversation.
	SaveMessage(ctx context.Context, msg domain.Message) error

	// GetMessages returns messages for a conversation with pagination,
	// oldest first.
	GetMessages(ctx context.Context, conversationID string, limit, offset int) ([]domain.Message, error)

	// ClearHistory deletes all messages in a conversation.
	ClearHistory(ctx context.Context, conversationID string) error
}
