// Package memory provides in-memory implementations of the storage
// ports for testing and ephemeral sessions.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
)

// ChatRepository is an in-memory implementation of driven.ChatRepository.
type ChatRepository struct {
	mu       sync.RWMutex
	messages map[string][]domain.Message // keyed by conversation ID
}

var _ driven.ChatRepository = (*ChatRepository)(nil)

// NewChatRepository creates an empty in-memory chat repository.
func NewChatRepository() *ChatRepository {
	return &ChatRepository{
		messages: make(map[string][]domain.Message),
	}
}

// SaveMessage appends a message to a conversation.
func (r *ChatRepository) SaveMessage(_ context.Context, msg domain.Message) error {
	if msg.ID == "" || msg.ConversationID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages[msg.ConversationID] = append(r.messages[msg.ConversationID], msg)
	return nil
}

// GetRecentHistory returns up to limit most recent (role, content)
// pairs, oldest first.
func (r *ChatRepository) GetRecentHistory(_ context.Context, conversationID string, limit int) ([]driven.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.sorted(conversationID)
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	entries := make([]driven.HistoryEntry, len(msgs))
	for i, m := range msgs {
		entries[i] = driven.HistoryEntry{Role: m.Role, Content: m.Content}
	}
	return entries, nil
}

// GetMessages returns messages for a conversation with pagination,
// oldest first.
func (r *ChatRepository) GetMessages(_ context.Context, conversationID string, limit, offset int) ([]domain.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := r.sorted(conversationID)
	if offset >= len(msgs) {
		return nil, nil
	}
	msgs = msgs[offset:]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}

	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// ClearHistory deletes all messages in a conversation.
func (r *ChatRepository) ClearHistory(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, conversationID)
	return nil
}

// sorted returns a copy of the conversation ordered by creation time.
// Callers must hold at least a read lock.
func (r *ChatRepository) sorted(conversationID string) []domain.Message {
	msgs := make([]domain.Message, len(r.messages[conversationID]))
	copy(msgs, r.messages[conversationID])
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs
}
