package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrichat/agrichat/internal/core/domain"
)

func testMessage(conversationID string, n int, role string) domain.Message {
	return domain.Message{
		ID:             fmt.Sprintf("msg-%d", n),
		ConversationID: conversationID,
		Role:           role,
		Content:        fmt.Sprintf("訊息 %d", n),
		CreatedAt:      time.Now().Add(time.Duration(n) * time.Second),
	}
}

func TestChatRepository_SaveMessage_Validation(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()

	err := repo.SaveMessage(ctx, domain.Message{ConversationID: "conv-1", Content: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = repo.SaveMessage(ctx, domain.Message{ID: "msg-1", Content: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChatRepository_GetRecentHistory(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()

	for i := 0; i < 6; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		require.NoError(t, repo.SaveMessage(ctx, testMessage("conv-1", i, role)))
	}

	entries, err := repo.GetRecentHistory(ctx, "conv-1", 4)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	// The most recent messages, oldest first.
	assert.Equal(t, "訊息 2", entries[0].Content)
	assert.Equal(t, "訊息 5", entries[3].Content)
	assert.Equal(t, domain.RoleUser, entries[0].Role)
	assert.Equal(t, domain.RoleAssistant, entries[3].Role)
}

func TestChatRepository_GetRecentHistory_Empty(t *testing.T) {
	repo := NewChatRepository()

	entries, err := repo.GetRecentHistory(context.Background(), "missing", 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestChatRepository_GetMessages_Pagination(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, repo.SaveMessage(ctx, testMessage("conv-1", i, domain.RoleUser)))
	}

	page, err := repo.GetMessages(ctx, "conv-1", 2, 1)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "訊息 1", page[0].Content)
	assert.Equal(t, "訊息 2", page[1].Content)

	past, err := repo.GetMessages(ctx, "conv-1", 10, 99)
	require.NoError(t, err)
	assert.Empty(t, past)
}

func TestChatRepository_ConversationsAreIsolated(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveMessage(ctx, testMessage("conv-1", 0, domain.RoleUser)))
	require.NoError(t, repo.SaveMessage(ctx, testMessage("conv-2", 1, domain.RoleUser)))

	msgs, err := repo.GetMessages(ctx, "conv-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "conv-1", msgs[0].ConversationID)
}

func TestChatRepository_ClearHistory(t *testing.T) {
	repo := NewChatRepository()
	ctx := context.Background()

	require.NoError(t, repo.SaveMessage(ctx, testMessage("conv-1", 0, domain.RoleUser)))
	require.NoError(t, repo.ClearHistory(ctx, "conv-1"))

	msgs, err := repo.GetMessages(ctx, "conv-1", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}
