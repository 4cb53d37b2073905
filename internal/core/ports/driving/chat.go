// Package driving provides interfaces for inbound adapters (primary ports).
package driving

import (
	"context"

	"github.com/agrichat/agrichat/internal/core/domain"
)

// QueryRequest is one question from an authenticated caller.
type QueryRequest struct {
	// Question is the user's query text.
	Question string

	// ConversationID selects the conversation whose history feeds the
	// prompt and whose log receives the exchange. Empty means a
	// one-shot query with no history and no persistence.
	ConversationID string

	// K is the number of context chunks to retrieve, bounded 1-20.
	// Zero means the configured default.
	K int
}

// QueryResponse is the blocking reply for one query.
type QueryResponse struct {
	// Answer is the generated reply.
	Answer string `json:"answer"`

	// Sources are the citations backing a RAG answer; empty for
	// chitchat and out-of-scope replies.
	Sources []domain.Source `json:"sources"`

	// ContextCount is the number of retrieved chunks used.
	ContextCount int `json:"context_count"`

	// Intent is the classification that selected the pipeline branch.
	Intent domain.Intent `json:"intent"`
}

// FragmentType discriminates streamed response fragments.
type FragmentType string

// Fragment types emitted by StreamQuery, in protocol order:
// intent, sources, then chunk* (or a single answer when streaming is
// disabled), terminated by done or error.
const (
	FragmentIntent  FragmentType = "intent"
	FragmentSources FragmentType = "sources"
	FragmentChunk   FragmentType = "chunk"
	FragmentAnswer  FragmentType = "answer"
	FragmentError   FragmentType = "error"
	FragmentDone    FragmentType = "done"
)

// Fragment is one typed increment of a streamed response.
type Fragment struct {
	// Type discriminates the payload.
	Type FragmentType `json:"type"`

	// Content carries text for chunk, answer and error fragments.
	Content string `json:"content,omitempty"`

	// Sources is set on sources and done fragments.
	Sources []domain.Source `json:"sources,omitempty"`

	// Intent is set on intent fragments.
	Intent *domain.Intent `json:"intent,omitempty"`
}

// ChatService answers questions over the indexed document corpus.
type ChatService interface {
	// Query answers a question, blocking until generation completes.
	Query(ctx context.Context, req QueryRequest) (*QueryResponse, error)

	// StreamQuery answers a question incrementally. The returned channel
	// is closed when the stream ends; cancelling ctx stops fragment
	// production and the underlying model call. The partial text
	// accumulated before cancellation is persisted, and the message is
	// not marked as a completed exchange.
	StreamQuery(ctx context.Context, req QueryRequest) (<-chan Fragment, error)

	// History returns a conversation's persisted messages, oldest first.
	History(ctx context.Context, conversationID string, limit, offset int) ([]domain.Message, error)

	// ClearHistory deletes a conversation's messages.
	ClearHistory(ctx context.Context, conversationID string) error
}
