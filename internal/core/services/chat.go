// Package services contains the core query-time pipeline: intent
// classification, hybrid retrieval, answer generation, and the chat
// orchestration that sequences them, plus the document ingestion
// service that populates the index retrieval depends on.
package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
	"github.com/agrichat/agrichat/internal/core/ports/driving"
	"github.com/agrichat/agrichat/internal/logger"
	"github.com/agrichat/agrichat/internal/prompts"
	"github.com/agrichat/agrichat/internal/search"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatConfig bounds the orchestrator parameters.
type ChatConfig struct {
	// DefaultK is the retrieval depth when a request leaves K zero.
	DefaultK int

	// MaxK caps the caller-supplied retrieval depth.
	MaxK int

	// HistoryLimit is how many recent messages feed the prompt.
	HistoryLimit int
}

// Validate checks the configuration bounds.
func (c ChatConfig) Validate() error {
	if c.DefaultK < 1 || c.DefaultK > c.MaxK {
		return fmt.Errorf("%w: default k %d outside [1,%d]", domain.ErrInvalidInput, c.DefaultK, c.MaxK)
	}
	if c.MaxK < 1 || c.MaxK > 20 {
		return fmt.Errorf("%w: max k %d outside [1,20]", domain.ErrInvalidInput, c.MaxK)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("%w: history limit must be positive", domain.ErrInvalidInput)
	}
	return nil
}

// DefaultChatConfig returns the standard orchestrator bounds.
func DefaultChatConfig() ChatConfig {
	return ChatConfig{DefaultK: 5, MaxK: 20, HistoryLimit: 10}
}

// ChatService sequences the query pipeline: classify intent, then either
// retrieve-and-generate, chitchat, or return the fixed out-of-scope
// message. All collaborators are injected at construction.
type ChatService struct {
	classifier *IntentClassifier
	rag        *RAGEngine
	index      driven.VectorIndex
	hybrid     *search.Engine
	repo       driven.ChatRepository
	cfg        ChatConfig
}

// NewChatService creates the orchestrator. The repository is optional:
// when nil, exchanges are simply not persisted. The vector index is
// optional too; without it every RAG query degrades to empty context.
func NewChatService(
	classifier *IntentClassifier,
	rag *RAGEngine,
	index driven.VectorIndex,
	hybrid *search.Engine,
	repo driven.ChatRepository,
	cfg ChatConfig,
) (*ChatService, error) {
	if classifier == nil || rag == nil || hybrid == nil {
		return nil, fmt.Errorf("%w: chat service requires classifier, rag engine and hybrid engine", domain.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ChatService{
		classifier: classifier,
		rag:        rag,
		index:      index,
		hybrid:     hybrid,
		repo:       repo,
		cfg:        cfg,
	}, nil
}

// Query answers a question, blocking until generation completes.
func (s *ChatService) Query(ctx context.Context, req driving.QueryRequest) (*driving.QueryResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	logger.Section("Query Execution")
	logger.Debug("Question: %q", question)

	intent := s.classifier.Classify(ctx, question)
	logger.Info("Intent: %s (confidence %.2f)", intent.Type, intent.Confidence)

	history := s.loadHistory(ctx, req.ConversationID)

	var (
		answer  string
		sources []domain.Source
		items   []domain.ContextItem
		err     error
	)

	switch intent.Type {
	case domain.IntentOutOfScope:
		answer = prompts.OutOfScope
		sources = []domain.Source{}

	case domain.IntentChitchat:
		answer, err = s.rag.Chitchat(ctx, question, history)
		if err != nil {
			return nil, err
		}
		sources = []domain.Source{}

	default:
		items = s.retrieve(ctx, question, s.clampK(req.K))
		answer, sources, err = s.rag.Answer(ctx, question, history, items)
		if err != nil {
			return nil, err
		}
	}

	s.persistExchange(ctx, req.ConversationID, question, answer, sources, intent)

	return &driving.QueryResponse{
		Answer:       answer,
		Sources:      sources,
		ContextCount: len(items),
		Intent:       intent,
	}, nil
}

// StreamQuery answers a question as a stream of typed fragments.
// Cancelling ctx stops fragment production and the underlying model
// call; whatever text accumulated before cancellation is persisted and
// no done fragment is emitted.
func (s *ChatService) StreamQuery(ctx context.Context, req driving.QueryRequest) (<-chan driving.Fragment, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}

	out := make(chan driving.Fragment)

	go func() {
		defer close(out)

		intent := s.classifier.Classify(ctx, question)
		if !emit(ctx, out, driving.Fragment{Type: driving.FragmentIntent, Intent: &intent}) {
			return
		}

		history := s.loadHistory(ctx, req.ConversationID)

		var (
			full      strings.Builder
			sources   = []domain.Source{}
			completed bool
		)

		if intent.Type == domain.IntentOutOfScope {
			if !emit(ctx, out, driving.Fragment{Type: driving.FragmentSources, Sources: sources}) {
				return
			}
			full.WriteString(prompts.OutOfScope)
			completed = emit(ctx, out, driving.Fragment{Type: driving.FragmentAnswer, Content: prompts.OutOfScope})
		} else {
			var inner <-chan driving.Fragment
			if intent.Type == domain.IntentChitchat {
				inner = s.rag.StreamChitchat(ctx, question, history)
			} else {
				items := s.retrieve(ctx, question, s.clampK(req.K))
				inner = s.rag.StreamAnswer(ctx, question, history, items)
			}

			completed = true
			for frag := range inner {
				switch frag.Type {
				case driving.FragmentSources:
					sources = frag.Sources
				case driving.FragmentChunk, driving.FragmentAnswer:
					full.WriteString(frag.Content)
				case driving.FragmentError:
					completed = false
				}
				if !emit(ctx, out, frag) {
					completed = false
					break
				}
				if frag.Type == driving.FragmentError {
					break
				}
			}
			if ctx.Err() != nil {
				completed = false
			}
		}

		// The accumulated text is persisted as-is for audit, even when
		// the stream was cancelled or failed partway.
		s.persistExchange(context.WithoutCancel(ctx), req.ConversationID, question, full.String(), sources, intent)

		if completed {
			emit(ctx, out, driving.Fragment{Type: driving.FragmentDone, Sources: sources})
		}
	}()

	return out, nil
}

// History returns a conversation's persisted messages, oldest first.
func (s *ChatService) History(ctx context.Context, conversationID string, limit, offset int) ([]domain.Message, error) {
	if s.repo == nil {
		return nil, domain.ErrHistoryUnavailable
	}
	return s.repo.GetMessages(ctx, conversationID, limit, offset)
}

// ClearHistory deletes a conversation's messages.
func (s *ChatService) ClearHistory(ctx context.Context, conversationID string) error {
	if s.repo == nil {
		return domain.ErrHistoryUnavailable
	}
	return s.repo.ClearHistory(ctx, conversationID)
}

// retrieve runs vector search plus hybrid fusion. Retrieval failures
// degrade to empty context rather than failing the query: availability
// over completeness.
func (s *ChatService) retrieve(ctx context.Context, question string, k int) []domain.ContextItem {
	if s.index == nil {
		logger.Warn("Vector index not configured, answering with empty context")
		return nil
	}

	var filter map[string]any
	if f := ExtractMetadataFilter(question); len(f) > 0 {
		filter = f
		logger.Debug("Metadata filter: %v", filter)
	}

	// Fetch a wider candidate set than k so lexical rescoring has
	// something to reorder.
	fetch := k * 2
	if fetch > s.cfg.MaxK*2 {
		fetch = s.cfg.MaxK * 2
	}

	hits, err := s.index.Search(ctx, question, fetch, filter)
	if err != nil {
		logger.Warn("Vector search failed: %v (degrading to empty context)", err)
		return nil
	}
	if len(hits) == 0 && filter != nil {
		// A filter inferred from the query may be too narrow; retry
		// unfiltered before giving up.
		hits, err = s.index.Search(ctx, question, fetch, nil)
		if err != nil {
			logger.Warn("Vector search failed: %v (degrading to empty context)", err)
			return nil
		}
	}

	candidates := make([]search.Candidate, len(hits))
	vectorScores := make([]float64, len(hits))
	for i, hit := range hits {
		candidates[i] = search.Candidate{Content: hit.Content, Metadata: hit.Metadata}
		vectorScores[i] = hit.Similarity
	}

	items, err := s.hybrid.Search(question, candidates, vectorScores, k)
	if err != nil {
		logger.Warn("Hybrid fusion failed: %v (degrading to empty context)", err)
		return nil
	}

	logger.Debug("Retrieved %d context items", len(items))
	return items
}

// clampK bounds the caller-supplied retrieval depth.
func (s *ChatService) clampK(k int) int {
	if k <= 0 {
		return s.cfg.DefaultK
	}
	if k > s.cfg.MaxK {
		return s.cfg.MaxK
	}
	return k
}

// loadHistory fetches and formats recent conversation history. Failures
// degrade to an empty history, logged but never surfaced.
func (s *ChatService) loadHistory(ctx context.Context, conversationID string) string {
	if s.repo == nil || conversationID == "" {
		return ""
	}

	entries, err := s.repo.GetRecentHistory(ctx, conversationID, s.cfg.HistoryLimit)
	if err != nil {
		logger.Warn("Loading history for %s failed: %v", conversationID, err)
		return ""
	}
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n【歷史對話】\n")
	for _, e := range entries {
		prefix := "AI"
		if e.Role == domain.RoleUser {
			prefix = "用戶"
		}
		fmt.Fprintf(&b, "%s: %s\n", prefix, e.Content)
	}
	b.WriteString("\n")
	return b.String()
}

// persistExchange saves the user and assistant messages. This is
// fire-and-forget bookkeeping: failures are logged and the response
// still reaches the caller.
func (s *ChatService) persistExchange(ctx context.Context, conversationID, question, answer string, sources []domain.Source, intent domain.Intent) {
	if s.repo == nil || conversationID == "" {
		return
	}

	now := time.Now()
	userMsg := domain.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           domain.RoleUser,
		Content:        question,
		CreatedAt:      now,
	}
	if err := s.repo.SaveMessage(ctx, userMsg); err != nil {
		logger.Warn("Saving user message failed: %v", err)
		return
	}

	// History queries order by created_at and ids are random, so the
	// assistant message must carry a strictly later timestamp to keep
	// the exchange in role order.
	assistantMsg := domain.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           domain.RoleAssistant,
		Content:        answer,
		Sources:        sources,
		Intent:         &intent,
		CreatedAt:      now.Add(time.Millisecond),
	}
	if err := s.repo.SaveMessage(ctx, assistantMsg); err != nil {
		logger.Warn("Saving assistant message failed: %v", err)
	}
}
