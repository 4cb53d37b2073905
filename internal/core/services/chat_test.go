package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
	"github.com/agrichat/agrichat/internal/core/ports/driving"
	"github.com/agrichat/agrichat/internal/prompts"
	"github.com/agrichat/agrichat/internal/search"
)

// --- Mock implementations ---

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	hits        []driven.VectorHit
	searchErr   error
	searchCalls int
	lastFilter  map[string]any
	lastTopN    int
}

func (m *mockVectorIndex) Upsert(_ context.Context, _ []domain.Chunk) error { return nil }

func (m *mockVectorIndex) Search(_ context.Context, _ string, topN int, filter map[string]any) ([]driven.VectorHit, error) {
	m.searchCalls++
	m.lastFilter = filter
	m.lastTopN = topN
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	if filter != nil {
		// Exact-match conjunction over the stored metadata.
		var matched []driven.VectorHit
		for _, hit := range m.hits {
			ok := true
			for k, v := range filter {
				if hit.Metadata[k] != v {
					ok = false
					break
				}
			}
			if ok {
				matched = append(matched, hit)
			}
		}
		return matched, nil
	}
	return m.hits, nil
}

func (m *mockVectorIndex) DeleteByMetadata(_ context.Context, _ map[string]any) error { return nil }

func (m *mockVectorIndex) Count(_ context.Context) (int, error) { return len(m.hits), nil }

func (m *mockVectorIndex) Close() error { return nil }

// mockChatRepo implements driven.ChatRepository for testing.
type mockChatRepo struct {
	saved      []domain.Message
	saveErr    error
	history    []driven.HistoryEntry
	historyErr error
}

func (m *mockChatRepo) GetRecentHistory(_ context.Context, _ string, limit int) ([]driven.HistoryEntry, error) {
	if m.historyErr != nil {
		return nil, m.historyErr
	}
	if limit > len(m.history) {
		return m.history, nil
	}
	return m.history[len(m.history)-limit:], nil
}

func (m *mockChatRepo) SaveMessage(_ context.Context, msg domain.Message) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, msg)
	return nil
}

func (m *mockChatRepo) GetMessages(_ context.Context, _ string, _, _ int) ([]domain.Message, error) {
	return m.saved, nil
}

func (m *mockChatRepo) ClearHistory(_ context.Context, _ string) error {
	m.saved = nil
	return nil
}

// hangingStreamLLM streams one delta and then blocks until the caller
// cancels, simulating a model that never finishes on its own.
type hangingStreamLLM struct {
	mockLLM
	first string
}

func (m *hangingStreamLLM) StreamChat(ctx context.Context, _ []driven.ChatMessage, _ driven.ChatOptions) (<-chan driven.StreamDelta, error) {
	out := make(chan driven.StreamDelta)
	go func() {
		defer close(out)
		select {
		case out <- driven.StreamDelta{Content: m.first}:
		case <-ctx.Done():
			return
		}
		<-ctx.Done()
	}()
	return out, nil
}

func newTestChatService(t *testing.T, llm driven.LLMService, index driven.VectorIndex, repo driven.ChatRepository) *ChatService {
	t.Helper()

	// A nil classifier model routes every query through the rule
	// engine, which keeps these tests deterministic.
	classifier := NewIntentClassifier(nil)
	rag, err := NewRAGEngine(llm, GenerationConfig{Temperature: 0.7, Streaming: true})
	require.NoError(t, err)
	hybrid, err := search.NewEngine(0.5, 0.5)
	require.NoError(t, err)

	svc, err := NewChatService(classifier, rag, index, hybrid, repo, DefaultChatConfig())
	require.NoError(t, err)
	return svc
}

// --- Tests ---

func TestChatConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultChatConfig().Validate())
	assert.ErrorIs(t, ChatConfig{DefaultK: 0, MaxK: 20, HistoryLimit: 10}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, ChatConfig{DefaultK: 5, MaxK: 21, HistoryLimit: 10}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, ChatConfig{DefaultK: 6, MaxK: 5, HistoryLimit: 10}.Validate(), domain.ErrInvalidInput)
	assert.ErrorIs(t, ChatConfig{DefaultK: 5, MaxK: 20, HistoryLimit: 0}.Validate(), domain.ErrInvalidInput)
}

func TestNewChatService_RequiresCollaborators(t *testing.T) {
	hybrid, err := search.NewEngine(0.5, 0.5)
	require.NoError(t, err)
	rag, err := NewRAGEngine(&mockLLM{}, GenerationConfig{Temperature: 0.7})
	require.NoError(t, err)

	_, err = NewChatService(nil, rag, nil, hybrid, nil, DefaultChatConfig())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewChatService(NewIntentClassifier(nil), nil, nil, hybrid, nil, DefaultChatConfig())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = NewChatService(NewIntentClassifier(nil), rag, nil, nil, nil, DefaultChatConfig())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuery_EmptyQuestion(t *testing.T) {
	svc := newTestChatService(t, &mockLLM{}, nil, nil)

	_, err := svc.Query(context.Background(), driving.QueryRequest{Question: "   "})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQuery_ChitchatSkipsRetrieval(t *testing.T) {
	llm := &mockLLM{reply: "你好！有什麼可以幫您的嗎？"}
	index := &mockVectorIndex{}
	svc := newTestChatService(t, llm, index, nil)

	resp, err := svc.Query(context.Background(), driving.QueryRequest{Question: "你好"})
	require.NoError(t, err)

	assert.Equal(t, domain.IntentChitchat, resp.Intent.Type)
	assert.Equal(t, "你好！有什麼可以幫您的嗎？", resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.Zero(t, resp.ContextCount)
	assert.Zero(t, index.searchCalls)
}

func TestQuery_RAGRetrievesAndCites(t *testing.T) {
	llm := &mockLLM{reply: "農地貸款年息為1.5%。"}
	index := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: "doc1_0", Content: "農地貸款年息1.5%", Metadata: map[string]any{"source": "loans.md", "department": "credit"}, Similarity: 0.9},
		{ChunkID: "doc1_1", Content: "信用部營業時間", Metadata: map[string]any{"source": "hours.md", "department": "credit"}, Similarity: 0.4},
	}}
	svc := newTestChatService(t, llm, index, nil)

	resp, err := svc.Query(context.Background(), driving.QueryRequest{Question: "農地貸款利率是多少"})
	require.NoError(t, err)

	assert.Equal(t, domain.IntentRAG, resp.Intent.Type)
	assert.Equal(t, "農地貸款年息為1.5%。", resp.Answer)
	assert.Equal(t, 2, resp.ContextCount)
	require.NotEmpty(t, resp.Sources)
	assert.Equal(t, 1, index.searchCalls)
	// 貸款 implies the credit department filter.
	assert.Equal(t, map[string]any{"department": "credit"}, index.lastFilter)
}

func TestQuery_FilterRetryWhenEmpty(t *testing.T) {
	llm := &mockLLM{reply: "回答"}
	index := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: "doc1_0", Content: "貸款資訊", Metadata: map[string]any{"source": "a.md"}, Similarity: 0.8},
	}}
	svc := newTestChatService(t, llm, index, nil)

	// The inferred credit filter matches nothing; retrieval retries
	// unfiltered instead of answering from nothing.
	resp, err := svc.Query(context.Background(), driving.QueryRequest{Question: "貸款怎麼申請"})
	require.NoError(t, err)

	assert.Equal(t, 2, index.searchCalls)
	assert.Equal(t, 1, resp.ContextCount)
}

func TestQuery_OutOfScopeFixedMessage(t *testing.T) {
	llm := &mockLLM{reply: "should never be used"}
	svc := newTestChatService(t, llm, nil, nil)

	resp, err := svc.Query(context.Background(), driving.QueryRequest{Question: "推薦幾支股票"})
	require.NoError(t, err)

	assert.Equal(t, domain.IntentOutOfScope, resp.Intent.Type)
	assert.Equal(t, prompts.OutOfScope, resp.Answer)
	assert.Empty(t, resp.Sources)
	assert.Zero(t, llm.chatCalls)
}

func TestQuery_KClamping(t *testing.T) {
	llm := &mockLLM{reply: "回答"}
	index := &mockVectorIndex{}
	svc := newTestChatService(t, llm, index, nil)

	// Zero K means the default; the candidate fetch is twice the depth.
	_, err := svc.Query(context.Background(), driving.QueryRequest{Question: "肥料共同採購時間"})
	require.NoError(t, err)
	assert.Equal(t, 10, index.lastTopN)

	// Oversized K is capped at MaxK.
	_, err = svc.Query(context.Background(), driving.QueryRequest{Question: "肥料共同採購時間", K: 100})
	require.NoError(t, err)
	assert.Equal(t, 40, index.lastTopN)
}

func TestQuery_VectorSearchFailureDegrades(t *testing.T) {
	llm := &mockLLM{reply: "目前查無相關資料。"}
	index := &mockVectorIndex{searchErr: errors.New("connection refused")}
	svc := newTestChatService(t, llm, index, nil)

	resp, err := svc.Query(context.Background(), driving.QueryRequest{Question: "農機補助方案"})
	require.NoError(t, err)

	assert.Zero(t, resp.ContextCount)
	assert.Equal(t, "目前查無相關資料。", resp.Answer)
}

func TestQuery_PersistsExchange(t *testing.T) {
	llm := &mockLLM{reply: "回答"}
	repo := &mockChatRepo{}
	svc := newTestChatService(t, llm, nil, repo)

	_, err := svc.Query(context.Background(), driving.QueryRequest{Question: "農保資格", ConversationID: "conv-1"})
	require.NoError(t, err)

	require.Len(t, repo.saved, 2)
	assert.Equal(t, domain.RoleUser, repo.saved[0].Role)
	assert.Equal(t, "農保資格", repo.saved[0].Content)
	assert.Equal(t, domain.RoleAssistant, repo.saved[1].Role)
	assert.Equal(t, "回答", repo.saved[1].Content)
	require.NotNil(t, repo.saved[1].Intent)
	assert.Equal(t, domain.IntentRAG, repo.saved[1].Intent.Type)

	// Message ids are random, so history ordering relies on the
	// assistant timestamp being strictly later.
	assert.True(t, repo.saved[1].CreatedAt.After(repo.saved[0].CreatedAt))
}

func TestQuery_PersistenceFailureNonFatal(t *testing.T) {
	llm := &mockLLM{reply: "回答"}
	repo := &mockChatRepo{saveErr: errors.New("disk full")}
	svc := newTestChatService(t, llm, nil, repo)

	resp, err := svc.Query(context.Background(), driving.QueryRequest{Question: "農保資格", ConversationID: "conv-1"})
	require.NoError(t, err)
	assert.Equal(t, "回答", resp.Answer)
}

func TestQuery_NoPersistenceWithoutConversation(t *testing.T) {
	llm := &mockLLM{reply: "回答"}
	repo := &mockChatRepo{}
	svc := newTestChatService(t, llm, nil, repo)

	_, err := svc.Query(context.Background(), driving.QueryRequest{Question: "農保資格"})
	require.NoError(t, err)
	assert.Empty(t, repo.saved)
}

func TestStreamQuery_FragmentProtocol(t *testing.T) {
	llm := &mockLLM{deltas: []driven.StreamDelta{
		{Content: "年息"},
		{Content: "1.5%"},
	}}
	index := &mockVectorIndex{hits: []driven.VectorHit{
		{ChunkID: "doc1_0", Content: "農地貸款年息1.5%", Metadata: map[string]any{"source": "loans.md", "department": "credit"}, Similarity: 0.9},
	}}
	repo := &mockChatRepo{}
	svc := newTestChatService(t, llm, index, repo)

	stream, err := svc.StreamQuery(context.Background(), driving.QueryRequest{Question: "農地貸款利率", ConversationID: "conv-1"})
	require.NoError(t, err)

	var fragments []driving.Fragment
	for frag := range stream {
		fragments = append(fragments, frag)
	}

	require.Len(t, fragments, 5)
	assert.Equal(t, driving.FragmentIntent, fragments[0].Type)
	require.NotNil(t, fragments[0].Intent)
	assert.Equal(t, domain.IntentRAG, fragments[0].Intent.Type)
	assert.Equal(t, driving.FragmentSources, fragments[1].Type)
	require.Len(t, fragments[1].Sources, 1)
	assert.Equal(t, driving.FragmentChunk, fragments[2].Type)
	assert.Equal(t, driving.FragmentChunk, fragments[3].Type)
	assert.Equal(t, driving.FragmentDone, fragments[4].Type)
	assert.Len(t, fragments[4].Sources, 1)

	// The full accumulated answer is persisted.
	require.Len(t, repo.saved, 2)
	assert.Equal(t, "年息1.5%", repo.saved[1].Content)
}

func TestStreamQuery_OutOfScope(t *testing.T) {
	llm := &mockLLM{}
	svc := newTestChatService(t, llm, nil, nil)

	stream, err := svc.StreamQuery(context.Background(), driving.QueryRequest{Question: "幫我寫一首詩歌"})
	require.NoError(t, err)

	var fragments []driving.Fragment
	for frag := range stream {
		fragments = append(fragments, frag)
	}

	require.Len(t, fragments, 4)
	assert.Equal(t, driving.FragmentIntent, fragments[0].Type)
	assert.Equal(t, driving.FragmentSources, fragments[1].Type)
	assert.Equal(t, driving.FragmentAnswer, fragments[2].Type)
	assert.Equal(t, prompts.OutOfScope, fragments[2].Content)
	assert.Equal(t, driving.FragmentDone, fragments[3].Type)
	assert.Zero(t, llm.chatCalls)
}

func TestStreamQuery_ErrorEndsWithoutDone(t *testing.T) {
	llm := &mockLLM{deltas: []driven.StreamDelta{
		{Content: "部分"},
		{Err: errors.New("stream reset")},
	}}
	repo := &mockChatRepo{}
	svc := newTestChatService(t, llm, nil, repo)

	stream, err := svc.StreamQuery(context.Background(), driving.QueryRequest{Question: "農機補助方案", ConversationID: "conv-1"})
	require.NoError(t, err)

	var fragments []driving.Fragment
	for frag := range stream {
		fragments = append(fragments, frag)
	}

	require.NotEmpty(t, fragments)
	assert.Equal(t, driving.FragmentError, fragments[len(fragments)-1].Type)

	// Partial text is still persisted for audit.
	require.Len(t, repo.saved, 2)
	assert.Equal(t, "部分", repo.saved[1].Content)
}

func TestStreamQuery_CancelStopsStreamAndPersistsPartial(t *testing.T) {
	llm := &hangingStreamLLM{first: "部分"}
	repo := &mockChatRepo{}
	svc := newTestChatService(t, llm, nil, repo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := svc.StreamQuery(ctx, driving.QueryRequest{Question: "農機補助方案", ConversationID: "conv-1"})
	require.NoError(t, err)

	var fragments []driving.Fragment
	for frag := range stream {
		fragments = append(fragments, frag)
		if frag.Type == driving.FragmentChunk {
			cancel()
		}
	}

	for _, frag := range fragments {
		assert.NotEqual(t, driving.FragmentDone, frag.Type)
	}

	// Text accumulated before the cancel is still persisted for audit.
	require.Len(t, repo.saved, 2)
	assert.Equal(t, "部分", repo.saved[1].Content)
}

func TestHistory_UnavailableWithoutRepository(t *testing.T) {
	svc := newTestChatService(t, &mockLLM{}, nil, nil)

	_, err := svc.History(context.Background(), "conv-1", 10, 0)
	assert.ErrorIs(t, err, domain.ErrHistoryUnavailable)

	err = svc.ClearHistory(context.Background(), "conv-1")
	assert.ErrorIs(t, err, domain.ErrHistoryUnavailable)
}
