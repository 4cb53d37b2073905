package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
	"github.com/agrichat/agrichat/internal/core/ports/driving"
	"github.com/agrichat/agrichat/internal/prompts"
)

// GenerationConfig bounds the answer generation parameters.
type GenerationConfig struct {
	// Temperature controls generation randomness, bounded [0,1].
	Temperature float64

	// MaxTokens is the generation length cap.
	MaxTokens int

	// Streaming enables incremental generation. When disabled,
	// StreamAnswer yields a sources fragment followed by one complete
	// answer fragment.
	Streaming bool
}

// Validate checks the configuration bounds.
func (c GenerationConfig) Validate() error {
	if c.Temperature < 0.0 || c.Temperature > 1.0 {
		return fmt.Errorf("%w: temperature %.2f outside [0,1]", domain.ErrInvalidInput, c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("%w: max tokens cannot be negative", domain.ErrInvalidInput)
	}
	return nil
}

// RAGEngine assembles retrieved context and conversation history into a
// prompt and generates an answer, blocking or incrementally streamed.
//
// The engine is stateless across calls except for the generation
// temperature, which may be adjusted administratively at runtime.
type RAGEngine struct {
	llm driven.LLMService

	mu          sync.RWMutex
	temperature float64
	maxTokens   int
	streaming   bool
}

// NewRAGEngine creates the answer generator. Fails fast on out-of-range
// configuration.
func NewRAGEngine(llm driven.LLMService, cfg GenerationConfig) (*RAGEngine, error) {
	if llm == nil {
		return nil, fmt.Errorf("%w: rag engine requires an LLM service", domain.ErrInvalidInput)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 2000
	}
	return &RAGEngine{
		llm:         llm,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		streaming:   cfg.Streaming,
	}, nil
}

// SetTemperature adjusts the generation temperature at runtime.
// Out-of-range input is rejected.
func (e *RAGEngine) SetTemperature(t float64) error {
	if t < 0.0 || t > 1.0 {
		return fmt.Errorf("%w: temperature %.2f outside [0,1]", domain.ErrInvalidInput, t)
	}
	e.mu.Lock()
	e.temperature = t
	e.mu.Unlock()
	return nil
}

// Temperature returns the current generation temperature.
func (e *RAGEngine) Temperature() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.temperature
}

func (e *RAGEngine) chatOptions() driven.ChatOptions {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return driven.ChatOptions{Temperature: e.temperature, MaxTokens: e.maxTokens}
}

func (e *RAGEngine) streamingEnabled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.streaming
}

// Answer generates a grounded reply from the retrieved context,
// blocking until generation completes. Generation failures are terminal
// for the query and are never retried here.
func (e *RAGEngine) Answer(ctx context.Context, question, history string, items []domain.ContextItem) (string, []domain.Source, error) {
	messages := []driven.ChatMessage{
		{Role: "system", Content: prompts.RAGSystem},
		{Role: "user", Content: prompts.FormatRAGHuman(FormatContext(items), history, question)},
	}

	answer, err := e.llm.Chat(ctx, messages, e.chatOptions())
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	return answer, BuildSources(items), nil
}

// Chitchat generates a brief conversational reply from history alone.
func (e *RAGEngine) Chitchat(ctx context.Context, question, history string) (string, error) {
	messages := []driven.ChatMessage{
		{Role: "system", Content: prompts.ChitchatSystem},
		{Role: "user", Content: prompts.FormatChitchatHuman(history, question)},
	}

	answer, err := e.llm.Chat(ctx, messages, e.chatOptions())
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrGenerationFailed, err)
	}
	return answer, nil
}

// StreamAnswer generates a grounded reply incrementally. The first
// fragment always carries the sources so a client can render citations
// before generation begins; chunk fragments follow until the model
// finishes. When streaming is disabled the stream yields the sources
// fragment and then one complete answer fragment. The channel closes
// when the stream ends or ctx is cancelled.
func (e *RAGEngine) StreamAnswer(ctx context.Context, question, history string, items []domain.ContextItem) <-chan driving.Fragment {
	messages := []driven.ChatMessage{
		{Role: "system", Content: prompts.RAGSystem},
		{Role: "user", Content: prompts.FormatRAGHuman(FormatContext(items), history, question)},
	}
	return e.stream(ctx, messages, BuildSources(items))
}

// StreamChitchat generates a conversational reply incrementally.
// Chitchat has no retrieval, so the sources fragment carries an empty
// list; both stream shapes stay uniform for the caller.
func (e *RAGEngine) StreamChitchat(ctx context.Context, question, history string) <-chan driving.Fragment {
	messages := []driven.ChatMessage{
		{Role: "system", Content: prompts.ChitchatSystem},
		{Role: "user", Content: prompts.FormatChitchatHuman(history, question)},
	}
	return e.stream(ctx, messages, []domain.Source{})
}

func (e *RAGEngine) stream(ctx context.Context, messages []driven.ChatMessage, sources []domain.Source) <-chan driving.Fragment {
	out := make(chan driving.Fragment)

	go func() {
		defer close(out)

		if !emit(ctx, out, driving.Fragment{Type: driving.FragmentSources, Sources: sources}) {
			return
		}

		if !e.streamingEnabled() {
			answer, err := e.llm.Chat(ctx, messages, e.chatOptions())
			if err != nil {
				emit(ctx, out, driving.Fragment{Type: driving.FragmentError, Content: domain.ErrGenerationFailed.Error()})
				return
			}
			emit(ctx, out, driving.Fragment{Type: driving.FragmentAnswer, Content: answer})
			return
		}

		deltas, err := e.llm.StreamChat(ctx, messages, e.chatOptions())
		if err != nil {
			emit(ctx, out, driving.Fragment{Type: driving.FragmentError, Content: domain.ErrGenerationFailed.Error()})
			return
		}

		for delta := range deltas {
			if delta.Err != nil {
				emit(ctx, out, driving.Fragment{Type: driving.FragmentError, Content: domain.ErrGenerationFailed.Error()})
				return
			}
			if delta.Content == "" {
				continue
			}
			if !emit(ctx, out, driving.Fragment{Type: driving.FragmentChunk, Content: delta.Content}) {
				return
			}
		}
	}()

	return out
}

// emit sends a fragment unless the context is cancelled. Returns false
// when the consumer is gone.
func emit(ctx context.Context, out chan<- driving.Fragment, frag driving.Fragment) bool {
	select {
	case out <- frag:
		return true
	case <-ctx.Done():
		return false
	}
}

// FormatContext renders retrieved items into the context block the
// grounded QA prompt expects. Each item carries an explicit source label
// and department tag before its text, and items are joined with a
// visible separator. This layout is a structural contract the prompt
// depends on, not cosmetics.
func FormatContext(items []domain.ContextItem) string {
	if len(items) == 0 {
		return prompts.EmptyContext
	}

	parts := make([]string, 0, len(items))
	for i, item := range items {
		var b strings.Builder
		fmt.Fprintf(&b, "【資料 %d】", i+1)
		if source := metadataString(item.Metadata, "source"); source != "" {
			fmt.Fprintf(&b, "\n來源：%s", source)
		}
		if dept := metadataString(item.Metadata, "department"); dept != "" {
			fmt.Fprintf(&b, "\n部門：%s", dept)
		}
		fmt.Fprintf(&b, "\n內容：\n%s\n", item.Content)
		parts = append(parts, b.String())
	}

	return strings.Join(parts, "\n---\n")
}

// BuildSources packages retrieved items as citations with bounded
// content previews.
func BuildSources(items []domain.ContextItem) []domain.Source {
	sources := make([]domain.Source, 0, len(items))
	for _, item := range items {
		source := metadataString(item.Metadata, "source")
		if source == "" {
			source = "unknown"
		}
		sources = append(sources, domain.Source{
			Source:     source,
			Department: metadataString(item.Metadata, "department"),
			Content:    preview(item.Content, domain.SourcePreviewLen),
		})
	}
	return sources
}

func metadataString(metadata map[string]any, key string) string {
	if metadata == nil {
		return ""
	}
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}

func preview(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}
