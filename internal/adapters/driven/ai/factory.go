// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"fmt"

	geminiembed "github.com/agrichat/agrichat/internal/adapters/driven/embedding/gemini"
	openaiembed "github.com/agrichat/agrichat/internal/adapters/driven/embedding/openai"
	geminillm "github.com/agrichat/agrichat/internal/adapters/driven/llm/gemini"
	openaillm "github.com/agrichat/agrichat/internal/adapters/driven/llm/openai"
	"github.com/agrichat/agrichat/internal/core/domain"
	"github.com/agrichat/agrichat/internal/core/ports/driven"
)

// CreateEmbeddingService creates the appropriate embedding service based on settings.
func CreateEmbeddingService(settings domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("%w: embedding provider not configured", domain.ErrEmbeddingUnavailable)
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        settings.Dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	case domain.AIProviderGemini:
		return geminiembed.NewEmbeddingService(geminiembed.Config{
			APIKey:            settings.APIKey,
			BaseURL:           settings.BaseURL,
			Model:             settings.Model,
			Dimensions:        settings.Dimensions,
			RequestsPerSecond: settings.RequestsPerSecond,
		})

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
func CreateLLMService(settings domain.LLMSettings) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, fmt.Errorf("LLM provider not configured")
	}

	switch settings.Provider {
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		return geminillm.NewLLMService(geminillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}
