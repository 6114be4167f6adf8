// Package ai assembles the embedding chain and LLM service from
// application settings.
package ai

import (
	"context"
	"fmt"
	"time"

	geminiembed "github.com/parchment-labs/quarry/internal/adapters/driven/embedding/gemini"
	"github.com/parchment-labs/quarry/internal/adapters/driven/embedding/local"
	openaiembed "github.com/parchment-labs/quarry/internal/adapters/driven/embedding/openai"
	geminillm "github.com/parchment-labs/quarry/internal/adapters/driven/llm/gemini"
	openaillm "github.com/parchment-labs/quarry/internal/adapters/driven/llm/openai"
	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
	"github.com/parchment-labs/quarry/internal/core/services"
	"github.com/parchment-labs/quarry/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// BuildEmbeddingChain creates the ordered embedding tiers from
// settings: OpenAI when configured, then Gemini when configured, then
// the local hash embedder. The chain is never empty, so indexing works
// with zero credentials.
func BuildEmbeddingChain(settings domain.EmbeddingSettings) (*services.EmbeddingChain, error) {
	var tiers []driven.EmbeddingService

	if settings.OpenAI.IsConfigured() {
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:  settings.OpenAI.APIKey,
			BaseURL: settings.OpenAI.BaseURL,
			Model:   settings.OpenAI.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedding: %w", err)
		}
		tiers = append(tiers, svc)
	}

	if settings.Gemini.IsConfigured() {
		svc, err := geminiembed.NewEmbeddingService(geminiembed.Config{
			APIKey:  settings.Gemini.APIKey,
			BaseURL: settings.Gemini.BaseURL,
			Model:   settings.Gemini.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini embedding: %w", err)
		}
		tiers = append(tiers, svc)
	}

	tiers = append(tiers, local.New())
	return services.NewEmbeddingChain(tiers...), nil
}

// CreateLLMService creates the active chat-completion service from
// settings. Returns nil when no provider has credentials; callers
// treat a nil service as "degrade to templated responses".
func CreateLLMService(settings domain.LLMSettings) (driven.LLMService, error) {
	provider, cfg := settings.Active()

	switch provider {
	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	case domain.AIProviderGemini:
		return geminillm.NewLLMService(geminillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})
	default:
		return nil, nil
	}
}

// CreateAndValidateLLMService creates the active LLM service and
// checks connectivity. An unreachable provider is logged and dropped
// rather than surfaced: response generation always has the templated
// fallback behind it.
func CreateAndValidateLLMService(settings domain.LLMSettings) driven.LLMService {
	svc, err := CreateLLMService(settings)
	if err != nil {
		logger.Warn("LLM service unavailable: %v", err)
		return nil
	}
	if svc == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		logger.Warn("LLM service unreachable, using templated responses: %v", err)
		svc.Close()
		return nil
	}
	return svc
}
