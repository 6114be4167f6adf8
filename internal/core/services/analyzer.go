package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
	"github.com/parchment-labs/quarry/internal/core/ports/driving"
	"github.com/parchment-labs/quarry/internal/llmjson"
	"github.com/parchment-labs/quarry/internal/logger"
)

// Ensure AnalyzerService implements the interface.
var _ driving.Analyzer = (*AnalyzerService)(nil)

// Retry policy for whole-document analysis. Unlike retrieval-backed
// responses, these calls have no useful local fallback, so transient
// provider errors are worth waiting out.
const (
	maxRetries     = 3
	baseRetryDelay = time.Second
)

// analysisInputLimit truncates document text before prompting, keeping
// requests inside provider context windows.
const analysisInputLimit = 12000

// AnalyzerService produces whole-document summaries, analyses, and
// tag suggestions through the chat-completion provider.
type AnalyzerService struct {
	llm driven.LLMService

	// sleep is swapped out by tests to observe backoff without waiting.
	sleep func(time.Duration)
}

// NewAnalyzerService creates an analyzer. A nil llm yields the
// error-shaped fallbacks on every call.
func NewAnalyzerService(llm driven.LLMService) *AnalyzerService {
	return &AnalyzerService{llm: llm, sleep: time.Sleep}
}

// Summarize returns a short prose summary of the document.
func (s *AnalyzerService) Summarize(ctx context.Context, doc *domain.Document) (string, error) {
	if doc == nil {
		return "", domain.ErrInvalidInput
	}
	if s.llm == nil {
		return "", domain.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(
		"Summarise the following document in three to five sentences. "+
			"Focus on findings and conclusions, not structure.\n\nTitle: %s\n\n%s",
		doc.Title, truncate(doc.Content, analysisInputLimit))

	out, err := s.callWithRetry(ctx, prompt, 1024)
	if err != nil {
		return "", fmt.Errorf("summarise %s: %w", doc.ID, err)
	}
	return strings.TrimSpace(out), nil
}

// Analyze returns a structured analysis. Malformed model output or an
// exhausted retry budget yields domain.FallbackAnalysis, never an
// error the caller has to branch on.
func (s *AnalyzerService) Analyze(ctx context.Context, doc *domain.Document) (domain.Analysis, error) {
	if doc == nil {
		return domain.Analysis{}, domain.ErrInvalidInput
	}
	if s.llm == nil {
		return domain.FallbackAnalysis("no analysis provider configured"), nil
	}

	prompt := fmt.Sprintf(
		"Analyse the following document. Respond with ONLY a JSON object of this shape:\n"+
			`{"summary": "...", "keyPoints": ["..."], "tags": ["..."]}`+"\n\n"+
			"Title: %s\n\n%s",
		doc.Title, truncate(doc.Content, analysisInputLimit))

	out, err := s.callWithRetry(ctx, prompt, 2048)
	if err != nil {
		logger.Warn("analyzer: analysis of %s failed: %v", doc.ID, err)
		return domain.FallbackAnalysis(err.Error()), nil
	}

	result := llmjson.Extract(out)
	var analysis domain.Analysis
	if err := result.Decode(&analysis); err != nil {
		logger.Warn("analyzer: malformed analysis for %s: %v (raw: %s)", doc.ID, err, result.Raw)
		return domain.FallbackAnalysis("model returned malformed analysis"), nil
	}

	if analysis.KeyPoints == nil {
		analysis.KeyPoints = []string{}
	}
	if analysis.Tags == nil {
		analysis.Tags = []string{}
	}
	return analysis, nil
}

// SuggestTags proposes classification labels for the document.
func (s *AnalyzerService) SuggestTags(ctx context.Context, doc *domain.Document) ([]string, error) {
	if doc == nil {
		return nil, domain.ErrInvalidInput
	}
	if s.llm == nil {
		return nil, domain.ErrLLMUnavailable
	}

	prompt := fmt.Sprintf(
		"Suggest up to five short classification tags for this document. "+
			"Respond with ONLY a JSON array of strings.\n\nTitle: %s\n\n%s",
		doc.Title, truncate(doc.Content, analysisInputLimit))

	out, err := s.callWithRetry(ctx, prompt, 256)
	if err != nil {
		return nil, fmt.Errorf("suggest tags for %s: %w", doc.ID, err)
	}

	result := llmjson.Extract(out)
	var tags []string
	if err := result.Decode(&tags); err != nil {
		logger.Warn("analyzer: malformed tags for %s: %v (raw: %s)", doc.ID, err, result.Raw)
		return []string{}, nil
	}
	return tags, nil
}

// callWithRetry issues one chat completion, retrying with exponential
// backoff (1s, 2s, 4s) on transient provider errors only. All other
// errors are raised immediately.
func (s *AnalyzerService) callWithRetry(ctx context.Context, prompt string, maxTokens int) (string, error) {
	messages := []driven.ChatMessage{{Role: "user", Content: prompt}}
	opts := driven.ChatOptions{MaxTokens: maxTokens, Temperature: 0.3}

	delay := baseRetryDelay
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			logger.Debug("analyzer: retry %d after %s", attempt, delay)
			s.sleep(delay)
			delay *= 2
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}

		out, err := s.llm.Chat(ctx, messages, opts)
		if err == nil {
			return out, nil
		}
		lastErr = err

		pe, ok := domain.AsProviderError(err)
		if !ok || !pe.Retryable() {
			return "", err
		}
		logger.Warn("analyzer: transient provider error (attempt %d): %v", attempt+1, err)
	}

	return "", fmt.Errorf("%w: %w", domain.ErrProviderUnavailable, lastErr)
}

// truncate limits text to n runes.
func truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}
