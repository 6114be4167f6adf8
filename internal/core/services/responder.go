package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
	"github.com/parchment-labs/quarry/internal/core/ports/driving"
	"github.com/parchment-labs/quarry/internal/logger"
)

// Ensure ResponderService implements the interface.
var _ driving.Responder = (*ResponderService)(nil)

// Generation parameters.
const (
	// responseTemperature balances fluency and grounding.
	responseTemperature = 0.7

	// guidanceMaxTokens bounds the processing-guidance variant.
	guidanceMaxTokens = 1024

	// analysisMaxTokens bounds the grounded-analysis variant.
	analysisMaxTokens = 2048

	// excerptLength is how much of the top chunk the templated local
	// answer quotes.
	excerptLength = 300
)

// systemPrompt frames every chat completion.
const systemPrompt = `You are a research assistant for an investment team. ` +
	`Answer using only the provided document context. Cite document titles when you use them.`

// ResponderService generates prose answers for a query over retrieved
// context. The user always receives prose: provider failures degrade
// to a templated local answer built from the retrieved chunks.
type ResponderService struct {
	llm   driven.LLMService
	cache driven.ResponseCache
}

// NewResponderService creates a responder. Both collaborators are
// optional: a nil llm always uses the local template, a nil cache
// disables memoization.
func NewResponderService(llm driven.LLMService, cache driven.ResponseCache) *ResponderService {
	return &ResponderService{llm: llm, cache: cache}
}

// Respond produces an answer grounded in ragCtx. The only returned
// error is context cancellation.
func (s *ResponderService) Respond(ctx context.Context, ragCtx domain.RAGContext) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	prompt, maxTokens := s.buildPrompt(ragCtx)

	if s.cache != nil {
		if cached, ok := s.cache.Get(prompt, ragCtx.Context); ok {
			logger.Debug("responder: cache hit")
			return cached, nil
		}
	}

	answer := s.generate(ctx, prompt, maxTokens, ragCtx)
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if s.cache != nil {
		s.cache.Set(prompt, ragCtx.Context, answer)
	}
	return answer, nil
}

// generate calls the chat-completion provider, degrading to the local
// template on any failure.
func (s *ResponderService) generate(ctx context.Context, prompt string, maxTokens int, ragCtx domain.RAGContext) string {
	if s.llm == nil {
		logger.Debug("responder: no LLM configured, using local template")
		return s.localAnswer(ragCtx)
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}
	answer, err := s.llm.Chat(ctx, messages, driven.ChatOptions{
		MaxTokens:   maxTokens,
		Temperature: responseTemperature,
	})
	if err != nil {
		logger.Warn("responder: chat completion failed, using local template: %v", err)
		return s.localAnswer(ragCtx)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return s.localAnswer(ragCtx)
	}
	return answer
}

// buildPrompt selects the prompt variant: processing guidance when
// retrieval came back empty, a structured analysis request otherwise.
func (s *ResponderService) buildPrompt(ragCtx domain.RAGContext) (prompt string, maxTokens int) {
	if ragCtx.Empty() {
		return s.guidancePrompt(ragCtx), guidanceMaxTokens
	}
	return s.analysisPrompt(ragCtx), analysisMaxTokens
}

// guidancePrompt asks the model to explain that content is still being
// processed and to suggest alternative questions.
func (s *ResponderService) guidancePrompt(ragCtx domain.RAGContext) string {
	var b strings.Builder
	b.WriteString("The user asked: \"")
	b.WriteString(ragCtx.Query)
	b.WriteString("\"\n\n")
	b.WriteString("No relevant document content was found. ")
	if ragCtx.Context != "" {
		b.WriteString("Status: ")
		b.WriteString(ragCtx.Context)
		b.WriteString("\n\n")
	}
	b.WriteString("Briefly explain that their documents may still be processing, ")
	b.WriteString("and suggest two or three alternative questions they could ask ")
	b.WriteString("once processing completes. Do not invent document content.")
	return b.String()
}

// analysisPrompt asks for a structured, citation-bearing answer over
// the retrieved chunks.
func (s *ResponderService) analysisPrompt(ragCtx domain.RAGContext) string {
	var b strings.Builder
	b.WriteString("Question: ")
	b.WriteString(ragCtx.Query)
	b.WriteString("\n\nDocument context:\n\n")
	b.WriteString(ragCtx.Context)
	b.WriteString("\n\nAnswer with these sections:\n")
	b.WriteString("## Analysis\nDirectly answer the question from the context.\n")
	b.WriteString("## Key Points\nBullet the findings that support the analysis.\n")
	b.WriteString("## Recommendations\nInclude only if the context supports actionable advice.\n\n")
	b.WriteString("Cite the document titles you draw from.")
	return b.String()
}

// localAnswer is the templated degradation path: echo what retrieval
// found rather than surface an error.
func (s *ResponderService) localAnswer(ragCtx domain.RAGContext) string {
	if ragCtx.Empty() {
		return fmt.Sprintf(
			"I couldn't find content relevant to %q yet. Your documents may still be "+
				"processing - this usually takes a minute or two. Once processing finishes, "+
				"try asking about a document's key findings, its summary, or specific topics "+
				"you know it covers.", ragCtx.Query)
	}

	top := ragCtx.Results[0]
	excerpt := top.Content
	if runes := []rune(excerpt); len(runes) > excerptLength {
		excerpt = string(runes[:excerptLength]) + "..."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on %q, here is the most relevant passage for your question %q:\n\n%s",
		top.Title, ragCtx.Query, excerpt)
	if extra := len(ragCtx.Results) - 1; extra > 0 {
		fmt.Fprintf(&b, "\n\n%d additional relevant document section(s) matched your query.", extra)
	}
	return b.String()
}
