package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDocumentNotFound indicates the referenced document does not exist.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrNoChunks indicates a document has no indexed chunks.
	ErrNoChunks = errors.New("no chunks indexed for document")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidScope indicates an unrecognised or incomplete search scope.
	ErrInvalidScope = errors.New("invalid search scope")

	// ErrUnsupportedType indicates an unknown normaliser content type.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrProviderUnavailable indicates a remote AI provider could not be
	// reached or kept failing through all retries. Callers resolve it by
	// falling to the next tier, never by surfacing it to the user.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrEmbeddingUnavailable indicates no embedding provider could
	// produce a vector. With the local tier in the chain this should
	// never be observed outside tests.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrLLMUnavailable indicates the chat-completion service is not
	// configured. Response generation degrades to the local template.
	ErrLLMUnavailable = errors.New("LLM service unavailable")
)

// ProviderError carries the HTTP outcome of a failed remote AI call so
// retry policy can classify it without string matching. Status 0 means
// the request never got a response (network failure).
type ProviderError struct {
	// Provider names the failing service ("openai", "gemini", ...).
	Provider string

	// Status is the HTTP status code, or 0 for transport errors.
	Status int

	// Message is the provider's error text, if any.
	Message string

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: status %d: %s", e.Provider, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Provider, e.Status)
}

// Unwrap exposes the underlying transport error to errors.Is/As.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is transient: rate limiting
// (429), overload (503), or a transport-level failure that never
// reached the server.
func (e *ProviderError) Retryable() bool {
	return e.Status == 429 || e.Status == 503 || e.Status == 0
}

// AsProviderError unwraps err to a ProviderError if one is in the chain.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
