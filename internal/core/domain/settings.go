package domain

const unknownDescription = "Unknown"

// AIProvider identifies a remote AI service provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderGemini is the Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOpenAI, AIProviderGemini:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	default:
		return unknownDescription
	}
}

// ProviderSettings configures one remote AI endpoint.
type ProviderSettings struct {
	// APIKey authenticates against the provider. Empty disables it.
	APIKey string

	// Model is the provider-specific model identifier.
	Model string

	// BaseURL overrides the provider's default endpoint.
	BaseURL string
}

// IsConfigured returns true if the endpoint has credentials.
func (p ProviderSettings) IsConfigured() bool {
	return p.APIKey != ""
}

// EmbeddingSettings holds the remote embedding tiers. Both are
// optional; the local embedder is always present as the final tier.
type EmbeddingSettings struct {
	// OpenAI is the primary remote embedding endpoint.
	OpenAI ProviderSettings

	// Gemini is the secondary remote embedding endpoint.
	Gemini ProviderSettings
}

// LLMSettings holds chat-completion configuration.
type LLMSettings struct {
	// Provider selects which configured endpoint generates responses.
	Provider AIProvider

	// OpenAI is the OpenAI chat-completion endpoint.
	OpenAI ProviderSettings

	// Gemini is the Gemini chat-completion endpoint.
	Gemini ProviderSettings
}

// Active returns the selected provider's settings. When the selected
// provider has no credentials, it falls back to any configured one.
func (l LLMSettings) Active() (AIProvider, ProviderSettings) {
	ordered := []AIProvider{l.Provider, AIProviderOpenAI, AIProviderGemini}
	for _, p := range ordered {
		switch p {
		case AIProviderOpenAI:
			if l.OpenAI.IsConfigured() {
				return p, l.OpenAI
			}
		case AIProviderGemini:
			if l.Gemini.IsConfigured() {
				return p, l.Gemini
			}
		}
	}
	return "", ProviderSettings{}
}

// DatabaseSettings holds local datastore configuration.
type DatabaseSettings struct {
	// Path is the SQLite database file location. Empty selects the
	// per-user default.
	Path string
}

// SupabaseSettings holds the remote datastore configuration. When
// configured, the remote store is used instead of the local one.
type SupabaseSettings struct {
	// URL is the project base URL.
	URL string

	// Key is the service or anon API key.
	Key string
}

// IsConfigured returns true if the remote datastore is set up.
func (s SupabaseSettings) IsConfigured() bool {
	return s.URL != "" && s.Key != ""
}

// Settings is the full application configuration. Every credential is
// optional: with none configured the system still indexes and answers
// queries through the local embedding and templated-response paths.
type Settings struct {
	// Database configures the local datastore.
	Database DatabaseSettings

	// Supabase configures the remote datastore.
	Supabase SupabaseSettings

	// Embedding configures the remote embedding tiers.
	Embedding EmbeddingSettings

	// LLM configures response generation.
	LLM LLMSettings
}

// DefaultSettings returns the configuration used before any file or
// environment override is applied.
func DefaultSettings() Settings {
	return Settings{
		Embedding: EmbeddingSettings{
			OpenAI: ProviderSettings{
				Model:   "text-embedding-3-small",
				BaseURL: "https://api.openai.com/v1",
			},
			Gemini: ProviderSettings{
				Model:   "text-embedding-004",
				BaseURL: "https://generativelanguage.googleapis.com",
			},
		},
		LLM: LLMSettings{
			Provider: AIProviderGemini,
			OpenAI: ProviderSettings{
				Model:   "gpt-4o-mini",
				BaseURL: "https://api.openai.com/v1",
			},
			Gemini: ProviderSettings{
				Model:   "gemini-2.0-flash",
				BaseURL: "https://generativelanguage.googleapis.com",
			},
		},
	}
}
