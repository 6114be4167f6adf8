package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/parchment-labs/quarry/internal/core/domain"
	"github.com/parchment-labs/quarry/internal/core/ports/driven"
)

// Ensure SettingsStore implements the interface.
var _ driven.SettingsStore = (*SettingsStore)(nil)

// Environment overrides, applied after the file is read. They let
// credentials live in the environment (or a .env file) instead of the
// config file.
const (
	EnvOpenAIKey   = "QUARRY_OPENAI_API_KEY"
	EnvGeminiKey   = "QUARRY_GEMINI_API_KEY"
	EnvDBPath      = "QUARRY_DB"
	EnvSupabaseURL = "QUARRY_SUPABASE_URL"
	EnvSupabaseKey = "QUARRY_SUPABASE_KEY"
)

// SettingsStore is a file-based implementation of driven.SettingsStore
// using TOML.
type SettingsStore struct {
	mu       sync.Mutex
	filePath string
}

// fileSettings is the TOML layout of the config file. It mirrors
// domain.Settings but keeps wire tags out of the domain.
type fileSettings struct {
	Database struct {
		Path string `toml:"path,omitempty"`
	} `toml:"database,omitempty"`
	Supabase struct {
		URL string `toml:"url,omitempty"`
		Key string `toml:"key,omitempty"`
	} `toml:"supabase,omitempty"`
	Embedding struct {
		OpenAI providerSection `toml:"openai,omitempty"`
		Gemini providerSection `toml:"gemini,omitempty"`
	} `toml:"embedding,omitempty"`
	LLM struct {
		Provider string          `toml:"provider,omitempty"`
		OpenAI   providerSection `toml:"openai,omitempty"`
		Gemini   providerSection `toml:"gemini,omitempty"`
	} `toml:"llm,omitempty"`
}

type providerSection struct {
	APIKey  string `toml:"api_key,omitempty"`
	Model   string `toml:"model,omitempty"`
	BaseURL string `toml:"base_url,omitempty"`
}

// NewSettingsStore creates a new TOML-based settings store.
// If configPath is empty, defaults to ~/.quarry/config.toml.
func NewSettingsStore(configPath string) (*SettingsStore, error) {
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		configPath = filepath.Join(home, ".quarry", "config.toml")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	return &SettingsStore{filePath: configPath}, nil
}

// Path returns the config file path.
func (s *SettingsStore) Path() string {
	return s.filePath
}

// Load reads settings from the file, starting from defaults and
// applying environment overrides last. A missing file is not an error.
func (s *SettingsStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := domain.DefaultSettings()

	data, err := os.ReadFile(s.filePath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return settings, fmt.Errorf("reading config: %w", err)
	}
	if err == nil {
		var fs fileSettings
		if err := toml.Unmarshal(data, &fs); err != nil {
			return settings, fmt.Errorf("parsing config: %w", err)
		}
		applyFile(&settings, fs)
	}

	applyEnv(&settings)
	return settings, nil
}

// Save persists settings to the file. Environment-sourced values are
// written too; Save is for explicit configuration, not secrets hygiene.
func (s *SettingsStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var fs fileSettings
	fs.Database.Path = settings.Database.Path
	fs.Supabase.URL = settings.Supabase.URL
	fs.Supabase.Key = settings.Supabase.Key
	fs.Embedding.OpenAI = toSection(settings.Embedding.OpenAI)
	fs.Embedding.Gemini = toSection(settings.Embedding.Gemini)
	fs.LLM.Provider = settings.LLM.Provider.String()
	fs.LLM.OpenAI = toSection(settings.LLM.OpenAI)
	fs.LLM.Gemini = toSection(settings.LLM.Gemini)

	data, err := toml.Marshal(fs)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(s.filePath, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// applyFile overlays non-empty file values onto the defaults.
func applyFile(settings *domain.Settings, fs fileSettings) {
	setString(&settings.Database.Path, fs.Database.Path)
	setString(&settings.Supabase.URL, fs.Supabase.URL)
	setString(&settings.Supabase.Key, fs.Supabase.Key)

	applySection(&settings.Embedding.OpenAI, fs.Embedding.OpenAI)
	applySection(&settings.Embedding.Gemini, fs.Embedding.Gemini)

	if p := domain.AIProvider(fs.LLM.Provider); p.IsValid() {
		settings.LLM.Provider = p
	}
	applySection(&settings.LLM.OpenAI, fs.LLM.OpenAI)
	applySection(&settings.LLM.Gemini, fs.LLM.Gemini)
}

// applyEnv overlays environment variables. A single provider key feeds
// both the embedding and LLM endpoints of that provider.
func applyEnv(settings *domain.Settings) {
	if v := os.Getenv(EnvOpenAIKey); v != "" {
		settings.Embedding.OpenAI.APIKey = v
		settings.LLM.OpenAI.APIKey = v
	}
	if v := os.Getenv(EnvGeminiKey); v != "" {
		settings.Embedding.Gemini.APIKey = v
		settings.LLM.Gemini.APIKey = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		settings.Database.Path = v
	}
	if v := os.Getenv(EnvSupabaseURL); v != "" {
		settings.Supabase.URL = v
	}
	if v := os.Getenv(EnvSupabaseKey); v != "" {
		settings.Supabase.Key = v
	}
}

func toSection(src domain.ProviderSettings) providerSection {
	return providerSection{
		APIKey:  src.APIKey,
		Model:   src.Model,
		BaseURL: src.BaseURL,
	}
}

func applySection(dst *domain.ProviderSettings, src providerSection) {
	setString(&dst.APIKey, src.APIKey)
	setString(&dst.Model, src.Model)
	setString(&dst.BaseURL, src.BaseURL)
}

func setString(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}
