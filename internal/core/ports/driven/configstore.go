package driven

import "github.com/parchment-labs/quarry/internal/core/domain"

// SettingsStore loads and persists application settings.
type SettingsStore interface {
	// Load reads settings, applying defaults for anything unset.
	// A missing settings file is not an error.
	Load() (domain.Settings, error)

	// Save persists settings.
	Save(settings domain.Settings) error
}
