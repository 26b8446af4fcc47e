package driving

import "github.com/KKaradi/syfhack10year/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the effective settings: stored values over defaults,
	// with environment overrides applied last.
	Get() (*domain.AppSettings, error)

	// Set stores a single dotted key after validating it.
	Set(key, value string) error

	// Reset drops the stored value of a key, restoring its default.
	Reset(key string) error

	// Keys lists every recognised dotted key.
	Keys() []string

	// Validate checks the effective settings are usable.
	Validate() error

	// GetDefaults returns the built-in defaults.
	GetDefaults() domain.AppSettings
}
