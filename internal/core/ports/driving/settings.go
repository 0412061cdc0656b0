package driving

import "github.com/custodia-labs/resultq/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.AppSettings, error)

	// Save persists application settings.
	Save(settings *domain.AppSettings) error

	// SetPerPage updates the default page size.
	SetPerPage(n int) error

	// SetWorkers updates the metadata evaluation worker count.
	SetWorkers(n int) error

	// SetLogLevel updates the verbose log level.
	SetLogLevel(level domain.LogLevel) error

	// SetHTTPAddr updates the HTTP listen address.
	SetHTTPAddr(addr string) error

	// Validate checks the current settings.
	Validate() error

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings
}
