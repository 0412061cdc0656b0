package services

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/resultq/internal/core/domain"
	"github.com/custodia-labs/resultq/internal/core/ports/driven"
	"github.com/custodia-labs/resultq/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keySearchPerPage  = "search.per_page"
	keySearchWorkers  = "search.workers"
	keyStorageDataDir = "storage.data_dir"
	keyLogLevel       = "log.level"
	keyHTTPAddr       = "http.addr"
)

// maxPerPage caps the configurable page size.
const maxPerPage = 1000

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	if s.configStore == nil {
		return nil, errors.New("config store unavailable")
	}
	defaults := domain.DefaultAppSettings()

	return &domain.AppSettings{
		Search: domain.SearchSettings{
			PerPage: s.getInt(keySearchPerPage, defaults.Search.PerPage),
			Workers: s.getInt(keySearchWorkers, defaults.Search.Workers),
		},
		Storage: domain.StorageSettings{
			DataDir: s.getString(keyStorageDataDir, defaults.Storage.DataDir),
		},
		Log: domain.LogSettings{
			Level: s.getLogLevel(defaults.Log.Level),
		},
		HTTP: domain.HTTPSettings{
			Addr: s.getString(keyHTTPAddr, defaults.HTTP.Addr),
		},
	}, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if s.configStore == nil {
		return errors.New("config store unavailable")
	}
	if err := s.configStore.Set(keySearchPerPage, settings.Search.PerPage); err != nil {
		return fmt.Errorf("save search per_page: %w", err)
	}
	if err := s.configStore.Set(keySearchWorkers, settings.Search.Workers); err != nil {
		return fmt.Errorf("save search workers: %w", err)
	}
	if settings.Storage.DataDir != "" {
		if err := s.configStore.Set(keyStorageDataDir, settings.Storage.DataDir); err != nil {
			return fmt.Errorf("save storage data_dir: %w", err)
		}
	}
	if err := s.configStore.Set(keyLogLevel, settings.Log.Level.String()); err != nil {
		return fmt.Errorf("save log level: %w", err)
	}
	if err := s.configStore.Set(keyHTTPAddr, settings.HTTP.Addr); err != nil {
		return fmt.Errorf("save http addr: %w", err)
	}
	return nil
}

// SetPerPage updates the default page size.
func (s *SettingsService) SetPerPage(n int) error {
	if n < 1 || n > maxPerPage {
		return fmt.Errorf("%w: per_page must be between 1 and %d, got %d", domain.ErrInvalidInput, maxPerPage, n)
	}
	return s.update(func(settings *domain.AppSettings) {
		settings.Search.PerPage = n
	})
}

// SetWorkers updates the metadata evaluation worker count. Zero restores
// the GOMAXPROCS default.
func (s *SettingsService) SetWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: workers must not be negative, got %d", domain.ErrInvalidInput, n)
	}
	return s.update(func(settings *domain.AppSettings) {
		settings.Search.Workers = n
	})
}

// SetLogLevel updates the verbose log level.
func (s *SettingsService) SetLogLevel(level domain.LogLevel) error {
	if !level.IsValid() {
		return fmt.Errorf("%w: invalid log level: %s", domain.ErrInvalidInput, level)
	}
	return s.update(func(settings *domain.AppSettings) {
		settings.Log.Level = level
	})
}

// SetHTTPAddr updates the HTTP listen address.
func (s *SettingsService) SetHTTPAddr(addr string) error {
	if addr == "" {
		return fmt.Errorf("%w: http addr must not be empty", domain.ErrInvalidInput)
	}
	return s.update(func(settings *domain.AppSettings) {
		settings.HTTP.Addr = addr
	})
}

// Validate checks the current settings.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if settings.Search.PerPage < 1 || settings.Search.PerPage > maxPerPage {
		return fmt.Errorf("search.per_page must be between 1 and %d, got %d", maxPerPage, settings.Search.PerPage)
	}
	if settings.Search.Workers < 0 {
		return fmt.Errorf("search.workers must not be negative, got %d", settings.Search.Workers)
	}
	if !settings.Log.Level.IsValid() {
		return fmt.Errorf("invalid log level: %s", settings.Log.Level)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (s *SettingsService) update(apply func(*domain.AppSettings)) error {
	settings, err := s.Get()
	if err != nil {
		return err
	}
	apply(settings)
	return s.Save(settings)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getLogLevel(defaultVal domain.LogLevel) domain.LogLevel {
	val := s.configStore.GetString(keyLogLevel)
	if val == "" {
		return defaultVal
	}
	level := domain.LogLevel(val)
	if !level.IsValid() {
		return defaultVal
	}
	return level
}
