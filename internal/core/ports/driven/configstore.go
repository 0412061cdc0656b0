package driven

// ConfigStore is a flat key/value view of the configuration file. Keys use
// dot notation ("search.per_page") whatever the on-disk nesting.
//
// Typed getters return the zero value when a key is missing or holds an
// incompatible type, so callers that must tell the two apart use Get.
type ConfigStore interface {
	// Get returns the raw value and whether the key is present.
	Get(key string) (any, bool)

	GetString(key string) string

	// GetInt also accepts numbers stored as floats or numeric strings.
	GetInt(key string) int

	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores a value and persists it. On a failed write the previous
	// value is restored.
	Set(key string, value any) error

	// Save writes the whole configuration.
	Save() error

	// Load replaces the in-memory values with what is stored.
	Load() error

	// Path identifies the backing file.
	Path() string
}
