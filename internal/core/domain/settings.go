package domain

// LogLevel is the minimum level of verbose log output.
type LogLevel string

// Available log levels.
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
)

// IsValid returns true if the level is recognised.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (l LogLevel) String() string {
	return string(l)
}

// SearchSettings holds search behaviour configuration.
type SearchSettings struct {
	// PerPage is the default page size.
	PerPage int

	// Workers bounds concurrent metadata evaluation. Zero means GOMAXPROCS.
	Workers int
}

// StorageSettings holds storage configuration.
type StorageSettings struct {
	// DataDir holds the SQLite database. Empty means ~/.resultq/data.
	DataDir string
}

// LogSettings holds logging configuration.
type LogSettings struct {
	Level LogLevel
}

// HTTPSettings holds HTTP API configuration.
type HTTPSettings struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string
}

// AppSettings aggregates all application settings.
type AppSettings struct {
	Search  SearchSettings
	Storage StorageSettings
	Log     LogSettings
	HTTP    HTTPSettings
}

// DefaultAppSettings returns the settings used when nothing is configured.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Search: SearchSettings{
			PerPage: DefaultPerPage,
		},
		Log: LogSettings{
			Level: LogLevelInfo,
		},
		HTTP: HTTPSettings{
			Addr: ":8080",
		},
	}
}
