// Package logger provides verbose logging for the resultq CLI and servers.
// When verbose mode is enabled via the --verbose flag, messages are written
// to stderr through zerolog so users can follow the search pipeline.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	level             = zerolog.DebugLevel
	zlog              = build(output, level)
)

// build creates the console logger: "[LEVEL] message key=value".
func build(w io.Writer, lvl zerolog.Level) zerolog.Logger {
	cw := zerolog.ConsoleWriter{
		Out:        zerolog.SyncWriter(w),
		NoColor:    true,
		PartsOrder: []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: func(i any) string {
			s, _ := i.(string)
			return "[" + strings.ToUpper(s) + "]"
		},
		FormatMessage: func(i any) string {
			if i == nil {
				return ""
			}
			return fmt.Sprint(i)
		},
	}
	return zerolog.New(cw).Level(lvl)
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	zlog = build(output, level)
}

// SetLevel sets the minimum level printed in verbose mode: "debug", "info"
// or "warn". Unknown names select debug.
func SetLevel(name string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(name))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.DebugLevel
	}
	mu.Lock()
	defer mu.Unlock()
	level = lvl
	zlog = build(output, level)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf(zerolog.DebugLevel, format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf(zerolog.InfoLevel, format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf(zerolog.WarnLevel, format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose && level <= zerolog.DebugLevel {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Component returns a structured logger tagged with the component name.
// It is disabled unless verbose mode is on when called.
func Component(name string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return zerolog.Nop()
	}
	return zlog.With().Str("component", name).Logger()
}

func logf(lvl zerolog.Level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose {
		return
	}
	zlog.WithLevel(lvl).Msgf(format, args...)
}
