package logger

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/kbukum/redkit/config"
)

var (
	defaultMu     sync.RWMutex
	defaultLogger *Logger
	defaultOnce   sync.Once
)

// Default returns the process-wide logger, built from config.Default() on
// first use.
func Default() *Logger {
	defaultOnce.Do(func() {
		l := New(config.Default(), WithDiagnostics(log.Logger))
		defaultMu.Lock()
		if defaultLogger == nil {
			defaultLogger = l
		}
		defaultMu.Unlock()
	})
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault replaces the process-wide logger.
func SetDefault(l *Logger) {
	defaultOnce.Do(func() {})
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Info records an Info entry on the default logger.
func Info(msg any, fields ...map[string]any) {
	Default().Info(msg, fields...)
}

// Debug records a Debug entry on the default logger.
func Debug(msg any, fields ...map[string]any) {
	Default().Debug(msg, fields...)
}

// Warn records a Warn entry on the default logger.
func Warn(msg any, fields ...map[string]any) {
	Default().Warn(msg, fields...)
}

// Error records an Error entry on the default logger.
func Error(msg any, fields ...map[string]any) {
	Default().Error(msg, fields...)
}

// Start starts the timer tag on the default logger.
func Start(tag, text string, fields ...map[string]any) {
	Default().Start(tag, text, fields...)
}

// End stops the timer tag on the default logger.
func End(tag, text string, fields ...map[string]any) {
	Default().End(tag, text, fields...)
}

// SetLabel sets the label of the default logger.
func SetLabel(label string) {
	Default().SetLabel(label)
}

// Config returns the settings of the default logger.
func Config() Settings {
	return Default().Config()
}

// Configure merges s into the settings of the default logger.
func Configure(s Settings) {
	Default().Configure(s)
}

// Path returns the log file path of the default logger.
func Path() string {
	return Default().Path()
}

// Flush flushes the default logger.
func Flush() error {
	return Default().Flush()
}
