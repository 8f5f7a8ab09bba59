// Package logger provides the logging capability shared by the demo backends.
//
// It keeps a package-level singleton so route handlers and services can log
// without threading a logger through every constructor. New code that wants
// structured logging can obtain the underlying *slog.Logger via [Get].
package logger

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/spf13/viper"
)

// singleton is the package-level logger created by Initialize.
// Accessed atomically to be safe for concurrent use across goroutines.
var singleton atomic.Pointer[slog.Logger]

func init() {
	// Set a default logger so callers that skip Initialize() don't panic.
	singleton.Store(newLogger(false, slog.LevelInfo))
}

func newLogger(unstructured bool, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if unstructured {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}

func get() *slog.Logger {
	return singleton.Load()
}

// Get returns the underlying *slog.Logger for injection into structs.
func Get() *slog.Logger {
	return get()
}

// Set replaces the singleton logger. This is intended for tests that need to
// capture log output; production code should use [Initialize] instead.
func Set(l *slog.Logger) {
	singleton.Store(l)
}

// Debugf logs a message at debug level using the singleton logger.
func Debugf(msg string, args ...any) {
	get().Debug(fmt.Sprintf(msg, args...))
}

// Debugw logs a message at debug level using the singleton logger with additional key-value pairs.
func Debugw(msg string, keysAndValues ...any) {
	get().Debug(msg, keysAndValues...)
}

// Infof logs a message at info level using the singleton logger.
func Infof(msg string, args ...any) {
	get().Info(fmt.Sprintf(msg, args...))
}

// Infow logs a message at info level using the singleton logger with additional key-value pairs.
func Infow(msg string, keysAndValues ...any) {
	get().Info(msg, keysAndValues...)
}

// Warnf logs a message at warning level using the singleton logger.
func Warnf(msg string, args ...any) {
	get().Warn(fmt.Sprintf(msg, args...))
}

// Warnw logs a message at warning level using the singleton logger with additional key-value pairs.
func Warnw(msg string, keysAndValues ...any) {
	get().Warn(msg, keysAndValues...)
}

// Errorf logs a message at error level using the singleton logger.
func Errorf(msg string, args ...any) {
	get().Error(fmt.Sprintf(msg, args...))
}

// Errorw logs a message at error level using the singleton logger with additional key-value pairs.
func Errorw(msg string, keysAndValues ...any) {
	get().Error(msg, keysAndValues...)
}

// Fatalf logs a message at error level using the singleton logger and exits the program.
func Fatalf(msg string, args ...any) {
	get().Error(fmt.Sprintf(msg, args...))
	os.Exit(1)
}

// Initialize creates and configures the appropriate logger.
// If the UNSTRUCTURED_LOGS env var is set to true, it will output plain text.
// Otherwise it will create a standard structured JSON logger.
func Initialize() {
	level := slog.LevelInfo
	if viper.GetBool("debug") {
		level = slog.LevelDebug
	}
	singleton.Store(newLogger(unstructuredLogs(), level))
}

func unstructuredLogs() bool {
	unstructured, err := strconv.ParseBool(os.Getenv("UNSTRUCTURED_LOGS"))
	if err != nil {
		// The env var wasn't set, or is "", which means we default to
		// unstructured output for local development.
		return true
	}
	return unstructured
}
