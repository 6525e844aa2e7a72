// Package logging wraps charmbracelet/log with an application logger that
// writes to a state-directory log file and mirrors warnings to stderr.
//
// Stdout is reserved for the MCP stdio transport, so nothing here may ever
// write to it. The file keeps a full record of tool calls and subprocess
// activity; stderr only carries warnings and errors so an attached client
// sees problems without the chatter.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

const appName = "unixman"

type AppLogger struct {
	file    *log.Logger // nil when the log file could not be opened
	console *log.Logger
	logFile *os.File
	path    string
	debug   bool
}

var (
	defaultLogger *AppLogger
	once          sync.Once
)

// GetDefault returns the default logger instance (singleton-like for convenience)
func GetDefault() *AppLogger {
	once.Do(func() {
		defaultLogger = NewAppLogger()
	})
	return defaultLogger
}

// Package-level convenience functions for quick logging
func Info(msg string, keyvals ...interface{}) {
	GetDefault().Info(msg, keyvals...)
}

func Warn(msg string, keyvals ...interface{}) {
	GetDefault().Warn(msg, keyvals...)
}

func Error(msg string, keyvals ...interface{}) {
	GetDefault().Error(msg, keyvals...)
}

func Debug(msg string, keyvals ...interface{}) {
	GetDefault().Debug(msg, keyvals...)
}

func LogMessage(msg tea.Msg) {
	GetDefault().LogMessage(msg)
}

func LogPerformance(operation string, start time.Time) {
	GetDefault().LogPerformance(operation, start)
}

// DefaultLogPath returns the log file location under the XDG state directory.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, appName, appName+".log")
}

func NewAppLogger() *AppLogger {
	debug := os.Getenv("DEBUG") != ""

	console := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          appName,
	})
	console.SetLevel(log.WarnLevel)

	al := &AppLogger{
		console: console,
		debug:   debug,
	}

	logPath := DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		console.Warn("Cannot create log directory, logging to stderr only",
			"dir", filepath.Dir(logPath), "error", err)
		return al
	}

	// Append across runs normally; clear on each run when debugging so a
	// session's trace starts clean.
	flags := os.O_CREATE | os.O_WRONLY | os.O_APPEND
	if debug {
		flags = os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	}

	logFile, err := os.OpenFile(logPath, flags, 0o644)
	if err != nil {
		console.Warn("Cannot open log file, logging to stderr only",
			"path", logPath, "error", err)
		return al
	}

	if debug {
		al.file = log.NewWithOptions(logFile, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.Kitchen,
			Prefix:          appName,
		})
		al.file.SetLevel(log.DebugLevel)
		al.file.Info("Debug logging enabled", "log_file", logPath)
	} else {
		al.file = log.NewWithOptions(logFile, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          appName,
		})
		al.file.SetLevel(log.InfoLevel)
	}

	al.logFile = logFile
	al.path = logPath
	return al
}

// Path returns the active log file path, or empty when logging to stderr only.
func (al *AppLogger) Path() string {
	return al.path
}

// Close releases the log file handle. Safe to call on a stderr-only logger.
func (al *AppLogger) Close() error {
	if al.logFile != nil {
		return al.logFile.Close()
	}
	return nil
}

// Log application events
func (al *AppLogger) Info(msg string, keyvals ...interface{}) {
	if al.file != nil {
		al.file.Info(msg, keyvals...)
	}
	al.console.Info(msg, keyvals...)
}

func (al *AppLogger) Warn(msg string, keyvals ...interface{}) {
	if al.file != nil {
		al.file.Warn(msg, keyvals...)
	}
	al.console.Warn(msg, keyvals...)
}

func (al *AppLogger) Error(msg string, keyvals ...interface{}) {
	if al.file != nil {
		al.file.Error(msg, keyvals...)
	}
	al.console.Error(msg, keyvals...)
}

func (al *AppLogger) Debug(msg string, keyvals ...interface{}) {
	if al.debug && al.file != nil {
		al.file.Debug(msg, keyvals...)
	}
}

// Log a bubbletea message (debug only)
func (al *AppLogger) LogMessage(msg tea.Msg) {
	if !al.debug || al.file == nil {
		return
	}

	al.file.Debug("Message received",
		"type", fmt.Sprintf("%T", msg),
		"content", fmt.Sprintf("%+v", msg),
	)
}

// Pretty print any object (replaces spew)
func (al *AppLogger) DebugObject(name string, obj interface{}) {
	if al.debug && al.file != nil {
		al.file.Debug("Object dump", "name", name, "object", fmt.Sprintf("%+v", obj))
	}
}

// Log performance metrics
func (al *AppLogger) LogPerformance(operation string, start time.Time) {
	if al.debug && al.file != nil {
		duration := time.Since(start)
		al.file.Debug("Performance",
			"operation", operation,
			"duration", duration,
		)
	}
}

// Log state transitions for debugging
func (al *AppLogger) LogStateTransition(component, from, to string) {
	if al.debug && al.file != nil {
		al.file.Debug("State transition",
			"component", component,
			"from", from,
			"to", to,
		)
	}
}

// Log user actions for debugging
func (al *AppLogger) LogUserAction(action, context string) {
	if al.debug && al.file != nil {
		al.file.Debug("User action",
			"action", action,
			"context", context,
		)
	}
}

// Testing Helper - NewTestLogger creates a logger that writes to a buffer for testing
func NewTestLogger() (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer

	fileLogger := log.NewWithOptions(&buf, log.Options{
		ReportTimestamp: false, // Easier to test without timestamps
		ReportCaller:    false,
		Prefix:          "Test",
	})
	fileLogger.SetLevel(log.DebugLevel)

	console := log.New(io.Discard)

	return &AppLogger{
		file:    fileLogger,
		console: console,
		debug:   true,
	}, &buf
}
