package config

import (
	"errors"
	"fmt"
)

// Errors returned by configuration operations.
var (
	// ErrUnknownSetting indicates the key does not name a setting.
	ErrUnknownSetting = errors.New("unknown setting")

	// ErrNoPath indicates an operation needed a settings file path but none was set.
	ErrNoPath = errors.New("no settings file path")

	// ErrWatcherClosed indicates the watcher has been closed.
	ErrWatcherClosed = errors.New("watcher is closed")
)

// InvalidSettingValueError reports a value rejected by a setting.
type InvalidSettingValueError struct {
	// Key is the dotted setting key.
	Key string
	// Value is the rejected value.
	Value any
	// Reason describes what the setting accepts.
	Reason string
}

// Error implements the error interface.
func (e *InvalidSettingValueError) Error() string {
	return fmt.Sprintf("invalid value %v for setting %s: %s", e.Value, e.Key, e.Reason)
}

// ParseError represents an error while parsing a settings file.
type ParseError struct {
	// Path is the file path that failed to parse.
	Path string
	// Line is the line number where the error occurred (if available).
	Line int
	// Column is the column number where the error occurred (if available).
	Column int
	// Message describes the parse error.
	Message string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Line > 0 && e.Column > 0 {
		return fmt.Sprintf("parse error in %s at line %d, column %d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %s at line %d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Path, e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
