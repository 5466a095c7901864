package macro

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrWidgetNotFound matches any *WidgetNotFoundError via errors.Is.
	ErrWidgetNotFound = errors.New("widget not found")

	// ErrMalformedMacro matches any *MalformedMacroError via errors.Is.
	ErrMalformedMacro = errors.New("malformed macro")

	// ErrAlreadyPlaying is returned by Player.Play while a run is active.
	ErrAlreadyPlaying = errors.New("already playing a macro")

	// ErrInvalidSpeed is returned for non-positive or non-finite speeds.
	ErrInvalidSpeed = errors.New("speed must be a positive number")

	// ErrUnsupportedVersion is returned for files written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported macro format version")

	// ErrNotFound is returned by Library lookups.
	ErrNotFound = errors.New("macro not found")
)

// WidgetNotFoundError reports that no live widget matched a WidgetSpec.
type WidgetNotFoundError struct {
	WidgetClass string
	Text        string
}

func (e *WidgetNotFoundError) Error() string {
	var label string
	if e.WidgetClass != "" {
		label = e.WidgetClass + " - "
	}
	label += e.Text
	if label == "" {
		return "widget not found"
	}
	return fmt.Sprintf("widget %s not found", label)
}

// Is makes errors.Is(err, ErrWidgetNotFound) succeed.
func (e *WidgetNotFoundError) Is(target error) bool {
	return target == ErrWidgetNotFound
}

func notFound(spec WidgetSpec) *WidgetNotFoundError {
	return &WidgetNotFoundError{WidgetClass: spec.WidgetClass, Text: spec.Text}
}

// MalformedMacroError reports a structurally invalid macro record: an
// unknown event type or a missing or invalid field.
type MalformedMacroError struct {
	// Index is the event index, or -1 for macro-level fields.
	Index  int
	Field  string
	Reason string
}

func (e *MalformedMacroError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("malformed macro: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("malformed macro: event %d: %s: %s", e.Index, e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrMalformedMacro) succeed.
func (e *MalformedMacroError) Is(target error) bool {
	return target == ErrMalformedMacro
}

func malformed(index int, field, reason string) *MalformedMacroError {
	return &MalformedMacroError{Index: index, Field: field, Reason: reason}
}

// DecodeError reports that macro bytes could not be parsed at all. It is
// kept distinct from MalformedMacroError so callers can tell a corrupt file
// from a well-formed file with invalid content.
type DecodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("decoding %s macro file %s: %v", e.Format, e.Path, e.Err)
	}
	return fmt.Sprintf("decoding %s macro: %v", e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// PlaybackEndedError wraps the failure that ended a playback run.
type PlaybackEndedError struct {
	Macro string
	Index int
	Err   error
}

func (e *PlaybackEndedError) Error() string {
	name := e.Macro
	if name == "" {
		name = "<unnamed>"
	}
	return fmt.Sprintf("macro playback ended: %s: event %d: %v", name, e.Index, e.Err)
}

func (e *PlaybackEndedError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a panicking event.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic during event: %v", e.Value)
}
