package macro

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a macro file encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// DefaultSuffix is appended to file names given without an extension.
const DefaultSuffix = ".json"

// FormatFor picks the encoding from a file extension. Anything other than
// .yaml or .yml is JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// WithDefaultSuffix appends DefaultSuffix when path has no extension.
func WithDefaultSuffix(path string) string {
	if filepath.Ext(path) == "" {
		return path + DefaultSuffix
	}
	return path
}

// DefaultMacrosDir returns the default directory for macro files.
// On Unix-like systems: ~/.config/widgetmacro/macros
// On Windows: %APPDATA%/widgetmacro/macros
func DefaultMacrosDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(configDir, "widgetmacro", "macros"), nil
}

// EncodeMacro encodes a single macro as one record.
func EncodeMacro(m Macro, f Format) ([]byte, error) {
	return encode(Serialize(m), f)
}

// Encode encodes macros as a list of records.
func Encode(macros []Macro, f Format) ([]byte, error) {
	records := make([]Record, len(macros))
	for i, m := range macros {
		records[i] = Serialize(m)
	}
	return encode(records, f)
}

func encode(v any, f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return nil, fmt.Errorf("failed to marshal macros: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("failed to marshal macros: %w", err)
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal macros: %w", err)
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown macro format %q", f)
	}
}

// Decode parses data holding either one macro record or a list of them.
// Bytes that cannot be parsed yield a *DecodeError; parsed content that
// does not describe valid macros yields a *MalformedMacroError.
func Decode(data []byte, f Format) ([]Macro, error) {
	var (
		records []Record
		err     error
	)
	switch f {
	case FormatYAML:
		records, err = decodeYAML(data)
	case FormatJSON, "":
		records, err = decodeJSON(data)
	default:
		return nil, fmt.Errorf("unknown macro format %q", f)
	}
	if err != nil {
		return nil, &DecodeError{Format: string(f), Err: err}
	}

	macros := make([]Macro, 0, len(records))
	for i, rec := range records {
		m, err := Deserialize(rec)
		if err != nil {
			if len(records) == 1 {
				return nil, err
			}
			return nil, fmt.Errorf("macro %d: %w", i, err)
		}
		macros = append(macros, m)
	}
	return macros, nil
}

func decodeJSON(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty document")
	}
	switch trimmed[0] {
	case '[':
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, err
		}
		return records, nil
	case '{':
		var rec Record
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	default:
		return nil, fmt.Errorf("expected an object or a list, found %q", trimmed[0])
	}
}

func decodeYAML(data []byte) ([]Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty document")
	}
	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		var records []Record
		if err := root.Decode(&records); err != nil {
			return nil, err
		}
		return records, nil
	case yaml.MappingNode:
		var rec Record
		if err := root.Decode(&rec); err != nil {
			return nil, err
		}
		return []Record{rec}, nil
	default:
		return nil, fmt.Errorf("expected a mapping or a sequence at line %d", root.Line)
	}
}

// SaveFile writes macros as a list to path, choosing the encoding from its
// extension and appending DefaultSuffix when it has none. The file is
// written atomically using a temporary file and rename. It returns the path
// actually written.
func SaveFile(path string, macros ...Macro) (string, error) {
	path = WithDefaultSuffix(path)
	data, err := Encode(macros, FormatFor(path))
	if err != nil {
		return "", err
	}
	return path, writeAtomic(path, data)
}

// SaveMacroFile writes a single macro record to path.
func SaveMacroFile(path string, m Macro) (string, error) {
	path = WithDefaultSuffix(path)
	data, err := EncodeMacro(m, FormatFor(path))
	if err != nil {
		return "", err
	}
	return path, writeAtomic(path, data)
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// LoadFile reads every macro stored in path.
func LoadFile(path string) ([]Macro, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read macro file: %w", err)
	}
	macros, err := Decode(data, FormatFor(path))
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Path = path
		}
		return nil, err
	}
	return macros, nil
}

// SaveLibrary writes every macro in l to path.
func SaveLibrary(l *Library, path string) (string, error) {
	return SaveFile(path, l.Macros()...)
}

// LoadLibrary appends the macros stored in path to l. With replace set the
// library is emptied first. Nothing is changed when loading fails.
func LoadLibrary(l *Library, path string, replace bool) error {
	macros, err := LoadFile(path)
	if err != nil {
		return err
	}
	if replace {
		l.Reset(macros...)
		return nil
	}
	for _, m := range macros {
		l.Add(m)
	}
	return nil
}
