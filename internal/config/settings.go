package config

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Setting keys.
const (
	KeySpeed                = "player.speed"
	KeyFilterMouseMovements = "recorder.filter_mouse_movements"
	KeyTrimTrailingMoves    = "recorder.trim_trailing_moves"
	KeyInterpolationCount   = "recorder.move_event_interpolation_count"
	KeyMacroSavePath        = "storage.macro_save_path"
	KeyLogLevel             = "logging.level"
	KeyLogFormat            = "logging.format"
)

// Interpolation count bounds.
const (
	MinInterpolationCount = 2
	MaxInterpolationCount = 10000
)

// Settings holds every widgetmacro setting.
type Settings struct {
	Player   PlayerSettings   `toml:"player"`
	Recorder RecorderSettings `toml:"recorder"`
	Storage  StorageSettings  `toml:"storage"`
	Logging  LoggingSettings  `toml:"logging"`
}

// PlayerSettings configures macro playback.
type PlayerSettings struct {
	// Speed multiplies every recorded delay.
	Speed float64 `toml:"speed" comment:"Delay multiplier; 2.0 plays at half speed."`
}

// RecorderSettings configures macro recording.
type RecorderSettings struct {
	FilterMouseMovements        bool `toml:"filter_mouse_movements" comment:"Record pointer moves only over the primary surface."`
	TrimTrailingMoves           bool `toml:"trim_trailing_moves"`
	MoveEventInterpolationCount int  `toml:"move_event_interpolation_count" comment:"Positions kept per move gesture (2..10000)."`
}

// StorageSettings configures where macros are saved.
type StorageSettings struct {
	// MacroSavePath is the macro directory; empty selects the default.
	MacroSavePath string `toml:"macro_save_path"`
}

// LoggingSettings configures the application logger.
type LoggingSettings struct {
	Level  string `toml:"level" comment:"debug, info, warn or error"`
	Format string `toml:"format" comment:"text or json"`
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		Player: PlayerSettings{Speed: 1.0},
		Recorder: RecorderSettings{
			FilterMouseMovements:        true,
			TrimTrailingMoves:           true,
			MoveEventInterpolationCount: 4,
		},
		Logging: LoggingSettings{Level: "info", Format: "text"},
	}
}

// Kind is the value type of a setting.
type Kind int

const (
	KindBool Kind = iota
	KindInt
	KindFloat
	KindString
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return "unknown"
	}
}

// Definition describes one setting.
type Definition struct {
	Key  string
	Kind Kind
	Doc  string

	get   func(*Settings) any
	set   func(*Settings, any)
	check func(any) string
}

var definitions = []Definition{
	{
		Key:  KeySpeed,
		Kind: KindFloat,
		Doc:  "playback delay multiplier",
		get:  func(s *Settings) any { return s.Player.Speed },
		set:  func(s *Settings, v any) { s.Player.Speed = v.(float64) },
		check: func(v any) string {
			f := v.(float64)
			if f <= 0 || math.IsNaN(f) || math.IsInf(f, 0) {
				return "must be a finite number greater than zero"
			}
			return ""
		},
	},
	{
		Key:  KeyFilterMouseMovements,
		Kind: KindBool,
		Doc:  "record pointer moves only over the primary surface",
		get:  func(s *Settings) any { return s.Recorder.FilterMouseMovements },
		set:  func(s *Settings, v any) { s.Recorder.FilterMouseMovements = v.(bool) },
	},
	{
		Key:  KeyTrimTrailingMoves,
		Kind: KindBool,
		Doc:  "drop the move gesture that ends a recording",
		get:  func(s *Settings) any { return s.Recorder.TrimTrailingMoves },
		set:  func(s *Settings, v any) { s.Recorder.TrimTrailingMoves = v.(bool) },
	},
	{
		Key:  KeyInterpolationCount,
		Kind: KindInt,
		Doc:  "positions kept per move gesture",
		get:  func(s *Settings) any { return s.Recorder.MoveEventInterpolationCount },
		set:  func(s *Settings, v any) { s.Recorder.MoveEventInterpolationCount = v.(int) },
		check: func(v any) string {
			n := v.(int)
			if n < MinInterpolationCount || n > MaxInterpolationCount {
				return fmt.Sprintf("must be between %d and %d", MinInterpolationCount, MaxInterpolationCount)
			}
			return ""
		},
	},
	{
		Key:  KeyMacroSavePath,
		Kind: KindString,
		Doc:  "directory macros are saved to",
		get:  func(s *Settings) any { return s.Storage.MacroSavePath },
		set:  func(s *Settings, v any) { s.Storage.MacroSavePath = v.(string) },
	},
	{
		Key:   KeyLogLevel,
		Kind:  KindString,
		Doc:   "minimum log level",
		get:   func(s *Settings) any { return s.Logging.Level },
		set:   func(s *Settings, v any) { s.Logging.Level = strings.ToLower(v.(string)) },
		check: oneOf("debug", "info", "warn", "error"),
	},
	{
		Key:   KeyLogFormat,
		Kind:  KindString,
		Doc:   "log output format",
		get:   func(s *Settings) any { return s.Logging.Format },
		set:   func(s *Settings, v any) { s.Logging.Format = strings.ToLower(v.(string)) },
		check: oneOf("text", "json"),
	},
}

func oneOf(allowed ...string) func(any) string {
	return func(v any) string {
		s := strings.ToLower(v.(string))
		for _, a := range allowed {
			if s == a {
				return ""
			}
		}
		return "must be one of " + strings.Join(allowed, ", ")
	}
}

// Definitions returns every setting definition sorted by key.
func Definitions() []Definition {
	defs := make([]Definition, len(definitions))
	copy(defs, definitions)
	sort.Slice(defs, func(i, j int) bool { return defs[i].Key < defs[j].Key })
	return defs
}

// Keys returns every setting key sorted.
func Keys() []string {
	defs := Definitions()
	keys := make([]string, len(defs))
	for i, d := range defs {
		keys[i] = d.Key
	}
	return keys
}

func lookup(key string) (*Definition, error) {
	for i := range definitions {
		if definitions[i].Key == key {
			return &definitions[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
}

// Get returns the value of key.
func (s *Settings) Get(key string) (any, error) {
	def, err := lookup(key)
	if err != nil {
		return nil, err
	}
	return def.get(s), nil
}

// Set converts value to the setting's kind, checks it and stores it.
// Strings are parsed for non-string settings so environment values
// can be applied directly.
func (s *Settings) Set(key string, value any) error {
	def, err := lookup(key)
	if err != nil {
		return err
	}
	v, ok := coerce(def.Kind, value)
	if !ok {
		return &InvalidSettingValueError{Key: key, Value: value, Reason: "must be a " + def.Kind.String()}
	}
	if def.check != nil {
		if reason := def.check(v); reason != "" {
			return &InvalidSettingValueError{Key: key, Value: value, Reason: reason}
		}
	}
	def.set(s, v)
	return nil
}

// Validate checks every value in s.
func (s Settings) Validate() error {
	for _, def := range definitions {
		if def.check == nil {
			continue
		}
		v := def.get(&s)
		if reason := def.check(v); reason != "" {
			return &InvalidSettingValueError{Key: def.Key, Value: v, Reason: reason}
		}
	}
	return nil
}

// Diff returns the keys whose values differ between s and other, sorted.
func (s Settings) Diff(other Settings) []string {
	var keys []string
	for _, def := range definitions {
		if def.get(&s) != def.get(&other) {
			keys = append(keys, def.Key)
		}
	}
	sort.Strings(keys)
	return keys
}

func coerce(kind Kind, value any) (any, bool) {
	switch kind {
	case KindBool:
		switch v := value.(type) {
		case bool:
			return v, true
		case string:
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			return b, err == nil
		}
	case KindInt:
		switch v := value.(type) {
		case int:
			return v, true
		case int64:
			return int(v), true
		case float64:
			if v == math.Trunc(v) && !math.IsInf(v, 0) {
				return int(v), true
			}
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			return n, err == nil
		}
	case KindFloat:
		switch v := value.(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		case string:
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			return f, err == nil
		}
	case KindString:
		if v, ok := value.(string); ok {
			return v, true
		}
	}
	return nil, false
}
