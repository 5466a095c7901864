package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/widgetmacro/internal/config/notify"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := m[name]
		return v, ok
	}
}

func writeSettings(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	s := Defaults()
	if s.Player.Speed != 1.0 {
		t.Errorf("Speed = %v, want 1.0", s.Player.Speed)
	}
	if !s.Recorder.FilterMouseMovements || !s.Recorder.TrimTrailingMoves {
		t.Error("recorder filters should default to on")
	}
	if s.Recorder.MoveEventInterpolationCount != 4 {
		t.Errorf("MoveEventInterpolationCount = %d, want 4", s.Recorder.MoveEventInterpolationCount)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestSettingsSet(t *testing.T) {
	tests := []struct {
		key     string
		value   any
		want    any
		invalid bool
	}{
		{KeySpeed, 2.5, 2.5, false},
		{KeySpeed, int64(3), 3.0, false},
		{KeySpeed, "0.5", 0.5, false},
		{KeySpeed, 0.0, nil, true},
		{KeySpeed, -1, nil, true},
		{KeySpeed, "fast", nil, true},
		{KeyInterpolationCount, 2, 2, false},
		{KeyInterpolationCount, int64(10000), 10000, false},
		{KeyInterpolationCount, 8.0, 8, false},
		{KeyInterpolationCount, 1, nil, true},
		{KeyInterpolationCount, 10001, nil, true},
		{KeyInterpolationCount, 2.5, nil, true},
		{KeyFilterMouseMovements, false, false, false},
		{KeyFilterMouseMovements, "0", false, false},
		{KeyFilterMouseMovements, 1, nil, true},
		{KeyLogLevel, "DEBUG", "debug", false},
		{KeyLogLevel, "verbose", nil, true},
		{KeyLogFormat, "json", "json", false},
		{KeyLogFormat, "xml", nil, true},
		{KeyMacroSavePath, "/tmp/macros", "/tmp/macros", false},
		{KeyMacroSavePath, 42, nil, true},
	}

	for _, tt := range tests {
		s := Defaults()
		before := s
		err := s.Set(tt.key, tt.value)
		if tt.invalid {
			var ie *InvalidSettingValueError
			if !errors.As(err, &ie) {
				t.Errorf("Set(%s, %v) error = %v, want *InvalidSettingValueError", tt.key, tt.value, err)
				continue
			}
			if ie.Key != tt.key {
				t.Errorf("error key = %q, want %q", ie.Key, tt.key)
			}
			if s != before {
				t.Errorf("Set(%s, %v) changed settings after rejecting the value", tt.key, tt.value)
			}
			continue
		}
		if err != nil {
			t.Errorf("Set(%s, %v) error = %v", tt.key, tt.value, err)
			continue
		}
		if got, _ := s.Get(tt.key); got != tt.want {
			t.Errorf("Get(%s) = %v (%T), want %v", tt.key, got, got, tt.want)
		}
	}
}

func TestUnknownSetting(t *testing.T) {
	s := Defaults()
	if _, err := s.Get("player.volume"); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("Get() error = %v, want ErrUnknownSetting", err)
	}
	if err := s.Set("player", 1); !errors.Is(err, ErrUnknownSetting) {
		t.Errorf("Set() error = %v, want ErrUnknownSetting", err)
	}
}

func TestKeysAndEnvNames(t *testing.T) {
	keys := Keys()
	if len(keys) != 7 {
		t.Fatalf("Keys() = %v", keys)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Errorf("Keys() not sorted: %v", keys)
		}
	}
	if got := EnvName(KeyInterpolationCount); got != "WIDGETMACRO_RECORDER_MOVE_EVENT_INTERPOLATION_COUNT" {
		t.Errorf("EnvName() = %q", got)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	writeSettings(t, path, `
[player]
speed = 2

[recorder]
trim_trailing_moves = false
move_event_interpolation_count = 16

[logging]
level = "warn"
`)

	c := New(WithPath(path), WithEnv(noEnv))
	var changes []notify.Change
	c.Subscribe(func(ch notify.Change) { changes = append(changes, ch) })

	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s := c.Settings()
	if s.Player.Speed != 2.0 || s.Recorder.TrimTrailingMoves || s.Recorder.MoveEventInterpolationCount != 16 || s.Logging.Level != "warn" {
		t.Errorf("Settings() = %+v", s)
	}
	if !s.Recorder.FilterMouseMovements || s.Logging.Format != "text" {
		t.Error("unset keys should keep their defaults")
	}

	if len(changes) != 4 {
		t.Fatalf("received %d changes, want 4: %+v", len(changes), changes)
	}
	for _, ch := range changes {
		if ch.Type != notify.ChangeSet || ch.Source != SourceFile {
			t.Errorf("change = %+v", ch)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	c := New(WithPath(filepath.Join(t.TempDir(), "none.toml")), WithEnv(noEnv))
	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.Settings() != Defaults() {
		t.Errorf("Settings() = %+v, want defaults", c.Settings())
	}
}

func TestSetLogger(t *testing.T) {
	var first, second bytes.Buffer
	c := New(WithPath(filepath.Join(t.TempDir(), "settings.toml")), WithEnv(noEnv),
		WithLogger(slog.New(slog.NewTextHandler(&first, nil))))

	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(first.String(), "component=config") {
		t.Errorf("log = %q, want component attribute", first.String())
	}

	c.SetLogger(slog.New(slog.NewTextHandler(&second, nil)))
	c.SetLogger(nil)
	if err := c.Save(); err != nil {
		t.Fatal(err)
	}
	if strings.Count(first.String(), "settings saved") != 1 {
		t.Errorf("old logger still used: %q", first.String())
	}
	if !strings.Contains(second.String(), "settings saved") {
		t.Errorf("new logger not used: %q", second.String())
	}
}

func TestLoadErrorsKeepSettings(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		check   func(error) bool
	}{
		{"syntax", "[player\nspeed = 1", func(err error) bool {
			var pe *ParseError
			return errors.As(err, &pe) && pe.Line > 0
		}},
		{"unknown key", "[player]\nvolume = 3", func(err error) bool {
			return errors.Is(err, ErrUnknownSetting)
		}},
		{"out of range", "[recorder]\nmove_event_interpolation_count = 1", func(err error) bool {
			var ie *InvalidSettingValueError
			return errors.As(err, &ie) && ie.Key == KeyInterpolationCount
		}},
		{"wrong type", "[player]\nspeed = \"quick\"", func(err error) bool {
			var ie *InvalidSettingValueError
			return errors.As(err, &ie)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".toml")
			writeSettings(t, path, tt.content)

			c := New(WithPath(path), WithEnv(noEnv))
			if err := c.Set(KeySpeed, 3.0); err != nil {
				t.Fatal(err)
			}
			err := c.Load()
			if err == nil || !tt.check(err) {
				t.Fatalf("Load() error = %v", err)
			}
			if c.Settings().Player.Speed != 3.0 {
				t.Error("failed load changed the settings")
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	writeSettings(t, path, "[player]\nspeed = 2.0\n")

	c := New(WithPath(path), WithEnv(envMap(map[string]string{
		"WIDGETMACRO_PLAYER_SPEED":                    "0.25",
		"WIDGETMACRO_RECORDER_FILTER_MOUSE_MOVEMENTS": "false",
	})))
	sources := map[string]string{}
	c.Subscribe(func(ch notify.Change) { sources[ch.Key] = ch.Source })

	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s := c.Settings()
	if s.Player.Speed != 0.25 || s.Recorder.FilterMouseMovements {
		t.Errorf("Settings() = %+v", s)
	}
	if sources[KeySpeed] != SourceEnv || sources[KeyFilterMouseMovements] != SourceEnv {
		t.Errorf("sources = %v", sources)
	}

	bad := New(WithEnv(envMap(map[string]string{"WIDGETMACRO_PLAYER_SPEED": "-2"})))
	err := bad.Load()
	var ie *InvalidSettingValueError
	if !errors.As(err, &ie) || !strings.Contains(err.Error(), "WIDGETMACRO_PLAYER_SPEED") {
		t.Errorf("Load() error = %v", err)
	}
}

func TestConfigSetNotifies(t *testing.T) {
	c := New(WithEnv(noEnv))

	var got []notify.Change
	sub := c.SubscribeKey(KeySpeed, func(ch notify.Change) { got = append(got, ch) })
	defer sub.Unsubscribe()

	if err := c.Set(KeySpeed, 2.0); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(KeySpeed, 2.0); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(KeyTrimTrailingMoves, false); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(KeySpeed, 0); err == nil {
		t.Error("Set(speed, 0) succeeded")
	}

	if len(got) != 1 {
		t.Fatalf("received %d changes, want 1", len(got))
	}
	if got[0].Old != 1.0 || got[0].New != 2.0 || got[0].Source != SourceAPI {
		t.Errorf("change = %+v", got[0])
	}
	if v, _ := c.Get(KeySpeed); v != 2.0 {
		t.Errorf("Get() = %v", v)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.toml")

	c := New(WithPath(path), WithEnv(noEnv))
	if err := c.Set(KeySpeed, 0.5); err != nil {
		t.Fatal(err)
	}
	if err := c.Set(KeyMacroSavePath, "/data/macros"); err != nil {
		t.Fatal(err)
	}
	if err := c.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "[player]") || !strings.Contains(string(data), "macro_save_path") {
		t.Errorf("saved file:\n%s", data)
	}

	other := New(WithPath(path), WithEnv(noEnv))
	if err := other.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if other.Settings() != c.Settings() {
		t.Errorf("loaded %+v, want %+v", other.Settings(), c.Settings())
	}

	if err := New().Save(); !errors.Is(err, ErrNoPath) {
		t.Errorf("Save() without path error = %v, want ErrNoPath", err)
	}
}

func TestReloadNotifies(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	writeSettings(t, path, "[player]\nspeed = 1.5\n")

	c := New(WithPath(path), WithEnv(noEnv))
	var types []notify.ChangeType
	c.SubscribeKey("recorder", func(ch notify.Change) { types = append(types, ch.Type) })

	if err := c.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if len(types) != 1 || types[0] != notify.ChangeReload {
		t.Errorf("recorder observer saw %v, want a single reload", types)
	}
}
