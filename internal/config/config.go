package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/widgetmacro/internal/config/notify"
)

// EnvPrefix is the prefix of environment overrides. A key maps to its
// upper-cased form with dots replaced: player.speed → WIDGETMACRO_PLAYER_SPEED.
const EnvPrefix = "WIDGETMACRO_"

// Change sources.
const (
	SourceFile = "file"
	SourceEnv  = "env"
	SourceAPI  = "api"
)

// Config holds the current settings and notifies observers of changes.
type Config struct {
	mu sync.RWMutex

	settings Settings
	path     string

	notifier *notify.Notifier
	logger   atomic.Pointer[slog.Logger]

	// lookupEnv is os.LookupEnv outside tests
	lookupEnv func(string) (string, bool)
}

// Option configures a Config instance.
type Option func(*Config)

// WithPath sets the settings file path.
func WithPath(path string) Option {
	return func(c *Config) {
		c.path = path
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) {
		c.SetLogger(logger)
	}
}

// WithEnv replaces the environment lookup used for overrides.
func WithEnv(lookup func(string) (string, bool)) Option {
	return func(c *Config) {
		if lookup != nil {
			c.lookupEnv = lookup
		}
	}
}

// New creates a Config holding the default settings. Call Load to read
// the settings file and environment.
func New(opts ...Option) *Config {
	c := &Config{
		settings:  Defaults(),
		notifier:  notify.New(),
		lookupEnv: os.LookupEnv,
	}
	c.SetLogger(slog.Default())
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetLogger replaces the logger. Nil is ignored.
func (c *Config) SetLogger(logger *slog.Logger) {
	if logger != nil {
		c.logger.Store(logger.With("component", "config"))
	}
}

func (c *Config) log() *slog.Logger {
	return c.logger.Load()
}

// DefaultPath returns the default settings file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "widgetmacro", "settings.toml")
}

// Path returns the settings file path, or "" if none is set.
func (c *Config) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.path
}

// Settings returns a copy of the current settings.
func (c *Config) Settings() Settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings
}

// Get returns the current value of key.
func (c *Config) Get(key string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.settings.Get(key)
}

// Set changes one setting and notifies observers if the value changed.
func (c *Config) Set(key string, value any) error {
	c.mu.Lock()
	old, err := c.settings.Get(key)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if err := c.settings.Set(key, value); err != nil {
		c.mu.Unlock()
		return err
	}
	cur, _ := c.settings.Get(key)
	c.mu.Unlock()

	if old != cur {
		c.notifier.NotifySet(key, old, cur, SourceAPI)
	}
	return nil
}

// Subscribe registers an observer for all changes.
func (c *Config) Subscribe(observer notify.Observer) *notify.Subscription {
	return c.notifier.Subscribe(observer)
}

// SubscribeKey registers an observer for changes to key and the keys below it.
func (c *Config) SubscribeKey(key string, observer notify.Observer) *notify.Subscription {
	return c.notifier.SubscribeKey(key, observer)
}

// Load builds settings from the defaults, the settings file and the
// environment, in that order. A missing file is not an error. On
// failure the current settings are kept.
func (c *Config) Load() error {
	return c.load(false)
}

// Reload is Load followed by a reload notification.
func (c *Config) Reload() error {
	return c.load(true)
}

func (c *Config) load(reload bool) error {
	path := c.Path()

	next := Defaults()
	fromFile := map[string]bool{}
	if path != "" {
		keys, err := readFile(path, &next)
		if err != nil {
			return err
		}
		for _, k := range keys {
			fromFile[k] = true
		}
	}
	fromEnv, err := c.applyEnv(&next)
	if err != nil {
		return err
	}

	c.mu.Lock()
	prev := c.settings
	c.settings = next
	c.mu.Unlock()

	changed := prev.Diff(next)
	c.log().Debug("settings loaded", "path", path, "changed", len(changed), "env", len(fromEnv))
	for _, key := range changed {
		source := SourceFile
		if fromEnv[key] {
			source = SourceEnv
		}
		oldValue, _ := prev.Get(key)
		newValue, _ := next.Get(key)
		c.notifier.NotifySet(key, oldValue, newValue, source)
	}
	if reload {
		c.notifier.NotifyReload(SourceFile)
	}
	return nil
}

// readFile applies the settings in path to s and returns the keys it set.
func readFile(path string, s *Settings) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading settings file %s: %w", path, err)
	}

	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			pe.Line, pe.Column = de.Position()
		}
		return nil, pe
	}

	values := map[string]any{}
	flatten("", raw, values)

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := s.Set(key, values[key]); err != nil {
			return nil, fmt.Errorf("settings file %s: %w", path, err)
		}
	}
	return keys, nil
}

// flatten turns nested TOML tables into dotted keys.
func flatten(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := v.(map[string]any); ok {
			flatten(key, sub, out)
			continue
		}
		out[key] = v
	}
}

// EnvName returns the environment variable overriding key.
func EnvName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// applyEnv applies environment overrides to s and returns the keys set.
// Empty values are treated as set.
func (c *Config) applyEnv(s *Settings) (map[string]bool, error) {
	set := map[string]bool{}
	for _, key := range Keys() {
		name := EnvName(key)
		val, ok := c.lookupEnv(name)
		if !ok {
			continue
		}
		if err := s.Set(key, val); err != nil {
			return nil, fmt.Errorf("environment %s: %w", name, err)
		}
		set[key] = true
	}
	return set, nil
}

// Save writes the current settings to the settings file, creating its
// directory if needed.
func (c *Config) Save() error {
	path := c.Path()
	if path == "" {
		return ErrNoPath
	}
	data, err := toml.Marshal(c.Settings())
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing settings file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing settings file: %w", err)
	}
	c.log().Info("settings saved", "path", path)
	return nil
}
