package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for writes to settle
// before reloading.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a Config when its settings file changes.
type Watcher struct {
	mu sync.Mutex

	cfg      *Config
	fsw      *fsnotify.Watcher
	file     string
	debounce time.Duration
	onError  func(error)

	timer   *time.Timer
	reloads int

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithDebounce sets the settle delay.
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.debounce = d
		}
	}
}

// WithErrorHandler sets a function called with reload and watch errors.
func WithErrorHandler(fn func(error)) WatchOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// Watch starts watching the settings file. The file's directory is
// watched rather than the file, so editors that replace the file on
// save keep triggering reloads.
func (c *Config) Watch(opts ...WatchOption) (*Watcher, error) {
	path := c.Path()
	if path == "" {
		return nil, ErrNoPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		cfg:      c,
		fsw:      fsw,
		file:     abs,
		debounce: DefaultDebounce,
		closeCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.wg.Add(1)
	go w.processLoop()

	c.log().Debug("watching settings", "path", abs)
	return w, nil
}

// Reloads returns the number of reloads attempted.
func (w *Watcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

// Close stops the watcher. It is safe to call Close multiple times.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.file {
				continue
			}
			if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) ||
				ev.Op.Has(fsnotify.Remove) || ev.Op.Has(fsnotify.Rename) {
				w.schedule()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

// schedule restarts the settle timer.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.reloads++
	w.mu.Unlock()

	if err := w.cfg.Reload(); err != nil {
		w.cfg.log().Warn("settings reload failed", "path", w.file, "error", err)
		w.report(err)
		return
	}
	w.cfg.log().Info("settings reloaded", "path", w.file)
}

func (w *Watcher) report(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
