// Package app wires the widgetmacro components together: settings, the
// terminal host with its demo form, the macro recorder and player, and
// the macro library behind the form's macro panel.
//
// Every Application method that touches widgets or macros must run on the
// host loop. Headless callers drive the loop themselves with Wait.
package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/widgetmacro/internal/config"
	"github.com/dshills/widgetmacro/internal/config/notify"
	"github.com/dshills/widgetmacro/internal/logging"
	"github.com/dshills/widgetmacro/internal/loop"
	"github.com/dshills/widgetmacro/internal/macro"
	"github.com/dshills/widgetmacro/internal/termhost"
)

// DefaultLibraryFile is the file name used inside the macro directory.
const DefaultLibraryFile = "macros.json"

// Options configures the application.
type Options struct {
	// ConfigPath is the settings file. Empty disables the file layer.
	ConfigPath string

	// Watch reloads the settings file while Run is active.
	Watch bool

	// Screen is the terminal to run on. Nil runs headless.
	Screen tcell.Screen

	// Loop overrides the host loop, mainly for tests.
	Loop *loop.Loop

	// Logger overrides the logger built from the settings.
	Logger *logging.Logger

	// LogOutput receives log output when Logger is nil. Nil discards it.
	LogOutput io.Writer

	// LookupEnv overrides os.LookupEnv for settings overrides.
	LookupEnv func(string) (string, bool)
}

// Application is the central coordinator for all widgetmacro components.
type Application struct {
	opts Options

	logger *logging.Logger
	config *config.Config
	subs   []*notify.Subscription

	host     *termhost.Host
	form     *termhost.Form
	recorder *macro.Recorder
	player   *macro.Player
	library  *macro.Library
	lastID   int

	lastReport *macro.Report

	mu      sync.Mutex
	quit    context.CancelFunc
	watcher *config.Watcher
	running atomic.Bool
	closed  atomic.Bool
}

// New creates an Application with the given options.
func New(opts Options) (*Application, error) {
	app := &Application{opts: opts}
	if err := app.bootstrap(); err != nil {
		return nil, err
	}
	return app, nil
}

// bootstrap initializes all components in dependency order.
func (app *Application) bootstrap() error {
	// 1. Settings
	var cfgOpts []config.Option
	if app.opts.ConfigPath != "" {
		cfgOpts = append(cfgOpts, config.WithPath(app.opts.ConfigPath))
	}
	if app.opts.LookupEnv != nil {
		cfgOpts = append(cfgOpts, config.WithEnv(app.opts.LookupEnv))
	}
	// Settings decide the log format, so the config logs nowhere until
	// the application logger exists.
	cfgOpts = append(cfgOpts, config.WithLogger(logging.Discard().Logger))
	app.config = config.New(cfgOpts...)
	loadErr := app.config.Load()
	settings := app.config.Settings()

	// 2. Logger
	app.logger = app.opts.Logger
	if app.logger == nil {
		if app.opts.LogOutput == nil {
			app.logger = logging.Discard()
		} else {
			logger, err := logging.New(logging.Options{
				Level:  settings.Logging.Level,
				Format: settings.Logging.Format,
				Output: app.opts.LogOutput,
			})
			if err != nil {
				return NewComponentError("logging", "setup", err)
			}
			app.logger = logger
		}
	}
	app.config.SetLogger(app.logger.Logger)
	if loadErr != nil {
		// The defaults stay in effect.
		app.logger.Warn("settings not loaded", "path", app.opts.ConfigPath, "error", loadErr)
	}

	// 3. Host and demo form
	l := app.opts.Loop
	if l == nil {
		l = loop.New(loop.WithLogger(app.logger.Logger))
	}
	app.host = termhost.New(
		termhost.WithLoop(l),
		termhost.WithScreen(app.opts.Screen),
		termhost.WithLogger(app.logger.Logger),
	)
	app.form = termhost.NewForm(app.host)

	// 4. Macro components
	app.library = macro.NewLibrary()
	app.player = macro.NewPlayer(app.host,
		macro.WithSpeed(settings.Player.Speed),
		macro.WithPlayerLogger(app.logger.Logger),
	)
	app.player.OnPlaybackEnded(app.playbackEnded)
	app.recorder = app.newRecorder(settings)

	// 5. Wiring
	app.bindSettings()
	app.bindPanel()
	app.host.OnKey(app.handleKey)
	app.setStatus("idle")

	return nil
}

// newRecorder builds a recorder configured from s.
func (app *Application) newRecorder(s config.Settings) *macro.Recorder {
	opts := []macro.RecorderOption{
		macro.WithTrimTrailingMoves(s.Recorder.TrimTrailingMoves),
		macro.WithMoveInterpolation(s.Recorder.MoveEventInterpolationCount),
		macro.WithRecorderLogger(app.logger.Logger),
	}
	if s.Recorder.FilterMouseMovements {
		opts = append(opts, macro.WithPrimarySurface(app.form.Canvas))
	}
	rec := macro.NewRecorder(app.host, opts...)
	rec.AddWidgetToExclude(app.form.Panel)
	return rec
}

// Host returns the terminal host.
func (app *Application) Host() *termhost.Host { return app.host }

// Form returns the demo form.
func (app *Application) Form() *termhost.Form { return app.form }

// Config returns the settings.
func (app *Application) Config() *config.Config { return app.config }

// Library returns the macro library.
func (app *Application) Library() *macro.Library { return app.library }

// Player returns the macro player.
func (app *Application) Player() *macro.Player { return app.player }

// Logger returns the application logger.
func (app *Application) Logger() *logging.Logger { return app.logger }

// LastReport returns the report of the most recent playback, if any.
func (app *Application) LastReport() (macro.Report, bool) {
	if app.lastReport == nil {
		return macro.Report{}, false
	}
	return *app.lastReport, true
}

// Run shows the form on the screen and blocks until ctx is cancelled or
// Quit is called.
func (app *Application) Run(ctx context.Context) error {
	if app.closed.Load() {
		return ErrClosed
	}
	if !app.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer app.running.Store(false)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	app.mu.Lock()
	app.quit = cancel
	app.mu.Unlock()

	if app.opts.Watch && app.config.Path() != "" {
		if err := app.startWatcher(); err != nil {
			app.logger.Warn("settings watcher not started", "error", err)
		}
		defer app.stopWatcher()
	}

	app.logger.Info("application started")
	err := app.host.Run(ctx)
	app.logger.Info("application stopped")
	return err
}

// Quit stops a running application.
func (app *Application) Quit() {
	app.mu.Lock()
	defer app.mu.Unlock()
	if app.quit != nil {
		app.quit()
	}
}

// Wait runs the host loop until nothing is pending. It is how headless
// callers let playback and posted work complete.
func (app *Application) Wait() {
	app.host.RunUntilIdle()
}

// Close stops the settings watcher and releases the settings
// subscriptions. It is safe to call more than once.
func (app *Application) Close() error {
	if !app.closed.CompareAndSwap(false, true) {
		return nil
	}
	app.Quit()

	err := app.stopWatcher()
	for _, sub := range app.subs {
		sub.Unsubscribe()
	}
	app.subs = nil
	return err
}

func (app *Application) startWatcher() error {
	w, err := app.config.Watch(config.WithErrorHandler(func(err error) {
		app.host.Post(func() { app.setStatus(fmt.Sprintf("settings: %v", err)) })
	}))
	if err != nil {
		return NewComponentError("config", "watch", err)
	}
	app.mu.Lock()
	app.watcher = w
	app.mu.Unlock()
	return nil
}

func (app *Application) stopWatcher() error {
	app.mu.Lock()
	w := app.watcher
	app.watcher = nil
	app.mu.Unlock()
	if w == nil {
		return nil
	}
	if err := w.Close(); err != nil {
		return NewComponentError("config", "stop watcher", err)
	}
	return nil
}

// defaultLibraryPath returns where Save and Load go without a path.
func (app *Application) defaultLibraryPath() (string, error) {
	dir := app.config.Settings().Storage.MacroSavePath
	if dir == "" {
		var err error
		dir, err = macro.DefaultMacrosDir()
		if err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, DefaultLibraryFile), nil
}

// setStatus updates the status line and the panel label.
func (app *Application) setStatus(text string) {
	app.host.SetStatus("F2 record  F5 play  F10 quit  | " + text)
	app.form.PanelStatus.SetText(text)
}
