package script

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/widgetmacro/internal/host"
	"github.com/dshills/widgetmacro/internal/macro"
)

// Controller is what scripts drive. The application implements it.
//
// OnPlaybackEnded handlers must run on the goroutine that calls Wait and
// Pause, since the Lua state is not goroutine-safe. The application does
// this by running its host loop inside those calls.
type Controller interface {
	StartRecording() error
	StopRecording() macro.Macro
	IsRecording() bool
	IsPlaying() bool
	Play(name string) error
	Speed() float64
	SetSpeed(speed float64) error
	Macros() []macro.EntryInfo
	Save(path string) (string, error)
	Load(path string, replace bool) error
	OnPlaybackEnded(fn func(macro.Report)) (unsubscribe func())
	Wait()
	Pause(d time.Duration)

	Click(label string) error
	Type(text string)
	PressKey(key host.Key, mods host.Modifiers)
	Text(label string) (string, error)
	Checked(label string) (bool, error)
	ResetForm()
}

// Runner executes scripts against a Controller. A Runner keeps one Lua
// state, so globals set by one script are visible to the next.
//
// Runner is not safe for concurrent use.
type Runner struct {
	L      *lua.LState
	ctrl   Controller
	logger *slog.Logger
	out    io.Writer

	mu          sync.Mutex
	closed      bool
	unsubscribe []func()
	callbackErr error
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger for script output and callback failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithOutput redirects print. The default is standard output.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) {
		if w != nil {
			r.out = w
		}
	}
}

// New creates a runner with a restricted Lua state bound to ctrl.
func New(ctrl Controller, opts ...Option) *Runner {
	r := &Runner{
		ctrl:   ctrl,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.L = lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibraries(r.L)
	r.installPrint()
	r.register()
	return r
}

// openSafeLibraries opens the libraries scripts may use. io, os, debug
// and package stay closed.
func openSafeLibraries(L *lua.LState) {
	for _, open := range []lua.LGFunction{lua.OpenBase, lua.OpenTable, lua.OpenString, lua.OpenMath} {
		open(L)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
}

func (r *Runner) installPrint() {
	r.L.SetGlobal("print", r.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, n)
		for i := 1; i <= n; i++ {
			parts[i-1] = L.ToStringMeta(L.Get(i)).String()
		}
		fmt.Fprintln(r.out, strings.Join(parts, "\t"))
		return 0
	}))
}

// RunFile executes the script at path.
func (r *Runner) RunFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &Error{Chunk: path, Err: err}
	}
	return r.RunString(ctx, path, string(data))
}

// RunString executes code. chunk names it in errors. Cancelling ctx stops
// the script at its next instruction.
func (r *Runner) RunString(ctx context.Context, chunk, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}

	fn, err := r.L.Load(strings.NewReader(code), chunk)
	if err != nil {
		return &Error{Chunk: chunk, Err: err}
	}

	r.callbackErr = nil
	r.L.SetContext(ctx)
	defer r.L.RemoveContext()

	started := time.Now()
	r.logger.Debug("script started", "chunk", chunk)
	if err := r.protect(func() error {
		r.L.Push(fn)
		return r.L.PCall(0, lua.MultRet, nil)
	}); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = errors.Join(ctxErr, err)
		}
		r.logger.Debug("script failed", "chunk", chunk, "error", err)
		return &Error{Chunk: chunk, Err: err}
	}
	r.logger.Debug("script finished", "chunk", chunk, "duration", time.Since(started))
	if r.callbackErr != nil {
		return &Error{Chunk: chunk, Err: r.callbackErr}
	}
	return nil
}

// protect turns a Go panic during a Lua call into an error.
func (r *Runner) protect(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("lua panic: %v", rec)
		}
	}()
	return fn()
}

// Global returns a global variable, mainly for tests and embedding.
func (r *Runner) Global(name string) lua.LValue {
	return r.L.GetGlobal(name)
}

// Close unregisters playback handlers and releases the Lua state.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	for _, unsubscribe := range r.unsubscribe {
		unsubscribe()
	}
	r.unsubscribe = nil
	r.L.Close()
	return nil
}
