package macro

import (
	"fmt"
	"log/slog"

	"github.com/dshills/widgetmacro/internal/host"
)

// Env is the environment events are performed in.
type Env struct {
	Host    host.Host
	Locator Locator
	Logger  *slog.Logger
}

func (env Env) logger() *slog.Logger {
	if env.Logger == nil {
		return slog.Default()
	}
	return env.Logger
}

// Perform executes ev against the host and calls done exactly once with
// the outcome. Key, button and double-click events finish before Perform
// returns; mouse moves perform their first step immediately and schedule
// the remaining steps on the host loop, one position per loop pass.
func Perform(env Env, ev Event, done func(error)) {
	switch e := ev.(type) {
	case KeyEvent:
		done(performKey(env, e))
	case MouseEvent:
		done(performMouse(env, e))
	case MouseDoubleClickEvent:
		done(performDoubleClick(env, e))
	case MouseMoveEvent:
		performMove(env, e, done)
	default:
		done(fmt.Errorf("macro: cannot perform %T", ev))
	}
}

// PerformSync runs ev to completion, driving the host loop until its
// continuation has run. It is meant for direct use without a Player.
func PerformSync(env Env, ev Event) error {
	var (
		result   error
		finished bool
	)
	Perform(env, ev, func(err error) {
		result = err
		finished = true
	})
	for !finished {
		env.Host.ProcessPendingEvents()
	}
	return result
}

func performKey(env Env, e KeyEvent) error {
	w := env.Host.FocusWidget()
	env.Host.ProcessPendingEvents()
	if w == nil {
		return notFound(e.WidgetSpec)
	}
	return env.Host.SendKey(w, e.Key, e.Modifiers, e.IsRelease)
}

// aim resolves the widget for a positioned event, focuses it and moves the
// pointer onto the corrected point.
func aim(env Env, spec WidgetSpec, pos Position) (Target, error) {
	target, err := env.Locator.Resolve(env.Host, spec, pos)
	if err != nil {
		return Target{}, err
	}
	if target.Depth > 0 {
		env.logger().Debug("widget relocated",
			"widget", spec.String(),
			"depth", target.Depth,
			"recorded", pos.Global.String(),
			"corrected", target.Global.String())
	}
	env.Host.SetFocus(target.Widget)
	env.Host.WarpPointer(target.Global)
	env.Host.ProcessPendingEvents()
	return target, nil
}

func performMouse(env Env, e MouseEvent) error {
	target, err := aim(env, e.WidgetSpec, e.Position)
	if err != nil {
		return err
	}
	return env.Host.SendMouseButton(target.Widget, e.Button, e.Modifiers, target.Local, e.IsRelease)
}

func performDoubleClick(env Env, e MouseDoubleClickEvent) error {
	target, err := aim(env, e.WidgetSpec, e.Position)
	if err != nil {
		return err
	}
	return env.Host.SendDoubleClick(target.Widget, e.Button, e.Modifiers, target.Local)
}

func performMove(env Env, e MouseMoveEvent, done func(error)) {
	if len(e.Positions) == 0 {
		done(nil)
		return
	}

	if !e.IsDrag() {
		// Hover traces do not need a widget; when the recorded widget can be
		// found the whole path is shifted by its displacement.
		var offset host.Point
		if target, err := env.Locator.Resolve(env.Host, e.WidgetSpec, e.Positions[0]); err == nil {
			offset = target.Global.Sub(e.Positions[0].Global)
		}
		steps(env.Host, len(e.Positions), func(i int) error {
			env.Host.WarpPointer(e.Positions[i].Global.Add(offset))
			env.Host.ProcessPendingEvents()
			return nil
		}, done)
		return
	}

	target, err := env.Locator.Resolve(env.Host, e.WidgetSpec, e.Positions[0])
	if err != nil {
		done(err)
		return
	}
	offset := target.Global.Sub(e.Positions[0].Global)
	w := target.Widget
	steps(env.Host, len(e.Positions), func(i int) error {
		global := e.Positions[i].Global.Add(offset)
		local := host.MapFromGlobal(w, global)
		if err := env.Host.PostMouseMove(w, local, global, e.Buttons, e.Modifiers); err != nil {
			return err
		}
		env.Host.ProcessPendingEvents()
		return nil
	}, done)
}

// steps runs step(0..n-1), the first immediately and each following one on
// a later loop pass, then reports to done. A failing or panicking step ends
// the sequence.
func steps(loop host.Loop, n int, step func(i int) error, done func(error)) {
	var run func(i int)
	run = func(i int) {
		if i >= n {
			done(nil)
			return
		}
		if err := safely(func() error { return step(i) }); err != nil {
			done(err)
			return
		}
		loop.AfterFunc(0, func() { run(i + 1) })
	}
	run(0)
}

// safely converts a panic in fn into a *PanicError.
func safely(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = &PanicError{Value: e}
				return
			}
			err = &PanicError{Value: r}
		}
	}()
	return fn()
}
