// Package hosttest provides an in-memory host.Host for tests.
//
// The fake keeps a tree of Widgets, routes synthetic and simulated user
// input through installed event filters, and runs on a loop.Loop driven by
// a ManualClock so timing-dependent code is deterministic.
package hosttest

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
	"unicode"

	"github.com/dshills/widgetmacro/internal/host"
	"github.com/dshills/widgetmacro/internal/loop"
)

// Errors returned by the fake input methods.
var (
	ErrForeignWidget = errors.New("widget does not belong to this host")
	ErrDetached      = errors.New("widget is no longer attached")
)

// Call records one synthetic input request.
type Call struct {
	Method  string
	Target  *Widget
	Local   host.Point
	Release bool
}

// Host is a fake host.Host.
type Host struct {
	*loop.Loop
	Clock *loop.ManualClock

	windows []*Widget
	focus   *Widget
	pointer host.Point

	filters  map[int]host.EventFilter
	filterID int
	order    []int

	// Calls lists every Send*/Post* request in order.
	Calls []Call
	// Warps lists every pointer warp in order.
	Warps []host.Point
}

var _ host.Host = (*Host)(nil)

// New creates an empty host whose clock starts at a fixed instant.
func New() *Host {
	clock := loop.NewManualClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return &Host{
		Loop:    loop.New(loop.WithClock(clock), loop.WithLogger(logger)),
		Clock:   clock,
		filters: make(map[int]host.EventFilter),
	}
}

// AddWindow shows a top-level widget above existing ones.
func (h *Host) AddWindow(w *Widget) *Widget {
	w.parent = nil
	w.setAttached(true)
	h.windows = append(h.windows, w)
	return w
}

// CloseWindow removes a top-level widget and detaches its subtree.
func (h *Host) CloseWindow(w *Widget) {
	for i, win := range h.windows {
		if win == w {
			h.windows = append(h.windows[:i], h.windows[i+1:]...)
			break
		}
	}
	w.setAttached(false)
	if h.focus != nil && !h.focus.attached {
		h.focus = nil
	}
}

func (w *Widget) setAttached(v bool) {
	w.attached = v
	for _, c := range w.children {
		c.setAttached(v)
	}
}

// WidgetAt implements host.Tree.
func (h *Host) WidgetAt(global host.Point) host.Widget {
	for i := len(h.windows) - 1; i >= 0; i-- {
		if found := h.windows[i].hit(global); found != nil {
			return found
		}
	}
	return nil
}

// FocusWidget implements host.Tree.
func (h *Host) FocusWidget() host.Widget {
	if h.focus == nil {
		return nil
	}
	return h.focus
}

// SetFocus implements host.Input.
func (h *Host) SetFocus(w host.Widget) {
	fw, err := h.own(w)
	if err != nil {
		return
	}
	h.focus = fw
}

// WarpPointer implements host.Pointer.
func (h *Host) WarpPointer(global host.Point) {
	h.pointer = global
	h.Warps = append(h.Warps, global)
}

// PointerPos implements host.Pointer.
func (h *Host) PointerPos() host.Point {
	return h.pointer
}

// AddEventFilter implements host.EventSource.
func (h *Host) AddEventFilter(f host.EventFilter) func() {
	h.filterID++
	id := h.filterID
	h.filters[id] = f
	h.order = append(h.order, id)
	return func() {
		delete(h.filters, id)
		for i, v := range h.order {
			if v == id {
				h.order = append(h.order[:i], h.order[i+1:]...)
				break
			}
		}
	}
}

// FilterCount returns the number of installed event filters.
func (h *Host) FilterCount() int {
	return len(h.filters)
}

// SendKey implements host.Input.
func (h *Host) SendKey(w host.Widget, key host.Key, mods host.Modifiers, release bool) error {
	fw, err := h.own(w)
	if err != nil {
		return err
	}
	h.Calls = append(h.Calls, Call{Method: "SendKey", Target: fw, Release: release})
	kind := host.EventKeyPress
	if release {
		kind = host.EventKeyRelease
	}
	h.dispatch(host.InputEvent{Kind: kind, Target: fw, Key: key, Modifiers: mods})
	return nil
}

// SendMouseButton implements host.Input.
func (h *Host) SendMouseButton(w host.Widget, button host.Button, mods host.Modifiers, local host.Point, release bool) error {
	fw, err := h.own(w)
	if err != nil {
		return err
	}
	h.Calls = append(h.Calls, Call{Method: "SendMouseButton", Target: fw, Local: local, Release: release})
	kind := host.EventMousePress
	buttons := fw.pressed.With(button)
	if release {
		kind = host.EventMouseRelease
		buttons = fw.pressed.Without(button)
	}
	h.dispatch(host.InputEvent{
		Kind:      kind,
		Target:    fw,
		Button:    button,
		Buttons:   buttons,
		Local:     local,
		Global:    host.MapToGlobal(fw, local),
		Modifiers: mods,
	})
	return nil
}

// SendDoubleClick implements host.Input.
func (h *Host) SendDoubleClick(w host.Widget, button host.Button, mods host.Modifiers, local host.Point) error {
	fw, err := h.own(w)
	if err != nil {
		return err
	}
	h.Calls = append(h.Calls, Call{Method: "SendDoubleClick", Target: fw, Local: local})
	h.dispatch(host.InputEvent{
		Kind:      host.EventMouseDoubleClick,
		Target:    fw,
		Button:    button,
		Buttons:   host.Buttons(button),
		Local:     local,
		Global:    host.MapToGlobal(fw, local),
		Modifiers: mods,
	})
	return nil
}

// PostMouseMove implements host.Input. Delivery happens on the next loop
// pass, like a queued toolkit event.
func (h *Host) PostMouseMove(w host.Widget, local, global host.Point, buttons host.Buttons, mods host.Modifiers) error {
	fw, err := h.own(w)
	if err != nil {
		return err
	}
	h.Calls = append(h.Calls, Call{Method: "PostMouseMove", Target: fw, Local: local})
	h.Post(func() {
		h.dispatch(host.InputEvent{
			Kind:      host.EventMouseMove,
			Target:    fw,
			Buttons:   buttons,
			Local:     local,
			Global:    global,
			Modifiers: mods,
		})
	})
	return nil
}

// own converts w to a *Widget attached to this host.
func (h *Host) own(w host.Widget) (*Widget, error) {
	fw, ok := w.(*Widget)
	if !ok || fw == nil {
		return nil, fmt.Errorf("%w: %T", ErrForeignWidget, w)
	}
	if !fw.attached {
		return nil, fmt.Errorf("%w: %s", ErrDetached, host.Describe(fw))
	}
	return fw, nil
}

// dispatch runs the event filters and then the widget behaviour.
func (h *Host) dispatch(ev host.InputEvent) {
	for _, id := range append([]int(nil), h.order...) {
		if f, ok := h.filters[id]; ok {
			f(ev)
		}
	}

	w, ok := ev.Target.(*Widget)
	if !ok {
		return
	}
	switch ev.Kind {
	case host.EventMousePress:
		w.Presses++
		w.pressed = w.pressed.With(ev.Button)
		h.focus = w
	case host.EventMouseRelease:
		w.Releases++
		wasPressed := w.pressed.Has(ev.Button)
		w.pressed = w.pressed.Without(ev.Button)
		if wasPressed && w.geom.ContainsLocal(ev.Local) {
			w.Clicks++
			if w.OnClick != nil {
				w.OnClick()
			}
		}
	case host.EventMouseDoubleClick:
		w.DoubleClicks++
	case host.EventMouseMove:
		w.Moves = append(w.Moves, ev.Global)
		w.MoveButtons = append(w.MoveButtons, ev.Buttons)
	case host.EventKeyPress:
		w.Keys = append(w.Keys, ev.Key)
		if w.editable && ev.Key.IsPrintable() {
			r := ev.Key.Rune()
			if !ev.Modifiers.Has(host.ModShift) {
				r = unicode.ToLower(r)
			}
			w.text += string(r)
		} else if w.editable && ev.Key == host.KeyBackspace && w.text != "" {
			runes := []rune(w.text)
			w.text = string(runes[:len(runes)-1])
		}
	}
}

// UserPress simulates a physical button press at a point local to w.
func (h *Host) UserPress(w *Widget, local host.Point, button host.Button, mods host.Modifiers) {
	h.pointer = host.MapToGlobal(w, local)
	h.dispatch(host.InputEvent{
		Kind: host.EventMousePress, Target: w, Button: button,
		Buttons: w.pressed.With(button), Local: local, Global: h.pointer, Modifiers: mods,
	})
}

// UserRelease simulates a physical button release at a point local to w.
func (h *Host) UserRelease(w *Widget, local host.Point, button host.Button, mods host.Modifiers) {
	h.pointer = host.MapToGlobal(w, local)
	h.dispatch(host.InputEvent{
		Kind: host.EventMouseRelease, Target: w, Button: button,
		Buttons: w.pressed.Without(button), Local: local, Global: h.pointer, Modifiers: mods,
	})
}

// UserClick simulates a press followed by a release.
func (h *Host) UserClick(w *Widget, local host.Point, mods host.Modifiers) {
	h.UserPress(w, local, host.ButtonLeft, mods)
	h.UserRelease(w, local, host.ButtonLeft, mods)
}

// UserDoubleClick simulates the press, release, double-click, release
// sequence toolkits emit for a double click.
func (h *Host) UserDoubleClick(w *Widget, local host.Point, mods host.Modifiers) {
	h.UserClick(w, local, mods)
	h.dispatch(host.InputEvent{
		Kind: host.EventMouseDoubleClick, Target: w, Button: host.ButtonLeft,
		Buttons: host.Buttons(host.ButtonLeft), Local: local,
		Global: host.MapToGlobal(w, local), Modifiers: mods,
	})
	h.UserRelease(w, local, host.ButtonLeft, mods)
}

// UserKey simulates a key press or release on w.
func (h *Host) UserKey(w *Widget, key host.Key, mods host.Modifiers, release bool) {
	kind := host.EventKeyPress
	if release {
		kind = host.EventKeyRelease
	}
	h.dispatch(host.InputEvent{Kind: kind, Target: w, Key: key, Modifiers: mods})
}

// UserMove simulates pointer motion to a global point over w.
func (h *Host) UserMove(w *Widget, global host.Point, buttons host.Buttons, mods host.Modifiers) {
	h.pointer = global
	h.dispatch(host.InputEvent{
		Kind: host.EventMouseMove, Target: w, Buttons: buttons,
		Local: host.MapFromGlobal(w, global), Global: global, Modifiers: mods,
	})
}

// Elapse advances the fake clock by d without running any callbacks.
func (h *Host) Elapse(d time.Duration) {
	h.Clock.Advance(d)
}

// CallCount returns how many calls used the given method.
func (h *Host) CallCount(method string) int {
	n := 0
	for _, c := range h.Calls {
		if c.Method == method {
			n++
		}
	}
	return n
}
