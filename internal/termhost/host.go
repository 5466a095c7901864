// Package termhost implements host.Host as a small terminal widget toolkit
// on top of tcell.
//
// Widgets live in windows laid out in cell coordinates. Input read from
// the terminal and input synthesized through the host.Input methods take
// the same path: installed event filters see the event first, then the
// target widget reacts to it. Everything runs on a loop.Loop; the tcell
// event pump only posts work to it.
package termhost

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/widgetmacro/internal/host"
	"github.com/dshills/widgetmacro/internal/loop"
)

// Errors returned by the input methods.
var (
	ErrForeignWidget = errors.New("widget does not belong to this host")
	ErrDetached      = errors.New("widget is no longer attached")
	ErrNoScreen      = errors.New("host has no screen")
)

// KeyHandler sees physical key presses before they are delivered. It
// returns true to consume the key.
type KeyHandler func(key host.Key, mods host.Modifiers) bool

type filterEntry struct {
	id int
	fn host.EventFilter
}

// Host is a terminal host.Host.
type Host struct {
	*loop.Loop

	screen tcell.Screen
	logger *slog.Logger

	windows []*Widget
	focus   *Widget
	pointer host.Point

	filters  []filterEntry
	filterID int

	// Physical mouse state.
	buttons host.Buttons
	grab    *Widget
	clicks  *clickTracker

	onKey  KeyHandler
	status string
}

var _ host.Host = (*Host)(nil)

// Option configures a Host.
type Option func(*Host)

// WithLoop sets the loop the host runs on.
func WithLoop(l *loop.Loop) Option {
	return func(h *Host) {
		if l != nil {
			h.Loop = l
		}
	}
}

// WithScreen sets the screen used for input and drawing.
func WithScreen(s tcell.Screen) Option {
	return func(h *Host) {
		h.screen = s
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithDoubleClick sets the double-click thresholds.
func WithDoubleClick(maxTime time.Duration, maxDistance int) Option {
	return func(h *Host) {
		h.clicks = newClickTracker(maxTime, maxDistance)
	}
}

// New creates a host with no windows.
func New(opts ...Option) *Host {
	h := &Host{
		logger: slog.Default(),
		clicks: newClickTracker(DefaultDoubleClickTime, DefaultDoubleClickDistance),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.Loop == nil {
		h.Loop = loop.New(loop.WithLogger(h.logger))
	}
	h.logger = h.logger.With("component", "termhost")
	return h
}

// Screen returns the screen, or nil.
func (h *Host) Screen() tcell.Screen {
	return h.screen
}

// OnKey installs the key handler.
func (h *Host) OnKey(fn KeyHandler) {
	h.onKey = fn
}

// SetStatus sets the status line text.
func (h *Host) SetStatus(text string) {
	h.status = text
}

// Status returns the status line text.
func (h *Host) Status() string {
	return h.status
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
	if h.grab != nil && !h.grab.attached {
		h.grab = nil
	}
}

// Windows returns the shown windows, bottom first.
func (h *Host) Windows() []*Widget {
	return append([]*Widget(nil), h.windows...)
}

// WidgetAt implements host.Tree.
func (h *Host) WidgetAt(global host.Point) host.Widget {
	if w := h.widgetAt(global); w != nil {
		return w
	}
	return nil
}

func (h *Host) widgetAt(global host.Point) *Widget {
	for i := len(h.windows) - 1; i >= 0; i-- {
		if found := h.windows[i].hit(global); found != nil {
			return found
		}
	}
	return nil
}

// Find returns the first widget, in window and then depth-first order,
// whose name or caption is label.
func (h *Host) Find(label string) *Widget {
	if label == "" {
		return nil
	}
	for _, win := range h.windows {
		if w := win.find(label); w != nil {
			return w
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
	tw, err := h.own(w)
	if err != nil {
		h.logger.Debug("focus request ignored", "widget", host.Describe(w), "error", err)
		return
	}
	h.focus = tw
}

// WarpPointer implements host.Pointer. A terminal cannot move the real
// mouse, so only the tracked position changes.
func (h *Host) WarpPointer(global host.Point) {
	h.pointer = global
}

// PointerPos implements host.Pointer.
func (h *Host) PointerPos() host.Point {
	return h.pointer
}

// AddEventFilter implements host.EventSource. Filters run in install order.
func (h *Host) AddEventFilter(f host.EventFilter) func() {
	h.filterID++
	id := h.filterID
	h.filters = append(h.filters, filterEntry{id: id, fn: f})
	return func() {
		for i, e := range h.filters {
			if e.id == id {
				h.filters = append(h.filters[:i], h.filters[i+1:]...)
				return
			}
		}
	}
}

// SendKey implements host.Input.
func (h *Host) SendKey(w host.Widget, key host.Key, mods host.Modifiers, release bool) error {
	tw, err := h.own(w)
	if err != nil {
		return err
	}
	kind := host.EventKeyPress
	if release {
		kind = host.EventKeyRelease
	}
	h.dispatch(host.InputEvent{Kind: kind, Target: tw, Key: key, Modifiers: mods})
	return nil
}

// SendMouseButton implements host.Input.
func (h *Host) SendMouseButton(w host.Widget, button host.Button, mods host.Modifiers, local host.Point, release bool) error {
	tw, err := h.own(w)
	if err != nil {
		return err
	}
	kind := host.EventMousePress
	buttons := tw.pressed.With(button)
	if release {
		kind = host.EventMouseRelease
		buttons = tw.pressed.Without(button)
	}
	h.dispatch(host.InputEvent{
		Kind:      kind,
		Target:    tw,
		Button:    button,
		Buttons:   buttons,
		Local:     local,
		Global:    host.MapToGlobal(tw, local),
		Modifiers: mods,
	})
	return nil
}

// SendDoubleClick implements host.Input.
func (h *Host) SendDoubleClick(w host.Widget, button host.Button, mods host.Modifiers, local host.Point) error {
	tw, err := h.own(w)
	if err != nil {
		return err
	}
	h.dispatch(host.InputEvent{
		Kind:      host.EventMouseDoubleClick,
		Target:    tw,
		Button:    button,
		Buttons:   tw.pressed.With(button),
		Local:     local,
		Global:    host.MapToGlobal(tw, local),
		Modifiers: mods,
	})
	return nil
}

// PostMouseMove implements host.Input. Delivery happens on a later loop
// pass.
func (h *Host) PostMouseMove(w host.Widget, local, global host.Point, buttons host.Buttons, mods host.Modifiers) error {
	tw, err := h.own(w)
	if err != nil {
		return err
	}
	h.Post(func() {
		if !tw.attached {
			return
		}
		h.dispatch(host.InputEvent{
			Kind:      host.EventMouseMove,
			Target:    tw,
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
	tw, ok := w.(*Widget)
	if !ok || tw == nil {
		return nil, fmt.Errorf("%w: %T", ErrForeignWidget, w)
	}
	if !tw.attached {
		return nil, fmt.Errorf("%w: %s", ErrDetached, host.Describe(tw))
	}
	return tw, nil
}

// dispatch runs the event filters and then the widget behaviour.
func (h *Host) dispatch(ev host.InputEvent) {
	for _, e := range append([]filterEntry(nil), h.filters...) {
		e.fn(ev)
	}
	if w, ok := ev.Target.(*Widget); ok {
		h.react(w, ev)
	}
}

// react applies a widget's behaviour to an event.
func (h *Host) react(w *Widget, ev host.InputEvent) {
	switch ev.Kind {
	case host.EventMousePress, host.EventMouseDoubleClick:
		w.pressed = w.pressed.With(ev.Button)
		if w.kind.focusable() {
			h.focus = w
		}
		if w.kind == KindCanvas && ev.Button == host.ButtonLeft {
			w.strokes = append(w.strokes, []host.Point{ev.Local})
			w.stroking = true
		}

	case host.EventMouseRelease:
		wasPressed := w.pressed.Has(ev.Button)
		w.pressed = w.pressed.Without(ev.Button)
		if w.kind == KindCanvas && ev.Button == host.ButtonLeft {
			w.stroking = false
		}
		if wasPressed && w.rect.ContainsLocal(ev.Local) {
			h.activate(w)
		}

	case host.EventMouseMove:
		if w.kind == KindCanvas && w.stroking && ev.Buttons.Has(host.ButtonLeft) {
			last := len(w.strokes) - 1
			w.strokes[last] = append(w.strokes[last], ev.Local)
		}

	case host.EventKeyPress:
		switch w.kind {
		case KindLineEdit:
			h.edit(w, ev.Key, ev.Modifiers)
		case KindButton, KindCheckBox:
			if ev.Key == ' ' || ev.Key == host.KeyReturn || ev.Key == host.KeyEnter {
				h.activate(w)
			}
		}
	}
}

func (h *Host) activate(w *Widget) {
	if w.kind == KindCheckBox {
		w.checked = !w.checked
	}
	if w.OnClick != nil {
		w.OnClick()
	}
}

func (h *Host) edit(w *Widget, key host.Key, mods host.Modifiers) {
	before := w.value
	switch {
	case key.IsPrintable() && !mods.Has(host.ModCtrl) && !mods.Has(host.ModAlt):
		r := key.Rune()
		if !mods.Has(host.ModShift) {
			r = unicode.ToLower(r)
		}
		w.value += string(r)
	case key == host.KeyBackspace && w.value != "":
		runes := []rune(w.value)
		w.value = string(runes[:len(runes)-1])
	}
	if w.value != before && w.OnChange != nil {
		w.OnChange(w.value)
	}
}
