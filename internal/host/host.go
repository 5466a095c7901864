package host

import "time"

// Widget is a live node in the host's widget tree. Implementations must
// return a nil interface (not a typed nil) from Parent for top-level widgets.
type Widget interface {
	// Class is the runtime class identifier (e.g. "QPushButton", "Button").
	Class() string
	// Text is the display caption, or "" if the widget has none.
	Text() string
	// Name is the stable internal object name, or "".
	Name() string
	// Visible reports the widget's own visibility state.
	Visible() bool
	// Geometry is the bounding box in global coordinates.
	Geometry() Rect
	// Parent returns the parent widget, or nil for a top-level widget.
	Parent() Widget
	// Children returns the direct children in stacking order.
	Children() []Widget
}

// Tree answers queries about the live widget tree.
type Tree interface {
	// WidgetAt returns the topmost visible widget at a global point, or nil.
	WidgetAt(global Point) Widget
	// FocusWidget returns the widget holding keyboard focus, or nil.
	FocusWidget() Widget
}

// Input synthesizes input against specific widgets.
type Input interface {
	SetFocus(w Widget)
	SendKey(w Widget, key Key, mods Modifiers, release bool) error
	SendMouseButton(w Widget, button Button, mods Modifiers, local Point, release bool) error
	SendDoubleClick(w Widget, button Button, mods Modifiers, local Point) error
	// PostMouseMove queues a synthetic move event for w. It does not move
	// the system pointer.
	PostMouseMove(w Widget, local, global Point, buttons Buttons, mods Modifiers) error
}

// Pointer controls the system pointer.
type Pointer interface {
	WarpPointer(global Point)
	PointerPos() Point
}

// Loop is the host's cooperative event loop.
type Loop interface {
	// ProcessPendingEvents runs whatever work is ready without blocking.
	ProcessPendingEvents()
	// AfterFunc schedules fn on the loop after d has elapsed.
	AfterFunc(d time.Duration, fn func())
	// Now returns the loop's monotonic clock reading.
	Now() time.Time
}

// EventFilter observes input before it reaches its target widget.
type EventFilter func(ev InputEvent)

// EventSource lets observers see all input delivered in the application.
type EventSource interface {
	// AddEventFilter installs f and returns a function removing it.
	AddEventFilter(f EventFilter) (remove func())
}

// Host is the full capability set consumed by the macro engine.
type Host interface {
	Tree
	Input
	Pointer
	Loop
	EventSource
}

// MapFromGlobal converts a global point into w's local coordinates.
func MapFromGlobal(w Widget, global Point) Point {
	return global.Sub(w.Geometry().Origin())
}

// MapToGlobal converts a point local to w into global coordinates.
func MapToGlobal(w Widget, local Point) Point {
	return local.Add(w.Geometry().Origin())
}

// IsAncestor reports whether ancestor is w itself or one of its parents.
func IsAncestor(ancestor, w Widget) bool {
	if ancestor == nil {
		return false
	}
	for cur := w; cur != nil; cur = cur.Parent() {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Describe returns a short "Class(text)" label for logging.
func Describe(w Widget) string {
	if w == nil {
		return "<nil>"
	}
	label := w.Text()
	if label == "" {
		label = w.Name()
	}
	return w.Class() + "(" + label + ")"
}
