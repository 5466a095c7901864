package macro

import "github.com/dshills/widgetmacro/internal/host"

// WidgetSpec identifies "which widget" an event targets without relying on
// its position or instance identity.
type WidgetSpec struct {
	WidgetClass string
	Text        string
}

// NewWidgetSpec fingerprints a live widget.
func NewWidgetSpec(w host.Widget) WidgetSpec {
	if w == nil {
		return WidgetSpec{}
	}
	return WidgetSpec{WidgetClass: w.Class(), Text: WidgetText(w)}
}

// WidgetText returns the caption of w, falling back to its stable name.
func WidgetText(w host.Widget) string {
	if text := w.Text(); text != "" {
		return text
	}
	return w.Name()
}

// Matches reports whether w has the recorded class and text.
func (s WidgetSpec) Matches(w host.Widget) bool {
	if w == nil {
		return false
	}
	return w.Class() == s.WidgetClass && WidgetText(w) == s.Text
}

// String returns "Class(text)".
func (s WidgetSpec) String() string {
	return s.WidgetClass + "(" + s.Text + ")"
}
