package termhost

import (
	"github.com/dshills/widgetmacro/internal/host"
)

// Kind selects a widget's class and behaviour.
type Kind uint8

// Widget kinds.
const (
	KindContainer Kind = iota
	KindWindow
	KindLabel
	KindButton
	KindCheckBox
	KindLineEdit
	KindCanvas
)

// Class returns the class name reported through host.Widget.
func (k Kind) Class() string {
	switch k {
	case KindWindow:
		return "Window"
	case KindLabel:
		return "Label"
	case KindButton:
		return "Button"
	case KindCheckBox:
		return "CheckBox"
	case KindLineEdit:
		return "LineEdit"
	case KindCanvas:
		return "Canvas"
	default:
		return "Container"
	}
}

// focusable reports whether a press gives the widget keyboard focus.
func (k Kind) focusable() bool {
	return k == KindButton || k == KindCheckBox || k == KindLineEdit || k == KindCanvas
}

// Widget is a node in the terminal widget tree. Geometry is kept in
// global cell coordinates; Add converts a child's parent-relative rect.
type Widget struct {
	kind     Kind
	text     string
	name     string
	visible  bool
	rect     host.Rect
	parent   *Widget
	children []*Widget
	attached bool

	value    string
	pressed  host.Buttons
	checked  bool
	strokes  [][]host.Point
	stroking bool

	// OnClick runs after a press and release inside the widget, or when
	// a focused button or check box is activated from the keyboard.
	OnClick func()
	// OnChange runs after a line edit's value changes.
	OnChange func(value string)
}

var _ host.Widget = (*Widget)(nil)

func newWidget(kind Kind, text string, rect host.Rect) *Widget {
	return &Widget{kind: kind, text: text, rect: rect, visible: true}
}

// NewWindow creates a top-level window with a title.
func NewWindow(title string, rect host.Rect) *Widget {
	return newWidget(KindWindow, title, rect)
}

// NewContainer creates an unlabelled grouping widget.
func NewContainer(name string, rect host.Rect) *Widget {
	return newWidget(KindContainer, "", rect).SetName(name)
}

// NewLabel creates a static text widget.
func NewLabel(text string, rect host.Rect) *Widget {
	return newWidget(KindLabel, text, rect)
}

// NewButton creates a push button.
func NewButton(text string, rect host.Rect, onClick func()) *Widget {
	w := newWidget(KindButton, text, rect)
	w.OnClick = onClick
	return w
}

// NewCheckBox creates a toggle with a caption.
func NewCheckBox(text string, rect host.Rect) *Widget {
	return newWidget(KindCheckBox, text, rect)
}

// NewLineEdit creates a single-line text field. The edited content is its
// Value; it has no caption, so it is located by name.
func NewLineEdit(name string, rect host.Rect) *Widget {
	return newWidget(KindLineEdit, "", rect).SetName(name)
}

// NewCanvas creates a drawing surface that records drag strokes.
func NewCanvas(name string, rect host.Rect) *Widget {
	return newWidget(KindCanvas, "", rect).SetName(name)
}

// Kind returns the widget kind.
func (w *Widget) Kind() Kind { return w.kind }

// Class implements host.Widget.
func (w *Widget) Class() string { return w.kind.Class() }

// Text implements host.Widget.
func (w *Widget) Text() string { return w.text }

// Name implements host.Widget.
func (w *Widget) Name() string { return w.name }

// Visible implements host.Widget.
func (w *Widget) Visible() bool { return w.visible }

// Geometry implements host.Widget.
func (w *Widget) Geometry() host.Rect { return w.rect }

// Parent implements host.Widget.
func (w *Widget) Parent() host.Widget {
	if w.parent == nil {
		return nil
	}
	return w.parent
}

// Children implements host.Widget.
func (w *Widget) Children() []host.Widget {
	out := make([]host.Widget, len(w.children))
	for i, c := range w.children {
		out[i] = c
	}
	return out
}

// Attached reports whether the widget is part of a shown window.
func (w *Widget) Attached() bool { return w.attached }

// Add attaches children, converting their rects to global coordinates.
func (w *Widget) Add(children ...*Widget) *Widget {
	for _, c := range children {
		c.parent = w
		c.translate(w.rect.Origin())
		c.setAttached(w.attached)
		w.children = append(w.children, c)
	}
	return w
}

// SetName sets the object name.
func (w *Widget) SetName(name string) *Widget {
	w.name = name
	return w
}

// SetText replaces the caption.
func (w *Widget) SetText(text string) {
	w.text = text
}

// Value returns a line edit's content.
func (w *Widget) Value() string { return w.value }

// SetValue replaces a line edit's content without notifying OnChange.
func (w *Widget) SetValue(v string) {
	w.value = v
}

// SetVisible shows or hides the widget and its subtree.
func (w *Widget) SetVisible(v bool) {
	w.visible = v
}

// Move translates the widget and its subtree by d.
func (w *Widget) Move(d host.Point) {
	w.translate(d)
}

// Checked reports a check box's state.
func (w *Widget) Checked() bool { return w.checked }

// SetChecked sets a check box's state.
func (w *Widget) SetChecked(v bool) {
	w.checked = v
}

// Strokes returns a copy of the canvas strokes in local coordinates.
func (w *Widget) Strokes() [][]host.Point {
	out := make([][]host.Point, len(w.strokes))
	for i, s := range w.strokes {
		out[i] = append([]host.Point(nil), s...)
	}
	return out
}

// ClearStrokes erases the canvas.
func (w *Widget) ClearStrokes() {
	w.strokes = nil
	w.stroking = false
}

func (w *Widget) translate(d host.Point) {
	w.rect = w.rect.Translate(d)
	for _, c := range w.children {
		c.translate(d)
	}
}

func (w *Widget) setAttached(v bool) {
	w.attached = v
	for _, c := range w.children {
		c.setAttached(v)
	}
}

// hit returns the deepest visible widget containing p, preferring later
// siblings, which are drawn on top.
func (w *Widget) hit(p host.Point) *Widget {
	if !w.visible || !w.rect.Contains(p) {
		return nil
	}
	for i := len(w.children) - 1; i >= 0; i-- {
		if found := w.children[i].hit(p); found != nil {
			return found
		}
	}
	return w
}

func (w *Widget) find(label string) *Widget {
	if w.name == label || (w.text != "" && w.text == label) {
		return w
	}
	for _, c := range w.children {
		if found := c.find(label); found != nil {
			return found
		}
	}
	return nil
}

// Shown reports whether w and all its ancestors are visible.
func (w *Widget) Shown() bool {
	for cur := w; cur != nil; cur = cur.parent {
		if !cur.visible {
			return false
		}
	}
	return true
}
