package hosttest

import (
	"github.com/dshills/widgetmacro/internal/host"
)

// Widget is an in-memory widget. Geometry is stored in global coordinates;
// Add translates a child's rect from parent-relative to global.
type Widget struct {
	class    string
	text     string
	name     string
	visible  bool
	editable bool
	geom     host.Rect
	parent   *Widget
	children []*Widget
	attached bool

	pressed host.Buttons

	// Observed behaviour.
	Clicks       int
	DoubleClicks int
	Presses      int
	Releases     int
	Keys         []host.Key
	Moves        []host.Point
	MoveButtons  []host.Buttons

	// OnClick runs after a press+release pair on the widget.
	OnClick func()
}

// NewWidget creates a visible widget with a parent-relative rect.
func NewWidget(class, text string, rect host.Rect) *Widget {
	return &Widget{class: class, text: text, geom: rect, visible: true}
}

// Button creates a "Button" widget.
func Button(text string, rect host.Rect) *Widget {
	return NewWidget("Button", text, rect)
}

// Container creates an unlabelled "Container" widget.
func Container(name string, rect host.Rect) *Widget {
	w := NewWidget("Container", "", rect)
	w.name = name
	return w
}

// LineEdit creates an editable "LineEdit" widget.
func LineEdit(name string, rect host.Rect) *Widget {
	w := NewWidget("LineEdit", "", rect)
	w.name = name
	w.editable = true
	return w
}

// Add attaches children, converting their rects to global coordinates.
func (w *Widget) Add(children ...*Widget) *Widget {
	for _, c := range children {
		c.parent = w
		c.translate(w.geom.Origin())
		c.setAttached(w.attached)
		w.children = append(w.children, c)
	}
	return w
}

// SetName sets the stable object name.
func (w *Widget) SetName(name string) *Widget {
	w.name = name
	return w
}

// SetText replaces the caption.
func (w *Widget) SetText(text string) {
	w.text = text
}

// SetVisible toggles the widget's own visibility.
func (w *Widget) SetVisible(v bool) {
	w.visible = v
}

// Move translates the widget and its subtree by d.
func (w *Widget) Move(d host.Point) {
	w.translate(d)
}

// Resize changes width and height keeping the origin.
func (w *Widget) Resize(width, height int) {
	w.geom.W = width
	w.geom.H = height
}

func (w *Widget) translate(d host.Point) {
	w.geom = w.geom.Translate(d)
	for _, c := range w.children {
		c.translate(d)
	}
}

// Class implements host.Widget.
func (w *Widget) Class() string { return w.class }

// Text implements host.Widget.
func (w *Widget) Text() string { return w.text }

// Name implements host.Widget.
func (w *Widget) Name() string { return w.name }

// Visible implements host.Widget.
func (w *Widget) Visible() bool { return w.visible }

// Geometry implements host.Widget.
func (w *Widget) Geometry() host.Rect { return w.geom }

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

// root returns the top-level ancestor.
func (w *Widget) root() *Widget {
	cur := w
	for cur.parent != nil {
		cur = cur.parent
	}
	return cur
}

// hit returns the deepest visible widget in w's subtree containing p.
func (w *Widget) hit(p host.Point) *Widget {
	if !w.visible || !w.geom.Contains(p) {
		return nil
	}
	for i := len(w.children) - 1; i >= 0; i-- {
		if found := w.children[i].hit(p); found != nil {
			return found
		}
	}
	return w
}
