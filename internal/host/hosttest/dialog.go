package hosttest

import "github.com/dshills/widgetmacro/internal/host"

// Dialog is a small form used across tests. Its layout (global
// coordinates with the default origin of (100,100)):
//
//	Dialog            (100,100) 300x260
//	  primary         (110,110) 280x40
//	    Click Me      (120,115) 120x30
//	    Click Me too  (250,115) 120x30
//	  secondary       (110,160) 280x40
//	    Apply         (120,165) 120x30
//	    Check Me      (250,165) 120x30
//	  form            (110,210) 280x140
//	    line_edit     (120,220) 200x20
//	    canvas        (120,250) 260x90
type Dialog struct {
	Window    *Widget
	Primary   *Widget
	Secondary *Widget
	Form      *Widget

	Button   *Widget
	Button2  *Widget
	Apply    *Widget
	CheckBox *Widget
	LineEdit *Widget
	Canvas   *Widget
}

// NewDialog builds the dialog and shows it on h.
func NewDialog(h *Host) *Dialog {
	d := &Dialog{
		Window:    NewWidget("Dialog", "Test dialog", host.Rect{X: 100, Y: 100, W: 300, H: 260}).SetName("dialog"),
		Primary:   Container("primary", host.Rect{X: 10, Y: 10, W: 280, H: 40}),
		Secondary: Container("secondary", host.Rect{X: 10, Y: 60, W: 280, H: 40}),
		Form:      Container("form", host.Rect{X: 10, Y: 110, W: 280, H: 140}),
		Button:    Button("Click Me", host.Rect{X: 10, Y: 5, W: 120, H: 30}),
		Button2:   Button("Click Me too", host.Rect{X: 140, Y: 5, W: 120, H: 30}),
		Apply:     Button("Apply", host.Rect{X: 10, Y: 5, W: 120, H: 30}),
		CheckBox:  NewWidget("CheckBox", "Check Me", host.Rect{X: 140, Y: 5, W: 120, H: 30}),
		LineEdit:  LineEdit("line_edit", host.Rect{X: 10, Y: 10, W: 200, H: 20}),
		Canvas:    NewWidget("Canvas", "", host.Rect{X: 10, Y: 40, W: 260, H: 90}).SetName("canvas"),
	}
	d.Primary.Add(d.Button, d.Button2)
	d.Secondary.Add(d.Apply, d.CheckBox)
	d.Form.Add(d.LineEdit, d.Canvas)
	d.Window.Add(d.Primary, d.Secondary, d.Form)
	h.AddWindow(d.Window)
	return d
}

// Center returns the local and global centre of w.
func Center(w *Widget) (local, global host.Point) {
	g := w.Geometry()
	local = host.Point{X: g.W / 2, Y: g.H / 2}
	return local, host.MapToGlobal(w, local)
}
