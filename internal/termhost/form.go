package termhost

import (
	"github.com/dshills/widgetmacro/internal/host"
)

// Form is the demo application: a small data-entry window and a macro
// panel. Layout in cells:
//
//	Widget Macro Demo   (0,0)  60x18
//	  fields            (2,2)  56x5
//	    Name:           (2,2)  8x1
//	    name            (10,2) 30x1
//	    Subscribe       (2,4)  20x1
//	    Submit          (26,4) 12x1
//	    Clear           (40,4) 12x1
//	  result            (2,8)  56x1
//	  canvas            (2,10) 56x7
//	Macros              (61,0) 18x12
//	  Record            (62,2) 16x1
//	  Play              (62,4) 16x1
//	  Save              (62,6) 16x1
//	  panel_status      (62,8) 16x1
type Form struct {
	Window    *Widget
	Fields    *Widget
	NameLabel *Widget
	Name      *Widget
	Subscribe *Widget
	Submit    *Widget
	Clear     *Widget
	Result    *Widget
	Canvas    *Widget

	Panel       *Widget
	Record      *Widget
	Play        *Widget
	Save        *Widget
	PanelStatus *Widget
}

// NewForm builds the demo windows and shows them on h.
func NewForm(h *Host) *Form {
	f := &Form{
		Window:    NewWindow("Widget Macro Demo", host.Rect{X: 0, Y: 0, W: 60, H: 18}).SetName("demo"),
		Fields:    NewContainer("fields", host.Rect{X: 2, Y: 2, W: 56, H: 5}),
		NameLabel: NewLabel("Name:", host.Rect{X: 0, Y: 0, W: 8, H: 1}),
		Name:      NewLineEdit("name", host.Rect{X: 8, Y: 0, W: 30, H: 1}),
		Subscribe: NewCheckBox("Subscribe", host.Rect{X: 0, Y: 2, W: 20, H: 1}),
		Submit:    NewButton("Submit", host.Rect{X: 24, Y: 2, W: 12, H: 1}, nil),
		Clear:     NewButton("Clear", host.Rect{X: 38, Y: 2, W: 12, H: 1}, nil),
		Result:    NewLabel("", host.Rect{X: 2, Y: 8, W: 56, H: 1}).SetName("result"),
		Canvas:    NewCanvas("canvas", host.Rect{X: 2, Y: 10, W: 56, H: 7}),

		Panel:       NewWindow("Macros", host.Rect{X: 61, Y: 0, W: 18, H: 12}).SetName("panel"),
		Record:      NewButton("Record", host.Rect{X: 1, Y: 2, W: 16, H: 1}, nil),
		Play:        NewButton("Play", host.Rect{X: 1, Y: 4, W: 16, H: 1}, nil),
		Save:        NewButton("Save", host.Rect{X: 1, Y: 6, W: 16, H: 1}, nil),
		PanelStatus: NewLabel("idle", host.Rect{X: 1, Y: 8, W: 16, H: 1}).SetName("panel_status"),
	}

	f.Submit.OnClick = func() {
		msg := "Submitted: " + f.Name.Value()
		if f.Subscribe.Checked() {
			msg += " (subscribed)"
		}
		f.Result.SetText(msg)
	}
	f.Clear.OnClick = func() {
		f.Name.SetValue("")
		f.Subscribe.SetChecked(false)
		f.Result.SetText("")
		f.Canvas.ClearStrokes()
	}

	f.Fields.Add(f.NameLabel, f.Name, f.Subscribe, f.Submit, f.Clear)
	f.Window.Add(f.Fields, f.Result, f.Canvas)
	f.Panel.Add(f.Record, f.Play, f.Save, f.PanelStatus)

	h.AddWindow(f.Window)
	h.AddWindow(f.Panel)
	return f
}

// Reset restores the data-entry widgets to their initial state.
func (f *Form) Reset() {
	f.Clear.OnClick()
}

// Center returns the global centre of w.
func Center(w *Widget) host.Point {
	return w.Geometry().Center()
}
