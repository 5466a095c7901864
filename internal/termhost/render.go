package termhost

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/widgetmacro/internal/host"
)

// Styles used by Draw.
var (
	styleWindow  = tcell.StyleDefault
	styleTitle   = tcell.StyleDefault.Bold(true)
	styleButton  = tcell.StyleDefault.Reverse(true)
	styleFocus   = tcell.StyleDefault.Reverse(true).Bold(true)
	styleEdit    = tcell.StyleDefault.Underline(true)
	styleCanvas  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleStroke  = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleStatus  = tcell.StyleDefault.Reverse(true)
	stylePointer = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
)

// Draw renders every window and the status line, then shows the screen.
// It does nothing without a screen.
func (h *Host) Draw() {
	if h.screen == nil {
		return
	}
	h.screen.Clear()
	h.screen.HideCursor()
	for _, win := range h.windows {
		h.drawWidget(win)
	}
	h.drawStatus()
	h.screen.Show()
}

func (h *Host) drawWidget(w *Widget) {
	if !w.visible {
		return
	}
	r := w.rect
	focused := w == h.focus

	switch w.kind {
	case KindWindow:
		h.fill(r, ' ', styleWindow)
		h.box(r, styleWindow)
		h.text(r.X+2, r.Y, r.W-4, " "+w.text+" ", styleTitle)
	case KindLabel:
		h.text(r.X, r.Y, r.W, w.text, tcell.StyleDefault)
	case KindButton:
		style := styleButton
		if focused {
			style = styleFocus
		}
		h.fill(r, ' ', style)
		label := "[ " + w.text + " ]"
		h.text(r.X+(r.W-len([]rune(label)))/2, r.Y+r.H/2, r.W, label, style)
	case KindCheckBox:
		mark := "[ ] "
		if w.checked {
			mark = "[x] "
		}
		style := tcell.StyleDefault
		if focused {
			style = styleFocus
		}
		h.text(r.X, r.Y+r.H/2, r.W, mark+w.text, style)
	case KindLineEdit:
		h.fill(r, '_', styleEdit)
		h.text(r.X, r.Y, r.W, w.value, styleEdit)
		if focused {
			h.screen.ShowCursor(r.X+min(len([]rune(w.value)), r.W-1), r.Y)
		}
	case KindCanvas:
		h.fill(r, '.', styleCanvas)
		for _, stroke := range w.strokes {
			for _, p := range stroke {
				g := host.MapToGlobal(w, p)
				if r.Contains(g) {
					h.screen.SetContent(g.X, g.Y, '*', nil, styleStroke)
				}
			}
		}
	}

	for _, c := range w.children {
		h.drawWidget(c)
	}
	if w.kind == KindWindow && r.Contains(h.pointer) {
		h.screen.SetContent(h.pointer.X, h.pointer.Y, '+', nil, stylePointer)
	}
}

func (h *Host) drawStatus() {
	if h.status == "" {
		return
	}
	width, height := h.screen.Size()
	y := height - 1
	for x := 0; x < width; x++ {
		h.screen.SetContent(x, y, ' ', nil, styleStatus)
	}
	h.text(0, y, width, h.status, styleStatus)
}

func (h *Host) fill(r host.Rect, ch rune, style tcell.Style) {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			h.screen.SetContent(x, y, ch, nil, style)
		}
	}
}

func (h *Host) box(r host.Rect, style tcell.Style) {
	if r.W < 2 || r.H < 2 {
		return
	}
	right, bottom := r.X+r.W-1, r.Y+r.H-1
	for x := r.X + 1; x < right; x++ {
		h.screen.SetContent(x, r.Y, tcell.RuneHLine, nil, style)
		h.screen.SetContent(x, bottom, tcell.RuneHLine, nil, style)
	}
	for y := r.Y + 1; y < bottom; y++ {
		h.screen.SetContent(r.X, y, tcell.RuneVLine, nil, style)
		h.screen.SetContent(right, y, tcell.RuneVLine, nil, style)
	}
	h.screen.SetContent(r.X, r.Y, tcell.RuneULCorner, nil, style)
	h.screen.SetContent(right, r.Y, tcell.RuneURCorner, nil, style)
	h.screen.SetContent(r.X, bottom, tcell.RuneLLCorner, nil, style)
	h.screen.SetContent(right, bottom, tcell.RuneLRCorner, nil, style)
}

// text draws s from (x,y), clipped to width cells.
func (h *Host) text(x, y, width int, s string, style tcell.Style) {
	i := 0
	for _, r := range s {
		if i >= width {
			return
		}
		h.screen.SetContent(x+i, y, r, nil, style)
		i++
	}
}
