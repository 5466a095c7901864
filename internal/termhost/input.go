package termhost

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/widgetmacro/internal/host"
)

// physicalButtons lists the buttons in the order their changes are
// reported when several change in one terminal event.
var physicalButtons = []host.Button{
	host.ButtonLeft,
	host.ButtonRight,
	host.ButtonMiddle,
	host.ButtonBack,
	host.ButtonForward,
}

// HandleEvent delivers a terminal event. It must run on the loop. It
// reports whether the event produced any input.
func (h *Host) HandleEvent(ev tcell.Event) bool {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return h.handleKey(e)
	case *tcell.EventMouse:
		return h.handleMouse(e)
	default:
		return false
	}
}

// handleKey delivers a key press and release to the focus widget.
// Terminals do not report releases, so both are generated together.
func (h *Host) handleKey(e *tcell.EventKey) bool {
	key, mods, ok := convertKey(e)
	if !ok {
		return false
	}
	if h.onKey != nil && h.onKey(key, mods) {
		return true
	}
	if h.focus == nil {
		return false
	}
	target := h.focus
	h.dispatch(host.InputEvent{Kind: host.EventKeyPress, Target: target, Key: key, Modifiers: mods})
	if target.attached {
		h.dispatch(host.InputEvent{Kind: host.EventKeyRelease, Target: target, Key: key, Modifiers: mods})
	}
	return true
}

// handleMouse turns a tcell mouse report into move, press, release and
// double-click events by comparing its button mask with the last one.
func (h *Host) handleMouse(e *tcell.EventMouse) bool {
	x, y := e.Position()
	pos := host.Pt(x, y)
	mods := convertMod(e.Modifiers())
	cur := convertButtons(e.Buttons())
	prev := h.buttons

	produced := false
	if pos != h.pointer {
		h.pointer = pos
		if target := h.mouseTarget(pos); target != nil {
			h.dispatch(host.InputEvent{
				Kind:      host.EventMouseMove,
				Target:    target,
				Buttons:   prev,
				Local:     host.MapFromGlobal(target, pos),
				Global:    pos,
				Modifiers: mods,
			})
			produced = true
		}
	}

	held := prev
	for _, b := range physicalButtons {
		was, is := prev.Has(b), cur.Has(b)
		if was == is {
			continue
		}
		if is {
			held = held.With(b)
			produced = h.press(pos, b, held, mods) || produced
		} else {
			held = held.Without(b)
			produced = h.release(pos, b, held, mods) || produced
		}
	}
	h.buttons = cur
	return produced
}

// mouseTarget returns the grabbing widget while buttons are held, else
// the widget under pos.
func (h *Host) mouseTarget(pos host.Point) *Widget {
	if h.grab != nil && h.grab.attached {
		return h.grab
	}
	return h.widgetAt(pos)
}

func (h *Host) press(pos host.Point, b host.Button, held host.Buttons, mods host.Modifiers) bool {
	target := h.mouseTarget(pos)
	if target == nil {
		h.clicks.reset()
		return false
	}
	if h.grab == nil {
		h.grab = target
	}

	kind := host.EventMousePress
	if h.clicks.recordPress(pos, b, h.Now()) == 2 {
		kind = host.EventMouseDoubleClick
	}
	h.dispatch(host.InputEvent{
		Kind:      kind,
		Target:    target,
		Button:    b,
		Buttons:   held,
		Local:     host.MapFromGlobal(target, pos),
		Global:    pos,
		Modifiers: mods,
	})
	return true
}

func (h *Host) release(pos host.Point, b host.Button, held host.Buttons, mods host.Modifiers) bool {
	target := h.mouseTarget(pos)
	if held == host.NoButtons {
		h.grab = nil
	}
	if target == nil {
		return false
	}
	h.dispatch(host.InputEvent{
		Kind:      host.EventMouseRelease,
		Target:    target,
		Button:    b,
		Buttons:   held,
		Local:     host.MapFromGlobal(target, pos),
		Global:    pos,
		Modifiers: mods,
	})
	return true
}

// convertKey maps a tcell key event to a host key. Letters are reported
// upper-case with ModShift set when the typed rune was upper-case.
func convertKey(e *tcell.EventKey) (host.Key, host.Modifiers, bool) {
	mods := convertMod(e.Modifiers())

	switch k := e.Key(); k {
	case tcell.KeyRune:
		r := e.Rune()
		if unicode.IsUpper(r) {
			mods |= host.ModShift
		}
		return host.Key(unicode.ToUpper(r)), mods, true
	case tcell.KeyEscape:
		return host.KeyEscape, mods, true
	case tcell.KeyTab:
		return host.KeyTab, mods, true
	case tcell.KeyBacktab:
		return host.KeyBacktab, mods, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return host.KeyBackspace, mods, true
	case tcell.KeyEnter:
		return host.KeyReturn, mods, true
	case tcell.KeyInsert:
		return host.KeyInsert, mods, true
	case tcell.KeyDelete:
		return host.KeyDelete, mods, true
	case tcell.KeyPause:
		return host.KeyPause, mods, true
	case tcell.KeyPrint:
		return host.KeyPrint, mods, true
	case tcell.KeyClear:
		return host.KeyClear, mods, true
	case tcell.KeyHome:
		return host.KeyHome, mods, true
	case tcell.KeyEnd:
		return host.KeyEnd, mods, true
	case tcell.KeyLeft:
		return host.KeyLeft, mods, true
	case tcell.KeyUp:
		return host.KeyUp, mods, true
	case tcell.KeyRight:
		return host.KeyRight, mods, true
	case tcell.KeyDown:
		return host.KeyDown, mods, true
	case tcell.KeyPgUp:
		return host.KeyPageUp, mods, true
	case tcell.KeyPgDn:
		return host.KeyPageDown, mods, true
	default:
		if k >= tcell.KeyF1 && k <= tcell.KeyF12 {
			return host.KeyF1 + host.Key(k-tcell.KeyF1), mods, true
		}
		if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
			return host.Key('A' + (k - tcell.KeyCtrlA)), mods | host.ModCtrl, true
		}
		return 0, mods, false
	}
}

// toTcellKey maps a host key back to a tcell key and rune.
func toTcellKey(key host.Key, mods host.Modifiers) (tcell.Key, rune, tcell.ModMask) {
	tm := toTcellMod(mods)
	switch {
	case key.IsPrintable():
		r := key.Rune()
		if !mods.Has(host.ModShift) {
			r = unicode.ToLower(r)
		}
		return tcell.KeyRune, r, tm &^ tcell.ModShift
	case key >= host.KeyF1 && key <= host.KeyF12:
		return tcell.KeyF1 + tcell.Key(key-host.KeyF1), 0, tm
	}
	switch key {
	case host.KeyEscape:
		return tcell.KeyEscape, 0, tm
	case host.KeyTab:
		return tcell.KeyTab, 0, tm
	case host.KeyBackspace:
		return tcell.KeyBackspace2, 0, tm
	case host.KeyReturn, host.KeyEnter:
		return tcell.KeyEnter, 0, tm
	case host.KeyLeft:
		return tcell.KeyLeft, 0, tm
	case host.KeyRight:
		return tcell.KeyRight, 0, tm
	case host.KeyUp:
		return tcell.KeyUp, 0, tm
	case host.KeyDown:
		return tcell.KeyDown, 0, tm
	default:
		return tcell.KeyNUL, 0, tm
	}
}

func convertMod(m tcell.ModMask) host.Modifiers {
	var result host.Modifiers
	if m&tcell.ModShift != 0 {
		result |= host.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		result |= host.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		result |= host.ModAlt
	}
	if m&tcell.ModMeta != 0 {
		result |= host.ModMeta
	}
	return result
}

func toTcellMod(m host.Modifiers) tcell.ModMask {
	var result tcell.ModMask
	if m.Has(host.ModShift) {
		result |= tcell.ModShift
	}
	if m.Has(host.ModCtrl) {
		result |= tcell.ModCtrl
	}
	if m.Has(host.ModAlt) {
		result |= tcell.ModAlt
	}
	if m.Has(host.ModMeta) {
		result |= tcell.ModMeta
	}
	return result
}

// convertButtons maps a tcell button mask to host buttons. Wheel bits
// are dropped.
func convertButtons(b tcell.ButtonMask) host.Buttons {
	result := host.NoButtons
	if b&tcell.ButtonPrimary != 0 {
		result = result.With(host.ButtonLeft)
	}
	if b&tcell.ButtonSecondary != 0 {
		result = result.With(host.ButtonRight)
	}
	if b&tcell.ButtonMiddle != 0 {
		result = result.With(host.ButtonMiddle)
	}
	if b&tcell.Button4 != 0 {
		result = result.With(host.ButtonBack)
	}
	if b&tcell.Button5 != 0 {
		result = result.With(host.ButtonForward)
	}
	return result
}

func toTcellButtons(bs host.Buttons) tcell.ButtonMask {
	result := tcell.ButtonNone
	if bs.Has(host.ButtonLeft) {
		result |= tcell.ButtonPrimary
	}
	if bs.Has(host.ButtonRight) {
		result |= tcell.ButtonSecondary
	}
	if bs.Has(host.ButtonMiddle) {
		result |= tcell.ButtonMiddle
	}
	if bs.Has(host.ButtonBack) {
		result |= tcell.Button4
	}
	if bs.Has(host.ButtonForward) {
		result |= tcell.Button5
	}
	return result
}

// UserKey feeds a key through the terminal input path as if it were typed.
func (h *Host) UserKey(key host.Key, mods host.Modifiers) bool {
	k, r, m := toTcellKey(key, mods)
	return h.HandleEvent(tcell.NewEventKey(k, r, m))
}

// UserType types each rune of text through UserKey.
func (h *Host) UserType(text string) {
	for _, r := range text {
		var mods host.Modifiers
		if unicode.IsUpper(r) {
			mods = host.ModShift
		}
		h.UserKey(host.Key(unicode.ToUpper(r)), mods)
	}
}

// UserMouse feeds a terminal mouse report: the pointer is at global with
// buttons held.
func (h *Host) UserMouse(global host.Point, buttons host.Buttons, mods host.Modifiers) bool {
	return h.HandleEvent(tcell.NewEventMouse(global.X, global.Y, toTcellButtons(buttons), toTcellMod(mods)))
}

// UserClick moves to global and clicks the left button there.
func (h *Host) UserClick(global host.Point, mods host.Modifiers) {
	h.UserMouse(global, host.NoButtons, mods)
	h.UserMouse(global, host.Buttons(host.ButtonLeft), mods)
	h.UserMouse(global, host.NoButtons, mods)
}
