package host

import (
	"strconv"
	"strings"
	"unicode"
)

// Key is a toolkit-neutral key code. Printable keys use their upper-case
// Unicode code point; special keys live above KeySpecialBase.
type Key uint32

// KeySpecialBase is the first code used for non-printable keys.
const KeySpecialBase Key = 0x01000000

// Special keys.
const (
	KeyEscape Key = KeySpecialBase + iota
	KeyTab
	KeyBacktab
	KeyBackspace
	KeyReturn
	KeyEnter
	KeyInsert
	KeyDelete
	KeyPause
	KeyPrint
	KeySysReq
	KeyClear
	KeyHome
	KeyEnd
	KeyLeft
	KeyUp
	KeyRight
	KeyDown
	KeyPageUp
	KeyPageDown
)

// Function keys F1..F12.
const (
	KeyF1 Key = KeySpecialBase + 0x30 + iota
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// IsPrintable reports whether k encodes a printable character.
func (k Key) IsPrintable() bool {
	return k >= 0x20 && k < KeySpecialBase
}

// Rune returns the character for a printable key, or 0.
func (k Key) Rune() rune {
	if !k.IsPrintable() {
		return 0
	}
	return rune(k)
}

var keyNames = map[Key]string{
	KeyEscape:    "Escape",
	KeyTab:       "Tab",
	KeyBacktab:   "Backtab",
	KeyBackspace: "Backspace",
	KeyReturn:    "Return",
	KeyEnter:     "Enter",
	KeyInsert:    "Insert",
	KeyDelete:    "Delete",
	KeyPause:     "Pause",
	KeyPrint:     "Print",
	KeySysReq:    "SysReq",
	KeyClear:     "Clear",
	KeyHome:      "Home",
	KeyEnd:       "End",
	KeyLeft:      "Left",
	KeyUp:        "Up",
	KeyRight:     "Right",
	KeyDown:      "Down",
	KeyPageUp:    "PageUp",
	KeyPageDown:  "PageDown",
	' ':          "Space",
}

// String returns the key name: "Return", "F5", "Space" or the character
// itself for other printable keys.
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	if k >= KeyF1 && k <= KeyF12 {
		return "F" + strconv.Itoa(int(k-KeyF1)+1)
	}
	if k.IsPrintable() {
		return string(k.Rune())
	}
	return "0x" + strconv.FormatUint(uint64(k), 16)
}

// ParseKey is the inverse of Key.String. Names are matched without regard
// to case, and a single character names its printable key.
func ParseKey(name string) (Key, bool) {
	for k, n := range keyNames {
		if strings.EqualFold(n, name) {
			return k, true
		}
	}
	if len(name) >= 2 && (name[0] == 'F' || name[0] == 'f') {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 1 && n <= 12 {
			return KeyF1 + Key(n-1), true
		}
	}
	if r := []rune(name); len(r) == 1 && Key(r[0]).IsPrintable() {
		return Key(unicode.ToUpper(r[0])), true
	}
	return 0, false
}

// Modifiers is a bitmask of held keyboard modifiers.
type Modifiers uint32

// Modifier bits.
const (
	ModNone  Modifiers = 0
	ModShift Modifiers = 1 << (iota - 1)
	ModCtrl
	ModAlt
	ModMeta
)

// Has reports whether all bits of mod are set in m.
func (m Modifiers) Has(mod Modifiers) bool {
	return m&mod == mod && mod != 0
}

// String returns a "ctrl+shift" style representation.
func (m Modifiers) String() string {
	if m == ModNone {
		return "none"
	}
	var parts []string
	for _, mod := range []struct {
		bit  Modifiers
		name string
	}{
		{ModCtrl, "ctrl"},
		{ModAlt, "alt"},
		{ModShift, "shift"},
		{ModMeta, "meta"},
	} {
		if m&mod.bit != 0 {
			parts = append(parts, mod.name)
		}
	}
	return strings.Join(parts, "+")
}

// Button identifies a single mouse button. Values are distinct bits so a
// Button can be tested against a Buttons mask.
type Button uint32

// Mouse buttons.
const (
	ButtonNone    Button = 0
	ButtonLeft    Button = 1 << 0
	ButtonRight   Button = 1 << 1
	ButtonMiddle  Button = 1 << 2
	ButtonBack    Button = 1 << 3
	ButtonForward Button = 1 << 4
)

// String returns the button name.
func (b Button) String() string {
	switch b {
	case ButtonLeft:
		return "left"
	case ButtonRight:
		return "right"
	case ButtonMiddle:
		return "middle"
	case ButtonBack:
		return "back"
	case ButtonForward:
		return "forward"
	default:
		return "none"
	}
}

// Buttons is a bitmask of held mouse buttons.
type Buttons uint32

// NoButtons is the empty mask.
const NoButtons Buttons = 0

// Has reports whether b is held.
func (bs Buttons) Has(b Button) bool {
	return b != ButtonNone && bs&Buttons(b) != 0
}

// With returns the mask with b added.
func (bs Buttons) With(b Button) Buttons {
	return bs | Buttons(b)
}

// Without returns the mask with b removed.
func (bs Buttons) Without(b Button) Buttons {
	return bs &^ Buttons(b)
}

// EventKind classifies an observed input event.
type EventKind uint8

// Input event kinds.
const (
	EventNone EventKind = iota
	EventKeyPress
	EventKeyRelease
	EventMousePress
	EventMouseRelease
	EventMouseDoubleClick
	EventMouseMove
)

// String returns the kind name.
func (k EventKind) String() string {
	switch k {
	case EventKeyPress:
		return "key-press"
	case EventKeyRelease:
		return "key-release"
	case EventMousePress:
		return "mouse-press"
	case EventMouseRelease:
		return "mouse-release"
	case EventMouseDoubleClick:
		return "mouse-double-click"
	case EventMouseMove:
		return "mouse-move"
	default:
		return "none"
	}
}

// IsKey reports whether the kind is a keyboard event.
func (k EventKind) IsKey() bool {
	return k == EventKeyPress || k == EventKeyRelease
}

// IsMouse reports whether the kind is a mouse event.
func (k EventKind) IsMouse() bool {
	return k >= EventMousePress && k <= EventMouseMove
}

// InputEvent is an input event as seen by an application-level event filter.
type InputEvent struct {
	Kind   EventKind
	Target Widget

	// Keyboard fields.
	Key Key

	// Mouse fields. Button is the button that changed state (press,
	// release, double-click); Buttons is the mask held during the event.
	Button  Button
	Buttons Buttons
	Local   Point
	Global  Point

	Modifiers Modifiers
}
