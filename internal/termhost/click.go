package termhost

import (
	"time"

	"github.com/dshills/widgetmacro/internal/host"
)

// Double-click defaults.
const (
	DefaultDoubleClickTime     = 400 * time.Millisecond
	DefaultDoubleClickDistance = 1
)

// clickTracker detects double clicks from a stream of presses.
type clickTracker struct {
	maxTime     time.Duration
	maxDistance int

	lastPos    host.Point
	lastButton host.Button
	lastTime   time.Time
	lastCount  int
}

func newClickTracker(maxTime time.Duration, maxDistance int) *clickTracker {
	return &clickTracker{
		maxTime:     maxTime,
		maxDistance: maxDistance,
	}
}

// recordPress records a press and returns the click count, 1 or 2. The
// count starts over after a double click so a third press is single.
func (t *clickTracker) recordPress(pos host.Point, button host.Button, timestamp time.Time) int {
	if t.lastCount == 1 && t.isPartOfSequence(pos, button, timestamp) {
		t.lastCount = 2
	} else {
		t.lastCount = 1
	}
	t.lastPos = pos
	t.lastButton = button
	t.lastTime = timestamp
	return t.lastCount
}

func (t *clickTracker) isPartOfSequence(pos host.Point, button host.Button, timestamp time.Time) bool {
	if t.lastTime.IsZero() || button != t.lastButton {
		return false
	}

	// Clock skew starts a new sequence.
	elapsed := timestamp.Sub(t.lastTime)
	if elapsed < 0 || elapsed > t.maxTime {
		return false
	}

	return manhattan(pos, t.lastPos) <= t.maxDistance
}

func (t *clickTracker) reset() {
	t.lastCount = 0
	t.lastTime = time.Time{}
	t.lastPos = host.Point{}
	t.lastButton = host.ButtonNone
}

func manhattan(a, b host.Point) int {
	dx := a.X - b.X
	if dx < 0 {
		dx = -dx
	}
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}
