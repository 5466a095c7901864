package macro

import (
	"math"

	"github.com/dshills/widgetmacro/internal/host"
)

// Position is a recorded pointer location: Local is relative to the target
// widget's origin at record time, Global is the absolute screen coordinate.
type Position struct {
	Local  host.Point
	Global host.Point
}

// NewPosition builds a Position from a local and a global point.
func NewPosition(local, global host.Point) Position {
	return Position{Local: local, Global: global}
}

// PositionFromEvent captures the pointer location of an input event.
func PositionFromEvent(ev host.InputEvent) Position {
	return Position{Local: ev.Local, Global: ev.Global}
}

// truncEpsilon absorbs floating-point error before truncation so a value
// that should be exactly integral never drops to the integer below.
const truncEpsilon = 1e-9

// Interpolate resamples positions to exactly n points spread at equal
// arc-length intervals along the path, keeping the first and last points.
// Slices with at most n points (or n < 2) are returned unchanged.
//
// The arc-length parametrization is computed on the global path and
// applied to both coordinate spaces. Interpolated coordinates are truncated
// toward zero.
func Interpolate(positions []Position, n int) []Position {
	if n < 2 || len(positions) <= n {
		return positions
	}

	cumulative := make([]float64, len(positions))
	for i := 1; i < len(positions); i++ {
		cumulative[i] = cumulative[i-1] + segmentLength(positions[i-1].Global, positions[i].Global)
	}
	total := cumulative[len(cumulative)-1]

	out := make([]Position, 0, n)
	out = append(out, positions[0])

	seg := 0
	for k := 1; k < n-1; k++ {
		target := total * float64(k) / float64(n-1)
		for seg < len(positions)-2 && cumulative[seg+1] < target {
			seg++
		}
		span := cumulative[seg+1] - cumulative[seg]
		var t float64
		if span > 0 {
			t = (target - cumulative[seg]) / span
		}
		a, b := positions[seg], positions[seg+1]
		out = append(out, Position{
			Local:  lerp(a.Local, b.Local, t),
			Global: lerp(a.Global, b.Global, t),
		})
	}

	return append(out, positions[len(positions)-1])
}

func segmentLength(a, b host.Point) float64 {
	return math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
}

func lerp(a, b host.Point, t float64) host.Point {
	return host.Point{
		X: truncate(float64(a.X) + t*float64(b.X-a.X)),
		Y: truncate(float64(a.Y) + t*float64(b.Y-a.Y)),
	}
}

func truncate(v float64) int {
	if v >= 0 {
		return int(v + truncEpsilon)
	}
	return int(v - truncEpsilon)
}
