package macro

import (
	"slices"

	"github.com/dshills/widgetmacro/internal/host"
)

// Locator search bounds.
const (
	// MaximumNearestCandidates bounds how many same-class candidates are
	// examined per search level. The bound is inclusive, so one more than
	// this number is examined.
	MaximumNearestCandidates = 4

	// MaximumParentDepth bounds how many levels the search widens through
	// ancestors, counting the initial root as level 1.
	MaximumParentDepth = 7
)

// Locator re-identifies widgets after layout changes. The zero value uses
// the default bounds.
type Locator struct {
	MaxCandidates int
	MaxDepth      int
}

// DefaultLocator returns a Locator with the default bounds.
func DefaultLocator() Locator {
	return Locator{MaxCandidates: MaximumNearestCandidates, MaxDepth: MaximumParentDepth}
}

func (l Locator) maxCandidates() int {
	if l.MaxCandidates <= 0 {
		return MaximumNearestCandidates
	}
	return l.MaxCandidates
}

func (l Locator) maxDepth() int {
	if l.MaxDepth <= 0 {
		return MaximumParentDepth
	}
	return l.MaxDepth
}

// Match is a located widget and the search level that produced it.
type Match struct {
	Widget host.Widget
	// Depth is 1 when found under the initial root, 2 after widening to
	// its parent, and so on.
	Depth int
}

// Find searches root's visible descendants for the widget nearest target
// that matches spec, widening to ancestors when a level has no match.
func (l Locator) Find(spec WidgetSpec, target host.Point, root host.Widget) (Match, error) {
	limit := l.maxDepth()
	for depth := 1; root != nil; depth++ {
		if w := l.searchLevel(spec, target, root); w != nil {
			return Match{Widget: w, Depth: depth}, nil
		}
		if depth >= limit {
			break
		}
		root = root.Parent()
	}
	return Match{}, notFound(spec)
}

type candidate struct {
	widget host.Widget
	dist   int
}

func (l Locator) searchLevel(spec WidgetSpec, target host.Point, root host.Widget) host.Widget {
	var candidates []candidate
	for _, w := range visibleDescendants(root) {
		candidates = append(candidates, candidate{
			widget: w,
			dist:   target.DistanceSq(w.Geometry().Center()),
		})
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int {
		return a.dist - b.dist
	})

	examined := 0
	for _, c := range candidates {
		if c.widget.Class() != spec.WidgetClass {
			continue
		}
		if spec.Matches(c.widget) {
			return c.widget
		}
		examined++
		if examined > l.maxCandidates() {
			break
		}
	}
	return nil
}

// visibleDescendants lists root's descendants in depth-first discovery
// order, keeping those whose own visibility flag is set. Hidden widgets are
// still traversed.
func visibleDescendants(root host.Widget) []host.Widget {
	var out []host.Widget
	var walk func(w host.Widget)
	walk = func(w host.Widget) {
		for _, c := range w.Children() {
			if c.Visible() {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(root)
	return out
}

// Target is a widget resolved for playback together with the corrected
// coordinates to deliver input at.
type Target struct {
	Widget host.Widget
	Local  host.Point
	Global host.Point
	// Depth is 0 when the widget under the recorded point matched directly.
	Depth int
}

// Resolve finds the widget a positioned event should be delivered to.
//
// The widget under pos.Global is used when it matches spec. Otherwise the
// search starts at that widget's parent and the recorded local offset is
// re-applied to the located widget, falling back to its centre when the
// offset no longer fits inside it.
func (l Locator) Resolve(tree host.Tree, spec WidgetSpec, pos Position) (Target, error) {
	hit := tree.WidgetAt(pos.Global)
	if hit == nil {
		return Target{}, notFound(spec)
	}
	if spec.Matches(hit) {
		return Target{
			Widget: hit,
			Local:  host.MapFromGlobal(hit, pos.Global),
			Global: pos.Global,
		}, nil
	}

	root := hit.Parent()
	if root == nil {
		root = hit
	}
	m, err := l.Find(spec, pos.Global, root)
	if err != nil {
		return Target{}, err
	}

	geom := m.Widget.Geometry()
	local := pos.Local
	if !geom.ContainsLocal(local) {
		local = host.Point{X: geom.W / 2, Y: geom.H / 2}
	}
	return Target{
		Widget: m.Widget,
		Local:  local,
		Global: host.MapToGlobal(m.Widget, local),
		Depth:  m.Depth,
	}, nil
}
