package mode

import (
	"time"

	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/prefs"
	"github.com/osuushi/wayedit/snap"
)

func snapConfig(p *prefs.Preferences) snap.Config {
	return snap.Config{
		Angles:            p.AngleSnap.Angles,
		Tolerance:         p.AngleSnap.Tolerance,
		SnapToProjections: p.AngleSnap.SnapToProjections,
	}
}

// dragGate tells a drag from a click: the pointer has to leave the threshold
// radius and the delay has to pass after the press.
type dragGate struct {
	start     geom.Point
	startTime time.Time
	delay     time.Duration
	threshold float64
	open      bool
}

func newDragGate(e PointerEvent, delay time.Duration, threshold int) dragGate {
	return dragGate{start: e.Point, startTime: e.Time, delay: delay, threshold: float64(threshold)}
}

// Whether the drag counts. Once open, the gate stays open.
func (g *dragGate) Pass(e PointerEvent) bool {
	if g.open {
		return true
	}
	if e.Time.Sub(g.startTime) < g.delay {
		return false
	}
	if e.Point.Distance(g.start) < g.threshold {
		return false
	}
	g.open = true
	return true
}

func primitives[T osm.Primitive](items []T) []osm.Primitive {
	result := make([]osm.Primitive, len(items))
	for i, item := range items {
		result[i] = item
	}
	return result
}

func indexOfWay(ways []*osm.Way, w *osm.Way) int {
	for i, other := range ways {
		if other == w {
			return i
		}
	}
	return -1
}

func countNode(w *osm.Way, n *osm.Node) int {
	count := 0
	for _, wn := range w.Nodes() {
		if wn == n {
			count++
		}
	}
	return count
}

func nodePositions(nodes []*osm.Node) []geom.EastNorth {
	result := make([]geom.EastNorth, len(nodes))
	for i, n := range nodes {
		result[i] = n.EastNorth()
	}
	return result
}
