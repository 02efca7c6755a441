// Package view maps between screen pixels and projected coordinates and finds
// the primitives under the cursor.
package view

import (
	"math"
	"sort"

	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
)

// DefaultSnapDistance is the pick radius in pixels when none is configured.
const DefaultSnapDistance = 10

// MapView is a north-up viewport. Scale is the number of east/north units per
// pixel; Center is shown in the middle of the Width x Height screen.
type MapView struct {
	Center geom.EastNorth
	Scale  float64
	Width  int
	Height int

	// Pick radius in pixels for the nearest queries
	SnapDistance float64
}

func New(center geom.EastNorth, scale float64, width, height int) *MapView {
	return &MapView{
		Center:       center,
		Scale:        scale,
		Width:        width,
		Height:       height,
		SnapDistance: DefaultSnapDistance,
	}
}

func (v *MapView) EastNorth(p geom.Point) geom.EastNorth {
	return geom.EastNorth{
		East:  v.Center.East + (p.X-float64(v.Width)/2)*v.Scale,
		North: v.Center.North - (p.Y-float64(v.Height)/2)*v.Scale,
	}
}

func (v *MapView) Point(en geom.EastNorth) geom.Point {
	return geom.Point{
		X: float64(v.Width)/2 + (en.East-v.Center.East)/v.Scale,
		Y: float64(v.Height)/2 - (en.North-v.Center.North)/v.Scale,
	}
}

func (v *MapView) NodePoint(n *osm.Node) geom.Point {
	return v.Point(n.EastNorth())
}

// Length in east/north units of 100 pixels.
func (v *MapView) Dist100Pixel() float64 {
	return 100 * v.Scale
}

// The visible area.
func (v *MapView) Bounds() geom.Bounds {
	return geom.NewBounds(
		v.EastNorth(geom.Point{}),
		v.EastNorth(geom.Point{X: float64(v.Width), Y: float64(v.Height)}),
	)
}

// Move the viewport so that en is at the center.
func (v *MapView) ZoomTo(center geom.EastNorth, scale float64) {
	v.Center = center
	if scale > 0 {
		v.Scale = scale
	}
}

// Zoom so that b fills the screen, keeping a margin of the given pixels.
func (v *MapView) ZoomToBounds(b geom.Bounds, margin int) {
	if b.IsEmpty() {
		return
	}
	w := float64(v.Width - 2*margin)
	h := float64(v.Height - 2*margin)
	if w <= 0 || h <= 0 {
		return
	}
	scale := math.Max(b.Width()/w, b.Height()/h)
	if scale <= 0 {
		scale = v.Scale
	}
	v.ZoomTo(b.Min.Center(b.Max), scale)
}

func (v *MapView) snapDistance() float64 {
	if v.SnapDistance <= 0 {
		return DefaultSnapDistance
	}
	return v.SnapDistance
}

// Predicate filters the primitives a query may return.
type Predicate func(osm.Primitive) bool

// A primitive is usable unless it is a hidden way. Nodes are usable while at
// least one of their ways is visible, or when they belong to no way.
func IsUsable(p osm.Primitive) bool {
	switch p := p.(type) {
	case *osm.Way:
		return !p.IsHidden()
	case *osm.Node:
		ds := p.DataSet()
		if ds == nil {
			return true
		}
		refs := ds.Referrers(p)
		if len(refs) == 0 {
			return true
		}
		for _, w := range refs {
			if !w.IsHidden() {
				return true
			}
		}
		return false
	}
	return true
}

func (pred Predicate) test(p osm.Primitive) bool {
	if !IsUsable(p) {
		return false
	}
	return pred == nil || pred(p)
}

func (v *MapView) pickBounds(p geom.Point) geom.Bounds {
	return geom.NewBounds(v.EastNorth(p)).Grow(v.snapDistance() * v.Scale)
}

// Nodes within the snap distance of p, nearest first, skipping ignore.
func (v *MapView) NearestNodes(ds *osm.DataSet, p geom.Point, ignore map[*osm.Node]bool, pred Predicate) []*osm.Node {
	limit := v.snapDistance()
	var result []*osm.Node
	for _, n := range ds.SearchNodes(v.pickBounds(p)) {
		if ignore[n] || !pred.test(n) {
			continue
		}
		if v.NodePoint(n).Distance(p) <= limit {
			result = append(result, n)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return v.NodePoint(result[i]).DistanceSq(p) < v.NodePoint(result[j]).DistanceSq(p)
	})
	return result
}

// The nearest node within the snap distance. Among nodes at the same spot a
// selected one wins, then a new one.
func (v *MapView) NearestNode(ds *osm.DataSet, p geom.Point, pred Predicate) *osm.Node {
	nodes := v.NearestNodes(ds, p, nil, pred)
	if len(nodes) == 0 {
		return nil
	}
	best := nodes[0]
	bestDist := v.NodePoint(best).DistanceSq(p)
	for _, n := range nodes[1:] {
		if v.NodePoint(n).DistanceSq(p)-bestDist > geom.Epsilon {
			break
		}
		if ds.IsSelected(n) && !ds.IsSelected(best) {
			best = n
		} else if n.IsNew() && !best.IsNew() && ds.IsSelected(n) == ds.IsSelected(best) {
			best = n
		}
	}
	return best
}

type segmentHit struct {
	seg  osm.WaySegment
	dist float64
}

// Segments within the snap distance of p, nearest first. Segments at the
// same distance keep way ID and index order.
func (v *MapView) NearestWaySegments(ds *osm.DataSet, p geom.Point, pred Predicate) []osm.WaySegment {
	limit := v.snapDistance()
	var hits []segmentHit
	for _, w := range ds.SearchWays(v.pickBounds(p)) {
		if !pred.test(w) {
			continue
		}
		for _, s := range w.Segments() {
			a := v.NodePoint(s.FirstNode())
			b := v.NodePoint(s.SecondNode())
			d := geom.ClosestScreenPointToSegment(a, b, p).Distance(p)
			if d <= limit {
				hits = append(hits, segmentHit{s, d})
			}
		}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].dist < hits[j].dist
	})
	result := make([]osm.WaySegment, len(hits))
	for i, h := range hits {
		result[i] = h.seg
	}
	return result
}

// The nearest segment, preferring selected ways among segments at the same
// distance.
func (v *MapView) NearestWaySegment(ds *osm.DataSet, p geom.Point, pred Predicate) (osm.WaySegment, bool) {
	segs := v.NearestWaySegments(ds, p, pred)
	if len(segs) == 0 {
		return osm.WaySegment{}, false
	}
	best := segs[0]
	bestDist := v.segmentDistance(best, p)
	for _, s := range segs[1:] {
		if v.segmentDistance(s, p)-bestDist > geom.Epsilon {
			break
		}
		if ds.IsSelected(s.Way) && !ds.IsSelected(best.Way) {
			best = s
		}
	}
	return best, true
}

func (v *MapView) segmentDistance(s osm.WaySegment, p geom.Point) float64 {
	a := v.NodePoint(s.FirstNode())
	b := v.NodePoint(s.SecondNode())
	return geom.ClosestScreenPointToSegment(a, b, p).Distance(p)
}

func (v *MapView) NearestWay(ds *osm.DataSet, p geom.Point, pred Predicate) *osm.Way {
	if s, ok := v.NearestWaySegment(ds, p, pred); ok {
		return s.Way
	}
	return nil
}

// The nearest node if there is one within the snap distance, else the nearest
// way. With useSelected, a selected way under the cursor beats an unselected
// node.
func (v *MapView) NearestNodeOrWay(ds *osm.DataSet, p geom.Point, pred Predicate, useSelected bool) osm.Primitive {
	n := v.NearestNode(ds, p, pred)
	if n != nil && (!useSelected || ds.IsSelected(n)) {
		return n
	}
	if useSelected {
		for _, s := range v.NearestWaySegments(ds, p, pred) {
			if ds.IsSelected(s.Way) {
				return s.Way
			}
		}
	}
	if n != nil {
		return n
	}
	if w := v.NearestWay(ds, p, pred); w != nil {
		return w
	}
	return nil
}
