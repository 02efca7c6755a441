package mode

import (
	"math"

	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/dbg"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
)

// Improve refines one way node by node. With a single way selected, a click
// moves the node nearest to the cursor there; Ctrl adds a node into the
// nearest segment (in every way sharing it) and Alt removes the nearest node.
// Without such a selection, a click picks the way to work on.
type Improve struct {
	base
	sub       *osm.Subscription
	improving bool
	target    *osm.Way
	hover     *osm.Way

	mousePos         geom.Point
	hasMouse         bool
	candidateNode    *osm.Node
	candidateSegment osm.WaySegment
	hasSegment       bool
}

func NewImprove() *Improve {
	return &Improve{}
}

func (m *Improve) Name() string {
	return "improve"
}

func (m *Improve) Enter(ctx *Context) {
	ds := ctx.DataSet()
	m.updateState(ds)
	m.sub = ds.Subscribe(func(osm.Event) {
		m.updateState(ds)
	}, osm.SelectionChanged, osm.WayReplaced, osm.PrimitivesRemoved)
}

func (m *Improve) Exit(ctx *Context) {
	m.sub.Close()
	m.sub = nil
	m.improving = false
	m.target = nil
	m.clearCandidates()
}

// Improving needs exactly one selected way and nothing else.
func (m *Improve) updateState(ds *osm.DataSet) {
	ways := ds.SelectedWays()
	if len(ways) == 1 && len(ds.Selected()) == 1 && ways[0].NodesCount() > 0 {
		m.improving = true
		m.target = ways[0]
	} else {
		m.improving = false
		m.target = nil
	}
	m.clearCandidates()
}

func (m *Improve) clearCandidates() {
	m.candidateNode = nil
	m.hasSegment = false
}

// Improving reports whether a way is being worked on.
func (m *Improve) Improving() bool {
	return m.improving
}

func (m *Improve) Modifiers(ctx *Context, mods Modifiers) {
	if m.hasMouse {
		m.updateCandidates(ctx, mods)
	}
}

func (m *Improve) Pointer(ctx *Context, e PointerEvent) {
	m.mousePos = e.Point
	m.hasMouse = true
	switch e.Action {
	case Move, Drag:
		if m.improving {
			m.updateCandidates(ctx, e.Modifiers)
		} else {
			m.hover = ctx.View().NearestWay(ctx.DataSet(), e.Point, nil)
		}
	case Release:
		if e.Button != LeftButton {
			return
		}
		if !m.improving {
			if w := ctx.View().NearestWay(ctx.DataSet(), e.Point, nil); w != nil {
				ctx.DataSet().SetSelected(w)
			}
			return
		}
		m.updateCandidates(ctx, e.Modifiers)
		m.apply(ctx, e)
	}
}

func (m *Improve) updateCandidates(ctx *Context, mods Modifiers) {
	m.clearCandidates()
	if !m.improving {
		return
	}
	p := ctx.View().EastNorth(m.mousePos)
	if mods.Ctrl && !mods.Alt {
		m.candidateSegment, m.hasSegment = FindCandidateSegment(m.target, p)
	} else {
		m.candidateNode = FindCandidateNode(m.target, p)
	}
}

func (m *Improve) apply(ctx *Context, e PointerEvent) {
	ds := ctx.DataSet()
	cursor := ctx.View().EastNorth(e.Point)
	mods := e.Modifiers
	switch {
	case mods.Ctrl && !mods.Alt && m.hasSegment:
		m.addNode(ctx, cursor)
	case mods.Alt && !mods.Ctrl && m.candidateNode != nil:
		m.removeNode(ctx)
	case m.candidateNode != nil:
		if ds.OutsideWorld(cursor) {
			ctx.Prompter().Warn(errOutsideWorld.Error())
			return
		}
		ctx.Submit(command.MoveTo(ds, m.candidateNode, cursor))
	}
}

// Insert a node at the cursor into the candidate segment of every way that
// contains the same pair of nodes.
func (m *Improve) addNode(ctx *Context, at geom.EastNorth) {
	ds := ctx.DataSet()
	if ds.OutsideWorld(at) {
		ctx.Prompter().Warn(errOutsideWorld.Error())
		return
	}
	pair := m.candidateSegment.Pair()
	n := osm.NewNode(at)
	cmds := []command.Command{command.Add(ds, n)}
	for _, w := range ds.Referrers(pair.A) {
		cp := w.Copy()
		inserted := false
		// Backwards, so insertions do not shift the pairs still to check
		for i := w.NodesCount() - 2; i >= 0; i-- {
			a, b := w.Node(i), w.Node(i+1)
			if (a == pair.A && b == pair.B) || (a == pair.B && b == pair.A) {
				if err := cp.InsertNode(i+1, n); err != nil {
					dbg.Warnf("improve: %v", err)
					return
				}
				inserted = true
			}
		}
		if inserted {
			cmds = append(cmds, command.Change(ds, w, cp))
		}
	}
	ctx.Submit(command.Sequence("Add a new node to an existing way", cmds...))
}

// A node other ways use is only taken out of the target way. Otherwise it is
// deleted, and the way with it if fewer than two nodes remain.
func (m *Improve) removeNode(ctx *Context) {
	ds := ctx.DataSet()
	n := m.candidateNode
	if len(ds.Referrers(n)) > 1 {
		cp := m.target.Copy()
		cp.RemoveNode(n)
		if cp.NodesCount() < 2 {
			ctx.Submit(command.DeleteWithReferences(ds, []osm.Primitive{m.target}, true))
			return
		}
		ctx.Submit(command.Change(ds, m.target, cp))
		return
	}
	ctx.Submit(command.DeleteWithReferences(ds, []osm.Primitive{n}, true))
}

// FindCandidateNode returns the node of w nearest to p that can be reached
// from p without crossing a segment of w.
func FindCandidateNode(w *osm.Way, p geom.EastNorth) *osm.Node {
	best := math.Inf(1)
	var result *osm.Node
	pairs := w.NodePairs()
nodes:
	for _, n := range w.Nodes() {
		en := n.EastNorth()
		d := p.Distance(en)
		if d >= best {
			continue
		}
		for _, pair := range pairs {
			if pair.A == n || pair.B == n {
				continue
			}
			if _, ok := geom.SegmentSegmentIntersection(pair.A.EastNorth(), pair.B.EastNorth(), p, en); ok {
				continue nodes
			}
		}
		result = n
		best = d
	}
	return result
}

// FindCandidateSegment returns the segment of w nearest to p, measured to the
// closest point on the segment. Among equally near segments, one whose
// interior is nearest wins; otherwise the one meeting the line from p at the
// widest angle.
func FindCandidateSegment(w *osm.Way, p geom.EastNorth) (osm.WaySegment, bool) {
	bestDistance := math.Inf(1)
	bestAngle := 0.0
	candidate := -1
	for i, seg := range w.Segments() {
		a, b := seg.FirstEastNorth(), seg.SecondEastNorth()
		closest := geom.ClosestPointToSegment(a, b, p)
		distance := p.Distance(closest)
		var angle float64
		switch {
		case closest != a && closest != b:
			angle = math.MaxFloat64
		case closest == a:
			angle = math.Abs(geom.CornerAngle(p, closest, b))
		default:
			angle = math.Abs(geom.CornerAngle(p, closest, a))
		}
		if distance < bestDistance || (math.Abs(distance-bestDistance) < geom.Tolerance && angle > bestAngle) {
			bestDistance = distance
			bestAngle = angle
			candidate = i
		}
	}
	if candidate < 0 {
		return osm.WaySegment{}, false
	}
	return osm.WaySegment{Way: w, LowerIndex: candidate}, true
}

func (m *Improve) Feedback(ctx *Context) Feedback {
	var f Feedback
	mods := ctx.Modifiers
	switch {
	case !m.improving:
		f.Cursor = CursorSelect
		if m.hover != nil {
			f.Highlight = []osm.Primitive{m.hover}
		}
		f.Status = "Click on the way to start improving its shape."
	case mods.Ctrl && !mods.Alt:
		f.Cursor = CursorCreateNew
		f.Highlight = []osm.Primitive{m.target}
		if m.hasSegment {
			f.HighlightSegments = []osm.WaySegment{m.candidateSegment}
		}
	case mods.Alt && !mods.Ctrl:
		f.Cursor = CursorNode
		f.Highlight = []osm.Primitive{m.target}
	default:
		f.Cursor = CursorMove
		f.Highlight = []osm.Primitive{m.target}
	}
	if m.improving {
		f.Status = "Click to move the nearest node. Ctrl adds a node, Alt deletes one."
	}
	return f
}

// The way as it would look after the click.
func (m *Improve) Overlay(ctx *Context) Overlay {
	var o Overlay
	if !m.improving || !m.hasMouse {
		return o
	}
	cursor := ctx.View().EastNorth(m.mousePos)
	mods := ctx.Modifiers
	switch {
	case m.hasSegment:
		o.AddLine(m.candidateSegment.FirstEastNorth(), cursor, PreviewLine)
		o.AddLine(cursor, m.candidateSegment.SecondEastNorth(), PreviewLine)
		o.AddMarker(cursor, CandidateMarker)
	case m.candidateNode != nil:
		neighbours := m.target.Neighbours(m.candidateNode)
		if mods.Alt && !mods.Ctrl {
			if len(neighbours) == 2 {
				o.AddLine(neighbours[0].EastNorth(), neighbours[1].EastNorth(), PreviewLine)
			}
			o.AddMarker(m.candidateNode.EastNorth(), SnapMarker)
			return o
		}
		for _, n := range neighbours {
			o.AddLine(n.EastNorth(), cursor, PreviewLine)
		}
		o.AddMarker(m.candidateNode.EastNorth(), CandidateMarker)
	}
	return o
}
