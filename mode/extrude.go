package mode

import (
	"math"

	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/dbg"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/topo"
)

type extrudeState int

const (
	extrudeSelect extrudeState = iota
	extrudeSegment
	extrudeTranslate
	extrudeTranslateNode
	extrudeCreateNew
)

var extrudeStateNames = [...]string{"select", "extrude", "translate", "translate_node", "create_new"}

func (s extrudeState) String() string {
	return extrudeStateNames[s]
}

// A direction the dragged segment or node may move along, plus the segment it
// was derived from so it can be drawn.
type referenceSegment struct {
	dir           geom.EastNorth
	p1, p2        geom.EastNorth
	perpendicular bool
}

// Extrude drags one way segment out of its way. A plain drag extrudes it (new
// nodes, or existing nodes slid along collinear neighbours), Ctrl translates
// the segment, Ctrl on a node slides the node along its adjacent segments, and
// Alt builds a new rectangle on the segment.
//
// With dual alignment, the endpoints travel along the neighbouring segments
// instead of the segment normal. Dragging past the point where the neighbours
// meet collapses the segment, and the two endpoints are merged on release.
type Extrude struct {
	base
	state             extrudeState
	alwaysCreateNodes bool
	dualAlignEnabled  bool
	dualAlignActive   bool
	collapsed         bool

	segment       osm.WaySegment
	hasSegment    bool
	node          *osm.Node
	movingNodes   []*osm.Node
	initialN1en   geom.EastNorth
	initialN2en   geom.EastNorth
	newN1en       geom.EastNorth
	newN2en       geom.EastNorth
	hasNewNodes   bool
	initialMouse  geom.Point
	initialMouseN geom.EastNorth

	directions      []referenceSegment
	activeDirection *referenceSegment
	dualAlign1      referenceSegment
	dualAlign2      referenceSegment

	gate     dragGate
	gesture  *command.Gesture
	move1    *command.MoveCommand
	move2    *command.MoveCommand
	hoverSeg osm.WaySegment
	hovering bool
}

func NewExtrude() *Extrude {
	return &Extrude{}
}

func (x *Extrude) Name() string {
	return "extrude"
}

func (x *Extrude) Enter(ctx *Context) {
	x.dualAlignEnabled = ctx.Prefs().Extrude.DualAlign
	x.reset()
}

func (x *Extrude) Exit(ctx *Context) {
	if x.gesture != nil {
		x.gesture.Finish()
	}
	x.reset()
}

func (x *Extrude) reset() {
	x.state = extrudeSelect
	x.hasSegment = false
	x.node = nil
	x.movingNodes = nil
	x.hasNewNodes = false
	x.directions = nil
	x.activeDirection = nil
	x.dualAlignActive = false
	x.collapsed = false
	x.gesture = nil
	x.move1, x.move2 = nil, nil
}

// State is the name of the current state: select, extrude, translate,
// translate_node or create_new.
func (x *Extrude) State() string {
	return x.state.String()
}

// D toggles dual alignment for the following drags.
func (x *Extrude) Key(ctx *Context, e KeyEvent) {
	switch e.Key {
	case "d":
		x.dualAlignEnabled = !x.dualAlignEnabled
		dbg.Logf("extrude: dual align %v", x.dualAlignEnabled)
	case KeyEscape:
		if x.gesture != nil {
			if err := x.gesture.Cancel(); err != nil {
				dbg.Warnf("extrude: %v", err)
			}
		}
		x.reset()
	}
}

func (x *Extrude) Pointer(ctx *Context, e PointerEvent) {
	switch e.Action {
	case Move:
		x.hoverSeg, x.hovering = ctx.View().NearestWaySegment(ctx.DataSet(), e.Point, nil)
	case Press:
		if e.Button == LeftButton {
			x.press(ctx, e)
		}
	case Drag:
		if x.state != extrudeSelect {
			x.drag(ctx, e)
		}
	case Release:
		if e.Button == LeftButton {
			x.release(ctx, e)
		}
	}
}

func (x *Extrude) press(ctx *Context, e PointerEvent) {
	ds, v := ctx.DataSet(), ctx.View()
	x.reset()
	x.node = v.NearestNode(ds, e.Point, nil)
	x.segment, x.hasSegment = v.NearestWaySegment(ds, e.Point, nil)
	if x.node == nil && !x.hasSegment {
		return
	}

	m := e.Modifiers
	if x.node != nil && !m.Ctrl {
		x.node = nil
		if !x.hasSegment {
			return
		}
	}
	if x.node != nil {
		x.movingNodes = []*osm.Node{x.node}
		x.directions = x.directionsByNode(ds, x.node)
		if len(x.directions) == 0 {
			// A node that cannot move anywhere never starts a drag
			x.node = nil
			return
		}
		x.state = extrudeTranslateNode
		x.initialN1en = x.node.EastNorth()
		x.initialN2en = x.initialN1en
	} else {
		x.initialN1en = x.segment.FirstEastNorth()
		x.initialN2en = x.segment.SecondEastNorth()
		if x.dualAlignEnabled && x.checkDualAlignConditions() {
			x.dualAlignActive = true
			x.directions = []referenceSegment{x.perpendicular()}
		} else {
			x.directions = x.directionsBySegment()
		}
		switch {
		case m.Ctrl:
			x.state = extrudeTranslate
			x.movingNodes = []*osm.Node{x.segment.FirstNode(), x.segment.SecondNode()}
		case m.Alt:
			x.state = extrudeCreateNew
			x.alwaysCreateNodes = true
			ds.SetSelected(x.segment.Way)
		default:
			x.state = extrudeSegment
			x.alwaysCreateNodes = m.Shift
			ds.SetSelected(x.segment.Way)
		}
	}

	x.initialMouse = e.Point
	x.initialMouseN = v.EastNorth(e.Point)
	p := ctx.Prefs().Extrude
	x.gate = newDragGate(e, p.InitialMoveDelay, p.InitialMoveThreshold)
	if dbg.Enabled {
		dbg.Logf("extrude: %s", x.state)
	}
}

func (x *Extrude) drag(ctx *Context, e PointerEvent) {
	ds := ctx.DataSet()
	if !x.gate.Pass(e) {
		return
	}
	mouseEN := ctx.View().EastNorth(e.Point)
	x.calculateBestMovementAndNewNodes(mouseEN)
	if ds.OutsideWorld(x.newN1en) || ds.OutsideWorld(x.newN2en) {
		x.hasNewNodes = false
		return
	}

	switch x.state {
	case extrudeSegment, extrudeCreateNew:
		// Nothing is committed until release
	case extrudeTranslate, extrudeTranslateNode:
		x.updateTranslation(ctx)
	}
}

// Keep one Move (or one per endpoint, when dual alignment moves them
// differently) on top of the undo stack and amend it on every drag.
func (x *Extrude) updateTranslation(ctx *Context) {
	ds := ctx.DataSet()
	offset1 := x.newN1en.Sub(x.initialN1en)
	offset2 := x.newN2en.Sub(x.initialN2en)
	separate := x.dualAlignActive && x.state == extrudeTranslate

	if x.gesture != nil {
		err := x.gesture.Amend(func() error {
			x.move1.MoveAgainTo(offset1)
			if x.move2 != nil {
				x.move2.MoveAgainTo(offset2)
			}
			return nil
		})
		if err != nil {
			dbg.Warnf("extrude: %v", err)
		}
		return
	}

	var cmd command.Command
	if separate {
		x.move1 = command.Move(ds, []osm.Primitive{x.movingNodes[0]}, offset1)
		x.move2 = command.Move(ds, []osm.Primitive{x.movingNodes[1]}, offset2)
		cmd = command.Sequence("Move nodes", x.move1, x.move2)
	} else {
		x.move1 = command.Move(ds, primitives(x.movingNodes), offset1)
		cmd = x.move1
	}
	x.gesture = ctx.Begin(cmd)
	if x.gesture == nil {
		x.move1, x.move2 = nil, nil
	}
}

func (x *Extrude) release(ctx *Context, e PointerEvent) {
	moved := e.Point.Distance(x.initialMouse) > float64(ctx.Prefs().Extrude.InitialMoveThreshold)
	switch x.state {
	case extrudeCreateNew:
		if moved && x.hasNewNodes {
			x.createNewRectangle(ctx)
		}
	case extrudeSegment:
		if e.ClickCount == 2 && e.Point == x.initialMouse {
			x.addNewNode(ctx, e.Point)
		} else if moved && x.hasNewNodes && x.hasSegment {
			x.performExtrusion(ctx)
		}
	case extrudeTranslate, extrudeTranslateNode:
		if x.gesture != nil {
			x.gesture.Finish()
			x.joinNodesIfCollapsed(ctx, x.movingNodes)
		}
	}
	x.reset()
}

// Candidate directions for a segment: its normal, then the previous and next
// segments of the way.
func (x *Extrude) directionsBySegment() []referenceSegment {
	result := []referenceSegment{x.perpendicular()}
	if prev := x.previousNode(); prev != nil {
		result = append(result, referenceSegment{
			dir: x.initialN1en.Sub(prev.EastNorth()),
			p1:  prev.EastNorth(),
			p2:  x.initialN1en,
		})
	}
	if next := x.nextNode(); next != nil {
		result = append(result, referenceSegment{
			dir: next.EastNorth().Sub(x.initialN2en),
			p1:  x.initialN2en,
			p2:  next.EastNorth(),
		})
	}
	return result
}

func (x *Extrude) perpendicular() referenceSegment {
	d := x.initialN2en.Sub(x.initialN1en)
	return referenceSegment{
		dir:           geom.EastNorth{East: -d.North, North: d.East},
		p1:            x.initialN1en,
		p2:            x.initialN2en,
		perpendicular: true,
	}
}

// Candidate directions for a node: every segment that touches it, in any way.
func (x *Extrude) directionsByNode(ds *osm.DataSet, n *osm.Node) []referenceSegment {
	var result []referenceSegment
	for _, w := range ds.Referrers(n) {
		for _, neighbour := range w.Neighbours(n) {
			d := neighbour.EastNorth().Sub(n.EastNorth())
			if d.LengthSq() == 0 {
				continue
			}
			result = append(result, referenceSegment{dir: d, p1: n.EastNorth(), p2: neighbour.EastNorth()})
		}
	}
	return result
}

func (x *Extrude) previousNode() *osm.Node {
	w, i := x.segment.Way, x.segment.LowerIndex
	switch {
	case i > 0:
		return w.Node(i - 1)
	case w.IsClosed():
		return w.Node(w.NodesCount() - 2)
	}
	return nil
}

func (x *Extrude) nextNode() *osm.Node {
	w, i := x.segment.Way, x.segment.LowerIndex+1
	switch {
	case i < w.NodesCount()-1:
		return w.Node(i + 1)
	case w.IsClosed():
		return w.Node(1)
	}
	return nil
}

// Dual alignment needs both neighbours, neither of them parallel to the
// dragged segment.
func (x *Extrude) checkDualAlignConditions() bool {
	prev, next := x.previousNode(), x.nextNode()
	if prev == nil || next == nil {
		return false
	}
	prevEN, nextEN := prev.EastNorth(), next.EastNorth()
	if geom.SegmentsParallel(x.initialN1en, prevEN, x.initialN1en, x.initialN2en) ||
		geom.SegmentsParallel(x.initialN2en, nextEN, x.initialN1en, x.initialN2en) {
		return false
	}
	x.dualAlign1 = referenceSegment{dir: x.initialN1en.Sub(prevEN), p1: prevEN, p2: x.initialN1en}
	x.dualAlign2 = referenceSegment{dir: nextEN.Sub(x.initialN2en), p1: x.initialN2en, p2: nextEN}
	return true
}

// Of all candidate directions, pick the movement closest to the raw mouse
// movement. Ties go to the earlier candidate. Returns false if no candidate
// produced a movement.
func (x *Extrude) calculateBestMovement(mouseEN geom.EastNorth) (geom.EastNorth, bool) {
	mouseMovement := mouseEN.Sub(x.initialMouseN)
	bestDistance := math.Inf(1)
	var best geom.EastNorth
	found := false
	x.activeDirection = nil
	for i := range x.directions {
		d := &x.directions[i]
		var movement geom.EastNorth
		var ok bool
		if x.state == extrudeTranslateNode {
			movement, ok = geom.ClosestPointToLine(geom.EastNorth{}, d.dir, mouseMovement), true
		} else {
			movement, ok = segmentOffset(x.initialN1en, x.initialN2en, d.dir, x.initialN1en.Add(mouseMovement))
		}
		if !ok {
			continue
		}
		if dist := movement.Distance(mouseMovement); dist < bestDistance {
			bestDistance = dist
			best = movement
			found = true
			x.activeDirection = d
		}
	}
	return best, found
}

// The movement along dir that makes the line p1-p2 pass through target.
func segmentOffset(p1, p2, dir, target geom.EastNorth) (geom.EastNorth, bool) {
	p, ok := geom.LineLineIntersection(p1, p2, target, target.Add(dir))
	if !ok {
		return geom.EastNorth{}, false
	}
	return target.Sub(p), true
}

func (x *Extrude) calculateBestMovementAndNewNodes(mouseEN geom.EastNorth) {
	movement, ok := x.calculateBestMovement(mouseEN)
	if !ok {
		movement = mouseEN.Sub(x.initialMouseN)
	}
	x.hasNewNodes = true
	x.collapsed = false
	x.newN1en = x.initialN1en.Add(movement)
	x.newN2en = x.initialN2en.Add(movement)
	if !x.dualAlignActive {
		return
	}

	n1, ok1 := geom.LineLineIntersection(x.newN1en, x.newN2en, x.dualAlign1.p1, x.dualAlign1.p2)
	n2, ok2 := geom.LineLineIntersection(x.newN1en, x.newN2en, x.dualAlign2.p1, x.dualAlign2.p2)
	if !ok1 || !ok2 {
		return
	}
	x.newN1en, x.newN2en = n1, n2

	// Past the point where the neighbours meet, the segment would turn
	// around. Both endpoints stop at that point instead.
	initial := x.initialN2en.Sub(x.initialN1en)
	if n2.Sub(n1).Dot(initial) <= 0 || n1.Distance(n2) < geom.Tolerance {
		apex, ok := geom.LineLineIntersection(x.dualAlign1.p1, x.dualAlign1.p2, x.dualAlign2.p1, x.dualAlign2.p2)
		if ok {
			x.newN1en, x.newN2en = apex, apex
			x.collapsed = true
		}
	}
}

// Build the extruded way. Each endpoint either slides along its neighbour
// (when the movement is collinear with it and no other way uses the node),
// is replaced by a fresh node (collinear but shared), or gets a new node.
func (x *Extrude) performExtrusion(ctx *Context) {
	ds := ctx.DataSet()
	p := ctx.Prefs().Extrude
	seg := x.segment
	way := seg.Way
	nodes := append([]*osm.Node(nil), way.Nodes()...)
	wayWasSingleSegment := len(nodes) == 2
	insertionPoint := seg.LowerIndex + 1
	modified := false

	var cmds []command.Command
	var changed []*osm.Node
	// Positions in nodes are tracked explicitly since a replaced node may
	// appear twice in a closed way.
	handle := func(old *osm.Node, neighbour *osm.Node, initial, target geom.EastNorth) {
		overlaps := neighbour != nil &&
			geom.SegmentsParallel(initial, neighbour.EastNorth(), initial, target)
		angleZero := neighbour != nil &&
			math.Abs(geom.CornerAngle(neighbour.EastNorth(), initial, target)) < 1e-5
		shared := topo.HasOtherWays(ds, old, way)

		switch {
		case overlaps && !x.alwaysCreateNodes && !shared:
			cmds = append(cmds, command.MoveTo(ds, old, target))
			changed = append(changed, old)
		case p.IgnoreSharedNodes && angleZero && !x.alwaysCreateNodes && shared:
			n := osm.NewNode(target)
			for i, wn := range nodes {
				if wn == old {
					nodes[i] = n
				}
			}
			modified = true
			cmds = append(cmds, command.Add(ds, n))
			changed = append(changed, n)
		default:
			n := osm.NewNode(target)
			nodes = append(nodes[:insertionPoint], append([]*osm.Node{n}, nodes[insertionPoint:]...)...)
			insertionPoint++
			modified = true
			cmds = append(cmds, command.Add(ds, n))
			changed = append(changed, n)
		}
	}

	handle(seg.FirstNode(), x.previousNode(), x.initialN1en, x.newN1en)
	handle(seg.SecondNode(), x.nextNode(), x.initialN2en, x.newN2en)

	if wayWasSingleSegment {
		nodes = append(nodes, nodes[0])
		modified = true
	}
	if modified {
		cp := way.Copy()
		cp.SetNodes(nodes)
		cmds = append(cmds, command.Change(ds, way, cp))
	}
	if !ctx.Submit(command.Sequence("Extrude Way", cmds...)) {
		return
	}
	x.joinNodesIfCollapsed(ctx, changed)
}

// After a collapse, merge the two endpoints. If they cannot be merged the
// whole extrusion is undone.
func (x *Extrude) joinNodesIfCollapsed(ctx *Context, nodes []*osm.Node) {
	if !x.dualAlignActive || !x.hasNewNodes || len(nodes) < 2 {
		return
	}
	if x.newN1en.Distance(x.newN2en) > geom.Tolerance {
		return
	}
	ds := ctx.DataSet()
	target := topo.SelectTargetNode(nodes)
	cmd, err := topo.MergeNodes(ds, nodes, target, nodes[len(nodes)-1])
	if err == nil && ctx.Submit(cmd) {
		return
	}
	dbg.Warnf("extrude: collapsed nodes cannot be merged: %v", err)
	if err := ctx.UndoRedo().Undo(); err != nil {
		dbg.Warnf("extrude: %v", err)
	}
}

// Build a closed way on the dragged segment: a rectangle, or a triangle when
// dual alignment collapsed the far side.
func (x *Extrude) createNewRectangle(ctx *Context) {
	ds := ctx.DataSet()
	third := osm.NewNode(x.newN2en)
	fourth := osm.NewNode(x.newN1en)
	nodes := []*osm.Node{x.segment.FirstNode(), x.segment.SecondNode(), third}
	cmds := []command.Command{command.Add(ds, third)}
	if !x.collapsed {
		nodes = append(nodes, fourth)
		cmds = append(cmds, command.Add(ds, fourth))
	}
	nodes = append(nodes, x.segment.FirstNode())
	w := osm.NewWay(nodes...)
	cmds = append(cmds, command.Add(ds, w))
	if ctx.Submit(command.Sequence("Extrude Way", cmds...)) {
		ds.SetSelected(w)
	}
}

// Double click on a segment adds a node at the closest point on it.
func (x *Extrude) addNewNode(ctx *Context, p geom.Point) {
	ds, v := ctx.DataSet(), ctx.View()
	seg, ok := v.NearestWaySegment(ds, p, nil)
	if !ok {
		return
	}
	en := geom.ClosestPointToSegment(seg.FirstEastNorth(), seg.SecondEastNorth(), v.EastNorth(p))
	n := osm.NewNode(en)
	cp := seg.Way.Copy()
	if err := cp.InsertNode(seg.LowerIndex+1, n); err != nil {
		dbg.Warnf("extrude: %v", err)
		return
	}
	ctx.Submit(command.Sequence("Add a new node to an existing way",
		command.Add(ds, n), command.Change(ds, seg.Way, cp)))
}

func (x *Extrude) Feedback(ctx *Context) Feedback {
	var f Feedback
	m := ctx.Modifiers
	switch {
	case x.state == extrudeTranslate || x.state == extrudeTranslateNode:
		f.Cursor = CursorTranslate
	case x.state == extrudeCreateNew:
		f.Cursor = CursorCreateNew
	case x.state == extrudeSegment:
		f.Cursor = CursorExtrude
	case m.Ctrl:
		f.Cursor = CursorTranslate
	case m.Alt:
		f.Cursor = CursorCreateNew
	default:
		f.Cursor = CursorExtrude
	}
	switch {
	case x.state != extrudeSelect && x.hasSegment && x.state != extrudeTranslateNode:
		f.HighlightSegments = []osm.WaySegment{x.segment}
	case x.state == extrudeTranslateNode:
		f.Highlight = []osm.Primitive{x.node}
	case x.hovering && x.hoverSeg.IsValid():
		f.HighlightSegments = []osm.WaySegment{x.hoverSeg}
	}
	if x.dualAlignEnabled {
		f.Status = "dual alignment"
		if x.collapsed {
			f.Status = "dual alignment: segment collapsed"
		}
	}
	return f
}

func (x *Extrude) Overlay(ctx *Context) Overlay {
	var o Overlay
	if x.state == extrudeSelect || !x.hasNewNodes {
		return o
	}
	switch x.state {
	case extrudeSegment, extrudeCreateNew:
		o.AddPath([]geom.EastNorth{x.initialN1en, x.newN1en, x.newN2en, x.initialN2en}, false, PreviewLine)
	}
	if x.dualAlignActive {
		o.AddLine(x.dualAlign1.p1, x.newN1en, ReferenceLine)
		o.AddLine(x.dualAlign2.p2, x.newN2en, ReferenceLine)
	} else if d := x.activeDirection; d != nil {
		// Extend the active direction well past the moved point
		l := ctx.View().Dist100Pixel()
		unit := d.dir.Normalize().Scale(l)
		o.AddLine(x.newN1en.Sub(unit), x.newN1en.Add(unit), ReferenceLine)
		if x.state != extrudeTranslateNode {
			o.AddLine(x.newN2en.Sub(unit), x.newN2en.Add(unit), ReferenceLine)
		}
	}
	if x.collapsed {
		o.AddMarker(x.newN1en, SnapMarker)
	}
	return o
}
