package mode

import (
	"fmt"
	"math"

	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/dbg"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/topo"
	"github.com/osuushi/wayedit/view"
	"github.com/pkg/errors"
)

// Segments shorter than this many pixels on screen have no virtual node.
const virtualNodeSpace = 70

// A click that does not become a drag still selects if the pointer was
// released within this many pixels of where it was pressed.
const clickSlop = 10

var errOutsideWorld = errors.New("Cannot move objects outside of the world.")

type selectAction int

const (
	selectIdle selectAction = iota
	selectMove
	selectRotate
	selectScale
	selectArea
)

// Select picks primitives and moves, rotates or scales them. The modifiers
// held at press decide what a drag does: Shift+Ctrl rotates, Alt+Ctrl scales,
// a press near a primitive moves the selection, and a press on empty space
// starts a rectangle (or lasso) selection.
type Select struct {
	base
	action  selectAction
	pressed bool
	gate    dragGate

	startEN           geom.EastNorth
	lastMousePos      geom.Point
	didMouseDrag      bool
	cancelDrawMode    bool
	selectionWasEmpty bool
	pressPrimitive    osm.Primitive

	gesture   *command.Gesture
	move      *command.MoveCommand
	transform *command.TransformCommand
	lastGood  geom.EastNorth

	// Set while a press on a segment midpoint may turn into a new node
	virtualSegments []osm.WaySegment
	virtualCenter   geom.EastNorth

	areaStart, areaEnd geom.Point
	lasso              []geom.Point

	hover       osm.Primitive
	mergeTarget *osm.Node
}

func NewSelect() *Select {
	return &Select{}
}

func (s *Select) Name() string {
	return "select"
}

func (s *Select) Exit(ctx *Context) {
	if s.gesture != nil {
		s.gesture.Finish()
	}
	s.reset()
	s.hover = nil
}

func (s *Select) reset() {
	s.action = selectIdle
	s.pressed = false
	s.didMouseDrag = false
	s.pressPrimitive = nil
	s.gesture = nil
	s.move = nil
	s.transform = nil
	s.virtualSegments = nil
	s.lasso = nil
	s.mergeTarget = nil
}

func determineAction(m Modifiers, hasPrimitiveNearby bool) selectAction {
	switch {
	case m.Shift && m.Ctrl:
		return selectRotate
	case m.Alt && m.Ctrl:
		return selectScale
	case hasPrimitiveNearby:
		return selectMove
	}
	return selectArea
}

func (s *Select) Pointer(ctx *Context, e PointerEvent) {
	switch e.Action {
	case Move:
		s.hover = ctx.View().NearestNodeOrWay(ctx.DataSet(), e.Point, nil, true)
	case Press:
		if e.Button == LeftButton {
			s.press(ctx, e)
		}
	case Drag:
		if s.pressed {
			s.drag(ctx, e)
		}
	case Release:
		if s.pressed && e.Button == LeftButton {
			s.release(ctx, e)
		}
	}
}

func (s *Select) press(ctx *Context, e PointerEvent) {
	ds, v := ctx.DataSet(), ctx.View()
	s.reset()
	s.pressed = true
	s.cancelDrawMode = e.Modifiers.Shift || e.Modifiers.Ctrl
	s.selectionWasEmpty = ds.SelectionEmpty()
	s.startEN = v.EastNorth(e.Point)
	s.lastMousePos = e.Point

	nearest := v.NearestNodeOrWay(ds, e.Point, nil, true)
	if n, ok := nearest.(*osm.Node); ok && e.ClickCount >= 2 {
		ds.SetSelected(n)
		s.pressed = false
		ctx.SwitchMode(NewDraw())
		return
	}

	s.action = determineAction(e.Modifiers, nearest != nil)
	p := ctx.Prefs().Select
	delay := p.InitialMoveDelay
	if s.action != selectMove {
		delay = 0
	}
	s.gate = newDragGate(e, delay, p.InitialMoveThreshold)

	switch s.action {
	case selectRotate, selectScale:
		if ds.SelectionEmpty() && nearest != nil {
			ds.SetSelected(nearest)
		}
	case selectMove:
		if _, ok := nearest.(*osm.Way); ok {
			s.activateVirtualNode(ctx, e.Point)
		}
		s.pressPrimitive = nearest
		s.selectPrims(ctx, []osm.Primitive{nearest}, false, false)
	case selectArea:
		s.areaStart = e.Point
		s.areaEnd = e.Point
		s.lasso = []geom.Point{e.Point}
	}
}

func (s *Select) drag(ctx *Context, e PointerEvent) {
	ds, v := ctx.DataSet(), ctx.View()
	s.cancelDrawMode = true

	if s.action == selectArea {
		s.areaEnd = e.Point
		s.lasso = append(s.lasso, e.Point)
		return
	}
	if s.action == selectMove {
		s.mergeTarget = nil
		if e.Modifiers.Ctrl && len(ds.SelectedNodes()) > 0 {
			s.mergeTarget = s.findNodeToMergeTo(ctx, e.Point)
		}
	}
	if !s.gate.Pass(e) || e.Point == s.lastMousePos {
		return
	}

	current := v.EastNorth(e.Point)
	if len(s.virtualSegments) > 0 {
		s.createMiddleNodeFromVirtual(ctx, current)
	} else if !s.updateCommandWhileDragging(ctx, current) {
		return
	}
	if s.action != selectScale {
		s.lastMousePos = e.Point
	}
	s.didMouseDrag = true
}

// Apply the drag to the gesture's command, starting the gesture on the first
// call. Returns false if nothing changed.
func (s *Select) updateCommandWhileDragging(ctx *Context, current geom.EastNorth) bool {
	ds, v := ctx.DataSet(), ctx.View()
	if ds.SelectionEmpty() {
		if p := v.NearestNodeOrWay(ds, v.Point(s.startEN), nil, true); p != nil {
			ds.SetSelected(p)
		}
	}
	selection := ds.Selected()
	if len(selection) == 0 {
		return false
	}

	switch s.action {
	case selectMove:
		offset := current.Sub(s.startEN)
		if s.gesture != nil && s.move != nil {
			err := s.gesture.Amend(func() error {
				s.move.SaveCheckpoint()
				s.move.MoveAgainTo(offset)
				if s.move.OutsideWorld() {
					s.move.ResetToCheckpoint()
					return errOutsideWorld
				}
				return nil
			})
			if err != nil {
				s.rejectMove(ctx, err)
				return false
			}
			return true
		}
		s.move = command.Move(ds, selection, offset)
		s.gesture = ctx.Begin(s.move)
		if s.gesture == nil {
			return false
		}
		if s.move.OutsideWorld() {
			s.gesture.Cancel()
			s.gesture, s.move = nil, nil
			s.rejectMove(ctx, errOutsideWorld)
			return false
		}
		return true

	case selectRotate, selectScale:
		if countNodes(selection) < 2 {
			// Rotating or scaling a single node does nothing
			return false
		}
		if s.gesture != nil && s.transform != nil {
			err := s.gesture.Amend(func() error {
				s.transform.HandleEvent(current)
				if s.transform.OutsideWorld(ds) {
					s.transform.HandleEvent(s.lastGood)
					return errOutsideWorld
				}
				s.lastGood = current
				return nil
			})
			if err != nil {
				s.rejectMove(ctx, err)
				return false
			}
			return true
		}
		if s.action == selectRotate {
			s.transform = command.Rotate(selection, current)
		} else {
			s.transform = command.Scale(selection, current)
		}
		s.lastGood = current
		s.gesture = ctx.Begin(s.transform)
		return s.gesture != nil
	}
	return false
}

func (s *Select) rejectMove(ctx *Context, err error) {
	if errors.Is(err, errOutsideWorld) {
		ctx.Prompter().Warn(err.Error())
		return
	}
	dbg.Warnf("select: %v", err)
}

func (s *Select) release(ctx *Context, e PointerEvent) {
	ds := ctx.DataSet()
	defer func() {
		if s.gesture != nil {
			s.gesture.Finish()
		}
		s.reset()
	}()

	switch s.action {
	case selectArea:
		s.areaEnd = e.Point
		s.selectPrims(ctx, s.areaPrimitives(ctx), true, true)
		if !s.cancelDrawMode && s.selectionWasEmpty && ds.SelectionEmpty() {
			ctx.SwitchMode(NewDraw())
		}
	case selectMove:
		if !s.didMouseDrag {
			s.virtualSegments = nil
			if s.lastMousePos.DistanceSq(e.Point) < clickSlop*clickSlop {
				s.selectPrims(ctx, []osm.Primitive{s.pressPrimitive}, true, false)
			}
			return
		}
		s.confirmOrUndoMovement(ctx)
	}
}

// Ask before keeping moves that are likely mistakes, and merge onto a node
// under the cursor when Ctrl is held.
func (s *Select) confirmOrUndoMovement(ctx *Context) {
	ds, prompter := ctx.DataSet(), ctx.Prompter()
	if s.gesture == nil {
		return
	}
	if movesHiddenWay(ds) &&
		!prompter.Confirm("Are you sure that you want to move elements with attached ways that are hidden by filters?") {
		s.cancelGesture()
		return
	}

	max := ctx.Prefs().Select.WarnMoveMaxElements
	if countNodes(ds.Selected()) > max {
		msg := fmt.Sprintf("You moved more than %d elements. Moving a large number of elements is often an error.\nReally move them?", max)
		if !prompter.Confirm(msg) {
			s.cancelGesture()
		}
		return
	}
	if ctx.Modifiers.Ctrl {
		s.mergePrims(ctx)
	}
}

func (s *Select) cancelGesture() {
	if err := s.gesture.Cancel(); err != nil {
		dbg.Warnf("select: cancel: %v", err)
	}
	s.gesture = nil
}

func movesHiddenWay(ds *osm.DataSet) bool {
	for _, n := range command.Move(ds, ds.Selected(), geom.EastNorth{}).Nodes() {
		for _, w := range ds.Referrers(n) {
			if w.IsHidden() {
				return true
			}
		}
	}
	return false
}

func countNodes(prims []osm.Primitive) int {
	return len(command.Move(nil, prims, geom.EastNorth{}).Nodes())
}

// Merge the selected nodes into the node under the cursor. A single node is
// first moved onto it, which keeps attached ways in shape.
func (s *Select) mergePrims(ctx *Context) {
	ds := ctx.DataSet()
	selNodes := ds.SelectedNodes()
	if len(selNodes) == 0 {
		return
	}
	target := s.findNodeToMergeTo(ctx, ctx.Point)
	if target == nil {
		return
	}
	if len(selNodes) == 1 && s.gesture != nil && s.move != nil {
		delta := target.EastNorth().Sub(selNodes[0].EastNorth())
		if err := s.gesture.Amend(func() error {
			s.move.MoveAgain(delta)
			return nil
		}); err != nil {
			dbg.Warnf("select: %v", err)
		}
	}

	nodes := append(selNodes, target)
	cmd, err := topo.MergeNodes(ds, nodes, topo.SelectTargetNode(nodes), target)
	if err != nil {
		ctx.Prompter().Warn(err.Error())
		return
	}
	ctx.Submit(cmd)
}

func (s *Select) findNodeToMergeTo(ctx *Context, p geom.Point) *osm.Node {
	ds := ctx.DataSet()
	ignore := make(map[*osm.Node]bool)
	for _, n := range ds.SelectedNodes() {
		ignore[n] = true
	}
	nodes := ctx.View().NearestNodes(ds, p, ignore, nil)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

// Change the selection. Ctrl toggles (or, for an area, deselects) and Shift
// adds. Before release, a click on something already selected keeps the
// selection so that the whole group can be dragged.
func (s *Select) selectPrims(ctx *Context, prims []osm.Primitive, released, area bool) {
	ds := ctx.DataSet()
	m := ctx.Modifiers
	if (m.Shift && m.Ctrl) || (m.Ctrl && !released) || (len(s.virtualSegments) > 0 && !released) {
		return
	}
	var filtered []osm.Primitive
	for _, p := range prims {
		if p != nil {
			filtered = append(filtered, p)
		}
	}

	add := m.Shift
	if !released {
		all := true
		for _, p := range filtered {
			all = all && ds.IsSelected(p)
		}
		add = add || all
	}
	switch {
	case m.Ctrl && area:
		ds.ClearSelected(filtered...)
	case m.Ctrl:
		ds.ToggleSelected(filtered...)
	case add:
		ds.AddSelected(filtered...)
	default:
		ds.SetSelected(filtered...)
	}
}

// Primitives inside the dragged rectangle or lasso. Ways count when all of
// their nodes are inside, or with Alt when any node is.
func (s *Select) areaPrimitives(ctx *Context) []osm.Primitive {
	ds, v := ctx.DataSet(), ctx.View()
	if s.areaStart == s.areaEnd {
		if p := v.NearestNodeOrWay(ds, s.areaEnd, nil, false); p != nil {
			return []osm.Primitive{p}
		}
		return nil
	}

	var inside func(n *osm.Node) bool
	if ctx.Prefs().Select.Lasso && len(s.lasso) > 2 {
		poly := geom.Polygon{Points: make([]geom.EastNorth, len(s.lasso))}
		for i, p := range s.lasso {
			poly.Points[i] = v.EastNorth(p)
		}
		inside = func(n *osm.Node) bool {
			return poly.ContainsPointByEvenOdd(n.EastNorth())
		}
	} else {
		minX, maxX := math.Min(s.areaStart.X, s.areaEnd.X), math.Max(s.areaStart.X, s.areaEnd.X)
		minY, maxY := math.Min(s.areaStart.Y, s.areaEnd.Y), math.Max(s.areaStart.Y, s.areaEnd.Y)
		inside = func(n *osm.Node) bool {
			p := v.NodePoint(n)
			return p.X >= minX && p.X <= maxX && p.Y >= minY && p.Y <= maxY
		}
	}

	var result []osm.Primitive
	for _, n := range ds.Nodes() {
		if view.IsUsable(n) && inside(n) {
			result = append(result, n)
		}
	}
	for _, w := range ds.Ways() {
		if !view.IsUsable(w) || w.NodesCount() == 0 {
			continue
		}
		any, all := false, true
		for _, n := range w.Nodes() {
			if inside(n) {
				any = true
			} else {
				all = false
			}
		}
		if (ctx.Modifiers.Alt && any) || (!ctx.Modifiers.Alt && all) {
			result = append(result, w)
		}
	}
	return result
}

// Remember the segments whose midpoint is under the cursor. Dragging from
// there inserts a new node into all of them.
func (s *Select) activateVirtualNode(ctx *Context, p geom.Point) {
	ds, v := ctx.DataSet(), ctx.View()
	snapDist := float64(ctx.Prefs().VirtualNodeSnapDistance)
	var first *osm.NodePair
	for _, seg := range v.NearestWaySegments(ds, p, nil) {
		a, b := v.NodePoint(seg.FirstNode()), v.NodePoint(seg.SecondNode())
		if a.Distance(b) < virtualNodeSpace {
			continue
		}
		center := geom.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
		if p.Distance(center) >= snapDist {
			continue
		}
		// Only segments lying on top of each other share the virtual node
		pair := seg.Pair()
		if first == nil {
			first = &pair
			s.virtualCenter = v.EastNorth(center)
		}
		if pair == *first || pair == first.Swap() {
			s.virtualSegments = append(s.virtualSegments, seg)
		}
	}
}

// Turn the virtual node into a real one: add it, insert it into the
// segments, and move it with the rest of the drag. One gesture covers all of
// it.
func (s *Select) createMiddleNodeFromVirtual(ctx *Context, current geom.EastNorth) {
	ds := ctx.DataSet()
	segs := s.virtualSegments
	s.virtualSegments = nil

	n := osm.NewNode(s.virtualCenter)
	res, err := topo.InsertNodeIntoSegments(ds, segs, n)
	if err != nil {
		dbg.Warnf("select: %v", err)
		return
	}
	s.move = command.Move(ds, []osm.Primitive{n}, current.Sub(s.startEN))
	cmds := append([]command.Command{command.Add(ds, n)}, res.Commands...)
	cmds = append(cmds, s.move)

	title := "Add and move a virtual new node to way"
	if len(res.Replaced) > 1 {
		title = fmt.Sprintf("Add and move a virtual new node to %d ways", len(res.Replaced))
	}
	s.gesture = ctx.Begin(command.Sequence(title, cmds...))
	if s.gesture == nil {
		s.move = nil
		return
	}
	ds.SetSelected(n)
}

func (s *Select) Feedback(ctx *Context) Feedback {
	var f Feedback
	m := ctx.Modifiers
	switch {
	case s.pressed && s.action == selectMove && s.mergeTarget != nil:
		f.Cursor = CursorJoinNode
		f.Highlight = []osm.Primitive{s.mergeTarget}
	case s.pressed && s.action == selectMove:
		f.Cursor = CursorMove
	case s.pressed && s.action == selectArea:
		f.Cursor = CursorSelect
	case s.action == selectRotate || (!s.pressed && m.Shift && m.Ctrl):
		f.Cursor = CursorRotate
	case s.action == selectScale || (!s.pressed && m.Alt && m.Ctrl):
		f.Cursor = CursorScale
	default:
		switch s.hover.(type) {
		case *osm.Node:
			f.Cursor = CursorNode
		case *osm.Way:
			f.Cursor = CursorWay
		default:
			f.Cursor = CursorNormal
		}
		if s.hover != nil {
			f.Highlight = []osm.Primitive{s.hover}
		}
	}
	return f
}

func (s *Select) Overlay(ctx *Context) Overlay {
	var o Overlay
	v := ctx.View()
	switch {
	case s.pressed && s.action == selectArea && s.areaStart != s.areaEnd:
		if ctx.Prefs().Select.Lasso {
			points := make([]geom.EastNorth, len(s.lasso))
			for i, p := range s.lasso {
				points[i] = v.EastNorth(p)
			}
			o.AddPath(points, true, SelectionLine)
		} else {
			a, b := s.areaStart, s.areaEnd
			o.AddPath([]geom.EastNorth{
				v.EastNorth(a),
				v.EastNorth(geom.Point{X: b.X, Y: a.Y}),
				v.EastNorth(b),
				v.EastNorth(geom.Point{X: a.X, Y: b.Y}),
			}, true, SelectionLine)
		}
	case len(s.virtualSegments) > 0:
		o.AddMarker(s.virtualCenter, CandidateMarker)
	case s.transform != nil:
		o.AddMarker(s.transform.Pivot(), SnapMarker)
	}
	return o
}
