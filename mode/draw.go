package mode

import (
	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/dbg"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/snap"
	"github.com/osuushi/wayedit/topo"
)

// A clicked node is reused only if angle snapping moves it by less than this
// fraction of 100 pixels.
const reuseNodeTolerance = 0.01

// Draw adds nodes with every click and connects them into ways.
//
// Modifiers at release: Ctrl places a free node without joining anything under
// the cursor, Shift adds a node without connecting it, Alt starts a new way
// instead of extending the selected one.
type Draw struct {
	base
	snap *snap.Helper
	sub  *osm.Subscription

	lastUsedNode  *osm.Node
	wayIsFinished bool

	mousePos       geom.Point
	oldMousePos    geom.Point
	hasOldMousePos bool
	clickCount     int

	// Derived from the cursor position by computeHelperLine
	currentBaseNode     *osm.Node
	previousNode        *osm.Node
	mouseOnExistingNode *osm.Node
	mouseOnExistingWays []*osm.Way
	helperEnd           geom.EastNorth
	hasHelperLine       bool
}

func NewDraw() *Draw {
	return &Draw{}
}

func (d *Draw) Name() string {
	return "draw"
}

func (d *Draw) Enter(ctx *Context) {
	if d.snap == nil {
		d.snap = snap.New(snapConfig(ctx.Prefs()))
	}
	d.sub = ctx.DataSet().Subscribe(func(e osm.Event) {
		for _, p := range e.Primitives {
			if p == osm.Primitive(d.lastUsedNode) {
				d.lastUsedNode = nil
			}
		}
	}, osm.PrimitivesRemoved)
	d.computeHelperLine(ctx)
}

func (d *Draw) Exit(ctx *Context) {
	d.sub.Close()
	d.sub = nil
	d.snap.NoSnapNow()
	d.hasHelperLine = false
}

// The angle snap helper, for toggling from outside.
func (d *Draw) Snap() *snap.Helper {
	return d.snap
}

func (d *Draw) Pointer(ctx *Context, e PointerEvent) {
	switch e.Action {
	case Move, Drag:
		d.mousePos = e.Point
		d.computeHelperLine(ctx)
	case Press:
		if e.Button == LeftButton {
			d.clickCount = e.ClickCount
		}
	case Release:
		if e.Button != LeftButton {
			return
		}
		if d.clickCount > 1 && d.hasOldMousePos && e.Point == d.oldMousePos {
			// A double click on the same spot is like clicking the last node again
			d.finishDrawing(ctx)
			return
		}
		d.oldMousePos = e.Point
		d.hasOldMousePos = true
		d.mousePos = e.Point
		d.computeHelperLine(ctx)
		d.click(ctx, e, false)
	}
}

func (d *Draw) Key(ctx *Context, e KeyEvent) {
	switch e.Key {
	case KeyEscape, KeyEnter:
		d.finishDrawing(ctx)
	case KeyBackspace:
		d.backspace(ctx)
	case KeyTab:
		if e.Modifiers.Shift {
			d.snap.UnfixOrTurnOff()
		} else {
			d.snap.NextMode()
		}
		d.computeHelperLine(ctx)
	case "f":
		d.snap.FixToSnapped()
		d.computeHelperLine(ctx)
	}
}

func (d *Draw) Modifiers(ctx *Context, m Modifiers) {
	d.computeHelperLine(ctx)
}

// Handle a click. All edits of one click go into a single command.
func (d *Draw) click(ctx *Context, e PointerEvent, retried bool) {
	ds, v := ctx.DataSet(), ctx.View()
	selection := ds.Selected()
	var newSelection []osm.Primitive

	var cmds []command.Command
	var replaced, reuse []*osm.Way
	newNode := false

	var n *osm.Node
	if !ctx.Modifiers.Ctrl {
		n = v.NearestNode(ds, e.Point, nil)
	}

	if n != nil && !d.snap.Active() {
		if len(selection) == 0 || d.wayIsFinished {
			// Just select the node, and the way it ends if there is one
			ds.SetSelected(n)
			if w, err := topo.WayForNode(ds, n); err == nil && w != nil {
				ds.AddSelected(w)
			}
			d.wayIsFinished = false
			return
		}
	} else {
		var en geom.EastNorth
		if n != nil {
			found := n.EastNorth()
			en = d.snapPoint(ctx, found)
			if found.Distance(en) > v.Dist100Pixel()*reuseNodeTolerance {
				n = osm.NewNode(en)
				newNode = true
			}
		} else {
			en = v.EastNorth(e.Point)
			if d.snap.SnapOn() {
				en = d.snapPoint(ctx, en)
			}
			n = osm.NewNode(en)
			newNode = true
		}

		if newNode {
			if ds.OutsideWorld(n.EastNorth()) {
				ctx.Prompter().Warn("Cannot add a node outside of the world.")
				return
			}
			cmds = append(cmds, command.Add(ds, n))
			if !ctx.Modifiers.Ctrl {
				segs := v.NearestWaySegments(ds, v.Point(n.EastNorth()), nil)
				if d.snap.Active() {
					d.moveNodeOnIntersection(segs, n)
				}
				res, err := topo.InsertNodeIntoSegments(ds, segs, n)
				if err != nil {
					dbg.Warnf("draw: %v", err)
					return
				}
				cmds = append(cmds, res.Commands...)
				replaced, reuse = res.Replaced, res.Reuse
				adjustNode(v, res.Segments, n, float64(ctx.Prefs().SnapToIntersectionThreshold))
			}
		}
	}

	extendedWay := false
	wasFinished := d.wayIsFinished
	d.wayIsFinished = false

	if len(selection) > 0 && !ctx.Modifiers.Shift {
		var selectedNode *osm.Node
		var selectedWay *osm.Way
		for _, p := range selection {
			switch p := p.(type) {
			case *osm.Node:
				if selectedNode != nil {
					d.tryAgain(ctx, e, retried)
					return
				}
				selectedNode = p
			case *osm.Way:
				if selectedWay != nil {
					d.tryAgain(ctx, e, retried)
					return
				}
				selectedWay = p
			}
		}

		n0 := d.findNodeToContinueFrom(selectedNode, selectedWay)
		if n0 == nil {
			d.tryAgain(ctx, e, retried)
			return
		}

		if !wasFinished {
			if d.isSelfContainedWay(ds, selectedWay, n0, n) {
				return
			}
			if n0 == n {
				d.finishDrawing(ctx)
				return
			}

			var way *osm.Way
			if !ctx.Modifiers.Alt {
				if selectedWay != nil {
					way = selectedWay
				} else {
					way, _ = topo.WayForNode(ds, n0)
				}
			}
			// Extending a way at a node it passes twice would make it overlap itself
			if way != nil && countNode(way, n0) > 1 {
				way = nil
			}

			var wayToSelect *osm.Way
			if way == nil {
				way = osm.NewWay(n0)
				cmds = append(cmds, command.Add(ds, way))
				wayToSelect = way
			} else if i := indexOfWay(replaced, way); i >= 0 {
				way = reuse[i]
				wayToSelect = way
			} else {
				wayToSelect = way
				cp := way.Copy()
				cmds = append(cmds, command.Change(ds, way, cp))
				way = cp
			}

			// Connecting to a node the way already has closes it
			if way.ContainsNode(n) {
				d.wayIsFinished = true
			}

			var err error
			if way.LastNode() == n0 {
				err = way.AddNode(n)
			} else {
				err = way.InsertNode(0, n)
			}
			if err != nil {
				dbg.Warnf("draw: %v", err)
				return
			}
			extendedWay = true
			newSelection = []osm.Primitive{wayToSelect}
		}
	}

	var title string
	switch {
	case !extendedWay && !newNode:
		return
	case !extendedWay && len(reuse) == 0:
		title = "Add node"
	case !extendedWay:
		title = "Add node into way"
	case !newNode:
		title = "Connect existing way to node"
	case len(reuse) == 0:
		title = "Add a new node to an existing way"
	default:
		title = "Add node into way and connect"
	}
	if !extendedWay {
		newSelection = []osm.Primitive{n}
	}

	if !ctx.Submit(command.Sequence(title, cmds...)) {
		return
	}
	if !d.wayIsFinished {
		d.lastUsedNode = n
	}
	ds.SetSelected(newSelection...)
	d.computeHelperLine(ctx)
}

// The selection did not allow continuing. Clear it and handle the click once
// more, which then starts something new.
func (d *Draw) tryAgain(ctx *Context, e PointerEvent, retried bool) {
	if retried {
		return
	}
	ctx.DataSet().ClearSelection()
	d.computeHelperLine(ctx)
	d.click(ctx, e, true)
}

// The node a new segment starts from: the selected node, or the end of the
// selected way that was drawn last. Nil when the selection does not say.
func (d *Draw) findNodeToContinueFrom(selectedNode *osm.Node, selectedWay *osm.Way) *osm.Node {
	switch {
	case selectedNode == nil && selectedWay == nil:
		return nil
	case selectedNode == nil:
		if d.lastUsedNode != nil && selectedWay.IsFirstLastNode(d.lastUsedNode) {
			return d.lastUsedNode
		}
		return nil
	case selectedWay == nil:
		return selectedNode
	case selectedWay.IsFirstLastNode(selectedNode):
		return selectedNode
	}
	return nil
}

// Refuse to draw straight back to the node we came from, which would make a
// way like <---->. Only the direct neighbours of current are checked.
func (d *Draw) isSelfContainedWay(ds *osm.DataSet, way *osm.Way, current, target *osm.Node) bool {
	if way == nil {
		return false
	}
	i := way.IndexOf(current)
	if i < 0 {
		return false
	}
	if (i >= 1 && way.Node(i-1) == target) || (i < way.NodesCount()-1 && way.Node(i+1) == target) {
		ds.SetSelected(target)
		d.lastUsedNode = target
		return true
	}
	return false
}

func (d *Draw) finishDrawing(ctx *Context) {
	d.lastUsedNode = nil
	d.wayIsFinished = true
	d.snap.NoSnapNow()
	d.hasHelperLine = false
	ctx.SwitchMode(NewSelect())
}

// Undo the last step and continue drawing from the node it left behind.
func (d *Draw) backspace(ctx *Context) {
	ds, u := ctx.DataSet(), ctx.UndoRedo()
	if err := u.Undo(); err != nil {
		return
	}
	last := u.Last()
	if last == nil {
		d.computeHelperLine(ctx)
		return
	}
	var n *osm.Node
	for _, p := range last.Participants() {
		node, ok := p.(*osm.Node)
		if !ok || !ds.Contains(node) {
			continue
		}
		if n != nil {
			// More than one node changed, so there is nothing sensible to continue from
			n = nil
			break
		}
		n = node
		d.wayIsFinished = false
	}
	if n != nil {
		ds.AddSelected(n)
		d.lastUsedNode = n
	}
	d.computeHelperLine(ctx)
}

// Work out the node the next segment would start from and snap the cursor
// relative to the segment before it.
func (d *Draw) computeHelperLine(ctx *Context) {
	ds, v := ctx.DataSet(), ctx.View()
	d.currentBaseNode = nil
	d.previousNode = nil
	d.mouseOnExistingNode = nil
	d.mouseOnExistingWays = nil
	d.hasHelperLine = false

	var currentMouseNode *osm.Node
	if !ctx.Modifiers.Ctrl {
		currentMouseNode = v.NearestNode(ds, d.mousePos, nil)
		if currentMouseNode == nil {
			for _, s := range v.NearestWaySegments(ds, d.mousePos, nil) {
				if indexOfWay(d.mouseOnExistingWays, s.Way) < 0 {
					d.mouseOnExistingWays = append(d.mouseOnExistingWays, s.Way)
				}
			}
		}
	}

	var mouseEN geom.EastNorth
	if currentMouseNode != nil {
		if ds.SelectionEmpty() {
			return
		}
		mouseEN = currentMouseNode.EastNorth()
		d.mouseOnExistingNode = currentMouseNode
	} else {
		mouseEN = v.EastNorth(d.mousePos)
	}

	d.determineBaseNode(ds)
	if d.previousNode == nil {
		d.snap.NoSnapNow()
	}
	if d.currentBaseNode == nil || d.currentBaseNode == currentMouseNode {
		return
	}
	d.helperEnd = d.checkSnapping(ctx, mouseEN).Point
	d.hasHelperLine = true
}

func (d *Draw) determineBaseNode(ds *osm.DataSet) {
	var selectedNode *osm.Node
	var selectedWay *osm.Way
	for _, p := range ds.Selected() {
		switch p := p.(type) {
		case *osm.Node:
			if selectedNode != nil {
				return
			}
			selectedNode = p
		case *osm.Way:
			if selectedWay != nil {
				return
			}
			selectedWay = p
		}
	}

	// A lone selected node that ends exactly one way gives that way's last
	// segment as the reference for angles
	if selectedWay == nil && selectedNode != nil {
		for _, w := range ds.Referrers(selectedNode) {
			if w.IsHidden() || !w.IsFirstLastNode(selectedNode) {
				continue
			}
			if selectedWay != nil {
				selectedWay = nil
				break
			}
			selectedWay = w
		}
	}

	switch {
	case selectedNode == nil && selectedWay == nil:
	case selectedNode == nil:
		d.continueWayFromNode(selectedWay, d.lastUsedNode)
	case selectedWay == nil:
		d.currentBaseNode = selectedNode
	default:
		d.continueWayFromNode(selectedWay, selectedNode)
	}
}

func (d *Draw) continueWayFromNode(w *osm.Way, n *osm.Node) {
	if n == nil {
		return
	}
	count := w.NodesCount()
	switch n {
	case w.FirstNode():
		d.currentBaseNode = n
		if count > 1 {
			d.previousNode = w.Node(1)
		}
	case w.LastNode():
		d.currentBaseNode = n
		if count > 1 {
			d.previousNode = w.Node(count - 2)
		}
	}
}

func (d *Draw) checkSnapping(ctx *Context, en geom.EastNorth) snap.Result {
	base := d.currentBaseNode.EastNorth()
	baseHeading := snap.NoHeading
	if d.previousNode != nil {
		baseHeading = geom.ToDegrees(d.previousNode.EastNorth().Heading(base))
	}
	return d.snap.CheckAngleSnapping(snap.Input{
		Base:         base,
		Current:      en,
		BaseHeading:  baseHeading,
		CurHeading:   geom.ToDegrees(base.Heading(en)),
		Dist100Pixel: ctx.View().Dist100Pixel(),
		ProjectTo:    projectionCandidates(ctx.DataSet()),
	})
}

// Snap en if there is a base node to snap relative to.
func (d *Draw) snapPoint(ctx *Context, en geom.EastNorth) geom.EastNorth {
	if d.currentBaseNode == nil || !d.snap.SnapOn() {
		return en
	}
	r := d.checkSnapping(ctx, en)
	if !r.Active {
		return en
	}
	return r.Point
}

// Nodes of the single selected way attract the cursor along the snap ray.
// Huge ways are skipped.
func projectionCandidates(ds *osm.DataSet) []geom.EastNorth {
	ways := ds.SelectedWays()
	if len(ways) != 1 || ways[0].NodesCount() >= 1000 {
		return nil
	}
	return nodePositions(ways[0].Nodes())
}

// With an active snap ray, put n where the ray crosses the nearest segment.
func (d *Draw) moveNodeOnIntersection(segs []osm.WaySegment, n *osm.Node) {
	if len(segs) == 0 {
		return
	}
	from, to, ok := d.snap.Ray()
	if !ok {
		return
	}
	s := segs[0]
	if x, ok := geom.SegmentSegmentIntersection(s.FirstEastNorth(), s.SecondEastNorth(), to, from); ok {
		n.SetEastNorth(x)
	}
}

// Move a node that is being inserted into segments onto them: onto the
// crossing of exactly two segments if that is within threshold pixels,
// otherwise onto the line through the first one.
func adjustNode(v viewPoints, segs []osm.NodePair, n *osm.Node, threshold float64) {
	if len(segs) == 0 {
		return
	}
	if len(segs) == 2 {
		a, b := segs[0].A.EastNorth(), segs[0].B.EastNorth()
		c, e := segs[1].A.EastNorth(), segs[1].B.EastNorth()
		x, ok := geom.LineLineIntersection(a, b, c, e)
		if !ok {
			return
		}
		if v.Point(n.EastNorth()).Distance(v.Point(x)) < threshold {
			n.SetEastNorth(x)
			return
		}
	}
	a, b := segs[0].A.EastNorth(), segs[0].B.EastNorth()
	n.SetEastNorth(geom.ClosestPointToLine(a, b, n.EastNorth()))
}

type viewPoints interface {
	Point(en geom.EastNorth) geom.Point
}

func (d *Draw) Feedback(ctx *Context) Feedback {
	f := Feedback{Cursor: CursorCrosshair, Status: d.snap.Label()}
	switch {
	case ctx.Modifiers.Ctrl:
	case d.mouseOnExistingNode != nil:
		f.Cursor = CursorJoinNode
		f.Highlight = []osm.Primitive{d.mouseOnExistingNode}
	case len(d.mouseOnExistingWays) > 0:
		f.Cursor = CursorJoinWay
		f.Highlight = primitives(d.mouseOnExistingWays)
	}
	return f
}

func (d *Draw) Overlay(ctx *Context) Overlay {
	var o Overlay
	if !d.hasHelperLine || d.wayIsFinished || ctx.Modifiers.Shift || d.currentBaseNode == nil {
		return o
	}
	o.AddLine(d.currentBaseNode.EastNorth(), d.helperEnd, RubberBand)
	if from, to, ok := d.snap.Ray(); ok && d.snap.Active() {
		o.AddLine(from, to, SnapLine)
		if src, ok := d.snap.ProjectionSource(); ok {
			o.AddLine(src, d.helperEnd, SnapLine)
			o.AddMarker(src, SnapMarker)
		}
		o.AddLabel(d.helperEnd, d.snap.Label())
	}
	return o
}
