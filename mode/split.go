package mode

import (
	"fmt"

	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/dbg"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/topo"
	"github.com/pkg/errors"
)

// Split cuts ways with a click. On a node, every way through it is split
// there; on a segment, a node is inserted at the closest point first. A ring
// needs a second split node, taken from the selected nodes; a click that
// cannot split a ring selects the node instead so the next click can.
type Split struct {
	base
	hoverNode *osm.Node
	hoverSeg  osm.WaySegment
	hasSeg    bool
}

func NewSplit() *Split {
	return &Split{}
}

func (s *Split) Name() string {
	return "split"
}

func (s *Split) Pointer(ctx *Context, e PointerEvent) {
	ds, v := ctx.DataSet(), ctx.View()
	switch e.Action {
	case Move:
		s.hoverNode = v.NearestNode(ds, e.Point, nil)
		s.hoverSeg, s.hasSeg = v.NearestWaySegment(ds, e.Point, nil)
	case Release:
		if e.Button != LeftButton {
			return
		}
		if n := v.NearestNode(ds, e.Point, nil); n != nil {
			s.splitAtNode(ctx, n)
		} else if seg, ok := v.NearestWaySegment(ds, e.Point, nil); ok {
			s.splitAtSegment(ctx, seg, v.EastNorth(e.Point))
		}
	}
}

// Split nodes for w: n plus the selected nodes w contains.
func splitNodesFor(ds *osm.DataSet, w *osm.Way, n *osm.Node) []*osm.Node {
	nodes := []*osm.Node{n}
	for _, sel := range ds.SelectedNodes() {
		if sel != n && w.ContainsNode(sel) {
			nodes = append(nodes, sel)
		}
	}
	return nodes
}

func (s *Split) splitAtNode(ctx *Context, n *osm.Node) {
	ds := ctx.DataSet()
	var cmds []command.Command
	var result []*osm.Way
	for _, w := range ds.Referrers(n) {
		if w.IsHidden() || (!w.IsClosed() && !w.IsInnerNode(n)) {
			continue
		}
		res, err := topo.SplitWay(ds, w, splitNodesFor(ds, w, n))
		if err != nil {
			if dbg.Enabled {
				dbg.Logf("split: %s: %v", dbg.Name(w), err)
			}
			continue
		}
		cmds = append(cmds, res.Command)
		result = append(result, res.Ways()...)
	}
	if len(cmds) == 0 {
		// Probably the first node of a ring
		ds.AddSelected(n)
		return
	}
	title := "Split way"
	if len(cmds) > 1 {
		title = fmt.Sprintf("Split %d ways", len(cmds))
	}
	if ctx.Submit(command.Sequence(title, cmds...)) {
		ds.SetSelected(primitives(result)...)
	}
}

func (s *Split) splitAtSegment(ctx *Context, seg osm.WaySegment, at geom.EastNorth) {
	ds := ctx.DataSet()
	en := geom.ClosestPointToSegment(seg.FirstEastNorth(), seg.SecondEastNorth(), at)
	if ds.OutsideWorld(en) {
		ctx.Prompter().Warn("Cannot add a node outside of the world.")
		return
	}
	n := osm.NewNode(en)
	ins, err := topo.InsertNodeIntoSegments(ds, []osm.WaySegment{seg}, n)
	if err != nil {
		dbg.Warnf("split: %v", err)
		return
	}
	cmds := append([]command.Command{command.Add(ds, n)}, ins.Commands...)

	way := ins.Reuse[0]
	res, err := topo.SplitWay(ds, way, splitNodesFor(ds, way, n))
	if errors.Is(err, topo.ErrCannotSplit) {
		// A ring with only this node to split at
		if ctx.Submit(command.Sequence("Add node into way", cmds...)) {
			ds.AddSelected(n)
		}
		return
	} else if err != nil {
		dbg.Warnf("split: %v", err)
		return
	}
	cmds = append(cmds, res.Command)
	if ctx.Submit(command.Sequence("Split way", cmds...)) {
		ds.SetSelected(primitives(res.Ways())...)
	}
}

func (s *Split) Feedback(ctx *Context) Feedback {
	f := Feedback{Cursor: CursorSplit}
	switch {
	case s.hoverNode != nil && s.hoverNode.DataSet() != nil:
		f.Highlight = []osm.Primitive{s.hoverNode}
	case s.hasSeg && s.hoverSeg.IsValid():
		f.HighlightSegments = []osm.WaySegment{s.hoverSeg}
	}
	return f
}

func (s *Split) Overlay(ctx *Context) Overlay {
	var o Overlay
	if s.hoverNode == nil && s.hasSeg && s.hoverSeg.IsValid() {
		at := geom.ClosestPointToSegment(s.hoverSeg.FirstEastNorth(), s.hoverSeg.SecondEastNorth(), ctx.EastNorth(ctx.Point))
		o.AddMarker(at, CandidateMarker)
	}
	return o
}
