package mode

import (
	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/dbg"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/topo"
)

// AddNode places single nodes. A click near a segment puts the node on the
// segment and into its way (and every other way sharing the segment); Ctrl
// keeps it free standing.
type AddNode struct {
	base
	hoverSeg osm.WaySegment
	hasSeg   bool
}

func NewAddNode() *AddNode {
	return &AddNode{}
}

func (m *AddNode) Name() string {
	return "addnode"
}

func (m *AddNode) Pointer(ctx *Context, e PointerEvent) {
	ds, v := ctx.DataSet(), ctx.View()
	switch e.Action {
	case Move:
		m.hoverSeg, m.hasSeg = v.NearestWaySegment(ds, e.Point, nil)
		if e.Modifiers.Ctrl {
			m.hasSeg = false
		}
	case Release:
		if e.Button == LeftButton {
			m.add(ctx, e)
		}
	}
}

func (m *AddNode) add(ctx *Context, e PointerEvent) {
	ds, v := ctx.DataSet(), ctx.View()
	en := v.EastNorth(e.Point)

	var segs []osm.WaySegment
	if !e.Modifiers.Ctrl {
		if seg, ok := v.NearestWaySegment(ds, e.Point, nil); ok {
			en = geom.ClosestPointToSegment(seg.FirstEastNorth(), seg.SecondEastNorth(), en)
			for _, other := range v.NearestWaySegments(ds, e.Point, nil) {
				if other.IsSimilar(seg) {
					segs = append(segs, other)
				}
			}
		}
	}
	if ds.OutsideWorld(en) {
		ctx.Prompter().Warn("Cannot add a node outside of the world.")
		return
	}

	n := osm.NewNode(en)
	cmds := []command.Command{command.Add(ds, n)}
	title := "Add node"
	if len(segs) > 0 {
		res, err := topo.InsertNodeIntoSegments(ds, segs, n)
		if err != nil {
			dbg.Warnf("addnode: %v", err)
			return
		}
		cmds = append(cmds, res.Commands...)
		title = "Add node into way"
	}
	if ctx.Submit(command.Sequence(title, cmds...)) {
		ds.SetSelected(n)
	}
}

func (m *AddNode) Feedback(ctx *Context) Feedback {
	f := Feedback{Cursor: CursorCrosshair}
	if m.hasSeg && m.hoverSeg.IsValid() {
		f.Cursor = CursorJoinWay
		f.HighlightSegments = []osm.WaySegment{m.hoverSeg}
	}
	return f
}

func (m *AddNode) Overlay(ctx *Context) Overlay {
	var o Overlay
	if m.hasSeg && m.hoverSeg.IsValid() {
		at := geom.ClosestPointToSegment(m.hoverSeg.FirstEastNorth(), m.hoverSeg.SecondEastNorth(), ctx.EastNorth(ctx.Point))
		o.AddMarker(at, CandidateMarker)
	}
	return o
}
