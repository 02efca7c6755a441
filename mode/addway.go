package mode

import (
	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/dbg"
	"github.com/osuushi/wayedit/osm"
)

// AddWay connects existing nodes. The first click picks a start node, the
// second creates a way between the two, and every later click appends to
// that way. Enter, Escape or a double click starts over.
type AddWay struct {
	base
	nodes []*osm.Node
	way   *osm.Way
	hover *osm.Node
}

func NewAddWay() *AddWay {
	return &AddWay{}
}

func (m *AddWay) Name() string {
	return "addway"
}

func (m *AddWay) Exit(ctx *Context) {
	m.finish()
}

func (m *AddWay) finish() {
	m.nodes = nil
	m.way = nil
}

// The way being built, or nil before the second node.
func (m *AddWay) Way() *osm.Way {
	return m.way
}

func (m *AddWay) Key(ctx *Context, e KeyEvent) {
	switch e.Key {
	case KeyEnter, KeyEscape:
		m.finish()
	}
}

func (m *AddWay) Pointer(ctx *Context, e PointerEvent) {
	ds, v := ctx.DataSet(), ctx.View()
	switch e.Action {
	case Move:
		m.hover = v.NearestNode(ds, e.Point, nil)
	case Release:
		if e.Button != LeftButton {
			return
		}
		if e.ClickCount >= 2 {
			m.finish()
			return
		}
		if n := v.NearestNode(ds, e.Point, nil); n != nil {
			m.addNode(ctx, n)
		}
	}
}

func (m *AddWay) addNode(ctx *Context, n *osm.Node) {
	ds := ctx.DataSet()
	// The way may have been undone or replaced in the meantime
	if m.way != nil {
		if cur := ds.Way(m.way.ID()); cur != nil {
			m.way = cur
		} else {
			m.finish()
		}
	}

	switch {
	case len(m.nodes) == 0:
		m.nodes = []*osm.Node{n}
		ds.SetSelected(n)
	case m.way == nil:
		if n == m.nodes[0] {
			return
		}
		w := osm.NewWay(m.nodes[0], n)
		if ctx.Submit(command.Add(ds, w)) {
			m.nodes = append(m.nodes, n)
			m.way = w
			ds.SetSelected(w)
		}
	default:
		cp := m.way.Copy()
		if err := cp.AddNode(n); err != nil {
			dbg.Logf("addway: %v", err)
			return
		}
		if ctx.Submit(command.Change(ds, m.way, cp)) {
			m.nodes = append(m.nodes, n)
			m.way = cp
			ds.SetSelected(cp)
		}
	}
}

func (m *AddWay) Feedback(ctx *Context) Feedback {
	f := Feedback{Cursor: CursorNormal}
	if m.hover != nil && m.hover.DataSet() != nil {
		f.Cursor = CursorJoinNode
		f.Highlight = []osm.Primitive{m.hover}
	}
	return f
}

func (m *AddWay) Overlay(ctx *Context) Overlay {
	var o Overlay
	if len(m.nodes) > 0 {
		last := m.nodes[len(m.nodes)-1]
		o.AddLine(last.EastNorth(), ctx.EastNorth(ctx.Point), RubberBand)
	}
	return o
}
