package mode

import (
	"testing"

	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type improveFixture struct {
	s       *Session
	d       *driver
	a, b, c *osm.Node
	way     *osm.Way
}

func newImproveFixture(t *testing.T) *improveFixture {
	s := newTestSession(t, nil)
	ds := s.DataSet
	f := &improveFixture{s: s, d: newDriver(t, s)}
	f.a, f.b, f.c = addNode(t, ds, -10, 0), addNode(t, ds, 0, 0), addNode(t, ds, 10, 0)
	f.way = addWay(t, ds, f.a, f.b, f.c)
	ds.SetSelected(f.way)
	require.NoError(t, s.SetModeByName("improve"))
	require.True(t, s.Mode().(*Improve).Improving())
	return f
}

func TestImproveMovesNearestNode(t *testing.T) {
	f := newImproveFixture(t)
	f.d.move(1, 4)
	o := f.s.Overlay()
	assert.Len(t, o.Lines, 2)
	assert.Equal(t, CursorMove, f.s.Feedback().Cursor)

	f.d.click(1, 4)
	assertEN(t, en(1, 4), f.b.EastNorth())
	assert.Equal(t, 1, undoDepth(f.s))
	// The way stays selected for the next click
	assert.True(t, f.s.Mode().(*Improve).Improving())
}

func TestImproveAddsNodeToSharedSegment(t *testing.T) {
	f := newImproveFixture(t)
	ds := f.s.DataSet
	other := addWay(t, ds, f.c, f.b)

	f.d.with(Modifiers{Ctrl: true}).click(5, 2)

	cur := ds.Way(f.way.ID())
	require.Equal(t, 4, cur.NodesCount())
	added := cur.Node(2)
	assertEN(t, en(5, 2), added.EastNorth())
	otherCur := ds.Way(other.ID())
	require.Equal(t, 3, otherCur.NodesCount())
	assert.Same(t, added, otherCur.Node(1))
	assert.Equal(t, "Add a new node to an existing way", f.s.UndoRedo.Last().Description())
	assert.Equal(t, 1, undoDepth(f.s))
}

func TestImproveRemovesNode(t *testing.T) {
	f := newImproveFixture(t)
	ds := f.s.DataSet

	f.d.with(Modifiers{Alt: true}).click(9, 1)
	assert.False(t, ds.Contains(f.c))
	assert.Equal(t, 2, ds.Way(f.way.ID()).NodesCount())

	t.Run("shared node is only taken out of the way", func(t *testing.T) {
		extra := addNode(t, ds, 0, 10)
		other := addWay(t, ds, f.b, extra)
		f.d.click(0.5, -1)
		assert.True(t, ds.Contains(f.b))
		assert.Equal(t, 2, ds.Way(other.ID()).NodesCount())
		// Only a is left, so the way goes
		assert.False(t, ds.Contains(f.way))
	})
}

func TestImproveClickSelectsWay(t *testing.T) {
	s := newTestSession(t, nil)
	ds := s.DataSet
	w := addWay(t, ds, addNode(t, ds, -10, 0), addNode(t, ds, 10, 0))
	require.NoError(t, s.SetModeByName("improve"))
	m := s.Mode().(*Improve)
	assert.False(t, m.Improving())

	d := newDriver(t, s)
	d.move(0, 0.5)
	assert.Equal(t, []osm.Primitive{w}, s.Feedback().Highlight)
	d.click(0, 0.5)
	assert.Equal(t, []osm.Primitive{w}, ds.Selected())
	assert.True(t, m.Improving())
	assert.Zero(t, undoDepth(s))

	ds.ClearSelection()
	assert.False(t, m.Improving())
}

func TestFindCandidateNode(t *testing.T) {
	ds := osm.NewDataSet(osm.Identity{})
	nodes := []*osm.Node{
		osm.NewNode(en(0, 3)),
		osm.NewNode(en(20, 3)),
		osm.NewNode(en(5, 2)),
		osm.NewNode(en(-5, 2)),
	}
	for _, n := range nodes {
		require.NoError(t, ds.AddPrimitive(n))
	}
	w := osm.NewWay(nodes...)
	require.NoError(t, ds.AddPrimitive(w))

	// The first node is nearest, but the last segment lies in between
	assert.Same(t, nodes[2], FindCandidateNode(w, en(0, 1.5)))
	assert.Same(t, nodes[0], FindCandidateNode(w, en(0, 3.5)))
	assert.Same(t, nodes[1], FindCandidateNode(w, en(19, 2)))
}

func TestFindCandidateSegment(t *testing.T) {
	ds := osm.NewDataSet(osm.Identity{})
	nodes := []*osm.Node{
		osm.NewNode(en(0, 0)),
		osm.NewNode(en(10, 0)),
		osm.NewNode(en(10, 10)),
	}
	for _, n := range nodes {
		require.NoError(t, ds.AddPrimitive(n))
	}
	w := osm.NewWay(nodes...)
	require.NoError(t, ds.AddPrimitive(w))

	seg, ok := FindCandidateSegment(w, en(5, 1))
	require.True(t, ok)
	assert.Equal(t, 0, seg.LowerIndex)

	seg, ok = FindCandidateSegment(w, en(11, 5))
	require.True(t, ok)
	assert.Equal(t, 1, seg.LowerIndex)

	// Past the corner both segments are equally near; the one the cursor
	// is more in line with wins
	seg, ok = FindCandidateSegment(w, en(12, -1))
	require.True(t, ok)
	assert.Equal(t, 0, seg.LowerIndex)

	_, ok = FindCandidateSegment(osm.NewWay(), geom.EastNorth{})
	assert.False(t, ok)
}
