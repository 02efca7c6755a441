package mode

import (
	"testing"

	"github.com/osuushi/wayedit/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode(t *testing.T) {
	s := newTestSession(t, nil)
	ds := s.DataSet
	w := addWay(t, ds, addNode(t, ds, -10, 0), addNode(t, ds, 10, 0))
	require.NoError(t, s.SetModeByName("addnode"))
	d := newDriver(t, s)

	t.Run("free", func(t *testing.T) {
		d.click(3, 5)
		require.Len(t, ds.SelectedNodes(), 1)
		n := ds.SelectedNodes()[0]
		assertEN(t, en(3, 5), n.EastNorth())
		assert.Zero(t, n.ReferrerCount())
		assert.Equal(t, "Add node", s.UndoRedo.Last().Description())
	})

	t.Run("on a segment", func(t *testing.T) {
		d.move(2, 0.4)
		assert.Equal(t, CursorJoinWay, s.Feedback().Cursor)
		assert.Len(t, s.Overlay().Markers, 1)
		d.click(2, 0.4)
		cur := ds.Way(w.ID())
		require.Equal(t, 3, cur.NodesCount())
		assertEN(t, en(2, 0), cur.Node(1).EastNorth())
		assert.Equal(t, []osm.Primitive{cur.Node(1)}, ds.Selected())
		assert.Equal(t, "Add node into way", s.UndoRedo.Last().Description())
	})

	t.Run("ctrl keeps it off the way", func(t *testing.T) {
		d.with(Modifiers{Ctrl: true}).click(-5, 0.4)
		assert.Equal(t, 3, ds.Way(w.ID()).NodesCount())
		assertEN(t, en(-5, 0.4), ds.SelectedNodes()[0].EastNorth())
	})

	assert.Equal(t, 3, undoDepth(s))
}

func TestAddNodeIntoSharedSegment(t *testing.T) {
	s := newTestSession(t, nil)
	ds := s.DataSet
	a, b := addNode(t, ds, -10, 0), addNode(t, ds, 10, 0)
	w1 := addWay(t, ds, a, b)
	w2 := addWay(t, ds, b, a)
	require.NoError(t, s.SetModeByName("addnode"))

	newDriver(t, s).click(0, 0)
	n := ds.SelectedNodes()[0]
	assert.True(t, ds.Way(w1.ID()).ContainsNode(n))
	assert.True(t, ds.Way(w2.ID()).ContainsNode(n))
	assert.Equal(t, 1, undoDepth(s))
}

func TestAddWay(t *testing.T) {
	s := newTestSession(t, nil)
	ds := s.DataSet
	a, b := addNode(t, ds, 0, 0), addNode(t, ds, 10, 0)
	c := addNode(t, ds, 10, 10)
	require.NoError(t, s.SetModeByName("addway"))
	m := s.Mode().(*AddWay)
	d := newDriver(t, s)

	d.click(0, 0)
	assert.Nil(t, m.Way())
	assert.Equal(t, []osm.Primitive{a}, ds.Selected())
	assert.Zero(t, undoDepth(s))

	// Clicking the start node again does nothing
	d.click(0, 0)
	assert.Nil(t, m.Way())

	d.click(10, 0)
	require.NotNil(t, m.Way())
	assert.Equal(t, []*osm.Node{a, b}, m.Way().Nodes())

	d.move(5, 5)
	require.Len(t, s.Overlay().Lines, 1)
	assertEN(t, en(10, 0), s.Overlay().Lines[0].From)

	d.click(10, 10)
	id := m.Way().ID()
	assert.Equal(t, []*osm.Node{a, b, c}, ds.Way(id).Nodes())
	assert.Equal(t, 2, undoDepth(s))

	t.Run("empty space is ignored", func(t *testing.T) {
		d.click(20, 20)
		assert.Equal(t, 3, ds.Way(id).NodesCount())
	})

	t.Run("enter starts over", func(t *testing.T) {
		d.key(KeyEnter)
		assert.Nil(t, m.Way())
		assert.Empty(t, s.Overlay().Lines)
		d.click(10, 10)
		d.click(0, 0)
		assert.Len(t, ds.Ways(), 2)
	})
}

func TestAddWayFollowsUndo(t *testing.T) {
	s := newTestSession(t, nil)
	ds := s.DataSet
	a := addNode(t, ds, 0, 0)
	addNode(t, ds, 10, 0)
	c := addNode(t, ds, 10, 10)
	require.NoError(t, s.SetModeByName("addway"))
	m := s.Mode().(*AddWay)
	d := newDriver(t, s)

	d.click(0, 0)
	d.click(10, 0)
	id := m.Way().ID()
	// Undo re-enters the mode, which starts over
	require.NoError(t, s.Undo())
	assert.Nil(t, ds.Way(id))
	assert.Nil(t, m.Way())

	d.click(10, 10)
	d.click(0, 0)
	require.Len(t, ds.Ways(), 1)
	assert.Equal(t, []*osm.Node{c, a}, ds.Ways()[0].Nodes())
}
