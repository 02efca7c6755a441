package osm

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/osuushi/wayedit/geom"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func en(e, n float64) geom.EastNorth {
	return geom.EastNorth{East: e, North: n}
}

// Build nodes for the given coordinates and add them to ds.
func addNodes(t *testing.T, ds *DataSet, coords ...geom.EastNorth) []*Node {
	t.Helper()
	nodes := make([]*Node, len(coords))
	for i, c := range coords {
		nodes[i] = NewNode(c)
		require.NoError(t, ds.AddPrimitive(nodes[i]))
	}
	return nodes
}

func TestWay(t *testing.T) {
	a, b, c, d := NewNode(en(0, 0)), NewNode(en(1, 0)), NewNode(en(1, 1)), NewNode(en(0, 1))

	t.Run("Closed", func(t *testing.T) {
		assert.False(t, NewWay(a, b).IsClosed())
		assert.False(t, NewWay(a, a).IsClosed())
		assert.True(t, NewWay(a, b, a).IsClosed())
		assert.True(t, NewWay(a, b, c, a).IsClosed())
	})

	t.Run("Neighbours", func(t *testing.T) {
		open := NewWay(a, b, c)
		assert.Equal(t, []*Node{b}, open.Neighbours(a))
		assert.Equal(t, []*Node{a, c}, open.Neighbours(b))

		ring := NewWay(a, b, c, d, a)
		assert.ElementsMatch(t, []*Node{d, b}, ring.Neighbours(a))
		assert.ElementsMatch(t, []*Node{c, a}, ring.Neighbours(d))
	})

	t.Run("Insert rejects consecutive duplicates", func(t *testing.T) {
		w := NewWay(a, b, c)
		assert.Equal(t, ErrConsecutiveRepeat, w.InsertNode(1, a))
		assert.Equal(t, ErrConsecutiveRepeat, w.InsertNode(2, c))
		assert.Equal(t, ErrConsecutiveRepeat, w.AddNode(c))
		require.NoError(t, w.InsertNode(2, d))
		assert.Equal(t, []*Node{a, b, d, c}, w.Nodes())
		assert.Error(t, w.InsertNode(7, d))
	})

	t.Run("RemoveNode keeps rings closed", func(t *testing.T) {
		w := NewWay(a, b, c, d, a)
		w.RemoveNode(a)
		assert.Equal(t, []*Node{b, c, d, b}, w.Nodes())
		assert.True(t, w.IsClosed())

		w = NewWay(a, b, c, d, a)
		w.RemoveNode(c)
		assert.Equal(t, []*Node{a, b, d, a}, w.Nodes())
	})

	t.Run("RemoveNode opens a ring that becomes too small", func(t *testing.T) {
		w := NewWay(a, b, c, a)
		w.RemoveNode(b)
		assert.Equal(t, []*Node{a, c}, w.Nodes())
	})

	t.Run("RemoveNode collapses repeats", func(t *testing.T) {
		w := NewWay(a, b, a, c)
		w.RemoveNode(b)
		assert.Equal(t, []*Node{a, c}, w.Nodes())
	})

	t.Run("Copy keeps the ID but not the slice", func(t *testing.T) {
		w := NewWay(a, b)
		cp := w.Copy()
		assert.Equal(t, w.ID(), cp.ID())
		require.NoError(t, cp.AddNode(c))
		assert.Equal(t, 2, w.NodesCount())
		assert.Equal(t, 3, cp.NodesCount())
	})

	t.Run("Segments", func(t *testing.T) {
		w := NewWay(a, b, c)
		other := NewWay(c, b)
		segs := w.Segments()
		require.Len(t, segs, 2)
		assert.Equal(t, b, segs[1].FirstNode())
		assert.Equal(t, c, segs[1].SecondNode())
		assert.True(t, segs[1].IsSimilar(other.Segments()[0]))
		assert.False(t, segs[1].Equal(other.Segments()[0]))
		assert.True(t, segs[0].Equal(WaySegment{Way: w.Copy(), LowerIndex: 0}))
	})

	t.Run("New IDs are negative and unique", func(t *testing.T) {
		assert.True(t, a.IsNew())
		assert.NotEqual(t, a.ID(), b.ID())
		assert.False(t, NewNodeWithID(5, en(0, 0)).IsNew())
	})
}

func TestDataSet(t *testing.T) {
	t.Run("Referrers follow way edits", func(t *testing.T) {
		ds := NewDataSet(nil)
		nodes := addNodes(t, ds, en(0, 0), en(1, 0), en(2, 0))
		w := NewWay(nodes[0], nodes[1])
		require.NoError(t, ds.AddPrimitive(w))
		assert.Equal(t, []*Way{w}, ds.Referrers(nodes[1]))
		assert.Empty(t, ds.Referrers(nodes[2]))

		cp := w.Copy()
		require.NoError(t, cp.AddNode(nodes[2]))
		require.NoError(t, ds.ReplaceWay(w, cp))
		assert.Nil(t, w.DataSet())
		assert.Equal(t, ds, cp.DataSet())
		assert.Same(t, cp, ds.Way(w.ID()))
		assert.Equal(t, []*Way{cp}, ds.Referrers(nodes[2]))

		// Swapping back restores the old object
		require.NoError(t, ds.ReplaceWay(cp, w))
		assert.Same(t, w, ds.Way(w.ID()))
		assert.Empty(t, ds.Referrers(nodes[2]))
	})

	t.Run("Ways need their nodes", func(t *testing.T) {
		ds := NewDataSet(nil)
		nodes := addNodes(t, ds, en(0, 0))
		err := ds.AddPrimitive(NewWay(nodes[0], NewNode(en(1, 1))))
		assert.True(t, errors.Is(err, ErrNotInDataSet))
	})

	t.Run("Referenced nodes cannot be removed", func(t *testing.T) {
		ds := NewDataSet(nil)
		nodes := addNodes(t, ds, en(0, 0), en(1, 0))
		w := NewWay(nodes...)
		require.NoError(t, ds.AddPrimitive(w))
		assert.True(t, errors.Is(ds.RemovePrimitive(nodes[0]), ErrStillReferenced))
		require.NoError(t, ds.RemovePrimitive(w))
		require.NoError(t, ds.RemovePrimitive(nodes[0]))
		assert.Nil(t, nodes[0].DataSet())
		assert.True(t, errors.Is(ds.RemovePrimitive(nodes[0]), ErrNotInDataSet))
	})

	t.Run("Moving a node updates the index", func(t *testing.T) {
		ds := loadFixture(t, "junction")
		lone := nodeAt(t, ds, 70, -70)
		require.NoError(t, ds.MoveNode(lone, en(-5, -5)))
		assert.Empty(t, ds.NearestNodes(en(70, -70), 1))
		assert.Equal(t, []*Node{lone}, ds.NearestNodes(en(-5, -5), 1))
		assert.Same(t, lone, ds.ClosestNode(en(-4, -4)))

		// Ways are reindexed too
		corner := nodeAt(t, ds, 100, 0)
		require.NoError(t, ds.MoveNode(corner, en(100, 40)))
		ways := ds.SearchWays(geom.NewBounds(en(99, 30), en(101, 35)))
		require.Len(t, ways, 1)
		assert.True(t, ways[0].ContainsNode(corner))
	})

	t.Run("Outside the world", func(t *testing.T) {
		ds := NewDataSet(nil)
		nodes := addNodes(t, ds, en(0, 0))
		err := ds.MoveNode(nodes[0], en(181, 0))
		assert.True(t, errors.Is(err, ErrOutsideWorld))
		assert.Equal(t, en(0, 0), nodes[0].EastNorth())
	})
}

func TestSearch(t *testing.T) {
	ds := loadFixture(t, "junction")
	junction := nodeAt(t, ds, 50, -50)

	assert.Equal(t, []*Node{junction}, ds.NearestNodes(en(52, -50), 5))
	assert.Empty(t, ds.NearestNodes(en(52, -50), 1))

	// Sorted by distance
	near := ds.NearestNodes(en(10, -90), 35)
	require.Len(t, near, 4)
	// (0,-100) and (0,-80) tie, and keep ID order
	assert.Equal(t, en(0, -100), near[0].EastNorth())
	assert.Equal(t, en(0, -80), near[1].EastNorth())

	ways := ds.SearchWays(geom.NewBounds(en(99, -30), en(101, -20)))
	require.Len(t, ways, 1)
	assert.Equal(t, int64(2), ways[0].ID())

	nodes := ds.SearchNodes(geom.NewBounds(en(-1, -101), en(41, -79)))
	assert.Len(t, nodes, 4)
}

func TestLoadSVG(t *testing.T) {
	ds := loadFixture(t, "junction")
	assert.Len(t, ds.Nodes(), 11)
	require.Len(t, ds.Ways(), 4)

	junction := nodeAt(t, ds, 50, -50)
	refs := ds.Referrers(junction)
	require.Len(t, refs, 2)
	assert.Equal(t, int64(1), refs[0].ID())
	assert.Equal(t, int64(2), refs[1].ID())

	assert.True(t, ds.Way(3).IsHidden())
	assert.True(t, ds.Way(4).IsClosed())
	assert.Equal(t, 5, ds.Way(4).NodesCount())
	assert.False(t, junction.IsNew())
}

func TestSelection(t *testing.T) {
	ds := loadFixture(t, "junction")
	var events []Event
	sub := ds.Subscribe(func(e Event) {
		events = append(events, e)
	}, SelectionChanged)

	w := ds.Way(1)
	n := nodeAt(t, ds, 70, -70)
	ds.SetSelected(w, n)
	require.Len(t, events, 1)
	assert.Equal(t, []Primitive{w, n}, events[0].Primitives)

	// Same selection again is not a change
	ds.SetSelected(w, n)
	assert.Len(t, events, 1)

	// The selection is by ID, so it survives replacing the way
	cp := w.Copy()
	require.NoError(t, ds.ReplaceWay(w, cp))
	assert.Equal(t, []*Way{cp}, ds.SelectedWays())

	ds.ToggleSelected(n)
	assert.Empty(t, ds.SelectedNodes())
	ds.AddSelected(n)
	assert.Equal(t, []*Node{n}, ds.SelectedNodes())
	assert.True(t, ds.IsSelected(n))

	// Removing a primitive deselects it
	require.NoError(t, ds.RemovePrimitive(n))
	assert.Empty(t, ds.SelectedNodes())

	count := len(events)
	sub.Close()
	sub.Close()
	ds.ClearSelection()
	assert.Len(t, events, count)
	assert.True(t, ds.SelectionEmpty())
}

func TestSubscriptionKinds(t *testing.T) {
	ds := NewDataSet(nil)
	var kinds []EventKind
	sub := ds.Subscribe(func(e Event) {
		kinds = append(kinds, e.Kind)
	})
	defer sub.Close()

	nodes := addNodes(t, ds, en(0, 0), en(1, 1))
	require.NoError(t, ds.AddPrimitive(NewWay(nodes...)))
	nodes[0].SetEastNorth(en(0, 1))
	assert.Equal(t, []EventKind{PrimitivesAdded, PrimitivesAdded, PrimitivesAdded, NodeMoved}, kinds)
}

func TestMercator(t *testing.T) {
	m, err := NewMercator()
	require.NoError(t, err)

	p := m.EastNorth(LatLon{Lat: 0, Lon: 1})
	assert.InDelta(t, EarthRadius*math.Pi/180, p.East, 1e-3)
	assert.InDelta(t, 0, p.North, 1e-3)

	ll := LatLon{Lat: 52.5, Lon: 13.4}
	back := m.LatLon(m.EastNorth(ll))
	assert.InDelta(t, ll.Lat, back.Lat, 1e-9)
	assert.InDelta(t, ll.Lon, back.Lon, 1e-9)

	assert.False(t, m.OutsideWorld(m.EastNorth(ll)))
	assert.True(t, m.OutsideWorld(en(0, 3e7)))
	assert.True(t, m.OutsideWorld(en(math.NaN(), 0)))
}

func TestMercatorOutsideWorldEastWest(t *testing.T) {
	m, err := NewMercator()
	require.NoError(t, err)

	edge := m.EastNorth(LatLon{Lat: 0, Lon: 180})
	assert.InDelta(t, MercatorHalfWorld, math.Abs(edge.East), 1e-3)

	for _, p := range []geom.EastNorth{
		en(3e7, 0),
		en(-3e7, 0),
		en(MercatorHalfWorld+1, 0),
		en(-MercatorHalfWorld-1, 1000),
		en(3e7, 3e7),
	} {
		assert.True(t, m.OutsideWorld(p), "%v should be outside", p)
	}
	assert.False(t, m.OutsideWorld(en(MercatorHalfWorld-1, 0)))
	assert.False(t, m.OutsideWorld(en(-MercatorHalfWorld+1, -1000)))

	ds := NewDataSet(m)
	n := NewNode(en(MercatorHalfWorld-10, 0))
	require.NoError(t, ds.AddPrimitive(n))
	assert.Error(t, ds.MoveNode(n, en(MercatorHalfWorld+10, 0)))
	assert.Equal(t, en(MercatorHalfWorld-10, 0), n.EastNorth())
}

func TestGreatCircleDistance(t *testing.T) {
	a := LatLon{Lat: 0, Lon: 0}
	b := LatLon{Lat: 1, Lon: 0}
	assert.InDelta(t, EarthRadius*math.Pi/180, a.GreatCircleDistance(b), 1e-6)
	assert.InDelta(t, 0, a.GreatCircleDistance(a), geom.Epsilon)
}

func TestGeoJSON(t *testing.T) {
	ds := loadFixture(t, "junction")
	ds.SetSelected(ds.Way(2))
	fc := ds.GeoJSON()
	require.Len(t, fc.Features, 5)

	assert.True(t, fc.Features[0].Geometry.IsLineString())
	assert.True(t, fc.Features[3].Geometry.IsPolygon())
	assert.True(t, fc.Features[4].Geometry.IsPoint())
	assert.Equal(t, true, fc.Features[1].Properties["selected"])
	assert.Equal(t, true, fc.Features[2].Properties["hidden"])
	assert.Equal(t, []float64{70, -70}, fc.Features[4].Geometry.Point)

	data, err := ds.MarshalGeoJSON()
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "FeatureCollection", decoded["type"])
}
