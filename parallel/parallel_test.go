package parallel

import (
	"embed"
	"math"
	"testing"

	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/topo"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed fixtures
var fixtures embed.FS

func loadFixture(t *testing.T, name string) *osm.DataSet {
	t.Helper()
	fixture, err := fixtures.Open("fixtures/" + name + ".svg")
	require.NoError(t, err, "could not load fixture %q", name)
	defer fixture.Close()

	ds := osm.NewDataSet(nil)
	require.NoError(t, osm.LoadSVG(fixture, ds), "failed to parse fixture %q", name)
	return ds
}

func en(e, n float64) geom.EastNorth {
	return geom.EastNorth{East: e, North: n}
}

func wayOf(t *testing.T, ds *osm.DataSet, points ...geom.EastNorth) *osm.Way {
	t.Helper()
	nodes := make([]*osm.Node, len(points))
	for i, p := range points {
		nodes[i] = osm.NewNode(p)
		require.NoError(t, ds.AddPrimitive(nodes[i]))
	}
	w := osm.NewWay(nodes...)
	require.NoError(t, ds.AddPrimitive(w))
	return w
}

func positions(p *Ways) []geom.EastNorth {
	result := make([]geom.EastNorth, len(p.SortedNodes()))
	for i, n := range p.SortedNodes() {
		result[i] = n.EastNorth()
	}
	return result
}

func assertPositions(t *testing.T, expected, actual []geom.EastNorth) {
	t.Helper()
	require.Equal(t, len(expected), len(actual))
	for i := range expected {
		assert.InDelta(t, expected[i].East, actual[i].East, geom.Epsilon, "east of node %d", i)
		assert.InDelta(t, expected[i].North, actual[i].North, geom.Epsilon, "north of node %d", i)
	}
}

func TestThreeNodeWay(t *testing.T) {
	ds := osm.NewDataSet(nil)
	source := wayOf(t, ds, en(0, 0), en(10, 0), en(10, 10))
	u := command.NewUndoRedo(10)

	p, err := New(ds, []*osm.Way{source}, 0)
	require.NoError(t, err)
	assert.False(t, p.IsClosedPath())
	require.Len(t, p.Ways(), 1)
	for i, n := range p.SortedNodes() {
		assert.True(t, n.IsNew())
		assert.NotSame(t, source.Node(i), n, "nodes are copies")
	}

	p.SetOffset(5)
	// Endpoints move exactly d along their edge normal; the corner sits where
	// the two offset edges meet.
	assertPositions(t, []geom.EastNorth{en(0, 5), en(5, 5), en(5, 10)}, positions(p))
	assert.Equal(t, 5.0, p.Offset())

	require.NoError(t, u.Add(p.Commit()))
	assert.Len(t, ds.Nodes(), 6)
	assert.Len(t, ds.Ways(), 2)
	assert.Equal(t, CommitDescription, u.Last().Description())

	require.NoError(t, u.Undo())
	assert.Len(t, ds.Nodes(), 3)
	assert.Equal(t, []*osm.Way{source}, ds.Ways())
}

func TestOffsetIsReversible(t *testing.T) {
	for _, name := range []string{"chain", "ring"} {
		name := name
		t.Run(name, func(t *testing.T) {
			ds := loadFixture(t, name)
			p, err := New(ds, ds.Ways(), 0)
			require.NoError(t, err)
			original := positions(p)

			for _, d := range []float64{5, -3, 0.25, 12} {
				p.ChangeOffset(d)
				p.ChangeOffset(-d)
				assertPositions(t, original, positions(p))
			}

			p.SetOffset(7)
			p.SetOffset(0)
			assertPositions(t, original, positions(p))
		})
	}
}

func TestOffsetOpenChain(t *testing.T) {
	ds := loadFixture(t, "chain")
	p, err := New(ds, ds.Ways(), 0)
	require.NoError(t, err)
	path := p.SortedNodes()
	require.Len(t, path, 7)
	// The three copies share their connecting nodes
	assert.Len(t, p.Ways(), 3)

	p.SetOffset(2)
	last := len(path) - 1
	assert.InDelta(t, 2, path[0].EastNorth().Distance(p.OriginalPosition(0)), geom.Epsilon)
	assert.InDelta(t, 2, path[last].EastNorth().Distance(p.OriginalPosition(last)), geom.Epsilon)
	// Interior nodes keep distance d from both adjacent edges
	for i := 1; i < last; i++ {
		pos := path[i].EastNorth()
		assert.InDelta(t, 2, geom.DistanceToLine(p.OriginalPosition(i-1), p.OriginalPosition(i), pos), 1e-6)
		assert.InDelta(t, 2, geom.DistanceToLine(p.OriginalPosition(i), p.OriginalPosition(i+1), pos), 1e-6)
	}
}

func TestOrientation(t *testing.T) {
	ds := loadFixture(t, "chain")
	for ref := range ds.Ways() {
		p, err := New(ds, ds.Ways(), ref)
		require.NoError(t, err)

		refWay := p.Ways()[ref]
		first, second := refWay.FirstNode(), refWay.Node(1)
		direction := second.EastNorth().Sub(first.EastNorth())
		before := first.EastNorth()

		p.SetOffset(1)
		moved := first.EastNorth().Sub(before)
		assert.Greater(t, direction.Cross(moved), 0.0, "reference way %d: positive offsets go left", ref)
	}
}

func TestClosedPath(t *testing.T) {
	ds := loadFixture(t, "ring")
	p, err := New(ds, ds.Ways(), 0)
	require.NoError(t, err)
	assert.True(t, p.IsClosedPath())
	require.Len(t, p.SortedNodes(), 5)

	// The ring runs clockwise, so its left side is the outside
	p.SetOffset(5)
	pts := positions(p)
	assert.Equal(t, pts[0], pts[4])
	for _, pt := range pts {
		assert.InDelta(t, 25, math.Abs(pt.East-20), 1e-6)
		assert.InDelta(t, 25, math.Abs(pt.North+20), 1e-6)
	}

	cmd := p.Commit()
	require.NoError(t, cmd.Execute())
	assert.Len(t, ds.Nodes(), 8)
	assert.Len(t, ds.Ways(), 4)
	require.NoError(t, cmd.Undo())
	assert.Len(t, ds.Nodes(), 4)
}

func TestCoincidentNodes(t *testing.T) {
	ds := osm.NewDataSet(nil)
	source := wayOf(t, ds, en(0, 0), en(10, 0), en(10, 0), en(20, 0))

	p, err := New(ds, []*osm.Way{source}, 0)
	require.NoError(t, err)
	assert.Len(t, p.SortedNodes(), 3)
	assert.Equal(t, 3, p.Ways()[0].NodesCount())

	p.SetOffset(1)
	assertPositions(t, []geom.EastNorth{en(0, 1), en(10, 1), en(20, 1)}, positions(p))
}

func TestNoSpanningPath(t *testing.T) {
	for _, name := range []string{"branch", "disconnected", "figure8"} {
		name := name
		t.Run(name, func(t *testing.T) {
			ds := loadFixture(t, name)
			ways, nodes := len(ds.Ways()), len(ds.Nodes())
			p, err := New(ds, ds.Ways(), 0)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, topo.ErrNoSpanningPath), "got %v", err)
			// Nothing reached the data set
			assert.Len(t, ds.Ways(), ways)
			assert.Len(t, ds.Nodes(), nodes)
		})
	}

	ds := loadFixture(t, "chain")
	_, err := New(ds, ds.Ways(), 3)
	assert.Error(t, err)
}
