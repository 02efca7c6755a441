package osm

import (
	"embed"
	"testing"

	"github.com/stretchr/testify/require"
)

// Fixtures are available by name in the fixtures/ directory, sans extension.

//go:embed fixtures
var fixtures embed.FS

func loadFixture(t *testing.T, name string) *DataSet {
	t.Helper()
	fixture, err := fixtures.Open("fixtures/" + name + ".svg")
	require.NoError(t, err, "could not load fixture %q", name)
	defer fixture.Close()

	ds := NewDataSet(nil)
	require.NoError(t, LoadSVG(fixture, ds), "failed to parse fixture %q", name)
	return ds
}

func nodeAt(t *testing.T, ds *DataSet, e, n float64) *Node {
	t.Helper()
	for _, node := range ds.Nodes() {
		if node.EastNorth().East == e && node.EastNorth().North == n {
			return node
		}
	}
	t.Fatalf("no node at %v,%v", e, n)
	return nil
}
