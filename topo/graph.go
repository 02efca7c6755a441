package topo

import (
	"github.com/osuushi/wayedit/internal"
	"github.com/osuushi/wayedit/osm"
	"github.com/pkg/errors"
)

// NodeGraph is the undirected graph induced by a set of ways: nodes are
// vertices, and each distinct node pair of a segment is one edge. A segment
// that appears twice (in one way or across ways) is a single edge.
type NodeGraph struct {
	// Nodes in order of first appearance, for deterministic walks
	nodes     []*osm.Node
	adjacency map[*osm.Node][]*osm.Node
	edges     map[osm.NodePair]bool
}

func NewNodeGraph(ways []*osm.Way) *NodeGraph {
	g := &NodeGraph{
		adjacency: make(map[*osm.Node][]*osm.Node),
		edges:     make(map[osm.NodePair]bool),
	}
	for _, w := range ways {
		for _, pair := range w.NodePairs() {
			g.addEdge(pair)
		}
	}
	return g
}

func (g *NodeGraph) addVertex(n *osm.Node) {
	if _, ok := g.adjacency[n]; !ok {
		g.adjacency[n] = nil
		g.nodes = append(g.nodes, n)
	}
}

func (g *NodeGraph) addEdge(pair osm.NodePair) {
	g.addVertex(pair.A)
	g.addVertex(pair.B)
	if pair.A == pair.B || g.edges[pair] || g.edges[pair.Swap()] {
		return
	}
	g.edges[pair] = true
	g.adjacency[pair.A] = append(g.adjacency[pair.A], pair.B)
	g.adjacency[pair.B] = append(g.adjacency[pair.B], pair.A)
}

func (g *NodeGraph) Degree(n *osm.Node) int {
	return len(g.adjacency[n])
}

func (g *NodeGraph) EdgeCount() int {
	return len(g.edges)
}

// Whether the graph has an edge between a and b, in either direction.
func (g *NodeGraph) HasEdge(a, b *osm.Node) bool {
	return g.edges[osm.NodePair{A: a, B: b}] || g.edges[osm.NodePair{A: b, B: a}]
}

// Order the nodes so that consecutive nodes are exactly the graph's edges.
// That is only possible if the ways form a single branchless chain. For a
// closed chain, the first node is repeated at the end. Any other shape fails
// with ErrNoSpanningPath.
func (g *NodeGraph) BuildSpanningPath() (path []*osm.Node, err error) {
	defer func() {
		if recovered := internal.HandlePanicRecover(recover()); recovered != nil {
			path = nil
			err = recovered
		}
	}()

	if len(g.edges) == 0 {
		internal.Throw(errors.Wrap(ErrNoSpanningPath, "no segments"))
	}
	start := g.checkChain()

	path = []*osm.Node{start}
	visited := make(map[osm.NodePair]bool)
	g.walk(start, &path, visited)

	if len(visited) != len(g.edges) {
		internal.Throw(errors.Wrapf(ErrNoSpanningPath,
			"disconnected: walked %d of %d segments", len(visited), len(g.edges)))
	}
	return path, nil
}

// Check the degrees and pick a start node: the first end of an open chain, or
// the first node for a ring.
func (g *NodeGraph) checkChain() *osm.Node {
	var ends []*osm.Node
	for _, n := range g.nodes {
		switch d := g.Degree(n); {
		case d == 1:
			ends = append(ends, n)
		case d > 2:
			internal.Throw(errors.Wrapf(ErrNoSpanningPath, "branch at node %d", n.ID()))
		}
	}
	switch len(ends) {
	case 0:
		return g.nodes[0]
	case 2:
		return ends[0]
	default:
		internal.Throw(errors.Wrapf(ErrNoSpanningPath, "%d path ends", len(ends)))
	}
	return nil
}

func (g *NodeGraph) walk(n *osm.Node, path *[]*osm.Node, visited map[osm.NodePair]bool) {
	for _, next := range g.adjacency[n] {
		pair := osm.NodePair{A: n, B: next}
		if visited[pair] || visited[pair.Swap()] {
			continue
		}
		visited[pair] = true
		*path = append(*path, next)
		g.walk(next, path, visited)
		return
	}
}
