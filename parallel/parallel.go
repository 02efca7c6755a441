// Package parallel builds copies of a chain of ways, offset sideways by a
// distance. The copies are detached from the data set until Commit.
package parallel

import (
	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/internal"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/topo"
)

const CommitDescription = "Make parallel way(s)"

// Ways is a parallel copy of a chain of source ways.
type Ways struct {
	ds          *osm.DataSet
	ways        []*osm.Way
	sortedNodes []*osm.Node
	// Original positions and the left unit normal of each edge along the path
	pts     []geom.EastNorth
	normals []geom.EastNorth
	offset  float64
}

// Copy the source ways. The ways must form a single branchless chain (see
// topo.NodeGraph.BuildSpanningPath). A positive offset moves the copy to the
// left of the reference way's direction.
func New(ds *osm.DataSet, sourceWays []*osm.Way, refWayIndex int) (result *Ways, err error) {
	defer func() {
		if recovered := internal.HandlePanicRecover(recover()); recovered != nil {
			result = nil
			err = recovered
		}
	}()

	if refWayIndex < 0 || refWayIndex >= len(sourceWays) {
		internal.Fatalf("reference way %d out of range for %d ways", refWayIndex, len(sourceWays))
	}
	p := &Ways{ds: ds}
	p.copyWays(sourceWays)

	path, err := topo.NewNodeGraph(p.ways).BuildSpanningPath()
	if err != nil {
		internal.Throw(err)
	}
	p.removeDuplicates(path)
	p.orient(p.ways[refWayIndex])
	p.computeNormals()
	return p, nil
}

// Endpoints are copied once, so copies of ways that were connected stay
// connected. Interior nodes are copied per way.
func (p *Ways) copyWays(sourceWays []*osm.Way) {
	endCopies := make(map[*osm.Node]*osm.Node)
	endCopy := func(n *osm.Node) *osm.Node {
		if c, ok := endCopies[n]; ok {
			return c
		}
		c := osm.NewNode(n.EastNorth())
		endCopies[n] = c
		return c
	}
	for _, w := range sourceWays {
		if w.NodesCount() < 2 {
			internal.Fatalf("way %d has fewer than two nodes", w.ID())
		}
		nodes := make([]*osm.Node, w.NodesCount())
		nodes[0] = endCopy(w.FirstNode())
		for i := 1; i < len(nodes)-1; i++ {
			nodes[i] = osm.NewNode(w.Node(i).EastNorth())
		}
		nodes[len(nodes)-1] = endCopy(w.LastNode())
		p.ways = append(p.ways, osm.NewWay(nodes...))
	}
}

// Self intersecting input can put two nodes at the same spot next to each
// other on the path. Drop the first of each such pair.
func (p *Ways) removeDuplicates(path []*osm.Node) {
	removed := make(map[*osm.Node]bool)
	for i, n := range path {
		if i < len(path)-1 && path[i+1].EastNorth() == n.EastNorth() {
			removed[n] = true
			for _, w := range p.ways {
				w.RemoveNode(n)
			}
		} else if !removed[n] {
			p.sortedNodes = append(p.sortedNodes, n)
		}
	}
	if len(p.sortedNodes) < 2 {
		internal.Fatalf("parallel path has %d nodes", len(p.sortedNodes))
	}
}

// Reverse the path unless it runs along the reference way's first segment.
func (p *Ways) orient(ref *osm.Way) {
	if ref.NodesCount() >= 2 {
		first, second := ref.FirstNode(), ref.Node(1)
		for i := 0; i < len(p.sortedNodes)-1; i++ {
			if p.sortedNodes[i] == first && p.sortedNodes[i+1] == second {
				return
			}
		}
	}
	for i, j := 0, len(p.sortedNodes)-1; i < j; i, j = i+1, j-1 {
		p.sortedNodes[i], p.sortedNodes[j] = p.sortedNodes[j], p.sortedNodes[i]
	}
}

func (p *Ways) computeNormals() {
	n := len(p.sortedNodes)
	p.pts = make([]geom.EastNorth, n)
	for i, node := range p.sortedNodes {
		p.pts[i] = node.EastNorth()
	}
	p.normals = make([]geom.EastNorth, n-1)
	for i := 0; i < n-1; i++ {
		d := p.pts[i+1].Sub(p.pts[i])
		length := d.Length()
		if length < geom.Epsilon {
			internal.Fatalf("zero length segment at path index %d", i)
		}
		p.normals[i] = geom.EastNorth{East: -d.North / length, North: d.East / length}
	}
}

func (p *Ways) IsClosedPath() bool {
	return p.sortedNodes[0] == p.sortedNodes[len(p.sortedNodes)-1]
}

func (p *Ways) Offset() float64 {
	return p.offset
}

// Place every node at distance d from the original path. Interior nodes sit at
// the intersection of the two neighbouring offset edges, or are translated
// along the edge normal when the edges are parallel.
func (p *Ways) SetOffset(d float64) {
	p.offset = d
	n := len(p.pts)
	ppts := make([]geom.EastNorth, n)

	shifted := func(i int) (geom.EastNorth, geom.EastNorth) {
		off := p.normals[i].Scale(d)
		return p.pts[i].Add(off), p.pts[i+1].Add(off)
	}
	corner := func(a, b, prevA, prevB geom.EastNorth) geom.EastNorth {
		if geom.SegmentsParallel(a, b, prevA, prevB) {
			return a
		}
		if x, ok := geom.LineLineIntersection(a, b, prevA, prevB); ok {
			return x
		}
		return a
	}

	prevA, prevB := shifted(0)
	for i := 1; i < n-1; i++ {
		a, b := shifted(i)
		ppts[i] = corner(a, b, prevA, prevB)
		prevA, prevB = a, b
	}
	if p.IsClosedPath() {
		a, b := shifted(0)
		ppts[0] = corner(a, b, prevA, prevB)
		ppts[n-1] = ppts[0]
	} else {
		ppts[0] = p.pts[0].Add(p.normals[0].Scale(d))
		ppts[n-1] = p.pts[n-1].Add(p.normals[n-2].Scale(d))
	}

	for i, node := range p.sortedNodes {
		node.SetEastNorth(ppts[i])
	}
}

func (p *Ways) ChangeOffset(delta float64) {
	p.SetOffset(p.offset + delta)
}

// One command that adds the new nodes and then the new ways.
func (p *Ways) Commit() command.Command {
	nodes := p.sortedNodes
	if p.IsClosedPath() {
		nodes = nodes[:len(nodes)-1]
	}
	cmds := make([]command.Command, 0, len(nodes)+len(p.ways))
	for _, n := range nodes {
		cmds = append(cmds, command.Add(p.ds, n))
	}
	for _, w := range p.ways {
		cmds = append(cmds, command.Add(p.ds, w))
	}
	return command.Sequence(CommitDescription, cmds...)
}

func (p *Ways) Ways() []*osm.Way {
	return p.ways
}

func (p *Ways) SortedNodes() []*osm.Node {
	return p.sortedNodes
}

// Original position of the i'th node along the path.
func (p *Ways) OriginalPosition(i int) geom.EastNorth {
	return p.pts[i]
}
