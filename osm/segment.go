package osm

import (
	"fmt"

	"github.com/osuushi/wayedit/geom"
)

// WaySegment is one consecutive node pair of a way, identified by the index of
// its first node. It is recomputed from the way whenever it is needed and
// never stored in the data set.
type WaySegment struct {
	Way        *Way
	LowerIndex int
}

func (s WaySegment) FirstNode() *Node {
	return s.Way.nodes[s.LowerIndex]
}

func (s WaySegment) SecondNode() *Node {
	return s.Way.nodes[s.LowerIndex+1]
}

func (s WaySegment) FirstEastNorth() geom.EastNorth {
	return s.FirstNode().en
}

func (s WaySegment) SecondEastNorth() geom.EastNorth {
	return s.SecondNode().en
}

// Whether the segment still exists in the way it refers to.
func (s WaySegment) IsValid() bool {
	return s.Way != nil && s.LowerIndex >= 0 && s.LowerIndex+1 < len(s.Way.nodes)
}

// Same way (by ID) and same position.
func (s WaySegment) Equal(o WaySegment) bool {
	return s.Way != nil && o.Way != nil && s.Way.id == o.Way.id && s.LowerIndex == o.LowerIndex
}

// Same pair of nodes in either direction, possibly in a different way.
func (s WaySegment) IsSimilar(o WaySegment) bool {
	a, b := s.FirstNode(), s.SecondNode()
	c, d := o.FirstNode(), o.SecondNode()
	return (a == c && b == d) || (a == d && b == c)
}

func (s WaySegment) Pair() NodePair {
	return NodePair{s.FirstNode(), s.SecondNode()}
}

func (s WaySegment) String() string {
	return fmt.Sprintf("WaySegment(way %d, %d)", s.Way.id, s.LowerIndex)
}
