package osm

import (
	"fmt"

	"github.com/logrusorgru/aurora"
	"github.com/osuushi/wayedit/dbg"
	"github.com/osuushi/wayedit/geom"
)

// Node identity never changes. Its coordinate does, and every move of a node
// that belongs to a data set goes through SetEastNorth so the spatial index
// stays current.
type Node struct {
	id int64
	en geom.EastNorth
	ds *DataSet
}

func NewNode(en geom.EastNorth) *Node {
	return &Node{id: nextNewID(), en: en}
}

// A node as it would come from a loaded file.
func NewNodeWithID(id int64, en geom.EastNorth) *Node {
	return &Node{id: id, en: en}
}

func (n *Node) ID() int64 {
	return n.id
}

func (n *Node) PrimitiveID() PrimitiveID {
	return PrimitiveID{NodeType, n.id}
}

func (n *Node) IsNew() bool {
	return n.id < 0
}

func (n *Node) DataSet() *DataSet {
	return n.ds
}

func (n *Node) EastNorth() geom.EastNorth {
	return n.en
}

// Geographic coordinate through the data set's projection. Nodes that are not
// in a data set use the identity projection.
func (n *Node) LatLon() LatLon {
	if n.ds != nil {
		return n.ds.proj.LatLon(n.en)
	}
	return Identity{}.LatLon(n.en)
}

func (n *Node) SetEastNorth(en geom.EastNorth) {
	if n.en == en {
		return
	}
	n.en = en
	if n.ds != nil {
		n.ds.nodeMoved(n)
	}
}

func (n *Node) Bounds() geom.Bounds {
	return geom.NewBounds(n.en)
}

// Number of ways in the node's data set that contain it.
func (n *Node) ReferrerCount() int {
	if n.ds == nil {
		return 0
	}
	return len(n.ds.referrers[n.id])
}

func (n *Node) String() string {
	return fmt.Sprintf("Node(%d %v)", n.id, n.en)
}

// New nodes are cyan, nodes outside any data set are red.
func (n *Node) DbgName() string {
	name := dbg.Name(n)
	if n.ds == nil {
		return aurora.Red(name).String()
	}
	if n.IsNew() {
		return aurora.Cyan(name).String()
	}
	return aurora.Green(name).String()
}
