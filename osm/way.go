package osm

import (
	"fmt"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/osuushi/wayedit/dbg"
	"github.com/osuushi/wayedit/geom"
	"github.com/pkg/errors"
)

// Way is an ordered list of node references. Edits never touch a way that is
// in a data set directly: they copy it, change the copy, and swap the copy in
// through a Change command. The copy keeps the ID, so ways are looked up by ID
// and never held on to across gestures.
type Way struct {
	id     int64
	nodes  []*Node
	hidden bool
	ds     *DataSet
}

func NewWay(nodes ...*Node) *Way {
	return &Way{id: nextNewID(), nodes: append([]*Node(nil), nodes...)}
}

func NewWayWithID(id int64, nodes ...*Node) *Way {
	return &Way{id: id, nodes: append([]*Node(nil), nodes...)}
}

func (w *Way) ID() int64 {
	return w.id
}

func (w *Way) PrimitiveID() PrimitiveID {
	return PrimitiveID{WayType, w.id}
}

func (w *Way) IsNew() bool {
	return w.id < 0
}

func (w *Way) DataSet() *DataSet {
	return w.ds
}

// A detached copy with the same ID and a fresh node slice.
func (w *Way) Copy() *Way {
	return &Way{id: w.id, nodes: w.Nodes(), hidden: w.hidden}
}

// Hidden ways are filtered out of the view. They can still be edited
// indirectly through shared nodes, which is why moves ask for confirmation.
func (w *Way) IsHidden() bool {
	return w.hidden
}

func (w *Way) SetHidden(hidden bool) {
	w.hidden = hidden
}

func (w *Way) Nodes() []*Node {
	return append([]*Node(nil), w.nodes...)
}

func (w *Way) Node(i int) *Node {
	return w.nodes[i]
}

func (w *Way) NodesCount() int {
	return len(w.nodes)
}

func (w *Way) FirstNode() *Node {
	if len(w.nodes) == 0 {
		return nil
	}
	return w.nodes[0]
}

func (w *Way) LastNode() *Node {
	if len(w.nodes) == 0 {
		return nil
	}
	return w.nodes[len(w.nodes)-1]
}

// A closed way is a ring of at least three nodes whose first and last node are
// the same.
func (w *Way) IsClosed() bool {
	return len(w.nodes) >= 3 && w.nodes[0] == w.nodes[len(w.nodes)-1]
}

func (w *Way) IsFirstLastNode(n *Node) bool {
	return len(w.nodes) > 0 && (w.nodes[0] == n || w.nodes[len(w.nodes)-1] == n)
}

// Whether n is a node of the way other than its first and last.
func (w *Way) IsInnerNode(n *Node) bool {
	if len(w.nodes) <= 2 {
		return false
	}
	for _, wn := range w.nodes[1 : len(w.nodes)-1] {
		if wn == n {
			return true
		}
	}
	return false
}

func (w *Way) ContainsNode(n *Node) bool {
	return w.IndexOf(n) >= 0
}

// Index of the first occurrence of n, or -1.
func (w *Way) IndexOf(n *Node) int {
	for i, wn := range w.nodes {
		if wn == n {
			return i
		}
	}
	return -1
}

// Nodes adjacent to n along the way, without duplicates. For closed ways the
// ring wraps around.
func (w *Way) Neighbours(n *Node) []*Node {
	var result []*Node
	add := func(candidate *Node) {
		if candidate == n {
			return
		}
		for _, r := range result {
			if r == candidate {
				return
			}
		}
		result = append(result, candidate)
	}
	for i, wn := range w.nodes {
		if wn != n {
			continue
		}
		if i > 0 {
			add(w.nodes[i-1])
		} else if w.IsClosed() {
			add(w.nodes[len(w.nodes)-2])
		}
		if i < len(w.nodes)-1 {
			add(w.nodes[i+1])
		} else if w.IsClosed() {
			add(w.nodes[1])
		}
	}
	return result
}

type NodePair struct {
	A, B *Node
}

func (p NodePair) Swap() NodePair {
	return NodePair{p.B, p.A}
}

// Consecutive node pairs, one per segment.
func (w *Way) NodePairs() []NodePair {
	if len(w.nodes) < 2 {
		return nil
	}
	pairs := make([]NodePair, 0, len(w.nodes)-1)
	for i := 0; i < len(w.nodes)-1; i++ {
		pairs = append(pairs, NodePair{w.nodes[i], w.nodes[i+1]})
	}
	return pairs
}

func (w *Way) Segments() []WaySegment {
	if len(w.nodes) < 2 {
		return nil
	}
	result := make([]WaySegment, len(w.nodes)-1)
	for i := range result {
		result[i] = WaySegment{Way: w, LowerIndex: i}
	}
	return result
}

func (w *Way) Bounds() geom.Bounds {
	var b geom.Bounds
	for _, n := range w.nodes {
		b = b.Extend(n.en)
	}
	return b
}

// The node ring as a polygon, without the closing repetition.
func (w *Way) Polygon() geom.Polygon {
	nodes := w.nodes
	if w.IsClosed() {
		nodes = nodes[:len(nodes)-1]
	}
	points := make([]geom.EastNorth, len(nodes))
	for i, n := range nodes {
		points[i] = n.en
	}
	return geom.Polygon{Points: points}
}

func (w *Way) AddNode(n *Node) error {
	if last := w.LastNode(); last == n {
		return ErrConsecutiveRepeat
	}
	w.setNodes(append(w.Nodes(), n))
	return nil
}

// Insert n so that it ends up at index i. Inserting next to an occurrence of
// the same node is rejected.
func (w *Way) InsertNode(i int, n *Node) error {
	if i < 0 || i > len(w.nodes) {
		return errors.Errorf("insert index %d out of range [0, %d]", i, len(w.nodes))
	}
	if (i > 0 && w.nodes[i-1] == n) || (i < len(w.nodes) && w.nodes[i] == n) {
		return ErrConsecutiveRepeat
	}
	nodes := make([]*Node, 0, len(w.nodes)+1)
	nodes = append(nodes, w.nodes[:i]...)
	nodes = append(nodes, n)
	nodes = append(nodes, w.nodes[i:]...)
	w.setNodes(nodes)
	return nil
}

// Remove every occurrence of n. A closed way stays closed if it still has
// enough nodes to be a ring; a ring that shrinks below that is opened.
func (w *Way) RemoveNode(n *Node) {
	w.RemoveNodes(map[*Node]bool{n: true})
}

// Remove every node in the set, with the same closing rules as RemoveNode.
func (w *Way) RemoveNodes(set map[*Node]bool) {
	if len(w.nodes) == 0 {
		return
	}
	closed := w.IsClosed() && set[w.LastNode()]
	var nodes []*Node
	for _, wn := range w.nodes {
		if !set[wn] {
			nodes = append(nodes, wn)
		}
	}
	if len(nodes) == len(w.nodes) {
		return
	}
	count := len(nodes)
	if closed && count > 2 {
		nodes = append(nodes, nodes[0])
	} else if count >= 2 && count <= 3 && nodes[0] == nodes[count-1] {
		nodes = nodes[:count-1]
	}
	w.setNodes(RemoveConsecutiveDuplicates(nodes))
}

func (w *Way) SetNodes(nodes []*Node) {
	w.setNodes(append([]*Node(nil), nodes...))
}

func (w *Way) setNodes(nodes []*Node) {
	old := w.nodes
	w.nodes = nodes
	if w.ds != nil {
		w.ds.wayNodesChanged(w, old)
	}
}

// Collapse runs of the same node into one.
func RemoveConsecutiveDuplicates(nodes []*Node) []*Node {
	result := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if len(result) > 0 && result[len(result)-1] == n {
			continue
		}
		result = append(result, n)
	}
	return result
}

func (w *Way) String() string {
	ids := make([]string, len(w.nodes))
	for i, n := range w.nodes {
		ids[i] = fmt.Sprint(n.id)
	}
	return fmt.Sprintf("Way(%d [%s])", w.id, strings.Join(ids, " "))
}

// Same colouring as Node.DbgName. Hidden ways are magenta.
func (w *Way) DbgName() string {
	name := dbg.Name(w)
	switch {
	case w.ds == nil:
		return aurora.Red(name).String()
	case w.hidden:
		return aurora.Magenta(name).String()
	case w.IsNew():
		return aurora.Cyan(name).String()
	}
	return aurora.Green(name).String()
}
