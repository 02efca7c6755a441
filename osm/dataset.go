package osm

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/osuushi/wayedit/geom"
	"github.com/pkg/errors"
)

// DataSet owns the nodes and ways being edited. Besides the primitives
// themselves it keeps three derived structures in sync:
//
//   - the referrer index (node -> ways containing it)
//   - an r-tree over node positions and one over way bounding boxes
//   - the selection, stored by primitive ID so that replacing a way by its
//     edited copy does not drop it from the selection
type DataSet struct {
	proj Projection

	nodes     map[int64]*Node
	ways      map[int64]*Way
	referrers map[int64]map[int64]struct{}

	nodeIndex   *rtreego.Rtree
	wayIndex    *rtreego.Rtree
	nodeEntries map[int64]*indexEntry
	wayEntries  map[int64]*indexEntry

	selection []PrimitiveID
	selected  map[PrimitiveID]bool

	subscriptions []*Subscription
}

// Branching factors for both r-trees.
const (
	indexMinChildren = 25
	indexMaxChildren = 50
)

// A nil projection means Identity.
func NewDataSet(proj Projection) *DataSet {
	if proj == nil {
		proj = Identity{}
	}
	return &DataSet{
		proj:        proj,
		nodes:       make(map[int64]*Node),
		ways:        make(map[int64]*Way),
		referrers:   make(map[int64]map[int64]struct{}),
		nodeIndex:   rtreego.NewTree(2, indexMinChildren, indexMaxChildren),
		wayIndex:    rtreego.NewTree(2, indexMinChildren, indexMaxChildren),
		nodeEntries: make(map[int64]*indexEntry),
		wayEntries:  make(map[int64]*indexEntry),
		selected:    make(map[PrimitiveID]bool),
	}
}

func (ds *DataSet) Projection() Projection {
	return ds.proj
}

// Whether the projected coordinate lies outside the world of the data set's
// projection.
func (ds *DataSet) OutsideWorld(en geom.EastNorth) bool {
	return !en.IsValid() || ds.proj.OutsideWorld(en)
}

func (ds *DataSet) Node(id int64) *Node {
	return ds.nodes[id]
}

func (ds *DataSet) Way(id int64) *Way {
	return ds.ways[id]
}

func (ds *DataSet) Primitive(id PrimitiveID) Primitive {
	switch id.Type {
	case NodeType:
		if n := ds.nodes[id.ID]; n != nil {
			return n
		}
	case WayType:
		if w := ds.ways[id.ID]; w != nil {
			return w
		}
	}
	return nil
}

// Whether this exact object is the data set's current version of the
// primitive.
func (ds *DataSet) Contains(p Primitive) bool {
	switch p := p.(type) {
	case *Node:
		return ds.nodes[p.id] == p
	case *Way:
		return ds.ways[p.id] == p
	}
	return false
}

// All nodes, ordered by ID.
func (ds *DataSet) Nodes() []*Node {
	result := make([]*Node, 0, len(ds.nodes))
	for _, n := range ds.nodes {
		result = append(result, n)
	}
	SortNodes(result)
	return result
}

// All ways, ordered by ID.
func (ds *DataSet) Ways() []*Way {
	result := make([]*Way, 0, len(ds.ways))
	for _, w := range ds.ways {
		result = append(result, w)
	}
	SortWays(result)
	return result
}

func (ds *DataSet) IsEmpty() bool {
	return len(ds.nodes) == 0 && len(ds.ways) == 0
}

// Ways containing n, ordered by ID.
func (ds *DataSet) Referrers(n *Node) []*Way {
	refs := ds.referrers[n.id]
	result := make([]*Way, 0, len(refs))
	for id := range refs {
		result = append(result, ds.ways[id])
	}
	SortWays(result)
	return result
}

func (ds *DataSet) AddPrimitive(p Primitive) error {
	switch p := p.(type) {
	case *Node:
		if p.ds != nil {
			return errors.Wrapf(ErrAlreadyInDataSet, "adding node %d", p.id)
		}
		if _, ok := ds.nodes[p.id]; ok {
			return errors.Errorf("node %d already exists", p.id)
		}
		ds.nodes[p.id] = p
		p.ds = ds
		ds.indexNode(p)
	case *Way:
		if p.ds != nil {
			return errors.Wrapf(ErrAlreadyInDataSet, "adding way %d", p.id)
		}
		if _, ok := ds.ways[p.id]; ok {
			return errors.Errorf("way %d already exists", p.id)
		}
		if err := ds.checkWayNodes(p); err != nil {
			return err
		}
		ds.ways[p.id] = p
		p.ds = ds
		ds.addReferrers(p, p.nodes)
		ds.indexWay(p)
	default:
		return errors.Errorf("unknown primitive %T", p)
	}
	ds.fire(Event{Kind: PrimitivesAdded, Primitives: []Primitive{p}})
	return nil
}

func (ds *DataSet) RemovePrimitive(p Primitive) error {
	if !ds.Contains(p) {
		return errors.Wrapf(ErrNotInDataSet, "removing %v", p.PrimitiveID())
	}
	switch p := p.(type) {
	case *Node:
		if len(ds.referrers[p.id]) > 0 {
			return errors.Wrapf(ErrStillReferenced, "removing node %d", p.id)
		}
		ds.unindex(ds.nodeIndex, ds.nodeEntries, p.id)
		delete(ds.nodes, p.id)
		delete(ds.referrers, p.id)
		p.ds = nil
	case *Way:
		ds.removeReferrers(p, p.nodes)
		ds.unindex(ds.wayIndex, ds.wayEntries, p.id)
		delete(ds.ways, p.id)
		p.ds = nil
	}
	ds.dropFromSelection(p.PrimitiveID())
	ds.fire(Event{Kind: PrimitivesRemoved, Primitives: []Primitive{p}})
	return nil
}

// Swap the current version of a way for an edited copy with the same ID. The
// old object leaves the data set and can be swapped back in later, which is
// how Change commands undo.
func (ds *DataSet) ReplaceWay(old, replacement *Way) error {
	if ds.ways[old.id] != old {
		return errors.Wrapf(ErrNotInDataSet, "replacing way %d", old.id)
	}
	if old.id != replacement.id {
		return errors.Errorf("cannot replace way %d with way %d", old.id, replacement.id)
	}
	if replacement.ds != nil {
		return errors.Wrapf(ErrAlreadyInDataSet, "replacing way %d", old.id)
	}
	if err := ds.checkWayNodes(replacement); err != nil {
		return err
	}
	ds.removeReferrers(old, old.nodes)
	ds.unindex(ds.wayIndex, ds.wayEntries, old.id)
	old.ds = nil

	ds.ways[replacement.id] = replacement
	replacement.ds = ds
	ds.addReferrers(replacement, replacement.nodes)
	ds.indexWay(replacement)
	ds.fire(Event{Kind: WayReplaced, Primitives: []Primitive{replacement}})
	return nil
}

// Move a node, rejecting coordinates outside the world.
func (ds *DataSet) MoveNode(n *Node, en geom.EastNorth) error {
	if n.ds != ds {
		return errors.Wrapf(ErrNotInDataSet, "moving node %d", n.id)
	}
	if ds.OutsideWorld(en) {
		return errors.Wrapf(ErrOutsideWorld, "moving node %d to %v", n.id, en)
	}
	n.SetEastNorth(en)
	return nil
}

func (ds *DataSet) checkWayNodes(w *Way) error {
	for _, n := range w.nodes {
		if ds.nodes[n.id] != n {
			return errors.Wrapf(ErrNotInDataSet, "way %d refers to node %d", w.id, n.id)
		}
	}
	return nil
}

func (ds *DataSet) addReferrers(w *Way, nodes []*Node) {
	for _, n := range nodes {
		refs := ds.referrers[n.id]
		if refs == nil {
			refs = make(map[int64]struct{})
			ds.referrers[n.id] = refs
		}
		refs[w.id] = struct{}{}
	}
}

func (ds *DataSet) removeReferrers(w *Way, nodes []*Node) {
	for _, n := range nodes {
		if refs := ds.referrers[n.id]; refs != nil {
			delete(refs, w.id)
			if len(refs) == 0 {
				delete(ds.referrers, n.id)
			}
		}
	}
}

func (ds *DataSet) nodeMoved(n *Node) {
	ds.unindex(ds.nodeIndex, ds.nodeEntries, n.id)
	ds.indexNode(n)
	for id := range ds.referrers[n.id] {
		w := ds.ways[id]
		ds.unindex(ds.wayIndex, ds.wayEntries, id)
		ds.indexWay(w)
	}
	ds.fire(Event{Kind: NodeMoved, Primitives: []Primitive{n}})
}

func (ds *DataSet) wayNodesChanged(w *Way, old []*Node) {
	ds.removeReferrers(w, old)
	ds.addReferrers(w, w.nodes)
	ds.unindex(ds.wayIndex, ds.wayEntries, w.id)
	ds.indexWay(w)
	ds.fire(Event{Kind: WayReplaced, Primitives: []Primitive{w}})
}

// Spatial index

// Index entries remember the rectangle they were inserted with, because the
// r-tree finds an entry for deletion by its bounds, and the primitive has
// usually moved on by then.
type indexEntry struct {
	id   int64
	rect rtreego.Rect
}

func (e *indexEntry) Bounds() rtreego.Rect {
	return e.rect
}

// Rectangles are padded a little so that points and axis aligned ways still
// have an area.
func indexRect(b geom.Bounds) rtreego.Rect {
	scale := math.Max(1, math.Max(
		math.Max(math.Abs(b.Min.East), math.Abs(b.Min.North)),
		math.Max(math.Abs(b.Max.East), math.Abs(b.Max.North)),
	))
	pad := scale * 1e-9
	rect, err := rtreego.NewRectFromPoints(
		rtreego.Point{b.Min.East - pad, b.Min.North - pad},
		rtreego.Point{b.Max.East + pad, b.Max.North + pad},
	)
	if err != nil {
		// Only dimension mismatches fail, and both points are 2D
		panic(err)
	}
	return rect
}

func (ds *DataSet) indexNode(n *Node) {
	e := &indexEntry{id: n.id, rect: indexRect(n.Bounds())}
	ds.nodeEntries[n.id] = e
	ds.nodeIndex.Insert(e)
}

func (ds *DataSet) indexWay(w *Way) {
	b := w.Bounds()
	if b.IsEmpty() {
		return
	}
	e := &indexEntry{id: w.id, rect: indexRect(b)}
	ds.wayEntries[w.id] = e
	ds.wayIndex.Insert(e)
}

func (ds *DataSet) unindex(tree *rtreego.Rtree, entries map[int64]*indexEntry, id int64) {
	if e, ok := entries[id]; ok {
		tree.Delete(e)
		delete(entries, id)
	}
}

// Nodes inside the box, ordered by ID.
func (ds *DataSet) SearchNodes(b geom.Bounds) []*Node {
	if b.IsEmpty() {
		return nil
	}
	var result []*Node
	for _, s := range ds.nodeIndex.SearchIntersect(indexRect(b)) {
		n := ds.nodes[s.(*indexEntry).id]
		if b.Contains(n.en) {
			result = append(result, n)
		}
	}
	SortNodes(result)
	return result
}

// Ways whose bounding box intersects the box, ordered by ID.
func (ds *DataSet) SearchWays(b geom.Bounds) []*Way {
	if b.IsEmpty() {
		return nil
	}
	var result []*Way
	for _, s := range ds.wayIndex.SearchIntersect(indexRect(b)) {
		result = append(result, ds.ways[s.(*indexEntry).id])
	}
	SortWays(result)
	return result
}

// Nodes within radius of en, nearest first. Ties are broken by ID.
func (ds *DataSet) NearestNodes(en geom.EastNorth, radius float64) []*Node {
	candidates := ds.SearchNodes(geom.NewBounds(en).Grow(radius))
	result := candidates[:0]
	for _, n := range candidates {
		if n.en.Distance(en) <= radius {
			result = append(result, n)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].en.DistanceSq(en) < result[j].en.DistanceSq(en)
	})
	return result
}

// The single closest node anywhere, or nil for an empty data set.
func (ds *DataSet) ClosestNode(en geom.EastNorth) *Node {
	s := ds.nodeIndex.NearestNeighbor(rtreego.Point{en.East, en.North})
	if s == nil {
		return nil
	}
	return ds.nodes[s.(*indexEntry).id]
}

// Sort by ascending ID.
func SortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool {
		return nodes[i].id < nodes[j].id
	})
}

func SortWays(ways []*Way) {
	sort.Slice(ways, func(i, j int) bool {
		return ways[i].id < ways[j].id
	})
}
