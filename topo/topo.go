// Package topo answers topology questions about the node/way graph and builds
// the commands for edits that rewire it. Nothing here mutates a data set
// directly: every edit is returned as commands for the caller to submit.
package topo

import (
	"sort"

	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/osm"
	"github.com/pkg/errors"
)

var (
	ErrAmbiguousWay    = errors.New("node ends more than one way")
	ErrNoSpanningPath  = errors.New("ways must have spanning path")
	ErrCannotSplit     = errors.New("way cannot be split at the given nodes")
	ErrMergeImpossible = errors.New("nodes cannot be merged")
)

func usable(w *osm.Way) bool {
	return !w.IsHidden() && w.NodesCount() > 0
}

// The open way that n starts or ends. Returns nil if no usable way qualifies,
// and ErrAmbiguousWay if more than one does.
func WayForNode(ds *osm.DataSet, n *osm.Node) (*osm.Way, error) {
	var result *osm.Way
	for _, w := range ds.Referrers(n) {
		if !usable(w) {
			continue
		}
		first, last := w.FirstNode(), w.LastNode()
		if (first == n || last == n) && first != last {
			if result != nil {
				return nil, errors.Wrapf(ErrAmbiguousWay, "node %d", n.ID())
			}
			result = w
		}
	}
	return result, nil
}

// Whether any usable way other than exclude refers to n. Ways are compared by
// ID, so a pending copy of exclude counts as exclude.
func HasOtherWays(ds *osm.DataSet, n *osm.Node, exclude *osm.Way) bool {
	for _, w := range ds.Referrers(n) {
		if exclude != nil && w.ID() == exclude.ID() {
			continue
		}
		if usable(w) {
			return true
		}
	}
	return false
}

// Copy way, insert newNode after the segment's lower node, and return the
// Change that swaps the copy in.
func SplitWaySegmentAtNode(ds *osm.DataSet, way *osm.Way, segmentIndex int, newNode *osm.Node) ([]command.Command, error) {
	if segmentIndex < 0 || segmentIndex >= way.NodesCount()-1 {
		return nil, errors.Errorf("way %d has no segment %d", way.ID(), segmentIndex)
	}
	cp := way.Copy()
	if err := cp.InsertNode(segmentIndex+1, newNode); err != nil {
		return nil, errors.Wrapf(err, "splitting segment %d of way %d", segmentIndex, way.ID())
	}
	return []command.Command{command.Change(ds, way, cp)}, nil
}

// Sort segment indices descending, dropping any index adjacent to one that was
// already kept. Inserting a node into two touching segments of the same way
// would make the way visit the node twice in a row.
func PruneSuccsAndReverse(indices []int) []int {
	kept := make(map[int]bool)
	for _, i := range indices {
		if !kept[i-1] && !kept[i+1] {
			kept[i] = true
		}
	}
	result := make([]int, 0, len(kept))
	for i := range kept {
		result = append(result, i)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(result)))
	return result
}

type InsertResult struct {
	Commands []command.Command
	// Ways being replaced, and the copies that replace them (same order)
	Replaced []*osm.Way
	Reuse    []*osm.Way
	// The node pairs of every segment n was inserted into
	Segments []osm.NodePair
}

// Insert n into every given segment. Segments are grouped by way, so each way
// gets a single Change.
func InsertNodeIntoSegments(ds *osm.DataSet, segments []osm.WaySegment, n *osm.Node) (*InsertResult, error) {
	byWay := make(map[int64][]int)
	ways := make(map[int64]*osm.Way)
	for _, s := range segments {
		byWay[s.Way.ID()] = append(byWay[s.Way.ID()], s.LowerIndex)
		ways[s.Way.ID()] = s.Way
	}
	ids := make([]int64, 0, len(ways))
	for id := range ways {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := &InsertResult{}
	for _, id := range ids {
		w := ways[id]
		cp := w.Copy()
		// Descending, so earlier insertions do not shift later indices
		for _, i := range PruneSuccsAndReverse(byWay[id]) {
			result.Segments = append(result.Segments, osm.NodePair{A: w.Node(i), B: w.Node(i + 1)})
			if err := cp.InsertNode(i+1, n); err != nil {
				return nil, errors.Wrapf(err, "inserting node into way %d", id)
			}
		}
		result.Commands = append(result.Commands, command.Change(ds, w, cp))
		result.Replaced = append(result.Replaced, w)
		result.Reuse = append(result.Reuse, cp)
	}
	return result, nil
}
