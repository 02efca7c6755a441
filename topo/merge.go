package topo

import (
	"fmt"

	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/osm"
	"github.com/pkg/errors"
)

// Pick the node that survives a merge: the oldest existing node that a way
// uses, else the oldest existing node, else the last candidate.
func SelectTargetNode(nodes []*osm.Node) *osm.Node {
	var target, oldest, last *osm.Node
	for _, n := range nodes {
		if !n.IsNew() {
			if n.ReferrerCount() > 0 {
				if target == nil || n.ID() < target.ID() {
					target = n
				}
			} else if oldest == nil || n.ID() < oldest.ID() {
				oldest = n
			}
		}
		last = n
	}
	if target != nil {
		return target
	}
	if oldest != nil {
		return oldest
	}
	return last
}

// Merge nodes into target. Every way that uses one of the nodes is rewired to
// target, target moves to location's position, and the other nodes are
// deleted. Fails with ErrMergeImpossible instead of dropping a way that would
// be left with too few nodes.
func MergeNodes(ds *osm.DataSet, nodes []*osm.Node, target, location *osm.Node) (command.Command, error) {
	merged := make(map[*osm.Node]bool)
	for _, n := range nodes {
		if n != target {
			merged[n] = true
		}
	}
	if len(merged) == 0 {
		return nil, errors.Wrap(ErrMergeImpossible, "need at least two nodes")
	}
	if location == nil {
		location = target
	}

	var cmds []command.Command
	changed := make(map[int64]bool)
	for _, n := range sortedNodeSet(merged) {
		for _, w := range ds.Referrers(n) {
			if changed[w.ID()] {
				continue
			}
			changed[w.ID()] = true
			var rewired []*osm.Node
			for _, wn := range w.Nodes() {
				if merged[wn] {
					wn = target
				}
				if len(rewired) == 0 || rewired[len(rewired)-1] != wn {
					rewired = append(rewired, wn)
				}
			}
			if len(rewired) < 2 || (w.IsClosed() && len(rewired) < 4) {
				return nil, errors.Wrapf(ErrMergeImpossible, "way %d would degenerate", w.ID())
			}
			cp := w.Copy()
			cp.SetNodes(rewired)
			cmds = append(cmds, command.Change(ds, w, cp))
		}
	}

	if location != target && !location.EastNorth().EqualsEpsilon(target.EastNorth(), 0) {
		cmds = append(cmds, command.MoveTo(ds, target, location.EastNorth()))
	}

	var deleted []osm.Primitive
	for _, n := range sortedNodeSet(merged) {
		deleted = append(deleted, n)
	}
	cmds = append(cmds, command.Delete(ds, deleted...))
	return command.Sequence(fmt.Sprintf("Merge %d nodes", len(merged)+1), cmds...), nil
}

func sortedNodeSet(set map[*osm.Node]bool) []*osm.Node {
	result := make([]*osm.Node, 0, len(set))
	for n := range set {
		result = append(result, n)
	}
	osm.SortNodes(result)
	return result
}
