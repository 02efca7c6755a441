package topo

import (
	"fmt"

	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/osm"
	"github.com/pkg/errors"
)

// SplitResult describes a way split into chunks. The longest chunk keeps the
// original way's ID (Kept replaces Original through a Change); every other
// chunk is a new way.
type SplitResult struct {
	Command  command.Command
	Original *osm.Way
	Kept     *osm.Way
	NewWays  []*osm.Way
}

// All resulting ways, with the kept one first.
func (r *SplitResult) Ways() []*osm.Way {
	return append([]*osm.Way{r.Kept}, r.NewWays...)
}

// Cut the way's node sequence at every occurrence of a split node. Each chunk
// starts with the split node that ended the previous one. A closed way's first
// and last chunks are joined unless the ring's start node is itself a split
// node, which is why a ring needs two split nodes.
func SplitChunks(way *osm.Way, atNodes []*osm.Node) ([][]*osm.Node, error) {
	splitAt := make(map[*osm.Node]bool, len(atNodes))
	for _, n := range atNodes {
		splitAt[n] = true
	}

	nodes := way.Nodes()
	chunks := [][]*osm.Node{nil}
	for i, n := range nodes {
		current := &chunks[len(chunks)-1]
		atEnd := len(*current) == 0 || i == len(nodes)-1
		*current = append(*current, n)
		if splitAt[n] && !atEnd {
			chunks = append(chunks, []*osm.Node{n})
		}
	}

	first := chunks[0]
	last := chunks[len(chunks)-1]
	if len(chunks) >= 2 && first[0] == last[len(last)-1] && !splitAt[first[0]] {
		if len(chunks) == 2 {
			return nil, errors.Wrap(ErrCannotSplit, "a closed way needs two split nodes")
		}
		joined := append(last[:len(last)-1:len(last)-1], first...)
		chunks = append([][]*osm.Node{joined}, chunks[1:len(chunks)-1]...)
	}

	if len(chunks) < 2 {
		if way.IsClosed() {
			return nil, errors.Wrap(ErrCannotSplit, "a closed way needs two split nodes")
		}
		return nil, errors.Wrap(ErrCannotSplit, "split nodes must be inside the way")
	}
	return chunks, nil
}

// Split way at the given nodes, as one Sequence command.
func SplitWay(ds *osm.DataSet, way *osm.Way, atNodes []*osm.Node) (*SplitResult, error) {
	chunks, err := SplitChunks(way, atNodes)
	if err != nil {
		return nil, errors.Wrapf(err, "splitting way %d", way.ID())
	}

	longest := 0
	for i, chunk := range chunks {
		if len(chunk) > len(chunks[longest]) {
			longest = i
		}
	}

	result := &SplitResult{Original: way}
	var cmds []command.Command
	for i, chunk := range chunks {
		if i == longest {
			kept := way.Copy()
			kept.SetNodes(chunk)
			result.Kept = kept
			cmds = append(cmds, command.Change(ds, way, kept))
			continue
		}
		w := osm.NewWay(chunk...)
		w.SetHidden(way.IsHidden())
		result.NewWays = append(result.NewWays, w)
		cmds = append(cmds, command.Add(ds, w))
	}
	result.Command = command.Sequence(fmt.Sprintf("Split way %d into %d parts", way.ID(), len(chunks)), cmds...)
	return result, nil
}

// The usable ways that can be split at all of the given nodes: each node has
// to be an inner node of the way, or the way has to be closed.
func SplittableWays(ds *osm.DataSet, nodes []*osm.Node) []*osm.Way {
	if len(nodes) == 0 {
		return nil
	}
	var result []*osm.Way
	for _, w := range ds.Referrers(nodes[0]) {
		if !usable(w) {
			continue
		}
		ok := true
		for _, n := range nodes {
			if !w.ContainsNode(n) || (!w.IsClosed() && !w.IsInnerNode(n)) {
				ok = false
				break
			}
		}
		if ok {
			result = append(result, w)
		}
	}
	return result
}
