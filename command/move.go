package command

import (
	"fmt"

	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
)

// MoveCommand translates a set of nodes by a common offset. The offset can be
// changed while the command is on the stack, which is how a drag keeps a
// single undo entry.
type MoveCommand struct {
	ds     *osm.DataSet
	nodes  []*osm.Node
	old    []geom.EastNorth
	offset geom.EastNorth

	checkpoint geom.EastNorth
}

// Move the given primitives by offset. Ways contribute their nodes, and each
// node moves once even if several ways share it.
func Move(ds *osm.DataSet, prims []osm.Primitive, offset geom.EastNorth) *MoveCommand {
	return &MoveCommand{
		ds:     ds,
		nodes:  collectNodes(prims),
		offset: offset,
	}
}

// Move a single node to an absolute position.
func MoveTo(ds *osm.DataSet, n *osm.Node, en geom.EastNorth) *MoveCommand {
	return Move(ds, []osm.Primitive{n}, en.Sub(n.EastNorth()))
}

func (c *MoveCommand) Execute() error {
	c.old = make([]geom.EastNorth, len(c.nodes))
	for i, n := range c.nodes {
		c.old[i] = n.EastNorth()
	}
	c.apply()
	return nil
}

func (c *MoveCommand) Undo() error {
	for i, n := range c.nodes {
		n.SetEastNorth(c.old[i])
	}
	return nil
}

func (c *MoveCommand) apply() {
	for i, n := range c.nodes {
		n.SetEastNorth(c.old[i].Add(c.offset))
	}
}

// Add delta to the current offset.
func (c *MoveCommand) MoveAgain(delta geom.EastNorth) {
	c.MoveAgainTo(c.offset.Add(delta))
}

// Replace the total offset, measured from the positions at execution time.
func (c *MoveCommand) MoveAgainTo(offset geom.EastNorth) {
	c.offset = offset
	if c.old != nil {
		c.apply()
	}
}

func (c *MoveCommand) Offset() geom.EastNorth {
	return c.offset
}

func (c *MoveCommand) SaveCheckpoint() {
	c.checkpoint = c.offset
}

func (c *MoveCommand) ResetToCheckpoint() {
	c.MoveAgainTo(c.checkpoint)
}

// Whether any moved node currently lies outside the projection's world.
func (c *MoveCommand) OutsideWorld() bool {
	for _, n := range c.nodes {
		if c.ds.OutsideWorld(n.EastNorth()) {
			return true
		}
	}
	return false
}

func (c *MoveCommand) Nodes() []*osm.Node {
	return append([]*osm.Node(nil), c.nodes...)
}

func (c *MoveCommand) Description() string {
	if len(c.nodes) == 1 {
		return fmt.Sprintf("Move node %d", c.nodes[0].ID())
	}
	return fmt.Sprintf("Move %d nodes", len(c.nodes))
}

func (c *MoveCommand) Participants() []osm.Primitive {
	result := make([]osm.Primitive, len(c.nodes))
	for i, n := range c.nodes {
		result[i] = n
	}
	return result
}

func collectNodes(prims []osm.Primitive) []*osm.Node {
	seen := make(map[*osm.Node]bool)
	var nodes []*osm.Node
	add := func(n *osm.Node) {
		if !seen[n] {
			seen[n] = true
			nodes = append(nodes, n)
		}
	}
	for _, p := range prims {
		switch p := p.(type) {
		case *osm.Node:
			add(p)
		case *osm.Way:
			for _, n := range p.Nodes() {
				add(n)
			}
		}
	}
	return nodes
}
