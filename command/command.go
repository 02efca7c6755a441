// Package command turns graph mutations into reversible units. Every edit the
// modes make goes through a Command, and every user gesture submits exactly
// one of them (usually a Sequence) to the UndoRedo stack.
package command

import (
	"fmt"

	"github.com/osuushi/wayedit/osm"
	"github.com/pkg/errors"
)

var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
	ErrStaleGesture  = errors.New("gesture command is no longer on top of the undo stack")
)

// Command is one reversible mutation. Executing and then undoing a command
// restores exactly the state from before Execute. A command may be executed
// again after it was undone (redo).
type Command interface {
	Execute() error
	Undo() error
	Description() string
	// The primitives the command touches, for highlighting and conflict
	// checks.
	Participants() []osm.Primitive
}

// AddCommand adds a new node or way.
type AddCommand struct {
	ds   *osm.DataSet
	prim osm.Primitive
}

func Add(ds *osm.DataSet, prim osm.Primitive) *AddCommand {
	return &AddCommand{ds: ds, prim: prim}
}

func (c *AddCommand) Execute() error {
	return errors.Wrap(c.ds.AddPrimitive(c.prim), "add")
}

func (c *AddCommand) Undo() error {
	return errors.Wrap(c.ds.RemovePrimitive(c.prim), "undo add")
}

func (c *AddCommand) Description() string {
	return fmt.Sprintf("Add %v", c.prim.PrimitiveID())
}

func (c *AddCommand) Participants() []osm.Primitive {
	return []osm.Primitive{c.prim}
}

func (c *AddCommand) Primitive() osm.Primitive {
	return c.prim
}

// ChangeCommand swaps a way for an edited copy. The original is never mutated,
// so undo only has to swap it back in.
type ChangeCommand struct {
	ds       *osm.DataSet
	old, new *osm.Way
}

// The new way must be a detached copy of old (see Way.Copy).
func Change(ds *osm.DataSet, old, new *osm.Way) *ChangeCommand {
	return &ChangeCommand{ds: ds, old: old, new: new}
}

func (c *ChangeCommand) Execute() error {
	return errors.Wrap(c.ds.ReplaceWay(c.old, c.new), "change")
}

func (c *ChangeCommand) Undo() error {
	return errors.Wrap(c.ds.ReplaceWay(c.new, c.old), "undo change")
}

func (c *ChangeCommand) Description() string {
	return fmt.Sprintf("Change way %d", c.old.ID())
}

func (c *ChangeCommand) Participants() []osm.Primitive {
	return []osm.Primitive{c.new}
}

func (c *ChangeCommand) Old() *osm.Way {
	return c.old
}

func (c *ChangeCommand) New() *osm.Way {
	return c.new
}

// DeleteCommand removes primitives that nothing else refers to. Use
// DeleteWithReferences to detach nodes from ways first.
type DeleteCommand struct {
	ds    *osm.DataSet
	ways  []*osm.Way
	nodes []*osm.Node
}

func Delete(ds *osm.DataSet, prims ...osm.Primitive) *DeleteCommand {
	c := &DeleteCommand{ds: ds}
	for _, p := range prims {
		switch p := p.(type) {
		case *osm.Way:
			c.ways = append(c.ways, p)
		case *osm.Node:
			c.nodes = append(c.nodes, p)
		}
	}
	return c
}

// Ways go first, so that their nodes are free to go.
func (c *DeleteCommand) Execute() error {
	var done []osm.Primitive
	rollback := func() {
		for i := len(done) - 1; i >= 0; i-- {
			_ = c.ds.AddPrimitive(done[i])
		}
	}
	for _, w := range c.ways {
		if err := c.ds.RemovePrimitive(w); err != nil {
			rollback()
			return errors.Wrap(err, "delete")
		}
		done = append(done, w)
	}
	for _, n := range c.nodes {
		if err := c.ds.RemovePrimitive(n); err != nil {
			rollback()
			return errors.Wrap(err, "delete")
		}
		done = append(done, n)
	}
	return nil
}

func (c *DeleteCommand) Undo() error {
	for _, n := range c.nodes {
		if err := c.ds.AddPrimitive(n); err != nil {
			return errors.Wrap(err, "undo delete")
		}
	}
	for _, w := range c.ways {
		if err := c.ds.AddPrimitive(w); err != nil {
			return errors.Wrap(err, "undo delete")
		}
	}
	return nil
}

func (c *DeleteCommand) Description() string {
	return fmt.Sprintf("Delete %d ways and %d nodes", len(c.ways), len(c.nodes))
}

func (c *DeleteCommand) Participants() []osm.Primitive {
	var result []osm.Primitive
	for _, w := range c.ways {
		result = append(result, w)
	}
	for _, n := range c.nodes {
		result = append(result, n)
	}
	return result
}

// Build a command that deletes prims along with everything that would be left
// dangling:
//
//   - deleted nodes are removed from every way that still uses them
//   - ways that end up with fewer than two nodes are deleted as well
//   - with alsoDeleteNodes, nodes of deleted ways that no remaining way uses
//     are deleted
//
// Returns nil if there is nothing to delete.
func DeleteWithReferences(ds *osm.DataSet, prims []osm.Primitive, alsoDeleteNodes bool) Command {
	deletedNodes := make(map[*osm.Node]bool)
	deletedWays := make(map[*osm.Way]bool)
	for _, p := range prims {
		switch p := p.(type) {
		case *osm.Node:
			deletedNodes[p] = true
		case *osm.Way:
			deletedWays[p] = true
		}
	}

	// Detach deleted nodes from surviving ways
	var changes []Command
	changedWays := make(map[*osm.Way]bool)
	for _, n := range sortedNodes(deletedNodes) {
		for _, w := range ds.Referrers(n) {
			if deletedWays[w] || changedWays[w] {
				continue
			}
			changedWays[w] = true
			cp := w.Copy()
			cp.RemoveNodes(deletedNodes)
			if cp.NodesCount() < 2 {
				deletedWays[w] = true
				continue
			}
			changes = append(changes, Change(ds, w, cp))
		}
	}

	if alsoDeleteNodes {
		for w := range deletedWays {
			for _, n := range w.Nodes() {
				if deletedNodes[n] {
					continue
				}
				used := false
				for _, ref := range ds.Referrers(n) {
					if !deletedWays[ref] {
						used = true
						break
					}
				}
				if !used {
					deletedNodes[n] = true
				}
			}
		}
	}

	// Any way that still refers to a deleted node after the changes above is
	// one we decided to delete, so a single Delete covers the rest.
	var toDelete []osm.Primitive
	for _, w := range sortedWays(deletedWays) {
		toDelete = append(toDelete, w)
	}
	for _, n := range sortedNodes(deletedNodes) {
		toDelete = append(toDelete, n)
	}
	if len(toDelete) == 0 && len(changes) == 0 {
		return nil
	}

	cmds := append(changes, Delete(ds, toDelete...))
	if len(cmds) == 1 {
		return cmds[0]
	}
	return Sequence("Delete", cmds...)
}

func sortedNodes(set map[*osm.Node]bool) []*osm.Node {
	result := make([]*osm.Node, 0, len(set))
	for n := range set {
		result = append(result, n)
	}
	osm.SortNodes(result)
	return result
}

func sortedWays(set map[*osm.Way]bool) []*osm.Way {
	result := make([]*osm.Way, 0, len(set))
	for w := range set {
		result = append(result, w)
	}
	osm.SortWays(result)
	return result
}
