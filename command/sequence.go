package command

import (
	"github.com/osuushi/wayedit/osm"
	"github.com/pkg/errors"
)

// SequenceCommand runs its children in order and undoes them in reverse.
type SequenceCommand struct {
	label    string
	children []Command
}

func Sequence(label string, cmds ...Command) *SequenceCommand {
	return &SequenceCommand{label: label, children: cmds}
}

// If a child fails, the children that already ran are undone before the error
// is returned, so a failed sequence leaves no trace.
func (c *SequenceCommand) Execute() error {
	for i, child := range c.children {
		if err := child.Execute(); err != nil {
			for j := i - 1; j >= 0; j-- {
				if undoErr := c.children[j].Undo(); undoErr != nil {
					return errors.Wrapf(undoErr, "rolling back %q after: %v", c.label, err)
				}
			}
			return errors.Wrapf(err, "%s", c.label)
		}
	}
	return nil
}

func (c *SequenceCommand) Undo() error {
	for i := len(c.children) - 1; i >= 0; i-- {
		if err := c.children[i].Undo(); err != nil {
			return errors.Wrapf(err, "undo %s", c.label)
		}
	}
	return nil
}

func (c *SequenceCommand) Description() string {
	return c.label
}

func (c *SequenceCommand) Children() []Command {
	return c.children
}

func (c *SequenceCommand) Participants() []osm.Primitive {
	seen := make(map[osm.Primitive]bool)
	var result []osm.Primitive
	for _, child := range c.children {
		for _, p := range child.Participants() {
			if !seen[p] {
				seen[p] = true
				result = append(result, p)
			}
		}
	}
	return result
}
