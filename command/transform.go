package command

import (
	"fmt"
	"math"

	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
)

type transformKind int

const (
	rotateTransform transformKind = iota
	scaleTransform
)

// TransformCommand rotates or scales nodes around the centroid of their
// positions. It is driven by cursor positions: the transform is whatever maps
// the start position onto the current one.
type TransformCommand struct {
	kind  transformKind
	nodes []*osm.Node
	old   []geom.EastNorth
	pivot geom.EastNorth
	start geom.EastNorth

	angle  float64
	factor float64
}

func Rotate(prims []osm.Primitive, start geom.EastNorth) *TransformCommand {
	return newTransform(rotateTransform, prims, start)
}

func Scale(prims []osm.Primitive, start geom.EastNorth) *TransformCommand {
	return newTransform(scaleTransform, prims, start)
}

func newTransform(kind transformKind, prims []osm.Primitive, start geom.EastNorth) *TransformCommand {
	c := &TransformCommand{
		kind:   kind,
		nodes:  collectNodes(prims),
		start:  start,
		factor: 1,
	}
	var sum geom.EastNorth
	for _, n := range c.nodes {
		sum = sum.Add(n.EastNorth())
	}
	if len(c.nodes) > 0 {
		c.pivot = sum.Scale(1 / float64(len(c.nodes)))
	}
	return c
}

func (c *TransformCommand) Execute() error {
	c.old = make([]geom.EastNorth, len(c.nodes))
	for i, n := range c.nodes {
		c.old[i] = n.EastNorth()
	}
	c.apply()
	return nil
}

func (c *TransformCommand) Undo() error {
	for i, n := range c.nodes {
		n.SetEastNorth(c.old[i])
	}
	return nil
}

// Recompute the transform for a new cursor position.
func (c *TransformCommand) HandleEvent(current geom.EastNorth) {
	switch c.kind {
	case rotateTransform:
		c.angle = c.pivot.Heading(current) - c.pivot.Heading(c.start)
	case scaleTransform:
		startDistance := c.pivot.Distance(c.start)
		if startDistance < geom.Epsilon {
			return
		}
		// Only the component of the cursor along the start direction counts
		startAngle := math.Atan2(c.start.East-c.pivot.East, c.start.North-c.pivot.North)
		endAngle := math.Atan2(current.East-c.pivot.East, current.North-c.pivot.North)
		c.factor = c.pivot.Distance(current) * math.Cos(endAngle-startAngle) / startDistance
	}
	if c.old != nil {
		c.apply()
	}
}

func (c *TransformCommand) apply() {
	for i, n := range c.nodes {
		switch c.kind {
		case rotateTransform:
			n.SetEastNorth(c.old[i].Rotate(c.pivot, c.angle))
		case scaleTransform:
			n.SetEastNorth(c.pivot.Add(c.old[i].Sub(c.pivot).Scale(c.factor)))
		}
	}
}

func (c *TransformCommand) Pivot() geom.EastNorth {
	return c.pivot
}

// Rotation angle in radians, clockwise.
func (c *TransformCommand) Angle() float64 {
	return c.angle
}

func (c *TransformCommand) Factor() float64 {
	return c.factor
}

func (c *TransformCommand) OutsideWorld(ds *osm.DataSet) bool {
	for _, n := range c.nodes {
		if ds.OutsideWorld(n.EastNorth()) {
			return true
		}
	}
	return false
}

func (c *TransformCommand) Description() string {
	if c.kind == rotateTransform {
		return fmt.Sprintf("Rotate %d nodes", len(c.nodes))
	}
	return fmt.Sprintf("Scale %d nodes", len(c.nodes))
}

func (c *TransformCommand) Participants() []osm.Primitive {
	result := make([]osm.Primitive, len(c.nodes))
	for i, n := range c.nodes {
		result[i] = n
	}
	return result
}
