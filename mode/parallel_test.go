package mode

import (
	"testing"

	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/prefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newParallelSession(t *testing.T) (*Session, *driver) {
	p := prefs.Default()
	// Snapping rounds to half meters, which is not what the identity
	// projection's degree coordinates want
	p.Parallel.Snap = false
	s := newTestSession(t, p)
	require.NoError(t, s.SetModeByName("parallel"))
	return s, newDriver(t, s)
}

func TestParallelDrag(t *testing.T) {
	s, d := newParallelSession(t)
	ds := s.DataSet
	src := addWay(t, ds, addNode(t, ds, -10, 0), addNode(t, ds, 0, 0), addNode(t, ds, 10, 0))

	d.move(-5, 0)
	d.pointer(Press, d.at(-5, 0), 1)
	d.pointer(Drag, d.at(-5, 1), 0)
	d.pointer(Drag, d.at(-5, 3), 0)
	m := s.Mode().(*Parallel)
	assert.InDelta(t, 3, m.Offset(), 1e-9)
	assert.Len(t, s.Overlay().Labels, 1)
	d.pointer(Release, d.at(-5, 3), 1)

	require.Len(t, ds.Ways(), 2)
	assert.Equal(t, 1, undoDepth(s))
	sel := ds.SelectedWays()
	require.Len(t, sel, 1)
	dup := sel[0]
	assert.NotEqual(t, src.ID(), dup.ID())
	require.Equal(t, 3, dup.NodesCount())
	for i, n := range dup.Nodes() {
		assertEN(t, en(float64(i*10-10), 3), n.EastNorth())
	}

	require.NoError(t, s.Undo())
	assert.Len(t, ds.Ways(), 1)
	assert.Len(t, ds.Nodes(), 3)
}

func TestParallelRightSideIsNegative(t *testing.T) {
	s, d := newParallelSession(t)
	ds := s.DataSet
	addWay(t, ds, addNode(t, ds, -10, 0), addNode(t, ds, 10, 0))

	d.move(0, 0)
	d.pointer(Press, d.at(0, 0), 1)
	d.pointer(Drag, d.at(0, -2), 0)
	assert.InDelta(t, -2, s.Mode().(*Parallel).Offset(), 1e-9)
	d.pointer(Release, d.at(0, -2), 1)

	for _, w := range ds.SelectedWays() {
		for _, n := range w.Nodes() {
			assert.InDelta(t, -2, n.EastNorth().North, 1e-9)
		}
	}
}

func TestParallelRejectsBranches(t *testing.T) {
	s, d := newParallelSession(t)
	ds := s.DataSet
	prompter := &AutoPrompter{}
	s.Prompter = prompter
	a, b := addNode(t, ds, 0, 0), addNode(t, ds, 10, 0)
	w1 := addWay(t, ds, a, b)
	w2 := addWay(t, ds, b, addNode(t, ds, 20, 0))
	w3 := addWay(t, ds, b, addNode(t, ds, 10, 10))
	ds.SetSelected(w1, w2, w3)

	d.drag(en(5, 0), en(5, 2), en(5, 3))
	assert.Equal(t, []string{msgNotBranchless}, prompter.Messages)
	assert.True(t, ds.SelectionEmpty())
	assert.Len(t, ds.Ways(), 3)
	assert.Zero(t, undoDepth(s))
}

func TestParallelStaysInsideWorld(t *testing.T) {
	s, d := newParallelSession(t)
	ds := s.DataSet
	prompter := &AutoPrompter{Answer: true}
	s.Prompter = prompter
	s.View.ZoomTo(en(0, 85), 0.1)
	addWay(t, ds, addNode(t, ds, -10, 85), addNode(t, ds, 10, 85))

	d.move(0, 85)
	d.pointer(Press, d.at(0, 85), 1)
	d.pointer(Drag, d.at(0, 86), 0)
	d.pointer(Drag, d.at(0, 88), 0)
	m := s.Mode().(*Parallel)
	assert.InDelta(t, 3, m.Offset(), 1e-9)
	assert.Empty(t, prompter.Messages)

	// North of the pole the copies would leave the world, so the offset holds
	d.pointer(Drag, d.at(0, 93), 0)
	assert.InDelta(t, 3, m.Offset(), 1e-9)
	assert.Contains(t, prompter.Messages, errOutsideWorld.Error())
	d.pointer(Release, d.at(0, 93), 1)

	for _, n := range ds.Nodes() {
		assert.False(t, ds.OutsideWorld(n.EastNorth()), "%v", n)
	}
	assert.Equal(t, 1, undoDepth(s))
}

func TestParallelClickSelects(t *testing.T) {
	s, d := newParallelSession(t)
	ds := s.DataSet
	w1 := addWay(t, ds, addNode(t, ds, -10, 0), addNode(t, ds, 10, 0))
	w2 := addWay(t, ds, addNode(t, ds, -10, 5), addNode(t, ds, 10, 5))

	d.click(0, 0)
	assert.Equal(t, []osm.Primitive{w1}, ds.Selected())
	d.with(Modifiers{Shift: true}).click(0, 5)
	assert.ElementsMatch(t, []osm.Primitive{w1, w2}, ds.Selected())
	d.with(Modifiers{Ctrl: true}).click(0, 0)
	assert.Equal(t, []osm.Primitive{w2}, ds.Selected())
	d.with(Modifiers{}).click(0, -8)
	assert.True(t, ds.SelectionEmpty())
	assert.Zero(t, undoDepth(s))
}

func TestSnapDistance(t *testing.T) {
	for _, c := range []struct {
		name           string
		realD, snapped float64
	}{
		{"near a whole step", 1.1, 1.0},
		{"just below a step", 1.45, 1.5},
		{"away from a step goes beyond it", 1.2, 1.5},
		{"away below a step goes beyond it", 1.3, 1.0},
	} {
		t.Run(c.name, func(t *testing.T) {
			assert.InDelta(t, c.snapped, snapDistance(c.realD, 0.5, 0.35), 1e-9)
		})
	}
	assert.Equal(t, 1.3, snapDistance(1.3, 0, 0.35))
}
