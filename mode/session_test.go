package mode

import (
	"bytes"
	"testing"
	"time"

	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/prefs"
	"github.com/osuushi/wayedit/view"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A 400x400 screen at 10 pixels per unit, centered on the origin, so test
// coordinates stay well inside the world of the identity projection.
func newTestSession(t *testing.T, p *prefs.Preferences) *Session {
	t.Helper()
	ds := osm.NewDataSet(osm.Identity{})
	v := view.New(geom.EastNorth{}, 0.1, 400, 400)
	return NewSession(ds, v, p)
}

func en(e, n float64) geom.EastNorth {
	return geom.EastNorth{East: e, North: n}
}

func addNode(t *testing.T, ds *osm.DataSet, e, n float64) *osm.Node {
	t.Helper()
	nd := osm.NewNode(en(e, n))
	require.NoError(t, ds.AddPrimitive(nd))
	return nd
}

func addWay(t *testing.T, ds *osm.DataSet, nodes ...*osm.Node) *osm.Way {
	t.Helper()
	w := osm.NewWay(nodes...)
	require.NoError(t, ds.AddPrimitive(w))
	return w
}

// driver feeds a session with events a second apart, so every drag passes the
// initial move delay.
type driver struct {
	t    *testing.T
	s    *Session
	now  time.Time
	mods Modifiers
}

func newDriver(t *testing.T, s *Session) *driver {
	return &driver{t: t, s: s, now: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (d *driver) at(e, n float64) geom.Point {
	return d.s.View.Point(en(e, n))
}

func (d *driver) with(m Modifiers) *driver {
	d.mods = m
	return d
}

func (d *driver) pointer(action PointerAction, p geom.Point, clicks int) {
	d.now = d.now.Add(time.Second)
	e := PointerEvent{
		Action:     action,
		Point:      p,
		Modifiers:  d.mods,
		ClickCount: clicks,
		Time:       d.now,
	}
	if action != Move && action != Drag {
		e.Button = LeftButton
	}
	d.s.Dispatch(e)
}

func (d *driver) move(e, n float64) {
	d.pointer(Move, d.at(e, n), 0)
}

func (d *driver) click(e, n float64) {
	p := d.at(e, n)
	d.pointer(Move, p, 0)
	d.pointer(Press, p, 1)
	d.pointer(Release, p, 1)
}

func (d *driver) doubleClick(e, n float64) {
	p := d.at(e, n)
	d.pointer(Press, p, 1)
	d.pointer(Release, p, 1)
	d.pointer(Press, p, 2)
	d.pointer(Release, p, 2)
}

// Press at the first point, drag through the others and release at the last.
func (d *driver) drag(points ...geom.EastNorth) {
	first := d.s.View.Point(points[0])
	d.pointer(Move, first, 0)
	d.pointer(Press, first, 1)
	for _, p := range points[1:] {
		d.pointer(Drag, d.s.View.Point(p), 0)
	}
	d.pointer(Release, d.s.View.Point(points[len(points)-1]), 1)
}

func (d *driver) key(k Key) {
	d.s.Dispatch(KeyEvent{Key: k, Modifiers: d.mods})
}

func undoDepth(s *Session) int {
	return len(s.UndoRedo.UndoCommands())
}

func assertEN(t *testing.T, expected, actual geom.EastNorth) {
	t.Helper()
	assert.InDelta(t, expected.East, actual.East, geom.Epsilon, "east of %v", actual)
	assert.InDelta(t, expected.North, actual.North, geom.Epsilon, "north of %v", actual)
}

func TestModeRegistry(t *testing.T) {
	assert.Equal(t,
		[]string{"addnode", "addway", "draw", "extrude", "improve", "parallel", "select", "split"},
		Names())
	for _, name := range Names() {
		m, err := New(name)
		require.NoError(t, err)
		assert.Equal(t, name, m.Name())
	}
	_, err := New("lasso")
	assert.True(t, errors.Is(err, ErrUnknownMode))
}

func TestSessionDefaults(t *testing.T) {
	p := prefs.Default()
	p.SnapDistance = 12
	s := newTestSession(t, p)
	assert.Equal(t, "select", s.Mode().Name())
	assert.Equal(t, 12.0, s.View.SnapDistance)

	require.NoError(t, s.SetModeByName("draw"))
	assert.Equal(t, "draw", s.Mode().Name())
	assert.Error(t, s.SetModeByName("nope"))
	assert.Equal(t, "draw", s.Mode().Name())
}

// A mode that switches away while handling an event finishes that event
// first; the next event goes to the new mode.
func TestModeSwitchDuringDispatch(t *testing.T) {
	s := newTestSession(t, nil)
	d := newDriver(t, s)
	require.NoError(t, s.SetModeByName("draw"))
	d.key(KeyEscape)
	assert.Equal(t, "select", s.Mode().Name())
}

func TestUndoRedoReentersMode(t *testing.T) {
	s := newTestSession(t, nil)
	d := newDriver(t, s)
	require.NoError(t, s.SetModeByName("addnode"))
	d.click(1, 1)
	require.Len(t, s.DataSet.Nodes(), 1)

	require.NoError(t, s.Undo())
	assert.True(t, s.DataSet.IsEmpty())
	require.NoError(t, s.Redo())
	assert.Len(t, s.DataSet.Nodes(), 1)
	assert.True(t, errors.Is(s.Redo(), command.ErrNothingToRedo))
}

func TestAutoPrompter(t *testing.T) {
	p := &AutoPrompter{Answer: false}
	assert.False(t, p.Confirm("really?"))
	p.Warn("careful")
	assert.Equal(t, []string{"really?", "careful"}, p.Messages)
}

func TestRender(t *testing.T) {
	s := newTestSession(t, nil)
	ds := s.DataSet
	a, b := addNode(t, ds, -5, 0), addNode(t, ds, 5, 0)
	w := addWay(t, ds, a, b)
	ds.SetSelected(w)
	require.NoError(t, s.SetModeByName("draw"))
	newDriver(t, s).move(0, 5)

	c := s.Render()
	assert.Equal(t, 400, c.Width())
	assert.Equal(t, 400, c.Height())

	var buf bytes.Buffer
	require.NoError(t, s.EncodePNG(&buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
}

func TestOverlayPaths(t *testing.T) {
	var o Overlay
	assert.True(t, o.IsEmpty())
	o.AddPath([]geom.EastNorth{en(0, 0), en(1, 0), en(1, 1)}, true, SelectionLine)
	assert.Len(t, o.Lines, 3)
	o.AddLabel(en(0, 0), "")
	assert.Empty(t, o.Labels)
	o.AddLabel(en(0, 0), "45°")
	assert.Len(t, o.Labels, 1)
}
