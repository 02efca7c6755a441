package main

import (
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/mode"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/view"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(w, h int) *mode.Session {
	ds := osm.NewDataSet(osm.Identity{})
	return mode.NewSession(ds, view.New(geom.EastNorth{}, 0.1, w, h), nil)
}

func TestParseScript(t *testing.T) {
	steps, err := parseScript(strings.NewReader(`
# a comment
mode draw
press 1.5 -2 shift+ctrl
key escape alt
wait 500
undo
`))
	require.NoError(t, err)
	require.Len(t, steps, 5)

	press := steps[1]
	assert.Equal(t, "press", press.verb)
	assert.Equal(t, 4, press.line)
	assert.Equal(t, geom.EastNorth{East: 1.5, North: -2}, press.at)
	assert.Equal(t, mode.Modifiers{Shift: true, Ctrl: true}, press.mods)
	assert.Equal(t, mode.Modifiers{Alt: true}, steps[2].mods)
	assert.Equal(t, int64(500e6), int64(steps[3].wait))
}

func TestParseScriptErrors(t *testing.T) {
	for _, script := range []string{
		"jump 1 2",
		"press 1",
		"press 1 x",
		"click 1 2 meta",
		"mode",
		"wait soon",
		"undo 2",
	} {
		_, err := parseScript(strings.NewReader(script))
		assert.Error(t, err, script)
	}

	_, err := parseScript(strings.NewReader("mode draw\n\nclick 1\n"))
	assert.Contains(t, err.Error(), "line 3")
}

func TestReplay(t *testing.T) {
	steps, err := parseScript(strings.NewReader(`
mode draw
click 0 0
click 10 0
key escape
`))
	require.NoError(t, err)
	s := testSession(400, 400)
	require.NoError(t, newPlayer(s).play(steps))

	require.Len(t, s.DataSet.Ways(), 1)
	assert.Equal(t, 2, s.DataSet.Ways()[0].NodesCount())

	undo, err := parseScript(strings.NewReader("undo"))
	require.NoError(t, err)
	require.NoError(t, newPlayer(s).play(undo))
	assert.Empty(t, s.DataSet.Ways())
}

func TestReplayUnknownMode(t *testing.T) {
	steps, err := parseScript(strings.NewReader("click 0 0\nmode fly"))
	require.NoError(t, err)
	err = newPlayer(testSession(400, 400)).play(steps)
	assert.ErrorIs(t, err, mode.ErrUnknownMode)
	assert.Contains(t, err.Error(), "line 2")
}

func screenText(t *testing.T, screen tcell.SimulationScreen) []string {
	t.Helper()
	cells, w, h := screen.GetContents()
	rows := make([]string, h)
	for y := 0; y < h; y++ {
		var b strings.Builder
		for x := 0; x < w; x++ {
			runes := cells[y*w+x].Runes
			if len(runes) == 0 {
				b.WriteRune(' ')
			} else {
				b.WriteRune(runes[0])
			}
		}
		rows[y] = b.String()
	}
	return rows
}

func TestRender(t *testing.T) {
	screen := tcell.NewSimulationScreen("")
	require.NoError(t, screen.Init())
	defer screen.Fini()
	screen.SetSize(40, 21)

	// Ten cells per unit, origin at the center
	s := testSession(40, 20)
	ds := s.DataSet
	a := osm.NewNode(geom.EastNorth{East: -1, North: 0})
	b := osm.NewNode(geom.EastNorth{East: 1, North: 0})
	require.NoError(t, ds.AddPrimitive(a))
	require.NoError(t, ds.AddPrimitive(b))
	require.NoError(t, ds.AddPrimitive(osm.NewWay(a, b)))

	render(screen, s, "hello")
	screen.Show()
	rows := screenText(t, screen)

	assert.Equal(t, "          o"+strings.Repeat("·", 19)+"o", string([]rune(rows[10])[:31]))
	assert.Contains(t, rows[20], "select")
	assert.Contains(t, rows[20], "hello")
}

func TestMouseActions(t *testing.T) {
	s := testSession(400, 400)
	require.NoError(t, s.SetModeByName("addnode"))
	term := &terminal{session: s}

	term.mouse(tcell.NewEventMouse(200, 200, tcell.Button1, tcell.ModNone))
	assert.True(t, term.pressed)
	term.mouse(tcell.NewEventMouse(200, 200, tcell.ButtonNone, tcell.ModNone))
	assert.False(t, term.pressed)

	require.Len(t, s.DataSet.Nodes(), 1)
	assert.Equal(t, geom.EastNorth{}, s.DataSet.Nodes()[0].EastNorth())
}

func TestKeys(t *testing.T) {
	s := testSession(400, 400)
	term := &terminal{session: s}

	names := mode.Names()
	assert.False(t, term.key(tcell.NewEventKey(tcell.KeyRune, '3', tcell.ModNone)))
	assert.Equal(t, names[2], s.Mode().Name())

	snap := s.Prefs.Parallel.Snap
	term.key(tcell.NewEventKey(tcell.KeyRune, 'g', tcell.ModNone))
	assert.Equal(t, !snap, s.Prefs.Parallel.Snap)
	assert.NotEmpty(t, term.message)

	assert.True(t, term.key(tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)))
	assert.True(t, term.key(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl)))
}
