package main

import (
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/mode"
	"github.com/osuushi/wayedit/osm"
	"github.com/pkg/errors"
)

// One terminal cell is one view pixel. The bottom row is the status line.

const doubleClickTime = 400 * time.Millisecond

var (
	styleWay      = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleSelected = tcell.StyleDefault.Foreground(tcell.ColorRed)
	styleHigh     = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	styleNode     = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleOverlay  = tcell.StyleDefault.Foreground(tcell.ColorAqua)
	styleStatus   = tcell.StyleDefault.Reverse(true)
)

type terminal struct {
	screen  tcell.Screen
	session *mode.Session

	pressed   bool
	lastPress time.Time
	lastCell  geom.Point
	message   string
}

func runTUI() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return errors.Wrap(err, "opening terminal")
	}
	if err := screen.Init(); err != nil {
		return errors.Wrap(err, "initializing terminal")
	}
	defer screen.Fini()
	screen.EnableMouse()

	w, h := screen.Size()
	s, err := newSession(w, h-1)
	if err != nil {
		return err
	}
	t := &terminal{screen: screen, session: s}
	t.draw()
	for {
		if quit := t.handle(screen.PollEvent()); quit {
			return nil
		}
		t.draw()
	}
}

// Returns true when the user asked to quit.
func (t *terminal) handle(ev tcell.Event) bool {
	s := t.session
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w, h := ev.Size()
		s.View.Width, s.View.Height = w, h-1
		t.screen.Sync()
	case *tcell.EventMouse:
		t.mouse(ev)
	case *tcell.EventKey:
		return t.key(ev)
	}
	return false
}

func modifiers(m tcell.ModMask) mode.Modifiers {
	return mode.Modifiers{
		Shift: m&tcell.ModShift != 0,
		Ctrl:  m&tcell.ModCtrl != 0,
		Alt:   m&tcell.ModAlt != 0,
	}
}

func (t *terminal) mouse(ev *tcell.EventMouse) {
	x, y := ev.Position()
	at := geom.Point{X: float64(x), Y: float64(y)}
	e := mode.PointerEvent{Point: at, Modifiers: modifiers(ev.Modifiers()), Time: ev.When()}
	down := ev.Buttons()&tcell.Button1 != 0
	switch {
	case down && !t.pressed:
		e.Action = mode.Press
		e.Button = mode.LeftButton
		e.ClickCount = 1
		if e.Time.Sub(t.lastPress) < doubleClickTime && at == t.lastCell {
			e.ClickCount = 2
		}
		t.lastPress, t.lastCell = e.Time, at
	case down:
		e.Action = mode.Drag
	case t.pressed:
		e.Action = mode.Release
		e.Button = mode.LeftButton
		e.ClickCount = 1
	default:
		e.Action = mode.Move
	}
	t.pressed = down
	t.session.Dispatch(e)
}

var tcellKeys = map[tcell.Key]mode.Key{
	tcell.KeyEscape:     mode.KeyEscape,
	tcell.KeyEnter:      mode.KeyEnter,
	tcell.KeyBackspace:  mode.KeyBackspace,
	tcell.KeyBackspace2: mode.KeyBackspace,
	tcell.KeyDelete:     mode.KeyDelete,
	tcell.KeyTab:        mode.KeyTab,
}

// Digits pick a mode by its place in mode.Names. Ctrl+Z and Ctrl+Y undo and
// redo, g toggles parallel distance snapping and q quits. Everything else goes
// to the active mode.
func (t *terminal) key(ev *tcell.EventKey) bool {
	s := t.session
	t.message = ""
	switch ev.Key() {
	case tcell.KeyCtrlC:
		return true
	case tcell.KeyCtrlZ:
		if err := s.Undo(); err != nil {
			t.message = err.Error()
		}
		return false
	case tcell.KeyCtrlY:
		if err := s.Redo(); err != nil {
			t.message = err.Error()
		}
		return false
	case tcell.KeyRune:
		r := ev.Rune()
		switch {
		case r == 'q':
			return true
		case r == 'g':
			s.Prefs.Parallel.Snap = !s.Prefs.Parallel.Snap
			t.message = fmt.Sprintf("parallel snapping %v", s.Prefs.Parallel.Snap)
			return false
		case r >= '1' && r <= '9':
			names := mode.Names()
			if i := int(r - '1'); i < len(names) {
				if err := s.SetModeByName(names[i]); err != nil {
					t.message = err.Error()
				}
			}
			return false
		}
		s.Dispatch(mode.KeyEvent{Key: mode.Key(string(r)), Modifiers: modifiers(ev.Modifiers())})
		return false
	}
	if k, ok := tcellKeys[ev.Key()]; ok {
		s.Dispatch(mode.KeyEvent{Key: k, Modifiers: modifiers(ev.Modifiers())})
	}
	return false
}

func (t *terminal) draw() {
	t.screen.Clear()
	render(t.screen, t.session, t.message)
	t.screen.Show()
}

func render(screen tcell.Screen, s *mode.Session, message string) {
	ds, v := s.DataSet, s.View
	f := s.Feedback()
	highlighted := make(map[osm.Primitive]bool, len(f.Highlight))
	for _, p := range f.Highlight {
		highlighted[p] = true
	}
	pick := func(p osm.Primitive, normal tcell.Style) tcell.Style {
		switch {
		case highlighted[p]:
			return styleHigh
		case ds.IsSelected(p):
			return styleSelected
		}
		return normal
	}

	for _, w := range ds.Ways() {
		if w.IsHidden() {
			continue
		}
		style := pick(w, styleWay)
		nodes := w.Nodes()
		for i := 0; i+1 < len(nodes); i++ {
			plot(screen, v.NodePoint(nodes[i]), v.NodePoint(nodes[i+1]), '·', style)
		}
	}
	for _, seg := range f.HighlightSegments {
		if seg.IsValid() {
			plot(screen, v.Point(seg.FirstEastNorth()), v.Point(seg.SecondEastNorth()), '=', styleHigh)
		}
	}
	for _, n := range ds.Nodes() {
		put(screen, v.NodePoint(n), 'o', pick(n, styleNode))
	}

	o := s.Overlay()
	for _, l := range o.Lines {
		plot(screen, v.Point(l.From), v.Point(l.To), '-', styleOverlay)
	}
	for _, m := range o.Markers {
		put(screen, v.Point(m.At), '*', styleOverlay)
	}
	for _, l := range o.Labels {
		p := v.Point(l.At)
		text(screen, int(math.Round(p.X))+2, int(math.Round(p.Y)), l.Text, styleOverlay)
	}

	status := fmt.Sprintf(" %s | %s", s.Mode().Name(), f.Cursor)
	if f.Status != "" {
		status += " | " + f.Status
	}
	if message != "" {
		status += " | " + message
	}
	w, h := screen.Size()
	for x := 0; x < w; x++ {
		screen.SetContent(x, h-1, ' ', nil, styleStatus)
	}
	text(screen, 0, h-1, status, styleStatus)
}

func put(screen tcell.Screen, p geom.Point, r rune, style tcell.Style) {
	x, y := int(math.Round(p.X)), int(math.Round(p.Y))
	w, h := screen.Size()
	if x < 0 || y < 0 || x >= w || y >= h-1 {
		return
	}
	screen.SetContent(x, y, r, nil, style)
}

// Plot the cells along a to b, one per step of the longer axis.
func plot(screen tcell.Screen, a, b geom.Point, r rune, style tcell.Style) {
	steps := int(math.Ceil(math.Max(math.Abs(b.X-a.X), math.Abs(b.Y-a.Y))))
	if steps > 10000 {
		return
	}
	for i := 0; i <= steps; i++ {
		k := 1.0
		if steps > 0 {
			k = float64(i) / float64(steps)
		}
		put(screen, geom.Point{X: a.X + (b.X-a.X)*k, Y: a.Y + (b.Y-a.Y)*k}, r, style)
	}
}

func text(screen tcell.Screen, x, y int, s string, style tcell.Style) {
	for _, r := range s {
		screen.SetContent(x, y, r, nil, style)
		x++
	}
}
