package main

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/mode"
	"github.com/pkg/errors"
)

// A replay script has one step per line. Coordinates are map coordinates
// (east, north); modifiers are a trailing word like "shift" or "ctrl+alt".
//
//	mode draw
//	click 0 0
//	press 10 0 ctrl
//	drag 12 4
//	release 12 4
//	key escape
//	undo
//
// Blank lines and lines starting with # are skipped. Every pointer step
// happens stepInterval after the previous one, which is longer than any
// drag delay; "wait <ms>" adds time on top.

const stepInterval = 250 * time.Millisecond

type step struct {
	line  int
	verb  string
	args  []string
	at    geom.EastNorth
	mods  mode.Modifiers
	count int
	wait  time.Duration
}

func parseScript(r io.Reader) ([]step, error) {
	var steps []step
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		s := step{line: line, verb: fields[0], args: fields[1:]}
		if err := s.parse(); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		steps = append(steps, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading script")
	}
	return steps, nil
}

func (s *step) parse() error {
	switch s.verb {
	case "press", "drag", "release", "move", "click", "dblclick":
		if len(s.args) < 2 || len(s.args) > 3 {
			return errors.Errorf("%s takes x y [modifiers]", s.verb)
		}
		x, err := strconv.ParseFloat(s.args[0], 64)
		if err != nil {
			return errors.Wrap(err, "bad x")
		}
		y, err := strconv.ParseFloat(s.args[1], 64)
		if err != nil {
			return errors.Wrap(err, "bad y")
		}
		s.at = geom.EastNorth{East: x, North: y}
		s.count = 1
		if len(s.args) == 3 {
			if s.mods, err = parseModifiers(s.args[2]); err != nil {
				return err
			}
		}
	case "key", "mods":
		if len(s.args) < 1 || len(s.args) > 2 {
			return errors.Errorf("%s takes a name and optional modifiers", s.verb)
		}
		var err error
		if s.verb == "mods" {
			s.mods, err = parseModifiers(s.args[0])
		} else if len(s.args) == 2 {
			s.mods, err = parseModifiers(s.args[1])
		}
		if err != nil {
			return err
		}
	case "mode":
		if len(s.args) != 1 {
			return errors.New("mode takes a name")
		}
	case "wait":
		if len(s.args) != 1 {
			return errors.New("wait takes milliseconds")
		}
		ms, err := strconv.Atoi(s.args[0])
		if err != nil {
			return errors.Wrap(err, "bad wait")
		}
		s.wait = time.Duration(ms) * time.Millisecond
	case "undo", "redo":
		if len(s.args) != 0 {
			return errors.Errorf("%s takes no arguments", s.verb)
		}
	default:
		return errors.Errorf("unknown step %q", s.verb)
	}
	return nil
}

func parseModifiers(s string) (mode.Modifiers, error) {
	var m mode.Modifiers
	if s == "none" {
		return m, nil
	}
	for _, part := range strings.Split(s, "+") {
		switch part {
		case "shift":
			m.Shift = true
		case "ctrl":
			m.Ctrl = true
		case "alt":
			m.Alt = true
		default:
			return m, errors.Errorf("unknown modifier %q", part)
		}
	}
	return m, nil
}

// player feeds steps into a session on a virtual clock.
type player struct {
	session *mode.Session
	now     time.Time
}

func newPlayer(s *mode.Session) *player {
	return &player{session: s, now: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (p *player) pointer(action mode.PointerAction, at geom.Point, mods mode.Modifiers, count int) {
	p.now = p.now.Add(stepInterval)
	e := mode.PointerEvent{Action: action, Point: at, Modifiers: mods, Time: p.now}
	if action == mode.Press || action == mode.Release {
		e.Button = mode.LeftButton
		e.ClickCount = count
	}
	p.session.Dispatch(e)
}

// Undo and redo without anything to undo are not errors in a script; the
// session stays as it is, like an editor ignoring the shortcut.
func (p *player) play(steps []step) error {
	s := p.session
	for _, st := range steps {
		at := s.View.Point(st.at)
		switch st.verb {
		case "mode":
			if err := s.SetModeByName(st.args[0]); err != nil {
				return errors.Wrapf(err, "line %d", st.line)
			}
		case "press":
			p.pointer(mode.Press, at, st.mods, st.count)
		case "drag":
			p.pointer(mode.Drag, at, st.mods, 0)
		case "release":
			p.pointer(mode.Release, at, st.mods, st.count)
		case "move":
			p.pointer(mode.Move, at, st.mods, 0)
		case "click":
			p.pointer(mode.Move, at, st.mods, 0)
			p.pointer(mode.Press, at, st.mods, 1)
			p.pointer(mode.Release, at, st.mods, 1)
		case "dblclick":
			p.pointer(mode.Move, at, st.mods, 0)
			p.pointer(mode.Press, at, st.mods, 1)
			p.pointer(mode.Release, at, st.mods, 1)
			p.pointer(mode.Press, at, st.mods, 2)
			p.pointer(mode.Release, at, st.mods, 2)
		case "key":
			s.Dispatch(mode.KeyEvent{Key: mode.Key(st.args[0]), Modifiers: st.mods})
		case "mods":
			s.Dispatch(mode.ModifierEvent{Modifiers: st.mods})
		case "wait":
			p.now = p.now.Add(st.wait)
		case "undo":
			_ = s.Undo()
		case "redo":
			_ = s.Redo()
		}
	}
	return nil
}
