// Package mode turns pointer and keyboard input into edits. A Session owns the
// data set, viewport, undo stack and preferences, and forwards every event to
// the active Mode in arrival order.
package mode

import (
	"sort"
	"time"

	"github.com/osuushi/wayedit/command"
	"github.com/osuushi/wayedit/dbg"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/prefs"
	"github.com/osuushi/wayedit/view"
	"github.com/pkg/errors"
)

// Mode is one editing tool. Handlers run synchronously on the session's
// goroutine; a mode keeps whatever state it needs between a press and the
// matching release.
type Mode interface {
	Name() string
	// Subscriptions are opened in Enter and closed in Exit
	Enter(ctx *Context)
	Exit(ctx *Context)
	Pointer(ctx *Context, e PointerEvent)
	Key(ctx *Context, e KeyEvent)
	Modifiers(ctx *Context, m Modifiers)
	Feedback(ctx *Context) Feedback
	Overlay(ctx *Context) Overlay
}

// Prompter asks the user about destructive or surprising edits.
type Prompter interface {
	Confirm(message string) bool
	Warn(message string)
}

// AutoPrompter answers every confirmation with Answer and records what it was
// asked.
type AutoPrompter struct {
	Answer   bool
	Messages []string
}

func (p *AutoPrompter) Confirm(message string) bool {
	p.Messages = append(p.Messages, message)
	dbg.Logf("confirm %q -> %v", message, p.Answer)
	return p.Answer
}

func (p *AutoPrompter) Warn(message string) {
	p.Messages = append(p.Messages, message)
	dbg.Warnf("%s", message)
}

type Session struct {
	DataSet  *osm.DataSet
	View     *view.MapView
	UndoRedo *command.UndoRedo
	Prefs    *prefs.Preferences
	Prompter Prompter

	ctx         *Context
	current     Mode
	pending     Mode
	dispatching bool
}

// A nil preferences argument means prefs.Default. The session starts in
// select mode.
func NewSession(ds *osm.DataSet, v *view.MapView, p *prefs.Preferences) *Session {
	if p == nil {
		p = prefs.Default()
	}
	v.SnapDistance = float64(p.SnapDistance)
	s := &Session{
		DataSet:  ds,
		View:     v,
		UndoRedo: command.NewUndoRedo(p.UndoMax),
		Prefs:    p,
		Prompter: &AutoPrompter{Answer: true},
	}
	s.ctx = &Context{session: s}
	s.SetMode(NewSelect())
	return s
}

func (s *Session) Mode() Mode {
	return s.current
}

func (s *Session) Context() *Context {
	return s.ctx
}

// Switch to m. During dispatch the switch happens once the current handler
// returns, so a mode never receives events after its Exit.
func (s *Session) SetMode(m Mode) {
	if s.dispatching {
		s.pending = m
		return
	}
	if s.current != nil {
		s.current.Exit(s.ctx)
	}
	if dbg.Enabled && s.current != nil {
		dbg.Logf("mode %s -> %s", s.current.Name(), m.Name())
	}
	s.current = m
	m.Enter(s.ctx)
}

func (s *Session) SetModeByName(name string) error {
	m, err := New(name)
	if err != nil {
		return err
	}
	s.SetMode(m)
	return nil
}

func (s *Session) Dispatch(e Event) {
	if s.current == nil {
		return
	}
	s.ctx.Modifiers = e.modifiers()
	s.dispatching = true
	switch e := e.(type) {
	case PointerEvent:
		s.ctx.Point = e.Point
		if !e.Time.IsZero() {
			s.ctx.Time = e.Time
		}
		s.current.Pointer(s.ctx, e)
	case KeyEvent:
		s.current.Key(s.ctx, e)
	case ModifierEvent:
		s.current.Modifiers(s.ctx, e.Modifiers)
	}
	s.dispatching = false

	if s.pending != nil {
		m := s.pending
		s.pending = nil
		s.SetMode(m)
	}
}

func (s *Session) Feedback() Feedback {
	if s.current == nil {
		return Feedback{}
	}
	return s.current.Feedback(s.ctx)
}

func (s *Session) Overlay() Overlay {
	if s.current == nil {
		return Overlay{}
	}
	return s.current.Overlay(s.ctx)
}

// Undo the last command. The active mode is re-entered so it drops state that
// referred to undone primitives.
func (s *Session) Undo() error {
	if err := s.UndoRedo.Undo(); err != nil {
		return err
	}
	s.reenter()
	return nil
}

func (s *Session) Redo() error {
	if err := s.UndoRedo.Redo(); err != nil {
		return err
	}
	s.reenter()
	return nil
}

func (s *Session) reenter() {
	if s.current != nil && !s.dispatching {
		s.current.Exit(s.ctx)
		s.current.Enter(s.ctx)
	}
}

// Context is the shared state handed to every handler: the session's
// collaborators plus the latest pointer position and modifiers.
type Context struct {
	session   *Session
	Modifiers Modifiers
	Point     geom.Point
	Time      time.Time
}

func (c *Context) DataSet() *osm.DataSet {
	return c.session.DataSet
}

func (c *Context) View() *view.MapView {
	return c.session.View
}

func (c *Context) UndoRedo() *command.UndoRedo {
	return c.session.UndoRedo
}

func (c *Context) Prefs() *prefs.Preferences {
	return c.session.Prefs
}

func (c *Context) Prompter() Prompter {
	return c.session.Prompter
}

func (c *Context) SwitchMode(m Mode) {
	c.session.SetMode(m)
}

// Projected position of a screen point.
func (c *Context) EastNorth(p geom.Point) geom.EastNorth {
	return c.session.View.EastNorth(p)
}

// Submit one gesture's command. Failures are logged and reported as false;
// the undo stack is left as it was.
func (c *Context) Submit(cmd command.Command) bool {
	if cmd == nil {
		return false
	}
	if err := c.session.UndoRedo.Add(cmd); err != nil {
		dbg.Warnf("%s failed: %v", cmd.Description(), err)
		return false
	}
	return true
}

// Begin an amendable gesture, or nil if the command could not run.
func (c *Context) Begin(cmd command.Command) *command.Gesture {
	g, err := c.session.UndoRedo.Begin(cmd)
	if err != nil {
		dbg.Warnf("%s failed: %v", cmd.Description(), err)
		return nil
	}
	return g
}

var constructors = map[string]func() Mode{
	"select":   func() Mode { return NewSelect() },
	"draw":     func() Mode { return NewDraw() },
	"extrude":  func() Mode { return NewExtrude() },
	"parallel": func() Mode { return NewParallel() },
	"improve":  func() Mode { return NewImprove() },
	"split":    func() Mode { return NewSplit() },
	"addnode":  func() Mode { return NewAddNode() },
	"addway":   func() Mode { return NewAddWay() },
}

var ErrUnknownMode = errors.New("unknown mode")

func New(name string) (Mode, error) {
	f, ok := constructors[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownMode, "%q", name)
	}
	return f(), nil
}

func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Handlers shared by modes that ignore some kinds of input.
type base struct{}

func (base) Enter(*Context)                {}
func (base) Exit(*Context)                 {}
func (base) Key(*Context, KeyEvent)        {}
func (base) Modifiers(*Context, Modifiers) {}
