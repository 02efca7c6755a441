package command

import (
	"github.com/osuushi/wayedit/dbg"
	"github.com/pkg/errors"
)

const DefaultMaxUndo = 100

// UndoRedo is the undo/redo stack. Commands are executed when they are added,
// and the stack only ever holds commands that are currently applied (undo) or
// reverted (redo).
type UndoRedo struct {
	undo      []Command
	redo      []Command
	max       int
	listeners []*listener
}

type listener struct {
	f func()
}

func NewUndoRedo(max int) *UndoRedo {
	if max <= 0 {
		max = DefaultMaxUndo
	}
	return &UndoRedo{max: max}
}

// Execute cmd and push it. A command that fails to execute is not pushed and
// leaves the redo stack alone.
func (u *UndoRedo) Add(cmd Command) error {
	if err := cmd.Execute(); err != nil {
		return err
	}
	u.log("add", cmd)
	u.undo = append(u.undo, cmd)
	if len(u.undo) > u.max {
		u.undo = u.undo[len(u.undo)-u.max:]
	}
	u.redo = nil
	u.changed()
	return nil
}

func (u *UndoRedo) Undo() error {
	if len(u.undo) == 0 {
		return ErrNothingToUndo
	}
	cmd := u.undo[len(u.undo)-1]
	if err := cmd.Undo(); err != nil {
		return err
	}
	u.log("undo", cmd)
	u.undo = u.undo[:len(u.undo)-1]
	u.redo = append(u.redo, cmd)
	u.changed()
	return nil
}

func (u *UndoRedo) Redo() error {
	if len(u.redo) == 0 {
		return ErrNothingToRedo
	}
	cmd := u.redo[len(u.redo)-1]
	if err := cmd.Execute(); err != nil {
		return err
	}
	u.log("redo", cmd)
	u.redo = u.redo[:len(u.redo)-1]
	u.undo = append(u.undo, cmd)
	u.changed()
	return nil
}

// Undo the last n commands. Stops at the first failure.
func (u *UndoRedo) UndoN(n int) error {
	for i := 0; i < n; i++ {
		if err := u.Undo(); err != nil {
			return errors.Wrapf(err, "undo step %d of %d", i+1, n)
		}
	}
	return nil
}

func (u *UndoRedo) CanUndo() bool {
	return len(u.undo) > 0
}

func (u *UndoRedo) CanRedo() bool {
	return len(u.redo) > 0
}

// The most recently applied command, or nil.
func (u *UndoRedo) Last() Command {
	if len(u.undo) == 0 {
		return nil
	}
	return u.undo[len(u.undo)-1]
}

func (u *UndoRedo) UndoCommands() []Command {
	return append([]Command(nil), u.undo...)
}

func (u *UndoRedo) RedoCommands() []Command {
	return append([]Command(nil), u.redo...)
}

func (u *UndoRedo) Clear() {
	u.undo = nil
	u.redo = nil
	u.changed()
}

// Register f to run after every change to the stacks, including amended
// gestures. The returned function unregisters it.
func (u *UndoRedo) OnChange(f func()) (cancel func()) {
	l := &listener{f: f}
	u.listeners = append(u.listeners, l)
	return func() {
		for i, other := range u.listeners {
			if other == l {
				u.listeners = append(u.listeners[:i:i], u.listeners[i+1:]...)
				return
			}
		}
	}
}

func (u *UndoRedo) log(op string, cmd Command) {
	if dbg.Enabled {
		dbg.Logf("%s %s %s", op, dbg.Name(cmd), cmd.Description())
	}
}

func (u *UndoRedo) changed() {
	for _, l := range append([]*listener(nil), u.listeners...) {
		l.f()
	}
}

// Gesture is the handle for a command that keeps changing while the user
// drags. The command counts as one undo entry no matter how often it is
// amended.
type Gesture struct {
	u        *UndoRedo
	cmd      Command
	finished bool
}

// Add cmd to the stack and return a handle for amending it.
func (u *UndoRedo) Begin(cmd Command) (*Gesture, error) {
	if err := u.Add(cmd); err != nil {
		return nil, err
	}
	return &Gesture{u: u, cmd: cmd}, nil
}

func (g *Gesture) Command() Command {
	return g.cmd
}

// Whether the gesture can still be amended.
func (g *Gesture) Active() bool {
	return !g.finished && g.u.Last() == g.cmd
}

// Run f, which is expected to modify the gesture's command in place.
func (g *Gesture) Amend(f func() error) error {
	if !g.Active() {
		return ErrStaleGesture
	}
	if err := f(); err != nil {
		return err
	}
	g.u.changed()
	return nil
}

// Undo the gesture's command and forget it, so it does not show up as a redo
// step either.
func (g *Gesture) Cancel() error {
	if !g.Active() {
		return ErrStaleGesture
	}
	if err := g.u.Undo(); err != nil {
		return err
	}
	g.u.redo = g.u.redo[:len(g.u.redo)-1]
	g.finished = true
	return nil
}

func (g *Gesture) Finish() {
	g.finished = true
}
