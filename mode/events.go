package mode

import (
	"strings"
	"time"

	"github.com/osuushi/wayedit/geom"
)

type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
}

func (m Modifiers) None() bool {
	return !m.Shift && !m.Ctrl && !m.Alt
}

func (m Modifiers) String() string {
	var parts []string
	if m.Shift {
		parts = append(parts, "shift")
	}
	if m.Ctrl {
		parts = append(parts, "ctrl")
	}
	if m.Alt {
		parts = append(parts, "alt")
	}
	return strings.Join(parts, "+")
}

type Button int

const (
	NoButton Button = iota
	LeftButton
	MiddleButton
	RightButton
)

type PointerAction int

const (
	Press PointerAction = iota
	Drag
	Release
	// Movement without a pressed button
	Move
)

func (a PointerAction) String() string {
	switch a {
	case Press:
		return "press"
	case Drag:
		return "drag"
	case Release:
		return "release"
	case Move:
		return "move"
	}
	return "?"
}

// Event is one of PointerEvent, KeyEvent or ModifierEvent.
type Event interface {
	modifiers() Modifiers
}

type PointerEvent struct {
	Action    PointerAction
	Point     geom.Point
	Button    Button
	Modifiers Modifiers
	// 1 for a single click, 2 for a double click. Only set on Press.
	ClickCount int
	Time       time.Time
}

func (e PointerEvent) modifiers() Modifiers {
	return e.Modifiers
}

type Key string

const (
	KeyEscape    Key = "escape"
	KeyEnter     Key = "enter"
	KeyBackspace Key = "backspace"
	KeyDelete    Key = "delete"
	KeyTab       Key = "tab"
)

type KeyEvent struct {
	Key       Key
	Modifiers Modifiers
}

func (e KeyEvent) modifiers() Modifiers {
	return e.Modifiers
}

// A modifier key went up or down without the pointer moving.
type ModifierEvent struct {
	Modifiers Modifiers
}

func (e ModifierEvent) modifiers() Modifiers {
	return e.Modifiers
}
