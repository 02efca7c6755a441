package mode

import (
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
)

type Cursor int

const (
	CursorNormal Cursor = iota
	CursorNode
	CursorWay
	// Drawing a new node that joins an existing node or segment
	CursorJoinNode
	CursorJoinWay
	CursorMove
	CursorRotate
	CursorScale
	CursorSelect
	CursorTranslate
	CursorCreateNew
	CursorExtrude
	CursorParallel
	CursorSplit
	CursorCrosshair
)

var cursorNames = map[Cursor]string{
	CursorNormal:    "normal",
	CursorNode:      "node",
	CursorWay:       "way",
	CursorJoinNode:  "joinnode",
	CursorJoinWay:   "joinway",
	CursorMove:      "move",
	CursorRotate:    "rotate",
	CursorScale:     "scale",
	CursorSelect:    "select",
	CursorTranslate: "translate",
	CursorCreateNew: "create_new",
	CursorExtrude:   "extrude",
	CursorParallel:  "parallel",
	CursorSplit:     "split",
	CursorCrosshair: "crosshair",
}

func (c Cursor) String() string {
	if name, ok := cursorNames[c]; ok {
		return name
	}
	return "?"
}

// Feedback is what a mode wants the host to show besides the overlay. It is
// derived from mode state and never mutates anything.
type Feedback struct {
	Cursor    Cursor
	Highlight []osm.Primitive
	// Segments highlighted on their own, e.g. the segment Extrude will drag
	HighlightSegments []osm.WaySegment
	Status            string
}

type LineStyle int

const (
	// The line from the last drawn node to the cursor
	RubberBand LineStyle = iota
	// Snap rays and projection hints
	SnapLine
	// Reference directions, e.g. the axes Extrude may move along
	ReferenceLine
	// Outlines of ways that would be created on release
	PreviewLine
	// Rectangle and lasso selection
	SelectionLine
)

type Line struct {
	From, To geom.EastNorth
	Style    LineStyle
}

type MarkerStyle int

const (
	// A node that would be created or moved
	CandidateMarker MarkerStyle = iota
	// A point the cursor snapped to
	SnapMarker
)

type Marker struct {
	At    geom.EastNorth
	Style MarkerStyle
}

type Label struct {
	At   geom.EastNorth
	Text string
}

// Overlay lists the transient geometry a mode draws on top of the data.
type Overlay struct {
	Lines   []Line
	Markers []Marker
	Labels  []Label
}

func (o *Overlay) AddLine(from, to geom.EastNorth, style LineStyle) {
	o.Lines = append(o.Lines, Line{from, to, style})
}

// Add a closed or open polyline as consecutive lines.
func (o *Overlay) AddPath(points []geom.EastNorth, closed bool, style LineStyle) {
	for i := 0; i+1 < len(points); i++ {
		o.AddLine(points[i], points[i+1], style)
	}
	if closed && len(points) > 2 {
		o.AddLine(points[len(points)-1], points[0], style)
	}
}

func (o *Overlay) AddMarker(at geom.EastNorth, style MarkerStyle) {
	o.Markers = append(o.Markers, Marker{at, style})
}

func (o *Overlay) AddLabel(at geom.EastNorth, text string) {
	if text != "" {
		o.Labels = append(o.Labels, Label{at, text})
	}
}

func (o Overlay) IsEmpty() bool {
	return len(o.Lines) == 0 && len(o.Markers) == 0 && len(o.Labels) == 0
}
