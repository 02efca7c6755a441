// Interactive geometric editing of node/way graphs for Go.
//
// This package turns pointer and keyboard input into undoable edits of a
// graph of nodes and ways: drawing, extruding, offsetting, splitting, moving,
// rotating and scaling. Feed events to a Session and read back the data set,
// the undo stack and the visual feedback of the active mode.
//
// The building blocks live in the subpackages; this package only wires them
// together. See the mode package for the editing tools themselves.
package wayedit

import (
	"io"

	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/mode"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/prefs"
	"github.com/osuushi/wayedit/view"
	"github.com/pkg/errors"
)

type Session = mode.Session
type Preferences = prefs.Preferences
type DataSet = osm.DataSet

// Pixels kept free around the data when a session is zoomed to fit.
const fitMargin = 20

// Create a session over an empty data set in spherical mercator, with a view
// of the given size in pixels showing one meter per pixel around the origin.
// A nil p means the default preferences.
func NewSession(width, height int, p *Preferences) (*Session, error) {
	proj, err := osm.NewMercator()
	if err != nil {
		return nil, err
	}
	ds := osm.NewDataSet(proj)
	v := view.New(geom.EastNorth{}, 1, width, height)
	return mode.NewSession(ds, v, p), nil
}

// Create a session from an SVG sketch (see osm.LoadSVG). Coordinates are
// taken as they are, and the view is zoomed to show all of them.
func NewSessionFromSVG(r io.Reader, width, height int, p *Preferences) (*Session, error) {
	ds := osm.NewDataSet(osm.Identity{})
	if err := osm.LoadSVG(r, ds); err != nil {
		return nil, errors.Wrap(err, "loading sketch")
	}
	v := view.New(geom.EastNorth{}, 1, width, height)
	FitView(v, ds)
	return mode.NewSession(ds, v, p), nil
}

// Zoom v to show every node of ds. An empty data set leaves v alone.
func FitView(v *view.MapView, ds *DataSet) {
	var b geom.Bounds
	for _, n := range ds.Nodes() {
		b = b.Extend(n.EastNorth())
	}
	v.ZoomToBounds(b, fitMargin)
}
