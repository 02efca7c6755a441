// Command wayedit replays editing scripts against a sketch and renders the
// result, or edits one interactively in the terminal.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/osuushi/wayedit"
	"github.com/osuushi/wayedit/dbg"
	"github.com/osuushi/wayedit/prefs"
	"github.com/pkg/errors"
	"gopkg.in/alecthomas/kingpin.v2"
)

var (
	app       = kingpin.New("wayedit", "Geometric editing of node/way sketches.")
	debug     = app.Flag("debug", "Log mode decisions to stderr.").Bool()
	prefsFile = app.Flag("prefs", "YAML preferences overlaid on the defaults.").ExistingFile()
	svgFile   = app.Flag("svg", "SVG sketch to start from.").ExistingFile()
	width     = app.Flag("width", "View width in pixels.").Default("800").Int()
	height    = app.Flag("height", "View height in pixels.").Default("600").Int()

	replayCmd    = app.Command("replay", "Run a script of input events and save the result.")
	replayScript = replayCmd.Arg("script", "Script file; stdin when omitted.").File()
	replayPNG    = replayCmd.Flag("png", "Write an image of the result, overlay included.").String()
	replayJSON   = replayCmd.Flag("geojson", "Write the resulting data set as GeoJSON.").String()
	replayShow   = replayCmd.Flag("show", "Draw the result in the terminal.").Bool()

	tuiCmd = app.Command("tui", "Edit interactively in the terminal.")
)

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))
	if *debug {
		dbg.SetOutput(os.Stderr)
	}

	var err error
	switch cmd {
	case replayCmd.FullCommand():
		err = replay()
	case tuiCmd.FullCommand():
		err = runTUI()
	}
	app.FatalIfError(err, "%s", cmd)
}

func newSession(w, h int) (*wayedit.Session, error) {
	var p *prefs.Preferences
	if *prefsFile != "" {
		var err error
		if p, err = prefs.LoadFile(*prefsFile); err != nil {
			return nil, err
		}
	}
	if *svgFile == "" {
		return wayedit.NewSession(w, h, p)
	}
	f, err := os.Open(*svgFile)
	if err != nil {
		return nil, errors.Wrap(err, "opening sketch")
	}
	defer f.Close()
	return wayedit.NewSessionFromSVG(f, w, h, p)
}

func replay() error {
	var r io.Reader = os.Stdin
	if *replayScript != nil {
		defer (*replayScript).Close()
		r = *replayScript
	}
	steps, err := parseScript(r)
	if err != nil {
		return err
	}
	s, err := newSession(*width, *height)
	if err != nil {
		return err
	}
	if err := newPlayer(s).play(steps); err != nil {
		return err
	}

	for _, c := range s.UndoRedo.UndoCommands() {
		fmt.Println(c.Description())
	}
	fmt.Printf("mode %s: %d nodes, %d ways\n", s.Mode().Name(), len(s.DataSet.Nodes()), len(s.DataSet.Ways()))

	if *replayPNG != "" {
		if err := s.SavePNG(*replayPNG); err != nil {
			return err
		}
	}
	if *replayJSON != "" {
		data, err := s.DataSet.MarshalGeoJSON()
		if err != nil {
			return err
		}
		if err := os.WriteFile(*replayJSON, data, 0o644); err != nil {
			return errors.Wrap(err, "writing geojson")
		}
	}
	if *replayShow {
		return s.DbgDraw()
	}
	return nil
}
