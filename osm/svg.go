package osm

import (
	"io"
	"strconv"
	"strings"

	"github.com/JoshVarga/svgparser"
	"github.com/osuushi/wayedit/geom"
	"github.com/pkg/errors"
)

// This loads a data set from an SVG sketch. It is not a full (or even correct)
// svg reader. It only looks at three elements:
//
//   - <polyline points="..."> becomes an open way
//   - <polygon points="..."> becomes a closed way
//   - <circle cx=".." cy=".."> becomes a standalone node
//
// Points with identical coordinates become one shared node, which is how a
// sketch expresses connected ways. SVG's y axis points down, so north is -y.
// An element with class="hidden" produces a hidden way.
//
// Loaded primitives get positive IDs in document order, like data that came
// from a file, so they are not "new".

func LoadSVG(r io.Reader, ds *DataSet) error {
	root, err := svgparser.Parse(r, true)
	if err != nil {
		return errors.Wrap(err, "parsing svg")
	}

	loader := svgLoader{
		ds:     ds,
		byKey:  make(map[geom.EastNorth]*Node),
		nodeID: maxID(ds, NodeType),
		wayID:  maxID(ds, WayType),
	}
	for _, n := range ds.Nodes() {
		loader.byKey[n.en] = n
	}

	for _, el := range root.FindAll("polyline") {
		if err := loader.addWay(el, false); err != nil {
			return err
		}
	}
	for _, el := range root.FindAll("polygon") {
		if err := loader.addWay(el, true); err != nil {
			return err
		}
	}
	for _, el := range root.FindAll("circle") {
		x, err := parseCoordinate(el.Attributes["cx"])
		if err != nil {
			return err
		}
		y, err := parseCoordinate(el.Attributes["cy"])
		if err != nil {
			return err
		}
		if _, err := loader.node(geom.EastNorth{East: x, North: -y}); err != nil {
			return err
		}
	}
	return nil
}

type svgLoader struct {
	ds     *DataSet
	byKey  map[geom.EastNorth]*Node
	nodeID int64
	wayID  int64
}

func (l *svgLoader) node(en geom.EastNorth) (*Node, error) {
	if n, ok := l.byKey[en]; ok {
		return n, nil
	}
	l.nodeID++
	n := NewNodeWithID(l.nodeID, en)
	if err := l.ds.AddPrimitive(n); err != nil {
		return nil, err
	}
	l.byKey[en] = n
	return n, nil
}

func (l *svgLoader) addWay(el *svgparser.Element, closed bool) error {
	points, err := parsePoints(el.Attributes["points"])
	if err != nil {
		return err
	}
	if len(points) < 2 {
		return errors.Errorf("%s with fewer than two points", el.Name)
	}
	var nodes []*Node
	for _, p := range points {
		n, err := l.node(p)
		if err != nil {
			return err
		}
		nodes = append(nodes, n)
	}
	if closed && nodes[0] != nodes[len(nodes)-1] {
		nodes = append(nodes, nodes[0])
	}
	l.wayID++
	w := NewWayWithID(l.wayID, RemoveConsecutiveDuplicates(nodes)...)
	w.hidden = strings.Contains(el.Attributes["class"], "hidden")
	return l.ds.AddPrimitive(w)
}

// Accepts both "x,y x,y" and "x y x y".
func parsePoints(s string) ([]geom.EastNorth, error) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields)%2 != 0 {
		return nil, errors.Errorf("odd number of coordinates in %q", s)
	}
	points := make([]geom.EastNorth, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		x, err := parseCoordinate(fields[i])
		if err != nil {
			return nil, err
		}
		y, err := parseCoordinate(fields[i+1])
		if err != nil {
			return nil, err
		}
		points = append(points, geom.EastNorth{East: x, North: -y})
	}
	return points, nil
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid coordinate %q", s)
	}
	return v, nil
}

func maxID(ds *DataSet, t PrimitiveType) int64 {
	var max int64
	if t == NodeType {
		for id := range ds.nodes {
			if id > max {
				max = id
			}
		}
	} else {
		for id := range ds.ways {
			if id > max {
				max = id
			}
		}
	}
	return max
}
