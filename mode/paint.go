package mode

import (
	"io"

	"github.com/fogleman/gg"
	"github.com/osuushi/wayedit/dbg"
	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/osm"
	"github.com/osuushi/wayedit/view"
	"github.com/pkg/errors"
)

// Sizes in pixels.
const (
	nodeSize     = 4
	markerRadius = 5
	wayWidth     = 2
	overlayWidth = 1.5
)

func setLineStyle(c *gg.Context, style LineStyle) {
	c.SetDash()
	c.SetLineWidth(overlayWidth)
	switch style {
	case RubberBand:
		c.SetRGB(1, 1, 0)
	case SnapLine:
		c.SetRGB(1, 0.6, 0)
		c.SetDash(6, 4)
	case ReferenceLine:
		c.SetRGBA(0.4, 0.8, 1, 0.8)
		c.SetDash(2, 4)
	case PreviewLine:
		c.SetRGB(1, 1, 0)
		c.SetDash(8, 4)
	case SelectionLine:
		c.SetRGB(1, 1, 1)
		c.SetDash(4, 4)
	}
}

func line(c *gg.Context, v *view.MapView, a, b geom.EastNorth) {
	pa, pb := v.Point(a), v.Point(b)
	c.DrawLine(pa.X, pa.Y, pb.X, pb.Y)
}

// Paint draws the overlay in screen space.
func (o Overlay) Paint(c *gg.Context, v *view.MapView) {
	for _, l := range o.Lines {
		setLineStyle(c, l.Style)
		line(c, v, l.From, l.To)
		c.Stroke()
	}
	c.SetDash()
	for _, m := range o.Markers {
		p := v.Point(m.At)
		c.DrawCircle(p.X, p.Y, markerRadius)
		if m.Style == SnapMarker {
			c.SetRGB(1, 0.6, 0)
			c.Fill()
		} else {
			c.SetRGB(1, 1, 0)
			c.SetLineWidth(overlayWidth)
			c.Stroke()
		}
	}
	c.SetRGB(1, 1, 1)
	for _, l := range o.Labels {
		p := v.Point(l.At)
		c.DrawStringAnchored(l.Text, p.X+markerRadius*2, p.Y, 0, 0.5)
	}
}

// Paint draws the data set, the current mode's highlights and its overlay.
// Selected primitives are red, highlighted ones white.
func (s *Session) Paint(c *gg.Context) {
	ds, v := s.DataSet, s.View
	f := s.Feedback()
	highlighted := make(map[osm.Primitive]bool, len(f.Highlight))
	for _, p := range f.Highlight {
		highlighted[p] = true
	}

	c.SetDash()
	c.SetLineWidth(wayWidth)
	for _, w := range ds.Ways() {
		if w.IsHidden() || w.NodesCount() < 2 {
			continue
		}
		switch {
		case highlighted[w]:
			c.SetRGB(1, 1, 1)
		case ds.IsSelected(w):
			c.SetRGB(1, 0, 0)
		default:
			c.SetRGB(0.6, 0.6, 0.6)
		}
		first := v.NodePoint(w.FirstNode())
		c.MoveTo(first.X, first.Y)
		for _, n := range w.Nodes()[1:] {
			p := v.NodePoint(n)
			c.LineTo(p.X, p.Y)
		}
		c.Stroke()
	}

	c.SetLineWidth(wayWidth * 2)
	c.SetRGB(1, 1, 1)
	for _, seg := range f.HighlightSegments {
		if seg.IsValid() {
			line(c, v, seg.FirstEastNorth(), seg.SecondEastNorth())
			c.Stroke()
		}
	}

	for _, n := range ds.Nodes() {
		switch {
		case highlighted[n]:
			c.SetRGB(1, 1, 1)
		case ds.IsSelected(n):
			c.SetRGB(1, 0, 0)
		default:
			c.SetRGB(1, 1, 0)
		}
		p := v.NodePoint(n)
		c.DrawRectangle(p.X-nodeSize/2, p.Y-nodeSize/2, nodeSize, nodeSize)
		c.Fill()
	}

	s.Overlay().Paint(c, v)

	if f.Status != "" {
		c.SetRGB(1, 1, 1)
		c.DrawString(f.Status, 4, float64(v.Height)-4)
	}
}

// Render paints the session on a new black image the size of the view.
func (s *Session) Render() *gg.Context {
	c := gg.NewContext(s.View.Width, s.View.Height)
	c.SetRGB(0, 0, 0)
	c.DrawRectangle(0, 0, float64(s.View.Width), float64(s.View.Height))
	c.Fill()
	s.Paint(c)
	return c
}

func (s *Session) SavePNG(path string) error {
	return errors.Wrap(s.Render().SavePNG(path), "saving session image")
}

func (s *Session) EncodePNG(w io.Writer) error {
	return errors.Wrap(s.Render().EncodePNG(w), "encoding session image")
}

// Show the session in the terminal, for debugging.
func (s *Session) DbgDraw() error {
	return dbg.Draw(s.View.Width, s.View.Height, s.Paint)
}
