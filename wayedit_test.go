package wayedit

import (
	"strings"
	"testing"
	"time"

	"github.com/osuushi/wayedit/geom"
	"github.com/osuushi/wayedit/mode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Smoke test. The modes are tested in their own package.
func TestDrawInMercator(t *testing.T) {
	s, err := NewSession(200, 200, nil)
	require.NoError(t, err)
	require.NoError(t, s.SetModeByName("draw"))

	now := time.Now()
	for i, p := range []struct{ x, y float64 }{{50, 100}, {150, 100}} {
		pt := geom.Point{X: p.x, Y: p.y}
		at := now.Add(time.Duration(i) * time.Second)
		s.Dispatch(mode.PointerEvent{Action: mode.Press, Point: pt, Button: mode.LeftButton, ClickCount: 1, Time: at})
		s.Dispatch(mode.PointerEvent{Action: mode.Release, Point: pt, Button: mode.LeftButton, ClickCount: 1, Time: at})
	}
	require.Len(t, s.DataSet.Ways(), 1)
	assert.Equal(t, 2, s.DataSet.Ways()[0].NodesCount())
}

func TestNewSessionFromSVG(t *testing.T) {
	svg := `<svg xmlns="http://www.w3.org/2000/svg">
  <polygon points="0,0 10,0 10,10 0,10" />
</svg>`
	s, err := NewSessionFromSVG(strings.NewReader(svg), 400, 400, nil)
	require.NoError(t, err)
	require.Len(t, s.DataSet.Ways(), 1)
	assert.True(t, s.DataSet.Ways()[0].IsClosed())

	for _, n := range s.DataSet.Nodes() {
		p := s.View.NodePoint(n)
		assert.True(t, p.X >= 0 && p.X <= 400 && p.Y >= 0 && p.Y <= 400, "%v is off screen", p)
	}

	_, err = NewSessionFromSVG(strings.NewReader("<svg><polygon points=\"0,0 x\"/></svg>"), 400, 400, nil)
	assert.Error(t, err)
}
