package snap

import (
	"math"
	"testing"

	"github.com/osuushi/wayedit/geom"
	"github.com/stretchr/testify/assert"
)

// A cursor 100 units from the origin at the given heading.
func at(heading float64) geom.EastNorth {
	rad := geom.ToRadians(heading)
	return geom.EastNorth{East: 100 * math.Sin(rad), North: 100 * math.Cos(rad)}
}

func input(heading float64) Input {
	return Input{
		Current:      at(heading),
		BaseHeading:  0,
		CurHeading:   heading,
		Dist100Pixel: 10,
	}
}

func snapping() *Helper {
	h := New(DefaultConfig())
	h.SetSnapOn(true)
	return h
}

func TestSnapsToNearestAngle(t *testing.T) {
	h := snapping()
	r := h.CheckAngleSnapping(input(44))
	assert.True(t, r.Active)
	assert.Equal(t, "45°", r.Label)
	assert.InDelta(t, 45, r.Heading, 1e-9)
	assert.InDelta(t, 45, r.Angle, 1e-9)
	// Projected onto the ray, so slightly shorter than the cursor distance
	assert.InDelta(t, 100*math.Cos(geom.ToRadians(1)), r.Point.Length(), 1e-9)

	from, to, ok := h.Ray()
	assert.True(t, ok)
	assert.Equal(t, geom.EastNorth{}, from)
	assert.InDelta(t, 45, geom.ToDegrees(from.Heading(to)), 1e-9)
}

func TestNoSnapOutsideTolerance(t *testing.T) {
	h := snapping()
	r := h.CheckAngleSnapping(input(15))
	assert.False(t, r.Active)
	assert.Empty(t, r.Label)
	assert.Equal(t, at(15), r.Point)
	assert.InDelta(t, 15, r.Heading, 1e-9)
	_, _, ok := h.Ray()
	assert.False(t, ok)
}

func TestMirroredAngles(t *testing.T) {
	h := snapping()
	r := h.CheckAngleSnapping(input(317))
	assert.True(t, r.Active)
	assert.Equal(t, "-45°", r.Label)
	assert.InDelta(t, 315, r.Heading, 1e-9)

	r = h.CheckAngleSnapping(input(358))
	assert.True(t, r.Active)
	assert.Equal(t, "0°", r.Label)
}

func TestNoSnapBackOntoPreviousSegment(t *testing.T) {
	h := snapping()
	r := h.CheckAngleSnapping(input(178))
	assert.False(t, r.Active)

	// Against a chosen base segment, 180 is a real direction
	h.SetBaseSegment(geom.EastNorth{}, geom.EastNorth{North: 1})
	r = h.CheckAngleSnapping(input(178))
	assert.True(t, r.Active)
	assert.Equal(t, "180°", r.Label)
}

func TestFixedAngle(t *testing.T) {
	h := snapping()
	h.CheckAngleSnapping(input(44))
	h.Fix()
	assert.True(t, h.Fixed())

	r := h.CheckAngleSnapping(input(70))
	assert.True(t, r.Active)
	assert.Equal(t, "45 FIX", r.Label)
	assert.InDelta(t, 45, r.Heading, 1e-9)

	// The fixed ray does not go backwards
	r = h.CheckAngleSnapping(input(225))
	assert.False(t, r.Active)
	assert.Equal(t, at(225), r.Point)

	h.Unfix()
	assert.False(t, h.Fixed())
	assert.False(t, h.Active())
}

func TestAbsoluteFix(t *testing.T) {
	h := snapping()
	h.CheckAngleSnapping(input(44))
	h.FixToSnapped()
	assert.True(t, h.AbsoluteFix())

	// A new base heading does not turn the ray
	in := input(100)
	in.BaseHeading = 90
	r := h.CheckAngleSnapping(in)
	assert.True(t, r.Active)
	assert.Equal(t, "=", r.Label)
	assert.InDelta(t, 45, r.Heading, 1e-9)

	// And the cursor may go behind the origin
	r = h.CheckAngleSnapping(input(225))
	assert.True(t, r.Active)
	assert.InDelta(t, 225, r.Heading, 1e-9)

	h.UnfixOrTurnOff()
	assert.False(t, h.AbsoluteFix())
	assert.True(t, h.SnapOn())
	h.UnfixOrTurnOff()
	assert.False(t, h.SnapOn())
}

func TestToggleResetsActive(t *testing.T) {
	h := snapping()
	h.CheckAngleSnapping(input(44))
	assert.True(t, h.Active())
	h.Toggle()
	assert.False(t, h.Active())
	assert.False(t, h.SnapOn())

	r := h.CheckAngleSnapping(input(44))
	assert.False(t, r.Active)
	assert.Equal(t, at(44), r.Point)
}

func TestNextMode(t *testing.T) {
	h := New(DefaultConfig())
	h.NextMode()
	assert.True(t, h.SnapOn())

	// Nothing active yet, so the next step turns snapping off again
	h.NextMode()
	assert.False(t, h.SnapOn())

	h.NextMode()
	h.CheckAngleSnapping(input(44))
	h.NextMode()
	assert.True(t, h.Fixed())
	h.NextMode()
	assert.False(t, h.SnapOn())
	assert.False(t, h.Fixed())
}

func TestNoBaseHeading(t *testing.T) {
	h := snapping()
	in := input(44)
	in.BaseHeading = NoHeading
	r := h.CheckAngleSnapping(in)
	assert.False(t, r.Active)
	assert.Equal(t, NoHeading, r.Angle)
	assert.InDelta(t, 44, r.Heading, 1e-9)
}

func TestSnapToProjections(t *testing.T) {
	h := snapping()
	source := geom.EastNorth{East: 50}
	l := 50 * math.Sin(geom.ToRadians(45))

	in := input(45)
	in.Current = at(45).Normalize().Scale(l + 0.3)
	in.ProjectTo = []geom.EastNorth{source, {East: 500, North: 500}}
	r := h.CheckAngleSnapping(in)
	assert.True(t, r.Active)
	assert.InDelta(t, l, r.Point.Length(), 1e-9)
	got, ok := h.ProjectionSource()
	assert.True(t, ok)
	assert.Equal(t, source, got)

	// Too far along the ray from any projection
	in.Current = at(45).Normalize().Scale(l + 2)
	r = h.CheckAngleSnapping(in)
	assert.InDelta(t, l+2, r.Point.Length(), 1e-9)
	_, ok = h.ProjectionSource()
	assert.False(t, ok)
}

func TestAngleDelta(t *testing.T) {
	assert.InDelta(t, 20, angleDelta(350, 10), 1e-9)
	assert.InDelta(t, 20, angleDelta(10, 350), 1e-9)
	assert.InDelta(t, 180, angleDelta(0, 180), 1e-9)
	assert.InDelta(t, 0, angleDelta(360, 0), 1e-9)
}
