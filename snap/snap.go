// Package snap implements angle snapping for drawing: while a way is being
// drawn, the cursor is pulled onto rays at fixed angles from the previous
// segment.
package snap

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"github.com/osuushi/wayedit/geom"
)

var DefaultAngles = []float64{0, 30, 45, 60, 90, 120, 135, 150, 180}

const DefaultTolerance = 5.0

// Headings passed to the helper are in degrees clockwise from north. A
// negative base heading means there is no previous segment.
const NoHeading = -1.0

type Config struct {
	// Snap angles in degrees relative to the base heading. They are mirrored,
	// so 30 also snaps at 330.
	Angles []float64
	// Maximum distance in degrees between the cursor heading and a snap angle
	Tolerance float64
	// Whether to snap along the ray to projections of other points
	SnapToProjections bool
}

func DefaultConfig() Config {
	return Config{
		Angles:            DefaultAngles,
		Tolerance:         DefaultTolerance,
		SnapToProjections: true,
	}
}

// Input for one snapping decision.
type Input struct {
	// Position of the node the new segment starts from
	Base geom.EastNorth
	// Raw cursor position
	Current geom.EastNorth
	// Heading of the previous segment, or NoHeading
	BaseHeading float64
	// Heading from Base to Current
	CurHeading float64
	// Length in east/north units of 100 screen pixels
	Dist100Pixel float64
	// Points whose projections onto the ray attract the cursor
	ProjectTo []geom.EastNorth
}

type Result struct {
	Point  geom.EastNorth
	Active bool
	Label  string
	// Angle of the resulting segment relative to the base heading in degrees,
	// or NoHeading without a base
	Angle float64
	// Absolute heading of the resulting segment in degrees
	Heading float64
}

// Helper holds the snapping state for a drawing session.
type Helper struct {
	angles        []float64
	tolerance     float64
	toProjections bool

	snapOn      bool
	active      bool
	fixed       bool
	absoluteFix bool
	lastAngle   float64
	lastBase    float64

	customBase     float64
	segmentPoint1  geom.EastNorth
	segmentPoint2  geom.EastNorth
	absoluteOffset float64

	// The current ray: origin, unit direction, and a far point for drawing
	origin    geom.EastNorth
	direction geom.EastNorth
	rayEnd    geom.EastNorth
	hasRay    bool

	projectionSource geom.EastNorth
	hasSource        bool
	label            string
}

func New(cfg Config) *Helper {
	h := &Helper{
		tolerance:     cfg.Tolerance,
		toProjections: cfg.SnapToProjections,
		customBase:    NoHeading,
	}
	if h.tolerance <= 0 {
		h.tolerance = DefaultTolerance
	}
	angles := cfg.Angles
	if len(angles) == 0 {
		angles = DefaultAngles
	}
	for _, a := range angles {
		h.angles = append(h.angles, a, 360-a)
	}
	return h
}

func (h *Helper) SnapOn() bool {
	return h.snapOn
}

func (h *Helper) Active() bool {
	return h.active
}

func (h *Helper) Fixed() bool {
	return h.fixed
}

func (h *Helper) AbsoluteFix() bool {
	return h.absoluteFix
}

func (h *Helper) Label() string {
	return h.label
}

// The ray currently snapped to, for drawing. ok is false when no snap applies.
func (h *Helper) Ray() (from, to geom.EastNorth, ok bool) {
	return h.origin, h.rayEnd, h.hasRay
}

// The point whose projection the cursor snapped to, if any.
func (h *Helper) ProjectionSource() (geom.EastNorth, bool) {
	return h.projectionSource, h.hasSource
}

func (h *Helper) SetSnapOn(on bool) {
	h.snapOn = on
	h.customBase = NoHeading
	h.Unfix()
}

func (h *Helper) Toggle() {
	h.SetSnapOn(!h.snapOn)
}

// Snap relative to a chosen segment instead of the previously drawn one. With
// a custom base, 180 degrees is a valid snap angle.
func (h *Helper) SetBaseSegment(a, b geom.EastNorth) {
	h.segmentPoint1 = a
	h.segmentPoint2 = b
	h.customBase = geom.NormalizeDegrees(geom.ToDegrees(a.Heading(b)))
}

func (h *Helper) ClearBaseSegment() {
	h.customBase = NoHeading
}

// Lock the current snap angle. Only possible while a snap is active.
func (h *Helper) Fix() {
	if h.active {
		h.fixed = true
	}
}

// Lock the current ray in absolute terms: it keeps its heading even when the
// base segment changes, and the cursor may move behind the origin.
func (h *Helper) FixToSnapped() {
	if !h.active {
		return
	}
	h.fixed = true
	h.absoluteFix = true
	h.absoluteOffset = h.activeBase(h.lastBase) + h.lastAngle
}

func (h *Helper) Unfix() {
	h.fixed = false
	h.absoluteFix = false
	h.lastAngle = 0
	h.active = false
}

// Cycle through the snapping states: off, on, fixed, off.
func (h *Helper) NextMode() {
	if h.snapOn {
		if h.fixed || !h.active {
			h.snapOn = false
			h.Unfix()
		} else {
			h.Fix()
		}
	} else {
		h.snapOn = true
		h.Unfix()
	}
	h.customBase = NoHeading
}

// Release an absolute fix, or switch snapping off.
func (h *Helper) UnfixOrTurnOff() {
	if h.absoluteFix {
		h.Unfix()
	} else {
		h.Toggle()
	}
}

func (h *Helper) NoSnapNow() {
	h.active = false
	h.hasRay = false
	h.hasSource = false
	h.label = ""
}

func (h *Helper) activeBase(baseHeading float64) float64 {
	if h.customBase >= 0 {
		return h.customBase
	}
	return baseHeading
}

func (h *Helper) CheckAngleSnapping(in Input) Result {
	h.lastBase = in.BaseHeading
	point := in.Current
	base := h.activeBase(in.BaseHeading)

	if h.snapOn && base >= 0 {
		angle := geom.NormalizeDegrees(in.CurHeading - base)

		var nearest float64
		if h.fixed {
			nearest = h.lastAngle
			h.active = true
		} else {
			nearest = h.nearestAngle(angle)
			if angleDelta(nearest, angle) < h.tolerance {
				// Snapping straight back onto the previous segment is useless
				h.active = h.customBase >= 0 || math.Abs(nearest-180) > 1e-3
				h.lastAngle = nearest
			} else {
				h.active = false
			}
		}

		if h.active {
			if nearest <= 180 {
				h.label = h.buildLabel(nearest)
			} else {
				h.label = h.buildLabel(nearest - 360)
			}
			heading := nearest + base
			if h.absoluteFix {
				heading = h.absoluteOffset
			}
			phi := (s1.Angle(heading) * s1.Degree).Radians()
			h.origin = in.Base
			h.direction = geom.EastNorth{East: math.Sin(phi), North: math.Cos(phi)}
			h.rayEnd = h.origin.Add(h.direction.Scale(20 * in.Dist100Pixel))
			h.hasRay = true
			point = h.snapPoint(in)
		} else {
			h.NoSnapNow()
		}
	}

	result := Result{
		Point:   point,
		Active:  h.active,
		Label:   h.label,
		Angle:   NoHeading,
		Heading: geom.NormalizeDegrees(geom.ToDegrees(in.Base.Heading(point))),
	}
	if in.BaseHeading >= 0 {
		result.Angle = geom.NormalizeDegrees(result.Heading - in.BaseHeading)
	}
	return result
}

// Project p onto the ray. Points behind the origin give up the snap unless the
// ray is absolutely fixed.
func (h *Helper) snapPoint(in Input) geom.EastNorth {
	p := in.Current
	l := p.Sub(h.origin).Dot(h.direction)
	delta := in.Dist100Pixel / 20
	if !h.absoluteFix && l < delta {
		h.NoSnapNow()
		return p
	}

	h.hasSource = false
	if h.toProjections {
		candidates := in.ProjectTo
		if h.customBase >= 0 {
			candidates = append(append([]geom.EastNorth(nil), candidates...), h.segmentPoint1, h.segmentPoint2)
		}
		best := math.Inf(1)
		for _, c := range candidates {
			l1 := c.Sub(h.origin).Dot(h.direction)
			d := math.Abs(l1 - l)
			if d < delta && d < best {
				l = l1
				best = d
				h.projectionSource = c
				h.hasSource = true
			}
		}
	}
	return h.origin.Add(h.direction.Scale(l))
}

func (h *Helper) buildLabel(angle float64) string {
	if h.fixed {
		if h.absoluteFix {
			return "="
		}
		return fmt.Sprintf("%d FIX", int(math.Round(angle)))
	}
	return fmt.Sprintf("%d°", int(math.Round(angle)))
}

func (h *Helper) nearestAngle(angle float64) float64 {
	best := h.angles[0]
	for _, a := range h.angles[1:] {
		if angleDelta(angle, a) < angleDelta(angle, best) {
			best = a
		}
	}
	if math.Abs(best-360) < 1e-3 {
		best = 0
	}
	return best
}

// Unsigned difference between two headings in degrees, in [0, 180].
func angleDelta(a, b float64) float64 {
	return (s1.Angle(a-b) * s1.Degree).Normalized().Abs().Degrees()
}
