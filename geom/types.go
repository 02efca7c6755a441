package geom

import (
	"fmt"
	"math"
)

// EastNorth is a point in the planar projected coordinate space. All the
// editing math happens in this space; geographic coordinates only appear at
// the edges (world bounds checks, real distances).
type EastNorth struct {
	East  float64
	North float64
}

// Point is a position on the screen, in pixels. Y grows downwards.
type Point struct {
	X float64
	Y float64
}

func (en EastNorth) Add(o EastNorth) EastNorth {
	return EastNorth{en.East + o.East, en.North + o.North}
}

func (en EastNorth) Sub(o EastNorth) EastNorth {
	return EastNorth{en.East - o.East, en.North - o.North}
}

func (en EastNorth) Scale(f float64) EastNorth {
	return EastNorth{en.East * f, en.North * f}
}

func (en EastNorth) Dot(o EastNorth) float64 {
	return en.East*o.East + en.North*o.North
}

// Z component of the 3D cross product. Positive when o is counterclockwise
// from en.
func (en EastNorth) Cross(o EastNorth) float64 {
	return en.East*o.North - en.North*o.East
}

func (en EastNorth) Length() float64 {
	return math.Hypot(en.East, en.North)
}

func (en EastNorth) LengthSq() float64 {
	return en.East*en.East + en.North*en.North
}

func (en EastNorth) Distance(o EastNorth) float64 {
	return en.Sub(o).Length()
}

func (en EastNorth) DistanceSq(o EastNorth) float64 {
	return en.Sub(o).LengthSq()
}

// Heading towards o in radians, measured clockwise from north, in [0, 2pi).
func (en EastNorth) Heading(o EastNorth) float64 {
	h := math.Atan2(o.East-en.East, o.North-en.North)
	if h < 0 {
		h += 2 * math.Pi
	}
	return h
}

// Rotate clockwise around pivot by angle radians. Clockwise matches the
// direction Heading grows in.
func (en EastNorth) Rotate(pivot EastNorth, angle float64) EastNorth {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	x := en.East - pivot.East
	y := en.North - pivot.North
	return EastNorth{
		East:  cos*x + sin*y + pivot.East,
		North: -sin*x + cos*y + pivot.North,
	}
}

// Interpolate returns en + (o - en) * f.
func (en EastNorth) Interpolate(o EastNorth, f float64) EastNorth {
	return EastNorth{
		East:  en.East + (o.East-en.East)*f,
		North: en.North + (o.North-en.North)*f,
	}
}

func (en EastNorth) Center(o EastNorth) EastNorth {
	return en.Interpolate(o, 0.5)
}

// Unit vector in the same direction. The zero vector stays zero.
func (en EastNorth) Normalize() EastNorth {
	l := en.Length()
	if l == 0 {
		return en
	}
	return en.Scale(1 / l)
}

// Left-hand unit normal of the vector.
func (en EastNorth) Normal() EastNorth {
	return EastNorth{-en.North, en.East}.Normalize()
}

func (en EastNorth) EqualsEpsilon(o EastNorth, epsilon float64) bool {
	return math.Abs(en.East-o.East) < epsilon && math.Abs(en.North-o.North) < epsilon
}

func (en EastNorth) IsValid() bool {
	return !math.IsNaN(en.East) && !math.IsNaN(en.North) &&
		!math.IsInf(en.East, 0) && !math.IsInf(en.North, 0)
}

func (en EastNorth) String() string {
	return fmt.Sprintf("EastNorth[e=%g, n=%g]", en.East, en.North)
}

func (p Point) Add(o Point) Point {
	return Point{p.X + o.X, p.Y + o.Y}
}

func (p Point) Sub(o Point) Point {
	return Point{p.X - o.X, p.Y - o.Y}
}

func (p Point) Distance(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

func (p Point) DistanceSq(o Point) float64 {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return dx*dx + dy*dy
}

// Bounds is an axis aligned box in projected space. The zero value is empty
// and absorbs the first point it is extended with.
type Bounds struct {
	Min, Max EastNorth
	valid    bool
}

func NewBounds(points ...EastNorth) Bounds {
	var b Bounds
	for _, p := range points {
		b = b.Extend(p)
	}
	return b
}

func (b Bounds) Extend(p EastNorth) Bounds {
	if !b.valid {
		return Bounds{Min: p, Max: p, valid: true}
	}
	return Bounds{
		Min:   EastNorth{math.Min(b.Min.East, p.East), math.Min(b.Min.North, p.North)},
		Max:   EastNorth{math.Max(b.Max.East, p.East), math.Max(b.Max.North, p.North)},
		valid: true,
	}
}

// Grow the box by d in every direction.
func (b Bounds) Grow(d float64) Bounds {
	if !b.valid {
		return b
	}
	return Bounds{
		Min:   EastNorth{b.Min.East - d, b.Min.North - d},
		Max:   EastNorth{b.Max.East + d, b.Max.North + d},
		valid: true,
	}
}

func (b Bounds) IsEmpty() bool {
	return !b.valid
}

func (b Bounds) Contains(p EastNorth) bool {
	return b.valid &&
		p.East >= b.Min.East && p.East <= b.Max.East &&
		p.North >= b.Min.North && p.North <= b.Max.North
}

func (b Bounds) Intersects(o Bounds) bool {
	return b.valid && o.valid &&
		b.Min.East <= o.Max.East && o.Min.East <= b.Max.East &&
		b.Min.North <= o.Max.North && o.Min.North <= b.Max.North
}

func (b Bounds) Width() float64 {
	return b.Max.East - b.Min.East
}

func (b Bounds) Height() float64 {
	return b.Max.North - b.Min.North
}
