package geom

// Polygon is a closed ring of points. The last point connects back to the first
// one, so closed ways pass their nodes without the repeated closing node.
type Polygon struct {
	Points []EastNorth
}

// Even-odd point-in-polygon. Lasso selection checks every candidate node
// against the same polygon, so this stays allocation free.
func (poly Polygon) ContainsPointByEvenOdd(p EastNorth) bool {
	return poly.CrossingCount(p)%2 == 1
}

// Crossing count helper for even odd rule. Counts the edges that cross the
// horizontal ray going right from p.
func (poly Polygon) CrossingCount(p EastNorth) int {
	crossingCount := 0
	n := len(poly.Points)
	for i, vertex := range poly.Points {
		nextVertex := poly.Points[CircularIndex(i+1, n)]

		if below(vertex, p) == below(nextVertex, p) || Equal(vertex.North, nextVertex.North) {
			continue
		}
		// X coordinate of the edge at the height of p
		t := (p.North - vertex.North) / (nextVertex.North - vertex.North)
		x := vertex.East + t*(nextVertex.East-vertex.East)
		if x > p.East {
			crossingCount++
		}
	}
	return crossingCount
}

// Shoelace formula. Positive for counterclockwise polygons.
func (poly Polygon) SignedArea() float64 {
	var area float64
	n := len(poly.Points)
	for i, p := range poly.Points {
		next := poly.Points[CircularIndex(i+1, n)]
		area += p.East*next.North - next.East*p.North
	}
	return area / 2
}

func (poly Polygon) IsCW() bool {
	return poly.SignedArea() < 0
}

func (poly Polygon) Reverse() Polygon {
	newPoly := Polygon{}
	for i := len(poly.Points) - 1; i >= 0; i-- {
		newPoly.Points = append(newPoly.Points, poly.Points[i])
	}
	return newPoly
}

func (poly Polygon) Bounds() Bounds {
	return NewBounds(poly.Points...)
}

// A common convention in our geometry is that if two points have the same
// north value, the one with the smaller east value is "lower". This simulates
// a slightly rotated coordinate system, so no edge is ever exactly horizontal.
func below(p, other EastNorth) bool {
	if Equal(p.North, other.North) {
		return p.East < other.East
	}
	return p.North < other.North
}
