package osm

import (
	"fmt"
	"math"

	"github.com/golang/geo/s2"
)

// Mean earth radius used for real world distances, in meters.
const EarthRadius = 6378137.0

type LatLon struct {
	Lat float64
	Lon float64
}

func (ll LatLon) IsOutsideWorld() bool {
	return math.IsNaN(ll.Lat) || math.IsNaN(ll.Lon) ||
		ll.Lat < -90 || ll.Lat > 90 || ll.Lon < -180 || ll.Lon > 180
}

func (ll LatLon) s2() s2.LatLng {
	return s2.LatLngFromDegrees(ll.Lat, ll.Lon)
}

// Great circle distance in meters.
func (ll LatLon) GreatCircleDistance(o LatLon) float64 {
	return ll.s2().Distance(o.s2()).Radians() * EarthRadius
}

func (ll LatLon) String() string {
	return fmt.Sprintf("LatLon[lat=%.7f, lon=%.7f]", ll.Lat, ll.Lon)
}
