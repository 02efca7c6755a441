package osm

import (
	"math"

	"github.com/ctessum/geom/proj"
	"github.com/osuushi/wayedit/geom"
	"github.com/pkg/errors"
)

// Projection maps between geographic and projected coordinates, and knows
// which projected coordinates fall outside the world.
type Projection interface {
	EastNorth(LatLon) geom.EastNorth
	LatLon(geom.EastNorth) LatLon
	OutsideWorld(geom.EastNorth) bool
}

// Identity treats east as longitude and north as latitude, both in degrees.
// Tests use it so that coordinates can be read off directly.
type Identity struct{}

func (Identity) EastNorth(ll LatLon) geom.EastNorth {
	return geom.EastNorth{East: ll.Lon, North: ll.Lat}
}

func (Identity) LatLon(en geom.EastNorth) LatLon {
	return LatLon{Lat: en.North, Lon: en.East}
}

func (p Identity) OutsideWorld(en geom.EastNorth) bool {
	return p.LatLon(en).IsOutsideWorld()
}

const (
	wgs84Proj4    = "+proj=longlat +datum=WGS84 +no_defs"
	mercatorProj4 = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0 +lon_0=0 +x_0=0 +y_0=0 +k=1 +units=m +no_defs"

	// Spherical mercator stops here, so that the world is square.
	MercatorMaxLat = 85.05112877980659
	// Half the side of that square, in meters
	MercatorHalfWorld = math.Pi * EarthRadius
)

// Mercator is the spherical (web) mercator projection, in meters.
type Mercator struct {
	forward proj.Transformer
	inverse proj.Transformer
}

func NewMercator() (*Mercator, error) {
	wgs84, err := proj.Parse(wgs84Proj4)
	if err != nil {
		return nil, errors.Wrap(err, "parsing WGS84 definition")
	}
	merc, err := proj.Parse(mercatorProj4)
	if err != nil {
		return nil, errors.Wrap(err, "parsing mercator definition")
	}
	forward, err := wgs84.NewTransform(merc)
	if err != nil {
		return nil, errors.Wrap(err, "building forward transform")
	}
	inverse, err := merc.NewTransform(wgs84)
	if err != nil {
		return nil, errors.Wrap(err, "building inverse transform")
	}
	return &Mercator{forward: forward, inverse: inverse}, nil
}

// Projection failures come back as NaN coordinates, which OutsideWorld
// rejects.
func (m *Mercator) EastNorth(ll LatLon) geom.EastNorth {
	lat := math.Max(-MercatorMaxLat, math.Min(MercatorMaxLat, ll.Lat))
	x, y, err := m.forward(ll.Lon, lat)
	if err != nil {
		return geom.EastNorth{East: math.NaN(), North: math.NaN()}
	}
	return geom.EastNorth{East: x, North: y}
}

func (m *Mercator) LatLon(en geom.EastNorth) LatLon {
	lon, lat, err := m.inverse(en.East, en.North)
	if err != nil {
		return LatLon{Lat: math.NaN(), Lon: math.NaN()}
	}
	return LatLon{Lat: lat, Lon: lon}
}

// The inverse wraps longitude, so eastings past the antimeridian would come
// back as valid positions. Check the projected square first.
func (m *Mercator) OutsideWorld(en geom.EastNorth) bool {
	if !en.IsValid() {
		return true
	}
	if math.Abs(en.East) > MercatorHalfWorld || math.Abs(en.North) > MercatorHalfWorld {
		return true
	}
	ll := m.LatLon(en)
	return ll.IsOutsideWorld() || math.Abs(ll.Lat) > MercatorMaxLat
}
