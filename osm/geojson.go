package osm

import (
	geojson "github.com/paulmach/go.geojson"
	"github.com/pkg/errors"
)

// GeoJSON export of the data set. Closed ways become polygons, open ways line
// strings, and nodes that no way refers to become points. Coordinates are
// [lon, lat] through the data set's projection.
func (ds *DataSet) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, w := range ds.Ways() {
		coords := make([][]float64, w.NodesCount())
		for i, n := range w.nodes {
			coords[i] = ds.lonLat(n)
		}
		var f *geojson.Feature
		if w.IsClosed() {
			f = geojson.NewPolygonFeature([][][]float64{coords})
		} else {
			f = geojson.NewLineStringFeature(coords)
		}
		ds.setFeatureProperties(f, w)
		fc.AddFeature(f)
	}
	for _, n := range ds.Nodes() {
		if len(ds.referrers[n.id]) > 0 {
			continue
		}
		f := geojson.NewPointFeature(ds.lonLat(n))
		ds.setFeatureProperties(f, n)
		fc.AddFeature(f)
	}
	return fc
}

func (ds *DataSet) MarshalGeoJSON() ([]byte, error) {
	data, err := ds.GeoJSON().MarshalJSON()
	if err != nil {
		return nil, errors.Wrap(err, "encoding data set as GeoJSON")
	}
	return data, nil
}

func (ds *DataSet) lonLat(n *Node) []float64 {
	ll := ds.proj.LatLon(n.en)
	return []float64{ll.Lon, ll.Lat}
}

func (ds *DataSet) setFeatureProperties(f *geojson.Feature, p Primitive) {
	f.ID = p.ID()
	f.SetProperty("type", p.PrimitiveID().Type.String())
	if ds.IsSelected(p) {
		f.SetProperty("selected", true)
	}
	if w, ok := p.(*Way); ok && w.hidden {
		f.SetProperty("hidden", true)
	}
}
