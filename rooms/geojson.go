package rooms

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// roomRing converts a room polygon to a closed orb ring.
func roomRing(polygon []Point) orb.Ring {
	ring := make(orb.Ring, 0, len(polygon)+1)
	for _, p := range polygon {
		ring = append(ring, orb.Point{p.X, p.Y})
	}
	// GeoJSON rings are explicitly closed.
	if len(ring) > 0 && ring[0] != ring[len(ring)-1] {
		ring = append(ring, ring[0])
	}
	return ring
}

// RoomFeature converts a single room to a GeoJSON Polygon feature.
// The index is 1-based, matching the rendered room labels.
func RoomFeature(r Room, index int, planID string) *geojson.Feature {
	f := geojson.NewFeature(orb.Polygon{roomRing(r.Polygon)})
	f.Properties["room"] = index
	f.Properties["area"] = r.Area
	f.Properties["centroid"] = [2]float64{r.Centroid.X, r.Centroid.Y}
	if planID != "" {
		f.Properties["plan"] = planID
	}
	return f
}

// WallsFeature converts the input wall segments to a single GeoJSON
// MultiLineString feature.
func WallsFeature(segments []Segment, planID string) *geojson.Feature {
	mls := make(orb.MultiLineString, 0, len(segments))
	for _, s := range segments {
		mls = append(mls, orb.LineString{
			{s.A.X, s.A.Y},
			{s.B.X, s.B.Y},
		})
	}

	f := geojson.NewFeature(mls)
	f.Properties["layerType"] = "wall"
	if planID != "" {
		f.Properties["plan"] = planID
	}
	return f
}

// ToFeatureCollection builds a GeoJSON FeatureCollection with one
// Polygon feature per room followed by a wall MultiLineString feature.
// Segments may be nil to export rooms only.
func ToFeatureCollection(roomList []Room, segments []Segment, planID string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for i, r := range roomList {
		fc.Append(RoomFeature(r, i+1, planID))
	}

	if len(segments) > 0 {
		fc.Append(WallsFeature(segments, planID))
	}

	return fc
}

// MarshalGeoJSON renders the feature collection as indented JSON.
func MarshalGeoJSON(fc *geojson.FeatureCollection) ([]byte, error) {
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling GeoJSON: %w", err)
	}
	return data, nil
}
