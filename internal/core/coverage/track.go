package coverage

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"
)

// PointsFromGeoJSON reads a flight track given as a GeoJSON LineString
// geometry (or a Feature wrapping one). Non-finite positions are dropped the
// same way ParseLog drops malformed lines.
func PointsFromGeoJSON(data []byte) ([]orb.Point, error) {
	var g orb.Geometry
	if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		g = f.Geometry
	} else {
		gg, err := geojson.UnmarshalGeometry(data)
		if err != nil {
			return nil, fmt.Errorf("decode flight track: %w", err)
		}
		g = gg.Geometry()
	}

	ls, ok := g.(orb.LineString)
	if !ok {
		return nil, fmt.Errorf("flight track must be a LineString, got %s", geometryType(g))
	}
	return finitePoints(ls), nil
}

// PointsFromPolyline decodes a Google encoded polyline (precision 5).
func PointsFromPolyline(encoded string) ([]orb.Point, error) {
	coords, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	points := make([]orb.Point, 0, len(coords))
	for _, c := range coords {
		points = append(points, orb.Point{c[1], c[0]})
	}
	return points, nil
}

// EncodePolyline encodes a flight path as a Google encoded polyline.
func EncodePolyline(path orb.LineString) string {
	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p.Lat(), p.Lon()}
	}
	return string(polyline.EncodeCoords(coords))
}

func finitePoints(ls orb.LineString) []orb.Point {
	points := make([]orb.Point, 0, len(ls))
	for _, p := range ls {
		if isFinite(p[0]) && isFinite(p[1]) {
			points = append(points, p)
		}
	}
	return points
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func geometryType(g orb.Geometry) string {
	if g == nil {
		return "nothing"
	}
	return g.GeoJSONType()
}
