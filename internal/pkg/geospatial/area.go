package geospatial

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// SquareMetersPerHectare converts m² to ha.
const SquareMetersPerHectare = 10000.0

// AreaHectares returns the spherical area of a polygonal geometry in
// hectares. Nil and non-polygonal geometries have zero area.
func AreaHectares(g orb.Geometry) float64 {
	if g == nil {
		return 0
	}
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon, orb.Ring, orb.Collection:
		return math.Abs(geo.Area(g)) / SquareMetersPerHectare
	default:
		return 0
	}
}
