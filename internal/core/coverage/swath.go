package coverage

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-geos"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/geospatial"
)

// bufferQuadrantSegments is the number of segments used per quarter circle
// for round caps and joins.
const bufferQuadrantSegments = 8

// BufferPath returns the applied footprint: the flight path widened by
// swathWidth/2 meters on each side with round caps and joins. The buffer is
// computed in meters in an azimuthal equidistant projection centered on the
// path and then projected back to lon/lat.
func BufferPath(path orb.LineString, swathWidth float64) (orb.Geometry, error) {
	if math.IsNaN(swathWidth) || math.IsInf(swathWidth, 0) || swathWidth <= 0 {
		return nil, newError(KindInvalidParameter, StageBuffer,
			fmt.Sprintf("swath width must be a positive number of meters, got %v", swathWidth), nil)
	}
	if len(path) < 2 {
		return nil, newError(KindInsufficientLogData, StageBuffer,
			fmt.Sprintf("flight path has %d points, at least 2 are required", len(path)), nil)
	}

	proj := geospatial.NewAzimuthalEquidistant(path.Bound().Center())
	half := swathWidth / 2

	footprint, err := unary(proj.ToPlane(path), func(g *geos.Geom) *geos.Geom {
		return g.Buffer(half, bufferQuadrantSegments)
	})
	if err == nil && footprint == nil {
		err = fmt.Errorf("buffer is empty")
	}
	if err != nil {
		return nil, newError(KindGeometryOperationFailed, StageBuffer,
			fmt.Sprintf("buffer flight path by %.2f m", half), err)
	}
	return proj.ToSphere(footprint), nil
}
