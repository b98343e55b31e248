package coverage

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/twpayne/go-geos"
)

// BuildTargetArea merges the target polygons into the planned area. Entries
// that are nil or not a non-empty Polygon/MultiPolygon are skipped. A single
// usable target is returned as is; several are unioned left to right.
func BuildTargetArea(targets []orb.Geometry) (orb.Geometry, error) {
	usable := make([]orb.Geometry, 0, len(targets))
	for _, t := range targets {
		if isPolygonal(t) {
			usable = append(usable, t)
		}
	}

	switch len(usable) {
	case 0:
		return nil, newError(KindNoTargetGeometry, StageTarget,
			fmt.Sprintf("none of the %d target geometries is a usable polygon", len(targets)), nil)
	case 1:
		return usable[0], nil
	}

	planned := usable[0]
	for i := 1; i < len(usable); i++ {
		merged, err := binary(planned, usable[i], (*geos.Geom).Union)
		if err == nil && merged == nil {
			err = fmt.Errorf("union is empty")
		}
		if err != nil {
			return nil, newError(KindGeometryOperationFailed, StageTarget,
				fmt.Sprintf("union of targets 0..%d with target %d", i-1, i), err)
		}
		planned = merged
	}
	return planned, nil
}
