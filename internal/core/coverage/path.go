package coverage

import (
	"fmt"

	"github.com/paulmach/orb"
)

// BuildPath returns the flight path through points in log order. No
// simplification or deduplication is applied.
func BuildPath(points []orb.Point) (orb.LineString, error) {
	if len(points) < 2 {
		return nil, newError(KindInsufficientLogData, StagePath,
			fmt.Sprintf("flight log has %d valid points, at least 2 are required", len(points)), nil)
	}
	path := make(orb.LineString, len(points))
	copy(path, points)
	return path, nil
}
