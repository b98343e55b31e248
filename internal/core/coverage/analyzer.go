package coverage

import (
	"github.com/paulmach/orb"
	"github.com/twpayne/go-geos"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/geospatial"
)

// Metrics is the outcome of comparing the applied footprint with the planned
// area. Geometries are nil when the corresponding operation has no area.
type Metrics struct {
	Correct orb.Geometry
	Waste   orb.Geometry
	Missed  orb.Geometry

	AppliedHa       float64
	PlannedHa       float64
	CorrectHa       float64
	WasteHa         float64
	MissedHa        float64
	CoveragePercent float64
}

// Analyze computes correct (applied ∩ planned), waste (applied − planned) and
// missed (planned − applied) areas together with the coverage percentage.
func Analyze(applied, planned orb.Geometry) (*Metrics, error) {
	if !isPolygonal(applied) {
		return nil, newError(KindGeometryOperationFailed, StageAnalyze, "applied footprint is not a polygon", nil)
	}
	if !isPolygonal(planned) {
		return nil, newError(KindNoTargetGeometry, StageAnalyze, "planned area is not a polygon", nil)
	}

	correct, err := binary(applied, planned, (*geos.Geom).Intersection)
	if err != nil {
		return nil, newError(KindGeometryOperationFailed, StageAnalyze, "intersection of applied and planned areas", err)
	}
	waste, err := binary(applied, planned, (*geos.Geom).Difference)
	if err != nil {
		return nil, newError(KindGeometryOperationFailed, StageAnalyze, "difference of applied minus planned area", err)
	}
	missed, err := binary(planned, applied, (*geos.Geom).Difference)
	if err != nil {
		return nil, newError(KindGeometryOperationFailed, StageAnalyze, "difference of planned minus applied area", err)
	}

	m := &Metrics{
		Correct:   correct,
		Waste:     waste,
		Missed:    missed,
		AppliedHa: geospatial.AreaHectares(applied),
		PlannedHa: geospatial.AreaHectares(planned),
		CorrectHa: geospatial.AreaHectares(correct),
		WasteHa:   geospatial.AreaHectares(waste),
		MissedHa:  geospatial.AreaHectares(missed),
	}
	m.CoveragePercent = CoveragePercent(m.CorrectHa, m.PlannedHa)
	return m, nil
}

// CoveragePercent returns correct/planned as a percentage, or 0 when the
// planned area is zero. The value is not rounded or clamped.
func CoveragePercent(correctHa, plannedHa float64) float64 {
	if plannedHa <= 0 {
		return 0
	}
	return correctHa / plannedHa * 100
}
