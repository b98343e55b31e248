package coverage

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/geospatial"
)

// Outcome statuses.
const (
	StatusCompleted = "Concluído"
	StatusFailed    = "Erro no Processamento"
)

// Input is everything a coverage run needs. When Points is non-nil it is
// used as the position log and Log is ignored.
type Input struct {
	Log              []byte
	Points           []orb.Point
	SwathWidthMeters float64
	Targets          []orb.Geometry
}

// Result is a successful coverage run.
type Result struct {
	FlightPath orb.LineString
	Applied    orb.Geometry
	Planned    orb.Geometry
	Correct    orb.Geometry
	Waste      orb.Geometry
	Missed     orb.Geometry

	AppliedHa       float64
	PlannedHa       float64
	CorrectHa       float64
	WasteHa         float64
	MissedHa        float64
	CoveragePercent float64

	PointCount         int
	FlightLengthMeters float64
	SwathWidthMeters   float64
}

// Failure describes why a run produced no result.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Outcome is either a Result or a Failure, never both.
type Outcome struct {
	Status  string   `json:"status"`
	Result  *Result  `json:"result,omitempty"`
	Failure *Failure `json:"failure,omitempty"`
}

// OK reports whether the run succeeded.
func (o Outcome) OK() bool { return o.Result != nil }

// Err returns the failure as an error, or nil on success.
func (o Outcome) Err() error {
	if o.Failure == nil {
		return nil
	}
	return &Error{Kind: o.Failure.Kind, Stage: o.Failure.Stage, Msg: o.Failure.Message}
}

// Run executes the whole pipeline and assembles the outcome. It does not
// panic and reports every problem as a failure outcome.
func Run(in Input) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = failed(newError(KindGeometryOperationFailed, StageAssemble, "unexpected panic", fmt.Errorf("%v", r)))
		}
	}()

	points := in.Points
	if points == nil {
		points = ParseLog(in.Log)
	}

	path, err := BuildPath(points)
	if err != nil {
		return failed(err)
	}
	planned, err := BuildTargetArea(in.Targets)
	if err != nil {
		return failed(err)
	}
	applied, err := BufferPath(path, in.SwathWidthMeters)
	if err != nil {
		return failed(err)
	}
	m, err := Analyze(applied, planned)
	if err != nil {
		return failed(err)
	}

	return Outcome{
		Status: StatusCompleted,
		Result: &Result{
			FlightPath:         path,
			Applied:            applied,
			Planned:            planned,
			Correct:            m.Correct,
			Waste:              m.Waste,
			Missed:             m.Missed,
			AppliedHa:          m.AppliedHa,
			PlannedHa:          m.PlannedHa,
			CorrectHa:          m.CorrectHa,
			WasteHa:            m.WasteHa,
			MissedHa:           m.MissedHa,
			CoveragePercent:    m.CoveragePercent,
			PointCount:         len(path),
			FlightLengthMeters: geospatial.PathLength(path),
			SwathWidthMeters:   in.SwathWidthMeters,
		},
	}
}

func failed(err error) Outcome {
	f := &Failure{Kind: KindGeometryOperationFailed, Stage: StageAssemble, Message: err.Error()}
	if ce, ok := err.(*Error); ok {
		f.Kind, f.Stage, f.Message = ce.Kind, ce.Stage, ce.Msg
		if ce.Err != nil {
			f.Message = ce.Msg + ": " + ce.Err.Error()
		}
	}
	return Outcome{Status: StatusFailed, Failure: f}
}

// resultJSON is the wire shape of a Result; geometries are GeoJSON.
type resultJSON struct {
	FlightPath *geojson.Geometry `json:"flight_path"`
	Applied    *geojson.Geometry `json:"applied"`
	Planned    *geojson.Geometry `json:"planned"`
	Correct    *geojson.Geometry `json:"correct"`
	Waste      *geojson.Geometry `json:"waste"`
	Missed     *geojson.Geometry `json:"missed"`

	AppliedHa       float64 `json:"applied_ha"`
	PlannedHa       float64 `json:"planned_ha"`
	CorrectHa       float64 `json:"correct_ha"`
	WasteHa         float64 `json:"waste_ha"`
	MissedHa        float64 `json:"missed_ha"`
	CoveragePercent float64 `json:"coverage_percent"`

	PointCount         int     `json:"point_count"`
	FlightLengthMeters float64 `json:"flight_length_m"`
	SwathWidthMeters   float64 `json:"swath_width_m"`
}

// MarshalJSON encodes geometries as GeoJSON; absent geometries become null.
func (r *Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		FlightPath:         toGeoJSON(r.FlightPath),
		Applied:            toGeoJSON(r.Applied),
		Planned:            toGeoJSON(r.Planned),
		Correct:            toGeoJSON(r.Correct),
		Waste:              toGeoJSON(r.Waste),
		Missed:             toGeoJSON(r.Missed),
		AppliedHa:          r.AppliedHa,
		PlannedHa:          r.PlannedHa,
		CorrectHa:          r.CorrectHa,
		WasteHa:            r.WasteHa,
		MissedHa:           r.MissedHa,
		CoveragePercent:    r.CoveragePercent,
		PointCount:         r.PointCount,
		FlightLengthMeters: r.FlightLengthMeters,
		SwathWidthMeters:   r.SwathWidthMeters,
	})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (r *Result) UnmarshalJSON(data []byte) error {
	var w resultJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Result{
		Applied:            fromGeoJSON(w.Applied),
		Planned:            fromGeoJSON(w.Planned),
		Correct:            fromGeoJSON(w.Correct),
		Waste:              fromGeoJSON(w.Waste),
		Missed:             fromGeoJSON(w.Missed),
		AppliedHa:          w.AppliedHa,
		PlannedHa:          w.PlannedHa,
		CorrectHa:          w.CorrectHa,
		WasteHa:            w.WasteHa,
		MissedHa:           w.MissedHa,
		CoveragePercent:    w.CoveragePercent,
		PointCount:         w.PointCount,
		FlightLengthMeters: w.FlightLengthMeters,
		SwathWidthMeters:   w.SwathWidthMeters,
	}
	if ls, ok := fromGeoJSON(w.FlightPath).(orb.LineString); ok {
		r.FlightPath = ls
	}
	return nil
}

// Layers returns the result as a FeatureCollection with one feature per
// non-empty geometry, tagged with a "layer" property.
func (r *Result) Layers() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	add := func(layer string, g orb.Geometry, areaHa float64) {
		if g == nil {
			return
		}
		f := geojson.NewFeature(g)
		f.Properties["layer"] = layer
		if areaHa > 0 {
			f.Properties["area_ha"] = areaHa
		}
		fc.Append(f)
	}
	if len(r.FlightPath) > 0 {
		add(LayerFlightPath, r.FlightPath, 0)
	}
	add(LayerPlanned, r.Planned, r.PlannedHa)
	add(LayerApplied, r.Applied, r.AppliedHa)
	add(LayerCorrect, r.Correct, r.CorrectHa)
	add(LayerWaste, r.Waste, r.WasteHa)
	add(LayerMissed, r.Missed, r.MissedHa)
	return fc
}

// Layer names used by Layers.
const (
	LayerFlightPath = "flight_path"
	LayerPlanned    = "planned"
	LayerApplied    = "applied"
	LayerCorrect    = "correct"
	LayerWaste      = "waste"
	LayerMissed     = "missed"
)

func toGeoJSON(g orb.Geometry) *geojson.Geometry {
	if g == nil {
		return nil
	}
	if ls, ok := g.(orb.LineString); ok && len(ls) == 0 {
		return nil
	}
	return geojson.NewGeometry(g)
}

func fromGeoJSON(g *geojson.Geometry) orb.Geometry {
	if g == nil {
		return nil
	}
	return g.Geometry()
}
