package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// ApplicationRepo implements ports.ApplicationRepository. Result geometries
// are exchanged with PostGIS as WKB.
type ApplicationRepo struct {
	db *DB
}

func NewApplicationRepo(db *DB) *ApplicationRepo {
	return &ApplicationRepo{db: db}
}

func (r *ApplicationRepo) Create(ctx context.Context, app *domain.Application) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO applications (id, work_order_id, status, source, raw_log, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, app.ID, app.WorkOrderID, string(app.Status), string(app.Source), app.Log, app.SubmittedAt)
	return mapErr(err)
}

// Complete stores the outcome and the new work order status atomically.
// Either every result column is written or, on failure, only the error
// columns are. Only an application still in Processando is updated; any
// other returns domain.ErrAlreadyProcessed and changes nothing.
func (r *ApplicationRepo) Complete(ctx context.Context, id string, out coverage.Outcome, woStatus domain.WorkOrderStatus) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var woID string
	if res := out.Result; res != nil {
		geoms := make([][]byte, 0, 6)
		for _, g := range []orb.Geometry{res.FlightPath, res.Applied, res.Planned, res.Correct, res.Waste, res.Missed} {
			b, err := toWKB(g)
			if err != nil {
				return err
			}
			geoms = append(geoms, b)
		}
		err = tx.QueryRow(ctx, `
			UPDATE applications SET
				status = $2,
				flight_path = ST_GeomFromWKB($3, 4326),
				applied_geom = ST_GeomFromWKB($4, 4326),
				planned_geom = ST_GeomFromWKB($5, 4326),
				correct_geom = ST_GeomFromWKB($6, 4326),
				waste_geom = ST_GeomFromWKB($7, 4326),
				missed_geom = ST_GeomFromWKB($8, 4326),
				applied_ha = $9, planned_ha = $10, correct_ha = $11, waste_ha = $12, missed_ha = $13,
				coverage_percent = $14, point_count = $15, flight_length_m = $16, swath_width_m = $17,
				error_kind = NULL, error_stage = NULL, error_message = NULL,
				processed_at = now()
			WHERE id = $1 AND status = 'Processando'
			RETURNING work_order_id
		`, id, out.Status, geoms[0], geoms[1], geoms[2], geoms[3], geoms[4], geoms[5],
			res.AppliedHa, res.PlannedHa, res.CorrectHa, res.WasteHa, res.MissedHa,
			res.CoveragePercent, res.PointCount, res.FlightLengthMeters, res.SwathWidthMeters,
		).Scan(&woID)
	} else {
		f := out.Failure
		err = tx.QueryRow(ctx, `
			UPDATE applications SET
				status = $2, error_kind = $3, error_stage = $4, error_message = $5,
				processed_at = now()
			WHERE id = $1 AND status = 'Processando'
			RETURNING work_order_id
		`, id, out.Status, string(f.Kind), f.Stage, f.Message).Scan(&woID)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrAlreadyProcessed
	}
	if err != nil {
		return fmt.Errorf("update application: %w", mapErr(err))
	}

	if _, err := tx.Exec(ctx, `
		UPDATE work_orders SET status = $2, updated_at = now() WHERE id = $1
	`, woID, string(woStatus)); err != nil {
		return fmt.Errorf("update work order: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *ApplicationRepo) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	var (
		app                                          domain.Application
		status, source                               string
		path, applied, planned, correct, waste, miss []byte
		appliedHa, plannedHa, correctHa, wasteHa     *float64
		missedHa, percent, lengthM, swathM           *float64
		points                                       *int
		errKind, errStage, errMsg                    *string
	)
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, work_order_id, status, source, raw_log, submitted_at, processed_at,
		       ST_AsBinary(flight_path), ST_AsBinary(applied_geom), ST_AsBinary(planned_geom),
		       ST_AsBinary(correct_geom), ST_AsBinary(waste_geom), ST_AsBinary(missed_geom),
		       applied_ha, planned_ha, correct_ha, waste_ha, missed_ha, coverage_percent,
		       point_count, flight_length_m, swath_width_m,
		       error_kind, error_stage, error_message
		FROM applications WHERE id = $1
	`, id).Scan(
		&app.ID, &app.WorkOrderID, &status, &source, &app.Log, &app.SubmittedAt, &app.ProcessedAt,
		&path, &applied, &planned, &correct, &waste, &miss,
		&appliedHa, &plannedHa, &correctHa, &wasteHa, &missedHa, &percent,
		&points, &lengthM, &swathM,
		&errKind, &errStage, &errMsg,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	app.Status = domain.ApplicationStatus(status)
	app.Source = domain.LogSource(source)

	switch {
	case app.Status == domain.ApplicationCompleted:
		res := &coverage.Result{
			AppliedHa:          deref(appliedHa),
			PlannedHa:          deref(plannedHa),
			CorrectHa:          deref(correctHa),
			WasteHa:            deref(wasteHa),
			MissedHa:           deref(missedHa),
			CoveragePercent:    deref(percent),
			FlightLengthMeters: deref(lengthM),
			SwathWidthMeters:   deref(swathM),
		}
		if points != nil {
			res.PointCount = *points
		}
		var fp orb.Geometry
		for _, c := range []struct {
			dst *orb.Geometry
			src []byte
		}{
			{&fp, path}, {&res.Applied, applied}, {&res.Planned, planned},
			{&res.Correct, correct}, {&res.Waste, waste}, {&res.Missed, miss},
		} {
			g, err := fromWKB(c.src)
			if err != nil {
				return nil, fmt.Errorf("application %s geometry: %w", id, err)
			}
			*c.dst = g
		}
		if ls, ok := fp.(orb.LineString); ok {
			res.FlightPath = ls
		}
		app.Coverage = res
	case errKind != nil:
		app.Failure = &coverage.Failure{
			Kind:    coverage.Kind(*errKind),
			Stage:   derefString(errStage),
			Message: derefString(errMsg),
		}
	}
	return &app, nil
}

func (r *ApplicationRepo) List(ctx context.Context, f domain.ApplicationFilter) ([]domain.ApplicationSummary, error) {
	var where []string
	var args []any
	if f.WorkOrderID != "" {
		args = append(args, f.WorkOrderID)
		where = append(where, fmt.Sprintf("a.work_order_id = $%d", len(args)))
	}
	if f.FarmID != "" {
		args = append(args, f.FarmID)
		where = append(where, fmt.Sprintf("w.farm_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, fmt.Sprintf("a.status = $%d", len(args)))
	}

	q := `
		SELECT a.id, a.work_order_id, fa.name, p.name, ac.prefix, a.status,
		       COALESCE(a.applied_ha, 0), COALESCE(a.coverage_percent, 0), a.processed_at
		FROM applications a
		JOIN work_orders w ON w.id = a.work_order_id
		JOIN farms fa ON fa.id = w.farm_id
		JOIN products p ON p.id = w.product_id
		JOIN aircraft ac ON ac.id = w.aircraft_id`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, f.Limit, f.Offset)
	q += fmt.Sprintf(" ORDER BY a.submitted_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.ApplicationSummary
	for rows.Next() {
		var s domain.ApplicationSummary
		var status string
		var processed *time.Time
		if err := rows.Scan(&s.ID, &s.WorkOrderID, &s.FarmName, &s.ProductName, &s.AircraftPrefix,
			&status, &s.AppliedHa, &s.CoveragePercent, &processed); err != nil {
			return nil, err
		}
		s.Status = domain.ApplicationStatus(status)
		s.ProcessedAt = processed
		list = append(list, s)
	}
	return list, rows.Err()
}

func toWKB(g orb.Geometry) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	if ls, ok := g.(orb.LineString); ok && len(ls) == 0 {
		return nil, nil
	}
	b, err := wkb.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode wkb: %w", err)
	}
	return b, nil
}

func fromWKB(b []byte) (orb.Geometry, error) {
	if len(b) == 0 {
		return nil, nil
	}
	return wkb.Unmarshal(b)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
