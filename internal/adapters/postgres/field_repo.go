package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/paulmach/orb/geojson"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// FieldRepo implements ports.FieldRepository with pgx and PostGIS.
type FieldRepo struct {
	db *DB
}

// NewFieldRepo creates a new FieldRepo.
func NewFieldRepo(db *DB) *FieldRepo {
	return &FieldRepo{db: db}
}

const fieldInsert = `
	INSERT INTO fields (farm_id, name, crop, boundary, area_ha, created_at)
	VALUES ($1, $2, $3, ST_SetSRID(ST_GeomFromGeoJSON($4), 4326), $5, $6)
	RETURNING id`

// Create inserts a single field.
func (r *FieldRepo) Create(ctx context.Context, f *domain.Field) error {
	boundary, err := boundaryJSON(f.Boundary)
	if err != nil {
		return err
	}
	err = r.db.Pool.QueryRow(ctx, fieldInsert,
		f.FarmID, f.Name, nilIfEmpty(f.Crop), boundary, f.AreaHa, f.CreatedAt,
	).Scan(&f.ID)
	return mapErr(err)
}

// CreateBatch inserts many fields using pgx.Batch inside one transaction.
func (r *FieldRepo) CreateBatch(ctx context.Context, fields []domain.Field) error {
	if len(fields) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, f := range fields {
		boundary, err := boundaryJSON(f.Boundary)
		if err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
		batch.Queue(fieldInsert, f.FarmID, f.Name, nilIfEmpty(f.Crop), boundary, f.AreaHa, f.CreatedAt)
	}

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	br := tx.SendBatch(ctx, batch)
	for i := range fields {
		if err := br.QueryRow().Scan(&fields[i].ID); err != nil {
			br.Close()
			return fmt.Errorf("batch exec: %w", mapErr(err))
		}
	}
	if err := br.Close(); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID returns a field by UUID.
func (r *FieldRepo) GetByID(ctx context.Context, id string) (*domain.Field, error) {
	rows, err := r.db.Pool.Query(ctx, fieldSelect+` WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	fields, err := scanFields(rows)
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, domain.ErrNotFound
	}
	return &fields[0], nil
}

// GetByIDs returns multiple fields by UUID, ordered by name.
func (r *FieldRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Field, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Pool.Query(ctx, fieldSelect+` WHERE id = ANY($1) ORDER BY name`, ids)
	if err != nil {
		return nil, err
	}
	return scanFields(rows)
}

// ListByFarm returns the fields of a farm ordered by name.
func (r *FieldRepo) ListByFarm(ctx context.Context, farmID string) ([]domain.Field, error) {
	rows, err := r.db.Pool.Query(ctx, fieldSelect+` WHERE farm_id = $1 ORDER BY name`, farmID)
	if err != nil {
		return nil, err
	}
	return scanFields(rows)
}

const fieldSelect = `
	SELECT id, farm_id, name, COALESCE(crop, ''), ST_AsGeoJSON(boundary), area_ha,
	       ST_YMin(boundary), ST_XMin(boundary), ST_YMax(boundary), ST_XMax(boundary),
	       created_at
	FROM fields`

func scanFields(rows rowsScanner) ([]domain.Field, error) {
	defer rows.Close()

	var fields []domain.Field
	for rows.Next() {
		var f domain.Field
		var boundary *string
		var minLat, minLon, maxLat, maxLon *float64
		if err := rows.Scan(
			&f.ID, &f.FarmID, &f.Name, &f.Crop, &boundary, &f.AreaHa,
			&minLat, &minLon, &maxLat, &maxLon,
			&f.CreatedAt,
		); err != nil {
			return nil, err
		}
		if boundary != nil {
			g, err := geojson.UnmarshalGeometry([]byte(*boundary))
			if err != nil {
				return nil, fmt.Errorf("field %s boundary: %w", f.ID, err)
			}
			f.Boundary = g
			f.Bounds = &domain.Bounds{MinLat: *minLat, MinLon: *minLon, MaxLat: *maxLat, MaxLon: *maxLon}
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func boundaryJSON(g *geojson.Geometry) (interface{}, error) {
	if g == nil {
		return nil, nil
	}
	data, err := g.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode boundary: %w", err)
	}
	return string(data), nil
}
