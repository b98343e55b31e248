package postgres

import (
	"context"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// FarmRepo implements ports.FarmRepository.
type FarmRepo struct {
	db *DB
}

func NewFarmRepo(db *DB) *FarmRepo {
	return &FarmRepo{db: db}
}

func (r *FarmRepo) Create(ctx context.Context, f *domain.Farm) error {
	var lat, lon interface{}
	if f.Location != nil {
		lat, lon = f.Location.Lat, f.Location.Lon
	}
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO farms (name, city, state, location, created_at)
		VALUES ($1, $2, $3,
		        CASE WHEN $4::float8 IS NULL THEN NULL
		             ELSE ST_SetSRID(ST_MakePoint($5::float8, $4::float8), 4326)::geography END,
		        $6)
		RETURNING id
	`, f.Name, nilIfEmpty(f.City), nilIfEmpty(f.State), lat, lon, f.CreatedAt).Scan(&f.ID)
	return mapErr(err)
}

func (r *FarmRepo) GetByID(ctx context.Context, id string) (*domain.Farm, error) {
	rows, err := r.db.Pool.Query(ctx, farmSelect+` WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	farms, err := scanFarms(rows)
	if err != nil {
		return nil, err
	}
	if len(farms) == 0 {
		return nil, domain.ErrNotFound
	}
	return &farms[0], nil
}

func (r *FarmRepo) List(ctx context.Context) ([]domain.Farm, error) {
	rows, err := r.db.Pool.Query(ctx, farmSelect+` ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return scanFarms(rows)
}

const farmSelect = `
	SELECT id, name, COALESCE(city, ''), COALESCE(state, ''),
	       ST_Y(location::geometry), ST_X(location::geometry), created_at
	FROM farms`

type rowsScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

func scanFarms(rows rowsScanner) ([]domain.Farm, error) {
	defer rows.Close()

	var farms []domain.Farm
	for rows.Next() {
		var f domain.Farm
		var lat, lon *float64
		if err := rows.Scan(&f.ID, &f.Name, &f.City, &f.State, &lat, &lon, &f.CreatedAt); err != nil {
			return nil, err
		}
		if lat != nil && lon != nil {
			f.Location = &domain.GeoPoint{Lat: *lat, Lon: *lon}
		}
		farms = append(farms, f)
	}
	return farms, rows.Err()
}
