package postgres

import (
	"context"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// ProductRepo implements ports.ProductRepository.
type ProductRepo struct {
	db *DB
}

func NewProductRepo(db *DB) *ProductRepo {
	return &ProductRepo{db: db}
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO products (name, active_ingredient, default_dosage, cost_per_liter, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, p.Name, nilIfEmpty(p.ActiveIngredient), p.DefaultDosage, p.CostPerLiter, p.CreatedAt).Scan(&p.ID)
	return mapErr(err)
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(active_ingredient, ''), default_dosage, cost_per_liter, created_at
		FROM products WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.ActiveIngredient, &p.DefaultDosage, &p.CostPerLiter, &p.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &p, nil
}

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, name, COALESCE(active_ingredient, ''), default_dosage, cost_per_liter, created_at
		FROM products ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.ActiveIngredient, &p.DefaultDosage, &p.CostPerLiter, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// AircraftRepo implements ports.AircraftRepository.
type AircraftRepo struct {
	db *DB
}

func NewAircraftRepo(db *DB) *AircraftRepo {
	return &AircraftRepo{db: db}
}

func (r *AircraftRepo) Create(ctx context.Context, a *domain.Aircraft) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO aircraft (prefix, model, swath_width, hourly_cost, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, a.Prefix, nilIfEmpty(a.Model), a.SwathWidth, a.HourlyCost, a.CreatedAt).Scan(&a.ID)
	return mapErr(err)
}

func (r *AircraftRepo) GetByID(ctx context.Context, id string) (*domain.Aircraft, error) {
	var a domain.Aircraft
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, prefix, COALESCE(model, ''), swath_width, hourly_cost, created_at
		FROM aircraft WHERE id = $1
	`, id).Scan(&a.ID, &a.Prefix, &a.Model, &a.SwathWidth, &a.HourlyCost, &a.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (r *AircraftRepo) List(ctx context.Context) ([]domain.Aircraft, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, prefix, COALESCE(model, ''), swath_width, hourly_cost, created_at
		FROM aircraft ORDER BY prefix
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.Aircraft
	for rows.Next() {
		var a domain.Aircraft
		if err := rows.Scan(&a.ID, &a.Prefix, &a.Model, &a.SwathWidth, &a.HourlyCost, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, a)
	}
	return list, rows.Err()
}
