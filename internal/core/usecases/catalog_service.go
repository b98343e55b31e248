package usecases

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/ports"
)

// CatalogService manages the products and aircraft work orders refer to.
type CatalogService struct {
	products ports.ProductRepository
	aircraft ports.AircraftRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(products ports.ProductRepository, aircraft ports.AircraftRepository) *CatalogService {
	return &CatalogService{products: products, aircraft: aircraft}
}

// CreateProduct validates and stores a product.
func (s *CatalogService) CreateProduct(ctx context.Context, p *domain.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", domain.ErrInvalidInput)
	}
	if p.DefaultDosage < 0 || p.CostPerLiter < 0 {
		return fmt.Errorf("%w: dosage and cost must not be negative", domain.ErrInvalidInput)
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	return s.products.Create(ctx, p)
}

// ListProducts returns all products.
func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.List(ctx)
}

// CreateAircraft validates and stores an aircraft. The swath width is what
// coverage analysis buffers the flight path with, so it must be positive.
func (s *CatalogService) CreateAircraft(ctx context.Context, a *domain.Aircraft) error {
	a.Prefix = strings.ToUpper(strings.TrimSpace(a.Prefix))
	if a.Prefix == "" {
		return fmt.Errorf("%w: aircraft prefix is required", domain.ErrInvalidInput)
	}
	if math.IsNaN(a.SwathWidth) || math.IsInf(a.SwathWidth, 0) || a.SwathWidth <= 0 {
		return fmt.Errorf("%w: swath width must be a positive number of meters", domain.ErrInvalidInput)
	}
	if a.HourlyCost < 0 {
		return fmt.Errorf("%w: hourly cost must not be negative", domain.ErrInvalidInput)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return s.aircraft.Create(ctx, a)
}

// ListAircraft returns all aircraft.
func (s *CatalogService) ListAircraft(ctx context.Context) ([]domain.Aircraft, error) {
	return s.aircraft.List(ctx)
}
