package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/ports"
)

// FarmService handles farm-related business logic.
type FarmService struct {
	farms ports.FarmRepository
}

// NewFarmService creates a new FarmService.
func NewFarmService(farms ports.FarmRepository) *FarmService {
	return &FarmService{farms: farms}
}

// Create validates and stores a new farm.
func (s *FarmService) Create(ctx context.Context, farm *domain.Farm) error {
	farm.Name = strings.TrimSpace(farm.Name)
	if farm.Name == "" {
		return fmt.Errorf("%w: farm name is required", domain.ErrInvalidInput)
	}
	if farm.CreatedAt.IsZero() {
		farm.CreatedAt = time.Now()
	}
	return s.farms.Create(ctx, farm)
}

// List returns all farms.
func (s *FarmService) List(ctx context.Context) ([]domain.Farm, error) {
	return s.farms.List(ctx)
}

// GetByID returns a farm by ID.
func (s *FarmService) GetByID(ctx context.Context, id string) (*domain.Farm, error) {
	return s.farms.GetByID(ctx, id)
}
