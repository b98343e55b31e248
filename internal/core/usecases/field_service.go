package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/ports"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/geospatial"
)

// FieldService handles field-related business logic.
type FieldService struct {
	fields ports.FieldRepository
	farms  ports.FarmRepository
	cache  ports.CacheService
}

// NewFieldService creates a new FieldService.
func NewFieldService(fields ports.FieldRepository, farms ports.FarmRepository, cache ports.CacheService) *FieldService {
	return &FieldService{fields: fields, farms: farms, cache: cache}
}

// PrepareField validates a field and fills its computed area and bounds.
// A field without boundary is accepted; it is skipped by coverage analysis.
func PrepareField(f *domain.Field) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return fmt.Errorf("%w: field name is required", domain.ErrInvalidInput)
	}
	if f.FarmID == "" {
		return fmt.Errorf("%w: farm_id is required", domain.ErrInvalidInput)
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	if f.Boundary == nil {
		f.AreaHa, f.Bounds = 0, nil
		return nil
	}

	g := f.Boundary.Geometry()
	switch g.(type) {
	case orb.Polygon, orb.MultiPolygon:
	default:
		return fmt.Errorf("%w: field boundary must be a Polygon or MultiPolygon, got %s", domain.ErrInvalidInput, f.Boundary.Type)
	}
	f.AreaHa = geospatial.AreaHectares(g)
	if f.AreaHa <= 0 {
		return fmt.Errorf("%w: field boundary has no area", domain.ErrInvalidInput)
	}
	f.Bounds = domain.BoundsOf(g.Bound())
	return nil
}

// Create validates and stores a field.
func (s *FieldService) Create(ctx context.Context, f *domain.Field) error {
	if err := PrepareField(f); err != nil {
		return err
	}
	if _, err := s.farms.GetByID(ctx, f.FarmID); err != nil {
		return fmt.Errorf("farm %s: %w", f.FarmID, err)
	}
	if err := s.fields.Create(ctx, f); err != nil {
		return err
	}
	s.invalidate(ctx, "fields:farm:"+f.FarmID)
	return nil
}

// Import validates and stores many fields of one farm at once.
func (s *FieldService) Import(ctx context.Context, farmID string, fields []domain.Field) error {
	if _, err := s.farms.GetByID(ctx, farmID); err != nil {
		return fmt.Errorf("farm %s: %w", farmID, err)
	}
	for i := range fields {
		fields[i].FarmID = farmID
		if err := PrepareField(&fields[i]); err != nil {
			return fmt.Errorf("field %d (%s): %w", i, fields[i].Name, err)
		}
	}
	if err := s.fields.CreateBatch(ctx, fields); err != nil {
		return err
	}
	s.invalidate(ctx, "fields:farm:"+farmID)
	return nil
}

// ListByFarm returns the fields of a farm.
func (s *FieldService) ListByFarm(ctx context.Context, farmID string) ([]domain.Field, error) {
	cacheKey := "fields:farm:" + farmID
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var fields []domain.Field
			if err := json.Unmarshal(data, &fields); err == nil {
				return fields, nil
			}
		}
	}

	fields, err := s.fields.ListByFarm(ctx, farmID)
	if err != nil {
		return nil, err
	}

	// Boundaries rarely change; 5 minutes
	if s.cache != nil {
		if data, err := json.Marshal(fields); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 300)
		}
	}

	return fields, nil
}

// GetByID returns a single field.
func (s *FieldService) GetByID(ctx context.Context, id string) (*domain.Field, error) {
	cacheKey := "fields:id:" + id
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var field domain.Field
			if err := json.Unmarshal(data, &field); err == nil {
				return &field, nil
			}
		}
	}

	field, err := s.fields.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(field); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}

	return field, nil
}

func (s *FieldService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	for _, k := range keys {
		_ = s.cache.Delete(ctx, k)
	}
}
