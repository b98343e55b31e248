package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/ports"
)

// WorkOrderService handles work order planning and lifecycle.
type WorkOrderService struct {
	orders   ports.WorkOrderRepository
	fields   ports.FieldRepository
	products ports.ProductRepository
	aircraft ports.AircraftRepository
	cache    ports.CacheService
}

// NewWorkOrderService creates a new WorkOrderService.
func NewWorkOrderService(
	orders ports.WorkOrderRepository,
	fields ports.FieldRepository,
	products ports.ProductRepository,
	aircraft ports.AircraftRepository,
	cache ports.CacheService,
) *WorkOrderService {
	return &WorkOrderService{
		orders:   orders,
		fields:   fields,
		products: products,
		aircraft: aircraft,
		cache:    cache,
	}
}

// PlanTotals returns the planned area of the fields, the product volume
// needed at dosage L/ha and its cost.
func PlanTotals(fields []domain.Field, dosage, costPerLiter float64) (areaHa, volumeL, cost float64) {
	for _, f := range fields {
		areaHa += f.AreaHa
	}
	volumeL = areaHa * dosage
	cost = volumeL * costPerLiter
	return areaHa, volumeL, cost
}

// Create validates a work order, computes its planned totals and stores it
// in the planned state.
func (s *WorkOrderService) Create(ctx context.Context, wo *domain.WorkOrder) error {
	switch {
	case wo.FarmID == "":
		return fmt.Errorf("%w: farm_id is required", domain.ErrInvalidInput)
	case wo.ProductID == "":
		return fmt.Errorf("%w: product_id is required", domain.ErrInvalidInput)
	case wo.AircraftID == "":
		return fmt.Errorf("%w: aircraft_id is required", domain.ErrInvalidInput)
	case len(wo.FieldIDs) == 0:
		return fmt.Errorf("%w: at least one field is required", domain.ErrInvalidInput)
	case wo.PlannedDate.IsZero():
		return fmt.Errorf("%w: planned_date is required", domain.ErrInvalidInput)
	case wo.Dosage < 0:
		return fmt.Errorf("%w: dosage must not be negative", domain.ErrInvalidInput)
	}

	product, err := s.products.GetByID(ctx, wo.ProductID)
	if err != nil {
		return fmt.Errorf("product %s: %w", wo.ProductID, err)
	}
	if _, err := s.aircraft.GetByID(ctx, wo.AircraftID); err != nil {
		return fmt.Errorf("aircraft %s: %w", wo.AircraftID, err)
	}
	if wo.Dosage == 0 {
		wo.Dosage = product.DefaultDosage
	}
	if wo.Dosage <= 0 {
		return fmt.Errorf("%w: dosage is required when the product has no default", domain.ErrInvalidInput)
	}

	fields, err := s.fields.GetByIDs(ctx, wo.FieldIDs)
	if err != nil {
		return fmt.Errorf("load fields: %w", err)
	}
	found := make(map[string]bool, len(fields))
	for _, f := range fields {
		if f.FarmID != wo.FarmID {
			return fmt.Errorf("%w: field %s does not belong to farm %s", domain.ErrInvalidInput, f.ID, wo.FarmID)
		}
		found[f.ID] = true
	}
	for _, id := range wo.FieldIDs {
		if !found[id] {
			return fmt.Errorf("%w: unknown field %s", domain.ErrInvalidInput, id)
		}
	}

	wo.PlannedAreaHa, wo.VolumeRequiredL, wo.EstimatedCost = PlanTotals(fields, wo.Dosage, product.CostPerLiter)
	wo.Status = domain.WorkOrderPlanned
	now := time.Now()
	wo.CreatedAt, wo.UpdatedAt = now, now

	return s.orders.Create(ctx, wo)
}

// GetByID returns a single work order.
func (s *WorkOrderService) GetByID(ctx context.Context, id string) (*domain.WorkOrder, error) {
	cacheKey := WorkOrderCacheKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var wo domain.WorkOrder
			if err := json.Unmarshal(data, &wo); err == nil {
				return &wo, nil
			}
		}
	}

	wo, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(wo); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 60)
		}
	}
	return wo, nil
}

// List returns work orders matching the filter.
func (s *WorkOrderService) List(ctx context.Context, filter domain.WorkOrderFilter) ([]domain.WorkOrder, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.orders.List(ctx, filter)
}

// Cancel cancels a work order that has not been completed.
func (s *WorkOrderService) Cancel(ctx context.Context, id string) error {
	wo, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if wo.Status == domain.WorkOrderCompleted || wo.Status == domain.WorkOrderCancelled {
		return fmt.Errorf("%w: work order is %s", domain.ErrConflict, wo.Status)
	}
	if err := s.orders.UpdateStatus(ctx, id, domain.WorkOrderCancelled); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.Delete(ctx, WorkOrderCacheKey(id))
	}
	return nil
}

// WorkOrderCacheKey is the cache key of a single work order.
func WorkOrderCacheKey(id string) string { return "workorders:id:" + id }

// ApplicationCacheKey is the cache key of a single application.
func ApplicationCacheKey(id string) string { return "applications:id:" + id }
