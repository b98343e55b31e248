package ports

import (
	"context"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// FarmRepository persists farms.
type FarmRepository interface {
	Create(ctx context.Context, farm *domain.Farm) error
	GetByID(ctx context.Context, id string) (*domain.Farm, error)
	List(ctx context.Context) ([]domain.Farm, error)
}

// FieldRepository persists fields and their boundaries.
type FieldRepository interface {
	Create(ctx context.Context, field *domain.Field) error
	CreateBatch(ctx context.Context, fields []domain.Field) error
	GetByID(ctx context.Context, id string) (*domain.Field, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Field, error)
	ListByFarm(ctx context.Context, farmID string) ([]domain.Field, error)
}

// ProductRepository persists products.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
}

// AircraftRepository persists aircraft.
type AircraftRepository interface {
	Create(ctx context.Context, aircraft *domain.Aircraft) error
	GetByID(ctx context.Context, id string) (*domain.Aircraft, error)
	List(ctx context.Context) ([]domain.Aircraft, error)
}

// WorkOrderRepository persists work orders.
type WorkOrderRepository interface {
	Create(ctx context.Context, wo *domain.WorkOrder) error
	GetByID(ctx context.Context, id string) (*domain.WorkOrder, error)
	List(ctx context.Context, filter domain.WorkOrderFilter) ([]domain.WorkOrder, error)
	UpdateStatus(ctx context.Context, id string, status domain.WorkOrderStatus) error
}

// ApplicationRepository persists applications and their coverage results.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.ApplicationSummary, error)
	// Complete stores a coverage outcome and moves the owning work order to
	// woStatus in one transaction.
	Complete(ctx context.Context, id string, outcome coverage.Outcome, woStatus domain.WorkOrderStatus) error
}
