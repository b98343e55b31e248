package http_test

import (
	"context"
	"sync"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// ---- Mock repositories ----

type mockFarmRepo struct {
	listFn    func(ctx context.Context) ([]domain.Farm, error)
	getByIDFn func(ctx context.Context, id string) (*domain.Farm, error)
}

func (m *mockFarmRepo) Create(ctx context.Context, f *domain.Farm) error {
	f.ID = "farm-new"
	return nil
}
func (m *mockFarmRepo) GetByID(ctx context.Context, id string) (*domain.Farm, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}
func (m *mockFarmRepo) List(ctx context.Context) ([]domain.Farm, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockFieldRepo struct {
	fields map[string]domain.Field
}

func (m *mockFieldRepo) Create(ctx context.Context, f *domain.Field) error {
	f.ID = "field-new"
	return nil
}
func (m *mockFieldRepo) CreateBatch(ctx context.Context, fs []domain.Field) error { return nil }
func (m *mockFieldRepo) GetByID(ctx context.Context, id string) (*domain.Field, error) {
	if f, ok := m.fields[id]; ok {
		return &f, nil
	}
	return nil, domain.ErrNotFound
}
func (m *mockFieldRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Field, error) {
	var out []domain.Field
	for _, id := range ids {
		if f, ok := m.fields[id]; ok {
			out = append(out, f)
		}
	}
	return out, nil
}
func (m *mockFieldRepo) ListByFarm(ctx context.Context, farmID string) ([]domain.Field, error) {
	var out []domain.Field
	for _, f := range m.fields {
		if f.FarmID == farmID {
			out = append(out, f)
		}
	}
	return out, nil
}

type mockProductRepo struct {
	products map[string]*domain.Product
}

func (m *mockProductRepo) Create(ctx context.Context, p *domain.Product) error { return nil }
func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}
func (m *mockProductRepo) List(ctx context.Context) ([]domain.Product, error) { return nil, nil }

type mockAircraftRepo struct {
	aircraft map[string]*domain.Aircraft
}

func (m *mockAircraftRepo) Create(ctx context.Context, a *domain.Aircraft) error { return nil }
func (m *mockAircraftRepo) GetByID(ctx context.Context, id string) (*domain.Aircraft, error) {
	if a, ok := m.aircraft[id]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}
func (m *mockAircraftRepo) List(ctx context.Context) ([]domain.Aircraft, error) { return nil, nil }

type mockWorkOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.WorkOrder
	listFn func(ctx context.Context, f domain.WorkOrderFilter) ([]domain.WorkOrder, error)
}

func (m *mockWorkOrderRepo) Create(ctx context.Context, wo *domain.WorkOrder) error {
	wo.ID = "wo-new"
	return nil
}
func (m *mockWorkOrderRepo) GetByID(ctx context.Context, id string) (*domain.WorkOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if wo, ok := m.orders[id]; ok {
		cp := *wo
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}
func (m *mockWorkOrderRepo) List(ctx context.Context, f domain.WorkOrderFilter) ([]domain.WorkOrder, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, nil
}
func (m *mockWorkOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.WorkOrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	wo, ok := m.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	wo.Status = status
	return nil
}

type mockApplicationRepo struct {
	mu     sync.Mutex
	apps   map[string]*domain.Application
	listFn func(ctx context.Context, f domain.ApplicationFilter) ([]domain.ApplicationSummary, error)
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *domain.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.apps == nil {
		m.apps = map[string]*domain.Application{}
	}
	cp := *app
	m.apps[app.ID] = &cp
	return nil
}
func (m *mockApplicationRepo) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if app, ok := m.apps[id]; ok {
		cp := *app
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}
func (m *mockApplicationRepo) List(ctx context.Context, f domain.ApplicationFilter) ([]domain.ApplicationSummary, error) {
	if m.listFn != nil {
		return m.listFn(ctx, f)
	}
	return nil, nil
}
func (m *mockApplicationRepo) Complete(ctx context.Context, id string, outcome coverage.Outcome, woStatus domain.WorkOrderStatus) error {
	return nil
}

type mockDispatcher struct {
	mu  sync.Mutex
	ids []string
}

func (m *mockDispatcher) Dispatch(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids = append(m.ids, id)
	return nil
}
