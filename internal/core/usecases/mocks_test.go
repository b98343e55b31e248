package usecases_test

import (
	"context"
	"sync"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// --- Mock FarmRepository ---

type mockFarmRepo struct {
	createFn  func(ctx context.Context, f *domain.Farm) error
	getByIDFn func(ctx context.Context, id string) (*domain.Farm, error)
	listFn    func(ctx context.Context) ([]domain.Farm, error)
}

func (m *mockFarmRepo) Create(ctx context.Context, f *domain.Farm) error {
	if m.createFn != nil {
		return m.createFn(ctx, f)
	}
	return nil
}

func (m *mockFarmRepo) GetByID(ctx context.Context, id string) (*domain.Farm, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &domain.Farm{ID: id}, nil
}

func (m *mockFarmRepo) List(ctx context.Context) ([]domain.Farm, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// --- Mock FieldRepository ---

type mockFieldRepo struct {
	createFn      func(ctx context.Context, f *domain.Field) error
	createBatchFn func(ctx context.Context, fs []domain.Field) error
	getByIDFn     func(ctx context.Context, id string) (*domain.Field, error)
	getByIDsFn    func(ctx context.Context, ids []string) ([]domain.Field, error)
	listByFarmFn  func(ctx context.Context, farmID string) ([]domain.Field, error)
}

func (m *mockFieldRepo) Create(ctx context.Context, f *domain.Field) error {
	if m.createFn != nil {
		return m.createFn(ctx, f)
	}
	return nil
}

func (m *mockFieldRepo) CreateBatch(ctx context.Context, fs []domain.Field) error {
	if m.createBatchFn != nil {
		return m.createBatchFn(ctx, fs)
	}
	return nil
}

func (m *mockFieldRepo) GetByID(ctx context.Context, id string) (*domain.Field, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *mockFieldRepo) GetByIDs(ctx context.Context, ids []string) ([]domain.Field, error) {
	if m.getByIDsFn != nil {
		return m.getByIDsFn(ctx, ids)
	}
	return nil, nil
}

func (m *mockFieldRepo) ListByFarm(ctx context.Context, farmID string) ([]domain.Field, error) {
	if m.listByFarmFn != nil {
		return m.listByFarmFn(ctx, farmID)
	}
	return nil, nil
}

// --- Mock ProductRepository ---

type mockProductRepo struct {
	products map[string]*domain.Product
}

func (m *mockProductRepo) Create(ctx context.Context, p *domain.Product) error {
	if m.products == nil {
		m.products = map[string]*domain.Product{}
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	for _, p := range m.products {
		out = append(out, *p)
	}
	return out, nil
}

// --- Mock AircraftRepository ---

type mockAircraftRepo struct {
	aircraft map[string]*domain.Aircraft
	created  []domain.Aircraft
}

func (m *mockAircraftRepo) Create(ctx context.Context, a *domain.Aircraft) error {
	m.created = append(m.created, *a)
	return nil
}

func (m *mockAircraftRepo) GetByID(ctx context.Context, id string) (*domain.Aircraft, error) {
	if a, ok := m.aircraft[id]; ok {
		return a, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockAircraftRepo) List(ctx context.Context) ([]domain.Aircraft, error) {
	return m.created, nil
}

// --- Mock WorkOrderRepository ---

type mockWorkOrderRepo struct {
	mu       sync.Mutex
	orders   map[string]*domain.WorkOrder
	created  []*domain.WorkOrder
	statuses []domain.WorkOrderStatus
}

func (m *mockWorkOrderRepo) Create(ctx context.Context, wo *domain.WorkOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, wo)
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
	return nil, nil
}

func (m *mockWorkOrderRepo) UpdateStatus(ctx context.Context, id string, status domain.WorkOrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
	if wo, ok := m.orders[id]; ok {
		wo.Status = status
	}
	return nil
}

// --- Mock ApplicationRepository ---

type mockApplicationRepo struct {
	mu         sync.Mutex
	apps       map[string]*domain.Application
	outcomes   []coverage.Outcome
	woStatuses []domain.WorkOrderStatus
	listFn     func(ctx context.Context, f domain.ApplicationFilter) ([]domain.ApplicationSummary, error)
	// beforeComplete runs ahead of the status guard, standing in for a
	// concurrent attempt.
	beforeComplete func(app *domain.Application)
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
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if ok && m.beforeComplete != nil {
		m.beforeComplete(app)
	}
	if ok && app.Status != domain.ApplicationProcessing {
		return domain.ErrAlreadyProcessed
	}
	m.outcomes = append(m.outcomes, outcome)
	m.woStatuses = append(m.woStatuses, woStatus)
	if ok {
		app.Status = domain.ApplicationStatus(outcome.Status)
		app.Coverage, app.Failure = outcome.Result, outcome.Failure
	}
	return nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deleted []string
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, domain.ErrNotFound
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttl int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// --- Mock EventPublisher / CoverageRecorder / ProcessingDispatcher ---

type mockPublisher struct {
	mu     sync.Mutex
	events []*domain.CoverageEvent
}

func (m *mockPublisher) PublishCoverageEvent(ctx context.Context, e *domain.CoverageEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

type mockRecorder struct {
	events []*domain.CoverageEvent
	err    error
}

func (m *mockRecorder) RecordCoverage(ctx context.Context, e *domain.CoverageEvent) error {
	m.events = append(m.events, e)
	return m.err
}

type mockDispatcher struct {
	ids []string
	err error
}

func (m *mockDispatcher) Dispatch(ctx context.Context, id string) error {
	m.ids = append(m.ids, id)
	return m.err
}
