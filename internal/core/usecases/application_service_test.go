package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/usecases"
)

const flightLog = "-21.175,-48.450\n-21.175,-48.455\n-21.175,-48.460\n"

type appFixture struct {
	svc        *usecases.ApplicationService
	apps       *mockApplicationRepo
	orders     *mockWorkOrderRepo
	cache      *mockCache
	publisher  *mockPublisher
	recorder   *mockRecorder
	dispatcher *mockDispatcher
}

func newAppFixture(fields []domain.Field) *appFixture {
	f := &appFixture{
		apps: &mockApplicationRepo{},
		orders: &mockWorkOrderRepo{orders: map[string]*domain.WorkOrder{
			"wo-1":    {ID: "wo-1", FarmID: "farm-1", AircraftID: "a1", FieldIDs: []string{"f1", "f2"}, Status: domain.WorkOrderPlanned},
			"wo-done": {ID: "wo-done", Status: domain.WorkOrderCompleted},
		}},
		cache:      newMockCache(),
		publisher:  &mockPublisher{},
		recorder:   &mockRecorder{},
		dispatcher: &mockDispatcher{},
	}
	f.svc = usecases.NewApplicationService(usecases.ApplicationDeps{
		Applications: f.apps,
		WorkOrders:   f.orders,
		Fields: &mockFieldRepo{
			getByIDsFn: func(ctx context.Context, ids []string) ([]domain.Field, error) { return fields, nil },
		},
		Aircraft:   &mockAircraftRepo{aircraft: map[string]*domain.Aircraft{"a1": {ID: "a1", SwathWidth: 20}}},
		Cache:      f.cache,
		Publisher:  f.publisher,
		Recorder:   f.recorder,
		Dispatcher: f.dispatcher,
	})
	return f
}

func mappedFields() []domain.Field {
	return []domain.Field{
		{ID: "f1", FarmID: "farm-1", Boundary: squareBoundary(-48.455, -21.175, 0.003)},
		{ID: "f2", FarmID: "farm-1"}, // not mapped yet
	}
}

func TestApplicationService_SubmitAndProcess(t *testing.T) {
	f := newAppFixture(mappedFields())
	ctx := context.Background()

	app, err := f.svc.SubmitLog(ctx, "wo-1", []byte(flightLog))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if app.Status != domain.ApplicationProcessing {
		t.Errorf("expected %q, got %q", domain.ApplicationProcessing, app.Status)
	}
	if len(f.dispatcher.ids) != 1 || f.dispatcher.ids[0] != app.ID {
		t.Fatalf("expected application to be dispatched, got %v", f.dispatcher.ids)
	}
	if f.orders.orders["wo-1"].Status != domain.WorkOrderRunning {
		t.Errorf("expected work order running, got %q", f.orders.orders["wo-1"].Status)
	}

	done, err := f.svc.Process(ctx, app.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if done.Status != domain.ApplicationCompleted {
		t.Fatalf("expected %q, got %q (failure %+v)", domain.ApplicationCompleted, done.Status, done.Failure)
	}
	if done.Coverage == nil || done.Coverage.AppliedHa < 2.0 || done.Coverage.AppliedHa > 2.2 {
		t.Errorf("unexpected coverage %+v", done.Coverage)
	}
	if len(f.apps.woStatuses) != 1 || f.apps.woStatuses[0] != domain.WorkOrderCompleted {
		t.Errorf("expected work order completed, got %v", f.apps.woStatuses)
	}
	if len(f.publisher.events) != 1 || f.publisher.events[0].Status != domain.ApplicationCompleted {
		t.Errorf("expected one completed event, got %+v", f.publisher.events)
	}
	if len(f.recorder.events) != 1 {
		t.Errorf("expected coverage to be recorded")
	}
}

func TestApplicationService_Process_NoMappedFields(t *testing.T) {
	f := newAppFixture([]domain.Field{{ID: "f1"}, {ID: "f2"}})
	ctx := context.Background()

	app, err := f.svc.SubmitLog(ctx, "wo-1", []byte(flightLog))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	done, err := f.svc.Process(ctx, app.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if done.Status != domain.ApplicationFailed {
		t.Fatalf("expected failure, got %q", done.Status)
	}
	if done.Failure.Kind != coverage.KindNoTargetGeometry {
		t.Errorf("expected NoTargetGeometry, got %q", done.Failure.Kind)
	}
	if done.Coverage != nil {
		t.Error("failed application must not carry geometries")
	}
	if f.apps.woStatuses[0] != domain.WorkOrderFailed {
		t.Errorf("expected work order failed, got %q", f.apps.woStatuses[0])
	}
	if f.publisher.events[0].FailureKind != coverage.KindNoTargetGeometry {
		t.Errorf("expected failure kind on event, got %+v", f.publisher.events[0])
	}
}

func TestApplicationService_Process_RecorderErrorIsBestEffort(t *testing.T) {
	f := newAppFixture(mappedFields())
	f.recorder.err = errors.New("influx down")
	ctx := context.Background()

	app, _ := f.svc.SubmitLog(ctx, "wo-1", []byte(flightLog))
	if _, err := f.svc.Process(ctx, app.ID); err != nil {
		t.Fatalf("recorder failure must not fail processing: %v", err)
	}
}

func TestApplicationService_Process_Idempotent(t *testing.T) {
	f := newAppFixture(mappedFields())
	ctx := context.Background()

	app, _ := f.svc.SubmitLog(ctx, "wo-1", []byte(flightLog))
	if _, err := f.svc.Process(ctx, app.ID); err != nil {
		t.Fatalf("process: %v", err)
	}
	if _, err := f.svc.Process(ctx, app.ID); err != nil {
		t.Fatalf("second process: %v", err)
	}
	if len(f.apps.outcomes) != 1 {
		t.Errorf("expected a single stored outcome, got %d", len(f.apps.outcomes))
	}
}

func TestApplicationService_Submit_ClosedWorkOrder(t *testing.T) {
	f := newAppFixture(mappedFields())
	_, err := f.svc.SubmitLog(context.Background(), "wo-done", []byte(flightLog))
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestApplicationService_Submit_EmptyLog(t *testing.T) {
	f := newAppFixture(mappedFields())
	_, err := f.svc.SubmitLog(context.Background(), "wo-1", nil)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestApplicationService_SubmitTrack(t *testing.T) {
	f := newAppFixture(mappedFields())
	ctx := context.Background()

	track, _ := geojson.NewGeometry(orb.LineString{{-48.450, -21.175}, {-48.460, -21.175}}).MarshalJSON()
	app, err := f.svc.SubmitTrack(ctx, "wo-1", domain.SourceGeoJSON, track)
	if err != nil {
		t.Fatalf("submit geojson: %v", err)
	}
	done, err := f.svc.Process(ctx, app.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if done.Status != domain.ApplicationCompleted {
		t.Fatalf("expected completed, got %q (%+v)", done.Status, done.Failure)
	}

	encoded := coverage.EncodePolyline(orb.LineString{{-48.450, -21.175}, {-48.460, -21.175}})
	if _, err := f.svc.SubmitTrack(ctx, "wo-1", domain.SourcePolyline, []byte(encoded)); err != nil {
		t.Fatalf("submit polyline: %v", err)
	}

	if _, err := f.svc.SubmitTrack(ctx, "wo-1", domain.SourceGeoJSON, []byte(`{"type":"Point","coordinates":[0,0]}`)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for point track, got %v", err)
	}
	if _, err := f.svc.SubmitTrack(ctx, "wo-1", domain.SourceGPSLog, []byte(flightLog)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for gps log source, got %v", err)
	}
}

func TestApplicationService_Forget(t *testing.T) {
	f := newAppFixture(mappedFields())
	f.cache.data[usecases.ApplicationCacheKey("app-1")] = []byte("{}")
	f.cache.data[usecases.WorkOrderCacheKey("wo-1")] = []byte("{}")

	f.svc.Forget(context.Background(), &domain.CoverageEvent{ApplicationID: "app-1", WorkOrderID: "wo-1"})
	if len(f.cache.data) != 0 {
		t.Errorf("expected cache to be emptied, got %v", f.cache.data)
	}
}

func TestTargets_SkipsUnmappedFields(t *testing.T) {
	targets := usecases.Targets(mappedFields())
	if len(targets) != 1 {
		t.Fatalf("expected 1 target, got %d", len(targets))
	}
	if _, ok := targets[0].(orb.Polygon); !ok {
		t.Errorf("expected polygon target, got %T", targets[0])
	}
}

func TestApplicationService_Release(t *testing.T) {
	f := newAppFixture(mappedFields())
	ctx := context.Background()

	app, err := f.svc.SubmitLog(ctx, "wo-1", []byte(flightLog))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := f.svc.Release(ctx, app.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if got := f.orders.orders["wo-1"].Status; got != domain.WorkOrderPlanned {
		t.Errorf("expected work order back to %q, got %q", domain.WorkOrderPlanned, got)
	}
}

func TestApplicationService_Release_AfterOutcomeIsNoop(t *testing.T) {
	f := newAppFixture(mappedFields())
	ctx := context.Background()

	app, _ := f.svc.SubmitLog(ctx, "wo-1", []byte(flightLog))
	if _, err := f.svc.Process(ctx, app.ID); err != nil {
		t.Fatalf("process: %v", err)
	}
	before := len(f.orders.statuses)
	if err := f.svc.Release(ctx, app.ID); err != nil {
		t.Fatalf("release: %v", err)
	}
	if len(f.orders.statuses) != before {
		t.Errorf("release must not touch a processed work order, statuses %v", f.orders.statuses)
	}
}

func TestApplicationService_Process_ConcurrentAttemptStoresOnce(t *testing.T) {
	f := newAppFixture(mappedFields())
	ctx := context.Background()

	app, _ := f.svc.SubmitLog(ctx, "wo-1", []byte(flightLog))
	f.apps.beforeComplete = func(a *domain.Application) {
		a.Status = domain.ApplicationCompleted
	}

	got, err := f.svc.Process(ctx, app.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if got.Status != domain.ApplicationCompleted {
		t.Errorf("expected stored application, got %q", got.Status)
	}
	if len(f.apps.outcomes) != 0 {
		t.Errorf("outcome must not be stored twice, got %d", len(f.apps.outcomes))
	}
	if len(f.publisher.events) != 0 || len(f.recorder.events) != 0 {
		t.Errorf("losing attempt must not publish, got %d events", len(f.publisher.events))
	}
}

func TestApplicationService_ProcessOrRelease_ReleasesOnError(t *testing.T) {
	f := newAppFixture(mappedFields())
	ctx := context.Background()

	app, err := f.svc.SubmitLog(ctx, "wo-1", []byte(flightLog))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	f.orders.orders["wo-1"].AircraftID = "missing"

	if err := f.svc.ProcessOrRelease(ctx, app.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := f.orders.orders["wo-1"].Status; got != domain.WorkOrderPlanned {
		t.Errorf("expected work order released to %q, got %q", domain.WorkOrderPlanned, got)
	}
	if got := f.apps.apps[app.ID].Status; got != domain.ApplicationProcessing {
		t.Errorf("application should stay retryable, got %q", got)
	}
}

func TestApplicationService_Submit_DispatchFailureReleases(t *testing.T) {
	f := newAppFixture(mappedFields())
	f.dispatcher.err = errors.New("temporal unavailable")

	app, err := f.svc.SubmitLog(context.Background(), "wo-1", []byte(flightLog))
	if err == nil || app == nil {
		t.Fatalf("expected stored application with dispatch error, got %v, %v", app, err)
	}
	if got := f.orders.orders["wo-1"].Status; got != domain.WorkOrderPlanned {
		t.Errorf("expected work order released to %q, got %q", domain.WorkOrderPlanned, got)
	}
}

func TestApplicationService_Retry(t *testing.T) {
	f := newAppFixture(mappedFields())
	ctx := context.Background()

	f.dispatcher.err = errors.New("temporal unavailable")
	app, _ := f.svc.SubmitLog(ctx, "wo-1", []byte(flightLog))
	f.dispatcher.err = nil

	if _, err := f.svc.Retry(ctx, app.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(f.dispatcher.ids) != 2 || f.dispatcher.ids[1] != app.ID {
		t.Errorf("expected application dispatched again, got %v", f.dispatcher.ids)
	}
	if got := f.orders.orders["wo-1"].Status; got != domain.WorkOrderRunning {
		t.Errorf("expected work order %q, got %q", domain.WorkOrderRunning, got)
	}

	if _, err := f.svc.Process(ctx, app.ID); err != nil {
		t.Fatalf("process: %v", err)
	}
	if _, err := f.svc.Retry(ctx, app.ID); !errors.Is(err, domain.ErrConflict) {
		t.Errorf("expected ErrConflict retrying a processed application, got %v", err)
	}
	if _, err := f.svc.Retry(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
