package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/ports"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/logging"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/pkg/metrics"
)

var tracer = otel.Tracer("github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/usecases")

// ApplicationService turns submitted flight logs into coverage results.
type ApplicationService struct {
	apps       ports.ApplicationRepository
	orders     ports.WorkOrderRepository
	fields     ports.FieldRepository
	aircraft   ports.AircraftRepository
	cache      ports.CacheService
	publisher  ports.EventPublisher
	recorder   ports.CoverageRecorder
	dispatcher ports.ProcessingDispatcher
}

// ApplicationDeps groups the collaborators of ApplicationService. Cache,
// Publisher, Recorder and Dispatcher are optional.
type ApplicationDeps struct {
	Applications ports.ApplicationRepository
	WorkOrders   ports.WorkOrderRepository
	Fields       ports.FieldRepository
	Aircraft     ports.AircraftRepository
	Cache        ports.CacheService
	Publisher    ports.EventPublisher
	Recorder     ports.CoverageRecorder
	Dispatcher   ports.ProcessingDispatcher
}

// NewApplicationService creates a new ApplicationService.
func NewApplicationService(d ApplicationDeps) *ApplicationService {
	return &ApplicationService{
		apps:       d.Applications,
		orders:     d.WorkOrders,
		fields:     d.Fields,
		aircraft:   d.Aircraft,
		cache:      d.Cache,
		publisher:  d.Publisher,
		recorder:   d.Recorder,
		dispatcher: d.Dispatcher,
	}
}

// SetDispatcher replaces the dispatcher. The inline dispatcher needs the
// service itself, so it is wired after construction.
func (s *ApplicationService) SetDispatcher(d ports.ProcessingDispatcher) {
	s.dispatcher = d
}

// Dispatching reports whether submitted logs get scheduled for processing.
func (s *ApplicationService) Dispatching() bool { return s.dispatcher != nil }

// SubmitLog stores a raw GPS log ("lat,lon" per line) for a work order and
// schedules its processing.
func (s *ApplicationService) SubmitLog(ctx context.Context, workOrderID string, log []byte) (*domain.Application, error) {
	return s.submit(ctx, workOrderID, domain.SourceGPSLog, log)
}

// SubmitTrack stores a flight track given as a GeoJSON LineString or an
// encoded polyline and schedules its processing.
func (s *ApplicationService) SubmitTrack(ctx context.Context, workOrderID string, source domain.LogSource, payload []byte) (*domain.Application, error) {
	if source != domain.SourceGeoJSON && source != domain.SourcePolyline {
		return nil, fmt.Errorf("%w: unsupported track source %q", domain.ErrInvalidInput, source)
	}
	if _, err := pointsFor(source, payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return s.submit(ctx, workOrderID, source, payload)
}

func (s *ApplicationService) submit(ctx context.Context, workOrderID string, source domain.LogSource, payload []byte) (*domain.Application, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: flight log is empty", domain.ErrInvalidInput)
	}

	wo, err := s.orders.GetByID(ctx, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("work order %s: %w", workOrderID, err)
	}
	if !wo.Status.Open() {
		return nil, fmt.Errorf("%w: work order is %s", domain.ErrConflict, wo.Status)
	}

	app := &domain.Application{
		ID:          uuid.NewString(),
		WorkOrderID: wo.ID,
		Status:      domain.ApplicationProcessing,
		Source:      source,
		Log:         payload,
		SubmittedAt: time.Now(),
	}
	if err := s.apps.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	if err := s.orders.UpdateStatus(ctx, wo.ID, domain.WorkOrderRunning); err != nil {
		return nil, fmt.Errorf("update work order status: %w", err)
	}
	s.forget(ctx, WorkOrderCacheKey(wo.ID))

	if err := s.dispatch(ctx, app.ID); err != nil {
		return app, err
	}
	return app, nil
}

// dispatch hands an application to the dispatcher. When that fails the work
// order is released so the application can be retried later.
func (s *ApplicationService) dispatch(ctx context.Context, applicationID string) error {
	if s.dispatcher == nil {
		return nil
	}
	err := s.dispatcher.Dispatch(ctx, applicationID)
	if err == nil {
		return nil
	}
	if rerr := s.Release(ctx, applicationID); rerr != nil {
		logging.FromContext(ctx).Error("release after dispatch failure", "application_id", applicationID, "error", rerr)
	}
	return fmt.Errorf("dispatch application %s: %w", applicationID, err)
}

// Retry dispatches an application that is still in Processando again, for
// instance after a dispatch failure or a processing run that gave up.
func (s *ApplicationService) Retry(ctx context.Context, applicationID string) (*domain.Application, error) {
	if s.dispatcher == nil {
		return nil, errors.New("no processing dispatcher configured")
	}
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("application %s: %w", applicationID, err)
	}
	if app.Status != domain.ApplicationProcessing {
		return nil, fmt.Errorf("%w: application is %s", domain.ErrConflict, app.Status)
	}
	wo, err := s.orders.GetByID(ctx, app.WorkOrderID)
	if err != nil {
		return nil, fmt.Errorf("work order %s: %w", app.WorkOrderID, err)
	}
	if !wo.Status.Open() {
		return nil, fmt.Errorf("%w: work order is %s", domain.ErrConflict, wo.Status)
	}
	if wo.Status != domain.WorkOrderRunning {
		if err := s.orders.UpdateStatus(ctx, wo.ID, domain.WorkOrderRunning); err != nil {
			return nil, fmt.Errorf("update work order status: %w", err)
		}
		s.forget(ctx, WorkOrderCacheKey(wo.ID))
	}
	if err := s.dispatch(ctx, app.ID); err != nil {
		return nil, err
	}
	return app, nil
}

// ProcessOrRelease processes an application and releases its work order
// when processing returns an error, so nothing is left in Em Execução.
func (s *ApplicationService) ProcessOrRelease(ctx context.Context, applicationID string) error {
	_, err := s.Process(ctx, applicationID)
	if err == nil {
		return nil
	}
	// The processing context may already be past its deadline.
	if rerr := s.Release(context.WithoutCancel(ctx), applicationID); rerr != nil {
		logging.FromContext(ctx).Error("release after processing failure", "application_id", applicationID, "error", rerr)
	}
	return err
}

// Process runs coverage analysis for a submitted application and stores the
// outcome. The work order moves to Concluída on success and to Falhou on
// failure. Applications that were already processed are returned unchanged.
func (s *ApplicationService) Process(ctx context.Context, applicationID string) (*domain.Application, error) {
	ctx, span := tracer.Start(ctx, "ApplicationService.Process")
	defer span.End()
	span.SetAttributes(attribute.String("application.id", applicationID))
	logger := logging.FromContext(ctx).With("application_id", applicationID)

	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("application %s: %w", applicationID, err)
	}
	if app.Status != domain.ApplicationProcessing {
		logger.Info("application already processed", "status", app.Status)
		return app, nil
	}

	wo, err := s.orders.GetByID(ctx, app.WorkOrderID)
	if err != nil {
		return nil, fmt.Errorf("work order %s: %w", app.WorkOrderID, err)
	}
	ac, err := s.aircraft.GetByID(ctx, wo.AircraftID)
	if err != nil {
		return nil, fmt.Errorf("aircraft %s: %w", wo.AircraftID, err)
	}
	fields, err := s.fields.GetByIDs(ctx, wo.FieldIDs)
	if err != nil {
		return nil, fmt.Errorf("load fields: %w", err)
	}

	in := coverage.Input{
		SwathWidthMeters: ac.SwathWidth,
		Targets:          Targets(fields),
	}
	if app.Source == domain.SourceGPSLog {
		in.Log = app.Log
	} else {
		// Decoding was validated on submit; an undecodable track yields an
		// empty position log and fails as insufficient data.
		pts, _ := pointsFor(app.Source, app.Log)
		if pts == nil {
			pts = []orb.Point{}
		}
		in.Points = pts
	}

	start := time.Now()
	outcome := s.Analyze(ctx, in)
	elapsed := time.Since(start)

	woStatus := domain.WorkOrderCompleted
	if !outcome.OK() {
		woStatus = domain.WorkOrderFailed
	}
	if err := s.apps.Complete(ctx, app.ID, outcome, woStatus); err != nil {
		if errors.Is(err, domain.ErrAlreadyProcessed) {
			// Another attempt stored its outcome first and published for it.
			logger.Info("outcome already stored by another attempt")
			return s.apps.GetByID(ctx, app.ID)
		}
		span.RecordError(err)
		return nil, fmt.Errorf("store outcome: %w", err)
	}
	s.forget(ctx, ApplicationCacheKey(app.ID), WorkOrderCacheKey(wo.ID))

	now := time.Now()
	app.ProcessedAt = &now
	app.Coverage, app.Failure = outcome.Result, outcome.Failure
	app.Status = domain.ApplicationStatus(outcome.Status)

	event := newCoverageEvent(app, wo, now)
	if s.publisher != nil {
		if err := s.publisher.PublishCoverageEvent(ctx, event); err != nil {
			logger.Warn("publish coverage event failed", "error", err)
		}
	}
	if s.recorder != nil {
		if err := s.recorder.RecordCoverage(ctx, event); err != nil {
			logger.Warn("record coverage time series failed", "error", err)
		}
	}

	if outcome.OK() {
		logger.Info("coverage analysis completed",
			"work_order_id", wo.ID,
			"applied_ha", outcome.Result.AppliedHa,
			"coverage_percent", outcome.Result.CoveragePercent,
			"duration", elapsed,
		)
	} else {
		span.SetStatus(codes.Error, outcome.Failure.Message)
		logger.Warn("coverage analysis failed",
			"work_order_id", wo.ID,
			"kind", outcome.Failure.Kind,
			"stage", outcome.Failure.Stage,
			"message", outcome.Failure.Message,
		)
	}
	return app, nil
}

// Release hands a work order back to planning when its application could
// not be processed at all. Applications with a stored outcome are left alone.
func (s *ApplicationService) Release(ctx context.Context, applicationID string) error {
	app, err := s.apps.GetByID(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("application %s: %w", applicationID, err)
	}
	if app.Status != domain.ApplicationProcessing {
		return nil
	}
	wo, err := s.orders.GetByID(ctx, app.WorkOrderID)
	if err != nil {
		return fmt.Errorf("work order %s: %w", app.WorkOrderID, err)
	}
	if wo.Status != domain.WorkOrderRunning {
		return nil
	}
	if err := s.orders.UpdateStatus(ctx, wo.ID, domain.WorkOrderPlanned); err != nil {
		return fmt.Errorf("update work order status: %w", err)
	}
	s.forget(ctx, WorkOrderCacheKey(wo.ID))
	logging.FromContext(ctx).Warn("work order released after processing gave up",
		"application_id", applicationID, "work_order_id", wo.ID)
	return nil
}

// Analyze runs coverage analysis without storing anything.
func (s *ApplicationService) Analyze(ctx context.Context, in coverage.Input) coverage.Outcome {
	_, span := tracer.Start(ctx, "coverage.Run")
	defer span.End()

	start := time.Now()
	outcome := coverage.Run(in)

	span.SetAttributes(attribute.String("coverage.status", outcome.Status))
	if r := outcome.Result; r != nil {
		span.SetAttributes(
			attribute.Int("coverage.points", r.PointCount),
			attribute.Float64("coverage.applied_ha", r.AppliedHa),
			attribute.Float64("coverage.percent", r.CoveragePercent),
		)
		metrics.ObserveCoverage(outcome.Status, "", time.Since(start), r.PointCount,
			r.AppliedHa, r.CorrectHa, r.WasteHa, r.MissedHa, r.CoveragePercent)
	} else {
		span.SetAttributes(attribute.String("coverage.failure_kind", string(outcome.Failure.Kind)))
		metrics.ObserveCoverage(outcome.Status, string(outcome.Failure.Kind), time.Since(start), 0, 0, 0, 0, 0, 0)
	}
	return outcome
}

// GetByID returns a single application with its coverage result.
func (s *ApplicationService) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	cacheKey := ApplicationCacheKey(id)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var app domain.Application
			if err := json.Unmarshal(data, &app); err == nil {
				metrics.CacheHits.WithLabelValues("application").Inc()
				return &app, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("application").Inc()
	}

	app, err := s.apps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Only finished applications are stable enough to cache.
	if s.cache != nil && app.Status != domain.ApplicationProcessing {
		if data, err := json.Marshal(app); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, 600)
		}
	}
	return app, nil
}

// List returns application summaries matching the filter.
func (s *ApplicationService) List(ctx context.Context, filter domain.ApplicationFilter) ([]domain.ApplicationSummary, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.apps.List(ctx, filter)
}

// Forget drops cached copies of what a coverage event changed.
func (s *ApplicationService) Forget(ctx context.Context, event *domain.CoverageEvent) {
	s.forget(ctx, ApplicationCacheKey(event.ApplicationID), WorkOrderCacheKey(event.WorkOrderID))
}

func (s *ApplicationService) forget(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	for _, k := range keys {
		_ = s.cache.Delete(ctx, k)
	}
}

// Targets returns the boundaries of the fields that have one.
func Targets(fields []domain.Field) []orb.Geometry {
	targets := make([]orb.Geometry, 0, len(fields))
	for _, f := range fields {
		if f.Boundary == nil {
			continue
		}
		targets = append(targets, f.Boundary.Geometry())
	}
	return targets
}

func pointsFor(source domain.LogSource, payload []byte) ([]orb.Point, error) {
	switch source {
	case domain.SourceGeoJSON:
		return coverage.PointsFromGeoJSON(payload)
	case domain.SourcePolyline:
		return coverage.PointsFromPolyline(string(payload))
	default:
		return coverage.ParseLog(payload), nil
	}
}

func newCoverageEvent(app *domain.Application, wo *domain.WorkOrder, at time.Time) *domain.CoverageEvent {
	ev := &domain.CoverageEvent{
		ID:            uuid.NewString(),
		ApplicationID: app.ID,
		WorkOrderID:   wo.ID,
		FarmID:        wo.FarmID,
		Status:        app.Status,
		Time:          at,
	}
	if r := app.Coverage; r != nil {
		ev.AppliedHa = r.AppliedHa
		ev.CorrectHa = r.CorrectHa
		ev.WasteHa = r.WasteHa
		ev.MissedHa = r.MissedHa
		ev.CoveragePercent = r.CoveragePercent
	}
	if app.Failure != nil {
		ev.FailureKind = app.Failure.Kind
	}
	return ev
}
