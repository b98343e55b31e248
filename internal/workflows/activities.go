package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// ApplicationProcessor is the part of the application service the
// activities drive.
type ApplicationProcessor interface {
	Process(ctx context.Context, applicationID string) (*domain.Application, error)
	Release(ctx context.Context, applicationID string) error
}

// ProcessingActivities holds the activity implementations for the flight
// log workflow.
type ProcessingActivities struct {
	Applications ApplicationProcessor
}

// ProcessingSummary is what ProcessApplication reports back to the workflow.
type ProcessingSummary struct {
	Status          string
	FailureKind     string
	CoveragePercent float64
}

// ProcessApplication runs coverage analysis for one application. A missing
// application is not retried.
func (a *ProcessingActivities) ProcessApplication(ctx context.Context, applicationID string) (ProcessingSummary, error) {
	app, err := a.Applications.Process(ctx, applicationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ProcessingSummary{}, temporal.NewNonRetryableApplicationError(err.Error(), "NotFound", err)
		}
		return ProcessingSummary{}, fmt.Errorf("process application: %w", err)
	}

	sum := ProcessingSummary{Status: string(app.Status)}
	if app.Coverage != nil {
		sum.CoveragePercent = app.Coverage.CoveragePercent
	}
	if app.Failure != nil {
		sum.FailureKind = string(app.Failure.Kind)
	}
	activity.GetLogger(ctx).Info("application processed", "applicationID", applicationID, "status", sum.Status)
	return sum, nil
}

// ReleaseWorkOrder is the compensation for a processing attempt that never
// produced an outcome.
func (a *ProcessingActivities) ReleaseWorkOrder(ctx context.Context, applicationID string) error {
	if err := a.Applications.Release(ctx, applicationID); err != nil {
		return fmt.Errorf("release work order for %s: %w", applicationID, err)
	}
	return nil
}
