package workflows

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/coverage"
	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

func TestFlightLogWorkflow_Success(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterActivity(&ProcessingActivities{})

	env.OnActivity("ProcessApplication", mock.Anything, "app-1").
		Return(ProcessingSummary{Status: coverage.StatusCompleted, CoveragePercent: 97.5}, nil)

	env.ExecuteWorkflow(FlightLogWorkflow, FlightLogInput{ApplicationID: "app-1"})

	require.True(t, env.IsWorkflowCompleted())
	require.NoError(t, env.GetWorkflowError())

	var sum ProcessingSummary
	require.NoError(t, env.GetWorkflowResult(&sum))
	assert.Equal(t, coverage.StatusCompleted, sum.Status)
	assert.InDelta(t, 97.5, sum.CoveragePercent, 1e-9)
}

func TestFlightLogWorkflow_ReleasesOnFailure(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestWorkflowEnvironment()
	env.RegisterActivity(&ProcessingActivities{})

	env.OnActivity("ProcessApplication", mock.Anything, "app-1").
		Return(ProcessingSummary{}, errors.New("database unavailable"))
	released := false
	env.OnActivity("ReleaseWorkOrder", mock.Anything, "app-1").
		Return(func(ctx context.Context, id string) error {
			released = true
			return nil
		})

	env.ExecuteWorkflow(FlightLogWorkflow, FlightLogInput{ApplicationID: "app-1"})

	require.True(t, env.IsWorkflowCompleted())
	assert.Error(t, env.GetWorkflowError())
	assert.True(t, released)
}

type stubProcessor struct {
	app        *domain.Application
	err        error
	releasedID string
}

func (s *stubProcessor) Process(ctx context.Context, id string) (*domain.Application, error) {
	return s.app, s.err
}

func (s *stubProcessor) Release(ctx context.Context, id string) error {
	s.releasedID = id
	return nil
}

func TestProcessApplication_Summary(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(&ProcessingActivities{Applications: &stubProcessor{app: &domain.Application{
		Status:  domain.ApplicationFailed,
		Failure: &coverage.Failure{Kind: coverage.KindInsufficientLogData},
	}}})

	val, err := env.ExecuteActivity("ProcessApplication", "app-1")
	require.NoError(t, err)

	var sum ProcessingSummary
	require.NoError(t, val.Get(&sum))
	assert.Equal(t, string(domain.ApplicationFailed), sum.Status)
	assert.Equal(t, string(coverage.KindInsufficientLogData), sum.FailureKind)
}

func TestProcessApplication_NotFoundIsNotRetried(t *testing.T) {
	var ts testsuite.WorkflowTestSuite
	env := ts.NewTestActivityEnvironment()
	env.RegisterActivity(&ProcessingActivities{Applications: &stubProcessor{
		err: errors.Join(errors.New("application app-1"), domain.ErrNotFound),
	}})

	_, err := env.ExecuteActivity("ProcessApplication", "app-1")
	var appErr *temporal.ApplicationError
	require.ErrorAs(t, err, &appErr)
	assert.True(t, appErr.NonRetryable())
	assert.Equal(t, "NotFound", appErr.Type())
}

func TestWorkflowID(t *testing.T) {
	assert.Equal(t, "flight-log-abc", WorkflowID("abc"))
}
