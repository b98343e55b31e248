package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// TaskQueue is the default queue the processor worker polls.
const TaskQueue = "flight-log-processing"

// FlightLogInput is the input for the flight log workflow.
type FlightLogInput struct {
	ApplicationID string
}

// WorkflowID is the deterministic workflow ID for an application, so a
// duplicate dispatch does not start a second run.
func WorkflowID(applicationID string) string {
	return "flight-log-" + applicationID
}

// FlightLogWorkflow processes a submitted flight log. If processing keeps
// failing, the work order is released (saga compensation) so a new log can
// be submitted.
func FlightLogWorkflow(ctx workflow.Context, input FlightLogInput) (ProcessingSummary, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting flight log workflow", "applicationID", input.ApplicationID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 2 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: 5 * time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var summary ProcessingSummary
	err := workflow.ExecuteActivity(ctx, "ProcessApplication", input.ApplicationID).Get(ctx, &summary)
	if err != nil {
		logger.Warn("processing failed, releasing work order", "error", err)
		_ = workflow.ExecuteActivity(ctx, "ReleaseWorkOrder", input.ApplicationID).Get(ctx, nil)
		return ProcessingSummary{}, err
	}

	logger.Info("Flight log processed", "status", summary.Status, "coveragePercent", summary.CoveragePercent)
	return summary, nil
}
