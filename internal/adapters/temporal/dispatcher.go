// Package temporal dispatches flight log processing to a Temporal worker.
package temporal

import (
	"context"
	"fmt"
	"log/slog"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/workflows"
)

// Dispatcher implements ports.ProcessingDispatcher by starting a
// FlightLogWorkflow per application.
type Dispatcher struct {
	client    client.Client
	taskQueue string
}

// NewDispatcher creates a Dispatcher. An empty taskQueue uses
// workflows.TaskQueue.
func NewDispatcher(c client.Client, taskQueue string) *Dispatcher {
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}
	return &Dispatcher{client: c, taskQueue: taskQueue}
}

// Dispatch starts the workflow. Dispatching the same application twice while
// a run is open is rejected by Temporal.
func (d *Dispatcher) Dispatch(ctx context.Context, applicationID string) error {
	opts := client.StartWorkflowOptions{
		ID:                    workflows.WorkflowID(applicationID),
		TaskQueue:             d.taskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
	}
	run, err := d.client.ExecuteWorkflow(ctx, opts, workflows.FlightLogWorkflow,
		workflows.FlightLogInput{ApplicationID: applicationID})
	if err != nil {
		return fmt.Errorf("start flight log workflow: %w", err)
	}
	slog.Info("flight log workflow started", "application_id", applicationID,
		"workflow_id", run.GetID(), "run_id", run.GetRunID())
	return nil
}
