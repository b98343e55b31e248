package usecases

import (
	"context"
	"log/slog"
	"time"
)

// Processor processes a submitted application.
type Processor interface {
	Process(ctx context.Context, applicationID string) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, applicationID string) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, applicationID string) error {
	return f(ctx, applicationID)
}

// InlineDispatcher processes applications in background goroutines of the
// current process, at most limit at a time.
type InlineDispatcher struct {
	processor Processor
	sem       chan struct{}
	timeout   time.Duration
}

// NewInlineDispatcher creates an InlineDispatcher.
func NewInlineDispatcher(p Processor, limit int, timeout time.Duration) *InlineDispatcher {
	if limit <= 0 {
		limit = 4
	}
	return &InlineDispatcher{processor: p, sem: make(chan struct{}, limit), timeout: timeout}
}

// Dispatch starts processing and returns immediately. Processing outlives
// the caller's context.
func (d *InlineDispatcher) Dispatch(ctx context.Context, applicationID string) error {
	bg := context.WithoutCancel(ctx)
	go func() {
		d.sem <- struct{}{}
		defer func() { <-d.sem }()

		if d.timeout > 0 {
			var cancel context.CancelFunc
			bg, cancel = context.WithTimeout(bg, d.timeout)
			defer cancel()
		}
		if err := d.processor.Process(bg, applicationID); err != nil {
			slog.Error("process application", "application_id", applicationID, "error", err)
		}
	}()
	return nil
}
