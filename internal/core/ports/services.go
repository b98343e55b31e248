package ports

import (
	"context"

	"github.com/CARLOSHGN-PC/AgroVetor-sub001/internal/core/domain"
)

// EventPublisher publishes domain events to a message broker.
type EventPublisher interface {
	PublishCoverageEvent(ctx context.Context, event *domain.CoverageEvent) error
}

// EventSubscriber subscribes to domain events from a message broker.
type EventSubscriber interface {
	SubscribeCoverageEvents(ctx context.Context, handler func(ctx context.Context, event *domain.CoverageEvent) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// CoverageRecorder stores coverage figures as time series for dashboards.
type CoverageRecorder interface {
	RecordCoverage(ctx context.Context, event *domain.CoverageEvent) error
}

// ProcessingDispatcher schedules the processing of a submitted application.
type ProcessingDispatcher interface {
	Dispatch(ctx context.Context, applicationID string) error
}
