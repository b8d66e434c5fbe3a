package ports

import (
	"context"

	"golang-ussd-gateway/internal/domain"
)

// JobPublisher enqueues USSD jobs for a worker.
type JobPublisher interface {
	PublishJob(ctx context.Context, job domain.Job) error
}

// JobConsumer delivers queued jobs.
type JobConsumer interface {
	// Consume passes each job to handler.
	// Blocks until ctx is cancelled or a fatal error occurs.
	Consume(ctx context.Context, handler func(ctx context.Context, job domain.Job) error) error
}

// OutcomePublisher fans finished executions out to interested consumers.
type OutcomePublisher interface {
	PublishOutcome(ctx context.Context, e domain.Execution) error
}
