package ports

import (
	"context"
	"time"

	"golang-ussd-gateway/internal/domain"

	"github.com/google/uuid"
)

// ExecutionRepository stores the history of dispatched USSD requests.
type ExecutionRepository interface {
	// SaveExecution persists a finished execution.
	SaveExecution(ctx context.Context, e domain.Execution) error

	// ListExecutions returns up to limit executions, most recent first.
	ListExecutions(ctx context.Context, limit int) ([]domain.Execution, error)
}

// CodeRepository stores the catalog of saved USSD codes.
type CodeRepository interface {
	// SaveCode inserts a new catalog entry.
	SaveCode(ctx context.Context, c domain.Code) error

	// GetCode retrieves a catalog entry by ID.
	GetCode(ctx context.Context, id uuid.UUID) (*domain.Code, error)

	// ListCodes returns every catalog entry, oldest first.
	ListCodes(ctx context.Context) ([]domain.Code, error)

	// DeleteCode removes a catalog entry.
	DeleteCode(ctx context.Context, id uuid.UUID) error

	// RecordCodeResult stores the status and result of the latest execution.
	RecordCodeResult(ctx context.Context, id uuid.UUID, status domain.CodeStatus, result string, at time.Time) error
}
