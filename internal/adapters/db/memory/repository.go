// Package memory is an in-process implementation of the repository ports,
// used by the simulator setup and by tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang-ussd-gateway/internal/domain"

	"github.com/google/uuid"
)

// Repository implements ports.ExecutionRepository and ports.CodeRepository.
type Repository struct {
	mu         sync.RWMutex
	executions []domain.Execution
	codes      map[uuid.UUID]domain.Code
}

// New returns an empty Repository.
func New() *Repository {
	return &Repository{codes: make(map[uuid.UUID]domain.Code)}
}

// SaveExecution appends e to the history.
func (r *Repository) SaveExecution(_ context.Context, e domain.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executions = append(r.executions, e)
	return nil
}

// ListExecutions returns up to limit executions, most recent first.
func (r *Repository) ListExecutions(_ context.Context, limit int) ([]domain.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Execution, 0, min(limit, len(r.executions)))
	for i := len(r.executions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.executions[i])
	}
	return out, nil
}

// SaveCode inserts c.
func (r *Repository) SaveCode(_ context.Context, c domain.Code) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codes[c.ID] = c
	return nil
}

// GetCode returns the entry with id or domain.ErrCodeNotFound.
func (r *Repository) GetCode(_ context.Context, id uuid.UUID) (*domain.Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.codes[id]
	if !ok {
		return nil, domain.ErrCodeNotFound
	}
	return &c, nil
}

// ListCodes returns every entry ordered by creation time.
func (r *Repository) ListCodes(_ context.Context) ([]domain.Code, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Code, 0, len(r.codes))
	for _, c := range r.codes {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// DeleteCode removes the entry with id or returns domain.ErrCodeNotFound.
func (r *Repository) DeleteCode(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[id]; !ok {
		return domain.ErrCodeNotFound
	}
	delete(r.codes, id)
	return nil
}

// RecordCodeResult updates the execution fields of an entry.
func (r *Repository) RecordCodeResult(_ context.Context, id uuid.UUID, status domain.CodeStatus, result string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.codes[id]
	if !ok {
		return domain.ErrCodeNotFound
	}
	c.Status = status
	c.Result = result
	c.LastExecutedAt = &at
	c.UpdatedAt = at
	r.codes[id] = c
	return nil
}
