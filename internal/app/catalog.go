package app

import (
	"context"
	"fmt"

	"golang-ussd-gateway/internal/domain"

	"github.com/google/uuid"
)

// AddCode validates and stores a new catalog entry.
func (s *USSDService) AddCode(ctx context.Context, p domain.NewCodeParams) (domain.Code, error) {
	code, err := domain.NewCode(p)
	if err != nil {
		return domain.Code{}, err
	}

	if err := s.codes.SaveCode(ctx, code); err != nil {
		return domain.Code{}, fmt.Errorf("save code: %w", err)
	}

	s.log.Info("ussd code added", "code_id", code.ID, "name", code.Name, "type", code.Type)
	return code, nil
}

// ListCodes returns the whole catalog.
func (s *USSDService) ListCodes(ctx context.Context) ([]domain.Code, error) {
	codes, err := s.codes.ListCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list codes: %w", err)
	}
	return codes, nil
}

// DeleteCode removes a catalog entry.
func (s *USSDService) DeleteCode(ctx context.Context, id uuid.UUID) error {
	if err := s.codes.DeleteCode(ctx, id); err != nil {
		return fmt.Errorf("delete code: %w", err)
	}
	s.log.Info("ussd code deleted", "code_id", id)
	return nil
}

// ExecuteCode dispatches a catalog entry on its stored SIM slot and records
// the result against it. Rejections follow SendRequest.
func (s *USSDService) ExecuteCode(ctx context.Context, id uuid.UUID) (SendResult, error) {
	code, err := s.codes.GetCode(ctx, id)
	if err != nil {
		return SendResult{}, fmt.Errorf("get code: %w", err)
	}

	req, err := domain.NewRequest(code.Code, &code.SimSlot)
	if err != nil {
		return SendResult{}, err
	}
	if err := s.authorize(); err != nil {
		return SendResult{}, err
	}

	exec := s.run(ctx, req, &code.ID)
	s.recordCodeResult(ctx, code.ID, exec)
	return NewSendResult(exec.Outcome()), nil
}

// EnqueueCode queues a catalog entry for a worker. The worker records the
// outcome on the entry once the job has run.
func (s *USSDService) EnqueueCode(ctx context.Context, id uuid.UUID) (domain.Job, error) {
	code, err := s.codes.GetCode(ctx, id)
	if err != nil {
		return domain.Job{}, fmt.Errorf("get code: %w", err)
	}
	if s.jobs == nil {
		return domain.Job{}, ErrQueueUnavailable
	}

	job := domain.NewCodeJob(*code)
	if err := s.jobs.PublishJob(ctx, job); err != nil {
		return domain.Job{}, fmt.Errorf("publish job: %w", err)
	}

	s.log.Info("ussd code job queued", "job_id", job.ID, "code_id", code.ID, "code", job.Code)
	return job, nil
}

func (s *USSDService) recordCodeResult(ctx context.Context, id uuid.UUID, exec domain.Execution) {
	text := exec.Result
	if !exec.Success {
		text = exec.Error
	}

	status := domain.StatusFor(exec.Outcome())
	if err := s.codes.RecordCodeResult(context.WithoutCancel(ctx), id, status, text, exec.ExecutedAt); err != nil {
		s.log.Error("record code result failed", "code_id", id, "err", err)
	}
}
