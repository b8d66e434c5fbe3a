package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang-ussd-gateway/internal/domain"
	"golang-ussd-gateway/internal/metrics"
	"golang-ussd-gateway/internal/ports"

	"github.com/google/uuid"
)

// Engine dispatches a validated, permitted USSD request.
type Engine interface {
	Dispatch(ctx context.Context, req domain.Request) domain.Outcome
	Strategy() string
}

// Gate reports the live permission state.
type Gate interface {
	HasRequiredPermissions() bool
	Missing() []domain.Permission
}

// Resolver maps a SIM slot to its subscription.
type Resolver interface {
	Resolve(ctx context.Context, slot int) domain.Subscription
}

// Deps are the collaborators of USSDService. Requester, Jobs and Outcomes
// are optional.
type Deps struct {
	Engine     Engine
	Gate       Gate
	Resolver   Resolver
	Requester  ports.PermissionRequester
	Executions ports.ExecutionRepository
	Codes      ports.CodeRepository
	Jobs       ports.JobPublisher
	Outcomes   ports.OutcomePublisher
}

// USSDService is the entry point for every USSD operation. It validates
// input, enforces permissions and turns engine outcomes into call results.
type USSDService struct {
	engine     Engine
	gate       Gate
	resolver   Resolver
	requester  ports.PermissionRequester
	executions ports.ExecutionRepository
	codes      ports.CodeRepository
	jobs       ports.JobPublisher
	outcomes   ports.OutcomePublisher
	log        *slog.Logger
}

// NewUSSDService wires the service with its dependencies.
func NewUSSDService(deps Deps, log *slog.Logger) *USSDService {
	return &USSDService{
		engine:     deps.Engine,
		gate:       deps.Gate,
		resolver:   deps.Resolver,
		requester:  deps.Requester,
		executions: deps.Executions,
		codes:      deps.Codes,
		jobs:       deps.Jobs,
		outcomes:   deps.Outcomes,
		log:        log,
	}
}

var ErrQueueUnavailable = errors.New("job queue not configured")

// SendRequestInput is the input of SendRequest. A nil SimSlot selects slot 0.
type SendRequestInput struct {
	Code    string
	SimSlot *int
}

// SendResult is the flattened outcome returned to callers.
type SendResult struct {
	Success bool    `json:"success"`
	Result  *string `json:"result,omitempty"`
	Error   *string `json:"error,omitempty"`
}

// NewSendResult flattens out.
func NewSendResult(out domain.Outcome) SendResult {
	res := SendResult{Success: out.Success}
	if out.Success {
		res.Result = &out.Result
	} else {
		res.Error = &out.Error
	}
	return res
}

// SendRequest dispatches a USSD code. It returns an error only for
// rejections (missing code, missing permissions); every dispatched request
// resolves with a SendResult, failed or not.
//
// On legacy platforms a successful result only acknowledges that the native
// dialer was opened. The carrier reply is not observable there.
func (s *USSDService) SendRequest(ctx context.Context, in SendRequestInput) (SendResult, error) {
	req, err := domain.NewRequest(in.Code, in.SimSlot)
	if err != nil {
		metrics.RecordRejection("code_required")
		return SendResult{}, err
	}

	if err := s.authorize(); err != nil {
		return SendResult{}, err
	}

	exec := s.run(ctx, req, nil)
	return NewSendResult(exec.Outcome()), nil
}

func (s *USSDService) authorize() error {
	if !s.gate.HasRequiredPermissions() {
		metrics.RecordRejection("permission_denied")
		s.log.Warn("ussd request rejected", "reason", "permission_denied", "missing", s.gate.Missing())
		return domain.ErrPermissionDenied
	}
	return nil
}

// run dispatches req and records the execution. Storage and fan-out
// failures are logged; they never change the outcome.
func (s *USSDService) run(ctx context.Context, req domain.Request, codeID *uuid.UUID) domain.Execution {
	start := time.Now()
	out := s.engine.Dispatch(ctx, req)
	exec := domain.NewExecution(req, out, s.engine.Strategy(), time.Since(start))
	exec.CodeID = codeID

	// The caller's context may already be done after a long wait; history
	// is written regardless.
	storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := s.executions.SaveExecution(storeCtx, exec); err != nil {
		s.log.Error("save execution failed", "execution_id", exec.ID, "err", err)
	}
	if s.outcomes != nil {
		if err := s.outcomes.PublishOutcome(storeCtx, exec); err != nil {
			s.log.Error("publish outcome failed", "execution_id", exec.ID, "err", err)
		}
	}

	s.log.Info("ussd request completed",
		"execution_id", exec.ID,
		"code", exec.Code,
		"sim_slot", exec.SimSlot,
		"success", exec.Success,
	)
	return exec
}

// SubscriptionInfo is the call result of GetSubscriptionInfo.
type SubscriptionInfo struct {
	IsActive    bool   `json:"isActive"`
	Carrier     string `json:"carrier,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	SimSlot     int    `json:"simSlot"`
	Error       string `json:"error,omitempty"`
}

// GetSubscriptionInfo reports the subscription for simSlot (slot 0 when
// nil). It always resolves; query failures are embedded in Error.
func (s *USSDService) GetSubscriptionInfo(ctx context.Context, simSlot *int) SubscriptionInfo {
	slot := domain.DefaultSimSlot
	if simSlot != nil {
		slot = *simSlot
	}

	sub := s.resolver.Resolve(ctx, slot)
	return SubscriptionInfo{
		IsActive:    sub.Active,
		Carrier:     sub.Carrier,
		PhoneNumber: sub.PhoneNumber,
		SimSlot:     sub.SimSlot,
		Error:       sub.Error,
	}
}

// PermissionStatus is the call result of the permission operations.
type PermissionStatus struct {
	Granted bool `json:"granted"`
}

// CheckPermissionStatus reports the live permission state.
func (s *USSDService) CheckPermissionStatus() PermissionStatus {
	return PermissionStatus{Granted: s.gate.HasRequiredPermissions()}
}

// RequestPermissions shows the platform prompt and reports the permission
// state once the user has decided. If the prompt cannot be shown, or ctx
// ends first, the current state is reported.
func (s *USSDService) RequestPermissions(ctx context.Context) PermissionStatus {
	if s.requester == nil {
		return s.CheckPermissionStatus()
	}

	decided := make(chan struct{})
	var once sync.Once
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("permission prompt panicked: %v", r)
			}
		}()
		return s.requester.RequestPermissions(ctx, domain.RequiredPermissions, func() {
			once.Do(func() { close(decided) })
		})
	}()
	if err != nil {
		s.log.Warn("permission request failed", "err", err)
		return s.CheckPermissionStatus()
	}

	select {
	case <-decided:
	case <-ctx.Done():
		s.log.Warn("permission request abandoned", "err", ctx.Err())
	}
	return s.CheckPermissionStatus()
}

// EnqueueJob validates in and queues it for a worker.
func (s *USSDService) EnqueueJob(ctx context.Context, in SendRequestInput) (domain.Job, error) {
	req, err := domain.NewRequest(in.Code, in.SimSlot)
	if err != nil {
		metrics.RecordRejection("code_required")
		return domain.Job{}, err
	}
	if s.jobs == nil {
		return domain.Job{}, ErrQueueUnavailable
	}

	job := domain.NewJob(req)
	if err := s.jobs.PublishJob(ctx, job); err != nil {
		return domain.Job{}, fmt.Errorf("publish job: %w", err)
	}

	s.log.Info("ussd job queued", "job_id", job.ID, "code", job.Code, "sim_slot", job.SimSlot)
	return job, nil
}

// HandleJob runs a queued job. Rejections are returned so the worker can
// drop the job; they are never retried.
func (s *USSDService) HandleJob(ctx context.Context, job domain.Job) error {
	req, err := domain.NewRequest(job.Code, &job.SimSlot)
	if err != nil {
		metrics.RecordRejection("code_required")
		return fmt.Errorf("job %s: %w", job.ID, err)
	}
	if err := s.authorize(); err != nil {
		return fmt.Errorf("job %s: %w", job.ID, err)
	}

	exec := s.run(ctx, req, job.CodeID)
	if job.CodeID != nil {
		s.recordCodeResult(ctx, *job.CodeID, exec)
	}
	return nil
}

// ListExecutions returns up to limit recent executions.
func (s *USSDService) ListExecutions(ctx context.Context, limit int) ([]domain.Execution, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	execs, err := s.executions.ListExecutions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	return execs, nil
}
