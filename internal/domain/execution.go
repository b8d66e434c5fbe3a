package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Execution is the stored record of one dispatched USSD request.
type Execution struct {
	ID         uuid.UUID
	CodeID     *uuid.UUID // catalog entry that triggered it, if any
	Code       string
	SimSlot    int
	Strategy   string
	Success    bool
	Result     string
	Error      string
	Duration   time.Duration
	ExecutedAt time.Time
}

// NewExecution records out as the result of req.
func NewExecution(req Request, out Outcome, strategy string, took time.Duration) Execution {
	return Execution{
		ID:         uuid.New(),
		Code:       req.Code,
		SimSlot:    req.SimSlot,
		Strategy:   strategy,
		Success:    out.Success,
		Result:     out.Result,
		Error:      out.Error,
		Duration:   took,
		ExecutedAt: time.Now().UTC(),
	}
}

// Outcome returns the outcome the execution recorded.
func (e Execution) Outcome() Outcome {
	return Outcome{Success: e.Success, Result: e.Result, Error: e.Error}
}

// Job is a USSD request queued for asynchronous dispatch by a worker.
type Job struct {
	ID         uuid.UUID
	CodeID     *uuid.UUID
	Code       string
	SimSlot    int
	EnqueuedAt time.Time
}

// NewJob wraps a validated request for the queue.
func NewJob(req Request) Job {
	return Job{
		ID:         uuid.New(),
		Code:       req.Code,
		SimSlot:    req.SimSlot,
		EnqueuedAt: time.Now().UTC(),
	}
}

// NewCodeJob queues a catalog entry; the worker records the result on it.
func NewCodeJob(c Code) Job {
	id := c.ID
	job := NewJob(Request{Code: c.Code, SimSlot: c.SimSlot})
	job.CodeID = &id
	return job
}

// Request rebuilds the dispatch request carried by the job.
func (j Job) Request() Request {
	return Request{Code: j.Code, SimSlot: j.SimSlot}
}

var ErrExecutionNotFound = errors.New("execution not found")
