package app

import (
	"context"
	"errors"
	"testing"

	"golang-ussd-gateway/internal/domain"

	"github.com/google/uuid"
)

func TestAddCodeValidates(t *testing.T) {
	f := newFixture(domain.Outcome{})

	_, err := f.svc.AddCode(context.Background(), domain.NewCodeParams{Name: "Balance", Code: "*100#", Type: "OTHER"})
	if !errors.Is(err, domain.ErrInvalidCode) {
		t.Fatalf("err = %v, want ErrInvalidCode", err)
	}

	codes, _ := f.svc.ListCodes(context.Background())
	if len(codes) != 0 {
		t.Fatal("invalid code stored")
	}
}

func TestExecuteCodeRecordsResult(t *testing.T) {
	f := newFixture(domain.Succeeded("Recharge successful. New balance: 50.00 MAD"))
	ctx := context.Background()

	code, err := f.svc.AddCode(ctx, domain.NewCodeParams{Name: "Recharge", Code: "*101#", Type: domain.CodeTypeTopup, SimSlot: 1})
	if err != nil {
		t.Fatalf("AddCode: %v", err)
	}

	res, err := f.svc.ExecuteCode(ctx, code.ID)
	if err != nil {
		t.Fatalf("ExecuteCode: %v", err)
	}
	if !res.Success {
		t.Fatalf("got %+v", res)
	}
	if f.engine.calls[0] != (domain.Request{Code: "*101#", SimSlot: 1}) {
		t.Fatalf("engine calls = %+v", f.engine.calls)
	}

	stored, err := f.repo.GetCode(ctx, code.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.CodeStatusDone || stored.Result != "Recharge successful. New balance: 50.00 MAD" || stored.LastExecutedAt == nil {
		t.Fatalf("stored = %+v", stored)
	}

	execs, _ := f.repo.ListExecutions(ctx, 1)
	if len(execs) != 1 || execs[0].CodeID == nil || *execs[0].CodeID != code.ID {
		t.Fatalf("execution not linked to code: %+v", execs)
	}
}

func TestExecuteCodeFailureMarksError(t *testing.T) {
	f := newFixture(domain.Failed(domain.FailureMessage(-1)))
	ctx := context.Background()

	code, _ := f.svc.AddCode(ctx, domain.NewCodeParams{Name: "Offers", Code: "*123*1#", Type: domain.CodeTypeActivation})
	if _, err := f.svc.ExecuteCode(ctx, code.ID); err != nil {
		t.Fatal(err)
	}

	stored, _ := f.repo.GetCode(ctx, code.ID)
	if stored.Status != domain.CodeStatusError || stored.Result != "USSD failed with code: -1" {
		t.Fatalf("stored = %+v", stored)
	}
}

func TestExecuteCodeRejections(t *testing.T) {
	f := newFixture(domain.Succeeded("unused"))
	ctx := context.Background()

	if _, err := f.svc.ExecuteCode(ctx, uuid.New()); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("unknown id: err = %v", err)
	}

	code, _ := f.svc.AddCode(ctx, domain.NewCodeParams{Name: "Balance", Code: "*100#", Type: domain.CodeTypeTopup})
	f.gate.granted = false
	if _, err := f.svc.ExecuteCode(ctx, code.ID); !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("denied: err = %v", err)
	}

	if len(f.engine.calls) != 0 {
		t.Fatal("telephony invoked for a rejected execution")
	}
	stored, _ := f.repo.GetCode(ctx, code.ID)
	if stored.Status != domain.CodeStatusPending {
		t.Fatalf("status = %q, want pending", stored.Status)
	}
}

func TestEnqueueCodeRecordsResultWhenWorkerRuns(t *testing.T) {
	f := newFixture(domain.Succeeded("Your balance is 25.50 MAD"))
	ctx := context.Background()

	code, err := f.svc.AddCode(ctx, domain.NewCodeParams{Name: "Balance", Code: "*100#", Type: domain.CodeTypeTopup, SimSlot: 1})
	if err != nil {
		t.Fatalf("AddCode: %v", err)
	}

	job, err := f.svc.EnqueueCode(ctx, code.ID)
	if err != nil {
		t.Fatalf("EnqueueCode: %v", err)
	}
	if len(f.jobs.jobs) != 1 || f.jobs.jobs[0].ID != job.ID {
		t.Fatalf("published = %+v", f.jobs.jobs)
	}
	if job.CodeID == nil || *job.CodeID != code.ID || job.Code != "*100#" || job.SimSlot != 1 {
		t.Fatalf("job = %+v", job)
	}
	if len(f.engine.calls) != 0 {
		t.Fatal("enqueue dispatched synchronously")
	}

	if err := f.svc.HandleJob(ctx, f.jobs.jobs[0]); err != nil {
		t.Fatalf("HandleJob: %v", err)
	}

	stored, err := f.repo.GetCode(ctx, code.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.Status != domain.CodeStatusDone || stored.Result != "Your balance is 25.50 MAD" || stored.LastExecutedAt == nil {
		t.Fatalf("stored = %+v", stored)
	}
	execs, _ := f.repo.ListExecutions(ctx, 1)
	if len(execs) != 1 || execs[0].CodeID == nil || *execs[0].CodeID != code.ID {
		t.Fatalf("execution not linked to code: %+v", execs)
	}
}

func TestEnqueueCodeRejections(t *testing.T) {
	f := newFixture(domain.Succeeded("unused"))
	ctx := context.Background()

	if _, err := f.svc.EnqueueCode(ctx, uuid.New()); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("unknown id: err = %v", err)
	}
	if len(f.jobs.jobs) != 0 {
		t.Fatal("job published for unknown code")
	}
}

func TestDeleteCode(t *testing.T) {
	f := newFixture(domain.Outcome{})
	ctx := context.Background()

	code, _ := f.svc.AddCode(ctx, domain.NewCodeParams{Name: "Balance", Code: "*100#", Type: domain.CodeTypeTopup})
	if err := f.svc.DeleteCode(ctx, code.ID); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteCode(ctx, code.ID); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("second delete: err = %v", err)
	}
}
