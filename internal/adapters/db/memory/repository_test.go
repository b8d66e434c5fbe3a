package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang-ussd-gateway/internal/domain"

	"github.com/google/uuid"
)

func TestListExecutionsMostRecentFirst(t *testing.T) {
	r := New()
	ctx := context.Background()

	for _, code := range []string{"*100#", "*101#", "*121#"} {
		e := domain.NewExecution(domain.Request{Code: code}, domain.Succeeded("ok"), "callback", time.Millisecond)
		if err := r.SaveExecution(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := r.ListExecutions(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Code != "*121#" || got[1].Code != "*101#" {
		t.Fatalf("got %+v", got)
	}
}

func TestCodeLifecycle(t *testing.T) {
	r := New()
	ctx := context.Background()

	c, err := domain.NewCode(domain.NewCodeParams{Name: "Balance", Code: "*100#", Type: domain.CodeTypeTopup})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.SaveCode(ctx, c); err != nil {
		t.Fatal(err)
	}

	at := time.Now().UTC()
	if err := r.RecordCodeResult(ctx, c.ID, domain.CodeStatusDone, "Your balance is 25.50 MAD", at); err != nil {
		t.Fatal(err)
	}

	got, err := r.GetCode(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.CodeStatusDone || got.Result != "Your balance is 25.50 MAD" || got.LastExecutedAt == nil {
		t.Fatalf("got %+v", got)
	}

	if err := r.DeleteCode(ctx, c.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := r.GetCode(ctx, c.ID); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("GetCode after delete: err = %v", err)
	}
	if err := r.DeleteCode(ctx, uuid.New()); !errors.Is(err, domain.ErrCodeNotFound) {
		t.Fatalf("DeleteCode unknown: err = %v", err)
	}
}
