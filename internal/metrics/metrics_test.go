package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDispatch(t *testing.T) {
	before := testutil.ToFloat64(DispatchTotal.WithLabelValues("callback", "timeout"))

	RecordDispatch("callback", "timeout", 30*time.Second)

	after := testutil.ToFloat64(DispatchTotal.WithLabelValues("callback", "timeout"))
	if after-before != 1 {
		t.Fatalf("dispatch counter delta = %v, want 1", after-before)
	}
}

func TestRecordRejection(t *testing.T) {
	before := testutil.ToFloat64(RejectionsTotal.WithLabelValues("permission_denied"))

	RecordRejection("permission_denied")
	RecordRejection("permission_denied")

	after := testutil.ToFloat64(RejectionsTotal.WithLabelValues("permission_denied"))
	if after-before != 2 {
		t.Fatalf("rejection counter delta = %v, want 2", after-before)
	}
}

func TestRecordLateEvent(t *testing.T) {
	before := testutil.ToFloat64(LateEventsTotal)
	RecordLateEvent()
	if got := testutil.ToFloat64(LateEventsTotal) - before; got != 1 {
		t.Fatalf("late event delta = %v, want 1", got)
	}
}
