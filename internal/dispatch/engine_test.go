package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang-ussd-gateway/internal/domain"
	"golang-ussd-gateway/internal/metrics"
	"golang-ussd-gateway/internal/ports"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type apiLevel int

func (a apiLevel) APILevel() int { return int(a) }

type senderFunc func(ctx context.Context, slot int, code string, cb ports.USSDCallback) error

func (f senderFunc) SendUSSDRequest(ctx context.Context, slot int, code string, cb ports.USSDCallback) error {
	return f(ctx, slot, code, cb)
}

type fakeDialer struct {
	canHandle bool
	launchErr error
	launched  []ports.DialIntent
}

func (d *fakeDialer) CanHandle(ports.DialIntent) bool { return d.canHandle }

func (d *fakeDialer) Launch(intent ports.DialIntent) error {
	d.launched = append(d.launched, intent)
	return d.launchErr
}

func newCallbackEngine(t *testing.T, s ports.USSDSender, timeout time.Duration) *Engine {
	t.Helper()
	e, err := New(apiLevel(33), s, nil, WithTimeout(timeout))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

var balanceReq = domain.Request{Code: "*100#", SimSlot: 0}

func TestNewSelectsStrategyByAPILevel(t *testing.T) {
	sender := senderFunc(func(context.Context, int, string, ports.USSDCallback) error { return nil })
	dialer := &fakeDialer{}

	tests := []struct {
		level int
		want  string
	}{
		{21, StrategyDialer},
		{25, StrategyDialer},
		{26, StrategyCallback},
		{34, StrategyCallback},
	}

	for _, tt := range tests {
		e, err := New(apiLevel(tt.level), sender, dialer)
		if err != nil {
			t.Fatalf("New(api %d): %v", tt.level, err)
		}
		if got := e.Strategy(); got != tt.want {
			t.Errorf("api %d: strategy = %q, want %q", tt.level, got, tt.want)
		}
	}
}

func TestNewRequiresSelectedHandle(t *testing.T) {
	if _, err := New(apiLevel(30), nil, &fakeDialer{}); err == nil {
		t.Error("callback platform without sender: expected error")
	}
	if _, err := New(apiLevel(23), senderFunc(nil), nil); err == nil {
		t.Error("legacy platform without dialer: expected error")
	}
	if _, err := New(nil, senderFunc(nil), &fakeDialer{}); err == nil {
		t.Error("nil platform: expected error")
	}
	if _, err := New(apiLevel(30), senderFunc(nil), nil, WithTimeout(0)); err == nil {
		t.Error("zero timeout: expected error")
	}
}

func TestDefaultTimeout(t *testing.T) {
	if DefaultTimeout != 30*time.Second {
		t.Fatalf("DefaultTimeout = %s, want 30s", DefaultTimeout)
	}
}

func TestCallbackResponse(t *testing.T) {
	sender := senderFunc(func(_ context.Context, _ int, code string, cb ports.USSDCallback) error {
		go cb.OnResponse(code, "Your balance is 25.50 MAD")
		return nil
	})

	got := newCallbackEngine(t, sender, time.Second).Dispatch(context.Background(), balanceReq)

	want := domain.Outcome{Success: true, Result: "Your balance is 25.50 MAD"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestCallbackResponseBeforeSendReturns(t *testing.T) {
	sender := senderFunc(func(_ context.Context, _ int, code string, cb ports.USSDCallback) error {
		cb.OnResponse(code, "immediate")
		return nil
	})

	got := newCallbackEngine(t, sender, time.Second).Dispatch(context.Background(), balanceReq)
	if !got.Success || got.Result != "immediate" {
		t.Fatalf("got %+v", got)
	}
}

func TestCallbackFailureCode(t *testing.T) {
	for _, code := range []int{-1, -2, 7} {
		sender := senderFunc(func(_ context.Context, _ int, req string, cb ports.USSDCallback) error {
			go cb.OnFailure(req, code)
			return nil
		})

		got := newCallbackEngine(t, sender, time.Second).Dispatch(context.Background(), balanceReq)

		want := domain.Outcome{Success: false, Error: domain.FailureMessage(code)}
		if got != want {
			t.Fatalf("failure %d: got %+v, want %+v", code, got, want)
		}
	}
}

func TestCallbackTimeoutDiscardsLateEvents(t *testing.T) {
	var (
		mu sync.Mutex
		cb ports.USSDCallback
	)
	sender := senderFunc(func(_ context.Context, _ int, _ string, c ports.USSDCallback) error {
		mu.Lock()
		cb = c
		mu.Unlock()
		return nil
	})

	lateBefore := testutil.ToFloat64(metrics.LateEventsTotal)

	start := time.Now()
	got := newCallbackEngine(t, sender, 50*time.Millisecond).Dispatch(context.Background(), balanceReq)
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Fatalf("returned after %s, before the timeout", elapsed)
	}

	want := domain.Outcome{Success: false, Error: domain.MsgTimeout}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	mu.Lock()
	cb.OnResponse("*100#", "too late")
	cb.OnFailure("*100#", -1)
	mu.Unlock()

	if delta := testutil.ToFloat64(metrics.LateEventsTotal) - lateBefore; delta != 2 {
		t.Fatalf("late events recorded = %v, want 2", delta)
	}
}

func TestCallbackSendError(t *testing.T) {
	sender := senderFunc(func(context.Context, int, string, ports.USSDCallback) error {
		return errors.New("radio unavailable")
	})

	got := newCallbackEngine(t, sender, time.Second).Dispatch(context.Background(), balanceReq)

	want := domain.Outcome{Success: false, Error: "radio unavailable"}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestCallbackSendPanic(t *testing.T) {
	sender := senderFunc(func(context.Context, int, string, ports.USSDCallback) error {
		panic("telephony service died")
	})

	got := newCallbackEngine(t, sender, time.Second).Dispatch(context.Background(), balanceReq)
	if got.Success || got.Error != "telephony service died" {
		t.Fatalf("got %+v", got)
	}
}

func TestCallbackContextCancelled(t *testing.T) {
	sender := senderFunc(func(context.Context, int, string, ports.USSDCallback) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := newCallbackEngine(t, sender, time.Minute).Dispatch(ctx, balanceReq)
	if got.Success || got.Error != domain.MsgCancelled {
		t.Fatalf("got %+v", got)
	}
}

func TestCallbackFailureRacingTimeoutSettlesOnce(t *testing.T) {
	const timeout = 5 * time.Millisecond

	// The losing OnFailure calls land on the global late-event counter, so
	// they must finish before another test reads it.
	var carriers sync.WaitGroup
	defer carriers.Wait()

	for i := 0; i < 50; i++ {
		sender := senderFunc(func(_ context.Context, _ int, code string, cb ports.USSDCallback) error {
			carriers.Add(1)
			go func() {
				defer carriers.Done()
				time.Sleep(timeout)
				cb.OnFailure(code, -1)
			}()
			return nil
		})

		got := newCallbackEngine(t, sender, timeout).Dispatch(context.Background(), balanceReq)
		if got.Success {
			t.Fatalf("iteration %d: unexpected success %+v", i, got)
		}
		if got.Error != domain.MsgTimeout && got.Error != domain.FailureMessage(-1) {
			t.Fatalf("iteration %d: unexpected error %q", i, got.Error)
		}
	}
}

func TestDialerNoHandler(t *testing.T) {
	dialer := &fakeDialer{canHandle: false}
	e, err := New(apiLevel(23), nil, dialer)
	if err != nil {
		t.Fatal(err)
	}

	got := e.Dispatch(context.Background(), balanceReq)

	want := domain.Outcome{Success: false, Error: domain.MsgNoHandler}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	if len(dialer.launched) != 0 {
		t.Fatalf("intent launched without a handler: %+v", dialer.launched)
	}
}

func TestDialerLaunchAcknowledges(t *testing.T) {
	dialer := &fakeDialer{canHandle: true}
	e, err := New(apiLevel(23), nil, dialer)
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	got := e.Dispatch(context.Background(), domain.Request{Code: "*131*4#"})
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("dialer dispatch blocked for %s", elapsed)
	}

	want := domain.Outcome{Success: true, Result: domain.MsgSent}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	wantIntent := ports.DialIntent{Action: ports.ActionCall, URI: "tel:*131*4%23"}
	if len(dialer.launched) != 1 || dialer.launched[0] != wantIntent {
		t.Fatalf("launched = %+v, want [%+v]", dialer.launched, wantIntent)
	}
}

func TestDialerLaunchError(t *testing.T) {
	dialer := &fakeDialer{canHandle: true, launchErr: errors.New("activity not found")}
	e, err := New(apiLevel(23), nil, dialer)
	if err != nil {
		t.Fatal(err)
	}

	got := e.Dispatch(context.Background(), balanceReq)
	if got.Success || got.Error != "activity not found" {
		t.Fatalf("got %+v", got)
	}
}

type panickingDialer struct{}

func (panickingDialer) CanHandle(ports.DialIntent) bool { panic("package manager gone") }
func (panickingDialer) Launch(ports.DialIntent) error   { return nil }

func TestDialerPanic(t *testing.T) {
	e, err := New(apiLevel(23), nil, panickingDialer{})
	if err != nil {
		t.Fatal(err)
	}

	got := e.Dispatch(context.Background(), balanceReq)
	if got.Success || got.Error != "package manager gone" {
		t.Fatalf("got %+v", got)
	}
}
