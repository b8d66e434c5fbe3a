package dispatch

import (
	"context"
	"log/slog"
	"time"

	"golang-ussd-gateway/internal/domain"
	"golang-ussd-gateway/internal/metrics"
	"golang-ussd-gateway/internal/ports"
)

type callbackStrategy struct {
	sender  ports.USSDSender
	timeout time.Duration
	log     *slog.Logger
}

func (s *callbackStrategy) name() string { return StrategyCallback }

func (s *callbackStrategy) dispatch(ctx context.Context, req domain.Request) result {
	cell := newOutcomeCell()

	discard := func(event string) {
		metrics.RecordLateEvent()
		s.log.Warn("late ussd event discarded", "code", req.Code, "event", event)
	}

	cb := ports.USSDCallback{
		OnResponse: func(_, response string) {
			if !cell.claim(result{domain.Succeeded(response), kindSuccess}) {
				discard("response")
			}
		},
		OnFailure: func(_ string, failureCode int) {
			if !cell.claim(result{domain.Failed(domain.FailureMessage(failureCode)), kindFailure}) {
				discard("failure")
			}
		},
	}

	err := guard(func() error {
		return s.sender.SendUSSDRequest(ctx, req.SimSlot, req.Code, cb)
	})
	if err != nil {
		cell.claim(result{domain.Failed(err.Error()), kindError})
		return cell.wait()
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	select {
	case <-cell.done:
	case <-timer.C:
		cell.claim(result{domain.Failed(domain.MsgTimeout), kindTimeout})
	case <-ctx.Done():
		cell.claim(result{domain.Failed(domain.MsgCancelled), kindCancelled})
	}

	// A callback may have won the claim just before the timer; wait for it.
	return cell.wait()
}
