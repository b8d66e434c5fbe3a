package dispatch

import (
	"context"

	"golang-ussd-gateway/internal/domain"
	"golang-ussd-gateway/internal/ports"
)

// dialerStrategy hands the code to the native dialer. Success means the
// dialer was launched, not that the carrier answered.
type dialerStrategy struct {
	dialer ports.Dialer
}

func (s *dialerStrategy) name() string { return StrategyDialer }

func (s *dialerStrategy) dispatch(_ context.Context, req domain.Request) result {
	intent := ports.DialIntent{Action: ports.ActionCall, URI: TelURI(req.Code)}

	var res result
	err := guard(func() error {
		if !s.dialer.CanHandle(intent) {
			res = result{domain.Failed(domain.MsgNoHandler), kindFailure}
			return nil
		}
		if err := s.dialer.Launch(intent); err != nil {
			return err
		}
		res = result{domain.Succeeded(domain.MsgSent), kindSuccess}
		return nil
	})
	if err != nil {
		return result{domain.Failed(err.Error()), kindError}
	}
	return res
}
