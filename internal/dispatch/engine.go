package dispatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang-ussd-gateway/internal/domain"
	"golang-ussd-gateway/internal/metrics"
	"golang-ussd-gateway/internal/ports"
)

// DefaultTimeout bounds the wait for a carrier reply on callback platforms.
const DefaultTimeout = 30 * time.Second

// Strategy names reported by Engine.Strategy.
const (
	StrategyCallback = "callback"
	StrategyDialer   = "dialer"
)

type strategy interface {
	name() string
	dispatch(ctx context.Context, req domain.Request) result
}

// Engine dispatches USSD requests through the strategy chosen at construction.
// It holds no per-request state and is safe for concurrent use.
type Engine struct {
	strategy strategy
	log      *slog.Logger
}

type options struct {
	timeout time.Duration
	log     *slog.Logger
}

// Option configures an Engine.
type Option func(*options)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithLogger sets the engine's logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) { o.log = log }
}

// New selects the dispatch strategy from the platform API level. Only the
// handle the selected strategy needs must be non-nil.
func New(platform ports.Platform, sender ports.USSDSender, dialer ports.Dialer, opts ...Option) (*Engine, error) {
	o := options{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", o.timeout)
	}
	if platform == nil {
		return nil, errors.New("platform is required")
	}

	var s strategy
	if SupportsCallback(platform.APILevel()) {
		if sender == nil {
			return nil, errors.New("ussd sender is required on callback platforms")
		}
		s = &callbackStrategy{sender: sender, timeout: o.timeout, log: o.log}
	} else {
		if dialer == nil {
			return nil, errors.New("dialer is required on legacy platforms")
		}
		s = &dialerStrategy{dialer: dialer}
	}

	o.log.Info("ussd dispatch engine ready", "api_level", platform.APILevel(), "strategy", s.name(), "timeout", o.timeout)
	return &Engine{strategy: s, log: o.log}, nil
}

// SupportsCallback reports whether apiLevel exposes USSD response callbacks.
func SupportsCallback(apiLevel int) bool {
	return apiLevel >= ports.MinCallbackAPILevel
}

// Strategy returns the name of the selected strategy.
func (e *Engine) Strategy() string {
	return e.strategy.name()
}

// Dispatch sends req and returns its outcome. It always returns; on callback
// platforms it blocks for at most the configured timeout.
func (e *Engine) Dispatch(ctx context.Context, req domain.Request) domain.Outcome {
	start := time.Now()
	res := e.strategy.dispatch(ctx, req)
	took := time.Since(start)

	metrics.RecordDispatch(e.strategy.name(), string(res.kind), took)
	e.log.Info("ussd dispatched",
		"strategy", e.strategy.name(),
		"code", req.Code,
		"sim_slot", req.SimSlot,
		"result", res.kind,
		"took", took,
	)
	return res.outcome
}

// guard runs fn and converts a panic raised by a platform handle into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	return fn()
}
