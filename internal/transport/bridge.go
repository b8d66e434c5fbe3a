package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"golang-ussd-gateway/internal/app"
	"golang-ussd-gateway/internal/domain"
)

// Args are the named arguments of a bridge call, as decoded from JSON.
type Args map[string]any

// String returns the string argument key. ok is false when it is absent,
// null or not a string.
func (a Args) String(key string) (string, bool) {
	s, ok := a[key].(string)
	return s, ok
}

// Int returns the integer argument key, or nil when it is absent or not an
// integer.
func (a Args) Int(key string) *int {
	var n int
	switch v := a[key].(type) {
	case int:
		n = v
	case int64:
		n = int(v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return nil
		}
		n = int(v)
	case json.Number:
		i, err := v.Int64()
		if err != nil {
			return nil
		}
		n = int(i)
	default:
		return nil
	}
	return &n
}

type method func(ctx context.Context, args Args) (any, error)

// Bridge exposes the service as named methods taking named arguments, the
// shape used by the host application's plugin calls. A call either resolves
// with a JSON-encodable result or rejects with an error.
type Bridge struct {
	methods map[string]method
}

// NewBridge registers the USSD methods of svc.
func NewBridge(svc *app.USSDService) *Bridge {
	b := &Bridge{methods: make(map[string]method)}

	send := func(ctx context.Context, args Args) (any, error) {
		code, ok := args.String("code")
		if !ok {
			return nil, domain.ErrCodeRequired
		}
		return svc.SendRequest(ctx, app.SendRequestInput{Code: code, SimSlot: args.Int("simSlot")})
	}
	simInfo := func(ctx context.Context, args Args) (any, error) {
		return svc.GetSubscriptionInfo(ctx, args.Int("simSlot")), nil
	}
	checkPermissions := func(context.Context, Args) (any, error) {
		return svc.CheckPermissionStatus(), nil
	}
	requestPermissions := func(ctx context.Context, _ Args) (any, error) {
		return svc.RequestPermissions(ctx), nil
	}

	b.register(send, "sendUSSDRequest", "sendRequest")
	b.register(simInfo, "getSIMInfo", "getSubscriptionInfo")
	b.register(checkPermissions, "checkPermissions", "checkPermissionStatus")
	b.register(requestPermissions, "requestPermissions")
	return b
}

func (b *Bridge) register(m method, names ...string) {
	for _, name := range names {
		b.methods[name] = m
	}
}

// Call invokes the named method.
func (b *Bridge) Call(ctx context.Context, name string, args Args) (any, error) {
	m, ok := b.methods[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownMethod, name)
	}
	if args == nil {
		args = Args{}
	}
	return m(ctx, args)
}
