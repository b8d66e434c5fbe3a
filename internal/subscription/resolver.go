// Package subscription maps a requested SIM slot onto the subscription the
// platform reports for it.
package subscription

import (
	"context"
	"fmt"
	"log/slog"

	"golang-ussd-gateway/internal/domain"
	"golang-ussd-gateway/internal/ports"
)

// Gate is the permission check the resolver consults before querying.
type Gate interface {
	HasRequiredPermissions() bool
}

// Resolver reads subscription state fresh on every call; nothing is cached.
type Resolver struct {
	source ports.SubscriptionSource
	gate   Gate
	log    *slog.Logger
}

// NewResolver wires a Resolver with its platform handle.
func NewResolver(source ports.SubscriptionSource, gate Gate, log *slog.Logger) *Resolver {
	return &Resolver{source: source, gate: gate, log: log}
}

// Resolve returns the subscription for slot. It never fails: missing
// permissions and an empty list yield an inactive record for slot, and a
// platform error yields an inactive record carrying the error message.
func (r *Resolver) Resolve(ctx context.Context, slot int) domain.Subscription {
	if !r.gate.HasRequiredPermissions() {
		return domain.InactiveSubscription(slot)
	}

	subs, err := r.fetch(ctx)
	if err != nil {
		r.log.Warn("subscription query failed", "sim_slot", slot, "err", err)
		rec := domain.InactiveSubscription(slot)
		rec.Error = err.Error()
		return rec
	}

	info, ok := Select(subs, slot)
	if !ok {
		return domain.InactiveSubscription(slot)
	}

	return domain.Subscription{
		SimSlot:     info.SlotIndex,
		Active:      true,
		Carrier:     info.CarrierName,
		PhoneNumber: info.Number,
	}
}

// Select picks the first subscription in list order bound to slot. When none
// matches it falls back to the first entry of the list. ok is false only for
// an empty list.
func Select(subs []ports.SubscriptionInfo, slot int) (ports.SubscriptionInfo, bool) {
	if len(subs) == 0 {
		return ports.SubscriptionInfo{}, false
	}
	for _, s := range subs {
		if s.SlotIndex == slot {
			return s, true
		}
	}
	return subs[0], true
}

func (r *Resolver) fetch(ctx context.Context) (subs []ports.SubscriptionInfo, err error) {
	defer func() {
		if p := recover(); p != nil {
			subs, err = nil, fmt.Errorf("%v", p)
		}
	}()
	return r.source.ActiveSubscriptions(ctx)
}
