package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"golang-ussd-gateway/internal/domain"
	"golang-ussd-gateway/internal/ports"
)

type fakeSource struct {
	subs  []ports.SubscriptionInfo
	err   error
	panic any
	calls int
}

func (f *fakeSource) ActiveSubscriptions(context.Context) ([]ports.SubscriptionInfo, error) {
	f.calls++
	if f.panic != nil {
		panic(f.panic)
	}
	return f.subs, f.err
}

type gate bool

func (g gate) HasRequiredPermissions() bool { return bool(g) }

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

var twoSims = []ports.SubscriptionInfo{
	{SlotIndex: 1, CarrierName: "INWI", Number: "+212600000002"},
	{SlotIndex: 0, CarrierName: "ORANGE", Number: "+212600000001"},
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		subs []ports.SubscriptionInfo
		slot int
		want domain.Subscription
	}{
		{
			name: "exact slot match",
			subs: twoSims,
			slot: 0,
			want: domain.Subscription{SimSlot: 0, Active: true, Carrier: "ORANGE", PhoneNumber: "+212600000001"},
		},
		{
			name: "falls back to first list entry",
			subs: twoSims,
			slot: 5,
			want: domain.Subscription{SimSlot: 1, Active: true, Carrier: "INWI", PhoneNumber: "+212600000002"},
		},
		{
			name: "empty list",
			subs: []ports.SubscriptionInfo{},
			slot: 5,
			want: domain.Subscription{SimSlot: 5},
		},
		{
			name: "nil list",
			subs: nil,
			slot: 0,
			want: domain.Subscription{SimSlot: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(&fakeSource{subs: tt.subs}, gate(true), discard())
			if got := r.Resolve(context.Background(), tt.slot); got != tt.want {
				t.Fatalf("Resolve(%d) = %+v, want %+v", tt.slot, got, tt.want)
			}
		})
	}
}

func TestResolveWithoutPermissionSkipsQuery(t *testing.T) {
	src := &fakeSource{subs: twoSims}
	r := NewResolver(src, gate(false), discard())

	got := r.Resolve(context.Background(), 1)
	if got != (domain.Subscription{SimSlot: 1}) {
		t.Fatalf("got %+v, want inactive slot 1", got)
	}
	if src.calls != 0 {
		t.Fatalf("subscription source queried %d times without permission", src.calls)
	}
}

func TestResolvePlatformFailure(t *testing.T) {
	tests := []struct {
		name string
		src  *fakeSource
		want string
	}{
		{"error", &fakeSource{err: errors.New("radio off")}, "radio off"},
		{"panic", &fakeSource{panic: "service died"}, "service died"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.src, gate(true), discard())
			got := r.Resolve(context.Background(), 1)
			if got.Active || got.SimSlot != 1 || got.Error != tt.want {
				t.Fatalf("got %+v, want inactive slot 1 with error %q", got, tt.want)
			}
		})
	}
}

func TestResolveRefetchesEveryCall(t *testing.T) {
	src := &fakeSource{subs: twoSims}
	r := NewResolver(src, gate(true), discard())

	r.Resolve(context.Background(), 0)
	src.subs = nil
	got := r.Resolve(context.Background(), 0)

	if src.calls != 2 {
		t.Fatalf("calls = %d, want 2", src.calls)
	}
	if got.Active {
		t.Fatal("stale subscription returned after platform state changed")
	}
}
