// Package simulator is an in-process handset implementing every platform
// port. It answers USSD codes with canned carrier replies.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang-ussd-gateway/internal/domain"
	"golang-ussd-gateway/internal/ports"
)

// DefaultResponses are the canned carrier replies of the simulated networks.
var DefaultResponses = map[string]string{
	"*100#":     "Your balance is 25.50 MAD. Valid until 2024-12-31.",
	"*101#":     "Recharge successful. New balance: 50.00 MAD.",
	"*121#":     "Your number is +212 6XX XXX XXX",
	"*555#":     "Data bundle activated. 1GB valid for 7 days.",
	"*555*100#": "Mobile Credit Top-up successful. Amount: 100 MAD",
	"*123*1#":   "Orange menu: 1-Balance 2-Recharge 3-Offers",
	"*580#":     "Inwi services: Your balance is 15.75 MAD",
	"*123#":     "Your balance is $25.50. Thank you for using our service.",
	"*131*4#":   "Data Balance: 2.5GB remaining. Valid until 31-Dec-2024.",
	"*131*1*1#": "Please enter the recipient number followed by the amount.",
}

// DefaultSubscriptions model a dual-SIM handset.
var DefaultSubscriptions = []ports.SubscriptionInfo{
	{SlotIndex: 0, CarrierName: "ORANGE", Number: "+212600000001"},
	{SlotIndex: 1, CarrierName: "INWI", Number: "+212600000002"},
}

var ErrRadioOff = errors.New("radio unavailable")

// Config describes the simulated handset.
type Config struct {
	APILevel       int
	Latency        time.Duration // delay before a USSD reply or permission decision
	Responses      map[string]string
	Failures       map[string]int // codes the carrier rejects, with their failure code
	Silent         map[string]bool
	Subscriptions  []ports.SubscriptionInfo
	Granted        bool // initial state of every permission
	GrantOnRequest bool // what the simulated user answers to the prompt
	NoDialer       bool
}

// Device is a simulated handset. It is safe for concurrent use.
type Device struct {
	mu       sync.RWMutex
	cfg      Config
	grants   map[domain.Permission]bool
	radioOff bool
	sent     []string
	launched []ports.DialIntent
}

// New builds a Device. Nil maps and slices in cfg take the package defaults.
func New(cfg Config) *Device {
	if cfg.Responses == nil {
		cfg.Responses = DefaultResponses
	}
	if cfg.Subscriptions == nil {
		cfg.Subscriptions = DefaultSubscriptions
	}

	grants := make(map[domain.Permission]bool, len(domain.RequiredPermissions))
	for _, p := range domain.RequiredPermissions {
		grants[p] = cfg.Granted
	}
	return &Device{cfg: cfg, grants: grants}
}

// APILevel implements ports.Platform.
func (d *Device) APILevel() int {
	return d.cfg.APILevel
}

// Granted implements ports.PermissionChecker.
func (d *Device) Granted(p domain.Permission) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.grants[p]
}

// SetGranted changes a grant, as the user would from system settings.
func (d *Device) SetGranted(p domain.Permission, granted bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.grants[p] = granted
}

// SetRadioOff makes every USSD request fail when it is issued.
func (d *Device) SetRadioOff(off bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.radioOff = off
}

// RequestPermissions implements ports.PermissionRequester. The simulated
// user answers after the configured latency.
func (d *Device) RequestPermissions(_ context.Context, perms []domain.Permission, done func()) error {
	go func() {
		time.Sleep(d.cfg.Latency)
		d.mu.Lock()
		for _, p := range perms {
			d.grants[p] = d.cfg.GrantOnRequest
		}
		d.mu.Unlock()
		done()
	}()
	return nil
}

// SendUSSDRequest implements ports.USSDSender.
func (d *Device) SendUSSDRequest(_ context.Context, simSlot int, code string, cb ports.USSDCallback) error {
	d.mu.Lock()
	off := d.radioOff
	if !off {
		d.sent = append(d.sent, code)
	}
	d.mu.Unlock()
	if off {
		return ErrRadioOff
	}
	if d.cfg.Silent[code] {
		return nil
	}

	go func() {
		time.Sleep(d.cfg.Latency)
		if failure, ok := d.cfg.Failures[code]; ok {
			cb.OnFailure(code, failure)
			return
		}
		cb.OnResponse(code, d.Reply(code))
	}()
	return nil
}

// Reply is the canned carrier answer for code.
func (d *Device) Reply(code string) string {
	if r, ok := d.cfg.Responses[code]; ok {
		return r
	}
	return fmt.Sprintf("USSD code %s executed successfully. Service response received.", code)
}

// Sent returns the USSD codes issued so far.
func (d *Device) Sent() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]string(nil), d.sent...)
}

// CanHandle implements ports.Dialer.
func (d *Device) CanHandle(intent ports.DialIntent) bool {
	return !d.cfg.NoDialer && intent.Action == ports.ActionCall
}

// Launch implements ports.Dialer.
func (d *Device) Launch(intent ports.DialIntent) error {
	if !d.CanHandle(intent) {
		return fmt.Errorf("no activity found to handle %s", intent.URI)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.launched = append(d.launched, intent)
	return nil
}

// Launched returns the dial intents launched so far.
func (d *Device) Launched() []ports.DialIntent {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]ports.DialIntent(nil), d.launched...)
}

// ActiveSubscriptions implements ports.SubscriptionSource.
func (d *Device) ActiveSubscriptions(context.Context) ([]ports.SubscriptionInfo, error) {
	return append([]ports.SubscriptionInfo(nil), d.cfg.Subscriptions...), nil
}
