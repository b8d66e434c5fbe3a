package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Permission names a runtime grant the telephony operations depend on.
type Permission string

const (
	PermissionCallPhone      Permission = "CALL_PHONE"
	PermissionReadPhoneState Permission = "READ_PHONE_STATE"
)

// RequiredPermissions are the grants checked before any telephony operation.
var RequiredPermissions = []Permission{PermissionCallPhone, PermissionReadPhoneState}

// DefaultSimSlot is used when a caller does not name a slot.
const DefaultSimSlot = 0

// Outcome messages surfaced to callers verbatim.
const (
	MsgTimeout   = "USSD request timeout"
	MsgNoHandler = "No app can handle USSD requests"
	MsgSent      = "USSD request sent. Please check your phone's native USSD dialog."
	MsgCancelled = "USSD request cancelled"
)

// Request is a single USSD invocation. It is immutable once built.
type Request struct {
	Code    string
	SimSlot int
}

// NewRequest validates the code and applies the default slot when simSlot is nil.
func NewRequest(code string, simSlot *int) (Request, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Request{}, ErrCodeRequired
	}

	slot := DefaultSimSlot
	if simSlot != nil {
		slot = *simSlot
	}

	return Request{Code: code, SimSlot: slot}, nil
}

// Outcome is the terminal result of a dispatch. Result is set only when
// Success is true, Error only when it is false.
type Outcome struct {
	Success bool
	Result  string
	Error   string
}

// Succeeded builds a successful outcome carrying the carrier response text.
func Succeeded(text string) Outcome {
	return Outcome{Success: true, Result: text}
}

// Failed builds a failed outcome carrying msg.
func Failed(msg string) Outcome {
	return Outcome{Success: false, Error: msg}
}

// FailureMessage formats a carrier failure code. The code is opaque and is
// reported as-is.
func FailureMessage(failureCode int) string {
	return fmt.Sprintf("USSD failed with code: %d", failureCode)
}

// Subscription is a point-in-time snapshot of the subscription bound to a SIM slot.
type Subscription struct {
	SimSlot     int
	Active      bool
	Carrier     string
	PhoneNumber string
	Error       string // set when the platform query failed
}

// InactiveSubscription reports slot as having no usable subscription.
func InactiveSubscription(slot int) Subscription {
	return Subscription{SimSlot: slot}
}

// Rejections. These signal a caller contract violation, as opposed to a
// USSD operation that ran and failed.
var (
	ErrCodeRequired     = errors.New("ussd code is required")
	ErrPermissionDenied = errors.New("missing required permissions")
	ErrUnknownMethod    = errors.New("unknown method")
)
