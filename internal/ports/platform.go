package ports

import (
	"context"

	"golang-ussd-gateway/internal/domain"
)

// MinCallbackAPILevel is the first platform API level that reports USSD
// responses back to the caller.
const MinCallbackAPILevel = 26

// Platform describes the device the gateway drives.
type Platform interface {
	// APILevel returns the declared platform API level.
	APILevel() int
}

// PermissionChecker reads the live state of a runtime grant.
type PermissionChecker interface {
	Granted(p domain.Permission) bool
}

// PermissionRequester shows the platform permission prompt. done is called
// once, after the user has decided.
type PermissionRequester interface {
	RequestPermissions(ctx context.Context, perms []domain.Permission, done func()) error
}

// USSDCallback receives the single terminal event of a USSD session.
type USSDCallback struct {
	OnResponse func(request, response string)
	OnFailure  func(request string, failureCode int)
}

// USSDSender issues a USSD code and reports the carrier reply through cb.
// Callbacks may fire on any goroutine, at any time after the call returns.
type USSDSender interface {
	SendUSSDRequest(ctx context.Context, simSlot int, code string, cb USSDCallback) error
}

// Platform failure codes reported through USSDCallback.OnFailure.
const (
	FailureReturn             = -1
	FailureServiceUnavailable = -2
)

// ActionCall is the dial intent action used for USSD on legacy platforms.
const ActionCall = "android.intent.action.CALL"

// DialIntent asks the device to open its native dialer on URI.
type DialIntent struct {
	Action string
	URI    string
}

// Dialer resolves and launches dial intents.
type Dialer interface {
	// CanHandle reports whether any installed app handles intent.
	CanHandle(intent DialIntent) bool
	Launch(intent DialIntent) error
}

// SubscriptionInfo is one active subscription as reported by the platform.
type SubscriptionInfo struct {
	SlotIndex   int
	CarrierName string
	Number      string
}

// SubscriptionSource lists the currently active subscriptions.
type SubscriptionSource interface {
	// ActiveSubscriptions may return a nil slice when nothing is active.
	ActiveSubscriptions(ctx context.Context) ([]SubscriptionInfo, error)
}
