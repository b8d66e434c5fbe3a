// Package permission decides whether the gateway may touch the telephony stack.
package permission

import (
	"golang-ussd-gateway/internal/domain"
	"golang-ussd-gateway/internal/ports"
)

// Gate checks the grants every telephony operation depends on. It holds no
// state: grants can be revoked between calls, so each check reads the
// platform again.
type Gate struct {
	checker ports.PermissionChecker
}

// NewGate wires a Gate to the platform's permission state.
func NewGate(checker ports.PermissionChecker) *Gate {
	return &Gate{checker: checker}
}

// HasRequiredPermissions reports whether both CALL_PHONE and
// READ_PHONE_STATE are currently granted.
func (g *Gate) HasRequiredPermissions() bool {
	for _, p := range domain.RequiredPermissions {
		if !g.granted(p) {
			return false
		}
	}
	return true
}

// Missing lists the required grants that are currently absent.
func (g *Gate) Missing() []domain.Permission {
	var missing []domain.Permission
	for _, p := range domain.RequiredPermissions {
		if !g.granted(p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// granted treats a panicking checker as a denial.
func (g *Gate) granted(p domain.Permission) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return g.checker.Granted(p)
}
