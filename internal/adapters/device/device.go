// Package device selects the platform handle the gateway drives.
package device

import (
	"log/slog"
	"time"

	"golang-ussd-gateway/internal/adapters/device/httpdevice"
	"golang-ussd-gateway/internal/adapters/device/simulator"
	"golang-ussd-gateway/internal/ports"
)

// SimulatorURL as DEVICE_URL runs the in-process simulator instead of
// talking to a device agent.
const SimulatorURL = "simulator"

// Handle is every platform capability the gateway consumes.
type Handle interface {
	ports.Platform
	ports.PermissionChecker
	ports.PermissionRequester
	ports.USSDSender
	ports.Dialer
	ports.SubscriptionSource
}

var (
	_ Handle = (*httpdevice.Client)(nil)
	_ Handle = (*simulator.Device)(nil)
)

// Open returns the handle for url at the declared apiLevel.
func Open(url string, apiLevel int, log *slog.Logger) Handle {
	if url == SimulatorURL {
		log.Info("using in-process device simulator", "api_level", apiLevel)
		return simulator.New(simulator.Config{
			APILevel:       apiLevel,
			Latency:        500 * time.Millisecond,
			Granted:        true,
			GrantOnRequest: true,
		})
	}
	return httpdevice.New(url, apiLevel, log)
}
