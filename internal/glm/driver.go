package glm

import (
	"errors"
	"fmt"
)

// GLM USB adapter identity. The adapter always answers on bus address 1;
// address 1 is therefore never a controllable monitor.
const (
	AdapterVendorID  uint16 = 0x0a07
	AdapterProductID uint16 = 0x00b5

	AdapterAddress = 1
)

// LEDColor is the front-panel LED color of a SAM monitor.
type LEDColor string

const (
	LEDGreen  LEDColor = "green"
	LEDRed    LEDColor = "red"
	LEDYellow LEDColor = "yellow"
	LEDOff    LEDColor = "off"
)

// ParseLEDColor validates a user-supplied color name.
func ParseLEDColor(s string) (LEDColor, error) {
	switch LEDColor(s) {
	case LEDGreen, LEDRed, LEDYellow, LEDOff:
		return LEDColor(s), nil
	default:
		return "", fmt.Errorf("invalid led color: %s (must be green, red, yellow, or off)", s)
	}
}

// PeerInfo describes one device discovered on the GLM bus, as reported by
// the transport driver. Address 1 is the USB adapter itself.
type PeerInfo struct {
	Address      int
	HardwareName string
	Serial       string
}

// Handle is an open connection to the GLM USB adapter.
type Handle interface {
	Close() error
}

// Driver is the supplied USB-HID transport. The wire encoding of the vendor
// protocol lives behind this interface; this package only sequences the
// calls. All methods are expected to have bounded internal timeouts.
//
// The driver is NOT safe for concurrent use of the same adapter; the
// Controller serializes every call behind its lock.
type Driver interface {
	// OpenAdapter opens the USB adapter matching the given vendor/product
	// identifiers and returns a handle to the broadcast group on its bus.
	OpenAdapter(vendorID, productID uint16) (Handle, error)

	// DiscoverPeers enumerates all devices answering on the bus, including
	// the adapter itself.
	DiscoverPeers(h Handle) ([]PeerInfo, error)

	// SetGroupVolumeDB broadcasts a volume-set to every device on the bus.
	SetGroupVolumeDB(h Handle, db float64) error

	// WakeupAllGroup wakes all monitors from standby.
	WakeupAllGroup(h Handle) error

	// ShutdownAllGroup puts all monitors into standby.
	ShutdownAllGroup(h Handle) error

	// StayOnlineGroup sends the protocol's native keepalive. No audible
	// effect; it only refreshes the devices' active state.
	StayOnlineGroup(h Handle) error

	// SetMonitorMute mutes or unmutes a single monitor by bus address.
	SetMonitorMute(h Handle, address int, mute bool) error

	// SetMonitorLED sets the LED color and pulse state of a single monitor.
	SetMonitorLED(h Handle, address int, color LEDColor, pulsing bool) error
}

// Sentinel errors surfaced by the controller. Transport failures are wrapped
// with context and returned as-is; callers treat any non-nil error as the
// operation having failed with state unchanged.
var (
	// ErrNotConnected is returned by operations that refuse to auto-connect
	// (currently only StayOnline) when no session is established.
	ErrNotConnected = errors.New("glm: not connected")

	// ErrDeviceNotFound is returned by per-monitor operations when the
	// address is not in the registry. No hardware call is made.
	ErrDeviceNotFound = errors.New("glm: monitor not found")
)
