package glm

import (
	"errors"
	"fmt"
	"sync"
)

// SimDriver is an in-memory stand-in for the real USB-HID transport: a
// simulated adapter plus a configurable set of monitors. It lets the daemon
// run without hardware and backs the package tests.
//
// Unplug/Plug emulate yanking the adapter: while unplugged every open fails.
type SimDriver struct {
	mu sync.Mutex

	peers     []PeerInfo
	unplugged bool

	groupVolumeDB float64
	awake         bool
	monitorMute   map[int]bool
	monitorLED    map[int]LEDColor

	openCount int
}

// NewSimDriver creates a simulated bus with the given monitors. The adapter
// (address 1) is always present and prepended to discovery results.
func NewSimDriver(monitors ...PeerInfo) *SimDriver {
	return &SimDriver{
		peers:         monitors,
		groupVolumeDB: MinVolumeDB,
		awake:         true,
		monitorMute:   make(map[int]bool),
		monitorLED:    make(map[int]LEDColor),
	}
}

type simHandle struct {
	d      *SimDriver
	closed bool
}

func (h *simHandle) Close() error {
	h.closed = true
	return nil
}

// Unplug makes every subsequent open and command fail, as if the adapter
// were removed.
func (d *SimDriver) Unplug() {
	d.mu.Lock()
	d.unplugged = true
	d.mu.Unlock()
}

// Plug reverses Unplug.
func (d *SimDriver) Plug() {
	d.mu.Lock()
	d.unplugged = false
	d.mu.Unlock()
}

// GroupVolumeDB returns the last broadcast volume.
func (d *SimDriver) GroupVolumeDB() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.groupVolumeDB
}

// Awake reports the simulated standby state.
func (d *SimDriver) Awake() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.awake
}

// MonitorMuted reports the simulated per-monitor mute flag.
func (d *SimDriver) MonitorMuted(address int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.monitorMute[address]
}

// OpenCount reports how many times the adapter has been opened. Useful for
// asserting the fresh-handle-per-volume-write behavior.
func (d *SimDriver) OpenCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.openCount
}

func (d *SimDriver) check(h Handle) (*simHandle, error) {
	sh, ok := h.(*simHandle)
	if !ok || sh == nil {
		return nil, errors.New("sim: nil or foreign handle")
	}
	if sh.closed {
		return nil, errors.New("sim: handle closed")
	}
	d.mu.Lock()
	unplugged := d.unplugged
	d.mu.Unlock()
	if unplugged {
		return nil, errors.New("sim: adapter unplugged")
	}
	return sh, nil
}

// OpenAdapter implements Driver.
func (d *SimDriver) OpenAdapter(vendorID, productID uint16) (Handle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.unplugged {
		return nil, errors.New("sim: adapter not present")
	}
	if vendorID != AdapterVendorID || productID != AdapterProductID {
		return nil, fmt.Errorf("sim: no device %04x:%04x", vendorID, productID)
	}
	d.openCount++
	return &simHandle{d: d}, nil
}

// DiscoverPeers implements Driver.
func (d *SimDriver) DiscoverPeers(h Handle) ([]PeerInfo, error) {
	if _, err := d.check(h); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	peers := make([]PeerInfo, 0, len(d.peers)+1)
	peers = append(peers, PeerInfo{Address: AdapterAddress, HardwareName: "GLM Adapter"})
	peers = append(peers, d.peers...)
	return peers, nil
}

// SetGroupVolumeDB implements Driver.
func (d *SimDriver) SetGroupVolumeDB(h Handle, db float64) error {
	if _, err := d.check(h); err != nil {
		return err
	}
	d.mu.Lock()
	d.groupVolumeDB = db
	d.mu.Unlock()
	return nil
}

// WakeupAllGroup implements Driver.
func (d *SimDriver) WakeupAllGroup(h Handle) error {
	if _, err := d.check(h); err != nil {
		return err
	}
	d.mu.Lock()
	d.awake = true
	d.mu.Unlock()
	return nil
}

// ShutdownAllGroup implements Driver.
func (d *SimDriver) ShutdownAllGroup(h Handle) error {
	if _, err := d.check(h); err != nil {
		return err
	}
	d.mu.Lock()
	d.awake = false
	d.mu.Unlock()
	return nil
}

// StayOnlineGroup implements Driver.
func (d *SimDriver) StayOnlineGroup(h Handle) error {
	_, err := d.check(h)
	return err
}

// SetMonitorMute implements Driver.
func (d *SimDriver) SetMonitorMute(h Handle, address int, mute bool) error {
	if _, err := d.check(h); err != nil {
		return err
	}
	d.mu.Lock()
	d.monitorMute[address] = mute
	d.mu.Unlock()
	return nil
}

// SetMonitorLED implements Driver.
func (d *SimDriver) SetMonitorLED(h Handle, address int, color LEDColor, pulsing bool) error {
	if _, err := d.check(h); err != nil {
		return err
	}
	d.mu.Lock()
	d.monitorLED[address] = color
	d.mu.Unlock()
	return nil
}
