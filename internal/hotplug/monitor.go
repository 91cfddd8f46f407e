package hotplug

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/pilebones/go-udev/netlink"
)

// Monitor listens for udev netlink events and reports when the GLM USB
// adapter is plugged or unplugged. This lets the daemon reconnect without
// udev rules or polling.
type Monitor struct {
	logger   *slog.Logger
	vendorID uint16
	modelID  uint16

	onAttach func()
	onDetach func()

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewMonitor creates a hotplug monitor for the adapter with the given USB
// identity. onAttach/onDetach may be nil.
func NewMonitor(logger *slog.Logger, vendorID, modelID uint16, onAttach, onDetach func()) *Monitor {
	return &Monitor{
		logger:   logger,
		vendorID: vendorID,
		modelID:  modelID,
		onAttach: onAttach,
		onDetach: onDetach,
	}
}

// Start begins listening for udev netlink events.
//
// A failure to open the netlink socket is non-fatal: the daemon still works,
// it just cannot react to plug events automatically.
func (m *Monitor) Start(ctx context.Context) error {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		m.logger.Warn("failed to connect to netlink socket; adapter hotplug detection unavailable",
			"error", err)
		return nil
	}

	m.conn = conn
	m.quit = make(chan struct{})
	m.running = true

	// Pass quit channel to goroutine to avoid reading m.quit without lock
	quit := m.quit
	go m.monitorLoop(ctx, quit)

	m.logger.Info("hotplug monitor started",
		"vendor_id", fmt.Sprintf("%04x", m.vendorID),
		"model_id", fmt.Sprintf("%04x", m.modelID))

	return nil
}

// Stop shuts down the monitor.
func (m *Monitor) Stop() {
	if m == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.quit != nil {
		close(m.quit)
		m.quit = nil
	}

	if m.conn != nil {
		_ = m.conn.Close()
		m.conn = nil
	}

	m.running = false

	m.logger.Info("hotplug monitor stopped")
}

// Running reports whether the monitor is active.
func (m *Monitor) Running() bool {
	if m == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// monitorLoop reads netlink events and dispatches adapter plug/unplug.
func (m *Monitor) monitorLoop(ctx context.Context, quit <-chan struct{}) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	matcher := buildMatcher()

	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return
	}

	monitorQuit := conn.Monitor(queue, errs, matcher)

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			m.handleEvent(uevent)
		case err := <-errs:
			m.logger.Warn("hotplug monitor error", "error", err)
		}
	}
}

// buildMatcher creates a matcher for USB device add/remove events.
// Vendor/model filtering happens in handleEvent; the netlink rule narrows the
// stream to the usb subsystem only.
func buildMatcher() netlink.Matcher {
	action := "add|remove"
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "usb",
		},
	})
	return rules
}

// handleEvent dispatches a matched uevent.
func (m *Monitor) handleEvent(uevent netlink.UEvent) {
	if !matchesUSBIdentity(uevent.Env, m.vendorID, m.modelID) {
		return
	}

	switch uevent.Action {
	case netlink.ADD:
		m.logger.Info("adapter attached", "devpath", uevent.KObj)
		if m.onAttach != nil {
			m.onAttach()
		}
	case netlink.REMOVE:
		m.logger.Info("adapter detached", "devpath", uevent.KObj)
		if m.onDetach != nil {
			m.onDetach()
		}
	}
}

// matchesUSBIdentity reports whether a uevent's environment identifies the
// given vendor/model. udev-processed events carry ID_VENDOR_ID/ID_MODEL_ID as
// zero-padded hex; raw kernel events only carry PRODUCT as
// "vendor/model/bcddevice" with unpadded hex.
func matchesUSBIdentity(env map[string]string, vendorID, modelID uint16) bool {
	if v, ok := env["ID_VENDOR_ID"]; ok {
		return strings.EqualFold(v, fmt.Sprintf("%04x", vendorID)) &&
			strings.EqualFold(env["ID_MODEL_ID"], fmt.Sprintf("%04x", modelID))
	}

	product := env["PRODUCT"]
	if product == "" {
		return false
	}
	parts := strings.Split(product, "/")
	if len(parts) < 2 {
		return false
	}
	return strings.EqualFold(parts[0], fmt.Sprintf("%x", vendorID)) &&
		strings.EqualFold(parts[1], fmt.Sprintf("%x", modelID))
}
