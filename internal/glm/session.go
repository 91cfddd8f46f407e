package glm

import (
	"fmt"
	"log/slog"
)

// Session owns the standing connection to the GLM USB adapter: open,
// discover, close. It is used for discovery, status queries and keepalives.
// Volume writes deliberately do NOT use it (see Controller.SetVolumeDB).
//
// Not safe for concurrent use on its own; the Controller serializes access.
type Session struct {
	driver   Driver
	registry *Registry
	logger   *slog.Logger

	handle    Handle
	connected bool
}

// NewSession creates a disconnected session. No hardware I/O happens until
// Connect is called.
func NewSession(driver Driver, registry *Registry, logger *slog.Logger) *Session {
	return &Session{
		driver:   driver,
		registry: registry,
		logger:   logger,
	}
}

// Connect opens the adapter and runs discovery. Idempotent: when already
// connected it returns nil without touching hardware. On any failure the
// session stays disconnected with no half-open handle retained and an empty
// registry (discovery is all-or-nothing per attempt).
func (s *Session) Connect() error {
	if s.connected {
		return nil
	}

	h, err := s.driver.OpenAdapter(AdapterVendorID, AdapterProductID)
	if err != nil {
		return fmt.Errorf("open adapter: %w", err)
	}

	peers, err := s.driver.DiscoverPeers(h)
	if err != nil {
		_ = h.Close()
		s.registry.Clear()
		return fmt.Errorf("discover peers: %w", err)
	}

	s.registry.ReplaceAll(peers)
	s.handle = h
	s.connected = true

	s.logger.Info("connected to GLM adapter", "monitors", s.registry.Len())
	for _, m := range s.registry.List() {
		s.logger.Info("discovered monitor", "address", m.Address, "name", m.Name)
	}
	return nil
}

// Disconnect closes the adapter handle (close errors are swallowed; a failed
// close must not prevent the state reset), clears the registry and
// transitions to disconnected. Always succeeds from the caller's view.
func (s *Session) Disconnect() {
	if s.handle != nil {
		if err := s.handle.Close(); err != nil {
			s.logger.Debug("adapter close failed", "error", err)
		}
		s.handle = nil
	}
	s.registry.Clear()
	s.connected = false
}

// IsConnected reports whether the session is established.
func (s *Session) IsConnected() bool {
	return s.connected
}

// Handle returns the standing adapter handle, or nil when disconnected.
func (s *Session) Handle() Handle {
	if !s.connected {
		return nil
	}
	return s.handle
}
