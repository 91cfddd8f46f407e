package glm

import (
	"fmt"
	"log/slog"
	"sync"
)

// ============================================================================
// Controller - the one shared view of the GLM monitor group
// ============================================================================
//
// Exactly one Controller exists per process (constructed once in main and
// injected by reference). A single mutex serializes every state-mutating
// operation: the GLM protocol is not safe for concurrent use of the same USB
// adapter, so no two hardware writes may ever interleave.
//
// Connection strategy:
//   - A standing Session is kept for discovery, status and keepalives.
//   - Volume writes open a FRESH short-lived adapter handle per command and
//     close it immediately. A persistent handle has been observed to induce
//     audio silence after ~5 seconds on this hardware; a few milliseconds of
//     reopen overhead per command buys correctness.
//
// Construction performs no hardware I/O. Callers connect explicitly once the
// host environment is ready (two-phase startup).
// ============================================================================

// Snapshot is the externally visible controller state, handed to state-change
// observers and status queries.
type Snapshot struct {
	Connected bool    `json:"connected"`
	Muted     bool    `json:"muted"`
	VolumeDB  float64 `json:"volume_db"`
	VolumePct float64 `json:"volume_percent"`

	MaxVolumeDB     float64 `json:"max_volume_db"`
	DefaultVolumeDB float64 `json:"default_volume_db"`

	MonitorCount int `json:"monitor_count"`
}

// Options configures a Controller at construction time.
type Options struct {
	MaxVolumeDB     float64 // global safety ceiling
	DefaultVolumeDB float64 // startup/reset volume
}

// Controller coordinates volume, mute and power commands for the whole
// monitor group.
type Controller struct {
	mu sync.Mutex

	driver   Driver
	registry *Registry
	session  *Session
	logger   *slog.Logger

	limits Limits

	currentDB float64
	preMuteDB float64
	muted     bool

	onChange func(Snapshot)
}

// NewController builds the controller. Volume state is seeded from the
// clamped default so a display shown before first connect reflects the
// configured default. No hardware I/O happens here.
func NewController(driver Driver, logger *slog.Logger, opts Options) *Controller {
	maxDB := ClampMax(opts.MaxVolumeDB)
	defaultDB := ClampDefault(opts.DefaultVolumeDB, maxDB)

	registry := NewRegistry()
	return &Controller{
		driver:   driver,
		registry: registry,
		session:  NewSession(driver, registry, logger),
		logger:   logger,
		limits:   Limits{MaxVolumeDB: maxDB, DefaultVolumeDB: defaultDB},

		currentDB: defaultDB,
		preMuteDB: defaultDB,
	}
}

// OnStateChange registers a single observer invoked (outside the lock) after
// every successful state mutation. Set it before connecting.
func (c *Controller) OnStateChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Connected:       c.session.IsConnected(),
		Muted:           c.muted,
		VolumeDB:        c.currentDB,
		VolumePct:       DBToPercent(c.currentDB),
		MaxVolumeDB:     c.limits.MaxVolumeDB,
		DefaultVolumeDB: c.limits.DefaultVolumeDB,
		MonitorCount:    c.registry.Len(),
	}
}

func (c *Controller) notify(snap Snapshot, fn func(Snapshot)) {
	if fn != nil {
		fn(snap)
	}
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// ----------------------------------------------------------------------------
// Limits
// ----------------------------------------------------------------------------

// SetMaxVolumeLimit sets the global maximum volume (safety ceiling). The
// configured default is lowered if it would now exceed the maximum. When
// disconnected, the in-memory volume is reseeded from the default so the
// startup display reflects configuration rather than a stale value.
func (c *Controller) SetMaxVolumeLimit(maxDB float64) {
	c.mu.Lock()
	c.limits.MaxVolumeDB = ClampMax(maxDB)
	c.limits.DefaultVolumeDB = ClampDefault(c.limits.DefaultVolumeDB, c.limits.MaxVolumeDB)
	if !c.session.IsConnected() {
		c.currentDB = c.limits.DefaultVolumeDB
		c.preMuteDB = c.limits.DefaultVolumeDB
	}
	snap, fn := c.snapshotLocked(), c.onChange
	c.mu.Unlock()

	c.logger.Info("max volume limit set", "max_db", snap.MaxVolumeDB)
	c.notify(snap, fn)
}

// SetDefaultVolume sets the default/startup volume, clamped so it never
// exceeds the global maximum. Applies the same startup-value rule as
// SetMaxVolumeLimit when disconnected.
func (c *Controller) SetDefaultVolume(defaultDB float64) {
	c.mu.Lock()
	c.limits.DefaultVolumeDB = ClampDefault(defaultDB, c.limits.MaxVolumeDB)
	if !c.session.IsConnected() {
		c.currentDB = c.limits.DefaultVolumeDB
		c.preMuteDB = c.limits.DefaultVolumeDB
	}
	snap, fn := c.snapshotLocked(), c.onChange
	c.mu.Unlock()

	c.logger.Info("default volume set", "default_db", snap.DefaultVolumeDB)
	c.notify(snap, fn)
}

// MaxVolumeLimit returns the effective global maximum in dB.
func (c *Controller) MaxVolumeLimit() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limits.MaxVolumeDB
}

// DefaultVolume returns the effective default volume in dB.
func (c *Controller) DefaultVolume() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.limits.DefaultVolumeDB
}

// ----------------------------------------------------------------------------
// Connection
// ----------------------------------------------------------------------------

// Connect establishes the standing session and discovers monitors.
// Idempotent.
func (c *Controller) Connect() error {
	c.mu.Lock()
	err := c.session.Connect()
	snap, fn := c.snapshotLocked(), c.onChange
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("failed to connect to GLM adapter", "error", err)
		return err
	}
	c.notify(snap, fn)
	return nil
}

// Disconnect tears down the standing session and clears the registry.
func (c *Controller) Disconnect() {
	c.mu.Lock()
	c.session.Disconnect()
	snap, fn := c.snapshotLocked(), c.onChange
	c.mu.Unlock()

	c.logger.Info("disconnected from GLM adapter")
	c.notify(snap, fn)
}

// IsConnected reports whether the standing session is established.
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.IsConnected()
}

// ensureConnectedLocked auto-connects on first use. Callers hold c.mu.
func (c *Controller) ensureConnectedLocked() error {
	if c.session.IsConnected() {
		return nil
	}
	return c.session.Connect()
}

// ----------------------------------------------------------------------------
// Volume
// ----------------------------------------------------------------------------

// SetVolumeDB broadcasts a volume-set to all monitors. The target is clamped
// through the safety policy immediately before the write. A fresh adapter
// handle is opened solely for this command and closed right after (the 5s
// silence workaround). On success the in-memory volume is updated and mute
// is cleared; on any failure state is left unchanged.
func (c *Controller) SetVolumeDB(targetDB float64) error {
	c.mu.Lock()
	snap, fn, err := c.setVolumeLocked(targetDB)
	c.mu.Unlock()

	if err != nil {
		c.logger.Error("failed to set volume", "target_db", targetDB, "error", err)
		return err
	}
	c.logger.Debug("volume set", "volume_db", snap.VolumeDB)
	c.notify(snap, fn)
	return nil
}

func (c *Controller) setVolumeLocked(targetDB float64) (Snapshot, func(Snapshot), error) {
	if err := c.ensureConnectedLocked(); err != nil {
		return Snapshot{}, nil, err
	}

	targetDB = ClampTarget(targetDB, c.limits)

	// Fresh connection per volume change prevents the 5s silence issue.
	h, err := c.driver.OpenAdapter(AdapterVendorID, AdapterProductID)
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("open adapter: %w", err)
	}
	err = c.driver.SetGroupVolumeDB(h, targetDB)
	_ = h.Close()
	if err != nil {
		return Snapshot{}, nil, fmt.Errorf("set group volume: %w", err)
	}

	c.currentDB = targetDB
	c.muted = false
	return c.snapshotLocked(), c.onChange, nil
}

// SetVolumePercent converts a 0-100% value to dB and delegates to SetVolumeDB.
func (c *Controller) SetVolumePercent(percent float64) error {
	return c.SetVolumeDB(PercentToDB(percent))
}

// AdjustVolumeDB shifts the current volume by delta dB (positive = louder).
func (c *Controller) AdjustVolumeDB(deltaDB float64) error {
	c.mu.Lock()
	target := c.currentDB + deltaDB
	c.mu.Unlock()
	return c.SetVolumeDB(target)
}

// RecordVolumeDB stores db as the current volume without any hardware write.
// Rate-limited callers use it so the display tracks the pending target
// immediately; the value may therefore run ahead of what hardware has
// confirmed. The safety clamp still applies.
func (c *Controller) RecordVolumeDB(db float64) {
	c.mu.Lock()
	c.currentDB = ClampTarget(db, c.limits)
	snap, fn := c.snapshotLocked(), c.onChange
	c.mu.Unlock()
	c.notify(snap, fn)
}

// VolumeDB returns the current volume in dB. Pure read, no hardware access.
func (c *Controller) VolumeDB() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentDB
}

// VolumePercent returns the current volume on the 0-100% display scale.
func (c *Controller) VolumePercent() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DBToPercent(c.currentDB)
}

// ----------------------------------------------------------------------------
// Mute
// ----------------------------------------------------------------------------

// Mute silences the whole group by broadcasting the minimum volume. The
// pre-mute volume is captured for Unmute, capped at SafeMaxRestoreDB so an
// unmute can never restore to an unexpectedly loud level.
func (c *Controller) Mute() error {
	c.mu.Lock()
	if err := c.ensureConnectedLocked(); err != nil {
		c.mu.Unlock()
		c.logger.Error("failed to mute", "error", err)
		return err
	}

	restore := c.currentDB
	if restore > SafeMaxRestoreDB {
		c.logger.Warn("capping restore volume for safety", "restore_db", SafeMaxRestoreDB)
		restore = SafeMaxRestoreDB
	}

	if err := c.driver.SetGroupVolumeDB(c.session.Handle(), MinVolumeDB); err != nil {
		c.mu.Unlock()
		c.logger.Error("failed to mute", "error", err)
		return fmt.Errorf("mute: %w", err)
	}

	c.preMuteDB = restore
	c.muted = true
	snap, fn := c.snapshotLocked(), c.onChange
	c.mu.Unlock()

	c.logger.Debug("muted all monitors", "restore_db", restore)
	c.notify(snap, fn)
	return nil
}

// Unmute restores the pre-mute volume to the whole group.
func (c *Controller) Unmute() error {
	c.mu.Lock()
	if err := c.ensureConnectedLocked(); err != nil {
		c.mu.Unlock()
		c.logger.Error("failed to unmute", "error", err)
		return err
	}

	restore := c.preMuteDB
	if err := c.driver.SetGroupVolumeDB(c.session.Handle(), restore); err != nil {
		c.mu.Unlock()
		c.logger.Error("failed to unmute", "error", err)
		return fmt.Errorf("unmute: %w", err)
	}

	c.currentDB = restore
	c.muted = false
	snap, fn := c.snapshotLocked(), c.onChange
	c.mu.Unlock()

	c.logger.Debug("unmuted all monitors", "volume_db", restore)
	c.notify(snap, fn)
	return nil
}

// ToggleMute dispatches to Mute or Unmute based on the current state.
func (c *Controller) ToggleMute() error {
	if c.IsMuted() {
		return c.Unmute()
	}
	return c.Mute()
}

// IsMuted reports the current mute state. Pure read.
func (c *Controller) IsMuted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.muted
}

// ----------------------------------------------------------------------------
// Power and keepalive
// ----------------------------------------------------------------------------

// WakeupAll wakes every monitor from standby. Power state is not confirmed
// by the hardware; callers track it optimistically (see PowerButton).
func (c *Controller) WakeupAll() error {
	return c.groupCommand("wakeup", Driver.WakeupAllGroup)
}

// ShutdownAll puts every monitor into standby.
func (c *Controller) ShutdownAll() error {
	return c.groupCommand("shutdown", Driver.ShutdownAllGroup)
}

func (c *Controller) groupCommand(name string, cmd func(Driver, Handle) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnectedLocked(); err != nil {
		c.logger.Error("group command failed", "command", name, "error", err)
		return err
	}
	if err := cmd(c.driver, c.session.Handle()); err != nil {
		c.logger.Error("group command failed", "command", name, "error", err)
		return fmt.Errorf("%s: %w", name, err)
	}
	c.logger.Info("group command sent", "command", name)
	return nil
}

// StayOnline sends the protocol's native keepalive on the standing session.
// Deliberate asymmetry: it never auto-connects; when disconnected it fails
// immediately with ErrNotConnected so a keepalive can't trigger a fresh
// connection attempt.
func (c *Controller) StayOnline() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.IsConnected() {
		return ErrNotConnected
	}
	if err := c.driver.StayOnlineGroup(c.session.Handle()); err != nil {
		c.logger.Debug("stay_online failed", "error", err)
		return fmt.Errorf("stay online: %w", err)
	}
	return nil
}

// ----------------------------------------------------------------------------
// Per-monitor operations
// ----------------------------------------------------------------------------

// Monitors returns the discovered monitors in discovery order, attempting an
// auto-connect first. A failed connect yields an empty list.
func (c *Controller) Monitors() []Monitor {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureConnectedLocked(); err != nil {
		c.logger.Debug("monitor query while disconnected", "error", err)
	}
	return c.registry.List()
}

// KnownMonitors returns the registry contents without attempting a connect.
// Pure read; safe to call from state-change observers.
func (c *Controller) KnownMonitors() []Monitor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry.List()
}

// MuteMonitor mutes a single monitor by address.
func (c *Controller) MuteMonitor(address int) error {
	return c.monitorCommand(address, "mute_monitor", func(h Handle) error {
		return c.driver.SetMonitorMute(h, address, true)
	})
}

// UnmuteMonitor unmutes a single monitor by address.
func (c *Controller) UnmuteMonitor(address int) error {
	return c.monitorCommand(address, "unmute_monitor", func(h Handle) error {
		return c.driver.SetMonitorMute(h, address, false)
	})
}

// SetLED sets the LED color and pulse state of a single monitor.
func (c *Controller) SetLED(address int, color LEDColor, pulsing bool) error {
	return c.monitorCommand(address, "set_led", func(h Handle) error {
		return c.driver.SetMonitorLED(h, address, color, pulsing)
	})
}

// monitorCommand rejects unknown addresses before any hardware call.
func (c *Controller) monitorCommand(address int, name string, cmd func(Handle) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.registry.Get(address); !ok {
		c.logger.Error("monitor not found", "address", address, "command", name)
		return fmt.Errorf("%w: address %d", ErrDeviceNotFound, address)
	}
	if err := cmd(c.session.Handle()); err != nil {
		c.logger.Error("monitor command failed", "address", address, "command", name, "error", err)
		return fmt.Errorf("%s %d: %w", name, address, err)
	}
	return nil
}
