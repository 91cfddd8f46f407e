package glm

import (
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"
)

// PressAction selects what a dial press does.
type PressAction string

const (
	PressActionMute  PressAction = "mute"
	PressActionReset PressAction = "reset"
)

// DisplayMode selects how DisplayText renders the volume.
type DisplayMode string

const (
	DisplayModeDB      DisplayMode = "db"
	DisplayModePercent DisplayMode = "percent"
)

// VolumeController is the slice of Controller the dial needs. Narrow on
// purpose so tests can substitute a fake.
type VolumeController interface {
	VolumeDB() float64
	SetVolumeDB(db float64) error
	RecordVolumeDB(db float64)
	ToggleMute() error
	MaxVolumeLimit() float64
	IsConnected() bool
	IsMuted() bool
}

// DialConfig configures one rotation input source.
type DialConfig struct {
	StepDB    float64 // volume change per detent
	MinDB     float64 // local floor for this dial
	MaxDB     float64 // local ceiling, intersected with the global limit
	DefaultDB float64 // reset target

	PressAction PressAction
	DisplayMode DisplayMode

	// RateLimitWindow bounds hardware writes to one per window; rotations
	// inside the window only update the pending target. Zero means the
	// 200ms default.
	RateLimitWindow time.Duration

	// KeepalivePeriod/KeepaliveCount shape the post-rotation keepalive
	// burst: the current volume is re-sent KeepaliveCount times at
	// KeepalivePeriod intervals, bridging the silence-prone gap between
	// rapid rotations and the next real command. Zeros mean 800ms / 3.
	KeepalivePeriod time.Duration
	KeepaliveCount  int
}

func (cfg *DialConfig) applyDefaults() {
	if cfg.StepDB == 0 {
		cfg.StepDB = 1.0
	}
	if cfg.RateLimitWindow == 0 {
		cfg.RateLimitWindow = 200 * time.Millisecond
	}
	if cfg.KeepalivePeriod == 0 {
		cfg.KeepalivePeriod = 800 * time.Millisecond
	}
	if cfg.KeepaliveCount == 0 {
		cfg.KeepaliveCount = 3
	}
	if cfg.PressAction == "" {
		cfg.PressAction = PressActionMute
	}
	if cfg.DisplayMode == "" {
		cfg.DisplayMode = DisplayModeDB
	}
}

// Dial batches rapid successive volume deltas from a continuous-rotation
// input into throttled hardware writes, while updating the displayed value
// optimistically on every detent.
//
// Rate limiting is "last pending value wins": at most one write per window.
// A rotation outside the window sends immediately; rotations inside it only
// move the pending target, which a one-shot flush timer delivers when the
// window expires. The window starts armed at creation, so an initial burst
// of detents collapses into a single write.
//
// At most one keepalive timer is outstanding per dial; every rotation cancels
// and re-arms it.
type Dial struct {
	mu   sync.Mutex
	ctrl VolumeController
	cfg  DialConfig
	log  *slog.Logger

	pendingDB  float64
	hasPending bool
	lastSend   time.Time

	flush     *time.Timer
	keepalive *time.Timer
	kaSent    int
}

// NewDial wires a dial to a controller.
func NewDial(ctrl VolumeController, cfg DialConfig, logger *slog.Logger) *Dial {
	cfg.applyDefaults()
	return &Dial{ctrl: ctrl, cfg: cfg, log: logger, lastSend: time.Now()}
}

// Rotate handles one detent: +1 clockwise, -1 counter-clockwise. The pending
// target and the display always update immediately; the hardware write is
// rate limited to one per window.
func (d *Dial) Rotate(direction int) {
	if direction == 0 {
		return
	}
	if direction > 0 {
		direction = 1
	} else {
		direction = -1
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	base := d.ctrl.VolumeDB()
	if d.hasPending {
		base = d.pendingDB
	}

	maxDB := math.Min(d.cfg.MaxDB, d.ctrl.MaxVolumeLimit())
	target := base + float64(direction)*d.cfg.StepDB
	target = math.Max(d.cfg.MinDB, math.Min(maxDB, target))

	d.pendingDB = target
	d.hasPending = true

	elapsed := time.Since(d.lastSend)
	if elapsed >= d.cfg.RateLimitWindow {
		d.sendLocked(target)
	} else if d.flush == nil {
		// Deliver the latest pending value once the window expires.
		d.flush = time.AfterFunc(d.cfg.RateLimitWindow-elapsed, d.fireFlush)
	}

	// Always update the display for responsiveness, sent or not.
	d.ctrl.RecordVolumeDB(target)

	d.restartKeepaliveLocked()
}

// sendLocked issues the hardware write and stamps the rate-limit window on
// success. Failures keep the pending target so the next tick retries.
func (d *Dial) sendLocked(db float64) {
	if d.flush != nil {
		d.flush.Stop()
		d.flush = nil
	}
	if err := d.ctrl.SetVolumeDB(db); err != nil {
		d.log.Warn("dial volume write failed", "target_db", db, "error", err)
		return
	}
	d.lastSend = time.Now()
}

// fireFlush sends the pending target that was deferred by the rate limit.
func (d *Dial) fireFlush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.flush = nil
	if !d.hasPending {
		return
	}
	if time.Since(d.lastSend) < d.cfg.RateLimitWindow {
		return // a direct send won the race
	}
	d.sendLocked(d.pendingDB)
}

// restartKeepaliveLocked cancels any outstanding keepalive timer and arms a
// fresh burst.
func (d *Dial) restartKeepaliveLocked() {
	if d.keepalive != nil {
		d.keepalive.Stop()
	}
	d.kaSent = 0
	d.keepalive = time.AfterFunc(d.cfg.KeepalivePeriod, d.fireKeepalive)
}

// fireKeepalive re-sends the current volume and reschedules itself until the
// burst is exhausted.
func (d *Dial) fireKeepalive() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.keepalive == nil {
		return // Close raced the timer
	}

	d.kaSent++
	if err := d.ctrl.SetVolumeDB(d.ctrl.VolumeDB()); err != nil {
		d.log.Debug("keepalive volume refresh failed", "error", err)
	}

	if d.kaSent < d.cfg.KeepaliveCount {
		d.keepalive.Reset(d.cfg.KeepalivePeriod)
	} else {
		d.keepalive = nil
	}
}

// PressDown handles a dial press, dispatching per configuration.
func (d *Dial) PressDown() {
	switch d.cfg.PressAction {
	case PressActionReset:
		d.ResetToDefault()
	default:
		if err := d.ctrl.ToggleMute(); err != nil {
			d.log.Warn("dial mute toggle failed", "error", err)
		}
	}
}

// ResetToDefault sets the volume back to the configured default, clamped to
// the global safety maximum.
func (d *Dial) ResetToDefault() {
	target := math.Min(d.cfg.DefaultDB, d.ctrl.MaxVolumeLimit())

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.ctrl.SetVolumeDB(target); err != nil {
		d.log.Warn("dial reset failed", "target_db", target, "error", err)
		return
	}
	d.hasPending = false
	d.lastSend = time.Now()
}

// PendingDB returns the current pending target, falling back to the
// controller's volume when nothing is pending.
func (d *Dial) PendingDB() float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.hasPending {
		return d.pendingDB
	}
	return d.ctrl.VolumeDB()
}

// DisplayText renders the value a caller would show next to this dial:
// "..." while disconnected, "MUTE" while muted, otherwise the volume in the
// configured display mode.
func (d *Dial) DisplayText() string {
	if !d.ctrl.IsConnected() {
		return "..."
	}
	if d.ctrl.IsMuted() {
		return "MUTE"
	}
	if d.cfg.DisplayMode == DisplayModePercent {
		return fmt.Sprintf("%.0f%%", DBToPercent(d.ctrl.VolumeDB()))
	}
	return fmt.Sprintf("%.1fdB", d.ctrl.VolumeDB())
}

// Close cancels any outstanding flush and keepalive timers.
func (d *Dial) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.flush != nil {
		d.flush.Stop()
		d.flush = nil
	}
	if d.keepalive != nil {
		d.keepalive.Stop()
		d.keepalive = nil
	}
	d.hasPending = false
}
