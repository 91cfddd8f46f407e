package statews

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"glmctl/internal/glm"
)

// Event is a pre-typed, externally-consumable state event.
type Event struct {
	Type string
	Data any
	At   time.Time // optional timestamp; zero means use now
}

// volumeCoalesceWindow is the maximum time window during which bursty volume
// updates are coalesced (latest-wins) before broadcasting to clients. Dial
// rotations can produce many snapshots per second; clients only need the
// latest.
const volumeCoalesceWindow = 50 * time.Millisecond

// ============================================================================
// Broadcaster
// ============================================================================

// RunBroadcaster reads state events, marshals them, and broadcasts them to
// all hub clients. Intended to run as a single goroutine.
func RunBroadcaster(ctx context.Context, hub *Hub, src <-chan Event, logger *slog.Logger) {
	if hub == nil || src == nil {
		return
	}

	// Rate-limit bursty volume updates: flush latest pending volume at most
	// once every volumeCoalesceWindow, even if updates keep arriving
	// (no debounce-on-silence).
	var pendingVol *Event
	var volTimer *time.Timer
	var volTimerCh <-chan time.Time

	flushPendingVol := func() {
		if pendingVol == nil {
			return
		}

		ts := pendingVol.At
		if ts.IsZero() {
			ts = time.Now().UTC()
		}

		msg, err := json.Marshal(envelope{
			Type: pendingVol.Type,
			Ts:   &ts,
			Data: pendingVol.Data,
		})
		if err != nil {
			logger.Warn("ws broadcaster marshal failed", "error", err, "type", pendingVol.Type)
			// Drop the pending item so we don't retry-marshal forever.
			pendingVol = nil
			return
		}

		hub.BroadcastBytes(msg)
		pendingVol = nil
	}

	stopVolTimer := func() {
		if volTimer == nil {
			volTimerCh = nil
			return
		}
		if !volTimer.Stop() {
			// Drain if needed.
			select {
			case <-volTimer.C:
			default:
			}
		}
		volTimerCh = nil
		volTimer = nil
	}

	startVolTimerIfNeeded := func() {
		if volTimer != nil {
			return
		}
		volTimer = time.NewTimer(volumeCoalesceWindow)
		volTimerCh = volTimer.C
	}

	resetVolTimer := func() {
		// Timer must already exist.
		if volTimer == nil {
			return
		}
		if !volTimer.Stop() {
			select {
			case <-volTimer.C:
			default:
			}
		}
		volTimer.Reset(volumeCoalesceWindow)
		volTimerCh = volTimer.C
	}

	for {
		select {
		case <-ctx.Done():
			// Best-effort: flush pending volume update before exit.
			flushPendingVol()
			stopVolTimer()
			return

		case <-volTimerCh:
			// Timer tick: flush latest pending volume if present.
			flushPendingVol()
			// Keep ticking only if more volume updates are pending; otherwise stop.
			if pendingVol == nil {
				stopVolTimer()
			} else {
				resetVolTimer()
			}

		case ev, ok := <-src:
			if !ok {
				// If the source ends, flush any pending coalesced volume update then stop.
				flushPendingVol()
				stopVolTimer()
				logger.Info("ws broadcaster stopping (source ended)")
				return
			}

			// Rate-limit only volume_changed; do NOT reset the timer on each update.
			// Latest-wins: replace pending event and ensure the periodic timer is running.
			if ev.Type == "volume_changed" {
				copyEv := ev
				pendingVol = &copyEv
				startVolTimerIfNeeded()
				continue
			}

			// Non-volume event: flush pending volume first, then emit this event immediately.
			flushPendingVol()
			stopVolTimer()

			ts := ev.At
			if ts.IsZero() {
				ts = time.Now().UTC()
			}

			msg, err := json.Marshal(envelope{
				Type: ev.Type,
				Ts:   &ts,
				Data: ev.Data,
			})
			if err != nil {
				logger.Warn("ws broadcaster marshal failed", "error", err, "type", ev.Type)
				continue
			}

			hub.BroadcastBytes(msg)
		}
	}
}

// ============================================================================
// Snapshot differ
// ============================================================================

// Differ turns controller snapshots into typed state events. Register
// OnSnapshot as the controller's state-change observer; events come out on
// Events for RunBroadcaster to consume. Snapshots arrive in order, one at a
// time.
type Differ struct {
	logger *slog.Logger
	events chan Event

	monitors func() []glm.Monitor

	last    glm.Snapshot
	hasLast bool
}

// NewDiffer builds a differ. monitors is consulted when the monitor count
// changes, to include the fresh list in the monitors_changed payload.
func NewDiffer(logger *slog.Logger, monitors func() []glm.Monitor) *Differ {
	return &Differ{
		logger:   logger,
		events:   make(chan Event, 128),
		monitors: monitors,
	}
}

// Events is the stream RunBroadcaster should consume.
func (d *Differ) Events() <-chan Event { return d.events }

// OnSnapshot compares a fresh snapshot against the previous one and emits an
// event per changed facet. Never blocks; events are dropped when the queue is
// full.
func (d *Differ) OnSnapshot(snap glm.Snapshot) {
	now := time.Now().UTC()

	if !d.hasLast || snap.Connected != d.last.Connected || snap.MonitorCount != d.last.MonitorCount {
		d.emit(Event{
			Type: "connection_changed",
			Data: connectionChangedData{Connected: snap.Connected, MonitorCount: snap.MonitorCount},
			At:   now,
		})
	}
	if !d.hasLast || snap.MonitorCount != d.last.MonitorCount {
		var list []glm.Monitor
		if d.monitors != nil {
			list = d.monitors()
		}
		d.emit(Event{
			Type: "monitors_changed",
			Data: monitorsChangedData{Monitors: list},
			At:   now,
		})
	}
	if !d.hasLast || snap.VolumeDB != d.last.VolumeDB {
		d.emit(Event{
			Type: "volume_changed",
			Data: volumeChangedData{VolumeDB: snap.VolumeDB, VolumePct: snap.VolumePct},
			At:   now,
		})
	}
	if !d.hasLast || snap.Muted != d.last.Muted {
		d.emit(Event{
			Type: "mute_changed",
			Data: muteChangedData{Muted: snap.Muted},
			At:   now,
		})
	}

	d.last = snap
	d.hasLast = true
}

func (d *Differ) emit(ev Event) {
	select {
	case d.events <- ev:
	default:
		d.logger.Warn("ws event queue full, dropping event", "type", ev.Type)
	}
}
