package glm

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeVolume is a minimal VolumeController that records every call.
type fakeVolume struct {
	mu        sync.Mutex
	volumeDB  float64
	limitDB   float64
	connected bool
	muted     bool
	failWrite bool

	sets    []float64
	records []float64
	toggles int
}

func newFakeVolume(volumeDB float64) *fakeVolume {
	return &fakeVolume{volumeDB: volumeDB, limitDB: MaxVolumeDB, connected: true}
}

func (f *fakeVolume) VolumeDB() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volumeDB
}

func (f *fakeVolume) SetVolumeDB(db float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrite {
		return errors.New("write failed")
	}
	f.sets = append(f.sets, db)
	f.volumeDB = db
	return nil
}

func (f *fakeVolume) RecordVolumeDB(db float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, db)
	f.volumeDB = db
}

func (f *fakeVolume) ToggleMute() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
	f.muted = !f.muted
	return nil
}

func (f *fakeVolume) MaxVolumeLimit() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.limitDB
}

func (f *fakeVolume) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeVolume) IsMuted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.muted
}

func (f *fakeVolume) setCalls() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]float64, len(f.sets))
	copy(out, f.sets)
	return out
}

func (f *fakeVolume) recordCalls() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]float64, len(f.records))
	copy(out, f.records)
	return out
}

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// quietDialConfig keeps timers long enough that they never fire unless a test
// wants them to.
func quietDialConfig() DialConfig {
	return DialConfig{
		StepDB:          1.0,
		MinDB:           MinVolumeDB,
		MaxDB:           MaxVolumeDB,
		DefaultDB:       DefaultVolumeDB,
		RateLimitWindow: 50 * time.Millisecond,
		KeepalivePeriod: time.Hour,
		KeepaliveCount:  3,
	}
}

// TestDial_RateLimit_LatestPendingWins checks a burst of detents inside one
// window collapses into a single hardware write carrying the final value.
func TestDial_RateLimit_LatestPendingWins(t *testing.T) {
	fv := newFakeVolume(-30)
	d := NewDial(fv, quietDialConfig(), testLogger())
	defer d.Close()

	d.Rotate(1)
	d.Rotate(1)

	// Both detents land inside the window, so nothing is sent yet but the
	// display already shows both steps.
	if got := fv.setCalls(); len(got) != 0 {
		t.Fatalf("writes inside the window = %v, want none yet", got)
	}
	if got := fv.recordCalls(); len(got) != 2 || got[1] != -28 {
		t.Fatalf("display records = %v, want [-29 -28]", got)
	}
	if got := d.PendingDB(); got != -28 {
		t.Fatalf("PendingDB = %v, want -28", got)
	}

	// The flush timer delivers exactly one write, for the latest value.
	waitUntil(t, time.Second, func() bool { return len(fv.setCalls()) > 0 })
	if got := fv.setCalls(); len(got) != 1 || got[0] != -28 {
		t.Fatalf("flushed writes = %v, want [-28]", got)
	}
}

// TestDial_Rotate_SendsOnceWindowElapsed checks a detent after an idle period
// writes immediately.
func TestDial_Rotate_SendsOnceWindowElapsed(t *testing.T) {
	fv := newFakeVolume(-30)
	cfg := quietDialConfig()
	cfg.RateLimitWindow = 10 * time.Millisecond
	d := NewDial(fv, cfg, testLogger())
	defer d.Close()

	time.Sleep(20 * time.Millisecond)
	d.Rotate(-1)

	if got := fv.setCalls(); len(got) != 1 || got[0] != -31 {
		t.Fatalf("writes = %v, want [-31]", got)
	}
}

// TestDial_Rotate_ClampsToLocalAndGlobalRange checks the target never leaves
// the intersection of the dial range and the safety limit.
func TestDial_Rotate_ClampsToLocalAndGlobalRange(t *testing.T) {
	fv := newFakeVolume(-11)
	fv.limitDB = -10
	cfg := quietDialConfig()
	cfg.MaxDB = -5 // global limit is tighter and must win
	d := NewDial(fv, cfg, testLogger())
	defer d.Close()

	d.Rotate(1)
	d.Rotate(1)
	if got := d.PendingDB(); got != -10 {
		t.Errorf("PendingDB after clamped rotations = %v, want -10", got)
	}

	fv2 := newFakeVolume(MinVolumeDB + 0.5)
	cfg2 := quietDialConfig()
	cfg2.MinDB = MinVolumeDB
	d2 := NewDial(fv2, cfg2, testLogger())
	defer d2.Close()

	d2.Rotate(-1)
	d2.Rotate(-1)
	if got := d2.PendingDB(); got != MinVolumeDB {
		t.Errorf("PendingDB after floor rotations = %v, want %v", got, MinVolumeDB)
	}
}

// TestDial_Keepalive_BurstCount checks the current volume is re-sent exactly
// KeepaliveCount times after the last rotation.
func TestDial_Keepalive_BurstCount(t *testing.T) {
	fv := newFakeVolume(-30)
	cfg := quietDialConfig()
	cfg.RateLimitWindow = time.Millisecond
	cfg.KeepalivePeriod = 20 * time.Millisecond
	cfg.KeepaliveCount = 3
	d := NewDial(fv, cfg, testLogger())
	defer d.Close()

	time.Sleep(5 * time.Millisecond)
	d.Rotate(1) // immediate write: -29

	// 1 direct write + 3 keepalive refreshes of the same value.
	waitUntil(t, time.Second, func() bool { return len(fv.setCalls()) == 4 })
	time.Sleep(60 * time.Millisecond)
	got := fv.setCalls()
	if len(got) != 4 {
		t.Fatalf("writes = %v, want exactly 4 (burst must stop)", got)
	}
	for i, db := range got {
		if db != -29 {
			t.Errorf("write %d = %v, want -29", i, db)
		}
	}
}

// TestDial_Keepalive_RestartsOnRotation checks a new detent resets the burst
// instead of stacking a second timer.
func TestDial_Keepalive_RestartsOnRotation(t *testing.T) {
	fv := newFakeVolume(-30)
	cfg := quietDialConfig()
	cfg.RateLimitWindow = time.Millisecond
	cfg.KeepalivePeriod = 30 * time.Millisecond
	cfg.KeepaliveCount = 2
	d := NewDial(fv, cfg, testLogger())
	defer d.Close()

	time.Sleep(5 * time.Millisecond)
	d.Rotate(1)
	time.Sleep(10 * time.Millisecond)
	d.Rotate(1) // before the first keepalive fires

	// 2 direct writes + one restarted burst of 2.
	waitUntil(t, time.Second, func() bool { return len(fv.setCalls()) == 4 })
	time.Sleep(80 * time.Millisecond)
	if got := fv.setCalls(); len(got) != 4 {
		t.Fatalf("writes = %v, want exactly 4", got)
	}
}

// TestDial_PressDown_Mute checks the default press action toggles mute.
func TestDial_PressDown_Mute(t *testing.T) {
	fv := newFakeVolume(-30)
	cfg := quietDialConfig()
	cfg.PressAction = PressActionMute
	d := NewDial(fv, cfg, testLogger())
	defer d.Close()

	d.PressDown()
	d.PressDown()
	if fv.toggles != 2 {
		t.Errorf("mute toggles = %d, want 2", fv.toggles)
	}
}

// TestDial_PressDown_Reset checks the reset action returns to the default,
// honoring the safety limit.
func TestDial_PressDown_Reset(t *testing.T) {
	fv := newFakeVolume(-50)
	fv.limitDB = -35
	cfg := quietDialConfig()
	cfg.PressAction = PressActionReset
	cfg.DefaultDB = -30 // above the limit, must be capped
	d := NewDial(fv, cfg, testLogger())
	defer d.Close()

	d.PressDown()
	if got := fv.setCalls(); len(got) != 1 || got[0] != -35 {
		t.Fatalf("writes = %v, want [-35]", got)
	}
	if d.PendingDB() != -35 {
		t.Errorf("PendingDB after reset = %v, want -35", d.PendingDB())
	}
}

// TestDial_FailedWriteKeepsPending checks a transport failure leaves the
// pending target in place for the flush retry.
func TestDial_FailedWriteKeepsPending(t *testing.T) {
	fv := newFakeVolume(-30)
	fv.failWrite = true
	cfg := quietDialConfig()
	cfg.RateLimitWindow = 10 * time.Millisecond
	d := NewDial(fv, cfg, testLogger())
	defer d.Close()

	time.Sleep(20 * time.Millisecond)
	d.Rotate(1)

	if got := d.PendingDB(); got != -29 {
		t.Errorf("PendingDB after failed write = %v, want -29", got)
	}

	fv.mu.Lock()
	fv.failWrite = false
	fv.mu.Unlock()

	d.Rotate(1)
	waitUntil(t, time.Second, func() bool { return len(fv.setCalls()) > 0 })
	if got := fv.setCalls(); got[len(got)-1] != -28 {
		t.Errorf("recovered write = %v, want -28 last", got)
	}
}

// TestDial_DisplayText covers the three display states.
func TestDial_DisplayText(t *testing.T) {
	fv := newFakeVolume(-30)
	cfg := quietDialConfig()
	d := NewDial(fv, cfg, testLogger())
	defer d.Close()

	if got := d.DisplayText(); got != "-30.0dB" {
		t.Errorf("DisplayText = %q, want %q", got, "-30.0dB")
	}

	fv.mu.Lock()
	fv.muted = true
	fv.mu.Unlock()
	if got := d.DisplayText(); got != "MUTE" {
		t.Errorf("DisplayText muted = %q, want MUTE", got)
	}

	fv.mu.Lock()
	fv.muted = false
	fv.connected = false
	fv.mu.Unlock()
	if got := d.DisplayText(); got != "..." {
		t.Errorf("DisplayText disconnected = %q, want ...", got)
	}

	cfg.DisplayMode = DisplayModePercent
	fv2 := newFakeVolume(PercentToDB(50))
	d2 := NewDial(fv2, cfg, testLogger())
	defer d2.Close()
	if got := d2.DisplayText(); got != "50%" {
		t.Errorf("DisplayText percent = %q, want 50%%", got)
	}
}

// TestDial_Close_StopsKeepalive checks no writes land after Close.
func TestDial_Close_StopsKeepalive(t *testing.T) {
	fv := newFakeVolume(-30)
	cfg := quietDialConfig()
	cfg.RateLimitWindow = time.Millisecond
	cfg.KeepalivePeriod = 20 * time.Millisecond
	d := NewDial(fv, cfg, testLogger())

	time.Sleep(5 * time.Millisecond)
	d.Rotate(1)
	d.Close()

	time.Sleep(60 * time.Millisecond)
	if got := fv.setCalls(); len(got) != 1 {
		t.Errorf("writes after Close = %v, want just the direct one", got)
	}
}
