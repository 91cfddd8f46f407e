package glm

import (
	"errors"
	"testing"
)

type fakePower struct {
	wakes, shutdowns int
	err              error
}

func (f *fakePower) WakeupAll() error {
	if f.err != nil {
		return f.err
	}
	f.wakes++
	return nil
}

func (f *fakePower) ShutdownAll() error {
	if f.err != nil {
		return f.err
	}
	f.shutdowns++
	return nil
}

// TestPowerButton_Toggle alternates shutdown/wakeup starting from "on".
func TestPowerButton_Toggle(t *testing.T) {
	fp := &fakePower{}
	pb := NewPowerButton(fp, ActionModeToggle, testLogger())

	if !pb.IsOn() {
		t.Fatal("expected initial state to be on")
	}

	if err := pb.Press(); err != nil {
		t.Fatalf("first press: %v", err)
	}
	if pb.IsOn() || fp.shutdowns != 1 {
		t.Errorf("after first press: isOn=%v shutdowns=%d, want off/1", pb.IsOn(), fp.shutdowns)
	}

	if err := pb.Press(); err != nil {
		t.Fatalf("second press: %v", err)
	}
	if !pb.IsOn() || fp.wakes != 1 {
		t.Errorf("after second press: isOn=%v wakes=%d, want on/1", pb.IsOn(), fp.wakes)
	}
}

// TestPowerButton_WakeOnly always wakes, regardless of tracked state.
func TestPowerButton_WakeOnly(t *testing.T) {
	fp := &fakePower{}
	pb := NewPowerButton(fp, ActionModeWakeOnly, testLogger())

	for i := 0; i < 3; i++ {
		if err := pb.Press(); err != nil {
			t.Fatalf("press %d: %v", i, err)
		}
	}
	if fp.wakes != 3 || fp.shutdowns != 0 {
		t.Errorf("wakes=%d shutdowns=%d, want 3/0", fp.wakes, fp.shutdowns)
	}
	if !pb.IsOn() {
		t.Error("expected tracked state on")
	}
}

// TestPowerButton_ShutdownOnly always shuts down.
func TestPowerButton_ShutdownOnly(t *testing.T) {
	fp := &fakePower{}
	pb := NewPowerButton(fp, ActionModeShutdownOnly, testLogger())

	for i := 0; i < 2; i++ {
		if err := pb.Press(); err != nil {
			t.Fatalf("press %d: %v", i, err)
		}
	}
	if fp.shutdowns != 2 || fp.wakes != 0 {
		t.Errorf("wakes=%d shutdowns=%d, want 0/2", fp.wakes, fp.shutdowns)
	}
	if pb.IsOn() {
		t.Error("expected tracked state off")
	}
}

// TestPowerButton_FailureKeepsState checks the tracked state only flips on
// success.
func TestPowerButton_FailureKeepsState(t *testing.T) {
	fp := &fakePower{err: errors.New("adapter gone")}
	pb := NewPowerButton(fp, ActionModeToggle, testLogger())

	if err := pb.Press(); err == nil {
		t.Fatal("expected press to fail")
	}
	if !pb.IsOn() {
		t.Error("failed shutdown must not flip the tracked state")
	}

	fp.err = nil
	if err := pb.Press(); err != nil {
		t.Fatalf("press after recovery: %v", err)
	}
	if pb.IsOn() || fp.shutdowns != 1 {
		t.Errorf("after recovery: isOn=%v shutdowns=%d, want off/1", pb.IsOn(), fp.shutdowns)
	}
}

// TestPowerButton_DefaultMode falls back to toggle.
func TestPowerButton_DefaultMode(t *testing.T) {
	fp := &fakePower{}
	pb := NewPowerButton(fp, "", testLogger())

	if err := pb.Press(); err != nil {
		t.Fatalf("press: %v", err)
	}
	if fp.shutdowns != 1 {
		t.Errorf("shutdowns=%d, want 1 (toggle from on)", fp.shutdowns)
	}
}
