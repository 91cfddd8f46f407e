package glm

import (
	"log/slog"
	"sync"
)

// ActionMode selects what a power press does.
type ActionMode string

const (
	ActionModeToggle       ActionMode = "toggle"
	ActionModeWakeOnly     ActionMode = "wake_only"
	ActionModeShutdownOnly ActionMode = "shutdown_only"
)

// PowerController is the slice of Controller the power button needs.
type PowerController interface {
	WakeupAll() error
	ShutdownAll() error
}

// PowerButton tracks the group's power state optimistically: the protocol
// never confirms standby state, so on/off is assumed from the command
// succeeding. It can drift from reality if the monitors are switched by
// other means.
type PowerButton struct {
	mu   sync.Mutex
	ctrl PowerController
	mode ActionMode
	log  *slog.Logger

	isOn bool
}

// NewPowerButton creates a power button; monitors are assumed on initially.
func NewPowerButton(ctrl PowerController, mode ActionMode, logger *slog.Logger) *PowerButton {
	if mode == "" {
		mode = ActionModeToggle
	}
	return &PowerButton{ctrl: ctrl, mode: mode, log: logger, isOn: true}
}

// Press performs the configured power action and updates the tracked state
// only when the command succeeds.
func (p *PowerButton) Press() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.mode {
	case ActionModeWakeOnly:
		return p.wakeLocked()
	case ActionModeShutdownOnly:
		return p.shutdownLocked()
	default:
		if p.isOn {
			return p.shutdownLocked()
		}
		return p.wakeLocked()
	}
}

func (p *PowerButton) wakeLocked() error {
	if err := p.ctrl.WakeupAll(); err != nil {
		return err
	}
	p.isOn = true
	p.log.Info("monitors woken up")
	return nil
}

func (p *PowerButton) shutdownLocked() error {
	if err := p.ctrl.ShutdownAll(); err != nil {
		return err
	}
	p.isOn = false
	p.log.Info("monitors shut down")
	return nil
}

// IsOn reports the tracked (optimistic) power state.
func (p *PowerButton) IsOn() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isOn
}
