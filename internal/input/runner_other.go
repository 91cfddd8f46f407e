//go:build !linux

package input

import (
	"context"
	"errors"
	"log/slog"
)

// DialControl is what the input runner needs from the volume dial.
type DialControl interface {
	Rotate(direction int)
	PressDown()
}

// PowerControl is what the input runner needs from the power button.
type PowerControl interface {
	Press() error
}

// Run is unavailable off Linux; evdev is a Linux interface.
func Run(ctx context.Context, devices []string, dial DialControl, power PowerControl, logger *slog.Logger) error {
	return errors.New("input devices are only supported on linux")
}
