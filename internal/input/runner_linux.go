//go:build linux

package input

import (
	"context"
	"fmt"
	"log/slog"
	"os"
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

// Run opens the configured evdev devices and feeds decoded commands into the
// dial and power button until ctx is canceled or the reader fails.
func Run(ctx context.Context, devices []string, dial DialControl, power PowerControl, logger *slog.Logger) error {
	files := make([]*os.File, 0, len(devices))
	closeAll := func() {
		for _, f := range files {
			_ = f.Close()
		}
	}

	for _, dev := range devices {
		f, err := os.OpenFile(dev, os.O_RDONLY, 0)
		if err != nil {
			closeAll()
			return fmt.Errorf("open input device %s: %w", dev, err)
		}
		files = append(files, f)
		logger.Info("input device opened", "device", dev)
	}

	events := make(chan Event, 64)
	readErr := make(chan error, 1)
	go ReadEvents(files, events, readErr)

	for {
		select {
		case <-ctx.Done():
			closeAll()
			return nil

		case err := <-readErr:
			closeAll()
			return fmt.Errorf("input reader stopped: %w", err)

		case ev := <-events:
			cmd := Translate(ev)
			switch cmd.Action {
			case ActionRotate:
				dir := 1
				steps := cmd.Steps
				if steps < 0 {
					dir = -1
					steps = -steps
				}
				for i := 0; i < steps; i++ {
					dial.Rotate(dir)
				}

			case ActionPress:
				dial.PressDown()

			case ActionPowerPress:
				if power == nil {
					continue
				}
				if err := power.Press(); err != nil {
					logger.Warn("power press failed", "error", err)
				}
			}
		}
	}
}
