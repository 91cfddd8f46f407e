package ipc

import (
	"encoding/json"
	"fmt"

	"glmctl/internal/glm"
)

// Dispatcher routes decoded requests to the daemon's controller, dial and
// power button. It implements Handler.
type Dispatcher struct {
	ctrl  *glm.Controller
	dial  *glm.Dial
	power *glm.PowerButton
}

// NewDispatcher wires a dispatcher. dial and power may be nil when the daemon
// runs without an input device; the corresponding requests then fail cleanly.
func NewDispatcher(ctrl *glm.Controller, dial *glm.Dial, power *glm.PowerButton) *Dispatcher {
	return &Dispatcher{ctrl: ctrl, dial: dial, power: power}
}

// Handle executes one request. The returned payload (if any) ends up in the
// response's data field.
func (d *Dispatcher) Handle(req Request) (any, error) {
	switch req.Type {
	case TypeGetStatus:
		status := Status{Snapshot: d.ctrl.Snapshot()}
		if d.power != nil {
			status.PowerOn = d.power.IsOn()
		}
		return status, nil

	case TypeGetMonitors:
		return d.ctrl.Monitors(), nil

	case TypeConnect:
		return nil, d.ctrl.Connect()

	case TypeDisconnect:
		d.ctrl.Disconnect()
		return nil, nil

	case TypeSetVolumeDB:
		var p SetVolumeDB
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		return nil, d.ctrl.SetVolumeDB(p.DB)

	case TypeSetVolumePercent:
		var p SetVolumePercent
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		return nil, d.ctrl.SetVolumePercent(p.Percent)

	case TypeAdjustVolumeDB:
		var p AdjustVolumeDB
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		return nil, d.ctrl.AdjustVolumeDB(p.DeltaDB)

	case TypeRotate:
		if d.dial == nil {
			return nil, fmt.Errorf("no dial configured")
		}
		var p Rotate
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		d.dial.Rotate(p.Direction)
		return nil, nil

	case TypePress:
		if d.dial == nil {
			return nil, fmt.Errorf("no dial configured")
		}
		d.dial.PressDown()
		return nil, nil

	case TypeResetDefault:
		if d.dial != nil {
			d.dial.ResetToDefault()
			return nil, nil
		}
		return nil, d.ctrl.SetVolumeDB(d.ctrl.DefaultVolume())

	case TypeMute:
		return nil, d.ctrl.Mute()

	case TypeUnmute:
		return nil, d.ctrl.Unmute()

	case TypeToggleMute:
		return nil, d.ctrl.ToggleMute()

	case TypeWakeupAll:
		return nil, d.ctrl.WakeupAll()

	case TypeShutdownAll:
		return nil, d.ctrl.ShutdownAll()

	case TypeStayOnline:
		return nil, d.ctrl.StayOnline()

	case TypePowerPress:
		if d.power == nil {
			return nil, fmt.Errorf("no power button configured")
		}
		return nil, d.power.Press()

	case TypeMuteMonitor:
		var p MonitorTarget
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		return nil, d.ctrl.MuteMonitor(p.Address)

	case TypeUnmuteMonitor:
		var p MonitorTarget
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		return nil, d.ctrl.UnmuteMonitor(p.Address)

	case TypeSetLED:
		var p SetLED
		if err := decode(req, &p); err != nil {
			return nil, err
		}
		color, err := glm.ParseLEDColor(p.Color)
		if err != nil {
			return nil, err
		}
		return nil, d.ctrl.SetLED(p.Address, color, p.Pulsing)

	default:
		return nil, fmt.Errorf("unknown request type: %s", req.Type)
	}
}

func decode(req Request, into any) error {
	if len(req.Data) == 0 {
		return fmt.Errorf("%s: missing data payload", req.Type)
	}
	if err := json.Unmarshal(req.Data, into); err != nil {
		return fmt.Errorf("%s: decode payload: %w", req.Type, err)
	}
	return nil
}
