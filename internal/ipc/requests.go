package ipc

import (
	"encoding/json"
	"fmt"

	"glmctl/internal/glm"
)

// Request type discriminators understood by the daemon.
const (
	TypeGetStatus   = "get_status"
	TypeGetMonitors = "get_monitors"

	TypeConnect    = "connect"
	TypeDisconnect = "disconnect"

	TypeSetVolumeDB      = "set_volume_db"
	TypeSetVolumePercent = "set_volume_percent"
	TypeAdjustVolumeDB   = "adjust_volume_db"

	TypeRotate       = "rotate"
	TypePress        = "press"
	TypeResetDefault = "reset_default"

	TypeMute       = "mute"
	TypeUnmute     = "unmute"
	TypeToggleMute = "toggle_mute"

	TypeWakeupAll   = "wakeup_all"
	TypeShutdownAll = "shutdown_all"
	TypeStayOnline  = "stay_online"
	TypePowerPress  = "power_press"

	TypeMuteMonitor   = "mute_monitor"
	TypeUnmuteMonitor = "unmute_monitor"
	TypeSetLED        = "set_led"
)

// SetVolumeDB sets the group volume to an absolute dB value.
type SetVolumeDB struct {
	DB float64 `json:"db"`
}

// SetVolumePercent sets the group volume on the 0-100 display scale.
type SetVolumePercent struct {
	Percent float64 `json:"percent"`
}

// AdjustVolumeDB nudges the group volume by a signed delta.
type AdjustVolumeDB struct {
	DeltaDB float64 `json:"delta_db"`
}

// Rotate feeds a dial detent into the daemon's rate-limited dial.
type Rotate struct {
	Direction int `json:"direction"` // +1 clockwise, -1 counter-clockwise
}

// MonitorTarget addresses a single monitor on the bus.
type MonitorTarget struct {
	Address int `json:"address"`
}

// SetLED sets one monitor's front-panel LED.
type SetLED struct {
	Address int    `json:"address"`
	Color   string `json:"color"` // green, red, yellow, off
	Pulsing bool   `json:"pulsing,omitempty"`
}

// Status is the payload returned for get_status.
type Status struct {
	glm.Snapshot
	PowerOn bool `json:"power_on"`
}

// NewRequest wraps a typed payload in a request envelope. A nil payload
// produces an envelope with no data.
func NewRequest(reqType string, payload any) (Request, error) {
	req := Request{Type: reqType}
	if payload == nil {
		return req, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Request{}, fmt.Errorf("marshal %s payload: %w", reqType, err)
	}
	req.Data = data
	return req, nil
}
