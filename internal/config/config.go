package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"glmctl/internal/glm"
)

// Config is the top-level YAML configuration for the glmctld daemon.
//
// This is intentionally user-facing and stable-ish. Keep defaults and validation
// centralized so the rest of the code can assume a well-formed config.
//
// Design goals:
// - Make config file the primary configuration surface.
// - Keep flags for small overrides and for environments where a file is awkward.
type Config struct {
	// GLM adapter and volume safety configuration
	GLM GLMConfig `yaml:"glm"`

	// Rotary dial behavior
	Dial DialConfig `yaml:"dial"`

	// Power button behavior
	Power PowerConfig `yaml:"power"`

	// Input device configuration
	Input InputConfig `yaml:"input"`

	// IPC configuration (used by the glmctl CLI)
	IPC IPCConfig `yaml:"ipc"`

	// State WebSocket server configuration
	StateWS StateWSConfig `yaml:"statews"`

	// USB hotplug monitoring
	Hotplug HotplugConfig `yaml:"hotplug"`

	// Daemon housekeeping
	Daemon DaemonConfig `yaml:"daemon"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type GLMConfig struct {
	MaxVolumeDB     float64 `yaml:"max_volume_db"`
	DefaultVolumeDB float64 `yaml:"default_volume_db"`

	// Simulate replaces the USB adapter with an in-memory one. Useful on
	// machines without the hardware.
	Simulate bool `yaml:"simulate,omitempty"`
}

type DialConfig struct {
	StepDB      float64 `yaml:"step_db"`
	MinDB       float64 `yaml:"min_db"`
	MaxDB       float64 `yaml:"max_db"`
	PressAction string  `yaml:"press_action"` // "mute" or "reset"
	DisplayMode string  `yaml:"display_mode"` // "db" or "percent"

	RateLimitMS    int `yaml:"rate_limit_ms"`
	KeepaliveMS    int `yaml:"keepalive_ms"`
	KeepaliveCount int `yaml:"keepalive_count"`
}

type PowerConfig struct {
	ActionMode string `yaml:"action_mode"` // "toggle", "wake_only" or "shutdown_only"
}

type InputConfig struct {
	Devices []string `yaml:"devices,omitempty"` // evdev nodes to monitor
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path"`
}

type StateWSConfig struct {
	Port int `yaml:"port"` // 0 disables the server
}

type HotplugConfig struct {
	Enabled bool `yaml:"enabled"`
}

type DaemonConfig struct {
	LockFile string `yaml:"lock_file"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with the protocol constants in internal/glm.
func DefaultConfig() Config {
	return Config{
		GLM: GLMConfig{
			MaxVolumeDB:     glm.SafeMaxRestoreDB,
			DefaultVolumeDB: glm.DefaultVolumeDB,
		},
		Dial: DialConfig{
			StepDB:         1.0,
			MinDB:          glm.MinVolumeDB,
			MaxDB:          glm.MaxVolumeDB,
			PressAction:    string(glm.PressActionMute),
			DisplayMode:    string(glm.DisplayModeDB),
			RateLimitMS:    200,
			KeepaliveMS:    800,
			KeepaliveCount: 3,
		},
		Power: PowerConfig{
			ActionMode: string(glm.ActionModeToggle),
		},
		Input: InputConfig{},
		IPC: IPCConfig{
			SocketPath: "/tmp/glmctl.sock",
		},
		StateWS: StateWSConfig{
			Port: 3002,
		},
		Hotplug: HotplugConfig{
			Enabled: true,
		},
		Daemon: DaemonConfig{
			LockFile: "/tmp/glmctld.lock",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file.
//
// Notes:
//   - The file must be valid YAML.
//   - Unknown fields are rejected (helps catch typos) via KnownFields(true).
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	// Ensure there's no trailing garbage (only whitespace/comments are allowed after the document).
	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// FlagOverrides applies overrides from flags on top of a loaded config.
//
// Flags should pass pointers; each override is only applied if the pointer is
// non-nil (even when it carries a zero value). main.go decides what flags
// exist; keeping the mechanism separate avoids conditionals all over the code.
type FlagOverrides struct {
	MaxVolumeDB     *float64
	DefaultVolumeDB *float64
	Simulate        *bool

	InputDevice *string

	IPCSocketPath *string
	StateWSPort   *int

	HotplugEnabled *bool

	LockFile *string
	LogLevel *string
}

// Apply merges the overrides into cfg. Nil pointers are ignored.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.MaxVolumeDB != nil {
		cfg.GLM.MaxVolumeDB = *o.MaxVolumeDB
	}
	if o.DefaultVolumeDB != nil {
		cfg.GLM.DefaultVolumeDB = *o.DefaultVolumeDB
	}
	if o.Simulate != nil {
		cfg.GLM.Simulate = *o.Simulate
	}

	if o.InputDevice != nil {
		cfg.Input.Devices = []string{*o.InputDevice}
	}

	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.StateWSPort != nil {
		cfg.StateWS.Port = *o.StateWSPort
	}

	if o.HotplugEnabled != nil {
		cfg.Hotplug.Enabled = *o.HotplugEnabled
	}

	if o.LockFile != nil {
		cfg.Daemon.LockFile = *o.LockFile
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// This is intended to be called after defaults + file + overrides are applied.
func (c *Config) Validate() error {
	// GLM
	if c.GLM.MaxVolumeDB < glm.MinVolumeDB || c.GLM.MaxVolumeDB > glm.MaxVolumeDB {
		return fmt.Errorf("glm.max_volume_db must be between %v and %v", glm.MinVolumeDB, glm.MaxVolumeDB)
	}
	if c.GLM.DefaultVolumeDB < glm.MinVolumeDB || c.GLM.DefaultVolumeDB > glm.MaxVolumeDB {
		return fmt.Errorf("glm.default_volume_db must be between %v and %v", glm.MinVolumeDB, glm.MaxVolumeDB)
	}

	// Dial
	if c.Dial.StepDB <= 0 {
		return errors.New("dial.step_db must be > 0")
	}
	if c.Dial.MinDB > c.Dial.MaxDB {
		return errors.New("dial.min_db must be <= dial.max_db")
	}
	switch glm.PressAction(c.Dial.PressAction) {
	case glm.PressActionMute, glm.PressActionReset:
	default:
		return fmt.Errorf("dial.press_action must be %q or %q", glm.PressActionMute, glm.PressActionReset)
	}
	switch glm.DisplayMode(c.Dial.DisplayMode) {
	case glm.DisplayModeDB, glm.DisplayModePercent:
	default:
		return fmt.Errorf("dial.display_mode must be %q or %q", glm.DisplayModeDB, glm.DisplayModePercent)
	}
	if c.Dial.RateLimitMS <= 0 {
		return errors.New("dial.rate_limit_ms must be > 0")
	}
	if c.Dial.KeepaliveMS <= 0 {
		return errors.New("dial.keepalive_ms must be > 0")
	}
	if c.Dial.KeepaliveCount < 0 {
		return errors.New("dial.keepalive_count must be >= 0")
	}

	// Power
	switch glm.ActionMode(c.Power.ActionMode) {
	case glm.ActionModeToggle, glm.ActionModeWakeOnly, glm.ActionModeShutdownOnly:
	default:
		return fmt.Errorf("power.action_mode must be %q, %q or %q",
			glm.ActionModeToggle, glm.ActionModeWakeOnly, glm.ActionModeShutdownOnly)
	}

	// Input - the list may be empty (headless daemon), entries may not be
	for i, dev := range c.Input.Devices {
		if dev == "" {
			return fmt.Errorf("input.devices[%d] is empty", i)
		}
	}

	// IPC
	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	// State WebSocket
	if c.StateWS.Port < 0 || c.StateWS.Port > 65535 {
		return errors.New("statews.port must be between 0 and 65535")
	}

	// Daemon
	if c.Daemon.LockFile == "" {
		return errors.New("daemon.lock_file must not be empty")
	}

	// Logging
	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}

	return nil
}

// ToDialConfig converts the file config into the engine config used by
// internal/glm, folding the safety defaults in.
func (c *Config) ToDialConfig() glm.DialConfig {
	return glm.DialConfig{
		StepDB:          c.Dial.StepDB,
		MinDB:           c.Dial.MinDB,
		MaxDB:           c.Dial.MaxDB,
		DefaultDB:       c.GLM.DefaultVolumeDB,
		PressAction:     glm.PressAction(c.Dial.PressAction),
		DisplayMode:     glm.DisplayMode(c.Dial.DisplayMode),
		RateLimitWindow: time.Duration(c.Dial.RateLimitMS) * time.Millisecond,
		KeepalivePeriod: time.Duration(c.Dial.KeepaliveMS) * time.Millisecond,
		KeepaliveCount:  c.Dial.KeepaliveCount,
	}
}

// ExpandPath expands a leading "~" in a path using $HOME.
// This is handy for config values like daemon.lock_file.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
