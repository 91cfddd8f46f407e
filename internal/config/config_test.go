package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"glmctl/internal/glm"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "glmctl.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig failed validation: %v", err)
	}
	if cfg.GLM.MaxVolumeDB != glm.SafeMaxRestoreDB {
		t.Errorf("default max_volume_db = %v, want %v", cfg.GLM.MaxVolumeDB, glm.SafeMaxRestoreDB)
	}
}

func TestLoadConfigFile_MergesOverDefaults(t *testing.T) {
	path := writeTempConfig(t, `
glm:
  max_volume_db: -20
dial:
  step_db: 0.5
  press_action: reset
logging:
  level: debug
`)
	cfg, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.GLM.MaxVolumeDB != -20 {
		t.Errorf("max_volume_db = %v, want -20", cfg.GLM.MaxVolumeDB)
	}
	if cfg.Dial.StepDB != 0.5 {
		t.Errorf("step_db = %v, want 0.5", cfg.Dial.StepDB)
	}
	if cfg.Dial.PressAction != "reset" {
		t.Errorf("press_action = %q, want reset", cfg.Dial.PressAction)
	}
	// Untouched sections keep their defaults.
	if cfg.IPC.SocketPath != "/tmp/glmctl.sock" {
		t.Errorf("socket_path = %q, want default", cfg.IPC.SocketPath)
	}
	if cfg.Dial.RateLimitMS != 200 {
		t.Errorf("rate_limit_ms = %d, want default 200", cfg.Dial.RateLimitMS)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("merged config failed validation: %v", err)
	}
}

func TestLoadConfigFile_RejectsUnknownFields(t *testing.T) {
	path := writeTempConfig(t, `
glm:
  max_volum_db: -20
`)
	if _, err := LoadConfigFile(path); err == nil {
		t.Fatal("expected error for misspelled field")
	}
}

func TestLoadConfigFile_RejectsTrailingDocument(t *testing.T) {
	path := writeTempConfig(t, `
logging:
  level: info
---
logging:
  level: debug
`)
	if _, err := LoadConfigFile(path); err == nil || !strings.Contains(err.Error(), "trailing") {
		t.Fatalf("expected trailing document error, got %v", err)
	}
}

func TestLoadConfigFile_MissingFile(t *testing.T) {
	if _, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	if _, err := LoadConfigFile(""); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestFlagOverrides_Apply(t *testing.T) {
	cfg := DefaultConfig()

	maxDB := -15.0
	sim := true
	dev := "/dev/input/event3"
	level := "debug"
	o := FlagOverrides{
		MaxVolumeDB: &maxDB,
		Simulate:    &sim,
		InputDevice: &dev,
		LogLevel:    &level,
	}
	o.Apply(&cfg)

	if cfg.GLM.MaxVolumeDB != -15 {
		t.Errorf("max_volume_db = %v, want -15", cfg.GLM.MaxVolumeDB)
	}
	if !cfg.GLM.Simulate {
		t.Error("simulate override not applied")
	}
	if len(cfg.Input.Devices) != 1 || cfg.Input.Devices[0] != dev {
		t.Errorf("input devices = %v, want [%s]", cfg.Input.Devices, dev)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Logging.Level)
	}

	// Nil pointers leave values alone.
	FlagOverrides{}.Apply(&cfg)
	if cfg.GLM.MaxVolumeDB != -15 {
		t.Error("empty overrides must not reset values")
	}
}

func TestValidate_Failures(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"max above ceiling", func(c *Config) { c.GLM.MaxVolumeDB = 5 }},
		{"default below floor", func(c *Config) { c.GLM.DefaultVolumeDB = -200 }},
		{"zero step", func(c *Config) { c.Dial.StepDB = 0 }},
		{"inverted dial range", func(c *Config) { c.Dial.MinDB = 0; c.Dial.MaxDB = -10 }},
		{"bad press action", func(c *Config) { c.Dial.PressAction = "explode" }},
		{"bad display mode", func(c *Config) { c.Dial.DisplayMode = "hex" }},
		{"zero rate limit", func(c *Config) { c.Dial.RateLimitMS = 0 }},
		{"bad power mode", func(c *Config) { c.Power.ActionMode = "flicker" }},
		{"empty input device", func(c *Config) { c.Input.Devices = []string{""} }},
		{"empty socket path", func(c *Config) { c.IPC.SocketPath = "" }},
		{"port out of range", func(c *Config) { c.StateWS.Port = 70000 }},
		{"empty lock file", func(c *Config) { c.Daemon.LockFile = "" }},
		{"empty log level", func(c *Config) { c.Logging.Level = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestToDialConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Dial.RateLimitMS = 150
	cfg.Dial.KeepaliveMS = 500
	cfg.GLM.DefaultVolumeDB = -25

	dc := cfg.ToDialConfig()
	if dc.RateLimitWindow != 150*time.Millisecond {
		t.Errorf("RateLimitWindow = %v, want 150ms", dc.RateLimitWindow)
	}
	if dc.KeepalivePeriod != 500*time.Millisecond {
		t.Errorf("KeepalivePeriod = %v, want 500ms", dc.KeepalivePeriod)
	}
	if dc.DefaultDB != -25 {
		t.Errorf("DefaultDB = %v, want -25", dc.DefaultDB)
	}
	if dc.PressAction != glm.PressActionMute {
		t.Errorf("PressAction = %q, want mute", dc.PressAction)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir available")
	}
	if got := ExpandPath("~/x.yaml"); got != filepath.Join(home, "x.yaml") {
		t.Errorf("ExpandPath(~/x.yaml) = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath(/abs/path) = %q", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q", got)
	}
}
