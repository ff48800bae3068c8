package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfigFile(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DMX.FrameRate != 44 {
		t.Errorf("DMX.FrameRate = %d, want 44", cfg.DMX.FrameRate)
	}
	if cfg.DMX.BreakBaud != 96000 {
		t.Errorf("DMX.BreakBaud = %d, want 96000", cfg.DMX.BreakBaud)
	}
	if cfg.Button.CooldownSeconds != 2 {
		t.Errorf("Button.CooldownSeconds = %d, want 2", cfg.Button.CooldownSeconds)
	}
	if cfg.WebSocket.ChannelRateHZ != 10 {
		t.Errorf("WebSocket.ChannelRateHZ = %d, want 10", cfg.WebSocket.ChannelRateHZ)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
dmx:
  enabled: false
  port: /dev/ttyAMA0
  frame_rate: 30
  break_baud: 96000
audio:
  sample_rate: 48000
  buffer_ms: 50
  dir: /tmp/songs
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DMX.Enabled {
		t.Error("DMX.Enabled = true, want false")
	}
	if cfg.DMX.Port != "/dev/ttyAMA0" {
		t.Errorf("DMX.Port = %q, want /dev/ttyAMA0", cfg.DMX.Port)
	}
	if cfg.DMX.FrameRate != 30 {
		t.Errorf("DMX.FrameRate = %d, want 30", cfg.DMX.FrameRate)
	}
	if cfg.Audio.SampleRate != 48000 {
		t.Errorf("Audio.SampleRate = %d, want 48000", cfg.Audio.SampleRate)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "")

	t.Setenv("LUMACUE_DMX_PORT", "/dev/ttyUSB9")
	t.Setenv("LUMACUE_API_PORT", "9090")
	t.Setenv("LUMACUE_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.DMX.Port != "/dev/ttyUSB9" {
		t.Errorf("DMX.Port = %q, want /dev/ttyUSB9", cfg.DMX.Port)
	}
	if cfg.API.Port != 9090 {
		t.Errorf("API.Port = %d, want 9090", cfg.API.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing database path", func(c *Config) { c.Database.Path = "" }},
		{"missing dmx port", func(c *Config) { c.DMX.Port = "" }},
		{"frame rate too high", func(c *Config) { c.DMX.FrameRate = 60 }},
		{"frame rate zero", func(c *Config) { c.DMX.FrameRate = 0 }},
		{"break baud too high", func(c *Config) { c.DMX.BreakBaud = 250000 }},
		{"invalid api port", func(c *Config) { c.API.Port = 0 }},
		{"invalid mqtt qos", func(c *Config) { c.MQTT.QoS = 3 }},
		{"button without pin", func(c *Config) { c.Button.Enabled = true; c.Button.Pin = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestFramePeriod(t *testing.T) {
	cfg := Default()
	if got := cfg.FramePeriod(); got != time.Second/44 {
		t.Errorf("FramePeriod() = %v, want %v", got, time.Second/44)
	}

	cfg.DMX.FrameRate = 25
	if got := cfg.FramePeriod(); got != 40*time.Millisecond {
		t.Errorf("FramePeriod() = %v, want 40ms", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yml"); err == nil {
		t.Error("Load() = nil error for missing file, want error")
	}
}
