package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for LumaCue Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	DMX       DMXConfig       `yaml:"dmx"`
	Audio     AudioConfig     `yaml:"audio"`
	Button    ButtonConfig    `yaml:"button"`
	API       APIConfig       `yaml:"api"`
	WebSocket WebSocketConfig `yaml:"websocket"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// DMXConfig contains serial transmitter settings.
type DMXConfig struct {
	// Enabled selects the real serial line. When false (or when the port
	// cannot be opened) the transmitter runs against a no-op line so the
	// rest of the system works on development machines.
	Enabled bool `yaml:"enabled"`

	// Port is the serial device path (e.g. /dev/ttyUSB0, /dev/ttyAMA0).
	Port string `yaml:"port"`

	// FrameRate is the target refresh rate in frames per second.
	// DMX512 allows up to ~44 Hz for a full 512-channel universe.
	FrameRate int `yaml:"frame_rate"`

	// BreakBaud is the reduced baud rate used to synthesise the BREAK
	// condition. Writing a zero byte at 96000 baud holds the line low for
	// ~93 us, which satisfies the 88 us minimum.
	BreakBaud int `yaml:"break_baud"`
}

// AudioConfig contains audio output settings.
type AudioConfig struct {
	// SampleRate is the speaker mixing rate in Hz.
	SampleRate int `yaml:"sample_rate"`

	// BufferMS is the speaker buffer length in milliseconds. Smaller values
	// reduce latency between the scheduler clock and audible output.
	BufferMS int `yaml:"buffer_ms"`

	// Dir is the directory holding uploaded song files.
	Dir string `yaml:"dir"`
}

// ButtonConfig contains hardware trigger settings.
type ButtonConfig struct {
	Enabled bool `yaml:"enabled"`

	// Pin is the GPIO pin name (BCM numbering, e.g. "GPIO18").
	Pin string `yaml:"pin"`

	// PollIntervalMS is the level sampling interval.
	PollIntervalMS int `yaml:"poll_interval_ms"`

	// DebounceMS is the settle time before a press is accepted.
	DebounceMS int `yaml:"debounce_ms"`

	// CooldownSeconds is the minimum gap between successful triggers.
	CooldownSeconds int `yaml:"cooldown_seconds"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`

	// ChannelRateHZ is how often current channel values are streamed to
	// subscribed clients while at least one client is connected.
	ChannelRateHZ int `yaml:"channel_rate_hz"`
}

// MQTTConfig contains optional MQTT status publishing settings.
type MQTTConfig struct {
	Enabled bool             `yaml:"enabled"`
	Broker  MQTTBrokerConfig `yaml:"broker"`
	Auth    MQTTAuthConfig   `yaml:"auth"`
	QoS     int              `yaml:"qos"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: LUMACUE_SECTION_KEY
// For example: LUMACUE_DATABASE_PATH, LUMACUE_DMX_PORT
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in defaults without reading a file.
// Useful for tests and for first runs on a machine with no config yet.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/lumacue.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		DMX: DMXConfig{
			Enabled:   true,
			Port:      "/dev/ttyUSB0",
			FrameRate: 44,
			BreakBaud: 96000,
		},
		Audio: AudioConfig{
			SampleRate: 44100,
			BufferMS:   100,
			Dir:        "./data/songs",
		},
		Button: ButtonConfig{
			Enabled:         false,
			Pin:             "GPIO18",
			PollIntervalMS:  20,
			DebounceMS:      50,
			CooldownSeconds: 2,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
			ChannelRateHZ:  10,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "lumacue-core",
			},
			QoS: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: LUMACUE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("LUMACUE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("LUMACUE_DMX_PORT"); v != "" {
		cfg.DMX.Port = v
	}
	if v := os.Getenv("LUMACUE_DMX_ENABLED"); v != "" {
		cfg.DMX.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("LUMACUE_AUDIO_DIR"); v != "" {
		cfg.Audio.Dir = v
	}
	if v := os.Getenv("LUMACUE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("LUMACUE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("LUMACUE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("LUMACUE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("LUMACUE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("LUMACUE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.DMX.Enabled && c.DMX.Port == "" {
		errs = append(errs, "dmx.port is required when dmx.enabled is true")
	}
	if c.DMX.FrameRate < 1 || c.DMX.FrameRate > 44 {
		errs = append(errs, "dmx.frame_rate must be between 1 and 44")
	}
	if c.DMX.BreakBaud < 45000 || c.DMX.BreakBaud > 115200 {
		// Above 115200 baud the zero byte's low period drops under the
		// 88 us BREAK minimum that receivers require.
		errs = append(errs, "dmx.break_baud must be between 45000 and 115200")
	}
	if c.Audio.SampleRate <= 0 {
		errs = append(errs, "audio.sample_rate must be positive")
	}
	if c.Button.Enabled && c.Button.Pin == "" {
		errs = append(errs, "button.pin is required when button.enabled is true")
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// FramePeriod returns the DMX frame period derived from the frame rate.
func (c *Config) FramePeriod() time.Duration {
	return time.Second / time.Duration(c.DMX.FrameRate)
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// PollInterval returns the button sampling interval as a Duration.
func (b ButtonConfig) PollInterval() time.Duration {
	return time.Duration(b.PollIntervalMS) * time.Millisecond
}

// Debounce returns the button debounce interval as a Duration.
func (b ButtonConfig) Debounce() time.Duration {
	return time.Duration(b.DebounceMS) * time.Millisecond
}

// Cooldown returns the trigger cooldown as a Duration.
func (b ButtonConfig) Cooldown() time.Duration {
	return time.Duration(b.CooldownSeconds) * time.Second
}
