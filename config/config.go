// Package config loads the YAML configuration shared by the host tools.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML document read by pwmbridged and pwmctl.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	PWM     PWMConfig     `yaml:"pwm"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	Mapping MappingConfig `yaml:"mapping"`
	Log     LogConfig     `yaml:"log"`
}

// SerialConfig selects and opens the bridge's serial port.
type SerialConfig struct {
	// Port is the device path. Empty means discover by Match.
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
	// Match selects the first USB port whose product description contains it.
	Match string `yaml:"match"`
	// PollInterval bounds how long a single read waits for data.
	PollInterval time.Duration `yaml:"poll_interval"`
	// ReplyTimeout is how long pwmctl waits for the bridge to answer.
	ReplyTimeout time.Duration `yaml:"reply_timeout"`
}

// PWMConfig is the output pin driven by pwmbridged.
type PWMConfig struct {
	// Pin is a periph.io pin name, e.g. "GPIO18".
	Pin         string `yaml:"pin"`
	FrequencyHz int64  `yaml:"frequency_hz"`
}

// BridgeConfig tunes message parsing, see bridge.Config.
type BridgeConfig struct {
	ReadTimeout time.Duration `yaml:"read_timeout"`
	Strict      bool          `yaml:"strict"`
}

// MappingConfig maps a requested supply voltage onto a PWM value.
type MappingConfig struct {
	InMin  float64 `yaml:"in_min"`
	InMax  float64 `yaml:"in_max"`
	OutMin float64 `yaml:"out_min"`
	OutMax float64 `yaml:"out_max"`
}

// LogConfig sets the slog level ("debug", "info", "warn", "error").
type LogConfig struct {
	Level slog.Level `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads path and fills in defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Serial.Baud <= 0 {
		c.Serial.Baud = 115200
	}
	if c.Serial.PollInterval <= 0 {
		c.Serial.PollInterval = 10 * time.Millisecond
	}
	if c.Serial.ReplyTimeout <= 0 {
		c.Serial.ReplyTimeout = 2 * time.Second
	}
	if c.PWM.Pin == "" {
		c.PWM.Pin = "GPIO18"
	}
	if c.PWM.FrequencyHz <= 0 {
		c.PWM.FrequencyHz = 500
	}
	if c.Bridge.ReadTimeout <= 0 {
		c.Bridge.ReadTimeout = time.Second
	}
	if c.Mapping == (MappingConfig{}) {
		c.Mapping = MappingConfig{InMin: 0, InMax: 32, OutMin: 16.7, OutMax: 236}
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Mapping.InMax <= c.Mapping.InMin {
		return errors.New("mapping.in_max must be greater than mapping.in_min")
	}
	if c.Mapping.OutMin < 0 || c.Mapping.OutMax > 255 {
		return errors.New("mapping.out_min and mapping.out_max must be within 0..255")
	}
	return nil
}
