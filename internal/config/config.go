// Package config loads the button-sensor YAML configuration.
//
// Defaults and validation live here so the rest of the daemon can assume a
// well-formed config.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/button-sensor/internal/button"
	"github.com/sweeney/button-sensor/internal/gpio"
)

// Config is the top-level YAML configuration.
type Config struct {
	// GPIO access: "gpiocdev" (default) or "rpio"
	Backend string `yaml:"backend"`
	Chip    string `yaml:"chip"`

	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`

	// HTTP status address; empty disables the server
	HTTP string `yaml:"http"`

	// Heartbeat interval; 0 disables
	Heartbeat time.Duration `yaml:"heartbeat"`

	// Publish every Nth LONG_HOLD repeat while held (first fire always)
	HoldRepeatEvery int `yaml:"hold_repeat_every"`

	Buttons []ButtonConfig `yaml:"buttons"`
}

// ButtonConfig describes one wired button.
type ButtonConfig struct {
	Name      string `yaml:"name"`
	Pin       int    `yaml:"pin"`
	ActiveLow bool   `yaml:"active_low"`
	// Optional long press override, at least 1000
	LongPressMS int `yaml:"long_press_ms,omitempty"`
}

// LongPress returns the override as a duration, zero when unset.
func (b ButtonConfig) LongPress() time.Duration {
	return time.Duration(b.LongPressMS) * time.Millisecond
}

// Default returns a Config with every default filled in and no buttons.
func Default() Config {
	return Config{
		Backend:         gpio.BackendGPIOCDev,
		Chip:            gpio.DefaultChip,
		Broker:          "tcp://192.168.1.200:1883",
		ClientID:        "button-sensor",
		HTTP:            ":80",
		Heartbeat:       15 * time.Minute,
		HoldRepeatEvery: 10,
	}
}

// Load reads path over the defaults and validates the result.
// Unknown fields are rejected to catch typos.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(b []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the config for values the daemon cannot run with.
func (c Config) Validate() error {
	switch c.Backend {
	case gpio.BackendGPIOCDev, gpio.BackendRPIO:
	default:
		return fmt.Errorf("config: unknown backend %q", c.Backend)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("config: heartbeat must not be negative")
	}
	if c.HoldRepeatEvery < 0 {
		return fmt.Errorf("config: hold_repeat_every must not be negative")
	}
	if len(c.Buttons) == 0 {
		return errors.New("config: no buttons configured")
	}

	names := make(map[string]bool)
	pins := make(map[int]bool)
	for i, b := range c.Buttons {
		if b.Name == "" {
			return fmt.Errorf("config: button %d: name is required", i)
		}
		if names[b.Name] {
			return fmt.Errorf("config: button %q: duplicate name", b.Name)
		}
		names[b.Name] = true

		if b.Pin < 0 {
			return fmt.Errorf("config: button %q: invalid pin %d", b.Name, b.Pin)
		}
		if pins[b.Pin] {
			return fmt.Errorf("config: button %q: pin %d already in use", b.Name, b.Pin)
		}
		pins[b.Pin] = true

		if b.LongPressMS != 0 && b.LongPress() < button.MinLongPressTime {
			return fmt.Errorf("config: button %q: long_press_ms %d below %v: %w",
				b.Name, b.LongPressMS, button.MinLongPressTime, button.ErrInvalidArgument)
		}
	}
	return nil
}

// Overrides carries command line values applied on top of the file.
// Nil fields are ignored.
type Overrides struct {
	Broker    *string
	HTTP      *string
	Heartbeat *time.Duration
}

// Apply merges the overrides into c.
func (o Overrides) Apply(c *Config) {
	if o.Broker != nil {
		c.Broker = *o.Broker
	}
	if o.HTTP != nil {
		c.HTTP = *o.HTTP
	}
	if o.Heartbeat != nil {
		c.Heartbeat = *o.Heartbeat
	}
}
