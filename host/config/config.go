// Package config loads the host bridge configuration from YAML
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"motionbus/core"
)

type Config struct {
	Bus        BusConfig        `yaml:"bus"`
	Controller ControllerConfig `yaml:"controller"`
	Serial     SerialConfig     `yaml:"serial"`
	Panel      PanelConfig      `yaml:"panel"`
}

type BusConfig struct {
	Name    string `yaml:"name"`     // periph bus name or number, empty selects the first bus
	SpeedHz int64  `yaml:"speed_hz"` // 0 leaves the bus clock alone
}

type ControllerConfig struct {
	Address  uint16 `yaml:"address"`
	ReplyLen int    `yaml:"reply_len"`
}

type SerialConfig struct {
	Device      string        `yaml:"device"` // empty disables the serial pump
	Baud        int           `yaml:"baud"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
}

type PanelConfig struct {
	Chip     string         `yaml:"chip"`
	Buttons  map[string]int `yaml:"buttons"` // command name -> line offset
	Debounce time.Duration  `yaml:"debounce"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Bus.SpeedHz == 0 {
		cfg.Bus.SpeedHz = core.DefaultTWIFrequency
	}
	if cfg.Controller.Address == 0 {
		cfg.Controller.Address = uint16(core.DefaultTWIAddress)
	}
	if cfg.Controller.ReplyLen == 0 {
		cfg.Controller.ReplyLen = core.TWIBufferLength
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 115200
	}
	if cfg.Serial.ReadTimeout <= 0 {
		cfg.Serial.ReadTimeout = 100 * time.Millisecond
	}
	if cfg.Panel.Chip == "" {
		cfg.Panel.Chip = "gpiochip0"
	}
	if cfg.Panel.Debounce <= 0 {
		cfg.Panel.Debounce = 20 * time.Millisecond
	}
}

func (cfg *Config) validate() error {
	if cfg.Bus.SpeedHz < 0 {
		return fmt.Errorf("bus.speed_hz must be positive")
	}
	// 0x00 is the general call and 0x78-0x7F are reserved
	if cfg.Controller.Address > 0x77 {
		return fmt.Errorf("controller.address 0x%02X out of range", cfg.Controller.Address)
	}
	if cfg.Controller.ReplyLen < 1 || cfg.Controller.ReplyLen > core.TWIBufferLength {
		return fmt.Errorf("controller.reply_len must be 1..%d", core.TWIBufferLength)
	}
	if cfg.Serial.Baud < 0 {
		return fmt.Errorf("serial.baud must be positive")
	}
	for name, offset := range cfg.Panel.Buttons {
		if offset < 0 {
			return fmt.Errorf("panel.buttons.%s: invalid line offset %d", name, offset)
		}
	}
	return nil
}
