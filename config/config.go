// Package config loads the machine description (pin assignments, motion
// profile, serial/storage settings) from JSON or YAML: a plain
// byte-oriented loader that doesn't care which of the two the bytes are in.
package config

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// AxisPins names the six GPIO lines motion.Stepper needs for one axis.
type AxisPins struct {
	Step   uint32 `json:"step" yaml:"step"`
	Dir    uint32 `json:"dir" yaml:"dir"`
	MS1    uint32 `json:"ms1" yaml:"ms1"`
	MS2    uint32 `json:"ms2" yaml:"ms2"`
	MS3    uint32 `json:"ms3" yaml:"ms3"`
	Enable uint32 `json:"enable" yaml:"enable"`
}

// AxisConfig is one Stepper's full configuration: its pins plus the motion
// profile Locator/Elevator will apply to it.
type AxisConfig struct {
	Pins          AxisPins `json:"pins" yaml:"pins"`
	ActiveHighDir bool     `json:"active_high_dir" yaml:"active_high_dir"`
	SafeFreq      uint32   `json:"safe_freq" yaml:"safe_freq"`
	MaxDeltaFreq  uint32   `json:"max_delta_freq" yaml:"max_delta_freq"`
	MinSteps      *int32   `json:"min_steps,omitempty" yaml:"min_steps,omitempty"`
	MaxSteps      *int32   `json:"max_steps,omitempty" yaml:"max_steps,omitempty"`
	RangeSteps    uint32   `json:"range_steps,omitempty" yaml:"range_steps,omitempty"`
}

// SerialConfig describes the host-facing character stream.
type SerialConfig struct {
	Device      string `json:"device" yaml:"device"`
	Baud        int    `json:"baud" yaml:"baud"`
	ReadTimeout int    `json:"read_timeout_ms" yaml:"read_timeout_ms"`
}

// StorageConfig describes where G-code files are read from.
type StorageConfig struct {
	Directory string `json:"directory" yaml:"directory"`
	Watch     bool   `json:"watch" yaml:"watch"`
}

// MachineConfig is the full machine description: one AxisConfig per named
// axis (conventionally "x", "y", "z", "e"), plus the locator's precision
// profile and the ambient serial/storage/logging settings.
type MachineConfig struct {
	Axes map[string]AxisConfig `json:"axes" yaml:"axes"`

	BestFreq     uint32 `json:"best_freq" yaml:"best_freq"`
	MaxDeltaFreq uint32 `json:"max_delta_freq" yaml:"max_delta_freq"`
	Precision    uint32 `json:"precision" yaml:"precision"`

	Scale  float64 `json:"scale" yaml:"scale"`
	Metric bool    `json:"metric" yaml:"metric"`

	Serial  SerialConfig  `json:"serial" yaml:"serial"`
	Storage StorageConfig `json:"storage" yaml:"storage"`

	LogLevel string `json:"log_level" yaml:"log_level"`
}

// Load parses either JSON or YAML configuration bytes (sniffed by leading
// non-whitespace byte: '{' or '[' is JSON, anything else is tried as YAML)
// and fills in defaults for anything left zero.
func Load(data []byte) (*MachineConfig, error) {
	cfg := &MachineConfig{}

	if looksLikeJSON(data) {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: invalid JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: invalid YAML: %w", err)
		}
	}

	applyDefaults(cfg)
	return cfg, nil
}

func looksLikeJSON(data []byte) bool {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '{', '[':
			return true
		default:
			return false
		}
	}
	return false
}

func applyDefaults(cfg *MachineConfig) {
	if cfg.BestFreq == 0 {
		cfg.BestFreq = 1
	}
	if cfg.MaxDeltaFreq == 0 {
		cfg.MaxDeltaFreq = 1
	}
	if cfg.Precision == 0 {
		cfg.Precision = 5
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}
	if cfg.Serial.Baud == 0 {
		cfg.Serial.Baud = 115200
	}
	if cfg.Serial.ReadTimeout == 0 {
		cfg.Serial.ReadTimeout = 50
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	for name, axis := range cfg.Axes {
		if axis.SafeFreq == 0 {
			axis.SafeFreq = 5
		}
		if axis.MaxDeltaFreq == 0 {
			axis.MaxDeltaFreq = 1
		}
		cfg.Axes[name] = axis
	}
}

// DefaultCartesianConfig returns a sensible XY-plotter-with-extruder
// configuration for a Cartesian machine.
func DefaultCartesianConfig() *MachineConfig {
	cfg := &MachineConfig{
		Axes: map[string]AxisConfig{
			"x": {Pins: AxisPins{Step: 0, Dir: 1, MS1: 2, MS2: 3, MS3: 4, Enable: 5}},
			"y": {Pins: AxisPins{Step: 6, Dir: 7, MS1: 2, MS2: 3, MS3: 4, Enable: 5}},
			"z": {Pins: AxisPins{Step: 8, Dir: 9, MS1: 2, MS2: 3, MS3: 4, Enable: 5}},
			"e": {Pins: AxisPins{Step: 10, Dir: 11, MS1: 2, MS2: 3, MS3: 4, Enable: 5}},
		},
		Scale:  1,
		Metric: true,
		Serial: SerialConfig{Device: "/dev/ttyACM0", Baud: 115200, ReadTimeout: 50},
		Storage: StorageConfig{
			Directory: "./gcode",
		},
	}
	applyDefaults(cfg)
	return cfg
}
