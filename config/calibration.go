// Package config loads the Linux daemon's settings from the environment and its calibration file.
package config

import (
	"fmt"
	"os"

	"github.com/calvinmclean/rcdrive"

	"gopkg.in/yaml.v2"
)

// Calibrations has the per-channel calibrations. Channels left out of the file use the default tables
type Calibrations struct {
	Steering rcdrive.Calibration `yaml:"steering"`
	Throttle rcdrive.Calibration `yaml:"throttle"`
}

// DefaultCalibrations uses the steering and throttle tables measured on the original receiver
func DefaultCalibrations() Calibrations {
	return Calibrations{
		Steering: rcdrive.CalibrationSteering,
		Throttle: rcdrive.CalibrationThrottle,
	}
}

// ParseCalibrations reads YAML like:
//
//	steering: {min: 1100, mid: 1450, max: 1800}
//	throttle: {min: 1050, mid: 1400, max: 1850}
func ParseCalibrations(data []byte) (Calibrations, error) {
	cfg := DefaultCalibrations()

	err := yaml.UnmarshalStrict(data, &cfg)
	if err != nil {
		return Calibrations{}, fmt.Errorf("error parsing calibration config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return Calibrations{}, err
	}

	return cfg, nil
}

// LoadCalibrations reads the calibration file at path. An empty path returns the defaults
func LoadCalibrations(path string) (Calibrations, error) {
	if path == "" {
		return DefaultCalibrations(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Calibrations{}, fmt.Errorf("error reading calibration config: %w", err)
	}

	return ParseCalibrations(data)
}

func (c Calibrations) Validate() error {
	if err := c.Steering.Validate(); err != nil {
		return fmt.Errorf("steering: %w", err)
	}
	if err := c.Throttle.Validate(); err != nil {
		return fmt.Errorf("throttle: %w", err)
	}
	return nil
}
