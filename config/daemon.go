package config

import (
	"fmt"
	"time"

	"github.com/calvinmclean/rcdrive/sampler"

	"github.com/caarlos0/env/v6"
)

// Daemon configures cmd/rcdrive. GPIO lines are offsets on Chip, which match BCM numbers on a Raspberry Pi
type Daemon struct {
	Chip         string `env:"RCDRIVE_GPIO_CHIP" envDefault:"gpiochip0"`
	SteeringLine int    `env:"RCDRIVE_STEERING_LINE" envDefault:"9"`
	ThrottleLine int    `env:"RCDRIVE_THROTTLE_LINE" envDefault:"11"`

	LeftForwardLine  int `env:"RCDRIVE_LEFT_FORWARD_LINE" envDefault:"4"`
	LeftReverseLine  int `env:"RCDRIVE_LEFT_REVERSE_LINE" envDefault:"5"`
	RightForwardLine int `env:"RCDRIVE_RIGHT_FORWARD_LINE" envDefault:"6"`
	RightReverseLine int `env:"RCDRIVE_RIGHT_REVERSE_LINE" envDefault:"7"`

	// MotorFrequency is the software PWM frequency of the motor lines
	MotorFrequency uint32 `env:"RCDRIVE_MOTOR_FREQUENCY" envDefault:"500"`

	// ServoPin enables a hardware PWM steering servo on this BCM pin. 0 disables it
	ServoPin int `env:"RCDRIVE_SERVO_PIN" envDefault:"0"`

	Sampler     string        `env:"RCDRIVE_SAMPLER" envDefault:"edge"`
	EdgeTimeout time.Duration `env:"RCDRIVE_EDGE_TIMEOUT" envDefault:"0s"`
	CounterTop  uint16        `env:"RCDRIVE_COUNTER_TOP" envDefault:"9999"`

	Interval        time.Duration `env:"RCDRIVE_INTERVAL" envDefault:"10ms"`
	CalibrationFile string        `env:"RCDRIVE_CALIBRATION_FILE"`
	StatusAddr      string        `env:"RCDRIVE_STATUS_ADDR" envDefault:":8080"`
	Verbose         bool          `env:"RCDRIVE_VERBOSE" envDefault:"false"`
}

// LoadDaemon reads the Daemon config from the environment
func LoadDaemon() (Daemon, error) {
	var d Daemon
	err := env.Parse(&d)
	if err != nil {
		return Daemon{}, fmt.Errorf("error parsing environment: %w", err)
	}

	_, err = d.Strategy()
	if err != nil {
		return Daemon{}, err
	}

	if d.Interval <= 0 {
		return Daemon{}, fmt.Errorf("invalid interval: %v", d.Interval)
	}

	return d, nil
}

func (d Daemon) Strategy() (sampler.Strategy, error) {
	return sampler.ParseStrategy(d.Sampler)
}
