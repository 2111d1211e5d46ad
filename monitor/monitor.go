// Package monitor talks to the firmware's serial console from a host computer.
package monitor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/calvinmclean/rcdrive"
	"github.com/calvinmclean/rcdrive/commands"

	"github.com/Masterminds/semver"
	"github.com/caarlos0/env/v6"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// VersionConstraint is the range of firmware versions this monitor understands
const VersionConstraint = "~0.1.0"

// SerialPortNone disables the serial connection, which is useful for working on the console without a device
const SerialPortNone = "none"

var (
	ErrNoUSBSerial = errors.New("no USB serial port found")
	ErrVersion     = errors.New("unsupported firmware version")
	ErrClosed      = errors.New("serial connection closed")
)

type Config struct {
	SerialPort string `env:"SERIAL_PORT"`
	BaudRate   int    `env:"BAUD_RATE" envDefault:"115200"`
}

// Monitor reads lines from the firmware in the background and sends it commands
type Monitor struct {
	port  io.ReadWriteCloser
	lines chan string
}

// NewFromEnv opens SERIAL_PORT, or the first USB serial port when it is unset
func NewFromEnv() (*Monitor, error) {
	var cfg Config
	err := env.Parse(&cfg)
	if err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}

	return Open(cfg)
}

func Open(cfg Config) (*Monitor, error) {
	name := cfg.SerialPort
	switch name {
	case SerialPortNone:
		return New(newNopPort()), nil
	case "":
		ports, err := GetSerialPorts()
		if err != nil {
			return nil, err
		}
		name = ports[0]
	}

	port, err := serial.Open(name, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, fmt.Errorf("error opening serial port %q: %w", name, err)
	}

	return New(port), nil
}

// GetSerialPorts lists the names of USB serial ports
func GetSerialPorts() ([]string, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("error listing serial ports: %w", err)
	}

	var ports []string
	for _, d := range details {
		if d.IsUSB {
			ports = append(ports, d.Name)
		}
	}
	if len(ports) == 0 {
		return nil, ErrNoUSBSerial
	}

	return ports, nil
}

// New starts reading lines from port
func New(port io.ReadWriteCloser) *Monitor {
	m := &Monitor{
		port:  port,
		lines: make(chan string, 64),
	}
	go m.read()
	return m
}

func (m *Monitor) read() {
	defer close(m.lines)

	scanner := bufio.NewScanner(m.port)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\x00")
		if line == "" {
			continue
		}
		m.lines <- line
	}
}

// Send writes raw command bytes, for example "A" or "KS3"
func (m *Monitor) Send(cmd string) error {
	_, err := io.WriteString(m.port, cmd)
	if err != nil {
		return fmt.Errorf("error writing command: %w", err)
	}
	return nil
}

func (m *Monitor) Close() error {
	return m.port.Close()
}

// CheckVersion asks the firmware for its version and checks it against VersionConstraint. Other lines
// received while waiting are discarded.
func (m *Monitor) CheckVersion(ctx context.Context) (*semver.Version, error) {
	constraint, err := semver.NewConstraint(VersionConstraint)
	if err != nil {
		return nil, fmt.Errorf("error parsing version constraint: %w", err)
	}

	err = m.Send(string(commands.VersionCommand.Flag))
	if err != nil {
		return nil, err
	}

	for {
		line, err := m.next(ctx)
		if err != nil {
			return nil, err
		}

		raw, ok := strings.CutPrefix(line, commands.VersionPrefix)
		if !ok {
			continue
		}

		v, err := semver.NewVersion(raw)
		if err != nil {
			return nil, fmt.Errorf("error parsing firmware version %q: %w", raw, err)
		}
		if !constraint.Check(v) {
			return v, fmt.Errorf("%w: %s does not satisfy %s", ErrVersion, v, VersionConstraint)
		}

		return v, nil
	}
}

// Run passes every telemetry line to onTelemetry and writes all other lines to w. It returns when ctx ends
// or the connection is closed.
func (m *Monitor) Run(ctx context.Context, onTelemetry func(rcdrive.Telemetry), w io.Writer) error {
	for {
		line, err := m.next(ctx)
		if errors.Is(err, ErrClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		t, err := rcdrive.ParseTelemetry(line)
		if err == nil {
			if onTelemetry != nil {
				onTelemetry(t)
			}
			continue
		}

		_, err = fmt.Fprintln(w, line)
		if err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	}
}

func (m *Monitor) next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-m.lines:
		if !ok {
			return "", ErrClosed
		}
		return line, nil
	}
}

// nopPort never returns data and discards writes
type nopPort struct {
	closed chan struct{}
	once   sync.Once
}

func newNopPort() *nopPort {
	return &nopPort{closed: make(chan struct{})}
}

func (p *nopPort) Read([]byte) (int, error) {
	<-p.closed
	return 0, io.EOF
}

func (p *nopPort) Write(b []byte) (int, error) {
	return len(b), nil
}

func (p *nopPort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}
