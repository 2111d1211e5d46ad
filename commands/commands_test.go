package commands

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/calvinmclean/rcdrive"
)

type testController struct {
	armed        bool
	verbose      bool
	snapshot     rcdrive.Telemetry
	calibrations map[rcdrive.Channel]rcdrive.Calibration
}

func newTestController() *testController {
	return &testController{calibrations: map[rcdrive.Channel]rcdrive.Calibration{}}
}

func (c *testController) Arm()                        { c.armed = true }
func (c *testController) Disarm()                     { c.armed = false }
func (c *testController) Armed() bool                 { return c.armed }
func (c *testController) SetVerbose(v bool)           { c.verbose = v }
func (c *testController) Verbose() bool               { return c.verbose }
func (c *testController) Snapshot() rcdrive.Telemetry { return c.snapshot }

func (c *testController) SetCalibration(ch rcdrive.Channel, cal rcdrive.Calibration) error {
	c.calibrations[ch] = cal
	return nil
}

type testConsole struct {
	in  *strings.Reader
	out bytes.Buffer
}

func (c *testConsole) ReadByte() (byte, error)     { return c.in.ReadByte() }
func (c *testConsole) Write(p []byte) (int, error) { return c.out.Write(p) }

func run(c Controller, in string) string {
	console := &testConsole{in: strings.NewReader(in)}
	Run(context.Background(), c, console)
	return console.out.String()
}

func TestRun(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		expected string
	}{
		{"Arm", "A", "armed\n"},
		{"ArmThenDisarm", "A X", "armed\ndisarmed\n"},
		{"Version", "v", "version=" + rcdrive.Version + "\n"},
		{"VerboseToggles", "VV", "verbose=on\nverbose=off\n"},
		{"Debug", "D", "T s=0 t=0 st=0.000 th=0.000 l=0.000 r=0.000 a=0\n"},
		{"CalibrateSteering", "KS3", "calibration Steering {1000,1500,2000}\n"},
		{"CalibrateThrottleLowercase", "Kt1", "calibration Throttle {1100,1450,1800}\n"},
		{"CalibrateUnknownChannel", "KQ1", "error: invalid channel: Q\n"},
		{"CalibrateUnknownPreset", "KS9", "error: invalid preset: 9\n"},
		{"UnknownBytesIgnored", "\r\nzq", ""},
		{"TruncatedInput", "KS", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := run(newTestController(), tt.in)
			if out != tt.expected {
				t.Errorf("expected=%q, got=%q", tt.expected, out)
			}
		})
	}
}

func TestRunAppliesCommands(t *testing.T) {
	c := newTestController()
	run(c, "AVKT2")

	if !c.armed || !c.verbose {
		t.Errorf("expected armed and verbose, got armed=%v verbose=%v", c.armed, c.verbose)
	}
	if got := c.calibrations[rcdrive.ChannelThrottle]; got != rcdrive.CalibrationThrottle {
		t.Errorf("expected=%v, got=%v", rcdrive.CalibrationThrottle, got)
	}
}

func TestHelp(t *testing.T) {
	out := run(newTestController(), "H")
	lines := strings.Split(strings.TrimSpace(out), "\n")

	if len(lines) != len(commands)+1 {
		t.Fatalf("expected=%d lines, got=%d: %q", len(commands)+1, len(lines), out)
	}
	for i, cmd := range commands {
		if !strings.HasPrefix(lines[i+1], string(cmd.Flag)+": ") {
			t.Errorf("expected line for %q, got=%q", cmd.Flag, lines[i+1])
		}
	}
}

// emptySerial reports an empty buffer like machine.Serial does
type emptySerial struct {
	reads int
}

func (s *emptySerial) ReadByte() (byte, error) {
	s.reads++
	return 0, errors.New("buffer empty")
}

func (s *emptySerial) Write(p []byte) (int, error) { return len(p), nil }

func TestRunRetriesUntilCanceled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	serial := &emptySerial{}
	Run(ctx, newTestController(), serial)

	if serial.reads < 2 {
		t.Errorf("expected repeated reads, got=%d", serial.reads)
	}
}
