package rcdrive

import (
	"errors"
	"strconv"
	"strings"
)

// TelemetryPrefix starts every telemetry line written by the drive loop
const TelemetryPrefix = "T "

var ErrNotTelemetry = errors.New("not a telemetry line")

// Telemetry is one drive cycle: the raw pulses, the normalized inputs and the commanded motor speeds
type Telemetry struct {
	SteeringPulse PulseWidth
	ThrottlePulse PulseWidth
	Steering      float32
	Throttle      Speed
	Left          Speed
	Right         Speed
	Armed         bool
}

// AppendLine appends the line format "T s=1450 t=1400 st=0.000 th=0.000 l=0.000 r=0.000 a=0" without a newline
func (t Telemetry) AppendLine(b []byte) []byte {
	b = append(b, TelemetryPrefix...)
	b = append(b, "s="...)
	b = strconv.AppendInt(b, int64(t.SteeringPulse), 10)
	b = append(b, " t="...)
	b = strconv.AppendInt(b, int64(t.ThrottlePulse), 10)
	b = appendFloat(b, " st=", t.Steering)
	b = appendFloat(b, " th=", t.Throttle.Value())
	b = appendFloat(b, " l=", t.Left.Value())
	b = appendFloat(b, " r=", t.Right.Value())
	b = append(b, " a="...)
	if t.Armed {
		return append(b, '1')
	}
	return append(b, '0')
}

func (t Telemetry) String() string {
	return string(t.AppendLine(nil))
}

func appendFloat(b []byte, key string, v float32) []byte {
	b = append(b, key...)
	return strconv.AppendFloat(b, float64(v), 'f', 3, 32)
}

// ParseTelemetry parses a line written by AppendLine. Surrounding whitespace, including "\r\n", is ignored
func ParseTelemetry(line string) (Telemetry, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, TelemetryPrefix) {
		return Telemetry{}, ErrNotTelemetry
	}

	var t Telemetry
	for _, field := range strings.Fields(line[len(TelemetryPrefix):]) {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return Telemetry{}, errors.New("invalid telemetry field: " + field)
		}

		var err error
		switch key {
		case "s":
			t.SteeringPulse, err = parsePulse(value)
		case "t":
			t.ThrottlePulse, err = parsePulse(value)
		case "st":
			t.Steering, err = parseFloat(value)
		case "th":
			t.Throttle, err = parseSpeed(value)
		case "l":
			t.Left, err = parseSpeed(value)
		case "r":
			t.Right, err = parseSpeed(value)
		case "a":
			t.Armed = value == "1"
		default:
			err = errors.New("unknown telemetry field: " + key)
		}
		if err != nil {
			return Telemetry{}, err
		}
	}

	return t, nil
}

func parsePulse(s string) (PulseWidth, error) {
	v, err := strconv.ParseInt(s, 10, 32)
	return PulseWidth(v), err
}

func parseFloat(s string) (float32, error) {
	v, err := strconv.ParseFloat(s, 32)
	return float32(v), err
}

func parseSpeed(s string) (Speed, error) {
	v, err := parseFloat(s)
	return FromPercent(v), err
}
