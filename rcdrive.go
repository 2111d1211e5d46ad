package rcdrive

// Version is reported by the firmware's version command and checked by the host monitor
const Version = "0.1.0"

// PulseWidth is the duration of one RC pulse in microseconds
type PulseWidth int32

// Channel identifies one of the two decoded RC channels
type Channel int

const (
	ChannelUnknown Channel = iota
	ChannelSteering
	ChannelThrottle
)

func (c Channel) String() string {
	switch c {
	case ChannelSteering:
		return "Steering"
	case ChannelThrottle:
		return "Throttle"
	default:
		fallthrough
	case ChannelUnknown:
		return "Unknown"
	}
}

// ParseChannel converts the single-byte channel code used by the serial console
func ParseChannel(b byte) Channel {
	switch b {
	case 'S', 's':
		return ChannelSteering
	case 'T', 't':
		return ChannelThrottle
	default:
		return ChannelUnknown
	}
}
