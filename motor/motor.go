// Package motor drives two H-bridge motors from signed speeds.
package motor

import (
	"sync/atomic"

	"github.com/calvinmclean/rcdrive"
)

// Output is one PWM pin
type Output interface {
	SetDutyPercent(percent uint8) error
	SetFullyOff() error
}

// HBridge is the complementary pin pair of one motor. Only one of them is ever driven at a time
type HBridge struct {
	Forward Output
	Reverse Output
}

// Driver owns the outputs of the left and right motors. Nothing else may write to them.
type Driver struct {
	left  HBridge
	right HBridge

	faults  atomic.Uint32
	verbose bool
}

func New(left, right HBridge) *Driver {
	return &Driver{left: left, right: right}
}

// Drive sets each of the motors to the given speed. Failed duty cycle writes are logged and counted
// but never stop the caller; the motor keeps whatever it was last successfully set to.
func (d *Driver) Drive(left, right rcdrive.Speed) {
	d.drive("left", d.left, left)
	d.drive("right", d.right, right)
}

// Stop lets both motors coast
func (d *Driver) Stop() {
	d.Drive(rcdrive.Off, rcdrive.Off)
}

// Faults is the number of duty cycle writes that failed since the Driver was created
func (d *Driver) Faults() uint32 {
	return d.faults.Load()
}

// Verbose logs every command
func (d *Driver) Verbose() {
	d.verbose = true
}

func (d *Driver) drive(side string, m HBridge, speed rcdrive.Speed) {
	v := speed.Value()
	if d.verbose {
		println("motor", side, speed.String())
	}

	switch {
	// forward
	case v > 0 && v <= 1:
		d.check(side, m.Forward.SetDutyPercent(uint8(v*100)))
		d.check(side, m.Reverse.SetFullyOff())
	// reverse
	case v < 0 && v >= -1:
		d.check(side, m.Forward.SetFullyOff())
		d.check(side, m.Reverse.SetDutyPercent(uint8(-v*100)))
	// turn motor off
	case v == 0:
		d.check(side, m.Forward.SetFullyOff())
		d.check(side, m.Reverse.SetFullyOff())
	default:
		panic("speed provided must be between -1 and 1")
	}
}

func (d *Driver) check(side string, err error) {
	if err == nil {
		return
	}
	d.faults.Add(1)
	println("error setting", side, "motor duty cycle:", err.Error())
}
