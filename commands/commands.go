// Package commands is the single-byte serial console shared by the firmware and the Linux daemon.
package commands

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/calvinmclean/rcdrive"
)

// VersionPrefix starts the response to the version command
const VersionPrefix = "version="

type Command struct {
	Flag        byte
	InputSize   uint
	Run         func(Controller, io.Writer, []byte) error
	Description string
}

// Controller is used to control the drive loop
type Controller interface {
	Arm()
	Disarm()
	Armed() bool
	SetVerbose(bool)
	Verbose() bool
	Snapshot() rcdrive.Telemetry
	SetCalibration(rcdrive.Channel, rcdrive.Calibration) error
}

// ReadWriter is the console I/O. machine.Serial implements it
type ReadWriter interface {
	io.ByteReader
	io.Writer
}

var (
	ArmCommand = &Command{
		Flag:      'A',
		InputSize: 0,
		Run: func(c Controller, w io.Writer, _ []byte) error {
			c.Arm()
			return writeLine(w, "armed")
		},
		Description: "Arm the motors.",
	}
	DisarmCommand = &Command{
		Flag:      'X',
		InputSize: 0,
		Run: func(c Controller, w io.Writer, _ []byte) error {
			c.Disarm()
			return writeLine(w, "disarmed")
		},
		Description: "Disarm the motors. They are turned off on the next cycle.",
	}
	DebugCommand = &Command{
		Flag:      'D',
		InputSize: 0,
		Run: func(c Controller, w io.Writer, _ []byte) error {
			return writeLine(w, c.Snapshot().String())
		},
		Description: "Print the last drive cycle as a telemetry line.",
	}
	VerboseCommand = &Command{
		Flag:      'V',
		InputSize: 0,
		Run: func(c Controller, w io.Writer, _ []byte) error {
			v := !c.Verbose()
			c.SetVerbose(v)
			if v {
				return writeLine(w, "verbose=on")
			}
			return writeLine(w, "verbose=off")
		},
		Description: "Toggle telemetry output on every cycle.",
	}
	VersionCommand = &Command{
		Flag:      'v',
		InputSize: 0,
		Run: func(_ Controller, w io.Writer, _ []byte) error {
			return writeLine(w, VersionPrefix+rcdrive.Version)
		},
		Description: "Print the firmware version.",
	}
	CalibrateCommand = &Command{
		Flag:      'K',
		InputSize: 2,
		Run: func(c Controller, w io.Writer, b []byte) error {
			ch := rcdrive.ParseChannel(b[0])
			if ch == rcdrive.ChannelUnknown {
				return errors.New("invalid channel: " + string(b[:1]))
			}

			cal, ok := rcdrive.Preset(b2i(b[1]))
			if !ok {
				return errors.New("invalid preset: " + string(b[1:]))
			}

			err := c.SetCalibration(ch, cal)
			if err != nil {
				return err
			}
			return writeLine(w, "calibration "+ch.String()+" "+cal.String())
		},
		Description: "Select a calibration preset. Input: 'S' or 'T', then preset 1-3.",
	}
	HelpCommand = &Command{
		Flag:        'H',
		InputSize:   0,
		Description: "Show all available commands and their descriptions.",
		Run: func(_ Controller, w io.Writer, _ []byte) error {
			err := writeLine(w, "Available Commands:")
			if err != nil {
				return err
			}
			for _, cmd := range commands {
				err = writeLine(w, string(cmd.Flag)+": "+cmd.Description)
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
)

func b2i(b byte) int {
	return int(b) - '0'
}

var commands = []*Command{
	ArmCommand,
	DisarmCommand,
	DebugCommand,
	VerboseCommand,
	VersionCommand,
	CalibrateCommand,
}

func writeLine(w io.Writer, s string) error {
	_, err := w.Write([]byte(s + "\n"))
	return err
}

// Run reads commands from rw until ctx ends or the reader returns io.EOF. Other read errors, like an
// empty serial buffer, are retried after a short sleep. Unknown bytes are ignored.
func Run(ctx context.Context, c Controller, rw ReadWriter) {
	cmdMap := map[byte]*Command{
		HelpCommand.Flag: HelpCommand,
	}

	for _, cmd := range commands {
		cmdMap[cmd.Flag] = cmd
	}

	for {
		cmdIn, ok := readByte(ctx, rw)
		if !ok {
			return
		}

		cmd, ok := cmdMap[cmdIn]
		if !ok {
			continue
		}

		in := make([]byte, cmd.InputSize)
		for i := range in {
			in[i], ok = readByte(ctx, rw)
			if !ok {
				return
			}
		}

		err := cmd.Run(c, rw, in)
		if err != nil {
			_ = writeLine(rw, "error: "+err.Error())
		}
	}
}

// readByte returns false on io.EOF or when ctx ends
func readByte(ctx context.Context, r io.ByteReader) (byte, bool) {
	for {
		if ctx.Err() != nil {
			return 0, false
		}

		b, err := r.ReadByte()
		switch {
		case err == nil:
			return b, true
		case errors.Is(err, io.EOF):
			return 0, false
		}

		time.Sleep(time.Millisecond)
	}
}
