package main

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/calvinmclean/rcdrive"
	"github.com/calvinmclean/rcdrive/commands"
	"github.com/calvinmclean/rcdrive/monitor"

	"github.com/abiosoft/ishell"
)

func main() {
	m, err := monitor.NewFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	versionCtx, versionCancel := context.WithTimeout(ctx, 2*time.Second)
	v, err := m.CheckVersion(versionCtx)
	versionCancel()
	switch {
	case errors.Is(err, monitor.ErrVersion):
		log.Fatal(err)
	case err != nil:
		log.Println("unable to check firmware version:", err)
	default:
		log.Println("firmware version", v)
	}

	shell := ishell.New()
	shell.Println("rcdrive monitor")

	var (
		watch   atomic.Bool
		mu      sync.Mutex
		latest  rcdrive.Telemetry
		hasLast bool
	)

	go func() {
		err := m.Run(ctx, func(t rcdrive.Telemetry) {
			mu.Lock()
			latest, hasLast = t, true
			mu.Unlock()

			if watch.Load() {
				shell.Println(t.String())
			}
		}, lineWriter{shell})
		if err != nil && !errors.Is(err, context.Canceled) {
			shell.Println("monitor stopped:", err)
		}
	}()

	send := func(cmd string) func(c *ishell.Context) {
		return func(c *ishell.Context) {
			if err := m.Send(cmd); err != nil {
				c.Println(err)
			}
		}
	}

	shell.AddCmd(&ishell.Cmd{
		Name: "arm",
		Help: commands.ArmCommand.Description,
		Func: send(string(commands.ArmCommand.Flag)),
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "disarm",
		Help: commands.DisarmCommand.Description,
		Func: send(string(commands.DisarmCommand.Flag)),
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "debug",
		Help: commands.DebugCommand.Description,
		Func: send(string(commands.DebugCommand.Flag)),
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "verbose",
		Help: commands.VerboseCommand.Description,
		Func: send(string(commands.VerboseCommand.Flag)),
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "version",
		Help: commands.VersionCommand.Description,
		Func: send(string(commands.VersionCommand.Flag)),
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "calibrate",
		Help: "calibrate <steering|throttle> <1-3>",
		Func: func(c *ishell.Context) {
			cmd, err := calibrateCommand(c.Args)
			if err != nil {
				c.Println(err)
				return
			}
			send(cmd)(c)
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "watch",
		Help: "toggle printing telemetry as it arrives. Enable it on the device with verbose",
		Func: func(c *ishell.Context) {
			c.Println("watch:", !watch.Load())
			watch.Store(!watch.Load())
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "last",
		Help: "print the last telemetry received",
		Func: func(c *ishell.Context) {
			mu.Lock()
			t, ok := latest, hasLast
			mu.Unlock()

			if !ok {
				c.Println("no telemetry received")
				return
			}
			c.Println(t.String())
		},
	})
	shell.AddCmd(&ishell.Cmd{
		Name: "ports",
		Help: "list USB serial ports",
		Func: func(c *ishell.Context) {
			ports, err := monitor.GetSerialPorts()
			if err != nil {
				c.Println(err)
				return
			}
			for _, p := range ports {
				c.Println(p)
			}
		},
	})

	shell.Start()
}

// calibrateCommand builds the console K command from "<steering|throttle> <1-3>"
func calibrateCommand(args []string) (string, error) {
	usage := errors.New("usage: calibrate <steering|throttle> <1-3>")
	if len(args) != 2 || len(args[1]) != 1 {
		return "", usage
	}

	var ch byte
	switch strings.ToLower(args[0]) {
	case "steering", "s":
		ch = 'S'
	case "throttle", "t":
		ch = 'T'
	default:
		return "", usage
	}

	preset := args[1][0]
	if preset < '1' || preset > '3' {
		return "", usage
	}

	return string([]byte{commands.CalibrateCommand.Flag, ch, preset}), nil
}

// lineWriter prints device output through the shell so it doesn't break the prompt
type lineWriter struct {
	shell *ishell.Shell
}

func (w lineWriter) Write(p []byte) (int, error) {
	w.shell.Print(string(p))
	return len(p), nil
}
