//go:build linux

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calvinmclean/rcdrive"
	"github.com/calvinmclean/rcdrive/commands"
	"github.com/calvinmclean/rcdrive/config"
	"github.com/calvinmclean/rcdrive/controller"
	"github.com/calvinmclean/rcdrive/drive"
	"github.com/calvinmclean/rcdrive/motor"
	"github.com/calvinmclean/rcdrive/rpi"
	"github.com/calvinmclean/rcdrive/sampler"
	"github.com/calvinmclean/rcdrive/status"

	"github.com/stianeikeland/go-rpio/v4"
	"golang.org/x/sync/errgroup"
)

func main() {
	var console, arm bool
	flag.BoolVar(&console, "console", false, "Read single-byte commands from stdin")
	flag.BoolVar(&arm, "arm", false, "Arm the motors on startup")
	flag.Parse()

	cfg, err := config.LoadDaemon()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, console, arm)
	if err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg config.Daemon, console, arm bool) error {
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			if err := c.Close(); err != nil {
				log.Println("error closing:", err)
			}
		}
	}()

	cals, err := config.LoadCalibrations(cfg.CalibrationFile)
	if err != nil {
		return err
	}

	carrier, err := rpi.NewCarrier(cfg.MotorFrequency)
	if err != nil {
		return fmt.Errorf("error computing motor carrier: %w", err)
	}
	bank, err := rpi.NewLineBank(cfg.Chip, []int{
		cfg.LeftForwardLine, cfg.LeftReverseLine,
		cfg.RightForwardLine, cfg.RightReverseLine,
	}, carrier)
	if err != nil {
		return err
	}
	closers = append(closers, bank)

	left := motor.HBridge{Forward: bank.Output(0), Reverse: bank.Output(1)}
	right := motor.HBridge{Forward: bank.Output(2), Reverse: bank.Output(3)}
	motors := motor.New(left, right)

	strategy, err := cfg.Strategy()
	if err != nil {
		return err
	}

	newSampler := func(line int) (sampler.Sampler, error) {
		if strategy == sampler.StrategyCounter {
			c, err := rpi.NewLineCounter(cfg.Chip, line, cfg.CounterTop)
			if err != nil {
				return nil, err
			}
			closers = append(closers, c)
			return sampler.NewCounterSampler(c, rpi.CounterConfig(cfg.CounterTop), sampler.WithReset())
		}

		src, err := rpi.NewLineEdgeSource(cfg.Chip, line)
		if err != nil {
			return nil, err
		}
		closers = append(closers, src)
		return sampler.NewEdgeSampler(src, sampler.WithTimeout(cfg.EdgeTimeout)), nil
	}

	steering, err := newSampler(cfg.SteeringLine)
	if err != nil {
		return err
	}
	throttle, err := newSampler(cfg.ThrottleLine)
	if err != nil {
		return err
	}

	c, err := controller.New(
		controller.Channel{Sampler: steering, Calibration: cals.Steering},
		controller.Channel{Sampler: throttle, Calibration: cals.Throttle},
	)
	if err != nil {
		return err
	}
	if cfg.Verbose {
		c.Verbose()
		motors.Verbose()
	}

	opts := []drive.Option{
		drive.WithInterval(cfg.Interval),
		drive.WithTelemetry(os.Stdout),
	}
	if cfg.ServoPin != 0 {
		err = rpio.Open()
		if err != nil {
			return err
		}
		defer rpio.Close()

		servo, err := rpi.NewServo(cfg.ServoPin, rcdrive.CalibrationStandard)
		if err != nil {
			return err
		}
		opts = append(opts, drive.WithSteerer(servo))
	}

	loop := drive.New(c, motors, opts...)
	loop.SetVerbose(cfg.Verbose)
	if arm {
		loop.Arm()
	}

	router, err := status.NewRouter(loop, cals)
	if err != nil {
		return err
	}
	server := &http.Server{
		Addr:              cfg.StatusAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		log.Printf("status server listening on %s", cfg.StatusAddr)
		err := server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	if console {
		// stdin reads cannot be interrupted, so the console is left out of the group
		go commands.Run(gctx, loop, stdio{})
	}

	err = g.Wait()
	if faults := motors.Faults(); faults > 0 {
		log.Printf("%d motor output errors", faults)
	}
	return err
}

// stdio reads commands from stdin and writes responses to stdout
type stdio struct{}

func (stdio) ReadByte() (byte, error) {
	var b [1]byte
	_, err := io.ReadFull(os.Stdin, b[:])
	return b[0], err
}

func (stdio) Write(p []byte) (int, error) {
	return os.Stdout.Write(p)
}
