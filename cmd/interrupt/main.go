package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gloworm-vision/gpio-interrupt/hardware"
	"github.com/gloworm-vision/gpio-interrupt/hardware/gpio/gpiotest"
	"github.com/gloworm-vision/gpio-interrupt/interrupt"
	"github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		backend    = flag.String("backend", string(hardware.Cdev), "gpio backend: cdev, periph, pigpio or sim")
		chip       = flag.String("chip", "", "gpio character device for the cdev backend")
		pigpioAddr = flag.String("pigpio-addr", "localhost:8888", "pigpio daemon socket for the pigpio backend")
		interval   = flag.Duration("interval", interrupt.DefaultInterval, "how often to print the counter")
		logLevel   = flag.String("log-level", "info", "log level")
		platform   = flag.String("platform", "", "skip detection and use this platform (sim backend only)")
		pulse      = flag.Duration("sim-pulse", 100*time.Millisecond, "edge period of the sim backend")
	)
	flag.Parse()

	logger := logrus.New()
	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.WithError(err).Error("invalid log level, exiting")
		return interrupt.ExitFailure
	}
	logger.SetLevel(level)

	config := hardware.Config{
		Backend:    hardware.Backend(*backend),
		Chip:       *chip,
		PigpioAddr: *pigpioAddr,
		Logger:     logger,
	}

	p := hardware.Detect()
	if *platform != "" {
		if config.Backend != hardware.Sim {
			logger.Error("-platform can only be used with the sim backend, exiting")
			return interrupt.ExitFailure
		}
		if p, err = hardware.ParsePlatform(*platform); err != nil {
			logger.WithError(err).Error("invalid platform, exiting")
			return interrupt.ExitFailure
		}
	}
	logger.WithField("platform", p).Debug("detected platform")

	// Resolve before touching any backend so an unsupported board never
	// acquires a line.
	if _, err := hardware.PinFor(p); err != nil {
		logger.WithError(err).Error("unsupported platform, exiting")
		return interrupt.ExitCode(err)
	}

	opener, err := hardware.New(config)
	if err != nil {
		logger.WithError(err).Error("can't setup gpio backend, exiting")
		return interrupt.ExitNoResources
	}
	if closer, ok := opener.(io.Closer); ok {
		defer closer.Close()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	demo := interrupt.Demo{
		Platform: p,
		Opener:   opener,
		Interval: *interval,
		Logger:   logger,
	}
	if config.Backend == hardware.Sim {
		demo.Ready = func(s *interrupt.Session) {
			go s.Line().(*gpiotest.Line).Pulse(ctx, *pulse)
		}
	}

	if err := demo.Run(ctx); err != nil {
		logger.WithError(err).Error("exiting")
		return interrupt.ExitCode(err)
	}

	return interrupt.ExitSuccess
}
