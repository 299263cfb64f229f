// Package interrupt counts voltage edges on the platform's button pin and
// reports the running total at a fixed interval.
package interrupt

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gloworm-vision/gpio-interrupt/hardware"
	"github.com/gloworm-vision/gpio-interrupt/hardware/gpio"
	"github.com/sirupsen/logrus"
)

// DefaultInterval is how often the counter is printed.
const DefaultInterval = time.Second

type Demo struct {
	Platform hardware.Platform
	Opener   gpio.Opener

	// Out receives one "counter value N" line per interval. Defaults to stdout.
	Out io.Writer
	// Interval defaults to DefaultInterval.
	Interval time.Duration
	Logger   *logrus.Logger

	// Ready, if set, is called by Run once the edge handler is attached.
	Ready func(*Session)
}

// Session owns the watched line and the counter fed by its edge handler.
type Session struct {
	Pin int

	line     gpio.Line
	counter  Counter
	out      io.Writer
	interval time.Duration
	logger   *logrus.Logger
}

// Setup resolves the platform's pin, opens it as an input and attaches the
// edge handler. Each stage only runs if the previous one succeeded; the error
// returned identifies the failed stage.
func (d *Demo) Setup() (*Session, error) {
	logger := d.Logger
	if logger == nil {
		logger = logrus.New()
	}

	pin, err := hardware.PinFor(d.Platform)
	if err != nil {
		return nil, err
	}

	log := logger.WithFields(logrus.Fields{"platform": d.Platform, "pin": pin})

	line, err := d.Opener.Open(pin)
	if err != nil {
		return nil, ErrLineUnavailable{fmt.Errorf("can't open gpio %d: %w", pin, err)}
	}
	log.Debug("opened gpio line")

	if err := line.SetDirection(gpio.In); err != nil {
		line.Close()
		return nil, ErrDirection{fmt.Errorf("can't set gpio %d as input: %w", pin, err)}
	}
	log.Debug("gpio line set as input")

	s := &Session{
		Pin:      pin,
		line:     line,
		out:      d.Out,
		interval: d.Interval,
		logger:   logger,
	}
	if s.out == nil {
		s.out = os.Stdout
	}
	if s.interval <= 0 {
		s.interval = DefaultInterval
	}

	// Both edges regardless of platform; the Galileo Gen 1 supports no other
	// mode.
	if err := line.Watch(gpio.BothEdges, s.interrupt); err != nil {
		line.Close()
		return nil, ErrRegistration{fmt.Errorf("can't attach edge handler to gpio %d: %w", pin, err)}
	}
	log.WithField("edge", gpio.BothEdges).Debug("edge handler attached")

	return s, nil
}

// interrupt is the edge handler. It runs on the backend's goroutine and must
// not block.
func (s *Session) interrupt(gpio.Edge) {
	s.counter.Inc()
}

// Count returns the number of edges seen so far.
func (s *Session) Count() uint64 {
	return s.counter.Load()
}

// Report prints the counter immediately and then once per interval until ctx
// is done.
func (s *Session) Report(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := fmt.Fprintf(s.out, "counter value %d\n", s.counter.Load()); err != nil {
			return fmt.Errorf("unable to write counter value: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Close detaches the handler and releases the line.
func (s *Session) Close() error {
	if err := s.line.Close(); err != nil {
		return fmt.Errorf("unable to release gpio %d: %w", s.Pin, err)
	}

	s.logger.WithField("pin", s.Pin).Debug("released gpio line")
	return nil
}

// Line returns the watched line.
func (s *Session) Line() gpio.Line {
	return s.line
}

// Run sets up the pin and reports the counter until ctx is done.
func (d *Demo) Run(ctx context.Context) error {
	s, err := d.Setup()
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.WithError(err).Warn("unable to release gpio line")
		}
	}()

	s.logger.WithFields(logrus.Fields{"platform": d.Platform, "pin": s.Pin}).Info("counting edges")
	if d.Ready != nil {
		d.Ready(s)
	}

	return s.Report(ctx)
}
