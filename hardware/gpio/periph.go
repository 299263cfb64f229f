package gpio

import (
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	periph "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Periph opens lines through the periph.io host drivers. Pin numbers are
// looked up in the periph registry, which knows pins by their GPIO number.
type Periph struct {
	Logger *logrus.Logger
}

var _ Opener = Periph{}

// NewPeriph initializes the periph host drivers. host.Init can safely be
// called multiple times.
func NewPeriph(logger *logrus.Logger) (Periph, error) {
	if _, err := host.Init(); err != nil {
		return Periph{}, fmt.Errorf("unable to initialize periph host: %w", err)
	}

	return Periph{Logger: logger}, nil
}

func (p Periph) Open(pin int) (Line, error) {
	pio := gpioreg.ByName(strconv.Itoa(pin))
	if pio == nil {
		return nil, fmt.Errorf("no periph gpio registered as %d", pin)
	}

	return &periphLine{pin: pio, logger: p.Logger}, nil
}

// edgePoll bounds each WaitForEdge call. The sysfs driver's Halt doesn't wake
// a pending wait, so the watch goroutine has to come up for air to notice
// Close.
const edgePoll = 100 * time.Millisecond

type periphLine struct {
	pin    periph.PinIO
	logger *logrus.Logger

	watching bool
	halted   atomic.Bool
	done     chan struct{}
}

func (l *periphLine) SetDirection(d Direction) error {
	var err error
	if d == Out {
		err = l.pin.Out(periph.Low)
	} else {
		err = l.pin.In(periph.Float, periph.NoEdge)
	}
	if err != nil {
		return fmt.Errorf("unable to set %s direction to %s: %w", l.pin, d, err)
	}

	return nil
}

func toPeriphEdge(e Edge) periph.Edge {
	switch e {
	case RisingEdge:
		return periph.RisingEdge
	case FallingEdge:
		return periph.FallingEdge
	case BothEdges:
		return periph.BothEdges
	}
	return periph.NoEdge
}

func (l *periphLine) Watch(edge Edge, handler func(Edge)) error {
	if l.watching {
		return errors.New("line is already watched")
	}
	if edge == NoEdge {
		return errors.New("can't watch for no edge")
	}

	if err := l.pin.In(periph.Float, toPeriphEdge(edge)); err != nil {
		return fmt.Errorf("unable to enable %s edge detection on %s: %w", edge, l.pin, err)
	}

	l.watching = true
	l.halted.Store(false)
	l.done = make(chan struct{})

	go l.wait(edge, handler)

	return nil
}

// wait delivers edges until Close sets halted.
func (l *periphLine) wait(edge Edge, handler func(Edge)) {
	defer close(l.done)

	for !l.halted.Load() {
		if !l.pin.WaitForEdge(edgePoll) {
			continue
		}
		if l.halted.Load() {
			return
		}

		got := edge
		if edge == BothEdges {
			got = FallingEdge
			if l.pin.Read() == periph.High {
				got = RisingEdge
			}
		}
		handler(got)
	}
}

func (l *periphLine) Close() error {
	if !l.watching {
		return nil
	}

	l.halted.Store(true)
	if err := l.pin.Halt(); err != nil && l.logger != nil {
		l.logger.WithError(err).WithField("pin", l.pin.String()).Warn("unable to halt edge detection")
	}
	<-l.done
	l.watching = false

	if err := l.pin.In(periph.Float, periph.NoEdge); err != nil {
		return fmt.Errorf("unable to disable edge detection on %s: %w", l.pin, err)
	}
	return nil
}
