//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/warthog618/go-gpiocdev"
)

// DefaultChip is the GPIO character device used when none is configured.
const DefaultChip = "gpiochip0"

// Cdev opens lines through the Linux GPIO character device. Pin numbers are
// line offsets on Chip.
type Cdev struct {
	Chip   string
	Logger *logrus.Logger
}

var _ Opener = Cdev{}

func (c Cdev) chip() string {
	if c.Chip == "" {
		return DefaultChip
	}
	return c.Chip
}

func (c Cdev) Open(pin int) (Line, error) {
	line, err := gpiocdev.RequestLine(c.chip(), pin, gpiocdev.AsIs)
	if err != nil {
		return nil, fmt.Errorf("unable to request line %d on %s: %w", pin, c.chip(), err)
	}

	return &cdevLine{chip: c.chip(), offset: pin, line: line, logger: c.Logger}, nil
}

type cdevLine struct {
	chip   string
	offset int
	logger *logrus.Logger

	line *gpiocdev.Line

	mu      sync.RWMutex
	edge    Edge
	handler func(Edge)
}

func (l *cdevLine) dispatch(evt gpiocdev.LineEvent) {
	l.mu.RLock()
	edge, handler := l.edge, l.handler
	l.mu.RUnlock()

	if handler == nil {
		return
	}

	got := RisingEdge
	if evt.Type == gpiocdev.LineEventFallingEdge {
		got = FallingEdge
	}
	if edge.Matches(got) {
		handler(got)
	}
}

func (l *cdevLine) SetDirection(d Direction) error {
	if l.line == nil {
		return errors.New("line is closed")
	}

	var opt gpiocdev.LineConfigOption = gpiocdev.AsInput
	if d == Out {
		opt = gpiocdev.AsOutput(0)
	}

	if err := l.line.Reconfigure(opt); err != nil {
		return fmt.Errorf("unable to set line %d direction to %s: %w", l.offset, d, err)
	}

	return nil
}

// edgeOption returns the request option enabling edge events for e.
func edgeOption(e Edge) (gpiocdev.LineReqOption, error) {
	switch e {
	case RisingEdge:
		return gpiocdev.WithRisingEdge, nil
	case FallingEdge:
		return gpiocdev.WithFallingEdge, nil
	case BothEdges:
		return gpiocdev.WithBothEdges, nil
	}
	return nil, fmt.Errorf("can't watch for %s edge", e)
}

// Watch re-requests the line as an input with edge events and the handler in
// a single request. uAPI v1 kernels can't add edge detection to a requested
// line, and an event request there can't be reconfigured afterwards.
func (l *cdevLine) Watch(edge Edge, handler func(Edge)) error {
	opt, err := edgeOption(edge)
	if err != nil {
		return err
	}
	if l.line == nil {
		return errors.New("line is closed")
	}

	l.mu.Lock()
	if l.handler != nil {
		l.mu.Unlock()
		return errors.New("line is already watched")
	}
	l.edge, l.handler = edge, handler
	l.mu.Unlock()

	if err := l.line.Close(); err != nil {
		return fmt.Errorf("unable to release line %d for edge request: %w", l.offset, err)
	}

	line, err := gpiocdev.RequestLine(l.chip, l.offset, gpiocdev.AsInput, opt, gpiocdev.WithEventHandler(l.dispatch))
	if err != nil {
		l.line = nil
		l.mu.Lock()
		l.edge, l.handler = NoEdge, nil
		l.mu.Unlock()
		return fmt.Errorf("unable to request %s edge events on line %d: %w", edge, l.offset, err)
	}
	l.line = line

	if l.logger != nil {
		l.logger.WithFields(logrus.Fields{"chip": l.chip, "line": l.offset, "edge": edge}).Debug("requested line with edge events")
	}

	return nil
}

func (l *cdevLine) Close() error {
	if l.line == nil {
		return nil
	}

	err := l.line.Close()
	l.line = nil
	return err
}
