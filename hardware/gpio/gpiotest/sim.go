// Package gpiotest provides an in-memory GPIO backend. It can be told to fail
// at any stage, and edges are injected with Fire.
package gpiotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gloworm-vision/gpio-interrupt/hardware/gpio"
)

// ErrInjected is returned by a stage configured to fail.
var ErrInjected = errors.New("injected failure")

// Sim is a simulated GPIO chip.
type Sim struct {
	FailOpen      bool
	FailDirection bool
	FailWatch     bool

	mu    sync.Mutex
	lines map[int]*Line
	opens int
}

var _ gpio.Opener = &Sim{}

func (s *Sim) Open(pin int) (gpio.Line, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.opens++
	if s.FailOpen {
		return nil, fmt.Errorf("open pin %d: %w", pin, ErrInjected)
	}
	if s.lines == nil {
		s.lines = make(map[int]*Line)
	}
	if _, ok := s.lines[pin]; ok {
		return nil, fmt.Errorf("pin %d is busy", pin)
	}

	l := &Line{sim: s, pin: pin}
	s.lines[pin] = l
	return l, nil
}

// Line returns the open line for pin, or nil.
func (s *Sim) Line(pin int) *Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lines[pin]
}

// Opens is the number of Open calls made so far, failed ones included.
func (s *Sim) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.opens
}

// Line is a simulated GPIO line.
type Line struct {
	sim *Sim
	pin int

	mu        sync.Mutex
	direction gpio.Direction
	edge      gpio.Edge
	handler   func(gpio.Edge)
	closed    bool
}

var _ gpio.Line = &Line{}

func (l *Line) SetDirection(d gpio.Direction) error {
	if l.sim.FailDirection {
		return fmt.Errorf("set direction %s: %w", d, ErrInjected)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.New("line is closed")
	}
	l.direction = d
	return nil
}

func (l *Line) Watch(edge gpio.Edge, handler func(gpio.Edge)) error {
	if l.sim.FailWatch {
		return fmt.Errorf("watch %s edge: %w", edge, ErrInjected)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.New("line is closed")
	}
	if l.handler != nil {
		return errors.New("line is already watched")
	}
	l.edge, l.handler = edge, handler
	return nil
}

func (l *Line) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return errors.New("line is already closed")
	}
	l.closed = true
	l.handler = nil
	l.mu.Unlock()

	l.sim.mu.Lock()
	delete(l.sim.lines, l.pin)
	l.sim.mu.Unlock()
	return nil
}

// Fire delivers a transition to the registered handler, if the watched edge
// matches. It reports whether the handler was called.
func (l *Line) Fire(got gpio.Edge) bool {
	l.mu.Lock()
	edge, handler := l.edge, l.handler
	l.mu.Unlock()

	if handler == nil || !edge.Matches(got) {
		return false
	}
	handler(got)
	return true
}

// Direction returns the configured direction.
func (l *Line) Direction() gpio.Direction {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.direction
}

// Edge returns the watched edge, NoEdge if unwatched.
func (l *Line) Edge() gpio.Edge {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.edge
}

// Closed reports whether Close has been called.
func (l *Line) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.closed
}

// Pulse toggles the simulated input level every interval, firing alternating
// rising and falling edges until ctx is done.
func (l *Line) Pulse(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	next := gpio.RisingEdge
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Fire(next)
			if next == gpio.RisingEdge {
				next = gpio.FallingEdge
			} else {
				next = gpio.RisingEdge
			}
		}
	}
}
