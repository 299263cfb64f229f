package gpio

import "fmt"

// Level describes the binary state of a GPIO pin: either LOW or HIGH.
type Level bool

const (
	Low  Level = false
	High Level = true
)

// Direction is the data direction of a GPIO line.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	switch d {
	case In:
		return "in"
	case Out:
		return "out"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// Edge selects which voltage transitions trigger a watch handler.
type Edge int

const (
	NoEdge Edge = iota
	RisingEdge
	FallingEdge
	BothEdges
)

func (e Edge) String() string {
	switch e {
	case NoEdge:
		return "none"
	case RisingEdge:
		return "rising"
	case FallingEdge:
		return "falling"
	case BothEdges:
		return "both"
	}
	return fmt.Sprintf("Edge(%d)", int(e))
}

// Matches reports whether a transition of kind got satisfies the watched edge e.
func (e Edge) Matches(got Edge) bool {
	switch e {
	case BothEdges:
		return got == RisingEdge || got == FallingEdge
	case RisingEdge, FallingEdge:
		return got == e
	}
	return false
}

// edgeBetween returns the transition from prev to next, or NoEdge if the level
// did not change.
func edgeBetween(prev, next Level) Edge {
	switch {
	case prev == next:
		return NoEdge
	case next == High:
		return RisingEdge
	default:
		return FallingEdge
	}
}

// Line is a single requested GPIO line.
type Line interface {
	// SetDirection configures the line as an input or an output.
	SetDirection(d Direction) error

	// Watch registers handler to be called on every transition matching edge.
	// The handler runs on a goroutine owned by the backend and must return
	// quickly. Only one handler may be registered per line.
	Watch(edge Edge, handler func(Edge)) error

	// Close releases the line and stops any watch.
	Close() error
}

// Opener constructs lines by pin number. What a pin number means is up to the
// backend: a line offset, a BCM number, or a periph pin name.
type Opener interface {
	Open(pin int) (Line, error)
}
