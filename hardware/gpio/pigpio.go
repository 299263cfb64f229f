package gpio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// Pigpio is used for controlling GPIO over the pigpio socket interface
type Pigpio struct {
	Logger *logrus.Logger

	addr string

	conn net.Conn
	mu   sync.Mutex
}

// compile-time check for whether Pigpio satisfies the Opener interface
var _ Opener = &Pigpio{}

// DialPigpio dials into the pigpio socket interface (normally running on port 8888)
func DialPigpio(addr string) (*Pigpio, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("couldn't dial into pigpio socket: %w", err)
	}

	return &Pigpio{addr: addr, conn: conn}, nil
}

// Close closes the underlying pigpio socket interface connection
func (p *Pigpio) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return fmt.Errorf("connection is already closed")
	}

	err := p.conn.Close()
	p.conn = nil
	return err
}

// pigpio exposes BCM GPIO 0-53.
const pigpioMaxGPIO = 53

// Notifications only cover bank 1, GPIO 0-31.
const pigpioMaxNotifyGPIO = 31

// Open returns the line for a BCM GPIO number.
func (p *Pigpio) Open(pin int) (Line, error) {
	if pin < 0 || pin > pigpioMaxGPIO {
		return nil, fmt.Errorf("gpio %d out of range 0-%d", pin, pigpioMaxGPIO)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil, fmt.Errorf("not connected to pigpio socket interface")
	}

	return &pigpioLine{pigpio: p, pin: uint32(pin)}, nil
}

type cmd struct {
	Cmd uint32
	P1  uint32
	P2  uint32
	P3  uint32
}

// report is a single entry of a pigpio notification stream.
type report struct {
	Seqno uint16
	Flags uint16
	Tick  uint32
	Level uint32
}

const (
	modes uint32 = 0
	read  uint32 = 3
	nb    uint32 = 19
	nc    uint32 = 21
	noib  uint32 = 99
)

const (
	modeInput  uint32 = 0
	modeOutput uint32 = 1
)

// command sends a request on the shared command socket and returns the result
// field of the response. pigpio reports failures as negative results.
func (p *Pigpio) command(c, p1, p2 uint32) (int32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn == nil {
		return 0, fmt.Errorf("not connected to pigpio socket interface")
	}

	return exchange(p.conn, cmd{Cmd: c, P1: p1, P2: p2})
}

func exchange(conn io.ReadWriter, request cmd) (int32, error) {
	if err := binary.Write(conn, binary.LittleEndian, request); err != nil {
		return 0, fmt.Errorf("unable to write request to socket: %w", err)
	}

	var response cmd
	if err := binary.Read(conn, binary.LittleEndian, &response); err != nil {
		return 0, fmt.Errorf("unable to read response from socket: %w", err)
	}

	res := int32(response.P3)
	if res < 0 {
		return res, fmt.Errorf("pigpio command %d failed with code %d", request.Cmd, res)
	}

	return res, nil
}

type pigpioLine struct {
	pigpio *Pigpio
	pin    uint32

	notify  net.Conn
	handle  uint32
	done    chan struct{}
	closing atomic.Bool
}

func (l *pigpioLine) SetDirection(d Direction) error {
	mode := modeInput
	if d == Out {
		mode = modeOutput
	}

	if _, err := l.pigpio.command(modes, l.pin, mode); err != nil {
		return fmt.Errorf("unable to set gpio %d mode: %w", l.pin, err)
	}

	return nil
}

func (l *pigpioLine) Watch(edge Edge, handler func(Edge)) error {
	if l.notify != nil {
		return errors.New("line is already watched")
	}
	if l.pin > pigpioMaxNotifyGPIO {
		return fmt.Errorf("gpio %d can't be watched, pigpio only notifies on gpio 0-%d", l.pin, pigpioMaxNotifyGPIO)
	}

	level, err := l.pigpio.command(read, l.pin, 0)
	if err != nil {
		return fmt.Errorf("unable to read gpio %d: %w", l.pin, err)
	}

	notify, err := net.Dial("tcp", l.pigpio.addr)
	if err != nil {
		return fmt.Errorf("couldn't dial pigpio notification socket: %w", err)
	}

	handle, err := exchange(notify, cmd{Cmd: noib})
	if err != nil {
		notify.Close()
		return fmt.Errorf("unable to open notification handle: %w", err)
	}

	if _, err := l.pigpio.command(nb, uint32(handle), 1<<l.pin); err != nil {
		notify.Close()
		return fmt.Errorf("unable to start notifications for gpio %d: %w", l.pin, err)
	}

	l.notify = notify
	l.handle = uint32(handle)
	l.done = make(chan struct{})
	l.closing.Store(false)

	go l.dispatch(Level(level == 1), edge, handler)

	return nil
}

// dispatch reads level reports until the notification socket is closed.
func (l *pigpioLine) dispatch(prev Level, edge Edge, handler func(Edge)) {
	defer close(l.done)

	mask := uint32(1) << l.pin
	for {
		var r report
		if err := binary.Read(l.notify, binary.LittleEndian, &r); err != nil {
			if !l.closing.Load() && l.pigpio.Logger != nil {
				l.pigpio.Logger.WithError(err).WithField("gpio", l.pin).Error("pigpio notification stream ended, edges are no longer counted")
			}
			return
		}

		// keepalive, watchdog and event reports don't carry a level change
		if r.Flags != 0 {
			continue
		}

		next := Level(r.Level&mask != 0)
		if got := edgeBetween(prev, next); edge.Matches(got) {
			handler(got)
		}
		prev = next
	}
}

func (l *pigpioLine) Close() error {
	if l.notify == nil {
		return nil
	}

	l.closing.Store(true)
	_, ncErr := l.pigpio.command(nc, l.handle, 0)
	err := l.notify.Close()
	<-l.done
	l.notify = nil

	if ncErr != nil {
		return fmt.Errorf("unable to close notification handle: %w", ncErr)
	}
	return err
}
