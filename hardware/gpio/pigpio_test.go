package gpio

import (
	"encoding/binary"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// fakePigpio speaks enough of the pigpio socket protocol for the line tests.
type fakePigpio struct {
	ln net.Listener

	mu    sync.Mutex
	modes map[uint32]uint32
	bits  map[uint32]uint32
	level uint32

	notify chan net.Conn
}

const fakeHandle = 7

func newFakePigpio(t *testing.T) *fakePigpio {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	f := &fakePigpio{
		ln:     ln,
		modes:  make(map[uint32]uint32),
		bits:   make(map[uint32]uint32),
		notify: make(chan net.Conn, 1),
	}
	go f.serve()
	return f
}

func (f *fakePigpio) serve() {
	for {
		conn, err := f.ln.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakePigpio) handle(conn net.Conn) {
	for {
		var req cmd
		if err := binary.Read(conn, binary.LittleEndian, &req); err != nil {
			conn.Close()
			return
		}

		var res int32
		f.mu.Lock()
		switch req.Cmd {
		case modes:
			// only bank 1 is user accessible on this fake
			if req.P1 > 31 {
				res = -3 // PI_BAD_GPIO
			} else {
				f.modes[req.P1] = req.P2
			}
		case read:
			res = int32(f.level)
		case nb:
			f.bits[req.P1] = req.P2
		case nc:
			delete(f.bits, req.P1)
		case noib:
			res = fakeHandle
		}
		f.mu.Unlock()

		resp := req
		resp.P3 = uint32(res)
		if err := binary.Write(conn, binary.LittleEndian, resp); err != nil {
			conn.Close()
			return
		}

		// the connection now only carries reports
		if req.Cmd == noib {
			f.notify <- conn
			return
		}
	}
}

func (f *fakePigpio) mode(pin uint32) (uint32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	m, ok := f.modes[pin]
	return m, ok
}

func (f *fakePigpio) notifyBits() (uint32, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, ok := f.bits[fakeHandle]
	return b, ok
}

func TestPigpioOpenOutOfRange(t *testing.T) {
	f := newFakePigpio(t)

	p, err := DialPigpio(f.ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	for _, pin := range []int{-1, 54} {
		if _, err := p.Open(pin); err == nil {
			t.Errorf("expected error opening gpio %d", pin)
		}
	}
}

func TestPigpioSetDirection(t *testing.T) {
	f := newFakePigpio(t)

	p, err := DialPigpio(f.ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	line, err := p.Open(4)
	if err != nil {
		t.Fatal(err)
	}

	if err := line.SetDirection(In); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if m, ok := f.mode(4); !ok || m != modeInput {
		t.Errorf("expected gpio 4 in input mode, got %d (set: %v)", m, ok)
	}

	bad, err := p.Open(40)
	if err != nil {
		t.Fatal(err)
	}
	if err := bad.SetDirection(In); err == nil {
		t.Error("expected pigpio error to be returned")
	}
}

func TestPigpioWatch(t *testing.T) {
	f := newFakePigpio(t)

	p, err := DialPigpio(f.ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	logger, hook := test.NewNullLogger()
	p.Logger = logger

	line, err := p.Open(4)
	if err != nil {
		t.Fatal(err)
	}

	edges := make(chan Edge, 8)
	if err := line.Watch(BothEdges, func(e Edge) { edges <- e }); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if err := line.Watch(BothEdges, func(Edge) {}); err == nil {
		t.Error("expected error watching twice")
	}

	if bits, ok := f.notifyBits(); !ok || bits != 1<<4 {
		t.Errorf("expected notifications for bit 4, got %#x (set: %v)", bits, ok)
	}

	var notify net.Conn
	select {
	case notify = <-f.notify:
	case <-time.After(time.Second):
		t.Fatal("notification socket never opened")
	}

	reports := []report{
		{Seqno: 0, Level: 1 << 4},
		{Seqno: 1, Level: 1<<4 | 1<<5}, // another pin changed
		{Seqno: 2, Level: 0},
		{Seqno: 3, Flags: 1 << 6, Level: 1 << 4}, // keepalive
		{Seqno: 4, Level: 1 << 4},
	}
	for _, r := range reports {
		if err := binary.Write(notify, binary.LittleEndian, r); err != nil {
			t.Fatal(err)
		}
	}

	for _, expected := range []Edge{RisingEdge, FallingEdge, RisingEdge} {
		select {
		case got := <-edges:
			if got != expected {
				t.Errorf("expected %s edge, got %s", expected, got)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %s edge", expected)
		}
	}

	if err := line.Close(); err != nil {
		t.Fatalf("unexpected error closing line: %s", err)
	}
	if _, ok := f.notifyBits(); ok {
		t.Error("expected notification handle to be closed")
	}

	select {
	case e := <-edges:
		t.Errorf("unexpected extra edge %s", e)
	default:
	}

	if n := len(hook.AllEntries()); n != 0 {
		t.Errorf("expected a clean close to log nothing, got %d entries", n)
	}
}

func TestPigpioWatchHighBank(t *testing.T) {
	f := newFakePigpio(t)

	p, err := DialPigpio(f.ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	for _, pin := range []int{32, 40, 53} {
		line, err := p.Open(pin)
		if err != nil {
			t.Fatalf("unexpected error opening gpio %d: %s", pin, err)
		}
		if err := line.Watch(BothEdges, func(Edge) {}); err == nil {
			t.Errorf("expected error watching gpio %d", pin)
		}
	}

	select {
	case <-f.notify:
		t.Error("expected no notification socket to be opened")
	default:
	}
	if _, ok := f.notifyBits(); ok {
		t.Error("expected no notifications to be started")
	}
}

func TestPigpioStreamDropLogged(t *testing.T) {
	f := newFakePigpio(t)

	p, err := DialPigpio(f.ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}
	defer p.Close()

	logger, hook := test.NewNullLogger()
	p.Logger = logger

	line, err := p.Open(4)
	if err != nil {
		t.Fatal(err)
	}
	if err := line.Watch(BothEdges, func(Edge) {}); err != nil {
		t.Fatal(err)
	}

	select {
	case notify := <-f.notify:
		notify.Close()
	case <-time.After(time.Second):
		t.Fatal("notification socket never opened")
	}

	deadline := time.Now().Add(time.Second)
	for hook.LastEntry() == nil && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	entry := hook.LastEntry()
	if entry == nil {
		t.Fatal("expected the dropped stream to be logged")
	}
	if entry.Level != logrus.ErrorLevel {
		t.Errorf("expected error level, got %s", entry.Level)
	}
	if pin, ok := entry.Data["gpio"].(uint32); !ok || pin != 4 {
		t.Errorf("expected gpio field 4, got %v", entry.Data["gpio"])
	}

	if err := line.Close(); err != nil {
		t.Errorf("unexpected error closing line: %s", err)
	}
}
