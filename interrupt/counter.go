package interrupt

import "sync/atomic"

// Counter counts edge events. It is written from the GPIO backend's callback
// goroutine and read by the report loop, so all access is atomic. It only
// ever goes up.
type Counter struct {
	n atomic.Uint64
}

// Inc records one event.
func (c *Counter) Inc() {
	c.n.Add(1)
}

// Load returns the number of events recorded so far.
func (c *Counter) Load() uint64 {
	return c.n.Load()
}
