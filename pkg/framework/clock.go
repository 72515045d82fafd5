package framework

import (
	"sync"
	"time"
)

// SystemClock is the wall clock.
type SystemClock struct{}

// Time implements TimeSource.
func (SystemClock) Time() time.Time { return time.Now() }

// Sleep implements Clock.
func (SystemClock) Sleep(d time.Duration) { time.Sleep(d) }

// FakeClock is a virtual clock. Sleep advances the virtual time
// instead of blocking.
type FakeClock struct {
	now  time.Time
	lock sync.Mutex
}

// NewFakeClock creates a FakeClock starting at t.
func NewFakeClock(t time.Time) *FakeClock {
	return &FakeClock{now: t}
}

// Time implements TimeSource.
func (c *FakeClock) Time() time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.now
}

// Sleep implements Clock.
func (c *FakeClock) Sleep(d time.Duration) {
	c.Advance(d)
}

// Advance moves the virtual time forward.
func (c *FakeClock) Advance(d time.Duration) time.Time {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Uptime measures time since boot on a Clock, the way a node
// stamps packets with millis()/micros().
type Uptime struct {
	Clock Clock
	boot  time.Time
}

// NewUptime starts counting from the current time of clock.
func NewUptime(clock Clock) *Uptime {
	return &Uptime{Clock: clock, boot: clock.Time()}
}

// Since returns the duration since boot.
func (u *Uptime) Since() time.Duration {
	return u.Clock.Time().Sub(u.boot)
}

// Micros returns microseconds since boot truncated to 32 bits.
// The counter wraps after ~71 minutes, as on the wire.
func (u *Uptime) Micros() uint32 {
	return uint32(u.Since() / time.Microsecond)
}

// Millis returns milliseconds since boot.
func (u *Uptime) Millis() uint64 {
	return uint64(u.Since() / time.Millisecond)
}
