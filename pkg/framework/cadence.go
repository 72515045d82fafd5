package framework

import "time"

// Cadence is a soft periodic gate: it fires when at least Period
// elapsed since it last fired. Jitter up to the polling granularity
// of the caller is expected.
type Cadence struct {
	Period time.Duration

	last    time.Time
	started bool
}

// NewCadence creates a Cadence.
func NewCadence(period time.Duration) *Cadence {
	return &Cadence{Period: period}
}

// Due reports whether the cadence fires at now, and if so records
// now as the last firing time. The first call only arms the cadence.
func (c *Cadence) Due(now time.Time) bool {
	if !c.started {
		c.started, c.last = true, now
		return false
	}
	if now.Sub(c.last) < c.Period {
		return false
	}
	c.last = now
	return true
}

// Reset re-arms the cadence at now.
func (c *Cadence) Reset(now time.Time) {
	c.started, c.last = true, now
}

// Last returns the last firing (or arming) time.
func (c *Cadence) Last() time.Time {
	return c.last
}

// Every wraps a Controller so it only runs when the cadence is due.
func Every(period time.Duration, ctl Controller) Controller {
	cadence := NewCadence(period)
	return ControlFunc(func(cc ControlContext) error {
		if !cadence.Due(cc.Time()) {
			return nil
		}
		return ctl.Control(cc)
	})
}
