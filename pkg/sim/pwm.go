package sim

import (
	"fmt"
	"sync"

	"github.com/robotalks/fleetlink/pkg/actuator"
)

type channel struct {
	freqHz     int
	resolution uint32
	duty       uint32
}

// PWM is a simulated PWM peripheral implementing actuator.PWM.
type PWM struct {
	// Pins lists the valid pins, any pin is valid when empty.
	Pins []int

	channels map[int]*channel
	lock     sync.Mutex
}

// NewPWM creates a PWM.
func NewPWM(pins ...int) *PWM {
	return &PWM{Pins: pins, channels: make(map[int]*channel)}
}

// Attach implements actuator.PWM.
func (p *PWM) Attach(pin, freqHz int, resolution uint32) error {
	if len(p.Pins) > 0 {
		valid := false
		for _, n := range p.Pins {
			valid = valid || n == pin
		}
		if !valid {
			return fmt.Errorf("pin %d not available", pin)
		}
	}
	if freqHz <= 0 || resolution == 0 {
		return fmt.Errorf("invalid PWM %d Hz / %d", freqHz, resolution)
	}
	p.lock.Lock()
	defer p.lock.Unlock()
	p.channels[pin] = &channel{freqHz: freqHz, resolution: resolution}
	return nil
}

// SetDuty implements actuator.PWM.
func (p *PWM) SetDuty(pin int, duty uint32) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	ch := p.channels[pin]
	if ch == nil {
		return fmt.Errorf("pin %d not attached", pin)
	}
	if duty > ch.resolution {
		duty = ch.resolution
	}
	ch.duty = duty
	return nil
}

// PulseUs decodes the pulse width generated on pin, 0 when idle.
func (p *PWM) PulseUs(pin int) float64 {
	p.lock.Lock()
	defer p.lock.Unlock()
	ch := p.channels[pin]
	if ch == nil {
		return 0
	}
	return float64(ch.duty) * 1e6 / float64(ch.freqHz) / float64(ch.resolution)
}

var _ actuator.PWM = &PWM{}
