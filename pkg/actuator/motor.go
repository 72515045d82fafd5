// Package actuator drives the servos and ESCs of an agent through PWM.
package actuator

import (
	"errors"
	"fmt"
	"math"
	"sync"
)

// Frequency is the PWM frequency of hobby servos and ESCs.
const Frequency = 50

// PeriodUs is the PWM period at Frequency.
const PeriodUs = 1e6 / Frequency

// ErrNotFinite rejects NaN and infinite inputs. The output holds neutral.
var ErrNotFinite = errors.New("input not finite")

// PWM generates pulses on output pins.
type PWM interface {
	Attach(pin, freqHz int, resolution uint32) error
	SetDuty(pin int, duty uint32) error
}

// MotorConfig describes a PWM driven output.
type MotorConfig struct {
	Pin            int
	MinPulseUs     float64
	MaxPulseUs     float64
	NeutralPulseUs float64
	// Range is the full scale of the input value.
	Range float64
	// Resolution is the number of duty ticks per period.
	Resolution uint32
}

// Duty converts a pulse width to duty ticks.
func (c MotorConfig) Duty(pulseUs float64) uint32 {
	return uint32(math.Round(pulseUs * float64(c.Resolution) / PeriodUs))
}

func (c MotorConfig) clamp(pulseUs float64) float64 {
	return math.Max(c.MinPulseUs, math.Min(c.MaxPulseUs, pulseUs))
}

// motor holds one output at neutral until armed.
type motor struct {
	conf  MotorConfig
	pwm   PWM
	armed bool
	ready bool
	pulse float64
	lock  sync.Mutex
}

func (m *motor) init() error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if err := m.pwm.Attach(m.conf.Pin, Frequency, m.conf.Resolution); err != nil {
		return fmt.Errorf("attach pin %d: %w", m.conf.Pin, err)
	}
	m.ready = true
	return m.output(m.conf.NeutralPulseUs)
}

func (m *motor) output(pulseUs float64) error {
	if !m.ready {
		return nil
	}
	pulseUs = m.conf.clamp(pulseUs)
	m.pulse = pulseUs
	return m.pwm.SetDuty(m.conf.Pin, m.conf.Duty(pulseUs))
}

func (m *motor) write(pulseUs float64) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if !m.armed {
		pulseUs = m.conf.NeutralPulseUs
	}
	return m.output(pulseUs)
}

// reject holds neutral for a non-finite input.
func (m *motor) reject(v float64) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	if err := m.output(m.conf.NeutralPulseUs); err != nil {
		return err
	}
	return fmt.Errorf("pin %d: %w: %v", m.conf.Pin, ErrNotFinite, v)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func (m *motor) setArmed(armed bool) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.armed = armed
	if !armed {
		return m.output(m.conf.NeutralPulseUs)
	}
	return nil
}

// Pulse returns the pulse width currently generated.
func (m *motor) Pulse() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.pulse
}

// Armed tells whether the output follows writes.
func (m *motor) Armed() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.armed
}

// Ready tells whether the output is attached.
func (m *motor) Ready() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.ready
}

// Servo positions to an angle in degrees within +/- Range/2.
type Servo struct {
	motor
	// Offset trims the neutral position in degrees.
	Offset float64
}

// NewServo creates a Servo.
func NewServo(conf MotorConfig, offset float64, pwm PWM) *Servo {
	return &Servo{motor: motor{conf: conf, pwm: pwm}, Offset: offset}
}

// Init attaches the output and holds it at neutral.
func (s *Servo) Init() error { return s.init() }

// SetArmed arms or disarms, a disarmed servo returns to neutral.
func (s *Servo) SetArmed(armed bool) error { return s.setArmed(armed) }

// Write positions the servo at degrees.
func (s *Servo) Write(degrees float64) error {
	if !finite(degrees) {
		return s.reject(degrees)
	}
	c := &s.conf
	return s.write(c.NeutralPulseUs + (degrees+s.Offset)*(c.MaxPulseUs-c.MinPulseUs)/c.Range)
}

// WriteAngle positions the servo at a, limited to the servo range.
func (s *Servo) WriteAngle(a Angle) error {
	return s.Write(a.Within(Deg(s.conf.Range / 2)).Degrees())
}

// ESC drives a motor controller with a throttle in percent of Range,
// limited to +/- Limit.
type ESC struct {
	motor
	Limit float64
}

// NewESC creates an ESC.
func NewESC(conf MotorConfig, limit float64, pwm PWM) *ESC {
	return &ESC{motor: motor{conf: conf, pwm: pwm}, Limit: limit}
}

// Init attaches the output and holds it at neutral.
func (e *ESC) Init() error { return e.init() }

// SetArmed arms or disarms, a disarmed ESC returns to neutral.
func (e *ESC) SetArmed(armed bool) error { return e.setArmed(armed) }

// Write sets the throttle.
func (e *ESC) Write(throttle float64) error {
	if !finite(throttle) {
		return e.reject(throttle)
	}
	throttle = math.Max(-e.Limit, math.Min(e.Limit, throttle))
	c := &e.conf
	return e.write(c.NeutralPulseUs + throttle/c.Range*(c.MaxPulseUs-c.MinPulseUs)/2)
}
