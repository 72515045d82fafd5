package joystick

import (
	"github.com/robotalks/fleetlink/pkg/actuator"
	"github.com/robotalks/fleetlink/pkg/joystick/device"
)

// AxisMax is the full scale of a joystick axis.
const AxisMax = 32767

// Mapping assigns joystick axes to outputs. A negative axis is unused.
type Mapping struct {
	Servo    [2]int
	Throttle [2]int
	// Invert flips the direction of the servo and throttle axes.
	InvertServo    [2]bool
	InvertThrottle [2]bool
	// ServoRange is the angle at full deflection in degrees.
	ServoRange float32
	// ThrottleRange is the throttle at full deflection in percent.
	ThrottleRange float32
}

// DefaultMapping is the left stick on the servos and the right stick on
// both ESCs of a common gamepad.
var DefaultMapping = Mapping{
	Servo:          [2]int{0, 1},
	Throttle:       [2]int{4, 4},
	InvertServo:    [2]bool{false, true},
	InvertThrottle: [2]bool{true, true},
	ServoRange:     90,
	ThrottleRange:  actuator.DefaultESCLimit,
}

func scale(val int, invert bool, full float32) float32 {
	v := float32(val) / AxisMax * full
	if invert {
		v = -v
	}
	return v
}

// Apply updates the setpoint from an axis event. It returns false when
// the axis isn't mapped.
func (m *Mapping) Apply(ev device.AxisEvent, servo, throttle *[2]float32) bool {
	mapped := false
	for n, axis := range m.Servo {
		if axis == ev.Index() {
			servo[n], mapped = scale(ev.Value(), m.InvertServo[n], m.ServoRange), true
		}
	}
	for n, axis := range m.Throttle {
		if axis == ev.Index() {
			throttle[n], mapped = scale(ev.Value(), m.InvertThrottle[n], m.ThrottleRange), true
		}
	}
	return mapped
}
