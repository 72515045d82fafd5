package actuator

import "math"

// Angle is a plane angle in radians wrapped into (-Pi, Pi].
type Angle float64

// Deg creates an Angle from degrees.
func Deg(d float64) Angle {
	return Rad(d * math.Pi / 180)
}

// Rad creates an Angle from radians.
func Rad(r float64) Angle {
	r = math.Mod(r+math.Pi, 2*math.Pi)
	if r <= 0 {
		r += 2 * math.Pi
	}
	return Angle(r - math.Pi)
}

// Radians gets angle in radians.
func (a Angle) Radians() float64 {
	return float64(a)
}

// Degrees gets angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// Sin wraps math.Sin.
func (a Angle) Sin() float64 {
	return math.Sin(float64(a))
}

// Cos wraps math.Cos.
func (a Angle) Cos() float64 {
	return math.Cos(float64(a))
}

// Within limits the angle to [-limit, limit].
func (a Angle) Within(limit Angle) Angle {
	return Angle(math.Max(-float64(limit), math.Min(float64(limit), float64(a))))
}
