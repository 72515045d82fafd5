package sim

import (
	"math"
	"sync"
	"time"

	"github.com/robotalks/fleetlink/pkg/actuator"
	"github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/sensors"
)

// Gravity in m/s^2.
const Gravity = 9.80665

// SeaLevelPa is the standard pressure at sea level.
const SeaLevelPa = sensors.SeaLevelHPa * 100

// Body simulates an agent: a two axis gimbal positioned by the servos and
// lifted by the ESCs. Outputs are read back from the PWM and the state
// follows them with a first order lag.
type Body struct {
	Clock framework.TimeSource
	PWM   *PWM

	// TimeConstant is the lag of the body following the outputs.
	TimeConstant time.Duration
	// MaxAltitude is reached at full throttle, meters.
	MaxAltitude float64
	// Temperature of the environment in C.
	Temperature float64

	tilt     [2]float64 // radians
	rate     [2]float64 // radians/s
	altitude float64
	last     time.Time
	lock     sync.Mutex
}

// NewBody creates a Body at rest on the ground.
func NewBody(clock framework.TimeSource, pwm *PWM) *Body {
	return &Body{
		Clock:        clock,
		PWM:          pwm,
		TimeConstant: 200 * time.Millisecond,
		MaxAltitude:  20,
		Temperature:  25,
	}
}

func servoDegrees(pulseUs float64, conf actuator.MotorConfig) float64 {
	if pulseUs == 0 {
		return 0
	}
	return (pulseUs - conf.NeutralPulseUs) * conf.Range / (conf.MaxPulseUs - conf.MinPulseUs)
}

func escThrottle(pulseUs float64, conf actuator.MotorConfig) float64 {
	if pulseUs == 0 {
		return 0
	}
	return (pulseUs - conf.NeutralPulseUs) * 2 * conf.Range / (conf.MaxPulseUs - conf.MinPulseUs)
}

// step advances the state to now, must be called with lock held.
func (b *Body) step(now time.Time) {
	if b.last.IsZero() {
		b.last = now
		return
	}
	dt := now.Sub(b.last).Seconds()
	if dt <= 0 {
		return
	}
	b.last = now
	k := 1.0
	if tc := b.TimeConstant.Seconds(); tc > 0 {
		k = 1 - math.Exp(-dt/tc)
	}

	targets := [2]float64{
		actuator.Deg(servoDegrees(b.PWM.PulseUs(actuator.DefaultXServo.Pin), actuator.DefaultXServo)).Radians(),
		actuator.Deg(servoDegrees(b.PWM.PulseUs(actuator.DefaultYServo.Pin), actuator.DefaultYServo)).Radians(),
	}
	for n := range b.tilt {
		delta := (targets[n] - b.tilt[n]) * k
		b.tilt[n] += delta
		b.rate[n] = delta / dt
	}

	throttle := (escThrottle(b.PWM.PulseUs(actuator.DefaultESC1.Pin), actuator.DefaultESC1) +
		escThrottle(b.PWM.PulseUs(actuator.DefaultESC2.Pin), actuator.DefaultESC2)) / 2
	target := math.Max(0, throttle) / 100 * b.MaxAltitude
	b.altitude += (target - b.altitude) * k
}

// IMUReading samples the inertial state at the current time.
func (b *Body) IMUReading() sensors.IMUReading {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.step(b.Clock.Time())
	ax, ay := b.tilt[0], b.tilt[1]
	return sensors.IMUReading{
		Accel: [3]float32{
			float32(Gravity * math.Sin(ax)),
			float32(Gravity * math.Sin(ay)),
			float32(Gravity * math.Cos(ax) * math.Cos(ay)),
		},
		Gyro:        [3]float32{float32(b.rate[0]), float32(b.rate[1]), 0},
		Temperature: float32(b.Temperature),
	}
}

// Pressure samples the barometric pressure in Pa at the current time.
func (b *Body) Pressure() float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.step(b.Clock.Time())
	return PressureAt(b.altitude)
}

// Altitude returns the true altitude in meters.
func (b *Body) Altitude() float64 {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.step(b.Clock.Time())
	return b.altitude
}

// PressureAt inverts the barometric formula.
func PressureAt(altitude float64) float64 {
	return SeaLevelPa * math.Pow(1-altitude/44330, 1/0.1903)
}
