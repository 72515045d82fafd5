package sim

import (
	"errors"

	"github.com/robotalks/fleetlink/pkg/sensors"
)

var (
	// ErrNotPresent simulates a sensor missing on the bus.
	ErrNotPresent = errors.New("sensor not present")
)

// IMU reads the inertial state of a Body.
type IMU struct {
	Body    *Body
	Missing bool
}

// Begin implements sensors.IMU.
func (s *IMU) Begin() error {
	if s.Missing {
		return ErrNotPresent
	}
	return nil
}

// Read implements sensors.IMU.
func (s *IMU) Read() (sensors.IMUReading, error) {
	return s.Body.IMUReading(), nil
}

// Barometer reads the pressure around a Body.
type Barometer struct {
	Body    *Body
	Missing bool
}

// Begin implements sensors.Barometer.
func (s *Barometer) Begin() error {
	if s.Missing {
		return ErrNotPresent
	}
	return nil
}

// ReadPressure implements sensors.Barometer.
func (s *Barometer) ReadPressure() (float32, error) {
	return float32(s.Body.Pressure()), nil
}
