// Package sensors assembles state telemetry from the inertial and
// barometric sensors of an agent.
package sensors

import (
	"math"

	"github.com/golang/glog"

	"github.com/robotalks/fleetlink/pkg/link/packet"
)

// SeaLevelHPa is the reference pressure for altitude.
const SeaLevelHPa = 1013.25

// IMUReading is a sample of the inertial sensor.
type IMUReading struct {
	Accel       [3]float32 // m/s^2
	Gyro        [3]float32 // rad/s
	Temperature float32    // C
}

// IMU is the inertial measurement unit driver.
type IMU interface {
	Begin() error
	Read() (IMUReading, error)
}

// Barometer is the pressure sensor driver.
type Barometer interface {
	Begin() error
	// ReadPressure returns the pressure in Pa.
	ReadPressure() (float32, error)
}

// Altitude converts pressure in Pa to altitude in meters with the
// barometric formula.
func Altitude(pressurePa, seaLevelHPa float64) float64 {
	return 44330 * (1 - math.Pow(pressurePa/100/seaLevelHPa, 0.1903))
}

// Producer samples the sensors into a single StatePacket which is
// overwritten on every call.
type Producer struct {
	SeaLevelHPa float64

	imu         IMU
	baro        Barometer
	imuEnabled  bool
	baroEnabled bool
	state       packet.StatePacket
}

// NewProducer creates a Producer.
func NewProducer() *Producer {
	return &Producer{SeaLevelHPa: SeaLevelHPa}
}

// Init starts the sensors. A sensor failing to start is disabled, its
// fields in the state are never refreshed.
func (p *Producer) Init(imu IMU, baro Barometer) {
	p.imu, p.baro = imu, baro
	p.imuEnabled, p.baroEnabled = false, false
	if imu != nil {
		if err := imu.Begin(); err != nil {
			glog.Errorf("IMU disabled: %v", err)
		} else {
			p.imuEnabled = true
		}
	}
	if baro != nil {
		if err := baro.Begin(); err != nil {
			glog.Errorf("barometer disabled: %v", err)
		} else {
			p.baroEnabled = true
		}
	}
}

// IMUEnabled tells whether the inertial fields are live.
func (p *Producer) IMUEnabled() bool { return p.imuEnabled }

// BaroEnabled tells whether pressure and altitude are live.
func (p *Producer) BaroEnabled() bool { return p.baroEnabled }

// StatePacketGen refreshes the state from the enabled sensors. Fields of
// a disabled sensor, or of a failed read, keep their previous values.
func (p *Producer) StatePacketGen() *packet.StatePacket {
	if p.imuEnabled {
		if r, err := p.imu.Read(); err != nil {
			glog.V(2).Infof("IMU read: %v", err)
		} else {
			p.state.Accel, p.state.Gyro, p.state.Temperature = r.Accel, r.Gyro, r.Temperature
		}
	}
	if p.baroEnabled {
		if pa, err := p.baro.ReadPressure(); err != nil {
			glog.V(2).Infof("barometer read: %v", err)
		} else {
			p.state.Pressure = pa
			p.state.Altitude = float32(Altitude(float64(pa), p.SeaLevelHPa))
		}
	}
	return &p.state
}
