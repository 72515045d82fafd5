package node

import (
	"errors"

	"github.com/robotalks/fleetlink/pkg/actuator"
	"github.com/robotalks/fleetlink/pkg/env"
	"github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/identity"
	"github.com/robotalks/fleetlink/pkg/netrole"
	"github.com/robotalks/fleetlink/pkg/sensors"
	"github.com/robotalks/fleetlink/pkg/sim"
)

var (
	// ErrNoPWM is reported by outputs on hosts without PWM.
	ErrNoPWM = errors.New("no PWM peripheral")
)

// Hardware is the set of peripherals a node runs on. IMU and Barometer
// may be nil when absent.
type Hardware struct {
	AP        netrole.AccessPoint
	Station   netrole.Station
	Store     identity.Store
	PWM       actuator.PWM
	IMU       sensors.IMU
	Barometer sensors.Barometer
}

// SimHardware simulates an agent body driven by its own outputs.
func SimHardware(clock framework.TimeSource) Hardware {
	pwm := sim.NewPWM(
		actuator.DefaultXServo.Pin,
		actuator.DefaultYServo.Pin,
		actuator.DefaultESC1.Pin,
		actuator.DefaultESC2.Pin,
	)
	body := sim.NewBody(clock, pwm)
	return Hardware{
		AP:        &sim.AccessPoint{},
		Station:   &sim.Station{},
		Store:     &sim.Store{},
		PWM:       pwm,
		IMU:       &sim.IMU{Body: body},
		Barometer: &sim.Barometer{Body: body},
	}
}

type noPWM struct{}

func (noPWM) Attach(pin, freqHz int, resolution uint32) error { return ErrNoPWM }
func (noPWM) SetDuty(pin int, duty uint32) error              { return ErrNoPWM }

// HostHardware runs on a plain host: the network is managed by the
// system, the identity is a file, and there are no sensors or outputs.
func HostHardware(conf *env.Config) Hardware {
	return Hardware{
		AP:      netrole.InterfaceAccessPoint{},
		Station: &netrole.InterfaceStation{},
		Store:   &identity.FileStore{Path: conf.IdentityPath, Offset: conf.IdentityOffset},
		PWM:     noPWM{},
	}
}

// NewHardware selects the hardware from the config.
func NewHardware(conf *env.Config, clock framework.TimeSource) Hardware {
	if conf.Hardware == env.HardwareHost {
		return HostHardware(conf)
	}
	return SimHardware(clock)
}
