package sim

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/fleetlink/pkg/actuator"
	"github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/identity"
	"github.com/robotalks/fleetlink/pkg/link/packet"
	"github.com/robotalks/fleetlink/pkg/netrole"
	"github.com/robotalks/fleetlink/pkg/sensors"
)

func TestPWM(t *testing.T) {
	pwm := NewPWM(18, 19)
	require.Error(t, pwm.Attach(20, 50, 4096))
	require.Error(t, pwm.SetDuty(18, 1))
	require.NoError(t, pwm.Attach(18, 50, 4096))
	require.NoError(t, pwm.SetDuty(18, actuator.DefaultXServo.Duty(1500)))
	require.InDelta(t, 1500.0, pwm.PulseUs(18), 2)
	require.Zero(t, pwm.PulseUs(19))
}

func TestPressureAt(t *testing.T) {
	require.InDelta(t, 101325.0, PressureAt(0), 1e-6)
	for _, h := range []float64{0, 10, 100, 1500} {
		require.InDelta(t, h, sensors.Altitude(PressureAt(h), sensors.SeaLevelHPa), 1e-6)
	}
}

func TestBodyFollowsRig(t *testing.T) {
	clock := framework.NewFakeClock(time.Unix(0, 0))
	pwm := NewPWM()
	rig := actuator.NewRig(pwm)
	rig.Init()
	require.NoError(t, rig.ArmServos(true))
	require.NoError(t, rig.ArmESCs(true))
	body := NewBody(clock, pwm)

	imu := &IMU{Body: body}
	require.NoError(t, imu.Begin())
	r, err := imu.Read()
	require.NoError(t, err)
	require.InDelta(t, Gravity, r.Accel[2], 1e-3)

	require.NoError(t, rig.ApplyCtrl(&packet.CtrlPacket{Servo: [2]float32{45, 0}, Throttle: [2]float32{50, 50}}))
	for i := 0; i < 100; i++ {
		clock.Advance(20 * time.Millisecond)
		r, err = imu.Read()
		require.NoError(t, err)
	}
	require.InDelta(t, Gravity*math.Sin(math.Pi/4), r.Accel[0], 0.1)
	require.InDelta(t, 0, r.Accel[1], 0.1)
	require.InDelta(t, 0, r.Gyro[0], 0.01)
	require.InDelta(t, 10, body.Altitude(), 0.2)

	baro := &Barometer{Body: body}
	p, err := baro.ReadPressure()
	require.NoError(t, err)
	require.InDelta(t, 10, sensors.Altitude(float64(p), sensors.SeaLevelHPa), 0.5)
}

func TestMissingSensors(t *testing.T) {
	body := NewBody(framework.NewFakeClock(time.Unix(0, 0)), NewPWM())
	p := sensors.NewProducer()
	p.Init(&IMU{Body: body, Missing: true}, &Barometer{Body: body})
	require.False(t, p.IMUEnabled())
	require.True(t, p.BaroEnabled())
}

func TestStore(t *testing.T) {
	s := &Store{}
	_, err := s.ReadID()
	require.ErrorIs(t, err, identity.ErrNotProvisioned)
	id, err := identity.NewResolver(s).WithOverride(5).AgentID()
	require.NoError(t, err)
	require.EqualValues(t, 5, id)
}

func TestNetwork(t *testing.T) {
	conf := netrole.DefaultConfig()
	conf.RetryInterval = time.Millisecond
	station, ap := &Station{Polls: 2}, &AccessPoint{}
	n := netrole.NewNegotiator(conf, ap, station)
	require.NoError(t, n.Setup(context.Background(), netrole.RoleAgent, 1))
	require.Equal(t, "192.168.4.2", station.Config().Address.String())
	require.NoError(t, n.Setup(context.Background(), netrole.RoleCoordinator, 0))
	require.Equal(t, "192.168.4.1", ap.Config().Address.String())
}
