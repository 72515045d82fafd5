package actuator

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/fleetlink/pkg/link/packet"
)

type fakePWM struct {
	lock     sync.Mutex
	attached map[int]uint32
	duty     map[int]uint32
	failPin  int
}

func newFakePWM() *fakePWM {
	return &fakePWM{attached: make(map[int]uint32), duty: make(map[int]uint32), failPin: -1}
}

func (p *fakePWM) Attach(pin, freqHz int, resolution uint32) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	if pin == p.failPin {
		return errors.New("no such pin")
	}
	p.attached[pin] = resolution
	return nil
}

func (p *fakePWM) SetDuty(pin int, duty uint32) error {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.duty[pin] = duty
	return nil
}

func TestDuty(t *testing.T) {
	c := DefaultXServo
	require.EqualValues(t, 307, c.Duty(1500))
	require.EqualValues(t, 225, c.Duty(1100))
	require.EqualValues(t, 389, c.Duty(1900))
}

func TestServo(t *testing.T) {
	testCases := []struct {
		name    string
		offset  float64
		degrees float64
		pulse   float64
	}{
		{"center", 0, 0, 1500},
		{"full right", 0, 90, 1900},
		{"full left", 0, -90, 1100},
		{"half", 0, 45, 1700},
		{"clamped", 0, 120, 1900},
		{"trimmed", 9, 0, 1540},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pwm := newFakePWM()
			s := NewServo(DefaultXServo, tc.offset, pwm)
			require.NoError(t, s.Init())
			require.NoError(t, s.SetArmed(true))
			require.NoError(t, s.Write(tc.degrees))
			require.InDelta(t, tc.pulse, s.Pulse(), 1e-9)
			require.Equal(t, DefaultXServo.Duty(tc.pulse), pwm.duty[DefaultXServo.Pin])
		})
	}
}

func TestESC(t *testing.T) {
	testCases := []struct {
		name     string
		throttle float64
		pulse    float64
	}{
		{"stop", 0, 1500},
		{"half forward", 50, 1750},
		{"reverse", -20, 1400},
		{"limited", 100, 1975},
		{"limited reverse", -100, 1025},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			e := NewESC(DefaultESC1, DefaultESCLimit, newFakePWM())
			require.NoError(t, e.Init())
			require.NoError(t, e.SetArmed(true))
			require.NoError(t, e.Write(tc.throttle))
			require.InDelta(t, tc.pulse, e.Pulse(), 1e-9)
		})
	}
}

func TestUnarmedHoldsNeutral(t *testing.T) {
	s := NewServo(DefaultXServo, 0, newFakePWM())
	require.NoError(t, s.Init())
	require.NoError(t, s.Write(60))
	require.InDelta(t, 1500.0, s.Pulse(), 1e-9)
	require.NoError(t, s.SetArmed(true))
	require.NoError(t, s.Write(60))
	require.Greater(t, s.Pulse(), 1500.0)
	require.NoError(t, s.SetArmed(false))
	require.InDelta(t, 1500.0, s.Pulse(), 1e-9)
}

func TestRig(t *testing.T) {
	pwm := newFakePWM()
	pwm.failPin = DefaultESC2.Pin
	r := NewRig(pwm)
	r.Init()
	require.True(t, r.XServo.Ready())
	require.False(t, r.ESC2.Ready())
	require.NoError(t, r.ArmServos(true))
	require.NoError(t, r.ArmESCs(true))

	require.NoError(t, r.ApplyCtrl(&packet.CtrlPacket{Servo: [2]float32{45, -45}, Throttle: [2]float32{50, 50}}))
	require.InDelta(t, 1700.0, r.XServo.Pulse(), 1e-9)
	require.InDelta(t, 1300.0, r.YServo.Pulse(), 1e-9)
	require.InDelta(t, 1750.0, r.ESC1.Pulse(), 1e-9)
	require.Zero(t, r.ESC2.Pulse())

	require.NoError(t, r.Neutral())
	require.InDelta(t, 1500.0, r.XServo.Pulse(), 1e-9)
	require.InDelta(t, 1500.0, r.ESC1.Pulse(), 1e-9)
}

func TestNonFiniteHoldsNeutral(t *testing.T) {
	pwm := newFakePWM()
	r := NewRig(pwm)
	r.Init()
	require.NoError(t, r.ArmServos(true))
	require.NoError(t, r.ArmESCs(true))
	require.NoError(t, r.ApplyCtrl(&packet.CtrlPacket{Servo: [2]float32{30, 30}, Throttle: [2]float32{40, 40}}))

	nan := float32(math.NaN())
	inf := float32(math.Inf(1))
	err := r.ApplyCtrl(&packet.CtrlPacket{Servo: [2]float32{nan, 0}, Throttle: [2]float32{inf, 0}})
	require.ErrorIs(t, err, ErrNotFinite)
	require.InDelta(t, 1500.0, r.XServo.Pulse(), 1e-9)
	require.InDelta(t, 1500.0, r.ESC1.Pulse(), 1e-9)
	require.EqualValues(t, 307, pwm.duty[DefaultXServo.Pin])
	require.EqualValues(t, 307, pwm.duty[DefaultESC1.Pin])
	require.True(t, r.XServo.Armed())

	require.ErrorIs(t, r.YServo.Write(math.Inf(-1)), ErrNotFinite)
	require.InDelta(t, 1500.0, r.YServo.Pulse(), 1e-9)
}

func TestRigPattern(t *testing.T) {
	r := NewRig(newFakePWM())
	r.Init()
	require.NoError(t, r.ArmServos(true))
	require.NoError(t, r.ApplyPattern(0))
	require.InDelta(t, 1500.0, r.XServo.Pulse(), 1e-9)
	require.InDelta(t, 1500.0+60*800.0/180, r.YServo.Pulse(), 1e-9)

	quarter := math.Pi / 2
	require.NoError(t, r.ApplyPattern(time.Duration(quarter*float64(time.Second))))
	require.InDelta(t, 1500.0+60*800.0/180, r.XServo.Pulse(), 1e-6)
	require.InDelta(t, 1500.0, r.YServo.Pulse(), 1e-6)
}

func TestAngle(t *testing.T) {
	require.InDelta(t, -90.0, Deg(270).Degrees(), 1e-9)
	require.InDelta(t, 90.0, Deg(-270).Degrees(), 1e-9)
	require.InDelta(t, 0.0, Deg(720).Radians(), 1e-9)
	require.InDelta(t, 1.0, Deg(90).Sin(), 1e-9)
	require.InDelta(t, 45.0, Deg(120).Within(Deg(45)).Degrees(), 1e-9)
	require.InDelta(t, -45.0, Deg(-120).Within(Deg(45)).Degrees(), 1e-9)
}
