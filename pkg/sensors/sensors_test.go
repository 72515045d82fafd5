package sensors

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeIMU struct {
	beginErr error
	n        float32
}

func (f *fakeIMU) Begin() error { return f.beginErr }

func (f *fakeIMU) Read() (IMUReading, error) {
	f.n++
	return IMUReading{Accel: [3]float32{0, 0, f.n}, Gyro: [3]float32{f.n, 0, 0}, Temperature: 20 + f.n}, nil
}

type fakeBaro struct {
	beginErr error
	pressure float32
	readErr  error
}

func (f *fakeBaro) Begin() error { return f.beginErr }

func (f *fakeBaro) ReadPressure() (float32, error) {
	return f.pressure, f.readErr
}

func TestAltitude(t *testing.T) {
	require.InDelta(t, 0, Altitude(101325, SeaLevelHPa), 1e-9)
	for p := 30000.0; p <= 110000; p += 5000 {
		expect := 44330 * (1 - math.Pow(p/100/1013.25, 0.1903))
		require.InDelta(t, expect, Altitude(p, SeaLevelHPa), 1e-6)
	}
	require.Greater(t, Altitude(90000, SeaLevelHPa), 0.0)
	require.Less(t, Altitude(105000, SeaLevelHPa), 0.0)
}

func TestDisabledBarometerKeepsDefaults(t *testing.T) {
	p := NewProducer()
	p.Init(&fakeIMU{}, &fakeBaro{beginErr: errors.New("not found"), pressure: 90000})
	require.True(t, p.IMUEnabled())
	require.False(t, p.BaroEnabled())
	for i := 1; i <= 3; i++ {
		st := p.StatePacketGen()
		require.Zero(t, st.Pressure)
		require.Zero(t, st.Altitude)
		require.Equal(t, float32(i), st.Accel[2])
	}
}

func TestDisabledIMUStaysStale(t *testing.T) {
	p := NewProducer()
	p.Init(&fakeIMU{beginErr: errors.New("not found")}, &fakeBaro{pressure: 101325})
	st := p.StatePacketGen()
	require.Equal(t, [3]float32{}, st.Accel)
	require.Equal(t, float32(101325), st.Pressure)
	require.InDelta(t, 0, st.Altitude, 1e-3)
}

func TestReadErrorKeepsPrevious(t *testing.T) {
	baro := &fakeBaro{pressure: 95000}
	p := NewProducer()
	p.Init(nil, baro)
	first := *p.StatePacketGen()
	baro.readErr, baro.pressure = errors.New("i2c"), 1
	require.Equal(t, first, *p.StatePacketGen())
}

func TestStatePacketIsSingleSlot(t *testing.T) {
	p := NewProducer()
	p.Init(&fakeIMU{}, nil)
	require.Same(t, p.StatePacketGen(), p.StatePacketGen())
}
