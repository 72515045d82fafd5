package msgs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	fx "github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/link/bench"
	"github.com/robotalks/fleetlink/pkg/link/packet"
	"github.com/robotalks/fleetlink/pkg/link/transport"
)

func TestTypedDecode(t *testing.T) {
	now := time.Unix(100, 0)
	stats := NewLinkStats("coordinator", bench.Reading{FPS: 49.5, Latency: 812, Lost: 2, Samples: 100}, 1).
		AddPeers(now, transport.PeerInfo{Addr: "192.168.4.4:11411", AgentID: 3, LastSeen: now.Add(-250 * time.Millisecond)})
	data, err := Encode(stats, 9)
	require.NoError(t, err)

	typed, err := DecodeTyped(data)
	require.NoError(t, err)
	require.True(t, typed.IsEvent())
	require.EqualValues(t, 9, typed.Sequence)

	msg, err := typed.Decode()
	require.NoError(t, err)
	decoded, ok := msg.(*LinkStats)
	require.True(t, ok)
	require.Equal(t, "coordinator", decoded.Role)
	require.Equal(t, 49.5, decoded.Fps)
	require.EqualValues(t, 2, decoded.Lost)
	require.EqualValues(t, 1, decoded.Dropped)
	require.Len(t, decoded.Peers, 1)
	require.EqualValues(t, 3, decoded.Peers[0].AgentId)
	require.EqualValues(t, 250, decoded.Peers[0].LastSeenMs)
}

func TestSetpoint(t *testing.T) {
	data, err := Encode(NewSetpoint([2]float32{30, -30}, [2]float32{10, 20}), 0)
	require.NoError(t, err)
	msg, err := DecodeMessage(data)
	require.NoError(t, err)
	sp := msg.(*Setpoint)
	typed, err := TypedFrom(sp)
	require.NoError(t, err)
	require.True(t, typed.IsCommand())

	ctrl := packet.CtrlPacket{ID: 5}
	sp.Apply(&ctrl)
	require.Equal(t, [2]float32{30, -30}, ctrl.Servo)
	require.Equal(t, [2]float32{10, 20}, ctrl.Throttle)
	require.EqualValues(t, 5, ctrl.ID)

	partial := &Setpoint{}
	partial.Servo = []float32{1}
	partial.Apply(&ctrl)
	require.Equal(t, [2]float32{1, -30}, ctrl.Servo)
}

func TestState(t *testing.T) {
	st := NewState(2, &packet.StatePacket{Accel: [3]float32{0, 0, 9.8}, Pressure: 100000})
	data, err := Encode(st, 1)
	require.NoError(t, err)
	msg, err := DecodeMessage(data)
	require.NoError(t, err)
	require.Equal(t, []float32{0, 0, 9.8}, msg.(*State).Accel)
	require.EqualValues(t, 2, msg.(*State).AgentId)
}

func TestDecodeErrors(t *testing.T) {
	typed := Typed{}
	typed.TypeId = 0x12345678
	_, err := typed.Decode()
	var unknown *ErrUnknownType
	require.ErrorAs(t, err, &unknown)

	_, err = TypedFrom(&plainMsg{})
	require.Equal(t, ErrNotSerializable, err)

	_, err = DecodeTyped([]byte{0xff})
	require.Error(t, err)
}

type plainMsg struct{}

func (m *plainMsg) NewMessage() fx.Message { return &plainMsg{} }
