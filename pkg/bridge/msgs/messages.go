package msgs

import (
	"time"

	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/fleetlink/pkg/framework"
	"github.com/robotalks/fleetlink/pkg/link/bench"
	"github.com/robotalks/fleetlink/pkg/link/packet"
	"github.com/robotalks/fleetlink/pkg/link/transport"
	pb "github.com/robotalks/fleetlink/pkg/proto/link/v1"
)

// TypeID Groups
const (
	GroupLink uint32 = 0x00010000
)

// TypeIDs
const (
	SetpointTypeID  uint32 = TypeIDKindCommand | GroupLink | 0x0001
	LinkStatsTypeID uint32 = TypeIDKindEvent | GroupLink | 0x0001
	StateTypeID     uint32 = TypeIDKindEvent | GroupLink | 0x0002
)

// LinkStats is the periodic link summary of a node.
type LinkStats struct {
	pb.LinkStats
}

// NewLinkStats builds LinkStats from a benchmark reading.
func NewLinkStats(role string, r bench.Reading, dropped uint64) *LinkStats {
	return &LinkStats{LinkStats: pb.LinkStats{
		Role:      role,
		Fps:       r.FPS,
		LatencyUs: r.Latency,
		Lost:      r.Lost,
		Samples:   uint32(r.Samples),
		Anomalies: r.Anomalies,
		Dropped:   dropped,
	}}
}

// AddPeers appends per peer statistics.
func (m *LinkStats) AddPeers(now time.Time, peers ...transport.PeerInfo) *LinkStats {
	for _, p := range peers {
		m.Peers = append(m.Peers, &pb.PeerStats{
			Addr:       p.Addr,
			AgentId:    int32(p.AgentID),
			HardwareId: p.HardwareID,
			Fps:        p.Link.FPS,
			LatencyUs:  p.Link.Latency,
			Lost:       p.Link.Lost,
			LastSeenMs: now.Sub(p.LastSeen).Milliseconds(),
		})
	}
	return m
}

// NewMessage implements Message.
func (m *LinkStats) NewMessage() fx.Message { return &LinkStats{} }

// TypeID implements SerializableMessage.
func (m *LinkStats) TypeID() uint32 { return LinkStatsTypeID }

// Serializable implements SerializableMessage.
func (m *LinkStats) Serializable() proto.Message { return &m.LinkStats }

// State is the telemetry of an agent.
type State struct {
	pb.State
}

// NewState converts a state packet.
func NewState(agentID int, st *packet.StatePacket) *State {
	return &State{State: pb.State{
		AgentId:     int32(agentID),
		Accel:       append([]float32(nil), st.Accel[:]...),
		Gyro:        append([]float32(nil), st.Gyro[:]...),
		Temperature: st.Temperature,
		Pressure:    st.Pressure,
		Altitude:    st.Altitude,
	}}
}

// NewMessage implements Message.
func (m *State) NewMessage() fx.Message { return &State{} }

// TypeID implements SerializableMessage.
func (m *State) TypeID() uint32 { return StateTypeID }

// Serializable implements SerializableMessage.
func (m *State) Serializable() proto.Message { return &m.State }

// Setpoint is the actuation command for the agents.
type Setpoint struct {
	pb.Setpoint
}

// NewSetpoint creates a Setpoint.
func NewSetpoint(servo, throttle [2]float32) *Setpoint {
	return &Setpoint{Setpoint: pb.Setpoint{
		Servo:    servo[:],
		Throttle: throttle[:],
	}}
}

// Apply copies the setpoint into a control packet. Missing values keep
// the current ones.
func (m *Setpoint) Apply(ctrl *packet.CtrlPacket) {
	copy(ctrl.Servo[:], m.Servo)
	copy(ctrl.Throttle[:], m.Throttle)
}

// NewMessage implements Message.
func (m *Setpoint) NewMessage() fx.Message { return &Setpoint{} }

// TypeID implements SerializableMessage.
func (m *Setpoint) TypeID() uint32 { return SetpointTypeID }

// Serializable implements SerializableMessage.
func (m *Setpoint) Serializable() proto.Message { return &m.Setpoint }
