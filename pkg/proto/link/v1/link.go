// Package v1 declares the protobuf messages published by the telemetry
// bridge. The wire layout follows link.proto:
//
//	message Typed     { uint32 type_id = 1; bytes message = 2; uint32 sequence = 3; }
//	message PeerStats { string addr = 1; int32 agent_id = 2; string hardware_id = 3;
//	                    double fps = 4; double latency_us = 5; uint64 lost = 6; int64 last_seen_ms = 7; }
//	message LinkStats { string role = 1; double fps = 2; double latency_us = 3; uint64 lost = 4;
//	                    uint32 samples = 5; uint64 anomalies = 6; uint64 dropped = 7; repeated PeerStats peers = 8; }
//	message State     { int32 agent_id = 1; repeated float accel = 2; repeated float gyro = 3;
//	                    float temperature = 4; float pressure = 5; float altitude = 6; }
//	message Setpoint  { repeated float servo = 1; repeated float throttle = 2; }
package v1

import (
	proto "github.com/golang/protobuf/proto"
)

// Typed wraps an encoded message with its type id.
type Typed struct {
	TypeId   uint32 `protobuf:"varint,1,opt,name=type_id,json=typeId,proto3" json:"type_id,omitempty"`
	Message  []byte `protobuf:"bytes,2,opt,name=message,proto3" json:"message,omitempty"`
	Sequence uint32 `protobuf:"varint,3,opt,name=sequence,proto3" json:"sequence,omitempty"`
}

func (m *Typed) Reset()         { *m = Typed{} }
func (m *Typed) String() string { return proto.CompactTextString(m) }
func (*Typed) ProtoMessage()    {}

// PeerStats is the link quality towards one agent.
type PeerStats struct {
	Addr       string  `protobuf:"bytes,1,opt,name=addr,proto3" json:"addr,omitempty"`
	AgentId    int32   `protobuf:"varint,2,opt,name=agent_id,json=agentId,proto3" json:"agent_id,omitempty"`
	HardwareId string  `protobuf:"bytes,3,opt,name=hardware_id,json=hardwareId,proto3" json:"hardware_id,omitempty"`
	Fps        float64 `protobuf:"fixed64,4,opt,name=fps,proto3" json:"fps,omitempty"`
	LatencyUs  float64 `protobuf:"fixed64,5,opt,name=latency_us,json=latencyUs,proto3" json:"latency_us,omitempty"`
	Lost       uint64  `protobuf:"varint,6,opt,name=lost,proto3" json:"lost,omitempty"`
	LastSeenMs int64   `protobuf:"varint,7,opt,name=last_seen_ms,json=lastSeenMs,proto3" json:"last_seen_ms,omitempty"`
}

func (m *PeerStats) Reset()         { *m = PeerStats{} }
func (m *PeerStats) String() string { return proto.CompactTextString(m) }
func (*PeerStats) ProtoMessage()    {}

// LinkStats is the periodic link summary of a node.
type LinkStats struct {
	Role      string       `protobuf:"bytes,1,opt,name=role,proto3" json:"role,omitempty"`
	Fps       float64      `protobuf:"fixed64,2,opt,name=fps,proto3" json:"fps,omitempty"`
	LatencyUs float64      `protobuf:"fixed64,3,opt,name=latency_us,json=latencyUs,proto3" json:"latency_us,omitempty"`
	Lost      uint64       `protobuf:"varint,4,opt,name=lost,proto3" json:"lost,omitempty"`
	Samples   uint32       `protobuf:"varint,5,opt,name=samples,proto3" json:"samples,omitempty"`
	Anomalies uint64       `protobuf:"varint,6,opt,name=anomalies,proto3" json:"anomalies,omitempty"`
	Dropped   uint64       `protobuf:"varint,7,opt,name=dropped,proto3" json:"dropped,omitempty"`
	Peers     []*PeerStats `protobuf:"bytes,8,rep,name=peers,proto3" json:"peers,omitempty"`
}

func (m *LinkStats) Reset()         { *m = LinkStats{} }
func (m *LinkStats) String() string { return proto.CompactTextString(m) }
func (*LinkStats) ProtoMessage()    {}

// State is the telemetry of an agent.
type State struct {
	AgentId     int32     `protobuf:"varint,1,opt,name=agent_id,json=agentId,proto3" json:"agent_id,omitempty"`
	Accel       []float32 `protobuf:"fixed32,2,rep,packed,name=accel,proto3" json:"accel,omitempty"`
	Gyro        []float32 `protobuf:"fixed32,3,rep,packed,name=gyro,proto3" json:"gyro,omitempty"`
	Temperature float32   `protobuf:"fixed32,4,opt,name=temperature,proto3" json:"temperature,omitempty"`
	Pressure    float32   `protobuf:"fixed32,5,opt,name=pressure,proto3" json:"pressure,omitempty"`
	Altitude    float32   `protobuf:"fixed32,6,opt,name=altitude,proto3" json:"altitude,omitempty"`
}

func (m *State) Reset()         { *m = State{} }
func (m *State) String() string { return proto.CompactTextString(m) }
func (*State) ProtoMessage()    {}

// Setpoint carries the actuation values streamed by the coordinator.
type Setpoint struct {
	Servo    []float32 `protobuf:"fixed32,1,rep,packed,name=servo,proto3" json:"servo,omitempty"`
	Throttle []float32 `protobuf:"fixed32,2,rep,packed,name=throttle,proto3" json:"throttle,omitempty"`
}

func (m *Setpoint) Reset()         { *m = Setpoint{} }
func (m *Setpoint) String() string { return proto.CompactTextString(m) }
func (*Setpoint) ProtoMessage()    {}
