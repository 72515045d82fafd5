package packet

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Type is the one byte tag leading every frame.
type Type byte

// Known types.
const (
	TypeCtrl  Type = 0x01
	TypeState Type = 0x02
	TypeHello Type = 0x03
	TypeEcho  Type = 0x04
)

// HardwareIDSize is the number of bytes of hardware id carried in Hello.
const HardwareIDSize = 16

// String implements fmt.Stringer.
func (t Type) String() string {
	switch t {
	case TypeCtrl:
		return "ctrl"
	case TypeState:
		return "state"
	case TypeHello:
		return "hello"
	case TypeEcho:
		return "echo"
	}
	return fmt.Sprintf("type(0x%02x)", byte(t))
}

// New allocates an empty payload for the type.
func (t Type) New() (Payload, bool) {
	switch t {
	case TypeCtrl:
		return &CtrlPacket{}, true
	case TypeState:
		return &StatePacket{}, true
	case TypeHello:
		return &HelloPacket{}, true
	case TypeEcho:
		return &EchoPacket{}, true
	}
	return nil, false
}

// Payload is the fixed-size body of a frame.
type Payload interface {
	PacketType() Type
}

// StatePacket is the telemetry an agent reports.
type StatePacket struct {
	Accel       [3]float32 // m/s^2
	Gyro        [3]float32 // rad/s
	Temperature float32    // C
	Pressure    float32    // Pa
	Altitude    float32    // m
}

// PacketType implements Payload.
func (p *StatePacket) PacketType() Type { return TypeState }

// CtrlPacket is the control command streamed by the coordinator.
type CtrlPacket struct {
	// Time is microseconds since sender boot, wrapping at 32 bits.
	Time uint32
	// ID increments with every command.
	ID       int32
	Servo    [2]float32 // degrees, x and y
	Throttle [2]float32 // percent, ESC 1 and 2
}

// PacketType implements Payload.
func (p *CtrlPacket) PacketType() Type { return TypeCtrl }

// HelloPacket announces an agent to the coordinator.
type HelloPacket struct {
	AgentID    uint8
	HardwareID [HardwareIDSize]byte
}

// PacketType implements Payload.
func (p *HelloPacket) PacketType() Type { return TypeHello }

// Hardware returns the hardware id as a string.
func (p *HelloPacket) Hardware() string {
	return strings.TrimRight(string(p.HardwareID[:]), "\x00")
}

// SetHardware stores id, truncated to HardwareIDSize bytes.
func (p *HelloPacket) SetHardware(id string) {
	p.HardwareID = [HardwareIDSize]byte{}
	copy(p.HardwareID[:], id)
}

// EchoPacket reflects a CtrlPacket back to the coordinator.
type EchoPacket struct {
	Time uint32
	ID   int32
}

// PacketType implements Payload.
func (p *EchoPacket) PacketType() Type { return TypeEcho }

// EchoOf builds the echo of a ctrl packet.
func EchoOf(ctrl *CtrlPacket) *EchoPacket {
	return &EchoPacket{Time: ctrl.Time, ID: ctrl.ID}
}

// Frame is a decoded datagram.
type Frame struct {
	Type    Type
	Payload Payload
}

// Size returns the encoded size of frames of type t, including the tag.
func Size(t Type) int {
	p, ok := t.New()
	if !ok {
		return -1
	}
	return binary.Size(p) + 1
}

// Encode packs payload as a frame of type typ.
func Encode(typ Type, payload Payload) ([]byte, error) {
	return Append(nil, typ, payload)
}

// Append packs payload as a frame of type typ and appends it to b.
func Append(b []byte, typ Type, payload Payload) ([]byte, error) {
	if payload == nil {
		return b, &ErrTypeMismatch{Type: typ}
	}
	if pt := payload.PacketType(); pt != typ {
		return b, &ErrTypeMismatch{Type: typ, Payload: pt}
	}
	b = append(b, byte(typ))
	return binary.Append(b, binary.LittleEndian, payload)
}

// Decode parses a frame from a datagram.
func Decode(b []byte) (Frame, error) {
	if len(b) == 0 {
		return Frame{}, ErrEmptyFrame
	}
	typ := Type(b[0])
	p, ok := typ.New()
	if !ok {
		return Frame{}, &ErrUnknownType{Type: typ}
	}
	body := b[1:]
	if size := binary.Size(p); len(body) != size {
		return Frame{}, &ErrBadLength{Type: typ, Expect: size, Actual: len(body)}
	}
	if _, err := binary.Decode(body, binary.LittleEndian, p); err != nil {
		return Frame{}, fmt.Errorf("decode %s: %w", typ, err)
	}
	return Frame{Type: typ, Payload: p}, nil
}
