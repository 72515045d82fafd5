// Package packet defines the link frames exchanged between the
// coordinator and its agents.
package packet

// A frame is a one byte type tag followed by a fixed-size payload, packed
// little-endian with no padding, which is the memory image of the packed
// structs on the node MCUs. There is no length prefix and no checksum:
// a datagram carries exactly one frame and the payload size is implied
// by the tag. Frames with an unknown tag or a wrong size are rejected by
// Decode and dropped by the receiver.
//
// Producers: coordinator (Ctrl), agents (State, Hello, Echo)
// Consumers: the opposite side of the link
