package packet

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFrame indicates a datagram without a type tag.
	ErrEmptyFrame = errors.New("empty frame")
)

// ErrUnknownType is returned when the type tag is not registered.
type ErrUnknownType struct {
	Type Type
}

// Error implements error.
func (e *ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown packet type 0x%02x", byte(e.Type))
}

// ErrBadLength is returned when the payload size doesn't match the type.
type ErrBadLength struct {
	Type   Type
	Expect int
	Actual int
}

// Error implements error.
func (e *ErrBadLength) Error() string {
	return fmt.Sprintf("%s payload size %d, expect %d", e.Type, e.Actual, e.Expect)
}

// ErrTypeMismatch is returned when a payload is encoded under a tag it
// doesn't belong to.
type ErrTypeMismatch struct {
	Type    Type
	Payload Type
}

// Error implements error.
func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("payload of %s can't be sent as %s", e.Payload, e.Type)
}
