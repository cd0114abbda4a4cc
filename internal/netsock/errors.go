package netsock

import (
	"errors"
	"fmt"
)

// NoTimeout makes a read wait indefinitely.
const NoTimeout = -1

var (
	// ErrTimeout is returned when a read or wait exceeds its timeout.
	ErrTimeout = errors.New("netsock: timeout")
	// ErrDisconnected is returned when the peer shut the connection down cleanly.
	ErrDisconnected = errors.New("netsock: peer disconnected")
	// ErrClosed is returned for operations on a locally closed socket.
	ErrClosed = errors.New("netsock: socket closed")
	// ErrNotAccepting is returned by Accept once the listener stopped accepting.
	ErrNotAccepting = errors.New("netsock: listener not accepting")
	// ErrEmptySet is returned when waiting on a readiness set without members.
	ErrEmptySet = errors.New("netsock: empty readiness set")
	// ErrNotMember is returned when excluding a socket that is not in the set.
	ErrNotMember = errors.New("netsock: socket not in set")
	// ErrStringTooLong is returned when a string does not fit the uint16 prefix.
	ErrStringTooLong = errors.New("netsock: string too long")
)

// OpError is a transport-level failure of a socket operation.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("netsock %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// IsTransient reports whether err is a timeout or a clean disconnect rather
// than a hard transport error.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrDisconnected)
}
