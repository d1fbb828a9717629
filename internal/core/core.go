// Package core holds the contracts shared between the coordinator and the
// transport adapters. No logic lives here, just types.
package core

import "errors"

// Frame is an encoded wire payload ready to be written to a client.
type Frame []byte

type (
	SessionID string
	RoomID    string
)

var ErrBackpressure = errors.New("backpressure")

// Delivery abstracts the outbound side of one client connection.
// TrySend must never block: a full queue returns ErrBackpressure and the
// frame is dropped. Owned by the adapter; the adapter must Close() it.
type Delivery interface {
	TrySend(Frame) error
	Close()
}
