package core

import "errors"

// Frame is one encoded outbound message.
type Frame []byte

var (
	// ErrBackpressure is returned by TrySend when the recipient's buffer is full.
	ErrBackpressure = errors.New("backpressure")
	// ErrConnClosed is returned by TrySend after Close.
	ErrConnClosed = errors.New("connection closed")
)

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
// TrySend must never block.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
