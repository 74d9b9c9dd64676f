package core

import "github.com/dkeye/VideoSync/internal/domain"

// DroppedSend names a recipient that did not accept a frame.
type DroppedSend struct {
	ID   domain.ConnID
	Conn SignalConnection
	Err  error
}

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []DroppedSend
}

// ConnectionHub is the set of open connections, registered or not.
// It owns the membership set but never touches transport resources.
type ConnectionHub interface {
	Add(id domain.ConnID, conn SignalConnection)
	Remove(id domain.ConnID) bool
	Count() int
	Broadcast(data Frame) PublishResult
}
