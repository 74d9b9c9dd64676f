package app

import (
	"errors"
	"fmt"

	"github.com/dkeye/VideoSync/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropMessage
	KickConnection
)

// Policy decides what happens to a recipient that could not take a broadcast.
type Policy interface {
	OnBackPressure(conn core.SignalConnection, err error) BackpressureAction
}

// DropPolicy loses the message; the recipient catches up with the next status publish.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.SignalConnection, error) BackpressureAction {
	return DropMessage
}

// KickPolicy closes slow recipients. A closed connection is left to its own
// read loop to clean up.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(_ core.SignalConnection, err error) BackpressureAction {
	if errors.Is(err, core.ErrConnClosed) {
		return NoAction
	}
	return KickConnection
}

// PolicyByName maps the "backpressure" config value to a Policy.
func PolicyByName(name string) (Policy, error) {
	switch name {
	case "", "drop":
		return DropPolicy{}, nil
	case "kick":
		return KickPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown backpressure policy %q", name)
	}
}
