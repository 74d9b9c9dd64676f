// Package domain holds the per-connection record and its value types.
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ConnID identifies one live connection. Assigned by the transport.
type ConnID string

type Role string

const (
	RoleController Role = "controller"
	RolePlayer     Role = "player"
)

// Valid reports whether r is one of the recognized roles.
func (r Role) Valid() bool {
	return r == RoleController || r == RolePlayer
}

// Screen is the physical display number a player represents.
// Browsers send it either as a number or as a numeric string.
type Screen int

func (s *Screen) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			*s = 0
			return nil
		}
		n, err := strconv.Atoi(str)
		if err != nil {
			return fmt.Errorf("screen %q is not a number", str)
		}
		*s = Screen(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("screen: %w", err)
	}
	*s = Screen(n)
	return nil
}

// ClientRecord is the per-connection state tracked by the registry.
// Pointer fields are never mutated in place, only replaced, so shallow
// copies are safe to hand out as snapshots.
type ClientRecord struct {
	ID              ConnID   `json:"id"`
	Role            Role     `json:"role"`
	Screen          *Screen  `json:"screen"`
	Ready           bool     `json:"readyState"`
	VideoName       *string  `json:"videoName"`
	Duration        *float64 `json:"duration"`
	EstimatedFrames *int64   `json:"estimatedFrames"`
}

// NewClientRecord builds a freshly registered record: not ready, nothing loaded.
func NewClientRecord(id ConnID, role Role, screen *Screen) ClientRecord {
	rec := ClientRecord{ID: id, Role: role}
	if screen != nil && *screen > 0 {
		s := *screen
		rec.Screen = &s
	}
	return rec
}

func (r ClientRecord) IsPlayer() bool { return r.Role == RolePlayer }

// OnScreen reports whether the record claims the given screen.
func (r ClientRecord) OnScreen(s Screen) bool {
	return r.Screen != nil && *r.Screen == s
}

func (r ClientRecord) Equal(o ClientRecord) bool {
	return r.ID == o.ID &&
		r.Role == o.Role &&
		r.Ready == o.Ready &&
		eqPtr(r.Screen, o.Screen) &&
		eqPtr(r.VideoName, o.VideoName) &&
		eqPtr(r.Duration, o.Duration) &&
		eqPtr(r.EstimatedFrames, o.EstimatedFrames)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
