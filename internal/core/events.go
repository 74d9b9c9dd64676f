package core

import (
	"encoding/json"
	"fmt"

	"github.com/dkeye/VideoSync/internal/domain"
)

// Event is the name carried in the "type" field of every message.
type Event string

// Inbound intents.
const (
	EvRegister      Event = "register"
	EvPlayerReady   Event = "player-ready"
	EvVideoMetadata Event = "video-metadata"
	EvClientLog     Event = "client-log"
)

// Control events. Received from controllers and re-broadcast under the same name.
const (
	EvLoadScreen      Event = "load-screen"
	EvPlayAll         Event = "play-all"
	EvPauseAll        Event = "pause-all"
	EvStopAll         Event = "stop-all"
	EvSyncAll         Event = "sync-all"
	EvSeekAll         Event = "seek-all"
	EvSetLoopDuration Event = "set-loop-duration"
	EvToggleLabels    Event = "toggle-labels"
)

// EvClientStatus carries the player snapshot.
const EvClientStatus Event = "client-status"

// Envelope is the wire shape in both directions.
type Envelope struct {
	Type Event           `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type RegisterPayload struct {
	Role   domain.Role    `json:"role" validate:"required"`
	Screen *domain.Screen `json:"screen,omitempty"`
}

type PlayerReadyPayload struct {
	Screen *domain.Screen `json:"screen,omitempty"`
}

type VideoMetadataPayload struct {
	Screen          *domain.Screen `json:"screen,omitempty"`
	Duration        *float64       `json:"duration" validate:"omitempty,gte=0"`
	EstimatedFrames *int64         `json:"estimatedFrames" validate:"omitempty,gte=0"`
}

type LoadScreenPayload struct {
	Screen    *domain.Screen `json:"screen" validate:"required,gte=1"`
	VideoName string         `json:"videoName" validate:"required"`
}

type SeekPayload struct {
	Time *float64 `json:"time" validate:"required,gte=0"`
}

// LoopDurationPayload with a nil or zero Duration means "loop at the natural end".
type LoopDurationPayload struct {
	Duration *float64 `json:"duration" validate:"omitempty,gte=0"`
}

type LabelsPayload struct {
	Show *bool `json:"show" validate:"required"`
}

type ClientLogPayload struct {
	ClientType string         `json:"clientType"`
	Screen     *domain.Screen `json:"screen,omitempty"`
	Message    string         `json:"message" validate:"required"`
}

type StatusPayload struct {
	Players []domain.ClientRecord `json:"players"`
}

// Encode wraps data in an Envelope. A nil data produces an envelope without "data".
func Encode(ev Event, data any) (Frame, error) {
	env := Envelope{Type: ev}
	switch v := data.(type) {
	case nil:
	case json.RawMessage:
		env.Data = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", ev, err)
		}
		env.Data = b
	}
	b, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ev, err)
	}
	return b, nil
}
