package orch

import (
	"github.com/dkeye/VideoSync/internal/core"
	"github.com/dkeye/VideoSync/internal/domain"
	"github.com/rs/zerolog/log"
)

func (o *Orchestrator) Register(id domain.ConnID, p core.RegisterPayload) {
	o.mutate(func() bool {
		return o.Registry.Register(id, p.Role, p.Screen)
	})
}

func (o *Orchestrator) MarkReady(id domain.ConnID, p core.PlayerReadyPayload) {
	o.mutate(func() bool {
		changed := o.Registry.MarkReady(id)
		if changed {
			log.Info().Str("module", "app.orch").Str("conn", string(id)).Interface("screen", p.Screen).Msg("player ready")
		}
		return changed
	})
}

func (o *Orchestrator) UpdateMetadata(id domain.ConnID, p core.VideoMetadataPayload) {
	o.mutate(func() bool {
		changed := o.Registry.UpdateMetadata(id, p.Duration, p.EstimatedFrames)
		if changed {
			ev := log.Info().Str("module", "app.orch").Str("conn", string(id)).Interface("screen", p.Screen)
			if p.Duration != nil {
				ev = ev.Float64("duration", *p.Duration)
			}
			if p.EstimatedFrames != nil {
				ev = ev.Int64("estimated_frames", *p.EstimatedFrames)
			}
			ev.Msg("video metadata")
		}
		return changed
	})
}

// ClientLog forwards a browser-side log line to the operational log.
func (o *Orchestrator) ClientLog(id domain.ConnID, p core.ClientLogPayload) {
	log.Info().
		Str("module", "client").
		Str("conn", string(id)).
		Str("client_type", p.ClientType).
		Interface("screen", p.Screen).
		Msg(p.Message)
}
