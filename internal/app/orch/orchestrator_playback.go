package orch

import (
	"encoding/json"

	"github.com/dkeye/VideoSync/internal/core"
	"github.com/rs/zerolog/log"
)

// Control commands go to every connection, the sender included. Players
// ignore commands for screens that are not theirs; only the registry side
// of load-screen is screen-scoped.

// LoadScreen records the new video on the matching players, then tells everyone.
func (o *Orchestrator) LoadScreen(p core.LoadScreenPayload) {
	log.Info().Str("module", "app.orch").Int("screen", int(*p.Screen)).Str("video", p.VideoName).Msg("load screen")
	o.command(core.EvLoadScreen, p, func() bool {
		return o.Registry.OnLoad(*p.Screen, p.VideoName)
	})
}

// PlayAll forwards data untouched; it may be empty.
func (o *Orchestrator) PlayAll(data json.RawMessage) {
	log.Info().Str("module", "app.orch").Msg("broadcasting play all")
	o.command(core.EvPlayAll, data, nil)
}

func (o *Orchestrator) PauseAll() {
	log.Info().Str("module", "app.orch").Msg("broadcasting pause all")
	o.command(core.EvPauseAll, nil, nil)
}

// StopAll tells everyone to stop and clears loaded videos and readiness.
func (o *Orchestrator) StopAll() {
	log.Info().Str("module", "app.orch").Msg("broadcasting stop all")
	o.command(core.EvStopAll, nil, o.Registry.OnReset)
}

func (o *Orchestrator) SyncAll(data json.RawMessage) {
	log.Info().Str("module", "app.orch").Msg("broadcasting sync all")
	o.command(core.EvSyncAll, data, nil)
}

func (o *Orchestrator) SeekAll(p core.SeekPayload) {
	log.Info().Str("module", "app.orch").Float64("time", *p.Time).Msg("broadcasting seek all")
	o.command(core.EvSeekAll, p, nil)
}

func (o *Orchestrator) SetLoopDuration(p core.LoopDurationPayload) {
	ev := log.Info().Str("module", "app.orch")
	if p.Duration != nil && *p.Duration > 0 {
		ev = ev.Float64("duration", *p.Duration)
	} else {
		ev = ev.Str("duration", "natural")
	}
	ev.Msg("setting loop duration")
	o.command(core.EvSetLoopDuration, p, nil)
}

func (o *Orchestrator) ToggleLabels(p core.LabelsPayload) {
	log.Info().Str("module", "app.orch").Bool("show", *p.Show).Msg("toggle labels")
	o.command(core.EvToggleLabels, p, nil)
}

// command applies the registry side effect, broadcasts the command, and
// publishes the status when the registry changed, all as one step.
func (o *Orchestrator) command(ev core.Event, data any, apply func() bool) {
	o.mu.Lock()
	changed := apply != nil && apply()
	dropped := o.broadcastLocked(ev, data)
	if changed {
		dropped = append(dropped, o.publishStatusLocked()...)
	}
	o.mu.Unlock()
	o.handleDropped(dropped)
}
