package orch

import (
	"sync"

	"github.com/dkeye/VideoSync/internal/app"
	"github.com/dkeye/VideoSync/internal/core"
	"github.com/dkeye/VideoSync/internal/domain"
	"github.com/dkeye/VideoSync/internal/metrics"
	"github.com/rs/zerolog/log"
)

// Orchestrator routes intents to the registry and fans events out to the hub.
//
// mu linearizes registry mutations with the broadcasts they cause: a status
// snapshot always reflects its own mutation and none that came after it.
// Nothing under mu blocks; hub sends are non-blocking.
type Orchestrator struct {
	Registry *app.Registry
	Hub      core.ConnectionHub
	Policy   app.Policy
	Metrics  *metrics.Metrics

	mu sync.Mutex
}

// Connect adds an open connection to the fan-out set. No record exists
// until the connection registers.
func (o *Orchestrator) Connect(id domain.ConnID, conn core.SignalConnection) {
	o.Hub.Add(id, conn)
	o.Metrics.SetConnections(o.Hub.Count())
	log.Info().Str("module", "app.orch").Str("conn", string(id)).Msg("connected")
}

// Disconnect releases the connection's record and republishes the status.
func (o *Orchestrator) Disconnect(id domain.ConnID) {
	o.mu.Lock()
	o.Hub.Remove(id)
	removed := o.Registry.Deregister(id)
	dropped := o.publishStatusLocked()
	o.mu.Unlock()

	o.Metrics.SetConnections(o.Hub.Count())
	log.Info().Str("module", "app.orch").Str("conn", string(id)).Bool("was_registered", removed).Msg("disconnected")
	o.handleDropped(dropped)
}

// PublishStatus broadcasts the current player snapshot to everyone.
func (o *Orchestrator) PublishStatus() {
	o.mu.Lock()
	dropped := o.publishStatusLocked()
	o.mu.Unlock()
	o.handleDropped(dropped)
}

// mutate runs fn under mu and publishes the status if fn reports a change.
func (o *Orchestrator) mutate(fn func() bool) {
	o.mu.Lock()
	var dropped []core.DroppedSend
	if fn() {
		dropped = o.publishStatusLocked()
	}
	o.mu.Unlock()
	o.handleDropped(dropped)
}

func (o *Orchestrator) publishStatusLocked() []core.DroppedSend {
	dropped := o.broadcastLocked(core.EvClientStatus, core.StatusPayload{Players: o.Registry.PlayerSnapshot()})
	o.Metrics.IncStatusPublishes()
	return dropped
}

func (o *Orchestrator) broadcastLocked(ev core.Event, data any) []core.DroppedSend {
	frame, err := core.Encode(ev, data)
	if err != nil {
		log.Error().Err(err).Str("module", "app.orch").Str("event", string(ev)).Msg("encode broadcast")
		return nil
	}
	res := o.Hub.Broadcast(frame)
	o.Metrics.IncBroadcast(string(ev))
	o.Metrics.AddDropped(len(res.Dropped))
	return res.Dropped
}

func (o *Orchestrator) handleDropped(dropped []core.DroppedSend) {
	for _, d := range dropped {
		action := app.DropMessage
		if o.Policy != nil {
			action = o.Policy.OnBackPressure(d.Conn, d.Err)
		}
		switch action {
		case app.KickConnection:
			log.Warn().Err(d.Err).Str("module", "app.orch").Str("conn", string(d.ID)).Msg("slow connection kicked")
			d.Conn.Close()
		case app.DropMessage:
			log.Warn().Err(d.Err).Str("module", "app.orch").Str("conn", string(d.ID)).Msg("message dropped")
		case app.NoAction:
		}
	}
}
