package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VideoSync/internal/core"
)

func (ctl *SignalWSController) handleRegister(c *WsSignalConn, env core.Envelope) {
	var p core.RegisterPayload
	if !ctl.decode(c, env, &p) {
		return
	}
	ctl.Orch.Register(c.id, p)
}

func (ctl *SignalWSController) handlePlayerReady(c *WsSignalConn, env core.Envelope) {
	var p core.PlayerReadyPayload
	if !ctl.decode(c, env, &p) {
		return
	}
	ctl.Orch.MarkReady(c.id, p)
}

func (ctl *SignalWSController) handleVideoMetadata(c *WsSignalConn, env core.Envelope) {
	var p core.VideoMetadataPayload
	if !ctl.decode(c, env, &p) {
		return
	}
	ctl.Orch.UpdateMetadata(c.id, p)
}

func (ctl *SignalWSController) handleClientLog(c *WsSignalConn, env core.Envelope) {
	if !ctl.Limiter.Allow(c.id) {
		log.Debug().Str("module", "adapters.signal").Str("conn", string(c.id)).Msg("client log rate limited")
		return
	}
	var p core.ClientLogPayload
	if !ctl.decode(c, env, &p) {
		return
	}
	ctl.Orch.ClientLog(c.id, p)
}
