package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VideoSync/internal/core"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "adapters.signal").Str("conn", string(c.id)).Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "adapters.signal").Str("conn", string(c.id)).Msg("writePump set deadline")
				return
			}
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "adapters.signal").Str("conn", string(c.id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("module", "adapters.signal").Str("conn", string(c.id)).Msg("ping failed")
				return
			}
		}
	}
}

// readPump owns the connection's lifetime: when it returns the connection
// is closed and its record released.
func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, c *WsSignalConn) {
	stop := context.AfterFunc(ctx, c.Close)
	defer func() {
		stop()
		cancel()
		c.Close()
		ctl.Limiter.Forget(c.id)
		ctl.Orch.Disconnect(c.id)
		log.Info().Str("module", "adapters.signal").Str("conn", string(c.id)).Msg("readPump closing")
	}()

	c.conn.SetReadLimit(ctl.cfg.ReadLimit)
	extend := func() error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.cfg.ReadDeadline()))
	}
	_ = extend()
	c.conn.SetPongHandler(func(string) error { return extend() })

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Str("module", "adapters.signal").Str("conn", string(c.id)).Msg("readPump read error")
			}
			return
		}
		_ = extend()
		ctl.handleSignal(c, data)
	}
}

func (ctl *SignalWSController) handleSignal(c *WsSignalConn, data []byte) {
	var env core.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "adapters.signal").Str("conn", string(c.id)).Msg("bad json")
		ctl.Orch.Metrics.IncMalformed("envelope")
		return
	}

	switch env.Type {
	case core.EvRegister:
		ctl.handleRegister(c, env)
	case core.EvPlayerReady:
		ctl.handlePlayerReady(c, env)
	case core.EvVideoMetadata:
		ctl.handleVideoMetadata(c, env)
	case core.EvClientLog:
		ctl.handleClientLog(c, env)
	case core.EvLoadScreen:
		ctl.handleLoadScreen(c, env)
	case core.EvPlayAll:
		ctl.count(env)
		ctl.Orch.PlayAll(env.Data)
	case core.EvPauseAll:
		ctl.count(env)
		ctl.Orch.PauseAll()
	case core.EvStopAll:
		ctl.count(env)
		ctl.Orch.StopAll()
	case core.EvSyncAll:
		ctl.count(env)
		ctl.Orch.SyncAll(env.Data)
	case core.EvSeekAll:
		ctl.handleSeekAll(c, env)
	case core.EvSetLoopDuration:
		ctl.handleSetLoopDuration(c, env)
	case core.EvToggleLabels:
		ctl.handleToggleLabels(c, env)
	default:
		log.Warn().Str("module", "adapters.signal").Str("conn", string(c.id)).Str("type", string(env.Type)).Msg("unknown signal")
	}
}

// decode fills dst from the envelope data and validates it. A payload that
// fails either step is logged, counted and dropped.
func (ctl *SignalWSController) decode(c *WsSignalConn, env core.Envelope, dst any) bool {
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, dst); err != nil {
			ctl.malformed(c, env, err)
			return false
		}
	}
	if err := ctl.validate.Struct(dst); err != nil {
		ctl.malformed(c, env, err)
		return false
	}
	ctl.count(env)
	return true
}

func (ctl *SignalWSController) malformed(c *WsSignalConn, env core.Envelope, err error) {
	log.Warn().Err(err).Str("module", "adapters.signal").Str("conn", string(c.id)).Str("type", string(env.Type)).Msg("bad payload")
	ctl.Orch.Metrics.IncMalformed(string(env.Type))
}

func (ctl *SignalWSController) count(env core.Envelope) {
	ctl.Orch.Metrics.IncIntent(string(env.Type))
}
