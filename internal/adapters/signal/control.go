package signal

import (
	"github.com/dkeye/VideoSync/internal/core"
)

func (ctl *SignalWSController) handleLoadScreen(c *WsSignalConn, env core.Envelope) {
	var p core.LoadScreenPayload
	if !ctl.decode(c, env, &p) {
		return
	}
	ctl.Orch.LoadScreen(p)
}

func (ctl *SignalWSController) handleSeekAll(c *WsSignalConn, env core.Envelope) {
	var p core.SeekPayload
	if !ctl.decode(c, env, &p) {
		return
	}
	ctl.Orch.SeekAll(p)
}

func (ctl *SignalWSController) handleSetLoopDuration(c *WsSignalConn, env core.Envelope) {
	var p core.LoopDurationPayload
	if !ctl.decode(c, env, &p) {
		return
	}
	ctl.Orch.SetLoopDuration(p)
}

func (ctl *SignalWSController) handleToggleLabels(c *WsSignalConn, env core.Envelope) {
	var p core.LabelsPayload
	if !ctl.decode(c, env, &p) {
		return
	}
	ctl.Orch.ToggleLabels(p)
}
