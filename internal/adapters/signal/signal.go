package signal

import (
	"context"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VideoSync/internal/app/orch"
	"github.com/dkeye/VideoSync/internal/config"
	"github.com/dkeye/VideoSync/internal/core"
	"github.com/dkeye/VideoSync/internal/domain"
)

// SignalWSController terminates WebSocket connections and turns inbound
// envelopes into coordinator intents.
type SignalWSController struct {
	Orch    *orch.Orchestrator
	Limiter *ClientLogLimiter

	cfg      *config.Config
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewSignalWSController(o *orch.Orchestrator, cfg *config.Config) *SignalWSController {
	return &SignalWSController{
		Orch:     o,
		Limiter:  NewClientLogLimiter(cfg.ClientLogLimit, cfg.ClientLogInterval),
		cfg:      cfg,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// WsSignalConn is the send side of one connection. Frames are queued on a
// bounded channel drained by writePump; a full queue rejects the frame.
type WsSignalConn struct {
	id   domain.ConnID
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

// Close is idempotent. The read side notices the closed socket and runs the
// disconnect path.
func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		id:   domain.ConnID(uuid.NewString()),
		conn: ws,
		send: make(chan core.Frame, ctl.cfg.SendBuffer),
	}
	log.Info().Str("module", "adapters.signal").Str("conn", string(conn.id)).Str("client_token", token).
		Str("remote", c.ClientIP()).Msg("new WS connection")

	ctl.Orch.Connect(conn.id, conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, conn)
}
