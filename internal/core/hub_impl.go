package core

import (
	"sync"

	"github.com/dkeye/VideoSync/internal/domain"
	"github.com/rs/zerolog/log"
)

// hubImpl is a threadsafe in-memory connection set.
// It never closes adapter-owned resources.
type hubImpl struct {
	mu    sync.RWMutex
	conns map[domain.ConnID]SignalConnection
}

func NewConnectionHub() ConnectionHub {
	return &hubImpl{conns: make(map[domain.ConnID]SignalConnection)}
}

func (h *hubImpl) Add(id domain.ConnID, conn SignalConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[id] = conn
	log.Debug().Str("module", "core.hub").Str("conn", string(id)).Int("total", len(h.conns)).Msg("connection added")
}

func (h *hubImpl) Remove(id domain.ConnID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.conns[id]; !ok {
		return false
	}
	delete(h.conns, id)
	log.Debug().Str("module", "core.hub").Str("conn", string(id)).Int("total", len(h.conns)).Msg("connection removed")
	return true
}

func (h *hubImpl) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Broadcast offers data to every connection. A full or closed recipient is
// reported in Dropped and does not hold up the others.
func (h *hubImpl) Broadcast(data Frame) PublishResult {
	h.mu.RLock()
	defer h.mu.RUnlock()
	res := PublishResult{}
	for id, c := range h.conns {
		if err := c.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, DroppedSend{ID: id, Conn: c, Err: err})
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.hub").Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}
