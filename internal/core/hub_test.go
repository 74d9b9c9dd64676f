package core

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/VideoSync/internal/domain"
)

type recordingConn struct {
	mu     sync.Mutex
	frames []Frame
	err    error
	closed bool
}

func (c *recordingConn) TrySend(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *recordingConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *recordingConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.frames)
}

func TestHub_AddRemoveCount(t *testing.T) {
	t.Parallel()

	h := NewConnectionHub()
	h.Add("a", &recordingConn{})
	h.Add("b", &recordingConn{})
	assert.Equal(t, 2, h.Count())

	assert.True(t, h.Remove("a"))
	assert.False(t, h.Remove("a"))
	assert.Equal(t, 1, h.Count())
}

func TestHub_BroadcastSkipsFailingRecipients(t *testing.T) {
	t.Parallel()

	h := NewConnectionHub()
	ok1 := &recordingConn{}
	ok2 := &recordingConn{}
	full := &recordingConn{err: ErrBackpressure}
	h.Add("ok1", ok1)
	h.Add("full", full)
	h.Add("ok2", ok2)

	res := h.Broadcast(Frame(`{"type":"pause-all"}`))

	assert.Equal(t, 2, res.SentTo)
	require.Len(t, res.Dropped, 1)
	assert.Equal(t, domain.ConnID("full"), res.Dropped[0].ID)
	assert.ErrorIs(t, res.Dropped[0].Err, ErrBackpressure)
	assert.Equal(t, 1, ok1.count())
	assert.Equal(t, 1, ok2.count())
	assert.False(t, full.closed, "hub never closes connections")
}

func TestEncode(t *testing.T) {
	t.Parallel()

	f, err := Encode(EvPauseAll, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pause-all"}`, string(f))

	f, err = Encode(EvSyncAll, json.RawMessage(`{"time": 12.5, "extra": [1,2]}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"sync-all","data":{"time":12.5,"extra":[1,2]}}`, string(f))

	show := false
	f, err = Encode(EvToggleLabels, LabelsPayload{Show: &show})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"toggle-labels","data":{"show":false}}`, string(f))

	f, err = Encode(EvSetLoopDuration, LoopDurationPayload{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"set-loop-duration","data":{"duration":null}}`, string(f))
}
