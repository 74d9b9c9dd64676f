package orch

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/VideoSync/internal/app"
	"github.com/dkeye/VideoSync/internal/core"
	"github.com/dkeye/VideoSync/internal/domain"
	"github.com/dkeye/VideoSync/internal/metrics"
)

type fakeConn struct {
	mu     sync.Mutex
	frames []core.Frame
	full   bool
	closed bool
}

func (c *fakeConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return core.ErrConnClosed
	}
	if c.full {
		return core.ErrBackpressure
	}
	c.frames = append(c.frames, f)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *fakeConn) envelopes(t *testing.T) []core.Envelope {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Envelope, 0, len(c.frames))
	for _, f := range c.frames {
		var env core.Envelope
		require.NoError(t, json.Unmarshal(f, &env))
		out = append(out, env)
	}
	return out
}

func (c *fakeConn) types(t *testing.T) []core.Event {
	t.Helper()
	var out []core.Event
	for _, env := range c.envelopes(t) {
		out = append(out, env.Type)
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func lastStatus(t *testing.T, c *fakeConn) []domain.ClientRecord {
	t.Helper()
	envs := c.envelopes(t)
	for i := len(envs) - 1; i >= 0; i-- {
		if envs[i].Type != core.EvClientStatus {
			continue
		}
		var st core.StatusPayload
		require.NoError(t, json.Unmarshal(envs[i].Data, &st))
		return st.Players
	}
	t.Fatal("no client-status received")
	return nil
}

func newTestOrch(policy app.Policy) *Orchestrator {
	return &Orchestrator{
		Registry: app.NewRegistry(),
		Hub:      core.NewConnectionHub(),
		Policy:   policy,
		Metrics:  metrics.New(),
	}
}

func screen(n int) *domain.Screen {
	s := domain.Screen(n)
	return &s
}

func f64(v float64) *float64 { return &v }

func TestOrchestrator_RegisterPublishesToEveryone(t *testing.T) {
	t.Parallel()

	o := newTestOrch(app.DropPolicy{})
	ctrl, player := &fakeConn{}, &fakeConn{}
	o.Connect("c1", ctrl)
	o.Connect("p1", player)

	o.Register("c1", core.RegisterPayload{Role: domain.RoleController})
	o.Register("p1", core.RegisterPayload{Role: domain.RolePlayer, Screen: screen(1)})

	for _, c := range []*fakeConn{ctrl, player} {
		players := lastStatus(t, c)
		require.Len(t, players, 1)
		assert.Equal(t, domain.ConnID("p1"), players[0].ID)
		assert.Equal(t, domain.RolePlayer, players[0].Role)
		assert.False(t, players[0].Ready)
	}
}

func TestOrchestrator_LoadReadyFlow(t *testing.T) {
	t.Parallel()

	o := newTestOrch(app.DropPolicy{})
	ctrl, p1, p2 := &fakeConn{}, &fakeConn{}, &fakeConn{}
	o.Connect("c1", ctrl)
	o.Connect("p1", p1)
	o.Connect("p2", p2)
	o.Register("c1", core.RegisterPayload{Role: domain.RoleController})
	o.Register("p1", core.RegisterPayload{Role: domain.RolePlayer, Screen: screen(1)})
	o.Register("p2", core.RegisterPayload{Role: domain.RolePlayer, Screen: screen(2)})
	o.MarkReady("p1", core.PlayerReadyPayload{Screen: screen(1)})
	ctrl.reset()
	p2.reset()

	o.LoadScreen(core.LoadScreenPayload{Screen: screen(1), VideoName: "intro.mp4"})

	assert.Equal(t, []core.Event{core.EvLoadScreen, core.EvClientStatus}, ctrl.types(t))
	// screen 2 still gets the command; it filters by screen itself
	assert.Equal(t, []core.Event{core.EvLoadScreen, core.EvClientStatus}, p2.types(t))

	players := lastStatus(t, ctrl)
	require.Len(t, players, 2)
	require.NotNil(t, players[0].VideoName)
	assert.Equal(t, "intro.mp4", *players[0].VideoName)
	assert.False(t, players[0].Ready)
	assert.Nil(t, players[1].VideoName)

	o.MarkReady("p1", core.PlayerReadyPayload{Screen: screen(1)})
	players = lastStatus(t, ctrl)
	assert.True(t, players[0].Ready)
	require.NotNil(t, players[0].VideoName)
	assert.Equal(t, "intro.mp4", *players[0].VideoName)
}

func TestOrchestrator_LoadScreenForwardsPayload(t *testing.T) {
	t.Parallel()

	o := newTestOrch(nil)
	c := &fakeConn{}
	o.Connect("c1", c)

	o.LoadScreen(core.LoadScreenPayload{Screen: screen(3), VideoName: "a.mp4"})

	envs := c.envelopes(t)
	require.Len(t, envs, 1, "no players on screen 3, so no status publish")
	assert.Equal(t, core.EvLoadScreen, envs[0].Type)
	assert.JSONEq(t, `{"screen":3,"videoName":"a.mp4"}`, string(envs[0].Data))
}

func TestOrchestrator_CommandsWithoutStateChange(t *testing.T) {
	t.Parallel()

	o := newTestOrch(app.DropPolicy{})
	c := &fakeConn{}
	o.Connect("c1", c)
	o.Register("c1", core.RegisterPayload{Role: domain.RoleController})
	c.reset()

	o.PlayAll(json.RawMessage(`{"at":12.5}`))
	o.PauseAll()
	o.SyncAll(nil)
	o.SeekAll(core.SeekPayload{Time: f64(30)})
	o.SetLoopDuration(core.LoopDurationPayload{})
	show := false
	o.ToggleLabels(core.LabelsPayload{Show: &show})

	envs := c.envelopes(t)
	require.Len(t, envs, 6)
	assert.Equal(t, core.EvPlayAll, envs[0].Type)
	assert.JSONEq(t, `{"at":12.5}`, string(envs[0].Data))
	assert.Equal(t, core.EvPauseAll, envs[1].Type)
	assert.Empty(t, envs[1].Data)
	assert.Equal(t, core.EvSyncAll, envs[2].Type)
	assert.Equal(t, core.EvSeekAll, envs[3].Type)
	assert.JSONEq(t, `{"time":30}`, string(envs[3].Data))
	assert.Equal(t, core.EvSetLoopDuration, envs[4].Type)
	assert.JSONEq(t, `{"duration":null}`, string(envs[4].Data))
	assert.Equal(t, core.EvToggleLabels, envs[5].Type)
	assert.JSONEq(t, `{"show":false}`, string(envs[5].Data))
}

func TestOrchestrator_StopAllResetsPlayers(t *testing.T) {
	t.Parallel()

	o := newTestOrch(app.DropPolicy{})
	c := &fakeConn{}
	o.Connect("p1", c)
	o.Register("p1", core.RegisterPayload{Role: domain.RolePlayer, Screen: screen(1)})
	o.LoadScreen(core.LoadScreenPayload{Screen: screen(1), VideoName: "a.mp4"})
	o.UpdateMetadata("p1", core.VideoMetadataPayload{Duration: f64(12)})
	o.MarkReady("p1", core.PlayerReadyPayload{})
	c.reset()

	o.StopAll()

	assert.Equal(t, []core.Event{core.EvStopAll, core.EvClientStatus}, c.types(t))
	players := lastStatus(t, c)
	require.Len(t, players, 1)
	assert.False(t, players[0].Ready)
	assert.Nil(t, players[0].VideoName)
	require.NotNil(t, players[0].Duration)
	assert.InDelta(t, 12.0, *players[0].Duration, 1e-9)

	c.reset()
	o.StopAll()
	assert.Equal(t, []core.Event{core.EvStopAll}, c.types(t), "nothing left to reset")
}

func TestOrchestrator_RepeatedReadyPublishesOnce(t *testing.T) {
	t.Parallel()

	o := newTestOrch(app.DropPolicy{})
	c := &fakeConn{}
	o.Connect("p1", c)
	o.Register("p1", core.RegisterPayload{Role: domain.RolePlayer, Screen: screen(1)})
	c.reset()

	o.MarkReady("p1", core.PlayerReadyPayload{})
	o.MarkReady("p1", core.PlayerReadyPayload{})
	o.MarkReady("ghost", core.PlayerReadyPayload{})

	assert.Equal(t, []core.Event{core.EvClientStatus}, c.types(t))
}

func TestOrchestrator_DisconnectAlwaysPublishes(t *testing.T) {
	t.Parallel()

	o := newTestOrch(app.DropPolicy{})
	ctrl, player := &fakeConn{}, &fakeConn{}
	o.Connect("c1", ctrl)
	o.Connect("p1", player)
	o.Connect("anon", &fakeConn{})
	o.Register("c1", core.RegisterPayload{Role: domain.RoleController})
	o.Register("p1", core.RegisterPayload{Role: domain.RolePlayer, Screen: screen(1)})
	ctrl.reset()

	o.Disconnect("p1")
	assert.Empty(t, lastStatus(t, ctrl))
	_, ok := o.Registry.Get("p1")
	assert.False(t, ok)

	ctrl.reset()
	o.Disconnect("anon")
	assert.Equal(t, []core.Event{core.EvClientStatus}, ctrl.types(t))
	assert.Equal(t, 1, o.Hub.Count())

	player.reset()
	o.PauseAll()
	assert.Empty(t, player.types(t), "removed connections get nothing")
}

func TestOrchestrator_SlowConsumerDoesNotStallOthers(t *testing.T) {
	t.Parallel()

	o := newTestOrch(app.DropPolicy{})
	slow, fast := &fakeConn{full: true}, &fakeConn{}
	o.Connect("slow", slow)
	o.Connect("fast", fast)

	o.PauseAll()

	assert.Equal(t, []core.Event{core.EvPauseAll}, fast.types(t))
	assert.False(t, slow.isClosed(), "drop policy keeps the connection")
}

func TestOrchestrator_KickPolicyClosesSlowConsumer(t *testing.T) {
	t.Parallel()

	o := newTestOrch(app.KickPolicy{})
	slow, fast := &fakeConn{full: true}, &fakeConn{}
	o.Connect("slow", slow)
	o.Connect("fast", fast)

	o.PauseAll()

	assert.True(t, slow.isClosed())
	assert.False(t, fast.isClosed())
	assert.Equal(t, []core.Event{core.EvPauseAll}, fast.types(t))
}

func TestOrchestrator_ConcurrentIntents(t *testing.T) {
	t.Parallel()

	o := newTestOrch(app.DropPolicy{})
	observer := &fakeConn{}
	o.Connect("obs", observer)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		id := domain.ConnID(string(rune('a' + i)))
		n := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			o.Connect(id, &fakeConn{})
			o.Register(id, core.RegisterPayload{Role: domain.RolePlayer, Screen: screen(n)})
			o.MarkReady(id, core.PlayerReadyPayload{})
			o.PauseAll()
		}()
	}
	wg.Wait()

	players := lastStatus(t, observer)
	require.Len(t, players, 20)
	for _, p := range players {
		assert.True(t, p.Ready, "player %s", p.ID)
	}
}
