package app

import (
	"sync"

	"github.com/dkeye/VideoSync/internal/core"
	"github.com/dkeye/VideoSync/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry owns the client records of all registered connections.
// Every mutation reports whether it actually changed anything, so callers
// can skip redundant status broadcasts.
type Registry struct {
	mu          sync.RWMutex
	store       core.ClientStore
	strictRoles bool
}

type RegistryOption func(*Registry)

// WithStrictRoles makes registration with an unrecognized role a no-op
// instead of storing a record that never shows up as a player.
func WithStrictRoles(strict bool) RegistryOption {
	return func(r *Registry) { r.strictRoles = strict }
}

// WithStore replaces the default in-memory store.
func WithStore(s core.ClientStore) RegistryOption {
	return func(r *Registry) { r.store = s }
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{store: core.NewMemoryStore()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register replaces whatever record the connection had with a fresh one.
func (r *Registry) Register(id domain.ConnID, role domain.Role, screen *domain.Screen) bool {
	if !role.Valid() {
		ev := log.Warn().Str("module", "app.registry").Str("conn", string(id)).Str("role", string(role))
		if r.strictRoles {
			ev.Msg("unrecognized role, registration ignored")
			return false
		}
		ev.Msg("unrecognized role, client will not be listed as a player")
	}

	rec := domain.NewClientRecord(id, role, screen)

	r.mu.Lock()
	defer r.mu.Unlock()
	prev, existed := r.store.Get(id)
	r.store.Upsert(id, rec)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("role", string(role)).Interface("screen", rec.Screen).Msg("registered")
	return !existed || !prev.Equal(rec)
}

func (r *Registry) MarkReady(id domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.store.Get(id)
	if !ok {
		log.Warn().Str("module", "app.registry").Str("conn", string(id)).Msg("ready from unregistered connection")
		return false
	}
	if rec.Ready {
		return false
	}
	rec.Ready = true
	r.store.Upsert(id, rec)
	return true
}

// UpdateMetadata sets whichever of duration and estimatedFrames is non-nil.
func (r *Registry) UpdateMetadata(id domain.ConnID, duration *float64, estimatedFrames *int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.store.Get(id)
	if !ok {
		log.Warn().Str("module", "app.registry").Str("conn", string(id)).Msg("metadata from unregistered connection")
		return false
	}
	next := rec
	if duration != nil {
		d := *duration
		next.Duration = &d
	}
	if estimatedFrames != nil {
		n := *estimatedFrames
		next.EstimatedFrames = &n
	}
	if next.Equal(rec) {
		return false
	}
	r.store.Upsert(id, next)
	return true
}

// OnLoad points every player on screen at videoName and clears its
// readiness. Several players may share a screen; all of them are updated.
func (r *Registry) OnLoad(screen domain.Screen, videoName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := false
	matched := 0
	for _, rec := range r.store.All() {
		if !rec.IsPlayer() || !rec.OnScreen(screen) {
			continue
		}
		matched++
		next := rec
		name := videoName
		next.VideoName = &name
		next.Ready = false
		if next.Equal(rec) {
			continue
		}
		r.store.Upsert(rec.ID, next)
		changed = true
	}
	log.Debug().Str("module", "app.registry").Int("screen", int(screen)).Str("video", videoName).Int("players", matched).Msg("load applied")
	return changed
}

// OnReset clears readiness and the loaded video of every player. Reported
// duration and frame count describe the asset and are kept.
func (r *Registry) OnReset() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	changed := false
	for _, rec := range r.store.All() {
		if !rec.IsPlayer() || (!rec.Ready && rec.VideoName == nil) {
			continue
		}
		rec.Ready = false
		rec.VideoName = nil
		r.store.Upsert(rec.ID, rec)
		changed = true
	}
	return changed
}

func (r *Registry) Deregister(id domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.store.Remove(id) {
		return false
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("deregistered")
	return true
}

func (r *Registry) Get(id domain.ConnID) (domain.ClientRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Get(id)
}

// PlayerSnapshot returns copies of all player records in store order.
func (r *Registry) PlayerSnapshot() []domain.ClientRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.store.All()
	out := make([]domain.ClientRecord, 0, len(all))
	for _, rec := range all {
		if rec.IsPlayer() {
			out = append(out, rec)
		}
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.Len()
}
