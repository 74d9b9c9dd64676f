package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
)

// ConfigStore holds the single "current configuration" document the
// controller page restores on load.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	doc  json.RawMessage
}

func NewConfigStore(dir string) (*ConfigStore, error) {
	s := &ConfigStore{path: filepath.Join(dir, ConfigFileName)}
	if _, err := readJSON(s.path, &s.doc); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns nil when nothing has been saved yet.
func (s *ConfigStore) Get(_ context.Context) json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.doc) == 0 {
		return nil
	}
	return append(json.RawMessage(nil), s.doc...)
}

func (s *ConfigStore) Put(_ context.Context, doc json.RawMessage) error {
	if !json.Valid(doc) {
		return ErrInvalidDocument
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := writeJSONAtomic(s.path, doc); err != nil {
		return fmt.Errorf("save current config: %w", err)
	}
	s.doc = append(json.RawMessage(nil), doc...)
	log.Info().Str("module", "adapters.storage").Int("bytes", len(doc)).Msg("current config saved")
	return nil
}
