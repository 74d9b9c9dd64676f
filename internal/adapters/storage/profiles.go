package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
)

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrInvalidProfileName = errors.New("invalid profile name")
	ErrInvalidDocument    = errors.New("document is not valid JSON")
)

const maxProfileName = 64

// ProfileStore keeps named screen/video assignments. Each document is
// stored as the client sent it.
type ProfileStore struct {
	mu       sync.RWMutex
	path     string
	profiles map[string]json.RawMessage
}

// NewProfileStore loads <dir>/profiles.json if it exists.
func NewProfileStore(dir string) (*ProfileStore, error) {
	s := &ProfileStore{
		path:     filepath.Join(dir, ProfilesFileName),
		profiles: make(map[string]json.RawMessage),
	}
	found, err := readJSON(s.path, &s.profiles)
	if err != nil {
		return nil, err
	}
	if s.profiles == nil {
		s.profiles = make(map[string]json.RawMessage)
	}
	log.Info().Str("module", "adapters.storage").Str("file", s.path).Bool("found", found).
		Int("profiles", len(s.profiles)).Msg("profiles loaded")
	return s, nil
}

func ValidateProfileName(name string) error {
	if strings.TrimSpace(name) == "" || utf8.RuneCountInString(name) > maxProfileName {
		return ErrInvalidProfileName
	}
	for _, r := range name {
		if unicode.IsControl(r) || r == '/' || r == '\\' {
			return ErrInvalidProfileName
		}
	}
	return nil
}

// Names returns profile names sorted.
func (s *ProfileStore) Names(_ context.Context) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.profiles))
	for name := range s.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *ProfileStore) All(_ context.Context) map[string]json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]json.RawMessage, len(s.profiles))
	for name, doc := range s.profiles {
		out[name] = append(json.RawMessage(nil), doc...)
	}
	return out
}

func (s *ProfileStore) Get(_ context.Context, name string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.profiles[name]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return append(json.RawMessage(nil), doc...), nil
}

// Put creates or replaces a profile and persists the whole set.
func (s *ProfileStore) Put(_ context.Context, name string, doc json.RawMessage) error {
	if err := ValidateProfileName(name); err != nil {
		return err
	}
	if !json.Valid(doc) {
		return ErrInvalidDocument
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.profiles[name]
	s.profiles[name] = append(json.RawMessage(nil), doc...)
	if err := writeJSONAtomic(s.path, s.profiles); err != nil {
		if existed {
			s.profiles[name] = prev
		} else {
			delete(s.profiles, name)
		}
		return fmt.Errorf("save profile %q: %w", name, err)
	}
	log.Info().Str("module", "adapters.storage").Str("profile", name).Msg("profile saved")
	return nil
}

func (s *ProfileStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.profiles[name]
	if !ok {
		return ErrProfileNotFound
	}
	delete(s.profiles, name)
	if err := writeJSONAtomic(s.path, s.profiles); err != nil {
		s.profiles[name] = prev
		return fmt.Errorf("delete profile %q: %w", name, err)
	}
	log.Info().Str("module", "adapters.storage").Str("profile", name).Msg("profile deleted")
	return nil
}
