package core

import "github.com/dkeye/VideoSync/internal/domain"

// ClientStore holds client records by connection id.
// Implementations are not required to be safe for concurrent use; the
// registry serializes every call.
type ClientStore interface {
	Upsert(id domain.ConnID, rec domain.ClientRecord)
	Get(id domain.ConnID) (domain.ClientRecord, bool)
	Remove(id domain.ConnID) bool
	// All returns copies of every record, in a stable order.
	All() []domain.ClientRecord
	Len() int
}

// MemoryStore is an in-memory ClientStore. Records keep their first
// insertion position; an upsert of an existing id replaces it in place.
type MemoryStore struct {
	records map[domain.ConnID]domain.ClientRecord
	order   []domain.ConnID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[domain.ConnID]domain.ClientRecord)}
}

func (s *MemoryStore) Upsert(id domain.ConnID, rec domain.ClientRecord) {
	if _, ok := s.records[id]; !ok {
		s.order = append(s.order, id)
	}
	rec.ID = id
	s.records[id] = rec
}

func (s *MemoryStore) Get(id domain.ConnID) (domain.ClientRecord, bool) {
	rec, ok := s.records[id]
	return rec, ok
}

func (s *MemoryStore) Remove(id domain.ConnID) bool {
	if _, ok := s.records[id]; !ok {
		return false
	}
	delete(s.records, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *MemoryStore) All() []domain.ClientRecord {
	out := make([]domain.ClientRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.records[id])
	}
	return out
}

func (s *MemoryStore) Len() int { return len(s.records) }
