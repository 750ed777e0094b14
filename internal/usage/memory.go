package usage

import (
	"context"
	"sync"
)

// MemoryStore holds the record in process memory.
type MemoryStore struct {
	mu     sync.Mutex
	record *Record
	saves  int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// NewMemoryStoreWith returns a store pre-seeded with record.
func NewMemoryStoreWith(record Record) *MemoryStore {
	return &MemoryStore{record: &record}
}

func (s *MemoryStore) Load(_ context.Context) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.record == nil {
		return Record{}, ErrNoRecord
	}
	return *s.record, nil
}

func (s *MemoryStore) Save(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = &record
	s.saves++
	return nil
}

// Saves reports how many times Save was called.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
