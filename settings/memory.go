package settings

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	data     map[string]Entry
	revision uint64
	closed   bool
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Entry)}
}

// Get returns the entry for key.
func (s *MemoryStore) Get(_ context.Context, key string) (Entry, error) {
	if err := ValidateKey(key); err != nil {
		return Entry{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return Entry{}, errClosed()
	}
	e, ok := s.data[key]
	if !ok {
		return Entry{}, errNotFound(key)
	}
	return e, nil
}

// Put stores value under key.
func (s *MemoryStore) Put(_ context.Context, key, value string) (uint64, error) {
	if err := ValidateKey(key); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, errClosed()
	}
	s.revision++
	s.data[key] = Entry{Key: key, Value: value, Revision: s.revision, Modified: time.Now().UTC()}
	return s.revision, nil
}

// Delete removes key.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed()
	}
	delete(s.data, key)
	return nil
}

// List returns every entry ordered by key.
func (s *MemoryStore) List(context.Context) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, errClosed()
	}
	entries := make([]Entry, 0, len(s.data))
	for _, e := range s.data {
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b Entry) int { return cmp.Compare(a.Key, b.Key) })
	return entries, nil
}

// Close drops the contents. Later calls fail with CANCELED.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
	return nil
}
