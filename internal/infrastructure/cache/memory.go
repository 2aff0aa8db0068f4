package cache

import (
	"context"
	"sync"

	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/repository"
)

// MemoryStore is a process-local cache. Entries are never purged; stale ones
// are overwritten by the next fetch of the same URL.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*entity.CacheEntry
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*entity.CacheEntry)}
}

var _ repository.CacheRepository = (*MemoryStore)(nil)

func (s *MemoryStore) Get(_ context.Context, key string) (*entity.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[key]
	if !ok {
		return nil, nil
	}
	copied := *entry
	return &copied, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, entry *entity.CacheEntry) error {
	copied := *entry

	s.mu.Lock()
	s.entries[key] = &copied
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
